// Package engine turns a raw notification snapshot into the three ranked inbox feeds.
//
// Every stage is a pure function over its input slice: nothing is mutated in place and
// no state is kept between runs. The evaluation instant is passed in explicitly so a
// given (snapshot, now) pair always produces the same feeds.
package engine

import "time"

// Options holds the windows, caps and thresholds used by the pipeline.
type Options struct {
	DedupWindow     time.Duration
	BundleWindow    time.Duration
	BundleMinSize   int // clusters must be strictly larger than this
	AIBoostPoolSize int
	AIBoostMax      int
	TopTierCap      int
	TopTierMinScore float64
}

// DefaultOptions returns the production tuning.
func DefaultOptions() Options {
	return Options{
		DedupWindow:     24 * time.Hour,
		BundleWindow:    6 * time.Hour,
		BundleMinSize:   3,
		AIBoostPoolSize: 50,
		AIBoostMax:      5,
		TopTierCap:      3,
		TopTierMinScore: 80,
	}
}
