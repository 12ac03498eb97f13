package engine

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"notification-orchestrator/internal/models"
)

// Orchestrator composes the pipeline stages into the three inbox feeds.
type Orchestrator struct {
	opts   Options
	logger logrus.FieldLogger
	rank   func([]models.Notification, models.Channel, time.Time) []models.Notification
}

// New constructs an Orchestrator.
func New(opts Options, logger logrus.FieldLogger) *Orchestrator {
	return &Orchestrator{opts: opts, logger: logger, rank: Rank}
}

// Orchestrate runs suppress, bundle, route, rank, curate and layout over items as
// seen at now. It never panics: a failing stage yields empty feeds and a logged
// diagnostic.
func (o *Orchestrator) Orchestrate(items []models.Notification, now time.Time) (feeds models.Feeds) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.WithFields(logrus.Fields{
				"input": len(items),
				"panic": fmt.Sprint(r),
			}).Error("Orchestration failed, serving empty feeds")
			feeds = models.EmptyFeeds()
		}
	}()
	return o.run(items, now)
}

func (o *Orchestrator) run(items []models.Notification, now time.Time) models.Feeds {
	suppressed := Suppress(items, o.opts.DedupWindow)
	bundled := Bundle(suppressed, o.opts.BundleMinSize, o.opts.BundleWindow)
	routed := Route(bundled)

	feeds := models.Feeds{
		Direct:   o.channel(routed.Direct, models.ChannelDirect, now),
		Watching: o.channel(routed.Watching, models.ChannelWatching, now),
	}

	curated := Curate(o.rank(bundled, models.ChannelAIBoost, now), o.opts.AIBoostPoolSize, o.opts.AIBoostMax, now)
	feeds.AIBoost = AssignLayout(curated, o.opts.TopTierCap, o.opts.TopTierMinScore, true)
	feeds.UnreadCount = unreadCount(feeds.Direct, feeds.Watching)

	o.logger.WithFields(logrus.Fields{
		"input":      len(items),
		"suppressed": len(items) - len(suppressed),
		"bundled":    len(bundled),
		"direct":     len(feeds.Direct),
		"watching":   len(feeds.Watching),
		"ai_boost":   len(feeds.AIBoost),
	}).Debug("Orchestration complete")
	return feeds
}

func (o *Orchestrator) channel(items []models.Notification, ch models.Channel, now time.Time) []models.Notification {
	return AssignLayout(o.rank(items, ch, now), o.opts.TopTierCap, o.opts.TopTierMinScore, false)
}

func unreadCount(lists ...[]models.Notification) int {
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, n := range list {
			if !n.IsRead {
				seen[n.ID] = struct{}{}
			}
		}
	}
	return len(seen)
}
