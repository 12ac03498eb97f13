package models

// Feeds is the orchestrated output: three ordered display lists.
type Feeds struct {
	Direct      []Notification `json:"direct"`
	Watching    []Notification `json:"watching"`
	AIBoost     []Notification `json:"ai_boost"`
	UnreadCount int            `json:"unreadCount"`
}

// EmptyFeeds returns feeds with non-nil empty lists so they encode as [].
func EmptyFeeds() Feeds {
	return Feeds{
		Direct:   []Notification{},
		Watching: []Notification{},
		AIBoost:  []Notification{},
	}
}

// Channel returns the list for ch.
func (f Feeds) Channel(ch Channel) []Notification {
	switch ch {
	case ChannelDirect:
		return f.Direct
	case ChannelWatching:
		return f.Watching
	case ChannelAIBoost:
		return f.AIBoost
	default:
		return nil
	}
}
