package model

import "time"

// NotificationState records when each PR was last alerted on. It is kept for
// bookkeeping and debugging; whether to alert is decided by the diff engine.
type NotificationState struct {
	LastNotified map[string]time.Time `json:"lastNotified"`
}

// NewNotificationState returns an empty state with an initialized map.
func NewNotificationState() NotificationState {
	return NotificationState{LastNotified: make(map[string]time.Time)}
}

// Copy returns a state whose map is independent of the receiver's.
func (s NotificationState) Copy() NotificationState {
	out := NewNotificationState()
	for id, at := range s.LastNotified {
		out.LastNotified[id] = at
	}
	return out
}
