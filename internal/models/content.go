package models

import "time"

// Content type tags used by notifications to reference either collection.
const (
	ContentTypePost = "Post"
	ContentTypePoll = "Poll"
)

// DefaultTimerDuration is the duration (in days) a timer falls back to when
// it is disabled.
const DefaultTimerDuration = 1

// ContentTimer is the optional self-expiry attached to posts and polls.
// Duration is in days; fractional values are allowed. ExpiresAt is fixed at
// the moment the timer is set and never recomputed.
type ContentTimer struct {
	Enabled   bool       `json:"enabled" bson:"enabled"`
	Duration  float64    `json:"duration" bson:"duration"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
}

// Expired reports whether the timer has elapsed at the given instant.
// A disabled timer never expires.
func (t ContentTimer) Expired(now time.Time) bool {
	if !t.Enabled || t.ExpiresAt == nil {
		return false
	}
	return !now.Before(*t.ExpiresAt)
}

// NewTimer builds an enabled timer expiring durationDays from now.
func NewTimer(now time.Time, durationDays float64) ContentTimer {
	expiresAt := now.Add(time.Duration(durationDays * 24 * float64(time.Hour)))
	return ContentTimer{Enabled: true, Duration: durationDays, ExpiresAt: &expiresAt}
}

// DisabledTimer returns the cleared timer state.
func DisabledTimer() ContentTimer {
	return ContentTimer{Enabled: false, Duration: DefaultTimerDuration}
}

// visible implements the shared lifecycle predicate: an item is visible iff
// it is active and its timer (if any) has not elapsed. Expiry is lazy; the
// document stays stored and simply stops matching.
func visible(isActive bool, timer ContentTimer, now time.Time) bool {
	return isActive && !timer.Expired(now)
}

// UpdateTimerRequest defines the PATCH body for toggling a content timer.
// The nested shape matches the client contract.
type UpdateTimerRequest struct {
	Timer TimerConfig `json:"timer"`
}

// TimerConfig is the caller-supplied timer state.
type TimerConfig struct {
	Enabled  bool    `json:"enabled"`
	Duration float64 `json:"duration" validate:"omitempty,gt=0"`
}
