package model

import "time"

// LockEntry is stored at .agent-chat/locks/<digest>.lock
type LockEntry struct {
	Glob       string `json:"glob"`
	Owner      string `json:"owner"`
	SessionID  string `json:"session_id"`
	AcquiredAt int64  `json:"acquired_at"` // unix seconds
	TTLSecs    int64  `json:"ttl_secs"`
}

// ExpiresAt returns the instant after which the entry no longer counts.
func (l *LockEntry) ExpiresAt() time.Time {
	return time.Unix(l.AcquiredAt+l.TTLSecs, 0)
}

// IsExpired returns true once now is strictly past acquired_at + ttl.
func (l *LockEntry) IsExpired(now time.Time) bool {
	return now.Unix() > l.AcquiredAt+l.TTLSecs
}

// Remaining returns the time left before expiry, floored at zero.
func (l *LockEntry) Remaining(now time.Time) time.Duration {
	left := l.AcquiredAt + l.TTLSecs - now.Unix()
	if left < 0 {
		return 0
	}
	return time.Duration(left) * time.Second
}

// State classifies the entry at the given instant.
func (l *LockEntry) State(now time.Time) LockState {
	if l == nil {
		return LockStateFree
	}
	if l.IsExpired(now) {
		return LockStateExpired
	}
	return LockStateHeld
}
