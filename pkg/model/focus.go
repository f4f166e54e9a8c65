package model

import "time"

// FocusEntry is stored at .agent-chat/focuses/<session-id>.focus
type FocusEntry struct {
	Focus     string `json:"focus"`
	Owner     string `json:"owner"`
	SessionID string `json:"session_id"`
	SetAt     int64  `json:"set_at"` // unix seconds
	TTLSecs   int64  `json:"ttl_secs"`
}

// IsExpired returns true once now is strictly past set_at + ttl.
func (f *FocusEntry) IsExpired(now time.Time) bool {
	return now.Unix() > f.SetAt+f.TTLSecs
}

// Remaining returns the time left before expiry, floored at zero.
func (f *FocusEntry) Remaining(now time.Time) time.Duration {
	left := f.SetAt + f.TTLSecs - now.Unix()
	if left < 0 {
		return 0
	}
	return time.Duration(left) * time.Second
}
