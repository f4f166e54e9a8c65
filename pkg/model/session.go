package model

// Identity is the resolved (session id, display name) pair of the calling process.
// Name is empty when the session has not been registered and no override was given.
type Identity struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name,omitempty"`
	Inferred  bool   `json:"inferred,omitempty"`
}
