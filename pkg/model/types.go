package model

// LockState represents the current state of a lock as seen by a reader.
type LockState string

const (
	LockStateHeld    LockState = "held"
	LockStateExpired LockState = "expired"
	LockStateFree    LockState = "free"
)

// File extensions and name prefixes shared by every store under the root.
const (
	MessageExt = ".md"
	LockExt    = ".lock"
	FocusExt   = ".focus"
	TempPrefix = ".tmp."
)
