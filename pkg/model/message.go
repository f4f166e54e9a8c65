package model

import (
	"strconv"
	"strings"
	"time"
)

// MessageID is the nanosecond wall-clock timestamp a message was written at.
// It doubles as the sort key: its decimal form is the file stem.
type MessageID int64

// ParseMessageID parses a log filename (with or without extension).
func ParseMessageID(name string) (MessageID, bool) {
	stem := strings.TrimSuffix(name, MessageExt)
	ns, err := strconv.ParseInt(stem, 10, 64)
	if err != nil || ns < 0 {
		return 0, false
	}
	return MessageID(ns), true
}

// String returns the decimal form used in filenames.
func (id MessageID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Filename returns the log filename for the id.
func (id MessageID) Filename() string {
	return id.String() + MessageExt
}

// Time converts the id back into a wall-clock time.
func (id MessageID) Time() time.Time {
	return time.Unix(0, int64(id))
}

// Message is one immutable log entry.
type Message struct {
	ID     MessageID `json:"id"`
	Author string    `json:"author"`
	Body   string    `json:"body"`
	Path   string    `json:"-"`
}

// Time returns the write time of the message.
func (m *Message) Time() time.Time {
	return m.ID.Time()
}
