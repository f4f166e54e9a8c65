// Package cursor tracks per-session read watermarks. A cursor is an empty
// file whose modification time marks the last moment its session caught up.
package cursor

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agent-chat/agent-chat/internal/chatlog"
	"github.com/agent-chat/agent-chat/pkg/fsutil"
	"github.com/agent-chat/agent-chat/pkg/logging"
)

// Tracker compares cursor mtimes against the message log.
type Tracker struct {
	dir string
	log *chatlog.Log
	now func() time.Time
}

// New returns a Tracker storing cursors in dir for the given log.
func New(dir string, log *chatlog.Log) *Tracker {
	return &Tracker{dir: dir, log: log, now: time.Now}
}

// SetClock overrides the time source used by Advance.
func (t *Tracker) SetClock(now func() time.Time) { t.now = now }

// Path returns the cursor file for a session.
func (t *Tracker) Path(sessionID string) string {
	return filepath.Join(t.dir, sessionID)
}

// mtime returns the cursor's watermark, or ok=false if it does not exist.
func mtime(cursorPath string) (time.Time, bool, error) {
	info, err := os.Stat(cursorPath)
	if os.IsNotExist(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("stat cursor: %w", err)
	}
	return info.ModTime(), true, nil
}

// HasUnread is the cheap check: the log directory changed after the cursor
// was last advanced. With no cursor, any message counts.
func (t *Tracker) HasUnread(cursorPath string) (bool, error) {
	mark, ok, err := mtime(cursorPath)
	if err != nil {
		return false, err
	}
	if !ok {
		return t.log.HasAny()
	}
	info, err := os.Stat(t.log.Dir())
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat log dir: %w", err)
	}
	return info.ModTime().After(mark), nil
}

// Unread returns message paths the session has not seen, in chronological
// order, excluding messages by excludeAuthor. On first contact (no cursor)
// only the last defaultCount remaining messages are returned.
func (t *Tracker) Unread(cursorPath string, defaultCount int, excludeAuthor string) ([]string, error) {
	mark, ok, err := mtime(cursorPath)
	if err != nil {
		return nil, err
	}
	paths, err := t.collect(mark, ok, excludeAuthor)
	if err != nil {
		return nil, err
	}
	if defaultCount < 0 {
		defaultCount = 0
	}
	if !ok && len(paths) > defaultCount {
		paths = paths[len(paths)-defaultCount:]
	}
	return paths, nil
}

// CountUnread counts what Unread would deliver, without the first-contact cap.
func (t *Tracker) CountUnread(cursorPath, excludeAuthor string) (int, error) {
	mark, ok, err := mtime(cursorPath)
	if err != nil {
		return 0, err
	}
	paths, err := t.collect(mark, ok, excludeAuthor)
	if err != nil {
		return 0, err
	}
	return len(paths), nil
}

func (t *Tracker) collect(mark time.Time, hasMark bool, excludeAuthor string) ([]string, error) {
	entries, err := t.log.List()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if hasMark {
			info, err := os.Stat(e.Path)
			if err != nil {
				continue
			}
			if !info.ModTime().After(mark) {
				continue
			}
		}
		if excludeAuthor != "" {
			author, err := chatlog.Author(e.Path)
			if err == nil && author == excludeAuthor {
				continue
			}
		}
		out = append(out, e.Path)
	}
	return out, nil
}

// Advance moves the watermark to now, creating the cursor if needed.
// A watermark already ahead of the clock is left alone.
func (t *Tracker) Advance(cursorPath string) error {
	now := t.now()
	mark, ok, err := mtime(cursorPath)
	if err != nil {
		return err
	}
	if !ok {
		if err := fsutil.AtomicWrite(cursorPath, nil, 0644); err != nil {
			return fmt.Errorf("create cursor: %w", err)
		}
	} else if mark.After(now) {
		logging.Debug("cursor ahead of clock, not moving it back", map[string]any{
			"cursor": cursorPath, "mtime": mark, "now": now,
		})
		return nil
	}
	if err := os.Chtimes(cursorPath, now, now); err != nil {
		return fmt.Errorf("advance cursor: %w", err)
	}
	return nil
}
