package chatlog

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/agent-chat/agent-chat/pkg/fsutil"
	"github.com/agent-chat/agent-chat/pkg/logging"
	"github.com/agent-chat/agent-chat/pkg/model"
)

// followDebounce groups bursts of events (a rename arrives as several).
const followDebounce = 50 * time.Millisecond

// Follow calls fn for every message that appears in the log after Follow
// starts, in filename order, until ctx is cancelled. Messages already
// present are not delivered. ready, if non-nil, is closed once the watch is
// established.
func (l *Log) Follow(ctx context.Context, ready chan<- struct{}, fn func(*model.Message)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(l.dir); err != nil {
		return fmt.Errorf("watch log: %w", err)
	}

	seen := map[string]bool{}
	existing, err := l.List()
	if err != nil {
		return err
	}
	for _, e := range existing {
		seen[e.Name] = true
	}
	if ready != nil {
		close(ready)
	}

	debounce := time.NewTimer(0)
	<-debounce.C
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if fsutil.IsTempName(name) || !strings.HasSuffix(name, model.MessageExt) {
				continue
			}
			debounce.Reset(followDebounce)

		case <-debounce.C:
			entries, err := l.List()
			if err != nil {
				return err
			}
			for _, e := range entries {
				if seen[e.Name] {
					continue
				}
				seen[e.Name] = true
				m, err := Read(e.Path)
				if err != nil {
					logging.Warn("skipping unreadable message", map[string]any{"path": e.Path, "error": err.Error()})
					continue
				}
				fn(m)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("watch error", map[string]any{"error": err.Error()})
		}
	}
}
