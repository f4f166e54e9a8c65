// Package lock implements advisory, TTL-bound glob locks stored one file per
// glob. Acquisition is check-then-write: two racing processes can both be
// told they succeeded, and afterwards exactly one entry remains on disk.
package lock

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/agent-chat/agent-chat/pkg/errclass"
	"github.com/agent-chat/agent-chat/pkg/fsutil"
	"github.com/agent-chat/agent-chat/pkg/globmatch"
	"github.com/agent-chat/agent-chat/pkg/logging"
	"github.com/agent-chat/agent-chat/pkg/model"
)

// ConflictError reports a lock held by another live session.
type ConflictError struct {
	Glob      string
	Owner     string
	SessionID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s is locked by %s", errclass.ErrLockConflict.Code, e.Glob, e.Owner)
}

// Is lets errors.Is(err, errclass.ErrLockConflict) match.
func (e *ConflictError) Is(target error) bool {
	return errors.Is(errclass.ErrLockConflict, target)
}

// ErrorCode returns the stable class code.
func (e *ConflictError) ErrorCode() string { return errclass.ErrLockConflict.Code }

// Manager reads and writes lock entries in a single directory.
type Manager struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// NewManager creates a new lock manager over dir.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir, now: time.Now}
}

// SetClock overrides the time source used for stamps and expiry.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

// Digest returns the stable 16-hex-digit file stem for a glob.
func Digest(glob string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(glob))
}

// Path returns the lock file for a glob.
func (m *Manager) Path(glob string) string {
	return filepath.Join(m.dir, Digest(glob)+model.LockExt)
}

// Acquire claims glob for sessionID. An unexpired entry owned by another
// session yields a *ConflictError; one owned by the same session is refreshed.
func (m *Manager) Acquire(glob, owner, sessionID string, ttl time.Duration) (*model.LockEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if glob == "" {
		return nil, errclass.ErrNameInvalid.WithMessage("glob must not be empty")
	}
	if ttl < 0 {
		return nil, errclass.ErrNameInvalid.WithMessagef("ttl must be >= 0, got %s", ttl)
	}

	now := m.now()
	if _, err := m.sweep(now, false); err != nil {
		return nil, err
	}

	path := m.Path(glob)
	existing, err := readEntry(path)
	switch {
	case err == nil:
		if !existing.IsExpired(now) && existing.SessionID != sessionID {
			return nil, &ConflictError{Glob: glob, Owner: existing.Owner, SessionID: existing.SessionID}
		}
	case errors.Is(err, fs.ErrNotExist):
	case errors.Is(err, errclass.ErrMalformed):
		logging.Warn("overwriting malformed lock entry", map[string]any{"path": path})
	default:
		return nil, err
	}

	rec := &model.LockEntry{
		Glob:       glob,
		Owner:      owner,
		SessionID:  sessionID,
		AcquiredAt: now.Unix(),
		TTLSecs:    int64(ttl / time.Second),
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal lock: %w", err)
	}
	if err := fsutil.AtomicWrite(path, data, 0644); err != nil {
		return nil, fmt.Errorf("write lock: %w", err)
	}
	return rec, nil
}

// Release removes the lock on glob. Only the owning session may release an
// unexpired lock; anyone may release an expired or unreadable one.
func (m *Manager) Release(glob, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := m.Path(glob)
	rec, err := readEntry(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return errclass.ErrLockNotFound.WithMessagef("no lock on %s", glob)
	case errors.Is(err, errclass.ErrMalformed):
	case err != nil:
		return err
	default:
		if rec.SessionID != sessionID && !rec.IsExpired(m.now()) {
			return &ConflictError{Glob: glob, Owner: rec.Owner, SessionID: rec.SessionID}
		}
	}

	if err := fsutil.RemoveIfExists(path); err != nil {
		return fmt.Errorf("remove lock: %w", err)
	}
	return nil
}

// ListActive returns every unexpired entry sorted by glob. Expired entries
// are deleted on the way; malformed ones are skipped.
func (m *Manager) ListActive() ([]model.LockEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, err := m.sweep(m.now(), false)
	if err != nil {
		return nil, err
	}
	return res.Active, nil
}

// Check returns the first active lock held by another session whose glob
// matches filePath, or nil.
func (m *Manager) Check(matcher globmatch.Matcher, filePath, sessionID string) (*model.LockEntry, error) {
	active, err := m.ListActive()
	if err != nil {
		return nil, err
	}
	for i := range active {
		rec := active[i]
		if rec.SessionID == sessionID {
			continue
		}
		if matcher.Match(rec.Glob, filePath) {
			return &rec, nil
		}
	}
	return nil, nil
}

// SweepResult describes one pass over the lock directory.
type SweepResult struct {
	Active    []model.LockEntry
	Expired   []model.LockEntry
	Malformed []string
}

// Sweep deletes expired entries (or only reports them when dryRun is set).
func (m *Manager) Sweep(dryRun bool) (*SweepResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweep(m.now(), dryRun)
}

func (m *Manager) sweep(now time.Time, dryRun bool) (*SweepResult, error) {
	names, err := fsutil.ReadDirNames(m.dir)
	if err != nil {
		return nil, fmt.Errorf("list locks: %w", err)
	}
	res := &SweepResult{}
	for _, name := range names {
		if !strings.HasSuffix(name, model.LockExt) {
			continue
		}
		path := filepath.Join(m.dir, name)
		rec, err := readEntry(path)
		if err != nil {
			if errors.Is(err, errclass.ErrMalformed) {
				logging.Warn("skipping malformed lock entry", map[string]any{"path": path})
				res.Malformed = append(res.Malformed, path)
			}
			continue
		}
		if rec.IsExpired(now) {
			res.Expired = append(res.Expired, *rec)
			if !dryRun {
				if err := fsutil.RemoveIfExists(path); err != nil {
					logging.Warn("could not remove expired lock", map[string]any{"path": path, "error": err.Error()})
				} else {
					logging.Debug("removed expired lock", map[string]any{"glob": rec.Glob, "owner": rec.Owner})
				}
			}
			continue
		}
		res.Active = append(res.Active, *rec)
	}
	sort.Slice(res.Active, func(i, j int) bool { return res.Active[i].Glob < res.Active[j].Glob })
	return res, nil
}

func readEntry(path string) (*model.LockEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("read lock: %w", err)
	}
	var rec model.LockEntry
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errclass.ErrMalformed.WithMessagef("%s: %v", filepath.Base(path), err)
	}
	if rec.Glob == "" || rec.SessionID == "" {
		return nil, errclass.ErrMalformed.WithMessagef("%s: missing glob or session_id", filepath.Base(path))
	}
	return &rec, nil
}
