// Package focus stores per-session "working on" announcements and finds
// other sessions whose announcements share significant words.
package focus

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/agent-chat/agent-chat/pkg/errclass"
	"github.com/agent-chat/agent-chat/pkg/fsutil"
	"github.com/agent-chat/agent-chat/pkg/logging"
	"github.com/agent-chat/agent-chat/pkg/model"
)

// Store manages the focuses directory.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore returns a Store over dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// SetClock overrides the time source used for stamps and expiry.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// Path returns the focus file for a session.
func (s *Store) Path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+model.FocusExt)
}

// Set replaces the session's focus.
func (s *Store) Set(text, owner, sessionID string, ttl time.Duration) (*model.FocusEntry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errclass.ErrNameInvalid.WithMessage("focus must not be empty")
	}
	now := s.now()
	if _, err := s.sweep(now, false); err != nil {
		return nil, err
	}

	rec := &model.FocusEntry{
		Focus:     text,
		Owner:     owner,
		SessionID: sessionID,
		SetAt:     now.Unix(),
		TTLSecs:   int64(ttl / time.Second),
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal focus: %w", err)
	}
	if err := fsutil.AtomicWrite(s.Path(sessionID), data, 0644); err != nil {
		return nil, fmt.Errorf("write focus: %w", err)
	}
	return rec, nil
}

// Clear removes the session's focus. A missing focus is not an error.
func (s *Store) Clear(sessionID string) error {
	if err := fsutil.RemoveIfExists(s.Path(sessionID)); err != nil {
		return fmt.Errorf("clear focus: %w", err)
	}
	return nil
}

// ListActive returns unexpired focuses sorted by owner, deleting expired
// ones and skipping malformed ones.
func (s *Store) ListActive() ([]model.FocusEntry, error) {
	res, err := s.sweep(s.now(), false)
	if err != nil {
		return nil, err
	}
	return res.Active, nil
}

// FindOverlapping returns active focuses from other sessions sharing at
// least one significant token with text.
func (s *Store) FindOverlapping(text, sessionID string) ([]model.FocusEntry, error) {
	query := Tokenize(text)
	if len(query) == 0 {
		return nil, nil
	}
	active, err := s.ListActive()
	if err != nil {
		return nil, err
	}
	var out []model.FocusEntry
	for _, f := range active {
		if f.SessionID == sessionID {
			continue
		}
		if intersects(query, Tokenize(f.Focus)) {
			out = append(out, f)
		}
	}
	return out, nil
}

// SweepResult describes one pass over the focuses directory.
type SweepResult struct {
	Active    []model.FocusEntry
	Expired   []model.FocusEntry
	Malformed []string
}

// Sweep deletes expired focuses (or only reports them when dryRun is set).
func (s *Store) Sweep(dryRun bool) (*SweepResult, error) {
	return s.sweep(s.now(), dryRun)
}

func (s *Store) sweep(now time.Time, dryRun bool) (*SweepResult, error) {
	names, err := fsutil.ReadDirNames(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list focuses: %w", err)
	}
	res := &SweepResult{}
	for _, name := range names {
		if !strings.HasSuffix(name, model.FocusExt) {
			continue
		}
		path := filepath.Join(s.dir, name)
		rec, err := readEntry(path)
		if err != nil {
			if errors.Is(err, errclass.ErrMalformed) {
				logging.Warn("skipping malformed focus entry", map[string]any{"path": path})
				res.Malformed = append(res.Malformed, path)
			}
			continue
		}
		if rec.IsExpired(now) {
			res.Expired = append(res.Expired, *rec)
			if !dryRun {
				if err := fsutil.RemoveIfExists(path); err != nil {
					logging.Warn("could not remove expired focus", map[string]any{"path": path, "error": err.Error()})
				} else {
					logging.Debug("removed expired focus", map[string]any{"owner": rec.Owner})
				}
			}
			continue
		}
		res.Active = append(res.Active, *rec)
	}
	sort.Slice(res.Active, func(i, j int) bool {
		if res.Active[i].Owner != res.Active[j].Owner {
			return res.Active[i].Owner < res.Active[j].Owner
		}
		return res.Active[i].SessionID < res.Active[j].SessionID
	})
	return res, nil
}

func readEntry(path string) (*model.FocusEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("read focus: %w", err)
	}
	var rec model.FocusEntry
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errclass.ErrMalformed.WithMessagef("%s: %v", filepath.Base(path), err)
	}
	if rec.SessionID == "" {
		return nil, errclass.ErrMalformed.WithMessagef("%s: missing session_id", filepath.Base(path))
	}
	return &rec, nil
}

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`a an the and or but in on at to for of with by from
		is it as be was are this that into all no not so up out`) {
		stopWords[w] = struct{}{}
	}
}

// Tokenize lowercases text and splits it on anything other than letters,
// digits, '-' and '_'. Single-byte tokens and stop words are dropped.
func Tokenize(text string) map[string]struct{} {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_'
	})
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(w)
		if len(w) <= 1 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

func intersects(a, b map[string]struct{}) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for w := range a {
		if _, ok := b[w]; ok {
			return true
		}
	}
	return false
}
