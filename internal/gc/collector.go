// Package gc removes state that has outlived its purpose: expired locks,
// expired focuses and temp files abandoned by crashed writers.
package gc

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/agent-chat/agent-chat/internal/focus"
	"github.com/agent-chat/agent-chat/internal/lock"
	"github.com/agent-chat/agent-chat/internal/repo"
	"github.com/agent-chat/agent-chat/pkg/fsutil"
	"github.com/agent-chat/agent-chat/pkg/logging"
	"github.com/agent-chat/agent-chat/pkg/model"
)

// DefaultTempAge is the minimum age of a temp file before it is collected.
const DefaultTempAge = time.Minute

// Result lists what a collection pass removed, or would remove on a dry run.
type Result struct {
	DryRun         bool               `json:"dry_run"`
	ExpiredLocks   []model.LockEntry  `json:"expired_locks"`
	ExpiredFocuses []model.FocusEntry `json:"expired_focuses"`
	TempFiles      []string           `json:"temp_files"`
}

// Total is the number of removed (or removable) items.
func (r *Result) Total() int {
	return len(r.ExpiredLocks) + len(r.ExpiredFocuses) + len(r.TempFiles)
}

// Collector handles garbage collection.
type Collector struct {
	repo    *repo.Repo
	now     func() time.Time
	tempAge time.Duration
}

// NewCollector creates a collector for r.
func NewCollector(r *repo.Repo) *Collector {
	return &Collector{repo: r, now: time.Now, tempAge: DefaultTempAge}
}

// SetClock replaces the time source.
func (c *Collector) SetClock(now func() time.Time) { c.now = now }

// SetTempAge changes the age threshold for temp files.
func (c *Collector) SetTempAge(d time.Duration) { c.tempAge = d }

// Plan reports what Run would remove without touching disk.
func (c *Collector) Plan() (*Result, error) {
	return c.collect(true)
}

// Run removes expired entries and stale temp files.
func (c *Collector) Run() (*Result, error) {
	return c.collect(false)
}

func (c *Collector) collect(dryRun bool) (*Result, error) {
	res := &Result{
		DryRun:         dryRun,
		ExpiredLocks:   []model.LockEntry{},
		ExpiredFocuses: []model.FocusEntry{},
		TempFiles:      []string{},
	}

	locks := lock.NewManager(c.repo.LocksDir())
	locks.SetClock(c.now)
	lres, err := locks.Sweep(dryRun)
	if err != nil {
		return nil, fmt.Errorf("sweep locks: %w", err)
	}
	res.ExpiredLocks = append(res.ExpiredLocks, lres.Expired...)

	focuses := focus.NewStore(c.repo.FocusesDir())
	focuses.SetClock(c.now)
	fres, err := focuses.Sweep(dryRun)
	if err != nil {
		return nil, fmt.Errorf("sweep focuses: %w", err)
	}
	res.ExpiredFocuses = append(res.ExpiredFocuses, fres.Expired...)

	temps, err := StaleTempFiles(c.repo.Dir, c.now().Add(-c.tempAge))
	if err != nil {
		return nil, err
	}
	for _, p := range temps {
		if !dryRun {
			if err := fsutil.RemoveIfExists(p); err != nil {
				logging.Warn("failed to remove temp file", map[string]any{"path": p, "error": err.Error()})
				continue
			}
		}
		res.TempFiles = append(res.TempFiles, p)
	}

	logging.Info("gc pass complete", map[string]any{
		"dry_run":  dryRun,
		"locks":    len(res.ExpiredLocks),
		"focuses":  len(res.ExpiredFocuses),
		"tmpfiles": len(res.TempFiles),
	})
	return res, nil
}

// StaleTempFiles lists temp files under root last modified at or before
// cutoff, sorted by path.
func StaleTempFiles(root string, cutoff time.Time) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if entry.IsDir() || !fsutil.IsTempName(entry.Name()) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan temp files: %w", err)
	}
	sort.Strings(out)
	return out, nil
}
