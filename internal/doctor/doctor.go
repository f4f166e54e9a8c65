// Package doctor inspects an .agent-chat directory and reports problems
// that the stores would otherwise skip silently.
package doctor

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/agent-chat/agent-chat/internal/chatlog"
	"github.com/agent-chat/agent-chat/internal/focus"
	"github.com/agent-chat/agent-chat/internal/gc"
	"github.com/agent-chat/agent-chat/internal/lock"
	"github.com/agent-chat/agent-chat/internal/repo"
	"github.com/agent-chat/agent-chat/internal/session"
	"github.com/agent-chat/agent-chat/pkg/fsutil"
	"github.com/agent-chat/agent-chat/pkg/model"
	"github.com/agent-chat/agent-chat/pkg/pathutil"
)

// Severities, from least to most serious.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// StaleTempAge is how old a temp file must be before it counts as orphaned.
// Younger ones may belong to a writer that has not renamed yet.
const StaleTempAge = time.Minute

// Finding represents a detected issue.
type Finding struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Path        string `json:"path,omitempty"`
}

// Result contains doctor check results.
type Result struct {
	Healthy  bool      `json:"healthy"`
	Findings []Finding `json:"findings"`
}

func (r *Result) add(f Finding) {
	r.Findings = append(r.Findings, f)
	if f.Severity == SeverityError || f.Severity == SeverityCritical {
		r.Healthy = false
	}
}

// Doctor performs health checks. It never modifies the directory.
type Doctor struct {
	repo *repo.Repo
	now  func() time.Time
}

// NewDoctor creates a doctor for r.
func NewDoctor(r *repo.Repo) *Doctor {
	return &Doctor{repo: r, now: time.Now}
}

// SetClock replaces the time source used for expiry and temp-file age.
func (d *Doctor) SetClock(now func() time.Time) { d.now = now }

// Check runs all diagnostic checks. Strict mode additionally parses every
// message in the log.
func (d *Doctor) Check(strict bool) (*Result, error) {
	result := &Result{Healthy: true, Findings: []Finding{}}

	d.checkLayout(result)
	d.checkConfig(result)
	d.checkSessions(result)
	if err := d.checkLocks(result); err != nil {
		return nil, err
	}
	if err := d.checkFocuses(result); err != nil {
		return nil, err
	}
	if err := d.checkMessages(result, strict); err != nil {
		return nil, err
	}
	if err := d.checkOrphanTmp(result); err != nil {
		return nil, err
	}
	return result, nil
}

func (d *Doctor) checkLayout(result *Result) {
	for _, sub := range d.repo.MissingDirs() {
		result.add(Finding{
			Category:    "layout",
			Description: fmt.Sprintf("directory %s/ missing", sub),
			Severity:    SeverityCritical,
			Path:        filepath.Join(d.repo.Dir, sub),
		})
	}
}

func (d *Doctor) checkConfig(result *Result) {
	if _, err := d.repo.Config(); err != nil {
		result.add(Finding{
			Category:    "config",
			Description: err.Error(),
			Severity:    SeverityError,
			Path:        d.repo.ConfigPath(),
		})
	}
}

func (d *Doctor) checkSessions(result *Result) {
	dir := session.NewDirectory(d.repo.SessionsDir())
	ids, err := dir.List()
	if err != nil {
		return
	}
	for _, id := range ids {
		path := filepath.Join(d.repo.SessionsDir(), id)
		name, _, err := dir.Read(id)
		if err == nil {
			err = pathutil.ValidateName(name)
		}
		if err != nil {
			result.add(Finding{
				Category:    "session",
				Description: fmt.Sprintf("session %q has an invalid record: %v", id, err),
				Severity:    SeverityWarning,
				Path:        path,
			})
		}
	}
}

func (d *Doctor) checkLocks(result *Result) error {
	mgr := lock.NewManager(d.repo.LocksDir())
	mgr.SetClock(d.now)
	res, err := mgr.Sweep(true)
	if err != nil {
		return err
	}
	for _, p := range res.Malformed {
		result.add(Finding{Category: "lock", Description: "malformed lock entry", Severity: SeverityWarning, Path: p})
	}
	for _, e := range res.Expired {
		result.add(Finding{
			Category:    "lock",
			Description: fmt.Sprintf("expired lock on %s held by %s (since %s)", e.Glob, e.Owner, e.ExpiresAt().Format(time.RFC3339)),
			Severity:    SeverityInfo,
			Path:        mgr.Path(e.Glob),
		})
	}
	return nil
}

func (d *Doctor) checkFocuses(result *Result) error {
	store := focus.NewStore(d.repo.FocusesDir())
	store.SetClock(d.now)
	res, err := store.Sweep(true)
	if err != nil {
		return err
	}
	for _, p := range res.Malformed {
		result.add(Finding{Category: "focus", Description: "malformed focus entry", Severity: SeverityWarning, Path: p})
	}
	for _, e := range res.Expired {
		result.add(Finding{
			Category:    "focus",
			Description: fmt.Sprintf("expired focus of %s", e.Owner),
			Severity:    SeverityInfo,
			Path:        store.Path(e.SessionID),
		})
	}
	return nil
}

func (d *Doctor) checkMessages(result *Result, strict bool) error {
	names, err := fsutil.ReadDirNames(d.repo.LogDir())
	if err != nil {
		return fmt.Errorf("list messages: %w", err)
	}
	for _, name := range names {
		path := filepath.Join(d.repo.LogDir(), name)
		if !strings.HasSuffix(name, model.MessageExt) {
			result.add(Finding{Category: "message", Description: "unexpected file in log", Severity: SeverityInfo, Path: path})
			continue
		}
		if _, ok := model.ParseMessageID(name); !ok {
			result.add(Finding{Category: "message", Description: "message filename is not a timestamp", Severity: SeverityWarning, Path: path})
			continue
		}
		if !strict {
			continue
		}
		if _, err := chatlog.Read(path); err != nil {
			result.add(Finding{Category: "message", Description: fmt.Sprintf("unreadable message: %v", err), Severity: SeverityWarning, Path: path})
		}
	}
	return nil
}

func (d *Doctor) checkOrphanTmp(result *Result) error {
	temps, err := gc.StaleTempFiles(d.repo.Dir, d.now().Add(-StaleTempAge))
	if err != nil {
		return err
	}
	for _, p := range temps {
		result.add(Finding{
			Category:    "tmp",
			Description: fmt.Sprintf("orphan temp file: %s", filepath.Base(p)),
			Severity:    SeverityInfo,
			Path:        p,
		})
	}
	return nil
}

// RepairAction describes one fix Repair can apply.
type RepairAction struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// RepairResult reports the outcome of one repair action.
type RepairResult struct {
	Action  string `json:"action"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Cleaned int    `json:"cleaned"`
}

// ListRepairActions returns the available repair actions.
func (d *Doctor) ListRepairActions() []RepairAction {
	return []RepairAction{
		{ID: "restore_layout", Description: "recreate missing store directories and default config"},
		{ID: "sweep_expired", Description: "delete expired locks and focuses"},
		{ID: "clean_tmp", Description: "remove orphan temp files"},
	}
}

// Repair applies the named actions in order. Unknown actions produce a
// failed result rather than an error.
func (d *Doctor) Repair(actions []string) ([]RepairResult, error) {
	results := make([]RepairResult, 0, len(actions))
	for _, action := range actions {
		var res RepairResult
		switch action {
		case "restore_layout":
			res = d.restoreLayout()
		case "sweep_expired":
			res = d.sweepExpired()
		case "clean_tmp":
			res = d.cleanTmp()
		default:
			res = RepairResult{Action: action, Message: fmt.Sprintf("unknown repair action: %s", action)}
		}
		results = append(results, res)
	}
	return results, nil
}

func (d *Doctor) restoreLayout() RepairResult {
	missing := len(d.repo.MissingDirs())
	if _, err := repo.Init(d.repo.Root); err != nil {
		return RepairResult{Action: "restore_layout", Message: err.Error()}
	}
	return RepairResult{Action: "restore_layout", Success: true, Cleaned: missing,
		Message: fmt.Sprintf("restored %d director%s", missing, plural(missing, "y", "ies"))}
}

func (d *Doctor) sweepExpired() RepairResult {
	locks := lock.NewManager(d.repo.LocksDir())
	locks.SetClock(d.now)
	lres, err := locks.Sweep(false)
	if err != nil {
		return RepairResult{Action: "sweep_expired", Message: err.Error()}
	}
	focuses := focus.NewStore(d.repo.FocusesDir())
	focuses.SetClock(d.now)
	fres, err := focuses.Sweep(false)
	if err != nil {
		return RepairResult{Action: "sweep_expired", Message: err.Error(), Cleaned: len(lres.Expired)}
	}
	n := len(lres.Expired) + len(fres.Expired)
	return RepairResult{Action: "sweep_expired", Success: true, Cleaned: n,
		Message: fmt.Sprintf("removed %d expired entr%s", n, plural(n, "y", "ies"))}
}

func (d *Doctor) cleanTmp() RepairResult {
	temps, err := gc.StaleTempFiles(d.repo.Dir, d.now().Add(-StaleTempAge))
	if err != nil {
		return RepairResult{Action: "clean_tmp", Message: err.Error()}
	}
	cleaned := 0
	for _, p := range temps {
		if err := fsutil.RemoveIfExists(p); err != nil {
			return RepairResult{Action: "clean_tmp", Message: err.Error(), Cleaned: cleaned}
		}
		cleaned++
	}
	return RepairResult{Action: "clean_tmp", Success: true, Cleaned: cleaned,
		Message: fmt.Sprintf("removed %d temp file%s", cleaned, plural(cleaned, "", "s"))}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
