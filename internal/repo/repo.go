// Package repo resolves the .agent-chat directory and its fixed layout.
package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/agent-chat/agent-chat/pkg/config"
	"github.com/agent-chat/agent-chat/pkg/errclass"
	"github.com/agent-chat/agent-chat/pkg/fsutil"
)

const (
	DirName         = ".agent-chat"
	LogDirName      = "log"
	LocksDirName    = "locks"
	CursorsDirName  = "cursors"
	SessionsDirName = "sessions"
	FocusesDirName  = "focuses"
)

// Subdirs lists every store directory in creation order.
var Subdirs = []string{LogDirName, LocksDirName, CursorsDirName, SessionsDirName, FocusesDirName}

// Repo is a resolved agent-chat directory. Every path helper is pure.
type Repo struct {
	// Root is the project directory containing .agent-chat/.
	Root string
	// Dir is the .agent-chat directory itself.
	Dir string
}

// New builds a Repo for a project root without touching disk.
func New(projectRoot string) *Repo {
	return &Repo{Root: projectRoot, Dir: filepath.Join(projectRoot, DirName)}
}

// Init creates the layout under projectRoot. Existing directories and an
// existing config file are left untouched, so Init is idempotent.
func Init(projectRoot string) (*Repo, error) {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	r := New(abs)

	for _, sub := range Subdirs {
		dir := filepath.Join(r.Dir, sub)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	if _, err := os.Stat(r.ConfigPath()); os.IsNotExist(err) {
		if err := config.Save(r.Dir, config.Default()); err != nil {
			return nil, err
		}
	}

	if err := fsutil.FsyncDir(r.Dir); err != nil {
		return nil, fmt.Errorf("fsync agent dir: %w", err)
	}
	return r, nil
}

// Discover walks up from cwd to find the nearest directory containing .agent-chat/.
func Discover(cwd string) (*Repo, error) {
	path, err := filepath.Abs(cwd)
	if err != nil {
		return nil, fmt.Errorf("resolve cwd: %w", err)
	}
	for {
		candidate := filepath.Join(path, DirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return &Repo{Root: path, Dir: candidate}, nil
		}

		parent := filepath.Dir(path)
		if parent == path {
			return nil, errclass.ErrNotInitialized.WithMessage("no .agent-chat/ directory found; run 'agent-chat init'")
		}
		path = parent
	}
}

func (r *Repo) LogDir() string      { return filepath.Join(r.Dir, LogDirName) }
func (r *Repo) LocksDir() string    { return filepath.Join(r.Dir, LocksDirName) }
func (r *Repo) CursorsDir() string  { return filepath.Join(r.Dir, CursorsDirName) }
func (r *Repo) SessionsDir() string { return filepath.Join(r.Dir, SessionsDirName) }
func (r *Repo) FocusesDir() string  { return filepath.Join(r.Dir, FocusesDirName) }
func (r *Repo) ConfigPath() string  { return filepath.Join(r.Dir, config.FileName) }

// Config loads config.yaml, falling back to defaults when it is absent.
func (r *Repo) Config() (*config.Config, error) {
	return config.Load(r.Dir)
}

// MissingDirs returns the store directories that do not exist.
func (r *Repo) MissingDirs() []string {
	var missing []string
	for _, sub := range Subdirs {
		info, err := os.Stat(filepath.Join(r.Dir, sub))
		if err != nil || !info.IsDir() {
			missing = append(missing, sub)
		}
	}
	return missing
}
