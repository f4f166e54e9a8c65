// Package session maps session ids to display names and resolves the
// identity of the calling process.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/agent-chat/agent-chat/pkg/errclass"
	"github.com/agent-chat/agent-chat/pkg/fsutil"
	"github.com/agent-chat/agent-chat/pkg/model"
	"github.com/agent-chat/agent-chat/pkg/pathutil"
)

// Environment variables consulted by OverrideFromEnv.
const (
	EnvSessionID = "AGENT_CHAT_SESSION_ID"
	EnvName      = "AGENT_CHAT_NAME"
)

// Directory is the sessions/ store: one file per session id holding its name.
type Directory struct {
	dir string
}

// NewDirectory returns a Directory over dir.
func NewDirectory(dir string) *Directory {
	return &Directory{dir: dir}
}

// NewID returns a fresh random session id for callers that have none.
func NewID() string {
	return uuid.NewString()
}

func (d *Directory) path(id string) (string, error) {
	id = pathutil.NormalizeName(id)
	if err := pathutil.ValidateName(id); err != nil {
		return "", err
	}
	return filepath.Join(d.dir, id), nil
}

// Read returns the name recorded for id; ok is false when none exists.
func (d *Directory) Read(id string) (name string, ok bool, err error) {
	p, err := d.path(id)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read session: %w", err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

// Write records the name for id.
func (d *Directory) Write(id, name string) error {
	p, err := d.path(id)
	if err != nil {
		return err
	}
	name = pathutil.NormalizeName(name)
	if err := pathutil.ValidateName(name); err != nil {
		return err
	}
	if err := fsutil.AtomicWrite(p, []byte(name), 0644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// List returns every registered session id, sorted.
func (d *Directory) List() ([]string, error) {
	ids, err := fsutil.ReadDirNames(d.dir)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Names returns the set of names already handed out.
func (d *Directory) Names() (map[string]bool, error) {
	ids, err := d.List()
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(ids))
	for _, id := range ids {
		name, ok, err := d.Read(id)
		if err != nil || !ok {
			continue
		}
		taken[name] = true
	}
	return taken, nil
}

// Register assigns a name to id once. An existing record is returned
// unchanged with created=false.
func (d *Directory) Register(id string, generate func() string) (name string, created bool, err error) {
	existing, ok, err := d.Read(id)
	if err != nil {
		return "", false, err
	}
	if ok && existing != "" {
		return existing, false, nil
	}
	name = generate()
	if err := d.Write(id, name); err != nil {
		return "", false, err
	}
	return name, true, nil
}

// Override carries an explicitly supplied session id and/or name.
type Override struct {
	SessionID string
	Name      string
}

// OverrideFromEnv reads AGENT_CHAT_SESSION_ID and AGENT_CHAT_NAME.
func OverrideFromEnv() Override {
	return Override{
		SessionID: strings.TrimSpace(os.Getenv(EnvSessionID)),
		Name:      strings.TrimSpace(os.Getenv(EnvName)),
	}
}

// Resolve determines the calling identity. An explicit session id wins;
// otherwise a single registered session is inferred. With several
// concurrent sessions inference is impossible and ErrMissingIdentity is
// returned.
func Resolve(d *Directory, o Override) (model.Identity, error) {
	var id model.Identity
	id.SessionID = strings.TrimSpace(o.SessionID)
	if id.SessionID == "" {
		ids, err := d.List()
		if err != nil {
			return id, err
		}
		if len(ids) != 1 {
			return id, errclass.ErrMissingIdentity.WithMessagef(
				"set %s or pass --session (%d sessions registered)", EnvSessionID, len(ids))
		}
		id.SessionID = ids[0]
		id.Inferred = true
	}
	if err := pathutil.ValidateName(pathutil.NormalizeName(id.SessionID)); err != nil {
		return id, err
	}

	id.Name = strings.TrimSpace(o.Name)
	if id.Name == "" {
		name, _, err := d.Read(id.SessionID)
		if err != nil {
			return id, err
		}
		id.Name = name
	}
	return id, nil
}

// RequireName returns the identity's name or ErrMissingIdentity.
func RequireName(id model.Identity) (string, error) {
	if id.Name == "" {
		return "", errclass.ErrMissingIdentity.WithMessagef(
			"session %s has no name; set %s or run 'agent-chat register'", id.SessionID, EnvName)
	}
	return id.Name, nil
}
