package agentchat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agent-chat/agent-chat/internal/chatlog"
	"github.com/agent-chat/agent-chat/internal/cursor"
	"github.com/agent-chat/agent-chat/internal/doctor"
	"github.com/agent-chat/agent-chat/internal/focus"
	"github.com/agent-chat/agent-chat/internal/gc"
	"github.com/agent-chat/agent-chat/internal/lock"
	"github.com/agent-chat/agent-chat/internal/names"
	"github.com/agent-chat/agent-chat/internal/repo"
	"github.com/agent-chat/agent-chat/internal/session"
	"github.com/agent-chat/agent-chat/pkg/config"
	"github.com/agent-chat/agent-chat/pkg/errclass"
	"github.com/agent-chat/agent-chat/pkg/globmatch"
	"github.com/agent-chat/agent-chat/pkg/model"
	"github.com/agent-chat/agent-chat/pkg/pathutil"
)

// Client provides agent-chat operations on one project directory.
type Client struct {
	repo     *repo.Repo
	cfg      *config.Config
	log      *chatlog.Log
	cursors  *cursor.Tracker
	locks    *lock.Manager
	focuses  *focus.Store
	sessions *session.Directory
	matcher  globmatch.Matcher
	now      func() time.Time
}

// Override carries an explicitly supplied session id and/or display name.
type Override struct {
	SessionID string
	Name      string
}

// Init creates the .agent-chat layout under path (idempotent) and opens it.
func Init(path string) (*Client, error) {
	r, err := repo.Init(path)
	if err != nil {
		return nil, fmt.Errorf("agent-chat init: %w", err)
	}
	return newClient(r)
}

// Open opens the nearest .agent-chat directory at or above path.
func Open(path string) (*Client, error) {
	r, err := repo.Discover(path)
	if err != nil {
		return nil, fmt.Errorf("agent-chat open: %w", err)
	}
	return newClient(r)
}

// OpenOrInit opens the directory at path if it has one, or initializes it.
// Unlike Open it does not walk up to parent directories.
func OpenOrInit(path string) (*Client, error) {
	dir := filepath.Join(path, repo.DirName)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return Open(path)
	}
	return Init(path)
}

func newClient(r *repo.Repo) (*Client, error) {
	cfg, err := r.Config()
	if err != nil {
		return nil, err
	}
	log := chatlog.New(r.LogDir())
	return &Client{
		repo:     r,
		cfg:      cfg,
		log:      log,
		cursors:  cursor.New(r.CursorsDir(), log),
		locks:    lock.NewManager(r.LocksDir()),
		focuses:  focus.NewStore(r.FocusesDir()),
		sessions: session.NewDirectory(r.SessionsDir()),
		matcher:  globmatch.Default,
		now:      time.Now,
	}, nil
}

// SetClock replaces the time source of every store. Intended for tests.
func (c *Client) SetClock(now func() time.Time) {
	c.now = now
	c.log.SetClock(now)
	c.cursors.SetClock(now)
	c.locks.SetClock(now)
	c.focuses.SetClock(now)
}

// SetMatcher replaces the glob matcher used by CheckFile.
func (c *Client) SetMatcher(m globmatch.Matcher) { c.matcher = m }

// Root returns the project directory containing .agent-chat/.
func (c *Client) Root() string { return c.repo.Root }

// Dir returns the .agent-chat directory.
func (c *Client) Dir() string { return c.repo.Dir }

// Config returns the configuration loaded when the client was opened.
func (c *Client) Config() *config.Config { return c.cfg }

// Register assigns a generated display name to sessionID on first call and
// returns the existing one afterwards. Generated names avoid those already
// handed out where possible.
func (c *Client) Register(_ context.Context, sessionID string) (name string, created bool, err error) {
	taken, err := c.sessions.Names()
	if err != nil {
		return "", false, err
	}
	return c.sessions.Register(sessionID, func() string { return names.GenerateUnique(taken) })
}

// Resolve determines the calling identity from an explicit override or,
// failing that, the single registered session.
func (c *Client) Resolve(_ context.Context, o Override) (model.Identity, error) {
	return session.Resolve(c.sessions, session.Override{SessionID: o.SessionID, Name: o.Name})
}

// Sessions returns every registered session id.
func (c *Client) Sessions(_ context.Context) ([]string, error) {
	return c.sessions.List()
}

// Say appends a message from author.
func (c *Client) Say(_ context.Context, author, body string) (model.MessageID, error) {
	return c.log.Append(author, body)
}

// Messages returns the whole log in chronological order.
func (c *Client) Messages(_ context.Context) ([]*model.Message, error) {
	entries, err := c.log.List()
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	return chatlog.ReadAll(paths)
}

func sessionKey(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errclass.ErrMissingIdentity.WithMessage("a session id is required")
	}
	sessionID = pathutil.NormalizeName(sessionID)
	if err := pathutil.ValidateName(sessionID); err != nil {
		return "", err
	}
	return sessionID, nil
}

// Follow calls fn for each message posted after it starts, until ctx is
// cancelled. ready, if non-nil, is closed once watching has begun.
func (c *Client) Follow(ctx context.Context, ready chan<- struct{}, fn func(*model.Message)) error {
	return c.log.Follow(ctx, ready, fn)
}

func (c *Client) cursorPath(sessionID string) (string, error) {
	key, err := sessionKey(sessionID)
	if err != nil {
		return "", err
	}
	return c.cursors.Path(key), nil
}

// Unread returns messages newer than the session's cursor, skipping those by
// excludeAuthor. A session that has never read gets the last
// first_read_count messages.
func (c *Client) Unread(_ context.Context, sessionID, excludeAuthor string) ([]*model.Message, error) {
	p, err := c.cursorPath(sessionID)
	if err != nil {
		return nil, err
	}
	paths, err := c.cursors.Unread(p, c.cfg.FirstReadCount, excludeAuthor)
	if err != nil {
		return nil, err
	}
	return chatlog.ReadAll(paths)
}

// CountUnread counts messages newer than the session's cursor.
func (c *Client) CountUnread(_ context.Context, sessionID, excludeAuthor string) (int, error) {
	p, err := c.cursorPath(sessionID)
	if err != nil {
		return 0, err
	}
	return c.cursors.CountUnread(p, excludeAuthor)
}

// HasUnread is the cheap check comparing directory and cursor mtimes.
func (c *Client) HasUnread(_ context.Context, sessionID string) (bool, error) {
	p, err := c.cursorPath(sessionID)
	if err != nil {
		return false, err
	}
	return c.cursors.HasUnread(p)
}

// HasCursor reports whether the session has ever advanced its cursor.
func (c *Client) HasCursor(_ context.Context, sessionID string) (bool, error) {
	p, err := c.cursorPath(sessionID)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat cursor: %w", err)
}

// Advance marks everything currently in the log as read for the session.
func (c *Client) Advance(_ context.Context, sessionID string) error {
	p, err := c.cursorPath(sessionID)
	if err != nil {
		return err
	}
	return c.cursors.Advance(p)
}

// Lock acquires glob for id with the configured TTL.
func (c *Client) Lock(ctx context.Context, glob string, id model.Identity) (*model.LockEntry, error) {
	return c.LockFor(ctx, glob, id, c.cfg.LockTTL())
}

// LockFor acquires glob for id with an explicit TTL.
func (c *Client) LockFor(_ context.Context, glob string, id model.Identity, ttl time.Duration) (*model.LockEntry, error) {
	key, err := sessionKey(id.SessionID)
	if err != nil {
		return nil, err
	}
	return c.locks.Acquire(globmatch.Clean(glob), id.Name, key, ttl)
}

// Unlock releases glob held by sessionID.
func (c *Client) Unlock(_ context.Context, glob, sessionID string) error {
	key, err := sessionKey(sessionID)
	if err != nil {
		return err
	}
	return c.locks.Release(globmatch.Clean(glob), key)
}

// Locks lists unexpired locks sorted by glob.
func (c *Client) Locks(_ context.Context) ([]model.LockEntry, error) {
	return c.locks.ListActive()
}

// CheckFile returns the lock held by another session that covers path, or
// nil. Relative paths are taken relative to the project root.
func (c *Client) CheckFile(_ context.Context, path, sessionID string) (*model.LockEntry, error) {
	rel, err := pathutil.RelToRoot(c.repo.Root, c.repo.Root, path)
	if err != nil {
		return nil, err
	}
	return c.locks.Check(c.matcher, rel, pathutil.NormalizeName(sessionID))
}

// SetFocus records id's focus with the configured TTL and returns the other
// sessions' focuses that overlap it.
func (c *Client) SetFocus(_ context.Context, text string, id model.Identity) (*model.FocusEntry, []model.FocusEntry, error) {
	key, err := sessionKey(id.SessionID)
	if err != nil {
		return nil, nil, err
	}
	entry, err := c.focuses.Set(text, id.Name, key, c.cfg.FocusTTL())
	if err != nil {
		return nil, nil, err
	}
	overlaps, err := c.focuses.FindOverlapping(text, key)
	if err != nil {
		return entry, nil, err
	}
	return entry, overlaps, nil
}

// ClearFocus removes the session's focus, if any.
func (c *Client) ClearFocus(_ context.Context, sessionID string) error {
	key, err := sessionKey(sessionID)
	if err != nil {
		return err
	}
	return c.focuses.Clear(key)
}

// Focuses lists unexpired focuses.
func (c *Client) Focuses(_ context.Context) ([]model.FocusEntry, error) {
	return c.focuses.ListActive()
}

// Overlaps returns other sessions' focuses sharing a significant word with text.
func (c *Client) Overlaps(_ context.Context, text, sessionID string) ([]model.FocusEntry, error) {
	return c.focuses.FindOverlapping(text, pathutil.NormalizeName(sessionID))
}

// Doctor runs the health checks.
func (c *Client) Doctor(_ context.Context, strict bool) (*doctor.Result, error) {
	d := doctor.NewDoctor(c.repo)
	d.SetClock(c.now)
	return d.Check(strict)
}

// Repair applies doctor repair actions by ID.
func (c *Client) Repair(_ context.Context, actions []string) ([]doctor.RepairResult, error) {
	d := doctor.NewDoctor(c.repo)
	d.SetClock(c.now)
	return d.Repair(actions)
}

// RepairActions lists the repair actions Repair accepts.
func (c *Client) RepairActions() []doctor.RepairAction {
	return doctor.NewDoctor(c.repo).ListRepairActions()
}

// GC removes expired entries and stale temp files, or only reports them
// when dryRun is set.
func (c *Client) GC(_ context.Context, dryRun bool) (*gc.Result, error) {
	collector := gc.NewCollector(c.repo)
	collector.SetClock(c.now)
	if dryRun {
		return collector.Plan()
	}
	return collector.Run()
}
