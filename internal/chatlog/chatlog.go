// Package chatlog implements the append-only message log: one immutable file
// per message, named by its nanosecond timestamp.
package chatlog

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/agent-chat/agent-chat/pkg/errclass"
	"github.com/agent-chat/agent-chat/pkg/fsutil"
	"github.com/agent-chat/agent-chat/pkg/logging"
	"github.com/agent-chat/agent-chat/pkg/model"
)

const headerPrefix = "name: "

// Entry is one message file found in the log directory.
type Entry struct {
	ID   model.MessageID
	Name string
	Path string
}

// Log is a handle on a log directory. It holds no state besides the path.
type Log struct {
	dir string
	now func() time.Time
}

// New returns a Log rooted at dir.
func New(dir string) *Log {
	return &Log{dir: dir, now: time.Now}
}

// Dir returns the log directory.
func (l *Log) Dir() string { return l.dir }

// SetClock overrides the time source used for message ids.
func (l *Log) SetClock(now func() time.Time) { l.now = now }

// Append writes a new message and returns its id. Readers never observe a
// partially written file. Two writers landing on the same nanosecond race on
// the rename and the later one wins.
func (l *Log) Append(author, body string) (model.MessageID, error) {
	if author == "" || strings.ContainsAny(author, "\r\n") {
		return 0, errclass.ErrNameInvalid.WithMessagef("invalid author %q", author)
	}
	id := model.MessageID(l.now().UnixNano())
	target := filepath.Join(l.dir, id.Filename())

	if err := fsutil.AtomicWrite(target, []byte(Encode(author, body)), 0644); err != nil {
		return 0, fmt.Errorf("append message: %w", err)
	}
	logging.Debug("message appended", map[string]any{"id": id.String(), "author": author})
	return id, nil
}

// List returns every message file in chronological (filename) order.
// A missing directory is an empty log.
func (l *Log) List() ([]Entry, error) {
	names, err := fsutil.ReadDirNames(l.dir)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		if !strings.HasSuffix(name, model.MessageExt) {
			continue
		}
		id, ok := model.ParseMessageID(name)
		if !ok {
			logging.Debug("skipping non-message file", map[string]any{"name": name})
			continue
		}
		entries = append(entries, Entry{ID: id, Name: name, Path: filepath.Join(l.dir, name)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// HasAny reports whether at least one message exists.
func (l *Log) HasAny() (bool, error) {
	names, err := fsutil.ReadDirNames(l.dir)
	if err != nil {
		return false, fmt.Errorf("scan messages: %w", err)
	}
	for _, name := range names {
		if !strings.HasSuffix(name, model.MessageExt) {
			continue
		}
		if _, ok := model.ParseMessageID(name); ok {
			return true, nil
		}
	}
	return false, nil
}

// Read loads and parses one message file.
func Read(path string) (*model.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}
	author, body, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	id, _ := model.ParseMessageID(filepath.Base(path))
	return &model.Message{ID: id, Author: author, Body: body, Path: path}, nil
}

// ReadAll parses every path, skipping and logging malformed files.
func ReadAll(paths []string) ([]*model.Message, error) {
	msgs := make([]*model.Message, 0, len(paths))
	for _, p := range paths {
		m, err := Read(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			logging.Warn("skipping unreadable message", map[string]any{"path": p, "error": err.Error()})
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// Author reads only the header line of a message file.
func Author(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open message: %w", err)
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil {
		return "", errclass.ErrMalformed.WithMessagef("%s: missing header line", filepath.Base(path))
	}
	name, ok := strings.CutPrefix(strings.TrimSuffix(line, "\n"), headerPrefix)
	if !ok {
		return "", errclass.ErrMalformed.WithMessagef("%s: header must start with %q", filepath.Base(path), headerPrefix)
	}
	return name, nil
}

// Encode renders the on-disk form of a message.
func Encode(author, body string) string {
	return headerPrefix + author + "\n" + body + "\n"
}

// Parse splits file content into author and body. The first line must be
// "name: <author>"; the body is the rest with trailing whitespace removed.
func Parse(content string) (author, body string, err error) {
	header, rest, found := strings.Cut(content, "\n")
	if !found {
		return "", "", errclass.ErrMalformed.WithMessage("missing header line")
	}
	author, ok := strings.CutPrefix(header, headerPrefix)
	if !ok {
		return "", "", errclass.ErrMalformed.WithMessagef("header must start with %q", headerPrefix)
	}
	return author, strings.TrimRight(rest, " \t\r\n"), nil
}
