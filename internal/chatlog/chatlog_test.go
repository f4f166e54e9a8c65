package chatlog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agent-chat/agent-chat/internal/chatlog"
	"github.com/agent-chat/agent-chat/pkg/errclass"
	"github.com/agent-chat/agent-chat/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLog(t *testing.T) *chatlog.Log {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "log")
	require.NoError(t, os.Mkdir(dir, 0755))
	return chatlog.New(dir)
}

func TestAppend_WritesHeaderAndBody(t *testing.T) {
	l := newLog(t)

	id, err := l.Append("swift-fox", "hello world")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(l.Dir(), id.Filename()))
	require.NoError(t, err)
	assert.Equal(t, "name: swift-fox\nhello world\n", string(data))
}

func TestAppend_RoundTrip(t *testing.T) {
	l := newLog(t)
	_, err := l.Append("swift-fox", "hello world")
	require.NoError(t, err)

	entries, err := l.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	msg, err := chatlog.Read(entries[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "swift-fox", msg.Author)
	assert.Equal(t, "hello world", msg.Body)
	assert.Equal(t, entries[0].ID, msg.ID)
}

func TestAppend_RejectsBadAuthor(t *testing.T) {
	l := newLog(t)
	_, err := l.Append("", "x")
	require.ErrorIs(t, err, errclass.ErrNameInvalid)
	_, err = l.Append("a\nname: b", "x")
	require.ErrorIs(t, err, errclass.ErrNameInvalid)
}

func TestList_ChronologicalAndFiltered(t *testing.T) {
	l := newLog(t)
	base := time.Unix(1_700_000_000, 0)
	tick := 0
	l.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Millisecond)
	})

	_, err := l.Append("swift-fox", "first")
	require.NoError(t, err)
	_, err = l.Append("bold-hawk", "second")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(l.Dir(), ".tmp.999.md"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(l.Dir(), "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(l.Dir(), "notes.md"), []byte("name: x\nstray\n"), 0644))

	entries, err := l.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Less(t, entries[0].Name, entries[1].Name)
	assert.Less(t, entries[0].ID, entries[1].ID)

	first, err := chatlog.Read(entries[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "first", first.Body)
}

func TestList_MissingDir(t *testing.T) {
	l := chatlog.New(filepath.Join(t.TempDir(), "missing"))
	entries, err := l.List()
	require.NoError(t, err)
	assert.Empty(t, entries)

	has, err := l.HasAny()
	require.NoError(t, err)
	assert.False(t, has)
}

func TestHasAny(t *testing.T) {
	l := newLog(t)
	has, err := l.HasAny()
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, os.WriteFile(filepath.Join(l.Dir(), ".tmp.1.md"), []byte("x"), 0644))
	has, err = l.HasAny()
	require.NoError(t, err)
	assert.False(t, has, "temp files are not messages")

	require.NoError(t, os.WriteFile(filepath.Join(l.Dir(), "README.md"), []byte("x"), 0644))
	has, err = l.HasAny()
	require.NoError(t, err)
	assert.False(t, has, "non-timestamp names are not messages")

	_, err = l.Append("test", "msg")
	require.NoError(t, err)
	has, err = l.HasAny()
	require.NoError(t, err)
	assert.True(t, has)
}

func TestParse(t *testing.T) {
	author, body, err := chatlog.Parse("name: bold-hawk\nline one\nline two\n\n")
	require.NoError(t, err)
	assert.Equal(t, "bold-hawk", author)
	assert.Equal(t, "line one\nline two", body)

	_, _, err = chatlog.Parse("no newline")
	require.ErrorIs(t, err, errclass.ErrMalformed)

	_, _, err = chatlog.Parse("author: x\nbody")
	require.ErrorIs(t, err, errclass.ErrMalformed)
}

func TestAuthor(t *testing.T) {
	l := newLog(t)
	id, err := l.Append("calm-otter", "a long body\nover lines")
	require.NoError(t, err)

	name, err := chatlog.Author(filepath.Join(l.Dir(), id.Filename()))
	require.NoError(t, err)
	assert.Equal(t, "calm-otter", name)

	bad := filepath.Join(l.Dir(), "1.md")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0644))
	_, err = chatlog.Author(bad)
	require.ErrorIs(t, err, errclass.ErrMalformed)
}

func TestReadAll_SkipsMalformed(t *testing.T) {
	l := newLog(t)
	id, err := l.Append("swift-fox", "ok")
	require.NoError(t, err)
	bad := filepath.Join(l.Dir(), "1.md")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0644))

	msgs, err := chatlog.ReadAll([]string{bad, filepath.Join(l.Dir(), id.Filename()), filepath.Join(l.Dir(), "gone.md")})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "ok", msgs[0].Body)
}

func TestFollow_DeliversNewMessages(t *testing.T) {
	dir := t.TempDir()
	l := chatlog.New(dir)
	_, err := l.Append("old-owl", "before")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *model.Message, 4)
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- l.Follow(ctx, ready, func(m *model.Message) { got <- m })
	}()
	<-ready

	_, err = l.Append("swift-fox", "after")
	require.NoError(t, err)

	select {
	case m := <-got:
		assert.Equal(t, "swift-fox", m.Author)
		assert.Equal(t, "after", m.Body)
	case <-time.After(5 * time.Second):
		t.Fatal("no message delivered")
	}

	cancel()
	require.NoError(t, <-done)
	assert.Empty(t, got)
}
