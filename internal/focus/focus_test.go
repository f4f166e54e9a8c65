package focus_test

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/agent-chat/agent-chat/internal/focus"
	"github.com/agent-chat/agent-chat/pkg/errclass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func setup(t *testing.T) (*focus.Store, *clock, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "focuses")
	require.NoError(t, os.Mkdir(dir, 0755))
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	s := focus.NewStore(dir)
	s.SetClock(c.now)
	return s, c, dir
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"ci", "configuration"}, keys(focus.Tokenize("the CI configuration")))
	assert.Equal(t, []string{"auth-flow", "fixing", "login_page"}, keys(focus.Tokenize("Fixing auth-flow in login_page!")))
	assert.Equal(t, []string{"v2"}, keys(focus.Tokenize("a b v2 x")))
	assert.Empty(t, focus.Tokenize("the and of"))
}

func TestTokenize_KeepsSingleMultibyteLetters(t *testing.T) {
	assert.Equal(t, []string{"café", "é"}, keys(focus.Tokenize("é café x")))
}

func TestSet_ReplacesPrevious(t *testing.T) {
	s, _, dir := setup(t)
	_, err := s.Set("first thing", "swift-fox", "s1", time.Hour)
	require.NoError(t, err)
	_, err = s.Set("second thing", "swift-fox", "s1", time.Hour)
	require.NoError(t, err)

	active, err := s.ListActive()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "second thing", active[0].Focus)
	assert.FileExists(t, filepath.Join(dir, "s1.focus"))
}

func TestSet_RejectsEmpty(t *testing.T) {
	s, _, _ := setup(t)
	_, err := s.Set("   ", "swift-fox", "s1", time.Hour)
	require.ErrorIs(t, err, errclass.ErrNameInvalid)
}

func TestClear(t *testing.T) {
	s, _, _ := setup(t)
	require.NoError(t, s.Clear("s1"), "missing focus is fine")

	_, err := s.Set("work", "swift-fox", "s1", time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.Clear("s1"))

	active, err := s.ListActive()
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestListActive_ExpiryAndOrder(t *testing.T) {
	s, c, dir := setup(t)
	_, err := s.Set("later", "zesty-yak", "s3", time.Hour)
	require.NoError(t, err)
	_, err = s.Set("soon", "bold-hawk", "s2", 5*time.Second)
	require.NoError(t, err)
	_, err = s.Set("thing", "amber-ant", "s1", time.Hour)
	require.NoError(t, err)

	c.advance(6 * time.Second)
	active, err := s.ListActive()
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "amber-ant", active[0].Owner)
	assert.Equal(t, "zesty-yak", active[1].Owner)
	assert.NoFileExists(t, filepath.Join(dir, "s2.focus"))
}

func TestListActive_UnremovableExpiredEntry(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}
	s, c, dir := setup(t)
	_, err := s.Set("thing", "amber-ant", "s1", time.Hour)
	require.NoError(t, err)
	_, err = s.Set("soon", "bold-hawk", "s2", 5*time.Second)
	require.NoError(t, err)

	c.advance(6 * time.Second)
	require.NoError(t, os.Chmod(dir, 0555))
	defer os.Chmod(dir, 0755)

	active, err := s.ListActive()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "amber-ant", active[0].Owner)
	assert.FileExists(t, filepath.Join(dir, "s2.focus"))
}

func TestListActive_ToleratesMalformed(t *testing.T) {
	s, _, dir := setup(t)
	_, err := s.Set("thing", "amber-ant", "s1", time.Hour)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.focus"), []byte("nope"), 0644))

	first, err := s.ListActive()
	require.NoError(t, err)
	second, err := s.ListActive()
	require.NoError(t, err)
	assert.Len(t, first, 1)
	assert.Equal(t, first, second)
}

func TestFindOverlapping(t *testing.T) {
	s, _, _ := setup(t)
	_, err := s.Set("CI configuration", "swift-fox", "s1", time.Hour)
	require.NoError(t, err)

	overlaps, err := s.FindOverlapping("CI pipeline", "s2")
	require.NoError(t, err)
	require.Len(t, overlaps, 1)
	assert.Equal(t, "swift-fox", overlaps[0].Owner)

	overlaps, err = s.FindOverlapping("CI pipeline", "s1")
	require.NoError(t, err)
	assert.Empty(t, overlaps, "own focus is excluded")

	overlaps, err = s.FindOverlapping("database migration", "s2")
	require.NoError(t, err)
	assert.Empty(t, overlaps)
}

func TestFindOverlapping_StopWordsOnly(t *testing.T) {
	s, _, _ := setup(t)
	_, err := s.Set("the work on the thing", "swift-fox", "s1", time.Hour)
	require.NoError(t, err)

	overlaps, err := s.FindOverlapping("the", "s2")
	require.NoError(t, err)
	assert.Empty(t, overlaps)
}

func TestFindOverlapping_SkipsExpired(t *testing.T) {
	s, c, _ := setup(t)
	_, err := s.Set("CI configuration", "swift-fox", "s1", time.Second)
	require.NoError(t, err)
	c.advance(2 * time.Second)

	overlaps, err := s.FindOverlapping("CI pipeline", "s2")
	require.NoError(t, err)
	assert.Empty(t, overlaps)
}

func TestSweep_DryRun(t *testing.T) {
	s, c, dir := setup(t)
	_, err := s.Set("thing", "amber-ant", "s1", time.Second)
	require.NoError(t, err)
	c.advance(time.Minute)

	res, err := s.Sweep(true)
	require.NoError(t, err)
	assert.Len(t, res.Expired, 1)
	assert.FileExists(t, filepath.Join(dir, "s1.focus"))

	_, err = s.Sweep(false)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "s1.focus"))
}
