package doctor_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agent-chat/agent-chat/internal/chatlog"
	"github.com/agent-chat/agent-chat/internal/doctor"
	"github.com/agent-chat/agent-chat/internal/lock"
	"github.com/agent-chat/agent-chat/internal/repo"
	"github.com/agent-chat/agent-chat/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepo(t *testing.T) *repo.Repo {
	r, err := repo.Init(t.TempDir())
	require.NoError(t, err)
	return r
}

func findings(res *doctor.Result, category string) []doctor.Finding {
	var out []doctor.Finding
	for _, f := range res.Findings {
		if f.Category == category {
			out = append(out, f)
		}
	}
	return out
}

func TestDoctor_Check_Healthy(t *testing.T) {
	r := setupTestRepo(t)
	_, err := chatlog.New(r.LogDir()).Append("swift-fox", "hello")
	require.NoError(t, err)
	require.NoError(t, session.NewDirectory(r.SessionsDir()).Write("s1", "swift-fox"))

	result, err := doctor.NewDoctor(r).Check(true)
	require.NoError(t, err)
	assert.True(t, result.Healthy)
	assert.Empty(t, result.Findings)
}

func TestDoctor_Check_MissingDir(t *testing.T) {
	r := setupTestRepo(t)
	require.NoError(t, os.RemoveAll(r.CursorsDir()))

	result, err := doctor.NewDoctor(r).Check(false)
	require.NoError(t, err)
	assert.False(t, result.Healthy)
	layout := findings(result, "layout")
	require.Len(t, layout, 1)
	assert.Equal(t, doctor.SeverityCritical, layout[0].Severity)
	assert.Contains(t, layout[0].Description, "cursors/")
}

func TestDoctor_Check_BadConfig(t *testing.T) {
	r := setupTestRepo(t)
	require.NoError(t, os.WriteFile(r.ConfigPath(), []byte("lock_ttl_secs: [oops"), 0644))

	result, err := doctor.NewDoctor(r).Check(false)
	require.NoError(t, err)
	assert.False(t, result.Healthy)
	assert.Len(t, findings(result, "config"), 1)
}

func TestDoctor_Check_MalformedAndExpiredLocks(t *testing.T) {
	r := setupTestRepo(t)
	base := time.Unix(1_700_000_000, 0)
	mgr := lock.NewManager(r.LocksDir())
	mgr.SetClock(func() time.Time { return base })
	_, err := mgr.Acquire("src/*.rs", "swift-fox", "s1", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(r.LocksDir(), "bad.lock"), []byte("{"), 0644))

	d := doctor.NewDoctor(r)
	d.SetClock(func() time.Time { return base.Add(time.Minute) })
	result, err := d.Check(false)
	require.NoError(t, err)

	// Malformed entries are warnings, so the directory stays healthy.
	assert.True(t, result.Healthy)
	locks := findings(result, "lock")
	require.Len(t, locks, 2)
	assert.Equal(t, doctor.SeverityWarning, locks[0].Severity)
	assert.Equal(t, doctor.SeverityInfo, locks[1].Severity)
	assert.Contains(t, locks[1].Description, "src/*.rs")

	// Check is read-only.
	assert.FileExists(t, mgr.Path("src/*.rs"))
}

func TestDoctor_Check_StrictParsesMessages(t *testing.T) {
	r := setupTestRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(r.LogDir(), "1700000000000000000.md"), []byte("no header"), 0644))

	result, err := doctor.NewDoctor(r).Check(false)
	require.NoError(t, err)
	assert.Empty(t, findings(result, "message"))

	result, err = doctor.NewDoctor(r).Check(true)
	require.NoError(t, err)
	assert.Len(t, findings(result, "message"), 1)
}

func TestDoctor_Check_OrphanTmp(t *testing.T) {
	r := setupTestRepo(t)
	tmp := filepath.Join(r.LocksDir(), ".tmp.42.lock")
	require.NoError(t, os.WriteFile(tmp, []byte("data"), 0644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(tmp, old, old))

	result, err := doctor.NewDoctor(r).Check(false)
	require.NoError(t, err)
	assert.True(t, result.Healthy)
	tmps := findings(result, "tmp")
	require.Len(t, tmps, 1)
	assert.Equal(t, tmp, tmps[0].Path)
}

func TestDoctor_ListRepairActions(t *testing.T) {
	actions := doctor.NewDoctor(setupTestRepo(t)).ListRepairActions()
	ids := map[string]bool{}
	for _, a := range actions {
		ids[a.ID] = true
	}
	assert.True(t, ids["restore_layout"])
	assert.True(t, ids["sweep_expired"])
	assert.True(t, ids["clean_tmp"])
}

func TestDoctor_Repair(t *testing.T) {
	r := setupTestRepo(t)
	require.NoError(t, os.RemoveAll(r.FocusesDir()))
	tmp := filepath.Join(r.LogDir(), ".tmp.1.md")
	require.NoError(t, os.WriteFile(tmp, nil, 0644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(tmp, old, old))

	results, err := doctor.NewDoctor(r).Repair([]string{"restore_layout", "clean_tmp", "sweep_expired"})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, res := range results {
		assert.True(t, res.Success, res.Action)
	}
	assert.Equal(t, 1, results[0].Cleaned)
	assert.Equal(t, 1, results[1].Cleaned)
	assert.DirExists(t, r.FocusesDir())
	assert.NoFileExists(t, tmp)
}

func TestDoctor_Repair_UnknownAction(t *testing.T) {
	results, err := doctor.NewDoctor(setupTestRepo(t)).Repair([]string{"unknown_action"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Message, "unknown repair action")
}
