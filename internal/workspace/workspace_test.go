package workspace

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blake-leads/enrich-cli/internal/config"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(config.WorkspaceConfig{
		Root:          t.TempDir(),
		RetentionDays: 7,
	})
}

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestDirsCreatedPerUser(t *testing.T) {
	m := testManager(t)

	up, err := m.UploadsDir("u1")
	require.NoError(t, err)
	res, err := m.ResultsDir("u1")
	require.NoError(t, err)
	tmp, err := m.TempDir("u1")
	require.NoError(t, err)

	for _, dir := range []string{up, res, tmp} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	assert.NotEqual(t, up, res)

	other, err := m.UploadsDir("u2")
	require.NoError(t, err)
	assert.NotEqual(t, up, other)
}

func TestCleanupBatchFiles(t *testing.T) {
	m := testManager(t)
	uid := "abc-123"

	dir, err := m.TempDir(uid)
	require.NoError(t, err)

	now := time.Now()
	mine := filepath.Join(dir, "phone_extraction_20260101_120000_abc-123.csv")
	stray := filepath.Join(dir, "phone_ready_20260101_120000.csv")
	touch(t, mine, now)
	touch(t, stray, now)

	require.NoError(t, m.CleanupBatchFiles(uid))

	_, err = os.Stat(mine)
	assert.True(t, os.IsNotExist(err), "uid-tagged batch file removed")
	_, err = os.Stat(stray)
	assert.NoError(t, err, "files without the uid are left alone")
}

func TestSweepRespectsRetentionAndFinalOutputs(t *testing.T) {
	m := testManager(t)
	now := time.Now()
	old := now.Add(-30 * 24 * time.Hour)

	up, err := m.UploadsDir("u1")
	require.NoError(t, err)
	res, err := m.ResultsDir("u1")
	require.NoError(t, err)
	tmp, err := m.TempDir("u1")
	require.NoError(t, err)

	oldUpload := filepath.Join(up, "leads.csv")
	freshUpload := filepath.Join(up, "new_leads.csv")
	oldCleaned := filepath.Join(res, "Cleaned_leads.csv")
	oldMerged := filepath.Join(res, "Merged_leads.csv")
	oldOwners := filepath.Join(res, "leads_with_bcpa_owners.csv")
	oldTemp := filepath.Join(tmp, "phone_ready_20260101_120000.csv")

	touch(t, oldUpload, old)
	touch(t, freshUpload, now)
	touch(t, oldCleaned, old)
	touch(t, oldMerged, old)
	touch(t, oldOwners, old)
	touch(t, oldTemp, old)

	require.NoError(t, m.Sweep(now))

	_, err = os.Stat(oldUpload)
	assert.True(t, os.IsNotExist(err), "stale upload swept")
	_, err = os.Stat(oldTemp)
	assert.True(t, os.IsNotExist(err), "stale temp file swept")

	for _, kept := range []string{freshUpload, oldCleaned, oldMerged, oldOwners} {
		_, err = os.Stat(kept)
		assert.NoError(t, err, "%s must survive the sweep", filepath.Base(kept))
	}
}

func TestSweepMissingRootIsNoop(t *testing.T) {
	m := NewManager(config.WorkspaceConfig{
		Root:          filepath.Join(t.TempDir(), "nothing-here"),
		RetentionDays: 7,
	})
	assert.NoError(t, m.Sweep(time.Now()))
}

func TestIsFinalOutput(t *testing.T) {
	assert.True(t, IsFinalOutput("Cleaned_leads.csv"))
	assert.True(t, IsFinalOutput("Merged_leads.csv"))
	assert.True(t, IsFinalOutput("phone_extraction_20260101_120000.csv"))
	assert.True(t, IsFinalOutput("phone_extraction_20260101_120000_9f2c1d7e-55aa-4b6f-9d2e-0a1b2c3d4e5f.csv"))
	assert.True(t, IsFinalOutput("leads_with_bcpa_owners.csv"))
	assert.False(t, IsFinalOutput("phone_ready_20260101_120000.csv"))
	assert.False(t, IsFinalOutput("leads.xlsx"))
}
