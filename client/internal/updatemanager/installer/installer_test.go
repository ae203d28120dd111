package installer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTarget(t *testing.T, content string) string {
	t.Helper()
	target := filepath.Join(t.TempDir(), "gitify")
	require.NoError(t, os.WriteFile(target, []byte(content), 0o755))
	return target
}

func TestSelfApplier_Apply(t *testing.T) {
	target := writeTarget(t, "old binary")

	applier := &SelfApplier{TargetPath: target}
	require.NoError(t, applier.Apply([]byte("new binary")))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "new binary", string(data))

	_, err = os.Stat(stagedPath(target))
	assert.True(t, os.IsNotExist(err), "staged file must not survive a successful apply")
}

func TestSelfApplier_KeepBackup(t *testing.T) {
	target := writeTarget(t, "old binary")

	applier := &SelfApplier{TargetPath: target, KeepBackup: true}
	require.NoError(t, applier.Apply([]byte("new binary")))

	backup, err := os.ReadFile(backupPath(target))
	require.NoError(t, err)
	assert.Equal(t, "old binary", string(backup))

	require.NoError(t, applier.CleanUpInstallerFiles())
	_, err = os.Stat(backupPath(target))
	assert.True(t, os.IsNotExist(err))
}

func TestSelfApplier_Rejects(t *testing.T) {
	target := writeTarget(t, "old binary")
	applier := &SelfApplier{TargetPath: target}

	assert.Error(t, applier.Apply(nil))

	missingDir := &SelfApplier{TargetPath: filepath.Join(t.TempDir(), "missing", "gitify")}
	assert.Error(t, missingDir.Apply([]byte("new binary")))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "old binary", string(data))
}

func TestSelfApplier_CleanUpWithoutLeftovers(t *testing.T) {
	applier := &SelfApplier{TargetPath: writeTarget(t, "binary")}
	assert.NoError(t, applier.CleanUpInstallerFiles())
}

func TestResultHandler_WriteTake(t *testing.T) {
	fs := afero.NewMemMapFs()
	rh := NewResultHandlerWithFs(fs, "/data")

	_, ok, err := rh.Take()
	require.NoError(t, err)
	assert.False(t, ok)

	written := Result{Success: false, Error: "apply update: permission denied", Version: "1.2.0", ExecutedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, rh.Write(written))

	exists, err := afero.Exists(fs, "/data/result.json.tmp")
	require.NoError(t, err)
	assert.False(t, exists)

	read, ok, err := rh.Take()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, written, read)

	_, ok, err = rh.Take()
	require.NoError(t, err)
	assert.False(t, ok, "result must be consumed by the first read")
}

func TestResultHandler_TakeCorrupt(t *testing.T) {
	fs := afero.NewMemMapFs()
	rh := NewResultHandlerWithFs(fs, "/data")
	require.NoError(t, afero.WriteFile(fs, rh.Path(), []byte("{"), 0o644))

	_, ok, err := rh.Take()
	assert.Error(t, err)
	assert.False(t, ok)

	exists, err := afero.Exists(fs, rh.Path())
	require.NoError(t, err)
	assert.False(t, exists, "corrupt results are removed")
}
