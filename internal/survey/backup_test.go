package survey

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/plateplan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportAndRestore(t *testing.T) {
	src := NewStore(filepath.Join(t.TempDir(), "src"))
	rec := model.NewGalaxyRecord()
	rec.Set("G7", "C")
	require.NoError(t, src.SaveRecord(rec, model.Tile{ID: "T9"}))

	logs, err := src.OpenLogs()
	require.NoError(t, err)
	_, err = logs.Flags.WriteString("T9\tgalaxy G7: recorded bundle C already used, assigned A\n")
	require.NoError(t, err)
	require.NoError(t, logs.Close())

	backupPath := filepath.Join(t.TempDir(), "nested", "backup.json")
	require.NoError(t, src.Export(backupPath))

	b, err := ReadBackup(backupPath)
	require.NoError(t, err)
	assert.Equal(t, BackupVersion, b.Version)
	assert.NotEmpty(t, b.CreatedAt)
	assert.Empty(t, b.Conflicts)
	require.Len(t, b.Flags, 1)

	dst := NewStore(filepath.Join(t.TempDir(), "dst"))
	require.NoError(t, dst.Restore(b))

	f, err := dst.LoadRecord()
	require.NoError(t, err)
	got, ok := f.Record().Lookup("G7")
	require.True(t, ok)
	assert.Equal(t, "C", got)
	assert.Equal(t, []string{"T9"}, f.Tiles)

	flags, err := ReadLog(dst.FlagsPath())
	require.NoError(t, err)
	require.Len(t, flags, 1)
	assert.Equal(t, "T9", flags[0].Tile)
}

func TestReadBackup_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadBackup(filepath.Join(dir, "nope.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json}"), 0644))
	_, err = ReadBackup(bad)
	assert.Error(t, err)

	noVersion := filepath.Join(dir, "noversion.json")
	require.NoError(t, os.WriteFile(noVersion, []byte(`{"record":{"bundles":{}}}`), 0644))
	_, err = ReadBackup(noVersion)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing version")
}
