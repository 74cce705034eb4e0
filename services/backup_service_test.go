package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStoreFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCreateBackupCopiesStore(t *testing.T) {
	dir := t.TempDir()
	store := writeStoreFile(t, dir, "verifiche.db", "store-bytes")
	backupDir := filepath.Join(dir, "backups")

	bs := NewBackupService(store, backupDir, 10)
	bs.CreateBackup()

	backups, err := bs.ListBackups()
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Contains(t, backups[0].Name, "verifiche_backup_")
	assert.True(t, len(backups[0].Name) > 4 && backups[0].Name[len(backups[0].Name)-4:] == ".bak")

	raw, err := os.ReadFile(backups[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "store-bytes", string(raw))
}

func TestCreateBackupMissingStoreIsNoOp(t *testing.T) {
	dir := t.TempDir()
	backupDir := filepath.Join(dir, "backups")

	bs := NewBackupService(filepath.Join(dir, "absent.db"), backupDir, 10)
	bs.CreateBackup()

	backups, err := bs.ListBackups()
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestRotateBackupsKeepsNewestByModTime(t *testing.T) {
	dir := t.TempDir()
	store := writeStoreFile(t, dir, "verifiche.db", "store")
	backupDir := filepath.Join(dir, "backups")
	require.NoError(t, os.MkdirAll(backupDir, 0o755))

	base := time.Now().Add(-12 * time.Hour)
	for i := 0; i < 13; i++ {
		name := filepath.Join(backupDir, time.Now().Format("2006-01-02")+"_snap_"+string(rune('a'+i))+".db.bak")
		require.NoError(t, os.WriteFile(name, []byte("old"), 0o644))
		stamp := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(name, stamp, stamp))
	}

	bs := NewBackupService(store, backupDir, 10)
	bs.RotateBackups()

	backups, err := bs.ListBackups()
	require.NoError(t, err)
	require.Len(t, backups, 10)

	// Oldest-first ordering: the three oldest snapshots are gone.
	assert.Contains(t, backups[0].Name, "_snap_d")
	assert.Contains(t, backups[9].Name, "_snap_m")
}

func TestRotateBackupsIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	store := writeStoreFile(t, dir, "verifiche.db", "store")
	backupDir := filepath.Join(dir, "backups")
	require.NoError(t, os.MkdirAll(backupDir, 0o755))
	writeStoreFile(t, backupDir, "notes.txt", "keep me")

	bs := NewBackupService(store, backupDir, 1)
	bs.CreateBackup()
	bs.RotateBackups()

	_, err := os.Stat(filepath.Join(backupDir, "notes.txt"))
	assert.NoError(t, err)

	backups, err := bs.ListBackups()
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestRestoreFromBackupOverwritesStore(t *testing.T) {
	dir := t.TempDir()
	store := writeStoreFile(t, dir, "verifiche.db", "current")
	snapshot := writeStoreFile(t, dir, "verifiche_backup_old.db.bak", "previous")

	bs := NewBackupService(store, filepath.Join(dir, "backups"), 10)
	require.True(t, bs.RestoreFromBackup(snapshot))

	raw, err := os.ReadFile(store)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(raw))
}

func TestRestoreFromBackupMissingSnapshotFails(t *testing.T) {
	dir := t.TempDir()
	store := writeStoreFile(t, dir, "verifiche.db", "current")

	bs := NewBackupService(store, filepath.Join(dir, "backups"), 10)
	assert.False(t, bs.RestoreFromBackup(filepath.Join(dir, "missing.bak")))

	// The live store is untouched after a failed restore.
	raw, err := os.ReadFile(store)
	require.NoError(t, err)
	assert.Equal(t, "current", string(raw))
}
