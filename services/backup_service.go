package services

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// BackupService snapshots and restores the single-file store. Backup
// creation and rotation are best effort: failures are logged and never block
// startup or normal operation. Restore is the one destructive exception.
type BackupService struct {
	dbPath    string
	backupDir string
	retention int
}

// NewBackupService creates a BackupService for the given store file.
func NewBackupService(dbPath, backupDir string, retention int) *BackupService {
	return &BackupService{dbPath: dbPath, backupDir: backupDir, retention: retention}
}

// BackupInfo describes one snapshot in the backup directory.
type BackupInfo struct {
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// CreateBackup copies the store into the backup directory under a
// second-resolution timestamped name, then rotates old snapshots. A missing
// store file is a logged no-op, not an error.
func (bs *BackupService) CreateBackup() {
	if _, err := os.Stat(bs.dbPath); os.IsNotExist(err) {
		log.Printf("⚠️  Store file %s not found, backup skipped", bs.dbPath)
		return
	}

	if err := os.MkdirAll(bs.backupDir, 0o755); err != nil {
		log.Printf("Error creating backup directory %s: %v", bs.backupDir, err)
		return
	}

	target := filepath.Join(bs.backupDir, bs.backupName(time.Now()))
	if err := copyFilePreserving(bs.dbPath, target); err != nil {
		log.Printf("Error creating store backup: %v", err)
		return
	}
	log.Printf("✅ Store backup created: %s", target)

	bs.RotateBackups()
}

// RotateBackups deletes the oldest .bak snapshots beyond the retention
// count, one at a time, keeping the most recently modified ones. Errors are
// logged and non-fatal.
func (bs *BackupService) RotateBackups() {
	backups, err := bs.ListBackups()
	if err != nil {
		log.Printf("Error rotating backups: %v", err)
		return
	}
	if len(backups) <= bs.retention {
		return
	}

	excess := len(backups) - bs.retention
	log.Printf("Found %d backups, removing the oldest %d", len(backups), excess)
	for _, b := range backups[:excess] {
		if err := os.Remove(b.Path); err != nil {
			log.Printf("Error removing old backup %s: %v", b.Path, err)
			continue
		}
		log.Printf("Old backup removed: %s", b.Path)
	}
}

// ListBackups returns the .bak snapshots sorted ascending by modification
// time.
func (bs *BackupService) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(bs.backupDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read backup directory %s: %w", bs.backupDir, err)
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".bak") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Path:       filepath.Join(bs.backupDir, entry.Name()),
			Name:       entry.Name(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].ModifiedAt.Before(backups[j].ModifiedAt)
	})
	return backups, nil
}

// RestoreFromBackup overwrites the live store with the given snapshot. This
// is destructive and irreversible; the caller must force a restart after
// either outcome so the process never keeps running on a half-swapped store.
func (bs *BackupService) RestoreFromBackup(backupPath string) bool {
	if err := copyFilePreserving(backupPath, bs.dbPath); err != nil {
		log.Printf("❌ CRITICAL: error restoring store from backup %s: %v", backupPath, err)
		return false
	}
	log.Printf("⚠️  Store restored from backup: %s", backupPath)
	return true
}

func (bs *BackupService) backupName(now time.Time) string {
	base := filepath.Base(bs.dbPath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	timestamp := now.Format("2006-01-02_15-04-05")
	return fmt.Sprintf("%s_backup_%s%s.bak", name, timestamp, ext)
}

// copyFilePreserving copies src to dst keeping permissions and modification
// time, the Go analogue of a metadata-preserving copy.
func copyFilePreserving(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, time.Now(), info.ModTime())
}
