package admin

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vpn-store-bot/config"
)

func TestBackupFiles(t *testing.T) {
	src := t.TempDir()
	dbPath := filepath.Join(src, "database.json")
	sqlitePath := filepath.Join(src, "transactions.sqlite3")
	if err := os.WriteFile(dbPath, []byte(`{"users":{}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(sqlitePath, []byte("sqlite"), 0o644); err != nil {
		t.Fatal(err)
	}
	config.AppCfg.DBPath = dbPath
	config.AppCfg.SQLitePath = sqlitePath

	dst := t.TempDir()
	files, err := BackupFiles(dst, "backup_")
	if err != nil {
		t.Fatalf("BackupFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("created %d files, want 2", len(files))
	}
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if len(data) == 0 {
			t.Errorf("backup %s is empty", f)
		}
		if !strings.HasPrefix(filepath.Base(f), "backup_") {
			t.Errorf("backup name %q missing prefix", filepath.Base(f))
		}
	}
}

func TestBackupFilesSkipsMissingSources(t *testing.T) {
	src := t.TempDir()
	dbPath := filepath.Join(src, "database.json")
	if err := os.WriteFile(dbPath, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	config.AppCfg.DBPath = dbPath
	// SQLite file does not exist before the first transaction.
	config.AppCfg.SQLitePath = filepath.Join(src, "missing.sqlite3")

	files, err := BackupFiles(t.TempDir(), "backup_")
	if err != nil {
		t.Fatalf("BackupFiles: %v", err)
	}
	if len(files) != 1 {
		t.Errorf("created %d files, want 1", len(files))
	}
}

func TestCleanOldBackups(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "backup_old.json")
	fresh := filepath.Join(dir, "autobackup_fresh.json")
	other := filepath.Join(dir, "keep.txt")
	for _, f := range []string{old, fresh, other} {
		if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}

	if err := CleanOldBackups(dir, 24*time.Hour); err != nil {
		t.Fatalf("CleanOldBackups: %v", err)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("old backup should be removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh backup should survive")
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("non-backup files must never be touched")
	}
}
