package admin

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vpn-store-bot/config"
	"vpn-store-bot/internal/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const backupDir = "backups"

// copyFile snapshots src into dir with a timestamped name and returns
// the destination path.
func copyFile(src, dir, prefix string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	base := filepath.Base(src)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	name := fmt.Sprintf("%s%s_%s%s", prefix, stem, time.Now().Format("20060102_150405"), ext)
	dst := filepath.Join(dir, name)
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		os.Remove(dst)
		return "", err
	}
	return dst, nil
}

// BackupFiles snapshots the user database and the transaction database
// into dir and returns the created paths. A missing source file is
// skipped, not fatal: the SQLite file does not exist before the first
// transaction.
func BackupFiles(dir, prefix string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	sources := []string{config.AppCfg.DBPath, config.AppCfg.SQLitePath}
	var created []string
	for _, src := range sources {
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		dst, err := copyFile(src, dir, prefix)
		if err != nil {
			return created, err
		}
		created = append(created, dst)
	}
	return created, nil
}

// CleanOldBackups removes backup files older than maxAge.
func CleanOldBackups(dir string, maxAge time.Duration) error {
	files, err := filepath.Glob(filepath.Join(dir, "backup_*"))
	if err != nil {
		return err
	}
	files2, err := filepath.Glob(filepath.Join(dir, "autobackup_*"))
	if err != nil {
		return err
	}
	files = append(files, files2...)
	cutoff := time.Now().Add(-maxAge)
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(f)
		}
	}
	return nil
}

// HandleBackup runs an on-demand backup and sends the snapshots to the
// admin chat as documents.
func HandleBackup(botapi *tgbotapi.BotAPI, chatID int64) {
	files, err := BackupFiles(backupDir, "backup_")
	if err != nil {
		logger.Error("backup failed", zap.Error(err))
		msg := tgbotapi.NewMessage(chatID, "❌ Backup gagal: "+err.Error())
		if _, err := botapi.Send(msg); err != nil {
			logger.Error("failed to send backup error", zap.Error(err))
		}
		return
	}
	if len(files) == 0 {
		msg := tgbotapi.NewMessage(chatID, "Tidak ada berkas data untuk di-backup.")
		if _, err := botapi.Send(msg); err != nil {
			logger.Error("failed to send backup notice", zap.Error(err))
		}
		return
	}

	for _, f := range files {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(f))
		doc.Caption = "💾 Backup " + time.Now().Format("02-01-2006 15:04")
		if _, err := botapi.Send(doc); err != nil {
			logger.Error("failed to send backup file", zap.String("file", f), zap.Error(err))
		}
	}
}

// AutoBackup is the nightly cron job: snapshot, prune, log.
func AutoBackup() {
	defer logger.NotifyOnPanic("AutoBackup")
	files, err := BackupFiles(backupDir, "autobackup_")
	if err != nil {
		logger.Error("auto backup failed", zap.Error(err))
		return
	}
	if err := CleanOldBackups(backupDir, 31*24*time.Hour); err != nil {
		logger.Warn("backup cleanup failed", zap.Error(err))
	}
	logger.Info("auto backup completed", zap.Strings("files", files))
}
