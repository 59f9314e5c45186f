package admin

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"vpn-store-bot/internal/format"
	"vpn-store-bot/internal/logger"
	"vpn-store-bot/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// broadcastLimiter paces outgoing messages well below the Telegram
// bot-wide sending limit of roughly 30 messages per second.
var broadcastLimiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 1)

func handleBroadcastInput(botapi *tgbotapi.BotAPI, adminID int64, action session.Action, input string) {
	pending.Complete(adminID)
	if input == "" {
		rePrompt(botapi, action, "❌ Pesan broadcast kosong, dibatalkan.", "admin_panel_main")
		return
	}

	ids, err := users.AllUserIDs()
	if err != nil {
		logger.Error("broadcast: user list failed", zap.Error(err))
		rePrompt(botapi, action, "❌ Gagal memuat daftar pengguna.", "admin_panel_main")
		return
	}

	edit := tgbotapi.NewEditMessageText(action.ChatID, action.MessageID,
		fmt.Sprintf("📢 Broadcast dimulai ke %d pengguna...", len(ids)))
	if _, err := botapi.Send(edit); err != nil {
		logger.Error("failed to send broadcast start", zap.Error(err))
	}

	go runBroadcast(botapi, adminID, action, input, ids)
}

// runBroadcast delivers the message to every user, paced by the shared
// limiter. Per-recipient failures (blocked bot, deleted account) are
// counted, not fatal.
func runBroadcast(botapi *tgbotapi.BotAPI, adminID int64, action session.Action, text string, ids []string) {
	defer logger.NotifyOnPanic("runBroadcast")

	sent, failed := 0, 0
	for _, id := range ids {
		if err := broadcastLimiter.Wait(context.Background()); err != nil {
			break
		}
		chatID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			failed++
			continue
		}
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := botapi.Send(msg); err != nil {
			logger.Warn("broadcast delivery failed", zap.String("user_id", id), zap.Error(err))
			failed++
			continue
		}
		sent++
	}

	logger.LogAdminAction(adminID, "broadcast", fmt.Sprintf("sent=%d failed=%d", sent, failed))
	report := fmt.Sprintf("*📢 Broadcast Selesai*\n%s\n✅ Terkirim: %d\n❌ Gagal: %d",
		format.PrettyLine, sent, failed)
	edit := tgbotapi.NewEditMessageTextAndMarkup(action.ChatID, action.MessageID, report,
		tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(format.BackButton("⬅️ Kembali", "admin_panel_main"))))
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := botapi.Send(edit); err != nil {
		logger.Error("failed to send broadcast report", zap.Error(err))
	}
}
