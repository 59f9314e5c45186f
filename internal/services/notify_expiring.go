package services

import (
	"fmt"
	"strconv"
	"time"

	"vpn-store-bot/internal/db"
	"vpn-store-bot/internal/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// NotifyExpiringAccounts warns users whose VPN account expires within
// daysBefore days. Each account is warned once per lease.
func NotifyExpiringAccounts(botapi *tgbotapi.BotAPI, daysBefore int) {
	accounts, err := db.AccountsExpiringWithin(daysBefore)
	if err != nil {
		logger.Error("expiring accounts query failed", zap.Error(err))
		return
	}
	for _, acc := range accounts {
		chatID, err := strconv.ParseInt(acc.TelegramID, 10, 64)
		if err != nil {
			continue
		}
		daysLeft := int(time.Until(acc.ExpiryDate).Hours() / 24)
		if daysLeft < 0 {
			daysLeft = 0
		}
		text := fmt.Sprintf(
			"⏰ Akun VPN Anda (<code>%s</code> di %s) akan berakhir dalam %d hari.\nPerpanjang melalui menu VPN sebelum masa aktif habis.",
			acc.Username, acc.ServerName, daysLeft)
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := botapi.Send(msg); err != nil {
			logger.Warn("expiry warning failed", zap.String("telegram_id", acc.TelegramID), zap.Error(err))
			continue
		}
		if err := db.MarkNotifiedExpiring(acc.ID); err != nil {
			logger.Error("mark notified failed", zap.Uint("account_id", acc.ID), zap.Error(err))
		}
	}
}
