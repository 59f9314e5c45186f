package bot

import (
	"fmt"
	"strconv"
	"time"

	"vpn-store-bot/config"
	"vpn-store-bot/internal/format"
	"vpn-store-bot/internal/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func handleStart(botapi *tgbotapi.BotAPI, msg *tgbotapi.Message, created bool) {
	if created {
		welcome := tgbotapi.NewMessage(msg.Chat.ID,
			fmt.Sprintf("🎉 Selamat datang di %s! Akun Anda telah dibuat.", config.AppCfg.StoreName))
		if _, err := botapi.Send(welcome); err != nil {
			logger.Error("failed to send welcome message", zap.Error(err))
		}
	}
	SendMainMenu(botapi, strconv.FormatInt(msg.From.ID, 10), msg.Chat.ID, 0)
}

// SendMainMenu renders the storefront dashboard. When editMessageID is
// non-zero the existing message is edited in place instead of sending a
// new one.
func SendMainMenu(botapi *tgbotapi.BotAPI, uid string, chatID int64, editMessageID int) {
	user, err := users.GetUser(uid)
	if err != nil {
		logger.Error("main menu: user lookup failed", zap.String("user_id", uid), zap.Error(err))
		return
	}
	totalUsers := users.CountUsers()
	allServers, err := servers.All()
	if err != nil {
		logger.Warn("main menu: server list failed", zap.Error(err))
	}

	text := fmt.Sprintf("*☇ %s ☇*\n%s\n"+
		"👤 *Username:* @%s\n"+
		"🆔 *User ID:* `%s`\n"+
		"💰 *Saldo:* %s\n"+
		"%s\n"+
		"📊 *Statistik Bot*\n"+
		"  ├ Pengguna: %d\n"+
		"  ├ Server: %d\n"+
		"  └ Uptime: %s\n"+
		"%s\n"+
		"Silakan pilih menu di bawah ini:",
		config.AppCfg.StoreName, format.PrettyLine,
		format.EscapeMarkdown(user.Username), uid, format.Rupiah(user.Balance),
		format.PrettyLine,
		totalUsers, len(allServers), uptimeString(),
		format.PrettyLine)

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🌐 Menu VPN", "menu_vpn"),
			tgbotapi.NewInlineKeyboardButtonData("💳 Topup Saldo", "topup_menu"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📦 Menu Lainnya", "menu_lain"),
		),
	}
	if user.Role == "admin" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Panel Admin", "admin_panel_main"),
		))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)

	if editMessageID != 0 {
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, editMessageID, text, markup)
		edit.ParseMode = tgbotapi.ModeMarkdown
		if _, err := botapi.Send(edit); err != nil {
			logger.Error("failed to edit main menu", zap.Error(err))
		}
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = markup
	if _, err := botapi.Send(msg); err != nil {
		logger.Error("failed to send main menu", zap.Error(err))
	}
}

func handleMenuOther(botapi *tgbotapi.BotAPI, chatID int64, messageID int) {
	text := fmt.Sprintf("*📦 Menu Lainnya*\n%s\n"+
		"Butuh bantuan atau ada kendala dengan layanan?\n\n"+
		"Hubungi admin %s untuk:\n"+
		"  ├ Kendala pembayaran\n"+
		"  ├ Akun VPN bermasalah\n"+
		"  └ Pertanyaan lainnya",
		format.PrettyLine, config.AppCfg.StoreName)
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(format.BackButton("", "")),
	)
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := botapi.Send(edit); err != nil {
		logger.Error("failed to show other menu", zap.Error(err))
	}
}

func uptimeString() string {
	d := time.Since(startTime)
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dh %dj %dm", days, hours, minutes)
	}
	return fmt.Sprintf("%dj %dm", hours, minutes)
}
