package services

import (
	"fmt"
	"strconv"
	"strings"

	"vpn-store-bot/config"
	"vpn-store-bot/internal/format"
	"vpn-store-bot/internal/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// sendToGroup posts a formatted notification to the configured sales
// group, if one is set. Goes through MakeRequest because the library
// has no field for message_thread_id. Send failures are logged, never
// propagated.
func sendToGroup(botapi *tgbotapi.BotAPI, text string) {
	chatID := config.AppCfg.GroupChatID
	if botapi == nil || chatID == 0 {
		return
	}
	params := tgbotapi.Params{
		"chat_id":    strconv.FormatInt(chatID, 10),
		"text":       text,
		"parse_mode": tgbotapi.ModeHTML,
	}
	if config.AppCfg.GroupTopicID != 0 {
		params["message_thread_id"] = strconv.Itoa(config.AppCfg.GroupTopicID)
	}
	if _, err := botapi.MakeRequest("sendMessage", params); err != nil {
		logger.Warn("group notification failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// NotifyUserTopup tells the paying user their balance was credited.
func NotifyUserTopup(botapi *tgbotapi.BotAPI, userID string, amount, newBalance int) {
	if botapi == nil {
		return
	}
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return
	}
	text := fmt.Sprintf("✅ <b>Topup Berhasil!</b>\n\nSaldo sebesar <b>%s</b> telah ditambahkan.\nSaldo Anda sekarang: <b>%s</b>",
		format.Rupiah(amount), format.Rupiah(newBalance))
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := botapi.Send(msg); err != nil {
		logger.Warn("topup notification failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func NotifyGroupTopup(botapi *tgbotapi.BotAPI, userID, username string, amount int) {
	var b strings.Builder
	b.WriteString("✅ <b>Topup Saldo Berhasil</b>\n")
	b.WriteString(format.PrettyLine + "\n")
	fmt.Fprintf(&b, "👤 <b>User:</b> %s (<code>%s</code>)\n", format.CensorUsername(username), userID)
	fmt.Fprintf(&b, "💰 <b>Jumlah:</b> %s\n", format.CensorAmount(amount))
	b.WriteString(format.PrettyLine)
	sendToGroup(botapi, b.String())
}

func NotifyGroupPurchase(botapi *tgbotapi.BotAPI, buyerID int64, buyerUsername, serverName, protocol, username string, price int) {
	if buyerUsername == "" {
		buyerUsername = "user" + strconv.FormatInt(buyerID, 10)
	}
	var b strings.Builder
	b.WriteString("🛒 <b>Pembelian Akun Baru</b>\n")
	b.WriteString(format.PrettyLine + "\n")
	fmt.Fprintf(&b, "👤 <b>Pembeli:</b> %s (<code>%d</code>)\n", format.CensorUsername(buyerUsername), buyerID)
	fmt.Fprintf(&b, "🗄️ <b>Server:</b> %s\n", serverName)
	fmt.Fprintf(&b, "🛡️ <b>Protokol:</b> %s\n", strings.ToUpper(protocol))
	fmt.Fprintf(&b, "🤵 <b>Username:</b> <code>%s</code>\n", username)
	fmt.Fprintf(&b, "💸 <b>Harga:</b> %s\n", format.CensorAmount(price))
	b.WriteString(format.PrettyLine)
	sendToGroup(botapi, b.String())
}

func NotifyGroupRenew(botapi *tgbotapi.BotAPI, buyerID int64, buyerUsername, serverName, protocol, username string, price int) {
	if buyerUsername == "" {
		buyerUsername = "user" + strconv.FormatInt(buyerID, 10)
	}
	var b strings.Builder
	b.WriteString("🔄 <b>Perpanjangan Akun</b>\n")
	b.WriteString(format.PrettyLine + "\n")
	fmt.Fprintf(&b, "👤 <b>Pelanggan:</b> %s (<code>%d</code>)\n", format.CensorUsername(buyerUsername), buyerID)
	fmt.Fprintf(&b, "🗄️ <b>Server:</b> %s\n", serverName)
	fmt.Fprintf(&b, "🛡️ <b>Protokol:</b> %s\n", strings.ToUpper(protocol))
	fmt.Fprintf(&b, "🤵 <b>Username:</b> <code>%s</code>\n", username)
	fmt.Fprintf(&b, "💸 <b>Biaya:</b> %s\n", format.CensorAmount(price))
	b.WriteString(format.PrettyLine)
	sendToGroup(botapi, b.String())
}
