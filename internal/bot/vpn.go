package bot

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"vpn-store-bot/internal/db"
	"vpn-store-bot/internal/format"
	"vpn-store-bot/internal/logger"
	"vpn-store-bot/internal/services"
	"vpn-store-bot/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

var vpnUsernamePattern = regexp.MustCompile(`^[a-z0-9]+$`)

func handleVPNMenu(botapi *tgbotapi.BotAPI, chatID int64, messageID int) {
	text := fmt.Sprintf("*🌐 Menu VPN*\n%s\nKelola akun VPN Anda di sini.", format.PrettyLine)
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛒 Beli Akun", "vpn_buy_select_server"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Akun Saya", "vpn_my_accounts"),
			tgbotapi.NewInlineKeyboardButtonData("🔄 Perpanjang", "vpn_renew_select_account"),
		),
		tgbotapi.NewInlineKeyboardRow(format.BackButton("", "")),
	)
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := botapi.Send(edit); err != nil {
		logger.Error("failed to show VPN menu", zap.Error(err))
	}
}

func handleBuySelectServer(botapi *tgbotapi.BotAPI, q *tgbotapi.CallbackQuery) {
	chatID := q.Message.Chat.ID
	messageID := q.Message.MessageID
	all, err := servers.All()
	if err != nil {
		logger.Error("server list failed", zap.Error(err))
		return
	}
	if len(all) == 0 {
		alert := tgbotapi.NewCallbackWithAlert(q.ID, "Belum ada server yang tersedia.")
		if _, err := botapi.Request(alert); err != nil {
			logger.Warn("failed to send empty server alert", zap.Error(err))
		}
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(all)+1)
	for _, srv := range all {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🖥 "+srv.Name, "vpn_select_protocol_"+srv.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(format.BackButton("⬅️ Kembali", "menu_vpn")))

	text := fmt.Sprintf("*🛒 Beli Akun VPN*\n%s\nPilih server yang ingin Anda gunakan:", format.PrettyLine)
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := botapi.Send(edit); err != nil {
		logger.Error("failed to show server list", zap.Error(err))
	}
}

// handleSelectProtocol lists the protocols a server actually offers, in
// catalogue order, each with its 30 day price.
func handleSelectProtocol(botapi *tgbotapi.BotAPI, q *tgbotapi.CallbackQuery, serverID string) {
	chatID := q.Message.Chat.ID
	messageID := q.Message.MessageID
	server, err := servers.Get(serverID)
	if err != nil {
		alert := tgbotapi.NewCallbackWithAlert(q.ID, "Server tidak ditemukan.")
		if _, err := botapi.Request(alert); err != nil {
			logger.Warn("failed to send server alert", zap.Error(err))
		}
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, proto := range services.Protocols {
		p, ok := server.Protocols[proto.ID]
		if !ok {
			continue
		}
		label := fmt.Sprintf("%s - %s", proto.Name, format.Rupiah(p.PricePer30Days))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("vpn_enter_username_%s_%s", server.ID, proto.ID)),
		))
	}
	if len(rows) == 0 {
		alert := tgbotapi.NewCallbackWithAlert(q.ID, "Server ini belum menawarkan protokol apapun.")
		if _, err := botapi.Request(alert); err != nil {
			logger.Warn("failed to send protocol alert", zap.Error(err))
		}
		return
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(format.BackButton("⬅️ Kembali", "vpn_buy_select_server")))

	text := fmt.Sprintf("*🖥 Server %s*\n%s\nPilih protokol (masa aktif 30 hari):",
		format.EscapeMarkdown(server.Name), format.PrettyLine)
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := botapi.Send(edit); err != nil {
		logger.Error("failed to show protocol list", zap.Error(err))
	}
}

func handleEnterUsername(botapi *tgbotapi.BotAPI, q *tgbotapi.CallbackQuery, serverID, protoID string) {
	chatID := q.Message.Chat.ID
	messageID := q.Message.MessageID

	text := fmt.Sprintf("*✍️ Buat Username*\n%s\n"+
		"Silakan ketik username untuk akun *%s* Anda.\n\n"+
		"Hanya huruf kecil dan angka, tanpa spasi.\n*Contoh:* `budi123`",
		format.PrettyLine, services.ProtocolName(protoID))
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(format.BackButton("⬅️ Batalkan", "menu_vpn")),
	)
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := botapi.Send(edit); err != nil {
		logger.Error("failed to show username prompt", zap.Error(err))
		return
	}

	pending.Begin(q.From.ID, session.Action{
		Kind:      session.KindVPNUsername,
		ChatID:    chatID,
		MessageID: messageID,
		ServerID:  serverID,
		ProtoID:   protoID,
	})
}

// processVPNUsername validates the typed username and runs the full
// purchase: provision on the remote server, debit, record. Any failure
// aborts the flow; there is no retry prompt.
func processVPNUsername(botapi *tgbotapi.BotAPI, msg *tgbotapi.Message, action session.Action) {
	userID := msg.From.ID
	uid := strconv.FormatInt(userID, 10)
	pending.Complete(userID)

	username := strings.TrimSpace(msg.Text)
	if _, err := botapi.Request(tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID)); err != nil {
		logger.Warn("failed to delete username input", zap.Error(err))
	}

	if !vpnUsernamePattern.MatchString(username) {
		editPurchaseStatus(botapi, action, "❌ Username tidak valid. Hanya huruf kecil dan angka yang diperbolehkan. Proses dibatalkan.")
		return
	}
	server, err := servers.Get(action.ServerID)
	if err != nil {
		editPurchaseStatus(botapi, action, "❌ Server tidak ditemukan. Proses dibatalkan.")
		return
	}

	editPurchaseStatus(botapi, action, "⏳ Sedang membuat akun VPN Anda, mohon tunggu...")

	result, price, err := services.PurchaseAccount(users, server, action.ProtoID, uid, msg.From.UserName, username)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientBalance) {
			proto := server.Protocols[action.ProtoID]
			editPurchaseStatus(botapi, action,
				fmt.Sprintf("❌ Saldo Anda tidak mencukupi. Dibutuhkan %s. Silakan topup terlebih dahulu.",
					format.Rupiah(proto.PricePer30Days)))
			return
		}
		logger.Error("purchase failed",
			zap.String("user_id", uid),
			zap.String("server", action.ServerID),
			zap.String("protocol", action.ProtoID),
			zap.Error(err))
		editPurchaseStatus(botapi, action, "❌ Gagal Membuat Akun\n\n"+err.Error())
		return
	}

	edit := tgbotapi.NewEditMessageText(action.ChatID, action.MessageID, result.Details)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := botapi.Send(edit); err != nil {
		logger.Error("failed to send account details", zap.Error(err))
	}
	services.NotifyGroupPurchase(botapi, userID, msg.From.UserName, server.Name, action.ProtoID, username, price)
}

func handleMyAccounts(botapi *tgbotapi.BotAPI, q *tgbotapi.CallbackQuery) {
	chatID := q.Message.Chat.ID
	messageID := q.Message.MessageID
	uid := strconv.FormatInt(q.From.ID, 10)

	accounts, err := db.AccountsByTelegramID(uid)
	if err != nil {
		logger.Error("account list failed", zap.String("user_id", uid), zap.Error(err))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*📋 Akun VPN Saya*\n%s\n", format.PrettyLine)
	if len(accounts) == 0 {
		b.WriteString("Anda belum memiliki akun VPN.")
	} else {
		for _, acc := range accounts {
			days := int(time.Until(acc.ExpiryDate).Hours() / 24)
			fmt.Fprintf(&b, "🔹 *%s* (%s)\n  ├ Server: %s\n  └ Kedaluwarsa: %s (%d hari lagi)\n\n",
				format.EscapeMarkdown(acc.Username), services.ProtocolName(acc.Protocol),
				format.EscapeMarkdown(acc.ServerName), acc.ExpiryDate.Format("02-01-2006"), days)
		}
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(format.BackButton("⬅️ Kembali", "menu_vpn")),
	)
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, b.String(), markup)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := botapi.Send(edit); err != nil {
		logger.Error("failed to show account list", zap.Error(err))
	}
}

func handleRenewSelect(botapi *tgbotapi.BotAPI, q *tgbotapi.CallbackQuery) {
	chatID := q.Message.Chat.ID
	messageID := q.Message.MessageID
	uid := strconv.FormatInt(q.From.ID, 10)

	accounts, err := db.AccountsByTelegramID(uid)
	if err != nil {
		logger.Error("account list failed", zap.String("user_id", uid), zap.Error(err))
		return
	}
	if len(accounts) == 0 {
		alert := tgbotapi.NewCallbackWithAlert(q.ID, "Anda belum memiliki akun VPN untuk diperpanjang.")
		if _, err := botapi.Request(alert); err != nil {
			logger.Warn("failed to send renew alert", zap.Error(err))
		}
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(accounts)+1)
	for _, acc := range accounts {
		label := fmt.Sprintf("%s (%s) - exp %s", acc.Username, services.ProtocolName(acc.Protocol),
			acc.ExpiryDate.Format("02-01-2006"))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("vpn_confirm_renew_%d", acc.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(format.BackButton("⬅️ Kembali", "menu_vpn")))

	text := fmt.Sprintf("*🔄 Perpanjang Akun*\n%s\nPilih akun yang ingin diperpanjang (30 hari):", format.PrettyLine)
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := botapi.Send(edit); err != nil {
		logger.Error("failed to show renew list", zap.Error(err))
	}
}

// handleConfirmRenew shows a price confirmation on the first press and
// performs the renewal when the confirmed variant arrives.
func handleConfirmRenew(botapi *tgbotapi.BotAPI, q *tgbotapi.CallbackQuery, accountID uint, confirmed bool) {
	chatID := q.Message.Chat.ID
	messageID := q.Message.MessageID
	userID := q.From.ID
	uid := strconv.FormatInt(userID, 10)

	account, err := db.GetAccount(accountID, uid)
	if err != nil {
		alert := tgbotapi.NewCallbackWithAlert(q.ID, "Akun tidak ditemukan.")
		if _, err := botapi.Request(alert); err != nil {
			logger.Warn("failed to send account alert", zap.Error(err))
		}
		return
	}

	if !confirmed {
		server, err := servers.FindByName(account.ServerName)
		if err != nil {
			alert := tgbotapi.NewCallbackWithAlert(q.ID, "Server untuk akun ini sudah tidak tersedia.")
			if _, err := botapi.Request(alert); err != nil {
				logger.Warn("failed to send server alert", zap.Error(err))
			}
			return
		}
		proto, ok := server.Protocols[account.Protocol]
		if !ok {
			alert := tgbotapi.NewCallbackWithAlert(q.ID, "Protokol akun ini sudah tidak ditawarkan.")
			if _, err := botapi.Request(alert); err != nil {
				logger.Warn("failed to send protocol alert", zap.Error(err))
			}
			return
		}

		text := fmt.Sprintf("*🔄 Konfirmasi Perpanjangan*\n%s\n"+
			"👤 *Akun:* `%s`\n"+
			"🌐 *Protokol:* %s\n"+
			"🖥 *Server:* %s\n"+
			"💰 *Biaya:* %s\n"+
			"⏳ *Durasi:* 30 hari\n%s\n"+
			"Lanjutkan perpanjangan?",
			format.PrettyLine, account.Username, services.ProtocolName(account.Protocol),
			format.EscapeMarkdown(account.ServerName), format.Rupiah(proto.PricePer30Days), format.PrettyLine)
		markup := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Ya, Perpanjang", fmt.Sprintf("vpn_confirm_renew__dorenew_%d", account.ID)),
				tgbotapi.NewInlineKeyboardButtonData("❌ Batal", "menu_vpn"),
			),
		)
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
		edit.ParseMode = tgbotapi.ModeMarkdown
		if _, err := botapi.Send(edit); err != nil {
			logger.Error("failed to show renew confirmation", zap.Error(err))
		}
		return
	}

	progress := tgbotapi.NewEditMessageText(chatID, messageID, "⏳ Sedang memperpanjang akun Anda, mohon tunggu...")
	if _, err := botapi.Send(progress); err != nil {
		logger.Error("failed to show renew progress", zap.Error(err))
	}

	price, err := services.RenewPurchasedAccount(users, servers, uid, account)
	if err != nil {
		text := "❌ Gagal Memperpanjang Akun\n\n" + err.Error()
		if errors.Is(err, services.ErrInsufficientBalance) {
			text = fmt.Sprintf("❌ Saldo Anda tidak mencukupi untuk perpanjangan. Dibutuhkan %s.", format.Rupiah(price))
		}
		logger.Error("renewal failed", zap.String("user_id", uid), zap.Uint("account_id", account.ID), zap.Error(err))
		edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
		if _, err := botapi.Send(edit); err != nil {
			logger.Error("failed to send renew error", zap.Error(err))
		}
		return
	}

	newExpiry := account.ExpiryDate.AddDate(0, 0, 30)
	text := fmt.Sprintf("✅ *Perpanjangan Berhasil*\n%s\n"+
		"Akun `%s` diperpanjang 30 hari.\n"+
		"Kedaluwarsa baru: *%s*",
		format.PrettyLine, account.Username, newExpiry.Format("02-01-2006"))
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := botapi.Send(edit); err != nil {
		logger.Error("failed to send renew success", zap.Error(err))
	}
	services.NotifyGroupRenew(botapi, userID, q.From.UserName, account.ServerName, account.Protocol, account.Username, price)
}

func editPurchaseStatus(botapi *tgbotapi.BotAPI, action session.Action, text string) {
	edit := tgbotapi.NewEditMessageText(action.ChatID, action.MessageID, text)
	if _, err := botapi.Send(edit); err != nil {
		logger.Error("failed to update purchase status", zap.Error(err))
	}
}
