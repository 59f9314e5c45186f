package bot

import (
	"fmt"
	"strconv"
	"strings"

	"vpn-store-bot/internal/db"
	"vpn-store-bot/internal/format"
	"vpn-store-bot/internal/logger"
	"vpn-store-bot/internal/session"
	"vpn-store-bot/internal/store"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleTopupMenu asks the user to type an amount and arms the pending
// topup action. The prompt message id is kept so it can be cleaned up
// once the amount arrives.
func handleTopupMenu(botapi *tgbotapi.BotAPI, q *tgbotapi.CallbackQuery) {
	chatID := q.Message.Chat.ID
	messageID := q.Message.MessageID
	settings := users.TopupSettings()

	text := fmt.Sprintf("*💳 Topup Saldo Otomatis*\n%s\n"+
		"Silakan ketik dan kirim jumlah nominal yang ingin Anda topup.\n\n"+
		"*Contoh:* `50000`\n\n"+
		"Minimal: %s\nMaksimal: %s",
		format.PrettyLine, format.Rupiah(settings.MinAmount), format.Rupiah(settings.MaxAmount))
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(format.BackButton("⬅️ Batalkan", "back_menu")),
	)
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := botapi.Send(edit); err != nil {
		logger.Error("failed to show topup prompt", zap.Error(err))
		return
	}

	pending.Begin(q.From.ID, session.Action{
		Kind:      session.KindTopupAmount,
		ChatID:    chatID,
		MessageID: messageID,
	})
}

// parseTopupAmount strips everything but digits from the typed text
// ("Rp 50.000" and "50000" both parse) and checks the configured
// bounds. Reports false for anything that must not become an invoice.
func parseTopupAmount(text string, settings store.TopupSettings) (int, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, text)
	if digits == "" {
		return 0, false
	}
	amount, err := strconv.Atoi(digits)
	if err != nil || amount < settings.MinAmount || amount > settings.MaxAmount {
		return 0, false
	}
	return amount, true
}

// processTopupAmount consumes the typed amount, creates a gateway
// invoice and sends the QRIS image. The flow is single-step, so the
// pending action is cleared no matter how the input turns out.
func processTopupAmount(botapi *tgbotapi.BotAPI, msg *tgbotapi.Message, action session.Action) {
	userID := msg.From.ID
	uid := strconv.FormatInt(userID, 10)
	pending.Complete(userID)

	// The typed amount and the prompt are both deleted to keep the chat tidy.
	if _, err := botapi.Request(tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID)); err != nil {
		logger.Warn("failed to delete topup input", zap.Error(err))
	}
	if _, err := botapi.Request(tgbotapi.NewDeleteMessage(action.ChatID, action.MessageID)); err != nil {
		logger.Warn("failed to delete topup prompt", zap.Error(err))
	}

	settings := users.TopupSettings()
	amount, ok := parseTopupAmount(msg.Text, settings)
	if !ok {
		text := fmt.Sprintf("❌ Nominal tidak valid.\n\nMasukkan angka antara %s dan %s.",
			format.Rupiah(settings.MinAmount), format.Rupiah(settings.MaxAmount))
		reply := tgbotapi.NewMessage(action.ChatID, text)
		reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(format.BackButton("", "")),
		)
		if _, err := botapi.Send(reply); err != nil {
			logger.Error("failed to send topup validation error", zap.Error(err))
		}
		return
	}

	processing, err := botapi.Send(tgbotapi.NewMessage(action.ChatID, "⏳ Sedang membuat invoice pembayaran, mohon tunggu..."))
	if err != nil {
		logger.Error("failed to send topup progress message", zap.Error(err))
		return
	}

	invoice, err := gateway.CreateInvoice(amount, uid, msg.From.UserName)
	if err != nil {
		logger.Error("invoice creation failed", zap.String("user_id", uid), zap.Int("amount", amount), zap.Error(err))
		editTopupError(botapi, action.ChatID, processing.MessageID, err.Error())
		return
	}
	if err := db.LogInvoicePending(invoice.ID, uid, amount, "qris"); err != nil {
		logger.Error("failed to record pending invoice", zap.String("invoice_id", invoice.ID), zap.Error(err))
	}

	qr, err := gateway.InvoiceQR(invoice.ID)
	if err != nil {
		logger.Error("QRIS fetch failed", zap.String("invoice_id", invoice.ID), zap.Error(err))
		editTopupError(botapi, action.ChatID, processing.MessageID, err.Error())
		return
	}

	if _, err := botapi.Request(tgbotapi.NewDeleteMessage(action.ChatID, processing.MessageID)); err != nil {
		logger.Warn("failed to delete topup progress message", zap.Error(err))
	}

	caption := fmt.Sprintf("*💳 Invoice Pembayaran*\n%s\n"+
		"🆔 *Invoice:* `%s`\n"+
		"💰 *Nominal:* %s\n"+
		"%s\n"+
		"Scan kode QRIS di atas untuk membayar.\n"+
		"Saldo akan masuk otomatis setelah pembayaran dikonfirmasi.",
		format.PrettyLine, invoice.ID, format.Rupiah(amount), format.PrettyLine)
	photo := tgbotapi.NewPhoto(action.ChatID, tgbotapi.FileBytes{Name: "qris.png", Bytes: qr})
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeMarkdown
	photo.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(format.BackButton("", "")),
	)
	if _, err := botapi.Send(photo); err != nil {
		logger.Error("failed to send QRIS image", zap.Error(err))
	}
}

func editTopupError(botapi *tgbotapi.BotAPI, chatID int64, messageID int, reason string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, "❌ "+reason)
	if _, err := botapi.Send(edit); err != nil {
		logger.Error("failed to edit topup error", zap.Error(err))
	}
}
