// Package format holds the small presentation helpers shared by the
// user-facing and admin-facing handlers.
package format

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// PrettyLine is the separator used inside formatted messages.
const PrettyLine = "------------------------------------------"

// Rupiah formats an amount in the smallest currency unit as "Rp 10.000".
func Rupiah(amount int) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.Itoa(amount)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	if neg {
		return "-Rp " + b.String()
	}
	return "Rp " + b.String()
}

// Messages go out with the legacy Markdown parse mode, which only
// treats these four characters as markup. Escaping the MarkdownV2 set
// here would leave literal backslashes in rendered text.
var markdownEscaper = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[",
)

// EscapeMarkdown escapes the characters Telegram treats as markup.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// BackButton builds the standard back-navigation inline button.
func BackButton(text, data string) tgbotapi.InlineKeyboardButton {
	if text == "" {
		text = "⬅️ Kembali"
	}
	if data == "" {
		data = "back_menu"
	}
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

// CensorUsername masks a username for group notifications.
func CensorUsername(username string) string {
	if len(username) <= 3 {
		return username + "***"
	}
	return username[:3] + strings.Repeat("*", len(username)-3)
}

// CensorAmount masks everything but the leading digit of an amount.
func CensorAmount(amount int) string {
	s := Rupiah(amount)
	masked := []byte(s)
	seen := false
	for i := range masked {
		if masked[i] >= '0' && masked[i] <= '9' {
			if seen {
				masked[i] = '*'
			}
			seen = true
		}
	}
	return string(masked)
}
