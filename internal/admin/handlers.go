package admin

import (
	"fmt"
	"strings"

	"vpn-store-bot/internal/db"
	"vpn-store-bot/internal/format"
	"vpn-store-bot/internal/logger"
	"vpn-store-bot/internal/services"
	"vpn-store-bot/internal/session"
	"vpn-store-bot/internal/store"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// sendOrEdit renders a panel screen. messageID zero means a fresh
// message (the /admin command path), otherwise the screen is edited in
// place like every other panel navigation.
func sendOrEdit(botapi *tgbotapi.BotAPI, chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) {
	if botapi == nil {
		return
	}
	if messageID != 0 {
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
		edit.ParseMode = tgbotapi.ModeMarkdown
		if _, err := botapi.Send(edit); err != nil {
			logger.Error("failed to edit admin screen", zap.Error(err))
		}
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = markup
	if _, err := botapi.Send(msg); err != nil {
		logger.Error("failed to send admin screen", zap.Error(err))
	}
}

// ShowPanel renders the admin panel main screen.
func ShowPanel(botapi *tgbotapi.BotAPI, chatID int64, messageID int) {
	text := fmt.Sprintf("*⚙️ Panel Admin*\n%s\nPilih menu pengelolaan:", format.PrettyLine)
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 Kelola Pengguna", "admin_manage_users"),
			tgbotapi.NewInlineKeyboardButtonData("🖥 Kelola Server", "admin_manage_servers"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📢 Broadcast", "admin_broadcast_prompt"),
			tgbotapi.NewInlineKeyboardButtonData("📜 Riwayat Topup", "admin_view_transactions"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💾 Backup Data", "admin_backup"),
		),
		tgbotapi.NewInlineKeyboardRow(format.BackButton("", "")),
	)
	sendOrEdit(botapi, chatID, messageID, text, markup)
}

func ShowManageUsers(botapi *tgbotapi.BotAPI, chatID int64, messageID int) {
	text := fmt.Sprintf("*👥 Kelola Pengguna*\n%s\nTotal pengguna terdaftar: %d", format.PrettyLine, users.CountUsers())
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 Tambah Saldo", "admin_add_balance_prompt"),
			tgbotapi.NewInlineKeyboardButtonData("🎖 Ubah Role", "admin_set_role_prompt"),
		),
		tgbotapi.NewInlineKeyboardRow(format.BackButton("⬅️ Kembali", "admin_panel_main")),
	)
	sendOrEdit(botapi, chatID, messageID, text, markup)
}

// PromptAddBalance starts the two-step add-balance flow: user id first,
// then the amount.
func PromptAddBalance(botapi *tgbotapi.BotAPI, adminID, chatID int64, messageID int) {
	text := fmt.Sprintf("*💰 Tambah Saldo*\n%s\nKirim *User ID* Telegram pengguna yang ingin ditambahkan saldonya.", format.PrettyLine)
	markup := cancelMarkup("admin_manage_users")
	sendOrEdit(botapi, chatID, messageID, text, markup)
	pending.Begin(adminID, session.Action{
		Kind:      session.KindAddBalance,
		Step:      session.StepUserID,
		ChatID:    chatID,
		MessageID: messageID,
	})
}

// PromptSetRole starts the two-step set-role flow.
func PromptSetRole(botapi *tgbotapi.BotAPI, adminID, chatID int64, messageID int) {
	text := fmt.Sprintf("*🎖 Ubah Role*\n%s\nKirim *User ID* Telegram pengguna yang ingin diubah role-nya.", format.PrettyLine)
	markup := cancelMarkup("admin_manage_users")
	sendOrEdit(botapi, chatID, messageID, text, markup)
	pending.Begin(adminID, session.Action{
		Kind:      session.KindSetRole,
		Step:      session.StepUserID,
		ChatID:    chatID,
		MessageID: messageID,
	})
}

func ShowManageServers(botapi *tgbotapi.BotAPI, chatID int64, messageID int) {
	all, err := servers.All()
	if err != nil {
		logger.Error("server list failed", zap.Error(err))
		return
	}
	text := fmt.Sprintf("*🖥 Kelola Server*\n%s\nServer terdaftar: %d", format.PrettyLine, len(all))
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Tambah Server", "admin_add_server_prompt"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Edit Server", "admin_edit_server_select"),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Hapus Server", "admin_delete_server_select"),
		),
		tgbotapi.NewInlineKeyboardRow(format.BackButton("⬅️ Kembali", "admin_panel_main")),
	)
	sendOrEdit(botapi, chatID, messageID, text, markup)
}

// SelectServer lists the catalogue for either the edit or the delete
// flow, distinguished by mode.
func SelectServer(botapi *tgbotapi.BotAPI, chatID int64, messageID int, mode string) {
	all, err := servers.All()
	if err != nil {
		logger.Error("server list failed", zap.Error(err))
		return
	}
	title := "✏️ Edit Server"
	prefix := "admin_edit_server_details_"
	if mode == "delete" {
		title = "🗑 Hapus Server"
		prefix = "admin_delete_server_confirm_"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n%s\n", title, format.PrettyLine)
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(all)+1)
	if len(all) == 0 {
		b.WriteString("Belum ada server terdaftar.")
	} else {
		b.WriteString("Pilih server:")
		for _, srv := range all {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(srv.Name, prefix+srv.ID),
			))
		}
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(format.BackButton("⬅️ Kembali", "admin_manage_servers")))
	sendOrEdit(botapi, chatID, messageID, b.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// ShowServerDetails renders one server with edit buttons per property
// and per protocol price.
func ShowServerDetails(botapi *tgbotapi.BotAPI, chatID int64, messageID int, serverID string) {
	server, err := servers.Get(serverID)
	if err != nil {
		logger.Warn("server details: not found", zap.String("server_id", serverID))
		ShowManageServers(botapi, chatID, messageID)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*🖥 Server: %s*\n%s\n", format.EscapeMarkdown(server.Name), format.PrettyLine)
	fmt.Fprintf(&b, "🆔 *ID:* `%s`\n", server.ID)
	fmt.Fprintf(&b, "🌐 *Domain:* `%s`\n", server.Domain)
	fmt.Fprintf(&b, "🔑 *API Token:* `%s`\n", maskToken(server.APIToken))
	b.WriteString(format.PrettyLine + "\n*Harga per 30 hari:*\n")
	for _, proto := range services.Protocols {
		p, ok := server.Protocols[proto.ID]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "  ├ %s: %s\n", proto.Name, format.Rupiah(p.PricePer30Days))
	}
	b.WriteString("\nPilih properti yang ingin diubah:")

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Nama", "admin_edit_prop_name_"+server.ID),
			tgbotapi.NewInlineKeyboardButtonData("Domain", "admin_edit_prop_domain_"+server.ID),
			tgbotapi.NewInlineKeyboardButtonData("API Token", "admin_edit_prop_api_token_"+server.ID),
		),
	}
	var priceRow []tgbotapi.InlineKeyboardButton
	for _, proto := range services.Protocols {
		priceRow = append(priceRow, tgbotapi.NewInlineKeyboardButtonData(
			"Harga "+proto.Name, fmt.Sprintf("admin_edit_prop_price_%s_%s", proto.ID, server.ID)))
		if len(priceRow) == 3 {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(priceRow...))
			priceRow = nil
		}
	}
	if len(priceRow) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(priceRow...))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(format.BackButton("⬅️ Kembali", "admin_edit_server_select")))
	sendOrEdit(botapi, chatID, messageID, b.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// PromptEditProp asks for a new value for one server property and arms
// the single-step edit flow.
func PromptEditProp(botapi *tgbotapi.BotAPI, adminID, chatID int64, messageID int, serverID, property, protoID string) {
	if !servers.Exists(serverID) {
		ShowManageServers(botapi, chatID, messageID)
		return
	}
	label := property
	hint := "Kirim nilai baru."
	switch property {
	case "name":
		label = "Nama"
	case "domain":
		label = "Domain"
	case "api_token":
		label = "API Token"
	case "price":
		label = "Harga " + services.ProtocolName(protoID)
		hint = "Kirim harga baru dalam angka. Kirim `0` untuk menghapus protokol ini dari server."
	}
	text := fmt.Sprintf("*✏️ Ubah %s*\n%s\n%s", label, format.PrettyLine, hint)
	markup := cancelMarkup("admin_edit_server_details_" + serverID)
	sendOrEdit(botapi, chatID, messageID, text, markup)
	pending.Begin(adminID, session.Action{
		Kind:      session.KindEditServer,
		ChatID:    chatID,
		MessageID: messageID,
		ServerID:  serverID,
		Property:  property,
		ProtoID:   protoID,
	})
}

// ConfirmDeleteServer asks for confirmation on the first press and
// removes the server when the confirmed variant arrives.
func ConfirmDeleteServer(botapi *tgbotapi.BotAPI, adminID, chatID int64, messageID int, serverID string, confirmed bool) {
	server, err := servers.Get(serverID)
	if err != nil {
		ShowManageServers(botapi, chatID, messageID)
		return
	}

	if !confirmed {
		text := fmt.Sprintf("*🗑 Hapus Server*\n%s\n"+
			"Anda yakin ingin menghapus server *%s* (`%s`)?\n\n"+
			"Akun yang sudah terjual di server ini tidak bisa diperpanjang lagi.",
			format.PrettyLine, format.EscapeMarkdown(server.Name), server.ID)
		markup := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Ya, Hapus", "admin_delete_server_confirm__dodelete_"+server.ID),
				tgbotapi.NewInlineKeyboardButtonData("❌ Batal", "admin_manage_servers"),
			),
		)
		sendOrEdit(botapi, chatID, messageID, text, markup)
		return
	}

	if err := servers.Delete(serverID); err != nil {
		logger.Error("server delete failed", zap.String("server_id", serverID), zap.Error(err))
		sendOrEdit(botapi, chatID, messageID, "❌ Gagal menghapus server.", backToServersMarkup())
		return
	}
	logger.LogAdminAction(adminID, "delete_server", serverID)
	text := fmt.Sprintf("✅ Server *%s* telah dihapus.", format.EscapeMarkdown(server.Name))
	sendOrEdit(botapi, chatID, messageID, text, backToServersMarkup())
}

// PromptAddServer starts the multi-step add-server flow at the id step.
func PromptAddServer(botapi *tgbotapi.BotAPI, adminID, chatID int64, messageID int) {
	text := fmt.Sprintf("*➕ Tambah Server*\n%s\n"+
		"Langkah 1: kirim *ID server*.\n\n"+
		"Hanya huruf kecil, angka dan tanda minus.\n*Contoh:* `sg-1`", format.PrettyLine)
	markup := cancelMarkup("admin_manage_servers")
	sendOrEdit(botapi, chatID, messageID, text, markup)
	pending.Begin(adminID, session.Action{
		Kind:      session.KindAddServer,
		Step:      session.StepID,
		ChatID:    chatID,
		MessageID: messageID,
		Draft:     store.Server{Protocols: make(map[string]store.Protocol)},
	})
}

// PromptBroadcast arms the single-step broadcast flow.
func PromptBroadcast(botapi *tgbotapi.BotAPI, adminID, chatID int64, messageID int) {
	text := fmt.Sprintf("*📢 Broadcast*\n%s\n"+
		"Kirim pesan yang ingin disiarkan ke semua pengguna terdaftar.", format.PrettyLine)
	markup := cancelMarkup("admin_panel_main")
	sendOrEdit(botapi, chatID, messageID, text, markup)
	pending.Begin(adminID, session.Action{
		Kind:      session.KindBroadcast,
		ChatID:    chatID,
		MessageID: messageID,
	})
}

// ShowTransactions lists the ten most recent gateway topups.
func ShowTransactions(botapi *tgbotapi.BotAPI, chatID int64, messageID int) {
	topups, err := db.RecentTopups(10)
	if err != nil {
		logger.Error("topup history failed", zap.Error(err))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*📜 Riwayat Topup Terakhir*\n%s\n", format.PrettyLine)
	if len(topups) == 0 {
		b.WriteString("Belum ada transaksi topup.")
	} else {
		for _, t := range topups {
			icon := "⏳"
			if t.Status == db.InvoicePaid {
				icon = "✅"
			}
			fmt.Fprintf(&b, "%s `%s`\n  ├ User: `%s`\n  ├ Nominal: %s\n  └ %s\n\n",
				icon, t.InvoiceID, t.TelegramID, format.Rupiah(t.Amount),
				t.CreatedAt.Format("02-01-2006 15:04"))
		}
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(format.BackButton("⬅️ Kembali", "admin_panel_main")),
	)
	sendOrEdit(botapi, chatID, messageID, b.String(), markup)
}

func cancelMarkup(backData string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(format.BackButton("❌ Batalkan", backData)),
	)
}

func backToServersMarkup() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(format.BackButton("⬅️ Kembali", "admin_manage_servers")),
	)
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
