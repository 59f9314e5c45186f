package admin

import (
	"fmt"
	"strconv"
	"strings"

	"vpn-store-bot/internal/format"
	"vpn-store-bot/internal/logger"
	"vpn-store-bot/internal/services"
	"vpn-store-bot/internal/session"
	"vpn-store-bot/internal/store"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// HandleInput consumes a text message belonging to a pending admin
// flow. The role is re-checked here: a demoted admin's stale pending
// action must not keep working.
func HandleInput(botapi *tgbotapi.BotAPI, msg *tgbotapi.Message, action session.Action) {
	userID := msg.From.ID
	uid := strconv.FormatInt(userID, 10)
	if !users.IsAdmin(uid) {
		pending.Cancel(userID)
		return
	}

	input := strings.TrimSpace(msg.Text)
	if botapi != nil {
		if _, err := botapi.Request(tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID)); err != nil {
			logger.Warn("failed to delete admin input", zap.Error(err))
		}
	}

	switch action.Kind {
	case session.KindAddServer:
		handleAddServerInput(botapi, userID, action, input)
	case session.KindEditServer:
		handleEditServerInput(botapi, userID, action, input)
	case session.KindAddBalance:
		handleAddBalanceInput(botapi, userID, action, input)
	case session.KindSetRole:
		handleSetRoleInput(botapi, userID, action, input)
	case session.KindBroadcast:
		handleBroadcastInput(botapi, userID, action, input)
	default:
		logger.Warn("unknown pending admin flow", zap.String("kind", string(action.Kind)))
		pending.Cancel(userID)
	}
}

// rePrompt replaces the flow prompt with a validation error. The
// pending action is left untouched so the same step runs again.
func rePrompt(botapi *tgbotapi.BotAPI, action session.Action, text string, cancelData string) {
	if botapi == nil {
		return
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(action.ChatID, action.MessageID, text, cancelMarkup(cancelData))
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := botapi.Send(edit); err != nil {
		logger.Error("failed to update flow prompt", zap.Error(err))
	}
}

// applyAddServerStep validates one wizard input and advances the draft
// when it is valid. An invalid input returns the error text for the
// same step without touching the draft; nothing is written to disk
// until the final step reports finished.
func applyAddServerStep(a *session.Action, input string, idTaken func(string) bool) (prompt string, finished bool) {
	switch a.Step {
	case session.StepID:
		id := strings.ToLower(input)
		if !store.ValidServerID(id) {
			return "❌ ID tidak valid. Hanya huruf kecil, angka dan tanda minus.\n\nKirim *ID server*:", false
		}
		if idTaken(id) {
			return fmt.Sprintf("❌ Server dengan ID `%s` sudah ada.\n\nKirim *ID server* lain:", id), false
		}
		a.Draft.ID = id
		a.Step = session.StepName
		return "Langkah 2: kirim *nama server*.\n\n*Contoh:* `Singapore 1`", false

	case session.StepName:
		if input == "" {
			return "❌ Nama tidak boleh kosong.\n\nKirim *nama server*:", false
		}
		a.Draft.Name = input
		a.Step = session.StepDomain
		return "Langkah 3: kirim *domain server*.\n\n*Contoh:* `sg1.vpn.example.com`", false

	case session.StepDomain:
		if input == "" {
			return "❌ Domain tidak boleh kosong.\n\nKirim *domain server*:", false
		}
		a.Draft.Domain = input
		a.Step = session.StepToken
		return "Langkah 4: kirim *API token* panel server.", false

	case session.StepToken:
		if input == "" {
			return "❌ API token tidak boleh kosong.\n\nKirim *API token*:", false
		}
		a.Draft.APIToken = input
		a.Step = session.StepPrice
		a.ProtoIndex = 0
		return priceStepText(0), false

	case session.StepPrice:
		price, err := strconv.Atoi(input)
		if err != nil || price < 0 {
			return "❌ Harga tidak valid.\n\n" + priceStepText(a.ProtoIndex), false
		}
		// Price zero means the server does not offer this protocol.
		if price > 0 {
			proto := services.Protocols[a.ProtoIndex]
			a.Draft.Protocols[proto.ID] = store.Protocol{PricePer30Days: price}
		}
		a.ProtoIndex++
		if a.ProtoIndex >= len(services.Protocols) {
			return "", true
		}
		return priceStepText(a.ProtoIndex), false
	}
	return "", false
}

func handleAddServerInput(botapi *tgbotapi.BotAPI, adminID int64, action session.Action, input string) {
	const cancel = "admin_manage_servers"

	var prompt string
	var finished bool
	if !pending.Advance(adminID, func(a *session.Action) {
		prompt, finished = applyAddServerStep(a, input, servers.Exists)
	}) {
		return
	}
	if !finished {
		rePrompt(botapi, action, prompt, cancel)
		return
	}

	done, ok := pending.Current(adminID)
	pending.Complete(adminID)
	if !ok {
		return
	}
	if err := servers.Save(done.Draft); err != nil {
		// Terminal: the flow already completed, so no re-prompt here.
		logger.Error("server save failed", zap.String("server_id", done.Draft.ID), zap.Error(err))
		sendOrEdit(botapi, action.ChatID, action.MessageID, "❌ Gagal menyimpan server.", backToServersMarkup())
		return
	}
	logger.LogAdminAction(adminID, "add_server", done.Draft.ID)
	text := fmt.Sprintf("✅ Server *%s* (`%s`) berhasil ditambahkan dengan %d protokol.",
		format.EscapeMarkdown(done.Draft.Name), done.Draft.ID, len(done.Draft.Protocols))
	sendOrEdit(botapi, action.ChatID, action.MessageID, text, backToServersMarkup())
}

func priceStepText(protoIndex int) string {
	proto := services.Protocols[protoIndex]
	return fmt.Sprintf("Langkah %d: kirim *harga %s* per 30 hari.\n\nKirim `0` jika server tidak menawarkan protokol ini.",
		5+protoIndex, proto.Name)
}

func handleEditServerInput(botapi *tgbotapi.BotAPI, adminID int64, action session.Action, input string) {
	pending.Complete(adminID)

	server, err := servers.Get(action.ServerID)
	if err != nil {
		logger.Warn("edit flow: server vanished", zap.String("server_id", action.ServerID))
		ShowManageServers(botapi, action.ChatID, action.MessageID)
		return
	}

	switch action.Property {
	case "name":
		if input == "" {
			PromptEditProp(botapi, adminID, action.ChatID, action.MessageID, action.ServerID, action.Property, action.ProtoID)
			return
		}
		server.Name = input
	case "domain":
		if input == "" {
			PromptEditProp(botapi, adminID, action.ChatID, action.MessageID, action.ServerID, action.Property, action.ProtoID)
			return
		}
		server.Domain = input
	case "api_token":
		if input == "" {
			PromptEditProp(botapi, adminID, action.ChatID, action.MessageID, action.ServerID, action.Property, action.ProtoID)
			return
		}
		server.APIToken = input
	case "price":
		price, err := strconv.Atoi(input)
		if err != nil || price < 0 {
			PromptEditProp(botapi, adminID, action.ChatID, action.MessageID, action.ServerID, action.Property, action.ProtoID)
			return
		}
		if server.Protocols == nil {
			server.Protocols = make(map[string]store.Protocol)
		}
		if price == 0 {
			delete(server.Protocols, action.ProtoID)
		} else {
			server.Protocols[action.ProtoID] = store.Protocol{PricePer30Days: price}
		}
	default:
		logger.Warn("edit flow: unknown property", zap.String("property", action.Property))
		return
	}

	if err := servers.Save(server); err != nil {
		logger.Error("server save failed", zap.String("server_id", server.ID), zap.Error(err))
		return
	}
	logger.LogAdminAction(adminID, "edit_server", action.ServerID+":"+action.Property)
	ShowServerDetails(botapi, action.ChatID, action.MessageID, action.ServerID)
}

func handleAddBalanceInput(botapi *tgbotapi.BotAPI, adminID int64, action session.Action, input string) {
	const cancel = "admin_manage_users"

	switch action.Step {
	case session.StepUserID:
		if _, err := users.GetUser(input); err != nil {
			rePrompt(botapi, action, fmt.Sprintf("❌ Pengguna dengan ID `%s` tidak ditemukan.\n\nKirim *User ID*:", input), cancel)
			return
		}
		pending.Advance(adminID, func(a *session.Action) {
			a.TargetUserID = input
			a.Step = session.StepAmount
		})
		rePrompt(botapi, action, fmt.Sprintf("Kirim *nominal saldo* yang ingin ditambahkan ke `%s`.\n\n*Contoh:* `50000`", input), cancel)

	case session.StepAmount:
		amount, err := strconv.Atoi(input)
		if err != nil || amount <= 0 {
			rePrompt(botapi, action, "❌ Nominal tidak valid. Kirim angka lebih dari 0:", cancel)
			return
		}
		pending.Complete(adminID)
		user, _, err := users.UpdateBalance(action.TargetUserID, amount, "topup_manual", map[string]string{
			"admin": strconv.FormatInt(adminID, 10),
		})
		if err != nil {
			logger.Error("manual balance add failed", zap.String("target", action.TargetUserID), zap.Error(err))
			rePrompt(botapi, action, "❌ Gagal menambahkan saldo.", cancel)
			return
		}
		logger.LogAdminAction(adminID, "add_balance", fmt.Sprintf("%s:%d", action.TargetUserID, amount))
		text := fmt.Sprintf("✅ Saldo %s ditambahkan ke `%s` (@%s).\nSaldo sekarang: %s",
			format.Rupiah(amount), action.TargetUserID, format.EscapeMarkdown(user.Username), format.Rupiah(user.Balance))
		edit := tgbotapi.NewEditMessageTextAndMarkup(action.ChatID, action.MessageID, text,
			tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(format.BackButton("⬅️ Kembali", cancel))))
		edit.ParseMode = tgbotapi.ModeMarkdown
		if _, err := botapi.Send(edit); err != nil {
			logger.Error("failed to send add-balance result", zap.Error(err))
		}

	default:
		pending.Cancel(adminID)
	}
}

func handleSetRoleInput(botapi *tgbotapi.BotAPI, adminID int64, action session.Action, input string) {
	const cancel = "admin_manage_users"

	switch action.Step {
	case session.StepUserID:
		if _, err := users.GetUser(input); err != nil {
			rePrompt(botapi, action, fmt.Sprintf("❌ Pengguna dengan ID `%s` tidak ditemukan.\n\nKirim *User ID*:", input), cancel)
			return
		}
		pending.Advance(adminID, func(a *session.Action) {
			a.TargetUserID = input
			a.Step = session.StepRole
		})
		rePrompt(botapi, action, fmt.Sprintf("Kirim role baru untuk `%s`: `user` atau `admin`.", input), cancel)

	case session.StepRole:
		role := strings.ToLower(input)
		if role != "user" && role != "admin" {
			rePrompt(botapi, action, "❌ Role tidak dikenal. Kirim `user` atau `admin`:", cancel)
			return
		}
		pending.Complete(adminID)
		if err := users.SetRole(action.TargetUserID, role); err != nil {
			logger.Error("set role failed", zap.String("target", action.TargetUserID), zap.Error(err))
			rePrompt(botapi, action, "❌ Gagal mengubah role.", cancel)
			return
		}
		logger.LogAdminAction(adminID, "set_role", action.TargetUserID+":"+role)
		text := fmt.Sprintf("✅ Role `%s` sekarang menjadi *%s*.", action.TargetUserID, role)
		edit := tgbotapi.NewEditMessageTextAndMarkup(action.ChatID, action.MessageID, text,
			tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(format.BackButton("⬅️ Kembali", cancel))))
		edit.ParseMode = tgbotapi.ModeMarkdown
		if _, err := botapi.Send(edit); err != nil {
			logger.Error("failed to send set-role result", zap.Error(err))
		}

	default:
		pending.Cancel(adminID)
	}
}
