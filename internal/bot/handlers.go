package bot

import (
	"strconv"
	"strings"

	"vpn-store-bot/internal/admin"
	"vpn-store-bot/internal/logger"
	"vpn-store-bot/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleMessage processes a plain text message. Pending flows win over
// commands: a user who was asked for input gets that input consumed
// first, in a fixed order (topup, VPN username, admin flows).
func handleMessage(botapi *tgbotapi.BotAPI, msg *tgbotapi.Message) {
	if msg.Chat == nil || !msg.Chat.IsPrivate() {
		return
	}
	userID := msg.From.ID
	uid := strconv.FormatInt(userID, 10)

	created, err := users.EnsureUser(uid, msg.From.UserName)
	if err != nil {
		logger.Error("ensure user failed", zap.String("user_id", uid), zap.Error(err))
		return
	}

	if action, ok := pending.Current(userID); ok {
		switch action.Kind {
		case session.KindTopupAmount:
			processTopupAmount(botapi, msg, action)
		case session.KindVPNUsername:
			processVPNUsername(botapi, msg, action)
		default:
			admin.HandleInput(botapi, msg, action)
		}
		return
	}

	cmd := ""
	if fields := strings.Fields(msg.Text); len(fields) > 0 {
		cmd = fields[0]
	}
	if !users.IsAdmin(uid) && rateLimiter.IsLimited(userID, cmd) {
		reply := tgbotapi.NewMessage(msg.Chat.ID, "⏳ Mohon tunggu sebentar sebelum mengirim perintah lagi.")
		if _, err := botapi.Send(reply); err != nil {
			logger.Error("failed to send rate limit notice", zap.Error(err))
		}
		return
	}

	switch {
	case strings.HasPrefix(msg.Text, "/start"):
		handleStart(botapi, msg, created)
	case strings.HasPrefix(msg.Text, "/admin"):
		if users.IsAdmin(uid) {
			admin.ShowPanel(botapi, msg.Chat.ID, 0)
		} else {
			SendMainMenu(botapi, uid, msg.Chat.ID, 0)
		}
	default:
		SendMainMenu(botapi, uid, msg.Chat.ID, 0)
	}
}

// handleCallback routes an inline keyboard press. The query is answered
// immediately so the client stops showing the loading spinner, and any
// pending action is cancelled: pressing a button always abandons a
// half-finished text flow.
func handleCallback(botapi *tgbotapi.BotAPI, q *tgbotapi.CallbackQuery) {
	defer logger.NotifyOnPanic("handleCallback")

	if _, err := botapi.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		logger.Warn("failed to answer callback query", zap.Error(err))
	}
	if q.Message == nil || q.From == nil {
		return
	}

	userID := q.From.ID
	uid := strconv.FormatInt(userID, 10)
	if _, err := users.EnsureUser(uid, q.From.UserName); err != nil {
		logger.Error("ensure user failed", zap.String("user_id", uid), zap.Error(err))
		return
	}
	pending.Cancel(userID)

	chatID := q.Message.Chat.ID
	messageID := q.Message.MessageID
	cb := ParseCallback(q.Data)

	switch cb.Action {
	case ActionBackMenu:
		SendMainMenu(botapi, uid, chatID, messageID)
	case ActionTopupMenu:
		handleTopupMenu(botapi, q)
	case ActionMenuVPN:
		handleVPNMenu(botapi, chatID, messageID)
	case ActionMenuOther:
		handleMenuOther(botapi, chatID, messageID)
	case ActionVPNBuySelectServer:
		handleBuySelectServer(botapi, q)
	case ActionVPNSelectProtocol:
		handleSelectProtocol(botapi, q, cb.ServerID)
	case ActionVPNEnterUsername:
		handleEnterUsername(botapi, q, cb.ServerID, cb.ProtoID)
	case ActionVPNMyAccounts:
		handleMyAccounts(botapi, q)
	case ActionVPNRenewSelect:
		handleRenewSelect(botapi, q)
	case ActionVPNConfirmRenew:
		handleConfirmRenew(botapi, q, cb.AccountID, cb.Confirmed)
	default:
		if strings.HasPrefix(q.Data, "admin_") {
			handleAdminCallback(botapi, q, cb)
			return
		}
		logger.Warn("unhandled callback", zap.String("data", q.Data))
	}
}

// handleAdminCallback gates the admin actions on the stored role.
func handleAdminCallback(botapi *tgbotapi.BotAPI, q *tgbotapi.CallbackQuery, cb Callback) {
	uid := strconv.FormatInt(q.From.ID, 10)
	if !users.IsAdmin(uid) {
		logger.Warn("admin callback from non-admin", zap.String("user_id", uid), zap.String("data", q.Data))
		return
	}
	chatID := q.Message.Chat.ID
	messageID := q.Message.MessageID

	switch cb.Action {
	case ActionAdminPanel:
		admin.ShowPanel(botapi, chatID, messageID)
	case ActionAdminManageUsers:
		admin.ShowManageUsers(botapi, chatID, messageID)
	case ActionAdminAddBalance:
		admin.PromptAddBalance(botapi, q.From.ID, chatID, messageID)
	case ActionAdminSetRole:
		admin.PromptSetRole(botapi, q.From.ID, chatID, messageID)
	case ActionAdminManageServers:
		admin.ShowManageServers(botapi, chatID, messageID)
	case ActionAdminAddServer:
		admin.PromptAddServer(botapi, q.From.ID, chatID, messageID)
	case ActionAdminEditServerSelect:
		admin.SelectServer(botapi, chatID, messageID, "edit")
	case ActionAdminDeleteServerSelect:
		admin.SelectServer(botapi, chatID, messageID, "delete")
	case ActionAdminEditServerDetails:
		admin.ShowServerDetails(botapi, chatID, messageID, cb.ServerID)
	case ActionAdminEditProp:
		admin.PromptEditProp(botapi, q.From.ID, chatID, messageID, cb.ServerID, cb.Property, cb.ProtoID)
	case ActionAdminDeleteServerConfirm:
		admin.ConfirmDeleteServer(botapi, q.From.ID, chatID, messageID, cb.ServerID, cb.Confirmed)
	case ActionAdminBroadcast:
		admin.PromptBroadcast(botapi, q.From.ID, chatID, messageID)
	case ActionAdminTransactions:
		admin.ShowTransactions(botapi, chatID, messageID)
	case ActionAdminBackup:
		admin.HandleBackup(botapi, chatID)
	default:
		logger.Warn("unhandled admin callback", zap.String("data", q.Data))
	}
}
