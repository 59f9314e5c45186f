// Package bot routes incoming Telegram updates to the storefront
// handlers: main menu, topup flow and the VPN purchase/renewal flows.
package bot

import (
	"time"

	"vpn-store-bot/internal/logger"
	"vpn-store-bot/internal/services"
	"vpn-store-bot/internal/session"
	"vpn-store-bot/internal/store"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var (
	users   *store.UserStore
	servers *store.ServerStore
	gateway *services.Gateway
	pending *session.Registry

	rateLimiter = NewRateLimiter()
	startTime   = time.Now()
)

// Init wires the shared dependencies. Must run before the first update.
func Init(u *store.UserStore, s *store.ServerStore, g *services.Gateway, reg *session.Registry) {
	users = u
	servers = s
	gateway = g
	pending = reg
}

// HandleUpdate is the single entry point for a Telegram update.
func HandleUpdate(botapi *tgbotapi.BotAPI, update tgbotapi.Update) {
	defer logger.NotifyOnPanic("HandleUpdate")
	if update.CallbackQuery != nil {
		handleCallback(botapi, update.CallbackQuery)
		return
	}
	if update.Message != nil && update.Message.From != nil {
		handleMessage(botapi, update.Message)
	}
}
