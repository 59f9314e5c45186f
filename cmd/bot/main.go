package main

import (
	"log"
	"net/http"
	"strconv"

	"vpn-store-bot/config"
	"vpn-store-bot/internal/admin"
	"vpn-store-bot/internal/bot"
	"vpn-store-bot/internal/db"
	"vpn-store-bot/internal/logger"
	"vpn-store-bot/internal/services"
	"vpn-store-bot/internal/session"
	"vpn-store-bot/internal/store"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	if err := logger.Init(config.AppCfg.LogDir); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	userStore := store.NewUserStore(config.AppCfg.DBPath)
	serverStore, err := store.NewServerStore(config.AppCfg.ServersDir)
	if err != nil {
		log.Fatalf("Failed to open server store: %v", err)
	}
	if err := db.InitDB(config.AppCfg.SQLitePath); err != nil {
		log.Fatalf("Failed to open transaction database: %v", err)
	}

	// The configured admin always exists with the admin role, so a
	// fresh deployment is manageable from the first message.
	adminUID := strconv.FormatInt(config.AppCfg.AdminUserID, 10)
	if _, err := userStore.EnsureUser(adminUID, "admin"); err != nil {
		log.Fatalf("Failed to bootstrap admin user: %v", err)
	}
	if err := userStore.SetRole(adminUID, "admin"); err != nil {
		log.Fatalf("Failed to assign admin role: %v", err)
	}

	botapi, err := tgbotapi.NewBotAPI(config.AppCfg.BotToken)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}
	logger.InitNotifier(botapi, config.AppCfg.AdminUserID)

	registry := session.NewRegistry()
	gateway := services.NewGateway(config.AppCfg.GatewayBaseURL, config.AppCfg.GatewayUsername, config.AppCfg.GatewayAPIToken)
	bot.Init(userStore, serverStore, gateway, registry)
	admin.Init(userStore, serverStore, registry)

	c := cron.New()
	// Expiry warnings daily at 10:00, data backup at 03:00.
	c.AddFunc("0 10 * * *", func() {
		services.NotifyExpiringAccounts(botapi, 3)
	})
	c.AddFunc("0 3 * * *", admin.AutoBackup)
	c.Start()

	if err := services.RegisterWebhook(botapi, config.AppCfg.WebhookURL, config.AppCfg.BotToken); err != nil {
		log.Fatalf("Failed to register Telegram webhook: %v", err)
	}

	router := services.NewRouter(botapi, userStore, config.AppCfg.BotToken, func(update tgbotapi.Update) {
		bot.HandleUpdate(botapi, update)
	})

	addr := ":" + config.AppCfg.WebhookPort
	logger.Info("bot started", zap.String("addr", addr), zap.String("username", botapi.Self.UserName))
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Webhook server error: %v", err)
	}
}
