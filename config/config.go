package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	BotToken    string
	AdminUserID int64
	StoreName   string

	GatewayBaseURL  string
	GatewayUsername string
	GatewayAPIToken string

	WebhookURL  string
	WebhookPort string

	// Optional sales notification group. Zero chat ID disables it.
	GroupChatID  int64
	GroupTopicID int

	DBPath     string
	ServersDir string
	SQLitePath string
	LogDir     string
}

var AppCfg AppConfig

func LoadConfig() {
	err := godotenv.Load()
	if err != nil {
		log.Println(".env file not found, relying on environment variables")
	}

	AppCfg.BotToken = os.Getenv("BOT_TOKEN")
	AppCfg.AdminUserID, _ = strconv.ParseInt(os.Getenv("ADMIN_USER_ID"), 10, 64)
	AppCfg.StoreName = getenvDefault("STORE_NAME", "RERECHAN STORE")

	AppCfg.GatewayBaseURL = os.Getenv("PAYMENT_GATEWAY_BASE_URL")
	AppCfg.GatewayUsername = os.Getenv("PAYMENT_GATEWAY_USERNAME")
	AppCfg.GatewayAPIToken = os.Getenv("PAYMENT_GATEWAY_API_TOKEN")

	AppCfg.WebhookURL = os.Getenv("WEBHOOK_URL")
	AppCfg.WebhookPort = getenvDefault("WEBHOOK_PORT", "3000")

	AppCfg.GroupChatID, _ = strconv.ParseInt(os.Getenv("GROUP_CHAT_ID"), 10, 64)
	AppCfg.GroupTopicID, _ = strconv.Atoi(os.Getenv("GROUP_TOPIC_ID"))

	AppCfg.DBPath = getenvDefault("DB_PATH", "database.json")
	AppCfg.ServersDir = getenvDefault("SERVERS_DIR", "servers")
	AppCfg.SQLitePath = getenvDefault("SQLITE_PATH", "transactions.sqlite3")
	AppCfg.LogDir = getenvDefault("LOG_DIR", "logs")

	if AppCfg.BotToken == "" || AppCfg.AdminUserID == 0 || AppCfg.WebhookURL == "" ||
		AppCfg.GatewayBaseURL == "" || AppCfg.GatewayUsername == "" || AppCfg.GatewayAPIToken == "" {
		log.Fatal("Critical environment variables are missing (BOT_TOKEN, ADMIN_USER_ID, WEBHOOK_URL, PAYMENT_GATEWAY_*). Bot will exit.")
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
