package services

import (
	"encoding/json"
	"net/http"

	"vpn-store-bot/internal/logger"
	"vpn-store-bot/internal/store"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// gatewayCallback is the payload the payment gateway POSTs on status
// changes.
type gatewayCallback struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount int    `json:"amount"`
	Notes  string `json:"notes"`
}

func writeJSON(w http.ResponseWriter, code int, status, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status, "message": message})
}

// GatewayCallbackHandler confirms paid invoices and credits balances.
// Crediting is idempotent per invoice id.
func GatewayCallbackHandler(botapi *tgbotapi.BotAPI, users *store.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer logger.NotifyOnPanic("GatewayCallbackHandler")
		var payload gatewayCallback
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, "error", "Invalid JSON body")
			return
		}
		logger.Info("gateway callback",
			zap.String("invoice_id", payload.ID), zap.String("callback_status", payload.Status), zap.Int("amount", payload.Amount))

		if payload.ID == "" || payload.Status != "PAID" || payload.Notes == "" {
			writeJSON(w, http.StatusBadRequest, "error", "Invalid payload or status not PAID")
			return
		}
		userID, ok := UserIDFromNotes(payload.Notes)
		if !ok {
			logger.Warn("user id missing from callback notes", zap.String("notes", payload.Notes))
			writeJSON(w, http.StatusBadRequest, "error", "User ID not found in notes")
			return
		}

		user, credited, err := CreditTopup(users, payload.ID, userID, payload.Amount)
		if err != nil {
			logger.Error("topup credit failed", zap.String("invoice_id", payload.ID), zap.Error(err))
			writeJSON(w, http.StatusBadRequest, "error", "Failed to credit balance")
			return
		}
		if credited {
			NotifyUserTopup(botapi, userID, payload.Amount, user.Balance)
			NotifyGroupTopup(botapi, userID, user.Username, payload.Amount)
		}
		writeJSON(w, http.StatusOK, "success", "Webhook processed")
	}
}

// TelegramUpdateHandler decodes a webhook update, acknowledges Telegram
// immediately and hands the update to dispatch asynchronously.
func TelegramUpdateHandler(dispatch func(tgbotapi.Update)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			logger.Warn("undecodable telegram update", zap.Error(err))
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusOK)
		go dispatch(update)
	}
}

// NewRouter assembles the webhook ingress.
func NewRouter(botapi *tgbotapi.BotAPI, users *store.UserStore, botToken string, dispatch func(tgbotapi.Update)) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/webhook", GatewayCallbackHandler(botapi, users))
	r.Post("/bot"+botToken, TelegramUpdateHandler(dispatch))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return r
}

// RegisterWebhook points Telegram at our public update endpoint.
func RegisterWebhook(botapi *tgbotapi.BotAPI, publicURL, botToken string) error {
	wh, err := tgbotapi.NewWebhook(publicURL + "/bot" + botToken)
	if err != nil {
		return err
	}
	if _, err := botapi.Request(wh); err != nil {
		return err
	}
	logger.Info("telegram webhook registered", zap.String("url", publicURL+"/bot***"))
	return nil
}
