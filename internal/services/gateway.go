package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"vpn-store-bot/internal/logger"

	"go.uber.org/zap"
)

// Invoice is the gateway's representation of a requested topup.
type Invoice struct {
	ID     string `json:"id"`
	Amount int    `json:"amount"`
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// Gateway talks to the QRIS payment gateway API.
type Gateway struct {
	baseURL  string
	username string
	apiToken string
	client   *http.Client
}

func NewGateway(baseURL, username, apiToken string) *Gateway {
	return &Gateway{
		baseURL:  baseURL,
		username: username,
		apiToken: apiToken,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// userIDPattern is the correlation contract with the gateway: the notes
// written at invoice creation come back verbatim in the callback.
var userIDPattern = regexp.MustCompile(`User ID: (\d+)`)

// InvoiceNotes builds the notes field that embeds the Telegram user id.
func InvoiceNotes(userID, username string) string {
	return fmt.Sprintf("Topup Saldo untuk User ID: %s (@%s)", userID, username)
}

// UserIDFromNotes extracts the Telegram user id a callback belongs to.
func UserIDFromNotes(notes string) (string, bool) {
	m := userIDPattern.FindStringSubmatch(notes)
	if len(m) != 2 {
		return "", false
	}
	return m[1], true
}

// CreateInvoice requests a new invoice from the gateway.
func (g *Gateway) CreateInvoice(amount int, userID, username string) (*Invoice, error) {
	payload := map[string]interface{}{
		"username": g.username,
		"amount":   amount,
		"notes":    InvoiceNotes(userID, username),
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPost, g.baseURL+"/api/v2/invoices", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiToken)

	resp, err := g.client.Do(req)
	if err != nil {
		logger.Error("gateway create invoice failed", zap.String("user_id", userID), zap.Error(err))
		return nil, errors.New("Gagal terhubung ke server pembayaran.")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		logger.Error("gateway rejected invoice", zap.String("user_id", userID), zap.Int("status", resp.StatusCode), zap.ByteString("body", raw))
		return nil, errors.New("Gagal terhubung ke server pembayaran.")
	}
	var inv Invoice
	if err := json.NewDecoder(resp.Body).Decode(&inv); err != nil {
		return nil, err
	}
	logger.Info("invoice created", zap.String("user_id", userID), zap.String("invoice_id", inv.ID), zap.Int("amount", amount))
	return &inv, nil
}

// InvoiceQR fetches the QRIS PNG for an invoice.
func (g *Gateway) InvoiceQR(invoiceID string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, g.baseURL+"/api/v2/invoices/qris/"+invoiceID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiToken)

	resp, err := g.client.Do(req)
	if err != nil {
		logger.Error("gateway QR fetch failed", zap.String("invoice_id", invoiceID), zap.Error(err))
		return nil, errors.New("Gagal memuat gambar QRIS.")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("Gagal memuat gambar QRIS.")
	}
	return io.ReadAll(resp.Body)
}
