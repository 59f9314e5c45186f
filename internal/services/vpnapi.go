package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"vpn-store-bot/internal/format"
	"vpn-store-bot/internal/logger"
	"vpn-store-bot/internal/store"

	"go.uber.org/zap"
)

// accountDuration is the fixed lease every purchase and renewal buys.
const accountDuration = 30

// ProtocolInfo pairs a protocol id with its display name.
type ProtocolInfo struct {
	ID   string
	Name string
}

// Protocols is the fixed, ordered protocol catalogue. Adding a
// protocol means one entry here plus one row in protocolTable.
var Protocols = []ProtocolInfo{
	{ID: "ssh", Name: "SSH"},
	{ID: "vmess", Name: "VMess"},
	{ID: "vless", Name: "VLess"},
	{ID: "trojan", Name: "Trojan"},
	{ID: "ss", Name: "Shadowsocks"},
	{ID: "s5", Name: "SOCKS5"},
}

func ProtocolName(id string) string {
	for _, p := range Protocols {
		if p.ID == id {
			return p.Name
		}
	}
	return strings.ToUpper(id)
}

// protocolSpec describes how one protocol maps onto the provider API.
type protocolSpec struct {
	createPath string
	renewPath  string
	payload    func(username, password string) map[string]interface{}
}

var protocolTable = map[string]protocolSpec{
	"ssh": {
		createPath: "/api/addssh",
		renewPath:  "/api/renew-ssh",
		payload: func(username, password string) map[string]interface{} {
			return map[string]interface{}{"username": username, "password": password, "masa": accountDuration}
		},
	},
	"vmess": {
		createPath: "/api/add-vmess",
		renewPath:  "/api/renew-vmess",
		payload: func(username, _ string) map[string]interface{} {
			return map[string]interface{}{"user": username, "masaaktif": accountDuration}
		},
	},
	"vless": {
		createPath: "/api/add-vless",
		renewPath:  "/api/renew-vless",
		payload: func(username, _ string) map[string]interface{} {
			return map[string]interface{}{"user": username, "masaaktif": accountDuration}
		},
	},
	"trojan": {
		createPath: "/api/add-trojan",
		renewPath:  "/api/renew-trojan",
		payload: func(username, _ string) map[string]interface{} {
			return map[string]interface{}{"user": username, "masaaktif": accountDuration}
		},
	},
	"ss": {
		createPath: "/api/add-ss",
		renewPath:  "/api/renew-ss",
		payload: func(username, _ string) map[string]interface{} {
			return map[string]interface{}{"user": username, "masaaktif": accountDuration}
		},
	},
	"s5": {
		createPath: "/api/add-s5",
		renewPath:  "/api/renew-s5",
		payload: func(username, password string) map[string]interface{} {
			return map[string]interface{}{"username": username, "password": password, "masaaktif": accountDuration}
		},
	},
}

var vpnClient = &http.Client{Timeout: 60 * time.Second}

// ProvisionResult is what a successful account creation hands back to
// the purchase flow.
type ProvisionResult struct {
	Details  string
	Password string
}

func postProvider(server store.Server, path string, payload map[string]interface{}) (map[string]interface{}, error) {
	body, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPost, server.Domain+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+server.APIToken)

	resp, err := vpnClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var data map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("respons server tidak valid: %w", err)
	}
	return data, nil
}

// providerOK checks the embedded success indicator. Providers answer
// HTTP 200 even on failure, so the body fields are authoritative.
func providerOK(data map[string]interface{}) bool {
	if s, ok := data["status"].(string); ok && s == "true" {
		return true
	}
	if c, ok := data["code"].(float64); ok && int(c) == 200 {
		return true
	}
	return false
}

func providerError(data map[string]interface{}, fallback string) error {
	if msg, ok := data["message"].(string); ok && msg != "" {
		return errors.New(msg)
	}
	return errors.New(fallback)
}

// CreateVPNAccount provisions a new account on the server's management
// API and returns the formatted detail block.
func CreateVPNAccount(server store.Server, protocol, username, password string) (*ProvisionResult, error) {
	spec, ok := protocolTable[protocol]
	if !ok {
		return nil, fmt.Errorf("protokol %q tidak didukung", protocol)
	}
	data, err := postProvider(server, spec.createPath, spec.payload(username, password))
	if err != nil {
		logger.Error("create account request failed", zap.String("server", server.Name), zap.String("protocol", protocol), zap.Error(err))
		return nil, err
	}
	if !providerOK(data) {
		err := providerError(data, "Gagal membuat akun di server.")
		logger.Error("provider rejected create", zap.String("server", server.Name), zap.String("username", username), zap.Error(err))
		return nil, err
	}
	logger.Info("vpn account created", zap.String("server", server.Name), zap.String("protocol", protocol), zap.String("username", username))
	if p, ok := data["password"].(string); ok && p != "" {
		password = p
	}
	return &ProvisionResult{
		Details:  FormatAccountDetails(protocol, data, server.Name),
		Password: password,
	}, nil
}

// RenewVPNAccount extends an existing account by 30 days on the
// provider side.
func RenewVPNAccount(server store.Server, protocol, username string) error {
	spec, ok := protocolTable[protocol]
	if !ok {
		return fmt.Errorf("protokol %q tidak bisa diperpanjang", protocol)
	}
	payload := map[string]interface{}{"username": username, "days": accountDuration}
	data, err := postProvider(server, spec.renewPath, payload)
	if err != nil {
		logger.Error("renew request failed", zap.String("server", server.Name), zap.String("username", username), zap.Error(err))
		return err
	}
	if s, ok := data["status"].(string); ok && s == "false" {
		return providerError(data, "Gagal memperpanjang akun di server.")
	}
	logger.Info("vpn account renewed", zap.String("server", server.Name), zap.String("protocol", protocol), zap.String("username", username))
	return nil
}

func strField(data map[string]interface{}, key string) string {
	switch v := data[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}

// FormatAccountDetails renders whatever the provider returned as an
// HTML block. Fields are optional and rendered only when present.
func FormatAccountDetails(protocol string, data map[string]interface{}, serverName string) string {
	username := strField(data, "user")
	if username == "" {
		username = strField(data, "username")
	}

	var b strings.Builder
	b.WriteString("✅ <b>Akun Berhasil Dibuat</b>\n")
	b.WriteString(format.PrettyLine + "\n")
	fmt.Fprintf(&b, "<b>Server:</b> %s\n", serverName)
	fmt.Fprintf(&b, "<b>Protokol:</b> %s\n", strings.ToUpper(protocol))
	fmt.Fprintf(&b, "<b>Username:</b> <code>%s</code>\n", username)

	if v := strField(data, "password"); v != "" {
		fmt.Fprintf(&b, "<b>Password:</b> <code>%s</code>\n", v)
	}
	if v := strField(data, "domain"); v != "" {
		fmt.Fprintf(&b, "<b>Domain/Host:</b> <code>%s</code>\n", v)
	}
	if v := strField(data, "uuid"); v != "" {
		fmt.Fprintf(&b, "<b>UUID:</b> <code>%s</code>\n", v)
	}
	if v := strField(data, "https"); v != "" {
		fmt.Fprintf(&b, "<b>Port TLS:</b> <code>%s</code>\n", v)
	}
	if v := strField(data, "http"); v != "" {
		fmt.Fprintf(&b, "<b>Port Non-TLS:</b> <code>%s</code>\n", v)
	}
	if v := strField(data, "path"); v != "" {
		fmt.Fprintf(&b, "<b>Path:</b> <code>%s</code>\n", v)
	}
	expiry := strField(data, "expiration_date")
	if expiry == "" {
		expiry = strField(data, "expired_on")
	}
	if expiry != "" {
		fmt.Fprintf(&b, "<b>Masa Aktif Hingga:</b> <code>%s</code>\n", expiry)
	}
	b.WriteString(format.PrettyLine)

	if links, ok := data["links"].(map[string]interface{}); ok && len(links) > 0 {
		b.WriteString("\n\n<b>👇 Klik untuk menyalin konfigurasi 👇</b>\n")
		keys := make([]string, 0, len(links))
		for k := range links {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if v, ok := links[k].(string); ok {
				fmt.Fprintf(&b, "\n<b>%s:</b>\n<code>%s</code>\n", strings.ToUpper(k), v)
			}
		}
	}

	b.WriteString("\nTerima kasih telah membeli!")
	return b.String()
}
