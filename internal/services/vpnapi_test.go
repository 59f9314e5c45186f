package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vpn-store-bot/internal/store"
)

func TestProtocolTableCoversCatalogue(t *testing.T) {
	for _, p := range Protocols {
		if _, ok := protocolTable[p.ID]; !ok {
			t.Errorf("protocol %q has no provider mapping", p.ID)
		}
	}
	if len(protocolTable) != len(Protocols) {
		t.Errorf("provider table has %d rows, catalogue has %d", len(protocolTable), len(Protocols))
	}
}

func TestProtocolName(t *testing.T) {
	if got := ProtocolName("vmess"); got != "VMess" {
		t.Errorf("ProtocolName(vmess) = %q", got)
	}
	if got := ProtocolName("wg"); got != "WG" {
		t.Errorf("unknown protocols fall back to upper case, got %q", got)
	}
}

func TestCreateVPNAccountSSH(t *testing.T) {
	var gotPath string
	var gotPayload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotPayload)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "true",
			"username": "budi123",
			"password": "rahasia",
			"domain":   "sg1.example.com",
		})
	}))
	defer srv.Close()

	server := store.Server{ID: "sg-1", Name: "Singapore 1", Domain: srv.URL, APIToken: "tok"}
	result, err := CreateVPNAccount(server, "ssh", "budi123", "rahasia")
	if err != nil {
		t.Fatalf("CreateVPNAccount: %v", err)
	}
	if gotPath != "/api/addssh" {
		t.Errorf("path = %q, want /api/addssh", gotPath)
	}
	if gotPayload["username"] != "budi123" || gotPayload["password"] != "rahasia" {
		t.Errorf("ssh payload = %v", gotPayload)
	}
	if gotPayload["masa"] != float64(30) {
		t.Errorf("ssh duration field = %v, want masa=30", gotPayload["masa"])
	}
	if !strings.Contains(result.Details, "budi123") || !strings.Contains(result.Details, "Singapore 1") {
		t.Errorf("details missing account info:\n%s", result.Details)
	}
}

func TestCreateVPNAccountVMessPayload(t *testing.T) {
	var gotPath string
	var gotPayload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotPayload)
		json.NewEncoder(w).Encode(map[string]interface{}{"code": 200, "user": "budi123", "uuid": "abc"})
	}))
	defer srv.Close()

	server := store.Server{ID: "sg-1", Name: "Singapore 1", Domain: srv.URL, APIToken: "tok"}
	if _, err := CreateVPNAccount(server, "vmess", "budi123", "unused"); err != nil {
		t.Fatalf("CreateVPNAccount: %v", err)
	}
	if gotPath != "/api/add-vmess" {
		t.Errorf("path = %q, want /api/add-vmess", gotPath)
	}
	if gotPayload["user"] != "budi123" || gotPayload["masaaktif"] != float64(30) {
		t.Errorf("vmess payload = %v", gotPayload)
	}
	if _, ok := gotPayload["password"]; ok {
		t.Error("vmess payload must not carry a password")
	}
}

func TestCreateVPNAccountEmbeddedFailure(t *testing.T) {
	// Providers answer HTTP 200 with a failure body.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "false", "message": "username sudah ada"})
	}))
	defer srv.Close()

	server := store.Server{ID: "sg-1", Name: "Singapore 1", Domain: srv.URL, APIToken: "tok"}
	_, err := CreateVPNAccount(server, "trojan", "budi123", "x")
	if err == nil {
		t.Fatal("embedded failure must surface as an error")
	}
	if err.Error() != "username sudah ada" {
		t.Errorf("provider message lost: %v", err)
	}
}

func TestRenewVPNAccount(t *testing.T) {
	var gotPath string
	var gotPayload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotPayload)
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "true"})
	}))
	defer srv.Close()

	server := store.Server{ID: "sg-1", Name: "Singapore 1", Domain: srv.URL, APIToken: "tok"}
	if err := RenewVPNAccount(server, "vless", "budi123"); err != nil {
		t.Fatalf("RenewVPNAccount: %v", err)
	}
	if gotPath != "/api/renew-vless" {
		t.Errorf("path = %q, want /api/renew-vless", gotPath)
	}
	if gotPayload["username"] != "budi123" || gotPayload["days"] != float64(30) {
		t.Errorf("renew payload = %v", gotPayload)
	}
}

func TestRenewVPNAccountFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "false", "message": "akun tidak ditemukan"})
	}))
	defer srv.Close()

	server := store.Server{ID: "sg-1", Name: "Singapore 1", Domain: srv.URL, APIToken: "tok"}
	if err := RenewVPNAccount(server, "ss", "hilang"); err == nil {
		t.Error("status false must surface as an error")
	}
}

func TestFormatAccountDetailsOptionalFields(t *testing.T) {
	data := map[string]interface{}{
		"user":            "budi123",
		"domain":          "sg1.example.com",
		"uuid":            "abc-def",
		"expiration_date": "2026-09-28",
		"links": map[string]interface{}{
			"ws":  "vmess://aaa",
			"grpc": "vmess://bbb",
		},
	}
	out := FormatAccountDetails("vmess", data, "Singapore 1")
	for _, want := range []string{"budi123", "sg1.example.com", "abc-def", "2026-09-28", "vmess://aaa", "vmess://bbb"} {
		if !strings.Contains(out, want) {
			t.Errorf("details missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Password:") {
		t.Error("absent password must not be rendered")
	}
	// Links render in stable sorted order.
	if strings.Index(out, "GRPC") > strings.Index(out, "WS") {
		t.Error("links must be sorted by name")
	}
}
