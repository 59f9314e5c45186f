package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInvoiceNotesRoundtrip(t *testing.T) {
	notes := InvoiceNotes("123456", "budi")
	got, ok := UserIDFromNotes(notes)
	if !ok {
		t.Fatal("user id should be extractable from freshly built notes")
	}
	if got != "123456" {
		t.Errorf("got %q, want 123456", got)
	}
}

func TestUserIDFromNotesRejectsGarbage(t *testing.T) {
	cases := []string{
		"",
		"Topup Saldo",
		"User ID: abc",
	}
	for _, notes := range cases {
		if _, ok := UserIDFromNotes(notes); ok {
			t.Errorf("notes %q should not yield a user id", notes)
		}
	}
}

func TestCreateInvoice(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/invoices" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotPayload)
		json.NewEncoder(w).Encode(Invoice{ID: "inv-1", Amount: 50000, Status: "PENDING"})
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "toko", "token123")
	inv, err := g.CreateInvoice(50000, "123456", "budi")
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if inv.ID != "inv-1" || inv.Amount != 50000 {
		t.Errorf("unexpected invoice: %+v", inv)
	}
	if gotAuth != "Bearer token123" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotPayload["username"] != "toko" {
		t.Errorf("gateway username = %v", gotPayload["username"])
	}
	notes, _ := gotPayload["notes"].(string)
	if uid, ok := UserIDFromNotes(notes); !ok || uid != "123456" {
		t.Errorf("sent notes %q must carry the user id", notes)
	}
}

func TestCreateInvoiceRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "toko", "token123")
	if _, err := g.CreateInvoice(50000, "123456", "budi"); err == nil {
		t.Error("non-2xx gateway response must fail")
	}
}

func TestInvoiceQR(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/invoices/qris/inv-1" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write(png)
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "toko", "token123")
	got, err := g.InvoiceQR("inv-1")
	if err != nil {
		t.Fatalf("InvoiceQR: %v", err)
	}
	if string(got) != string(png) {
		t.Errorf("QR bytes mismatch: %v", got)
	}
}
