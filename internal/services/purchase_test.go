package services

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"vpn-store-bot/internal/db"
	"vpn-store-bot/internal/store"
)

func setupPurchaseTest(t *testing.T) *store.UserStore {
	t.Helper()
	if err := db.InitDB(filepath.Join(t.TempDir(), "trx.sqlite3")); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	users := store.NewUserStore(filepath.Join(t.TempDir(), "database.json"))
	if _, err := users.EnsureUser("100", "budi"); err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	return users
}

func testServer(url string) store.Server {
	return store.Server{
		ID:       "sg-1",
		Name:     "Singapore 1",
		Domain:   url,
		APIToken: "tok",
		Protocols: map[string]store.Protocol{
			"vmess": {PricePer30Days: 10000},
		},
	}
}

func TestPurchaseInsufficientBalanceSkipsProvider(t *testing.T) {
	users := setupPurchaseTest(t)

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "true"})
	}))
	defer srv.Close()

	_, _, err := PurchaseAccount(users, testServer(srv.URL), "vmess", "100", "budi", "budi123")
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	if calls != 0 {
		t.Errorf("provider called %d times, funds check must come first", calls)
	}

	accounts, _ := db.AccountsByTelegramID("100")
	if len(accounts) != 0 {
		t.Errorf("failed purchase left %d records", len(accounts))
	}
}

func TestPurchaseProviderFailureLeavesBalance(t *testing.T) {
	users := setupPurchaseTest(t)
	users.UpdateBalance("100", 50000, "topup_gateway", nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "false", "message": "server penuh"})
	}))
	defer srv.Close()

	_, _, err := PurchaseAccount(users, testServer(srv.URL), "vmess", "100", "budi", "budi123")
	if err == nil {
		t.Fatal("provider failure must abort the purchase")
	}

	u, _ := users.GetUser("100")
	if u.Balance != 50000 {
		t.Errorf("balance = %d, want untouched 50000", u.Balance)
	}
	accounts, _ := db.AccountsByTelegramID("100")
	if len(accounts) != 0 {
		t.Errorf("failed purchase left %d records", len(accounts))
	}
}

func TestPurchaseSuccess(t *testing.T) {
	users := setupPurchaseTest(t)
	users.UpdateBalance("100", 50000, "topup_gateway", nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "true", "user": "budi123"})
	}))
	defer srv.Close()

	result, price, err := PurchaseAccount(users, testServer(srv.URL), "vmess", "100", "budi", "budi123")
	if err != nil {
		t.Fatalf("PurchaseAccount: %v", err)
	}
	if price != 10000 {
		t.Errorf("price = %d, want 10000", price)
	}
	if result == nil || result.Details == "" {
		t.Fatal("successful purchase must return formatted details")
	}

	u, _ := users.GetUser("100")
	if u.Balance != 40000 {
		t.Errorf("balance = %d, want 40000", u.Balance)
	}

	accounts, err := db.AccountsByTelegramID("100")
	if err != nil {
		t.Fatalf("AccountsByTelegramID: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("got %d transaction records, want 1", len(accounts))
	}
	acc := accounts[0]
	if acc.Protocol != "vmess" || acc.Username != "budi123" || acc.Price != 10000 || acc.DurationDays != 30 {
		t.Errorf("unexpected record: %+v", acc)
	}
}

func TestPurchaseUnknownProtocol(t *testing.T) {
	users := setupPurchaseTest(t)
	users.UpdateBalance("100", 50000, "topup_gateway", nil)

	_, _, err := PurchaseAccount(users, testServer("http://unused"), "ssh", "100", "budi", "budi123")
	if !errors.Is(err, ErrProtocolNotOffered) {
		t.Errorf("err = %v, want ErrProtocolNotOffered", err)
	}
}

func TestRenewPurchasedAccount(t *testing.T) {
	users := setupPurchaseTest(t)
	users.UpdateBalance("100", 50000, "topup_gateway", nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "true", "user": "budi123"})
	}))
	defer srv.Close()

	serverStore, err := store.NewServerStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewServerStore: %v", err)
	}
	if err := serverStore.Save(testServer(srv.URL)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	result, _, err := PurchaseAccount(users, testServer(srv.URL), "vmess", "100", "budi", "budi123")
	if err != nil || result == nil {
		t.Fatalf("seed purchase failed: %v", err)
	}

	accounts, _ := db.AccountsByTelegramID("100")
	if len(accounts) != 1 {
		t.Fatalf("seed purchase records = %d", len(accounts))
	}

	price, err := RenewPurchasedAccount(users, serverStore, "100", accounts[0])
	if err != nil {
		t.Fatalf("RenewPurchasedAccount: %v", err)
	}
	if price != 10000 {
		t.Errorf("price = %d, want 10000", price)
	}

	u, _ := users.GetUser("100")
	if u.Balance != 30000 {
		t.Errorf("balance = %d, want 30000 after purchase plus renewal", u.Balance)
	}

	renewed, _ := db.GetAccount(accounts[0].ID, "100")
	want := accounts[0].ExpiryDate.AddDate(0, 0, 30)
	if !renewed.ExpiryDate.Equal(want) {
		t.Errorf("expiry = %v, want %v", renewed.ExpiryDate, want)
	}
}

func TestCreditTopupRetryAfterUnknownUser(t *testing.T) {
	users := setupPurchaseTest(t)

	// Callback for a user id the store has never seen: the credit
	// fails and the invoice must NOT be consumed.
	_, credited, err := CreditTopup(users, "inv-9", "777", 50000)
	if err == nil {
		t.Fatal("credit for an unknown user must fail")
	}
	if credited {
		t.Fatal("failed credit must not report credited")
	}

	// The user registers, the gateway redelivers. The retry must
	// credit in full.
	if _, err := users.EnsureUser("777", "tamu"); err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	user, credited, err := CreditTopup(users, "inv-9", "777", 50000)
	if err != nil {
		t.Fatalf("CreditTopup retry: %v", err)
	}
	if !credited || user.Balance != 50000 {
		t.Fatalf("retry must credit once: credited=%v balance=%d", credited, user.Balance)
	}

	// And only once.
	_, credited, err = CreditTopup(users, "inv-9", "777", 50000)
	if err != nil {
		t.Fatalf("CreditTopup duplicate: %v", err)
	}
	if credited {
		t.Error("settled invoice must not credit again")
	}
}

func TestCreditTopupExactlyOnce(t *testing.T) {
	users := setupPurchaseTest(t)

	user, credited, err := CreditTopup(users, "inv-1", "100", 50000)
	if err != nil {
		t.Fatalf("CreditTopup: %v", err)
	}
	if !credited || user.Balance != 50000 {
		t.Fatalf("first credit: credited=%v balance=%d", credited, user.Balance)
	}

	// Duplicate webhook delivery must not touch the balance.
	user, credited, err = CreditTopup(users, "inv-1", "100", 50000)
	if err != nil {
		t.Fatalf("CreditTopup duplicate: %v", err)
	}
	if credited {
		t.Error("duplicate delivery must not credit again")
	}

	u, _ := users.GetUser("100")
	if u.Balance != 50000 {
		t.Errorf("balance = %d, want 50000 after duplicate", u.Balance)
	}
	if len(u.TopupHistory) != 1 {
		t.Errorf("ledger entries = %d, want 1", len(u.TopupHistory))
	}
}
