package store

import (
	"path/filepath"
	"sync"
	"testing"
)

func newTestUserStore(t *testing.T) *UserStore {
	t.Helper()
	return NewUserStore(filepath.Join(t.TempDir(), "database.json"))
}

func TestEnsureUserCreatesOnce(t *testing.T) {
	s := newTestUserStore(t)

	created, err := s.EnsureUser("100", "budi")
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	if !created {
		t.Error("first EnsureUser should report created")
	}

	created, err = s.EnsureUser("100", "budi")
	if err != nil {
		t.Fatalf("EnsureUser second call: %v", err)
	}
	if created {
		t.Error("second EnsureUser must not recreate the user")
	}

	u, err := s.GetUser("100")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.Username != "budi" || u.Balance != 0 || u.Role != "user" {
		t.Errorf("unexpected new user: %+v", u)
	}
}

func TestEnsureUserDefaultUsername(t *testing.T) {
	s := newTestUserStore(t)
	if _, err := s.EnsureUser("200", ""); err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	u, _ := s.GetUser("200")
	if u.Username != "user200" {
		t.Errorf("username = %q, want user200", u.Username)
	}
}

func TestUpdateBalanceTopupWritesLedger(t *testing.T) {
	s := newTestUserStore(t)
	s.EnsureUser("100", "budi")

	u, old, err := s.UpdateBalance("100", 50000, "topup_gateway", map[string]string{"invoice": "inv-1"})
	if err != nil {
		t.Fatalf("UpdateBalance: %v", err)
	}
	if old != 0 || u.Balance != 50000 {
		t.Errorf("balance old=%d new=%d, want 0 and 50000", old, u.Balance)
	}
	if len(u.TopupHistory) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(u.TopupHistory))
	}
	e := u.TopupHistory[0]
	if e.Amount != 50000 || e.Type != "topup_gateway" || e.NewBalance != 50000 {
		t.Errorf("unexpected ledger entry: %+v", e)
	}
	if e.Metadata["invoice"] != "inv-1" {
		t.Errorf("metadata lost: %+v", e.Metadata)
	}
}

func TestUpdateBalancePurchaseSkipsLedger(t *testing.T) {
	s := newTestUserStore(t)
	s.EnsureUser("100", "budi")
	s.UpdateBalance("100", 50000, "topup_gateway", nil)

	u, old, err := s.UpdateBalance("100", -20000, "pembelian_vpn", map[string]string{"server": "sg-1"})
	if err != nil {
		t.Fatalf("UpdateBalance: %v", err)
	}
	if old != 50000 || u.Balance != 30000 {
		t.Errorf("balance old=%d new=%d, want 50000 and 30000", old, u.Balance)
	}
	// Only topup-category types land in the ledger.
	if len(u.TopupHistory) != 1 {
		t.Errorf("ledger entries = %d, want 1", len(u.TopupHistory))
	}
}

func TestUpdateBalanceUnknownUser(t *testing.T) {
	s := newTestUserStore(t)
	if _, _, err := s.UpdateBalance("404", 1000, "topup_gateway", nil); err != ErrUserNotFound {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestSetRoleAndIsAdmin(t *testing.T) {
	s := newTestUserStore(t)
	s.EnsureUser("100", "budi")

	if s.IsAdmin("100") {
		t.Error("fresh user must not be admin")
	}
	if err := s.SetRole("100", "admin"); err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	if !s.IsAdmin("100") {
		t.Error("IsAdmin should see the stored role")
	}
}

func TestConcurrentBalanceUpdates(t *testing.T) {
	s := newTestUserStore(t)
	s.EnsureUser("1", "a")
	s.EnsureUser("2", "b")

	const n = 20
	var wg sync.WaitGroup
	wg.Add(2 * n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			s.UpdateBalance("1", 1000, "topup_gateway", nil)
		}()
		go func() {
			defer wg.Done()
			s.UpdateBalance("2", 500, "topup_gateway", nil)
		}()
	}
	wg.Wait()

	u1, _ := s.GetUser("1")
	u2, _ := s.GetUser("2")
	if u1.Balance != n*1000 {
		t.Errorf("user 1 balance = %d, want %d", u1.Balance, n*1000)
	}
	if u2.Balance != n*500 {
		t.Errorf("user 2 balance = %d, want %d", u2.Balance, n*500)
	}
	if len(u1.TopupHistory) != n || len(u2.TopupHistory) != n {
		t.Errorf("ledger sizes = %d/%d, want %d each", len(u1.TopupHistory), len(u2.TopupHistory), n)
	}
}

func TestTopupSettingsDefaults(t *testing.T) {
	s := newTestUserStore(t)
	got := s.TopupSettings()
	if got.MinAmount != 10000 || got.MaxAmount != 1000000 {
		t.Errorf("defaults = %+v, want 10000/1000000", got)
	}
}

func TestAllUserIDsSorted(t *testing.T) {
	s := newTestUserStore(t)
	for _, id := range []string{"30", "10", "20"} {
		s.EnsureUser(id, "")
	}
	ids, err := s.AllUserIDs()
	if err != nil {
		t.Fatalf("AllUserIDs: %v", err)
	}
	want := []string{"10", "20", "30"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}
