package store

import (
	"testing"
)

func newTestServerStore(t *testing.T) *ServerStore {
	t.Helper()
	s, err := NewServerStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewServerStore: %v", err)
	}
	return s
}

func TestValidServerID(t *testing.T) {
	cases := []struct {
		id   string
		want bool
	}{
		{"sg-1", true},
		{"id2", true},
		{"SG-1", false},
		{"sg 1", false},
		{"sg_1", false},
		{"", false},
	}
	for _, c := range cases {
		if got := ValidServerID(c.id); got != c.want {
			t.Errorf("ValidServerID(%q) = %v, want %v", c.id, got, c.want)
		}
	}
}

func TestSaveGetDelete(t *testing.T) {
	s := newTestServerStore(t)
	srv := Server{
		ID:       "sg-1",
		Name:     "Singapore 1",
		Domain:   "https://sg1.example.com",
		APIToken: "secret",
		Protocols: map[string]Protocol{
			"vmess": {PricePer30Days: 10000},
		},
	}
	if err := s.Save(srv); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get("sg-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != srv.Name || got.Domain != srv.Domain || got.APIToken != srv.APIToken {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
	if got.Protocols["vmess"].PricePer30Days != 10000 {
		t.Errorf("protocol price lost: %+v", got.Protocols)
	}
	if !s.Exists("sg-1") {
		t.Error("Exists should see the saved server")
	}

	if err := s.Delete("sg-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get("sg-1"); err != ErrServerNotFound {
		t.Errorf("Get after delete = %v, want ErrServerNotFound", err)
	}
}

func TestSaveRejectsInvalidID(t *testing.T) {
	s := newTestServerStore(t)
	if err := s.Save(Server{ID: "../evil"}); err == nil {
		t.Error("Save must reject an invalid server id")
	}
}

func TestAllSortedByID(t *testing.T) {
	s := newTestServerStore(t)
	for _, id := range []string{"c", "a", "b"} {
		if err := s.Save(Server{ID: id, Name: "srv " + id}); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}
	all, err := s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 3 || all[0].ID != "a" || all[1].ID != "b" || all[2].ID != "c" {
		t.Errorf("unexpected order: %+v", all)
	}
}

func TestFindByName(t *testing.T) {
	s := newTestServerStore(t)
	s.Save(Server{ID: "sg-1", Name: "Singapore 1"})

	got, err := s.FindByName("Singapore 1")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if got.ID != "sg-1" {
		t.Errorf("found %q, want sg-1", got.ID)
	}
	if _, err := s.FindByName("Tokyo"); err != ErrServerNotFound {
		t.Errorf("missing name err = %v, want ErrServerNotFound", err)
	}
}
