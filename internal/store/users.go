// Package store persists users, global settings and server configs as
// JSON documents on disk. All mutations run inside a single critical
// section per store so a balance change and its ledger entry are always
// written together.
package store

import (
	"encoding/json"
	"errors"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

var ErrUserNotFound = errors.New("user tidak ditemukan")

// LedgerEntry records one balance-affecting event in a user's history.
type LedgerEntry struct {
	Amount     int               `json:"amount"`
	Type       string            `json:"type"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Date       time.Time         `json:"date"`
	NewBalance int               `json:"new_balance"`
}

type User struct {
	Username     string        `json:"username"`
	Balance      int           `json:"balance"`
	Role         string        `json:"role"`
	RegisteredAt time.Time     `json:"registered_at"`
	TopupHistory []LedgerEntry `json:"topup_history"`
}

type TopupSettings struct {
	MinAmount int `json:"minAmount"`
	MaxAmount int `json:"maxAmount"`
}

type Settings struct {
	Topup TopupSettings `json:"topup"`
}

type database struct {
	Users    map[string]*User `json:"users"`
	Settings Settings         `json:"settings"`
}

// UserStore is the JSON user/settings database. A process-wide mutex
// serializes read-modify-write cycles; a flock guards the file against
// a second process (backup tooling, migrations).
type UserStore struct {
	path string
	mu   sync.Mutex
	fl   *flock.Flock
}

func NewUserStore(path string) *UserStore {
	return &UserStore{path: path, fl: flock.New(path + ".lock")}
}

func defaultDatabase() *database {
	return &database{
		Users: make(map[string]*User),
		Settings: Settings{
			Topup: TopupSettings{MinAmount: 10000, MaxAmount: 1000000},
		},
	}
}

func (s *UserStore) load() (*database, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultDatabase(), nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return defaultDatabase(), nil
	}
	var db database
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, err
	}
	if db.Users == nil {
		db.Users = make(map[string]*User)
	}
	if db.Settings.Topup.MinAmount == 0 && db.Settings.Topup.MaxAmount == 0 {
		db.Settings.Topup = TopupSettings{MinAmount: 10000, MaxAmount: 1000000}
	}
	return &db, nil
}

func (s *UserStore) save(db *database) error {
	data, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// update runs fn over the loaded database and persists the result while
// holding both the process mutex and the file lock.
func (s *UserStore) update(fn func(db *database) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fl.Lock(); err != nil {
		return err
	}
	defer s.fl.Unlock()

	db, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(db); err != nil {
		return err
	}
	return s.save(db)
}

// EnsureUser registers the user if not yet present. Reports whether a
// new record was created.
func (s *UserStore) EnsureUser(userID, username string) (bool, error) {
	created := false
	err := s.update(func(db *database) error {
		if _, ok := db.Users[userID]; ok {
			return nil
		}
		if username == "" {
			username = "user" + userID
		}
		db.Users[userID] = &User{
			Username:     username,
			Balance:      0,
			Role:         "user",
			RegisteredAt: time.Now(),
			TopupHistory: []LedgerEntry{},
		}
		created = true
		return nil
	})
	return created, err
}

func (s *UserStore) GetUser(userID string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.load()
	if err != nil {
		return User{}, err
	}
	u, ok := db.Users[userID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return *u, nil
}

// UpdateBalance applies a signed amount to the user's balance. For
// topup-category types a ledger entry is appended in the same write, so
// either both land on disk or neither does. Returns the updated user
// and the balance before the change.
func (s *UserStore) UpdateBalance(userID string, amount int, trxType string, metadata map[string]string) (User, int, error) {
	var updated User
	var oldBalance int
	err := s.update(func(db *database) error {
		u, ok := db.Users[userID]
		if !ok {
			return ErrUserNotFound
		}
		oldBalance = u.Balance
		u.Balance += amount
		if strings.HasPrefix(trxType, "topup") {
			u.TopupHistory = append(u.TopupHistory, LedgerEntry{
				Amount:     amount,
				Type:       trxType,
				Metadata:   metadata,
				Date:       time.Now(),
				NewBalance: u.Balance,
			})
		}
		updated = *u
		return nil
	})
	return updated, oldBalance, err
}

func (s *UserStore) SetRole(userID, role string) error {
	return s.update(func(db *database) error {
		u, ok := db.Users[userID]
		if !ok {
			return ErrUserNotFound
		}
		u.Role = role
		return nil
	})
}

// IsAdmin reports whether the stored role of userID is admin.
func (s *UserStore) IsAdmin(userID string) bool {
	u, err := s.GetUser(userID)
	return err == nil && u.Role == "admin"
}

// AllUserIDs lists every registered user id, sorted for stable
// broadcast ordering.
func (s *UserStore) AllUserIDs() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.load()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(db.Users))
	for id := range db.Users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *UserStore) CountUsers() int {
	ids, err := s.AllUserIDs()
	if err != nil {
		return 0
	}
	return len(ids)
}

func (s *UserStore) TopupSettings() TopupSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.load()
	if err != nil {
		return TopupSettings{MinAmount: 10000, MaxAmount: 1000000}
	}
	return db.Settings.Topup
}
