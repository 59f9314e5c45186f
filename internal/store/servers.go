package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
)

var ErrServerNotFound = errors.New("server tidak ditemukan")

// serverIDPattern limits ids to filesystem-safe slugs: the id doubles
// as the config file name.
var serverIDPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

func ValidServerID(id string) bool {
	return serverIDPattern.MatchString(id)
}

// Protocol is one offered tunneling method on a server.
type Protocol struct {
	PricePer30Days int `json:"price_per_30_days"`
}

// Server is one VPN server/gateway config, stored as <id>.json.
type Server struct {
	ID        string              `json:"-"`
	Name      string              `json:"name"`
	Domain    string              `json:"domain"`
	APIToken  string              `json:"api_token"`
	Protocols map[string]Protocol `json:"protocols"`
}

// ServerStore keeps one JSON file per server under dir.
type ServerStore struct {
	dir string
	mu  sync.Mutex
}

func NewServerStore(dir string) (*ServerStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ServerStore{dir: dir}, nil
}

func (s *ServerStore) file(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// All lists every configured server, sorted by id.
func (s *ServerStore) All() ([]Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var servers []Server
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		srv, err := s.read(id)
		if err != nil {
			continue
		}
		servers = append(servers, srv)
	}
	sort.Slice(servers, func(i, j int) bool { return servers[i].ID < servers[j].ID })
	return servers, nil
}

func (s *ServerStore) read(id string) (Server, error) {
	data, err := os.ReadFile(s.file(id))
	if err != nil {
		if os.IsNotExist(err) {
			return Server{}, ErrServerNotFound
		}
		return Server{}, err
	}
	var srv Server
	if err := json.Unmarshal(data, &srv); err != nil {
		return Server{}, err
	}
	srv.ID = id
	if srv.Protocols == nil {
		srv.Protocols = make(map[string]Protocol)
	}
	return srv, nil
}

func (s *ServerStore) Get(id string) (Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(id)
}

func (s *ServerStore) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := os.Stat(s.file(id))
	return err == nil
}

func (s *ServerStore) Save(srv Server) error {
	if !ValidServerID(srv.ID) {
		return errors.New("id server tidak valid")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.MarshalIndent(srv, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.file(srv.ID), data, 0o644)
}

func (s *ServerStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.file(id)); err != nil {
		return ErrServerNotFound
	}
	return os.Remove(s.file(id))
}

// FindByName resolves a server by display name. Renewal records store
// the server name, not the id.
func (s *ServerStore) FindByName(name string) (Server, error) {
	servers, err := s.All()
	if err != nil {
		return Server{}, err
	}
	for _, srv := range servers {
		if srv.Name == name {
			return srv, nil
		}
	}
	return Server{}, ErrServerNotFound
}
