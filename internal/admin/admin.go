// Package admin implements the admin panel: user management, the server
// catalogue CRUD flows, broadcast, transaction history and backups.
package admin

import (
	"vpn-store-bot/internal/session"
	"vpn-store-bot/internal/store"
)

var (
	users   *store.UserStore
	servers *store.ServerStore
	pending *session.Registry
)

// Init wires the shared dependencies. Must run before the first update.
func Init(u *store.UserStore, s *store.ServerStore, reg *session.Registry) {
	users = u
	servers = s
	pending = reg
}
