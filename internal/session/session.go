// Package session tracks the one in-progress multi-step conversation a
// user may have with the bot: which flow is active, which step it is
// on, and the partial input collected so far.
package session

import (
	"sync"

	"vpn-store-bot/internal/store"
)

// Kind identifies a multi-step input flow.
type Kind string

const (
	KindTopupAmount Kind = "topup_amount"
	KindVPNUsername Kind = "vpn_username"
	KindAddServer   Kind = "add_server"
	KindEditServer  Kind = "edit_server"
	KindBroadcast   Kind = "broadcast"
	KindAddBalance  Kind = "add_balance"
	KindSetRole     Kind = "set_role"
)

// Steps of the add-server flow. The price step repeats once per
// protocol, tracked by ProtoIndex.
const (
	StepID     = "id"
	StepName   = "name"
	StepDomain = "domain"
	StepToken  = "token"
	StepPrice  = "price"
)

// Steps of the two-step admin flows (add balance, set role).
const (
	StepUserID = "userid"
	StepAmount = "amount"
	StepRole   = "role"
)

// Action is one pending conversation. ChatID/MessageID point at the
// prompt message the flow keeps editing.
type Action struct {
	Kind      Kind
	Step      string
	ChatID    int64
	MessageID int

	// add-server accumulator
	Draft      store.Server
	ProtoIndex int

	// edit-server parameters
	ServerID string
	Property string
	ProtoID  string

	// add-balance / set-role target
	TargetUserID string
}

// Registry maps a user id to its single pending action. All access
// goes through the registry mutex so two rapid messages from the same
// user cannot lose a state transition.
type Registry struct {
	mu      sync.Mutex
	actions map[int64]*Action
}

func NewRegistry() *Registry {
	return &Registry{actions: make(map[int64]*Action)}
}

// Begin registers a pending action, unconditionally replacing any
// prior one for the user.
func (r *Registry) Begin(userID int64, a Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[userID] = &a
}

// Current returns a copy of the user's pending action, if any.
func (r *Registry) Current(userID int64) (Action, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.actions[userID]
	if !ok {
		return Action{}, false
	}
	return *a, true
}

// Advance atomically mutates the stored action. Reports false when the
// flow was completed or cancelled in the meantime.
func (r *Registry) Advance(userID int64, fn func(*Action)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.actions[userID]
	if !ok {
		return false
	}
	fn(a)
	return true
}

// Complete removes the user's pending action.
func (r *Registry) Complete(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.actions, userID)
}

// Cancel is Complete under the name the cancel handlers use.
func (r *Registry) Cancel(userID int64) {
	r.Complete(userID)
}
