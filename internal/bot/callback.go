package bot

import (
	"strconv"
	"strings"
)

// Action identifies a decoded callback button.
type Action int

const (
	ActionUnknown Action = iota
	ActionBackMenu
	ActionTopupMenu
	ActionMenuVPN
	ActionMenuOther
	ActionVPNBuySelectServer
	ActionVPNSelectProtocol
	ActionVPNEnterUsername
	ActionVPNMyAccounts
	ActionVPNRenewSelect
	ActionVPNConfirmRenew
	ActionAdminPanel
	ActionAdminManageUsers
	ActionAdminAddBalance
	ActionAdminSetRole
	ActionAdminManageServers
	ActionAdminAddServer
	ActionAdminEditServerSelect
	ActionAdminDeleteServerSelect
	ActionAdminEditServerDetails
	ActionAdminEditProp
	ActionAdminDeleteServerConfirm
	ActionAdminBroadcast
	ActionAdminTransactions
	ActionAdminBackup
)

// Callback is the decoded form of a callback data string. Parameters are
// extracted once here so handlers never pick tokens apart themselves.
type Callback struct {
	Action    Action
	ServerID  string
	ProtoID   string
	Property  string
	AccountID uint
	Confirmed bool
}

var exactCallbacks = map[string]Action{
	"back_menu":                  ActionBackMenu,
	"topup_menu":                 ActionTopupMenu,
	"menu_vpn":                   ActionMenuVPN,
	"menu_lain":                  ActionMenuOther,
	"vpn_buy_select_server":      ActionVPNBuySelectServer,
	"vpn_my_accounts":            ActionVPNMyAccounts,
	"vpn_renew_select_account":   ActionVPNRenewSelect,
	"admin_panel_main":           ActionAdminPanel,
	"admin_manage_users":         ActionAdminManageUsers,
	"admin_add_balance_prompt":   ActionAdminAddBalance,
	"admin_set_role_prompt":      ActionAdminSetRole,
	"admin_manage_servers":       ActionAdminManageServers,
	"admin_add_server_prompt":    ActionAdminAddServer,
	"admin_edit_server_select":   ActionAdminEditServerSelect,
	"admin_delete_server_select": ActionAdminDeleteServerSelect,
	"admin_broadcast_prompt":     ActionAdminBroadcast,
	"admin_view_transactions":    ActionAdminTransactions,
	"admin_backup":               ActionAdminBackup,
}

// ParseCallback decodes a raw callback data string into a Callback.
// Unrecognized data yields ActionUnknown.
func ParseCallback(data string) Callback {
	if action, ok := exactCallbacks[data]; ok {
		return Callback{Action: action}
	}
	if rest, ok := strings.CutPrefix(data, "vpn_select_protocol_"); ok {
		return Callback{Action: ActionVPNSelectProtocol, ServerID: rest}
	}
	if rest, ok := strings.CutPrefix(data, "vpn_enter_username_"); ok {
		// Server ids never contain underscores, protocol id comes last.
		if parts := strings.SplitN(rest, "_", 2); len(parts) == 2 {
			return Callback{Action: ActionVPNEnterUsername, ServerID: parts[0], ProtoID: parts[1]}
		}
		return Callback{}
	}
	if rest, ok := strings.CutPrefix(data, "vpn_confirm_renew_"); ok {
		cb := Callback{Action: ActionVPNConfirmRenew}
		if confirmed, ok := strings.CutPrefix(rest, "_dorenew_"); ok {
			cb.Confirmed = true
			rest = confirmed
		}
		id, err := strconv.ParseUint(rest, 10, 32)
		if err != nil {
			return Callback{}
		}
		cb.AccountID = uint(id)
		return cb
	}
	if rest, ok := strings.CutPrefix(data, "admin_edit_server_details_"); ok {
		return Callback{Action: ActionAdminEditServerDetails, ServerID: rest}
	}
	if rest, ok := strings.CutPrefix(data, "admin_edit_prop_"); ok {
		return parseEditProp(rest)
	}
	if rest, ok := strings.CutPrefix(data, "admin_delete_server_confirm_"); ok {
		cb := Callback{Action: ActionAdminDeleteServerConfirm}
		if confirmed, ok := strings.CutPrefix(rest, "_dodelete_"); ok {
			cb.Confirmed = true
			rest = confirmed
		}
		cb.ServerID = rest
		return cb
	}
	return Callback{}
}

func parseEditProp(rest string) Callback {
	// Price edits carry the protocol id between property and server id.
	if priced, ok := strings.CutPrefix(rest, "price_"); ok {
		parts := strings.SplitN(priced, "_", 2)
		if len(parts) != 2 {
			return Callback{}
		}
		return Callback{Action: ActionAdminEditProp, Property: "price", ProtoID: parts[0], ServerID: parts[1]}
	}
	for _, prop := range []string{"name", "domain", "api_token"} {
		if serverID, ok := strings.CutPrefix(rest, prop+"_"); ok {
			return Callback{Action: ActionAdminEditProp, Property: prop, ServerID: serverID}
		}
	}
	return Callback{}
}
