package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"vpn-store-bot/internal/db"
	"vpn-store-bot/internal/logger"
	"vpn-store-bot/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInsufficientBalance = errors.New("saldo tidak mencukupi")
	ErrProtocolNotOffered  = errors.New("protokol tidak tersedia di server ini")
)

func randomPassword() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// PurchaseAccount runs the full buy flow for one account: funds check,
// provisioning, balance debit, transaction record. The debit happens
// only after the provider confirms, so a failed provisioning call
// leaves the balance and the log untouched.
func PurchaseAccount(users *store.UserStore, server store.Server, protoID, userID, buyerUsername, vpnUsername string) (*ProvisionResult, int, error) {
	proto, ok := server.Protocols[protoID]
	if !ok {
		return nil, 0, ErrProtocolNotOffered
	}
	price := proto.PricePer30Days

	user, err := users.GetUser(userID)
	if err != nil {
		return nil, 0, err
	}
	if user.Balance < price {
		return nil, price, ErrInsufficientBalance
	}

	result, err := CreateVPNAccount(server, protoID, vpnUsername, randomPassword())
	if err != nil {
		return nil, price, err
	}

	if _, _, err := users.UpdateBalance(userID, -price, "pembelian_vpn", map[string]string{
		"server":   server.Name,
		"username": vpnUsername,
	}); err != nil {
		// The account exists on the provider but the debit failed;
		// surface loudly so the admin can reconcile.
		logger.Error("debit after provisioning failed", zap.String("user_id", userID), zap.Error(err))
		logger.NotifyAdmin(fmt.Sprintf("Debit gagal setelah provisioning: user %s, akun %s@%s", userID, vpnUsername, server.Name))
		return nil, price, err
	}

	now := time.Now()
	trx := &db.VPNTransaction{
		IDTrx:         db.NewTrxID(protoID),
		TelegramID:    userID,
		BuyerUsername: buyerUsername,
		ServerName:    server.Name,
		Protocol:      protoID,
		Username:      vpnUsername,
		Password:      result.Password,
		Price:         price,
		DurationDays:  accountDuration,
		PurchaseDate:  now,
		ExpiryDate:    now.AddDate(0, 0, accountDuration),
	}
	if err := db.CreateVPNTransaction(trx); err != nil {
		logger.Error("vpn transaction insert failed", zap.String("idtrx", trx.IDTrx), zap.Error(err))
	}
	return result, price, nil
}

// RenewPurchasedAccount extends an owned account for another 30 days:
// funds check, provider renewal, debit, expiry update.
func RenewPurchasedAccount(users *store.UserStore, servers *store.ServerStore, userID string, account db.VPNTransaction) (int, error) {
	server, err := servers.FindByName(account.ServerName)
	if err != nil {
		return 0, err
	}
	proto, ok := server.Protocols[account.Protocol]
	if !ok {
		return 0, ErrProtocolNotOffered
	}
	price := proto.PricePer30Days

	user, err := users.GetUser(userID)
	if err != nil {
		return 0, err
	}
	if user.Balance < price {
		return price, ErrInsufficientBalance
	}

	if err := RenewVPNAccount(server, account.Protocol, account.Username); err != nil {
		return price, err
	}
	if _, _, err := users.UpdateBalance(userID, -price, "perpanjang_vpn", map[string]string{
		"username": account.Username,
	}); err != nil {
		logger.Error("debit after renewal failed", zap.String("user_id", userID), zap.Error(err))
		return price, err
	}
	if err := db.ExtendExpiry(account.ID, accountDuration); err != nil {
		logger.Error("expiry extend failed", zap.Uint("account_id", account.ID), zap.Error(err))
	}
	return price, nil
}

// CreditTopup credits a confirmed gateway payment exactly once.
// Reports whether this call performed the credit; a duplicate delivery
// of the same invoice returns credited=false with no balance change.
func CreditTopup(users *store.UserStore, invoiceID, userID string, amount int) (store.User, bool, error) {
	// The paid transition is the exactly-once gate, so the user must
	// exist before the invoice flips: a failure after the flip would
	// make every redelivery a no-op and swallow the payment.
	if _, err := users.GetUser(userID); err != nil {
		return store.User{}, false, err
	}
	alreadyPaid, err := db.MarkInvoicePaid(invoiceID, userID, amount)
	if err != nil {
		return store.User{}, false, err
	}
	if alreadyPaid {
		logger.Warn("duplicate gateway callback ignored", zap.String("invoice_id", invoiceID))
		user, err := users.GetUser(userID)
		return user, false, err
	}
	user, oldBalance, err := users.UpdateBalance(userID, amount, "topup_gateway", map[string]string{
		"invoiceId": invoiceID,
	})
	if err != nil {
		// Reopen the invoice so the gateway's retry can still credit.
		if revErr := db.ReopenInvoice(invoiceID); revErr != nil {
			logger.Error("invoice reopen failed, manual credit needed",
				zap.String("invoice_id", invoiceID), zap.String("user_id", userID), zap.Error(revErr))
			logger.NotifyAdmin(fmt.Sprintf("Topup %s untuk user %s gagal dikredit dan invoice tidak bisa dibuka ulang.", invoiceID, userID))
		}
		return store.User{}, false, err
	}
	logger.Info("topup credited",
		zap.String("user_id", userID), zap.String("invoice_id", invoiceID),
		zap.Int("amount", amount), zap.Int("old_balance", oldBalance), zap.Int("new_balance", user.Balance))
	return user, true, nil
}
