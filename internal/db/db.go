package db

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB opens (or creates) the transaction log database file.
func InitDB(path string) error {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}
	DB = db
	return db.AutoMigrate(&VPNTransaction{}, &TopupLog{})
}

// NewTrxID builds a purchase transaction id like "vmess-9f2c1a...".
func NewTrxID(protocol string) string {
	return protocol + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

func CreateVPNTransaction(t *VPNTransaction) error {
	return DB.Create(t).Error
}

// AccountsByTelegramID lists a user's accounts, soonest expiry first.
func AccountsByTelegramID(telegramID string) ([]VPNTransaction, error) {
	var accounts []VPNTransaction
	err := DB.Where("telegram_id = ?", telegramID).Order("expiry_date asc").Find(&accounts).Error
	return accounts, err
}

// GetAccount fetches one account, scoped to its owner.
func GetAccount(id uint, telegramID string) (VPNTransaction, error) {
	var acc VPNTransaction
	err := DB.Where("id = ? AND telegram_id = ?", id, telegramID).First(&acc).Error
	return acc, err
}

// ExtendExpiry pushes the account's expiry date forward by days.
func ExtendExpiry(id uint, days int) error {
	var acc VPNTransaction
	if err := DB.First(&acc, id).Error; err != nil {
		return err
	}
	newExpiry := acc.ExpiryDate.AddDate(0, 0, days)
	return DB.Model(&VPNTransaction{}).Where("id = ?", id).
		Updates(map[string]interface{}{"expiry_date": newExpiry, "notified_expiring": false}).Error
}

// LogInvoicePending records a freshly created gateway invoice.
func LogInvoicePending(invoiceID, telegramID string, amount int, method string) error {
	return DB.Create(&TopupLog{
		InvoiceID:     invoiceID,
		TelegramID:    telegramID,
		Amount:        amount,
		Status:        InvoicePending,
		PaymentMethod: method,
		CreatedAt:     time.Now(),
	}).Error
}

// MarkInvoicePaid flips an invoice to paid and reports whether it had
// already been paid. Callers credit the balance only on the first
// transition, which makes redelivered gateway callbacks harmless. An
// invoice the bot never logged is inserted directly as paid.
func MarkInvoicePaid(invoiceID, telegramID string, amount int) (alreadyPaid bool, err error) {
	err = DB.Transaction(func(tx *gorm.DB) error {
		var entry TopupLog
		findErr := tx.Where("invoice_id = ?", invoiceID).First(&entry).Error
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return tx.Create(&TopupLog{
				InvoiceID:  invoiceID,
				TelegramID: telegramID,
				Amount:     amount,
				Status:     InvoicePaid,
				CreatedAt:  time.Now(),
			}).Error
		}
		if findErr != nil {
			return findErr
		}
		if entry.Status == InvoicePaid {
			alreadyPaid = true
			return nil
		}
		return tx.Model(&entry).Update("status", InvoicePaid).Error
	})
	return alreadyPaid, err
}

// ReopenInvoice rolls a paid invoice back to pending. Used when the
// balance credit fails after the paid transition, so a redelivered
// callback gets another chance to credit.
func ReopenInvoice(invoiceID string) error {
	return DB.Model(&TopupLog{}).Where("invoice_id = ?", invoiceID).
		Update("status", InvoicePending).Error
}

// RecentTopups returns the latest topup log rows for the admin view.
func RecentTopups(limit int) ([]TopupLog, error) {
	var rows []TopupLog
	err := DB.Order("created_at desc").Limit(limit).Find(&rows).Error
	return rows, err
}

// AccountsExpiringWithin lists active accounts whose expiry falls
// inside the window and that have not been warned yet.
func AccountsExpiringWithin(days int) ([]VPNTransaction, error) {
	now := time.Now()
	soon := now.AddDate(0, 0, days)
	var accounts []VPNTransaction
	err := DB.Where("expiry_date > ? AND expiry_date <= ? AND notified_expiring = ?", now, soon, false).
		Find(&accounts).Error
	return accounts, err
}

func MarkNotifiedExpiring(id uint) error {
	return DB.Model(&VPNTransaction{}).Where("id = ?", id).Update("notified_expiring", true).Error
}
