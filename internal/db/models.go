package db

import "time"

// VPNTransaction is one provisioned VPN account. Only ExpiryDate is
// ever mutated, on renewal.
type VPNTransaction struct {
	ID               uint   `gorm:"primaryKey"`
	IDTrx            string `gorm:"uniqueIndex"`
	TelegramID       string `gorm:"index"`
	BuyerUsername    string
	ServerName       string
	Protocol         string
	Username         string
	Password         string
	Price            int
	DurationDays     int
	PurchaseDate     time.Time
	ExpiryDate       time.Time
	NotifiedExpiring bool `gorm:"default:false"`
}

// TopupLog is one gateway invoice. Status moves pending -> paid; the
// transition is the exactly-once gate for crediting.
type TopupLog struct {
	ID            uint   `gorm:"primaryKey"`
	InvoiceID     string `gorm:"uniqueIndex"`
	TelegramID    string
	Amount        int
	Status        string
	PaymentMethod string
	CreatedAt     time.Time
}

const (
	InvoicePending = "pending"
	InvoicePaid    = "paid"
)
