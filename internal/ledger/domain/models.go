package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pyar/asocmembers/internal/calendar"
	"github.com/shopspring/decimal"
)

// Payment is one external payment event. Only the invoice fields change after creation.
type Payment struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	Timestamp     time.Time       `gorm:"not null;index" json:"timestamp"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	StrategyID    snowflake.ID    `gorm:"not null;index" json:"strategy_id"`
	Comments      string          `gorm:"not null;default:''" json:"comments"`
	InvoiceSpoint *int            `gorm:"uniqueIndex:ux_payments_invoice" json:"invoice_spoint,omitempty"`
	InvoiceNumber *int            `gorm:"uniqueIndex:ux_payments_invoice" json:"invoice_number,omitempty"`
	InvoiceOK     bool            `gorm:"not null;default:false" json:"invoice_ok"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
}

func (Payment) TableName() string { return "payments" }

// Quota is one month of dues covered by a payment.
type Quota struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	PaymentID snowflake.ID    `gorm:"not null;index" json:"payment_id"`
	MemberID  snowflake.ID    `gorm:"not null;index:ix_quotas_member_period" json:"member_id"`
	Year      int             `gorm:"not null;index:ix_quotas_member_period" json:"year"`
	Month     int             `gorm:"not null;index:ix_quotas_member_period" json:"month"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
}

func (Quota) TableName() string { return "quotas" }

func (q Quota) Period() calendar.YearMonth {
	return calendar.New(q.Year, q.Month)
}
