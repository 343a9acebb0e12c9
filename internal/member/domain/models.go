package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pyar/asocmembers/internal/calendar"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindPerson       Kind = "person"
	KindOrganization Kind = "organization"
)

// Platforms a PaymentStrategy can come from.
const (
	PlatformMercadoPago = "mercado pago"
	PlatformTodoPago    = "todo pago"
	PlatformTransfer    = "transfer"
	PlatformCredit      = "credit"
)

type Category struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"not null;uniqueIndex" json:"name"`
	Description string          `gorm:"not null;default:''" json:"description"`
	Fee         decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"fee"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
}

func (Category) TableName() string { return "categories" }

// Patron is the party that pays for one or more members.
type Patron struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Email     string       `gorm:"not null;uniqueIndex" json:"email"`
	Comments  string       `gorm:"not null;default:''" json:"comments"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

func (Patron) TableName() string { return "patrons" }

type Member struct {
	ID                snowflake.ID  `gorm:"primaryKey" json:"id"`
	LegalID           *int          `gorm:"uniqueIndex" json:"legal_id,omitempty"`
	Kind              Kind          `gorm:"not null" json:"kind"`
	Name              string        `gorm:"not null" json:"name"`
	DocumentNumber    string        `gorm:"not null;default:'';index" json:"document_number"`
	Email             string        `gorm:"not null;default:''" json:"email"`
	CategoryID        snowflake.ID  `gorm:"not null;index" json:"category_id"`
	PatronID          *snowflake.ID `gorm:"index" json:"patron_id,omitempty"`
	FirstPaymentYear  *int          `json:"first_payment_year,omitempty"`
	FirstPaymentMonth *int          `json:"first_payment_month,omitempty"`
	RegistrationDate  *time.Time    `json:"registration_date,omitempty"`
	ShutdownDate      *time.Time    `json:"shutdown_date,omitempty"`
	CreatedAt         time.Time     `gorm:"not null" json:"created_at"`

	Category *Category `gorm:"-" json:"category,omitempty"`
}

func (Member) TableName() string { return "members" }

// FirstPayment returns the first paid period, if one was ever recorded.
func (m Member) FirstPayment() (calendar.YearMonth, bool) {
	if m.FirstPaymentYear == nil || m.FirstPaymentMonth == nil {
		return calendar.YearMonth{}, false
	}
	return calendar.New(*m.FirstPaymentYear, *m.FirstPaymentMonth), true
}

// PaymentStrategy links an identity on a payment platform to a patron.
type PaymentStrategy struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	Platform     string        `gorm:"not null;index:ix_payment_strategies_platform_id" json:"platform"`
	IDInPlatform string        `gorm:"not null;default:'';index:ix_payment_strategies_platform_id" json:"id_in_platform"`
	PatronID     *snowflake.ID `gorm:"index" json:"patron_id,omitempty"`
	Comments     string        `gorm:"not null;default:''" json:"comments"`
	CreatedAt    time.Time     `gorm:"not null" json:"created_at"`
}

func (PaymentStrategy) TableName() string { return "payment_strategies" }
