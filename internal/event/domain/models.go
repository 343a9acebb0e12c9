package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Event categories.
const (
	CategoryPyDay      = "PD"
	CategoryPyCon      = "PCo"
	CategoryPyCamp     = "PCa"
	CategoryConference = "Con"
)

// Sponsoring states, in lifecycle order.
const (
	StateNotInvoiced    = "not_invoiced"
	StateInvoiced       = "invoiced"
	StateChecked        = "pending_payment"
	StatePartiallyPaid  = "partially_paid"
	StateCompletelyPaid = "completely_paid"
	StateClosed         = "closed"
)

// Expense invoice types. Only type A discriminates VAT.
const (
	InvoiceTypeA      = "A"
	InvoiceTypeB      = "B"
	InvoiceTypeC      = "C"
	InvoiceTypeTicket = "Ticket"
	InvoiceTypeOther  = "Other"
)

type Event struct {
	ID         snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name       string          `gorm:"not null" json:"name"`
	Commission decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"commission"`
	StartDate  *time.Time      `json:"start_date,omitempty"`
	Place      string          `gorm:"not null;default:''" json:"place"`
	Category   string          `gorm:"not null" json:"category"`
	Close      bool            `gorm:"not null;default:false" json:"close"`
	CreatedAt  time.Time       `gorm:"not null" json:"created_at"`
}

func (Event) TableName() string { return "events" }

type SponsorCategory struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	EventID   snowflake.ID    `gorm:"not null;uniqueIndex:ux_sponsor_categories_event_name" json:"event_id"`
	Name      string          `gorm:"not null;uniqueIndex:ux_sponsor_categories_event_name" json:"name"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`

	Event *Event `gorm:"foreignKey:EventID" json:"event,omitempty"`
}

func (SponsorCategory) TableName() string { return "sponsor_categories" }

type Sponsor struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	OrganizationName string       `gorm:"not null" json:"organization_name"`
	DocumentNumber   string       `gorm:"not null;uniqueIndex" json:"document_number"`
	Enabled          bool         `gorm:"not null;default:false" json:"enabled"`
	Active           bool         `gorm:"not null" json:"active"`
	CreatedAt        time.Time    `gorm:"not null" json:"created_at"`
}

func (Sponsor) TableName() string { return "sponsors" }

// Sponsoring is a sponsor committed to one category of an event.
type Sponsoring struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	SponsorCategoryID snowflake.ID `gorm:"not null;uniqueIndex:ux_sponsorings_category_sponsor" json:"sponsor_category_id"`
	SponsorID         snowflake.ID `gorm:"not null;uniqueIndex:ux_sponsorings_category_sponsor" json:"sponsor_id"`
	Comments          string       `gorm:"not null;default:''" json:"comments"`
	Close             bool         `gorm:"not null;default:false" json:"close"`
	CreatedAt         time.Time    `gorm:"not null" json:"created_at"`

	SponsorCategory *SponsorCategory `gorm:"foreignKey:SponsorCategoryID" json:"sponsor_category,omitempty"`
	Sponsor         *Sponsor         `gorm:"foreignKey:SponsorID" json:"sponsor,omitempty"`
	Invoice         *SponsorInvoice  `gorm:"foreignKey:SponsoringID" json:"invoice,omitempty"`
}

func (Sponsoring) TableName() string { return "sponsorings" }

// State reports where the sponsoring is in its billing lifecycle. Payment
// flags only count once the invoice has been checked.
func (s Sponsoring) State() string {
	if s.Close {
		return StateClosed
	}
	if s.Invoice == nil {
		return StateNotInvoiced
	}
	if !s.Invoice.InvoiceOK {
		return StateInvoiced
	}
	switch {
	case s.Invoice.CompletePayment:
		return StateCompletelyPaid
	case s.Invoice.PartialPayment:
		return StatePartiallyPaid
	default:
		return StateChecked
	}
}

// String renders "sponsor - event (category)"; associations must be loaded.
func (s Sponsoring) String() string {
	var sponsor, event, category string
	if s.Sponsor != nil {
		sponsor = s.Sponsor.OrganizationName
	}
	if s.SponsorCategory != nil {
		category = s.SponsorCategory.Name
		if s.SponsorCategory.Event != nil {
			event = s.SponsorCategory.Event.Name
		}
	}
	return fmt.Sprintf("%s - %s (%s)", sponsor, event, category)
}

// SponsorInvoice is the invoice issued to a sponsor for one sponsoring.
type SponsorInvoice struct {
	ID              snowflake.ID     `gorm:"primaryKey" json:"id"`
	SponsoringID    snowflake.ID     `gorm:"not null;uniqueIndex" json:"sponsoring_id"`
	Amount          decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"amount"`
	RealFinalAmount *decimal.Decimal `gorm:"type:decimal(18,2)" json:"real_final_amount,omitempty"`
	PartialPayment  bool             `gorm:"not null;default:false" json:"partial_payment"`
	CompletePayment bool             `gorm:"not null;default:false" json:"complete_payment"`
	InvoiceOK       bool             `gorm:"not null;default:false" json:"invoice_ok"`
	CreatedAt       time.Time        `gorm:"not null" json:"created_at"`
}

func (SponsorInvoice) TableName() string { return "sponsor_invoices" }

// Collected is what actually reached the account: the real final amount
// when one was recorded, the invoiced amount otherwise.
func (i SponsorInvoice) Collected() decimal.Decimal {
	if i.RealFinalAmount != nil {
		return *i.RealFinalAmount
	}
	return i.Amount
}

type Expense struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	EventID     snowflake.ID    `gorm:"not null;index" json:"event_id"`
	Description string          `gorm:"not null;default:''" json:"description"`
	InvoiceDate time.Time       `gorm:"not null" json:"invoice_date"`
	Category    string          `gorm:"not null;default:''" json:"category"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	InvoiceType string          `gorm:"not null" json:"invoice_type"`
	Cancelled   bool            `gorm:"not null;default:false" json:"cancelled"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
}

func (Expense) TableName() string { return "expenses" }

// ParseInvoiceType accepts the invoice type in any case.
func ParseInvoiceType(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range []string{InvoiceTypeA, InvoiceTypeB, InvoiceTypeC, InvoiceTypeTicket, InvoiceTypeOther} {
		if strings.EqualFold(trimmed, candidate) {
			return candidate, nil
		}
	}
	return "", ErrInvalidInvoiceType
}

// ValidEventCategory reports whether value is one of the event categories.
func ValidEventCategory(value string) bool {
	switch value {
	case CategoryPyDay, CategoryPyCon, CategoryPyCamp, CategoryConference:
		return true
	default:
		return false
	}
}
