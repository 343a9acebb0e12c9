package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreateEventRequest struct {
	Name       string
	Commission decimal.Decimal
	StartDate  *time.Time
	Place      string
	Category   string
}

type CreateSponsorCategoryRequest struct {
	EventID snowflake.ID
	Name    string
	Amount  decimal.Decimal
}

type CreateSponsorRequest struct {
	OrganizationName string
	DocumentNumber   string
	Enabled          bool
}

type CreateSponsoringRequest struct {
	SponsorCategoryID snowflake.ID
	SponsorID         snowflake.ID
	Comments          string
}

type CreateSponsorInvoiceRequest struct {
	SponsoringID snowflake.ID
	Amount       decimal.Decimal
}

// UpdateSponsorInvoiceRequest changes only the fields that are set.
type UpdateSponsorInvoiceRequest struct {
	InvoiceOK       *bool
	PartialPayment  *bool
	CompletePayment *bool
	RealFinalAmount *decimal.Decimal
}

type CreateExpenseRequest struct {
	EventID     snowflake.ID
	Description string
	InvoiceDate time.Time
	Category    string
	Amount      decimal.Decimal
	InvoiceType string
}

// PendingSponsoring is a checked or partially paid sponsoring still owed.
type PendingSponsoring struct {
	SponsoringID snowflake.ID    `json:"sponsoring_id"`
	Description  string          `json:"description"`
	State        string          `json:"state"`
	Amount       decimal.Decimal `json:"amount"`
}

type Service interface {
	CreateEvent(context.Context, CreateEventRequest) (Event, error)
	CreateSponsorCategory(context.Context, CreateSponsorCategoryRequest) (SponsorCategory, error)
	CreateSponsor(context.Context, CreateSponsorRequest) (Sponsor, error)
	CreateSponsoring(context.Context, CreateSponsoringRequest) (Sponsoring, error)
	CreateSponsorInvoice(context.Context, CreateSponsorInvoiceRequest) (SponsorInvoice, error)
	UpdateSponsorInvoice(ctx context.Context, id snowflake.ID, req UpdateSponsorInvoiceRequest) (SponsorInvoice, error)
	CreateExpense(context.Context, CreateExpenseRequest) (Expense, error)

	GetEvent(ctx context.Context, id snowflake.ID) (Event, error)
	// FindEvent returns the only event whose name contains every part. The
	// error is an *EventLookupError carrying the candidates otherwise.
	FindEvent(ctx context.Context, nameParts []string) (Event, error)

	// PendingSponsorings lists what sponsors still owe, largest first. A nil
	// eventID covers every event.
	PendingSponsorings(ctx context.Context, eventID *snowflake.ID) ([]PendingSponsoring, error)
	MoneyReport(ctx context.Context, eventID snowflake.ID) (MoneyReport, error)
}

var (
	ErrInvalidName              = errors.New("invalid_name")
	ErrInvalidAmount            = errors.New("invalid_amount")
	ErrInvalidCommission        = errors.New("invalid_commission")
	ErrInvalidEventCategory     = errors.New("invalid_event_category")
	ErrInvalidInvoiceType       = errors.New("invalid_invoice_type")
	ErrInvalidInvoiceDate       = errors.New("invalid_invoice_date")
	ErrSponsorNotEnabled        = errors.New("sponsor_not_enabled")
	ErrDuplicateSponsorCategory = errors.New("duplicate_sponsor_category")
	ErrDuplicateSponsoring      = errors.New("duplicate_sponsoring")
	ErrDuplicateInvoice         = errors.New("duplicate_invoice")
	ErrEventClosed              = errors.New("event_closed")
	ErrNotFound                 = errors.New("not_found")
	ErrEventNotFound            = errors.New("event_not_found")
	ErrAmbiguousEvent           = errors.New("ambiguous_event")
)

// EventLookupError lists the events a name search could have meant: every
// event when nothing matched, the matches when more than one did.
type EventLookupError struct {
	Err        error
	Candidates []Event
}

func (e *EventLookupError) Error() string {
	names := make([]string, 0, len(e.Candidates))
	for _, ev := range e.Candidates {
		names = append(names, ev.Name)
	}
	return e.Err.Error() + ": " + strings.Join(names, ", ")
}

func (e *EventLookupError) Unwrap() error { return e.Err }
