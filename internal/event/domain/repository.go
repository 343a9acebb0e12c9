package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type SponsoringFilter struct {
	EventID  *snowflake.ID
	OpenOnly bool
}

type Repository interface {
	InsertEvent(ctx context.Context, db *gorm.DB, event *Event) error
	FindEventByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Event, error)
	ListEvents(ctx context.Context, db *gorm.DB) ([]Event, error)

	InsertSponsorCategory(ctx context.Context, db *gorm.DB, category *SponsorCategory) error
	FindSponsorCategoryByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*SponsorCategory, error)
	FindSponsorCategoryByName(ctx context.Context, db *gorm.DB, eventID snowflake.ID, name string) (*SponsorCategory, error)

	InsertSponsor(ctx context.Context, db *gorm.DB, sponsor *Sponsor) error
	FindSponsorByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Sponsor, error)

	InsertSponsoring(ctx context.Context, db *gorm.DB, sponsoring *Sponsoring) error
	FindSponsoringByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Sponsoring, error)
	FindSponsoring(ctx context.Context, db *gorm.DB, categoryID, sponsorID snowflake.ID) (*Sponsoring, error)
	// ListSponsorings loads each sponsoring with its category, event, sponsor
	// and invoice.
	ListSponsorings(ctx context.Context, db *gorm.DB, filter SponsoringFilter) ([]Sponsoring, error)

	InsertSponsorInvoice(ctx context.Context, db *gorm.DB, invoice *SponsorInvoice) error
	FindSponsorInvoiceByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*SponsorInvoice, error)
	FindSponsorInvoiceBySponsoring(ctx context.Context, db *gorm.DB, sponsoringID snowflake.ID) (*SponsorInvoice, error)
	UpdateSponsorInvoice(ctx context.Context, db *gorm.DB, invoice *SponsorInvoice) error

	InsertExpense(ctx context.Context, db *gorm.DB, expense *Expense) error
	ListExpenses(ctx context.Context, db *gorm.DB, eventID snowflake.ID) ([]Expense, error)
}
