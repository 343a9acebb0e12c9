package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/pyar/asocmembers/internal/event/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, event *domain.Event) error {
	return db.WithContext(ctx).Create(event).Error
}

func (r *repo) FindEventByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Event, error) {
	var event domain.Event
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&event).Error
	if err != nil {
		return nil, err
	}
	if event.ID == 0 {
		return nil, nil
	}
	return &event, nil
}

func (r *repo) ListEvents(ctx context.Context, db *gorm.DB) ([]domain.Event, error) {
	var events []domain.Event
	err := db.WithContext(ctx).
		Order("id asc").
		Find(&events).Error
	return events, err
}

func (r *repo) InsertSponsorCategory(ctx context.Context, db *gorm.DB, category *domain.SponsorCategory) error {
	return db.WithContext(ctx).Omit("Event").Create(category).Error
}

func (r *repo) FindSponsorCategoryByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.SponsorCategory, error) {
	return r.findSponsorCategory(ctx, db, "id = ?", id)
}

func (r *repo) FindSponsorCategoryByName(ctx context.Context, db *gorm.DB, eventID snowflake.ID, name string) (*domain.SponsorCategory, error) {
	return r.findSponsorCategory(ctx, db, "event_id = ? AND name = ?", eventID, name)
}

func (r *repo) findSponsorCategory(ctx context.Context, db *gorm.DB, query string, args ...interface{}) (*domain.SponsorCategory, error) {
	var category domain.SponsorCategory
	err := db.WithContext(ctx).
		Preload("Event").
		Where(query, args...).
		Limit(1).
		Find(&category).Error
	if err != nil {
		return nil, err
	}
	if category.ID == 0 {
		return nil, nil
	}
	return &category, nil
}

func (r *repo) InsertSponsor(ctx context.Context, db *gorm.DB, sponsor *domain.Sponsor) error {
	return db.WithContext(ctx).Create(sponsor).Error
}

func (r *repo) FindSponsorByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Sponsor, error) {
	var sponsor domain.Sponsor
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&sponsor).Error
	if err != nil {
		return nil, err
	}
	if sponsor.ID == 0 {
		return nil, nil
	}
	return &sponsor, nil
}

func (r *repo) InsertSponsoring(ctx context.Context, db *gorm.DB, sponsoring *domain.Sponsoring) error {
	return db.WithContext(ctx).Omit("SponsorCategory", "Sponsor", "Invoice").Create(sponsoring).Error
}

func (r *repo) FindSponsoringByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Sponsoring, error) {
	return r.findSponsoring(ctx, db, "sponsorings.id = ?", id)
}

func (r *repo) FindSponsoring(ctx context.Context, db *gorm.DB, categoryID, sponsorID snowflake.ID) (*domain.Sponsoring, error) {
	return r.findSponsoring(ctx, db, "sponsorings.sponsor_category_id = ? AND sponsorings.sponsor_id = ?", categoryID, sponsorID)
}

func (r *repo) findSponsoring(ctx context.Context, db *gorm.DB, query string, args ...interface{}) (*domain.Sponsoring, error) {
	var sponsoring domain.Sponsoring
	err := withSponsoringAssociations(db.WithContext(ctx)).
		Where(query, args...).
		Limit(1).
		Find(&sponsoring).Error
	if err != nil {
		return nil, err
	}
	if sponsoring.ID == 0 {
		return nil, nil
	}
	return &sponsoring, nil
}

func (r *repo) ListSponsorings(ctx context.Context, db *gorm.DB, filter domain.SponsoringFilter) ([]domain.Sponsoring, error) {
	query := withSponsoringAssociations(db.WithContext(ctx))
	if filter.EventID != nil {
		query = query.
			Joins("JOIN sponsor_categories ON sponsor_categories.id = sponsorings.sponsor_category_id").
			Where("sponsor_categories.event_id = ?", *filter.EventID)
	}
	if filter.OpenOnly {
		query = query.Where("sponsorings.close = ?", false)
	}

	var sponsorings []domain.Sponsoring
	err := query.Order("sponsorings.id asc").Find(&sponsorings).Error
	return sponsorings, err
}

func withSponsoringAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("SponsorCategory.Event").
		Preload("Sponsor").
		Preload("Invoice")
}

func (r *repo) InsertSponsorInvoice(ctx context.Context, db *gorm.DB, invoice *domain.SponsorInvoice) error {
	return db.WithContext(ctx).Create(invoice).Error
}

func (r *repo) FindSponsorInvoiceByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.SponsorInvoice, error) {
	return r.findSponsorInvoice(ctx, db, "id = ?", id)
}

func (r *repo) FindSponsorInvoiceBySponsoring(ctx context.Context, db *gorm.DB, sponsoringID snowflake.ID) (*domain.SponsorInvoice, error) {
	return r.findSponsorInvoice(ctx, db, "sponsoring_id = ?", sponsoringID)
}

func (r *repo) findSponsorInvoice(ctx context.Context, db *gorm.DB, query string, args ...interface{}) (*domain.SponsorInvoice, error) {
	var invoice domain.SponsorInvoice
	err := db.WithContext(ctx).
		Where(query, args...).
		Limit(1).
		Find(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == 0 {
		return nil, nil
	}
	return &invoice, nil
}

func (r *repo) UpdateSponsorInvoice(ctx context.Context, db *gorm.DB, invoice *domain.SponsorInvoice) error {
	return db.WithContext(ctx).
		Model(&domain.SponsorInvoice{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]interface{}{
			"invoice_ok":        invoice.InvoiceOK,
			"partial_payment":   invoice.PartialPayment,
			"complete_payment":  invoice.CompletePayment,
			"real_final_amount": invoice.RealFinalAmount,
		}).Error
}

func (r *repo) InsertExpense(ctx context.Context, db *gorm.DB, expense *domain.Expense) error {
	return db.WithContext(ctx).Create(expense).Error
}

func (r *repo) ListExpenses(ctx context.Context, db *gorm.DB, eventID snowflake.ID) ([]domain.Expense, error) {
	var expenses []domain.Expense
	err := db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("invoice_date asc, id asc").
		Find(&expenses).Error
	return expenses, err
}
