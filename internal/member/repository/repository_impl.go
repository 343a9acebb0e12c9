package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/pyar/asocmembers/internal/calendar"
	"github.com/pyar/asocmembers/internal/member/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertCategory(ctx context.Context, db *gorm.DB, category *domain.Category) error {
	return db.WithContext(ctx).Create(category).Error
}

func (r *repo) FindCategoryByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Category, error) {
	var category domain.Category
	err := db.WithContext(ctx).
		Where("id = ?", id).
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

func (r *repo) InsertPatron(ctx context.Context, db *gorm.DB, patron *domain.Patron) error {
	return db.WithContext(ctx).Create(patron).Error
}

func (r *repo) FindPatronByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Patron, error) {
	var patron domain.Patron
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&patron).Error
	if err != nil {
		return nil, err
	}
	if patron.ID == 0 {
		return nil, nil
	}
	return &patron, nil
}

func (r *repo) InsertMember(ctx context.Context, db *gorm.DB, member *domain.Member) error {
	return db.WithContext(ctx).Create(member).Error
}

func (r *repo) FindMemberByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Member, error) {
	return r.findMember(ctx, db, "id = ?", id)
}

func (r *repo) FindMemberByDocument(ctx context.Context, db *gorm.DB, documentNumber string) (*domain.Member, error) {
	return r.findMember(ctx, db, "document_number = ?", documentNumber)
}

func (r *repo) findMember(ctx context.Context, db *gorm.DB, query string, args ...interface{}) (*domain.Member, error) {
	var member domain.Member
	err := db.WithContext(ctx).
		Where(query, args...).
		Order("id asc").
		Limit(1).
		Find(&member).Error
	if err != nil {
		return nil, err
	}
	if member.ID == 0 {
		return nil, nil
	}
	return &member, nil
}

func (r *repo) ListMembersByPatron(ctx context.Context, db *gorm.DB, patronID snowflake.ID) ([]domain.Member, error) {
	var members []domain.Member
	err := db.WithContext(ctx).
		Where("patron_id = ?", patronID).
		Order("id asc").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// ListBillableMembers returns members with a legal id, a paid category and
// no shutdown date, ordered by legal id.
func (r *repo) ListBillableMembers(ctx context.Context, db *gorm.DB) ([]domain.Member, error) {
	var members []domain.Member
	err := db.WithContext(ctx).
		Table("members").
		Select("members.*").
		Joins("JOIN categories ON categories.id = members.category_id").
		Where("members.legal_id IS NOT NULL").
		Where("members.shutdown_date IS NULL").
		Where("categories.fee > 0").
		Order("members.legal_id asc").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// SetFirstPayment records the first paid period unless one is already set.
func (r *repo) SetFirstPayment(ctx context.Context, db *gorm.DB, memberID snowflake.ID, period calendar.YearMonth) error {
	return db.WithContext(ctx).
		Model(&domain.Member{}).
		Where("id = ? AND first_payment_year IS NULL", memberID).
		Updates(map[string]interface{}{
			"first_payment_year":  period.Year,
			"first_payment_month": period.Month,
		}).Error
}

func (r *repo) InsertStrategy(ctx context.Context, db *gorm.DB, strategy *domain.PaymentStrategy) error {
	return db.WithContext(ctx).Create(strategy).Error
}

// FindStrategy matches on platform and id. A nil patronID matches any patron.
func (r *repo) FindStrategy(ctx context.Context, db *gorm.DB, platform, idInPlatform string, patronID *snowflake.ID) (*domain.PaymentStrategy, error) {
	var strategy domain.PaymentStrategy
	stmt := db.WithContext(ctx).
		Where("platform = ? AND id_in_platform = ?", platform, idInPlatform)
	if patronID != nil {
		stmt = stmt.Where("patron_id = ?", *patronID)
	}
	err := stmt.
		Order("id asc").
		Limit(1).
		Find(&strategy).Error
	if err != nil {
		return nil, err
	}
	if strategy.ID == 0 {
		return nil, nil
	}
	return &strategy, nil
}

func (r *repo) FindStrategyByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PaymentStrategy, error) {
	var strategy domain.PaymentStrategy
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&strategy).Error
	if err != nil {
		return nil, err
	}
	if strategy.ID == 0 {
		return nil, nil
	}
	return &strategy, nil
}
