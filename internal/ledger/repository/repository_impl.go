package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pyar/asocmembers/internal/calendar"
	"github.com/pyar/asocmembers/internal/ledger/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repo) InsertQuotas(ctx context.Context, db *gorm.DB, quotas []domain.Quota) error {
	if len(quotas) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&quotas).Error
}

func (r *repo) FindPaymentByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) FindLatestPaymentByStrategy(ctx context.Context, db *gorm.DB, strategyID snowflake.ID) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).
		Where("strategy_id = ?", strategyID).
		Order("timestamp desc, id desc").
		Limit(1).
		Find(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) FindLatestQuota(ctx context.Context, db *gorm.DB, memberID snowflake.ID) (*domain.Quota, error) {
	var quota domain.Quota
	err := db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("year desc, month desc").
		Limit(1).
		Find(&quota).Error
	if err != nil {
		return nil, err
	}
	if quota.ID == 0 {
		return nil, nil
	}
	return &quota, nil
}

func (r *repo) ListQuotaPeriods(ctx context.Context, db *gorm.DB, memberID snowflake.ID) ([]calendar.YearMonth, error) {
	var rows []struct {
		Year  int
		Month int
	}
	err := db.WithContext(ctx).Raw(
		`SELECT year, month FROM quotas WHERE member_id = ? ORDER BY year, month`,
		memberID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	periods := make([]calendar.YearMonth, 0, len(rows))
	for _, row := range rows {
		periods = append(periods, calendar.New(row.Year, row.Month))
	}
	return periods, nil
}

func (r *repo) ListQuotasByPayment(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]domain.Quota, error) {
	var quotas []domain.Quota
	err := db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("year asc, month asc").
		Find(&quotas).Error
	if err != nil {
		return nil, err
	}
	return quotas, nil
}

// ListPaymentsPendingInvoice returns payments from the given instant on that
// still lack a generated invoice, oldest first.
func (r *repo) ListPaymentsPendingInvoice(ctx context.Context, db *gorm.DB, from time.Time, limit int) ([]domain.Payment, error) {
	var payments []domain.Payment
	stmt := db.WithContext(ctx).
		Where("timestamp >= ? AND invoice_ok = ?", from.UTC(), false).
		Order("timestamp asc, id asc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if err := stmt.Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) MaxInvoiceNumber(ctx context.Context, db *gorm.DB, spoint int) (int, error) {
	var max sql.NullInt64
	err := db.WithContext(ctx).Raw(
		`SELECT MAX(invoice_number) FROM payments WHERE invoice_spoint = ?`,
		spoint,
	).Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64), nil
}

func (r *repo) AssignInvoiceNumber(ctx context.Context, db *gorm.DB, paymentID snowflake.ID, spoint, number int) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments SET invoice_spoint = ?, invoice_number = ? WHERE id = ?`,
		spoint,
		number,
		paymentID,
	).Error
}

func (r *repo) MarkInvoiced(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments SET invoice_ok = ? WHERE id = ?`,
		true,
		paymentID,
	).Error
}
