package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pyar/asocmembers/internal/calendar"
	"gorm.io/gorm"
)

type Repository interface {
	InsertPayment(ctx context.Context, db *gorm.DB, payment *Payment) error
	InsertQuotas(ctx context.Context, db *gorm.DB, quotas []Quota) error

	FindPaymentByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	// FindLatestPaymentByStrategy orders by timestamp then id, newest first.
	FindLatestPaymentByStrategy(ctx context.Context, db *gorm.DB, strategyID snowflake.ID) (*Payment, error)
	// FindLatestQuota orders by (year, month), newest first.
	FindLatestQuota(ctx context.Context, db *gorm.DB, memberID snowflake.ID) (*Quota, error)
	ListQuotaPeriods(ctx context.Context, db *gorm.DB, memberID snowflake.ID) ([]calendar.YearMonth, error)
	ListQuotasByPayment(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]Quota, error)

	ListPaymentsPendingInvoice(ctx context.Context, db *gorm.DB, from time.Time, limit int) ([]Payment, error)
	MaxInvoiceNumber(ctx context.Context, db *gorm.DB, spoint int) (int, error)
	AssignInvoiceNumber(ctx context.Context, db *gorm.DB, paymentID snowflake.ID, spoint, number int) error
	MarkInvoiced(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) error
}
