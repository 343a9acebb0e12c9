package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/pyar/asocmembers/internal/calendar"
	"gorm.io/gorm"
)

type Repository interface {
	InsertCategory(ctx context.Context, db *gorm.DB, category *Category) error
	FindCategoryByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Category, error)

	InsertPatron(ctx context.Context, db *gorm.DB, patron *Patron) error
	FindPatronByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Patron, error)

	InsertMember(ctx context.Context, db *gorm.DB, member *Member) error
	FindMemberByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Member, error)
	FindMemberByDocument(ctx context.Context, db *gorm.DB, documentNumber string) (*Member, error)
	ListMembersByPatron(ctx context.Context, db *gorm.DB, patronID snowflake.ID) ([]Member, error)
	ListBillableMembers(ctx context.Context, db *gorm.DB) ([]Member, error)
	SetFirstPayment(ctx context.Context, db *gorm.DB, memberID snowflake.ID, period calendar.YearMonth) error

	InsertStrategy(ctx context.Context, db *gorm.DB, strategy *PaymentStrategy) error
	FindStrategy(ctx context.Context, db *gorm.DB, platform, idInPlatform string, patronID *snowflake.ID) (*PaymentStrategy, error)
	FindStrategyByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PaymentStrategy, error)
}
