package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pyar/asocmembers/internal/calendar"
	"github.com/shopspring/decimal"
)

type CreateCategoryRequest struct {
	Name        string
	Description string
	Fee         decimal.Decimal
}

type CreatePatronRequest struct {
	Name     string
	Email    string
	Comments string
}

type CreateMemberRequest struct {
	LegalID          *int
	Kind             Kind
	Name             string
	DocumentNumber   string
	Email            string
	CategoryID       snowflake.ID
	PatronID         *snowflake.ID
	FirstPayment     *calendar.YearMonth
	RegistrationDate *time.Time
	ShutdownDate     *time.Time
}

type EnsurePaymentStrategyRequest struct {
	Platform     string
	IDInPlatform string
	PatronID     *snowflake.ID
	Comments     string
}

type Service interface {
	CreateCategory(context.Context, CreateCategoryRequest) (Category, error)
	CreatePatron(context.Context, CreatePatronRequest) (Patron, error)
	CreateMember(context.Context, CreateMemberRequest) (Member, error)
	// EnsurePaymentStrategy returns the strategy matching platform, id and
	// patron, creating it when absent.
	EnsurePaymentStrategy(context.Context, EnsurePaymentStrategyRequest) (PaymentStrategy, error)

	GetMember(ctx context.Context, id snowflake.ID) (Member, error)
	GetMemberByDocument(ctx context.Context, documentNumber string) (Member, error)
	ListPatronMembers(ctx context.Context, patronID snowflake.ID) ([]Member, error)
	ListBillableMembers(ctx context.Context) ([]Member, error)

	FindPaymentStrategy(ctx context.Context, platform, idInPlatform string) (PaymentStrategy, error)
	GetPaymentStrategy(ctx context.Context, id snowflake.ID) (PaymentStrategy, error)
}

var (
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrInvalidFee          = errors.New("invalid_fee")
	ErrInvalidKind         = errors.New("invalid_kind")
	ErrInvalidFirstPayment = errors.New("invalid_first_payment")
	ErrInvalidPlatform     = errors.New("invalid_platform")
	ErrInvalidCategory     = errors.New("invalid_category")
	ErrNotFound            = errors.New("not_found")
)

// ParsePlatform accepts the short platform names used on the command line.
func ParsePlatform(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "mercadopago", PlatformMercadoPago:
		return PlatformMercadoPago, nil
	case "todopago", PlatformTodoPago:
		return PlatformTodoPago, nil
	case PlatformTransfer:
		return PlatformTransfer, nil
	case PlatformCredit:
		return PlatformCredit, nil
	default:
		return "", ErrInvalidPlatform
	}
}
