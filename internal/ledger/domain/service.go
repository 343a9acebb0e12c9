package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pyar/asocmembers/internal/calendar"
	"github.com/shopspring/decimal"
)

type RecordPaymentRequest struct {
	MemberID   snowflake.ID
	Timestamp  time.Time
	Amount     decimal.Decimal
	StrategyID snowflake.ID
	// FirstUnpaid overrides the period the payment starts covering.
	FirstUnpaid *calendar.YearMonth
	Comments    string
	// CustomFee replaces the member's category fee for this payment.
	CustomFee *decimal.Decimal
}

type Service interface {
	// RecordPayment stores the payment and one quota per covered month.
	RecordPayment(context.Context, RecordPaymentRequest) (Payment, error)

	LatestPayment(ctx context.Context, strategyID snowflake.ID) (*Payment, error)
	QuotaPeriods(ctx context.Context, memberID snowflake.ID) ([]calendar.YearMonth, error)
	PaymentQuotas(ctx context.Context, paymentID snowflake.ID) ([]Quota, error)
}

var (
	ErrAmountMismatch     = errors.New("amount_mismatch")
	ErrFirstUnpaidUnknown = errors.New("first_unpaid_unknown")
	ErrInvalidMember      = errors.New("invalid_member")
	ErrInvalidStrategy    = errors.New("invalid_strategy")
	ErrInvalidTimestamp   = errors.New("invalid_timestamp")
)

var quotaTolerance = decimal.New(1, -2)

// QuotaCount converts an amount into a whole number of monthly quotas.
// The amount may deviate from an exact multiple of fee by up to 1% per quota.
func QuotaCount(amount, fee decimal.Decimal) (int, error) {
	if !amount.IsPositive() || !fee.IsPositive() {
		return 0, ErrAmountMismatch
	}

	exact := amount.Div(fee)
	rounded := exact.RoundBank(0)
	if exact.Sub(rounded).Abs().GreaterThan(rounded.Mul(quotaTolerance)) {
		return 0, ErrAmountMismatch
	}
	if rounded.LessThan(decimal.NewFromInt(1)) {
		return 0, ErrAmountMismatch
	}
	return int(rounded.IntPart()), nil
}
