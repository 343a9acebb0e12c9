package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pyar/asocmembers/internal/calendar"
	memberdomain "github.com/pyar/asocmembers/internal/member/domain"
)

// Debtor is a billable member with unpaid months up to the report limit.
type Debtor struct {
	Member  memberdomain.Member  `json:"member"`
	Periods []calendar.YearMonth `json:"periods"`
	Summary string               `json:"summary"`
}

type Service interface {
	// Debt lists the unpaid months from the member's start period to limit, inclusive.
	Debt(ctx context.Context, member memberdomain.Member, limit calendar.YearMonth) ([]calendar.YearMonth, error)
	Report(ctx context.Context, limit calendar.YearMonth) ([]Debtor, error)
}

var ErrNoStartPeriod = errors.New("no_start_period")

// DefaultLimit is the last month that should already be paid at now, in local time.
func DefaultLimit(now time.Time) calendar.YearMonth {
	return calendar.FromLocalTime(now).Prev()
}

// FormatDebt renders the count plus the first three unpaid months.
func FormatDebt(periods []calendar.YearMonth) string {
	if len(periods) == 0 {
		return "-"
	}

	shown := periods
	if len(shown) > 3 {
		shown = shown[:3]
	}
	parts := make([]string, 0, len(shown))
	for _, p := range shown {
		parts = append(parts, p.String())
	}

	exceeding := ""
	if len(periods) > 3 {
		exceeding = ", ..."
	}
	return fmt.Sprintf("%d (%s%s)", len(periods), strings.Join(parts, ", "), exceeding)
}
