package service

import (
	"context"
	"errors"

	"github.com/pyar/asocmembers/internal/calendar"
	"github.com/pyar/asocmembers/internal/debt/domain"
	ledgerdomain "github.com/pyar/asocmembers/internal/ledger/domain"
	memberdomain "github.com/pyar/asocmembers/internal/member/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	LedgerRepo ledgerdomain.Repository
	MemberRepo memberdomain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	ledgerRepo ledgerdomain.Repository
	memberRepo memberdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("debt.service"),
		ledgerRepo: p.LedgerRepo,
		memberRepo: p.MemberRepo,
	}
}

func (s *Service) Debt(ctx context.Context, member memberdomain.Member, limit calendar.YearMonth) ([]calendar.YearMonth, error) {
	start, ok := startPeriod(member)
	if !ok {
		return nil, domain.ErrNoStartPeriod
	}
	if start.After(limit) {
		return []calendar.YearMonth{}, nil
	}

	paidPeriods, err := s.ledgerRepo.ListQuotaPeriods(ctx, s.db, member.ID)
	if err != nil {
		return nil, err
	}
	paid := make(map[calendar.YearMonth]struct{}, len(paidPeriods))
	for _, p := range paidPeriods {
		paid[p] = struct{}{}
	}

	unpaid := []calendar.YearMonth{}
	for current := start; !current.After(limit); current = current.Next() {
		if _, ok := paid[current]; !ok {
			unpaid = append(unpaid, current)
		}
	}
	return unpaid, nil
}

func (s *Service) Report(ctx context.Context, limit calendar.YearMonth) ([]domain.Debtor, error) {
	members, err := s.memberRepo.ListBillableMembers(ctx, s.db)
	if err != nil {
		return nil, err
	}

	debtors := []domain.Debtor{}
	for _, member := range members {
		periods, err := s.Debt(ctx, member, limit)
		if errors.Is(err, domain.ErrNoStartPeriod) {
			s.log.Warn("member without start period",
				zap.String("member", member.ID.String()),
				zap.Intp("legal_id", member.LegalID),
			)
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(periods) == 0 {
			continue
		}
		debtors = append(debtors, domain.Debtor{
			Member:  member,
			Periods: periods,
			Summary: domain.FormatDebt(periods),
		})
	}

	s.log.Info("debt report built",
		zap.String("limit", limit.String()),
		zap.Int("members", len(members)),
		zap.Int("debtors", len(debtors)),
	)
	return debtors, nil
}

// startPeriod prefers the first paid month over the registration month.
func startPeriod(member memberdomain.Member) (calendar.YearMonth, bool) {
	if first, ok := member.FirstPayment(); ok {
		return first, true
	}
	if member.RegistrationDate != nil {
		return calendar.FromLocalTime(*member.RegistrationDate), true
	}
	return calendar.YearMonth{}, false
}
