package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pyar/asocmembers/internal/calendar"
	ledgerdomain "github.com/pyar/asocmembers/internal/ledger/domain"
	memberdomain "github.com/pyar/asocmembers/internal/member/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       ledgerdomain.Repository
	MemberRepo memberdomain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       ledgerdomain.Repository
	memberRepo memberdomain.Repository
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("ledger.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		memberRepo: p.MemberRepo,
	}
}

func (s *Service) RecordPayment(ctx context.Context, req ledgerdomain.RecordPaymentRequest) (ledgerdomain.Payment, error) {
	if req.MemberID == 0 {
		return ledgerdomain.Payment{}, ledgerdomain.ErrInvalidMember
	}
	if req.StrategyID == 0 {
		return ledgerdomain.Payment{}, ledgerdomain.ErrInvalidStrategy
	}
	if req.Timestamp.IsZero() {
		return ledgerdomain.Payment{}, ledgerdomain.ErrInvalidTimestamp
	}

	var payment ledgerdomain.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		member, err := s.memberRepo.FindMemberByID(ctx, tx, req.MemberID)
		if err != nil {
			return err
		}
		if member == nil {
			return ledgerdomain.ErrInvalidMember
		}

		start, err := s.firstUnpaid(ctx, tx, *member, req.FirstUnpaid)
		if err != nil {
			return err
		}

		fee, err := s.fee(ctx, tx, *member, req.CustomFee)
		if err != nil {
			return err
		}

		count, err := ledgerdomain.QuotaCount(req.Amount, fee)
		if err != nil {
			return fmt.Errorf("%w: amount %s does not match fee %s", err, req.Amount.String(), fee.String())
		}

		now := time.Now().UTC()
		payment = ledgerdomain.Payment{
			ID:         s.genID.Generate(),
			Timestamp:  req.Timestamp.UTC(),
			Amount:     req.Amount,
			StrategyID: req.StrategyID,
			Comments:   req.Comments,
			CreatedAt:  now,
		}
		if err := s.repo.InsertPayment(ctx, tx, &payment); err != nil {
			return err
		}

		periods := calendar.Range(start, count)
		quotas := make([]ledgerdomain.Quota, 0, len(periods))
		for _, period := range periods {
			quotas = append(quotas, ledgerdomain.Quota{
				ID:        s.genID.Generate(),
				PaymentID: payment.ID,
				MemberID:  member.ID,
				Year:      period.Year,
				Month:     period.Month,
				Amount:    fee,
				CreatedAt: now,
			})
		}
		if err := s.repo.InsertQuotas(ctx, tx, quotas); err != nil {
			return err
		}

		if _, ok := member.FirstPayment(); !ok {
			if err := s.memberRepo.SetFirstPayment(ctx, tx, member.ID, start); err != nil {
				return err
			}
		}

		s.log.Info("payment recorded",
			zap.String("member", member.ID.String()),
			zap.String("payment_id", payment.ID.String()),
			zap.Time("timestamp", payment.Timestamp),
			zap.String("amount", payment.Amount.String()),
			zap.String("from", periods[0].String()),
			zap.String("to", periods[len(periods)-1].String()),
		)
		return nil
	})
	if err != nil {
		return ledgerdomain.Payment{}, err
	}
	return payment, nil
}

// firstUnpaid resolves the period a new payment starts covering.
func (s *Service) firstUnpaid(ctx context.Context, tx *gorm.DB, member memberdomain.Member, override *calendar.YearMonth) (calendar.YearMonth, error) {
	if override != nil {
		if !override.Valid() {
			return calendar.YearMonth{}, ledgerdomain.ErrFirstUnpaidUnknown
		}
		return *override, nil
	}

	latest, err := s.repo.FindLatestQuota(ctx, tx, member.ID)
	if err != nil {
		return calendar.YearMonth{}, err
	}
	if latest != nil {
		return latest.Period().Next(), nil
	}

	if first, ok := member.FirstPayment(); ok {
		return first, nil
	}
	return calendar.YearMonth{}, ledgerdomain.ErrFirstUnpaidUnknown
}

func (s *Service) fee(ctx context.Context, tx *gorm.DB, member memberdomain.Member, custom *decimal.Decimal) (decimal.Decimal, error) {
	if custom != nil {
		return *custom, nil
	}
	category, err := s.memberRepo.FindCategoryByID(ctx, tx, member.CategoryID)
	if err != nil {
		return decimal.Zero, err
	}
	if category == nil {
		return decimal.Zero, memberdomain.ErrInvalidCategory
	}
	return category.Fee, nil
}

func (s *Service) LatestPayment(ctx context.Context, strategyID snowflake.ID) (*ledgerdomain.Payment, error) {
	return s.repo.FindLatestPaymentByStrategy(ctx, s.db, strategyID)
}

func (s *Service) QuotaPeriods(ctx context.Context, memberID snowflake.ID) ([]calendar.YearMonth, error) {
	return s.repo.ListQuotaPeriods(ctx, s.db, memberID)
}

func (s *Service) PaymentQuotas(ctx context.Context, paymentID snowflake.ID) ([]ledgerdomain.Quota, error) {
	return s.repo.ListQuotasByPayment(ctx, s.db, paymentID)
}
