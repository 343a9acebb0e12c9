package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pyar/asocmembers/internal/calendar"
	"github.com/pyar/asocmembers/internal/clock"
	"github.com/pyar/asocmembers/internal/config"
	"github.com/pyar/asocmembers/internal/invoice/domain"
	"github.com/pyar/asocmembers/internal/invoice/pdf"
	ledgerdomain "github.com/pyar/asocmembers/internal/ledger/domain"
	memberdomain "github.com/pyar/asocmembers/internal/member/domain"
	"github.com/pyar/asocmembers/internal/storage"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Config     config.Config
	LedgerRepo ledgerdomain.Repository
	Members    memberdomain.Service
	Renderer   pdf.Renderer
	Uploader   storage.Uploader
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	cfg        config.InvoiceConfig
	ledgerRepo ledgerdomain.Repository
	members    memberdomain.Service
	renderer   pdf.Renderer
	uploader   storage.Uploader
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("invoice.service"),
		clock:      p.Clock,
		cfg:        p.Config.Invoice,
		ledgerRepo: p.LedgerRepo,
		members:    p.Members,
		renderer:   p.Renderer,
		uploader:   p.Uploader,
	}
}

func (s *Service) GenerateMissing(ctx context.Context, limit int) (domain.Summary, error) {
	summary := domain.Summary{}

	maxNumber, err := s.ledgerRepo.MaxInvoiceNumber(ctx, s.db, s.cfg.SellingPoint)
	if err != nil {
		return summary, err
	}

	payments, err := s.ledgerRepo.ListPaymentsPendingInvoice(ctx, s.db, s.cfg.From, limit)
	if err != nil {
		return summary, err
	}
	summary.Pending = len(payments)
	s.log.Info("generating invoices",
		zap.Int("payments", len(payments)),
		zap.Int("max_invoice_number", maxNumber),
	)

	invoiceDate := s.clock.Now().In(calendar.Local)
	for i := range payments {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		payment := &payments[i]

		member, strategy, ok, err := s.payingMember(ctx, payment)
		if err != nil {
			return summary, err
		}
		if !ok {
			summary.Skipped++
			continue
		}

		if payment.InvoiceNumber == nil {
			maxNumber++
			if err := s.ledgerRepo.AssignInvoiceNumber(ctx, s.db, payment.ID, s.cfg.SellingPoint, maxNumber); err != nil {
				return summary, err
			}
			spoint, number := s.cfg.SellingPoint, maxNumber
			payment.InvoiceSpoint = &spoint
			payment.InvoiceNumber = &number
		}
		if payment.InvoiceSpoint == nil || *payment.InvoiceSpoint != s.cfg.SellingPoint {
			s.log.Error("payment numbered on another selling point",
				zap.String("payment_id", payment.ID.String()),
				zap.Error(domain.ErrSellingPointMismatch),
			)
			summary.Failed++
			continue
		}

		if err := s.issue(ctx, *payment, member, strategy, invoiceDate); err != nil {
			s.log.Error("invoice generation failed",
				zap.String("payment_id", payment.ID.String()),
				zap.Int("invoice_number", *payment.InvoiceNumber),
				zap.Error(err),
			)
			summary.Failed++
			continue
		}
		summary.Generated++
	}

	s.log.Info("invoices generated",
		zap.Int("pending", summary.Pending),
		zap.Int("generated", summary.Generated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// payingMember resolves the single person member behind the payment's patron.
// Organizations are invoiced by hand.
func (s *Service) payingMember(ctx context.Context, payment *ledgerdomain.Payment) (memberdomain.Member, memberdomain.PaymentStrategy, bool, error) {
	var none memberdomain.Member

	strategy, err := s.members.GetPaymentStrategy(ctx, payment.StrategyID)
	if err != nil {
		return none, strategy, false, err
	}
	if strategy.PatronID == nil {
		s.log.Error("payment strategy without patron", zap.String("payment_id", payment.ID.String()))
		return none, strategy, false, nil
	}

	members, err := s.members.ListPatronMembers(ctx, *strategy.PatronID)
	if err != nil {
		return none, strategy, false, err
	}
	if len(members) != 1 {
		s.log.Error("invoice needs exactly one member per patron",
			zap.String("payment_id", payment.ID.String()),
			zap.String("patron", strategy.PatronID.String()),
			zap.Int("members", len(members)),
		)
		return none, strategy, false, nil
	}

	member := members[0]
	if member.Kind != memberdomain.KindPerson {
		s.log.Info("ignoring payment from organization",
			zap.String("payment_id", payment.ID.String()),
			zap.String("member", member.ID.String()),
		)
		return none, strategy, false, nil
	}
	return member, strategy, true, nil
}

func (s *Service) issue(
	ctx context.Context,
	payment ledgerdomain.Payment,
	member memberdomain.Member,
	strategy memberdomain.PaymentStrategy,
	invoiceDate time.Time,
) error {
	quotas, err := s.ledgerRepo.ListQuotasByPayment(ctx, s.db, payment.ID)
	if err != nil {
		return err
	}
	if len(quotas) == 0 {
		return domain.ErrNoQuotas
	}

	data := buildReceipt(s.cfg, payment, member, strategy, quotas, invoiceDate)
	body, err := s.renderer.RenderReceipt(ctx, data)
	if err != nil {
		return fmt.Errorf("render receipt: %w", err)
	}

	key := domain.ObjectKey(*payment.InvoiceSpoint, *payment.InvoiceNumber)
	location, err := s.uploader.Upload(ctx, key, "application/pdf", body)
	if err != nil {
		return err
	}

	if err := s.ledgerRepo.MarkInvoiced(ctx, s.db, payment.ID); err != nil {
		return err
	}
	s.log.Info("invoice generated",
		zap.String("payment_id", payment.ID.String()),
		zap.String("member", member.ID.String()),
		zap.Int("invoice_number", *payment.InvoiceNumber),
		zap.String("location", location),
	)
	return nil
}

// buildReceipt bills a single item for the whole amount; the covered months go
// into the service period instead of the description.
func buildReceipt(
	cfg config.InvoiceConfig,
	payment ledgerdomain.Payment,
	member memberdomain.Member,
	strategy memberdomain.PaymentStrategy,
	quotas []ledgerdomain.Quota,
	invoiceDate time.Time,
) pdf.ReceiptData {
	description := "1 cuota social"
	if len(quotas) > 1 {
		description = fmt.Sprintf("%d cuotas sociales", len(quotas))
	}

	first := quotas[0].Period()
	last := quotas[len(quotas)-1].Period()
	from := time.Date(first.Year, time.Month(first.Month), 1, 0, 0, 0, 0, time.UTC)
	next := last.Next()
	to := time.Date(next.Year, time.Month(next.Month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)

	periods := make([]string, 0, len(quotas))
	for _, q := range quotas {
		periods = append(periods, q.Period().String())
	}

	return pdf.ReceiptData{
		OrgName:        cfg.OrgName,
		OrgAddress:     cfg.OrgAddress,
		OrgEmail:       cfg.OrgEmail,
		Number:         fmt.Sprintf("%04d-%08d", *payment.InvoiceSpoint, *payment.InvoiceNumber),
		InvoiceDate:    invoiceDate.Format("2006-01-02"),
		BillToName:     member.Name,
		BillToDocument: member.DocumentNumber,
		BillToEmail:    member.Email,
		PaymentComment: fmt.Sprintf("Pago via %s (%s)", strategy.Platform, payment.Timestamp.In(calendar.Local).Format("2006-01-02 15:04")),
		ServiceFrom:    from.Format("2006-01-02"),
		ServiceTo:      to.Format("2006-01-02"),
		Description:    description,
		Quantity:       1,
		Amount:         payment.Amount.StringFixed(2),
		Periods:        periods,
	}
}
