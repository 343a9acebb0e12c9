package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ledgerdomain "github.com/pyar/asocmembers/internal/ledger/domain"
	memberdomain "github.com/pyar/asocmembers/internal/member/domain"
	"github.com/pyar/asocmembers/internal/observability/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ErrRunInProgress is returned when another reconciliation holds the run lock.
var ErrRunInProgress = errors.New("reconcile_in_progress")

type Params struct {
	fx.In

	Log     *zap.Logger
	Members memberdomain.Service
	Ledger  ledgerdomain.Service
	Metrics *metrics.ReconcileMetrics `optional:"true"`
}

// Reconciler turns gateway records into recorded payments. Only one run per
// process executes at a time.
type Reconciler struct {
	mu      sync.Mutex
	log     *zap.Logger
	members memberdomain.Service
	ledger  ledgerdomain.Service
	metrics *metrics.ReconcileMetrics
}

func New(p Params) *Reconciler {
	return &Reconciler{
		log:     p.Log.Named("reconcile"),
		members: p.Members,
		ledger:  p.Ledger,
		metrics: p.Metrics,
	}
}

// Reconcile records every gateway record that is newer than what is already
// stored for its payer. Payers that cannot be matched to exactly one member are
// logged and skipped; ledger and storage errors abort the run.
func (r *Reconciler) Reconcile(ctx context.Context, records []Record, customFee *decimal.Decimal) (Summary, error) {
	if !r.mu.TryLock() {
		r.log.Warn("reconciliation already running, skipping", zap.Int("records", len(records)))
		return Summary{}, ErrRunInProgress
	}
	defer r.mu.Unlock()

	groups, duplicates := groupRecords(records)
	summary := Summary{
		Groups:          len(groups),
		DuplicateEvents: duplicates,
	}

	var runErr error
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if err := r.reconcileGroup(ctx, g, customFee, &summary); err != nil {
			runErr = fmt.Errorf("payer %s: %w", g.payerID, err)
			break
		}
	}

	r.observe(summary)
	fields := []zap.Field{
		zap.Int("groups", summary.Groups),
		zap.Int("recorded", summary.Recorded),
		zap.Int("unknown_payer", summary.UnknownPayer),
		zap.Int("ambiguous_member", summary.AmbiguousMember),
		zap.Int("already_recorded", summary.AlreadyRecorded),
		zap.Int("duplicate_events", summary.DuplicateEvents),
	}
	if runErr != nil {
		r.log.Error("reconciliation aborted", append(fields, zap.Error(runErr))...)
		return summary, runErr
	}
	r.log.Info("reconciliation finished", fields...)
	return summary, nil
}

func (r *Reconciler) reconcileGroup(ctx context.Context, g group, customFee *decimal.Decimal, summary *Summary) error {
	strategy, err := r.members.FindPaymentStrategy(ctx, memberdomain.PlatformMercadoPago, g.payerID)
	if errors.Is(err, memberdomain.ErrNotFound) {
		r.log.Error("payer not found",
			zap.String("payer_id", g.payerID),
			zap.Int("records", len(g.records)),
		)
		summary.UnknownPayer += len(g.records)
		return nil
	}
	if err != nil {
		return err
	}

	member, ok, err := r.soleMember(ctx, strategy)
	if err != nil {
		return err
	}
	if !ok {
		summary.AmbiguousMember += len(g.records)
		return nil
	}

	pending := g.records
	last, err := r.ledger.LatestPayment(ctx, strategy.ID)
	if err != nil {
		return err
	}
	if last != nil {
		var gap bool
		pending, gap = pendingAfter(g.records, last.Timestamp)
		if gap {
			r.log.Warn("last recorded payment missing from batch, recording newer ones",
				zap.String("payer_id", g.payerID),
				zap.String("member", member.ID.String()),
				zap.Time("timestamp", last.Timestamp),
			)
		}
		if len(pending) == 0 {
			r.log.Debug("nothing new for payer",
				zap.String("payer_id", g.payerID),
				zap.String("member", member.ID.String()),
				zap.Int("records", len(g.records)),
			)
		}
	}
	summary.AlreadyRecorded += len(g.records) - len(pending)

	for _, rec := range pending {
		fee := customFee
		if fee == nil {
			amount := rec.Amount
			if member.Category != nil && !amount.Equal(member.Category.Fee) {
				r.log.Warn("payment amount differs from category fee",
					zap.String("payer_id", g.payerID),
					zap.String("member", member.ID.String()),
					zap.String("amount", amount.String()),
					zap.String("fee", member.Category.Fee.String()),
					zap.Time("timestamp", rec.Timestamp),
				)
			}
			fee = &amount
		}

		_, err := r.ledger.RecordPayment(ctx, ledgerdomain.RecordPaymentRequest{
			MemberID:   member.ID,
			Timestamp:  rec.Timestamp,
			Amount:     rec.Amount,
			StrategyID: strategy.ID,
			Comments:   fmt.Sprintf("event %s", rec.EventID),
			CustomFee:  fee,
		})
		if err != nil {
			r.log.Error("recording payment failed",
				zap.String("payer_id", g.payerID),
				zap.String("member", member.ID.String()),
				zap.Time("timestamp", rec.Timestamp),
				zap.Int("records", len(g.records)),
				zap.Error(err),
			)
			return err
		}
		summary.Recorded++
	}
	return nil
}

// soleMember returns the only member paid for by the strategy's patron.
func (r *Reconciler) soleMember(ctx context.Context, strategy memberdomain.PaymentStrategy) (memberdomain.Member, bool, error) {
	var members []memberdomain.Member
	if strategy.PatronID != nil {
		var err error
		members, err = r.members.ListPatronMembers(ctx, *strategy.PatronID)
		if err != nil {
			return memberdomain.Member{}, false, err
		}
	}
	if len(members) != 1 {
		patron := ""
		if strategy.PatronID != nil {
			patron = strategy.PatronID.String()
		}
		r.log.Error("payer does not map to exactly one member",
			zap.String("payer_id", strategy.IDInPlatform),
			zap.String("patron", patron),
			zap.Int("members", len(members)),
		)
		return memberdomain.Member{}, false, nil
	}

	member, err := r.members.GetMember(ctx, members[0].ID)
	if err != nil {
		return memberdomain.Member{}, false, err
	}
	return member, true, nil
}

func (r *Reconciler) observe(summary Summary) {
	r.metrics.IncRun()
	r.metrics.AddGroups(summary.Groups)
	r.metrics.AddOutcome(metrics.ReconcileOutcomeRecorded, summary.Recorded)
	r.metrics.AddOutcome(metrics.ReconcileOutcomeUnknownPayer, summary.UnknownPayer)
	r.metrics.AddOutcome(metrics.ReconcileOutcomeAmbiguousMember, summary.AmbiguousMember)
	r.metrics.AddOutcome(metrics.ReconcileOutcomeAlreadyRecorded, summary.AlreadyRecorded)
	r.metrics.AddOutcome(metrics.ReconcileOutcomeDuplicateEvent, summary.DuplicateEvents)
}
