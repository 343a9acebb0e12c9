// Command pay records a payment made outside the recurring gateway flow.
//
//	pay [--first-month YYYYMM] DOCUMENT YYYY-MM-DD PLATFORM AMOUNT [COMMENTS...]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pyar/asocmembers/internal/calendar"
	"github.com/pyar/asocmembers/internal/config"
	"github.com/pyar/asocmembers/internal/ledger"
	ledgerdomain "github.com/pyar/asocmembers/internal/ledger/domain"
	"github.com/pyar/asocmembers/internal/logger"
	"github.com/pyar/asocmembers/internal/member"
	memberdomain "github.com/pyar/asocmembers/internal/member/domain"
	"github.com/pyar/asocmembers/internal/migration"
	"github.com/pyar/asocmembers/pkg/db"
	"github.com/shopspring/decimal"
	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type request struct {
	document    string
	date        time.Time
	platform    string
	amount      decimal.Decimal
	comments    string
	firstUnpaid *calendar.YearMonth
}

func main() {
	firstMonth := flag.String("first-month", "", "first month the payment covers, as YYYYMM")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: pay [--first-month YYYYMM] DOCUMENT YYYY-MM-DD PLATFORM AMOUNT [COMMENTS...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	req, err := parseArgs(*firstMonth, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "pay: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	var (
		log     *zap.Logger
		members memberdomain.Service
		ledgers ledgerdomain.Service
	)
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		member.Module,
		ledger.Module,
		fx.NopLogger,
		fx.Populate(&log, &members, &ledgers),
	)

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "pay: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = app.Stop(ctx) }()

	if err := pay(ctx, log, members, ledgers, req); err != nil {
		log.Error("payment not recorded", zap.String("document", req.document), zap.Error(err))
		_ = app.Stop(ctx)
		os.Exit(1)
	}
}

func parseArgs(firstMonth string, args []string) (request, error) {
	if len(args) < 4 {
		return request{}, errors.New("missing arguments")
	}

	req := request{
		document: strings.TrimSpace(args[0]),
		comments: strings.TrimSpace(strings.Join(args[4:], " ")),
	}

	date, err := time.Parse("2006-01-02", args[1])
	if err != nil {
		return request{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", args[1])
	}
	req.date = date

	platform, err := memberdomain.ParsePlatform(args[2])
	if err != nil {
		return request{}, fmt.Errorf("invalid platform %q, expected credit, mercadopago, todopago or transfer", args[2])
	}
	req.platform = platform

	amount, err := decimal.NewFromString(args[3])
	if err != nil {
		return request{}, fmt.Errorf("invalid amount %q", args[3])
	}
	req.amount = amount

	if firstMonth != "" {
		ym, err := calendar.Parse(firstMonth)
		if err != nil {
			return request{}, fmt.Errorf("invalid first month %q, expected YYYYMM", firstMonth)
		}
		req.firstUnpaid = &ym
	}
	return req, nil
}

func pay(ctx context.Context, log *zap.Logger, members memberdomain.Service, ledgers ledgerdomain.Service, req request) error {
	m, err := members.GetMemberByDocument(ctx, req.document)
	if err != nil {
		return err
	}
	if m.PatronID == nil {
		return errors.New("member has no patron")
	}

	strategy, err := members.EnsurePaymentStrategy(ctx, memberdomain.EnsurePaymentStrategyRequest{
		Platform: req.platform,
		PatronID: m.PatronID,
	})
	if err != nil {
		return err
	}

	payment, err := ledgers.RecordPayment(ctx, ledgerdomain.RecordPaymentRequest{
		MemberID:    m.ID,
		Timestamp:   req.date,
		Amount:      req.amount,
		StrategyID:  strategy.ID,
		FirstUnpaid: req.firstUnpaid,
		Comments:    req.comments,
	})
	if err != nil {
		return err
	}

	quotas, err := ledgers.PaymentQuotas(ctx, payment.ID)
	if err != nil {
		return err
	}
	periods := make([]string, 0, len(quotas))
	for _, q := range quotas {
		periods = append(periods, q.Period().String())
	}
	log.Info("payment recorded",
		zap.String("member", m.ID.String()),
		zap.String("name", m.Name),
		zap.String("payment_id", payment.ID.String()),
		zap.String("amount", payment.Amount.String()),
		zap.Strings("quotas", periods),
	)
	return nil
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
