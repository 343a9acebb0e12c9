// Command import-payments pulls approved recurring payments from the gateway
// and records the ones the ledger does not have yet.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/pyar/asocmembers/internal/config"
	"github.com/pyar/asocmembers/internal/gateway/mercadopago"
	"github.com/pyar/asocmembers/internal/ledger"
	"github.com/pyar/asocmembers/internal/logger"
	"github.com/pyar/asocmembers/internal/member"
	"github.com/pyar/asocmembers/internal/migration"
	"github.com/pyar/asocmembers/internal/reconcile"
	"github.com/pyar/asocmembers/pkg/db"
	"github.com/shopspring/decimal"
	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	paymentID := flag.Int64("payment-id", 0, "only import this gateway payment")
	payerID := flag.String("payer-id", "", "only import payments from this payer")
	customFee := flag.String("custom-fee", "", "fee used to split amounts into quotas instead of the paid amount")
	flag.Parse()

	filter := mercadopago.Filter{PayerID: strings.TrimSpace(*payerID)}
	if *paymentID != 0 {
		filter.PaymentID = paymentID
	}

	var fee *decimal.Decimal
	if *customFee != "" {
		parsed, err := decimal.NewFromString(*customFee)
		if err != nil || !parsed.IsPositive() {
			fmt.Fprintf(os.Stderr, "import-payments: invalid custom fee %q\n", *customFee)
			os.Exit(2)
		}
		fee = &parsed
	}

	var (
		log        *zap.Logger
		client     *mercadopago.Client
		reconciler *reconcile.Reconciler
	)
	app := fx.New(
		config.Module,
		// filtered runs are for inspecting a single payer
		fx.Decorate(func(cfg config.Config) config.Config {
			if filter.Active() {
				cfg.LogLevel = "debug"
			}
			return cfg
		}),
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		member.Module,
		ledger.Module,
		reconcile.Module,
		mercadopago.Module,
		fx.NopLogger,
		fx.Populate(&log, &client, &reconciler),
	)

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "import-payments: %v\n", err)
		os.Exit(1)
	}

	err := run(ctx, client, reconciler, filter, fee)
	_ = app.Stop(ctx)
	if err != nil {
		log.Error("import failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, client *mercadopago.Client, reconciler *reconcile.Reconciler, filter mercadopago.Filter, fee *decimal.Decimal) error {
	records, err := client.FetchRecords(ctx, filter)
	if err != nil {
		return err
	}
	_, err = reconciler.Reconcile(ctx, records, fee)
	return err
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
