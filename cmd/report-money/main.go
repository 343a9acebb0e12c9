// Command report-money prints the liquidity of the event whose name contains
// every given part.
//
//	report-money NAME_PART...
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/bwmarrin/snowflake"
	"github.com/pyar/asocmembers/internal/config"
	"github.com/pyar/asocmembers/internal/event"
	eventdomain "github.com/pyar/asocmembers/internal/event/domain"
	"github.com/pyar/asocmembers/internal/logger"
	"github.com/pyar/asocmembers/internal/migration"
	"github.com/pyar/asocmembers/pkg/db"
	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: report-money NAME_PART...\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var (
		log    *zap.Logger
		events eventdomain.Service
	)
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		event.Module,
		fx.NopLogger,
		fx.Populate(&log, &events),
	)

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "report-money: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = app.Stop(ctx) }()

	if err := run(ctx, os.Stdout, events, flag.Args()); err != nil {
		log.Error("money report failed", zap.Strings("name_parts", flag.Args()), zap.Error(err))
		_ = app.Stop(ctx)
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, events eventdomain.Service, nameParts []string) error {
	ev, err := events.FindEvent(ctx, nameParts)
	var lookup *eventdomain.EventLookupError
	if errors.As(err, &lookup) {
		if errors.Is(err, eventdomain.ErrAmbiguousEvent) {
			fmt.Fprintln(w, "ERROR: too many matching events! found these:")
		} else {
			fmt.Fprintln(w, "ERROR: no matching events! the available ones are:")
		}
		for _, candidate := range lookup.Candidates {
			fmt.Fprintf(w, "     %q\n", candidate.Name)
		}
		return lookup.Err
	}
	if err != nil {
		return err
	}

	report, err := events.MoneyReport(ctx, ev.ID)
	if err != nil {
		return err
	}
	return printReport(w, report)
}

func printReport(w io.Writer, r eventdomain.MoneyReport) error {
	fmt.Fprintf(w, "\n### Money report for event %q\n", r.Event)
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "WARNING!!! %s\n", warning)
	}

	if len(r.Incomes) > 0 {
		title(w, "Detailed sponsorships status:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "amount\tpayment\tsponsorship\t")
		for _, line := range r.Incomes {
			fmt.Fprintf(tw, "%s\t%s\t%s\t\n", line.Amount.StringFixed(2), line.Payment, line.Sponsorship)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	title(w, "Liquidity:")
	fmt.Fprintf(w, "    Income:     %12s\n", r.IncomeBase.StringFixed(2))
	fmt.Fprintf(w, "       + IVA:   %12s\n", r.IncomeVAT.StringFixed(2))
	fmt.Fprintf(w, "    Pending:    %12s\n", r.Pending.StringFixed(2))
	fmt.Fprintf(w, "    Commission: %12s\n", r.Commission.StringFixed(2))

	if len(r.Expenses) > 0 {
		title(w, "Detailed expenses:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "amount\tbase\tIVA\tinvoice\tdescription\t")
		for _, line := range r.Expenses {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
				line.Amount.StringFixed(2), line.Base.StringFixed(2), line.VAT.StringFixed(2), line.InvoiceType, line.Description)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	title(w, "Expenses:")
	fmt.Fprintf(w, "    Base amount:  %12s\n", r.ExpenseBase.StringFixed(2))
	fmt.Fprintf(w, "    Discrim. IVA: %12s\n", r.ExpenseVAT.StringFixed(2))

	title(w, "Control:")
	fmt.Fprintf(w, "    Available:     %12s\n", r.Available.StringFixed(2))
	fmt.Fprintf(w, "    Remaining IVA: %12s\n", r.RemainingVAT.StringFixed(2))

	title(w, "AC results:")
	fmt.Fprintf(w, "    Commission: %12s\n", r.Commission.StringFixed(2))
	fmt.Fprintf(w, "    Bank loss:  %12s\n", r.BankLoss.StringFixed(2))
	fmt.Fprintf(w, "    Total:      %12s\n", r.Total.StringFixed(2))
	return nil
}

func title(w io.Writer, text string) {
	fmt.Fprintf(w, "\n\n%s\n\n", text)
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
