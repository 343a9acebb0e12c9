package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Payment status of a sponsorship line in the money report.
const (
	PaymentNotInvoiced = "no invoice"
	PaymentComplete    = "complete"
	PaymentPartial     = "partial"
	PaymentMissing     = "no payment"
)

var (
	vatRate      = decimal.RequireFromString("0.21")
	vatDivisor   = decimal.RequireFromString("1.21")
	bankLossRate = decimal.RequireFromString("0.006")
	hundred      = decimal.NewFromInt(100)
)

type IncomeLine struct {
	Sponsorship string          `json:"sponsorship"`
	Payment     string          `json:"payment"`
	Amount      decimal.Decimal `json:"amount"`
}

type ExpenseLine struct {
	Description string          `json:"description"`
	InvoiceType string          `json:"invoice_type"`
	Amount      decimal.Decimal `json:"amount"`
	Base        decimal.Decimal `json:"base"`
	VAT         decimal.Decimal `json:"vat"`
}

// MoneyReport is the liquidity of one event. Income counts only fully paid
// sponsorships; the rest is pending.
type MoneyReport struct {
	Event    string        `json:"event"`
	Incomes  []IncomeLine  `json:"incomes"`
	Expenses []ExpenseLine `json:"expenses"`
	Warnings []string      `json:"warnings,omitempty"`

	IncomeBase decimal.Decimal `json:"income_base"`
	IncomeVAT  decimal.Decimal `json:"income_vat"`
	Pending    decimal.Decimal `json:"pending"`
	Commission decimal.Decimal `json:"commission"`

	ExpenseBase decimal.Decimal `json:"expense_base"`
	ExpenseVAT  decimal.Decimal `json:"expense_vat"`

	Available    decimal.Decimal `json:"available"`
	RemainingVAT decimal.Decimal `json:"remaining_vat"`

	BankMovements decimal.Decimal `json:"bank_movements"`
	BankLoss      decimal.Decimal `json:"bank_loss"`
	Total         decimal.Decimal `json:"total"`
}

// BuildMoneyReport totals the open sponsorings and live expenses of event.
// Sponsorings need their category, sponsor and invoice loaded.
func BuildMoneyReport(event Event, sponsorings []Sponsoring, expenses []Expense) MoneyReport {
	report := MoneyReport{
		Event:    event.Name,
		Incomes:  []IncomeLine{},
		Expenses: []ExpenseLine{},
	}

	available, pending := decimal.Zero, decimal.Zero
	open := 0
	for _, sp := range sponsorings {
		if sp.Close {
			continue
		}
		open++

		line := IncomeLine{Sponsorship: sponsorshipLabel(sp)}
		switch {
		case sp.Invoice == nil:
			line.Payment = PaymentNotInvoiced
			if sp.SponsorCategory != nil {
				line.Amount = sp.SponsorCategory.Amount
			}
		case sp.Invoice.CompletePayment:
			line.Payment = PaymentComplete
			line.Amount = sp.Invoice.Collected()
		case sp.Invoice.PartialPayment:
			line.Payment = PaymentPartial
			line.Amount = sp.Invoice.Collected()
		default:
			line.Payment = PaymentMissing
			line.Amount = sp.Invoice.Collected()
		}
		report.Incomes = append(report.Incomes, line)

		if line.Payment == PaymentComplete {
			available = available.Add(line.Amount)
		} else {
			pending = pending.Add(line.Amount)
		}
	}
	if open == 0 {
		report.Warnings = append(report.Warnings, "sponsorings not found")
	}

	report.IncomeBase = available
	report.Pending = pending
	report.IncomeVAT = available.Mul(vatRate).RoundBank(2)
	report.Commission = available.Add(report.IncomeVAT).Mul(event.Commission).Div(hundred).RoundBank(2)

	expenseBase, expenseVAT := decimal.Zero, decimal.Zero
	for _, ex := range expenses {
		if ex.Cancelled {
			continue
		}
		base, vat := ex.Amount, decimal.Zero
		if ex.InvoiceType == InvoiceTypeA {
			base = ex.Amount.Div(vatDivisor).RoundBank(2)
			vat = ex.Amount.Sub(base)
		}
		report.Expenses = append(report.Expenses, ExpenseLine{
			Description: fmt.Sprintf("%s (%s, %s)", ex.Description, ex.InvoiceDate.Format("2006-01-02"), ex.Category),
			InvoiceType: ex.InvoiceType,
			Amount:      ex.Amount,
			Base:        base,
			VAT:         vat,
		})
		expenseBase = expenseBase.Add(base)
		expenseVAT = expenseVAT.Add(vat)
	}
	if len(expenses) == 0 {
		report.Warnings = append(report.Warnings, "expenses not found")
	}

	report.ExpenseBase = expenseBase
	report.ExpenseVAT = expenseVAT
	report.Available = available.Sub(expenseBase).Sub(report.Commission)
	report.RemainingVAT = report.IncomeVAT.Sub(expenseVAT)

	report.BankMovements = available.Add(report.IncomeVAT).Add(expenseBase).Add(expenseVAT)
	report.BankLoss = report.BankMovements.Mul(bankLossRate).RoundBank(2)
	report.Total = report.Commission.Sub(report.BankLoss)
	return report
}

func sponsorshipLabel(sp Sponsoring) string {
	var sponsor, category string
	if sp.Sponsor != nil {
		sponsor = sp.Sponsor.OrganizationName
	}
	if sp.SponsorCategory != nil {
		category = sp.SponsorCategory.Name
	}
	return fmt.Sprintf("%s (%s)", sponsor, category)
}
