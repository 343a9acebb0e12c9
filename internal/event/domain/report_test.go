package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func decPtr(value string) *decimal.Decimal {
	d := dec(value)
	return &d
}

func sponsoring(sponsor, category, amount string, invoice *SponsorInvoice) Sponsoring {
	return Sponsoring{
		Sponsor:         &Sponsor{OrganizationName: sponsor},
		SponsorCategory: &SponsorCategory{Name: category, Amount: dec(amount), Event: &Event{Name: "PyCon 2024"}},
		Invoice:         invoice,
	}
}

func TestSponsoringState(t *testing.T) {
	cases := []struct {
		name    string
		close   bool
		invoice *SponsorInvoice
		want    string
	}{
		{name: "no invoice", want: StateNotInvoiced},
		{name: "invoice unchecked", invoice: &SponsorInvoice{CompletePayment: true}, want: StateInvoiced},
		{name: "invoice checked", invoice: &SponsorInvoice{InvoiceOK: true}, want: StateChecked},
		{name: "partial", invoice: &SponsorInvoice{InvoiceOK: true, PartialPayment: true}, want: StatePartiallyPaid},
		{name: "complete wins over partial", invoice: &SponsorInvoice{InvoiceOK: true, PartialPayment: true, CompletePayment: true}, want: StateCompletelyPaid},
		{name: "closed", close: true, invoice: &SponsorInvoice{InvoiceOK: true}, want: StateClosed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sp := Sponsoring{Close: tc.close, Invoice: tc.invoice}
			assert.Equal(t, tc.want, sp.State())
		})
	}
}

func TestSponsoringString(t *testing.T) {
	sp := sponsoring("ACME", "Gold", "1000", nil)
	assert.Equal(t, "ACME - PyCon 2024 (Gold)", sp.String())
}

func TestBuildMoneyReport(t *testing.T) {
	event := Event{Name: "PyCon 2024", Commission: dec("10")}
	closed := sponsoring("Gone", "Gold", "1000", &SponsorInvoice{Amount: dec("1000"), CompletePayment: true})
	closed.Close = true

	sponsorings := []Sponsoring{
		sponsoring("ACME", "Gold", "1000", &SponsorInvoice{Amount: dec("1000"), InvoiceOK: true, CompletePayment: true}),
		sponsoring("Abroad", "Silver", "500", &SponsorInvoice{Amount: dec("500"), RealFinalAmount: decPtr("480"), CompletePayment: true}),
		sponsoring("Slow", "Bronze", "300", &SponsorInvoice{Amount: dec("300"), PartialPayment: true}),
		sponsoring("Newcomer", "Bronze", "200", nil),
		closed,
	}
	invoiceDate := time.Date(2024, 10, 2, 0, 0, 0, 0, time.UTC)
	expenses := []Expense{
		{Description: "Venue", InvoiceDate: invoiceDate, Category: "venue", Amount: dec("121"), InvoiceType: InvoiceTypeA},
		{Description: "Stickers", InvoiceDate: invoiceDate, Category: "swag", Amount: dec("50"), InvoiceType: InvoiceTypeB},
		{Description: "Refunded", InvoiceDate: invoiceDate, Amount: dec("1000"), InvoiceType: InvoiceTypeA, Cancelled: true},
	}

	report := BuildMoneyReport(event, sponsorings, expenses)

	assert.Equal(t, "PyCon 2024", report.Event)
	assert.Empty(t, report.Warnings)
	if assert.Len(t, report.Incomes, 4) {
		assert.Equal(t, IncomeLine{Sponsorship: "ACME (Gold)", Payment: PaymentComplete, Amount: dec("1000")}, report.Incomes[0])
		assert.True(t, dec("480").Equal(report.Incomes[1].Amount))
		assert.Equal(t, PaymentPartial, report.Incomes[2].Payment)
		assert.Equal(t, PaymentNotInvoiced, report.Incomes[3].Payment)
		assert.True(t, dec("200").Equal(report.Incomes[3].Amount))
	}
	if assert.Len(t, report.Expenses, 2) {
		assert.Equal(t, "Venue (2024-10-02, venue)", report.Expenses[0].Description)
		assert.True(t, dec("100").Equal(report.Expenses[0].Base))
		assert.True(t, dec("21").Equal(report.Expenses[0].VAT))
		assert.True(t, dec("0").Equal(report.Expenses[1].VAT))
	}

	want := map[string]decimal.Decimal{
		"income_base":    dec("1480"),
		"income_vat":     dec("310.80"),
		"pending":        dec("500"),
		"commission":     dec("179.08"),
		"expense_base":   dec("150"),
		"expense_vat":    dec("21"),
		"available":      dec("1150.92"),
		"remaining_vat":  dec("289.80"),
		"bank_movements": dec("1961.80"),
		"bank_loss":      dec("11.77"),
		"total":          dec("167.31"),
	}
	got := map[string]decimal.Decimal{
		"income_base":    report.IncomeBase,
		"income_vat":     report.IncomeVAT,
		"pending":        report.Pending,
		"commission":     report.Commission,
		"expense_base":   report.ExpenseBase,
		"expense_vat":    report.ExpenseVAT,
		"available":      report.Available,
		"remaining_vat":  report.RemainingVAT,
		"bank_movements": report.BankMovements,
		"bank_loss":      report.BankLoss,
		"total":          report.Total,
	}
	for key, value := range want {
		assert.True(t, value.Equal(got[key]), "%s: want %s, got %s", key, value, got[key])
	}
}

func TestBuildMoneyReportRoundsHalfToEven(t *testing.T) {
	event := Event{Name: "PyDay", Commission: dec("0")}
	sponsorings := []Sponsoring{
		sponsoring("Tiny", "Friend", "0.50", &SponsorInvoice{Amount: dec("0.50"), CompletePayment: true}),
	}

	report := BuildMoneyReport(event, sponsorings, nil)

	assert.True(t, dec("0.10").Equal(report.IncomeVAT), report.IncomeVAT.String())
}

func TestBuildMoneyReportWarnsWhenEmpty(t *testing.T) {
	closed := sponsoring("Gone", "Gold", "1000", nil)
	closed.Close = true

	report := BuildMoneyReport(Event{Name: "PyCamp", Commission: dec("10")}, []Sponsoring{closed}, nil)

	assert.Equal(t, []string{"sponsorings not found", "expenses not found"}, report.Warnings)
	assert.Empty(t, report.Incomes)
	assert.Empty(t, report.Expenses)
	assert.True(t, report.Total.IsZero())
}
