package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pyar/asocmembers/internal/dbtest"
	"github.com/pyar/asocmembers/internal/event/domain"
	"github.com/pyar/asocmembers/internal/event/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type harness struct {
	db   *gorm.DB
	svc  domain.Service
	logs *observer.ObservedLogs
}

func newHarness(t *testing.T) harness {
	t.Helper()
	core, logs := observer.New(zap.WarnLevel)
	db := dbtest.Open(t)
	return harness{
		db: db,
		svc: New(Params{
			DB:    db,
			Log:   zap.New(core),
			GenID: dbtest.Node(t),
			Repo:  repository.Provide(),
		}),
		logs: logs,
	}
}

func mustEvent(t *testing.T, svc domain.Service, name string) domain.Event {
	t.Helper()
	event, err := svc.CreateEvent(context.Background(), domain.CreateEventRequest{
		Name:       name,
		Commission: decimal.NewFromInt(10),
		Category:   domain.CategoryPyCon,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	return event
}

// mustSponsoring creates an enabled sponsor in a fresh category of event.
func mustSponsoring(t *testing.T, svc domain.Service, event domain.Event, sponsor, category, amount string) domain.Sponsoring {
	t.Helper()
	ctx := context.Background()

	cat, err := svc.CreateSponsorCategory(ctx, domain.CreateSponsorCategoryRequest{
		EventID: event.ID,
		Name:    category,
		Amount:  decimal.RequireFromString(amount),
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	sp, err := svc.CreateSponsor(ctx, domain.CreateSponsorRequest{
		OrganizationName: sponsor,
		DocumentNumber:   sponsor + "-doc",
		Enabled:          true,
	})
	if err != nil {
		t.Fatalf("create sponsor: %v", err)
	}
	sponsoring, err := svc.CreateSponsoring(ctx, domain.CreateSponsoringRequest{
		SponsorCategoryID: cat.ID,
		SponsorID:         sp.ID,
	})
	if err != nil {
		t.Fatalf("create sponsoring: %v", err)
	}
	return sponsoring
}

func mustInvoice(t *testing.T, svc domain.Service, sponsoring domain.Sponsoring, amount string, update domain.UpdateSponsorInvoiceRequest) {
	t.Helper()
	ctx := context.Background()

	invoice, err := svc.CreateSponsorInvoice(ctx, domain.CreateSponsorInvoiceRequest{
		SponsoringID: sponsoring.ID,
		Amount:       decimal.RequireFromString(amount),
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	if _, err := svc.UpdateSponsorInvoice(ctx, invoice.ID, update); err != nil {
		t.Fatalf("update invoice: %v", err)
	}
}

func boolPtr(v bool) *bool { return &v }

func TestCreateEventValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  domain.CreateEventRequest
		want error
	}{
		{name: "blank name", req: domain.CreateEventRequest{Name: " ", Category: domain.CategoryPyDay}, want: domain.ErrInvalidName},
		{name: "commission above 100", req: domain.CreateEventRequest{Name: "PyDay", Commission: decimal.NewFromInt(101), Category: domain.CategoryPyDay}, want: domain.ErrInvalidCommission},
		{name: "negative commission", req: domain.CreateEventRequest{Name: "PyDay", Commission: decimal.NewFromInt(-1), Category: domain.CategoryPyDay}, want: domain.ErrInvalidCommission},
		{name: "unknown category", req: domain.CreateEventRequest{Name: "PyDay", Category: "Meetup"}, want: domain.ErrInvalidEventCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.CreateEvent(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSponsoringRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	event := mustEvent(t, h.svc, "PyCon Argentina 2024")

	gold, err := h.svc.CreateSponsorCategory(ctx, domain.CreateSponsorCategoryRequest{EventID: event.ID, Name: "Gold", Amount: decimal.NewFromInt(1000)})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	_, err = h.svc.CreateSponsorCategory(ctx, domain.CreateSponsorCategoryRequest{EventID: event.ID, Name: "Gold", Amount: decimal.NewFromInt(900)})
	assert.ErrorIs(t, err, domain.ErrDuplicateSponsorCategory)

	disabled, err := h.svc.CreateSponsor(ctx, domain.CreateSponsorRequest{OrganizationName: "Pending Corp", DocumentNumber: "30-1"})
	if err != nil {
		t.Fatalf("create sponsor: %v", err)
	}
	_, err = h.svc.CreateSponsoring(ctx, domain.CreateSponsoringRequest{SponsorCategoryID: gold.ID, SponsorID: disabled.ID})
	assert.ErrorIs(t, err, domain.ErrSponsorNotEnabled)

	acme, err := h.svc.CreateSponsor(ctx, domain.CreateSponsorRequest{OrganizationName: "ACME", DocumentNumber: "30-2", Enabled: true})
	if err != nil {
		t.Fatalf("create sponsor: %v", err)
	}
	sponsoring, err := h.svc.CreateSponsoring(ctx, domain.CreateSponsoringRequest{SponsorCategoryID: gold.ID, SponsorID: acme.ID})
	if err != nil {
		t.Fatalf("create sponsoring: %v", err)
	}
	assert.Equal(t, domain.StateNotInvoiced, sponsoring.State())
	assert.Equal(t, "ACME - PyCon Argentina 2024 (Gold)", sponsoring.String())

	_, err = h.svc.CreateSponsoring(ctx, domain.CreateSponsoringRequest{SponsorCategoryID: gold.ID, SponsorID: acme.ID})
	assert.ErrorIs(t, err, domain.ErrDuplicateSponsoring)

	_, err = h.svc.CreateSponsorInvoice(ctx, domain.CreateSponsorInvoiceRequest{SponsoringID: sponsoring.ID, Amount: decimal.NewFromInt(1000)})
	assert.NoError(t, err)
	_, err = h.svc.CreateSponsorInvoice(ctx, domain.CreateSponsorInvoiceRequest{SponsoringID: sponsoring.ID, Amount: decimal.NewFromInt(1000)})
	assert.ErrorIs(t, err, domain.ErrDuplicateInvoice)
}

func TestClosedEventRejectsNewEntries(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	event := mustEvent(t, h.svc, "PyCamp 2019")
	if err := h.db.Model(&domain.Event{}).Where("id = ?", event.ID).Update("close", true).Error; err != nil {
		t.Fatalf("close event: %v", err)
	}

	_, err := h.svc.CreateSponsorCategory(ctx, domain.CreateSponsorCategoryRequest{EventID: event.ID, Name: "Gold", Amount: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, domain.ErrEventClosed)

	_, err = h.svc.CreateExpense(ctx, domain.CreateExpenseRequest{
		EventID:     event.ID,
		InvoiceDate: time.Now(),
		Amount:      decimal.NewFromInt(10),
		InvoiceType: "a",
	})
	assert.ErrorIs(t, err, domain.ErrEventClosed)
}

func TestCreateExpenseValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	event := mustEvent(t, h.svc, "PyDay Córdoba")

	_, err := h.svc.CreateExpense(ctx, domain.CreateExpenseRequest{EventID: event.ID, InvoiceDate: time.Now(), Amount: decimal.NewFromInt(10), InvoiceType: "Z"})
	assert.ErrorIs(t, err, domain.ErrInvalidInvoiceType)

	_, err = h.svc.CreateExpense(ctx, domain.CreateExpenseRequest{EventID: event.ID, Amount: decimal.NewFromInt(10), InvoiceType: "A"})
	assert.ErrorIs(t, err, domain.ErrInvalidInvoiceDate)

	_, err = h.svc.CreateExpense(ctx, domain.CreateExpenseRequest{EventID: event.ID, InvoiceDate: time.Now(), InvoiceType: "A"})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	expense, err := h.svc.CreateExpense(ctx, domain.CreateExpenseRequest{EventID: event.ID, InvoiceDate: time.Now(), Amount: decimal.NewFromInt(10), InvoiceType: "ticket"})
	if assert.NoError(t, err) {
		assert.Equal(t, domain.InvoiceTypeTicket, expense.InvoiceType)
	}
}

func TestFindEvent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	mustEvent(t, h.svc, "PyCon Argentina 2023")
	target := mustEvent(t, h.svc, "PyCon Argentina 2024")
	mustEvent(t, h.svc, "PyDay Rafaela 2024")

	got, err := h.svc.FindEvent(ctx, []string{"PyCon", "2024"})
	if assert.NoError(t, err) {
		assert.Equal(t, target.ID, got.ID)
	}

	_, err = h.svc.FindEvent(ctx, []string{"2024"})
	assert.ErrorIs(t, err, domain.ErrAmbiguousEvent)
	var lookup *domain.EventLookupError
	if assert.True(t, errors.As(err, &lookup)) {
		assert.Len(t, lookup.Candidates, 2)
	}

	_, err = h.svc.FindEvent(ctx, []string{"EuroPython"})
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
	if assert.True(t, errors.As(err, &lookup)) {
		assert.Len(t, lookup.Candidates, 3)
	}
}

func TestPendingSponsorings(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pycon := mustEvent(t, h.svc, "PyCon 2024")
	pyday := mustEvent(t, h.svc, "PyDay 2024")

	checked := mustSponsoring(t, h.svc, pycon, "Small", "Bronze", "300")
	mustInvoice(t, h.svc, checked, "300", domain.UpdateSponsorInvoiceRequest{InvoiceOK: boolPtr(true)})

	partial := mustSponsoring(t, h.svc, pycon, "Big", "Gold", "1000")
	mustInvoice(t, h.svc, partial, "1000", domain.UpdateSponsorInvoiceRequest{InvoiceOK: boolPtr(true), PartialPayment: boolPtr(true)})

	paid := mustSponsoring(t, h.svc, pycon, "Done", "Silver", "500")
	mustInvoice(t, h.svc, paid, "500", domain.UpdateSponsorInvoiceRequest{InvoiceOK: boolPtr(true), CompletePayment: boolPtr(true)})

	unchecked := mustSponsoring(t, h.svc, pycon, "Unchecked", "Friend", "100")
	mustInvoice(t, h.svc, unchecked, "100", domain.UpdateSponsorInvoiceRequest{})

	mustSponsoring(t, h.svc, pycon, "Fresh", "Diamond", "5000")

	other := mustSponsoring(t, h.svc, pyday, "Local", "Gold", "200")
	mustInvoice(t, h.svc, other, "200", domain.UpdateSponsorInvoiceRequest{InvoiceOK: boolPtr(true)})

	all, err := h.svc.PendingSponsorings(ctx, nil)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if assert.Len(t, all, 3) {
		assert.Equal(t, partial.ID, all[0].SponsoringID)
		assert.Equal(t, "Big - PyCon 2024 (Gold) - PARTIALLY_PAID", all[0].Description)
		assert.True(t, decimal.NewFromInt(1000).Equal(all[0].Amount))
		assert.Equal(t, checked.ID, all[1].SponsoringID)
		assert.Equal(t, domain.StateChecked, all[1].State)
		assert.Equal(t, other.ID, all[2].SponsoringID)
	}

	pyconOnly, err := h.svc.PendingSponsorings(ctx, &pycon.ID)
	if assert.NoError(t, err) {
		assert.Len(t, pyconOnly, 2)
	}
}

func TestMoneyReport(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	event := mustEvent(t, h.svc, "PyCon 2024")

	paid := mustSponsoring(t, h.svc, event, "ACME", "Gold", "1000")
	mustInvoice(t, h.svc, paid, "1000", domain.UpdateSponsorInvoiceRequest{
		InvoiceOK:       boolPtr(true),
		CompletePayment: boolPtr(true),
		RealFinalAmount: func() *decimal.Decimal { d := decimal.NewFromInt(950); return &d }(),
	})
	mustSponsoring(t, h.svc, event, "Later", "Silver", "500")

	if _, err := h.svc.CreateExpense(ctx, domain.CreateExpenseRequest{
		EventID:     event.ID,
		Description: "Venue",
		InvoiceDate: time.Date(2024, 10, 2, 0, 0, 0, 0, time.UTC),
		Category:    "venue",
		Amount:      decimal.NewFromInt(121),
		InvoiceType: domain.InvoiceTypeA,
	}); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	report, err := h.svc.MoneyReport(ctx, event.ID)
	if err != nil {
		t.Fatalf("money report: %v", err)
	}
	assert.Len(t, report.Incomes, 2)
	assert.True(t, decimal.NewFromInt(950).Equal(report.IncomeBase), report.IncomeBase.String())
	assert.True(t, decimal.NewFromInt(500).Equal(report.Pending), report.Pending.String())
	assert.True(t, decimal.NewFromInt(100).Equal(report.ExpenseBase), report.ExpenseBase.String())
	assert.Empty(t, report.Warnings)
	assert.Zero(t, h.logs.Len())

	empty := mustEvent(t, h.svc, "PyDay 2025")
	report, err = h.svc.MoneyReport(ctx, empty.ID)
	if assert.NoError(t, err) {
		assert.Len(t, report.Warnings, 2)
		assert.Equal(t, 2, h.logs.FilterMessage("money report incomplete").Len())
	}

	_, err = h.svc.MoneyReport(ctx, 12345)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
