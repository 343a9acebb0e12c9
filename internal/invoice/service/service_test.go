package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pyar/asocmembers/internal/clock"
	"github.com/pyar/asocmembers/internal/config"
	"github.com/pyar/asocmembers/internal/dbtest"
	"github.com/pyar/asocmembers/internal/invoice/pdf"
	ledgerdomain "github.com/pyar/asocmembers/internal/ledger/domain"
	ledgerrepository "github.com/pyar/asocmembers/internal/ledger/repository"
	ledgerservice "github.com/pyar/asocmembers/internal/ledger/service"
	memberdomain "github.com/pyar/asocmembers/internal/member/domain"
	memberrepository "github.com/pyar/asocmembers/internal/member/repository"
	memberservice "github.com/pyar/asocmembers/internal/member/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type uploaderMock struct {
	mock.Mock
}

func (m *uploaderMock) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	args := m.Called(ctx, key, contentType, body)
	return args.String(0), args.Error(1)
}

type fakeRenderer struct {
	rendered []pdf.ReceiptData
}

func (r *fakeRenderer) RenderReceipt(_ context.Context, data pdf.ReceiptData) ([]byte, error) {
	r.rendered = append(r.rendered, data)
	return []byte("%PDF-fake"), nil
}

var invoicesFrom = time.Date(2018, time.August, 1, 3, 0, 0, 0, time.UTC)

type harness struct {
	db       *gorm.DB
	node     *snowflake.Node
	ledger   ledgerdomain.Service
	renderer *fakeRenderer
	uploader *uploaderMock
	svc      *Service
}

func newHarness(t *testing.T) harness {
	t.Helper()
	db := dbtest.Open(t)
	node := dbtest.Node(t)
	ledgerRepo := ledgerrepository.Provide()

	members := memberservice.New(memberservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  memberrepository.Provide(),
	})
	ledger := ledgerservice.NewService(ledgerservice.Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Repo:       ledgerRepo,
		MemberRepo: memberrepository.Provide(),
	})

	renderer := &fakeRenderer{}
	uploader := &uploaderMock{}
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(time.Date(2018, time.September, 10, 15, 0, 0, 0, time.UTC)),
		Config: config.Config{Invoice: config.InvoiceConfig{
			From:         invoicesFrom,
			SellingPoint: 6,
			OrgName:      "Asociación Civil Python Argentina",
		}},
		LedgerRepo: ledgerRepo,
		Members:    members,
		Renderer:   renderer,
		Uploader:   uploader,
	}).(*Service)

	return harness{db: db, node: node, ledger: ledger, renderer: renderer, uploader: uploader, svc: svc}
}

func (h harness) pay(t *testing.T, fx dbtest.Fixture, when time.Time, amount int64) ledgerdomain.Payment {
	t.Helper()
	payment, err := h.ledger.RecordPayment(context.Background(), ledgerdomain.RecordPaymentRequest{
		MemberID:   fx.Member.ID,
		Timestamp:  when,
		Amount:     decimal.NewFromInt(amount),
		StrategyID: fx.Strategy.ID,
	})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	return payment
}

func (h harness) reload(t *testing.T, id snowflake.ID) ledgerdomain.Payment {
	t.Helper()
	var payment ledgerdomain.Payment
	if err := h.db.Where("id = ?", id).First(&payment).Error; err != nil {
		t.Fatalf("reload payment: %v", err)
	}
	return payment
}

func TestGenerateMissingContinuesNumbering(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	fx := dbtest.Seed(t, h.db, h.node, dbtest.MemberSeed{Fee: "100", FirstPayment: dbtest.YM(2018, 1)})

	old := h.pay(t, fx, time.Date(2018, time.September, 1, 12, 0, 0, 0, time.UTC), 100)
	if err := h.db.Exec(`UPDATE payments SET invoice_spoint = 6, invoice_number = 41, invoice_ok = ? WHERE id = ?`, true, old.ID).Error; err != nil {
		t.Fatalf("mark old payment: %v", err)
	}
	first := h.pay(t, fx, time.Date(2018, time.September, 2, 12, 0, 0, 0, time.UTC), 300)
	second := h.pay(t, fx, time.Date(2018, time.September, 3, 12, 0, 0, 0, time.UTC), 100)

	h.uploader.On("Upload", mock.Anything, "0006-00000042.pdf", "application/pdf", mock.Anything).Return("s3://a", nil).Once()
	h.uploader.On("Upload", mock.Anything, "0006-00000043.pdf", "application/pdf", mock.Anything).Return("s3://b", nil).Once()

	summary, err := h.svc.GenerateMissing(ctx, 10)
	assert.NoError(t, err)
	assert.Equal(t, 2, summary.Pending)
	assert.Equal(t, 2, summary.Generated)
	h.uploader.AssertExpectations(t)

	got := h.reload(t, first.ID)
	assert.Equal(t, 42, *got.InvoiceNumber)
	assert.True(t, got.InvoiceOK)
	got = h.reload(t, second.ID)
	assert.Equal(t, 43, *got.InvoiceNumber)
	assert.True(t, got.InvoiceOK)

	if assert.Len(t, h.renderer.rendered, 2) {
		receipt := h.renderer.rendered[0]
		assert.Equal(t, "0006-00000042", receipt.Number)
		assert.Equal(t, "3 cuotas sociales", receipt.Description)
		assert.Equal(t, "2018-02-01", receipt.ServiceFrom)
		assert.Equal(t, "2018-04-30", receipt.ServiceTo)
		assert.Equal(t, "300.00", receipt.Amount)
		assert.Equal(t, "2018-09-10", receipt.InvoiceDate)
		assert.Equal(t, "Pago via mercado pago (2018-09-02 09:00)", receipt.PaymentComment)
		assert.Equal(t, []string{"2018-02", "2018-03", "2018-04"}, receipt.Periods)
		assert.Equal(t, "1 cuota social", h.renderer.rendered[1].Description)
	}

	summary, err = h.svc.GenerateMissing(ctx, 10)
	assert.NoError(t, err)
	assert.Equal(t, 0, summary.Pending)
}

func TestGenerateMissingIgnoresPaymentsBeforeCutoff(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	fx := dbtest.Seed(t, h.db, h.node, dbtest.MemberSeed{Fee: "100", FirstPayment: dbtest.YM(2018, 1)})
	h.pay(t, fx, time.Date(2018, time.July, 20, 12, 0, 0, 0, time.UTC), 100)

	summary, err := h.svc.GenerateMissing(ctx, 10)
	assert.NoError(t, err)
	assert.Equal(t, 0, summary.Pending)
	h.uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateMissingRespectsLimit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	fx := dbtest.Seed(t, h.db, h.node, dbtest.MemberSeed{Fee: "100", FirstPayment: dbtest.YM(2018, 1)})
	first := h.pay(t, fx, time.Date(2018, time.August, 5, 12, 0, 0, 0, time.UTC), 100)
	second := h.pay(t, fx, time.Date(2018, time.August, 6, 12, 0, 0, 0, time.UTC), 100)

	h.uploader.On("Upload", mock.Anything, "0006-00000001.pdf", "application/pdf", mock.Anything).Return("s3://a", nil).Once()

	summary, err := h.svc.GenerateMissing(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.Generated)
	assert.True(t, h.reload(t, first.ID).InvoiceOK)
	assert.Nil(t, h.reload(t, second.ID).InvoiceNumber)
}

func TestGenerateMissingSkipsOrganizationsAndSharedPatrons(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	org := dbtest.Seed(t, h.db, h.node, dbtest.MemberSeed{
		Fee:          "1000",
		Kind:         memberdomain.KindOrganization,
		FirstPayment: dbtest.YM(2018, 1),
	})
	shared := dbtest.Seed(t, h.db, h.node, dbtest.MemberSeed{Fee: "100", FirstPayment: dbtest.YM(2018, 1)})

	orgPayment := h.pay(t, org, time.Date(2018, time.August, 5, 12, 0, 0, 0, time.UTC), 1000)
	sharedPayment := h.pay(t, shared, time.Date(2018, time.August, 6, 12, 0, 0, 0, time.UTC), 100)
	dbtest.AddMember(t, h.db, h.node, shared)

	summary, err := h.svc.GenerateMissing(ctx, 10)
	assert.NoError(t, err)
	assert.Equal(t, 2, summary.Pending)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 0, summary.Generated)
	assert.Nil(t, h.reload(t, orgPayment.ID).InvoiceNumber)
	assert.Nil(t, h.reload(t, sharedPayment.ID).InvoiceNumber)
	h.uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateMissingKeepsNumberWhenUploadFails(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	fx := dbtest.Seed(t, h.db, h.node, dbtest.MemberSeed{Fee: "100", FirstPayment: dbtest.YM(2018, 1)})
	payment := h.pay(t, fx, time.Date(2018, time.August, 5, 12, 0, 0, 0, time.UTC), 100)

	h.uploader.On("Upload", mock.Anything, "0006-00000001.pdf", "application/pdf", mock.Anything).
		Return("", errors.New("bucket unavailable")).Once()

	summary, err := h.svc.GenerateMissing(ctx, 10)
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	got := h.reload(t, payment.ID)
	assert.Equal(t, 1, *got.InvoiceNumber)
	assert.False(t, got.InvoiceOK)

	h.uploader.On("Upload", mock.Anything, "0006-00000001.pdf", "application/pdf", mock.Anything).
		Return("s3://a", nil).Once()

	summary, err = h.svc.GenerateMissing(ctx, 10)
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.Generated)
	got = h.reload(t, payment.ID)
	assert.Equal(t, 1, *got.InvoiceNumber)
	assert.True(t, got.InvoiceOK)
}

func TestGenerateMissingRejectsForeignSellingPoint(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	fx := dbtest.Seed(t, h.db, h.node, dbtest.MemberSeed{Fee: "100", FirstPayment: dbtest.YM(2018, 1)})
	payment := h.pay(t, fx, time.Date(2018, time.August, 5, 12, 0, 0, 0, time.UTC), 100)
	if err := h.db.Exec(`UPDATE payments SET invoice_spoint = 3, invoice_number = 7 WHERE id = ?`, payment.ID).Error; err != nil {
		t.Fatalf("number payment: %v", err)
	}

	summary, err := h.svc.GenerateMissing(ctx, 10)
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.False(t, h.reload(t, payment.ID).InvoiceOK)
}
