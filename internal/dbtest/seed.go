package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pyar/asocmembers/internal/calendar"
	memberdomain "github.com/pyar/asocmembers/internal/member/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MemberSeed describes a paying member and the gateway identity that pays for it.
type MemberSeed struct {
	Fee              string
	Kind             memberdomain.Kind
	LegalID          *int
	FirstPayment     *calendar.YearMonth
	RegistrationDate *time.Time
	ShutdownDate     *time.Time
	Platform         string
	PayerID          string
}

type Fixture struct {
	Category memberdomain.Category
	Patron   memberdomain.Patron
	Member   memberdomain.Member
	Strategy memberdomain.PaymentStrategy
}

// Seed inserts a category, patron, member and payment strategy.
func Seed(t *testing.T, db *gorm.DB, node *snowflake.Node, seed MemberSeed) Fixture {
	t.Helper()

	fee := seed.Fee
	if fee == "" {
		fee = "100"
	}
	kind := seed.Kind
	if kind == "" {
		kind = memberdomain.KindPerson
	}
	platform := seed.Platform
	if platform == "" {
		platform = memberdomain.PlatformMercadoPago
	}

	now := time.Now().UTC()
	id := node.Generate()
	category := memberdomain.Category{
		ID:        node.Generate(),
		Name:      fmt.Sprintf("category-%s", id),
		Fee:       decimal.RequireFromString(fee),
		CreatedAt: now,
	}
	patron := memberdomain.Patron{
		ID:        node.Generate(),
		Name:      "Patron " + id.String(),
		Email:     fmt.Sprintf("patron-%s@example.com", id),
		CreatedAt: now,
	}
	member := memberdomain.Member{
		ID:               node.Generate(),
		LegalID:          seed.LegalID,
		Kind:             kind,
		Name:             "Member " + id.String(),
		DocumentNumber:   id.String(),
		Email:            fmt.Sprintf("member-%s@example.com", id),
		CategoryID:       category.ID,
		PatronID:         &patron.ID,
		RegistrationDate: seed.RegistrationDate,
		ShutdownDate:     seed.ShutdownDate,
		CreatedAt:        now,
	}
	if seed.FirstPayment != nil {
		year, month := seed.FirstPayment.Year, seed.FirstPayment.Month
		member.FirstPaymentYear = &year
		member.FirstPaymentMonth = &month
	}
	strategy := memberdomain.PaymentStrategy{
		ID:           node.Generate(),
		Platform:     platform,
		IDInPlatform: seed.PayerID,
		PatronID:     &patron.ID,
		CreatedAt:    now,
	}

	for _, model := range []interface{}{&category, &patron, &member, &strategy} {
		if err := db.Create(model).Error; err != nil {
			t.Fatalf("seed %T: %v", model, err)
		}
	}
	member.Category = &category

	return Fixture{
		Category: category,
		Patron:   patron,
		Member:   member,
		Strategy: strategy,
	}
}

// AddMember attaches another member to an existing patron.
func AddMember(t *testing.T, db *gorm.DB, node *snowflake.Node, fx Fixture) memberdomain.Member {
	t.Helper()

	id := node.Generate()
	member := memberdomain.Member{
		ID:             id,
		Kind:           memberdomain.KindPerson,
		Name:           "Member " + id.String(),
		DocumentNumber: id.String(),
		CategoryID:     fx.Category.ID,
		PatronID:       &fx.Patron.ID,
		CreatedAt:      time.Now().UTC(),
	}
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("seed member: %v", err)
	}
	return member
}

func YM(year, month int) *calendar.YearMonth {
	ym := calendar.New(year, month)
	return &ym
}

func IntPtr(v int) *int {
	return &v
}
