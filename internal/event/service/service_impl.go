package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pyar/asocmembers/internal/event/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("event.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

var maxCommission = decimal.NewFromInt(100)

func (s *Service) CreateEvent(ctx context.Context, req domain.CreateEventRequest) (domain.Event, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Event{}, domain.ErrInvalidName
	}
	if req.Commission.IsNegative() || req.Commission.GreaterThan(maxCommission) {
		return domain.Event{}, domain.ErrInvalidCommission
	}
	if !domain.ValidEventCategory(req.Category) {
		return domain.Event{}, domain.ErrInvalidEventCategory
	}

	event := domain.Event{
		ID:         s.genID.Generate(),
		Name:       name,
		Commission: req.Commission,
		StartDate:  req.StartDate,
		Place:      strings.TrimSpace(req.Place),
		Category:   req.Category,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.InsertEvent(ctx, s.db, &event); err != nil {
		return domain.Event{}, err
	}
	return event, nil
}

func (s *Service) CreateSponsorCategory(ctx context.Context, req domain.CreateSponsorCategoryRequest) (domain.SponsorCategory, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.SponsorCategory{}, domain.ErrInvalidName
	}
	if !req.Amount.IsPositive() {
		return domain.SponsorCategory{}, domain.ErrInvalidAmount
	}

	event, err := s.openEvent(ctx, req.EventID)
	if err != nil {
		return domain.SponsorCategory{}, err
	}
	existing, err := s.repo.FindSponsorCategoryByName(ctx, s.db, event.ID, name)
	if err != nil {
		return domain.SponsorCategory{}, err
	}
	if existing != nil {
		return domain.SponsorCategory{}, domain.ErrDuplicateSponsorCategory
	}

	category := domain.SponsorCategory{
		ID:        s.genID.Generate(),
		EventID:   event.ID,
		Name:      name,
		Amount:    req.Amount,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.InsertSponsorCategory(ctx, s.db, &category); err != nil {
		return domain.SponsorCategory{}, err
	}
	category.Event = event
	return category, nil
}

func (s *Service) CreateSponsor(ctx context.Context, req domain.CreateSponsorRequest) (domain.Sponsor, error) {
	name := strings.TrimSpace(req.OrganizationName)
	if name == "" {
		return domain.Sponsor{}, domain.ErrInvalidName
	}

	sponsor := domain.Sponsor{
		ID:               s.genID.Generate(),
		OrganizationName: name,
		DocumentNumber:   strings.TrimSpace(req.DocumentNumber),
		Enabled:          req.Enabled,
		Active:           true,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.repo.InsertSponsor(ctx, s.db, &sponsor); err != nil {
		return domain.Sponsor{}, err
	}
	return sponsor, nil
}

func (s *Service) CreateSponsoring(ctx context.Context, req domain.CreateSponsoringRequest) (domain.Sponsoring, error) {
	category, err := s.repo.FindSponsorCategoryByID(ctx, s.db, req.SponsorCategoryID)
	if err != nil {
		return domain.Sponsoring{}, err
	}
	if category == nil {
		return domain.Sponsoring{}, domain.ErrNotFound
	}
	if category.Event != nil && category.Event.Close {
		return domain.Sponsoring{}, domain.ErrEventClosed
	}

	sponsor, err := s.repo.FindSponsorByID(ctx, s.db, req.SponsorID)
	if err != nil {
		return domain.Sponsoring{}, err
	}
	if sponsor == nil {
		return domain.Sponsoring{}, domain.ErrNotFound
	}
	if !sponsor.Enabled || !sponsor.Active {
		return domain.Sponsoring{}, domain.ErrSponsorNotEnabled
	}

	existing, err := s.repo.FindSponsoring(ctx, s.db, category.ID, sponsor.ID)
	if err != nil {
		return domain.Sponsoring{}, err
	}
	if existing != nil {
		return domain.Sponsoring{}, domain.ErrDuplicateSponsoring
	}

	sponsoring := domain.Sponsoring{
		ID:                s.genID.Generate(),
		SponsorCategoryID: category.ID,
		SponsorID:         sponsor.ID,
		Comments:          strings.TrimSpace(req.Comments),
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.repo.InsertSponsoring(ctx, s.db, &sponsoring); err != nil {
		return domain.Sponsoring{}, err
	}
	sponsoring.SponsorCategory = category
	sponsoring.Sponsor = sponsor
	return sponsoring, nil
}

func (s *Service) CreateSponsorInvoice(ctx context.Context, req domain.CreateSponsorInvoiceRequest) (domain.SponsorInvoice, error) {
	if !req.Amount.IsPositive() {
		return domain.SponsorInvoice{}, domain.ErrInvalidAmount
	}

	sponsoring, err := s.repo.FindSponsoringByID(ctx, s.db, req.SponsoringID)
	if err != nil {
		return domain.SponsorInvoice{}, err
	}
	if sponsoring == nil {
		return domain.SponsorInvoice{}, domain.ErrNotFound
	}
	if sponsoring.Invoice != nil {
		return domain.SponsorInvoice{}, domain.ErrDuplicateInvoice
	}

	invoice := domain.SponsorInvoice{
		ID:           s.genID.Generate(),
		SponsoringID: sponsoring.ID,
		Amount:       req.Amount,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.InsertSponsorInvoice(ctx, s.db, &invoice); err != nil {
		return domain.SponsorInvoice{}, err
	}
	return invoice, nil
}

func (s *Service) UpdateSponsorInvoice(ctx context.Context, id snowflake.ID, req domain.UpdateSponsorInvoiceRequest) (domain.SponsorInvoice, error) {
	if req.RealFinalAmount != nil && req.RealFinalAmount.IsNegative() {
		return domain.SponsorInvoice{}, domain.ErrInvalidAmount
	}

	invoice, err := s.repo.FindSponsorInvoiceByID(ctx, s.db, id)
	if err != nil {
		return domain.SponsorInvoice{}, err
	}
	if invoice == nil {
		return domain.SponsorInvoice{}, domain.ErrNotFound
	}

	if req.InvoiceOK != nil {
		invoice.InvoiceOK = *req.InvoiceOK
	}
	if req.PartialPayment != nil {
		invoice.PartialPayment = *req.PartialPayment
	}
	if req.CompletePayment != nil {
		invoice.CompletePayment = *req.CompletePayment
	}
	if req.RealFinalAmount != nil {
		amount := *req.RealFinalAmount
		invoice.RealFinalAmount = &amount
	}

	if err := s.repo.UpdateSponsorInvoice(ctx, s.db, invoice); err != nil {
		return domain.SponsorInvoice{}, err
	}
	return *invoice, nil
}

func (s *Service) CreateExpense(ctx context.Context, req domain.CreateExpenseRequest) (domain.Expense, error) {
	if !req.Amount.IsPositive() {
		return domain.Expense{}, domain.ErrInvalidAmount
	}
	invoiceType, err := domain.ParseInvoiceType(req.InvoiceType)
	if err != nil {
		return domain.Expense{}, err
	}
	if req.InvoiceDate.IsZero() {
		return domain.Expense{}, domain.ErrInvalidInvoiceDate
	}

	event, err := s.openEvent(ctx, req.EventID)
	if err != nil {
		return domain.Expense{}, err
	}

	expense := domain.Expense{
		ID:          s.genID.Generate(),
		EventID:     event.ID,
		Description: strings.TrimSpace(req.Description),
		InvoiceDate: req.InvoiceDate.UTC(),
		Category:    strings.TrimSpace(req.Category),
		Amount:      req.Amount,
		InvoiceType: invoiceType,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.InsertExpense(ctx, s.db, &expense); err != nil {
		return domain.Expense{}, err
	}
	return expense, nil
}

func (s *Service) openEvent(ctx context.Context, id snowflake.ID) (*domain.Event, error) {
	event, err := s.repo.FindEventByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, domain.ErrNotFound
	}
	if event.Close {
		return nil, domain.ErrEventClosed
	}
	return event, nil
}

func (s *Service) GetEvent(ctx context.Context, id snowflake.ID) (domain.Event, error) {
	event, err := s.repo.FindEventByID(ctx, s.db, id)
	if err != nil {
		return domain.Event{}, err
	}
	if event == nil {
		return domain.Event{}, domain.ErrNotFound
	}
	return *event, nil
}

func (s *Service) FindEvent(ctx context.Context, nameParts []string) (domain.Event, error) {
	events, err := s.repo.ListEvents(ctx, s.db)
	if err != nil {
		return domain.Event{}, err
	}

	var matches []domain.Event
	for _, ev := range events {
		if containsAll(ev.Name, nameParts) {
			matches = append(matches, ev)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return domain.Event{}, &domain.EventLookupError{Err: domain.ErrEventNotFound, Candidates: events}
	default:
		return domain.Event{}, &domain.EventLookupError{Err: domain.ErrAmbiguousEvent, Candidates: matches}
	}
}

func containsAll(name string, parts []string) bool {
	for _, part := range parts {
		if !strings.Contains(name, part) {
			return false
		}
	}
	return true
}

func (s *Service) PendingSponsorings(ctx context.Context, eventID *snowflake.ID) ([]domain.PendingSponsoring, error) {
	sponsorings, err := s.repo.ListSponsorings(ctx, s.db, domain.SponsoringFilter{EventID: eventID})
	if err != nil {
		return nil, err
	}

	pending := []domain.PendingSponsoring{}
	for _, sp := range sponsorings {
		state := sp.State()
		if state != domain.StateChecked && state != domain.StatePartiallyPaid {
			continue
		}
		var amount decimal.Decimal
		if sp.SponsorCategory != nil {
			amount = sp.SponsorCategory.Amount
		}
		pending = append(pending, domain.PendingSponsoring{
			SponsoringID: sp.ID,
			Description:  sp.String() + " - " + strings.ToUpper(state),
			State:        state,
			Amount:       amount,
		})
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Amount.GreaterThan(pending[j].Amount)
	})
	return pending, nil
}

func (s *Service) MoneyReport(ctx context.Context, eventID snowflake.ID) (domain.MoneyReport, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return domain.MoneyReport{}, err
	}

	sponsorings, err := s.repo.ListSponsorings(ctx, s.db, domain.SponsoringFilter{EventID: &event.ID, OpenOnly: true})
	if err != nil {
		return domain.MoneyReport{}, err
	}
	expenses, err := s.repo.ListExpenses(ctx, s.db, event.ID)
	if err != nil {
		return domain.MoneyReport{}, err
	}

	report := domain.BuildMoneyReport(event, sponsorings, expenses)
	for _, warning := range report.Warnings {
		s.log.Warn("money report incomplete", zap.String("event", event.Name), zap.String("warning", warning))
	}
	return report, nil
}
