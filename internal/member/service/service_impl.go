package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pyar/asocmembers/internal/member/domain"
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
		log:   p.Log.Named("member.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) CreateCategory(ctx context.Context, req domain.CreateCategoryRequest) (domain.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Category{}, domain.ErrInvalidName
	}
	if req.Fee.IsNegative() {
		return domain.Category{}, domain.ErrInvalidFee
	}

	category := domain.Category{
		ID:          s.genID.Generate(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Fee:         req.Fee,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.InsertCategory(ctx, s.db, &category); err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

func (s *Service) CreatePatron(ctx context.Context, req domain.CreatePatronRequest) (domain.Patron, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Patron{}, domain.ErrInvalidName
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.Patron{}, domain.ErrInvalidEmail
	}

	patron := domain.Patron{
		ID:        s.genID.Generate(),
		Name:      name,
		Email:     email,
		Comments:  strings.TrimSpace(req.Comments),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.InsertPatron(ctx, s.db, &patron); err != nil {
		return domain.Patron{}, err
	}
	return patron, nil
}

func (s *Service) CreateMember(ctx context.Context, req domain.CreateMemberRequest) (domain.Member, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Member{}, domain.ErrInvalidName
	}

	kind := req.Kind
	if kind == "" {
		kind = domain.KindPerson
	}
	if kind != domain.KindPerson && kind != domain.KindOrganization {
		return domain.Member{}, domain.ErrInvalidKind
	}

	if req.FirstPayment != nil && !req.FirstPayment.Valid() {
		return domain.Member{}, domain.ErrInvalidFirstPayment
	}

	category, err := s.repo.FindCategoryByID(ctx, s.db, req.CategoryID)
	if err != nil {
		return domain.Member{}, err
	}
	if category == nil {
		return domain.Member{}, domain.ErrInvalidCategory
	}

	member := domain.Member{
		ID:               s.genID.Generate(),
		LegalID:          req.LegalID,
		Kind:             kind,
		Name:             name,
		DocumentNumber:   strings.TrimSpace(req.DocumentNumber),
		Email:            strings.TrimSpace(req.Email),
		CategoryID:       category.ID,
		PatronID:         req.PatronID,
		RegistrationDate: req.RegistrationDate,
		ShutdownDate:     req.ShutdownDate,
		CreatedAt:        time.Now().UTC(),
	}
	if req.FirstPayment != nil {
		year, month := req.FirstPayment.Year, req.FirstPayment.Month
		member.FirstPaymentYear = &year
		member.FirstPaymentMonth = &month
	}

	if err := s.repo.InsertMember(ctx, s.db, &member); err != nil {
		return domain.Member{}, err
	}
	member.Category = category
	return member, nil
}

func (s *Service) EnsurePaymentStrategy(ctx context.Context, req domain.EnsurePaymentStrategyRequest) (domain.PaymentStrategy, error) {
	platform, err := domain.ParsePlatform(req.Platform)
	if err != nil {
		return domain.PaymentStrategy{}, err
	}
	idInPlatform := strings.TrimSpace(req.IDInPlatform)

	var strategy domain.PaymentStrategy
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindStrategy(ctx, tx, platform, idInPlatform, req.PatronID)
		if err != nil {
			return err
		}
		if existing != nil {
			strategy = *existing
			return nil
		}

		strategy = domain.PaymentStrategy{
			ID:           s.genID.Generate(),
			Platform:     platform,
			IDInPlatform: idInPlatform,
			PatronID:     req.PatronID,
			Comments:     strings.TrimSpace(req.Comments),
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.repo.InsertStrategy(ctx, tx, &strategy); err != nil {
			return err
		}
		s.log.Info("created payment strategy",
			zap.String("platform", platform),
			zap.String("id_in_platform", idInPlatform),
			zap.String("strategy_id", strategy.ID.String()),
		)
		return nil
	})
	if err != nil {
		return domain.PaymentStrategy{}, err
	}
	return strategy, nil
}

// GetMember loads a member together with its category.
func (s *Service) GetMember(ctx context.Context, id snowflake.ID) (domain.Member, error) {
	member, err := s.repo.FindMemberByID(ctx, s.db, id)
	if err != nil {
		return domain.Member{}, err
	}
	if member == nil {
		return domain.Member{}, domain.ErrNotFound
	}
	return s.withCategory(ctx, *member)
}

func (s *Service) GetMemberByDocument(ctx context.Context, documentNumber string) (domain.Member, error) {
	documentNumber = strings.TrimSpace(documentNumber)
	if documentNumber == "" {
		return domain.Member{}, domain.ErrNotFound
	}
	member, err := s.repo.FindMemberByDocument(ctx, s.db, documentNumber)
	if err != nil {
		return domain.Member{}, err
	}
	if member == nil {
		return domain.Member{}, domain.ErrNotFound
	}
	return s.withCategory(ctx, *member)
}

func (s *Service) ListPatronMembers(ctx context.Context, patronID snowflake.ID) ([]domain.Member, error) {
	return s.repo.ListMembersByPatron(ctx, s.db, patronID)
}

func (s *Service) ListBillableMembers(ctx context.Context) ([]domain.Member, error) {
	return s.repo.ListBillableMembers(ctx, s.db)
}

func (s *Service) FindPaymentStrategy(ctx context.Context, platform, idInPlatform string) (domain.PaymentStrategy, error) {
	strategy, err := s.repo.FindStrategy(ctx, s.db, platform, idInPlatform, nil)
	if err != nil {
		return domain.PaymentStrategy{}, err
	}
	if strategy == nil {
		return domain.PaymentStrategy{}, domain.ErrNotFound
	}
	return *strategy, nil
}

func (s *Service) GetPaymentStrategy(ctx context.Context, id snowflake.ID) (domain.PaymentStrategy, error) {
	strategy, err := s.repo.FindStrategyByID(ctx, s.db, id)
	if err != nil {
		return domain.PaymentStrategy{}, err
	}
	if strategy == nil {
		return domain.PaymentStrategy{}, domain.ErrNotFound
	}
	return *strategy, nil
}

func (s *Service) withCategory(ctx context.Context, member domain.Member) (domain.Member, error) {
	category, err := s.repo.FindCategoryByID(ctx, s.db, member.CategoryID)
	if err != nil {
		return domain.Member{}, err
	}
	if category == nil {
		return domain.Member{}, domain.ErrInvalidCategory
	}
	member.Category = category
	return member, nil
}
