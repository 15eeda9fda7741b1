package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// CatalogUseCase manages loan and deposit types and their options.
type CatalogUseCase struct {
	txManager   TxManager
	typeRepo    InstrumentTypeRepository
	loanRepo    LoanRepository
	depositRepo DepositRepository
	idGen       IDGenerator
	cache       Cache
	cacheTTL    time.Duration
	clock       Clock
	metrics     *metrics.Metrics
}

// NewCatalogUseCase creates a new CatalogUseCase. cache may be nil.
func NewCatalogUseCase(
	txManager TxManager,
	typeRepo InstrumentTypeRepository,
	loanRepo LoanRepository,
	depositRepo DepositRepository,
	idGen IDGenerator,
	cache Cache,
	cacheTTL time.Duration,
	clock Clock,
	m *metrics.Metrics,
) *CatalogUseCase {
	return &CatalogUseCase{
		txManager:   txManager,
		typeRepo:    typeRepo,
		loanRepo:    loanRepo,
		depositRepo: depositRepo,
		idGen:       idGen,
		cache:       cache,
		cacheTTL:    cacheTTL,
		clock:       clock,
		metrics:     m,
	}
}

// CreateTypeInput represents input for creating a loan or deposit type.
type CreateTypeInput struct {
	Kind      domain.InstrumentKind
	Name      string
	Options   []domain.Option
	Available bool
}

// CreateType creates a catalog entry. Names are unique per kind.
func (uc *CatalogUseCase) CreateType(ctx context.Context, input CreateTypeInput) (*domain.InstrumentType, error) {
	name := strings.TrimSpace(input.Name)
	if err := domain.ValidateAccountName(name); err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	t := &domain.InstrumentType{
		ID:        uc.idGen.Generate(),
		Kind:      input.Kind,
		Name:      name,
		Available: input.Available,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, o := range input.Options {
		if err := t.AddOption(o); err != nil {
			return nil, err
		}
	}

	err := withinTx(ctx, uc.txManager, nil, func(ctx context.Context, tx Tx) error {
		return uc.typeRepo.Create(ctx, tx, t)
	})
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, input.Kind)
	return t, nil
}

// AddOption adds a (duration, percent) pair to a type.
func (uc *CatalogUseCase) AddOption(ctx context.Context, kind domain.InstrumentKind, id string, option domain.Option) (*domain.InstrumentType, error) {
	return uc.mutate(ctx, kind, id, func(t *domain.InstrumentType) error {
		return t.AddOption(option)
	})
}

// RemoveOption removes a (duration, percent) pair from a type.
func (uc *CatalogUseCase) RemoveOption(ctx context.Context, kind domain.InstrumentKind, id string, option domain.Option) (*domain.InstrumentType, error) {
	return uc.mutate(ctx, kind, id, func(t *domain.InstrumentType) error {
		return t.RemoveOption(option)
	})
}

// SetAvailability toggles whether new instruments may be opened with the type.
func (uc *CatalogUseCase) SetAvailability(ctx context.Context, kind domain.InstrumentKind, id string, available bool) (*domain.InstrumentType, error) {
	return uc.mutate(ctx, kind, id, func(t *domain.InstrumentType) error {
		t.Available = available
		return nil
	})
}

// DeleteType removes a type that no open instrument references.
func (uc *CatalogUseCase) DeleteType(ctx context.Context, kind domain.InstrumentKind, id string) error {
	err := withinTx(ctx, uc.txManager, nil, func(ctx context.Context, tx Tx) error {
		t, err := uc.typeRepo.GetByIDForUpdate(ctx, tx, kind, id)
		if err != nil {
			return err
		}

		active, err := uc.countActive(ctx, kind, t.Name)
		if err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("%w: %d open instruments", domain.ErrTypeInUse, active)
		}

		return uc.typeRepo.Delete(ctx, tx, kind, id)
	})
	if err != nil {
		return err
	}

	uc.invalidate(ctx, kind)
	return nil
}

// GetType retrieves a type by ID.
func (uc *CatalogUseCase) GetType(ctx context.Context, kind domain.InstrumentKind, id string) (*domain.InstrumentType, error) {
	return uc.typeRepo.GetByID(ctx, kind, id)
}

// ListTypes lists the catalog of kind. The full list is served from cache when possible.
func (uc *CatalogUseCase) ListTypes(ctx context.Context, kind domain.InstrumentKind, onlyAvailable bool) ([]*domain.InstrumentType, error) {
	key := cacheKey(kind, onlyAvailable)

	if uc.cache != nil {
		if data, err := uc.cache.Get(ctx, key); err == nil {
			var types []*domain.InstrumentType
			if json.Unmarshal(data, &types) == nil {
				uc.metrics.CacheHit()
				return types, nil
			}
		}
		uc.metrics.CacheMiss()
	}

	types, err := uc.typeRepo.List(ctx, kind, onlyAvailable)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if data, err := json.Marshal(types); err == nil {
			_ = uc.cache.Set(ctx, key, data, uc.cacheTTL)
		}
	}

	return types, nil
}

func (uc *CatalogUseCase) mutate(
	ctx context.Context,
	kind domain.InstrumentKind,
	id string,
	apply func(*domain.InstrumentType) error,
) (*domain.InstrumentType, error) {
	var t *domain.InstrumentType
	err := withinTx(ctx, uc.txManager, nil, func(ctx context.Context, tx Tx) error {
		var err error
		t, err = uc.typeRepo.GetByIDForUpdate(ctx, tx, kind, id)
		if err != nil {
			return err
		}

		if err := apply(t); err != nil {
			return err
		}
		t.UpdatedAt = uc.clock.Now()

		return uc.typeRepo.Update(ctx, tx, t)
	})
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, kind)
	return t, nil
}

func (uc *CatalogUseCase) countActive(ctx context.Context, kind domain.InstrumentKind, name string) (int, error) {
	if kind == domain.InstrumentDeposit {
		return uc.depositRepo.CountActiveByName(ctx, name)
	}
	return uc.loanRepo.CountActiveByName(ctx, name)
}

func (uc *CatalogUseCase) invalidate(ctx context.Context, kind domain.InstrumentKind) {
	if uc.cache == nil {
		return
	}
	_ = uc.cache.Delete(ctx, cacheKey(kind, true))
	_ = uc.cache.Delete(ctx, cacheKey(kind, false))
}

func cacheKey(kind domain.InstrumentKind, onlyAvailable bool) string {
	if onlyAvailable {
		return "catalog:" + strings.ToLower(string(kind)) + ":available"
	}
	return "catalog:" + strings.ToLower(string(kind)) + ":all"
}
