package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// InstrumentTypeRepository implements usecase.InstrumentTypeRepository.
type InstrumentTypeRepository struct {
	store *Store
}

// NewInstrumentTypeRepository creates a new InstrumentTypeRepository.
func NewInstrumentTypeRepository(store *Store) *InstrumentTypeRepository {
	return &InstrumentTypeRepository{store: store}
}

func typeKey(id string) string { return "type:" + id }

// Create creates a new catalog entry. Names are unique per kind.
func (r *InstrumentTypeRepository) Create(ctx context.Context, tx usecase.Tx, it *domain.InstrumentType) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	if err := t.lock(ctx, "type-name:"+string(it.Kind)+":"+it.Name); err != nil {
		return err
	}
	if _, err := r.GetByName(ctx, it.Kind, it.Name); err == nil {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateTypeName, it.Name)
	}
	if err := t.lock(ctx, typeKey(it.ID)); err != nil {
		return err
	}

	r.stage(t, it)
	return nil
}

func (r *InstrumentTypeRepository) stage(t *Tx, it *domain.InstrumentType) {
	t.staged[typeKey(it.ID)] = cloneType(it)
	final := cloneType(it)
	t.write(func(s *Store) { s.types[final.ID] = final })
}

func (r *InstrumentTypeRepository) lookup(match func(it *domain.InstrumentType) bool) *domain.InstrumentType {
	var found *domain.InstrumentType
	r.store.read(func() {
		for _, it := range r.store.types {
			if match(it) {
				found = cloneType(it)
				return
			}
		}
	})
	return found
}

// GetByID retrieves a catalog entry by kind and ID.
func (r *InstrumentTypeRepository) GetByID(_ context.Context, kind domain.InstrumentKind, id string) (*domain.InstrumentType, error) {
	it := r.lookup(func(it *domain.InstrumentType) bool { return it.Kind == kind && it.ID == id })
	if it == nil {
		return nil, kind.NotFoundError()
	}
	return it, nil
}

// GetByName retrieves a catalog entry by kind and name.
func (r *InstrumentTypeRepository) GetByName(_ context.Context, kind domain.InstrumentKind, name string) (*domain.InstrumentType, error) {
	it := r.lookup(func(it *domain.InstrumentType) bool { return it.Kind == kind && it.Name == name })
	if it == nil {
		return nil, kind.NotFoundError()
	}
	return it, nil
}

// GetByIDForUpdate locks and retrieves a catalog entry.
func (r *InstrumentTypeRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Tx, kind domain.InstrumentKind, id string) (*domain.InstrumentType, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	if err := t.lock(ctx, typeKey(id)); err != nil {
		return nil, err
	}

	if v, ok := t.staged[typeKey(id)]; ok {
		if it, _ := v.(*domain.InstrumentType); it != nil && it.Kind == kind {
			return cloneType(it), nil
		}
		return nil, kind.NotFoundError()
	}
	return r.GetByID(ctx, kind, id)
}

// List lists the catalog of kind ordered by name.
func (r *InstrumentTypeRepository) List(_ context.Context, kind domain.InstrumentKind, onlyAvailable bool) ([]*domain.InstrumentType, error) {
	types := []*domain.InstrumentType{}
	r.store.read(func() {
		for _, it := range r.store.types {
			if it.Kind == kind && (it.Available || !onlyAvailable) {
				types = append(types, cloneType(it))
			}
		}
	})
	slices.SortFunc(types, func(a, b *domain.InstrumentType) int {
		return strings.Compare(a.Name, b.Name)
	})
	return types, nil
}

// Update persists options and availability.
func (r *InstrumentTypeRepository) Update(ctx context.Context, tx usecase.Tx, it *domain.InstrumentType) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	if _, err := r.GetByIDForUpdate(ctx, tx, it.Kind, it.ID); err != nil {
		return err
	}

	r.stage(t, it)
	return nil
}

// Delete removes a catalog entry.
func (r *InstrumentTypeRepository) Delete(ctx context.Context, tx usecase.Tx, kind domain.InstrumentKind, id string) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	if _, err := r.GetByIDForUpdate(ctx, tx, kind, id); err != nil {
		return err
	}

	drop[domain.InstrumentType](t, typeKey(id), func(s *Store) { delete(s.types, id) })
	return nil
}
