package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

const instrumentTypeColumns = `id, kind, name, options, available, created_at, updated_at`

// InstrumentTypeRepository implements usecase.InstrumentTypeRepository. Options are
// stored as a JSONB array of {duration, percent} pairs.
type InstrumentTypeRepository struct {
	db querier
}

// NewInstrumentTypeRepository creates a new InstrumentTypeRepository.
func NewInstrumentTypeRepository(pool *pgxpool.Pool) *InstrumentTypeRepository {
	return newInstrumentTypeRepository(pool)
}

func newInstrumentTypeRepository(db querier) *InstrumentTypeRepository {
	return &InstrumentTypeRepository{db: db}
}

// Create creates a new catalog entry.
func (r *InstrumentTypeRepository) Create(ctx context.Context, tx usecase.Tx, t *domain.InstrumentType) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, `
		INSERT INTO instrument_types (`+instrumentTypeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID,
		string(t.Kind),
		t.Name,
		options(t.Options),
		t.Available,
		timeToPgTimestamptz(t.CreatedAt),
		timeToPgTimestamptz(t.UpdatedAt),
	)
	if pgCode(err) == pgErrUniqueViolation {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateTypeName, t.Name)
	}

	return err
}

// GetByID retrieves a catalog entry by kind and ID.
func (r *InstrumentTypeRepository) GetByID(ctx context.Context, kind domain.InstrumentKind, id string) (*domain.InstrumentType, error) {
	t, err := scanInstrumentType(r.db.QueryRow(ctx, `
		SELECT `+instrumentTypeColumns+` FROM instrument_types
		WHERE kind = $1 AND id = $2`, string(kind), id))
	if err != nil {
		return nil, notFound(err, kind.NotFoundError())
	}

	return t, nil
}

// GetByName retrieves a catalog entry by kind and name.
func (r *InstrumentTypeRepository) GetByName(ctx context.Context, kind domain.InstrumentKind, name string) (*domain.InstrumentType, error) {
	t, err := scanInstrumentType(r.db.QueryRow(ctx, `
		SELECT `+instrumentTypeColumns+` FROM instrument_types
		WHERE kind = $1 AND name = $2`, string(kind), name))
	if err != nil {
		return nil, notFound(err, kind.NotFoundError())
	}

	return t, nil
}

// GetByIDForUpdate retrieves a catalog entry with a FOR UPDATE lock.
func (r *InstrumentTypeRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Tx, kind domain.InstrumentKind, id string) (*domain.InstrumentType, error) {
	q, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	t, err := scanInstrumentType(q.QueryRow(ctx, `
		SELECT `+instrumentTypeColumns+` FROM instrument_types
		WHERE kind = $1 AND id = $2
		FOR UPDATE`, string(kind), id))
	if err != nil {
		return nil, notFound(err, kind.NotFoundError())
	}

	return t, nil
}

// List lists the catalog of kind ordered by name.
func (r *InstrumentTypeRepository) List(ctx context.Context, kind domain.InstrumentKind, onlyAvailable bool) ([]*domain.InstrumentType, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+instrumentTypeColumns+` FROM instrument_types
		WHERE kind = $1 AND (available OR NOT $2)
		ORDER BY name`, string(kind), onlyAvailable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := []*domain.InstrumentType{}
	for rows.Next() {
		t, err := scanInstrumentType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}

	return types, rows.Err()
}

// Update persists options and availability.
func (r *InstrumentTypeRepository) Update(ctx context.Context, tx usecase.Tx, t *domain.InstrumentType) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, `
		UPDATE instrument_types SET options = $3, available = $4, updated_at = $5
		WHERE kind = $1 AND id = $2`,
		string(t.Kind), t.ID, options(t.Options), t.Available, timeToPgTimestamptz(t.UpdatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return t.Kind.NotFoundError()
	}

	return nil
}

// Delete removes a catalog entry.
func (r *InstrumentTypeRepository) Delete(ctx context.Context, tx usecase.Tx, kind domain.InstrumentKind, id string) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, `DELETE FROM instrument_types WHERE kind = $1 AND id = $2`, string(kind), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kind.NotFoundError()
	}

	return nil
}

// options never encodes a nil slice, which would store JSON null.
func options(o []domain.Option) []domain.Option {
	if o == nil {
		return []domain.Option{}
	}
	return o
}

func scanInstrumentType(row pgx.Row) (*domain.InstrumentType, error) {
	var (
		t    domain.InstrumentType
		kind string
	)

	err := row.Scan(
		&t.ID,
		&kind,
		&t.Name,
		&t.Options,
		&t.Available,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Kind = domain.InstrumentKind(kind)

	return &t, nil
}
