package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

const transactionColumns = `id, from_number, from_kind, to_number, to_kind, from_user_id, to_user_id, amount, currency, description, done, created_at`

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	db querier
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return newTransactionRepository(pool)
}

func newTransactionRepository(db querier) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create appends a transaction to the log.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Tx, t *domain.Transaction) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID,
		t.From.Number,
		string(t.From.Kind),
		t.To.Number,
		string(t.To.Kind),
		textOrNull(t.FromUserID),
		textOrNull(t.ToUserID),
		decimalToNumeric(t.Amount),
		t.Currency,
		t.Description,
		t.Done,
		timeToPgTimestamptz(t.CreatedAt),
	)

	return err
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrTransactionNotFound)
	}

	return t, nil
}

// Filter returns one page of the scoped log, newest first, and the total match count.
func (r *TransactionRepository) Filter(ctx context.Context, filter domain.TransactionFilter) (*domain.TransactionPage, error) {
	filter.Normalize()
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	where, args := buildTransactionWhere(filter)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}

	page := &domain.TransactionPage{
		Items: []*domain.Transaction{},
		Page:  filter.Page,
		Size:  filter.Size,
		Total: total,
	}
	if total == 0 {
		return page, nil
	}

	args = append(args, filter.Size, filter.Offset())
	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, transactionColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("filter transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, t)
	}

	return page, rows.Err()
}

// buildTransactionWhere renders filter as a WHERE clause with positional arguments.
func buildTransactionWhere(f domain.TransactionFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var incoming, outgoing string
	if ep, ok := f.ScopeEndpoint(); ok {
		kind, number := arg(string(ep.Kind)), arg(ep.Number)
		incoming = fmt.Sprintf("(to_kind = %s AND to_number = %s)", kind, number)
		outgoing = fmt.Sprintf("(from_kind = %s AND from_number = %s)", kind, number)
	} else {
		user := arg(f.UserID)
		incoming = "to_user_id = " + user
		outgoing = "from_user_id = " + user
	}

	switch {
	case f.IsCredit == nil:
		conds = append(conds, "("+incoming+" OR "+outgoing+")")
	case *f.IsCredit:
		conds = append(conds, incoming)
	default:
		conds = append(conds, outgoing)
	}

	if f.DateFrom != nil {
		conds = append(conds, "created_at >= "+arg(optionalTimestamptz(f.DateFrom)))
	}
	if f.DateTo != nil {
		conds = append(conds, "created_at <= "+arg(optionalTimestamptz(f.DateTo)))
	}
	if f.AmountMin.IsPositive() {
		conds = append(conds, "amount >= "+arg(decimalToNumeric(f.AmountMin)))
	}
	if f.AmountMax != nil {
		conds = append(conds, "amount <= "+arg(decimalToNumeric(*f.AmountMax)))
	}
	if f.IsDone != nil {
		conds = append(conds, "done = "+arg(*f.IsDone))
	}
	if f.DescriptionContains != "" {
		conds = append(conds, `description ILIKE '%' || `+arg(escapeLike(f.DescriptionContains))+` || '%'`)
	}

	return strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t                domain.Transaction
		fromKind, toKind string
		fromUser, toUser pgtype.Text
		amount           pgtype.Numeric
	)

	err := row.Scan(
		&t.ID,
		&t.From.Number,
		&fromKind,
		&t.To.Number,
		&toKind,
		&fromUser,
		&toUser,
		&amount,
		&t.Currency,
		&t.Description,
		&t.Done,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.From.Kind = domain.EndpointKind(fromKind)
	t.To.Kind = domain.EndpointKind(toKind)
	t.FromUserID = fromUser.String
	t.ToUserID = toUser.String
	t.Amount = numericToDecimal(amount)

	return &t, nil
}
