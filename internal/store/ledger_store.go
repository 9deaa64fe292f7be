package store

import (
	"context"
	"time"
)

// LedgerStore is the append-only event log backing all balance computation.
// Append is the only write; there is no update or delete. Reversals are new
// entries with the opposite sign, so the balance at any historical instant
// can be recomputed by replaying entries up to that instant.
type LedgerStore struct {
	db DB
}

func NewLedgerStore(db DB) *LedgerStore {
	return &LedgerStore{db: db}
}

type LedgerEntryInput struct {
	ID          string
	UserID      string
	Kind        string
	Status      string
	AmountCents int64
	Method      string
	Meta        string
}

type LedgerEntryRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Kind        string    `db:"kind"`
	Status      string    `db:"status"`
	AmountCents int64     `db:"amount_cents"`
	Method      string    `db:"method"`
	Meta        string    `db:"meta"`
	CreatedAt   time.Time `db:"created_at"`
}

func (s *LedgerStore) Append(ctx context.Context, tx Execer, input LedgerEntryInput) error {
	meta := input.Meta
	if meta == "" {
		meta = "{}"
	}
	query := `
		INSERT INTO ledger_tx (id, user_id, kind, status, amount_cents, method, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.UserID, input.Kind, input.Status, input.AmountCents, input.Method, meta,
	)
	return err
}

// ListByUser returns entries in insertion order for audit display. Kind and
// status filters are optional.
func (s *LedgerStore) ListByUser(ctx context.Context, userID, kind, status string, limit, offset int) ([]LedgerEntryRow, error) {
	query := `
		SELECT id, user_id, kind, status, amount_cents, method, meta::text AS meta, created_at
		FROM ledger_tx
		WHERE user_id = $1
	`
	args := []any{userID}
	if kind != "" {
		args = append(args, kind)
		query += " AND kind = $" + itoa(len(args))
	}
	if status != "" {
		args = append(args, status)
		query += " AND status = $" + itoa(len(args))
	}
	args = append(args, limit, offset)
	query += " ORDER BY created_at ASC, id ASC LIMIT $" + itoa(len(args)-1) + " OFFSET $" + itoa(len(args))

	var rows []LedgerEntryRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// SumReservations totals the original blocking entries (kind
// WITHDRAWAL_REQUEST, status PENDING, negative amounts) whose owning
// withdrawal request currently has the given status, returned as a positive
// amount+fee figure. The optional bound restricts to reservations created
// strictly before it, which is what opening-balance computation needs.
func (s *LedgerStore) SumReservations(ctx context.Context, userID, requestStatus string, before *time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(-l.amount_cents), 0)
		FROM ledger_tx l
		JOIN withdrawal_requests w ON w.id = (l.meta->>'request_id')::bigint
		WHERE l.user_id = $1
		  AND l.kind = 'WITHDRAWAL_REQUEST'
		  AND l.status = 'PENDING'
		  AND w.status = $2
	`
	args := []any{userID, requestStatus}
	if before != nil {
		args = append(args, *before)
		query += " AND l.created_at < $3"
	}
	var sum int64
	err := s.db.GetContext(ctx, &sum, query, args...)
	return sum, err
}
