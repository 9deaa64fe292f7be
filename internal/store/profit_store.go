package store

import (
	"context"
	"time"
)

// ProfitStore holds per-user profit distributions booked by admins. Rows are
// never mutated after creation; losses are negative amounts.
type ProfitStore struct {
	db DB
}

func NewProfitStore(db DB) *ProfitStore {
	return &ProfitStore{db: db}
}

type ProfitRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	AmountCents int64     `db:"amount_cents"`
	CreatedAt   time.Time `db:"created_at"`
}

func (s *ProfitStore) Insert(ctx context.Context, tx Execer, id, userID string, amountCents int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO profit_distributions (id, user_id, amount_cents)
		VALUES ($1, $2, $3)
	`, id, userID, amountCents)
	return err
}

func (s *ProfitStore) SumByUser(ctx context.Context, userID string, from, to *time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM profit_distributions
		WHERE user_id = $1
	`
	args := []any{userID}
	if from != nil {
		args = append(args, *from)
		query += " AND created_at >= $" + itoa(len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += " AND created_at < $" + itoa(len(args))
	}
	var sum int64
	err := s.db.GetContext(ctx, &sum, query, args...)
	return sum, err
}
