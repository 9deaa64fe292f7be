package store

import (
	"context"
	"time"
)

type InvestmentStore struct {
	db DB
}

func NewInvestmentStore(db DB) *InvestmentStore {
	return &InvestmentStore{db: db}
}

type InvestmentInput struct {
	ID                string
	UserID            *string
	PaymentIntentID   string
	CheckoutSessionID string
	AmountCents       int64
	Currency          string
	Status            string
	Metadata          string
}

type InvestmentRow struct {
	ID                string    `db:"id"`
	UserID            *string   `db:"user_id"`
	PaymentIntentID   string    `db:"payment_intent_id"`
	CheckoutSessionID string    `db:"checkout_session_id"`
	AmountCents       int64     `db:"amount_cents"`
	Currency          string    `db:"currency"`
	Status            string    `db:"status"`
	Metadata          string    `db:"metadata"`
	CreatedAt         time.Time `db:"created_at"`
}

// Insert relies on the unique (payment_intent_id, checkout_session_id)
// constraint to close the race between two concurrent deliveries of the same
// provider confirmation. It reports whether a row was actually written; zero
// rows means another delivery won and the caller should re-read.
func (s *InvestmentStore) Insert(ctx context.Context, tx Execer, input InvestmentInput) (bool, error) {
	metadata := input.Metadata
	if metadata == "" {
		metadata = "{}"
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO investments (id, user_id, payment_intent_id, checkout_session_id, amount_cents, currency, status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (payment_intent_id, checkout_session_id) DO NOTHING
	`, input.ID, input.UserID, input.PaymentIntentID, input.CheckoutSessionID,
		input.AmountCents, input.Currency, input.Status, metadata)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// GetByProviderIDs looks up the record for a real-world payment event by
// either half of its idempotency key pair. sql.ErrNoRows when unseen.
func (s *InvestmentStore) GetByProviderIDs(ctx context.Context, paymentIntentID, checkoutSessionID string) (InvestmentRow, error) {
	var row InvestmentRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, payment_intent_id, checkout_session_id, amount_cents, currency, status, metadata::text AS metadata, created_at
		FROM investments
		WHERE (payment_intent_id = $1 AND payment_intent_id <> '')
		   OR (checkout_session_id = $2 AND checkout_session_id <> '')
		ORDER BY created_at ASC
		LIMIT 1
	`, paymentIntentID, checkoutSessionID)
	if err != nil {
		return InvestmentRow{}, err
	}
	return row, nil
}

// SumSucceededByUser totals net invested cents over succeeded records within
// the optional [from, to) bounds.
func (s *InvestmentStore) SumSucceededByUser(ctx context.Context, userID string, from, to *time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM investments
		WHERE user_id = $1 AND status = 'succeeded'
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

func (s *InvestmentStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]InvestmentRow, error) {
	var rows []InvestmentRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, payment_intent_id, checkout_session_id, amount_cents, currency, status, metadata::text AS metadata, created_at
		FROM investments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
