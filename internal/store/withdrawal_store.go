package store

import (
	"context"
	"time"
)

type WithdrawalStore struct {
	db DB
}

func NewWithdrawalStore(db DB) *WithdrawalStore {
	return &WithdrawalStore{db: db}
}

type WithdrawalInput struct {
	UserID      string
	AmountCents int64
	FeeCents    int64
	FeeRateBps  int
	FeeMode     string
	Method      string
}

type WithdrawalRow struct {
	ID          int64      `db:"id"`
	UserID      string     `db:"user_id"`
	AmountCents int64      `db:"amount_cents"`
	FeeCents    int64      `db:"fee_cents"`
	FeeRateBps  int        `db:"fee_rate_bps"`
	FeeMode     string     `db:"fee_mode"`
	Method      string     `db:"method"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}

// WithdrawalForUpdate carries the locked request row together with the
// owner's payout destination, which decides auto vs manual payout mode.
type WithdrawalForUpdate struct {
	WithdrawalRow
	PayoutIBAN string `db:"payout_iban"`
}

func (s *WithdrawalStore) Create(ctx context.Context, tx Getter, input WithdrawalInput) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, `
		INSERT INTO withdrawal_requests (user_id, amount_cents, fee_cents, fee_rate_bps, fee_mode, method, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')
		RETURNING id
	`, input.UserID, input.AmountCents, input.FeeCents, input.FeeRateBps, input.FeeMode, input.Method)
	return id, err
}

// GetForUpdate locks the request row for the duration of the surrounding
// transaction. This is the single intentional serialization point of the
// resolution protocol, scoped to one request id.
func (s *WithdrawalStore) GetForUpdate(ctx context.Context, tx Getter, requestID int64) (WithdrawalForUpdate, error) {
	var row WithdrawalForUpdate
	err := tx.GetContext(ctx, &row, `
		SELECT w.id, w.user_id, w.amount_cents, w.fee_cents, w.fee_rate_bps, w.fee_mode,
		       w.method, w.status, w.created_at, w.processed_at,
		       u.payout_iban
		FROM withdrawal_requests w
		JOIN users u ON u.id = w.user_id
		WHERE w.id = $1
		FOR UPDATE OF w
	`, requestID)
	if err != nil {
		return WithdrawalForUpdate{}, err
	}
	return row, nil
}

func (s *WithdrawalStore) MarkResolved(ctx context.Context, tx Execer, requestID int64, status string, processedAt time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE withdrawal_requests
		SET status = $1, processed_at = $2
		WHERE id = $3
	`, status, processedAt, requestID)
	return err
}

func (s *WithdrawalStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]WithdrawalRow, error) {
	var rows []WithdrawalRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, amount_cents, fee_cents, fee_rate_bps, fee_mode, method, status, created_at, processed_at
		FROM withdrawal_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *WithdrawalStore) ListByStatus(ctx context.Context, status string, limit, offset int) ([]WithdrawalRow, error) {
	var rows []WithdrawalRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, amount_cents, fee_cents, fee_rate_bps, fee_mode, method, status, created_at, processed_at
		FROM withdrawal_requests
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
