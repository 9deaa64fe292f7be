package store

import "context"

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

type UserRow struct {
	ID           string `db:"id"`
	Username     string `db:"username"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	PayoutIBAN   string `db:"payout_iban"`
	CreatedAt    any    `db:"created_at"`
}

func (s *UserStore) Create(ctx context.Context, tx Execer, id, username, email, passwordHash string) error {
	query := `
		INSERT INTO users (id, username, email, password_hash)
		VALUES ($1, $2, $3, $4)
	`
	_, err := tx.ExecContext(ctx, query, id, username, email, passwordHash)
	return err
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (UserRow, error) {
	var row UserRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, email, password_hash, payout_iban, created_at
		FROM users
		WHERE email = $1
	`, email)
	if err != nil {
		return UserRow{}, err
	}
	return row, nil
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (UserRow, error) {
	var row UserRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, email, password_hash, payout_iban, created_at
		FROM users
		WHERE id = $1
	`, userID)
	if err != nil {
		return UserRow{}, err
	}
	return row, nil
}

// LockByID takes the user's row lock, serializing concurrent withdrawal
// requests for the same user so the availability check and the reservation
// insert happen atomically.
func (s *UserStore) LockByID(ctx context.Context, tx Getter, userID string) (UserRow, error) {
	var row UserRow
	err := tx.GetContext(ctx, &row, `
		SELECT id, username, email, password_hash, payout_iban
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, userID)
	if err != nil {
		return UserRow{}, err
	}
	return row, nil
}

func (s *UserStore) SetPayoutIBAN(ctx context.Context, tx Execer, userID, iban string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET payout_iban = $1
		WHERE id = $2
	`, iban, userID)
	return err
}
