package models

import "time"

type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	PayoutIBAN   string    `db:"payout_iban" json:"payout_iban,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// LedgerEntry is an immutable, signed-amount record of a balance-affecting
// event. Negative amounts reserve or remove funds, positive amounts release
// or add them. Entries are never updated or deleted.
type LedgerEntry struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Kind        string    `db:"kind" json:"kind"`
	Status      string    `db:"status" json:"status"`
	AmountCents int64     `db:"amount_cents" json:"amount_cents"`
	Method      string    `db:"method" json:"method"`
	Meta        string    `db:"meta" json:"meta"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type InvestmentRecord struct {
	ID                string    `db:"id" json:"id"`
	UserID            *string   `db:"user_id" json:"user_id,omitempty"`
	PaymentIntentID   string    `db:"payment_intent_id" json:"payment_intent_id"`
	CheckoutSessionID string    `db:"checkout_session_id" json:"checkout_session_id"`
	AmountCents       int64     `db:"amount_cents" json:"amount_cents"`
	Currency          string    `db:"currency" json:"currency"`
	Status            string    `db:"status" json:"status"`
	Metadata          string    `db:"metadata" json:"metadata"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

type ProfitDistribution struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	AmountCents int64     `db:"amount_cents" json:"amount_cents"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type WithdrawalRequest struct {
	ID          int64      `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"user_id"`
	AmountCents int64      `db:"amount_cents" json:"amount_cents"`
	FeeCents    int64      `db:"fee_cents" json:"fee_cents"`
	FeeRateBps  int        `db:"fee_rate_bps" json:"fee_rate_bps"`
	FeeMode     string     `db:"fee_mode" json:"fee_mode"`
	Method      string     `db:"method" json:"method"`
	Status      string     `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	ProcessedAt *time.Time `db:"processed_at" json:"processed_at,omitempty"`
}

// Ledger entry kinds.
const (
	KindWithdrawalRequest = "WITHDRAWAL_REQUEST"
	KindWithdrawal        = "WITHDRAWAL"
)

// Ledger entry statuses.
const (
	EntryPending  = "PENDING"
	EntryApproved = "APPROVED"
	EntryRejected = "REJECTED"
)

// Withdrawal request statuses. pending is the only non-terminal state.
const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
	WithdrawalRejected = "rejected"
)

// Payout modes stamped on approval entries.
const (
	PayoutAuto   = "auto"
	PayoutManual = "manual"
)

// InvestmentSucceeded is the only terminal investment status modeled.
const InvestmentSucceeded = "succeeded"
