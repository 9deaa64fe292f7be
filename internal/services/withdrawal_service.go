package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"investfund/internal/db"
	"investfund/internal/models"
	"investfund/internal/money"
	"investfund/internal/store"
	"investfund/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrBelowMinimum      = errors.New("amount below withdrawal minimum")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAction     = errors.New("invalid action")
	ErrNotFound          = errors.New("withdrawal request not found")
	ErrAlreadyProcessed  = errors.New("withdrawal request already processed")
)

// Resolution actions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

type WithdrawalRequests interface {
	Create(ctx context.Context, tx store.Getter, input store.WithdrawalInput) (int64, error)
	GetForUpdate(ctx context.Context, tx store.Getter, requestID int64) (store.WithdrawalForUpdate, error)
	MarkResolved(ctx context.Context, tx store.Execer, requestID int64, status string, processedAt time.Time) error
}

type LedgerAppender interface {
	Append(ctx context.Context, tx store.Execer, input store.LedgerEntryInput) error
}

type UserLocker interface {
	LockByID(ctx context.Context, tx store.Getter, userID string) (store.UserRow, error)
}

type BalanceReader interface {
	ComputeBalance(ctx context.Context, userID, rangeKey string) (BalanceSnapshot, error)
}

type AuditTrail interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type BalanceHub interface {
	BroadcastBalance(userID string, update websocket.BalanceUpdate)
}

// WithdrawalService owns the withdrawal request lifecycle: pending at
// creation, then exactly one terminal transition to approved or rejected.
// Funds are reserved by a negative ledger entry at request time and either
// reversed (reject) or confirmed by a zero-amount audit marker (approve);
// the reservation itself is never touched again.
type WithdrawalService struct {
	txRunner     db.TxRunner
	withdrawals  WithdrawalRequests
	ledger       LedgerAppender
	users        UserLocker
	balances     BalanceReader
	audit        AuditTrail
	hub          BalanceHub
	feeRateBps   int
	minimumCents int64
}

func NewWithdrawalService(txRunner db.TxRunner, withdrawals WithdrawalRequests, ledger LedgerAppender, users UserLocker, balances BalanceReader, audit AuditTrail, hub BalanceHub, feeRateBps int, minimumCents int64) *WithdrawalService {
	return &WithdrawalService{
		txRunner:     txRunner,
		withdrawals:  withdrawals,
		ledger:       ledger,
		users:        users,
		balances:     balances,
		audit:        audit,
		hub:          hub,
		feeRateBps:   feeRateBps,
		minimumCents: minimumCents,
	}
}

type RequestResult struct {
	RequestID   int64  `json:"request_id"`
	AmountCents int64  `json:"amount_cents"`
	FeeCents    int64  `json:"fee_cents"`
	TotalCents  int64  `json:"total_cents"`
	Status      string `json:"status"`
}

// RequestWithdrawal reserves amount+fee against the user's available balance
// and records the pending request. The user row lock serializes concurrent
// requests by the same user, so the availability check and the reservation
// insert form one atomic step.
func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, userID string, amountCents int64, method string) (RequestResult, error) {
	if amountCents <= 0 {
		return RequestResult{}, ErrInvalidAmount
	}
	if amountCents < s.minimumCents {
		return RequestResult{}, ErrBelowMinimum
	}
	feeCents := feeOnTop(amountCents, s.feeRateBps)
	totalCents := amountCents + feeCents

	var requestID int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.users.LockByID(ctx, tx, userID); err != nil {
			return err
		}
		snapshot, err := s.balances.ComputeBalance(ctx, userID, RangeAll)
		if err != nil {
			return err
		}
		if snapshot.Withdraw.AvailableCents < totalCents {
			return ErrInsufficientFunds
		}
		requestID, err = s.withdrawals.Create(ctx, tx, store.WithdrawalInput{
			UserID:      userID,
			AmountCents: amountCents,
			FeeCents:    feeCents,
			FeeRateBps:  s.feeRateBps,
			FeeMode:     "on_top",
			Method:      method,
		})
		if err != nil {
			return err
		}
		meta, _ := json.Marshal(map[string]any{
			"request_id": requestID,
			"fee_cents":  feeCents,
			"fee_mode":   "on_top",
		})
		if err := s.ledger.Append(ctx, tx, store.LedgerEntryInput{
			ID:          uuid.NewString(),
			UserID:      userID,
			Kind:        models.KindWithdrawalRequest,
			Status:      models.EntryPending,
			AmountCents: -totalCents,
			Method:      method,
			Meta:        string(meta),
		}); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]any{
			"amount_cents": amountCents,
			"fee_cents":    feeCents,
		})
		return s.audit.Log(ctx, tx, userID, "withdrawal_requested", "withdrawal_request", itoa64(requestID), string(data))
	})
	if err != nil {
		return RequestResult{}, err
	}
	s.broadcastBalance(ctx, userID)
	return RequestResult{
		RequestID:   requestID,
		AmountCents: amountCents,
		FeeCents:    feeCents,
		TotalCents:  totalCents,
		Status:      models.WithdrawalPending,
	}, nil
}

type ResolveResult struct {
	RequestID  int64  `json:"request_id"`
	UserID     string `json:"user_id"`
	Result     string `json:"result"`
	PayoutMode string `json:"payout_mode,omitempty"`
}

// Resolve executes the single terminal transition of a withdrawal request
// inside one transaction with the request row locked. A second resolution
// attempt fails with ErrAlreadyProcessed instead of repeating the effect.
func (s *WithdrawalService) Resolve(ctx context.Context, actorID string, requestID int64, action string) (ResolveResult, error) {
	if action != ActionApprove && action != ActionReject {
		return ResolveResult{}, ErrInvalidAction
	}
	var result ResolveResult
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		request, err := s.withdrawals.GetForUpdate(ctx, tx, requestID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if request.Status != models.WithdrawalPending {
			return ErrAlreadyProcessed
		}
		now := time.Now().UTC()
		totalCents := request.AmountCents + request.FeeCents

		if action == ActionReject {
			if err := s.withdrawals.MarkResolved(ctx, tx, requestID, models.WithdrawalRejected, now); err != nil {
				return err
			}
			meta, _ := json.Marshal(map[string]any{
				"request_id": requestID,
				"fee_cents":  request.FeeCents,
			})
			// Positive reversal of the reservation: funds unblocked.
			if err := s.ledger.Append(ctx, tx, store.LedgerEntryInput{
				ID:          uuid.NewString(),
				UserID:      request.UserID,
				Kind:        models.KindWithdrawalRequest,
				Status:      models.EntryRejected,
				AmountCents: totalCents,
				Method:      request.Method,
				Meta:        string(meta),
			}); err != nil {
				return err
			}
			result = ResolveResult{RequestID: requestID, UserID: request.UserID, Result: models.WithdrawalRejected}
		} else {
			payoutMode := models.PayoutManual
			if request.PayoutIBAN != "" {
				payoutMode = models.PayoutAuto
			}
			if err := s.withdrawals.MarkResolved(ctx, tx, requestID, models.WithdrawalApproved, now); err != nil {
				return err
			}
			meta, _ := json.Marshal(map[string]any{
				"request_id":  requestID,
				"payout_mode": payoutMode,
				"method":      request.Method,
				"amount_eur":  money.CentsToEUR(request.AmountCents),
				"fee_eur":     money.CentsToEUR(request.FeeCents),
			})
			// Zero-amount audit marker: the funds already left the
			// available balance with the reservation and must not be
			// removed twice.
			if err := s.ledger.Append(ctx, tx, store.LedgerEntryInput{
				ID:          uuid.NewString(),
				UserID:      request.UserID,
				Kind:        models.KindWithdrawal,
				Status:      models.EntryApproved,
				AmountCents: 0,
				Method:      request.Method,
				Meta:        string(meta),
			}); err != nil {
				return err
			}
			result = ResolveResult{RequestID: requestID, UserID: request.UserID, Result: models.WithdrawalApproved, PayoutMode: payoutMode}
		}

		data, _ := json.Marshal(map[string]any{
			"action":       action,
			"amount_cents": request.AmountCents,
			"fee_cents":    request.FeeCents,
		})
		return s.audit.Log(ctx, tx, actorID, "withdrawal_"+result.Result, "withdrawal_request", itoa64(requestID), string(data))
	})
	if err != nil {
		return ResolveResult{}, err
	}
	s.broadcastBalance(ctx, result.UserID)
	return result, nil
}

func (s *WithdrawalService) broadcastBalance(ctx context.Context, userID string) {
	if s.hub == nil || userID == "" {
		return
	}
	snapshot, err := s.balances.ComputeBalance(ctx, userID, RangeAll)
	if err != nil {
		log.Printf("withdrawals: balance broadcast skipped for %s: %v", userID, err)
		return
	}
	s.hub.BroadcastBalance(userID, websocket.BalanceUpdate{
		Available:      money.FormatMinor(snapshot.Withdraw.AvailableCents),
		AvailableCents: snapshot.Withdraw.AvailableCents,
		GrossCents:     snapshot.Withdraw.GrossCents,
		PendingCents:   snapshot.Withdraw.PendingCents,
	})
}

func feeOnTop(amountCents int64, rateBps int) int64 {
	return (amountCents*int64(rateBps) + 5000) / 10000
}

func itoa64(value int64) string {
	return strconv.FormatInt(value, 10)
}
