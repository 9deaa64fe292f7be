package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"regexp"
	"strings"

	"investfund/internal/db"
	"investfund/internal/models"
	"investfund/internal/money"
	"investfund/internal/provider"
	"investfund/internal/store"
	"investfund/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrInvalidSessionID = errors.New("invalid session id")

var sessionIDPattern = regexp.MustCompile(`^cs_[A-Za-z0-9_]+$`)

// Ingestion outcomes.
const (
	IngestPending   = "pending"
	IngestSucceeded = "succeeded"
)

type ProviderAPI interface {
	GetCheckoutSession(ctx context.Context, sessionID string) (provider.Session, error)
	provider.Fetcher
}

type InvestmentRecords interface {
	Insert(ctx context.Context, tx store.Execer, input store.InvestmentInput) (bool, error)
	GetByProviderIDs(ctx context.Context, paymentIntentID, checkoutSessionID string) (store.InvestmentRow, error)
}

type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (store.UserRow, error)
}

// IngestService turns confirmed provider payments into investment records,
// exactly once per real-world payment. It is safe to invoke arbitrarily many
// times for the same session: redeliveries return the already-recorded
// amounts without writing.
type IngestService struct {
	txRunner    db.TxRunner
	investments InvestmentRecords
	users       UserDirectory
	audit       AuditTrail
	api         ProviderAPI
	balances    BalanceReader
	hub         BalanceHub
}

func NewIngestService(txRunner db.TxRunner, investments InvestmentRecords, users UserDirectory, audit AuditTrail, api ProviderAPI, balances BalanceReader, hub BalanceHub) *IngestService {
	return &IngestService{
		txRunner:    txRunner,
		investments: investments,
		users:       users,
		audit:       audit,
		api:         api,
		balances:    balances,
		hub:         hub,
	}
}

type IngestResult struct {
	Status          string `json:"status"`
	InvestmentID    string `json:"investment_id,omitempty"`
	UserID          string `json:"user_id,omitempty"`
	AmountCents     int64  `json:"amount"`
	GrossCents      int64  `json:"gross"`
	FeeCents        int64  `json:"fee"`
	Degraded        bool   `json:"degraded,omitempty"`
	AlreadyRecorded bool   `json:"already_recorded,omitempty"`
}

type investmentMetadata struct {
	GrossCents        int64  `json:"gross_cents"`
	FeeCents          int64  `json:"fee_cents"`
	NetCents          int64  `json:"net_cents"`
	AmountSource      string `json:"amount_source"`
	Degraded          bool   `json:"degraded,omitempty"`
	RawPaymentStatus  string `json:"raw_payment_status"`
	CheckoutSessionID string `json:"checkout_session_id"`
}

// IngestConfirmedPayment fetches the provider session, resolves the
// gross/fee/net breakdown through the fallback chain and records the NET
// amount as the user's investment. An unpaid session yields a pending result
// with no side effects so a polling caller can simply retry.
func (s *IngestService) IngestConfirmedPayment(ctx context.Context, sessionID, sessionUserID string) (IngestResult, error) {
	if !sessionIDPattern.MatchString(sessionID) {
		return IngestResult{}, ErrInvalidSessionID
	}
	session, err := s.api.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return IngestResult{}, err
	}
	if !session.Paid() {
		return IngestResult{Status: IngestPending}, nil
	}
	paymentIntentID := session.PaymentIntentID()

	existing, err := s.investments.GetByProviderIDs(ctx, paymentIntentID, sessionID)
	if err == nil {
		return resultFromRow(existing, true), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return IngestResult{}, err
	}

	amounts, err := provider.ResolveAmounts(ctx, s.api, session)
	if err != nil {
		return IngestResult{}, err
	}
	if amounts.Degraded {
		log.Printf("payments: no balance transaction resolved for session %s, recording gross %d as net", sessionID, amounts.GrossCents)
	}

	userID := s.resolveUser(ctx, session, sessionUserID)

	metadata, _ := json.Marshal(investmentMetadata{
		GrossCents:        amounts.GrossCents,
		FeeCents:          amounts.FeeCents,
		NetCents:          amounts.NetCents,
		AmountSource:      amounts.Source,
		Degraded:          amounts.Degraded,
		RawPaymentStatus:  session.PaymentStatus,
		CheckoutSessionID: sessionID,
	})
	currency := session.Currency
	if currency == "" {
		currency = "eur"
	}
	investmentID := uuid.NewString()
	var row store.InvestmentRow
	duplicate := false
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		inserted, err := s.investments.Insert(ctx, tx, store.InvestmentInput{
			ID:                investmentID,
			UserID:            userID,
			PaymentIntentID:   paymentIntentID,
			CheckoutSessionID: sessionID,
			AmountCents:       amounts.NetCents,
			Currency:          currency,
			Status:            models.InvestmentSucceeded,
			Metadata:          string(metadata),
		})
		if err != nil {
			return err
		}
		if !inserted {
			// A concurrent delivery of the same confirmation won the
			// unique-constraint race; adopt its record.
			winner, err := s.investments.GetByProviderIDs(ctx, paymentIntentID, sessionID)
			if err != nil {
				return err
			}
			row = winner
			duplicate = true
			return nil
		}
		actor := "system"
		if userID != nil {
			actor = *userID
		}
		data, _ := json.Marshal(map[string]any{
			"session_id":  sessionID,
			"gross_cents": amounts.GrossCents,
			"fee_cents":   amounts.FeeCents,
			"net_cents":   amounts.NetCents,
			"net_eur":     money.CentsToEUR(amounts.NetCents),
			"degraded":    amounts.Degraded,
		})
		return s.audit.Log(ctx, tx, actor, "payment_ingested", "investment", investmentID, string(data))
	})
	if err != nil {
		return IngestResult{}, err
	}
	if duplicate {
		return resultFromRow(row, true), nil
	}
	if userID != nil {
		s.broadcastBalance(ctx, *userID)
	}
	return IngestResult{
		Status:       IngestSucceeded,
		InvestmentID: investmentID,
		UserID:       derefOrEmpty(userID),
		AmountCents:  amounts.NetCents,
		GrossCents:   amounts.GrossCents,
		FeeCents:     amounts.FeeCents,
		Degraded:     amounts.Degraded,
	}, nil
}

// resolveUser walks the identity fallback chain: explicit metadata user id,
// then the authenticated caller, then a lookup by the payer's email. An
// unresolved user is logged but never fails the ingestion; funds are
// recorded and linkage can be corrected later.
func (s *IngestService) resolveUser(ctx context.Context, session provider.Session, sessionUserID string) *string {
	if id := strings.TrimSpace(session.Metadata["user_id"]); id != "" {
		return &id
	}
	if sessionUserID != "" {
		return &sessionUserID
	}
	if email := session.Email(); email != "" {
		user, err := s.users.GetByEmail(ctx, email)
		if err == nil {
			return &user.ID
		}
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("payments: email lookup failed for session %s: %v", session.ID, err)
		}
	}
	log.Printf("payments: no user resolved for session %s, recording without linkage", session.ID)
	return nil
}

func (s *IngestService) broadcastBalance(ctx context.Context, userID string) {
	if s.hub == nil {
		return
	}
	snapshot, err := s.balances.ComputeBalance(ctx, userID, RangeAll)
	if err != nil {
		log.Printf("payments: balance broadcast skipped for %s: %v", userID, err)
		return
	}
	s.hub.BroadcastBalance(userID, websocket.BalanceUpdate{
		Available:      money.FormatMinor(snapshot.Withdraw.AvailableCents),
		AvailableCents: snapshot.Withdraw.AvailableCents,
		GrossCents:     snapshot.Withdraw.GrossCents,
		PendingCents:   snapshot.Withdraw.PendingCents,
	})
}

func resultFromRow(row store.InvestmentRow, alreadyRecorded bool) IngestResult {
	var meta investmentMetadata
	_ = json.Unmarshal([]byte(row.Metadata), &meta)
	return IngestResult{
		Status:          IngestSucceeded,
		InvestmentID:    row.ID,
		UserID:          derefOrEmpty(row.UserID),
		AmountCents:     row.AmountCents,
		GrossCents:      meta.GrossCents,
		FeeCents:        meta.FeeCents,
		Degraded:        meta.Degraded,
		AlreadyRecorded: alreadyRecorded,
	}
}

func derefOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
