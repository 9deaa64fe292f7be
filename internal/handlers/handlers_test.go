package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"investfund/internal/auth"
	"investfund/internal/config"
	"investfund/internal/middleware"
	"investfund/internal/services"
	"investfund/internal/store"
	"investfund/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn     func(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	getByEmailFn func(ctx context.Context, email string) (store.UserRow, error)
	getByIDFn    func(ctx context.Context, userID string) (store.UserRow, error)
	setPayoutFn  func(ctx context.Context, tx store.Execer, userID, iban string) error
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, username, email, passwordHash)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (store.UserRow, error) {
	if s.getByEmailFn == nil {
		return store.UserRow{}, sql.ErrNoRows
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (store.UserRow, error) {
	if s.getByIDFn == nil {
		return store.UserRow{ID: userID}, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) SetPayoutIBAN(ctx context.Context, tx store.Execer, userID, iban string) error {
	if s.setPayoutFn == nil {
		return nil
	}
	return s.setPayoutFn(ctx, tx, userID, iban)
}

type stubAdminStore struct {
	isAdminFn func(ctx context.Context, userID string) (bool, bool, error)
}

func (s stubAdminStore) IsAdmin(ctx context.Context, userID string) (bool, bool, error) {
	if s.isAdminFn == nil {
		return false, false, nil
	}
	return s.isAdminFn(ctx, userID)
}

func (s stubAdminStore) HasRole(ctx context.Context, userID, role string) (bool, error) {
	isAdmin, _, err := s.IsAdmin(ctx, userID)
	return isAdmin, err
}

func (s stubAdminStore) CreateAdmin(context.Context, store.Execer, string, bool, *string) error {
	return nil
}

func (s stubAdminStore) HasAnyAdmin(context.Context) (bool, error) {
	return true, nil
}

type stubAuditStore struct {
	logFn  func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	listFn func(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

func (s stubAuditStore) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, limit, offset)
}

type stubLedgerStore struct {
	listFn func(ctx context.Context, userID, kind, status string, limit, offset int) ([]store.LedgerEntryRow, error)
}

func (s stubLedgerStore) ListByUser(ctx context.Context, userID, kind, status string, limit, offset int) ([]store.LedgerEntryRow, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID, kind, status, limit, offset)
}

type stubInvestmentStore struct {
	listFn func(ctx context.Context, userID string, limit, offset int) ([]store.InvestmentRow, error)
}

func (s stubInvestmentStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]store.InvestmentRow, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID, limit, offset)
}

type stubProfitStore struct {
	insertFn func(ctx context.Context, tx store.Execer, id, userID string, amountCents int64) error
}

func (s stubProfitStore) Insert(ctx context.Context, tx store.Execer, id, userID string, amountCents int64) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, tx, id, userID, amountCents)
}

type stubWithdrawalStore struct {
	listByUserFn   func(ctx context.Context, userID string, limit, offset int) ([]store.WithdrawalRow, error)
	listByStatusFn func(ctx context.Context, status string, limit, offset int) ([]store.WithdrawalRow, error)
}

func (s stubWithdrawalStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]store.WithdrawalRow, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, limit, offset)
}

func (s stubWithdrawalStore) ListByStatus(ctx context.Context, status string, limit, offset int) ([]store.WithdrawalRow, error) {
	if s.listByStatusFn == nil {
		return nil, nil
	}
	return s.listByStatusFn(ctx, status, limit, offset)
}

type stubBalanceService struct {
	computeFn func(ctx context.Context, userID, rangeKey string) (services.BalanceSnapshot, error)
}

func (s stubBalanceService) ComputeBalance(ctx context.Context, userID, rangeKey string) (services.BalanceSnapshot, error) {
	if s.computeFn == nil {
		return services.BalanceSnapshot{Range: rangeKey}, nil
	}
	return s.computeFn(ctx, userID, rangeKey)
}

type stubIngestService struct {
	ingestFn func(ctx context.Context, sessionID, sessionUserID string) (services.IngestResult, error)
}

func (s stubIngestService) IngestConfirmedPayment(ctx context.Context, sessionID, sessionUserID string) (services.IngestResult, error) {
	return s.ingestFn(ctx, sessionID, sessionUserID)
}

type stubWithdrawalService struct {
	requestFn func(ctx context.Context, userID string, amountCents int64, method string) (services.RequestResult, error)
	resolveFn func(ctx context.Context, actorID string, requestID int64, action string) (services.ResolveResult, error)
}

func (s stubWithdrawalService) RequestWithdrawal(ctx context.Context, userID string, amountCents int64, method string) (services.RequestResult, error) {
	return s.requestFn(ctx, userID, amountCents, method)
}

func (s stubWithdrawalService) Resolve(ctx context.Context, actorID string, requestID int64, action string) (services.ResolveResult, error) {
	return s.resolveFn(ctx, actorID, requestID, action)
}

type testDeps struct {
	users       UserStore
	admins      AdminStore
	audit       AuditStore
	ledger      LedgerStore
	investments InvestmentStore
	profits     ProfitStore
	withdrawals WithdrawalStore
	balances    BalanceService
	ingest      IngestService
	settlement  WithdrawalService
}

func newTestHandler(deps testDeps) *Handler {
	if deps.users == nil {
		deps.users = stubUserStore{}
	}
	if deps.admins == nil {
		deps.admins = stubAdminStore{}
	}
	if deps.audit == nil {
		deps.audit = stubAuditStore{}
	}
	if deps.ledger == nil {
		deps.ledger = stubLedgerStore{}
	}
	if deps.investments == nil {
		deps.investments = stubInvestmentStore{}
	}
	if deps.profits == nil {
		deps.profits = stubProfitStore{}
	}
	if deps.withdrawals == nil {
		deps.withdrawals = stubWithdrawalStore{}
	}
	if deps.balances == nil {
		deps.balances = stubBalanceService{}
	}
	cfg := config.Config{JWTSecret: "secret", TokenTTL: time.Minute}
	return New(fakeTxRunner{}, cfg, deps.users, deps.admins, deps.audit, deps.ledger, deps.investments, deps.profits, deps.withdrawals, deps.balances, deps.ingest, deps.settlement, websocket.NewHub())
}

func authedRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	token, err := auth.GenerateToken("secret", "user-1", time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func serveAuthed(handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	middleware.Auth("secret")(handler).ServeHTTP(rr, req)
	return rr
}
