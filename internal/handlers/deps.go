package handlers

import (
	"context"

	"investfund/internal/services"
	"investfund/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	GetByEmail(ctx context.Context, email string) (store.UserRow, error)
	GetByID(ctx context.Context, userID string) (store.UserRow, error)
	SetPayoutIBAN(ctx context.Context, tx store.Execer, userID, iban string) error
}

type AdminStore interface {
	IsAdmin(ctx context.Context, userID string) (bool, bool, error)
	HasRole(ctx context.Context, userID, role string) (bool, error)
	CreateAdmin(ctx context.Context, tx store.Execer, userID string, isSuper bool, createdBy *string) error
	HasAnyAdmin(ctx context.Context) (bool, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	List(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

type LedgerStore interface {
	ListByUser(ctx context.Context, userID, kind, status string, limit, offset int) ([]store.LedgerEntryRow, error)
}

type InvestmentStore interface {
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]store.InvestmentRow, error)
}

type ProfitStore interface {
	Insert(ctx context.Context, tx store.Execer, id, userID string, amountCents int64) error
}

type WithdrawalStore interface {
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]store.WithdrawalRow, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]store.WithdrawalRow, error)
}

type BalanceService interface {
	ComputeBalance(ctx context.Context, userID, rangeKey string) (services.BalanceSnapshot, error)
}

type IngestService interface {
	IngestConfirmedPayment(ctx context.Context, sessionID, sessionUserID string) (services.IngestResult, error)
}

type WithdrawalService interface {
	RequestWithdrawal(ctx context.Context, userID string, amountCents int64, method string) (services.RequestResult, error)
	Resolve(ctx context.Context, actorID string, requestID int64, action string) (services.ResolveResult, error)
}
