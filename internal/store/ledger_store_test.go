package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"investfund/internal/models"
)

func TestLedgerStoreAppend(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO ledger_tx") {
				t.Fatalf("unexpected query: %s", query)
			}
			if args[2] != models.KindWithdrawalRequest || args[3] != models.EntryPending {
				t.Fatalf("unexpected kind/status args: %#v", args)
			}
			if args[4] != int64(-10150) {
				t.Fatalf("unexpected amount arg: %#v", args[4])
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewLedgerStore(stubDB{})
	err := store.Append(ctx, execer, LedgerEntryInput{
		ID:          "e1",
		UserID:      "user-1",
		Kind:        models.KindWithdrawalRequest,
		Status:      models.EntryPending,
		AmountCents: -10150,
		Method:      "bank_transfer",
		Meta:        `{"request_id":42}`,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLedgerStoreAppendDefaultsMeta(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, _ string, args ...any) (sql.Result, error) {
			if args[6] != "{}" {
				t.Fatalf("expected empty meta to default to {}, got %#v", args[6])
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewLedgerStore(stubDB{})
	if err := store.Append(ctx, execer, LedgerEntryInput{ID: "e1", UserID: "user-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLedgerStoreListByUserFilters(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(stubDB{
		selectFn: func(_ context.Context, _ any, query string, args ...any) error {
			if !strings.Contains(query, "FROM ledger_tx") {
				t.Fatalf("unexpected query: %s", query)
			}
			if !strings.Contains(query, "AND kind = $2") || !strings.Contains(query, "AND status = $3") {
				t.Fatalf("expected filter clauses: %s", query)
			}
			if !strings.Contains(query, "ORDER BY created_at ASC") {
				t.Fatalf("expected insertion order: %s", query)
			}
			if len(args) != 5 || args[1] != models.KindWithdrawal || args[2] != models.EntryApproved {
				t.Fatalf("unexpected args: %#v", args)
			}
			return nil
		},
	})
	if _, err := store.ListByUser(ctx, "user-1", models.KindWithdrawal, models.EntryApproved, 50, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLedgerStoreSumReservations(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "JOIN withdrawal_requests") {
				t.Fatalf("expected join on withdrawal_requests: %s", query)
			}
			if !strings.Contains(query, "SUM(-l.amount_cents)") {
				t.Fatalf("expected sign flip in sum: %s", query)
			}
			if len(args) != 2 || args[1] != models.WithdrawalPending {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*int64) = 10150
			return nil
		},
	})
	sum, err := store.SumReservations(ctx, "user-1", models.WithdrawalPending, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum != 10150 {
		t.Fatalf("unexpected sum: %d", sum)
	}
}

func TestLedgerStoreSumReservationsBounded(t *testing.T) {
	ctx := context.Background()
	bound := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	store := NewLedgerStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "l.created_at < $3") {
				t.Fatalf("expected time bound clause: %s", query)
			}
			if len(args) != 3 || args[2] != bound {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*int64) = 0
			return nil
		},
	})
	if _, err := store.SumReservations(ctx, "user-1", models.WithdrawalApproved, &bound); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
