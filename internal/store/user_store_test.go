package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

func TestUserStoreCreate(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO users") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 4 || args[1] != "investor" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewUserStore(stubDB{})
	if err := store.Create(ctx, execer, "u1", "investor", "investor@example.com", "hash"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUserStoreGetByEmail(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "WHERE email = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			row := dest.(*UserRow)
			row.ID = "u1"
			row.Email = args[0].(string)
			return nil
		},
	})
	row, err := store.GetByEmail(ctx, "investor@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.ID != "u1" || row.Email != "investor@example.com" {
		t.Fatalf("unexpected row: %+v", row)
	}
}

func TestUserStoreLockByID(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FOR UPDATE") {
				t.Fatalf("expected row lock: %s", query)
			}
			dest.(*UserRow).ID = args[0].(string)
			return nil
		},
	}
	store := NewUserStore(stubDB{})
	row, err := store.LockByID(ctx, getter, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.ID != "u1" {
		t.Fatalf("unexpected row: %+v", row)
	}
}

func TestUserStoreSetPayoutIBAN(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "SET payout_iban = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			if args[0] != "DE89370400440532013000" || args[1] != "u1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewUserStore(stubDB{})
	if err := store.SetPayoutIBAN(ctx, execer, "u1", "DE89370400440532013000"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
