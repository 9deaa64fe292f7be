package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"investfund/internal/store"

	"github.com/lib/pq"
)

func TestRegisterSuccessReturnsToken(t *testing.T) {
	created := false
	handler := newTestHandler(testDeps{users: stubUserStore{
		createFn: func(_ context.Context, _ store.Execer, _, username, email, _ string) error {
			if username != "investor" || email != "investor@example.com" {
				t.Fatalf("unexpected user %s/%s", username, email)
			}
			created = true
			return nil
		},
	}})

	body := `{"username":"investor","email":"investor@example.com","password":"Str0ngPass!"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if !created {
		t.Fatal("expected user creation")
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp["token"] == "" {
		t.Fatal("expected a token")
	}
}

func TestRegisterDuplicateIsConflict(t *testing.T) {
	handler := newTestHandler(testDeps{users: stubUserStore{
		createFn: func(context.Context, store.Execer, string, string, string, string) error {
			return &pq.Error{Code: "23505"}
		},
	}})

	body := `{"username":"investor","email":"investor@example.com","password":"Str0ngPass!"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestRegisterRejectsWeakInput(t *testing.T) {
	handler := newTestHandler(testDeps{users: stubUserStore{
		createFn: func(context.Context, store.Execer, string, string, string, string) error {
			t.Fatal("no creation for invalid input")
			return nil
		},
	}})

	for _, body := range []string{
		`{"username":"x","email":"investor@example.com","password":"Str0ngPass!"}`,
		`{"username":"investor","email":"not-an-email","password":"Str0ngPass!"}`,
		`{"username":"investor","email":"investor@example.com","password":"short"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
		rr := httptest.NewRecorder()
		handler.Register(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, rr.Code)
		}
	}
}

func TestLoginBadCredentials(t *testing.T) {
	handler := newTestHandler(testDeps{})

	body := `{"email":"investor@example.com","password":"whatever"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Login(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestSetPayoutNormalizesIBAN(t *testing.T) {
	saved := ""
	handler := newTestHandler(testDeps{users: stubUserStore{
		setPayoutFn: func(_ context.Context, _ store.Execer, _, iban string) error {
			saved = iban
			return nil
		},
	}})

	req := authedRequest(t, http.MethodPost, "/auth/payout", `{"iban":"de89 3704 0044 0532 0130 00"}`)
	rr := serveAuthed(handler.SetPayout, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if saved != "DE89370400440532013000" {
		t.Fatalf("expected normalized iban, got %q", saved)
	}
}

func TestSetPayoutRejectsShortIBAN(t *testing.T) {
	handler := newTestHandler(testDeps{})

	req := authedRequest(t, http.MethodPost, "/auth/payout", `{"iban":"DE89"}`)
	rr := serveAuthed(handler.SetPayout, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
