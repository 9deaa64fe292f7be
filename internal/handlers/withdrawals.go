package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"investfund/internal/middleware"
	"investfund/internal/models"
	"investfund/internal/money"
	"investfund/internal/services"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type createWithdrawalRequest struct {
	Amount string `json:"amount"`
	Method string `json:"method"`
}

func (h *Handler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amountCents, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	method := strings.TrimSpace(req.Method)
	if method == "" {
		method = "bank_transfer"
	}
	result, err := h.settlement.RequestWithdrawal(r.Context(), userID, amountCents, method)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidAmount):
			respondError(w, http.StatusBadRequest, "invalid amount")
		case errors.Is(err, services.ErrBelowMinimum):
			respondError(w, http.StatusBadRequest, "amount below minimum")
		case errors.Is(err, services.ErrInsufficientFunds):
			respondError(w, http.StatusUnprocessableEntity, "insufficient_funds")
		default:
			log.Printf("withdrawals: request failed for user %s: %v", userID, err)
			respondError(w, http.StatusInternalServerError, "unable to create withdrawal")
		}
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (h *Handler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	query := r.URL.Query()
	page := parseInt(query.Get("page"), 1)
	limit := parseInt(query.Get("limit"), 20)
	offset := (page - 1) * limit
	rows, err := h.withdrawals.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load withdrawals")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) AdminListWithdrawals(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	status := query.Get("status")
	if status == "" {
		status = models.WithdrawalPending
	}
	page := parseInt(query.Get("page"), 1)
	limit := parseInt(query.Get("limit"), 50)
	offset := (page - 1) * limit
	rows, err := h.withdrawals.ListByStatus(r.Context(), status, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load withdrawals")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

type resolveWithdrawalRequest struct {
	RequestID int64  `json:"request_id"`
	Action    string `json:"action"`
}

func (h *Handler) ResolveWithdrawal(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req resolveWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	result, err := h.settlement.Resolve(r.Context(), actorID, req.RequestID, req.Action)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidAction):
			respondError(w, http.StatusBadRequest, "invalid action")
		case errors.Is(err, services.ErrNotFound):
			respondError(w, http.StatusNotFound, "not_found")
		case errors.Is(err, services.ErrAlreadyProcessed):
			respondError(w, http.StatusConflict, "already_processed")
		default:
			log.Printf("withdrawals: resolution of request %d failed: %v", req.RequestID, err)
			respondError(w, http.StatusInternalServerError, "unable to resolve withdrawal")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"ok":          true,
		"request_id":  result.RequestID,
		"user_id":     result.UserID,
		"result":      result.Result,
		"payout_mode": result.PayoutMode,
	})
}

type createProfitRequest struct {
	UserID string `json:"user_id"`
	Amount string `json:"amount"`
}

// AdminCreateProfit records a profit distribution for a user. Negative
// amounts are allowed so losses can be booked through the same path.
func (h *Handler) AdminCreateProfit(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createProfitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amountCents, err := money.ParseMinor(req.Amount)
	if err != nil || amountCents == 0 {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	if _, err := h.users.GetByID(r.Context(), req.UserID); err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	profitID := uuid.NewString()
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.profits.Insert(r.Context(), tx, profitID, req.UserID, amountCents); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]any{"amount_cents": amountCents})
		return h.audit.Log(r.Context(), tx, actorID, "profit_distributed", "profit_distribution", profitID, string(data))
	})
	if err != nil {
		log.Printf("profits: distribution for user %s failed: %v", req.UserID, err)
		respondError(w, http.StatusInternalServerError, "unable to record profit")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"id":           profitID,
		"user_id":      req.UserID,
		"amount_cents": amountCents,
	})
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := parseInt(query.Get("page"), 1)
	limit := parseInt(query.Get("limit"), 50)
	offset := (page - 1) * limit
	rows, err := h.audit.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load audit logs")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}
