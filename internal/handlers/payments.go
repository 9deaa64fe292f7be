package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"investfund/internal/middleware"
	"investfund/internal/provider"
	"investfund/internal/services"
)

type ingestRequest struct {
	SessionID string `json:"session_id"`
}

// IngestPayment is the polling entry point for checkout confirmations: 202
// while the provider has not confirmed the payment, 200 with the recorded
// amounts once it has. Redeliveries are safe and return the same figures.
func (h *Handler) IngestPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	result, err := h.ingest.IngestConfirmedPayment(r.Context(), req.SessionID, userID)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSessionID) {
			respondError(w, http.StatusBadRequest, "invalid_session_id")
			return
		}
		var apiErr *provider.APIError
		if errors.As(err, &apiErr) {
			log.Printf("payments: provider lookup failed: %v", apiErr)
			respondError(w, http.StatusBadGateway, "provider_error")
			return
		}
		log.Printf("payments: ingestion failed for session %s: %v", req.SessionID, err)
		respondError(w, http.StatusInternalServerError, "ingest_failed")
		return
	}
	if result.Status == services.IngestPending {
		respondJSON(w, http.StatusAccepted, map[string]string{"status": services.IngestPending})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  result.Status,
		"amount":  result.AmountCents,
		"gross":   result.GrossCents,
		"fee":     result.FeeCents,
		"user_id": result.UserID,
	})
}
