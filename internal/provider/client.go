package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// APIError is a non-2xx answer from the payment provider. The status and raw
// body are kept for logging; callers treat these failures as retryable.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider API error: status %d: %s", e.StatusCode, e.Body)
}

// Client is a thin adapter over the provider's REST API (charge and
// balance-transaction lookup). Every call carries the client's bounded
// timeout in addition to the caller's context.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (Session, error) {
	var session Session
	params := url.Values{}
	params.Add("expand[]", "payment_intent.latest_charge.balance_transaction")
	err := c.get(ctx, "/checkout/sessions/"+url.PathEscape(sessionID), params, &session)
	return session, err
}

func (c *Client) GetCharge(ctx context.Context, chargeID string) (Charge, error) {
	var charge Charge
	params := url.Values{}
	params.Add("expand[]", "balance_transaction")
	err := c.get(ctx, "/charges/"+url.PathEscape(chargeID), params, &charge)
	return charge, err
}

func (c *Client) GetBalanceTransaction(ctx context.Context, txnID string) (BalanceTransaction, error) {
	var txn BalanceTransaction
	err := c.get(ctx, "/balance_transactions/"+url.PathEscape(txnID), nil, &txn)
	return txn, err
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dest any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return json.Unmarshal(body, dest)
}
