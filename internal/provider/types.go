package provider

import "encoding/json"

// BalanceTransaction is the provider's authoritative gross/fee/net breakdown
// for a settled charge. All amounts are integer cents.
type BalanceTransaction struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Fee    int64  `json:"fee"`
	Net    int64  `json:"net"`
}

type Charge struct {
	ID                 string                `json:"id"`
	Amount             int64                 `json:"amount"`
	Status             string                `json:"status"`
	BalanceTransaction BalanceTransactionRef `json:"balance_transaction"`
}

type PaymentIntent struct {
	ID           string     `json:"id"`
	Amount       int64      `json:"amount"`
	Status       string     `json:"status"`
	LatestCharge *ChargeRef `json:"latest_charge"`
}

type CustomerDetails struct {
	Email string `json:"email"`
}

// Session is a checkout session as returned by the provider, requested with
// payment_intent.latest_charge.balance_transaction expanded. Whether the
// expansions were honored is not assumed; the refs below keep bare ids when
// the provider returns strings instead of objects.
type Session struct {
	ID              string            `json:"id"`
	Status          string            `json:"status"`
	PaymentStatus   string            `json:"payment_status"`
	AmountTotal     int64             `json:"amount_total"`
	Currency        string            `json:"currency"`
	CustomerEmail   string            `json:"customer_email"`
	CustomerDetails *CustomerDetails  `json:"customer_details"`
	Metadata        map[string]string `json:"metadata"`
	PaymentIntent   *PaymentIntentRef `json:"payment_intent"`
}

// Paid reports whether the session reflects a completed payment.
func (s Session) Paid() bool {
	return s.PaymentStatus == "paid"
}

func (s Session) Email() string {
	if s.CustomerDetails != nil && s.CustomerDetails.Email != "" {
		return s.CustomerDetails.Email
	}
	return s.CustomerEmail
}

func (s Session) PaymentIntentID() string {
	if s.PaymentIntent == nil {
		return ""
	}
	return s.PaymentIntent.ID
}

// PaymentIntentRef, ChargeRef and BalanceTransactionRef model the provider's
// expandable fields: a plain string id when unexpanded, a full object when
// expanded.
type PaymentIntentRef struct {
	ID     string
	Intent *PaymentIntent
}

func (r *PaymentIntentRef) UnmarshalJSON(data []byte) error {
	if isJSONString(data) {
		return json.Unmarshal(data, &r.ID)
	}
	var intent PaymentIntent
	if err := json.Unmarshal(data, &intent); err != nil {
		return err
	}
	r.Intent = &intent
	r.ID = intent.ID
	return nil
}

type ChargeRef struct {
	ID     string
	Charge *Charge
}

func (r *ChargeRef) UnmarshalJSON(data []byte) error {
	if isJSONString(data) {
		return json.Unmarshal(data, &r.ID)
	}
	var charge Charge
	if err := json.Unmarshal(data, &charge); err != nil {
		return err
	}
	r.Charge = &charge
	r.ID = charge.ID
	return nil
}

type BalanceTransactionRef struct {
	ID  string
	Txn *BalanceTransaction
}

func (r *BalanceTransactionRef) UnmarshalJSON(data []byte) error {
	if isJSONString(data) {
		return json.Unmarshal(data, &r.ID)
	}
	var txn BalanceTransaction
	if err := json.Unmarshal(data, &txn); err != nil {
		return err
	}
	r.Txn = &txn
	r.ID = txn.ID
	return nil
}

func isJSONString(data []byte) bool {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '"':
			return true
		default:
			return false
		}
	}
	return false
}
