package provider

import "context"

// AmountBreakdown is the resolved gross/fee/net figure for one payment.
// Degraded is set when no balance transaction could be located and the
// session's gross total had to stand in for both gross and net (fee zero);
// such records are flagged for later reconciliation, not rejected.
type AmountBreakdown struct {
	GrossCents int64
	FeeCents   int64
	NetCents   int64
	Degraded   bool
	Source     string
}

// Fetcher is the subset of the provider client the amount chain needs.
type Fetcher interface {
	GetCharge(ctx context.Context, chargeID string) (Charge, error)
	GetBalanceTransaction(ctx context.Context, txnID string) (BalanceTransaction, error)
}

type amountResolution struct {
	api      Fetcher
	session  Session
	chargeID string
	txnID    string
}

// ResolveAmounts walks the fallback chain for a paid session: the balance
// transaction already expanded in the payload, then a charge fetch, then a
// direct balance-transaction fetch, and finally the gross-only degraded
// fallback. Each step runs only if the previous yielded nothing. Provider
// call failures abort the chain; only the absence of ids degrades.
func ResolveAmounts(ctx context.Context, api Fetcher, session Session) (AmountBreakdown, error) {
	r := &amountResolution{api: api, session: session}
	r.seedIDs()
	steps := []func(context.Context) (*BalanceTransaction, string, error){
		r.fromPayload,
		r.fromChargeFetch,
		r.fromTxnFetch,
	}
	for _, step := range steps {
		txn, source, err := step(ctx)
		if err != nil {
			return AmountBreakdown{}, err
		}
		if txn != nil {
			return AmountBreakdown{
				GrossCents: txn.Amount,
				FeeCents:   txn.Fee,
				NetCents:   txn.Net,
				Source:     source,
			}, nil
		}
	}
	return AmountBreakdown{
		GrossCents: r.session.AmountTotal,
		FeeCents:   0,
		NetCents:   r.session.AmountTotal,
		Degraded:   true,
		Source:     "amount_total",
	}, nil
}

func (r *amountResolution) seedIDs() {
	intentRef := r.session.PaymentIntent
	if intentRef == nil || intentRef.Intent == nil {
		return
	}
	chargeRef := intentRef.Intent.LatestCharge
	if chargeRef == nil {
		return
	}
	r.chargeID = chargeRef.ID
	if chargeRef.Charge != nil {
		r.txnID = chargeRef.Charge.BalanceTransaction.ID
	}
}

func (r *amountResolution) fromPayload(context.Context) (*BalanceTransaction, string, error) {
	intentRef := r.session.PaymentIntent
	if intentRef == nil || intentRef.Intent == nil {
		return nil, "", nil
	}
	chargeRef := intentRef.Intent.LatestCharge
	if chargeRef == nil || chargeRef.Charge == nil {
		return nil, "", nil
	}
	return chargeRef.Charge.BalanceTransaction.Txn, "payload", nil
}

func (r *amountResolution) fromChargeFetch(ctx context.Context) (*BalanceTransaction, string, error) {
	if r.chargeID == "" {
		return nil, "", nil
	}
	charge, err := r.api.GetCharge(ctx, r.chargeID)
	if err != nil {
		return nil, "", err
	}
	if charge.BalanceTransaction.Txn != nil {
		return charge.BalanceTransaction.Txn, "charge_fetch", nil
	}
	// Keep the id for the next step if the expansion was not honored.
	if charge.BalanceTransaction.ID != "" {
		r.txnID = charge.BalanceTransaction.ID
	}
	return nil, "", nil
}

func (r *amountResolution) fromTxnFetch(ctx context.Context) (*BalanceTransaction, string, error) {
	if r.txnID == "" {
		return nil, "", nil
	}
	txn, err := r.api.GetBalanceTransaction(ctx, r.txnID)
	if err != nil {
		return nil, "", err
	}
	return &txn, "balance_transaction_fetch", nil
}
