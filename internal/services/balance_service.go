package services

import (
	"context"
	"errors"
	"time"

	"investfund/internal/models"
	"investfund/internal/money"
)

var ErrUnknownRange = errors.New("unknown balance range")

// Range keys accepted by the dashboard.
const (
	RangeToday = "today"
	RangeAll   = "all"
)

type InvestmentSums interface {
	SumSucceededByUser(ctx context.Context, userID string, from, to *time.Time) (int64, error)
}

type ProfitSums interface {
	SumByUser(ctx context.Context, userID string, from, to *time.Time) (int64, error)
}

type ReservationSums interface {
	SumReservations(ctx context.Context, userID, requestStatus string, before *time.Time) (int64, error)
}

// BalanceService derives every balance figure from the ledger and the raw
// investment/profit tables on demand. It never writes and never caches;
// every read recomputes from durable state so concurrent writers can never
// leave a stale counter behind.
type BalanceService struct {
	investments InvestmentSums
	profits     ProfitSums
	ledger      ReservationSums
	now         func() time.Time
}

func NewBalanceService(investments InvestmentSums, profits ProfitSums, ledger ReservationSums) *BalanceService {
	return &BalanceService{
		investments: investments,
		profits:     profits,
		ledger:      ledger,
		now:         time.Now,
	}
}

type WithdrawSummary struct {
	GrossCents         int64  `json:"gross_cents"`
	PendingCents       int64  `json:"pending_cents"`
	AvailableCents     int64  `json:"available_cents"`
	ApprovedOutCents   int64  `json:"approved_out_cents"`
	InvestedTotalCents int64  `json:"invested_total_cents"`
	ProfitTotalCents   int64  `json:"profit_total_cents"`
	AvailableEUR       string `json:"available_eur"`
}

type BalanceSnapshot struct {
	Range         string          `json:"range"`
	OpeningCents  int64           `json:"opening_cents"`
	ClosingCents  int64           `json:"closing_cents"`
	DisplayCents  int64           `json:"display_cents"`
	InvestedCents int64           `json:"invested_cents"`
	ProfitCents   int64           `json:"profit_cents"`
	ReturnPct     float64         `json:"return_pct"`
	Withdraw      WithdrawSummary `json:"withdraw"`
}

// ComputeBalance is a pure read; it is safe to call concurrently and
// arbitrarily often. Every subtraction is clamped at zero: the underlying
// signed sums may go negative, the returned figures never do.
func (s *BalanceService) ComputeBalance(ctx context.Context, userID, rangeKey string) (BalanceSnapshot, error) {
	if rangeKey != RangeToday && rangeKey != RangeAll {
		return BalanceSnapshot{}, ErrUnknownRange
	}

	invested, err := s.investments.SumSucceededByUser(ctx, userID, nil, nil)
	if err != nil {
		return BalanceSnapshot{}, err
	}
	profit, err := s.profits.SumByUser(ctx, userID, nil, nil)
	if err != nil {
		return BalanceSnapshot{}, err
	}
	approvedOut, err := s.ledger.SumReservations(ctx, userID, models.WithdrawalApproved, nil)
	if err != nil {
		return BalanceSnapshot{}, err
	}
	pendingLock, err := s.ledger.SumReservations(ctx, userID, models.WithdrawalPending, nil)
	if err != nil {
		return BalanceSnapshot{}, err
	}

	gross := clampZero(invested + profit - approvedOut)
	available := clampZero(gross - pendingLock)

	snapshot := BalanceSnapshot{
		Range: rangeKey,
		Withdraw: WithdrawSummary{
			GrossCents:         gross,
			PendingCents:       pendingLock,
			AvailableCents:     available,
			ApprovedOutCents:   approvedOut,
			InvestedTotalCents: invested,
			ProfitTotalCents:   profit,
			AvailableEUR:       money.CentsToEUR(available),
		},
	}

	if rangeKey == RangeAll {
		// The "all" window reports absolute totals from a zero opening
		// balance rather than a delta from a baseline.
		snapshot.InvestedCents = invested
		snapshot.ProfitCents = profit
		snapshot.ClosingCents = invested + profit
		snapshot.DisplayCents = snapshot.ClosingCents
		return snapshot, nil
	}

	start := startOfDayUTC(s.now())
	openInvested, err := s.investments.SumSucceededByUser(ctx, userID, nil, &start)
	if err != nil {
		return BalanceSnapshot{}, err
	}
	openProfit, err := s.profits.SumByUser(ctx, userID, nil, &start)
	if err != nil {
		return BalanceSnapshot{}, err
	}
	openApprovedOut, err := s.ledger.SumReservations(ctx, userID, models.WithdrawalApproved, &start)
	if err != nil {
		return BalanceSnapshot{}, err
	}
	windowInvested, err := s.investments.SumSucceededByUser(ctx, userID, &start, nil)
	if err != nil {
		return BalanceSnapshot{}, err
	}
	windowProfit, err := s.profits.SumByUser(ctx, userID, &start, nil)
	if err != nil {
		return BalanceSnapshot{}, err
	}

	opening := clampZero(openInvested + openProfit - openApprovedOut)
	snapshot.OpeningCents = opening
	snapshot.InvestedCents = windowInvested
	snapshot.ProfitCents = windowProfit
	snapshot.ClosingCents = opening + windowInvested + windowProfit
	snapshot.DisplayCents = snapshot.ClosingCents
	if opening > 0 {
		snapshot.ReturnPct = float64(windowProfit) / float64(opening) * 100
	}
	return snapshot, nil
}

func clampZero(value int64) int64 {
	if value < 0 {
		return 0
	}
	return value
}

func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
