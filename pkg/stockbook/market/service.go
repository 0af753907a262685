// Package market acquires price history, quote fields and financial
// statements for a ticker.
package market

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/komsit37/stockbook/pkg/stockbook/types"
)

// ErrNoData means the provider returned nothing usable for the ticker.
var ErrNoData = errors.New("no data")

// ErrNotFound means the provider does not know the ticker.
var ErrNotFound = errors.New("ticker not found")

// Fetcher acquires a snapshot for one ticker.
type Fetcher interface {
	Fetch(ctx context.Context, ticker string, period types.Period) (*types.Snapshot, error)
}

// HistorySource returns daily bars.
type HistorySource interface {
	History(ctx context.Context, ticker string, period types.Period) (types.History, error)
}

// Service implements Fetcher by combining a history source with a
// quoteSummary source.
type Service struct {
	history HistorySource
	summary SummarySource
	log     *zap.Logger
}

func NewService(history HistorySource, summary SummarySource, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{history: history, summary: summary, log: log}
}

// Fetch fails when the history is unavailable or empty. A failed or
// malformed summary only leaves the quote and statements empty.
func (s *Service) Fetch(ctx context.Context, ticker string, period types.Period) (*types.Snapshot, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("empty ticker: %w", ErrNoData)
	}
	if period == "" {
		period = types.DefaultPeriod
	}

	hist, err := s.history.History(ctx, ticker, period)
	if IsNotFound(err) {
		return nil, fmt.Errorf("history %s: %w: %w", ticker, ErrNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", ticker, err)
	}
	if len(hist) == 0 {
		return nil, fmt.Errorf("history %s: %w", ticker, ErrNoData)
	}
	snap := &types.Snapshot{Ticker: ticker, Period: period, History: hist}

	if s.summary == nil {
		return snap, nil
	}
	raw, err := s.summary.Summary(ctx, ticker)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log.Warn("quote summary unavailable", zap.String("ticker", ticker), zap.Error(err))
		return snap, nil
	}
	q, fin, cf, err := ParseSummary(raw)
	if err != nil {
		s.log.Warn("quote summary unreadable", zap.String("ticker", ticker), zap.Error(err))
		return snap, nil
	}
	snap.Quote, snap.Financials, snap.CashFlow = q, fin, cf
	return snap, nil
}
