// Package scanner orchestrates one polling cycle: collect the full venue
// snapshot, normalize rates, derive arbitrage rows and rank them.
package scanner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/carryscan/internal/domain"
	"github.com/vadiminshakov/carryscan/internal/services/market"
	"github.com/vadiminshakov/carryscan/internal/services/rates"
	"github.com/vadiminshakov/carryscan/internal/services/spread"
	"github.com/vadiminshakov/carryscan/internal/services/universe"
)

const defaultConcurrency = 8

// Snapshot is the output of one completed scan cycle.
type Snapshot struct {
	CycleID string
	Venue   string
	Time    time.Time
	// Rows holds every asset that produced a valid normalization,
	// before the liquidity filter.
	Rows     []domain.ArbitrageRow
	Universe universe.Universe
}

// Scanner runs scan cycles against one venue.
type Scanner struct {
	source          market.Source
	minSpotVolume   float64
	minFutureVolume float64
	concurrency     int
	logger          *zap.Logger
}

func New(source market.Source, minSpotVolume, minFutureVolume float64, concurrency int, logger *zap.Logger) *Scanner {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Scanner{
		source:          source,
		minSpotVolume:   minSpotVolume,
		minFutureVolume: minFutureVolume,
		concurrency:     concurrency,
		logger:          logger,
	}
}

// Scan collects the whole per-asset snapshot concurrently, then computes
// and ranks the universe. One asset's fetch failure never blocks others:
// its fields come back unavailable and the filter stage drops it. The
// computation does not start until the full snapshot is in.
func (s *Scanner) Scan(ctx context.Context) (*Snapshot, error) {
	startedAt := time.Now()
	cycleID := uuid.NewString()

	assets, err := s.source.Assets(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s assets", s.source.Name())
	}

	s.logger.Info("scan cycle started",
		zap.String("cycle_id", cycleID),
		zap.String("venue", s.source.Name()),
		zap.Int("assets", len(assets)))

	quotes := make([]domain.AssetQuote, len(assets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, asset := range assets {
		g.Go(func() error {
			quotes[i] = s.fetchQuote(gctx, asset, startedAt)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "scan cycle interrupted")
	}

	rows := make([]domain.ArbitrageRow, 0, len(quotes))
	for _, quote := range quotes {
		row, ok := s.deriveRow(quote)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}

	snap := &Snapshot{
		CycleID:  cycleID,
		Venue:    s.source.Name(),
		Time:     startedAt,
		Rows:     rows,
		Universe: universe.Select(rows, s.minSpotVolume, s.minFutureVolume),
	}

	s.logger.Info("scan cycle finished",
		zap.String("cycle_id", cycleID),
		zap.String("venue", snap.Venue),
		zap.Int("rows", len(rows)),
		zap.Int("filtered", len(snap.Universe.ByFundingRate)),
		zap.Duration("took", time.Since(startedAt)))

	return snap, nil
}

func (s *Scanner) fetchQuote(ctx context.Context, asset string, at time.Time) domain.AssetQuote {
	spotQuote := s.source.SpotQuote(ctx, asset)
	futQuote := s.source.FuturesQuote(ctx, asset)
	funding := s.source.Funding(ctx, asset)
	borrow := s.source.Borrow(ctx, asset)

	return domain.AssetQuote{
		Asset:                asset,
		Time:                 at,
		SpotBid:              spotQuote.Bid,
		SpotAsk:              spotQuote.Ask,
		SpotVolume24h:        spotQuote.Volume24h,
		FutureBid:            futQuote.Bid,
		FutureAsk:            futQuote.Ask,
		FutureVolume24h:      futQuote.Volume24h,
		FundingRate:          funding.Rate,
		FundingIntervalHours: funding.IntervalHours,
		InterestRate:         borrow.Rate,
		InterestKind:         borrow.Kind,
		MaxBorrowable:        borrow.MaxBorrowable,
	}
}

// deriveRow normalizes and computes one asset. An asset without a usable
// funding reading cannot be scored at all and is dropped here, not crashed
// on later.
func (s *Scanner) deriveRow(quote domain.AssetQuote) (domain.ArbitrageRow, bool) {
	fundingRate, ok := quote.FundingRate.Get()
	if !ok {
		s.logger.Debug("asset skipped, funding rate unavailable",
			zap.String("asset", quote.Asset),
			zap.Error(quote.FundingRate.Err()))
		return domain.ArbitrageRow{}, false
	}

	intervalHours, ok := quote.FundingIntervalHours.Get()
	if !ok {
		s.logger.Debug("asset skipped, funding interval unavailable",
			zap.String("asset", quote.Asset),
			zap.Error(quote.FundingIntervalHours.Err()))
		return domain.ArbitrageRow{}, false
	}

	normalized, err := rates.Normalize(fundingRate, intervalHours, quote.InterestRate, quote.InterestKind)
	if err != nil {
		s.logger.Warn("asset skipped, rate normalization failed",
			zap.String("asset", quote.Asset),
			zap.Error(err))
		return domain.ArbitrageRow{}, false
	}

	return spread.Compute(quote, normalized), true
}
