package scanner

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/carryscan/internal/domain"
	"github.com/vadiminshakov/carryscan/internal/services/market"
)

// fakeSource serves canned per-asset data and simulates per-asset outages.
type fakeSource struct {
	assets    []string
	assetsErr error
	down      map[string]bool
	intervals map[string]float64
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Assets(ctx context.Context) ([]string, error) {
	return f.assets, f.assetsErr
}

func (f *fakeSource) SpotQuote(ctx context.Context, asset string) market.SpotQuote {
	if f.down[asset] {
		missing := domain.Unavail(errors.New("venue timeout"))
		return market.SpotQuote{Bid: missing, Ask: missing, Volume24h: missing}
	}
	return market.SpotQuote{
		Bid:       domain.Avail(100),
		Ask:       domain.Avail(100.2),
		Volume24h: domain.Avail(5e6),
	}
}

func (f *fakeSource) FuturesQuote(ctx context.Context, asset string) market.FuturesQuote {
	if f.down[asset] {
		missing := domain.Unavail(errors.New("venue timeout"))
		return market.FuturesQuote{Bid: missing, Ask: missing, Volume24h: missing}
	}
	return market.FuturesQuote{
		Bid:       domain.Avail(101),
		Ask:       domain.Avail(101.3),
		Volume24h: domain.Avail(5e6),
	}
}

func (f *fakeSource) Funding(ctx context.Context, asset string) market.Funding {
	if f.down[asset] {
		missing := domain.Unavail(errors.New("venue timeout"))
		return market.Funding{Rate: missing, IntervalHours: missing}
	}
	interval := f.intervals[asset]
	if interval == 0 {
		interval = 8
	}
	return market.Funding{Rate: domain.Avail(0.0006), IntervalHours: domain.Avail(interval)}
}

func (f *fakeSource) Borrow(ctx context.Context, asset string) market.Borrow {
	return market.Borrow{
		Rate:          domain.Avail(0.0003),
		Kind:          domain.RateKindDaily,
		MaxBorrowable: domain.Avail(10),
	}
}

func TestScanBuildsRankedUniverse(t *testing.T) {
	src := &fakeSource{assets: []string{"BTC", "ETH", "SOL"}}
	s := New(src, 100000, 100000, 2, zap.NewNop())

	snap, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, snap.CycleID)
	require.Equal(t, "fake", snap.Venue)
	require.Len(t, snap.Rows, 3)
	require.Len(t, snap.Universe.ByFundingRate, 3)
	require.Len(t, snap.Universe.Forward, 3, "positive funding puts every asset in the forward view")

	for _, row := range snap.Rows {
		require.Equal(t, 0.0006, row.FundingRate8h)
		require.True(t, row.ForwardProfit.Available())
	}
}

func TestScanFailedAssetDoesNotBlockOthers(t *testing.T) {
	src := &fakeSource{
		assets: []string{"BTC", "ETH", "SOL"},
		down:   map[string]bool{"ETH": true},
	}
	s := New(src, 100000, 100000, 2, zap.NewNop())

	snap, err := s.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Rows, 2, "asset without a funding reading is dropped, not fatal")
	require.Len(t, snap.Universe.ByFundingRate, 2)
	for _, row := range snap.Universe.ByFundingRate {
		require.NotEqual(t, "ETH", row.Asset)
	}
}

func TestScanSkipsInvalidFundingInterval(t *testing.T) {
	src := &fakeSource{
		assets:    []string{"BTC", "BAD"},
		intervals: map[string]float64{"BAD": -4},
	}
	s := New(src, 0, 0, 4, zap.NewNop())

	snap, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Rows, 1)
	require.Equal(t, "BTC", snap.Rows[0].Asset)
}

func TestScanPropagatesAssetListFailure(t *testing.T) {
	src := &fakeSource{assetsErr: errors.New("exchange info down")}
	s := New(src, 0, 0, 4, zap.NewNop())

	_, err := s.Scan(context.Background())
	require.Error(t, err)
}

func TestScanStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{assets: []string{"BTC"}}
	s := New(src, 0, 0, 4, zap.NewNop())

	_, err := s.Scan(ctx)
	require.Error(t, err)
}
