package spread

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/carryscan/internal/domain"
)

func fullQuote() domain.AssetQuote {
	return domain.AssetQuote{
		Asset:                "BTC",
		SpotBid:              domain.Avail(100),
		SpotAsk:              domain.Avail(100.2),
		FutureBid:            domain.Avail(101),
		FutureAsk:            domain.Avail(101.3),
		SpotVolume24h:        domain.Avail(500000),
		FutureVolume24h:      domain.Avail(900000),
		FundingRate:          domain.Avail(0.0006),
		FundingIntervalHours: domain.Avail(8),
		MaxBorrowable:        domain.Avail(10),
	}
}

func TestComputeSpreads(t *testing.T) {
	rates := domain.NormalizedRate{FundingRate8h: 0.0006, InterestRate8h: domain.Avail(0.0001)}

	row := Compute(fullQuote(), rates)

	fwd, ok := row.ForwardSpread.Get()
	require.True(t, ok)
	require.InDelta(t, 101.0/100.2-1, fwd, 1e-9)
	require.InDelta(t, 0.007984, fwd, 1e-6)

	rev, ok := row.ReverseSpread.Get()
	require.True(t, ok)
	require.InDelta(t, 100.0/101.3-1, rev, 1e-9)
	require.InDelta(t, -0.012834, rev, 1e-6)

	fwdProfit, ok := row.ForwardProfit.Get()
	require.True(t, ok)
	require.InDelta(t, fwd+0.0006, fwdProfit, 1e-12)

	revProfit, ok := row.ReverseProfit.Get()
	require.True(t, ok)
	require.InDelta(t, rev-0.0006-0.0001, revProfit, 1e-12)
}

func TestComputeMissingSidesStayUnavailable(t *testing.T) {
	rates := domain.NormalizedRate{FundingRate8h: 0.0006, InterestRate8h: domain.Avail(0.0001)}

	q := fullQuote()
	q.SpotAsk = domain.Unavail(errors.New("empty book"))
	row := Compute(q, rates)
	require.False(t, row.ForwardSpread.Available())
	require.False(t, row.ForwardProfit.Available())
	require.True(t, row.ReverseSpread.Available(), "reverse side does not need the spot ask")

	q = fullQuote()
	q.FutureAsk = domain.Unavail(errors.New("empty book"))
	row = Compute(q, rates)
	require.False(t, row.ReverseSpread.Available())
	require.False(t, row.ReverseProfit.Available())
	require.True(t, row.ForwardSpread.Available())
}

func TestComputeMissingInterestBlocksReverseProfitOnly(t *testing.T) {
	rates := domain.NormalizedRate{
		FundingRate8h:  0.0006,
		InterestRate8h: domain.Unavail(errors.New("no borrow market")),
	}

	row := Compute(fullQuote(), rates)
	require.True(t, row.ForwardProfit.Available())
	require.True(t, row.ReverseSpread.Available())
	require.False(t, row.ReverseProfit.Available())
}

func TestComputeBorrowableValue(t *testing.T) {
	rates := domain.NormalizedRate{FundingRate8h: 0}

	// mid = 100.1, 10 units -> 1001.
	row := Compute(fullQuote(), rates)
	require.Equal(t, 1001.0, row.BorrowableValue)

	// no mid price -> zero by display convention.
	q := fullQuote()
	q.SpotBid = domain.Unavail(errors.New("empty book"))
	row = Compute(q, rates)
	require.Equal(t, 0.0, row.BorrowableValue)

	q = fullQuote()
	q.MaxBorrowable = domain.Unavail(errors.New("not signed in"))
	row = Compute(q, rates)
	require.Equal(t, 0.0, row.BorrowableValue)
}

func TestComputeMissingVolumesDefaultToZero(t *testing.T) {
	q := fullQuote()
	q.SpotVolume24h = domain.Unavail(errors.New("ticker down"))
	q.FutureVolume24h = domain.Unavail(errors.New("ticker down"))

	row := Compute(q, domain.NormalizedRate{})
	require.Equal(t, 0.0, row.SpotVolume24h)
	require.Equal(t, 0.0, row.FutureVolume24h)
}
