package view

import (
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/carryscan/internal/domain"
	"github.com/vadiminshakov/carryscan/internal/services/reconcile"
	"github.com/vadiminshakov/carryscan/internal/services/universe"
)

func TestRenderUniverseTruncatesAndMarksAbsent(t *testing.T) {
	rows := []domain.ArbitrageRow{
		{
			Asset:                "BTC",
			Time:                 time.Now(),
			FundingRate:          0.0006,
			FundingIntervalHours: 8,
			FundingRate8h:        0.0006,
			SpotBid:              domain.Avail(100),
			SpotAsk:              domain.Avail(100.2),
			FutureBid:            domain.Avail(101),
			FutureAsk:            domain.Unavail(errors.New("empty book")),
			ForwardProfit:        domain.Avail(0.008584),
			ReverseProfit:        domain.Unavail(errors.New("empty book")),
		},
		{Asset: "ETH", FundingIntervalHours: 8},
		{Asset: "SOL", FundingIntervalHours: 8},
	}

	out := RenderUniverse(universe.Universe{ByFundingRate: rows}, 2)

	require.Contains(t, out, "BTC")
	require.Contains(t, out, "ETH")
	require.NotContains(t, out, "SOL", "rows beyond topN are not rendered")
	require.Contains(t, out, "-", "unavailable readings render as a dash")
	require.Contains(t, out, "(no rows)")
}

func TestRenderAccountNaNIsNotANumber(t *testing.T) {
	positions := []domain.Position{
		{Asset: "BTC", SpotValue: 300, FuturesValue: -280, InventoryPct: math.NaN()},
	}
	summary := reconcile.Summary{
		TotalValue:         580,
		CumFundingReturn:   math.NaN(),
		ProjectedNetReturn: 0.001,
		Best:               positions[0],
		Worst:              positions[0],
	}

	out := RenderAccount(positions, summary)

	require.Contains(t, out, "580.00")
	require.Contains(t, out, "n/a")
	require.Contains(t, out, "0.100%")
	require.NotContains(t, out, "NaN")
}
