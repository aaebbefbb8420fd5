package universe

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/carryscan/internal/domain"
)

func row(asset string, funding float64, fwdProfit, revProfit domain.Reading, spotVol, futVol float64) domain.ArbitrageRow {
	return domain.ArbitrageRow{
		Asset:           asset,
		FundingRate:     funding,
		ForwardProfit:   fwdProfit,
		ReverseProfit:   revProfit,
		SpotVolume24h:   spotVol,
		FutureVolume24h: futVol,
	}
}

func assets(rows []domain.ArbitrageRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Asset
	}
	return out
}

func TestSelectFiltersOnBothVolumes(t *testing.T) {
	rows := []domain.ArbitrageRow{
		row("BTC", 0.0001, domain.Avail(0.001), domain.Avail(0.001), 500000, 900000),
		// spot volume below threshold even though futures volume passes.
		row("DOGE", 0.0002, domain.Avail(0.002), domain.Avail(0.002), 50000, 200000),
		row("ETH", -0.0003, domain.Avail(0.003), domain.Avail(0.003), 100000, 100000),
	}

	u := Select(rows, 100000, 100000)
	require.Equal(t, []string{"ETH", "BTC"}, assets(u.ByFundingRate))
}

func TestSelectMissingVolumeIsIlliquid(t *testing.T) {
	rows := []domain.ArbitrageRow{
		// zero-defaulted volume means the liquidity is unknown, assume illiquid.
		row("XRP", 0.0001, domain.Avail(0.001), domain.Avail(0.001), 0, 900000),
	}
	u := Select(rows, 100000, 100000)
	require.Empty(t, u.ByFundingRate)

	u = Select(rows, 0, 100000)
	require.Len(t, u.ByFundingRate, 1)
}

func TestSelectViews(t *testing.T) {
	rows := []domain.ArbitrageRow{
		row("AAA", 0.0005, domain.Avail(0.001), domain.Avail(0), 1e6, 1e6),
		row("BBB", -0.0004, domain.Avail(0), domain.Avail(0.004), 1e6, 1e6),
		row("CCC", 0.0002, domain.Avail(0.009), domain.Avail(0), 1e6, 1e6),
		row("DDD", 0, domain.Avail(0.5), domain.Avail(0.5), 1e6, 1e6),
		row("EEE", -0.0009, domain.Avail(0), domain.Avail(0.001), 1e6, 1e6),
	}

	u := Select(rows, 100000, 100000)

	require.Equal(t, []string{"EEE", "BBB", "DDD", "CCC", "AAA"}, assets(u.ByFundingRate),
		"view 1 orders by funding rate ascending")
	require.Equal(t, []string{"CCC", "AAA"}, assets(u.Forward),
		"view 2 keeps positive funding only, best forward profit first")
	require.Equal(t, []string{"BBB", "EEE"}, assets(u.Reverse),
		"view 3 keeps negative funding only, best reverse profit first")
}

func TestSelectZeroFundingOnlyInFundingView(t *testing.T) {
	rows := []domain.ArbitrageRow{
		row("DDD", 0, domain.Avail(1), domain.Avail(1), 1e6, 1e6),
	}
	u := Select(rows, 0, 0)
	require.Len(t, u.ByFundingRate, 1)
	require.Empty(t, u.Forward)
	require.Empty(t, u.Reverse)
}

func TestSelectUnavailableProfitSortsLast(t *testing.T) {
	missing := domain.Unavail(errors.New("no quote"))
	rows := []domain.ArbitrageRow{
		row("AAA", 0.0001, missing, missing, 1e6, 1e6),
		row("BBB", 0.0002, domain.Avail(-0.5), missing, 1e6, 1e6),
	}
	u := Select(rows, 0, 0)
	require.Equal(t, []string{"BBB", "AAA"}, assets(u.Forward))
}

func TestSelectIdempotentAndDeterministic(t *testing.T) {
	rows := []domain.ArbitrageRow{
		row("AAA", 0.0001, domain.Avail(0.002), domain.Avail(0), 1e6, 1e6),
		row("BBB", 0.0001, domain.Avail(0.002), domain.Avail(0), 1e6, 1e6),
		row("CCC", -0.0001, domain.Avail(0), domain.Avail(0.002), 1e6, 1e6),
	}

	first := Select(rows, 100000, 100000)
	second := Select(first.ByFundingRate, 100000, 100000)
	require.Equal(t, first.ByFundingRate, second.ByFundingRate, "filtering already-filtered rows changes nothing")

	again := Select(rows, 100000, 100000)
	require.Equal(t, first, again, "equal keys never reorder between runs")
	require.Equal(t, []string{"AAA", "BBB"}, assets(first.Forward), "ties break by asset name")
}
