// Package universe filters scan rows on liquidity and produces the three
// ranked views consumed by rendering and export.
package universe

import (
	"sort"

	"github.com/vadiminshakov/carryscan/internal/domain"
)

// Universe holds the filtered rows in their three orderings.
type Universe struct {
	// ByFundingRate is every filtered row, most negative funding first.
	ByFundingRate []domain.ArbitrageRow
	// Forward holds rows with positive funding, best forward profit first.
	Forward []domain.ArbitrageRow
	// Reverse holds rows with negative funding, best reverse profit first.
	Reverse []domain.ArbitrageRow
}

// Select applies the volume thresholds and builds the ranked views.
//
// Rows with missing volume were already defaulted to zero upstream, so an
// unknown-liquidity asset fails the filter. Zero-funding rows appear in
// ByFundingRate only. All sorts are stable with asset name as the tie
// breaker, so identical input always yields identical output.
func Select(rows []domain.ArbitrageRow, minSpotVolume, minFutureVolume float64) Universe {
	filtered := make([]domain.ArbitrageRow, 0, len(rows))
	for _, row := range rows {
		if row.SpotVolume24h >= minSpotVolume && row.FutureVolume24h >= minFutureVolume {
			filtered = append(filtered, row)
		}
	}

	u := Universe{ByFundingRate: filtered}

	sort.SliceStable(u.ByFundingRate, func(i, j int) bool {
		a, b := u.ByFundingRate[i], u.ByFundingRate[j]
		if a.FundingRate != b.FundingRate {
			return a.FundingRate < b.FundingRate
		}
		return a.Asset < b.Asset
	})

	for _, row := range u.ByFundingRate {
		switch {
		case row.FundingRate > 0:
			u.Forward = append(u.Forward, row)
		case row.FundingRate < 0:
			u.Reverse = append(u.Reverse, row)
		}
	}

	sortByProfitDesc(u.Forward, func(r domain.ArbitrageRow) domain.Reading { return r.ForwardProfit })
	sortByProfitDesc(u.Reverse, func(r domain.ArbitrageRow) domain.Reading { return r.ReverseProfit })

	return u
}

// sortByProfitDesc orders rows by an optional profit, highest first.
// Unavailable profits sort after every available one.
func sortByProfitDesc(rows []domain.ArbitrageRow, profit func(domain.ArbitrageRow) domain.Reading) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, okA := profit(rows[i]).Get()
		b, okB := profit(rows[j]).Get()
		switch {
		case okA && okB && a != b:
			return a > b
		case okA != okB:
			return okA
		default:
			return rows[i].Asset < rows[j].Asset
		}
	})
}
