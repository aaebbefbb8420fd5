// Package reconcile merges spot balances with open futures positions into
// one exposure view per asset and derives forward-looking PnL projections.
package reconcile

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/carryscan/internal/domain"
)

// ErrEmptyUniverse is returned when no position survives the dust filter.
// Consumers report "nothing held", they do not crash on a missing best row.
var ErrEmptyUniverse = errors.New("no positions retained after filtering")

// quoteSuffix is stripped from futures contract names to get the join key.
const quoteSuffix = "USDT"

// dustNotional is the spot notional below which a row without an open
// futures position is dropped.
const dustNotional = 5.0

// FundingTerms carries the per-symbol funding schedule and borrow cost,
// already normalized onto the 8-hour basis by the account fetcher.
type FundingTerms struct {
	NextRate       float64
	NextRate8h     float64
	NextTime       time.Time
	IntervalHours  float64
	InterestRate8h float64
}

// IncomeKey addresses the most recent income entry per symbol and category.
type IncomeKey struct {
	Symbol string
	Kind   domain.IncomeKind
}

// Inputs is the full account snapshot the reconciler works from. Prices is
// built once per cycle and read-only here.
type Inputs struct {
	Balances  []domain.SpotBalance
	Positions []domain.FuturesPosition
	Prices    map[string]float64
	Terms     map[string]FundingTerms
	Incomes   map[IncomeKey]float64
	ADLRanks  map[string]int
}

// Summary aggregates the retained positions. Ratio fields are NaN when
// their denominator is zero; NaN never leaks into the unit sums.
type Summary struct {
	TotalValue float64

	LongInventoryPct  float64
	ShortInventoryPct float64
	NetInventoryPct   float64
	GrossInventoryPct float64

	CumFundingPnl    float64
	CumFundingReturn float64

	ProjectedFundingPnl    float64
	ProjectedInterestCost  float64
	ProjectedNetPnl        float64
	ProjectedFundingReturn float64
	ProjectedNetReturn     float64

	Best  domain.Position
	Worst domain.Position
}

// Reconcile outer-joins spot balances with futures positions on the asset
// symbol and derives the exposure and projection columns.
//
// A price-map miss values the balance at zero; the dust filter then drops
// it, so an unpriced asset is "valueless", not an error. Positions with no
// spot and no futures exposure never appear in the output.
func Reconcile(in Inputs) ([]domain.Position, Summary, error) {
	byAsset := make(map[string]*domain.Position)

	ensure := func(asset string) *domain.Position {
		if p, ok := byAsset[asset]; ok {
			return p
		}
		p := &domain.Position{Asset: asset}
		byAsset[asset] = p
		return p
	}

	for _, bal := range in.Balances {
		equity := bal.Free + bal.Locked
		if equity == 0 {
			continue
		}
		p := ensure(bal.Asset)
		p.SpotValue = equity * in.Prices[bal.Asset]
	}

	for _, pos := range in.Positions {
		if pos.PositionAmt == 0 {
			continue
		}
		p := ensure(strings.TrimSuffix(pos.Symbol, quoteSuffix))
		p.FuturesValue = pos.PositionAmt * pos.MarkPrice
		p.EntryPrice = pos.EntryPrice
		p.UnrealizedPnl = pos.UnrealizedProfit
		p.RealizedPnl = in.Incomes[IncomeKey{pos.Symbol, domain.IncomeRealizedPnl}]
		p.CommissionPnl = in.Incomes[IncomeKey{pos.Symbol, domain.IncomeCommission}]
		p.FundingPnl = in.Incomes[IncomeKey{pos.Symbol, domain.IncomeFundingFee}]
		p.ADLRank = in.ADLRanks[pos.Symbol]

		terms := in.Terms[pos.Symbol]
		p.NextFundingRate = terms.NextRate
		p.NextFundingTime = terms.NextTime
		p.FundingIntervalHours = terms.IntervalHours
		p.InterestRate8h = terms.InterestRate8h
	}

	// Gross exposure counts short futures notional as real exposure.
	var total float64
	for _, p := range byAsset {
		total += math.Abs(p.SpotValue) + math.Abs(p.FuturesValue)
	}

	positions := make([]domain.Position, 0, len(byAsset))
	for _, p := range byAsset {
		if math.Abs(p.SpotValue) <= dustNotional && p.FuturesValue == 0 {
			continue
		}

		p.InventoryPct = share(p.SpotValue, total)
		p.Mismatch = p.SpotValue + p.FuturesValue
		p.CumFundingReturn = share(p.FundingPnl, math.Abs(p.FuturesValue))

		// A positive funding rate is paid by longs, so a short futures
		// holder receives it, hence the negation.
		p.ProjectedFundingPnl = -p.FuturesValue * terms8h(in.Terms, p)
		p.ProjectedInterestCost = p.InterestRate8h * math.Abs(p.SpotValue)
		p.ProjectedNetPnl = p.ProjectedFundingPnl - p.ProjectedInterestCost
		p.ProjectedFundingReturn = share(p.ProjectedFundingPnl, math.Abs(p.FuturesValue))
		p.ProjectedNetReturn = share(p.ProjectedNetPnl, math.Abs(p.FuturesValue))

		positions = append(positions, *p)
	}

	if len(positions) == 0 {
		return nil, Summary{}, ErrEmptyUniverse
	}

	sort.Slice(positions, func(i, j int) bool { return positions[i].Asset < positions[j].Asset })

	return positions, summarize(positions, total), nil
}

func terms8h(terms map[string]FundingTerms, p *domain.Position) float64 {
	return terms[p.Asset+quoteSuffix].NextRate8h
}

func summarize(positions []domain.Position, total float64) Summary {
	s := Summary{TotalValue: total, Best: positions[0], Worst: positions[0]}

	var grossFutures float64
	for _, p := range positions {
		if p.InventoryPct > 0 {
			s.LongInventoryPct += p.InventoryPct
		}
		if p.InventoryPct < 0 {
			s.ShortInventoryPct += p.InventoryPct
		}
		s.NetInventoryPct = addSkipNaN(s.NetInventoryPct, p.InventoryPct)
		s.GrossInventoryPct = addSkipNaN(s.GrossInventoryPct, math.Abs(p.InventoryPct))

		s.CumFundingPnl += p.FundingPnl
		s.ProjectedFundingPnl += p.ProjectedFundingPnl
		s.ProjectedInterestCost += p.ProjectedInterestCost
		s.ProjectedNetPnl += p.ProjectedNetPnl
		grossFutures += math.Abs(p.FuturesValue)

		if p.ProjectedFundingPnl > s.Best.ProjectedFundingPnl {
			s.Best = p
		}
		if p.ProjectedFundingPnl < s.Worst.ProjectedFundingPnl {
			s.Worst = p
		}
	}

	s.CumFundingReturn = share(s.CumFundingPnl, total)
	s.ProjectedFundingReturn = share(s.ProjectedFundingPnl, grossFutures)
	s.ProjectedNetReturn = share(s.ProjectedNetPnl, grossFutures)

	return s
}

// share divides, yielding the NaN sentinel instead of a division error
// when the denominator is zero.
func share(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

func addSkipNaN(sum, v float64) float64 {
	if math.IsNaN(v) {
		return sum
	}
	return sum + v
}
