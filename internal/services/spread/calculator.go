// Package spread derives the forward/reverse basis spreads and expected
// profits for one asset from its raw quote and normalized rates.
package spread

import (
	"math"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/carryscan/internal/domain"
)

// ErrQuoteUnavailable marks a derived value whose required bid/ask inputs
// were missing on the venue side.
var ErrQuoteUnavailable = errors.New("required quote side unavailable")

// Compute builds the arbitrage row for one asset. Pure function: no venue
// calls, no mutation of the inputs.
//
// Forward side is short futures / long spot, so it crosses the futures bid
// against the spot ask; reverse side is the mirror. A side whose bid or ask
// is unavailable stays unavailable, never zero. Only BorrowableValue is
// rounded; everything else keeps full float precision so ranking stays
// stable.
func Compute(q domain.AssetQuote, rates domain.NormalizedRate) domain.ArbitrageRow {
	row := domain.ArbitrageRow{
		Asset:                q.Asset,
		Time:                 q.Time,
		FundingRate:          q.FundingRate.Or(0),
		FundingIntervalHours: q.FundingIntervalHours.Or(0),
		FundingRate8h:        rates.FundingRate8h,
		InterestRate8h:       rates.InterestRate8h,
		SpotVolume24h:        q.SpotVolume24h.Or(0),
		FutureVolume24h:      q.FutureVolume24h.Or(0),
		SpotBid:              q.SpotBid,
		SpotAsk:              q.SpotAsk,
		FutureBid:            q.FutureBid,
		FutureAsk:            q.FutureAsk,
		ForwardSpread:        domain.Unavail(ErrQuoteUnavailable),
		ReverseSpread:        domain.Unavail(ErrQuoteUnavailable),
		ForwardProfit:        domain.Unavail(ErrQuoteUnavailable),
		ReverseProfit:        domain.Unavail(ErrQuoteUnavailable),
	}

	if fwd, ok := ratio(q.FutureBid, q.SpotAsk); ok {
		row.ForwardSpread = domain.Avail(fwd - 1)
		row.ForwardProfit = domain.Avail(fwd - 1 + rates.FundingRate8h)
	}

	if rev, ok := ratio(q.SpotBid, q.FutureAsk); ok {
		row.ReverseSpread = domain.Avail(rev - 1)
		if interest, haveInterest := rates.InterestRate8h.Get(); haveInterest {
			row.ReverseProfit = domain.Avail(rev - 1 - rates.FundingRate8h - interest)
		} else {
			row.ReverseProfit = rates.InterestRate8h
		}
	}

	row.BorrowableValue = borrowableValue(q)

	return row
}

// ratio returns num/den when both readings are available and the
// denominator is positive.
func ratio(num, den domain.Reading) (float64, bool) {
	n, ok := num.Get()
	if !ok {
		return 0, false
	}
	d, ok := den.Get()
	if !ok || d <= 0 {
		return 0, false
	}
	return n / d, true
}

// borrowableValue converts max borrowable into quote notional at the spot
// mid, rounded to the nearest unit. When the mid cannot be computed the
// value is zero: this is a display convention, not a market reading.
func borrowableValue(q domain.AssetQuote) float64 {
	amount, ok := q.MaxBorrowable.Get()
	if !ok {
		return 0
	}
	bid, okBid := q.SpotBid.Get()
	ask, okAsk := q.SpotAsk.Get()
	if !okBid || !okAsk {
		return 0
	}
	return math.Round(amount * (bid + ask) / 2)
}
