// Package domain holds the market data records shared by the scanner and
// account reconciliation services.
package domain

import "time"

// RateKind tells how a venue expresses its margin/borrow interest rate.
// Venues report either a daily rate (Binance margin) or a rate bound to a
// period; the normalizer must never assume one universal formula.
type RateKind string

const (
	RateKindDaily    RateKind = "daily"
	RateKindPeriodic RateKind = "periodic"
)

// AssetQuote is one per-asset observation captured from a venue's spot and
// USDT-perpetual markets during a single polling cycle. Every field that can
// be missing on the venue side is a Reading.
type AssetQuote struct {
	Asset string
	Time  time.Time

	SpotBid   Reading
	SpotAsk   Reading
	FutureBid Reading
	FutureAsk Reading

	// 24h notional volumes in quote currency.
	SpotVolume24h   Reading
	FutureVolume24h Reading

	// FundingRate is the venue-native periodic rate, not yet normalized.
	FundingRate          Reading
	FundingIntervalHours Reading

	InterestRate Reading
	InterestKind RateKind

	// MaxBorrowable is expressed in base-asset units.
	MaxBorrowable Reading
}

// NormalizedRate is the per-asset funding and interest rate expressed on a
// common 8-hour basis.
type NormalizedRate struct {
	FundingRate8h  float64
	InterestRate8h Reading
}
