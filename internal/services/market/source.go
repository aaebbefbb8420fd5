// Package market defines the venue capability interface the scanner polls
// and its per-venue implementations.
package market

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/carryscan/internal/domain"
)

// ErrBorrowUnsupported marks venues without a margin-borrow market.
var ErrBorrowUnsupported = errors.New("venue has no margin borrow market")

// SpotQuote is the spot side of one asset: top of book plus 24h notional.
type SpotQuote struct {
	Bid       domain.Reading
	Ask       domain.Reading
	Volume24h domain.Reading
}

// FuturesQuote is the USDT-perpetual side of one asset.
type FuturesQuote struct {
	Bid       domain.Reading
	Ask       domain.Reading
	Volume24h domain.Reading
}

// Funding is the venue-native funding rate and its settlement interval.
type Funding struct {
	Rate          domain.Reading
	IntervalHours domain.Reading
}

// Borrow is the margin borrow cost and capacity for one asset. Kind records
// the venue's native rate semantics so normalization never guesses.
type Borrow struct {
	Rate          domain.Reading
	Kind          domain.RateKind
	MaxBorrowable domain.Reading
}

// Source is the venue capability interface. Per-field failures are carried
// inside the returned readings; only the asset-universe listing can fail
// the whole call.
type Source interface {
	Name() string
	Assets(ctx context.Context) ([]string, error)
	SpotQuote(ctx context.Context, asset string) SpotQuote
	FuturesQuote(ctx context.Context, asset string) FuturesQuote
	Funding(ctx context.Context, asset string) Funding
	Borrow(ctx context.Context, asset string) Borrow
}

// parseReading converts a venue's decimal string into a reading.
func parseReading(s string) domain.Reading {
	if s == "" {
		return domain.Unavail(errors.New("empty numeric field"))
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return domain.Unavail(errors.Wrapf(err, "parse %q", s))
	}
	return domain.Avail(d.InexactFloat64())
}
