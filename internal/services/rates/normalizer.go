// Package rates converts venue-native funding and interest rates onto a
// common 8-hour funding-period basis.
package rates

import (
	"github.com/pkg/errors"

	"github.com/vadiminshakov/carryscan/internal/domain"
)

// ErrInvalidInterval is returned when a venue reports a non-positive funding
// interval. A zero interval is a broken reading, not a valid one.
var ErrInvalidInterval = errors.New("funding interval must be positive")

const hoursPerPeriod = 8.0

// Normalize scales a venue-native funding rate and interest rate to their
// per-8-hour equivalents.
//
// The funding scaling is exact: it assumes the observed rate holds uniformly
// across the whole interval. That is a documented approximation of the
// instantaneous rate, not an average over settlements.
//
// An unavailable interest reading passes through unavailable; it is not an
// error and not zero.
func Normalize(fundingRate, intervalHours float64, interest domain.Reading, kind domain.RateKind) (domain.NormalizedRate, error) {
	if intervalHours <= 0 {
		return domain.NormalizedRate{}, errors.Wrapf(ErrInvalidInterval, "got %v hours", intervalHours)
	}

	out := domain.NormalizedRate{
		FundingRate8h:  fundingRate * (hoursPerPeriod / intervalHours),
		InterestRate8h: interest,
	}

	v, ok := interest.Get()
	if !ok {
		return out, nil
	}

	switch kind {
	case domain.RateKindDaily:
		out.InterestRate8h = domain.Avail(v / (24.0 / hoursPerPeriod))
	case domain.RateKindPeriodic:
		// Periods per day times the period's share of 8h. Computed in full
		// so non-8h intervals keep the correct units.
		out.InterestRate8h = domain.Avail(v * (24.0 / intervalHours) * (intervalHours / hoursPerPeriod))
	default:
		return domain.NormalizedRate{}, errors.Errorf("unknown interest rate kind %q", kind)
	}

	return out, nil
}
