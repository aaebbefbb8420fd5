package rates

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/carryscan/internal/domain"
)

func TestNormalizeEightHourIntervalIsIdentity(t *testing.T) {
	out, err := Normalize(0.0006, 8, domain.Avail(0.0003), domain.RateKindDaily)
	require.NoError(t, err)
	require.Equal(t, 0.0006, out.FundingRate8h)
}

func TestNormalizeScalesShorterIntervals(t *testing.T) {
	out, err := Normalize(0.0006, 4, domain.Unavail(errors.New("no margin market")), domain.RateKindDaily)
	require.NoError(t, err)
	require.InDelta(t, 0.0012, out.FundingRate8h, 1e-12)
	require.False(t, out.InterestRate8h.Available())

	out, err = Normalize(0.0006, 1, domain.Avail(0), domain.RateKindDaily)
	require.NoError(t, err)
	require.InDelta(t, 0.0048, out.FundingRate8h, 1e-12)
}

func TestNormalizeDailyInterest(t *testing.T) {
	out, err := Normalize(0, 8, domain.Avail(0.0003), domain.RateKindDaily)
	require.NoError(t, err)

	v, ok := out.InterestRate8h.Get()
	require.True(t, ok)
	require.InDelta(t, 0.0001, v, 1e-12)
}

func TestNormalizePeriodicInterest(t *testing.T) {
	// At an 8h period the general formula reduces to *3.
	out, err := Normalize(0, 8, domain.Avail(0.0001), domain.RateKindPeriodic)
	require.NoError(t, err)
	v, ok := out.InterestRate8h.Get()
	require.True(t, ok)
	require.InDelta(t, 0.0003, v, 1e-12)

	// Non-8h periods go through the interval-aware form, not a hardcoded 3.
	out, err = Normalize(0, 4, domain.Avail(0.0001), domain.RateKindPeriodic)
	require.NoError(t, err)
	v, ok = out.InterestRate8h.Get()
	require.True(t, ok)
	require.InDelta(t, 0.0001*(24.0/4.0)*(4.0/8.0), v, 1e-12)
}

func TestNormalizeRejectsInvalidInterval(t *testing.T) {
	for _, interval := range []float64{0, -8} {
		_, err := Normalize(0.0006, interval, domain.Avail(0.0003), domain.RateKindDaily)
		require.ErrorIs(t, err, ErrInvalidInterval)
	}
}

func TestNormalizeRejectsUnknownKind(t *testing.T) {
	_, err := Normalize(0.0006, 8, domain.Avail(0.0003), domain.RateKind("weekly"))
	require.Error(t, err)
}
