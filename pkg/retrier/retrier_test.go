package retrier

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func fastRetrier(attempts int) *Retrier {
	return &Retrier{
		Attempts:   attempts,
		Delay:      time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Multiplier: 2,
	}
}

func TestDoSucceedsAfterTransientErrors(t *testing.T) {
	calls := 0
	err := fastRetrier(4).Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestDoReturnsLastErrorWhenExhausted(t *testing.T) {
	calls := 0
	err := fastRetrier(3).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.Errorf("attempt %d", calls)
	})

	require.EqualError(t, err, "attempt 3")
	require.Equal(t, 3, calls)
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := fastRetrier(10).Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("always failing")
	})

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestDoWithData(t *testing.T) {
	calls := 0
	v, err := DoWithData(context.Background(), fastRetrier(4), func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})

	require.NoError(t, err)
	require.Equal(t, 42, v)
}
