package domain

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestReadingAvailability(t *testing.T) {
	r := Avail(1.25)
	v, ok := r.Get()
	require.True(t, ok)
	require.Equal(t, 1.25, v)
	require.NoError(t, r.Err())

	missing := Unavail(errors.New("orderbook empty"))
	_, ok = missing.Get()
	require.False(t, ok)
	require.EqualError(t, missing.Err(), "orderbook empty")
	require.Equal(t, 7.0, missing.Or(7))
}

func TestReadingJSONRoundTrip(t *testing.T) {
	type payload struct {
		Bid Reading `json:"bid"`
		Ask Reading `json:"ask"`
	}

	in := payload{Bid: Avail(100.5), Ask: Unavail(errors.New("no liquidity"))}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	require.JSONEq(t, `{"bid":100.5,"ask":null}`, string(raw))

	var out payload
	require.NoError(t, json.Unmarshal(raw, &out))

	v, ok := out.Bid.Get()
	require.True(t, ok)
	require.Equal(t, 100.5, v)
	require.False(t, out.Ask.Available())
}
