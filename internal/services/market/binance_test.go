package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/stretchr/testify/require"
)

func TestBinanceSpotQuoteRecoversFromTransientError(t *testing.T) {
	var depthCalls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/depth":
			if depthCalls.Add(1) == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"code":-1000,"msg":"internal error"}`))
				return
			}
			w.Write([]byte(`{"lastUpdateId":1,"bids":[["100.0","1"]],"asks":[["100.2","1"]]}`))
		case "/api/v3/ticker/24hr":
			w.Write([]byte(`{"symbol":"BTCUSDT","quoteVolume":"5000000"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	spot := binance.NewClient("", "")
	spot.BaseURL = srv.URL

	src := NewBinanceSource(spot, nil, nil)
	src.retry.Delay = time.Millisecond
	src.retry.Jitter = 0

	quote := src.SpotQuote(context.Background(), "BTC")

	require.EqualValues(t, 2, depthCalls.Load(), "the failed depth call is retried")

	bid, ok := quote.Bid.Get()
	require.True(t, ok, "one transient error must not lose the asset")
	require.Equal(t, 100.0, bid)
	ask, ok := quote.Ask.Get()
	require.True(t, ok)
	require.Equal(t, 100.2, ask)
	vol, ok := quote.Volume24h.Get()
	require.True(t, ok)
	require.Equal(t, 5e6, vol)
}

func TestBinanceSpotQuoteUnavailableAfterExhaustedRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"code":-1000,"msg":"internal error"}`))
	}))
	defer srv.Close()

	spot := binance.NewClient("", "")
	spot.BaseURL = srv.URL

	src := NewBinanceSource(spot, nil, nil)
	src.retry.Attempts = 2
	src.retry.Delay = time.Millisecond
	src.retry.Jitter = 0

	quote := src.SpotQuote(context.Background(), "BTC")

	require.False(t, quote.Bid.Available())
	require.Error(t, quote.Bid.Err())
	require.False(t, quote.Volume24h.Available())
}
