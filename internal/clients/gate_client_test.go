package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGateClientRetriesWithFreshSignature(t *testing.T) {
	var (
		mu         sync.Mutex
		timestamps []string
		signatures []string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		timestamps = append(timestamps, r.Header.Get("Timestamp"))
		signatures = append(signatures, r.Header.Get("SIGN"))
		attempt := len(timestamps)
		mu.Unlock()

		if attempt == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"label":"SERVER_ERROR"}`))
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewGateClient("key", "secret")
	c.host = srv.URL
	// Gate timestamps have second resolution; the backoff must cross a
	// second boundary for the freshness assertion to mean anything.
	c.retrier.Delay = 1200 * time.Millisecond
	c.retrier.Jitter = 0

	var out map[string]string
	require.NoError(t, c.SignedGet(context.Background(), "/unified/estimate_rate", "currencies=BTC", &out))

	require.Len(t, timestamps, 2)
	require.NotEmpty(t, signatures[0])
	require.NotEmpty(t, signatures[1])

	first, err := strconv.ParseInt(timestamps[0], 10, 64)
	require.NoError(t, err)
	second, err := strconv.ParseInt(timestamps[1], 10, 64)
	require.NoError(t, err)
	require.Greater(t, second, first, "each attempt must sign its own timestamp")
	require.NotEqual(t, signatures[0], signatures[1])
}

func TestGateClientUnsignedGetIsNotSigned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("SIGN"))
		require.Empty(t, r.Header.Get("KEY"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewGateClient("key", "secret")
	c.host = srv.URL

	var out []struct{}
	require.NoError(t, c.Get(context.Background(), "/spot/currencies", "", &out))
}
