package clients

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/carryscan/pkg/retrier"
)

const (
	BinanceSpotHost    = "https://api.binance.com"
	BinanceFuturesHost = "https://fapi.binance.com"
	BinancePapiHost    = "https://papi.binance.com"
)

// BinanceSigned performs signed GETs against the Binance endpoints the SDK
// does not wrap (margin interest history, portfolio-margin max borrowable,
// ADL quantile). Signing is the standard HMAC-SHA256 over the query string.
type BinanceSigned struct {
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	retrier    *retrier.Retrier
}

func NewBinanceSigned(apiKey, apiSecret string) *BinanceSigned {
	return &BinanceSigned{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		retrier:    retrier.New(),
	}
}

// Get issues a signed GET for host+path and decodes the JSON body into out.
// Timestamping and signing happen per attempt; a backed-off retry with the
// original timestamp would fall outside the recvWindow.
func (c *BinanceSigned) Get(ctx context.Context, host, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}

	return c.retrier.Do(ctx, func(ctx context.Context) error {
		params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))

		query := params.Encode()
		mac := hmac.New(sha256.New, []byte(c.apiSecret))
		mac.Write([]byte(query))
		query += "&signature=" + hex.EncodeToString(mac.Sum(nil))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+path+"?"+query, nil)
		if err != nil {
			return errors.Wrap(err, "build signed binance request")
		}
		req.Header.Set("X-MBX-APIKEY", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return errors.Wrapf(err, "signed binance GET %s", path)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return errors.Wrapf(err, "read binance response for %s", path)
		}
		if resp.StatusCode != http.StatusOK {
			return errors.Errorf("binance %s returned %d: %s", path, resp.StatusCode, body)
		}

		return errors.Wrapf(json.Unmarshal(body, out), "decode binance response for %s", path)
	})
}
