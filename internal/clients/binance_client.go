// Package clients builds the venue API clients used by the market and
// account services.
package clients

import (
	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
)

func NewBinanceClient(apiKey, apiSecret string) *binance.Client {
	client := binance.NewClient(apiKey, apiSecret)
	return client
}

func NewBinanceFuturesClient(apiKey, apiSecret string) *futures.Client {
	client := binance.NewFuturesClient(apiKey, apiSecret)
	return client
}
