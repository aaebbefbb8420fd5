package market

import (
	"context"
	"math"
	"net/url"
	"sort"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/pkg/errors"

	"github.com/vadiminshakov/carryscan/internal/clients"
	"github.com/vadiminshakov/carryscan/internal/domain"
	"github.com/vadiminshakov/carryscan/pkg/retrier"
)

const binanceQuoteAsset = "USDT"

// BinanceSource implements Source for Binance spot + USDT-M futures.
// Margin interest and max borrowable go through the signed client because
// the SDK does not wrap those endpoints. Every SDK call is retried so a
// transient venue error does not cost the asset its cycle.
type BinanceSource struct {
	spot    *binance.Client
	futures *futures.Client
	signed  *clients.BinanceSigned
	retry   *retrier.Retrier
}

func NewBinanceSource(spot *binance.Client, fut *futures.Client, signed *clients.BinanceSigned) *BinanceSource {
	return &BinanceSource{spot: spot, futures: fut, signed: signed, retry: retrier.New()}
}

func (s *BinanceSource) Name() string { return "binance" }

// Assets returns the base assets tradable on both the spot and the USDT-M
// futures market, sorted for deterministic cycle order.
func (s *BinanceSource) Assets(ctx context.Context) ([]string, error) {
	spotInfo, err := retrier.DoWithData(ctx, s.retry, func(ctx context.Context) (*binance.ExchangeInfo, error) {
		return s.spot.NewExchangeInfoService().Do(ctx)
	})
	if err != nil {
		return nil, errors.Wrap(err, "fetch binance spot exchange info")
	}

	spotAssets := make(map[string]struct{})
	for _, sym := range spotInfo.Symbols {
		if sym.Status == "TRADING" && sym.QuoteAsset == binanceQuoteAsset {
			spotAssets[sym.BaseAsset] = struct{}{}
		}
	}

	futInfo, err := retrier.DoWithData(ctx, s.retry, func(ctx context.Context) (*futures.ExchangeInfo, error) {
		return s.futures.NewExchangeInfoService().Do(ctx)
	})
	if err != nil {
		return nil, errors.Wrap(err, "fetch binance futures exchange info")
	}

	var common []string
	for _, sym := range futInfo.Symbols {
		if sym.Status != "TRADING" || sym.QuoteAsset != binanceQuoteAsset {
			continue
		}
		if _, ok := spotAssets[sym.BaseAsset]; ok {
			common = append(common, sym.BaseAsset)
		}
	}
	sort.Strings(common)

	return common, nil
}

func (s *BinanceSource) SpotQuote(ctx context.Context, asset string) SpotQuote {
	symbol := asset + binanceQuoteAsset

	quote := SpotQuote{}
	book, err := retrier.DoWithData(ctx, s.retry, func(ctx context.Context) (*binance.DepthResponse, error) {
		return s.spot.NewDepthService().Symbol(symbol).Limit(5).Do(ctx)
	})
	if err != nil {
		quote.Bid = domain.Unavail(errors.Wrapf(err, "binance spot depth %s", symbol))
		quote.Ask = quote.Bid
	} else {
		quote.Bid = bestLevel(len(book.Bids) > 0, func() string { return book.Bids[0].Price })
		quote.Ask = bestLevel(len(book.Asks) > 0, func() string { return book.Asks[0].Price })
	}

	stats, err := retrier.DoWithData(ctx, s.retry, func(ctx context.Context) ([]*binance.PriceChangeStats, error) {
		return s.spot.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
	})
	switch {
	case err != nil:
		quote.Volume24h = domain.Unavail(errors.Wrapf(err, "binance spot 24h stats %s", symbol))
	case len(stats) == 0:
		quote.Volume24h = domain.Unavail(errors.Errorf("binance returned no spot stats for %s", symbol))
	default:
		quote.Volume24h = parseReading(stats[0].QuoteVolume)
	}

	return quote
}

func (s *BinanceSource) FuturesQuote(ctx context.Context, asset string) FuturesQuote {
	symbol := asset + binanceQuoteAsset

	quote := FuturesQuote{}
	book, err := retrier.DoWithData(ctx, s.retry, func(ctx context.Context) (*futures.DepthResponse, error) {
		return s.futures.NewDepthService().Symbol(symbol).Limit(5).Do(ctx)
	})
	if err != nil {
		quote.Bid = domain.Unavail(errors.Wrapf(err, "binance futures depth %s", symbol))
		quote.Ask = quote.Bid
	} else {
		quote.Bid = bestLevel(len(book.Bids) > 0, func() string { return book.Bids[0].Price })
		quote.Ask = bestLevel(len(book.Asks) > 0, func() string { return book.Asks[0].Price })
	}

	stats, err := retrier.DoWithData(ctx, s.retry, func(ctx context.Context) ([]*futures.PriceChangeStats, error) {
		return s.futures.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
	})
	switch {
	case err != nil:
		quote.Volume24h = domain.Unavail(errors.Wrapf(err, "binance futures 24h stats %s", symbol))
	case len(stats) == 0:
		quote.Volume24h = domain.Unavail(errors.Errorf("binance returned no futures stats for %s", symbol))
	default:
		quote.Volume24h = parseReading(stats[0].QuoteVolume)
	}

	return quote
}

// Funding derives the settlement interval from the spacing of the last two
// funding records; Binance does not expose the interval directly.
func (s *BinanceSource) Funding(ctx context.Context, asset string) Funding {
	symbol := asset + binanceQuoteAsset

	rows, err := retrier.DoWithData(ctx, s.retry, func(ctx context.Context) ([]*futures.FundingRate, error) {
		return s.futures.NewFundingRateService().Symbol(symbol).Limit(2).Do(ctx)
	})
	if err != nil {
		missing := domain.Unavail(errors.Wrapf(err, "binance funding history %s", symbol))
		return Funding{Rate: missing, IntervalHours: missing}
	}
	if len(rows) < 2 {
		missing := domain.Unavail(errors.Errorf("binance returned %d funding records for %s, need 2", len(rows), symbol))
		return Funding{Rate: missing, IntervalHours: missing}
	}

	latest := rows[len(rows)-1]
	previous := rows[len(rows)-2]
	intervalHours := math.Abs(float64(latest.FundingTime-previous.FundingTime)) / 3600000.0

	return Funding{
		Rate:          parseReading(latest.FundingRate),
		IntervalHours: domain.Avail(intervalHours),
	}
}

func (s *BinanceSource) Borrow(ctx context.Context, asset string) Borrow {
	borrow := Borrow{Kind: domain.RateKindDaily}

	var rateRows []struct {
		DailyInterestRate string `json:"dailyInterestRate"`
	}
	params := url.Values{}
	params.Set("asset", asset)
	params.Set("vipLevel", "0")
	params.Set("limit", "1")
	err := s.signed.Get(ctx, clients.BinanceSpotHost, "/sapi/v1/margin/interestRateHistory", params, &rateRows)
	switch {
	case err != nil:
		borrow.Rate = domain.Unavail(errors.Wrapf(err, "binance margin interest rate %s", asset))
	case len(rateRows) == 0:
		borrow.Rate = domain.Unavail(errors.Errorf("binance has no margin interest history for %s", asset))
	default:
		borrow.Rate = parseReading(rateRows[0].DailyInterestRate)
	}

	var borrowable struct {
		Amount string `json:"amount"`
	}
	params = url.Values{}
	params.Set("asset", asset)
	if err := s.signed.Get(ctx, clients.BinancePapiHost, "/papi/v1/margin/maxBorrowable", params, &borrowable); err != nil {
		borrow.MaxBorrowable = domain.Unavail(errors.Wrapf(err, "binance max borrowable %s", asset))
	} else {
		borrow.MaxBorrowable = parseReading(borrowable.Amount)
	}

	return borrow
}

func bestLevel(ok bool, price func() string) domain.Reading {
	if !ok {
		return domain.Unavail(errors.New("empty order book side"))
	}
	return parseReading(price())
}
