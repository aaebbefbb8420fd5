// Package account builds the reconciler's inputs from the venue's spot and
// futures account endpoints.
package account

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/carryscan/internal/clients"
	"github.com/vadiminshakov/carryscan/internal/domain"
	"github.com/vadiminshakov/carryscan/internal/services/rates"
	"github.com/vadiminshakov/carryscan/internal/services/reconcile"
	"github.com/vadiminshakov/carryscan/pkg/retrier"
)

const (
	quoteAsset          = "USDT"
	defaultIntervalHrs  = 8.0
	adlQuantileEndpoint = "/fapi/v1/adlQuantile"
)

// Fetcher assembles one point-in-time account snapshot.
type Fetcher struct {
	spot    *binance.Client
	futures *futures.Client
	signed  *clients.BinanceSigned
	retry   *retrier.Retrier
	logger  *zap.Logger
}

func NewFetcher(spot *binance.Client, fut *futures.Client, signed *clients.BinanceSigned, logger *zap.Logger) *Fetcher {
	return &Fetcher{spot: spot, futures: fut, signed: signed, retry: retrier.New(), logger: logger}
}

// Snapshot fetches balances, open positions, funding terms, latest income
// entries and ADL ranks. The price map is built once here and stays
// read-only for the reconciler.
func (f *Fetcher) Snapshot(ctx context.Context) (reconcile.Inputs, error) {
	in := reconcile.Inputs{
		Prices:   make(map[string]float64),
		Terms:    make(map[string]reconcile.FundingTerms),
		Incomes:  make(map[reconcile.IncomeKey]float64),
		ADLRanks: make(map[string]int),
	}

	prices, err := retrier.DoWithData(ctx, f.retry, func(ctx context.Context) ([]*binance.SymbolPrice, error) {
		return f.spot.NewListPricesService().Do(ctx)
	})
	if err != nil {
		return in, errors.Wrap(err, "fetch spot prices")
	}
	for _, p := range prices {
		if !strings.HasSuffix(p.Symbol, quoteAsset) {
			continue
		}
		v, err := parseAmount(p.Price)
		if err != nil {
			return in, errors.Wrapf(err, "parse price for %s", p.Symbol)
		}
		in.Prices[strings.TrimSuffix(p.Symbol, quoteAsset)] = v
	}

	spotAccount, err := retrier.DoWithData(ctx, f.retry, func(ctx context.Context) (*binance.Account, error) {
		return f.spot.NewGetAccountService().Do(ctx)
	})
	if err != nil {
		return in, errors.Wrap(err, "fetch spot account")
	}
	for _, bal := range spotAccount.Balances {
		free, err := parseAmount(bal.Free)
		if err != nil {
			return in, errors.Wrapf(err, "parse free balance for %s", bal.Asset)
		}
		locked, err := parseAmount(bal.Locked)
		if err != nil {
			return in, errors.Wrapf(err, "parse locked balance for %s", bal.Asset)
		}
		if free == 0 && locked == 0 {
			continue
		}
		in.Balances = append(in.Balances, domain.SpotBalance{Asset: bal.Asset, Free: free, Locked: locked})
	}

	premium, err := f.premiumBySymbol(ctx)
	if err != nil {
		return in, err
	}

	futAccount, err := retrier.DoWithData(ctx, f.retry, func(ctx context.Context) (*futures.Account, error) {
		return f.futures.NewGetAccountService().Do(ctx)
	})
	if err != nil {
		return in, errors.Wrap(err, "fetch futures account")
	}

	for _, pos := range futAccount.Positions {
		amt, err := parseAmount(pos.PositionAmt)
		if err != nil {
			return in, errors.Wrapf(err, "parse position amount for %s", pos.Symbol)
		}
		if amt == 0 {
			continue
		}

		position := domain.FuturesPosition{Symbol: pos.Symbol, PositionAmt: amt}
		position.EntryPrice, _ = parseAmount(pos.EntryPrice)
		position.UnrealizedProfit, _ = parseAmount(pos.UnrealizedProfit)
		position.InitialMargin, _ = parseAmount(pos.InitialMargin)
		position.MaintMargin, _ = parseAmount(pos.MaintMargin)

		prem, ok := premium[pos.Symbol]
		if !ok {
			return in, errors.Errorf("no premium index entry for held symbol %s", pos.Symbol)
		}
		position.MarkPrice, err = parseAmount(prem.MarkPrice)
		if err != nil {
			return in, errors.Wrapf(err, "parse mark price for %s", pos.Symbol)
		}

		in.Positions = append(in.Positions, position)
		in.Terms[pos.Symbol] = f.fundingTerms(ctx, pos.Symbol, prem)

		for _, kind := range []domain.IncomeKind{domain.IncomeRealizedPnl, domain.IncomeCommission, domain.IncomeFundingFee} {
			in.Incomes[reconcile.IncomeKey{Symbol: pos.Symbol, Kind: kind}] = f.lastIncome(ctx, pos.Symbol, kind)
		}
	}

	f.fetchADLRanks(ctx, in.ADLRanks)

	return in, nil
}

func (f *Fetcher) premiumBySymbol(ctx context.Context) (map[string]*futures.PremiumIndex, error) {
	list, err := retrier.DoWithData(ctx, f.retry, func(ctx context.Context) ([]*futures.PremiumIndex, error) {
		return f.futures.NewPremiumIndexService().Do(ctx)
	})
	if err != nil {
		return nil, errors.Wrap(err, "fetch premium index")
	}
	out := make(map[string]*futures.PremiumIndex, len(list))
	for _, p := range list {
		out[p.Symbol] = p
	}
	return out, nil
}

// fundingTerms derives the settlement interval from the spacing between the
// last settled funding record and the announced next settlement, normalizes
// the predicted rate and the daily interest rate onto the 8h basis.
func (f *Fetcher) fundingTerms(ctx context.Context, symbol string, prem *futures.PremiumIndex) reconcile.FundingTerms {
	terms := reconcile.FundingTerms{
		IntervalHours: defaultIntervalHrs,
		NextTime:      time.UnixMilli(prem.NextFundingTime),
	}
	terms.NextRate, _ = parseAmount(prem.LastFundingRate)

	rows, err := retrier.DoWithData(ctx, f.retry, func(ctx context.Context) ([]*futures.FundingRate, error) {
		return f.futures.NewFundingRateService().Symbol(symbol).Limit(1).Do(ctx)
	})
	if err != nil || len(rows) == 0 {
		f.logger.Warn("no settled funding record, assuming 8h interval",
			zap.String("symbol", symbol), zap.Error(err))
	} else if hours := float64(prem.NextFundingTime-rows[0].FundingTime) / 3600000.0; hours > 0 {
		terms.IntervalHours = hours
	}

	dailyInterest, _ := parseAmount(prem.InterestRate)
	normalized, err := rates.Normalize(terms.NextRate, terms.IntervalHours, domain.Avail(dailyInterest), domain.RateKindDaily)
	if err != nil {
		f.logger.Warn("funding terms normalization failed",
			zap.String("symbol", symbol), zap.Error(err))
		return terms
	}

	terms.NextRate8h = normalized.FundingRate8h
	terms.InterestRate8h, _ = normalized.InterestRate8h.Get()

	return terms
}

// lastIncome returns the most recent income entry for the symbol and kind,
// zero when there is none.
func (f *Fetcher) lastIncome(ctx context.Context, symbol string, kind domain.IncomeKind) float64 {
	rows, err := retrier.DoWithData(ctx, f.retry, func(ctx context.Context) ([]*futures.IncomeHistory, error) {
		return f.futures.NewGetIncomeHistoryService().
			Symbol(symbol).
			IncomeType(string(kind)).
			Limit(1).
			Do(ctx)
	})
	if err != nil {
		f.logger.Warn("income history unavailable",
			zap.String("symbol", symbol), zap.String("kind", string(kind)), zap.Error(err))
		return 0
	}
	if len(rows) == 0 {
		return 0
	}
	v, err := parseAmount(rows[0].Income)
	if err != nil {
		f.logger.Warn("unparseable income entry",
			zap.String("symbol", symbol), zap.String("kind", string(kind)), zap.Error(err))
		return 0
	}
	return v
}

type adlEntry struct {
	Symbol      string `json:"symbol"`
	AdlQuantile struct {
		Long  int `json:"LONG"`
		Short int `json:"SHORT"`
		Both  int `json:"BOTH"`
	} `json:"adlQuantile"`
}

// fetchADLRanks fills ranks per symbol, preferring the side-specific
// quantile and falling back to the combined one. ADL is advisory: a failed
// fetch degrades the report, it does not fail the snapshot.
func (f *Fetcher) fetchADLRanks(ctx context.Context, ranks map[string]int) {
	var entries []adlEntry
	if err := f.signed.Get(ctx, clients.BinanceFuturesHost, adlQuantileEndpoint, url.Values{}, &entries); err != nil {
		f.logger.Warn("adl quantile unavailable", zap.Error(err))
		return
	}

	for _, e := range entries {
		switch {
		case e.AdlQuantile.Long > 0:
			ranks[e.Symbol] = e.AdlQuantile.Long
		case e.AdlQuantile.Both > 0:
			ranks[e.Symbol] = e.AdlQuantile.Both
		default:
			ranks[e.Symbol] = e.AdlQuantile.Short
		}
	}
}

func parseAmount(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}
