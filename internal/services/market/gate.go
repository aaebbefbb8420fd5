package market

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/carryscan/internal/clients"
	"github.com/vadiminshakov/carryscan/internal/domain"
)

const gateContractSuffix = "_USDT"

// GateSource implements Source for Gate.io spot + USDT-settled perpetuals
// through the hand-rolled v4 REST client.
type GateSource struct {
	client *clients.GateClient
}

func NewGateSource(client *clients.GateClient) *GateSource {
	return &GateSource{client: client}
}

func (s *GateSource) Name() string { return "gate" }

type gateCurrency struct {
	Currency      string `json:"currency"`
	TradeDisabled bool   `json:"trade_disabled"`
}

type gateContract struct {
	Name            string `json:"name"`
	FundingRate     string `json:"funding_rate"`
	FundingInterval int64  `json:"funding_interval"`
}

type gateSpotTicker struct {
	QuoteVolume string `json:"quote_volume"`
}

type gateFuturesTicker struct {
	Volume24hQuote string `json:"volume_24h_quote"`
}

type gateSpotBook struct {
	Bids [][]string `json:"bids"`
	Asks [][]string `json:"asks"`
}

type gateFuturesLevel struct {
	Price string `json:"p"`
	Size  int64  `json:"s"`
}

type gateFuturesBook struct {
	Bids []gateFuturesLevel `json:"bids"`
	Asks []gateFuturesLevel `json:"asks"`
}

func (s *GateSource) Assets(ctx context.Context) ([]string, error) {
	var currencies []gateCurrency
	if err := s.client.Get(ctx, "/spot/currencies", "", &currencies); err != nil {
		return nil, errors.Wrap(err, "fetch gate spot currencies")
	}

	spotAssets := make(map[string]struct{}, len(currencies))
	for _, c := range currencies {
		if !c.TradeDisabled {
			spotAssets[c.Currency] = struct{}{}
		}
	}

	var contracts []gateContract
	if err := s.client.Get(ctx, "/futures/usdt/contracts", "", &contracts); err != nil {
		return nil, errors.Wrap(err, "fetch gate futures contracts")
	}

	var common []string
	for _, c := range contracts {
		if !strings.HasSuffix(c.Name, gateContractSuffix) {
			continue
		}
		asset := strings.TrimSuffix(c.Name, gateContractSuffix)
		if _, ok := spotAssets[asset]; ok {
			common = append(common, asset)
		}
	}
	sort.Strings(common)

	return common, nil
}

func (s *GateSource) SpotQuote(ctx context.Context, asset string) SpotQuote {
	pair := asset + gateContractSuffix

	quote := SpotQuote{}
	var book gateSpotBook
	if err := s.client.Get(ctx, "/spot/order_book", "currency_pair="+pair, &book); err != nil {
		quote.Bid = domain.Unavail(errors.Wrapf(err, "gate spot order book %s", pair))
		quote.Ask = quote.Bid
	} else {
		quote.Bid = bestLevel(len(book.Bids) > 0 && len(book.Bids[0]) > 0, func() string { return book.Bids[0][0] })
		quote.Ask = bestLevel(len(book.Asks) > 0 && len(book.Asks[0]) > 0, func() string { return book.Asks[0][0] })
	}

	var tickers []gateSpotTicker
	switch err := s.client.Get(ctx, "/spot/tickers", "currency_pair="+pair, &tickers); {
	case err != nil:
		quote.Volume24h = domain.Unavail(errors.Wrapf(err, "gate spot ticker %s", pair))
	case len(tickers) == 0:
		quote.Volume24h = domain.Unavail(errors.Errorf("gate returned no spot ticker for %s", pair))
	default:
		quote.Volume24h = parseReading(tickers[0].QuoteVolume)
	}

	return quote
}

func (s *GateSource) FuturesQuote(ctx context.Context, asset string) FuturesQuote {
	contract := asset + gateContractSuffix

	quote := FuturesQuote{}
	var book gateFuturesBook
	if err := s.client.Get(ctx, "/futures/usdt/order_book", "contract="+contract, &book); err != nil {
		quote.Bid = domain.Unavail(errors.Wrapf(err, "gate futures order book %s", contract))
		quote.Ask = quote.Bid
	} else {
		quote.Bid = bestLevel(len(book.Bids) > 0, func() string { return book.Bids[0].Price })
		quote.Ask = bestLevel(len(book.Asks) > 0, func() string { return book.Asks[0].Price })
	}

	var tickers []gateFuturesTicker
	switch err := s.client.Get(ctx, "/futures/usdt/tickers", "contract="+contract, &tickers); {
	case err != nil:
		quote.Volume24h = domain.Unavail(errors.Wrapf(err, "gate futures ticker %s", contract))
	case len(tickers) == 0:
		quote.Volume24h = domain.Unavail(errors.Errorf("gate returned no futures ticker for %s", contract))
	default:
		quote.Volume24h = parseReading(tickers[0].Volume24hQuote)
	}

	return quote
}

func (s *GateSource) Funding(ctx context.Context, asset string) Funding {
	contract := asset + gateContractSuffix

	var c gateContract
	if err := s.client.Get(ctx, "/futures/usdt/contracts/"+contract, "", &c); err != nil {
		missing := domain.Unavail(errors.Wrapf(err, "gate contract %s", contract))
		return Funding{Rate: missing, IntervalHours: missing}
	}

	return Funding{
		Rate: parseReading(c.FundingRate),
		// the contract reports the interval in seconds.
		IntervalHours: domain.Avail(float64(c.FundingInterval) / 3600.0),
	}
}

func (s *GateSource) Borrow(ctx context.Context, asset string) Borrow {
	borrow := Borrow{Kind: domain.RateKindDaily}

	// estimate_rate is an hourly rate; carry it on a daily basis so the
	// normalizer's daily path applies.
	var estimates map[string]string
	if err := s.client.SignedGet(ctx, "/unified/estimate_rate", "currencies="+asset, &estimates); err != nil {
		borrow.Rate = domain.Unavail(errors.Wrapf(err, "gate estimate rate %s", asset))
	} else if hourly := parseReading(estimates[asset]); hourly.Available() {
		v, _ := hourly.Get()
		borrow.Rate = domain.Avail(v * 24)
	} else {
		borrow.Rate = hourly
	}

	var borrowable struct {
		Currency string `json:"currency"`
		Amount   string `json:"amount"`
	}
	if err := s.client.SignedGet(ctx, "/unified/borrowable", "currency="+asset, &borrowable); err != nil {
		borrow.MaxBorrowable = domain.Unavail(errors.Wrapf(err, "gate borrowable %s", asset))
	} else if borrowable.Currency == "" {
		borrow.MaxBorrowable = domain.Unavail(errors.Errorf("gate returned no borrowable entry for %s", asset))
	} else {
		borrow.MaxBorrowable = parseReading(borrowable.Amount)
	}

	return borrow
}
