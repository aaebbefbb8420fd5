package market

import (
	"context"
	"sort"
	"sync"

	bybit "github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"

	"github.com/vadiminshakov/carryscan/internal/domain"
	"github.com/vadiminshakov/carryscan/pkg/retrier"
)

const bybitQuoteCoin = "USDT"

// BybitSource implements Source for Bybit spot + USDT linear perpetuals.
// Bybit's unified account has no per-asset margin borrow market comparable
// to the other venues, so the borrow leg is reported unavailable. SDK calls
// are retried per request.
type BybitSource struct {
	client *bybit.Client
	retry  *retrier.Retrier

	mu sync.Mutex
	// funding interval per symbol, hours, cached from instruments info.
	intervals map[string]float64
}

func NewBybitSource(client *bybit.Client) *BybitSource {
	return &BybitSource{client: client, retry: retrier.New(), intervals: make(map[string]float64)}
}

func (s *BybitSource) Name() string { return "bybit" }

func (s *BybitSource) Assets(ctx context.Context) ([]string, error) {
	spotResp, err := retrier.DoWithData(ctx, s.retry, func(context.Context) (*bybit.V5GetInstrumentsInfoResponse, error) {
		return s.client.V5().Market().GetInstrumentsInfo(bybit.V5GetInstrumentsInfoParam{
			Category: bybit.CategoryV5Spot,
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "fetch bybit spot instruments")
	}

	spotAssets := make(map[string]struct{})
	for _, item := range spotResp.Result.Spot.List {
		if string(item.Status) == "Trading" && string(item.QuoteCoin) == bybitQuoteCoin {
			spotAssets[string(item.BaseCoin)] = struct{}{}
		}
	}

	linearResp, err := retrier.DoWithData(ctx, s.retry, func(context.Context) (*bybit.V5GetInstrumentsInfoResponse, error) {
		return s.client.V5().Market().GetInstrumentsInfo(bybit.V5GetInstrumentsInfoParam{
			Category: bybit.CategoryV5Linear,
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "fetch bybit linear instruments")
	}

	intervals := make(map[string]float64)
	var common []string
	for _, item := range linearResp.Result.LinearInverse.List {
		if string(item.Status) != "Trading" || string(item.QuoteCoin) != bybitQuoteCoin {
			continue
		}
		base := string(item.BaseCoin)
		if _, ok := spotAssets[base]; !ok {
			continue
		}
		common = append(common, base)
		// instruments info reports the interval in minutes.
		intervals[string(item.Symbol)] = float64(item.FundingInterval) / 60.0
	}
	sort.Strings(common)

	s.mu.Lock()
	s.intervals = intervals
	s.mu.Unlock()

	return common, nil
}

func (s *BybitSource) SpotQuote(ctx context.Context, asset string) SpotQuote {
	symbol := bybit.SymbolV5(asset + bybitQuoteCoin)

	resp, err := retrier.DoWithData(ctx, s.retry, func(context.Context) (*bybit.V5GetTickersResponse, error) {
		return s.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
			Category: bybit.CategoryV5Spot,
			Symbol:   &symbol,
		})
	})
	if err != nil {
		missing := domain.Unavail(errors.Wrapf(err, "bybit spot ticker %s", symbol))
		return SpotQuote{Bid: missing, Ask: missing, Volume24h: missing}
	}
	if len(resp.Result.Spot.List) == 0 {
		missing := domain.Unavail(errors.Errorf("bybit returned no spot ticker for %s", symbol))
		return SpotQuote{Bid: missing, Ask: missing, Volume24h: missing}
	}

	t := resp.Result.Spot.List[0]
	return SpotQuote{
		Bid:       parseReading(t.Bid1Price),
		Ask:       parseReading(t.Ask1Price),
		Volume24h: parseReading(t.Turnover24H),
	}
}

func (s *BybitSource) FuturesQuote(ctx context.Context, asset string) FuturesQuote {
	t, err := s.linearTicker(ctx, asset)
	if err != nil {
		missing := domain.Unavail(err)
		return FuturesQuote{Bid: missing, Ask: missing, Volume24h: missing}
	}

	return FuturesQuote{
		Bid:       parseReading(t.Bid1Price),
		Ask:       parseReading(t.Ask1Price),
		Volume24h: parseReading(t.Turnover24H),
	}
}

func (s *BybitSource) Funding(ctx context.Context, asset string) Funding {
	t, err := s.linearTicker(ctx, asset)
	if err != nil {
		missing := domain.Unavail(err)
		return Funding{Rate: missing, IntervalHours: missing}
	}

	funding := Funding{Rate: parseReading(t.FundingRate)}

	s.mu.Lock()
	interval, ok := s.intervals[asset+bybitQuoteCoin]
	s.mu.Unlock()
	if !ok {
		funding.IntervalHours = domain.Unavail(errors.Errorf("bybit funding interval unknown for %s", asset))
		return funding
	}
	funding.IntervalHours = domain.Avail(interval)

	return funding
}

func (s *BybitSource) Borrow(ctx context.Context, asset string) Borrow {
	return Borrow{
		Rate:          domain.Unavail(ErrBorrowUnsupported),
		Kind:          domain.RateKindDaily,
		MaxBorrowable: domain.Unavail(ErrBorrowUnsupported),
	}
}

func (s *BybitSource) linearTicker(ctx context.Context, asset string) (bybit.V5GetTickersLinearInverseItem, error) {
	symbol := bybit.SymbolV5(asset + bybitQuoteCoin)

	resp, err := retrier.DoWithData(ctx, s.retry, func(context.Context) (*bybit.V5GetTickersResponse, error) {
		return s.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
			Category: bybit.CategoryV5Linear,
			Symbol:   &symbol,
		})
	})
	if err != nil {
		return bybit.V5GetTickersLinearInverseItem{}, errors.Wrapf(err, "bybit linear ticker %s", symbol)
	}
	if len(resp.Result.LinearInverse.List) == 0 {
		return bybit.V5GetTickersLinearInverseItem{}, errors.Errorf("bybit returned no linear ticker for %s", symbol)
	}

	return resp.Result.LinearInverse.List[0], nil
}
