// Command carryscan scans spot and perpetual markets for funding and
// borrow arbitrage, or reconciles a live carry portfolio against them.
//
// Usage:
//
//	carryscan --mode scan --config config.yaml
//	carryscan --mode scan --venue binance
//	carryscan --mode account
//	carryscan --mode setup
//
// API keys come from the environment (or a .env file):
//
//	Binance: BINANCE_API_KEY, BINANCE_API_SECRET
//	Gate:    GATE_API_KEY, GATE_API_SECRET
//	Bybit:   BYBIT_API_KEY, BYBIT_API_SECRET
//
// Scan mode works without keys on public endpoints; borrow limits and
// account mode need them.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/carryscan/config"
	"github.com/vadiminshakov/carryscan/internal/clients"
	"github.com/vadiminshakov/carryscan/internal/services/account"
	"github.com/vadiminshakov/carryscan/internal/services/market"
	"github.com/vadiminshakov/carryscan/internal/services/reconcile"
	"github.com/vadiminshakov/carryscan/internal/services/scanner"
	"github.com/vadiminshakov/carryscan/internal/setup"
	"github.com/vadiminshakov/carryscan/internal/storage/history"
	"github.com/vadiminshakov/carryscan/internal/view"
)

func main() {
	_ = godotenv.Load()

	opts, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	if opts.Mode == config.ModeSetup {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		return
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch opts.Mode {
	case config.ModeScan:
		err = runScan(ctx, opts.Venues, logger)
	case config.ModeAccount:
		err = runAccount(ctx, logger)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("run failed", zap.Error(err))
	}
}

// runScan polls every configured venue on its own ticker until the context
// is cancelled. Venues are independent; one venue's failed cycle is logged
// and retried next tick.
func runScan(ctx context.Context, venues []config.Config, logger *zap.Logger) error {
	var wg sync.WaitGroup

	for _, cfg := range venues {
		source, err := buildSource(cfg.Venue)
		if err != nil {
			return err
		}

		store, err := history.NewWALStore(cfg.WalDir)
		if err != nil {
			return errors.Wrapf(err, "open cycle store for %s", cfg.Venue)
		}
		defer store.Close()

		logger.Info("cycle history opened",
			zap.String("venue", cfg.Venue),
			zap.String("dir", cfg.WalDir),
			zap.Uint64("last_index", store.CurrentIndex()))

		scan := scanner.New(source,
			cfg.MinSpotVolume.InexactFloat64(),
			cfg.MinFutureVolume.InexactFloat64(),
			cfg.FetchConcurrency,
			logger.With(zap.String("venue", cfg.Venue)))

		wg.Add(1)
		go func(cfg config.Config) {
			defer wg.Done()
			scanLoop(ctx, cfg, scan, store, logger)
		}(cfg)
	}

	wg.Wait()
	return ctx.Err()
}

func scanLoop(ctx context.Context, cfg config.Config, scan *scanner.Scanner, store *history.WALStore, logger *zap.Logger) {
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		runCycle(ctx, cfg, scan, store, logger)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// printMu keeps concurrently ticking venues from interleaving their tables.
var printMu sync.Mutex

func runCycle(ctx context.Context, cfg config.Config, scan *scanner.Scanner, store *history.WALStore, logger *zap.Logger) {
	snap, err := scan.Scan(ctx)
	if err != nil {
		logger.Error("scan cycle failed", zap.String("venue", cfg.Venue), zap.Error(err))
		return
	}

	printMu.Lock()
	fmt.Println(view.RenderUniverse(snap.Universe, cfg.TopN))
	printMu.Unlock()

	cycle := history.Cycle{ID: snap.CycleID, Venue: snap.Venue, Time: snap.Time, Rows: snap.Universe.ByFundingRate}
	if err := store.Append(cycle); err != nil {
		logger.Error("cycle not persisted", zap.String("venue", cfg.Venue), zap.Error(err))
	}
	if err := history.ExportCSV(cfg.DataDir, snap.Venue, snap.Universe.ByFundingRate); err != nil {
		logger.Error("csv export failed", zap.String("venue", cfg.Venue), zap.Error(err))
	}
}

func buildSource(venue string) (market.Source, error) {
	switch venue {
	case "binance":
		apiKey := os.Getenv("BINANCE_API_KEY")
		apiSecret := os.Getenv("BINANCE_API_SECRET")
		return market.NewBinanceSource(
			clients.NewBinanceClient(apiKey, apiSecret),
			clients.NewBinanceFuturesClient(apiKey, apiSecret),
			clients.NewBinanceSigned(apiKey, apiSecret),
		), nil
	case "gate":
		return market.NewGateSource(clients.NewGateClient(os.Getenv("GATE_API_KEY"), os.Getenv("GATE_API_SECRET"))), nil
	case "bybit":
		return market.NewBybitSource(clients.NewBybitClient(os.Getenv("BYBIT_API_KEY"), os.Getenv("BYBIT_API_SECRET"))), nil
	default:
		return nil, errors.Errorf("unsupported venue %q", venue)
	}
}

// runAccount takes one account snapshot, reconciles it and prints the
// report.
func runAccount(ctx context.Context, logger *zap.Logger) error {
	apiKey := os.Getenv("BINANCE_API_KEY")
	apiSecret := os.Getenv("BINANCE_API_SECRET")
	if apiKey == "" || apiSecret == "" {
		return errors.New("BINANCE_API_KEY and BINANCE_API_SECRET environment variables must be set")
	}

	fetcher := account.NewFetcher(
		clients.NewBinanceClient(apiKey, apiSecret),
		clients.NewBinanceFuturesClient(apiKey, apiSecret),
		clients.NewBinanceSigned(apiKey, apiSecret),
		logger)

	inputs, err := fetcher.Snapshot(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch account snapshot")
	}

	positions, summary, err := reconcile.Reconcile(inputs)
	if err != nil {
		if errors.Is(err, reconcile.ErrEmptyUniverse) {
			fmt.Println("no positions above the dust threshold, nothing to reconcile")
			return nil
		}
		return errors.Wrap(err, "reconcile account")
	}

	fmt.Println(view.RenderAccount(positions, summary))
	return nil
}
