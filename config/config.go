package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	ModeScan    = "scan"
	ModeAccount = "account"
	ModeSetup   = "setup"
)

var defaultMinVolume = decimal.NewFromInt(100_000)

// Config holds the per-venue scan settings.
type Config struct {
	Venue            string
	MinSpotVolume    decimal.Decimal
	MinFutureVolume  decimal.Decimal
	PollInterval     time.Duration
	FetchConcurrency int
	TopN             int
	DataDir          string
	WalDir           string
}

// Options is the parsed command line: the run mode plus one Config per venue.
type Options struct {
	Mode   string
	Venues []Config
}

// ConfigTmp is the yaml form of Config. Volumes are strings so that the
// wizard and hand-edited files can use plain numbers.
type ConfigTmp struct {
	Venue            string        `yaml:"venue"`
	MinSpotVolume    string        `yaml:"min_spot_volume,omitempty"`
	MinFutureVolume  string        `yaml:"min_future_volume,omitempty"`
	PollInterval     time.Duration `yaml:"poll_interval,omitempty"`
	FetchConcurrency int           `yaml:"fetch_concurrency,omitempty"`
	TopN             int           `yaml:"top_n,omitempty"`
	DataDir          string        `yaml:"data_dir,omitempty"`
	WalDir           string        `yaml:"wal_dir,omitempty"`
}

// Get parses flags and, when a yaml config is given, the per-venue settings
// from it. Without a config file a single venue is read from flags.
func Get() (Options, error) {
	mode := flag.String("mode", ModeScan, "run mode: scan, account or setup")
	configPath := flag.String("config", "", "path to yaml config")
	venue := flag.String("venue", "binance", "venue to scan: binance, gate or bybit")
	minVolume := flag.String("minvolume", defaultMinVolume.String(), "24h quote volume floor for both legs, USDT")
	pollInterval := flag.Duration("pollinterval", 5*time.Minute, "delay between scan cycles")
	concurrency := flag.Int("concurrency", 8, "parallel per-asset fetches")
	topN := flag.Int("topn", 20, "rows per rendered view")
	dataDir := flag.String("datadir", "./data", "directory for csv exports")
	walDir := flag.String("waldir", "", "directory for the cycle history WAL (default ./wal/cycles/<venue>)")
	flag.Parse()

	opts := Options{Mode: *mode}
	switch opts.Mode {
	case ModeScan, ModeAccount, ModeSetup:
	default:
		return Options{}, fmt.Errorf("unknown mode %q", opts.Mode)
	}

	if *configPath != "" {
		venues, err := fromYaml(*configPath)
		if err != nil {
			return Options{}, err
		}
		opts.Venues = venues
		return opts, nil
	}

	vol, err := decimal.NewFromString(*minVolume)
	if err != nil {
		return Options{}, fmt.Errorf("invalid --minvolume=%s: %w", *minVolume, err)
	}

	cfg := Config{
		Venue:            strings.ToLower(*venue),
		MinSpotVolume:    vol,
		MinFutureVolume:  vol,
		PollInterval:     *pollInterval,
		FetchConcurrency: *concurrency,
		TopN:             *topN,
		DataDir:          *dataDir,
		WalDir:           *walDir,
	}
	if err := validate(&cfg); err != nil {
		return Options{}, err
	}

	opts.Venues = []Config{cfg}
	return opts, nil
}

func fromYaml(path string) ([]Config, error) {
	var tmp []ConfigTmp

	f, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return nil, err
	}
	if len(tmp) == 0 {
		return nil, fmt.Errorf("config %s defines no venues", path)
	}

	configs := make([]Config, 0, len(tmp))
	for _, c := range tmp {
		cfg := Config{
			Venue:            strings.ToLower(c.Venue),
			MinSpotVolume:    defaultMinVolume,
			MinFutureVolume:  defaultMinVolume,
			PollInterval:     c.PollInterval,
			FetchConcurrency: c.FetchConcurrency,
			TopN:             c.TopN,
			DataDir:          c.DataDir,
			WalDir:           c.WalDir,
		}

		if c.MinSpotVolume != "" {
			cfg.MinSpotVolume, err = decimal.NewFromString(c.MinSpotVolume)
			if err != nil {
				return nil, fmt.Errorf("incorrect 'min_spot_volume' param in yaml config: %w", err)
			}
		}
		if c.MinFutureVolume != "" {
			cfg.MinFutureVolume, err = decimal.NewFromString(c.MinFutureVolume)
			if err != nil {
				return nil, fmt.Errorf("incorrect 'min_future_volume' param in yaml config: %w", err)
			}
		}

		if err := validate(&cfg); err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}

	return configs, nil
}

func validate(cfg *Config) error {
	switch cfg.Venue {
	case "binance", "gate", "bybit":
	default:
		return fmt.Errorf("unsupported venue %q", cfg.Venue)
	}

	if cfg.MinSpotVolume.IsNegative() || cfg.MinFutureVolume.IsNegative() {
		return fmt.Errorf("volume floors must not be negative")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Minute
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 8
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 20
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	// each venue gets its own WAL directory; a gowal log holds one index
	// sequence and cannot be shared between writers.
	if cfg.WalDir == "" {
		cfg.WalDir = filepath.Join("./wal/cycles", cfg.Venue)
	}

	return nil
}
