package setup

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/carryscan/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// RunTUI launches the terminal configuration wizard and writes the
// generated per-venue config to config.gen.yaml.
func RunTUI() error {
	var (
		venues          []string
		minVolumeStr    string
		pollIntervalStr string
		topNStr         string
		dataDir         string
		confirm         bool
	)

	// defaults
	minVolumeStr = "100000"
	pollIntervalStr = "5m"
	topNStr = "20"
	dataDir = "./data"

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("CARRYSCAN CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Set up your funding scanner.\n"))

	fmt.Println(stepStyle.Render("STEP 1: VENUES"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Venues to scan").
				Options(
					huh.NewOption("Binance", "binance").Selected(true),
					huh.NewOption("Gate", "gate"),
					huh.NewOption("Bybit", "bybit"),
				).
				Validate(func(selected []string) error {
					if len(selected) == 0 {
						return fmt.Errorf("select at least one venue")
					}
					return nil
				}).
				Value(&venues),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("CARRYSCAN CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: LIQUIDITY FLOOR"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Min 24h volume (USDT)").
				Description("Assets below this on either leg are dropped").
				Value(&minVolumeStr).
				Validate(validateVolume),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("CARRYSCAN CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: TIMING"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Poll Interval").
				Description("Duration string (e.g. 30s, 1m, 5m)").
				Value(&pollIntervalStr).
				Validate(func(s string) error {
					_, err := time.ParseDuration(s)
					return err
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("CARRYSCAN CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: OUTPUT"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Rows per view").
				Description("Top N rows shown in each ranked table").
				Value(&topNStr).
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n < 1 {
						return fmt.Errorf("must be a positive integer")
					}
					return nil
				}),
			huh.NewInput().
				Title("Data directory").
				Description("Where csv exports are written").
				Value(&dataDir),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("CARRYSCAN CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf(
		"Venues: %v\nMin volume: %s USDT\nInterval: %s\nTop N: %s\nData dir: %s\n",
		venues, minVolumeStr, pollIntervalStr, topNStr, dataDir,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	pollInterval, _ := time.ParseDuration(pollIntervalStr)
	topN, _ := strconv.Atoi(topNStr)

	configs := make([]config.ConfigTmp, 0, len(venues))
	for _, venue := range venues {
		configs = append(configs, config.ConfigTmp{
			Venue:           venue,
			MinSpotVolume:   minVolumeStr,
			MinFutureVolume: minVolumeStr,
			PollInterval:    pollInterval,
			TopN:            topN,
			DataDir:         dataDir,
		})
	}

	data, err := yaml.Marshal(configs)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", filename)))
	return nil
}

func validateVolume(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if d.IsNegative() {
		return fmt.Errorf("must not be negative")
	}
	return nil
}
