package history

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/carryscan/internal/domain"
)

// csvHeader is the fixed export column order. Downstream tooling keys on
// these names; do not reorder.
var csvHeader = []string{
	"Time", "coin",
	"fr", "fi", "fr_8h", "int_8h",
	"spt_vol", "ftr_vol",
	"spt_bid", "spt_ask", "ftr_bid", "ftr_ask",
	"spr_fwd", "spr_rvs", "profit_fwd", "profit_rvs",
	"borrowable_value",
}

const csvTimeLayout = "2006-01-02 15:04:05"

// ExportCSV writes the filtered rows of one cycle to
// <dir>/all_coins_data_<venue>.csv, replacing the previous snapshot file.
// Unavailable fields become empty cells, never zeros.
func ExportCSV(dir, venue string, rows []domain.ArbitrageRow) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create export dir")
	}

	path := filepath.Join(dir, fmt.Sprintf("all_coins_data_%s.csv", venue))
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create export file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return errors.Wrap(err, "write csv header")
	}

	for _, row := range rows {
		record := []string{
			row.Time.Format(csvTimeLayout),
			row.Asset,
			formatFloat(row.FundingRate),
			formatFloat(row.FundingIntervalHours),
			formatFloat(row.FundingRate8h),
			formatReading(row.InterestRate8h),
			formatFloat(row.SpotVolume24h),
			formatFloat(row.FutureVolume24h),
			formatReading(row.SpotBid),
			formatReading(row.SpotAsk),
			formatReading(row.FutureBid),
			formatReading(row.FutureAsk),
			formatReading(row.ForwardSpread),
			formatReading(row.ReverseSpread),
			formatReading(row.ForwardProfit),
			formatReading(row.ReverseProfit),
			formatFloat(row.BorrowableValue),
		}
		if err := w.Write(record); err != nil {
			return errors.Wrapf(err, "write csv row for %s", row.Asset)
		}
	}

	w.Flush()
	return errors.Wrap(w.Error(), "flush csv")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatReading(r domain.Reading) string {
	v, ok := r.Get()
	if !ok {
		return ""
	}
	return formatFloat(v)
}
