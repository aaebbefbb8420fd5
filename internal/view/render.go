// Package view renders scan and account results for the terminal.
package view

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vadiminshakov/carryscan/internal/domain"
	"github.com/vadiminshakov/carryscan/internal/services/reconcile"
	"github.com/vadiminshakov/carryscan/internal/services/universe"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().Bold(true)
)

var scanHeader = []string{
	"coin", "fr", "fi", "fr_8h", "int_8h",
	"spt_bid", "spt_ask", "ftr_bid", "ftr_ask",
	"spr_fwd", "spr_rvs", "profit_fwd", "profit_rvs", "borrowable",
}

// RenderUniverse renders the three ranked views, topN rows each.
func RenderUniverse(u universe.Universe, topN int) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("ALL COINS BY FUNDING RATE"))
	b.WriteString("\n")
	b.WriteString(scanTable(u.ByFundingRate, topN))

	b.WriteString(titleStyle.Render("FORWARD CANDIDATES (funding > 0, by forward profit)"))
	b.WriteString("\n")
	b.WriteString(scanTable(u.Forward, topN))

	b.WriteString(titleStyle.Render("REVERSE CANDIDATES (funding < 0, by reverse profit)"))
	b.WriteString("\n")
	b.WriteString(scanTable(u.Reverse, topN))

	return b.String()
}

func scanTable(rows []domain.ArbitrageRow, topN int) string {
	if len(rows) == 0 {
		return "  (no rows)\n"
	}
	if topN > 0 && len(rows) > topN {
		rows = rows[:topN]
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle()
		}).
		Headers(scanHeader...)

	for _, row := range rows {
		t.Row(
			row.Asset,
			num(row.FundingRate),
			fmt.Sprintf("%.0fh", row.FundingIntervalHours),
			num(row.FundingRate8h),
			reading(row.InterestRate8h),
			reading(row.SpotBid),
			reading(row.SpotAsk),
			reading(row.FutureBid),
			reading(row.FutureAsk),
			reading(row.ForwardSpread),
			reading(row.ReverseSpread),
			reading(row.ForwardProfit),
			reading(row.ReverseProfit),
			fmt.Sprintf("%.0f", row.BorrowableValue),
		)
	}

	return t.Render() + "\n"
}

// RenderAccount renders the reconciled positions and the portfolio summary.
func RenderAccount(positions []domain.Position, s reconcile.Summary) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("RECONCILED POSITIONS"))
	b.WriteString("\n")

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle()
		}).
		Headers("asset", "spot_value", "futures_value", "mismatch", "inv%",
			"ur_pnl", "fund_pnl", "cum_fr%", "adl",
			"nxt_fr_pnl", "nxt_int", "nxt_net_pnl", "nxt_net%")

	for _, p := range positions {
		t.Row(
			p.Asset,
			money(p.SpotValue),
			money(p.FuturesValue),
			money(p.Mismatch),
			pct(p.InventoryPct),
			money(p.UnrealizedPnl),
			money(p.FundingPnl),
			pct(p.CumFundingReturn),
			fmt.Sprintf("%d", p.ADLRank),
			money(p.ProjectedFundingPnl),
			money(p.ProjectedInterestCost),
			money(p.ProjectedNetPnl),
			pct(p.ProjectedNetReturn),
		)
	}
	b.WriteString(t.Render())
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "total portfolio value      : %s USDT\n", money(s.TotalValue))
	fmt.Fprintf(&b, "spot inventory long/short  : %s / %s (net %s, gross %s)\n",
		pct(s.LongInventoryPct), pct(s.ShortInventoryPct), pct(s.NetInventoryPct), pct(s.GrossInventoryPct))
	fmt.Fprintf(&b, "cumulative funding pnl     : %s USDT (%s)\n", money(s.CumFundingPnl), pct(s.CumFundingReturn))
	fmt.Fprintf(&b, "projected funding pnl      : %s USDT (%s)\n", money(s.ProjectedFundingPnl), pct(s.ProjectedFundingReturn))
	fmt.Fprintf(&b, "projected interest cost    : %s USDT\n", money(s.ProjectedInterestCost))
	fmt.Fprintf(&b, "projected net pnl          : %s USDT (%s)\n", money(s.ProjectedNetPnl), pct(s.ProjectedNetReturn))
	fmt.Fprintf(&b, "best funding asset         : %s (%s USDT)\n", s.Best.Asset, money(s.Best.ProjectedFundingPnl))
	fmt.Fprintf(&b, "worst funding asset        : %s (%s USDT)\n", s.Worst.Asset, money(s.Worst.ProjectedFundingPnl))

	return b.String()
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.6f", v)
}

func money(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}

func pct(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f%%", v*100)
}

func reading(r domain.Reading) string {
	v, ok := r.Get()
	if !ok {
		return "-"
	}
	return num(v)
}
