package domain

import "time"

// SpotBalance is one asset's spot account balance.
type SpotBalance struct {
	Asset  string
	Free   float64
	Locked float64
}

// FuturesPosition is one open USDT-perpetual position as reported by the
// venue's account endpoint.
type FuturesPosition struct {
	Symbol           string
	PositionAmt      float64
	EntryPrice       float64
	MarkPrice        float64
	UnrealizedProfit float64
	InitialMargin    float64
	MaintMargin      float64
}

// IncomeKind identifies an income-history category on the futures account.
type IncomeKind string

const (
	IncomeRealizedPnl IncomeKind = "REALIZED_PNL"
	IncomeCommission  IncomeKind = "COMMISSION"
	IncomeFundingFee  IncomeKind = "FUNDING_FEE"
)

// Position is one reconciled asset row: spot balance merged with the open
// futures position plus forward-looking PnL projections. Percentage fields
// are NaN when their denominator is zero and are skipped by aggregate sums.
type Position struct {
	Asset string

	SpotValue    float64
	FuturesValue float64

	UnrealizedPnl float64
	RealizedPnl   float64
	FundingPnl    float64
	CommissionPnl float64

	EntryPrice float64
	ADLRank    int

	NextFundingRate      float64
	NextFundingTime      time.Time
	FundingIntervalHours float64
	InterestRate8h       float64

	InventoryPct     float64
	Mismatch         float64
	CumFundingReturn float64

	ProjectedFundingPnl    float64
	ProjectedInterestCost  float64
	ProjectedNetPnl        float64
	ProjectedFundingReturn float64
	ProjectedNetReturn     float64
}
