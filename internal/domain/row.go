package domain

import "time"

// ArbitrageRow is the per-asset output of one scan cycle: the raw quote
// fields that feed the ranked views plus the derived spreads and profits.
// Derived fields stay unavailable when their inputs are unavailable.
type ArbitrageRow struct {
	Asset string    `json:"asset"`
	Time  time.Time `json:"time"`

	FundingRate          float64 `json:"funding_rate"`
	FundingIntervalHours float64 `json:"funding_interval_hours"`
	FundingRate8h        float64 `json:"funding_rate_8h"`
	InterestRate8h       Reading `json:"interest_rate_8h"`

	SpotVolume24h   float64 `json:"spot_volume_24h"`
	FutureVolume24h float64 `json:"future_volume_24h"`

	SpotBid   Reading `json:"spot_bid"`
	SpotAsk   Reading `json:"spot_ask"`
	FutureBid Reading `json:"future_bid"`
	FutureAsk Reading `json:"future_ask"`

	ForwardSpread Reading `json:"forward_spread"`
	ReverseSpread Reading `json:"reverse_spread"`
	ForwardProfit Reading `json:"forward_profit"`
	ReverseProfit Reading `json:"reverse_profit"`

	// BorrowableValue is max borrowable converted to quote notional at the
	// spot mid price, rounded to the nearest unit. Zero when no mid exists.
	BorrowableValue float64 `json:"borrowable_value"`
}
