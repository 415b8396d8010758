package model

// Fee ceilings and leverage bounds, in basis points unless noted.
// An admin update outside these bounds is rejected outright.
const (
	MaxSwapFeeBps    = uint64(100) // 1%
	MaxPerpFeeBps    = uint64(50)  // 0.5%
	MaxLendingFeeBps = uint64(200) // 2%

	MinLeverage        = uint64(1)
	MaxLeverage        = uint64(50)
	DefaultMaxLeverage = uint64(20)

	DefaultLiquidationBonusBps       = uint64(500)   // 5% to liquidator
	DefaultMaxLiquidationFractionBps = uint64(5_000) // up to 50% per call
)

// Exchange is the singleton admin policy record. The router reads fee rates
// and pause flags from it; it never writes anything here.
type Exchange struct {
	Address Address `json:"address"`
	Admin   Address `json:"admin"`

	SwapFeeBps     uint64 `json:"swap_fee_bps"`
	PerpOpenFeeBps uint64 `json:"perp_open_fee_bps"`
	PerpCloseFee   uint64 `json:"perp_close_fee_bps"`
	LendingFeeBps  uint64 `json:"lending_fee_bps"`

	MaxLeverage               uint64 `json:"max_leverage"`
	LiquidationBonusBps       uint64 `json:"liquidation_bonus_bps"`
	MaxLiquidationFractionBps uint64 `json:"max_liquidation_fraction_bps"`

	SwapPaused    bool `json:"swap_paused"`
	PerpPaused    bool `json:"perp_paused"`
	LendingPaused bool `json:"lending_paused"`

	TotalUsers        uint64 `json:"total_users"`
	TotalPerpMarkets  uint64 `json:"total_perp_markets"`
	TotalLendingPools uint64 `json:"total_lending_pools"`
}

// VaultState is the per-asset custody record. One exists for every asset the
// platform ever holds; CollectedFees only increases.
type VaultState struct {
	Address      Address `json:"address"`
	Exchange     Address `json:"exchange"`
	Asset        Address `json:"asset"`
	TokenAccount Address `json:"token_account"`

	CollectedFees    uint64 `json:"collected_fees"`
	InsuranceBalance uint64 `json:"insurance_balance"`
}

// UserAccount tracks per-user activity counters bumped by router operations.
type UserAccount struct {
	Address Address `json:"address"`
	Owner   Address `json:"owner"`

	TotalTrades   uint64 `json:"total_trades"`
	TotalVolume   uint64 `json:"total_volume"`
	TotalFeesPaid uint64 `json:"total_fees_paid"`
	LastActivity  int64  `json:"last_activity"`
}
