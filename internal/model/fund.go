package model

import (
	"github.com/holiman/uint256"
)

const (
	MaxPerformanceFeeBps = uint64(2_000) // 20%
	MaxManagementFeeBps  = uint64(500)   // 5%

	MaxFundHoldings = 20
)

type FundStatus string

const (
	FundActive      FundStatus = "active"
	FundPaused      FundStatus = "paused"
	FundWindingDown FundStatus = "winding_down"
)

type HoldingType string

const (
	HoldingSpot           HoldingType = "spot"
	HoldingPerpLong       HoldingType = "perp_long"
	HoldingPerpShort      HoldingType = "perp_short"
	HoldingLendingDeposit HoldingType = "lending_deposit"
	HoldingLendingBorrow  HoldingType = "lending_borrow"
)

// Negative reports whether this holding type subtracts from NAV.
func (t HoldingType) Negative() bool {
	return t == HoldingPerpShort || t == HoldingLendingBorrow
}

// Holding is one off-vault position owned by the fund, valued by the
// external valuer during NAV cranks.
type Holding struct {
	Type   HoldingType `json:"type"`
	Asset  Address     `json:"asset"`
	Amount uint64      `json:"amount"`
}

// Fund is the singleton treasury record: share ledger totals, NAV state and
// proposal counters. NavPerShare and TotalNav are WAD fixed-point.
type Fund struct {
	Address Address `json:"address"`
	Admin   Address `json:"admin"`

	BaseAsset  Address `json:"base_asset"`
	ShareAsset Address `json:"share_asset"`
	Vault      Address `json:"vault"`

	TotalDeposits uint64       `json:"total_deposits"`
	TotalShares   uint64       `json:"total_shares"`
	NavPerShare   *uint256.Int `json:"nav_per_share"`
	TotalNav      *uint256.Int `json:"total_nav"`

	PerformanceFeeBps uint64  `json:"performance_fee_bps"`
	ManagementFeeBps  uint64  `json:"management_fee_bps"`
	FeeRecipient      Address `json:"fee_recipient"`

	TotalProposals  uint64 `json:"total_proposals"`
	ActiveProposals uint8  `json:"active_proposals"`

	Holdings []Holding `json:"holdings"`

	Status FundStatus `json:"status"`

	CreatedAt     int64 `json:"created_at"`
	LastNavUpdate int64 `json:"last_nav_update"`

	HighWaterMark *uint256.Int `json:"high_water_mark"`
}
