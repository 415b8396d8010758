package model

// SwapRequest routes a swap through a registered protocol. Accounts[0] is the
// protocol program; the remainder follow its positional schema. All addresses
// are 32-byte hex strings.
type SwapRequest struct {
	InputAccount     string   `json:"input_account" binding:"required"`
	OutputAccount    string   `json:"output_account" binding:"required"`
	AmountIn         uint64   `json:"amount_in" binding:"required"`
	MinimumAmountOut uint64   `json:"minimum_amount_out"`
	Accounts         []string `json:"accounts" binding:"required"`
}

// LiquidityRequest adds or removes external money-market liquidity.
type LiquidityRequest struct {
	Amount   uint64   `json:"amount" binding:"required"`
	Accounts []string `json:"accounts" binding:"required"`
}

// FundDepositRequest moves base-asset units into the fund vault.
type FundDepositRequest struct {
	SourceAccount string `json:"source_account" binding:"required"`
	Amount        uint64 `json:"amount" binding:"required"`
}

// FundWithdrawRequest burns shares against the fund NAV.
type FundWithdrawRequest struct {
	DestinationAccount string `json:"destination_account" binding:"required"`
	Shares             uint64 `json:"shares" binding:"required"`
}

// SwapActionRequest is the structured body of a swap proposal.
type SwapActionRequest struct {
	InputAsset       string `json:"input_asset" binding:"required"`
	OutputAsset      string `json:"output_asset" binding:"required"`
	AmountIn         uint64 `json:"amount_in" binding:"required"`
	MinimumAmountOut uint64 `json:"minimum_amount_out"`
}

// CreateProposalRequest opens a governance proposal. Swap proposals carry a
// structured action; other action types carry raw hex action data.
type CreateProposalRequest struct {
	ActionType string             `json:"action_type" binding:"required"`
	SwapAction *SwapActionRequest `json:"swap_action,omitempty"`
	ActionData string             `json:"action_data,omitempty"`
	PassMarket string             `json:"pass_market" binding:"required"`
	FailMarket string             `json:"fail_market" binding:"required"`
}

// FinalizeProposalRequest resolves a proposal. Overrides are WAD integers in
// decimal string form; both must be present and the caller must be the fund
// admin for them to take effect.
type FinalizeProposalRequest struct {
	PassTwapOverride string `json:"pass_twap_override,omitempty"`
	FailTwapOverride string `json:"fail_twap_override,omitempty"`
}

// ExecuteProposalRequest supplies the router accounts for a passed proposal.
type ExecuteProposalRequest struct {
	Accounts []string `json:"accounts" binding:"required"`
}

// InitExchangeRequest creates the exchange singleton.
type InitExchangeRequest struct {
	Admin         string `json:"admin" binding:"required"`
	SwapFeeBps    uint64 `json:"swap_fee_bps"`
	PerpFeeBps    uint64 `json:"perp_fee_bps"`
	LendingFeeBps uint64 `json:"lending_fee_bps"`
	MaxLeverage   uint64 `json:"max_leverage"`
}

// UpdateFeesRequest adjusts exchange fee rates. Nil fields are unchanged.
type UpdateFeesRequest struct {
	SwapFeeBps    *uint64 `json:"swap_fee_bps,omitempty"`
	PerpFeeBps    *uint64 `json:"perp_fee_bps,omitempty"`
	LendingFeeBps *uint64 `json:"lending_fee_bps,omitempty"`
}

// SetPauseRequest toggles operation circuit breakers. Nil fields are unchanged.
type SetPauseRequest struct {
	Swaps   *bool `json:"swaps,omitempty"`
	Perps   *bool `json:"perps,omitempty"`
	Lending *bool `json:"lending,omitempty"`
}

// CreateVaultRequest provisions a fee vault for an asset.
type CreateVaultRequest struct {
	Asset string `json:"asset" binding:"required"`
}

// InitFundRequest creates the fund singleton.
type InitFundRequest struct {
	Admin             string `json:"admin" binding:"required"`
	BaseAsset         string `json:"base_asset" binding:"required"`
	PerformanceFeeBps uint64 `json:"performance_fee_bps"`
	ManagementFeeBps  uint64 `json:"management_fee_bps"`
	FeeRecipient      string `json:"fee_recipient" binding:"required"`
}

// CreateAccountRequest provisions a token account on the internal ledger.
type CreateAccountRequest struct {
	Asset string `json:"asset" binding:"required"`
	Owner string `json:"owner" binding:"required"`
}
