package model

import (
	"encoding/binary"

	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
	"github.com/holiman/uint256"
)

// ActionDataCapacity bounds the opaque payload carried by a proposal.
const ActionDataCapacity = 256

type ActionType string

const (
	ActionSwap            ActionType = "swap"
	ActionOpenPerp        ActionType = "open_perp"
	ActionClosePerp       ActionType = "close_perp"
	ActionDepositLending  ActionType = "deposit_lending"
	ActionWithdrawLending ActionType = "withdraw_lending"
	ActionBorrow          ActionType = "borrow"
	ActionRepay           ActionType = "repay"
	ActionUpdateParam     ActionType = "update_param"
)

func (t ActionType) Valid() bool {
	switch t {
	case ActionSwap, ActionOpenPerp, ActionClosePerp, ActionDepositLending,
		ActionWithdrawLending, ActionBorrow, ActionRepay, ActionUpdateParam:
		return true
	}
	return false
}

type ProposalStatus string

const (
	ProposalActive   ProposalStatus = "active"
	ProposalPassed   ProposalStatus = "passed"
	ProposalFailed   ProposalStatus = "failed"
	ProposalExecuted ProposalStatus = "executed"
)

// Proposal is one governance action, keyed by (fund, index). Records are never
// deleted; terminal states stay on the books for audit.
type Proposal struct {
	Address  Address `json:"address"`
	Fund     Address `json:"fund"`
	Proposer Address `json:"proposer"`
	Index    uint64  `json:"index"`

	ActionType ActionType `json:"action_type"`
	ActionData []byte     `json:"action_data"`

	PassMarket Address `json:"pass_market"`
	FailMarket Address `json:"fail_market"`

	PassTwap *uint256.Int `json:"pass_twap,omitempty"`
	FailTwap *uint256.Int `json:"fail_twap,omitempty"`

	Status ProposalStatus `json:"status"`

	VotingStart       int64 `json:"voting_start"`
	VotingEnd         int64 `json:"voting_end"`
	ExecutionDeadline int64 `json:"execution_deadline"`
	ExecutedAt        int64 `json:"executed_at,omitempty"`
}

// SwapAction is the decoded payload of an ActionSwap proposal.
type SwapAction struct {
	InputAsset       Address
	OutputAsset      Address
	AmountIn         uint64
	MinimumAmountOut uint64
}

const swapActionSize = 32 + 32 + 8 + 8

// Encode serializes the action into the proposal payload wire form:
// inputAsset(32) + outputAsset(32) + amountIn(8 LE) + minimumAmountOut(8 LE).
func (a SwapAction) Encode() []byte {
	buf := make([]byte, swapActionSize)
	copy(buf[0:32], a.InputAsset[:])
	copy(buf[32:64], a.OutputAsset[:])
	binary.LittleEndian.PutUint64(buf[64:72], a.AmountIn)
	binary.LittleEndian.PutUint64(buf[72:80], a.MinimumAmountOut)
	return buf
}

// DecodeSwapAction parses a proposal payload. Trailing padding up to the
// 256-byte capacity is ignored.
func DecodeSwapAction(data []byte) (SwapAction, error) {
	if len(data) < swapActionSize {
		return SwapAction{}, apperrors.Newf(apperrors.ErrInvalidActionData,
			"swap action requires %d bytes, got %d", swapActionSize, len(data))
	}
	var a SwapAction
	copy(a.InputAsset[:], data[0:32])
	copy(a.OutputAsset[:], data[32:64])
	a.AmountIn = binary.LittleEndian.Uint64(data[64:72])
	a.MinimumAmountOut = binary.LittleEndian.Uint64(data[72:80])
	return a, nil
}
