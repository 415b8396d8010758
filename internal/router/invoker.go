package router

import (
	"context"
	"encoding/binary"

	"github.com/alizeeshan1234/beethoven-trade/internal/ledger"
	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
	"github.com/holiman/uint256"
)

// SwapSettlement tells the local invoker how to settle one protocol's swap
// call: where the input amount sits in the encoded data, which schema
// positions are the trader's source and destination accounts, and the fill
// rate (output units per input unit, WAD).
type SwapSettlement struct {
	AmountOffset int
	SourceIndex  int
	DestIndex    int
	Rate         *uint256.Int
}

// LocalInvoker settles nested calls directly against the in-process ledger.
// It stands in for the external programs in local and test deployments; a
// production deployment replaces it with a host-chain submitter.
type LocalInvoker struct {
	swaps map[model.Address]SwapSettlement
}

func NewLocalInvoker() *LocalInvoker {
	return &LocalInvoker{swaps: make(map[model.Address]SwapSettlement)}
}

// SettleSwaps registers the settlement rule for a protocol program.
func (inv *LocalInvoker) SettleSwaps(program model.Address, s SwapSettlement) *LocalInvoker {
	inv.swaps[program] = s
	return inv
}

func (inv *LocalInvoker) Invoke(_ context.Context, u *ledger.Unit, call *NestedCall) error {
	s, ok := inv.swaps[call.Program]
	if !ok {
		// Liquidity calls settle off-ledger; positions surface through the
		// NAV valuer rather than token balances.
		return nil
	}
	if s.AmountOffset+8 > len(call.Data) {
		return apperrors.Newf(apperrors.ErrInvalidParameter, "call data too short for program %s", call.Program.Hex())
	}
	if s.SourceIndex >= len(call.Accounts) || s.DestIndex >= len(call.Accounts) {
		return apperrors.Newf(apperrors.ErrInvalidParameter, "settlement indices out of range for program %s", call.Program.Hex())
	}

	amountIn := binary.LittleEndian.Uint64(call.Data[s.AmountOffset : s.AmountOffset+8])

	out := new(uint256.Int).Mul(uint256.NewInt(amountIn), s.Rate)
	out.Div(out, uint256.NewInt(1_000_000_000_000_000_000))
	if !out.IsUint64() {
		return apperrors.New(apperrors.ErrMathOverflow, "settlement output exceeds uint64", nil)
	}

	if err := u.SettleDebit(call.Accounts[s.SourceIndex], amountIn); err != nil {
		return err
	}
	return u.Mint(call.Accounts[s.DestIndex], out.Uint64())
}
