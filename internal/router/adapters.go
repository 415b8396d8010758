package router

import (
	"encoding/binary"

	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
)

// Concrete adapters mirror the positional account schemas and instruction
// encodings of the integrated protocols. Program identifiers are supplied at
// registration; the adapter only owns the call shape.

// ManifestAdapter routes order-book swaps.
// Schema: payer, market, trader-base, trader-quote, base-vault, quote-vault,
// token-program.
type ManifestAdapter struct {
	program model.Address
}

func NewManifestAdapter(program model.Address) *ManifestAdapter {
	return &ManifestAdapter{program: program}
}

func (a *ManifestAdapter) Program() model.Address { return a.program }

func (a *ManifestAdapter) BuildSwap(accounts []model.Address, amountIn, minimumAmountOut uint64) (*NestedCall, error) {
	if err := requireAccounts(accounts, 7, "manifest swap"); err != nil {
		return nil, err
	}
	// discriminator(1) + inAtoms(8) + outAtoms(8) + isBaseIn(1) + isExactIn(1)
	data := make([]byte, 0, 19)
	data = append(data, 4)
	data = appendUint64(data, amountIn)
	data = appendUint64(data, minimumAmountOut)
	data = append(data, 0, 1)
	return &NestedCall{Program: a.program, Accounts: accounts, Data: data}, nil
}

// GammaAdapter routes AMM pool swaps.
// Schema: payer, authority, amm-config, pool, input-account, output-account,
// input-vault, output-vault, input-program, output-program, input-mint,
// output-mint, observation.
type GammaAdapter struct {
	program model.Address
}

func NewGammaAdapter(program model.Address) *GammaAdapter {
	return &GammaAdapter{program: program}
}

func (a *GammaAdapter) Program() model.Address { return a.program }

func (a *GammaAdapter) BuildSwap(accounts []model.Address, amountIn, minimumAmountOut uint64) (*NestedCall, error) {
	if err := requireAccounts(accounts, 13, "gamma swap"); err != nil {
		return nil, err
	}
	data := make([]byte, 0, 24)
	data = append(data, 239, 82, 192, 187, 160, 26, 223, 223)
	data = appendUint64(data, amountIn)
	data = appendUint64(data, minimumAmountOut)
	return &NestedCall{Program: a.program, Accounts: accounts, Data: data}, nil
}

// SolFiAdapter routes single-pool swaps.
// Schema: payer, pair, pair-base-vault, pair-quote-vault, token-program.
type SolFiAdapter struct {
	program model.Address
}

func NewSolFiAdapter(program model.Address) *SolFiAdapter {
	return &SolFiAdapter{program: program}
}

func (a *SolFiAdapter) Program() model.Address { return a.program }

func (a *SolFiAdapter) BuildSwap(accounts []model.Address, amountIn, minimumAmountOut uint64) (*NestedCall, error) {
	if err := requireAccounts(accounts, 5, "solfi swap"); err != nil {
		return nil, err
	}
	data := make([]byte, 0, 24)
	data = append(data, 0xa3, 0xb2, 0xc1, 0xd0, 0xe4, 0xf5, 0x06, 0x17)
	data = appendUint64(data, amountIn)
	data = appendUint64(data, minimumAmountOut)
	return &NestedCall{Program: a.program, Accounts: accounts, Data: data}, nil
}

// KaminoAdapter routes lending-reserve deposits and redemptions.
// Deposit schema: owner, reserve, market, authority, liquidity-supply,
// collateral-mint, user-source, user-destination, token-program.
type KaminoAdapter struct {
	program model.Address
}

func NewKaminoAdapter(program model.Address) *KaminoAdapter {
	return &KaminoAdapter{program: program}
}

func (a *KaminoAdapter) Program() model.Address { return a.program }

func (a *KaminoAdapter) BuildDeposit(accounts []model.Address, amount uint64) (*NestedCall, error) {
	if err := requireAccounts(accounts, 9, "kamino deposit"); err != nil {
		return nil, err
	}
	data := make([]byte, 0, 16)
	data = append(data, 169, 201, 30, 126, 6, 205, 102, 68)
	data = appendUint64(data, amount)
	return &NestedCall{Program: a.program, Accounts: accounts, Data: data}, nil
}

func (a *KaminoAdapter) BuildRedeem(accounts []model.Address, amount uint64) (*NestedCall, error) {
	if err := requireAccounts(accounts, 9, "kamino redeem"); err != nil {
		return nil, err
	}
	data := make([]byte, 0, 16)
	data = append(data, 234, 117, 181, 125, 185, 142, 220, 29)
	data = appendUint64(data, amount)
	return &NestedCall{Program: a.program, Accounts: accounts, Data: data}, nil
}

// JupiterAdapter routes yield-vault deposits and withdrawals. The earn
// program carries a wide fixed account list (17 entries) covering the vault,
// rate model and reward plumbing.
type JupiterAdapter struct {
	program model.Address
}

func NewJupiterAdapter(program model.Address) *JupiterAdapter {
	return &JupiterAdapter{program: program}
}

func (a *JupiterAdapter) Program() model.Address { return a.program }

func (a *JupiterAdapter) BuildDeposit(accounts []model.Address, amount uint64) (*NestedCall, error) {
	if err := requireAccounts(accounts, 17, "jupiter deposit"); err != nil {
		return nil, err
	}
	data := make([]byte, 0, 16)
	data = append(data, 242, 35, 198, 137, 82, 225, 242, 182)
	data = appendUint64(data, amount)
	return &NestedCall{Program: a.program, Accounts: accounts, Data: data}, nil
}

func (a *JupiterAdapter) BuildRedeem(accounts []model.Address, amount uint64) (*NestedCall, error) {
	if err := requireAccounts(accounts, 17, "jupiter withdraw"); err != nil {
		return nil, err
	}
	data := make([]byte, 0, 16)
	data = append(data, 183, 18, 70, 156, 148, 109, 161, 34)
	data = appendUint64(data, amount)
	return &NestedCall{Program: a.program, Accounts: accounts, Data: data}, nil
}

func requireAccounts(accounts []model.Address, min int, op string) error {
	if len(accounts) < min {
		return apperrors.Newf(apperrors.ErrInvalidParameter,
			"%s requires %d accounts, got %d", op, min, len(accounts))
	}
	return nil
}

func appendUint64(b []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(b, v)
}
