// Package router implements the stateless protocol dispatcher: it validates
// swap and liquidity requests, selects an adapter from the caller-supplied
// account list, extracts fees and forwards the shaped nested call to the
// external program. Protocols are integrated by registering an adapter, never
// by branching router logic on protocol identity.
package router

import (
	"context"
	"sync"

	"github.com/alizeeshan1234/beethoven-trade/internal/ledger"
	"github.com/alizeeshan1234/beethoven-trade/internal/model"
)

// NestedCall is the shaped invocation forwarded to an external program:
// the program address, the schema-ordered account list and the encoded
// instruction payload.
type NestedCall struct {
	Program  model.Address
	Accounts []model.Address
	Data     []byte
}

// Invoker submits a nested call to the external program. Implementations
// settle balances through the supplied ledger unit so their effects revert
// with the rest of the operation when it aborts.
type Invoker interface {
	Invoke(ctx context.Context, u *ledger.Unit, call *NestedCall) error
}

// SwapAdapter shapes swap calls for one external DEX program.
type SwapAdapter interface {
	// Program is the external-program identifier the adapter is keyed by.
	Program() model.Address
	// BuildSwap validates the positional account schema and encodes the call.
	BuildSwap(accounts []model.Address, amountIn, minimumAmountOut uint64) (*NestedCall, error)
}

// LiquidityAdapter shapes deposit and redeem calls for one external money
// market or yield program.
type LiquidityAdapter interface {
	Program() model.Address
	BuildDeposit(accounts []model.Address, amount uint64) (*NestedCall, error)
	BuildRedeem(accounts []model.Address, amount uint64) (*NestedCall, error)
}

// AdapterSet holds the registered adapters, keyed by program identifier.
type AdapterSet struct {
	mu        sync.RWMutex
	swaps     map[model.Address]SwapAdapter
	liquidity map[model.Address]LiquidityAdapter
}

func NewAdapterSet() *AdapterSet {
	return &AdapterSet{
		swaps:     make(map[model.Address]SwapAdapter),
		liquidity: make(map[model.Address]LiquidityAdapter),
	}
}

func (s *AdapterSet) RegisterSwap(a SwapAdapter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swaps[a.Program()] = a
}

func (s *AdapterSet) RegisterLiquidity(a LiquidityAdapter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liquidity[a.Program()] = a
}

func (s *AdapterSet) Swap(program model.Address) (SwapAdapter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.swaps[program]
	return a, ok
}

func (s *AdapterSet) Liquidity(program model.Address) (LiquidityAdapter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.liquidity[program]
	return a, ok
}
