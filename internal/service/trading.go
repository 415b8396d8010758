package service

import (
	"context"

	"github.com/alizeeshan1234/beethoven-trade/internal/ledger"
	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
	"github.com/alizeeshan1234/beethoven-trade/internal/registry"
	"github.com/alizeeshan1234/beethoven-trade/internal/router"
)

// TradingService fronts the router with the policy engine: every routed
// operation passes pre-trade checks first and records usage after success.
type TradingService struct {
	router *router.Router
	policy *Policy
	ledger *ledger.Ledger
}

func NewTradingService(r *router.Router, policy *Policy, l *ledger.Ledger) *TradingService {
	return &TradingService{router: r, policy: policy, ledger: l}
}

func protocolOf(accounts []model.Address) model.Address {
	if len(accounts) == 0 {
		return model.Address{}
	}
	return accounts[0]
}

func (s *TradingService) Swap(ctx context.Context, p router.SwapParams) (*router.SwapResult, error) {
	if s.policy != nil {
		if err := s.policy.CheckOperation(ctx, p.Caller, protocolOf(p.Accounts), p.AmountIn); err != nil {
			return nil, err
		}
	}
	result, err := s.router.ExecuteSwap(ctx, p)
	if err != nil {
		return nil, err
	}
	if s.policy != nil {
		s.policy.PostOperationHook(ctx, p.Caller, p.AmountIn)
	}
	return result, nil
}

func (s *TradingService) AddLiquidity(ctx context.Context, p router.LiquidityParams) error {
	return s.liquidity(ctx, p, s.router.AddLiquidity)
}

func (s *TradingService) RemoveLiquidity(ctx context.Context, p router.LiquidityParams) error {
	return s.liquidity(ctx, p, s.router.RemoveLiquidity)
}

func (s *TradingService) liquidity(ctx context.Context, p router.LiquidityParams, op func(context.Context, router.LiquidityParams) error) error {
	if s.policy != nil {
		if err := s.policy.CheckOperation(ctx, p.Caller, protocolOf(p.Accounts), p.Amount); err != nil {
			return err
		}
	}
	if err := op(ctx, p); err != nil {
		return err
	}
	if s.policy != nil {
		s.policy.PostOperationHook(ctx, p.Caller, p.Amount)
	}
	return nil
}

// CreateAccount provisions a token account at its derived address. The
// account address is derived from (owner, asset) so repeated calls fail
// AlreadyExists rather than minting duplicates.
func (s *TradingService) CreateAccount(owner, asset model.Address) (ledger.Account, error) {
	addr := registry.Derive(registry.KindTokenAccount, owner.Bytes(), asset.Bytes())
	if err := s.ledger.CreateAccount(addr, asset, owner); err != nil {
		return ledger.Account{}, err
	}
	return s.ledger.Account(addr)
}

// Account returns the token account at addr.
func (s *TradingService) Account(addr model.Address) (ledger.Account, error) {
	acc, err := s.ledger.Account(addr)
	if err != nil {
		return ledger.Account{}, apperrors.Wrap(err)
	}
	return acc, nil
}
