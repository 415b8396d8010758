package router

import (
	"context"
	"time"

	"github.com/alizeeshan1234/beethoven-trade/internal/ledger"
	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/logger"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/metrics"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/wad"
	"github.com/alizeeshan1234/beethoven-trade/internal/registry"
)

// Router dispatches swap and liquidity operations to registered protocol
// adapters. It retains no state across calls; the only shared mutable
// resources it touches are vault custody balances, the vault fee counter and
// per-user activity counters, all updated inside one journaled unit with the
// nested call's effects.
type Router struct {
	store    *registry.Store
	ledger   *ledger.Ledger
	adapters *AdapterSet
	invoker  Invoker
	exchange model.Address
	now      func() time.Time
}

func New(store *registry.Store, l *ledger.Ledger, adapters *AdapterSet, invoker Invoker, exchange model.Address) *Router {
	return &Router{
		store:    store,
		ledger:   l,
		adapters: adapters,
		invoker:  invoker,
		exchange: exchange,
		now:      time.Now,
	}
}

// WithClock overrides the time source.
func (r *Router) WithClock(now func() time.Time) *Router {
	r.now = now
	return r
}

// SwapParams carries one swap request. Accounts[0] selects the protocol; the
// rest follow the adapter's positional schema.
type SwapParams struct {
	Caller           model.Address
	InputAccount     model.Address
	OutputAccount    model.Address
	AmountIn         uint64
	MinimumAmountOut uint64
	Accounts         []model.Address
}

// SwapResult reports the settled amounts of a successful swap.
type SwapResult struct {
	Protocol  model.Address `json:"protocol"`
	AmountIn  uint64        `json:"amount_in"`
	AmountOut uint64        `json:"amount_out"`
	Fee       uint64        `json:"fee"`
}

// LiquidityParams carries one add/remove liquidity request.
type LiquidityParams struct {
	Caller   model.Address
	Amount   uint64
	Accounts []model.Address
}

func (r *Router) exchangeConfig() (*model.Exchange, error) {
	ex, ok := registry.GetAs[model.Exchange](r.store, r.exchange)
	if !ok {
		return nil, apperrors.New(apperrors.ErrNotFound, "exchange not initialized", nil)
	}
	return ex, nil
}

// resolveSwap validates the leading account and returns the matched adapter.
// No fee is taken and no transfer happens when this fails.
func (r *Router) resolveSwap(accounts []model.Address) (SwapAdapter, error) {
	if len(accounts) == 0 {
		metrics.RouterRejects.WithLabelValues("empty_accounts").Inc()
		return nil, apperrors.New(apperrors.ErrUnsupportedProtocol, "no protocol program supplied", nil)
	}
	adapter, ok := r.adapters.Swap(accounts[0])
	if !ok {
		metrics.RouterRejects.WithLabelValues("unknown_protocol").Inc()
		return nil, apperrors.Newf(apperrors.ErrUnsupportedProtocol, "unrecognized protocol program %s", accounts[0].Hex())
	}
	return adapter, nil
}

func (r *Router) resolveLiquidity(accounts []model.Address) (LiquidityAdapter, error) {
	if len(accounts) == 0 {
		metrics.RouterRejects.WithLabelValues("empty_accounts").Inc()
		return nil, apperrors.New(apperrors.ErrUnsupportedProtocol, "no protocol program supplied", nil)
	}
	adapter, ok := r.adapters.Liquidity(accounts[0])
	if !ok {
		metrics.RouterRejects.WithLabelValues("unknown_protocol").Inc()
		return nil, apperrors.Newf(apperrors.ErrUnsupportedProtocol, "unrecognized protocol program %s", accounts[0].Hex())
	}
	return adapter, nil
}

// ExecuteSwap charges the configured swap fee into the input asset's vault,
// forwards the residual through the matched adapter and enforces the output
// bound. Any failure rolls the whole attempt back, fee included.
func (r *Router) ExecuteSwap(ctx context.Context, p SwapParams) (*SwapResult, error) {
	if p.AmountIn == 0 {
		metrics.RouterRejects.WithLabelValues("invalid_amount").Inc()
		return nil, apperrors.NewInvalidAmount("swap amount must be greater than zero")
	}

	ex, err := r.exchangeConfig()
	if err != nil {
		return nil, err
	}
	if ex.SwapPaused {
		return nil, apperrors.New(apperrors.ErrExchangePaused, "swaps are paused", nil)
	}

	adapter, err := r.resolveSwap(p.Accounts)
	if err != nil {
		return nil, err
	}
	protocol := p.Accounts[0]

	fee := wad.BpsMul(p.AmountIn, ex.SwapFeeBps)
	amountAfterFee := p.AmountIn - fee

	call, err := adapter.BuildSwap(p.Accounts[1:], amountAfterFee, p.MinimumAmountOut)
	if err != nil {
		return nil, err
	}

	var amountOut uint64
	err = r.ledger.WithUnit(func(u *ledger.Unit) error {
		if fee > 0 {
			vault, vaultErr := r.vaultForAccount(u, p.InputAccount)
			if vaultErr != nil {
				return vaultErr
			}
			if transferErr := u.Transfer(p.InputAccount, vault.TokenAccount, p.Caller, fee); transferErr != nil {
				return transferErr
			}
			prevFees := vault.CollectedFees
			vault.CollectedFees += fee
			u.OnRollback(func() { vault.CollectedFees = prevFees })
		}

		preBalance := u.Balance(p.OutputAccount)

		if invokeErr := r.invoker.Invoke(ctx, u, call); invokeErr != nil {
			return invokeErr
		}

		postBalance := u.Balance(p.OutputAccount)
		amountOut = postBalance - preBalance
		if amountOut == 0 {
			return apperrors.New(apperrors.ErrSwapOutputZero, "swap returned zero output", nil)
		}
		if amountOut < p.MinimumAmountOut {
			return apperrors.Newf(apperrors.ErrSlippageExceeded,
				"received %d, minimum %d", amountOut, p.MinimumAmountOut)
		}

		r.touchUser(u, p.Caller, func(user *model.UserAccount) {
			user.TotalTrades++
			user.TotalVolume += p.AmountIn
			user.TotalFeesPaid += fee
		})
		return nil
	})
	if err != nil {
		metrics.SwapsTotal.WithLabelValues(protocol.Hex(), "failed").Inc()
		return nil, err
	}

	metrics.SwapsTotal.WithLabelValues(protocol.Hex(), "ok").Inc()
	logger.Info("swap routed",
		"protocol", protocol.Hex(),
		"amount_in", p.AmountIn,
		"amount_out", amountOut,
		"fee", fee,
	)
	return &SwapResult{Protocol: protocol, AmountIn: p.AmountIn, AmountOut: amountOut, Fee: fee}, nil
}

// AddLiquidity forwards a deposit into an external money market. No fee is
// taken on liquidity operations.
func (r *Router) AddLiquidity(ctx context.Context, p LiquidityParams) error {
	return r.liquidityOp(ctx, p, "add")
}

// RemoveLiquidity forwards a redemption from an external money market.
func (r *Router) RemoveLiquidity(ctx context.Context, p LiquidityParams) error {
	return r.liquidityOp(ctx, p, "remove")
}

func (r *Router) liquidityOp(ctx context.Context, p LiquidityParams, op string) error {
	if p.Amount == 0 {
		metrics.RouterRejects.WithLabelValues("invalid_amount").Inc()
		return apperrors.NewInvalidAmount("liquidity amount must be greater than zero")
	}

	ex, err := r.exchangeConfig()
	if err != nil {
		return err
	}
	if ex.LendingPaused {
		return apperrors.New(apperrors.ErrExchangePaused, "lending operations are paused", nil)
	}

	adapter, err := r.resolveLiquidity(p.Accounts)
	if err != nil {
		return err
	}
	protocol := p.Accounts[0]

	var call *NestedCall
	if op == "add" {
		call, err = adapter.BuildDeposit(p.Accounts[1:], p.Amount)
	} else {
		call, err = adapter.BuildRedeem(p.Accounts[1:], p.Amount)
	}
	if err != nil {
		return err
	}

	err = r.ledger.WithUnit(func(u *ledger.Unit) error {
		if invokeErr := r.invoker.Invoke(ctx, u, call); invokeErr != nil {
			return invokeErr
		}
		r.touchUser(u, p.Caller, func(user *model.UserAccount) {})
		return nil
	})
	if err != nil {
		metrics.LiquidityOpsTotal.WithLabelValues(protocol.Hex(), op, "failed").Inc()
		return err
	}

	metrics.LiquidityOpsTotal.WithLabelValues(protocol.Hex(), op, "ok").Inc()
	logger.Info("liquidity routed", "protocol", protocol.Hex(), "op", op, "amount", p.Amount)
	return nil
}

// vaultForAccount locates the fee vault for the asset held by the given
// token account.
func (r *Router) vaultForAccount(u *ledger.Unit, account model.Address) (*model.VaultState, error) {
	acc, err := u.Account(account)
	if err != nil {
		return nil, err
	}
	vaultAddr := registry.Derive(registry.KindVault, r.exchange.Bytes(), acc.Asset.Bytes())
	vault, ok := registry.GetAs[model.VaultState](r.store, vaultAddr)
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrNotFound, "no fee vault for asset %s", acc.Asset.Hex())
	}
	return vault, nil
}

// touchUser bumps activity counters on the caller's user record, journaled
// with the unit. Missing records are skipped; registration happens at the
// service layer.
func (r *Router) touchUser(u *ledger.Unit, caller model.Address, apply func(*model.UserAccount)) {
	userAddr := registry.Derive(registry.KindUserAccount, caller.Bytes())
	user, ok := registry.GetAs[model.UserAccount](r.store, userAddr)
	if !ok {
		return
	}
	prev := *user
	apply(user)
	user.LastActivity = r.now().Unix()
	u.OnRollback(func() { *user = prev })
}
