// Package fund implements the treasury engine: share-based deposit and
// withdrawal accounting, the permissionless NAV crank, and the futarchy
// proposal state machine that executes passed actions through the protocol
// router.
package fund

import (
	"context"
	"sync"
	"time"

	"github.com/alizeeshan1234/beethoven-trade/internal/ledger"
	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/logger"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/metrics"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/wad"
	"github.com/alizeeshan1234/beethoven-trade/internal/registry"
	"github.com/alizeeshan1234/beethoven-trade/internal/router"
	"github.com/holiman/uint256"
)

// TwapSource reads the time-weighted average price of a conditional market.
type TwapSource interface {
	Twap(ctx context.Context, market model.Address) (*uint256.Int, error)
}

// Valuer prices one unit of an off-vault asset in the fund's base asset,
// WAD precision. NAV of external holdings is delegated here.
type Valuer interface {
	Price(ctx context.Context, asset model.Address) (*uint256.Int, error)
}

// MarketSubscriber registers conditional markets with the price feed so their
// books start accruing TWAP observations.
type MarketSubscriber interface {
	Subscribe(markets []model.Address)
}

// Config carries the governance constants.
type Config struct {
	VotingPeriod       time.Duration
	ExecutionDeadline  time.Duration
	MinProposalShares  uint64
	MaxActiveProposals uint8
}

// Engine owns the fund singleton and its proposals. All public operations are
// serialized on the engine lock; balance moves additionally run inside a
// ledger unit so failures leave nothing behind.
type Engine struct {
	mu     sync.Mutex
	store  *registry.Store
	ledger *ledger.Ledger
	router *router.Router
	twap   TwapSource
	valuer Valuer
	subs   MarketSubscriber
	cfg    Config
	fund   model.Address
	now    func() time.Time
}

func NewEngine(store *registry.Store, l *ledger.Ledger, r *router.Router, twap TwapSource, valuer Valuer, cfg Config) *Engine {
	return &Engine{
		store:  store,
		ledger: l,
		router: r,
		twap:   twap,
		valuer: valuer,
		cfg:    cfg,
		fund:   registry.Derive(registry.KindFund),
		now:    time.Now,
	}
}

// WithClock overrides the time source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// WithSubscriber attaches the feed that proposal markets are subscribed to on
// creation. Without one, TWAPs must come from overrides or a pre-warmed
// oracle.
func (e *Engine) WithSubscriber(subs MarketSubscriber) *Engine {
	e.subs = subs
	return e
}

// Address returns the derived fund record address.
func (e *Engine) Address() model.Address { return e.fund }

// ShareAccount returns the derived share account address for an owner.
func (e *Engine) ShareAccount(owner model.Address) model.Address {
	return registry.Derive(registry.KindShareAccount, e.fund.Bytes(), owner.Bytes())
}

// HoldingAccount returns the derived account holding an off-vault asset.
func (e *Engine) HoldingAccount(asset model.Address) model.Address {
	return registry.Derive(registry.KindFundHolding, e.fund.Bytes(), asset.Bytes())
}

// InitParams configures fund creation.
type InitParams struct {
	Admin             model.Address
	BaseAsset         model.Address
	PerformanceFeeBps uint64
	ManagementFeeBps  uint64
	FeeRecipient      model.Address
}

// Initialize creates the fund singleton, its vault account and share asset.
// A second call fails AlreadyExists.
func (e *Engine) Initialize(p InitParams) (*model.Fund, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p.PerformanceFeeBps > model.MaxPerformanceFeeBps {
		return nil, apperrors.Newf(apperrors.ErrFeeExceedsMaximum,
			"performance fee %d bps exceeds maximum %d", p.PerformanceFeeBps, model.MaxPerformanceFeeBps)
	}
	if p.ManagementFeeBps > model.MaxManagementFeeBps {
		return nil, apperrors.Newf(apperrors.ErrFeeExceedsMaximum,
			"management fee %d bps exceeds maximum %d", p.ManagementFeeBps, model.MaxManagementFeeBps)
	}

	vaultAddr := registry.Derive(registry.KindFundVault, e.fund.Bytes())
	shareAsset := registry.Derive(registry.KindShareMint, e.fund.Bytes())

	fund := &model.Fund{
		Address:           e.fund,
		Admin:             p.Admin,
		BaseAsset:         p.BaseAsset,
		ShareAsset:        shareAsset,
		Vault:             vaultAddr,
		NavPerShare:       wad.One(),
		TotalNav:          uint256.NewInt(0),
		PerformanceFeeBps: p.PerformanceFeeBps,
		ManagementFeeBps:  p.ManagementFeeBps,
		FeeRecipient:      p.FeeRecipient,
		Status:            model.FundActive,
		CreatedAt:         e.now().Unix(),
		HighWaterMark:     wad.One(),
	}
	if err := e.store.Create(e.fund, fund); err != nil {
		return nil, err
	}
	if err := e.ledger.CreateAccount(vaultAddr, p.BaseAsset, e.fund); err != nil {
		return nil, err
	}
	logger.Info("fund initialized", "fund", e.fund.Hex(), "base_asset", p.BaseAsset.Hex())
	return fund, nil
}

func (e *Engine) fundRecord() (*model.Fund, error) {
	fund, ok := registry.GetAs[model.Fund](e.store, e.fund)
	if !ok {
		return nil, apperrors.New(apperrors.ErrNotFound, "fund not initialized", nil)
	}
	return fund, nil
}

// Fund returns a copy of the fund record.
func (e *Engine) Fund() (model.Fund, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fund, err := e.fundRecord()
	if err != nil {
		return model.Fund{}, err
	}
	out := *fund
	out.NavPerShare = fund.NavPerShare.Clone()
	out.TotalNav = fund.TotalNav.Clone()
	out.HighWaterMark = fund.HighWaterMark.Clone()
	out.Holdings = append([]model.Holding(nil), fund.Holdings...)
	return out, nil
}

// DepositResult reports the outcome of a fund deposit.
type DepositResult struct {
	SharesMinted uint64       `json:"shares_minted"`
	NavPerShare  *uint256.Int `json:"nav_per_share"`
}

// Deposit moves amount of the base asset into the fund vault and mints shares
// at the current NAV. The first depositor bootstraps at 1:1.
func (e *Engine) Deposit(ctx context.Context, depositor, sourceAccount model.Address, amount uint64) (*DepositResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if amount == 0 {
		return nil, apperrors.NewInvalidAmount("deposit amount must be greater than zero")
	}
	fund, err := e.fundRecord()
	if err != nil {
		return nil, err
	}
	if fund.Status != model.FundActive {
		return nil, apperrors.New(apperrors.ErrFundPaused, "fund is not accepting deposits", nil)
	}

	var shares uint64
	if fund.TotalShares == 0 {
		shares = amount
	} else {
		sharesWad, mathErr := wad.Div(wad.FromUint64(amount), fund.NavPerShare)
		if mathErr != nil {
			return nil, mathErr
		}
		shares, mathErr = wad.ToUint64(sharesWad)
		if mathErr != nil {
			return nil, mathErr
		}
	}
	if shares == 0 {
		return nil, apperrors.NewInvalidAmount("deposit too small to mint shares")
	}

	shareAccount := e.ShareAccount(depositor)
	err = e.ledger.WithUnit(func(u *ledger.Unit) error {
		if transferErr := u.Transfer(sourceAccount, fund.Vault, depositor, amount); transferErr != nil {
			return transferErr
		}
		if _, accErr := u.Account(shareAccount); accErr != nil {
			if createErr := u.CreateAccount(shareAccount, fund.ShareAsset, depositor); createErr != nil {
				return createErr
			}
		}
		if mintErr := u.Mint(shareAccount, shares); mintErr != nil {
			return mintErr
		}
		prevDeposits, prevShares := fund.TotalDeposits, fund.TotalShares
		fund.TotalDeposits += amount
		fund.TotalShares += shares
		u.OnRollback(func() {
			fund.TotalDeposits, fund.TotalShares = prevDeposits, prevShares
		})
		return nil
	})
	if err != nil {
		metrics.FundFlows.WithLabelValues("deposit", "failed").Inc()
		return nil, err
	}

	metrics.FundFlows.WithLabelValues("deposit", "ok").Inc()
	logger.Info("fund deposit", "depositor", depositor.Hex(), "amount", amount, "shares", shares)
	return &DepositResult{SharesMinted: shares, NavPerShare: fund.NavPerShare.Clone()}, nil
}

// WithdrawResult reports the outcome of a fund withdrawal.
type WithdrawResult struct {
	AmountReturned uint64       `json:"amount_returned"`
	NavPerShare    *uint256.Int `json:"nav_per_share"`
}

// Withdraw burns shares and pays out at the current NAV. Fails when the vault
// cannot cover the payout, e.g. while capital is deployed in an executed
// proposal's external position.
func (e *Engine) Withdraw(ctx context.Context, withdrawer, destinationAccount model.Address, shares uint64) (*WithdrawResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if shares == 0 {
		return nil, apperrors.NewInvalidAmount("share amount must be greater than zero")
	}
	fund, err := e.fundRecord()
	if err != nil {
		return nil, err
	}
	if fund.Status == model.FundPaused {
		return nil, apperrors.New(apperrors.ErrFundPaused, "fund withdrawals are paused", nil)
	}

	shareAccount := e.ShareAccount(withdrawer)
	if held := e.ledger.Balance(shareAccount); held < shares {
		return nil, apperrors.Newf(apperrors.ErrInsufficientShares, "holding %d shares, burning %d", held, shares)
	}

	payout, err := wad.Mul(uint256.NewInt(shares), fund.NavPerShare)
	if err != nil {
		return nil, err
	}
	if !payout.IsUint64() {
		return nil, apperrors.New(apperrors.ErrMathOverflow, "payout exceeds uint64", nil)
	}
	amount := payout.Uint64()
	if amount == 0 {
		return nil, apperrors.NewInvalidAmount("share amount too small to redeem")
	}
	if vaultBalance := e.ledger.Balance(fund.Vault); vaultBalance < amount {
		return nil, apperrors.Newf(apperrors.ErrInsufficientVaultBalance,
			"vault holds %d, payout requires %d", vaultBalance, amount)
	}

	err = e.ledger.WithUnit(func(u *ledger.Unit) error {
		if burnErr := u.Burn(shareAccount, withdrawer, shares); burnErr != nil {
			return burnErr
		}
		if transferErr := u.Transfer(fund.Vault, destinationAccount, e.fund, amount); transferErr != nil {
			return transferErr
		}
		prevShares := fund.TotalShares
		fund.TotalShares -= shares
		u.OnRollback(func() { fund.TotalShares = prevShares })
		return nil
	})
	if err != nil {
		metrics.FundFlows.WithLabelValues("withdraw", "failed").Inc()
		return nil, err
	}

	metrics.FundFlows.WithLabelValues("withdraw", "ok").Inc()
	logger.Info("fund withdrawal", "withdrawer", withdrawer.Hex(), "shares", shares, "amount", amount)
	return &WithdrawResult{AmountReturned: amount, NavPerShare: fund.NavPerShare.Clone()}, nil
}

// NavResult reports the refreshed NAV state.
type NavResult struct {
	TotalNav    *uint256.Int `json:"total_nav"`
	NavPerShare *uint256.Int `json:"nav_per_share"`
	TotalShares uint64       `json:"total_shares"`
	UpdatedAt   int64        `json:"updated_at"`
}

// UpdateNav is the permissionless crank: it recomputes total NAV from the
// vault balance plus valued external holdings and refreshes the per-share
// price. Last write wins across repeated cranks.
func (e *Engine) UpdateNav(ctx context.Context) (*NavResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fund, err := e.fundRecord()
	if err != nil {
		return nil, err
	}

	totalNav := wad.FromUint64(e.ledger.Balance(fund.Vault))
	for _, h := range fund.Holdings {
		if h.Amount == 0 {
			continue
		}
		price, priceErr := e.valuer.Price(ctx, h.Asset)
		if priceErr != nil {
			return nil, apperrors.New(apperrors.ErrUpstream, "holding valuation failed", priceErr)
		}
		value, mathErr := wad.Mul(wad.FromUint64(h.Amount), price)
		if mathErr != nil {
			return nil, mathErr
		}
		if h.Type.Negative() {
			if totalNav.Lt(value) {
				return nil, apperrors.New(apperrors.ErrMathOverflow, "negative holdings exceed fund value", nil)
			}
			totalNav.Sub(totalNav, value)
		} else {
			totalNav.Add(totalNav, value)
		}
	}

	navPerShare := wad.One()
	if fund.TotalShares > 0 {
		navPerShare = new(uint256.Int).Div(totalNav, uint256.NewInt(fund.TotalShares))
	}

	now := e.now().Unix()
	fund.TotalNav = totalNav
	fund.NavPerShare = navPerShare
	fund.LastNavUpdate = now
	if navPerShare.Gt(fund.HighWaterMark) {
		fund.HighWaterMark = navPerShare.Clone()
	}
	e.accrueFees(fund, now)

	metrics.NavUpdates.Inc()
	return &NavResult{
		TotalNav:    totalNav.Clone(),
		NavPerShare: navPerShare.Clone(),
		TotalShares: fund.TotalShares,
		UpdatedAt:   now,
	}, nil
}

// accrueFees is the performance/management fee hook. The fee parameters are
// validated and stored, but no deduction schedule is wired; the hook keeps
// the call site fixed for when one is.
func (e *Engine) accrueFees(fund *model.Fund, now int64) {
	_ = fund
	_ = now
}
