package fund

import (
	"context"
	"testing"
	"time"

	"github.com/alizeeshan1234/beethoven-trade/internal/ledger"
	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/wad"
	"github.com/alizeeshan1234/beethoven-trade/internal/registry"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addr(b byte) model.Address {
	var a model.Address
	a[0] = b
	return a
}

// unitValuer prices every asset at 1.0.
type unitValuer struct{}

func (unitValuer) Price(ctx context.Context, asset model.Address) (*uint256.Int, error) {
	return wad.One(), nil
}

type testClock struct {
	at time.Time
}

func (c *testClock) now() time.Time          { return c.at }
func (c *testClock) advance(d time.Duration) { c.at = c.at.Add(d) }

type fundFixture struct {
	engine    *Engine
	ledger    *ledger.Ledger
	store     *registry.Store
	clock     *testClock
	admin     model.Address
	depositor model.Address
	source    model.Address
	baseAsset model.Address
}

func newFundFixture(t *testing.T) *fundFixture {
	t.Helper()

	store := registry.NewStore()
	bank := ledger.New()
	clock := &testClock{at: time.Unix(1_700_000_000, 0)}

	f := &fundFixture{
		ledger:    bank,
		store:     store,
		clock:     clock,
		admin:     addr(0x0A),
		depositor: addr(0x01),
		source:    addr(0x10),
		baseAsset: addr(0xA1),
	}
	f.engine = NewEngine(store, bank, nil, nil, unitValuer{}, Config{
		VotingPeriod:       72 * time.Hour,
		ExecutionDeadline:  24 * time.Hour,
		MinProposalShares:  100,
		MaxActiveProposals: 3,
	}).WithClock(clock.now)

	_, err := f.engine.Initialize(InitParams{
		Admin:             f.admin,
		BaseAsset:         f.baseAsset,
		PerformanceFeeBps: 1_000,
		ManagementFeeBps:  200,
		FeeRecipient:      f.admin,
	})
	require.NoError(t, err)

	require.NoError(t, bank.CreateAccount(f.source, f.baseAsset, f.depositor))
	require.NoError(t, bank.WithUnit(func(u *ledger.Unit) error {
		return u.Mint(f.source, 100_000)
	}))
	return f
}

func (f *fundFixture) record(t *testing.T) *model.Fund {
	t.Helper()
	fund, ok := registry.GetAs[model.Fund](f.store, f.engine.Address())
	require.True(t, ok)
	return fund
}

func TestInitializeValidatesFees(t *testing.T) {
	e := NewEngine(registry.NewStore(), ledger.New(), nil, nil, unitValuer{}, Config{})

	_, err := e.Initialize(InitParams{PerformanceFeeBps: model.MaxPerformanceFeeBps + 1})
	assert.True(t, apperrors.Is(err, apperrors.ErrFeeExceedsMaximum))

	_, err = e.Initialize(InitParams{ManagementFeeBps: model.MaxManagementFeeBps + 1})
	assert.True(t, apperrors.Is(err, apperrors.ErrFeeExceedsMaximum))
}

func TestInitializeExclusive(t *testing.T) {
	f := newFundFixture(t)
	_, err := f.engine.Initialize(InitParams{Admin: f.admin, BaseAsset: f.baseAsset})
	assert.True(t, apperrors.Is(err, apperrors.ErrAlreadyExists))
}

func TestDepositBootstrapsOneToOne(t *testing.T) {
	f := newFundFixture(t)

	res, err := f.engine.Deposit(context.Background(), f.depositor, f.source, 1_000)
	require.NoError(t, err)

	assert.Equal(t, uint64(1_000), res.SharesMinted)
	assert.Equal(t, wad.One(), res.NavPerShare)
	assert.Equal(t, uint64(1_000), f.ledger.Balance(f.engine.ShareAccount(f.depositor)))

	fund := f.record(t)
	assert.Equal(t, uint64(1_000), f.ledger.Balance(fund.Vault))
	assert.Equal(t, uint64(1_000), fund.TotalShares)
	assert.Equal(t, uint64(1_000), fund.TotalDeposits)
}

func TestDepositZeroAmount(t *testing.T) {
	f := newFundFixture(t)
	_, err := f.engine.Deposit(context.Background(), f.depositor, f.source, 0)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidAmount))
}

func TestDepositPaused(t *testing.T) {
	f := newFundFixture(t)
	f.record(t).Status = model.FundPaused

	_, err := f.engine.Deposit(context.Background(), f.depositor, f.source, 1_000)
	assert.True(t, apperrors.Is(err, apperrors.ErrFundPaused))
}

func TestDepositAtElevatedNav(t *testing.T) {
	f := newFundFixture(t)

	_, err := f.engine.Deposit(context.Background(), f.depositor, f.source, 1_000)
	require.NoError(t, err)

	// double the vault without minting shares, then crank
	fund := f.record(t)
	require.NoError(t, f.ledger.WithUnit(func(u *ledger.Unit) error {
		return u.Mint(fund.Vault, 1_000)
	}))
	nav, err := f.engine.UpdateNav(context.Background())
	require.NoError(t, err)
	assert.Equal(t, wad.FromUint64(2), nav.NavPerShare)

	// 500 at 2.0 per share mints 250
	res, err := f.engine.Deposit(context.Background(), f.depositor, f.source, 500)
	require.NoError(t, err)
	assert.Equal(t, uint64(250), res.SharesMinted)
	assert.Equal(t, uint64(1_250), fund.TotalShares)
}

func TestWithdrawAtElevatedNav(t *testing.T) {
	f := newFundFixture(t)

	_, err := f.engine.Deposit(context.Background(), f.depositor, f.source, 1_000)
	require.NoError(t, err)
	fund := f.record(t)
	require.NoError(t, f.ledger.WithUnit(func(u *ledger.Unit) error {
		return u.Mint(fund.Vault, 1_000)
	}))
	_, err = f.engine.UpdateNav(context.Background())
	require.NoError(t, err)

	sourceBefore := f.ledger.Balance(f.source)
	res, err := f.engine.Withdraw(context.Background(), f.depositor, f.source, 250)
	require.NoError(t, err)

	assert.Equal(t, uint64(500), res.AmountReturned)
	assert.Equal(t, sourceBefore+500, f.ledger.Balance(f.source))
	assert.Equal(t, uint64(750), f.ledger.Balance(f.engine.ShareAccount(f.depositor)))
	assert.Equal(t, uint64(750), fund.TotalShares)
}

func TestWithdrawInsufficientShares(t *testing.T) {
	f := newFundFixture(t)

	_, err := f.engine.Deposit(context.Background(), f.depositor, f.source, 100)
	require.NoError(t, err)

	_, err = f.engine.Withdraw(context.Background(), f.depositor, f.source, 500)
	assert.True(t, apperrors.Is(err, apperrors.ErrInsufficientShares))
}

func TestWithdrawWhileCapitalDeployed(t *testing.T) {
	f := newFundFixture(t)

	_, err := f.engine.Deposit(context.Background(), f.depositor, f.source, 1_000)
	require.NoError(t, err)

	// simulate most of the vault routed into an external position
	fund := f.record(t)
	require.NoError(t, f.ledger.WithUnit(func(u *ledger.Unit) error {
		return u.SettleDebit(fund.Vault, 900)
	}))

	_, err = f.engine.Withdraw(context.Background(), f.depositor, f.source, 500)
	assert.True(t, apperrors.Is(err, apperrors.ErrInsufficientVaultBalance))
}

func TestUpdateNavValuesHoldings(t *testing.T) {
	f := newFundFixture(t)

	_, err := f.engine.Deposit(context.Background(), f.depositor, f.source, 1_000)
	require.NoError(t, err)

	fund := f.record(t)
	fund.Holdings = append(fund.Holdings, model.Holding{
		Type:   model.HoldingSpot,
		Asset:  addr(0xA2),
		Amount: 500,
	})

	nav, err := f.engine.UpdateNav(context.Background())
	require.NoError(t, err)

	// 1000 in the vault plus 500 valued at 1.0
	assert.Equal(t, wad.FromUint64(1_500), nav.TotalNav)
	assert.Equal(t, uint256.NewInt(1_500_000_000_000_000_000), nav.NavPerShare)
}

func TestUpdateNavNegativeHoldingsSubtract(t *testing.T) {
	f := newFundFixture(t)

	_, err := f.engine.Deposit(context.Background(), f.depositor, f.source, 1_000)
	require.NoError(t, err)

	fund := f.record(t)
	fund.Holdings = append(fund.Holdings, model.Holding{
		Type:   model.HoldingLendingBorrow,
		Asset:  addr(0xA2),
		Amount: 400,
	})

	nav, err := f.engine.UpdateNav(context.Background())
	require.NoError(t, err)
	assert.Equal(t, wad.FromUint64(600), nav.TotalNav)
}

func TestUpdateNavRaisesHighWaterMark(t *testing.T) {
	f := newFundFixture(t)

	_, err := f.engine.Deposit(context.Background(), f.depositor, f.source, 1_000)
	require.NoError(t, err)
	fund := f.record(t)
	require.NoError(t, f.ledger.WithUnit(func(u *ledger.Unit) error {
		return u.Mint(fund.Vault, 500)
	}))

	_, err = f.engine.UpdateNav(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1_500_000_000_000_000_000), fund.HighWaterMark)

	// a drawdown leaves the mark where it was
	require.NoError(t, f.ledger.WithUnit(func(u *ledger.Unit) error {
		return u.SettleDebit(fund.Vault, 1_000)
	}))
	_, err = f.engine.UpdateNav(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1_500_000_000_000_000_000), fund.HighWaterMark)
}
