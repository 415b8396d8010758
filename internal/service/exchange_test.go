package service

import (
	"testing"

	"github.com/alizeeshan1234/beethoven-trade/internal/ledger"
	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
	"github.com/alizeeshan1234/beethoven-trade/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addr(b byte) model.Address {
	var a model.Address
	a[0] = b
	return a
}

func newExchangeService(t *testing.T) (*ExchangeService, model.Address) {
	t.Helper()
	svc := NewExchangeService(registry.NewStore(), ledger.New())
	admin := addr(0x0A)
	_, err := svc.Initialize(ExchangeInitParams{
		Admin:      admin,
		SwapFeeBps: 30,
		PerpFeeBps: 10,
	})
	require.NoError(t, err)
	return svc, admin
}

func TestInitializeDefaultsLeverage(t *testing.T) {
	svc, _ := newExchangeService(t)
	ex, err := svc.Exchange()
	require.NoError(t, err)
	assert.Equal(t, uint64(model.DefaultMaxLeverage), ex.MaxLeverage)
	assert.Equal(t, uint64(model.DefaultLiquidationBonusBps), ex.LiquidationBonusBps)
}

func TestInitializeValidates(t *testing.T) {
	svc := NewExchangeService(registry.NewStore(), ledger.New())

	_, err := svc.Initialize(ExchangeInitParams{SwapFeeBps: model.MaxSwapFeeBps + 1})
	assert.True(t, apperrors.Is(err, apperrors.ErrFeeExceedsMaximum))

	_, err = svc.Initialize(ExchangeInitParams{MaxLeverage: model.MaxLeverage + 1})
	assert.True(t, apperrors.Is(err, apperrors.ErrLeverageOutOfBounds))
}

func TestInitializeExclusive(t *testing.T) {
	svc, admin := newExchangeService(t)
	_, err := svc.Initialize(ExchangeInitParams{Admin: admin})
	assert.True(t, apperrors.Is(err, apperrors.ErrAlreadyExists))
}

func TestUpdateFees(t *testing.T) {
	svc, admin := newExchangeService(t)

	swap := uint64(50)
	ex, err := svc.UpdateFees(admin, &swap, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), ex.SwapFeeBps)
	// untouched fields keep their value
	assert.Equal(t, uint64(10), ex.PerpOpenFeeBps)

	over := model.MaxSwapFeeBps + 1
	_, err = svc.UpdateFees(admin, &over, nil, nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrFeeExceedsMaximum))
	got, err := svc.Exchange()
	require.NoError(t, err)
	assert.Equal(t, uint64(50), got.SwapFeeBps, "rejected update must not apply")
}

func TestUpdateFeesRequiresAdmin(t *testing.T) {
	svc, _ := newExchangeService(t)
	swap := uint64(50)
	_, err := svc.UpdateFees(addr(0x99), &swap, nil, nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestSetPauseAndHalted(t *testing.T) {
	svc, admin := newExchangeService(t)
	assert.False(t, svc.Halted())

	on := true
	_, err := svc.SetPause(admin, &on, &on, nil)
	require.NoError(t, err)
	assert.False(t, svc.Halted(), "halted only when every class is paused")

	_, err = svc.SetPause(admin, nil, nil, &on)
	require.NoError(t, err)
	assert.True(t, svc.Halted())

	off := false
	_, err = svc.SetPause(admin, &off, nil, nil)
	require.NoError(t, err)
	assert.False(t, svc.Halted())
}

func TestCreateVault(t *testing.T) {
	svc, admin := newExchangeService(t)
	asset := addr(0xA1)

	vault, err := svc.CreateVault(admin, asset)
	require.NoError(t, err)
	assert.Equal(t, asset, vault.Asset)
	assert.Equal(t, registry.Derive(registry.KindTokenAccount, vault.Address.Bytes()), vault.TokenAccount)

	got, err := svc.Vault(asset)
	require.NoError(t, err)
	assert.Equal(t, vault.Address, got.Address)

	_, err = svc.CreateVault(admin, asset)
	assert.True(t, apperrors.Is(err, apperrors.ErrAlreadyExists))

	_, err = svc.CreateVault(addr(0x99), addr(0xA2))
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestRegisterUser(t *testing.T) {
	svc, _ := newExchangeService(t)
	owner := addr(0x01)

	user, err := svc.RegisterUser(owner)
	require.NoError(t, err)
	assert.Equal(t, owner, user.Owner)

	ex, err := svc.Exchange()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ex.TotalUsers)

	_, err = svc.RegisterUser(owner)
	assert.True(t, apperrors.Is(err, apperrors.ErrAlreadyExists))

	got, err := svc.User(owner)
	require.NoError(t, err)
	assert.Equal(t, user.Address, got.Address)
}
