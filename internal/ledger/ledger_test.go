package ledger

import (
	"errors"
	"testing"

	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addr(b byte) model.Address {
	var a model.Address
	a[0] = b
	return a
}

func newFunded(t *testing.T) (*Ledger, model.Address, model.Address) {
	t.Helper()
	l := New()
	asset := addr(0xAA)
	owner := addr(0x01)
	src := addr(0x10)
	dst := addr(0x20)
	require.NoError(t, l.CreateAccount(src, asset, owner))
	require.NoError(t, l.CreateAccount(dst, asset, addr(0x02)))
	require.NoError(t, l.WithUnit(func(u *Unit) error {
		return u.Mint(src, 1_000)
	}))
	return l, src, dst
}

func TestCreateAccountExclusive(t *testing.T) {
	l := New()
	require.NoError(t, l.CreateAccount(addr(1), addr(2), addr(3)))
	err := l.CreateAccount(addr(1), addr(2), addr(3))
	assert.True(t, apperrors.Is(err, apperrors.ErrAlreadyExists))
}

func TestCloseAccount(t *testing.T) {
	l, src, dst := newFunded(t)

	err := l.CloseAccount(src)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParameter), "funded account stays open")
	assert.Equal(t, uint64(1_000), l.Balance(src))

	require.NoError(t, l.CloseAccount(dst))
	_, err = l.Account(dst)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	err = l.CloseAccount(addr(0x77))
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestTransfer(t *testing.T) {
	l, src, dst := newFunded(t)

	require.NoError(t, l.WithUnit(func(u *Unit) error {
		return u.Transfer(src, dst, addr(0x01), 400)
	}))
	assert.Equal(t, uint64(600), l.Balance(src))
	assert.Equal(t, uint64(400), l.Balance(dst))
}

func TestTransferRequiresOwner(t *testing.T) {
	l, src, dst := newFunded(t)

	err := l.WithUnit(func(u *Unit) error {
		return u.Transfer(src, dst, addr(0x99), 400)
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
	assert.Equal(t, uint64(1_000), l.Balance(src))
}

func TestTransferInsufficientBalance(t *testing.T) {
	l, src, dst := newFunded(t)

	err := l.WithUnit(func(u *Unit) error {
		return u.Transfer(src, dst, addr(0x01), 5_000)
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrInsufficientBalance))
}

func TestTransferAssetMismatch(t *testing.T) {
	l, src, _ := newFunded(t)
	other := addr(0x30)
	require.NoError(t, l.CreateAccount(other, addr(0xBB), addr(0x02)))

	err := l.WithUnit(func(u *Unit) error {
		return u.Transfer(src, other, addr(0x01), 100)
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParameter))
}

func TestBurnRequiresOwner(t *testing.T) {
	l, src, _ := newFunded(t)

	err := l.WithUnit(func(u *Unit) error {
		return u.Burn(src, addr(0x99), 100)
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	require.NoError(t, l.WithUnit(func(u *Unit) error {
		return u.Burn(src, addr(0x01), 100)
	}))
	assert.Equal(t, uint64(900), l.Balance(src))
}

func TestSettleDebitSkipsOwnerCheck(t *testing.T) {
	l, src, _ := newFunded(t)

	require.NoError(t, l.WithUnit(func(u *Unit) error {
		return u.SettleDebit(src, 250)
	}))
	assert.Equal(t, uint64(750), l.Balance(src))
}

func TestUnitRollsBackEveryMutation(t *testing.T) {
	l, src, dst := newFunded(t)
	newAcct := addr(0x40)
	sentinel := errors.New("abort")

	hookReverted := false
	err := l.WithUnit(func(u *Unit) error {
		if err := u.Transfer(src, dst, addr(0x01), 300); err != nil {
			return err
		}
		if err := u.CreateAccount(newAcct, addr(0xAA), addr(0x03)); err != nil {
			return err
		}
		if err := u.Mint(newAcct, 42); err != nil {
			return err
		}
		u.OnRollback(func() { hookReverted = true })
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	assert.Equal(t, uint64(1_000), l.Balance(src))
	assert.Equal(t, uint64(0), l.Balance(dst))
	_, accErr := l.Account(newAcct)
	assert.Error(t, accErr, "created account must be removed on rollback")
	assert.True(t, hookReverted)
}

func TestUnitSeesOwnWrites(t *testing.T) {
	l, src, dst := newFunded(t)

	require.NoError(t, l.WithUnit(func(u *Unit) error {
		if err := u.Transfer(src, dst, addr(0x01), 100); err != nil {
			return err
		}
		assert.Equal(t, uint64(900), u.Balance(src))
		assert.Equal(t, uint64(100), u.Balance(dst))
		return nil
	}))
}
