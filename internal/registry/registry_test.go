package registry

import (
	"testing"

	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveDeterministic(t *testing.T) {
	seed := []byte("asset-1")
	a := Derive(KindVault, seed)
	b := Derive(KindVault, seed)
	assert.Equal(t, a, b)
	assert.False(t, a.IsZero())
}

func TestDeriveDistinguishesKindAndSeeds(t *testing.T) {
	seed := []byte("asset-1")
	assert.NotEqual(t, Derive(KindVault, seed), Derive(KindFundVault, seed))
	assert.NotEqual(t, Derive(KindVault, seed), Derive(KindVault, []byte("asset-2")))
	assert.NotEqual(t, Derive(KindVault), Derive(KindVault, seed))
}

func TestStoreCreateIsExclusive(t *testing.T) {
	s := NewStore()
	addr := Derive(KindExchange)

	require.NoError(t, s.Create(addr, &model.Exchange{Address: addr}))
	err := s.Create(addr, &model.Exchange{Address: addr})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrAlreadyExists))
	assert.Equal(t, 1, s.Len())
}

func TestGetAs(t *testing.T) {
	s := NewStore()
	addr := Derive(KindExchange)
	require.NoError(t, s.Create(addr, &model.Exchange{Address: addr, SwapFeeBps: 30}))

	ex, ok := GetAs[model.Exchange](s, addr)
	require.True(t, ok)
	assert.Equal(t, uint64(30), ex.SwapFeeBps)

	// wrong type
	_, ok = GetAs[model.Fund](s, addr)
	assert.False(t, ok)

	// missing address
	_, ok = GetAs[model.Exchange](s, Derive(KindFund))
	assert.False(t, ok)
}
