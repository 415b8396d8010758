package router

import (
	"encoding/binary"
	"testing"

	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestSwapEncoding(t *testing.T) {
	program := addr(0xF0)
	a := NewManifestAdapter(program)
	accounts := make([]model.Address, 7)

	call, err := a.BuildSwap(accounts, 10_000, 9_500)
	require.NoError(t, err)

	assert.Equal(t, program, call.Program)
	require.Len(t, call.Data, 19)
	assert.Equal(t, byte(4), call.Data[0])
	assert.Equal(t, uint64(10_000), binary.LittleEndian.Uint64(call.Data[1:9]))
	assert.Equal(t, uint64(9_500), binary.LittleEndian.Uint64(call.Data[9:17]))
	// quote-in, exact-in
	assert.Equal(t, byte(0), call.Data[17])
	assert.Equal(t, byte(1), call.Data[18])
}

func TestAdapterSetRouting(t *testing.T) {
	set := NewAdapterSet()
	swapProgram := addr(0xF0)
	lendProgram := addr(0xF1)
	set.RegisterSwap(NewGammaAdapter(swapProgram))
	set.RegisterLiquidity(NewJupiterAdapter(lendProgram))

	_, ok := set.Swap(swapProgram)
	assert.True(t, ok)
	_, ok = set.Swap(lendProgram)
	assert.False(t, ok, "liquidity programs must not resolve as swap targets")
	_, ok = set.Liquidity(lendProgram)
	assert.True(t, ok)
}
