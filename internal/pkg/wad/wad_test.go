package wad

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromToUint64(t *testing.T) {
	v := FromUint64(1_500)
	out, err := ToUint64(v)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500), out)
}

func TestToUint64Floors(t *testing.T) {
	// 1.999... truncates to 1
	v := uint256.NewInt(Scale)
	v.Add(v, uint256.NewInt(Scale-1))
	out, err := ToUint64(v)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), out)
}

func TestMul(t *testing.T) {
	// 2.0 * 3.5 == 7.0
	two := FromUint64(2)
	threeFive := uint256.NewInt(3_500_000_000_000_000_000)
	got, err := Mul(two, threeFive)
	require.NoError(t, err)
	assert.Equal(t, FromUint64(7), got)
}

func TestDiv(t *testing.T) {
	// 7.0 / 2.0 == 3.5
	got, err := Div(FromUint64(7), FromUint64(2))
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(3_500_000_000_000_000_000), got)
}

func TestDivByZero(t *testing.T) {
	_, err := Div(FromUint64(1), uint256.NewInt(0))
	assert.Error(t, err)
}

func TestBpsMul(t *testing.T) {
	assert.Equal(t, uint64(30), BpsMul(10_000, 30))
	assert.Equal(t, uint64(0), BpsMul(100, 0))
	assert.Equal(t, uint64(100), BpsMul(100, 10_000))
	// floors sub-unit fees
	assert.Equal(t, uint64(0), BpsMul(33, 30))
}
