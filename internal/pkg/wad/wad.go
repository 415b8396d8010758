// Package wad implements fixed-point arithmetic at 10^18 scale on 256-bit
// integers. NAV, share prices and TWAP readings are all carried as WAD values;
// raw token amounts stay uint64.
package wad

import (
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
	"github.com/holiman/uint256"
)

const (
	// Scale is the WAD fixed-point scale (1.0 == 10^18).
	Scale = uint64(1_000_000_000_000_000_000)

	// BpsDenominator converts basis points to a fraction.
	BpsDenominator = uint64(10_000)
)

// One returns 1.0 in WAD precision.
func One() *uint256.Int {
	return uint256.NewInt(Scale)
}

// FromUint64 lifts a raw token amount into WAD precision.
func FromUint64(v uint64) *uint256.Int {
	out := uint256.NewInt(v)
	return out.Mul(out, uint256.NewInt(Scale))
}

// ToUint64 truncates a WAD value back to a raw token amount (floor).
func ToUint64(v *uint256.Int) (uint64, error) {
	q := new(uint256.Int).Div(v, uint256.NewInt(Scale))
	if !q.IsUint64() {
		return 0, apperrors.New(apperrors.ErrMathOverflow, "wad value exceeds uint64 range", nil)
	}
	return q.Uint64(), nil
}

// Mul computes (a * b) / WAD.
func Mul(a, b *uint256.Int) (*uint256.Int, error) {
	prod, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, apperrors.New(apperrors.ErrMathOverflow, "wad mul overflow", nil)
	}
	return prod.Div(prod, uint256.NewInt(Scale)), nil
}

// Div computes (a * WAD) / b.
func Div(a, b *uint256.Int) (*uint256.Int, error) {
	if b.IsZero() {
		return nil, apperrors.New(apperrors.ErrMathOverflow, "wad division by zero", nil)
	}
	scaled, overflow := new(uint256.Int).MulOverflow(a, uint256.NewInt(Scale))
	if overflow {
		return nil, apperrors.New(apperrors.ErrMathOverflow, "wad div overflow", nil)
	}
	return scaled.Div(scaled, b), nil
}

// BpsMul applies a basis-point rate to a raw amount: (value * bps) / 10_000.
// The intermediate product is 128-bit safe, so this cannot overflow.
func BpsMul(value, bps uint64) uint64 {
	prod := new(uint256.Int).Mul(uint256.NewInt(value), uint256.NewInt(bps))
	return prod.Div(prod, uint256.NewInt(BpsDenominator)).Uint64()
}
