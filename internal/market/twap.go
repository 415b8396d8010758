package market

import (
	"context"
	"sync"
	"time"

	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Tracker accumulates time-weighted average prices per conditional market.
// Each observed price is weighted by how long it stood; the TWAP is the
// weighted mean since tracking began. Prices are stored as decimals and
// surfaced as WAD fixed-point for the governance engine.
type Tracker struct {
	mu     sync.RWMutex
	series map[model.Address]*series
	now    func() time.Time
}

type series struct {
	lastPrice decimal.Decimal
	lastAt    time.Time
	weighted  decimal.Decimal // sum of price * standing seconds
	elapsed   decimal.Decimal // total standing seconds
}

func NewTracker() *Tracker {
	return &Tracker{
		series: make(map[model.Address]*series),
		now:    time.Now,
	}
}

// WithClock overrides the time source.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Observe records a price for market at the current clock. The previous price
// is credited for the interval it stood.
func (t *Tracker) Observe(market model.Address, price decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	s, ok := t.series[market]
	if !ok {
		t.series[market] = &series{lastPrice: price, lastAt: now}
		return
	}
	t.accrue(s, now)
	s.lastPrice = price
	s.lastAt = now
}

func (t *Tracker) accrue(s *series, now time.Time) {
	standing := decimal.NewFromFloat(now.Sub(s.lastAt).Seconds())
	if standing.IsNegative() {
		return
	}
	s.weighted = s.weighted.Add(s.lastPrice.Mul(standing))
	s.elapsed = s.elapsed.Add(standing)
	s.lastAt = now
}

// Twap returns the time-weighted average price of market, WAD precision.
// The last observed price is credited up to the current clock. A market with
// no observations is an error; callers treat it as an unavailable oracle.
func (t *Tracker) Twap(_ context.Context, market model.Address) (*uint256.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.series[market]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrNotFound, "no price history for market %s", market.Hex())
	}
	t.accrue(s, t.now())

	avg := s.lastPrice
	if s.elapsed.IsPositive() {
		avg = s.weighted.Div(s.elapsed)
	}
	return toWad(avg)
}

func toWad(d decimal.Decimal) (*uint256.Int, error) {
	if d.IsNegative() {
		return nil, apperrors.New(apperrors.ErrInvalidParameter, "negative price", nil)
	}
	out, overflow := uint256.FromBig(d.Shift(18).BigInt())
	if overflow {
		return nil, apperrors.New(apperrors.ErrMathOverflow, "price exceeds 256 bits", nil)
	}
	return out, nil
}
