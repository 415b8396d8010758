package market

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Level represents a single price level in a conditional market's book
type Level struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// Book represents the in-memory state of one conditional market
type Book struct {
	Market      string
	Bids        []Level // Sorted High to Low
	Asks        []Level // Sorted Low to High
	LastUpdated time.Time
	mu          sync.RWMutex
}

func NewBook(market string) *Book {
	return &Book{
		Market: market,
		Bids:   make([]Level, 0),
		Asks:   make([]Level, 0),
	}
}

// Snapshot replaces the entire book state
func (b *Book) Snapshot(bids, asks []Level) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Bids = bids
	b.Asks = asks
	b.LastUpdated = time.Now()
}

// Update processes a price/size update
// size 0 means remove level
func (b *Book) Update(side string, priceStr, sizeStr string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return err
	}
	size, err := decimal.NewFromString(sizeStr)
	if err != nil {
		return err
	}

	if side == "BUY" {
		b.updateLevel(&b.Bids, price, size, true)
	} else {
		b.updateLevel(&b.Asks, price, size, false)
	}
	b.LastUpdated = time.Now()
	return nil
}

func (b *Book) updateLevel(levels *[]Level, price, size decimal.Decimal, descending bool) {
	// Linear scan. Conditional markets carry sparse liquidity, so slices stay
	// cache-friendly and fast enough.
	idx := -1
	for i, l := range *levels {
		if l.Price.Equal(price) {
			idx = i
			break
		}
	}

	if size.IsZero() {
		if idx != -1 {
			*levels = append((*levels)[:idx], (*levels)[idx+1:]...)
		}
		return
	}

	if idx != -1 {
		(*levels)[idx].Size = size
	} else {
		*levels = append(*levels, Level{Price: price, Size: size})
		if descending {
			sort.Slice(*levels, func(i, j int) bool {
				return (*levels)[i].Price.GreaterThan((*levels)[j].Price)
			})
		} else {
			sort.Slice(*levels, func(i, j int) bool {
				return (*levels)[i].Price.LessThan((*levels)[j].Price)
			})
		}
	}
}

// Mid returns the mid price between best bid and best ask. A one-sided book
// yields the touch on the populated side; an empty book yields ok=false.
func (b *Book) Mid() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	switch {
	case len(b.Bids) > 0 && len(b.Asks) > 0:
		return b.Bids[0].Price.Add(b.Asks[0].Price).Div(decimal.NewFromInt(2)), true
	case len(b.Bids) > 0:
		return b.Bids[0].Price, true
	case len(b.Asks) > 0:
		return b.Asks[0].Price, true
	}
	return decimal.Zero, false
}

// GetCopy returns a safe copy of the current state (Thread-safe read)
func (b *Book) GetCopy() (bids, asks []Level) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	bids = make([]Level, len(b.Bids))
	copy(bids, b.Bids)
	asks = make([]Level, len(b.Asks))
	copy(asks, b.Asks)
	return
}
