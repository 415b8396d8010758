// Package registry provides deterministic record addressing and a keyed
// record store with idempotent-create semantics. An address is derived from a
// fixed namespace tag plus discriminator bytes; callers recompute the same
// derivation to find a record, so no secondary index is needed.
package registry

import (
	"sync"

	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
	"github.com/ethereum/go-ethereum/crypto"
)

// Namespace tags. One per record kind.
const (
	KindExchange     = "exchange"
	KindVault        = "vault"
	KindUserAccount  = "user_account"
	KindPerpMarket   = "perp_market"
	KindLendingPool  = "lending_pool"
	KindFund         = "fund"
	KindFundVault    = "fund_vault"
	KindShareMint    = "share_mint"
	KindFundProposal = "fund_proposal"
	KindFundHolding  = "fund_holding"
	KindShareAccount = "share_account"
	KindTokenAccount = "token_account"
)

// Derive maps (kind, seeds...) to a unique 32-byte address. Identical inputs
// always produce the identical address.
func Derive(kind string, seeds ...[]byte) model.Address {
	input := make([]byte, 0, len(kind)+len(seeds)*32)
	input = append(input, []byte(kind)...)
	for _, s := range seeds {
		input = append(input, s...)
	}
	var addr model.Address
	copy(addr[:], crypto.Keccak256(input))
	return addr
}

// Store is the keyed record map. Creation at an occupied address fails, which
// is what makes singleton records singletons.
type Store struct {
	mu      sync.RWMutex
	records map[model.Address]any
}

func NewStore() *Store {
	return &Store{records: make(map[model.Address]any)}
}

// Create inserts a record at addr, failing with AlreadyExists if the address
// is occupied.
func (s *Store) Create(addr model.Address, record any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[addr]; ok {
		return apperrors.Newf(apperrors.ErrAlreadyExists, "record already exists at %s", addr.Hex())
	}
	s.records[addr] = record
	return nil
}

// Get returns the record at addr, if any.
func (s *Store) Get(addr model.Address) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[addr]
	return rec, ok
}

// Exists reports whether addr is occupied.
func (s *Store) Exists(addr model.Address) bool {
	_, ok := s.Get(addr)
	return ok
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Typed lookups. Records are stored as pointers and mutated in place by the
// engines that own them; the store itself only guards the map.

func GetAs[T any](s *Store, addr model.Address) (*T, bool) {
	rec, ok := s.Get(addr)
	if !ok {
		return nil, false
	}
	typed, ok := rec.(*T)
	return typed, ok
}
