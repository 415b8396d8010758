// Package ledger implements the fungible-balance collaborator: token accounts
// with mint/transfer/burn and owner authorization. Mutations run inside a
// journaled unit of work so a failing operation leaves no partial effects,
// matching the all-or-nothing contract of every public engine operation.
package ledger

import (
	"sync"

	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
)

// Account is one token account: an asset balance owned by an identity.
type Account struct {
	Address model.Address `json:"address"`
	Asset   model.Address `json:"asset"`
	Owner   model.Address `json:"owner"`
	Balance uint64        `json:"balance"`
}

type Ledger struct {
	mu       sync.Mutex
	accounts map[model.Address]*Account
}

func New() *Ledger {
	return &Ledger{accounts: make(map[model.Address]*Account)}
}

// CreateAccount registers a new empty account. Fails if the address is taken.
func (l *Ledger) CreateAccount(addr, asset, owner model.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.accounts[addr]; ok {
		return apperrors.Newf(apperrors.ErrAlreadyExists, "token account already exists at %s", addr.Hex())
	}
	l.accounts[addr] = &Account{Address: addr, Asset: asset, Owner: owner}
	return nil
}

// CloseAccount removes an empty account. An account holding a balance cannot
// be closed.
func (l *Ledger) CloseAccount(addr model.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[addr]
	if !ok {
		return apperrors.Newf(apperrors.ErrNotFound, "token account %s not found", addr.Hex())
	}
	if acc.Balance != 0 {
		return apperrors.Newf(apperrors.ErrInvalidParameter, "account %s still holds %d", addr.Hex(), acc.Balance)
	}
	delete(l.accounts, addr)
	return nil
}

// Account returns a copy of the account at addr.
func (l *Ledger) Account(addr model.Address) (Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[addr]
	if !ok {
		return Account{}, apperrors.Newf(apperrors.ErrNotFound, "token account %s not found", addr.Hex())
	}
	return *acc, nil
}

// Balance returns the balance at addr, zero if the account does not exist.
func (l *Ledger) Balance(addr model.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if acc, ok := l.accounts[addr]; ok {
		return acc.Balance
	}
	return 0
}

// WithUnit runs fn as one indivisible unit: the ledger lock is held for the
// whole unit and every mutation fn made is rolled back if it returns an error.
func (l *Ledger) WithUnit(fn func(u *Unit) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	u := &Unit{ledger: l}
	if err := fn(u); err != nil {
		u.rollback()
		return err
	}
	return nil
}

// Unit is a journaled view of the ledger. All mutating calls record an undo
// entry; rollback replays them in reverse.
type Unit struct {
	ledger *Ledger
	undo   []func()
}

func (u *Unit) rollback() {
	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
	u.undo = nil
}

func (u *Unit) account(addr model.Address) (*Account, error) {
	acc, ok := u.ledger.accounts[addr]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrNotFound, "token account %s not found", addr.Hex())
	}
	return acc, nil
}

// Account returns a copy of the account at addr as seen inside the unit.
func (u *Unit) Account(addr model.Address) (Account, error) {
	acc, err := u.account(addr)
	if err != nil {
		return Account{}, err
	}
	return *acc, nil
}

// Balance returns the in-unit balance at addr, zero for missing accounts.
func (u *Unit) Balance(addr model.Address) uint64 {
	if acc, ok := u.ledger.accounts[addr]; ok {
		return acc.Balance
	}
	return 0
}

// CreateAccount registers an account inside the unit.
func (u *Unit) CreateAccount(addr, asset, owner model.Address) error {
	if _, ok := u.ledger.accounts[addr]; ok {
		return apperrors.Newf(apperrors.ErrAlreadyExists, "token account already exists at %s", addr.Hex())
	}
	u.ledger.accounts[addr] = &Account{Address: addr, Asset: asset, Owner: owner}
	u.undo = append(u.undo, func() { delete(u.ledger.accounts, addr) })
	return nil
}

// Transfer moves amount between accounts of the same asset. The authorizing
// owner must own the source account.
func (u *Unit) Transfer(from, to, owner model.Address, amount uint64) error {
	src, err := u.account(from)
	if err != nil {
		return err
	}
	dst, err := u.account(to)
	if err != nil {
		return err
	}
	if src.Owner != owner {
		return apperrors.Newf(apperrors.ErrUnauthorized, "owner %s does not control account %s", owner.Hex(), from.Hex())
	}
	if src.Asset != dst.Asset {
		return apperrors.Newf(apperrors.ErrInvalidParameter, "asset mismatch between %s and %s", from.Hex(), to.Hex())
	}
	if src.Balance < amount {
		return apperrors.Newf(apperrors.ErrInsufficientBalance, "account %s holds %d, needs %d", from.Hex(), src.Balance, amount)
	}
	u.setBalance(src, src.Balance-amount)
	u.setBalance(dst, dst.Balance+amount)
	return nil
}

// Mint credits amount to an account. Mint authority sits with the calling
// engine, not the ledger.
func (u *Unit) Mint(to model.Address, amount uint64) error {
	dst, err := u.account(to)
	if err != nil {
		return err
	}
	u.setBalance(dst, dst.Balance+amount)
	return nil
}

// Burn debits amount from an account owned by owner.
func (u *Unit) Burn(from, owner model.Address, amount uint64) error {
	src, err := u.account(from)
	if err != nil {
		return err
	}
	if src.Owner != owner {
		return apperrors.Newf(apperrors.ErrUnauthorized, "owner %s does not control account %s", owner.Hex(), from.Hex())
	}
	if src.Balance < amount {
		return apperrors.Newf(apperrors.ErrInsufficientBalance, "account %s holds %d, needs %d", from.Hex(), src.Balance, amount)
	}
	u.setBalance(src, src.Balance-amount)
	return nil
}

// SettleDebit debits an account with protocol authority, bypassing the owner
// check. Only invokers settling an external program's side of a call use it.
func (u *Unit) SettleDebit(from model.Address, amount uint64) error {
	src, err := u.account(from)
	if err != nil {
		return err
	}
	if src.Balance < amount {
		return apperrors.Newf(apperrors.ErrInsufficientBalance, "account %s holds %d, needs %d", from.Hex(), src.Balance, amount)
	}
	u.setBalance(src, src.Balance-amount)
	return nil
}

// OnRollback registers an undo hook for non-ledger state mutated inside the
// unit, so record fields changed alongside balances revert with them.
func (u *Unit) OnRollback(undo func()) {
	u.undo = append(u.undo, undo)
}

func (u *Unit) setBalance(acc *Account, balance uint64) {
	prev := acc.Balance
	acc.Balance = balance
	u.undo = append(u.undo, func() { acc.Balance = prev })
}
