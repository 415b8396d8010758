package service

import (
	"sync"

	"github.com/alizeeshan1234/beethoven-trade/internal/ledger"
	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/logger"
	"github.com/alizeeshan1234/beethoven-trade/internal/registry"
)

// ExchangeService owns the exchange singleton and its admin surface: fee and
// leverage parameters, pause flags, fee vaults and user registration.
type ExchangeService struct {
	mu       sync.Mutex
	store    *registry.Store
	ledger   *ledger.Ledger
	exchange model.Address
}

func NewExchangeService(store *registry.Store, l *ledger.Ledger) *ExchangeService {
	return &ExchangeService{
		store:    store,
		ledger:   l,
		exchange: registry.Derive(registry.KindExchange),
	}
}

// Address returns the derived exchange record address.
func (s *ExchangeService) Address() model.Address { return s.exchange }

// InitParams configures exchange creation. Zero fee fields are valid; a zero
// MaxLeverage takes the default.
type ExchangeInitParams struct {
	Admin         model.Address
	SwapFeeBps    uint64
	PerpFeeBps    uint64
	LendingFeeBps uint64
	MaxLeverage   uint64
}

// Initialize creates the exchange singleton. A second call fails AlreadyExists.
func (s *ExchangeService) Initialize(p ExchangeInitParams) (*model.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateFees(p.SwapFeeBps, p.PerpFeeBps, p.LendingFeeBps); err != nil {
		return nil, err
	}
	maxLeverage := p.MaxLeverage
	if maxLeverage == 0 {
		maxLeverage = model.DefaultMaxLeverage
	}
	if maxLeverage < model.MinLeverage || maxLeverage > model.MaxLeverage {
		return nil, apperrors.Newf(apperrors.ErrLeverageOutOfBounds,
			"max leverage %d outside [%d, %d]", maxLeverage, model.MinLeverage, model.MaxLeverage)
	}

	ex := &model.Exchange{
		Address:                   s.exchange,
		Admin:                     p.Admin,
		SwapFeeBps:                p.SwapFeeBps,
		PerpOpenFeeBps:            p.PerpFeeBps,
		PerpCloseFee:              p.PerpFeeBps,
		LendingFeeBps:             p.LendingFeeBps,
		MaxLeverage:               maxLeverage,
		LiquidationBonusBps:       model.DefaultLiquidationBonusBps,
		MaxLiquidationFractionBps: model.DefaultMaxLiquidationFractionBps,
	}
	if err := s.store.Create(s.exchange, ex); err != nil {
		return nil, err
	}
	logger.Info("exchange initialized", "exchange", s.exchange.Hex(), "admin", p.Admin.Hex())
	return ex, nil
}

func (s *ExchangeService) record() (*model.Exchange, error) {
	ex, ok := registry.GetAs[model.Exchange](s.store, s.exchange)
	if !ok {
		return nil, apperrors.New(apperrors.ErrNotFound, "exchange not initialized", nil)
	}
	return ex, nil
}

// Exchange returns a copy of the exchange record.
func (s *ExchangeService) Exchange() (model.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ex, err := s.record()
	if err != nil {
		return model.Exchange{}, err
	}
	return *ex, nil
}

func (s *ExchangeService) requireAdmin(caller model.Address) (*model.Exchange, error) {
	ex, err := s.record()
	if err != nil {
		return nil, err
	}
	if caller != ex.Admin {
		return nil, apperrors.New(apperrors.ErrUnauthorized, "caller is not the exchange admin", nil)
	}
	return ex, nil
}

// UpdateFees adjusts fee rates. Nil fields keep their current value; any
// value above its ceiling rejects the whole update.
func (s *ExchangeService) UpdateFees(caller model.Address, swap, perp, lending *uint64) (*model.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ex, err := s.requireAdmin(caller)
	if err != nil {
		return nil, err
	}

	next := *ex
	if swap != nil {
		next.SwapFeeBps = *swap
	}
	if perp != nil {
		next.PerpOpenFeeBps = *perp
		next.PerpCloseFee = *perp
	}
	if lending != nil {
		next.LendingFeeBps = *lending
	}
	if err := validateFees(next.SwapFeeBps, next.PerpOpenFeeBps, next.LendingFeeBps); err != nil {
		return nil, err
	}

	*ex = next
	logger.Info("exchange fees updated",
		"swap_bps", ex.SwapFeeBps,
		"perp_bps", ex.PerpOpenFeeBps,
		"lending_bps", ex.LendingFeeBps,
	)
	out := *ex
	return &out, nil
}

// SetPause toggles operation circuit breakers. Nil fields are unchanged.
func (s *ExchangeService) SetPause(caller model.Address, swaps, perps, lending *bool) (*model.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ex, err := s.requireAdmin(caller)
	if err != nil {
		return nil, err
	}
	if swaps != nil {
		ex.SwapPaused = *swaps
	}
	if perps != nil {
		ex.PerpPaused = *perps
	}
	if lending != nil {
		ex.LendingPaused = *lending
	}
	logger.Info("exchange pause flags updated",
		"swaps", ex.SwapPaused,
		"perps", ex.PerpPaused,
		"lending", ex.LendingPaused,
	)
	out := *ex
	return &out, nil
}

// Halted reports whether every operation class is paused. The HTTP pause
// middleware keys off it.
func (s *ExchangeService) Halted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ex, err := s.record()
	if err != nil {
		return false
	}
	return ex.SwapPaused && ex.PerpPaused && ex.LendingPaused
}

// CreateVault provisions the fee vault and its custody token account for an
// asset. Idempotent only in the sense that a repeat fails AlreadyExists.
func (s *ExchangeService) CreateVault(caller, asset model.Address) (*model.VaultState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireAdmin(caller); err != nil {
		return nil, err
	}

	vaultAddr := registry.Derive(registry.KindVault, s.exchange.Bytes(), asset.Bytes())
	tokenAccount := registry.Derive(registry.KindTokenAccount, vaultAddr.Bytes())
	vault := &model.VaultState{
		Address:      vaultAddr,
		Exchange:     s.exchange,
		Asset:        asset,
		TokenAccount: tokenAccount,
	}
	if err := s.store.Create(vaultAddr, vault); err != nil {
		return nil, err
	}
	if err := s.ledger.CreateAccount(tokenAccount, asset, s.exchange); err != nil {
		return nil, err
	}
	logger.Info("fee vault created", "asset", asset.Hex(), "vault", vaultAddr.Hex())
	return vault, nil
}

// Vault returns a copy of the fee vault record for an asset.
func (s *ExchangeService) Vault(asset model.Address) (model.VaultState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vaultAddr := registry.Derive(registry.KindVault, s.exchange.Bytes(), asset.Bytes())
	vault, ok := registry.GetAs[model.VaultState](s.store, vaultAddr)
	if !ok {
		return model.VaultState{}, apperrors.Newf(apperrors.ErrNotFound, "no fee vault for asset %s", asset.Hex())
	}
	return *vault, nil
}

// RegisterUser creates the activity record for a caller. Safe to call before
// the user's first trade; a repeat fails AlreadyExists.
func (s *ExchangeService) RegisterUser(owner model.Address) (*model.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ex, err := s.record()
	if err != nil {
		return nil, err
	}

	userAddr := registry.Derive(registry.KindUserAccount, owner.Bytes())
	user := &model.UserAccount{Address: userAddr, Owner: owner}
	if err := s.store.Create(userAddr, user); err != nil {
		return nil, err
	}
	ex.TotalUsers++
	return user, nil
}

// User returns a copy of the activity record for a caller.
func (s *ExchangeService) User(owner model.Address) (model.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userAddr := registry.Derive(registry.KindUserAccount, owner.Bytes())
	user, ok := registry.GetAs[model.UserAccount](s.store, userAddr)
	if !ok {
		return model.UserAccount{}, apperrors.Newf(apperrors.ErrNotFound, "no user account for %s", owner.Hex())
	}
	return *user, nil
}

func validateFees(swap, perp, lending uint64) error {
	if swap > model.MaxSwapFeeBps {
		return apperrors.Newf(apperrors.ErrFeeExceedsMaximum,
			"swap fee %d bps exceeds maximum %d", swap, model.MaxSwapFeeBps)
	}
	if perp > model.MaxPerpFeeBps {
		return apperrors.Newf(apperrors.ErrFeeExceedsMaximum,
			"perp fee %d bps exceeds maximum %d", perp, model.MaxPerpFeeBps)
	}
	if lending > model.MaxLendingFeeBps {
		return apperrors.Newf(apperrors.ErrFeeExceedsMaximum,
			"lending fee %d bps exceeds maximum %d", lending, model.MaxLendingFeeBps)
	}
	return nil
}
