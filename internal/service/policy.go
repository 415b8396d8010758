package service

import (
	"context"

	"github.com/alizeeshan1234/beethoven-trade/internal/config"
	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/metrics"
)

type UsageRepo interface {
	GetDailyUsage(ctx context.Context, caller string) (int, uint64, error)
	AddDailyUsage(ctx context.Context, caller string, ops int, volume uint64) error
}

// Policy runs pre-trade checks in front of the router. A returned error must
// reject the operation before any balance moves.
type Policy struct {
	repo       UsageRepo
	cfg        config.RiskConfig
	restricted map[model.Address]bool
}

func NewPolicy(repo UsageRepo, cfg config.RiskConfig) *Policy {
	restricted := make(map[model.Address]bool, len(cfg.RestrictedProtocols))
	for _, raw := range cfg.RestrictedProtocols {
		if addr, err := model.AddressFromHex(raw); err == nil {
			restricted[addr] = true
		}
	}
	return &Policy{repo: repo, cfg: cfg, restricted: restricted}
}

// CheckOperation validates a routed operation against per-trade and daily
// caps before it reaches the router.
func (p *Policy) CheckOperation(ctx context.Context, caller, protocol model.Address, amount uint64) error {
	if p.cfg.MaxSwapValue > 0 && amount > p.cfg.MaxSwapValue {
		metrics.RiskRejects.WithLabelValues("max_value").Inc()
		return apperrors.Newf(apperrors.ErrRiskReject,
			"amount %d exceeds per-operation limit %d", amount, p.cfg.MaxSwapValue)
	}

	if p.restricted[protocol] {
		metrics.RiskRejects.WithLabelValues("restricted_protocol").Inc()
		return apperrors.Newf(apperrors.ErrRiskReject,
			"protocol %s is restricted", protocol.Hex())
	}

	if p.cfg.MaxDailyValue > 0 || p.cfg.MaxDailyOps > 0 {
		currentOps, currentVol, err := p.repo.GetDailyUsage(ctx, caller.Hex())
		if err != nil {
			return apperrors.New(apperrors.ErrUpstream, "usage lookup failed", err)
		}

		if p.cfg.MaxDailyValue > 0 && currentVol+amount > p.cfg.MaxDailyValue {
			metrics.RiskRejects.WithLabelValues("daily_volume_limit").Inc()
			return apperrors.Newf(apperrors.ErrRiskReject,
				"daily volume limit exceeded (current %d, new %d, max %d)",
				currentVol, amount, p.cfg.MaxDailyValue)
		}
		if p.cfg.MaxDailyOps > 0 && currentOps+1 > p.cfg.MaxDailyOps {
			metrics.RiskRejects.WithLabelValues("daily_ops_limit").Inc()
			return apperrors.Newf(apperrors.ErrRiskReject,
				"daily operation limit exceeded (current %d, max %d)",
				currentOps, p.cfg.MaxDailyOps)
		}
	}

	return nil
}

// PostOperationHook records usage after a successful routed operation.
// Synchronous so limits hold under bursts.
func (p *Policy) PostOperationHook(ctx context.Context, caller model.Address, amount uint64) {
	_ = p.repo.AddDailyUsage(ctx, caller.Hex(), 1, amount)
}
