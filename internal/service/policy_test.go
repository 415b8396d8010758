package service

import (
	"context"
	"testing"

	"github.com/alizeeshan1234/beethoven-trade/internal/config"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyMaxValue(t *testing.T) {
	p := NewPolicy(NewUsageStore(), config.RiskConfig{MaxSwapValue: 1_000})

	require.NoError(t, p.CheckOperation(context.Background(), addr(1), addr(0xF0), 1_000))
	err := p.CheckOperation(context.Background(), addr(1), addr(0xF0), 1_001)
	assert.True(t, apperrors.Is(err, apperrors.ErrRiskReject))
}

func TestPolicyRestrictedProtocol(t *testing.T) {
	banned := addr(0xF0)
	p := NewPolicy(NewUsageStore(), config.RiskConfig{
		RestrictedProtocols: []string{banned.Hex()},
	})

	err := p.CheckOperation(context.Background(), addr(1), banned, 100)
	assert.True(t, apperrors.Is(err, apperrors.ErrRiskReject))
	require.NoError(t, p.CheckOperation(context.Background(), addr(1), addr(0xF1), 100))
}

func TestPolicyDailyVolume(t *testing.T) {
	p := NewPolicy(NewUsageStore(), config.RiskConfig{MaxDailyValue: 1_000})
	caller := addr(1)

	require.NoError(t, p.CheckOperation(context.Background(), caller, addr(0xF0), 800))
	p.PostOperationHook(context.Background(), caller, 800)

	err := p.CheckOperation(context.Background(), caller, addr(0xF0), 300)
	assert.True(t, apperrors.Is(err, apperrors.ErrRiskReject))
	// headroom remains for a smaller trade
	require.NoError(t, p.CheckOperation(context.Background(), caller, addr(0xF0), 200))
	// limits are per caller
	require.NoError(t, p.CheckOperation(context.Background(), addr(2), addr(0xF0), 900))
}

func TestPolicyDailyOps(t *testing.T) {
	p := NewPolicy(NewUsageStore(), config.RiskConfig{MaxDailyOps: 2})
	caller := addr(1)

	for i := 0; i < 2; i++ {
		require.NoError(t, p.CheckOperation(context.Background(), caller, addr(0xF0), 1))
		p.PostOperationHook(context.Background(), caller, 1)
	}
	err := p.CheckOperation(context.Background(), caller, addr(0xF0), 1)
	assert.True(t, apperrors.Is(err, apperrors.ErrRiskReject))
}

func TestPolicyUnlimitedByDefault(t *testing.T) {
	p := NewPolicy(NewUsageStore(), config.RiskConfig{})
	require.NoError(t, p.CheckOperation(context.Background(), addr(1), addr(0xF0), 1<<40))
}
