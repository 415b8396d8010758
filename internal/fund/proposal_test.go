package fund

import (
	"context"
	"testing"
	"time"

	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/wad"
	"github.com/alizeeshan1234/beethoven-trade/internal/registry"
	"github.com/alizeeshan1234/beethoven-trade/internal/router"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTwap serves fixed WAD prices per market.
type stubTwap struct {
	prices map[model.Address]*uint256.Int
}

func (s *stubTwap) Twap(ctx context.Context, market model.Address) (*uint256.Int, error) {
	price, ok := s.prices[market]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrNotFound, "no observations for market %s", market.Hex())
	}
	return price.Clone(), nil
}

type proposalFixture struct {
	*fundFixture
	twap       *stubTwap
	program    model.Address
	outAsset   model.Address
	passMarket model.Address
	failMarket model.Address
}

// newProposalFixture extends the fund fixture with a zero-fee exchange, a
// manifest-style program settled 1:1 and a stub TWAP oracle, then seeds the
// proposer with 1000 shares.
func newProposalFixture(t *testing.T) *proposalFixture {
	t.Helper()

	f := newFundFixture(t)
	p := &proposalFixture{
		fundFixture: f,
		twap:        &stubTwap{prices: make(map[model.Address]*uint256.Int)},
		program:     addr(0xF0),
		outAsset:    addr(0xA2),
		passMarket:  addr(0xC1),
		failMarket:  addr(0xC2),
	}

	exchangeAddr := registry.Derive(registry.KindExchange)
	require.NoError(t, f.store.Create(exchangeAddr, &model.Exchange{Address: exchangeAddr}))

	adapters := router.NewAdapterSet()
	adapters.RegisterSwap(router.NewManifestAdapter(p.program))
	invoker := router.NewLocalInvoker().SettleSwaps(p.program, router.SwapSettlement{
		AmountOffset: 1,
		SourceIndex:  3,
		DestIndex:    2,
		Rate:         wad.One(),
	})
	f.engine.router = router.New(f.store, f.ledger, adapters, invoker, exchangeAddr)
	f.engine.twap = p.twap

	_, err := f.engine.Deposit(context.Background(), f.depositor, f.source, 1_000)
	require.NoError(t, err)
	return p
}

func (p *proposalFixture) swapData(amountIn, minOut uint64) []byte {
	return model.SwapAction{
		InputAsset:       p.baseAsset,
		OutputAsset:      p.outAsset,
		AmountIn:         amountIn,
		MinimumAmountOut: minOut,
	}.Encode()
}

func (p *proposalFixture) createSwapProposal(t *testing.T, amountIn, minOut uint64) *model.Proposal {
	t.Helper()
	proposal, err := p.engine.CreateProposal(context.Background(), CreateParams{
		Proposer:   p.depositor,
		ActionType: model.ActionSwap,
		ActionData: p.swapData(amountIn, minOut),
		PassMarket: p.passMarket,
		FailMarket: p.failMarket,
	})
	require.NoError(t, err)
	return proposal
}

// executeAccounts builds the manifest schema with the fund vault as the debit
// leg and the holding account as the credit leg.
func (p *proposalFixture) executeAccounts(t *testing.T) []model.Address {
	t.Helper()
	fund := p.record(t)
	holding := p.engine.HoldingAccount(p.outAsset)
	return []model.Address{
		p.program, addr(0x02), addr(0x30), holding, fund.Vault,
		addr(0x31), addr(0x32), addr(0x33),
	}
}

func TestCreateProposal(t *testing.T) {
	p := newProposalFixture(t)

	proposal := p.createSwapProposal(t, 400, 300)

	assert.Equal(t, uint64(0), proposal.Index)
	assert.Equal(t, model.ProposalActive, proposal.Status)
	assert.Equal(t, p.engine.ProposalAddress(0), proposal.Address)
	assert.Equal(t, p.clock.at.Add(p.engine.cfg.VotingPeriod).Unix(), proposal.VotingEnd)
	assert.Equal(t,
		p.clock.at.Add(p.engine.cfg.VotingPeriod+p.engine.cfg.ExecutionDeadline).Unix(),
		proposal.ExecutionDeadline)

	fund := p.record(t)
	assert.Equal(t, uint64(1), fund.TotalProposals)
	assert.Equal(t, uint8(1), fund.ActiveProposals)
}

// recordingSubscriber captures the markets handed to the price feed.
type recordingSubscriber struct {
	markets []model.Address
}

func (r *recordingSubscriber) Subscribe(markets []model.Address) {
	r.markets = append(r.markets, markets...)
}

func TestCreateProposalSubscribesMarkets(t *testing.T) {
	p := newProposalFixture(t)
	rec := &recordingSubscriber{}
	p.engine.WithSubscriber(rec)

	p.createSwapProposal(t, 400, 300)

	assert.Equal(t, []model.Address{p.passMarket, p.failMarket}, rec.markets)
}

func TestCreateProposalWithoutMarketsSkipsFeed(t *testing.T) {
	p := newProposalFixture(t)
	rec := &recordingSubscriber{}
	p.engine.WithSubscriber(rec)

	_, err := p.engine.CreateProposal(context.Background(), CreateParams{
		Proposer:   p.depositor,
		ActionType: model.ActionSwap,
		ActionData: p.swapData(400, 300),
	})
	require.NoError(t, err)
	assert.Empty(t, rec.markets)
}

func TestCreateProposalRequiresStake(t *testing.T) {
	p := newProposalFixture(t)

	_, err := p.engine.CreateProposal(context.Background(), CreateParams{
		Proposer:   addr(0x77), // holds no shares
		ActionType: model.ActionSwap,
		ActionData: p.swapData(400, 300),
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrInsufficientShares))
}

func TestCreateProposalCapsActive(t *testing.T) {
	p := newProposalFixture(t)

	for i := 0; i < int(p.engine.cfg.MaxActiveProposals); i++ {
		p.createSwapProposal(t, 400, 300)
	}
	_, err := p.engine.CreateProposal(context.Background(), CreateParams{
		Proposer:   p.depositor,
		ActionType: model.ActionSwap,
		ActionData: p.swapData(400, 300),
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrMaxActiveProposals))
}

func TestCreateProposalRejectsMalformedSwap(t *testing.T) {
	p := newProposalFixture(t)

	_, err := p.engine.CreateProposal(context.Background(), CreateParams{
		Proposer:   p.depositor,
		ActionType: model.ActionSwap,
		ActionData: []byte{1, 2, 3},
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidActionData))
}

func TestCreateProposalUnknownActionType(t *testing.T) {
	p := newProposalFixture(t)

	_, err := p.engine.CreateProposal(context.Background(), CreateParams{
		Proposer:   p.depositor,
		ActionType: model.ActionType("liquidate_everything"),
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParameter))
}

func TestFinalizeBeforeVotingEnd(t *testing.T) {
	p := newProposalFixture(t)
	p.createSwapProposal(t, 400, 300)

	_, err := p.engine.FinalizeProposal(context.Background(), FinalizeParams{Caller: p.depositor, Index: 0})
	assert.True(t, apperrors.Is(err, apperrors.ErrVotingPeriodNotEnded))
}

func TestFinalizePassesOnStrictlyHigherPassTwap(t *testing.T) {
	p := newProposalFixture(t)
	p.createSwapProposal(t, 400, 300)
	p.twap.prices[p.passMarket] = wad.FromUint64(2)
	p.twap.prices[p.failMarket] = wad.One()
	p.clock.advance(p.engine.cfg.VotingPeriod)

	proposal, err := p.engine.FinalizeProposal(context.Background(), FinalizeParams{Caller: p.depositor, Index: 0})
	require.NoError(t, err)

	assert.Equal(t, model.ProposalPassed, proposal.Status)
	assert.Equal(t, wad.FromUint64(2), proposal.PassTwap)
	assert.Equal(t, uint8(0), p.record(t).ActiveProposals)
}

func TestFinalizeTieFails(t *testing.T) {
	p := newProposalFixture(t)
	p.createSwapProposal(t, 400, 300)
	p.twap.prices[p.passMarket] = wad.One()
	p.twap.prices[p.failMarket] = wad.One()
	p.clock.advance(p.engine.cfg.VotingPeriod)

	proposal, err := p.engine.FinalizeProposal(context.Background(), FinalizeParams{Caller: p.depositor, Index: 0})
	require.NoError(t, err)
	assert.Equal(t, model.ProposalFailed, proposal.Status)
}

func TestFinalizeIsTerminal(t *testing.T) {
	p := newProposalFixture(t)
	p.createSwapProposal(t, 400, 300)
	p.twap.prices[p.passMarket] = wad.One()
	p.twap.prices[p.failMarket] = wad.One()
	p.clock.advance(p.engine.cfg.VotingPeriod)

	_, err := p.engine.FinalizeProposal(context.Background(), FinalizeParams{Caller: p.depositor, Index: 0})
	require.NoError(t, err)
	_, err = p.engine.FinalizeProposal(context.Background(), FinalizeParams{Caller: p.depositor, Index: 0})
	assert.True(t, apperrors.Is(err, apperrors.ErrProposalNotActive))
}

func TestFinalizeOverrideRequiresAdmin(t *testing.T) {
	p := newProposalFixture(t)
	p.createSwapProposal(t, 400, 300)
	p.clock.advance(p.engine.cfg.VotingPeriod)

	_, err := p.engine.FinalizeProposal(context.Background(), FinalizeParams{
		Caller:       p.depositor,
		Index:        0,
		PassOverride: wad.FromUint64(2),
		FailOverride: wad.One(),
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	proposal, err := p.engine.FinalizeProposal(context.Background(), FinalizeParams{
		Caller:       p.admin,
		Index:        0,
		PassOverride: wad.FromUint64(2),
		FailOverride: wad.One(),
	})
	require.NoError(t, err)
	assert.Equal(t, model.ProposalPassed, proposal.Status)
}

func TestFinalizeOverridesMustComeTogether(t *testing.T) {
	p := newProposalFixture(t)
	p.createSwapProposal(t, 400, 300)
	p.clock.advance(p.engine.cfg.VotingPeriod)

	_, err := p.engine.FinalizeProposal(context.Background(), FinalizeParams{
		Caller:       p.admin,
		Index:        0,
		PassOverride: wad.FromUint64(2),
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParameter))
}

func TestFinalizeWithoutOracle(t *testing.T) {
	p := newProposalFixture(t)
	p.createSwapProposal(t, 400, 300)
	p.engine.twap = nil
	p.clock.advance(p.engine.cfg.VotingPeriod)

	// inside the execution window the proposal cannot be resolved
	_, err := p.engine.FinalizeProposal(context.Background(), FinalizeParams{Caller: p.depositor, Index: 0})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParameter))

	// past the deadline it lapses to failed
	p.clock.advance(p.engine.cfg.ExecutionDeadline + time.Second)
	proposal, err := p.engine.FinalizeProposal(context.Background(), FinalizeParams{Caller: p.depositor, Index: 0})
	require.NoError(t, err)
	assert.Equal(t, model.ProposalFailed, proposal.Status)
}

func TestExecuteProposal(t *testing.T) {
	p := newProposalFixture(t)
	p.createSwapProposal(t, 400, 300)
	p.twap.prices[p.passMarket] = wad.FromUint64(2)
	p.twap.prices[p.failMarket] = wad.One()
	p.clock.advance(p.engine.cfg.VotingPeriod)

	_, err := p.engine.FinalizeProposal(context.Background(), FinalizeParams{Caller: p.depositor, Index: 0})
	require.NoError(t, err)

	result, err := p.engine.ExecuteProposal(context.Background(), ExecuteParams{
		Executor: p.depositor,
		Index:    0,
		Accounts: p.executeAccounts(t),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(400), result.AmountOut)

	fund := p.record(t)
	assert.Equal(t, uint64(600), p.ledger.Balance(fund.Vault))
	assert.Equal(t, uint64(400), p.ledger.Balance(p.engine.HoldingAccount(p.outAsset)))
	require.Len(t, fund.Holdings, 1)
	assert.Equal(t, model.Holding{Type: model.HoldingSpot, Asset: p.outAsset, Amount: 400}, fund.Holdings[0])

	proposal, err := p.engine.Proposal(0)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalExecuted, proposal.Status)
	assert.Equal(t, p.clock.at.Unix(), proposal.ExecutedAt)

	// the deployed position now carries the NAV
	nav, err := p.engine.UpdateNav(context.Background())
	require.NoError(t, err)
	assert.Equal(t, wad.FromUint64(1_000), nav.TotalNav)
}

func TestExecuteRequiresPassed(t *testing.T) {
	p := newProposalFixture(t)
	p.createSwapProposal(t, 400, 300)

	_, err := p.engine.ExecuteProposal(context.Background(), ExecuteParams{
		Executor: p.depositor,
		Index:    0,
		Accounts: p.executeAccounts(t),
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrProposalNotPassed))
}

func TestExecuteOnlyOnce(t *testing.T) {
	p := newProposalFixture(t)
	p.createSwapProposal(t, 400, 300)
	p.twap.prices[p.passMarket] = wad.FromUint64(2)
	p.twap.prices[p.failMarket] = wad.One()
	p.clock.advance(p.engine.cfg.VotingPeriod)

	_, err := p.engine.FinalizeProposal(context.Background(), FinalizeParams{Caller: p.depositor, Index: 0})
	require.NoError(t, err)
	_, err = p.engine.ExecuteProposal(context.Background(), ExecuteParams{
		Executor: p.depositor, Index: 0, Accounts: p.executeAccounts(t),
	})
	require.NoError(t, err)

	_, err = p.engine.ExecuteProposal(context.Background(), ExecuteParams{
		Executor: p.depositor, Index: 0, Accounts: p.executeAccounts(t),
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrProposalNotPassed))
}

func TestExecuteExpired(t *testing.T) {
	p := newProposalFixture(t)
	p.createSwapProposal(t, 400, 300)
	p.twap.prices[p.passMarket] = wad.FromUint64(2)
	p.twap.prices[p.failMarket] = wad.One()
	p.clock.advance(p.engine.cfg.VotingPeriod)

	_, err := p.engine.FinalizeProposal(context.Background(), FinalizeParams{Caller: p.depositor, Index: 0})
	require.NoError(t, err)

	p.clock.advance(p.engine.cfg.ExecutionDeadline + time.Second)
	_, err = p.engine.ExecuteProposal(context.Background(), ExecuteParams{
		Executor: p.depositor, Index: 0, Accounts: p.executeAccounts(t),
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrProposalExpired))
}

func TestExecuteUnwiredActionType(t *testing.T) {
	p := newProposalFixture(t)
	proposal, err := p.engine.CreateProposal(context.Background(), CreateParams{
		Proposer:   p.depositor,
		ActionType: model.ActionDepositLending,
		ActionData: []byte{1},
	})
	require.NoError(t, err)
	p.clock.advance(p.engine.cfg.VotingPeriod)
	p.twap.prices[p.passMarket] = wad.FromUint64(2)
	p.twap.prices[p.failMarket] = wad.One()
	_, err = p.engine.FinalizeProposal(context.Background(), FinalizeParams{Caller: p.depositor, Index: proposal.Index})
	require.NoError(t, err)

	_, err = p.engine.ExecuteProposal(context.Background(), ExecuteParams{
		Executor: p.depositor, Index: proposal.Index,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidRequest))
}

func TestExecuteFailedRouteLeavesProposalPassed(t *testing.T) {
	p := newProposalFixture(t)
	// minimum-out above the 1:1 settled output forces a slippage failure
	p.createSwapProposal(t, 400, 500)
	p.twap.prices[p.passMarket] = wad.FromUint64(2)
	p.twap.prices[p.failMarket] = wad.One()
	p.clock.advance(p.engine.cfg.VotingPeriod)

	_, err := p.engine.FinalizeProposal(context.Background(), FinalizeParams{Caller: p.depositor, Index: 0})
	require.NoError(t, err)

	_, err = p.engine.ExecuteProposal(context.Background(), ExecuteParams{
		Executor: p.depositor, Index: 0, Accounts: p.executeAccounts(t),
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrSlippageExceeded))

	fund := p.record(t)
	assert.Equal(t, uint64(1_000), p.ledger.Balance(fund.Vault))
	assert.Empty(t, fund.Holdings)

	// the holding account opened for the attempt is gone again
	_, err = p.ledger.Account(p.engine.HoldingAccount(p.outAsset))
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	proposal, err := p.engine.Proposal(0)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalPassed, proposal.Status)
}
