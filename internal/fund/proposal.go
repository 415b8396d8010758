package fund

import (
	"context"
	"encoding/binary"

	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/logger"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/metrics"
	"github.com/alizeeshan1234/beethoven-trade/internal/registry"
	"github.com/alizeeshan1234/beethoven-trade/internal/router"
	"github.com/holiman/uint256"
)

// ProposalAddress returns the derived address for the proposal at index.
func (e *Engine) ProposalAddress(index uint64) model.Address {
	seed := make([]byte, 8)
	binary.LittleEndian.PutUint64(seed, index)
	return registry.Derive(registry.KindFundProposal, e.fund.Bytes(), seed)
}

// CreateParams configures proposal creation.
type CreateParams struct {
	Proposer   model.Address
	ActionType model.ActionType
	ActionData []byte
	PassMarket model.Address
	FailMarket model.Address
}

// CreateProposal opens a new proposal in Active status. The proposer must hold
// the minimum share stake and the fund must be below its active-proposal cap.
func (e *Engine) CreateProposal(ctx context.Context, p CreateParams) (*model.Proposal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fund, err := e.fundRecord()
	if err != nil {
		return nil, err
	}
	if fund.Status != model.FundActive {
		return nil, apperrors.New(apperrors.ErrFundPaused, "fund is not accepting proposals", nil)
	}
	if fund.ActiveProposals >= e.cfg.MaxActiveProposals {
		return nil, apperrors.Newf(apperrors.ErrMaxActiveProposals,
			"%d proposals already active", fund.ActiveProposals)
	}
	if !p.ActionType.Valid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidParameter, "unknown action type %q", p.ActionType)
	}
	if len(p.ActionData) > model.ActionDataCapacity {
		return nil, apperrors.Newf(apperrors.ErrInvalidActionData,
			"action data %d bytes exceeds capacity %d", len(p.ActionData), model.ActionDataCapacity)
	}
	if p.ActionType == model.ActionSwap {
		if _, decodeErr := model.DecodeSwapAction(p.ActionData); decodeErr != nil {
			return nil, decodeErr
		}
	}

	if held := e.ledger.Balance(e.ShareAccount(p.Proposer)); held < e.cfg.MinProposalShares {
		return nil, apperrors.Newf(apperrors.ErrInsufficientShares,
			"proposing requires %d shares, holding %d", e.cfg.MinProposalShares, held)
	}

	now := e.now()
	index := fund.TotalProposals
	addr := e.ProposalAddress(index)
	proposal := &model.Proposal{
		Address:           addr,
		Fund:              e.fund,
		Proposer:          p.Proposer,
		Index:             index,
		ActionType:        p.ActionType,
		ActionData:        append([]byte(nil), p.ActionData...),
		PassMarket:        p.PassMarket,
		FailMarket:        p.FailMarket,
		Status:            model.ProposalActive,
		VotingStart:       now.Unix(),
		VotingEnd:         now.Add(e.cfg.VotingPeriod).Unix(),
		ExecutionDeadline: now.Add(e.cfg.VotingPeriod + e.cfg.ExecutionDeadline).Unix(),
	}
	if err := e.store.Create(addr, proposal); err != nil {
		return nil, err
	}
	fund.TotalProposals++
	fund.ActiveProposals++

	// The feed starts accruing observations now so a TWAP covering the voting
	// window exists by the time the proposal finalizes.
	if e.subs != nil {
		markets := make([]model.Address, 0, 2)
		if !p.PassMarket.IsZero() {
			markets = append(markets, p.PassMarket)
		}
		if !p.FailMarket.IsZero() {
			markets = append(markets, p.FailMarket)
		}
		if len(markets) > 0 {
			e.subs.Subscribe(markets)
		}
	}

	metrics.ProposalsTotal.WithLabelValues("created").Inc()
	logger.Info("proposal created",
		"fund", e.fund.Hex(),
		"index", index,
		"action", string(p.ActionType),
		"proposer", p.Proposer.Hex(),
	)
	return proposal, nil
}

func (e *Engine) proposalRecord(index uint64) (*model.Proposal, error) {
	proposal, ok := registry.GetAs[model.Proposal](e.store, e.ProposalAddress(index))
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrNotFound, "proposal %d not found", index)
	}
	return proposal, nil
}

// Proposal returns a copy of the proposal at index.
func (e *Engine) Proposal(index uint64) (model.Proposal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	proposal, err := e.proposalRecord(index)
	if err != nil {
		return model.Proposal{}, err
	}
	return copyProposal(proposal), nil
}

// Proposals returns copies of all proposals in index order.
func (e *Engine) Proposals() ([]model.Proposal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fund, err := e.fundRecord()
	if err != nil {
		return nil, err
	}
	out := make([]model.Proposal, 0, fund.TotalProposals)
	for i := uint64(0); i < fund.TotalProposals; i++ {
		proposal, recErr := e.proposalRecord(i)
		if recErr != nil {
			return nil, recErr
		}
		out = append(out, copyProposal(proposal))
	}
	return out, nil
}

func copyProposal(p *model.Proposal) model.Proposal {
	out := *p
	out.ActionData = append([]byte(nil), p.ActionData...)
	if p.PassTwap != nil {
		out.PassTwap = p.PassTwap.Clone()
	}
	if p.FailTwap != nil {
		out.FailTwap = p.FailTwap.Clone()
	}
	return out
}

// FinalizeParams configures proposal finalization. When both overrides are
// set the caller must be the fund admin and the oracle is bypassed.
type FinalizeParams struct {
	Caller       model.Address
	Index        uint64
	PassOverride *uint256.Int
	FailOverride *uint256.Int
}

// FinalizeProposal resolves an Active proposal once voting has ended. The
// proposal passes only if the pass-market TWAP strictly exceeds the
// fail-market TWAP; ties fail.
func (e *Engine) FinalizeProposal(ctx context.Context, p FinalizeParams) (*model.Proposal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fund, err := e.fundRecord()
	if err != nil {
		return nil, err
	}
	proposal, err := e.proposalRecord(p.Index)
	if err != nil {
		return nil, err
	}
	if proposal.Status != model.ProposalActive {
		return nil, apperrors.Newf(apperrors.ErrProposalNotActive,
			"proposal %d is %s", p.Index, proposal.Status)
	}
	now := e.now().Unix()
	if now < proposal.VotingEnd {
		return nil, apperrors.Newf(apperrors.ErrVotingPeriodNotEnded,
			"voting ends at %d, now %d", proposal.VotingEnd, now)
	}

	var passTwap, failTwap *uint256.Int
	switch {
	case p.PassOverride != nil || p.FailOverride != nil:
		if p.PassOverride == nil || p.FailOverride == nil {
			return nil, apperrors.New(apperrors.ErrInvalidParameter,
				"both TWAP overrides must be supplied together", nil)
		}
		if p.Caller != fund.Admin {
			return nil, apperrors.New(apperrors.ErrUnauthorized,
				"only the fund admin can override market TWAPs", nil)
		}
		passTwap, failTwap = p.PassOverride.Clone(), p.FailOverride.Clone()
	case e.twap != nil:
		if passTwap, err = e.twap.Twap(ctx, proposal.PassMarket); err != nil {
			return nil, apperrors.New(apperrors.ErrUpstream, "pass market TWAP unavailable", err)
		}
		if failTwap, err = e.twap.Twap(ctx, proposal.FailMarket); err != nil {
			return nil, apperrors.New(apperrors.ErrUpstream, "fail market TWAP unavailable", err)
		}
	default:
		// No oracle and no override: the proposal can only lapse once its
		// execution window is unreachable.
		if now <= proposal.ExecutionDeadline {
			return nil, apperrors.New(apperrors.ErrInvalidParameter,
				"no TWAP source configured; proposal can only be failed after its execution deadline", nil)
		}
		passTwap, failTwap = uint256.NewInt(0), uint256.NewInt(0)
	}

	proposal.PassTwap = passTwap
	proposal.FailTwap = failTwap
	if passTwap.Gt(failTwap) {
		proposal.Status = model.ProposalPassed
		metrics.ProposalsTotal.WithLabelValues("passed").Inc()
	} else {
		proposal.Status = model.ProposalFailed
		metrics.ProposalsTotal.WithLabelValues("failed").Inc()
	}
	if fund.ActiveProposals > 0 {
		fund.ActiveProposals--
	}

	logger.Info("proposal finalized",
		"index", p.Index,
		"status", string(proposal.Status),
		"pass_twap", passTwap.String(),
		"fail_twap", failTwap.String(),
	)
	out := copyProposal(proposal)
	return &out, nil
}

// ExecuteParams configures proposal execution. Accounts follows the router's
// positional schema for the routed protocol.
type ExecuteParams struct {
	Executor model.Address
	Index    uint64
	Accounts []model.Address
}

// ExecuteProposal carries out a Passed proposal's action before its execution
// deadline. A failed route leaves the proposal Passed and retriable.
func (e *Engine) ExecuteProposal(ctx context.Context, p ExecuteParams) (*router.SwapResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fund, err := e.fundRecord()
	if err != nil {
		return nil, err
	}
	proposal, err := e.proposalRecord(p.Index)
	if err != nil {
		return nil, err
	}
	if proposal.Status != model.ProposalPassed {
		return nil, apperrors.Newf(apperrors.ErrProposalNotPassed,
			"proposal %d is %s", p.Index, proposal.Status)
	}
	now := e.now().Unix()
	if now > proposal.ExecutionDeadline {
		return nil, apperrors.Newf(apperrors.ErrProposalExpired,
			"execution deadline %d passed, now %d", proposal.ExecutionDeadline, now)
	}

	if proposal.ActionType != model.ActionSwap {
		return nil, apperrors.Newf(apperrors.ErrInvalidRequest,
			"no executor wired for action type %q", proposal.ActionType)
	}
	action, err := model.DecodeSwapAction(proposal.ActionData)
	if err != nil {
		return nil, err
	}
	if action.InputAsset != fund.BaseAsset {
		return nil, apperrors.New(apperrors.ErrInvalidActionData,
			"swap input asset must be the fund base asset", nil)
	}

	holdingAccount := e.HoldingAccount(action.OutputAsset)
	createdHolding := false
	if _, accErr := e.ledger.Account(holdingAccount); accErr != nil {
		if createErr := e.ledger.CreateAccount(holdingAccount, action.OutputAsset, e.fund); createErr != nil {
			return nil, createErr
		}
		createdHolding = true
	}

	result, err := e.router.ExecuteSwap(ctx, router.SwapParams{
		Caller:           e.fund,
		InputAccount:     fund.Vault,
		OutputAccount:    holdingAccount,
		AmountIn:         action.AmountIn,
		MinimumAmountOut: action.MinimumAmountOut,
		Accounts:         p.Accounts,
	})
	if err != nil {
		// The router rolled its unit back, so a holding account created for
		// this attempt is empty and can be closed again.
		if createdHolding {
			if closeErr := e.ledger.CloseAccount(holdingAccount); closeErr != nil {
				logger.Warn("could not close unused holding account",
					"account", holdingAccount.Hex(), "error", closeErr)
			}
		}
		metrics.ProposalsTotal.WithLabelValues("execution_failed").Inc()
		return nil, err
	}

	if err := e.recordHolding(fund, model.HoldingSpot, action.OutputAsset, result.AmountOut); err != nil {
		return nil, err
	}
	proposal.Status = model.ProposalExecuted
	proposal.ExecutedAt = now

	metrics.ProposalsTotal.WithLabelValues("executed").Inc()
	logger.Info("proposal executed",
		"index", p.Index,
		"amount_in", result.AmountIn,
		"amount_out", result.AmountOut,
		"protocol", result.Protocol.Hex(),
	)
	return result, nil
}

// recordHolding merges an acquired position into the fund's holdings list.
func (e *Engine) recordHolding(fund *model.Fund, t model.HoldingType, asset model.Address, amount uint64) error {
	for i := range fund.Holdings {
		if fund.Holdings[i].Type == t && fund.Holdings[i].Asset == asset {
			fund.Holdings[i].Amount += amount
			return nil
		}
	}
	if len(fund.Holdings) >= model.MaxFundHoldings {
		return apperrors.Newf(apperrors.ErrInvalidParameter,
			"fund already tracks %d holdings", model.MaxFundHoldings)
	}
	fund.Holdings = append(fund.Holdings, model.Holding{Type: t, Asset: asset, Amount: amount})
	return nil
}
