package handler

import (
	"net/http"
	"strconv"

	"github.com/alizeeshan1234/beethoven-trade/internal/fund"
	"github.com/alizeeshan1234/beethoven-trade/internal/middleware"
	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"
)

// ProposalHandler exposes the governance surface.
type ProposalHandler struct {
	engine *fund.Engine
}

func NewProposalHandler(engine *fund.Engine) *ProposalHandler {
	return &ProposalHandler{engine: engine}
}

func proposalIndex(c *gin.Context) (uint64, bool) {
	index, err := strconv.ParseUint(c.Param("index"), 10, 64)
	if err != nil {
		c.Error(apperrors.NewInvalidRequest("malformed proposal index"))
		return 0, false
	}
	return index, true
}

// List handles GET /v1/proposals
func (h *ProposalHandler) List(c *gin.Context) {
	proposals, err := h.engine.Proposals()
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, proposals)
}

// Get handles GET /v1/proposals/:index
func (h *ProposalHandler) Get(c *gin.Context) {
	index, ok := proposalIndex(c)
	if !ok {
		return
	}
	proposal, err := h.engine.Proposal(index)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

// Create handles POST /v1/proposals
func (h *ProposalHandler) Create(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req model.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}

	passMarket, err := model.AddressFromHex(req.PassMarket)
	if err != nil {
		c.Error(apperrors.NewInvalidRequest("malformed pass_market"))
		return
	}
	failMarket, err := model.AddressFromHex(req.FailMarket)
	if err != nil {
		c.Error(apperrors.NewInvalidRequest("malformed fail_market"))
		return
	}

	actionType := model.ActionType(req.ActionType)
	var actionData []byte
	switch {
	case actionType == model.ActionSwap && req.SwapAction != nil:
		inputAsset, addrErr := model.AddressFromHex(req.SwapAction.InputAsset)
		if addrErr != nil {
			c.Error(apperrors.NewInvalidRequest("malformed swap input_asset"))
			return
		}
		outputAsset, addrErr := model.AddressFromHex(req.SwapAction.OutputAsset)
		if addrErr != nil {
			c.Error(apperrors.NewInvalidRequest("malformed swap output_asset"))
			return
		}
		actionData = model.SwapAction{
			InputAsset:       inputAsset,
			OutputAsset:      outputAsset,
			AmountIn:         req.SwapAction.AmountIn,
			MinimumAmountOut: req.SwapAction.MinimumAmountOut,
		}.Encode()
	case req.ActionData != "":
		actionData, err = hexutil.Decode(req.ActionData)
		if err != nil {
			c.Error(apperrors.NewInvalidRequest("malformed action_data hex"))
			return
		}
	}

	proposal, err := h.engine.CreateProposal(c.Request.Context(), fund.CreateParams{
		Proposer:   caller,
		ActionType: actionType,
		ActionData: actionData,
		PassMarket: passMarket,
		FailMarket: failMarket,
	})
	if err != nil {
		c.Error(err)
		return
	}

	middleware.AddAuditContext(c, "proposal_index", proposal.Index)
	c.JSON(http.StatusCreated, proposal)
}

// Finalize handles POST /v1/proposals/:index/finalize
func (h *ProposalHandler) Finalize(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	index, ok := proposalIndex(c)
	if !ok {
		return
	}

	var req model.FinalizeProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}

	var passOverride, failOverride *uint256.Int
	if req.PassTwapOverride != "" {
		v, err := uint256.FromDecimal(req.PassTwapOverride)
		if err != nil {
			c.Error(apperrors.NewInvalidRequest("malformed pass_twap_override"))
			return
		}
		passOverride = v
	}
	if req.FailTwapOverride != "" {
		v, err := uint256.FromDecimal(req.FailTwapOverride)
		if err != nil {
			c.Error(apperrors.NewInvalidRequest("malformed fail_twap_override"))
			return
		}
		failOverride = v
	}

	proposal, err := h.engine.FinalizeProposal(c.Request.Context(), fund.FinalizeParams{
		Caller:       caller,
		Index:        index,
		PassOverride: passOverride,
		FailOverride: failOverride,
	})
	if err != nil {
		c.Error(err)
		return
	}

	middleware.AddAuditContext(c, "proposal_status", string(proposal.Status))
	c.JSON(http.StatusOK, proposal)
}

// Execute handles POST /v1/proposals/:index/execute
func (h *ProposalHandler) Execute(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	index, ok := proposalIndex(c)
	if !ok {
		return
	}

	var req model.ExecuteProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}
	accounts, err := parseAddresses(req.Accounts)
	if err != nil {
		c.Error(err)
		return
	}

	result, err := h.engine.ExecuteProposal(c.Request.Context(), fund.ExecuteParams{
		Executor: caller,
		Index:    index,
		Accounts: accounts,
	})
	if err != nil {
		c.Error(err)
		return
	}

	middleware.AddAuditContext(c, "amount_out", result.AmountOut)
	c.JSON(http.StatusOK, result)
}
