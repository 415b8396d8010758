package handler

import (
	"net/http"

	"github.com/alizeeshan1234/beethoven-trade/internal/fund"
	"github.com/alizeeshan1234/beethoven-trade/internal/middleware"
	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
)

// FundHandler exposes the treasury surface: deposits, withdrawals, NAV and
// the fund record itself.
type FundHandler struct {
	engine *fund.Engine
}

func NewFundHandler(engine *fund.Engine) *FundHandler {
	return &FundHandler{engine: engine}
}

// Get handles GET /v1/fund
func (h *FundHandler) Get(c *gin.Context) {
	record, err := h.engine.Fund()
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Deposit handles POST /v1/fund/deposit
func (h *FundHandler) Deposit(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req model.FundDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}
	source, err := model.AddressFromHex(req.SourceAccount)
	if err != nil {
		c.Error(apperrors.NewInvalidRequest("malformed source_account"))
		return
	}

	result, err := h.engine.Deposit(c.Request.Context(), caller, source, req.Amount)
	if err != nil {
		c.Error(err)
		return
	}

	middleware.AddAuditContext(c, "shares_minted", result.SharesMinted)
	c.JSON(http.StatusOK, result)
}

// Withdraw handles POST /v1/fund/withdraw
func (h *FundHandler) Withdraw(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req model.FundWithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}
	destination, err := model.AddressFromHex(req.DestinationAccount)
	if err != nil {
		c.Error(apperrors.NewInvalidRequest("malformed destination_account"))
		return
	}

	result, err := h.engine.Withdraw(c.Request.Context(), caller, destination, req.Shares)
	if err != nil {
		c.Error(err)
		return
	}

	middleware.AddAuditContext(c, "amount_returned", result.AmountReturned)
	c.JSON(http.StatusOK, result)
}

// UpdateNav handles POST /v1/fund/nav. Permissionless: anyone can crank.
func (h *FundHandler) UpdateNav(c *gin.Context) {
	result, err := h.engine.UpdateNav(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ShareBalance handles GET /v1/fund/shares. Returns the caller's share
// account address so clients can query the ledger.
func (h *FundHandler) ShareBalance(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"share_account": h.engine.ShareAccount(caller).Hex(),
	})
}
