package handler

import (
	"context"
	"net/http"

	"github.com/alizeeshan1234/beethoven-trade/internal/middleware"
	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
	"github.com/alizeeshan1234/beethoven-trade/internal/router"
	"github.com/alizeeshan1234/beethoven-trade/internal/service"
	"github.com/gin-gonic/gin"
)

// TradingHandler exposes the router surface: swaps, liquidity operations and
// token account provisioning.
type TradingHandler struct {
	svc *service.TradingService
}

func NewTradingHandler(svc *service.TradingService) *TradingHandler {
	return &TradingHandler{svc: svc}
}

func parseAddresses(raw []string) ([]model.Address, error) {
	out := make([]model.Address, len(raw))
	for i, s := range raw {
		addr, err := model.AddressFromHex(s)
		if err != nil {
			return nil, apperrors.Newf(apperrors.ErrInvalidParameter, "malformed address %q", s)
		}
		out[i] = addr
	}
	return out, nil
}

func requireCaller(c *gin.Context) (model.Address, bool) {
	caller, ok := middleware.Caller(c)
	if !ok {
		c.Error(apperrors.New(apperrors.ErrAuthFailed, "unauthorized: missing caller context", nil))
	}
	return caller, ok
}

// Swap handles POST /v1/swap
func (h *TradingHandler) Swap(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req model.SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}

	input, err := model.AddressFromHex(req.InputAccount)
	if err != nil {
		c.Error(apperrors.NewInvalidRequest("malformed input_account"))
		return
	}
	output, err := model.AddressFromHex(req.OutputAccount)
	if err != nil {
		c.Error(apperrors.NewInvalidRequest("malformed output_account"))
		return
	}
	accounts, err := parseAddresses(req.Accounts)
	if err != nil {
		c.Error(err)
		return
	}

	result, err := h.svc.Swap(c.Request.Context(), router.SwapParams{
		Caller:           caller,
		InputAccount:     input,
		OutputAccount:    output,
		AmountIn:         req.AmountIn,
		MinimumAmountOut: req.MinimumAmountOut,
		Accounts:         accounts,
	})
	if err != nil {
		c.Error(err)
		return
	}

	middleware.AddAuditContext(c, "protocol", result.Protocol.Hex())
	middleware.AddAuditContext(c, "amount_out", result.AmountOut)
	c.JSON(http.StatusOK, result)
}

// AddLiquidity handles POST /v1/liquidity/add
func (h *TradingHandler) AddLiquidity(c *gin.Context) {
	h.liquidity(c, h.svc.AddLiquidity)
}

// RemoveLiquidity handles POST /v1/liquidity/remove
func (h *TradingHandler) RemoveLiquidity(c *gin.Context) {
	h.liquidity(c, h.svc.RemoveLiquidity)
}

func (h *TradingHandler) liquidity(c *gin.Context, op func(ctx context.Context, p router.LiquidityParams) error) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req model.LiquidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}
	accounts, err := parseAddresses(req.Accounts)
	if err != nil {
		c.Error(err)
		return
	}

	if err := op(c.Request.Context(), router.LiquidityParams{
		Caller:   caller,
		Amount:   req.Amount,
		Accounts: accounts,
	}); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "amount": req.Amount})
}

// CreateAccount handles POST /v1/accounts
func (h *TradingHandler) CreateAccount(c *gin.Context) {
	if _, ok := requireCaller(c); !ok {
		return
	}

	var req model.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}
	asset, err := model.AddressFromHex(req.Asset)
	if err != nil {
		c.Error(apperrors.NewInvalidRequest("malformed asset"))
		return
	}
	owner, err := model.AddressFromHex(req.Owner)
	if err != nil {
		c.Error(apperrors.NewInvalidRequest("malformed owner"))
		return
	}

	account, err := h.svc.CreateAccount(owner, asset)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

// GetAccount handles GET /v1/accounts/:address
func (h *TradingHandler) GetAccount(c *gin.Context) {
	addr, err := model.AddressFromHex(c.Param("address"))
	if err != nil {
		c.Error(apperrors.NewInvalidRequest("malformed account address"))
		return
	}
	account, err := h.svc.Account(addr)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, account)
}
