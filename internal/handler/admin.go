package handler

import (
	"net/http"

	"github.com/alizeeshan1234/beethoven-trade/internal/fund"
	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
	"github.com/alizeeshan1234/beethoven-trade/internal/service"
	"github.com/gin-gonic/gin"
)

// AdminHandler exposes the operator surface: exchange and fund creation,
// fee and pause updates, vault provisioning and user registration.
type AdminHandler struct {
	exchange *service.ExchangeService
	fund     *fund.Engine
}

func NewAdminHandler(exchange *service.ExchangeService, fundEngine *fund.Engine) *AdminHandler {
	return &AdminHandler{exchange: exchange, fund: fundEngine}
}

// GetExchange handles GET /v1/admin/exchange
func (h *AdminHandler) GetExchange(c *gin.Context) {
	ex, err := h.exchange.Exchange()
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ex)
}

// InitExchange handles POST /v1/admin/exchange
func (h *AdminHandler) InitExchange(c *gin.Context) {
	var req model.InitExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}
	admin, err := model.AddressFromHex(req.Admin)
	if err != nil {
		c.Error(apperrors.NewInvalidRequest("malformed admin address"))
		return
	}

	ex, err := h.exchange.Initialize(service.ExchangeInitParams{
		Admin:         admin,
		SwapFeeBps:    req.SwapFeeBps,
		PerpFeeBps:    req.PerpFeeBps,
		LendingFeeBps: req.LendingFeeBps,
		MaxLeverage:   req.MaxLeverage,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, ex)
}

// UpdateFees handles PUT /v1/admin/exchange/fees
func (h *AdminHandler) UpdateFees(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	var req model.UpdateFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}

	ex, err := h.exchange.UpdateFees(caller, req.SwapFeeBps, req.PerpFeeBps, req.LendingFeeBps)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ex)
}

// SetPause handles PUT /v1/admin/exchange/pause
func (h *AdminHandler) SetPause(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	var req model.SetPauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}

	ex, err := h.exchange.SetPause(caller, req.Swaps, req.Perps, req.Lending)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ex)
}

// CreateVault handles POST /v1/admin/vaults
func (h *AdminHandler) CreateVault(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	var req model.CreateVaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}
	asset, err := model.AddressFromHex(req.Asset)
	if err != nil {
		c.Error(apperrors.NewInvalidRequest("malformed asset address"))
		return
	}

	vault, err := h.exchange.CreateVault(caller, asset)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, vault)
}

// GetVault handles GET /v1/admin/vaults/:asset
func (h *AdminHandler) GetVault(c *gin.Context) {
	asset, err := model.AddressFromHex(c.Param("asset"))
	if err != nil {
		c.Error(apperrors.NewInvalidRequest("malformed asset address"))
		return
	}
	vault, err := h.exchange.Vault(asset)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, vault)
}

// RegisterUser handles POST /v1/admin/users. Registers the calling address.
func (h *AdminHandler) RegisterUser(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	user, err := h.exchange.RegisterUser(caller)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GetUser handles GET /v1/admin/users/me
func (h *AdminHandler) GetUser(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	user, err := h.exchange.User(caller)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// InitFund handles POST /v1/admin/fund
func (h *AdminHandler) InitFund(c *gin.Context) {
	var req model.InitFundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}
	admin, err := model.AddressFromHex(req.Admin)
	if err != nil {
		c.Error(apperrors.NewInvalidRequest("malformed admin address"))
		return
	}
	baseAsset, err := model.AddressFromHex(req.BaseAsset)
	if err != nil {
		c.Error(apperrors.NewInvalidRequest("malformed base_asset address"))
		return
	}
	feeRecipient, err := model.AddressFromHex(req.FeeRecipient)
	if err != nil {
		c.Error(apperrors.NewInvalidRequest("malformed fee_recipient address"))
		return
	}

	record, err := h.fund.Initialize(fund.InitParams{
		Admin:             admin,
		BaseAsset:         baseAsset,
		PerformanceFeeBps: req.PerformanceFeeBps,
		ManagementFeeBps:  req.ManagementFeeBps,
		FeeRecipient:      feeRecipient,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, record)
}
