// 包 http 账本服务的 HTTP 接口层
package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/tokenledger/internal/ledger/application"
	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
	"github.com/wyfcoding/tokenledger/internal/ledger/infrastructure/identity"
	"github.com/wyfcoding/tokenledger/pkg/logger"
)

// AuthHeader 携带本次调用已验签身份集合的请求头，
// 逗号分隔。签名验证本身由外部平台完成。
const AuthHeader = "X-Ledger-Auth"

// LedgerHandler HTTP 处理器
type LedgerHandler struct {
	svc      *application.LedgerService
	registry identity.Registry
}

// NewLedgerHandler 创建 HTTP 处理器
func NewLedgerHandler(svc *application.LedgerService, registry identity.Registry) *LedgerHandler {
	return &LedgerHandler{svc: svc, registry: registry}
}

// ActorContext 将请求头中的身份集合注入 context
func ActorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeader)
		if header != "" {
			actors := strings.Split(header, ",")
			for i := range actors {
				actors[i] = strings.TrimSpace(actors[i])
			}
			ctx := identity.WithActors(c.Request.Context(), actors...)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// RegisterRoutes 注册路由
func (h *LedgerHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/v1")
	api.Use(ActorContext())
	{
		api.POST("/tokens", h.CreateToken)
		api.POST("/tokens/fee", h.SetFee)
		api.POST("/tokens/issue", h.Issue)
		api.POST("/tokens/retire", h.Retire)
		api.POST("/tokens/freeze", h.Freeze)
		api.POST("/tokens/exempt", h.SwitchExempt)
		api.POST("/transfers", h.Transfer)
		api.POST("/balances/open", h.Open)
		api.POST("/balances/close", h.Close)

		api.GET("/tokens/:code", h.GetToken)
		api.GET("/tokens/:code/supply", h.GetSupply)
		api.GET("/tokens/:code/holders", h.ListHolders)
		api.GET("/accounts/:owner/balances", h.ListBalances)
		api.GET("/accounts/:owner/balances/:code", h.GetBalance)

		admin := api.Group("/admin")
		{
			admin.POST("/identities", h.RegisterIdentity)
			admin.POST("/logfee", h.LogFee)
		}
	}
}

// CreateTokenRequest 创建代币请求
type CreateTokenRequest struct {
	Issuer    string `json:"issuer" binding:"required"`
	MaxSupply string `json:"max_supply" binding:"required"`
}

// CreateToken 创建代币
func (h *LedgerHandler) CreateToken(c *gin.Context) {
	var req CreateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.svc.CreateToken(c.Request.Context(), application.CreateTokenCommand{
		Issuer:    req.Issuer,
		MaxSupply: req.MaxSupply,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// SetFeeRequest 更新费率请求
type SetFeeRequest struct {
	Issuer  string `json:"issuer" binding:"required"`
	Symbol  string `json:"symbol" binding:"required"`
	FeeRate uint8  `json:"fee_rate"`
}

// SetFee 更新费率
func (h *LedgerHandler) SetFee(c *gin.Context) {
	var req SetFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.svc.SetFee(c.Request.Context(), application.SetFeeCommand{
		Issuer:  req.Issuer,
		Symbol:  req.Symbol,
		FeeRate: req.FeeRate,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// IssueRequest 增发请求
type IssueRequest struct {
	To       string `json:"to" binding:"required"`
	Quantity string `json:"quantity" binding:"required"`
	Memo     string `json:"memo"`
}

// Issue 增发代币
func (h *LedgerHandler) Issue(c *gin.Context) {
	var req IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.svc.Issue(c.Request.Context(), application.IssueCommand{
		To:       req.To,
		Quantity: req.Quantity,
		Memo:     req.Memo,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// RetireRequest 回收请求
type RetireRequest struct {
	Quantity string `json:"quantity" binding:"required"`
	Memo     string `json:"memo"`
}

// Retire 回收代币
func (h *LedgerHandler) Retire(c *gin.Context) {
	var req RetireRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.svc.Retire(c.Request.Context(), application.RetireCommand{
		Quantity: req.Quantity,
		Memo:     req.Memo,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// TransferRequest 转账请求
type TransferRequest struct {
	From     string `json:"from" binding:"required"`
	To       string `json:"to" binding:"required"`
	Quantity string `json:"quantity" binding:"required"`
	Memo     string `json:"memo"`
}

// Transfer 转账
func (h *LedgerHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.svc.Transfer(c.Request.Context(), application.TransferCommand{
		From:     req.From,
		To:       req.To,
		Quantity: req.Quantity,
		Memo:     req.Memo,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// OpenRequest 开户请求
type OpenRequest struct {
	Owner    string `json:"owner" binding:"required"`
	Symbol   string `json:"symbol" binding:"required"`
	RAMPayer string `json:"ram_payer" binding:"required"`
}

// Open 开户
func (h *LedgerHandler) Open(c *gin.Context) {
	var req OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.svc.Open(c.Request.Context(), application.OpenCommand{
		Owner:    req.Owner,
		Symbol:   req.Symbol,
		RAMPayer: req.RAMPayer,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// CloseRequest 关户请求
type CloseRequest struct {
	Owner  string `json:"owner" binding:"required"`
	Symbol string `json:"symbol" binding:"required"`
}

// Close 关户
func (h *LedgerHandler) Close(c *gin.Context) {
	var req CloseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.svc.Close(c.Request.Context(), application.CloseCommand{
		Owner:  req.Owner,
		Symbol: req.Symbol,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// FreezeRequest 冻结请求
type FreezeRequest struct {
	Account string `json:"account" binding:"required"`
	Symbol  string `json:"symbol" binding:"required"`
	Status  bool   `json:"status"`
}

// Freeze 冻结或解冻账户
func (h *LedgerHandler) Freeze(c *gin.Context) {
	var req FreezeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.svc.Freeze(c.Request.Context(), application.FreezeCommand{
		Account: req.Account,
		Symbol:  req.Symbol,
		Status:  req.Status,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// SwitchExemptRequest 豁免切换请求
type SwitchExemptRequest struct {
	Issuer  string `json:"issuer" binding:"required"`
	Symbol  string `json:"symbol" binding:"required"`
	Account string `json:"account" binding:"required"`
}

// SwitchExempt 切换手续费豁免
func (h *LedgerHandler) SwitchExempt(c *gin.Context) {
	var req SwitchExemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.svc.SwitchExempt(c.Request.Context(), application.SwitchExemptCommand{
		Issuer:  req.Issuer,
		Symbol:  req.Symbol,
		Account: req.Account,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// GetToken 查询代币信息
func (h *LedgerHandler) GetToken(c *gin.Context) {
	dto, err := h.svc.GetToken(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

// GetSupply 查询当前供给
func (h *LedgerHandler) GetSupply(c *gin.Context) {
	dto, err := h.svc.GetSupply(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

// ListHolders 查询某符号的持有人余额列表
func (h *LedgerHandler) ListHolders(c *gin.Context) {
	dtos, err := h.svc.ListHolders(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos)
}

// ListBalances 查询持有人的全部余额
func (h *LedgerHandler) ListBalances(c *gin.Context) {
	dtos, err := h.svc.ListBalances(c.Request.Context(), c.Param("owner"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos)
}

// GetBalance 查询单个余额
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	dto, err := h.svc.GetBalance(c.Request.Context(), c.Param("owner"), c.Param("code"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

// RegisterIdentityRequest 身份登记请求
type RegisterIdentityRequest struct {
	Name string `json:"name" binding:"required"`
}

// RegisterIdentity 登记账户身份
func (h *LedgerHandler) RegisterIdentity(c *gin.Context) {
	var req RegisterIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.registry.Register(c.Request.Context(), req.Name); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// LogFeeRequest 手续费登记请求
type LogFeeRequest struct {
	Account string `json:"account" binding:"required"`
	Fee     string `json:"fee" binding:"required"`
}

// LogFee 手续费空操作登记
func (h *LedgerHandler) LogFee(c *gin.Context) {
	var req LogFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.svc.LogFee(c.Request.Context(), application.LogFeeCommand{
		Account: req.Account,
		Fee:     req.Fee,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// writeError 将领域错误映射为 HTTP 状态码
func (h *LedgerHandler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidSymbol),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidFee),
		errors.Is(err, domain.ErrMemoTooLong),
		errors.Is(err, domain.ErrSelfTransfer):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrMissingAuth),
		errors.Is(err, domain.ErrNotIssuer),
		errors.Is(err, domain.ErrIssueToNonIssuer):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrTokenNotFound),
		errors.Is(err, domain.ErrNoBalance),
		errors.Is(err, domain.ErrBalanceNotFound),
		errors.Is(err, domain.ErrUnknownAccount):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrTokenExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrSymbolMismatch),
		errors.Is(err, domain.ErrSupplyExceeded),
		errors.Is(err, domain.ErrOverdrawn),
		errors.Is(err, domain.ErrAccountFrozen),
		errors.Is(err, domain.ErrNonZeroBalance):
		status = http.StatusUnprocessableEntity
	default:
		logger.Error(c.Request.Context(), "ledger operation failed", "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
