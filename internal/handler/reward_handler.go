package handler

import (
	"dailytrack/pkg/response"

	"github.com/gin-gonic/gin"
)

// DailyLogin POST /api/v1/rewards/login
func (h *Handler) DailyLogin(c *gin.Context) {
	result, err := h.rewards.DailyLogin(c.Request.Context(), mustCaller(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, result)
}

type AmountRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// DepositTokens POST /api/v1/rewards/deposit. The caller must have approved
// the tracker for at least the amount.
func (h *Handler) DepositTokens(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}
	value, ok := bodyAmount(c, "amount", req.Amount)
	if !ok {
		return
	}

	if err := h.rewards.DepositTokens(c.Request.Context(), mustCaller(c), value); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"depositor": mustCaller(c).Hex(),
		"amount":    value,
	})
}

// GetRewardAccount GET /api/v1/rewards/account?account=0x...
func (h *Handler) GetRewardAccount(c *gin.Context) {
	account, ok := queryAddress(c, "account")
	if !ok {
		return
	}

	view, err := h.rewards.GetAccount(c.Request.Context(), account)
	if err != nil {
		fail(c, err)
		return
	}
	status, err := h.rewards.CanClaim(c.Request.Context(), account)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"account": view,
		"claim":   status,
	})
}

// GetRewardConfig GET /api/v1/rewards/config
func (h *Handler) GetRewardConfig(c *gin.Context) {
	cfg, err := h.rewards.GetConfig(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	custody, err := h.rewards.CustodyBalance(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"config":          cfg,
		"custody_balance": custody,
	})
}

// SetDailyReward POST /api/v1/rewards/admin/daily-reward
func (h *Handler) SetDailyReward(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}
	value, ok := bodyAmount(c, "amount", req.Amount)
	if !ok {
		return
	}

	if err := h.rewards.SetDailyReward(c.Request.Context(), mustCaller(c), value); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"daily_reward": value})
}

// WithdrawRewardTokens POST /api/v1/rewards/admin/withdraw
func (h *Handler) WithdrawRewardTokens(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}
	value, ok := bodyAmount(c, "amount", req.Amount)
	if !ok {
		return
	}

	if err := h.rewards.WithdrawToken(c.Request.Context(), mustCaller(c), value); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"to":     mustCaller(c).Hex(),
		"amount": value,
	})
}
