package handler

import (
	"dailytrack/pkg/response"

	"github.com/gin-gonic/gin"
)

// GetBalance GET /api/v1/ledger/balance?token=HTO&account=0x...
func (h *Handler) GetBalance(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.ParamError(c, "token is required")
		return
	}
	account, ok := queryAddress(c, "account")
	if !ok {
		return
	}

	balance, err := h.ledger.BalanceOf(c.Request.Context(), token, account)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"token":   token,
		"account": account.Hex(),
		"balance": balance,
	})
}

// GetAllowance GET /api/v1/ledger/allowance?token=HTO&owner=0x...&spender=0x...
func (h *Handler) GetAllowance(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.ParamError(c, "token is required")
		return
	}
	owner, ok := queryAddress(c, "owner")
	if !ok {
		return
	}
	spender, ok := queryAddress(c, "spender")
	if !ok {
		return
	}

	allowance, err := h.ledger.Allowance(c.Request.Context(), token, owner, spender)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"token":     token,
		"owner":     owner.Hex(),
		"spender":   spender.Hex(),
		"allowance": allowance,
	})
}

// GetEntries GET /api/v1/ledger/entries?token=HTO&account=0x...&page=1&page_size=20
func (h *Handler) GetEntries(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.ParamError(c, "token is required")
		return
	}
	account, ok := queryAddress(c, "account")
	if !ok {
		return
	}
	page, pageSize := pagination(c)

	entries, total, err := h.ledger.Entries(c.Request.Context(), token, account, page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"list":  entries,
		"total": total,
		"page":  page,
	})
}

type ApproveRequest struct {
	Token   string `json:"token" binding:"required"`
	Spender string `json:"spender" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
}

// Approve POST /api/v1/ledger/approve
func (h *Handler) Approve(c *gin.Context) {
	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}
	spender, ok := bodyAddress(c, "spender", req.Spender)
	if !ok {
		return
	}
	value, ok := bodyAmount(c, "amount", req.Amount)
	if !ok {
		return
	}

	if err := h.ledger.Approve(c.Request.Context(), mustCaller(c), req.Token, spender, value); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"owner":     mustCaller(c).Hex(),
		"spender":   spender.Hex(),
		"allowance": value,
	})
}

type TransferRequest struct {
	Token  string `json:"token" binding:"required"`
	To     string `json:"to" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

// Transfer POST /api/v1/ledger/transfer
func (h *Handler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}
	to, ok := bodyAddress(c, "to", req.To)
	if !ok {
		return
	}
	value, ok := bodyAmount(c, "amount", req.Amount)
	if !ok {
		return
	}

	if err := h.ledger.Transfer(c.Request.Context(), mustCaller(c), req.Token, to, value); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"from":   mustCaller(c).Hex(),
		"to":     to.Hex(),
		"amount": value,
	})
}

// Mint POST /api/v1/ledger/mint, issuer only.
func (h *Handler) Mint(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}
	to, ok := bodyAddress(c, "to", req.To)
	if !ok {
		return
	}
	value, ok := bodyAmount(c, "amount", req.Amount)
	if !ok {
		return
	}

	if err := h.ledger.Mint(c.Request.Context(), mustCaller(c), req.Token, to, value); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"to":     to.Hex(),
		"amount": value,
	})
}

// ============================================================
// Assets
// ============================================================

// GetAssetOwner GET /api/v1/assets/owner?contract=0x...&asset_id=1
func (h *Handler) GetAssetOwner(c *gin.Context) {
	contract, ok := queryAddress(c, "contract")
	if !ok {
		return
	}
	assetID, ok := parseUint(c.Query("asset_id"))
	if !ok {
		response.ParamError(c, "asset_id must be an unsigned integer")
		return
	}

	asset, err := h.ledger.Asset(c.Request.Context(), contract, assetID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, asset)
}

// GetOwnedAssets GET /api/v1/assets?owner=0x...
func (h *Handler) GetOwnedAssets(c *gin.Context) {
	owner, ok := queryAddress(c, "owner")
	if !ok {
		return
	}

	assets, err := h.ledger.AssetsOf(c.Request.Context(), owner)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"list": assets, "total": len(assets)})
}

type ApproveAssetRequest struct {
	Contract string `json:"contract" binding:"required"`
	AssetID  uint64 `json:"asset_id"`
	Operator string `json:"operator" binding:"required"`
}

// ApproveAsset POST /api/v1/assets/approve. The zero operator clears the
// approval.
func (h *Handler) ApproveAsset(c *gin.Context) {
	var req ApproveAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}
	contract, ok := bodyAddress(c, "contract", req.Contract)
	if !ok {
		return
	}
	operator, ok := bodyAddress(c, "operator", req.Operator)
	if !ok {
		return
	}

	if err := h.ledger.ApproveAsset(c.Request.Context(), mustCaller(c), contract, req.AssetID, operator); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"contract": contract.Hex(),
		"asset_id": req.AssetID,
		"approved": operator.Hex(),
	})
}

type ApprovalForAllRequest struct {
	Contract string `json:"contract" binding:"required"`
	Operator string `json:"operator" binding:"required"`
	Approved bool   `json:"approved"`
}

// SetApprovalForAll POST /api/v1/assets/approval-for-all
func (h *Handler) SetApprovalForAll(c *gin.Context) {
	var req ApprovalForAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}
	contract, ok := bodyAddress(c, "contract", req.Contract)
	if !ok {
		return
	}
	operator, ok := bodyAddress(c, "operator", req.Operator)
	if !ok {
		return
	}

	if err := h.ledger.SetApprovalForAll(c.Request.Context(), mustCaller(c), contract, operator, req.Approved); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"contract": contract.Hex(),
		"operator": operator.Hex(),
		"approved": req.Approved,
	})
}

type MintAssetRequest struct {
	Contract string `json:"contract" binding:"required"`
	AssetID  uint64 `json:"asset_id"`
	To       string `json:"to" binding:"required"`
	URI      string `json:"uri" binding:"max=512"`
}

// MintAsset POST /api/v1/assets/mint, issuer only.
func (h *Handler) MintAsset(c *gin.Context) {
	var req MintAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}
	contract, ok := bodyAddress(c, "contract", req.Contract)
	if !ok {
		return
	}
	to, ok := bodyAddress(c, "to", req.To)
	if !ok {
		return
	}

	asset, err := h.ledger.MintAsset(c.Request.Context(), mustCaller(c), contract, req.AssetID, to, req.URI)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, asset)
}
