package handler

import (
	"dailytrack/internal/repository"
	"dailytrack/pkg/response"

	"github.com/gin-gonic/gin"
)

type ListNFTRequest struct {
	AssetContract string `json:"asset_contract" binding:"required"`
	AssetID       uint64 `json:"asset_id"`
	Price         string `json:"price" binding:"required"`
}

// ListNFT POST /api/v1/exchange/listings
func (h *Handler) ListNFT(c *gin.Context) {
	var req ListNFTRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}
	contract, ok := bodyAddress(c, "asset_contract", req.AssetContract)
	if !ok {
		return
	}
	price, ok := bodyAmount(c, "price", req.Price)
	if !ok {
		return
	}

	listing, err := h.exchange.ListNFT(c.Request.Context(), mustCaller(c), contract, req.AssetID, price)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, listing)
}

// ListListings GET /api/v1/exchange/listings?active=true&seller=0x...&page=1&page_size=20
func (h *Handler) ListListings(c *gin.Context) {
	filter := repository.ListingFilter{ActiveOnly: c.Query("active") == "true"}
	if raw := c.Query("seller"); raw != "" {
		seller, ok := parseAddress(raw)
		if !ok {
			response.ParamError(c, "seller must be a hex address")
			return
		}
		filter.Seller = seller.Hex()
	}
	page, pageSize := pagination(c)

	listings, total, err := h.exchange.ListListings(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"list":  listings,
		"total": total,
		"page":  page,
	})
}

// GetListing GET /api/v1/exchange/listings/:id
func (h *Handler) GetListing(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	listing, err := h.exchange.GetListing(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, listing)
}

// QuoteListing GET /api/v1/exchange/listings/:id/quote
func (h *Handler) QuoteListing(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	quote, err := h.exchange.Quote(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, quote)
}

// PurchaseNFT POST /api/v1/exchange/listings/:id/purchase
func (h *Handler) PurchaseNFT(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	receipt, err := h.exchange.PurchaseNFT(c.Request.Context(), mustCaller(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, receipt)
}

// CancelListing POST /api/v1/exchange/listings/:id/cancel
func (h *Handler) CancelListing(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.exchange.CancelListing(c.Request.Context(), mustCaller(c), id); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"listing_id": id,
		"status":     "cancelled",
	})
}

// GetExchangeConfig GET /api/v1/exchange/config
func (h *Handler) GetExchangeConfig(c *gin.Context) {
	cfg, err := h.exchange.GetConfig(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	fees, err := h.exchange.AccumulatedFees(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"config":           cfg,
		"accumulated_fees": fees,
	})
}

type PlatformFeeRequest struct {
	FeePercent *uint32 `json:"fee_percent" binding:"required"`
}

// UpdatePlatformFee POST /api/v1/exchange/admin/fee
func (h *Handler) UpdatePlatformFee(c *gin.Context) {
	var req PlatformFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	if err := h.exchange.UpdatePlatformFee(c.Request.Context(), mustCaller(c), *req.FeePercent); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"platform_fee_percent": *req.FeePercent})
}

// WithdrawFees POST /api/v1/exchange/admin/withdraw
func (h *Handler) WithdrawFees(c *gin.Context) {
	withdrawn, err := h.exchange.WithdrawFees(c.Request.Context(), mustCaller(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"to":     mustCaller(c).Hex(),
		"amount": withdrawn,
	})
}
