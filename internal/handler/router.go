package handler

import (
	"dailytrack/internal/config"
	"dailytrack/internal/infrastructure/metrics"

	"github.com/gin-gonic/gin"
)

// SetupRouter wires middleware and routes. Mutating routes require the
// X-Caller-Address header set by the gateway.
func SetupRouter(h *Handler, m *metrics.Metrics, cfg *config.ServerConfig) *gin.Engine {
	r := gin.New()

	r.Use(RecoveryMiddleware())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())
	r.Use(MetricsMiddleware(m))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	api := r.Group("/api/v1")
	api.Use(GatewayAuthMiddleware(cfg.GatewayToken))
	api.Use(CallerMiddleware())
	{
		ledger := api.Group("/ledger")
		{
			ledger.GET("/balance", h.GetBalance)
			ledger.GET("/allowance", h.GetAllowance)
			ledger.GET("/entries", h.GetEntries)
			ledger.POST("/approve", RequireCaller(), h.Approve)
			ledger.POST("/transfer", RequireCaller(), h.Transfer)
			ledger.POST("/mint", RequireCaller(), h.Mint)
		}

		assets := api.Group("/assets")
		{
			assets.GET("", h.GetOwnedAssets)
			assets.GET("/owner", h.GetAssetOwner)
			assets.POST("/approve", RequireCaller(), h.ApproveAsset)
			assets.POST("/approval-for-all", RequireCaller(), h.SetApprovalForAll)
			assets.POST("/mint", RequireCaller(), h.MintAsset)
		}

		rewards := api.Group("/rewards")
		{
			rewards.GET("/account", h.GetRewardAccount)
			rewards.GET("/config", h.GetRewardConfig)
			rewards.POST("/login", RequireCaller(), h.DailyLogin)
			rewards.POST("/deposit", RequireCaller(), h.DepositTokens)
			rewards.POST("/admin/daily-reward", RequireCaller(), h.SetDailyReward)
			rewards.POST("/admin/withdraw", RequireCaller(), h.WithdrawRewardTokens)
		}

		exchange := api.Group("/exchange")
		{
			exchange.GET("/config", h.GetExchangeConfig)
			exchange.GET("/listings", h.ListListings)
			exchange.GET("/listings/:id", h.GetListing)
			exchange.GET("/listings/:id/quote", h.QuoteListing)
			exchange.POST("/listings", RequireCaller(), h.ListNFT)
			exchange.POST("/listings/:id/purchase", RequireCaller(), h.PurchaseNFT)
			exchange.POST("/listings/:id/cancel", RequireCaller(), h.CancelListing)
			exchange.POST("/admin/fee", RequireCaller(), h.UpdatePlatformFee)
			exchange.POST("/admin/withdraw", RequireCaller(), h.WithdrawFees)
		}

		api.GET("/custody/reconcile", h.Reconcile)
	}

	return r
}
