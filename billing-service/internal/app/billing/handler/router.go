package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bodegaclick/pkg/logger"
	"bodegaclick/pkg/metrics"
)

const serviceName = "billing-service"

// SetupRoutes builds the public router. notifications serves the websocket
// upgrade for live stock updates.
func SetupRoutes(
	h *BillingHandler,
	authMiddleware *AuthMiddleware,
	notifications http.Handler,
	health *HealthCheckHandler,
	corsOrigins []string,
) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(logger.GinLoggerMiddleware())
	router.Use(metrics.GinPrometheusMiddleware(serviceName))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", SignatureHeader, TestWebhookHeader},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if health != nil {
		router.GET("/health", gin.WrapF(health.HealthCheck))
		router.GET("/health/readiness", gin.WrapF(health.Readiness))
		router.GET("/health/liveness", gin.WrapF(health.Liveness))
	} else {
		router.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"service": serviceName,
			})
		})
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/auth/login", h.Login)

	// signed by the remote system, not by an operator
	router.POST("/webhook/", h.ReceiveWebhook)

	if notifications != nil {
		router.GET("/ws/notifications", gin.WrapH(notifications))
	}

	api := router.Group("/api")
	{
		api.GET("/products", h.ListProducts)
		api.GET("/products/:id", h.GetProduct)
		api.GET("/exchange-rates", h.ListRates)
		api.GET("/exchange-rates/latest", h.LatestRate)
		api.GET("/invoices", h.ListInvoices)
		api.GET("/invoices/:id", h.GetInvoice)

		protected := api.Group("")
		protected.Use(authMiddleware.Authenticate())
		{
			protected.POST("/products/sync-from-remote", h.SyncFromRemote)
			protected.POST("/products/sync-to-remote", h.SyncToRemote)
			protected.POST("/products/recompute", h.RecomputePrices)
			protected.POST("/products/:id/recompute", h.RecomputeProduct)

			protected.POST("/exchange-rates", h.RecordRate)

			protected.POST("/invoices", h.CreateInvoice)
			protected.POST("/invoices/:id/process", h.ProcessInvoice)

			protected.GET("/webhooks", h.ListWebhooks)
			protected.POST("/webhooks", h.CreateWebhook)
			protected.GET("/webhooks/deliveries", h.ListDeliveries)
			protected.DELETE("/webhooks/:id", h.DeleteWebhook)
			protected.POST("/webhooks/:id/test", h.TestWebhook)
		}
	}

	return router
}
