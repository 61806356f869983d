package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/securepay/gateway/internal/middleware"
	"github.com/securepay/gateway/internal/session"
)

// Router builds the gin engine with the full middleware chain and route
// table. Everything under /api except session and user creation requires a
// session token.
func (h *Handler) Router(mode string, store *session.Store) *gin.Engine {
	gin.SetMode(mode)

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())

	router.GET("/health", h.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/session", h.Login)
		api.GET("/users", h.ListUsers)
		api.POST("/users", h.CreateUser)

		authed := api.Group("")
		authed.Use(middleware.Auth(store))
		{
			authed.DELETE("/users/:id", h.DeleteUser)

			authed.GET("/dashboard", h.Dashboard)
			authed.GET("/profile", h.Profile)
			authed.GET("/history/:counterpartyId", h.History)

			payments := authed.Group("/payments")
			{
				payments.GET("/intent", h.PaymentIntent)
				payments.POST("/scan", h.ResolveScan)
				payments.POST("", h.StartPayment)
				payments.POST("/confirm", h.ConfirmPayment)
				payments.DELETE("", h.CancelPayment)
			}
			authed.GET("/receive", h.ReceiveCode)

			admin := authed.Group("/admin")
			{
				admin.POST("/mine", h.Mine)
				admin.GET("/blockchain", h.Blockchain)
			}

			stocks := authed.Group("/stocks")
			{
				stocks.GET("/price/:symbol", h.StockPrice)
				stocks.GET("/search/:keyword", h.StockSearch)
				stocks.GET("/series/:symbol", h.StockSeries)
			}
		}
	}

	return router
}
