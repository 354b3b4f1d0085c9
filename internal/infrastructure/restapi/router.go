package restapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRouter wires the API routes onto the given engine. Middleware (CORS,
// logging, recovery) is configured by the caller. executeHandler may be nil
// when no local signing key is configured; the execute endpoint is then not
// mounted.
func SetupRouter(router *gin.Engine, swapHandler *SwapHandler, tokenHandler *TokenHandler, executeHandler *ExecuteHandler) {
	v1 := router.Group("/api/v1")
	{
		v1.GET("/swap/price", swapHandler.GetPriceHandler)
		v1.GET("/swap/quote", swapHandler.GetQuoteHandler)
		v1.GET("/tokens", tokenHandler.ListTokensHandler)
		v1.POST("/tokens", tokenHandler.SaveTokenHandler)
		if executeHandler != nil {
			v1.POST("/swap/execute", executeHandler.ExecuteSwapHandler)
		}
	}

	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
}
