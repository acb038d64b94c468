package router

import (
	"github.com/gin-gonic/gin"

	"github.com/joaopxt/ze-do-bip-backend/internal/interfaces/http/handler"
)

// GuardaRoutes maps the /guardas endpoints. Static segments such as
// "create" and "produtos" share their position with :sq_guarda.
func GuardaRoutes(h *handler.GuardaHandler) *ResourceGroup {
	g := NewResourceGroup("/guardas").
		GET("", h.List).
		POST("/create", h.Create).
		POST("/sync-siac", h.Sync).
		GET("/prod/:sq_guarda", h.Get).
		GET("/:sq_guarda", h.Get).
		POST("/:sq_guarda/iniciar", h.Start).
		POST("/:sq_guarda/finalizar", h.Finish).
		GET("/:sq_guarda/contagem-bipados", h.Counts).
		GET("/:sq_guarda/produtos", h.LineItems).
		POST("/:sq_guarda/desbipar-todos", h.ResetReceipt)

	g.Child("/produtos").
		POST("/:id/bipar", h.ScanLine).
		POST("/:id/resetar", h.ResetLine)

	return g
}

// ProductRoutes maps the /produtos endpoints
func ProductRoutes(h *handler.ProductHandler) *ResourceGroup {
	return NewResourceGroup("/produtos").
		POST("/:cd_produto/bipar", h.Scan).
		PUT("/alterar-endereco/:codpro", h.ChangeAddress).
		GET("/get-endereco/:id/:codpro", h.CheckAddressID)
}

// RegisterHealth mounts the health checks at the engine root, outside any API
// version prefix.
func RegisterHealth(engine *gin.Engine, h *handler.HealthHandler) {
	engine.GET("/health", h.Health)
	engine.GET("/health/siac", h.SIAC)
}
