package http

import (
	"github.com/gofiber/fiber/v2"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger    LedgerUseCases
	JWTSecret string
	// MetricsHandler nil = sin /metrics.
	MetricsHandler fiber.Handler
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if deps.MetricsHandler != nil {
		app.Get("/metrics", deps.MetricsHandler)
	}

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/ledger", AuthMiddleware(deps.JWTSecret))
	h := NewLedgerHandler(deps.Ledger)
	writers := RequireRole(RoleAdmin, RoleBodeguero)
	admins := RequireRole(RoleAdmin)

	// Despachos
	outbounds := protected.Group("/outbounds")
	outbounds.Get("/preview", h.PreviewOutbound)
	outbounds.Post("/", writers, h.ConfirmOutbound)
	outbounds.Post("/order", writers, h.ConfirmOrderOutbound)
	outbounds.Get("/:id", h.GetOutbound)

	// Recepciones
	protected.Post("/inbounds", writers, h.RegisterInbound)

	// Agregados ("/low" antes de "/:id")
	levels := protected.Group("/stock-levels")
	levels.Get("/low", h.GetLowStock)
	levels.Get("/:id", h.GetStockLevel)
	levels.Post("/:id/adjust", admins, h.AdjustStock)
	protected.Get("/adjustments/:id", h.GetAdjustment)

	// Lotes
	protected.Get("/materials/:id/batches", h.GetBatchStatus)
	protected.Get("/batches/:id", h.GetBatch)
	protected.Get("/batches/:id/outbounds", h.GetBatchOutbounds)

	// Precios
	protected.Post("/prices", admins, h.RegisterPrice)
	protected.Patch("/prices/:id", admins, h.UpdatePrice)
	protected.Get("/materials/:id/prices", h.GetMaterialPrices)
}
