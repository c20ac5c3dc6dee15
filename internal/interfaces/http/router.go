package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Kardex-api/internal/application/kardex"
	"github.com/jhoicas/Kardex-api/internal/application/realtime"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// TenantResolver resuelve la empresa del usuario y sus permisos. Lo implementa *tenant.Resolver.
type TenantResolver interface {
	kardex.SessionResolver
	moduleChecker
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Resolver   TenantResolver
	Engine     ledgerService
	Catalog    kardex.CatalogLoader
	Reports    reportGenerator
	Messages   repository.MessageRepository
	Sessions   sessionRegistry
	Feed       realtime.Feed   // nil deshabilita /api/kardex/stream
	Reconciler stockReconciler // nil deshabilita /api/kardex/reconcile
	JWTSecret  string
	JWTIssuer  string
	Log        zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", Health(deps.Sessions))

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token y el módulo kardex)
	protected := api.Group("/",
		AuthMiddleware(deps.JWTSecret, deps.JWTIssuer),
		RequireModule(entity.ModuleKardex, deps.Resolver, deps.Log),
	)

	// Kardex
	kardexHandler := NewKardexHandler(deps.Resolver, deps.Engine, deps.Catalog, deps.Reports, deps.Feed, deps.Reconciler, deps.Log.With().Str("handler", "kardex").Logger())
	kx := protected.Group("/kardex")
	kx.Get("/", kardexHandler.Ledger)
	kx.Post("/movements", kardexHandler.RegisterMovement)
	kx.Get("/report.pdf", kardexHandler.Report)
	kx.Get("/stream", kardexHandler.Stream)
	kx.Post("/reconcile", kardexHandler.Reconcile)

	// Catálogo
	catalogHandler := NewCatalogHandler(deps.Resolver, deps.Catalog)
	protected.Get("/catalog", catalogHandler.Get)

	// Mensajes
	messageHandler := NewMessageHandler(deps.Resolver, deps.Messages)
	protected.Get("/messages", messageHandler.List)
	protected.Post("/messages", messageHandler.Create)

	// Sesiones de captura
	sessionHandler := NewSessionHandler(deps.Sessions)
	sessions := protected.Group("/sessions")
	sessions.Post("/", sessionHandler.Create)
	sessions.Get("/:id", sessionHandler.Get)
	sessions.Delete("/:id", sessionHandler.Close)
	sessions.Post("/:id/dialog", sessionHandler.OpenDialog)
	sessions.Patch("/:id/dialog", sessionHandler.UpdateDialog)
	sessions.Delete("/:id/dialog", sessionHandler.DismissDialog)
	sessions.Post("/:id/movements", sessionHandler.SaveMovement)
	sessions.Get("/:id/products", sessionHandler.Products)
	sessions.Post("/:id/catalog/refresh", sessionHandler.RefreshCatalog)
}
