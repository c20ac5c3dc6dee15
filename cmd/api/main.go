package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/Kardex-api/docs"
	"github.com/jhoicas/Kardex-api/internal/application/catalog"
	"github.com/jhoicas/Kardex-api/internal/application/kardex"
	"github.com/jhoicas/Kardex-api/internal/application/realtime"
	"github.com/jhoicas/Kardex-api/internal/application/tenant"
	infrapdf "github.com/jhoicas/Kardex-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Kardex-api/internal/jobs"
	"github.com/jhoicas/Kardex-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Kardex-api/internal/infrastructure/pubsub"
	httpRouter "github.com/jhoicas/Kardex-api/internal/interfaces/http"
	"github.com/jhoicas/Kardex-api/pkg/config"
	"github.com/jhoicas/Kardex-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: "api",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	companyRepo := postgres.NewCompanyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	brandRepo := postgres.NewBrandRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	movementRepo := postgres.NewMovementRepository(pool)
	messageRepo := postgres.NewMessageRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Feed de cambios: pg_notify -> relay -> Redis pub/sub -> sesiones y clientes SSE.
	// Sin Redis la API funciona sin propagación en vivo.
	// La cola de tareas comparte el mismo Redis.
	var (
		feed       realtime.Feed
		reconciler *jobs.Client
	)
	redisClient, err := pubsub.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis no disponible, propagación en vivo y reconciliación deshabilitadas")
	} else {
		defer redisClient.Close()
		redisFeed := pubsub.NewFeed(redisClient, log.Component("pubsub"))
		feed = redisFeed
		relay := postgres.NewChangeRelay(pool, cfg.Realtime.PGChannel, redisFeed, log.Component("change_relay"))
		go relay.Run(ctx)

		reconciler = jobs.NewClient(jobs.RedisOpts(cfg.Redis))
		defer reconciler.Close()
	}

	resolver := tenant.NewResolver(userRepo, companyRepo, cfg.Kardex.UserCacheTTL, log.Component("tenant"))
	catalogCache := catalog.NewCache(productRepo, brandRepo, categoryRepo)
	engine := kardex.NewEngine(txRunner, movementRepo, resolver, log.Component("kardex"))
	registry := kardex.NewRegistry(kardex.SessionDeps{
		Engine:         engine,
		Resolver:       resolver,
		Catalog:        catalogCache,
		Messages:       messageRepo,
		Feed:           feed,
		NotifyDuration: cfg.Kardex.NotifyDuration,
		Log:            log.Component("session"),
	})
	defer registry.CloseAll()
	go registry.RunSweeper(ctx, time.Minute, cfg.Kardex.SessionIdleTTL)

	app := fiber.New(fiber.Config{
		AppName:     cfg.App.Name,
		ReadTimeout: time.Second * 10,
		IdleTimeout: time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Kardex API",
	}))

	deps := httpRouter.RouterDeps{
		Resolver:  resolver,
		Engine:    engine,
		Catalog:   catalogCache,
		Reports:   infrapdf.NewKardexReportGenerator(),
		Messages:  messageRepo,
		Sessions:  registry,
		Feed:      feed,
		JWTSecret: cfg.JWT.Secret,
		JWTIssuer: cfg.JWT.Issuer,
		Log:       log.Component("http"),
	}
	if reconciler != nil {
		deps.Reconciler = reconciler
	}
	httpRouter.Router(app, deps)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
