package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/events"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/metrics"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

// @title						Stock Ledger API
// @version					1.0
// @description				Libro de stock por lotes con asignación FIFO de despachos.
// @BasePath					/
// @securityDefinitions.apikey	Bearer
// @in							header
// @name						Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB, cfg.App.Name)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		if _, err := postgres.Migrate(ctx, pool, log); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}

	var m *metrics.Metrics
	deps := ledger.Deps{
		Tx:    postgres.NewTxRunner(pool, cfg.Ledger.TxTimeout, cfg.Ledger.LockTimeout),
		Repos: postgres.NewStores(pool),
		Log:   log,
	}
	if cfg.Metrics.Enabled {
		m = metrics.New("stock_ledger")
		deps.Metrics = m
	}

	if cfg.Kafka.Enabled() {
		var observer events.PublishObserver
		if m != nil {
			observer = m
		}
		publisher := events.NewKafkaPublisher(
			events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.PublishTimeout), cfg.App.Name, observer,
		).WithTimeout(cfg.Kafka.PublishTimeout)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Warn().Err(err).Msg("cerrar publicador Kafka")
			}
		}()
		deps.Events = publisher
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Dur("publish_timeout", cfg.Kafka.PublishTimeout).Msg("publicación de eventos habilitada")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.Ledger.TxTimeout + 5*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs (requiere `swag init`)
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Stock Ledger API",
		}))
	} else {
		log.Warn().Str("file", swaggerFile).Msg("swagger.json no encontrado, UI deshabilitada")
	}

	routerDeps := httpRouter.RouterDeps{
		Ledger: httpRouter.LedgerUseCases{
			Inbound:    ledger.NewInboundUseCase(deps),
			Outbound:   ledger.NewOutboundUseCase(deps),
			Adjustment: ledger.NewAdjustmentUseCase(deps),
			Prices:     ledger.NewPriceLedgerUseCase(deps),
			Queries:    ledger.NewQueryUseCase(deps),
			LowStock:   ledger.NewLowStockUseCase(deps),
		},
		JWTSecret: cfg.JWT.Secret,
	}
	if m != nil {
		app.Use(m.Middleware())
		routerDeps.MetricsHandler = adaptor.HTTPHandler(m.Handler())
	}
	httpRouter.Router(app, routerDeps)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
