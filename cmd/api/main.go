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
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jhoicas/inventario-kardex/internal/application/inventory"
	"github.com/jhoicas/inventario-kardex/internal/application/orders"
	"github.com/jhoicas/inventario-kardex/internal/application/reference"
	"github.com/jhoicas/inventario-kardex/internal/infrastructure/events"
	"github.com/jhoicas/inventario-kardex/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-kardex/internal/infrastructure/metrics"
	"github.com/jhoicas/inventario-kardex/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/inventario-kardex/internal/interfaces/http"
	"github.com/jhoicas/inventario-kardex/pkg/config"
	"github.com/jhoicas/inventario-kardex/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.Storage).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		txRunner inventory.TxRunner
		repos    inventory.TxRepos
	)
	switch cfg.App.Storage {
	case config.StorageMemory:
		store := memory.NewStore()
		memory.SeedDemo(store)
		txRunner, repos = store, store.Repos()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB, log)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.Migrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
		}
		txRunner, repos = postgres.NewTxRunner(pool), postgres.NewRepos(pool)
	}

	var publisher inventory.EventPublisher
	if cfg.Kafka.Enabled() {
		kafkaPub, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Fatal().Err(err).Msg("productor kafka")
		}
		defer func() { _ = kafkaPub.Close() }()
		publisher = kafkaPub
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	registerMovementUC := inventory.NewRegisterMovementUseCase(txRunner, publisher, collector, log)
	stockQueryUC := inventory.NewStockQueryUseCase(repos.Stock, repos.Orders, repos.Movements)
	kardexUC := inventory.NewKardexUseCase(repos.Products, repos.Movements)
	reconcileUC := inventory.NewReconcileUseCase(txRunner, collector, log)
	orderUC := orders.NewOrderUseCase(txRunner, repos.Orders, publisher, collector, log)
	referenceUC := reference.NewUseCase(repos.Products, repos.Warehouses, repos.Reasons)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Inventario Kardex API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		RegisterMovement: registerMovementUC,
		StockQuery:       stockQueryUC,
		Kardex:           kardexUC,
		Reconcile:        reconcileUC,
		Orders:           orderUC,
		Reference:        referenceUC,
		JWTSecret:        cfg.JWT.Secret,
		Gatherer:         registry,
	})

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
