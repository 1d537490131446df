// Command reconcile reproduce el kardex completo, lo compara con el agregado de stock y reporta
// los pares con deriva. Pensado para ejecutarse desde cron; con RECONCILE_FAIL_ON_DRIFT=true
// sale con código 2 si encuentra diferencias.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/inventario-kardex/internal/application/inventory"
	"github.com/jhoicas/inventario-kardex/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-kardex/pkg/config"
	"github.com/jhoicas/inventario-kardex/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, Service: cfg.App.Name + "-reconcile"})

	if cfg.App.Storage != config.StoragePostgres {
		log.Fatal().Str("storage", cfg.App.Storage).Msg("la reconciliación solo aplica a postgres")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	uc := inventory.NewReconcileUseCase(postgres.NewTxRunner(pool), nil, log)
	drift, err := uc.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("reconciliación")
		pool.Close()
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{"consistent": len(drift) == 0, "drift": drift})

	if len(drift) > 0 && cfg.Reconcile.FailOnDrift {
		pool.Close()
		os.Exit(2)
	}
}
