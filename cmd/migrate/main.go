// migrate aplica las migraciones embebidas del libro de stock y termina.
//
// Uso: go run ./cmd/migrate
package main

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Ledger.TxTimeout*4)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB, cfg.App.Name+"-migrate")
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	applied, err := postgres.Migrate(ctx, pool, log)
	if err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}
	if len(applied) == 0 {
		log.Info().Msg("esquema al día, sin migraciones pendientes")
		return
	}
	log.Info().Strs("versions", applied).Msg("migraciones aplicadas")
}
