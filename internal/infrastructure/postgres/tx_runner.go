package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

var _ ledger.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool        *pgxpool.Pool
	txTimeout   time.Duration
	lockTimeout time.Duration
}

// NewTxRunner construye el runner con el pool. txTimeout acota toda la transacción;
// lockTimeout la espera por cada bloqueo de fila.
func NewTxRunner(pool *pgxpool.Pool, txTimeout, lockTimeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, txTimeout: txTimeout, lockTimeout: lockTimeout}
}

// NewStores repositorios atados a q (pool para lecturas, tx dentro de Run).
func NewStores(q Querier) ledger.Stores {
	return ledger.Stores{
		Materials:   NewMaterialRepository(q),
		Levels:      NewStockLevelRepository(q),
		Batches:     NewBatchRepository(q),
		Inbounds:    NewInboundRepository(q),
		Outbounds:   NewOutboundRepository(q),
		Adjustments: NewAdjustmentRepository(q),
		Prices:      NewPriceRepository(q),
	}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Un timeout del contexto o un lock_timeout se devuelve como ErrTransient.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, s ledger.Stores) error) error {
	if r.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.txTimeout)
		defer cancel()
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return r.transient(ctx, "begin transaction", err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := r.setLocalTimeouts(ctx, tx); err != nil {
		return err
	}

	if err := fn(ctx, NewStores(tx)); err != nil {
		return r.transient(ctx, "ledger tx", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return r.transient(ctx, "commit transaction", mapError("commit transaction", err))
	}
	return nil
}

// setLocalTimeouts aplica lock_timeout y statement_timeout solo a esta transacción.
// SET no admite parámetros: los valores son enteros en milisegundos generados aquí.
func (r *TxRunner) setLocalTimeouts(ctx context.Context, tx pgx.Tx) error {
	if r.lockTimeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", r.lockTimeout.Milliseconds())); err != nil {
			return mapError("set lock_timeout", err)
		}
	}
	if r.txTimeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", r.txTimeout.Milliseconds())); err != nil {
			return mapError("set statement_timeout", err)
		}
	}
	return nil
}

// transient marca como ErrTransient los errores causados por el vencimiento del contexto de la tx.
func (r *TxRunner) transient(ctx context.Context, op string, err error) error {
	if errors.Is(err, domain.ErrTransient) {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrTransient, err)
	}
	return err
}
