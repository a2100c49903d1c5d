package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// Códigos SQLSTATE que el libro trata de forma especial.
const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeDeadlockDetected     = "40P01"
	codeSerializationFailure = "40001"
	codeLockNotAvailable     = "55P03"
	codeQueryCanceled        = "57014"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeUniqueViolation
	}
	return strings.Contains(err.Error(), codeUniqueViolation)
}

// mapError traduce errores de PostgreSQL a errores de dominio. op se antepone al mensaje.
//   - deadlock, serialización, lock_timeout o statement_timeout → ErrTransient (reintentable)
//   - CHECK remaining_quantity >= 0 → ErrBatchUnderflow
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeDeadlockDetected, codeSerializationFailure, codeLockNotAvailable, codeQueryCanceled:
			return fmt.Errorf("%s: %w (%s)", op, domain.ErrTransient, pgErr.Code)
		case codeCheckViolation:
			if strings.Contains(pgErr.ConstraintName, "remaining") {
				return fmt.Errorf("%s: %w", op, domain.ErrBatchUnderflow)
			}
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w", op, domain.ErrDuplicate)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
