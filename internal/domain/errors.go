package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound      = errors.New("recurso no encontrado")
	ErrInvalidInput  = errors.New("entrada inválida")
	ErrDuplicate     = errors.New("recurso duplicado")
	ErrUnauthorized  = errors.New("no autorizado")
	ErrForbidden     = errors.New("acceso denegado")
	ErrConflict      = errors.New("conflicto con el estado actual")
	ErrTransient     = errors.New("fallo transitorio, reintente la operación")
	ErrPriceNotFound = errors.New("no existe precio vigente para el material")

	// ErrInsufficientStock: la cantidad pedida supera el stock agregado. Error del llamador.
	ErrInsufficientStock = errors.New("stock insuficiente")

	// ErrBatchUnderflow: un descuento dejaría un lote en negativo. Aborta la transacción.
	ErrBatchUnderflow = errors.New("el descuento deja el lote en negativo")

	// ErrAllocationMismatch: los lotes no cubren lo que el agregado dice tener.
	// Indica que el libro de lotes y el stock agregado divergieron; nunca se corrige en silencio.
	ErrAllocationMismatch = errors.New("la asignación FIFO no coincide con el stock agregado")
)

// IsSystemError indica si el error rompe la invariante lote/agregado y debe alertar a operaciones.
func IsSystemError(err error) bool {
	return errors.Is(err, ErrAllocationMismatch) || errors.Is(err, ErrBatchUnderflow)
}
