package ledger_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger/internal/domain/ledger"
)

var lotPattern = regexp.MustCompile(`^MAT01-250314-\d{6}$`)

func TestLotNumber_Formato(t *testing.T) {
	at := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	assert.Regexp(t, lotPattern, ledger.LotNumber("MAT01", at, ""))
	assert.Regexp(t, `^MAT01-250314-ADJ\d{6}$`, ledger.LotNumber("MAT01", at, ledger.AdjustmentLotTag))
	assert.Regexp(t, `^LOT-250314-\d{6}$`, ledger.LotNumber("  ", at, ""), "sin código se usa el prefijo LOT")
}

func TestFallbackLotNumber_UnicoEnElProceso(t *testing.T) {
	at := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		lot := ledger.FallbackLotNumber("MAT01", at, "")
		assert.False(t, seen[lot], "número de respaldo repetido: %s", lot)
		seen[lot] = true
		assert.Regexp(t, `^MAT01-250314-T[0-9A-Z]+\.[0-9A-Z]+$`, lot)
	}
}
