package ledger

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// MaxLotAttempts intentos aleatorios antes de recurrir al sufijo temporal.
const MaxLotAttempts = 5

// AdjustmentLotTag marca los lotes sintéticos creados por ajustes positivos.
const AdjustmentLotTag = "ADJ"

var fallbackSeq atomic.Uint64

// LotNumber genera {código}-{yymmdd}-{tag}{6 dígitos aleatorios}. tag vacío para recepciones.
func LotNumber(materialCode string, at time.Time, tag string) string {
	return fmt.Sprintf("%s-%s-%s%06d", lotPrefix(materialCode), at.Format("060102"), tag, rand.IntN(1_000_000))
}

// FallbackLotNumber sufijo basado en tiempo más un contador de proceso: único dentro del proceso
// aunque dos llamadas compartan el mismo nanosegundo.
func FallbackLotNumber(materialCode string, at time.Time, tag string) string {
	seq := fallbackSeq.Add(1)
	return fmt.Sprintf("%s-%s-%sT%s.%s",
		lotPrefix(materialCode), at.Format("060102"), tag,
		strings.ToUpper(strconv.FormatInt(time.Now().UnixNano(), 36)),
		strings.ToUpper(strconv.FormatUint(seq, 36)),
	)
}

func lotPrefix(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "LOT"
	}
	return code
}
