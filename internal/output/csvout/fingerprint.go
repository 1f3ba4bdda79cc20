package csvout

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/xxh3"

	"github.com/rodgersmerokaosumo/VCA-PULA/pkg/records"
)

// Fingerprint computes a stable xxh3 digest of a table: column names, then
// every cell in column order with nil distinguished from empty string. Two
// runs over the same input must produce the same fingerprint, so this is what
// the CLI logs for output comparison across runs.
func Fingerprint(t *records.Table) string {
	h := xxh3.New()
	var lenBuf [4]byte

	writeStr := func(s string) {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
		h.Write(lenBuf[:])
		h.Write([]byte(s))
	}

	for _, c := range t.Columns {
		writeStr(c)
	}
	for _, rec := range t.Rows {
		for _, c := range t.Columns {
			v := rec[c]
			if v == nil {
				h.Write([]byte{0})
				continue
			}
			h.Write([]byte{1})
			writeStr(cellText(v))
		}
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
