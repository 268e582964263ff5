package core

import (
	"encoding/hex"

	"github.com/spaolacci/murmur3"
)

const (
	unitSep   = 0x1f
	recordSep = 0x1e
)

// Fingerprint hashes the declared column types, units and every cell of d.
// Two submissions with equal fingerprints carry the same data, so the run
// history can tell a resubmission of unchanged data from a corrected one.
func Fingerprint(d *Dataset) string {
	h := murmur3.New128()
	field := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{unitSep})
	}
	for _, c := range d.Columns {
		field(c.Type.Name)
		field(c.Unit)
	}
	h.Write([]byte{recordSep})
	for _, row := range d.Rows {
		for _, cell := range row {
			field(cell)
		}
		h.Write([]byte{recordSep})
	}
	return hex.EncodeToString(h.Sum(nil))
}
