package core

import "testing"

func TestFingerprint(t *testing.T) {
	base := Fingerprint(timestampDataset("2005-01-01 00:00:00", "2005-01-01 00:01:00"))
	if len(base) != 32 {
		t.Fatalf("fingerprint %q is not 128 bits of hex", base)
	}
	if again := Fingerprint(timestampDataset("2005-01-01 00:00:00", "2005-01-01 00:01:00")); again != base {
		t.Error("fingerprint is not deterministic")
	}

	changed := timestampDataset("2005-01-01 00:00:00", "2005-01-01 00:01:00")
	changed.Rows[1][3] = "12.6"
	if Fingerprint(changed) == base {
		t.Error("cell change did not change the fingerprint")
	}

	unit := timestampDataset("2005-01-01 00:00:00", "2005-01-01 00:01:00")
	unit.Columns[3].Unit = "degrees Fahrenheit"
	if Fingerprint(unit) == base {
		t.Error("unit change did not change the fingerprint")
	}

	// Cell boundaries are part of the hash.
	a := &Dataset{ID: "33RO20050101", Columns: []Column{col(TypeOther, "a", ""), col(TypeOther, "b", "")}, Rows: [][]string{{"ab", "c"}}}
	b := &Dataset{ID: "33RO20050101", Columns: []Column{col(TypeOther, "a", ""), col(TypeOther, "b", "")}, Rows: [][]string{{"a", "bc"}}}
	if Fingerprint(a) == Fingerprint(b) {
		t.Error("shifted cell boundary produced the same fingerprint")
	}
}
