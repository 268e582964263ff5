package core

import (
	"errors"
	"testing"
)

// col declares a column of the default catalog, using the type's standard
// unit when unit is empty.
func col(typeName, header, unit string) Column {
	ct := DefaultCatalog.MustLookup(typeName)
	if unit == "" {
		unit = ct.Units[0]
	}
	return Column{Type: ct, Header: header, Unit: unit}
}

// timestampDataset has a timestamp, position and SST, one row per timestamp.
func timestampDataset(times ...string) *Dataset {
	d := &Dataset{
		ID: "33RO20050101",
		Columns: []Column{
			col(TypeTimestamp, "date_time", ""),
			col(TypeLongitude, "lon", ""),
			col(TypeLatitude, "lat", ""),
			col(TypeSST, "SST", ""),
		},
	}
	for _, ts := range times {
		d.Rows = append(d.Rows, []string{ts, "10.0", "50.0", "12.5"})
	}
	return d
}

func TestNormalizeDatasetID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"33RO20050101", "33RO20050101", false},
		{"  33ro20050101 ", "33RO20050101", false},
		{"49P1-2010-0101", "49P1-2010-0101", false},
		{"33RO2005010", "", true},      // 11 chars
		{"33RO200501011234", "", true}, // 16 chars
		{"33RO_20050101", "", true},    // underscore
		{"../etc/passwd00", "", true},  // path characters
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeDatasetID(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDatasetID) {
					t.Errorf("err = %v, want ErrInvalidDatasetID", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NormalizeDatasetID = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDataset_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		if err := timestampDataset("2005-01-01 00:00:00").Validate(); err != nil {
			t.Errorf("Validate: %v", err)
		}
	})

	t.Run("ragged row", func(t *testing.T) {
		d := timestampDataset("2005-01-01 00:00:00")
		d.Rows = append(d.Rows, []string{"2005-01-01 00:01:00"})
		var se *StructuralError
		if err := d.Validate(); !errors.As(err, &se) {
			t.Errorf("err = %v, want *StructuralError", err)
		}
	})

	t.Run("no columns", func(t *testing.T) {
		d := &Dataset{ID: "33RO20050101"}
		var se *StructuralError
		if err := d.Validate(); !errors.As(err, &se) {
			t.Errorf("err = %v, want *StructuralError", err)
		}
	})

	t.Run("bad id", func(t *testing.T) {
		d := timestampDataset()
		d.ID = "nope"
		if err := d.Validate(); !errors.Is(err, ErrInvalidDatasetID) {
			t.Errorf("err = %v, want ErrInvalidDatasetID", err)
		}
	})
}

func TestBuildColumnIndices(t *testing.T) {
	d := timestampDataset()
	d.Columns = append(d.Columns, col(TypeSST, "SST2", ""))
	idx := BuildColumnIndices(d)

	if i, ok := idx.Index(TypeSST); !ok || i != 3 {
		t.Errorf("Index(SST) = %d, %v; want first SST column 3", i, ok)
	}
	if !idx.Has(TypeLongitude) || idx.Has(TypeSalinity) {
		t.Error("Has reported wrong membership")
	}
	if names := d.TypeNames(); len(names) != 5 || names[0] != TypeTimestamp {
		t.Errorf("TypeNames = %v", names)
	}
}
