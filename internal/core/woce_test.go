package core

import (
	"errors"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// waterDataset has two water-CO2 columns, an atmospheric one and a WOCE
// water flag column.
func waterDataset(rows int) *Dataset {
	d := &Dataset{
		ID: "33RO20050101",
		Columns: []Column{
			col(TypeTimestamp, "date_time", ""),
			col(TypeLongitude, "lon", ""),
			col(TypeLatitude, "lat", ""),
			col(TypeXCO2WaterSSTDry, "xco2", ""),
			col(TypeFCO2WaterSSTWet, "fco2", ""),
			col(TypeXCO2AtmActual, "xco2_atm", ""),
			col(TypeWoceCO2Water, "WOCE_water", ""),
		},
	}
	for i := 0; i < rows; i++ {
		d.Rows = append(d.Rows, []string{"2005-01-01 00:00:00", "10", "50", "380", "370", "390", "2"})
	}
	return d
}

func msg(sev Severity, row, column int) Message {
	return NewMessage(sev, CategoryRange, row, column, "outside expected range")
}

func TestAssignFlags_UserWoceOverrides(t *testing.T) {
	d := waterDataset(6)
	d.Rows[4][6] = "3"
	d.Rows[1][6] = "4"

	a, err := AssignFlags(nil, d, BuildColumnIndices(d))
	if err != nil {
		t.Fatalf("AssignFlags: %v", err)
	}

	for _, c := range []int{3, 4} {
		if !a.Flags[c].Soft.Has(4) {
			t.Errorf("column %d soft flags = %v, want row 4", c, a.Flags[c].Soft.Sorted())
		}
		if !a.Flags[c].Hard.Has(1) {
			t.Errorf("column %d hard flags = %v, want row 1", c, a.Flags[c].Hard.Sorted())
		}
	}
	if a.Flags[5].Soft.Len() != 0 || a.Flags[5].Hard.Len() != 0 {
		t.Error("atmospheric column must not take water flags")
	}
	if !a.UserSoft.Has(4) || !a.UserHard.Has(1) {
		t.Errorf("user sets = %v / %v", a.UserHard.Sorted(), a.UserSoft.Sorted())
	}
	if a.ErrorRows != 1 || a.WarningRows != 1 {
		t.Errorf("ErrorRows = %d, WarningRows = %d", a.ErrorRows, a.WarningRows)
	}
}

func TestAssignFlags_HardWins(t *testing.T) {
	d := waterDataset(3)
	msgs := []Message{
		msg(SeverityWarning, 2, 4),
		msg(SeverityError, 2, 4),
		msg(SeverityWarning, 3, 4),
	}
	d.Rows[2][6] = "4" // user hard flag beats the engine warning

	a, err := AssignFlags(msgs, d, BuildColumnIndices(d))
	if err != nil {
		t.Fatalf("AssignFlags: %v", err)
	}
	fs := a.Flags[3]
	if !fs.Hard.Has(1) || fs.Soft.Has(1) {
		t.Errorf("row 1: hard %v soft %v", fs.Hard.Sorted(), fs.Soft.Sorted())
	}
	if !fs.Hard.Has(2) || fs.Soft.Has(2) {
		t.Errorf("row 2: hard %v soft %v", fs.Hard.Sorted(), fs.Soft.Sorted())
	}
	if a.ErrorRows != 2 || a.WarningRows != 0 {
		t.Errorf("ErrorRows = %d, WarningRows = %d", a.ErrorRows, a.WarningRows)
	}
}

func TestAssignFlags_ColumnlessFanOut(t *testing.T) {
	d := &Dataset{
		ID: "33RO20050101",
		Columns: []Column{
			col(TypeYear, "yr", ""),
			col(TypeDayOfYear, "doy", ""),
			col(TypeSecondOfDay, "sec", ""),
			col(TypeLongitude, "lon", ""),
			col(TypeLatitude, "lat", ""),
		},
		Rows: [][]string{{"2005", "1", "0", "10", "50"}, {"2005", "1", "60", "10", "50"}},
	}

	msgs := []Message{
		msg(SeverityError, 2, 0),
		msg(SeverityWarning, 1, 0),
		NewMessage(SeverityError, CategoryMetadata, 0, 0, "cruise name missing"),
	}
	a, err := AssignFlags(msgs, d, BuildColumnIndices(d))
	if err != nil {
		t.Fatalf("AssignFlags: %v", err)
	}

	// YEAR and DAY_OF_YEAR take column-less flags; SECOND_OF_DAY does not.
	for _, c := range []int{0, 1} {
		if !a.Flags[c].Hard.Has(1) || !a.Flags[c].Soft.Has(0) {
			t.Errorf("column %d flags: hard %v soft %v", c, a.Flags[c].Hard.Sorted(), a.Flags[c].Soft.Sorted())
		}
	}
	if a.Flags[2].Hard.Len() != 0 || a.Flags[3].Hard.Len() != 0 {
		t.Error("column-less flags reached a column outside the fan-out set")
	}
	if !a.NoColumnHard.Has(1) || !a.NoColumnSoft.Has(0) {
		t.Errorf("no-column sets = %v / %v", a.NoColumnHard.Sorted(), a.NoColumnSoft.Sorted())
	}
	if !a.GeopositionError {
		t.Error("a hard flag on a temporal column is a geoposition error")
	}
}

func TestAssignFlags_Geoposition(t *testing.T) {
	tests := []struct {
		name string
		d    *Dataset
		msgs []Message
		want bool
	}{
		{"clean", waterDataset(2), nil, false},
		{"latitude error", waterDataset(2), []Message{msg(SeverityError, 1, 3)}, true},
		{"latitude warning", waterDataset(2), []Message{msg(SeverityWarning, 1, 3)}, false},
		{"measured error", waterDataset(2), []Message{msg(SeverityError, 1, 4)}, false},
		{"no position columns", &Dataset{
			ID:      "33RO20050101",
			Columns: []Column{col(TypeTimestamp, "t", "")},
			Rows:    [][]string{{"2005-01-01 00:00:00"}},
		}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := AssignFlags(tt.msgs, tt.d, BuildColumnIndices(tt.d))
			if err != nil {
				t.Fatalf("AssignFlags: %v", err)
			}
			if a.GeopositionError != tt.want {
				t.Errorf("GeopositionError = %v, want %v", a.GeopositionError, tt.want)
			}
		})
	}
}

func TestAssignFlags_IndexRange(t *testing.T) {
	d := waterDataset(2)
	tests := []Message{
		msg(SeverityError, 3, 1),
		msg(SeverityError, -1, 1),
		msg(SeverityError, 1, 8),
	}
	for _, m := range tests {
		_, err := AssignFlags([]Message{m}, d, BuildColumnIndices(d))
		var ir *IndexRangeError
		if !errors.As(err, &ir) {
			t.Errorf("row %d col %d: err = %v, want *IndexRangeError", m.Row, m.Column, err)
		}
	}
}

func TestAssignFlags_IgnoresUnknownSeverity(t *testing.T) {
	d := waterDataset(2)
	a, err := AssignFlags([]Message{msg(SeverityUnknown, 1, 4)}, d, BuildColumnIndices(d))
	if err != nil {
		t.Fatalf("AssignFlags: %v", err)
	}
	if a.Flags[3].Hard.Len()+a.Flags[3].Soft.Len() != 0 {
		t.Error("unknown severity produced a flag")
	}
	if got := DeriveStatus(a); got.Kind != StatusAcceptable {
		t.Errorf("status = %v", got)
	}
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		a    *Assignment
		want string
	}{
		{nil, "Unacceptable"},
		{&Assignment{ErrorRows: 3, WarningRows: 2}, "3 errors"},
		{&Assignment{WarningRows: 2}, "2 warnings"},
		{&Assignment{}, "No warnings"},
	}
	for _, tt := range tests {
		got := DeriveStatus(tt.a).String()
		if got != tt.want {
			t.Errorf("DeriveStatus = %q, want %q", got, tt.want)
		}
	}
	text, _ := DeriveStatus(&Assignment{ErrorRows: 1}).MarshalText()
	if string(text) != "1 errors" {
		t.Errorf("MarshalText = %q", text)
	}
}

func TestProperty_FlagSetsDisjoint(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	const numRows = 8
	genMsg := gen.Struct(reflectMessageSpec, map[string]gopter.Gen{
		"Severity": gen.OneConstOf(SeverityWarning, SeverityError, SeverityUnknown),
		"Row":      gen.IntRange(0, numRows),
		"Column":   gen.IntRange(0, 7),
	})

	properties.Property("hard and soft flags never share a cell", prop.ForAll(
		func(specs []messageSpec, userFlags []string) bool {
			d := waterDataset(numRows)
			for i, f := range userFlags {
				if i < numRows {
					d.Rows[i][6] = f
				}
			}
			msgs := make([]Message, len(specs))
			for i, s := range specs {
				msgs[i] = msg(s.Severity, s.Row, s.Column)
			}

			a, err := AssignFlags(msgs, d, BuildColumnIndices(d))
			if err != nil {
				return false
			}
			for _, fs := range a.Flags {
				for row := range fs.Hard {
					if fs.Soft.Has(row) {
						return false
					}
				}
			}
			for row := range a.UserHard {
				if a.UserSoft.Has(row) {
					return false
				}
			}
			return a.ErrorRows+a.WarningRows <= numRows
		},
		gen.SliceOf(genMsg),
		gen.SliceOfN(numRows, gen.OneConstOf("2", "3", "4", "")),
	))

	properties.TestingRun(t)
}

type messageSpec struct {
	Severity Severity
	Row      int
	Column   int
}

var reflectMessageSpec = reflect.TypeOf(messageSpec{})
