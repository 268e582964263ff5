package core

import (
	"errors"
	"sort"
	"testing"
)

func TestDefaultCatalog_Lookup(t *testing.T) {
	tests := []struct {
		name     string
		wantRole RoleClass
		wantStd  string
	}{
		{TypeExpocode, RoleIdentity, "expocode"},
		{TypeTimestamp, RoleTemporal, "date_time"},
		{TypeDayOfYear, RoleTemporal, "day_of_year"},
		{TypeSST, RoleMeasured, "SST"},
		{TypeXCO2WaterSSTDry, RoleMeasured, "xCO2_water_SST_dry"},
		{TypeWoceCO2Water, RoleFlag, "WOCE_CO2_water"},
		{TypeOther, RoleOpaque, "other"},
		{TypeUnknown, RoleUnknown, "(unknown)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, ok := DefaultCatalog.Lookup(tt.name)
			if !ok {
				t.Fatalf("Lookup(%s) not found", tt.name)
			}
			if ct.Role != tt.wantRole {
				t.Errorf("Role = %v, want %v", ct.Role, tt.wantRole)
			}
			if ct.StdName != tt.wantStd {
				t.Errorf("StdName = %q, want %q", ct.StdName, tt.wantStd)
			}
			if len(ct.Units) == 0 || len(ct.Units) != len(ct.EngineUnits) {
				t.Errorf("units %v / engine units %v", ct.Units, ct.EngineUnits)
			}
		})
	}

	if _, ok := DefaultCatalog.Lookup("NOT_A_TYPE"); ok {
		t.Error("Lookup of unknown name should fail")
	}
}

func TestCatalog_EngineUnitFor(t *testing.T) {
	tests := []struct {
		typeName string
		declared string
		want     string
		wantErr  bool
	}{
		{TypeTimestamp, "yyyy-mm-dd hh:mm:ss", "yyyy-mm-dd", false},
		{TypeTimestamp, "dd-mm-yy hh:mm:ss", "dd-mm-yy", false},
		{TypeLongitude, "deg.E", "decimal_degrees", false},
		{TypeXCO2AtmActual, "umol/mol", "ppm", false},
		{TypeSeaLevelPress, "kPa", "kPa", false},
		{TypeSalinity, "ppt", "", true},
		{"NOT_A_TYPE", "x", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.typeName+"/"+tt.declared, func(t *testing.T) {
			got, err := DefaultCatalog.EngineUnitFor(tt.typeName, tt.declared)
			if tt.wantErr {
				var um *UnitMappingError
				if !errors.As(err, &um) {
					t.Fatalf("err = %v, want *UnitMappingError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("EngineUnitFor = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCatalog_UnitsForIsCopy(t *testing.T) {
	units := DefaultCatalog.UnitsFor(TypeShipSpeed)
	if len(units) != 4 || units[0] != "knots" {
		t.Fatalf("UnitsFor = %v", units)
	}
	units[0] = "furlongs/fortnight"
	if DefaultCatalog.UnitsFor(TypeShipSpeed)[0] != "knots" {
		t.Error("UnitsFor exposed the catalog's slice")
	}
	if DefaultCatalog.UnitsFor("NOT_A_TYPE") != nil {
		t.Error("UnitsFor unknown type should be nil")
	}
}

func TestCatalog_AllSorted(t *testing.T) {
	all := DefaultCatalog.All()
	if len(all) != DefaultCatalog.Len() {
		t.Fatalf("All returned %d types, Len = %d", len(all), DefaultCatalog.Len())
	}
	if !sort.SliceIsSorted(all, func(i, j int) bool { return all[i].Name < all[j].Name }) {
		t.Error("All is not sorted by name")
	}
}

func TestNewCatalog_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		types []ColumnType
	}{
		{
			name: "duplicate name",
			types: []ColumnType{
				identity("A", "a"),
				identity("A", "a2"),
			},
		},
		{
			name: "unit lists differ",
			types: []ColumnType{
				{Name: "B", Role: RoleMeasured, Units: []string{"x", "y"}, EngineUnits: []string{"x"}},
			},
		},
		{
			name: "temporal without field",
			types: []ColumnType{
				{Name: "C", Role: RoleTemporal, Units: noUnits, EngineUnits: noUnits},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCatalog(tt.types...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCatalog_MustLookupPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustLookup of unknown type should panic")
		}
	}()
	DefaultCatalog.MustLookup("NOT_A_TYPE")
}
