package core

// catalog.go defines the registry of known semantic column types.
//
// Every column of an uploaded cruise is declared as one of these types. A type
// carries its role class (which decides how each pipeline stage treats the
// column), the unit strings a user may declare, and the index-aligned unit
// strings handed to the validation engine. The catalog is built once and never
// mutated, so it is shared freely between goroutines.

import (
	"fmt"
	"sort"
)

// RoleClass partitions column types by how the pipeline treats them.
type RoleClass int

const (
	RoleUnknown  RoleClass = iota // must be reclassified before checking
	RoleIdentity                  // expocode and names; never validated or rewritten
	RoleTemporal                  // date/time fields used to build a timestamp
	RoleMeasured                  // validated and standardized
	RoleFlag                      // user-supplied WOCE flags
	RoleOpaque                    // comments and other; skipped everywhere
)

func (r RoleClass) String() string {
	switch r {
	case RoleIdentity:
		return "identity"
	case RoleTemporal:
		return "temporal"
	case RoleMeasured:
		return "measured"
	case RoleFlag:
		return "flag"
	case RoleOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// TemporalField identifies which part of a date/time a temporal column holds.
type TemporalField int

const (
	FieldNone TemporalField = iota
	FieldTimestamp
	FieldDate
	FieldYear
	FieldMonth
	FieldDay
	FieldTime
	FieldHour
	FieldMinute
	FieldSecond
	FieldDayOfYear
	FieldSecondOfDay
)

var temporalFieldNames = map[TemporalField]string{
	FieldTimestamp:   "timestamp",
	FieldDate:        "date",
	FieldYear:        "year",
	FieldMonth:       "month",
	FieldDay:         "day",
	FieldTime:        "time",
	FieldHour:        "hour",
	FieldMinute:      "minute",
	FieldSecond:      "second",
	FieldDayOfYear:   "day_of_year",
	FieldSecondOfDay: "second_of_day",
}

func (f TemporalField) String() string {
	if name, ok := temporalFieldNames[f]; ok {
		return name
	}
	return "none"
}

// CO2Group ties a WOCE flag column to the measured columns it overrides.
type CO2Group int

const (
	GroupNone CO2Group = iota
	GroupWaterCO2
	GroupAtmCO2
)

// Column type names.
const (
	TypeUnknown    = "UNKNOWN"
	TypeExpocode   = "EXPOCODE"
	TypeCruiseName = "CRUISE_NAME"
	TypeShipName   = "SHIP_NAME"
	TypeGroupName  = "GROUP_NAME"

	TypeTimestamp   = "TIMESTAMP"
	TypeDate        = "DATE"
	TypeYear        = "YEAR"
	TypeMonth       = "MONTH"
	TypeDay         = "DAY"
	TypeTime        = "TIME"
	TypeHour        = "HOUR"
	TypeMinute      = "MINUTE"
	TypeSecond      = "SECOND"
	TypeDayOfYear   = "DAY_OF_YEAR"
	TypeSecondOfDay = "SECOND_OF_DAY"

	TypeLongitude       = "LONGITUDE"
	TypeLatitude        = "LATITUDE"
	TypeSampleDepth     = "SAMPLE_DEPTH"
	TypeSalinity        = "SALINITY"
	TypeEquTemperature  = "EQUILIBRATOR_TEMPERATURE"
	TypeSST             = "SEA_SURFACE_TEMPERATURE"
	TypeAtmTemperature  = "ATMOSPHERIC_TEMPERATURE"
	TypeEquPressure     = "EQUILIBRATOR_PRESSURE"
	TypeSeaLevelPress   = "SEA_LEVEL_PRESSURE"
	TypeXH2OEqu         = "XH2O_EQU"
	TypeXCO2WaterTEqDry = "XCO2_WATER_TEQU_DRY"
	TypeXCO2WaterSSTDry = "XCO2_WATER_SST_DRY"
	TypeXCO2WaterTEqWet = "XCO2_WATER_TEQU_WET"
	TypeXCO2WaterSSTWet = "XCO2_WATER_SST_WET"
	TypePCO2WaterTEqWet = "PCO2_WATER_TEQU_WET"
	TypePCO2WaterSSTWet = "PCO2_WATER_SST_WET"
	TypeFCO2WaterTEqWet = "FCO2_WATER_TEQU_WET"
	TypeFCO2WaterSSTWet = "FCO2_WATER_SST_WET"
	TypeXCO2AtmActual   = "XCO2_ATM_DRY_ACTUAL"
	TypeXCO2AtmInterp   = "XCO2_ATM_DRY_INTERP"
	TypePCO2AtmActual   = "PCO2_ATM_DRY_ACTUAL"
	TypePCO2AtmInterp   = "PCO2_ATM_DRY_INTERP"
	TypeFCO2AtmActual   = "FCO2_ATM_DRY_ACTUAL"
	TypeFCO2AtmInterp   = "FCO2_ATM_DRY_INTERP"
	TypeDeltaXCO2       = "DELTA_XCO2"
	TypeDeltaPCO2       = "DELTA_PCO2"
	TypeDeltaFCO2       = "DELTA_FCO2"
	TypeRelHumidity     = "RELATIVE_HUMIDITY"
	TypeSpecHumidity    = "SPECIFIC_HUMIDITY"
	TypeShipSpeed       = "SHIP_SPEED"
	TypeShipDirection   = "SHIP_DIRECTION"
	TypeWindSpeedTrue   = "WIND_SPEED_TRUE"
	TypeWindSpeedRel    = "WIND_SPEED_RELATIVE"
	TypeWindDirTrue     = "WIND_DIRECTION_TRUE"
	TypeWindDirRel      = "WIND_DIRECTION_RELATIVE"

	TypeWoceCO2Water        = "WOCE_CO2_WATER"
	TypeWoceCO2Atm          = "WOCE_CO2_ATM"
	TypeCommentWoceCO2Water = "COMMENT_WOCE_CO2_WATER"
	TypeCommentWoceCO2Atm   = "COMMENT_WOCE_CO2_ATM"
	TypeOther               = "OTHER"
)

// ColumnType describes one semantic column role. Values are immutable once
// placed in a Catalog.
type ColumnType struct {
	Name        string        // e.g. "SEA_SURFACE_TEMPERATURE"
	StdName     string        // canonical name used by the engine, e.g. "SST"
	Role        RoleClass     // how the pipeline treats the column
	Temporal    TemporalField // set only for RoleTemporal
	Group       CO2Group      // CO2 group for measured and flag columns
	Units       []string      // units a user may declare; first is the standard unit
	EngineUnits []string      // engine-facing unit for each entry of Units
}

// EngineUnitFor maps a declared unit to the engine-facing unit by position in
// the accepted-units list.
func (t ColumnType) EngineUnitFor(declared string) (string, error) {
	for i, u := range t.Units {
		if u == declared {
			return t.EngineUnits[i], nil
		}
	}
	return "", &UnitMappingError{Type: t.Name, Unit: declared, Accepted: t.Units}
}

// Catalog is a read-only lookup of column types by name.
type Catalog struct {
	types map[string]ColumnType
}

// NewCatalog builds a catalog, rejecting duplicate names and unit lists of
// different lengths.
func NewCatalog(types ...ColumnType) (*Catalog, error) {
	c := &Catalog{types: make(map[string]ColumnType, len(types))}
	for _, t := range types {
		if _, exists := c.types[t.Name]; exists {
			return nil, fmt.Errorf("column type already registered: %s", t.Name)
		}
		if len(t.Units) != len(t.EngineUnits) {
			return nil, fmt.Errorf("column type %s: %d units but %d engine units",
				t.Name, len(t.Units), len(t.EngineUnits))
		}
		if t.Role == RoleTemporal && t.Temporal == FieldNone {
			return nil, fmt.Errorf("column type %s: temporal role without temporal field", t.Name)
		}
		c.types[t.Name] = t
	}
	return c, nil
}

// Lookup returns the column type with the given name.
func (c *Catalog) Lookup(name string) (ColumnType, bool) {
	t, ok := c.types[name]
	return t, ok
}

// MustLookup is Lookup for names known at compile time.
func (c *Catalog) MustLookup(name string) ColumnType {
	t, ok := c.types[name]
	if !ok {
		panic(fmt.Sprintf("unknown column type: %s", name))
	}
	return t
}

// UnitsFor returns the ordered accepted units for a type, or nil if the type
// is not registered.
func (c *Catalog) UnitsFor(name string) []string {
	t, ok := c.types[name]
	if !ok {
		return nil
	}
	return append([]string(nil), t.Units...)
}

// EngineUnitFor returns the engine-facing unit for a declared unit of the named type.
func (c *Catalog) EngineUnitFor(name, declared string) (string, error) {
	t, ok := c.types[name]
	if !ok {
		return "", &UnitMappingError{Type: name, Unit: declared}
	}
	return t.EngineUnitFor(declared)
}

// All returns every registered type sorted by name.
func (c *Catalog) All() []ColumnType {
	result := make([]ColumnType, 0, len(c.types))
	for _, t := range c.types {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Len returns the number of registered types.
func (c *Catalog) Len() int {
	return len(c.types)
}

// Known unit lists. The engine-facing lists are index-aligned with these.
var (
	noUnits        = []string{""}
	timestampUnits = []string{"yyyy-mm-dd hh:mm:ss", "mm-dd-yyyy hh:mm:ss", "dd-mm-yyyy hh:mm:ss",
		"mm-dd-yy hh:mm:ss", "dd-mm-yy hh:mm:ss"}
	dateUnits      = []string{"yyyy-mm-dd", "mm-dd-yyyy", "dd-mm-yyyy", "mm-dd-yy", "dd-mm-yy"}
	timeUnits      = []string{"hh:mm:ss"}
	dayOfYearUnits = []string{"Jan1=1.0", "Jan1=0.0"}
	pressureUnits  = []string{"hPa", "kPa", "mmHg"}
	pco2Units      = []string{"uatm"}
	speedUnits     = []string{"knots", "km/h", "m/s", "mph"}
	windUnits      = []string{"m/s"}
	xh2oUnits      = []string{"mmol/mol", "umol/mol"}
)

func identity(name, std string) ColumnType {
	return ColumnType{Name: name, StdName: std, Role: RoleIdentity, Units: noUnits, EngineUnits: noUnits}
}

func temporal(name, std string, field TemporalField, units, engineUnits []string) ColumnType {
	return ColumnType{Name: name, StdName: std, Role: RoleTemporal, Temporal: field,
		Units: units, EngineUnits: engineUnits}
}

func measured(name, std string, group CO2Group, units, engineUnits []string) ColumnType {
	return ColumnType{Name: name, StdName: std, Role: RoleMeasured, Group: group,
		Units: units, EngineUnits: engineUnits}
}

func single(user, engine string) ([]string, []string) {
	return []string{user}, []string{engine}
}

func same(units []string) ([]string, []string) {
	return units, units
}

func timestampEngineUnits() []string {
	out := make([]string, len(timestampUnits))
	for i, u := range timestampUnits {
		// the engine only wants the date part of the format
		for j := 0; j < len(u); j++ {
			if u[j] == ' ' {
				u = u[:j]
				break
			}
		}
		out[i] = u
	}
	return out
}

func defaultTypes() []ColumnType {
	lonU, lonE := single("deg.E", "decimal_degrees")
	latU, latE := single("deg.N", "decimal_degrees")
	depU, depE := single("meters", "meters")
	salU, salE := single("PSU", "psu")
	tmpU, tmpE := single("deg.C", "degC")
	xco2U, xco2E := single("umol/mol", "ppm")
	dirU, dirE := single("deg.clk.N", "decimal_degrees")
	prU, prE := same(pressureUnits)
	pcU, pcE := same(pco2Units)
	spU, spE := same(speedUnits)
	wsU, wsE := same(windUnits)
	xhU, xhE := same(xh2oUnits)
	nU, nE := same(noUnits)

	return []ColumnType{
		{Name: TypeUnknown, StdName: "(unknown)", Role: RoleUnknown, Units: noUnits, EngineUnits: noUnits},
		identity(TypeExpocode, "expocode"),
		identity(TypeCruiseName, "cruise_name"),
		identity(TypeShipName, "ship_name"),
		identity(TypeGroupName, "group_name"),

		temporal(TypeTimestamp, "date_time", FieldTimestamp, timestampUnits, timestampEngineUnits()),
		temporal(TypeDate, "date", FieldDate, dateUnits, dateUnits),
		temporal(TypeYear, "year", FieldYear, nU, nE),
		temporal(TypeMonth, "month", FieldMonth, nU, nE),
		temporal(TypeDay, "day", FieldDay, nU, nE),
		temporal(TypeTime, "time", FieldTime, timeUnits, timeUnits),
		temporal(TypeHour, "hour", FieldHour, nU, nE),
		temporal(TypeMinute, "minute", FieldMinute, nU, nE),
		temporal(TypeSecond, "second", FieldSecond, nU, nE),
		temporal(TypeDayOfYear, "day_of_year", FieldDayOfYear, dayOfYearUnits, dayOfYearUnits),
		temporal(TypeSecondOfDay, "sec_of_day", FieldSecondOfDay, nU, nE),

		measured(TypeLongitude, "longitude", GroupNone, lonU, lonE),
		measured(TypeLatitude, "latitude", GroupNone, latU, latE),
		measured(TypeSampleDepth, "sample_depth", GroupNone, depU, depE),
		measured(TypeSalinity, "salinity", GroupNone, salU, salE),
		measured(TypeEquTemperature, "T_equ", GroupNone, tmpU, tmpE),
		measured(TypeSST, "SST", GroupNone, tmpU, tmpE),
		measured(TypeAtmTemperature, "Temperature_atm", GroupNone, tmpU, tmpE),
		measured(TypeEquPressure, "P_equ", GroupNone, prU, prE),
		measured(TypeSeaLevelPress, "Pressure_atm", GroupNone, prU, prE),
		measured(TypeXH2OEqu, "xH2O_equ", GroupNone, xhU, xhE),

		measured(TypeXCO2WaterTEqDry, "xCO2_water_Tequ_dry", GroupWaterCO2, xco2U, xco2E),
		measured(TypeXCO2WaterSSTDry, "xCO2_water_SST_dry", GroupWaterCO2, xco2U, xco2E),
		measured(TypeXCO2WaterTEqWet, "xCO2_water_Tequ_wet", GroupWaterCO2, xco2U, xco2E),
		measured(TypeXCO2WaterSSTWet, "xCO2_water_SST_wet", GroupWaterCO2, xco2U, xco2E),
		measured(TypePCO2WaterTEqWet, "pCO2_water_Tequ_wet", GroupWaterCO2, pcU, pcE),
		measured(TypePCO2WaterSSTWet, "pCO2_water_SST_wet", GroupWaterCO2, pcU, pcE),
		measured(TypeFCO2WaterTEqWet, "fCO2_water_Tequ_wet", GroupWaterCO2, pcU, pcE),
		measured(TypeFCO2WaterSSTWet, "fCO2_water_SST_wet", GroupWaterCO2, pcU, pcE),

		measured(TypeXCO2AtmActual, "xCO2_atm_dry_actual", GroupAtmCO2, xco2U, xco2E),
		measured(TypeXCO2AtmInterp, "xCO2_atm_dry_interp", GroupAtmCO2, xco2U, xco2E),
		measured(TypePCO2AtmActual, "pCO2_atm_dry_actual", GroupAtmCO2, pcU, pcE),
		measured(TypePCO2AtmInterp, "pCO2_atm_dry_interp", GroupAtmCO2, pcU, pcE),
		measured(TypeFCO2AtmActual, "fCO2_atm_dry_actual", GroupAtmCO2, pcU, pcE),
		measured(TypeFCO2AtmInterp, "fCO2_atm_dry_interp", GroupAtmCO2, pcU, pcE),

		measured(TypeDeltaXCO2, "delta_xCO2", GroupNone, xco2U, xco2E),
		measured(TypeDeltaPCO2, "delta_pCO2", GroupNone, pcU, pcE),
		measured(TypeDeltaFCO2, "delta_fCO2", GroupNone, pcU, pcE),

		measured(TypeRelHumidity, "relative_humidity", GroupNone, nU, nE),
		measured(TypeSpecHumidity, "specific_humidity", GroupNone, nU, nE),
		measured(TypeShipSpeed, "ship_speed", GroupNone, spU, spE),
		measured(TypeShipDirection, "ship_dir", GroupNone, dirU, dirE),
		measured(TypeWindSpeedTrue, "wind_speed_true", GroupNone, wsU, wsE),
		measured(TypeWindSpeedRel, "wind_speed_rel", GroupNone, wsU, wsE),
		measured(TypeWindDirTrue, "wind_dir_true", GroupNone, dirU, dirE),
		measured(TypeWindDirRel, "wind_dir_rel", GroupNone, dirU, dirE),

		{Name: TypeWoceCO2Water, StdName: "WOCE_CO2_water", Role: RoleFlag, Group: GroupWaterCO2,
			Units: noUnits, EngineUnits: noUnits},
		{Name: TypeWoceCO2Atm, StdName: "WOCE_CO2_atm", Role: RoleFlag, Group: GroupAtmCO2,
			Units: noUnits, EngineUnits: noUnits},
		{Name: TypeCommentWoceCO2Water, StdName: "comment_WOCE_CO2_water", Role: RoleOpaque,
			Units: noUnits, EngineUnits: noUnits},
		{Name: TypeCommentWoceCO2Atm, StdName: "comment_WOCE_CO2_atm", Role: RoleOpaque,
			Units: noUnits, EngineUnits: noUnits},
		{Name: TypeOther, StdName: "other", Role: RoleOpaque, Units: noUnits, EngineUnits: noUnits},
	}
}

// DefaultCatalog holds the SOCAT column types. It is built at package init and
// never modified.
var DefaultCatalog = mustCatalog(defaultTypes())

func mustCatalog(types []ColumnType) *Catalog {
	c, err := NewCatalog(types...)
	if err != nil {
		panic(err)
	}
	return c
}
