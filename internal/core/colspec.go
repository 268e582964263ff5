package core

// colspec.go builds the declarative column specification handed to the
// validation engine.

import (
	"strconv"

	"gopkg.in/yaml.v3"
)

// TemporalSlot places one temporal column in the strategy's reconstruction.
type TemporalSlot struct {
	Field    TemporalField `yaml:"-"`
	Role     string        `yaml:"role"`
	Column   int           `yaml:"column"` // 1-based
	Header   string        `yaml:"header"`
	Unit     string        `yaml:"unit,omitempty"`
	Missing  string        `yaml:"missing,omitempty"`
	JanFirst *int          `yaml:"jan1_index,omitempty"` // day-of-year only
}

// SpecColumn is a measured column sent for validation.
type SpecColumn struct {
	Column  int    `yaml:"column"` // 1-based
	Header  string `yaml:"header"`
	Unit    string `yaml:"unit"`
	Missing string `yaml:"missing,omitempty"`
	StdName string `yaml:"name"`
	// Key names the column's standardized values. It is StdName for the
	// first column of a type and StdName_<n> for the n-th repeat.
	Key string `yaml:"key"`
}

// SpecDocument describes a dataset to the validation engine.
type SpecDocument struct {
	DatasetID string           `yaml:"dataset"`
	Strategy  TemporalStrategy `yaml:"-"`
	Layout    string           `yaml:"date_time_layout"`
	Temporal  []TemporalSlot   `yaml:"temporal"`
	Columns   []SpecColumn     `yaml:"columns"`
}

// Slot returns the temporal slot for a field.
func (s *SpecDocument) Slot(f TemporalField) (TemporalSlot, bool) {
	for _, slot := range s.Temporal {
		if slot.Field == f {
			return slot, true
		}
	}
	return TemporalSlot{}, false
}

// ColumnByName returns the measured column with the given canonical name.
func (s *SpecDocument) ColumnByName(stdName string) (SpecColumn, bool) {
	for _, c := range s.Columns {
		if c.StdName == stdName {
			return c, true
		}
	}
	return SpecColumn{}, false
}

// Marshal renders the document as YAML for logging and preview.
func (s *SpecDocument) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// BuildSpec builds the engine specification for a dataset under the given
// strategy. Identity, flag and opaque columns are omitted, as are temporal
// columns the strategy does not read.
func BuildSpec(d *Dataset, strategy TemporalStrategy) (*SpecDocument, error) {
	for i, c := range d.Columns {
		if c.Type.Role == RoleUnknown {
			return nil, &UnclassifiedColumnError{Column: i + 1, Header: c.Header}
		}
	}

	doc := &SpecDocument{
		DatasetID: d.ID,
		Strategy:  strategy,
		Layout:    strategy.String(),
	}
	used := make(map[TemporalField]bool)
	keys := measuredKeys(d)

	for i, c := range d.Columns {
		switch c.Type.Role {
		case RoleTemporal:
			if !strategy.Uses(c.Type.Temporal) || used[c.Type.Temporal] {
				continue
			}
			unit, err := c.Type.EngineUnitFor(c.Unit)
			if err != nil {
				return nil, withColumn(err, i+1)
			}
			slot := TemporalSlot{
				Field:   c.Type.Temporal,
				Role:    c.Type.Temporal.String(),
				Column:  i + 1,
				Header:  c.Header,
				Unit:    unit,
				Missing: c.Missing,
			}
			if c.Type.Temporal == FieldDayOfYear {
				jan := janFirstIndex(c.Unit)
				slot.JanFirst = &jan
			}
			used[c.Type.Temporal] = true
			doc.Temporal = append(doc.Temporal, slot)

		case RoleMeasured:
			unit, err := c.Type.EngineUnitFor(c.Unit)
			if err != nil {
				return nil, withColumn(err, i+1)
			}
			doc.Columns = append(doc.Columns, SpecColumn{
				Column:  i + 1,
				Header:  c.Header,
				Unit:    unit,
				Missing: c.Missing,
				StdName: c.Type.StdName,
				Key:     keys[i],
			})
		}
	}
	return doc, nil
}

// measuredKeys returns the standardized value key of every measured column,
// indexed like d.Columns. Other columns get an empty key.
func measuredKeys(d *Dataset) []string {
	keys := make([]string, len(d.Columns))
	seen := make(map[string]int)
	for i, c := range d.Columns {
		if c.Type.Role != RoleMeasured {
			continue
		}
		name := c.Type.StdName
		seen[name]++
		if n := seen[name]; n > 1 {
			keys[i] = name + "_" + strconv.Itoa(n)
		} else {
			keys[i] = name
		}
	}
	return keys
}

// janFirstIndex reads the day number of January 1 from a day-of-year unit.
func janFirstIndex(unit string) int {
	if unit == "Jan1=0.0" {
		return 0
	}
	return 1
}

func withColumn(err error, column int) error {
	if um, ok := err.(*UnitMappingError); ok {
		um.Column = column
	}
	return err
}
