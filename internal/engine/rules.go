package engine

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// Range is a closed interval of canonical values.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Contains reports whether v lies within the range.
func (r *Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Conversion turns a value in a declared unit into the canonical unit.
type Conversion struct {
	Factor float64 `yaml:"factor"`
	Offset float64 `yaml:"offset,omitempty"`
}

// Apply converts v.
func (c Conversion) Apply(v float64) float64 {
	return v*c.Factor + c.Offset
}

// ColumnRule holds the checks for one canonical column.
type ColumnRule struct {
	Name     string                `yaml:"name"`
	Required bool                  `yaml:"required,omitempty"`
	Expected *Range                `yaml:"expected,omitempty"`
	Extreme  *Range                `yaml:"extreme,omitempty"`
	Convert  map[string]Conversion `yaml:"convert,omitempty"`
	Constant bool                  `yaml:"constant,omitempty"`
	Jump     bool                  `yaml:"jump,omitempty"`
}

// SpeedRule bounds the ship speed computed from consecutive positions.
type SpeedRule struct {
	WarnKnots  float64 `yaml:"warn_knots"`
	ErrorKnots float64 `yaml:"error_knots"`
}

// GapRule bounds the time between consecutive rows.
type GapRule struct {
	WarnDays float64 `yaml:"warn_days"`
}

// ConstantRule flags runs of identical values.
type ConstantRule struct {
	MinRows int `yaml:"min_rows"`
}

// JumpRule flags changes far from the mean change.
type JumpRule struct {
	Sigma   float64 `yaml:"sigma"`
	MinRows int     `yaml:"min_rows"`
}

// Rules is the full checker configuration.
type Rules struct {
	Version  string       `yaml:"version"`
	Speed    SpeedRule    `yaml:"speed"`
	Gap      GapRule      `yaml:"gap"`
	Constant ConstantRule `yaml:"constant"`
	Jump     JumpRule     `yaml:"jump"`
	Columns  []ColumnRule `yaml:"columns"`

	byName map[string]*ColumnRule
}

// Column returns the rule for a canonical column name.
func (r *Rules) Column(name string) (*ColumnRule, bool) {
	rule, ok := r.byName[name]
	return rule, ok
}

// ParseRules decodes and validates a YAML rule set.
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// LoadRules reads rules from path, or returns the built-in rules when path is empty.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(data)
}

// DefaultRules returns the built-in rules.
func DefaultRules() (*Rules, error) {
	return ParseRules(defaultRules)
}

func (r *Rules) validate() error {
	var errs []error
	if r.Speed.WarnKnots > 0 && r.Speed.ErrorKnots > 0 && r.Speed.WarnKnots > r.Speed.ErrorKnots {
		errs = append(errs, fmt.Errorf("speed: warn_knots %g exceeds error_knots %g",
			r.Speed.WarnKnots, r.Speed.ErrorKnots))
	}
	if r.Jump.Sigma < 0 {
		errs = append(errs, fmt.Errorf("jump: negative sigma %g", r.Jump.Sigma))
	}

	r.byName = make(map[string]*ColumnRule, len(r.Columns))
	for i := range r.Columns {
		c := &r.Columns[i]
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("columns[%d]: name is required", i))
			continue
		}
		if _, dup := r.byName[c.Name]; dup {
			errs = append(errs, fmt.Errorf("columns[%d]: duplicate rule for %s", i, c.Name))
			continue
		}
		for _, rg := range []*Range{c.Expected, c.Extreme} {
			if rg != nil && rg.Min > rg.Max {
				errs = append(errs, fmt.Errorf("%s: range min %g exceeds max %g", c.Name, rg.Min, rg.Max))
			}
		}
		for unit, conv := range c.Convert {
			if conv.Factor == 0 {
				errs = append(errs, fmt.Errorf("%s: zero conversion factor for %s", c.Name, unit))
			}
		}
		r.byName[c.Name] = c
	}
	return errors.Join(errs...)
}
