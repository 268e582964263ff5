package core

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var temporalTypeNames = []string{
	TypeTimestamp, TypeDate, TypeYear, TypeMonth, TypeDay, TypeTime,
	TypeHour, TypeMinute, TypeSecond, TypeDayOfYear, TypeSecondOfDay,
}

func typesOf(names ...string) []ColumnType {
	types := make([]ColumnType, len(names))
	for i, n := range names {
		types[i] = DefaultCatalog.MustLookup(n)
	}
	return types
}

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		name  string
		types []string
		want  TemporalStrategy
	}{
		{"ymd hms", []string{TypeYear, TypeMonth, TypeDay, TypeHour, TypeMinute, TypeSecond}, StrategyYMDHMS},
		{"ymd hm without second", []string{TypeYear, TypeMonth, TypeDay, TypeHour, TypeMinute}, StrategyYMDHMS},
		{"ymd hms beats timestamp", []string{TypeTimestamp, TypeYear, TypeMonth, TypeDay, TypeHour, TypeMinute}, StrategyYMDHMS},
		{"ymd time", []string{TypeYear, TypeMonth, TypeDay, TypeTime}, StrategyYMDTime},
		{"year day second", []string{TypeYear, TypeDayOfYear, TypeSecondOfDay}, StrategyYearDaySecond},
		{"year decimal day", []string{TypeYear, TypeDayOfYear}, StrategyYearDecimalDay},
		{"date time", []string{TypeDate, TypeTime}, StrategyDateTime},
		{"date time beats timestamp", []string{TypeTimestamp, TypeDate, TypeTime}, StrategyDateTime},
		{"timestamp", []string{TypeTimestamp, TypeLongitude}, StrategyTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectStrategy(typesOf(tt.types...))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("SelectStrategy = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectStrategy_Missing(t *testing.T) {
	tests := []struct {
		name        string
		types       []string
		wantPresent []string
	}{
		{"no temporal columns", []string{TypeLongitude, TypeLatitude}, []string{}},
		{"date only", []string{TypeDate}, []string{"date"}},
		{"ymd without time", []string{TypeDay, TypeYear, TypeMonth}, []string{"day", "month", "year"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectStrategy(typesOf(tt.types...))
			if got != StrategyNone {
				t.Errorf("strategy = %v, want NONE", got)
			}
			var mt *MissingTemporalSpecError
			if !errors.As(err, &mt) {
				t.Fatalf("err = %v, want *MissingTemporalSpecError", err)
			}
			if len(mt.Present) != len(tt.wantPresent) {
				t.Fatalf("Present = %v, want %v", mt.Present, tt.wantPresent)
			}
			for i := range mt.Present {
				if mt.Present[i] != tt.wantPresent[i] {
					t.Errorf("Present = %v, want %v", mt.Present, tt.wantPresent)
				}
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	for s := range strategyNames {
		got, ok := ParseStrategy(s.String())
		if !ok || got != s {
			t.Errorf("ParseStrategy(%q) = %v, %v", s.String(), got, ok)
		}
	}
	if _, ok := ParseStrategy("SUNDIAL"); ok {
		t.Error("ParseStrategy accepted an unknown name")
	}
}

func TestProperty_StrategySelection(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	subset := func(mask int) []ColumnType {
		var names []string
		for i, n := range temporalTypeNames {
			if mask&(1<<i) != 0 {
				names = append(names, n)
			}
		}
		return typesOf(names...)
	}

	// Property: the selected strategy depends only on which fields are present
	properties.Property("selection ignores column order", prop.ForAll(
		func(mask int, seed int64) bool {
			types := subset(mask)
			want, wantErr := SelectStrategy(types)

			shuffled := append([]ColumnType(nil), types...)
			rand.New(rand.NewSource(seed)).Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})
			got, gotErr := SelectStrategy(shuffled)
			return got == want && (gotErr == nil) == (wantErr == nil)
		},
		gen.IntRange(0, 1<<len(temporalTypeNames)-1),
		gen.Int64(),
	))

	// Property: a selected strategy only reads fields that are present
	properties.Property("selected strategy's required fields are present", prop.ForAll(
		func(mask int) bool {
			types := subset(mask)
			s, err := SelectStrategy(types)
			if err != nil {
				return s == StrategyNone
			}
			present := make(map[TemporalField]bool)
			for _, ct := range types {
				present[ct.Temporal] = true
			}
			for _, f := range s.Fields() {
				if f == FieldSecond && s == StrategyYMDHMS {
					continue
				}
				if !present[f] {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 1<<len(temporalTypeNames)-1),
	))

	properties.TestingRun(t)
}
