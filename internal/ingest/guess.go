package ingest

import (
	"strings"
	"unicode"

	"github.com/JonMunkholm/cruisecheck/internal/core"
)

// GuessColumn assigns a column type from header text. A header matches a
// type when, ignoring case and punctuation, it starts with the type's
// standard name or its catalog name. The longest match wins so that
// "xCO2_water_SST_dry" does not resolve to a shorter prefix. The type's
// standard unit is assumed. Headers matching nothing become UNKNOWN.
func GuessColumn(header string, catalog *core.Catalog) core.Column {
	key := headerKey(header)

	var (
		best    core.ColumnType
		bestLen int
	)
	for _, ct := range catalog.All() {
		if ct.Role == core.RoleUnknown {
			continue
		}
		for _, name := range []string{ct.StdName, ct.Name} {
			k := headerKey(name)
			if k == "" || !strings.HasPrefix(key, k) {
				continue
			}
			if len(k) > bestLen || (len(k) == bestLen && ct.Name < best.Name) {
				best, bestLen = ct, len(k)
			}
		}
	}

	if bestLen == 0 {
		unknown, _ := catalog.Lookup(core.TypeUnknown)
		return core.Column{Type: unknown, Header: header}
	}
	unit := ""
	if len(best.Units) > 0 {
		unit = best.Units[0]
	}
	return core.Column{Type: best, Header: header, Unit: unit}
}

// headerKey lowercases s and drops everything but letters and digits.
func headerKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
