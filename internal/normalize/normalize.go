// internal/normalize/normalize.go
package normalize

import "strings"

type alias struct {
	from string
	to   string
}

// Alias tables are slices so that the authored order is kept; the
// generation substring pass depends on it.
var seriesAliases = []alias{
	// Metal Fight
	{"Metal Fight Beyblade", "Metal Fight"},
	{"Metal Fight", "Metal Fight"},
	{"MFB", "Metal Fight"},

	// Beyblade Burst
	{"Beyblade Burst", "Beyblade Burst"},
	{"Burst", "Beyblade Burst"},

	// Beyblade X
	{"Beyblade X", "Beyblade X"},
	{"BX", "Beyblade X"},

	// Original
	{"Original", "Original"},
	{"Bakuten Shoot Beyblade", "Original"},
}

var generationAliases = []alias{
	// SpeedStorm / Surge
	{"Speedstorm", "SpeedStorm"},
	{"SpeedStorm", "SpeedStorm"},
	{"SpeedStorm System", "SpeedStorm"},
	{"Beyblade Burst Surge (SpeedStorm)", "SpeedStorm"},
	{"Beyblade Burst Surge(SpeedStorm)", "SpeedStorm"},
	{"Surge", "SpeedStorm"},
	{"Surge System", "SpeedStorm"},

	// QuadStrike
	{"QuadStrike", "QuadStrike"},
	{"QuadStrike System", "QuadStrike"},
	{"Quad Strike", "QuadStrike"},

	// QuadDrive
	{"QuadDrive", "QuadDrive"},
	{"QuadDrive System", "QuadDrive"},
	{"Quad Drive", "QuadDrive"},

	// Dynamite Battle
	{"Dynamite Battle", "Dynamite Battle"},
	{"DB", "Dynamite Battle"},

	// Superking / Sparking
	{"Superking", "Superking"},
	{"Sparking", "Superking"},
	{"Super King", "Superking"},

	// Burst, other generations
	{"GT", "GT"},
	{"Gachi", "GT"},
	{"Cho-Z", "Cho-Z"},
	{"Cho Z", "Cho-Z"},
	{"Turbo", "Turbo"},
	{"God", "God"},
	{"Evolution", "Evolution"},
	{"Single Layer", "Single Layer"},
	{"Dual Layer", "Dual Layer"},

	// Metal Fight
	{"Hybrid Wheel System", "Hybrid Wheel System"},
	{"HWS", "Hybrid Wheel System"},
	{"4D System", "4D System"},
	{"4D", "4D System"},
	{"Metal Fury", "Metal Fury"},
	{"Metal Masters", "Metal Masters"},
	{"Metal Fusion", "Metal Fusion"},
	{"Maximum Series", "Maximum Series"},

	// Beyblade X
	{"Basic Line", "Basic Line"},
	{"UX System", "UX System"},
	{"UX", "UX System"},
	{"Xtreme Gear Sports", "Xtreme Gear Sports"},
	{"XGS", "Xtreme Gear Sports"},
}

var (
	seriesExact     = exactIndex(seriesAliases)
	generationExact = exactIndex(generationAliases)
)

func exactIndex(aliases []alias) map[string]string {
	index := make(map[string]string, len(aliases))
	for _, a := range aliases {
		if _, exists := index[a.from]; !exists {
			index[a.from] = a.to
		}
	}
	return index
}

// Series maps a free-form series name to its canonical name. Unknown values
// are returned unchanged.
func Series(series string) string {
	if series == "" {
		return series
	}

	if canonical, ok := seriesExact[series]; ok {
		return canonical
	}

	if canonical, ok := foldedLookup(seriesAliases, series); ok {
		return canonical
	}

	return series
}

// Generation maps a free-form generation name to its canonical name. On top
// of the exact and case-insensitive passes it accepts composite strings such
// as "Beyblade Burst Surge (SpeedStorm)" by substring containment in either
// direction; the first alias in table order wins.
func Generation(generation string) string {
	if generation == "" {
		return generation
	}

	if canonical, ok := generationExact[generation]; ok {
		return canonical
	}

	if canonical, ok := foldedLookup(generationAliases, generation); ok {
		return canonical
	}

	for _, a := range generationAliases {
		if strings.Contains(generation, a.from) || strings.Contains(a.from, generation) {
			return a.to
		}
	}

	return generation
}

// Pair normalizes series and generation together.
func Pair(series, generation string) (string, string) {
	return Series(series), Generation(generation)
}

func foldedLookup(aliases []alias, value string) (string, bool) {
	for _, a := range aliases {
		if strings.EqualFold(a.from, value) {
			return a.to, true
		}
	}
	return "", false
}
