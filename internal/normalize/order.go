// internal/normalize/order.go
package normalize

// Unknown is the rank of any name missing from the order tables. It sorts
// after every known name.
const Unknown = 999

// Lower rank means newer release.
var seriesOrder = map[string]int{
	"Beyblade X":     1,
	"Beyblade Burst": 2,
	"Metal Fight":    3,
	"Original":       4,
}

// Keys are canonical names as returned by Generation.
var generationOrder = map[string]int{
	// Beyblade X
	"Xtreme Gear Sports": 1,
	"UX System":          2,
	"Basic Line":         3,

	// Beyblade Burst (Hasbro)
	"QuadStrike": 1,
	"QuadDrive":  2,
	"SpeedStorm": 3,

	// Beyblade Burst (Takara Tomy)
	"Dynamite Battle": 4,
	"Superking":       5,
	"GT":              6,
	"Cho-Z":           7,
	"Turbo":           8,
	"God":             9,
	"Evolution":       10,
	"Dual Layer":      11,
	"Single Layer":    12,

	// Metal Fight
	"Hybrid Wheel System": 1,
	"Maximum Series":      2,
	"4D System":           3,
	"Metal Fury":          4,
	"Metal Masters":       5,
	"Metal Fusion":        6,
}

// SeriesOrder returns the rank of a canonical series name, or Unknown.
func SeriesOrder(series string) int {
	if rank, ok := seriesOrder[series]; ok {
		return rank
	}
	return Unknown
}

// GenerationOrder returns the rank of a canonical generation name within its
// series, or Unknown.
func GenerationOrder(generation string) int {
	if rank, ok := generationOrder[generation]; ok {
		return rank
	}
	return Unknown
}

// KnownSeries returns the canonical series names in rank order.
func KnownSeries() []string {
	return []string{"Beyblade X", "Beyblade Burst", "Metal Fight", "Original"}
}
