package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestSeries(t *testing.T) {
	cases := map[string]string{
		"Metal Fight Beyblade":   "Metal Fight",
		"MFB":                    "Metal Fight",
		"mfb":                    "Metal Fight",
		"Burst":                  "Beyblade Burst",
		"BEYBLADE X":             "Beyblade X",
		"Bakuten Shoot Beyblade": "Original",
		"Plastics":               "Plastics",
		"":                       "",
	}

	for input, want := range cases {
		assert.Equal(t, want, Series(input), "input %q", input)
	}
}

func TestGeneration(t *testing.T) {
	cases := map[string]string{
		"Surge":                             "SpeedStorm",
		"speedstorm system":                 "SpeedStorm",
		"Beyblade Burst Surge (SpeedStorm)": "SpeedStorm",
		"Beyblade Burst Surge [SpeedStorm]": "SpeedStorm",
		"Quad Strike":                       "QuadStrike",
		"Sparking":                          "Superking",
		"Gachi":                             "GT",
		"cho z":                             "Cho-Z",
		"4D":                                "4D System",
		"XGS":                               "Xtreme Gear Sports",
		"UX":                                "UX System",
		"Basic Line":                        "Basic Line",
		"Totally New Line":                  "Totally New Line",
		"":                                  "",
	}

	for input, want := range cases {
		assert.Equal(t, want, Generation(input), "input %q", input)
	}
}

func TestGenerationSubstringFirstMatchWins(t *testing.T) {
	// "Surge" appears before "GT" in the table, so a string containing both
	// resolves to SpeedStorm.
	assert.Equal(t, "SpeedStorm", Generation("Surge GT crossover"))
	// A fragment contained in an alias key matches that key.
	assert.Equal(t, "Dynamite Battle", Generation("Dynamite"))
}

func TestNormalizationIsIdempotent(t *testing.T) {
	seriesKeys := make([]string, 0, len(seriesAliases))
	for _, a := range seriesAliases {
		seriesKeys = append(seriesKeys, a.from)
	}
	generationKeys := make([]string, 0, len(generationAliases))
	for _, a := range generationAliases {
		generationKeys = append(generationKeys, a.from)
	}

	rapid.Check(t, func(t *rapid.T) {
		s := rapid.OneOf(rapid.SampledFrom(seriesKeys), rapid.String()).Draw(t, "series")
		once := Series(s)
		if twice := Series(once); twice != once {
			t.Fatalf("Series not idempotent for %q: %q then %q", s, once, twice)
		}

		g := rapid.OneOf(rapid.SampledFrom(generationKeys), rapid.String()).Draw(t, "generation")
		once = Generation(g)
		if twice := Generation(once); twice != once {
			t.Fatalf("Generation not idempotent for %q: %q then %q", g, once, twice)
		}
	})
}

func TestOrderTotality(t *testing.T) {
	for _, a := range seriesAliases {
		rank := SeriesOrder(Series(a.from))
		assert.Less(t, rank, Unknown, "series %q", a.from)
	}
	for _, a := range generationAliases {
		rank := GenerationOrder(Generation(a.from))
		assert.Less(t, rank, Unknown, "generation %q", a.from)
	}

	rapid.Check(t, func(t *rapid.T) {
		name := rapid.String().Draw(t, "name")
		if _, known := seriesOrder[name]; !known && SeriesOrder(name) != Unknown {
			t.Fatalf("unknown series %q ranked %d", name, SeriesOrder(name))
		}
		if _, known := generationOrder[name]; !known && GenerationOrder(name) != Unknown {
			t.Fatalf("unknown generation %q ranked %d", name, GenerationOrder(name))
		}
	})
}

func TestKnownSeriesFollowsRank(t *testing.T) {
	known := KnownSeries()
	for i := 1; i < len(known); i++ {
		assert.Less(t, SeriesOrder(known[i-1]), SeriesOrder(known[i]))
	}
}
