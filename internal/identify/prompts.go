// internal/identify/prompts.go
package identify

import (
	"strings"
	"unicode/utf8"
)

// MaxPageChars bounds the page HTML sent with a lookup prompt.
const MaxPageChars = 15000

const componentRules = `Component keys depend on the product line. Fill ONLY the set that matches the detected series:
- Beyblade X: "blade", "ratchet", "bit"
- Beyblade Burst: "layer", "disk", "driver"
- Metal Fight Beyblade: "face_bolt", "energy_ring", "fusion_wheel", "spin_track", "performance_tip"
Put a short description of each listed part under "components.descriptions", keyed by the same names.

TYPE NAMES (mandatory): answer with exactly one of these English names.
- Attack / Ataque -> "Attack"
- Defense / Defesa -> "Defense"
- Stamina / Resistência -> "Stamina" (never "Resistance")
- Balance / Equilíbrio -> "Balance"`

const resultShape = `{
  "identified": true,
  "confidence": "high" | "medium" | "low",
  "manufacturer": "Takara Tomy" | "Hasbro" | "Both" | "Unknown",
  "name": "Official Takara Tomy name",
  "name_hasbro": "Hasbro name if different",
  "version_notes": "Release or version notes",
  "series": "Beyblade X | Beyblade Burst | Metal Fight Beyblade",
  "generation": "Specific generation, e.g. Basic Line, Dynamite Battle, Metal Fusion",
  "type": "Attack | Defense | Stamina | Balance",
  "components": { "<part key>": "<part name>", "descriptions": { "<part key>": "<text>" } },
  "specs": { "weight": "grams", "attack": "1-10", "defense": "1-10", "stamina": "1-10" },
  "description": "Short description and history"
}`

// ImagePrompt is the system prompt for identification from a photo.
const ImagePrompt = `You are a Beyblade expert. Analyse the image and identify the Beyblade shown.

IMPORTANT: reply ONLY with valid JSON in the following shape, with no extra text:

` + resultShape + `

` + componentRules + `

If the image quality is too low to be sure, reply:
{
  "identified": false,
  "confidence": "low",
  "suggestions": ["Possible Beyblade A", "Possible Beyblade B"],
  "partial_analysis": { "detected_colors": ["..."], "detected_series": "...", "detected_features": ["..."] },
  "error_message": "Low quality image. Consider taking a sharper photo."
}

If the image does not show a Beyblade or it cannot be identified, reply:
{
  "identified": false,
  "error_message": "Why it could not be identified"
}`

// ImageUserText accompanies the image in the user message.
const ImageUserText = "Identify the Beyblade in this image:"

// LookupPrompt is the system prompt for extraction from a wiki page.
const LookupPrompt = `You are a Beyblade expert. Analyse the HTML content of a Beyblade wiki page and extract structured information.

IMPORTANT: reply ONLY with valid JSON in the following shape, with no extra text:

` + resultShape + `

` + componentRules + `

Hints for the type:
- categories containing "Attack" or "Attack Type" -> "Attack"
- categories containing "Defense" or "Defense Type" -> "Defense"
- categories containing "Stamina" or "Stamina Type" -> "Stamina"
- categories containing "Balance" or "Balance Type" -> "Balance"`

// LookupMessage builds the user message of a lookup: title, categories and
// the page HTML cut to MaxPageChars characters.
func LookupMessage(title string, categories []string, html string) string {
	var b strings.Builder
	b.WriteString("Page title: ")
	b.WriteString(title)
	b.WriteString("\n\nCategories: ")
	b.WriteString(strings.Join(categories, ", "))
	b.WriteString("\n\nPage HTML content:\n")
	b.WriteString(truncate(html, MaxPageChars))
	return b.String()
}

func truncate(s string, maxChars int) string {
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	count := 0
	for i := range s {
		if count == maxChars {
			return s[:i]
		}
		count++
	}
	return s
}

// ImageDataURL wraps raw base64 data in a data URL; inputs that already are
// data URLs pass through.
func ImageDataURL(image string) string {
	if strings.HasPrefix(image, "data:") {
		return image
	}
	return "data:image/jpeg;base64," + image
}
