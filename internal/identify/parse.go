// internal/identify/parse.go
package identify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/javajoker/beycollection/internal/llm"
	"github.com/javajoker/beycollection/internal/models"
	"github.com/javajoker/beycollection/internal/normalize"
)

// ErrMalformed marks model output that cannot be read as a result.
var ErrMalformed = errors.New("malformed identification response")

const ParseFailureMessage = "Failed to parse AI response"

// Parse reads untrusted model output. The text is decoded into a loose map
// first and every field is coerced on its own; a field of the wrong shape
// fails the whole parse with ErrMalformed.
func Parse(raw string) (*models.IdentificationResult, error) {
	body, err := llm.ExtractJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	r := &models.IdentificationResult{}
	p := &fieldReader{fields: fields}

	r.Name = p.str("name")
	r.NameHasbro = p.str("name_hasbro")
	r.VersionNotes = p.str("version_notes")
	r.Series = p.str("series")
	r.Generation = p.str("generation")
	r.Description = p.str("description")
	r.ImageURL = p.str("image_url")
	r.WikiURL = p.str("wiki_url")
	r.ErrorMessage = p.str("error_message")
	r.Confidence = models.ParseConfidence(p.str("confidence"))
	r.Manufacturer = models.ParseManufacturer(p.str("manufacturer"))

	if identified, ok := p.boolean("identified"); ok {
		r.Identified = identified
	} else {
		r.Identified = r.Name != ""
	}

	if t, ok := models.NormalizeType(p.str("type")); ok {
		r.Type = t
	}

	if raw := p.object("components"); raw != nil {
		if legacy := p.object("component_descriptions"); legacy != nil {
			if _, has := raw["descriptions"]; !has {
				raw["descriptions"] = legacy
			}
		}
		components := models.ComponentsFromMap(raw, normalize.Series(r.Series))
		if !components.IsZero() {
			r.Components = &components
		}
	}

	if raw := p.object("specs"); raw != nil {
		specs := models.SpecsFromMap(raw)
		if !specs.IsZero() {
			r.Specs = &specs
		}
	}

	r.Suggestions = p.list("suggestions")

	if raw := p.object("partial_analysis"); raw != nil {
		sub := &fieldReader{fields: raw}
		partial := &models.PartialAnalysis{
			DetectedColors:   sub.list("detected_colors"),
			DetectedSeries:   sub.str("detected_series"),
			DetectedFeatures: sub.list("detected_features"),
		}
		if sub.err != nil {
			p.err = sub.err
		}
		if !partial.IsZero() {
			r.PartialAnalysis = partial
		}
	}

	if p.err != nil {
		return nil, p.err
	}

	r.Classify()
	return r, nil
}

// ParseFailure is the result reported when image identification output
// cannot be read.
func ParseFailure() *models.IdentificationResult {
	r := &models.IdentificationResult{
		Identified:   false,
		ErrorMessage: ParseFailureMessage,
	}
	r.Classify()
	return r
}

type fieldReader struct {
	fields map[string]interface{}
	err    error
}

func (p *fieldReader) fail(key string, value interface{}) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: field %q has type %T", ErrMalformed, key, value)
	}
}

func (p *fieldReader) str(key string) string {
	switch v := p.fields[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		p.fail(key, v)
		return ""
	}
}

func (p *fieldReader) boolean(key string) (bool, bool) {
	switch v := p.fields[key].(type) {
	case nil:
		return false, false
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(v)))
		if err != nil {
			p.fail(key, v)
			return false, false
		}
		return b, true
	default:
		p.fail(key, v)
		return false, false
	}
}

func (p *fieldReader) object(key string) map[string]interface{} {
	switch v := p.fields[key].(type) {
	case nil:
		return nil
	case map[string]interface{}:
		return v
	default:
		p.fail(key, v)
		return nil
	}
}

func (p *fieldReader) list(key string) []string {
	switch v := p.fields[key].(type) {
	case nil:
		return nil
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
		return nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		p.fail(key, v)
		return nil
	}
}
