// Package mealdb integrates the third-party TheMealDB-compatible recipe API.
// It provides a thin HTTP client (client.go) and a normalizer (this file)
// that converts the provider's loosely structured payloads into the
// application's ExternalRecipe shape.
//
// The provider's payloads are hostile by design: every field is optional,
// ingredients are spread across twenty indexed column pairs, and cooking
// instructions arrive as one free-text blob. Normalize therefore degrades
// per-field — a missing or malformed field resolves to a safe default, never
// an error.
package mealdb

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tbourn/go-recipe-backend/internal/domain"
)

const (
	// IDPrefix namespaces provider IDs so a normalized external recipe ID can
	// never collide with a store-generated local recipe UUID.
	IDPrefix = "mealdb-"

	// maxIngredientSlots is the number of indexed strIngredientN/strMeasureN
	// pairs the provider exposes.
	maxIngredientSlots = 20

	// defaultCookingTime is assigned to every external recipe; the provider
	// publishes no timing information.
	defaultCookingTime = 30

	// descriptionMaxRunes caps the list-view description derived from the
	// instructions text.
	descriptionMaxRunes = 200

	// minStepRunes filters out sentence fragments (abbreviations, stray
	// numbers) when falling back to sentence splitting.
	minStepRunes = 20

	// placeholderStep is emitted when no usable steps can be derived.
	placeholderStep = "Follow the instructions in the description"

	// fallbackDescription is used when the payload carries no instructions.
	fallbackDescription = "No description available."
)

// Meal is the provider's recipe payload. All fields are optional upstream;
// absent or null values decode to empty strings.
type Meal struct {
	ID           string
	Name         string
	Category     string
	Area         string
	Instructions string
	Thumbnail    string
	Tags         string
	YouTube      string
	Source       string
	Ingredients  [maxIngredientSlots]string
	Measures     [maxIngredientSlots]string
}

// UnmarshalJSON decodes the provider's flat JSON object, collapsing the
// twenty indexed ingredient/measure pairs into arrays and coercing JSON null
// to the empty string.
func (m *Meal) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	str := func(key string) string {
		s, _ := raw[key].(string)
		return s
	}
	m.ID = str("idMeal")
	m.Name = str("strMeal")
	m.Category = str("strCategory")
	m.Area = str("strArea")
	m.Instructions = str("strInstructions")
	m.Thumbnail = str("strMealThumb")
	m.Tags = str("strTags")
	m.YouTube = str("strYoutube")
	m.Source = str("strSource")
	for i := 0; i < maxIngredientSlots; i++ {
		m.Ingredients[i] = str(fmt.Sprintf("strIngredient%d", i+1))
		m.Measures[i] = str(fmt.Sprintf("strMeasure%d", i+1))
	}
	return nil
}

// Normalize converts a provider payload into the application's recipe shape.
// The returned recipe always has a namespaced ID, IsExternal set, and a
// non-empty steps list; every other field falls back to a safe default when
// the payload omits it.
func Normalize(m Meal) domain.ExternalRecipe {
	instructions := strings.TrimSpace(m.Instructions)

	description := truncateRunes(instructions, descriptionMaxRunes)
	if description == "" {
		description = fallbackDescription
	}

	steps := splitSteps(instructions)
	if len(steps) == 0 {
		steps = []string{placeholderStep}
	}

	return domain.ExternalRecipe{
		ID:          IDPrefix + m.ID,
		Title:       m.Name,
		Description: description,
		Category:    m.Category,
		Area:        m.Area,
		ImageURL:    m.Thumbnail,
		SourceURL:   m.Source,
		VideoURL:    m.YouTube,
		Ingredients: collectIngredients(m),
		Steps:       steps,
		CookingTime: defaultCookingTime,
		IsExternal:  true,
	}
}

// collectIngredients walks the indexed slot pairs in order, skipping empty
// and sentinel "null" values, and joins measure + ingredient into one line
// when a measure is present.
func collectIngredients(m Meal) []string {
	out := make([]string, 0, maxIngredientSlots)
	for i := 0; i < maxIngredientSlots; i++ {
		ing := strings.TrimSpace(m.Ingredients[i])
		if ing == "" || strings.EqualFold(ing, "null") {
			continue
		}
		measure := strings.TrimSpace(m.Measures[i])
		if measure != "" && !strings.EqualFold(measure, "null") {
			out = append(out, measure+" "+ing)
		} else {
			out = append(out, ing)
		}
	}
	return out
}

// stepMarkerRE matches explicit step numbering at the start of a line, e.g.
// "1.", "2)", "STEP 3", so numbered instructions split cleanly.
var stepMarkerRE = regexp.MustCompile(`(?mi)^\s*(?:step\s*)?\d+\s*[.):\-]\s*`)

// paragraphRE splits instruction text on blank-line paragraph breaks.
var paragraphRE = regexp.MustCompile(`\r?\n\s*\r?\n`)

// splitSteps derives an ordered step list from the free-text instructions.
//
// Strategy, in order:
//  1. explicit numbering markers or blank-line paragraphs
//  2. sentence splitting on periods, discarding fragments shorter than
//     minStepRunes (avoids turning abbreviations into spurious steps)
//  3. empty result — the caller substitutes a placeholder
func splitSteps(instructions string) []string {
	if instructions == "" {
		return nil
	}

	var parts []string
	if stepMarkerRE.MatchString(instructions) {
		parts = stepMarkerRE.Split(instructions, -1)
	} else {
		parts = paragraphRE.Split(instructions, -1)
	}
	steps := cleanSegments(parts, 1)
	if len(steps) > 1 {
		return steps
	}

	// One big blob: fall back to sentence splitting.
	sentences := strings.Split(instructions, ".")
	steps = cleanSegments(sentences, minStepRunes)
	return steps
}

// cleanSegments trims segments, collapses inner newlines, and drops segments
// shorter than minRunes.
func cleanSegments(segs []string, minRunes int) []string {
	out := make([]string, 0, len(segs))
	for _, s := range segs {
		s = strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
		s = strings.Join(strings.Fields(s), " ")
		if s == "" || utf8.RuneCountInString(s) < minRunes {
			continue
		}
		out = append(out, s)
	}
	return out
}

// truncateRunes clips s to at most n runes.
func truncateRunes(s string, n int) string {
	if n > 0 && utf8.RuneCountInString(s) > n {
		return string([]rune(s)[:n])
	}
	return s
}
