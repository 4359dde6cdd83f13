// Package emotion combines action unit intensities into per-emotion scores.
package emotion

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Category is one of the five fixed emotion categories.
type Category int

// Emotion categories in display order.
const (
	Happy Category = iota
	Sad
	Angry
	Surprised
	Neutral

	NumCategories = iota
)

var categoryNames = [NumCategories]string{
	Happy:     "happy",
	Sad:       "sad",
	Angry:     "angry",
	Surprised: "surprised",
	Neutral:   "neutral",
}

// Categories returns all categories in display order.
func Categories() []Category {
	return []Category{Happy, Sad, Angry, Surprised, Neutral}
}

// String returns the lowercase category name used as a JSON key.
func (c Category) String() string {
	if c < 0 || int(c) >= NumCategories {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// Title returns the capitalised name used in text output.
func (c Category) Title() string {
	s := c.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseCategory parses a lowercase category name.
func ParseCategory(s string) (Category, error) {
	for i, name := range categoryNames {
		if name == s {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown emotion category %q", s)
}

// Vector holds raw [0,1] scores for one frame.
// A vector without a face carries all-zero scores and is excluded from
// temporal assessment.
type Vector struct {
	scores [NumCategories]float64
	face   bool
}

// NewVector builds a face-present vector from explicit scores.
func NewVector(happy, sad, angry, surprised, neutral float64) Vector {
	return Vector{
		scores: [NumCategories]float64{happy, sad, angry, surprised, neutral},
		face:   true,
	}
}

// NoFace returns the all-zero vector recorded when no face was detected.
func NoFace() Vector {
	return Vector{}
}

// Get returns the raw score for c.
func (v Vector) Get(c Category) float64 {
	if c < 0 || int(c) >= NumCategories {
		return 0
	}
	return v.scores[c]
}

// Face reports whether the vector was computed from a detected face.
func (v Vector) Face() bool {
	return v.face
}

// Total returns the sum of all five scores.
func (v Vector) Total() float64 {
	var total float64
	for _, s := range v.scores {
		total += s
	}
	return total
}

// Dominant returns the highest scoring category among the four expressive
// ones, ignoring the neutral sentinel. ok is false when there is no face.
func (v Vector) Dominant() (c Category, ok bool) {
	if !v.face {
		return Neutral, false
	}
	best := Happy
	for _, cat := range []Category{Sad, Angry, Surprised} {
		if v.scores[cat] > v.scores[best] {
			best = cat
		}
	}
	return best, true
}

// Map returns the scores keyed by category name.
func (v Vector) Map() map[string]float64 {
	m := make(map[string]float64, NumCategories)
	for i, name := range categoryNames {
		m[name] = v.scores[i]
	}
	return m
}

// MarshalJSON encodes the scores keyed by category name.
func (v Vector) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Map())
}

// UnmarshalJSON decodes a name-keyed object. Any positive score marks a face.
func (v *Vector) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*v = Vector{}
	for name, score := range m {
		c, err := ParseCategory(name)
		if err != nil {
			return err
		}
		v.scores[c] = score
		if score > 0 {
			v.face = true
		}
	}
	return nil
}

// Percentages is the normalised view of a Vector: each score divided by the
// total and scaled to 100.
type Percentages [NumCategories]float64

// Percentages returns the normalised view. A zero total yields all zeros.
func (v Vector) Percentages() Percentages {
	var p Percentages
	total := v.Total()
	if total <= 0 {
		return p
	}
	for i, s := range v.scores {
		p[i] = s / total * 100
	}
	return p
}

// Get returns the percentage for c.
func (p Percentages) Get(c Category) float64 {
	if c < 0 || int(c) >= NumCategories {
		return 0
	}
	return p[c]
}

// Map returns the percentages keyed by category name.
func (p Percentages) Map() map[string]float64 {
	m := make(map[string]float64, NumCategories)
	for i, name := range categoryNames {
		m[name] = p[i]
	}
	return m
}

// MarshalJSON encodes the percentages keyed by category name.
func (p Percentages) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Map())
}

// String renders one "Happy: 12.3%" line per category in display order.
func (p Percentages) String() string {
	var sb strings.Builder
	for _, c := range Categories() {
		fmt.Fprintf(&sb, "%s: %.1f%%\n", c.Title(), p[c])
	}
	return sb.String()
}
