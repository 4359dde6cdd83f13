package emotion

import (
	"fmt"
	"strings"

	"github.com/ayusman/navarasa/internal/facs"
)

// NeutralScore is the fixed neutral score for any frame with a face.
// Neutral is a resting-state default rather than a weighted combination.
const NeutralScore = 0.95

// Weight pairs an action unit with its contribution to a category.
type Weight struct {
	Unit   facs.Unit
	Weight float64
}

// weights lists the weighted action units for each expressive category.
// Each table sums to 1.0. Neutral has no table.
var weights = map[Category][]Weight{
	Happy: {
		{facs.AU12, 0.70},
		{facs.AU6, 0.25},
		{facs.AU25, 0.05},
	},
	Sad: {
		{facs.AU1, 0.60},
		{facs.AU4, 0.25},
		{facs.AU15, 0.15},
	},
	Angry: {
		{facs.AU4, 0.55},
		{facs.AU7, 0.25},
		{facs.AU23, 0.15},
		{facs.AU5, 0.05},
	},
	Surprised: {
		{facs.AU5, 0.65},
		{facs.AU1, 0.20},
		{facs.AU2, 0.15},
	},
}

// Weights returns a copy of the weight table for c. Neutral has none.
func Weights(c Category) []Weight {
	table := weights[c]
	if table == nil {
		return nil
	}
	out := make([]Weight, len(table))
	copy(out, table)
	return out
}

// Score converts action unit intensities into raw emotion scores.
// An empty action unit vector yields the no-face vector.
func Score(au facs.Vector) Vector {
	if au.Empty() {
		return NoFace()
	}

	v := Vector{face: true}
	for c, table := range weights {
		var score float64
		for _, w := range table {
			score += w.Weight * au.Get(w.Unit)
		}
		v.scores[c] = score
	}
	v.scores[Neutral] = NeutralScore
	return v
}

// Format renders the per-frame text shown to users: one percentage line per
// category followed by the conclusion, or "No face detected".
func Format(v Vector, conclusion string) string {
	if !v.Face() {
		return "No face detected"
	}

	var sb strings.Builder
	sb.WriteString("Detected Emotions:\n")
	sb.WriteString(v.Percentages().String())
	if conclusion != "" {
		fmt.Fprintf(&sb, "\nConclusion: %s", conclusion)
	}
	return sb.String()
}
