package emotion

import (
	"fmt"

	"github.com/ayusman/navarasa/internal/facs"
)

// NoInsights is returned when no category crosses its insight threshold.
const NoInsights = "No significant emotional expressions detected."

// auNote adds a follow-up line when a supporting action unit is active.
type auNote struct {
	unit      facs.Unit
	threshold float64
	text      string
}

type insightRule struct {
	category  Category
	threshold float64
	headline  string
	notes     []auNote
}

var insightRules = []insightRule{
	{
		category:  Sad,
		threshold: 0.35,
		headline:  "Potential signs of sadness detected (score: %.2f). Consider further assessment.",
		notes: []auNote{
			{facs.AU15, 0.25, "Increased AU15 activity may indicate sadness."},
			{facs.AU1, 0.25, "Increased AU1 activity may indicate sadness."},
		},
	},
	{
		category:  Happy,
		threshold: 0.40,
		headline:  "Potential signs of happiness detected (score: %.2f).",
		notes: []auNote{
			{facs.AU6, 0.30, "Duchenne smile detected, suggesting genuine happiness."},
		},
	},
	{
		category:  Angry,
		threshold: 0.30,
		headline:  "Potential signs of anger detected (score: %.2f).",
		notes: []auNote{
			{facs.AU4, 0.20, "Increased AU4 activity may indicate anger."},
		},
	},
	{
		category:  Surprised,
		threshold: 0.30,
		headline:  "Potential signs of surprise detected (score: %.2f).",
		notes: []auNote{
			{facs.AU1, 0.20, "Increased AU1 activity may indicate surprise."},
			{facs.AU2, 0.20, "Increased AU2 activity may indicate surprise."},
			{facs.AU5, 0.30, "Increased AU5 activity may indicate surprise."},
		},
	},
	{
		category:  Neutral,
		threshold: 0.60,
		headline:  "Predominantly neutral expression detected (score: %.2f).",
	},
}

// Insights explains a single frame's scores in plain sentences.
// It returns []string{NoInsights} when nothing stands out, and nil when
// there was no face.
func Insights(v Vector, au facs.Vector) []string {
	if !v.Face() {
		return nil
	}

	var out []string
	for _, rule := range insightRules {
		score := v.Get(rule.category)
		if score <= rule.threshold {
			continue
		}
		out = append(out, fmt.Sprintf(rule.headline, score))
		for _, n := range rule.notes {
			if au.Get(n.unit) > n.threshold {
				out = append(out, n.text)
			}
		}
	}

	if len(out) == 0 {
		return []string{NoInsights}
	}
	return out
}
