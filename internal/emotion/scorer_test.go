package emotion

import (
	"encoding/json"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/navarasa/internal/facs"
	"github.com/ayusman/navarasa/internal/landmark"
)

func auVector(values map[facs.Unit]float64) facs.Vector {
	var v facs.Vector
	for _, u := range facs.Units() {
		v.Set(u, values[u])
	}
	return v
}

func TestWeights_SumToOne(t *testing.T) {
	for _, c := range []Category{Happy, Sad, Angry, Surprised} {
		var sum float64
		for _, w := range Weights(c) {
			sum += w.Weight
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "weights for %s", c)
	}
	assert.Nil(t, Weights(Neutral), "neutral is a sentinel, not a weighted sum")
}

func TestWeights_ReturnsCopy(t *testing.T) {
	au := auVector(map[facs.Unit]float64{facs.AU12: 1, facs.AU6: 1, facs.AU25: 1})
	before := Score(au).Get(Happy)

	table := Weights(Happy)
	require.NotEmpty(t, table)
	table[0].Weight = 0

	assert.Equal(t, 0.70, Weights(Happy)[0].Weight)
	assert.Equal(t, before, Score(au).Get(Happy))
}

func TestScore_WeightedSums(t *testing.T) {
	au := auVector(map[facs.Unit]float64{
		facs.AU1: 0.9, facs.AU2: 0.8, facs.AU4: 0.3, facs.AU5: 0.2,
		facs.AU6: 0.4, facs.AU7: 0.5, facs.AU12: 0.6, facs.AU15: 0.1,
		facs.AU23: 0.7, facs.AU25: 0.2,
	})

	v := Score(au)
	require.True(t, v.Face())

	want := map[string]float64{
		"happy":     0.70*0.6 + 0.25*0.4 + 0.05*0.2,
		"sad":       0.60*0.9 + 0.25*0.3 + 0.15*0.1,
		"angry":     0.55*0.3 + 0.25*0.5 + 0.15*0.7 + 0.05*0.2,
		"surprised": 0.65*0.2 + 0.20*0.9 + 0.15*0.8,
		"neutral":   NeutralScore,
	}
	if diff := cmp.Diff(want, v.Map(), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("scores mismatch (-want +got):\n%s", diff)
	}
}

func TestScore_NeutralSentinel(t *testing.T) {
	t.Run("0.95 for any face", func(t *testing.T) {
		var zero facs.Vector
		zero.Set(facs.AU1, 0)
		assert.Equal(t, NeutralScore, Score(zero).Get(Neutral))

		saturated := auVector(map[facs.Unit]float64{})
		for _, u := range facs.Units() {
			saturated.Set(u, 1)
		}
		assert.Equal(t, NeutralScore, Score(saturated).Get(Neutral))
	})

	t.Run("all zero without a face", func(t *testing.T) {
		v := Score(facs.Vector{})
		assert.False(t, v.Face())
		for _, c := range Categories() {
			assert.Zero(t, v.Get(c), "category %s", c)
		}
	})
}

func TestScore_FromFixtures(t *testing.T) {
	au, err := facs.Extract(landmark.RaisedBrowFace())
	require.NoError(t, err)
	v := Score(au)

	assert.Greater(t, v.Get(Sad), 0.5)
	assert.Greater(t, v.Get(Sad), v.Get(Happy))
	assert.Greater(t, v.Get(Sad), v.Get(Angry))
	dominant, ok := v.Dominant()
	assert.True(t, ok)
	assert.Equal(t, Sad, dominant)

	au, err = facs.Extract(landmark.FrownFace())
	require.NoError(t, err)
	v = Score(au)
	assert.Greater(t, v.Get(Angry), 0.5)
	assert.Less(t, v.Get(Sad), 0.5)
}

func TestScore_BoundedByUnitClamps(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 0; n < 100; n++ {
		var au facs.Vector
		for _, u := range facs.Units() {
			au.Set(u, rng.Float64())
		}
		v := Score(au)
		for _, c := range Categories() {
			s := v.Get(c)
			if s < 0 || s > 1 {
				t.Fatalf("iteration %d: %s = %f out of [0,1]", n, c, s)
			}
		}
	}
}

func TestPercentages(t *testing.T) {
	t.Run("sum to 100", func(t *testing.T) {
		rng := rand.New(rand.NewSource(3))
		for n := 0; n < 100; n++ {
			v := NewVector(rng.Float64(), rng.Float64(), rng.Float64(), rng.Float64(), NeutralScore)
			var sum float64
			for _, p := range v.Percentages() {
				sum += p
			}
			assert.InDelta(t, 100, sum, 0.1)
		}
	})

	t.Run("zero total gives zeros", func(t *testing.T) {
		p := NoFace().Percentages()
		for _, c := range Categories() {
			assert.Zero(t, p.Get(c))
			assert.False(t, math.IsNaN(p.Get(c)))
		}
	})

	t.Run("text rendering uses one decimal", func(t *testing.T) {
		p := NewVector(1, 1, 1, 1, 0).Percentages()
		lines := strings.Split(strings.TrimSpace(p.String()), "\n")
		assert.Equal(t, []string{
			"Happy: 25.0%",
			"Sad: 25.0%",
			"Angry: 25.0%",
			"Surprised: 25.0%",
			"Neutral: 0.0%",
		}, lines)
	})
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "No face detected", Format(NoFace(), "Normal"))

	out := Format(NewVector(0.5, 0, 0, 0, 0.5), "Stable Mental State")
	assert.True(t, strings.HasPrefix(out, "Detected Emotions:\nHappy: 50.0%\n"))
	assert.True(t, strings.HasSuffix(out, "\nConclusion: Stable Mental State"))
}

func TestVector_JSON(t *testing.T) {
	v := NewVector(0.1, 0.2, 0.3, 0.4, NeutralScore)
	data, err := json.Marshal(v)
	require.NoError(t, err)

	var decoded Vector
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, v, decoded)

	var bad Vector
	assert.Error(t, json.Unmarshal([]byte(`{"bored":0.5}`), &bad))
}

func TestCategory_Names(t *testing.T) {
	for _, c := range Categories() {
		parsed, err := ParseCategory(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
	assert.Equal(t, "Surprised", Surprised.Title())
	_, err := ParseCategory("bored")
	assert.Error(t, err)
}

func TestInsights(t *testing.T) {
	t.Run("no face has no insights", func(t *testing.T) {
		assert.Nil(t, Insights(NoFace(), facs.Vector{}))
	})

	t.Run("quiet frame", func(t *testing.T) {
		got := Insights(NewVector(0.1, 0.1, 0.1, 0.1, 0.1), facs.Vector{})
		assert.Equal(t, []string{NoInsights}, got)
	})

	t.Run("sad frame with supporting units", func(t *testing.T) {
		au := auVector(map[facs.Unit]float64{facs.AU1: 0.9, facs.AU15: 0.3})
		v := Score(au)
		got := Insights(v, au)

		require.NotEmpty(t, got)
		assert.Contains(t, got[0], "sadness detected")
		assert.Contains(t, got, "Increased AU15 activity may indicate sadness.")
		assert.Contains(t, got, "Increased AU1 activity may indicate sadness.")
		assert.Contains(t, got[len(got)-1], "neutral expression")
	})
}
