package assess

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/ayusman/navarasa/internal/emotion"
	"github.com/ayusman/navarasa/internal/facs"
	"github.com/ayusman/navarasa/internal/landmark"
)

func sad() emotion.Vector { return emotion.NewVector(0.1, 0.8, 0.1, 0.1, emotion.NeutralScore) }
func angry() emotion.Vector { return emotion.NewVector(0.1, 0.2, 0.7, 0.1, emotion.NeutralScore) }
func both() emotion.Vector { return emotion.NewVector(0.1, 0.6, 0.6, 0.1, emotion.NeutralScore) }
func calm() emotion.Vector { return emotion.NewVector(0.2, 0.1, 0.1, 0.1, emotion.NeutralScore) }
func flat() emotion.Vector { return emotion.NewVector(0.2, 0.1, 0.1, 0.1, 0.3) }
func noFace() emotion.Vector { return emotion.NoFace() }

func repeat(v emotion.Vector, n int) []emotion.Vector {
	out := make([]emotion.Vector, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func concat(parts ...[]emotion.Vector) []emotion.Vector {
	var out []emotion.Vector
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestNewHistory(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := NewHistory(n); !errors.Is(err, ErrCapacity) {
			t.Errorf("NewHistory(%d) error = %v, want ErrCapacity", n, err)
		}
	}

	h, err := NewHistory(3)
	if err != nil {
		t.Fatalf("NewHistory failed: %v", err)
	}
	if h.Cap() != 3 || h.Len() != 0 {
		t.Errorf("Cap/Len = %d/%d, want 3/0", h.Cap(), h.Len())
	}
	if _, ok := h.Latest(); ok {
		t.Error("Latest on empty history should report false")
	}
}

func TestHistory_Eviction(t *testing.T) {
	h, _ := NewHistory(3)
	vs := []emotion.Vector{
		emotion.NewVector(0.1, 0, 0, 0, 1),
		emotion.NewVector(0.2, 0, 0, 0, 1),
		emotion.NewVector(0.3, 0, 0, 0, 1),
		emotion.NewVector(0.4, 0, 0, 0, 1),
		emotion.NewVector(0.5, 0, 0, 0, 1),
	}
	for _, v := range vs {
		h.Push(v)
	}

	got := h.Entries()
	if len(got) != 3 {
		t.Fatalf("Len = %d, want 3", len(got))
	}
	for i, want := range []float64{0.3, 0.4, 0.5} {
		if got[i].Get(emotion.Happy) != want {
			t.Errorf("entry %d happy = %v, want %v", i, got[i].Get(emotion.Happy), want)
		}
	}

	latest, ok := h.Latest()
	if !ok || latest.Get(emotion.Happy) != 0.5 {
		t.Errorf("Latest = %v, %v", latest, ok)
	}

	// Entries is a copy.
	got[0] = emotion.NoFace()
	if h.Entries()[0].Get(emotion.Happy) != 0.3 {
		t.Error("mutating Entries result changed the history")
	}

	h.Reset()
	if h.Len() != 0 {
		t.Errorf("Len after Reset = %d", h.Len())
	}
}

func TestHistory_ConcurrentReaders(t *testing.T) {
	h, _ := NewHistory(StatusCapacity)
	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if n := len(h.Entries()); n > StatusCapacity {
					t.Errorf("Entries returned %d items", n)
					return
				}
			}
		}()
	}
	for i := 0; i < 200; i++ {
		h.Push(calm())
	}
	wg.Wait()
	if h.Len() != StatusCapacity {
		t.Errorf("Len = %d, want %d", h.Len(), StatusCapacity)
	}
}

func TestAssess(t *testing.T) {
	tests := []struct {
		name     string
		entries  []emotion.Vector
		want     Status
		observed int
	}{
		{"empty", nil, Normal, 0},
		{"six sad", concat(repeat(sad(), 6), repeat(flat(), 4)), PotentialDepression, 10},
		{"five sad is not enough", concat(repeat(sad(), 5), repeat(flat(), 5)), Normal, 10},
		{"six angry", concat(repeat(angry(), 6), repeat(flat(), 4)), PotentialAngerIssues, 10},
		{"sad wins over angry", repeat(both(), 10), PotentialDepression, 10},
		{"nine neutral", concat(repeat(calm(), 9), repeat(flat(), 1)), StableMentalState, 10},
		{"eight neutral", concat(repeat(calm(), 8), repeat(flat(), 2)), Normal, 10},
		{"ten neutral", repeat(calm(), 10), StableMentalState, 10},
		{"all no face", repeat(noFace(), 10), Normal, 0},
		{"no face skipped", concat(repeat(sad(), 6), repeat(noFace(), 4)), PotentialDepression, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Assess(tt.entries, DefaultRules)
			if got.Status != tt.want {
				t.Errorf("Status = %v, want %v", got.Status, tt.want)
			}
			if got.Observed != tt.observed {
				t.Errorf("Observed = %d, want %d", got.Observed, tt.observed)
			}
			if got.Label != tt.want.String() {
				t.Errorf("Label = %q, want %q", got.Label, tt.want.String())
			}
			if got.Advisory != DefaultAdvisor.Advice(tt.want) {
				t.Errorf("Advisory = %q", got.Advisory)
			}
		})
	}
}

func TestAssess_Counts(t *testing.T) {
	entries := concat(repeat(both(), 3), repeat(flat(), 2), repeat(noFace(), 2))
	got := Assess(entries, DefaultRules)
	want := Counts{Sad: 3, Angry: 3, Neutral: 3}
	if got.Counts != want {
		t.Errorf("Counts = %+v, want %+v", got.Counts, want)
	}
	if got.Observed != 5 {
		t.Errorf("Observed = %d, want 5", got.Observed)
	}
}

func TestAssess_FromLandmarks(t *testing.T) {
	score := func(f landmark.Frame) emotion.Vector {
		au, err := facs.Extract(f)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		return emotion.Score(au)
	}

	h, err := DefaultRules.NewHistory()
	if err != nil {
		t.Fatalf("NewHistory: %v", err)
	}

	t.Run("sustained raised brows", func(t *testing.T) {
		h.Reset()
		for i := 0; i < 4; i++ {
			h.Push(score(landmark.NeutralFace()))
		}
		for i := 0; i < 6; i++ {
			h.Push(score(landmark.RaisedBrowFace()))
		}
		if got := Assess(h.Entries(), DefaultRules).Status; got != PotentialDepression {
			t.Errorf("Status = %v, want %v", got, PotentialDepression)
		}
	})

	t.Run("no face throughout", func(t *testing.T) {
		h.Reset()
		for i := 0; i < 10; i++ {
			h.Push(score(landmark.Frame{}))
		}
		got := Assess(h.Entries(), DefaultRules)
		if got.Status != Normal || got.Observed != 0 {
			t.Errorf("got %v observed %d, want Normal observed 0", got.Status, got.Observed)
		}
	})
}

func TestRules_Validate(t *testing.T) {
	if err := DefaultRules.Validate(); err != nil {
		t.Fatalf("DefaultRules invalid: %v", err)
	}

	bad := DefaultRules
	bad.Capacity = 0
	if err := bad.Validate(); !errors.Is(err, ErrCapacity) {
		t.Errorf("zero capacity error = %v", err)
	}

	bad = DefaultRules
	bad.NeutralCount = bad.Capacity
	if err := bad.Validate(); err == nil {
		t.Error("expected error when a count cannot be exceeded")
	}
	if _, err := bad.NewHistory(); err == nil {
		t.Error("NewHistory should reject invalid rules")
	}

	h, err := DefaultRules.NewHistory()
	if err != nil || h.Cap() != DefaultRules.Capacity {
		t.Errorf("NewHistory = %v, %v", h, err)
	}
}

func TestStatus_JSON(t *testing.T) {
	for _, s := range []Status{Normal, PotentialDepression, PotentialAngerIssues, StableMentalState} {
		data, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("Marshal(%v): %v", s, err)
		}
		if string(data) != `"`+s.Code()+`"` {
			t.Errorf("Marshal(%v) = %s", s, data)
		}

		var back Status
		if err := json.Unmarshal(data, &back); err != nil || back != s {
			t.Errorf("Unmarshal(%s) = %v, %v", data, back, err)
		}

		parsed, err := ParseStatus(s.String())
		if err != nil || parsed != s {
			t.Errorf("ParseStatus(%q) = %v, %v", s.String(), parsed, err)
		}
	}

	if _, err := ParseStatus("elated"); err == nil {
		t.Error("expected error for unknown status")
	}
	if got := Status(42).String(); got != "Status(42)" {
		t.Errorf("String = %q", got)
	}
}

func TestBaseLanguage(t *testing.T) {
	tests := map[string]string{
		"id":     "id",
		"id-ID":  "id",
		"ID_id":  "id",
		" en-GB": "en",
		"fr":     "fr",
		"":       "",
	}
	for in, want := range tests {
		if got := BaseLanguage(in); got != want {
			t.Errorf("BaseLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAdvisor(t *testing.T) {
	tests := []struct {
		locale string
		want   string
	}{
		{"en", LocaleEnglish},
		{"", LocaleEnglish},
		{"fr", LocaleEnglish},
		{"id", LocaleIndonesian},
		{"id-ID", LocaleIndonesian},
		{"ID", LocaleIndonesian},
	}
	for _, tt := range tests {
		if got := NewAdvisor(tt.locale).Locale(); got != tt.want {
			t.Errorf("NewAdvisor(%q).Locale() = %q, want %q", tt.locale, got, tt.want)
		}
	}

	id := NewAdvisor("id")
	if got := id.Advice(PotentialDepression); got != "Cobalah untuk berbicara dengan seseorang atau mencari bantuan profesional." {
		t.Errorf("id advice = %q", got)
	}
	if got := id.Label(StableMentalState); got != "Stable Mental State" {
		t.Errorf("id label = %q", got)
	}

	for _, loc := range Locales() {
		adv := NewAdvisor(loc)
		for _, s := range []Status{Normal, PotentialDepression, PotentialAngerIssues, StableMentalState} {
			if adv.Advice(s) == "" {
				t.Errorf("%s has no advice for %v", loc, s)
			}
		}
	}

	eng := Engine{Rules: DefaultRules, Advisor: id}
	got := eng.Assess(repeat(calm(), 10))
	if got.Advisory != "Pertahankan kebiasaan baik Anda." {
		t.Errorf("engine advisory = %q", got.Advisory)
	}
	rec := got.Record()
	if rec.Conclusion != "Stable Mental State" || rec.Recommendation != got.Advisory {
		t.Errorf("Record = %+v", rec)
	}
}
