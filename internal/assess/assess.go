package assess

import (
	"encoding/json"
	"fmt"

	"github.com/ayusman/navarasa/internal/emotion"
)

// Status is the coarse mental-health label derived from a history.
type Status int

const (
	// Normal means no rule fired.
	Normal Status = iota
	// PotentialDepression means sadness dominated the history.
	PotentialDepression
	// PotentialAngerIssues means anger dominated the history.
	PotentialAngerIssues
	// StableMentalState means the face stayed at rest for most of the history.
	StableMentalState
)

var statusLabels = map[Status]string{
	Normal:               "Normal",
	PotentialDepression:  "Potential Depression",
	PotentialAngerIssues: "Potential Anger Issues",
	StableMentalState:    "Stable Mental State",
}

var statusCodes = map[Status]string{
	Normal:               "normal",
	PotentialDepression:  "potential_depression",
	PotentialAngerIssues: "potential_anger_issues",
	StableMentalState:    "stable_mental_state",
}

// String returns the human-readable label.
func (s Status) String() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Code returns the machine tag used in JSON and storage.
func (s Status) Code() string {
	if c, ok := statusCodes[s]; ok {
		return c
	}
	return "unknown"
}

// ParseStatus parses a machine tag or a human label.
func ParseStatus(v string) (Status, error) {
	for s, c := range statusCodes {
		if c == v || statusLabels[s] == v {
			return s, nil
		}
	}
	return Normal, fmt.Errorf("unknown status %q", v)
}

// MarshalJSON encodes the status as its machine tag.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Code())
}

// UnmarshalJSON decodes a machine tag or label.
func (s *Status) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := ParseStatus(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Rules couples the history capacity with the counts evaluated over it.
// The counts only make sense relative to Capacity, so the two are changed
// together through this type.
type Rules struct {
	Capacity       int
	ScoreThreshold float64
	SadCount       int
	AngerCount     int
	NeutralCount   int
}

// DefaultRules are the calibrated rules for a ten-entry history.
var DefaultRules = Rules{
	Capacity:       StatusCapacity,
	ScoreThreshold: 0.5,
	SadCount:       5,
	AngerCount:     5,
	NeutralCount:   8,
}

// Validate checks that every count can be exceeded within Capacity.
func (r Rules) Validate() error {
	if r.Capacity <= 0 {
		return fmt.Errorf("%w: got %d", ErrCapacity, r.Capacity)
	}
	for name, n := range map[string]int{"sad": r.SadCount, "anger": r.AngerCount, "neutral": r.NeutralCount} {
		if n < 0 || n >= r.Capacity {
			return fmt.Errorf("%s count %d must be in [0, %d)", name, n, r.Capacity)
		}
	}
	return nil
}

// NewHistory returns an empty history sized for these rules.
func (r Rules) NewHistory() (*History, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return NewHistory(r.Capacity)
}

// Counts holds how many face-present entries crossed the score threshold.
type Counts struct {
	Sad     int `json:"sad"`
	Angry   int `json:"angry"`
	Neutral int `json:"neutral"`
}

// Assessment is the status derived from a history plus its advice.
type Assessment struct {
	Status   Status `json:"status"`
	Label    string `json:"label"`
	Advisory string `json:"advisory"`
	// Observed is the number of face-present entries considered.
	Observed int    `json:"observed"`
	Counts   Counts `json:"counts"`
}

// Record returns the two-field view persisted for other surfaces.
func (a Assessment) Record() Record {
	return Record{Conclusion: a.Label, Recommendation: a.Advisory}
}

// Record is the small key/value record read by widgets and dashboards.
type Record struct {
	Conclusion     string `json:"conclusion"`
	Recommendation string `json:"recommendation"`
}

// Evaluate derives the status from entries using r. Entries without a face
// are skipped entirely. The first matching rule wins: sadness, then anger,
// then stability.
func Evaluate(entries []emotion.Vector, r Rules) (Status, Counts, int) {
	var c Counts
	observed := 0
	for _, e := range entries {
		if !e.Face() {
			continue
		}
		observed++
		if e.Get(emotion.Sad) > r.ScoreThreshold {
			c.Sad++
		}
		if e.Get(emotion.Angry) > r.ScoreThreshold {
			c.Angry++
		}
		if e.Get(emotion.Neutral) > r.ScoreThreshold {
			c.Neutral++
		}
	}

	switch {
	case c.Sad > r.SadCount:
		return PotentialDepression, c, observed
	case c.Angry > r.AngerCount:
		return PotentialAngerIssues, c, observed
	case c.Neutral > r.NeutralCount:
		return StableMentalState, c, observed
	default:
		return Normal, c, observed
	}
}

// Assess evaluates entries with rules and English advice.
func Assess(entries []emotion.Vector, rules Rules) Assessment {
	return Engine{Rules: rules}.Assess(entries)
}

// Engine evaluates histories with a rule set and an advisor.
type Engine struct {
	Rules   Rules
	Advisor *Advisor
}

// Assess evaluates a snapshot of history entries, oldest first.
func (e Engine) Assess(entries []emotion.Vector) Assessment {
	adv := e.Advisor
	if adv == nil {
		adv = DefaultAdvisor
	}
	status, counts, observed := Evaluate(entries, e.Rules)
	return Assessment{
		Status:   status,
		Label:    adv.Label(status),
		Advisory: adv.Advice(status),
		Observed: observed,
		Counts:   counts,
	}
}
