// Package facs derives facial action unit intensities from face mesh landmarks.
package facs

import (
	"encoding/json"
	"fmt"
	"math"
)

// Unit identifies a facial action unit.
type Unit int

// Action units measured by the extractor.
const (
	AU1  Unit = iota // inner brow raiser
	AU2              // outer brow raiser
	AU4              // brow lowerer
	AU5              // upper lid raiser
	AU6              // cheek raiser
	AU7              // lid tightener
	AU12             // lip corner puller
	AU15             // lip corner depressor
	AU23             // lip tightener
	AU25             // lips part
	AU26             // jaw drop

	NumUnits = iota
)

var unitNames = [NumUnits]string{
	AU1:  "AU1",
	AU2:  "AU2",
	AU4:  "AU4",
	AU5:  "AU5",
	AU6:  "AU6",
	AU7:  "AU7",
	AU12: "AU12",
	AU15: "AU15",
	AU23: "AU23",
	AU25: "AU25",
	AU26: "AU26",
}

// thresholds holds the displacement that maps to full intensity for each unit.
// The values are empirical tuning constants shared by every frame.
var thresholds = [NumUnits]float64{
	AU1:  0.18,
	AU2:  0.22,
	AU4:  0.15,
	AU5:  0.25,
	AU6:  0.30,
	AU7:  0.18,
	AU12: 0.35,
	AU15: 0.25,
	AU23: 0.30,
	AU25: 0.40,
	AU26: 0.45,
}

// Threshold returns the displacement that maps to full intensity for u,
// or 0 for an unknown unit.
func Threshold(u Unit) float64 {
	if !u.Valid() {
		return 0
	}
	return thresholds[u]
}

// Units returns all action units in canonical order.
func Units() []Unit {
	out := make([]Unit, NumUnits)
	for i := range out {
		out[i] = Unit(i)
	}
	return out
}

// String returns the conventional name, e.g. "AU12".
func (u Unit) String() string {
	if u < 0 || int(u) >= NumUnits {
		return fmt.Sprintf("Unit(%d)", int(u))
	}
	return unitNames[u]
}

// Valid reports whether u is a known action unit.
func (u Unit) Valid() bool {
	return u >= 0 && int(u) < NumUnits
}

// ParseUnit parses a name such as "AU12".
func ParseUnit(s string) (Unit, error) {
	for i, name := range unitNames {
		if name == s {
			return Unit(i), nil
		}
	}
	return 0, fmt.Errorf("unknown action unit %q", s)
}

// Vector holds one intensity in [0,1] per action unit.
// The zero value is empty and means no face was measured.
type Vector struct {
	values  [NumUnits]float64
	present bool
}

// Get returns the intensity of u, 0 for an empty vector or unknown unit.
func (v Vector) Get(u Unit) float64 {
	if !u.Valid() {
		return 0
	}
	return v.values[u]
}

// Set stores a clamped intensity for u and marks the vector non-empty.
func (v *Vector) Set(u Unit, value float64) {
	if !u.Valid() {
		return
	}
	v.values[u] = Clamp(value)
	v.present = true
}

// Empty reports whether no action units were computed.
func (v Vector) Empty() bool {
	return !v.present
}

// Map returns the intensities keyed by unit name, nil for an empty vector.
func (v Vector) Map() map[string]float64 {
	if v.Empty() {
		return nil
	}
	m := make(map[string]float64, NumUnits)
	for i, name := range unitNames {
		m[name] = v.values[i]
	}
	return m
}

// MarshalJSON encodes the vector as an object keyed by unit name.
// An empty vector encodes as an empty object.
func (v Vector) MarshalJSON() ([]byte, error) {
	m := v.Map()
	if m == nil {
		m = map[string]float64{}
	}
	return json.Marshal(m)
}

// Clamp limits value to [0,1]. NaN and infinities clamp to 0.
func Clamp(value float64) float64 {
	switch {
	case math.IsNaN(value), math.IsInf(value, 0):
		return 0
	case value < 0:
		return 0
	case value > 1:
		return 1
	}
	return value
}
