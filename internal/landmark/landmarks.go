// Package landmark defines the face-mesh landmark frame consumed by the
// expression classifier, and the providers that deliver frames to it.
package landmark

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Face landmark indices following the MediaPipe Face Mesh numbering.
// See: https://developers.google.com/mediapipe/solutions/vision/face_landmarker
const (
	NoseTip         = 4
	NoseBase        = 6
	UpperInnerLip   = 13
	LowerInnerLip   = 14
	LipCornerLeft   = 61
	LipCenter       = 95
	BrowInnerLeft   = 105
	BrowMidLeft     = 107
	BrowLowerLeft   = 112
	CheekLeft       = 116
	ForeheadMid     = 151
	ChinBottom      = 152
	RightLidLower   = 145
	RightLidTightUp = 158
	RightUpperLid   = 159
	RightLidTightLo = 160
	Nasion          = 168
	TempleLeft      = 234
	LipCornerRight  = 291
	BrowInnerRight  = 334
	BrowMidRight    = 336
	BrowLowerRight  = 341
	CheekRight      = 345
	LeftLidLower    = 374
	LeftLidTightUp  = 385
	LeftUpperLid    = 386
	LeftLidTightLo  = 390
	TempleRight     = 454
	RightIrisCenter = 468
	LeftIrisCenter  = 473

	// MaxReferencedIndex is the highest index read from a base mesh frame.
	MaxReferencedIndex = TempleRight

	// NumPoints is the size of a base face mesh.
	NumPoints = 468
	// NumRefinedPoints is the size of a mesh with iris refinement enabled.
	NumRefinedPoints = 478
)

// ErrInvalidFrame is returned for frames that cannot be a face mesh.
var ErrInvalidFrame = errors.New("invalid landmark frame")

// Point3D represents a 3D point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Frame is one face worth of landmarks in provider order.
// A nil or empty frame means no face was detected.
type Frame []Point3D

// Empty reports whether the frame carries no face.
func (f Frame) Empty() bool {
	return len(f) == 0
}

// Refined reports whether the frame includes iris landmarks.
func (f Frame) Refined() bool {
	return len(f) >= NumRefinedPoints
}

// At returns the landmark at index i, or false when i is out of range.
func (f Frame) At(i int) (Point3D, bool) {
	if i < 0 || i >= len(f) {
		return Point3D{}, false
	}
	return f[i], true
}

// Validate checks the frame against the face mesh contract.
// Empty frames are valid and mean "no face".
func (f Frame) Validate() error {
	if f.Empty() {
		return nil
	}
	if len(f) != NumPoints && len(f) != NumRefinedPoints {
		return fmt.Errorf("%w: got %d points, want %d or %d", ErrInvalidFrame, len(f), NumPoints, NumRefinedPoints)
	}
	for i, p := range f {
		if !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
			return fmt.Errorf("%w: non-finite coordinate at index %d", ErrInvalidFrame, i)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Distance2D calculates the Euclidean distance between two points in the image plane.
func Distance2D(a, b Point3D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point3D) Point3D {
	return Point3D{
		X: (a.X + b.X) / 2,
		Y: (a.Y + b.Y) / 2,
		Z: (a.Z + b.Z) / 2,
	}
}

// Fingerprint returns a short hex identity for the face geometry.
// Coordinates are rounded to 4 decimals so jitter below that does not change it.
// Returns an empty string for an empty frame.
func Fingerprint(f Frame) string {
	if f.Empty() {
		return ""
	}

	var hash uint32 = 5381
	buf := make([]byte, 0, 32)
	for _, p := range f {
		buf = buf[:0]
		buf = strconv.AppendFloat(buf, p.X, 'f', 4, 64)
		buf = strconv.AppendFloat(buf, p.Y, 'f', 4, 64)
		buf = strconv.AppendFloat(buf, p.Z, 'f', 4, 64)
		for _, c := range buf {
			hash = (hash * 33) ^ uint32(c)
		}
	}
	return strconv.FormatUint(uint64(hash), 16)
}
