package facs

import (
	"math"

	"github.com/ayusman/navarasa/internal/landmark"
)

// Extract converts one landmark frame into action unit intensities.
//
// An empty frame yields an empty Vector and no error. A frame that fails
// validation yields an empty Vector together with an error wrapping
// landmark.ErrInvalidFrame, so callers can fall back to "no face" while still
// telling corrupt input apart from an absent face.
//
// Unit formulas (y grows downward in normalized image coordinates):
//   - AU1, AU2: brow height above the nasion, averaged left/right
//   - AU4: brow drop below the mid forehead, averaged left/right
//   - AU5: upper lid height above the eye center, averaged left/right
//   - AU6: 1 - mean cheek to nose tip distance
//   - AU7: mean vertical lid gap
//   - AU12: lip corner span relative to face width
//   - AU15: lip corner drop below the lip center
//   - AU23, AU25: inner lip gap
//   - AU26: chin to nose base height
//
// Each raw measure is divided by the unit's threshold and clamped.
func Extract(f landmark.Frame) (Vector, error) {
	if f.Empty() {
		return Vector{}, nil
	}
	if err := f.Validate(); err != nil {
		return Vector{}, err
	}

	var v Vector
	v.Set(AU1, browRaise(f, landmark.BrowInnerLeft, landmark.BrowInnerRight)/thresholds[AU1])
	v.Set(AU2, browRaise(f, landmark.BrowMidLeft, landmark.BrowMidRight)/thresholds[AU2])
	v.Set(AU4, browLower(f)/thresholds[AU4])
	v.Set(AU5, upperLidRaise(f)/thresholds[AU5])
	v.Set(AU6, 1-cheekDistance(f)/thresholds[AU6])
	v.Set(AU7, lidGap(f)/thresholds[AU7])
	v.Set(AU12, lipStretch(f)/thresholds[AU12])
	v.Set(AU15, lipDepression(f)/thresholds[AU15])
	v.Set(AU23, innerLipGap(f)/thresholds[AU23])
	v.Set(AU25, innerLipGap(f)/thresholds[AU25])
	v.Set(AU26, math.Abs(f[landmark.ChinBottom].Y-f[landmark.NoseBase].Y)/thresholds[AU26])
	return v, nil
}

func browRaise(f landmark.Frame, left, right int) float64 {
	ref := f[landmark.Nasion].Y
	return ((ref - f[left].Y) + (ref - f[right].Y)) / 2
}

func browLower(f landmark.Frame) float64 {
	ref := f[landmark.ForeheadMid].Y
	return ((f[landmark.BrowLowerLeft].Y - ref) + (f[landmark.BrowLowerRight].Y - ref)) / 2
}

// upperLidRaise uses the iris centers when the mesh is refined, otherwise the
// midpoint between upper and lower lid stands in for the eye center.
func upperLidRaise(f landmark.Frame) float64 {
	var leftCenter, rightCenter landmark.Point3D
	if f.Refined() {
		leftCenter = f[landmark.LeftIrisCenter]
		rightCenter = f[landmark.RightIrisCenter]
	} else {
		leftCenter = landmark.Midpoint(f[landmark.LeftUpperLid], f[landmark.LeftLidLower])
		rightCenter = landmark.Midpoint(f[landmark.RightUpperLid], f[landmark.RightLidLower])
	}

	leftRaise := leftCenter.Y - f[landmark.LeftUpperLid].Y
	rightRaise := rightCenter.Y - f[landmark.RightUpperLid].Y
	return (leftRaise + rightRaise) / 2
}

func cheekDistance(f landmark.Frame) float64 {
	nose := f[landmark.NoseTip]
	left := landmark.Distance2D(f[landmark.CheekLeft], nose)
	right := landmark.Distance2D(f[landmark.CheekRight], nose)
	return (left + right) / 2
}

func lidGap(f landmark.Frame) float64 {
	left := math.Abs(f[landmark.LeftLidTightUp].Y - f[landmark.LeftLidTightLo].Y)
	right := math.Abs(f[landmark.RightLidTightUp].Y - f[landmark.RightLidTightLo].Y)
	return (left + right) / 2
}

// lipStretch returns 0 when the face width is not positive.
func lipStretch(f landmark.Frame) float64 {
	width := FaceWidth(f)
	if width <= 0 {
		return 0
	}
	return landmark.Distance2D(f[landmark.LipCornerLeft], f[landmark.LipCornerRight]) / width
}

func lipDepression(f landmark.Frame) float64 {
	center := f[landmark.LipCenter].Y
	return ((f[landmark.LipCornerLeft].Y - center) + (f[landmark.LipCornerRight].Y - center)) / 2
}

func innerLipGap(f landmark.Frame) float64 {
	return math.Abs(f[landmark.UpperInnerLip].Y - f[landmark.LowerInnerLip].Y)
}

// FaceWidth returns the horizontal temple-to-temple distance used for normalization.
func FaceWidth(f landmark.Frame) float64 {
	left, okL := f.At(landmark.TempleLeft)
	right, okR := f.At(landmark.TempleRight)
	if !okL || !okR {
		return 0
	}
	return right.X - left.X
}
