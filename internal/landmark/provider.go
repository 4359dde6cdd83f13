package landmark

import (
	"context"
	"io"
	"sync"
)

// Provider delivers landmark frames from an external face tracker.
type Provider interface {
	// Next blocks until the next frame is available.
	// An empty frame means no face was detected; io.EOF ends the stream.
	Next(ctx context.Context) (Frame, error)

	// Close releases any resources held by the provider.
	Close() error
}

// MockProvider is a test implementation of the Provider interface.
// It replays a scripted sequence of frames.
type MockProvider struct {
	mu     sync.Mutex
	frames []Frame
	pos    int
	err    error
	closed bool
}

// NewMockProvider creates a new MockProvider replaying frames in order.
func NewMockProvider(frames ...Frame) *MockProvider {
	return &MockProvider{frames: frames}
}

// SetFrames replaces the scripted frames and rewinds the provider.
func (m *MockProvider) SetFrames(frames []Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = frames
	m.pos = 0
}

// SetError sets the error that will be returned by Next.
func (m *MockProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Next returns the next scripted frame, the configured error, or io.EOF.
func (m *MockProvider) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	if m.closed || m.pos >= len(m.frames) {
		return nil, io.EOF
	}
	f := m.frames[m.pos]
	m.pos++
	return f, nil
}

// Close marks the provider exhausted.
func (m *MockProvider) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// NeutralFace returns a preset Frame representing a relaxed, neutral face.
// Points not used by the classifier sit at the image center.
func NeutralFace() Frame {
	f := make(Frame, NumPoints)
	for i := range f {
		f[i] = Point3D{X: 0.5, Y: 0.5}
	}

	// Brows and their references
	f[Nasion] = Point3D{X: 0.50, Y: 0.40}
	f[BrowInnerLeft] = Point3D{X: 0.42, Y: 0.38}
	f[BrowInnerRight] = Point3D{X: 0.58, Y: 0.38}
	f[BrowMidLeft] = Point3D{X: 0.46, Y: 0.39}
	f[BrowMidRight] = Point3D{X: 0.54, Y: 0.39}
	f[ForeheadMid] = Point3D{X: 0.50, Y: 0.30}
	f[BrowLowerLeft] = Point3D{X: 0.42, Y: 0.31}
	f[BrowLowerRight] = Point3D{X: 0.58, Y: 0.31}

	// Eyelids
	f[RightUpperLid] = Point3D{X: 0.38, Y: 0.44}
	f[RightLidLower] = Point3D{X: 0.38, Y: 0.46}
	f[LeftUpperLid] = Point3D{X: 0.62, Y: 0.44}
	f[LeftLidLower] = Point3D{X: 0.62, Y: 0.46}
	f[RightLidTightUp] = Point3D{X: 0.37, Y: 0.44}
	f[RightLidTightLo] = Point3D{X: 0.37, Y: 0.46}
	f[LeftLidTightUp] = Point3D{X: 0.63, Y: 0.44}
	f[LeftLidTightLo] = Point3D{X: 0.63, Y: 0.46}

	// Nose and cheeks (cheeks rest wider than the raise threshold)
	f[NoseTip] = Point3D{X: 0.50, Y: 0.55}
	f[NoseBase] = Point3D{X: 0.50, Y: 0.48}
	f[CheekLeft] = Point3D{X: 0.18, Y: 0.55}
	f[CheekRight] = Point3D{X: 0.82, Y: 0.55}

	// Mouth, flat and almost closed
	f[LipCornerLeft] = Point3D{X: 0.45, Y: 0.70}
	f[LipCornerRight] = Point3D{X: 0.55, Y: 0.70}
	f[LipCenter] = Point3D{X: 0.50, Y: 0.70}
	f[UpperInnerLip] = Point3D{X: 0.50, Y: 0.70}
	f[LowerInnerLip] = Point3D{X: 0.50, Y: 0.71}

	// Jaw and face width
	f[ChinBottom] = Point3D{X: 0.50, Y: 0.90}
	f[TempleLeft] = Point3D{X: 0.15, Y: 0.50}
	f[TempleRight] = Point3D{X: 0.85, Y: 0.50}

	return f
}

// RaisedBrowFace returns a neutral face with both brow pairs raised
// far enough to drive AU1 and AU2 to about 0.9.
func RaisedBrowFace() Frame {
	f := NeutralFace()
	f[BrowInnerLeft].Y = 0.238
	f[BrowInnerRight].Y = 0.238
	f[BrowMidLeft].Y = 0.202
	f[BrowMidRight].Y = 0.202
	return f
}

// FrownFace returns a neutral face with lowered brows (AU4 near 0.93).
func FrownFace() Frame {
	f := NeutralFace()
	f[BrowLowerLeft].Y = 0.44
	f[BrowLowerRight].Y = 0.44
	return f
}

// DegenerateFace returns a neutral face whose temples coincide,
// giving a zero face width.
func DegenerateFace() Frame {
	f := NeutralFace()
	f[TempleRight] = f[TempleLeft]
	return f
}

// WithIris extends a base frame to a refined mesh with the given iris centers.
// The remaining iris contour points are placed on their centers.
func WithIris(f Frame, right, left Point3D) Frame {
	out := make(Frame, NumRefinedPoints)
	copy(out, f)
	for i := NumPoints; i < NumRefinedPoints; i++ {
		if i < LeftIrisCenter {
			out[i] = right
		} else {
			out[i] = left
		}
	}
	return out
}
