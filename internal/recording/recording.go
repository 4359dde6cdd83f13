// Package recording embeds recorded landmark sessions used by tests and demos.
//
// Each recording is newline-delimited JSON as produced by a face mesh
// tracker, one frame per line:
//
//	sustained_sadness  4 neutral frames, then 6 with raised inner brows
//	sustained_anger    6 frames with lowered brows, then 4 neutral
//	calm_refined       9 neutral frames from the 478-point refined mesh
//	no_face            10 frames without a detected face
package recording

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/ayusman/navarasa/internal/landmark"
)

//go:embed sessions/*.ndjson
var sessionsFS embed.FS

// Open returns a reader over a recorded session by name.
func Open(name string) (io.ReadCloser, error) {
	f, err := sessionsFS.Open(path.Join("sessions", name+".ndjson"))
	if err != nil {
		return nil, fmt.Errorf("open session %s: %w", name, err)
	}
	return f, nil
}

// LoadSession decodes every frame of a recorded session.
func LoadSession(name string) ([]landmark.Frame, error) {
	r, err := Open(name)
	if err != nil {
		return nil, err
	}

	dec := landmark.NewDecoder(r)
	defer dec.Close()

	var frames []landmark.Frame
	for {
		f, err := dec.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return nil, fmt.Errorf("load session %s: %w", name, err)
		}
		frames = append(frames, f)
	}
}

// Sessions lists the names of the recorded sessions.
func Sessions() ([]string, error) {
	entries, err := fs.ReadDir(sessionsFS, "sessions")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".ndjson"))
	}
	sort.Strings(names)
	return names, nil
}
