package landmark

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Message is the JSON shape of one frame on the wire.
// A missing or empty landmarks array means no face was detected.
type Message struct {
	Landmarks []Point3D `json:"landmarks"`
	Timestamp int64     `json:"timestamp,omitempty"`
}

// Frame converts the message to a Frame.
func (m Message) Frame() Frame {
	if len(m.Landmarks) == 0 {
		return nil
	}
	return Frame(m.Landmarks)
}

// Decoder reads newline-delimited JSON frames, the format written by an
// external face mesh process on its stdout.
type Decoder struct {
	r      *bufio.Reader
	closer io.Closer
	line   int
}

// NewDecoder creates a Decoder reading from r.
// If r is an io.Closer it is closed by Close.
func NewDecoder(r io.Reader) *Decoder {
	d := &Decoder{r: bufio.NewReader(r)}
	if c, ok := r.(io.Closer); ok {
		d.closer = c
	}
	return d
}

// Next returns the next frame in the stream. Blank lines are skipped.
func (d *Decoder) Next(ctx context.Context) (Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line, err := d.r.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read frame: %w", err)
		}
		if len(line) > 0 {
			d.line++
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			if err != nil {
				return nil, io.EOF
			}
			continue
		}

		var msg Message
		if jerr := json.Unmarshal(line, &msg); jerr != nil {
			return nil, fmt.Errorf("parse frame on line %d: %w", d.line, jerr)
		}
		return msg.Frame(), nil
	}
}

// Close closes the underlying reader when it supports closing.
func (d *Decoder) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}
