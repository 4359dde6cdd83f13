package landmark

import (
	"context"
	"io"
	"sync"
)

// Latest is a single-slot mailbox between a frame producer and the classifier.
// Put never blocks and replaces any frame that has not been taken yet, so the
// consumer always sees the most recent frame and never works through a backlog.
type Latest struct {
	mu      sync.Mutex
	frame   Frame
	pending bool
	closed  bool
	dropped uint64
	signal  chan struct{}
}

// NewLatest creates an empty mailbox.
func NewLatest() *Latest {
	return &Latest{signal: make(chan struct{}, 1)}
}

// Put stores f, discarding an unconsumed previous frame.
// Frames put after Close are ignored.
func (l *Latest) Put(f Frame) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	if l.pending {
		l.dropped++
	}
	l.frame = f
	l.pending = true
	l.mu.Unlock()

	l.notify()
}

// Take blocks until a frame is available, the mailbox is closed (io.EOF),
// or ctx is done. A frame put before Close is still delivered.
func (l *Latest) Take(ctx context.Context) (Frame, error) {
	for {
		l.mu.Lock()
		if l.pending {
			f := l.frame
			l.frame = nil
			l.pending = false
			l.mu.Unlock()
			return f, nil
		}
		if l.closed {
			l.mu.Unlock()
			return nil, io.EOF
		}
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-l.signal:
		}
	}
}

// Close wakes any waiting consumer; subsequent Takes return io.EOF once drained.
func (l *Latest) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.notify()
}

// Dropped returns how many frames were overwritten before being taken.
func (l *Latest) Dropped() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

func (l *Latest) notify() {
	select {
	case l.signal <- struct{}{}:
	default:
	}
}
