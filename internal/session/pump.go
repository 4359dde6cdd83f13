package session

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/navarasa/internal/landmark"
)

// Pump feeds frames from p into the session until p is exhausted or ctx is
// done. Reading and classification run on separate goroutines joined by a
// single-slot mailbox: when classification falls behind, older frames are
// dropped and the newest one is processed next.
//
// Malformed frames are recorded as "no face" and do not stop the pump.
// Pump returns nil when p reports io.EOF. When ctx is done or processing
// fails, p is closed so a blocked read returns.
func (s *Session) Pump(ctx context.Context, p landmark.Provider) error {
	latest := landmark.NewLatest()
	drained := make(chan struct{})
	g, ctx := errgroup.WithContext(ctx)

	// A provider blocked in a read only notices cancellation once closed.
	g.Go(func() error {
		select {
		case <-ctx.Done():
			if err := p.Close(); err != nil {
				s.log.Debug("close provider", zap.Error(err))
			}
		case <-drained:
		}
		return nil
	})

	g.Go(func() error {
		defer latest.Close()
		for {
			f, err := p.Next(ctx)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return err
			}
			latest.Put(f)
		}
	})

	g.Go(func() error {
		for {
			f, err := latest.Take(ctx)
			if errors.Is(err, io.EOF) {
				close(drained)
				return nil
			}
			if err != nil {
				return err
			}
			if _, err := s.Process(ctx, f); err != nil && !errors.Is(err, landmark.ErrInvalidFrame) {
				return err
			}
		}
	})

	err := g.Wait()
	if n := latest.Dropped(); n > 0 {
		s.log.Debug("dropped stale frames", zap.Uint64("dropped", n))
	}
	return err
}
