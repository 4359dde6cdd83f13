package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ayusman/navarasa/internal/assess"
	"github.com/ayusman/navarasa/internal/emotion"
	"github.com/ayusman/navarasa/internal/landmark"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type published struct {
	session string
	status  assess.Status
}

type recordingSink struct {
	mu    sync.Mutex
	calls []published
	err   error
}

func (r *recordingSink) Publish(_ context.Context, id string, a assess.Assessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, published{id, a.Status})
	return nil
}

func (r *recordingSink) statuses() []assess.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]assess.Status, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.status
	}
	return out
}

func (r *recordingSink) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func newSession(t *testing.T, sink StatusSink) *Session {
	t.Helper()
	s, err := New(Options{Sink: sink})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestNew(t *testing.T) {
	s := newSession(t, nil)
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, assess.LocaleEnglish, s.Locale())
	assert.Equal(t, assess.Normal, s.Assessment().Status)
	assert.Empty(t, s.History())

	bad := assess.DefaultRules
	bad.SadCount = 99
	_, err := New(Options{Rules: &bad})
	assert.Error(t, err)

	fixed, err := New(Options{ID: "abc", Locale: "id-ID"})
	require.NoError(t, err)
	defer fixed.Close()
	assert.Equal(t, "abc", fixed.ID())
	assert.Equal(t, assess.LocaleIndonesian, fixed.Locale())
}

func TestProcess_NeutralBecomesStable(t *testing.T) {
	sink := &recordingSink{}
	s := newSession(t, sink)
	ctx := context.Background()

	var res Result
	var err error
	for i := 0; i < 9; i++ {
		res, err = s.Process(ctx, landmark.NeutralFace())
		require.NoError(t, err)
	}

	assert.Equal(t, uint64(9), res.Seq)
	assert.True(t, res.Face)
	assert.NotEmpty(t, res.FaceID)
	assert.Equal(t, s.ID(), res.SessionID)
	assert.Equal(t, assess.StableMentalState, res.Assessment.Status)
	assert.Equal(t, 9, res.Assessment.Observed)
	assert.Equal(t, emotion.NeutralScore, res.Emotions.Get(emotion.Neutral))
	assert.Contains(t, res.Text(), "Conclusion: Stable Mental State")

	// First assessment, then one transition.
	assert.Equal(t, []assess.Status{assess.Normal, assess.StableMentalState}, sink.statuses())
}

func TestProcess_SustainedSadness(t *testing.T) {
	sink := &recordingSink{}
	s := newSession(t, sink)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := s.Process(ctx, landmark.NeutralFace())
		require.NoError(t, err)
	}
	for i := 0; i < 6; i++ {
		_, err := s.Process(ctx, landmark.RaisedBrowFace())
		require.NoError(t, err)
	}

	a := s.Assessment()
	assert.Equal(t, assess.PotentialDepression, a.Status)
	assert.Equal(t, 6, a.Counts.Sad)
	assert.Equal(t, assess.DefaultAdvisor.Advice(assess.PotentialDepression), a.Advisory)
	assert.Equal(t, assess.PotentialDepression, sink.statuses()[len(sink.statuses())-1])
}

func TestProcess_NoFace(t *testing.T) {
	sink := &recordingSink{}
	s := newSession(t, sink)

	var res Result
	for i := 0; i < 10; i++ {
		var err error
		res, err = s.Process(context.Background(), nil)
		require.NoError(t, err)
	}

	assert.False(t, res.Face)
	assert.Empty(t, res.FaceID)
	assert.Nil(t, res.Insights)
	assert.Equal(t, "No face detected", res.Text())
	assert.Equal(t, assess.Normal, res.Assessment.Status)
	assert.Zero(t, res.Assessment.Observed)
	assert.Len(t, s.History(), 10)
	assert.Equal(t, []assess.Status{assess.Normal}, sink.statuses())
}

func TestProcess_InvalidFrame(t *testing.T) {
	s := newSession(t, nil)

	res, err := s.Process(context.Background(), make(landmark.Frame, 12))
	require.Error(t, err)
	assert.True(t, errors.Is(err, landmark.ErrInvalidFrame))
	assert.Equal(t, uint64(1), res.Seq)
	assert.False(t, res.Face)
	assert.Len(t, s.History(), 1, "malformed frame is recorded as no face")
}

func TestProcess_BoundedHistories(t *testing.T) {
	s := newSession(t, nil)
	for i := 0; i < 14; i++ {
		_, err := s.Process(context.Background(), landmark.NeutralFace())
		require.NoError(t, err)
	}
	assert.Len(t, s.History(), assess.StatusCapacity)
	assert.Len(t, s.Display(), assess.DisplayCapacity)
	assert.Equal(t, uint64(14), s.Seq())
}

func TestProcess_RetriesFailedPublish(t *testing.T) {
	sink := &recordingSink{}
	sink.fail(errors.New("disk full"))
	s := newSession(t, sink)

	_, err := s.Process(context.Background(), landmark.NeutralFace())
	require.NoError(t, err, "sink failures do not fail processing")
	assert.Empty(t, sink.statuses())

	sink.fail(nil)
	_, err = s.Process(context.Background(), landmark.NeutralFace())
	require.NoError(t, err)
	assert.Equal(t, []assess.Status{assess.Normal}, sink.statuses())
}

// stallingSink blocks in Publish until release is closed.
type stallingSink struct {
	entered chan struct{}
	release chan struct{}
}

func (k *stallingSink) Publish(ctx context.Context, _ string, _ assess.Assessment) error {
	k.entered <- struct{}{}
	select {
	case <-k.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestProcess_ReadsDuringSlowPublish(t *testing.T) {
	sink := &stallingSink{entered: make(chan struct{}, 1), release: make(chan struct{})}
	s := newSession(t, sink)

	done := make(chan error, 1)
	go func() {
		_, err := s.Process(context.Background(), landmark.NeutralFace())
		done <- err
	}()
	<-sink.entered

	read := make(chan struct{})
	go func() {
		defer close(read)
		assert.Equal(t, uint64(1), s.Seq())
		assert.Equal(t, 1, s.Assessment().Observed)
	}()

	select {
	case <-read:
	case <-time.After(time.Second):
		t.Error("readers blocked while the sink was writing")
	}

	close(sink.release)
	require.NoError(t, <-done)
	<-read
}

func TestSubscribe(t *testing.T) {
	s := newSession(t, nil)
	ch, cancel := s.Subscribe()

	for i := 0; i < 3; i++ {
		_, err := s.Process(context.Background(), landmark.NeutralFace())
		require.NoError(t, err)
	}

	select {
	case res := <-ch:
		assert.Equal(t, uint64(3), res.Seq, "only the latest result is kept")
	case <-time.After(time.Second):
		t.Fatal("no result delivered")
	}

	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
}

func TestClose(t *testing.T) {
	s, err := New(Options{})
	require.NoError(t, err)
	ch, cancel := s.Subscribe()
	defer cancel()

	s.Close()
	_, ok := <-ch
	assert.False(t, ok)

	_, err = s.Process(context.Background(), landmark.NeutralFace())
	assert.ErrorIs(t, err, ErrClosed)

	late, lateCancel := s.Subscribe()
	defer lateCancel()
	_, ok = <-late
	assert.False(t, ok)
}
