// Package session runs the classification pipeline for one viewer: frames go
// through action-unit extraction and emotion scoring into the session's
// histories, and status transitions are published to a sink.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayusman/navarasa/internal/assess"
	"github.com/ayusman/navarasa/internal/emotion"
	"github.com/ayusman/navarasa/internal/facs"
	"github.com/ayusman/navarasa/internal/landmark"
)

// ErrClosed is returned when processing frames on a closed session.
var ErrClosed = errors.New("session closed")

// StatusSink receives assessments whenever a session's status changes.
type StatusSink interface {
	Publish(ctx context.Context, sessionID string, a assess.Assessment) error
}

// Options configures a new Session.
type Options struct {
	// ID is generated when empty.
	ID string
	// Locale selects the advisory language. Defaults to English.
	Locale string
	// Rules defaults to assess.DefaultRules.
	Rules  *assess.Rules
	Logger *zap.Logger
	Sink   StatusSink
}

// Result is the outcome of processing one frame.
type Result struct {
	SessionID   string              `json:"session_id"`
	Seq         uint64              `json:"seq"`
	FaceID      string              `json:"face_id,omitempty"`
	Face        bool                `json:"face"`
	ActionUnits facs.Vector         `json:"action_units"`
	Emotions    emotion.Vector      `json:"emotions"`
	Percentages emotion.Percentages `json:"percentages"`
	Assessment  assess.Assessment   `json:"assessment"`
	Insights    []string            `json:"insights,omitempty"`
	At          time.Time           `json:"at"`
}

// Text renders the result the way it is shown to users.
func (r Result) Text() string {
	return emotion.Format(r.Emotions, r.Assessment.Label)
}

// Session owns the histories and assessment state for one viewer.
type Session struct {
	id        string
	locale    string
	createdAt time.Time
	log       *zap.Logger
	sink      StatusSink
	engine    assess.Engine
	history   *assess.History
	display   *assess.History

	mu      sync.Mutex
	seq     uint64
	current assess.Assessment
	closed  bool

	// pubMu orders sink writes; it is never held together with mu.
	pubMu         sync.Mutex
	pubSeq        uint64
	published     bool
	lastPublished assess.Status

	subMu   sync.Mutex
	subs    map[int]chan Result
	nextSub int
	lastSeq uint64
}

// New creates a session with empty histories.
func New(opts Options) (*Session, error) {
	rules := assess.DefaultRules
	if opts.Rules != nil {
		rules = *opts.Rules
	}
	history, err := rules.NewHistory()
	if err != nil {
		return nil, fmt.Errorf("status history: %w", err)
	}
	display, err := assess.NewHistory(assess.DisplayCapacity)
	if err != nil {
		return nil, fmt.Errorf("display history: %w", err)
	}

	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	advisor := assess.NewAdvisor(opts.Locale)
	engine := assess.Engine{Rules: rules, Advisor: advisor}

	return &Session{
		id:        id,
		locale:    advisor.Locale(),
		createdAt: time.Now().UTC(),
		log:       logger.With(zap.String("session", id)),
		sink:      opts.Sink,
		engine:    engine,
		history:   history,
		display:   display,
		current:   engine.Assess(nil),
		subs:      make(map[int]chan Result),
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Locale returns the resolved advisory locale.
func (s *Session) Locale() string { return s.locale }

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Process classifies one frame and updates the session.
//
// A malformed frame is recorded as "no face" so the history keeps moving,
// and the landmark.ErrInvalidFrame is returned together with that result.
// The sink is written after the session state is released, so readers never
// wait on it.
func (s *Session) Process(ctx context.Context, frame landmark.Frame) (Result, error) {
	res, err := s.classify(frame)
	if errors.Is(err, ErrClosed) {
		return Result{}, err
	}

	s.publish(ctx, res.Seq, res.Assessment)
	s.broadcast(res)

	return res, err
}

// classify runs the pipeline stages and updates the histories under mu.
// An invalid frame still yields a result along with its error.
func (s *Session) classify(frame landmark.Frame) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Result{}, ErrClosed
	}

	au, frameErr := facs.Extract(frame)
	if frameErr != nil {
		s.log.Warn("treating malformed frame as no face",
			zap.Int("points", len(frame)), zap.Error(frameErr))
		au = facs.Vector{}
	}
	scores := emotion.Score(au)

	s.history.Push(scores)
	s.display.Push(scores)
	s.current = s.engine.Assess(s.history.Entries())
	s.seq++

	res := Result{
		SessionID:   s.id,
		Seq:         s.seq,
		Face:        scores.Face(),
		ActionUnits: au,
		Emotions:    scores,
		Percentages: scores.Percentages(),
		Assessment:  s.current,
		Insights:    emotion.Insights(scores, au),
		At:          time.Now().UTC(),
	}
	if res.Face {
		res.FaceID = landmark.Fingerprint(frame)
	}
	return res, frameErr
}

// publish forwards a, the assessment after frame seq, when its status differs
// from the last one the sink accepted. Assessments older than one already
// considered are skipped. Failed publishes are retried on the next frame.
func (s *Session) publish(ctx context.Context, seq uint64, a assess.Assessment) {
	if s.sink == nil {
		return
	}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	if seq < s.pubSeq {
		return
	}
	s.pubSeq = seq
	if s.published && a.Status == s.lastPublished {
		return
	}

	if err := s.sink.Publish(ctx, s.id, a); err != nil {
		s.log.Error("failed to publish assessment",
			zap.String("status", a.Status.Code()), zap.Error(err))
		return
	}
	s.log.Info("status changed",
		zap.String("status", a.Status.Code()),
		zap.Int("observed", a.Observed))
	s.published = true
	s.lastPublished = a.Status
}

// Assessment returns the assessment of the current status history.
func (s *Session) Assessment() assess.Assessment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Display returns the short display history, oldest first.
func (s *Session) Display() []emotion.Vector {
	return s.display.Entries()
}

// History returns the status history, oldest first.
func (s *Session) History() []emotion.Vector {
	return s.history.Entries()
}

// Seq returns the number of frames processed.
func (s *Session) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Subscribe returns a channel carrying the most recent Result. A slow reader
// only misses intermediate results. The returned func unsubscribes and
// closes the channel.
func (s *Session) Subscribe() (<-chan Result, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	ch := make(chan Result, 1)
	if s.subs == nil {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

func (s *Session) broadcast(res Result) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if res.Seq < s.lastSeq {
		return
	}
	s.lastSeq = res.Seq

	for _, ch := range s.subs {
		select {
		case ch <- res:
		default:
			// Replace the stale result.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- res:
			default:
			}
		}
	}
}

// Close ends the session. Subscribers see their channels closed.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.subs = nil
}
