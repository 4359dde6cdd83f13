package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/navarasa/internal/landmark"
	"github.com/ayusman/navarasa/internal/session"
)

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StreamHandler classifies landmark frames arriving over a WebSocket and
// pushes every result of the session back to the client.
//
// Inbound messages are landmark.Message JSON objects. When classification
// falls behind, stale frames are dropped in favour of the newest one.
type StreamHandler struct {
	sessions *session.Manager
	log      *zap.Logger
}

// NewStreamHandler creates a new StreamHandler over the given sessions.
func NewStreamHandler(m *session.Manager, logger *zap.Logger) *StreamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamHandler{sessions: m, log: logger}
}

// ServeHTTP handles WebSocket upgrade requests for /api/sessions/{id}/ws.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := h.sessions.Get(id)
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade error", zap.String("session", id), zap.Error(err))
		return
	}
	defer conn.Close()

	log := h.log.With(zap.String("session", id))
	log.Debug("stream client connected")

	if err := h.serve(r.Context(), conn, sess); err != nil {
		log.Debug("stream closed", zap.Error(err))
	}
}

func (h *StreamHandler) serve(parent context.Context, conn *websocket.Conn, sess *session.Session) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	results, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	latest := landmark.NewLatest()
	g, ctx := errgroup.WithContext(ctx)

	// Any side ending ends the connection.
	g.Go(func() error {
		<-ctx.Done()
		conn.Close()
		return nil
	})

	// Reader: the client's frames go into the keep-latest mailbox.
	g.Go(func() error {
		defer cancel()
		defer latest.Close()
		for {
			var msg landmark.Message
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return nil
				}
				return err
			}
			latest.Put(msg.Frame())
		}
	})

	// Classifier.
	g.Go(func() error {
		defer cancel()
		for {
			f, err := latest.Take(ctx)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			_, err = sess.Process(ctx, f)
			if err != nil && !errors.Is(err, landmark.ErrInvalidFrame) {
				return err
			}
		}
	})

	// Writer: the only goroutine writing to conn.
	g.Go(func() error {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return nil
			case res, ok := <-results:
				if !ok {
					return session.ErrClosed
				}
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteJSON(res); err != nil {
					return err
				}
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
