package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ayusman/navarasa/internal/assess"
	"github.com/ayusman/navarasa/internal/emotion"
	"github.com/ayusman/navarasa/internal/landmark"
	"github.com/ayusman/navarasa/internal/session"
	"github.com/ayusman/navarasa/internal/store"
)

// SessionHandler handles HTTP requests for session resources.
type SessionHandler struct {
	sessions *session.Manager
	store    *store.Store
	stream   http.Handler
	log      *zap.Logger
}

// NewSessionHandler creates a SessionHandler. The store is optional; without
// it sessions are not recorded and the transition log is unavailable.
func NewSessionHandler(m *session.Manager, s *store.Store, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{sessions: m, store: s, log: logger}
}

// WithStream registers the per-session live stream handler at /{id}/ws.
func (h *SessionHandler) WithStream(stream http.Handler) *SessionHandler {
	h.stream = stream
	return h
}

// Routes registers the session endpoints on r.
func (h *SessionHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Delete("/", h.delete)
		r.Post("/frames", h.processFrame)
		r.Get("/history", h.history)
		r.Get("/assessment", h.assessment)
		r.Get("/assessments", h.assessments)
		if h.stream != nil {
			r.Get("/ws", h.stream.ServeHTTP)
		}
	})
}

// Request and response types

type createSessionRequest struct {
	Locale string `json:"locale"`
}

type sessionResponse struct {
	ID         string            `json:"id"`
	Locale     string            `json:"locale"`
	CreatedAt  string            `json:"created_at"`
	Frames     uint64            `json:"frames"`
	Assessment assess.Assessment `json:"assessment"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type historyEntry struct {
	Face        bool                `json:"face"`
	Dominant    string              `json:"dominant,omitempty"`
	Emotions    emotion.Vector      `json:"emotions"`
	Percentages emotion.Percentages `json:"percentages"`
}

type historyResponse struct {
	Capacity int            `json:"capacity"`
	Entries  []historyEntry `json:"entries"`
}

type assessmentEntry struct {
	Status    assess.Status `json:"status"`
	Label     string        `json:"label"`
	Advisory  string        `json:"advisory"`
	Observed  int           `json:"observed"`
	CreatedAt string        `json:"created_at"`
}

type listAssessmentsResponse struct {
	Assessments []assessmentEntry `json:"assessments"`
}

// toResponse converts a live session to a sessionResponse.
func toResponse(s *session.Session) sessionResponse {
	return sessionResponse{
		ID:         s.ID(),
		Locale:     s.Locale(),
		CreatedAt:  formatTime(s.CreatedAt()),
		Frames:     s.Seq(),
		Assessment: s.Assessment(),
	}
}

// lookup resolves the {id} URL parameter, writing a 404 when unknown.
func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return nil, false
	}
	return s, true
}

// list handles GET /api/sessions and returns the live sessions.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	live := h.sessions.List()
	response := listSessionsResponse{
		Sessions: make([]sessionResponse, 0, len(live)),
	}
	for _, s := range live {
		response.Sessions = append(response.Sessions, toResponse(s))
	}
	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/sessions. The body is optional.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	s, err := h.sessions.Create(req.Locale)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	if h.store != nil {
		rec := &store.Session{ID: s.ID(), Locale: s.Locale(), CreatedAt: s.CreatedAt()}
		if err := h.store.Sessions().Create(r.Context(), rec); err != nil {
			h.sessions.Delete(s.ID())
			h.log.Error("failed to record session", zap.String("session", s.ID()), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to create session")
			return
		}
	}

	writeJSON(w, http.StatusCreated, toResponse(s))
}

// get handles GET /api/sessions/{id}.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toResponse(s))
}

// delete handles DELETE /api/sessions/{id}.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.sessions.Delete(id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	if h.store != nil {
		if err := h.store.Sessions().End(r.Context(), id); err != nil && !errors.Is(err, store.ErrNotFound) {
			h.log.Warn("failed to mark session ended", zap.String("session", id), zap.Error(err))
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// processFrame handles POST /api/sessions/{id}/frames.
func (h *SessionHandler) processFrame(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var msg landmark.Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	res, err := s.Process(r.Context(), msg.Frame())
	switch {
	case errors.Is(err, landmark.ErrInvalidFrame):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, session.ErrClosed):
		writeError(w, http.StatusGone, "Session ended")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to process frame")
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

// history handles GET /api/sessions/{id}/history and returns the display history.
func (h *SessionHandler) history(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	entries := s.Display()
	response := historyResponse{
		Capacity: assess.DisplayCapacity,
		Entries:  make([]historyEntry, 0, len(entries)),
	}
	for _, v := range entries {
		e := historyEntry{
			Face:        v.Face(),
			Emotions:    v,
			Percentages: v.Percentages(),
		}
		if c, ok := v.Dominant(); ok {
			e.Dominant = c.String()
		}
		response.Entries = append(response.Entries, e)
	}
	writeJSON(w, http.StatusOK, response)
}

// assessment handles GET /api/sessions/{id}/assessment.
func (h *SessionHandler) assessment(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Assessment())
}

// assessments handles GET /api/sessions/{id}/assessments and returns the
// persisted status transitions.
func (h *SessionHandler) assessments(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "Assessment log is not configured")
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := h.store.Sessions().GetByID(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	entries, err := h.store.Assessments().ListBySession(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list assessments")
		return
	}

	response := listAssessmentsResponse{
		Assessments: make([]assessmentEntry, 0, len(entries)),
	}
	for _, a := range entries {
		response.Assessments = append(response.Assessments, assessmentEntry{
			Status:    a.Status,
			Label:     a.Status.String(),
			Advisory:  a.Advisory,
			Observed:  a.Observed,
			CreatedAt: formatTime(a.CreatedAt),
		})
	}
	writeJSON(w, http.StatusOK, response)
}
