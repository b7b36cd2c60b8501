package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lehigh-university-libraries/museetour/internal/i18n"
	"github.com/lehigh-university-libraries/museetour/internal/navigation"
	"github.com/lehigh-university-libraries/museetour/internal/scan"
	"github.com/lehigh-university-libraries/museetour/internal/session"
)

type scanRequest struct {
	Payload string `json:"payload"`
}

type scanResponse struct {
	Resolution scan.Resolution    `json:"resolution"`
	Outcome    navigation.Outcome `json:"outcome"`
	Message    string             `json:"message,omitempty"`
	Duplicate  bool               `json:"duplicate,omitempty"`
}

type sessionResponse struct {
	session.Snapshot
	Message string `json:"message,omitempty"`
}

const maxPayloadBytes = 64 << 10

// HandleScan resolves one payload without a session
func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayloadBytes)).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	tag := negotiate(w, r)
	res := h.resolver.Resolve(req.Payload)
	outcome := h.navigator.Navigate(res)
	h.writeJSON(w, scanResponse{
		Resolution: res,
		Outcome:    outcome,
		Message:    i18n.Message(tag, outcome.MessageKey),
	})
}

func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Create()
	h.writeJSONStatus(w, http.StatusCreated, sessionResponse{Snapshot: sess.Snapshot()})
}

func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	h.writeJSON(w, sessionResponse{Snapshot: sess.Snapshot()})
}

func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Delete(chi.URLParam(r, "id")) {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePermission records the browser's answer to the camera prompt.
// A granted permission starts scanning straight away.
func (h *Handler) HandlePermission(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req struct {
		Granted bool   `json:"granted"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayloadBytes)).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	tag := negotiate(w, r)
	if req.Granted {
		if err := sess.Grant(); err != nil {
			h.writeSessionError(w, err)
			return
		}
		if err := sess.Start(); err != nil {
			h.writeSessionError(w, err)
			return
		}
		h.writeJSON(w, sessionResponse{Snapshot: sess.Snapshot()})
		return
	}

	reason, err := sess.Deny(req.Error)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	h.writeJSON(w, sessionResponse{
		Snapshot: sess.Snapshot(),
		Message:  i18n.Message(tag, reason.MessageKey()),
	})
}

func (h *Handler) HandleRetry(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if err := sess.Retry(); err != nil {
		h.writeSessionError(w, err)
		return
	}
	h.writeJSON(w, sessionResponse{Snapshot: sess.Snapshot()})
}

// HandleDetection submits a decoded payload to a scanning session
func (h *Handler) HandleDetection(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req scanRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayloadBytes)).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	tag := negotiate(w, r)
	d, err := sess.Detect(req.Payload)
	if err != nil && !errors.Is(err, session.ErrAlreadyDetected) {
		h.writeSessionError(w, err)
		return
	}

	resp := scanResponse{
		Resolution: d.Resolution,
		Outcome:    d.Outcome,
		Duplicate:  d.Duplicate,
	}
	if d.Outcome.MessageKey != "" {
		resp.Message = i18n.Message(tag, d.Outcome.MessageKey)
	}
	h.writeJSON(w, resp)
}

func (h *Handler) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrClosed):
		h.writeError(w, err.Error(), http.StatusGone)
	case errors.Is(err, session.ErrInvalidTransition):
		h.writeError(w, err.Error(), http.StatusConflict)
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}
