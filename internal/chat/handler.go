package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Chatbot API is running!"})
}

func (h *Handler) NewSession(w http.ResponseWriter, r *http.Request) {
	id, err := h.svc.NewSession(r.Context())
	if err != nil {
		log.Printf("[http] new session: %v", err)
		writeError(w, http.StatusInternalServerError, "Error creating session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"session_id": id,
		"message":    "New session created successfully",
	})
}

// Chat: one question in a session
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"session_id"`
		Question  string `json:"question"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if payload.SessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session_id")
		return
	}

	reply, err := h.svc.Ask(r.Context(), payload.SessionID, payload.Question)
	if errors.Is(err, ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		log.Printf("[http] chat: %v", err)
		writeError(w, http.StatusInternalServerError, "Error processing chat")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": reply.SessionID,
		"question":   reply.Question,
		"answer":     reply.Answer,
		"outcome":    reply.Outcome,
	})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	msgs, err := h.svc.History(r.Context(), sessionID)
	if err != nil {
		log.Printf("[http] history: %v", err)
		writeError(w, http.StatusInternalServerError, "Error getting chat history")
		return
	}

	type entry struct {
		Question  string `json:"question"`
		Answer    string `json:"answer"`
		Success   bool   `json:"success"`
		CreatedAt string `json:"created_at"`
	}
	history := make([]entry, 0, len(msgs))
	for _, m := range msgs {
		history = append(history, entry{
			Question:  m.Question,
			Answer:    m.Answer,
			Success:   m.Success,
			CreatedAt: time.Unix(m.CreatedAt, 0).UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"history":    history,
	})
}

// writeJSON encodes before writing the header, so an unencodable body
// becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, body any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		log.Printf("[http] encode response: %v", err)
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(map[string]string{"detail": "Error encoding response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
