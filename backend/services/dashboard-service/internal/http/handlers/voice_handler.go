package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Responder answers a driver command and speaks the reply.
type Responder interface {
	Handle(command string) string
}

type voiceRequest struct {
	Text string `json:"text"`
}

type voiceResponse struct {
	Command string `json:"command"`
	Reply   string `json:"reply"`
}

// NewVoiceHandler returns POST /api/voice handler.
func NewVoiceHandler(assistant Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req voiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body")
			return
		}
		text := strings.TrimSpace(req.Text)
		if text == "" {
			writeError(w, http.StatusUnprocessableEntity, "text is required")
			return
		}
		writeJSON(w, http.StatusOK, voiceResponse{Command: text, Reply: assistant.Handle(text)})
	}
}
