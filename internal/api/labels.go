package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/notiva/notiva-agent/internal/agent"
	"github.com/notiva/notiva-agent/internal/llm"
	"github.com/notiva/notiva-agent/internal/store"
)

type labelRequest struct {
	NoteID string `json:"noteId"`
}

type labelResponse struct {
	NoteID string   `json:"noteId"`
	Labels []string `json:"labels"`
}

func (s *Server) labelNote(w http.ResponseWriter, r *http.Request) {
	if !s.ensureLLMConfigured(w) {
		return
	}

	var req labelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.NoteID) == "" {
		writeError(w, "noteId is verplicht", http.StatusBadRequest)
		return
	}

	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	note, err := s.store.GetNote(r.Context(), req.NoteID, userID)
	if err != nil {
		writeError(w, "Note niet gevonden", http.StatusNotFound)
		return
	}

	// Nothing to label; skip the model call and leave the note untouched.
	if len(strings.TrimSpace(note.Content)) < 10 {
		writeJSON(w, labelResponse{NoteID: req.NoteID, Labels: []string{}})
		return
	}

	messages := agent.BuildLabelMessages(note.Title, note.Content)
	content, err := s.provider.Generate(r.Context(), messages, llm.GenerateOptions{
		Temperature: 0.5,
		MaxTokens:   200,
		ForceJSON:   true,
	})
	if err != nil {
		s.log.Error("labels: model call failed", zap.Error(err))
		writeError(w, "Labels genereren mislukt", http.StatusInternalServerError)
		return
	}

	labels := agent.ValidateLabels(content)

	update := store.NoteUpdate{Labels: &labels}
	if err := s.store.UpdateNote(r.Context(), req.NoteID, userID, update); err != nil {
		s.log.Error("labels: persisting labels failed", zap.Error(err))
		writeError(w, "Labels opslaan mislukt", http.StatusInternalServerError)
		return
	}

	writeJSON(w, labelResponse{NoteID: req.NoteID, Labels: labels})
}
