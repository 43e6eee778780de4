package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/notiva/notiva-agent/internal/agent"
	"github.com/notiva/notiva-agent/internal/llm"
)

type chatRequest struct {
	NoteID  string `json:"noteId"`
	Message string `json:"message"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	if !s.ensureLLMConfigured(w) {
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.NoteID) == "" {
		writeError(w, "noteId is verplicht", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, "message is verplicht", http.StatusBadRequest)
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

	messages := agent.BuildChatMessages(note.Title, note.Content, strings.TrimSpace(req.Message))
	content, err := s.provider.Generate(r.Context(), messages, llm.GenerateOptions{
		Temperature: 0.7,
		MaxTokens:   4000,
		ForceJSON:   true,
	})
	if err != nil {
		s.log.Error("chat: model call failed", zap.Error(err))
		writeError(w, "AI antwoord mislukt", http.StatusInternalServerError)
		return
	}

	result := agent.ValidateChatResponse(content)
	if result == nil {
		writeJSON(w, agent.ChatResponse{
			Reply: "Sorry, ik kon geen goed antwoord genereren. Probeer het opnieuw.",
		})
		return
	}

	writeJSON(w, result)
}
