package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/notiva/notiva-agent/internal/agent"
	"github.com/notiva/notiva-agent/internal/llm"
)

const (
	minTranscriptChars = 20
	maxTranscriptChars = 50000
)

type conversationRequest struct {
	Text string `json:"text"`
}

func (s *Server) processConversation(w http.ResponseWriter, r *http.Request) {
	if !s.ensureLLMConfigured(w) {
		return
	}

	var req conversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		writeError(w, "text is verplicht", http.StatusBadRequest)
		return
	}
	if len(strings.TrimSpace(req.Text)) < minTranscriptChars {
		writeError(w, fmt.Sprintf("Tekst te kort (minimaal %d karakters)", minTranscriptChars), http.StatusBadRequest)
		return
	}
	if len(req.Text) > maxTranscriptChars {
		writeError(w, fmt.Sprintf("Tekst te lang (maximaal %d karakters)", maxTranscriptChars), http.StatusBadRequest)
		return
	}

	if _, ok := s.authenticate(w, r); !ok {
		return
	}

	messages := agent.BuildConversationMessages(req.Text)
	content, err := s.provider.Generate(r.Context(), messages, llm.GenerateOptions{
		Temperature: 0.5,
		MaxTokens:   4000,
		ForceJSON:   true,
	})
	if err != nil {
		s.log.Error("conversation: model call failed", zap.Error(err))
		writeError(w, "Gesprek verwerken mislukt", http.StatusInternalServerError)
		return
	}

	result := agent.ValidateConversation(content)
	if result == nil {
		// Raw transcript passthrough beats losing the recording.
		writeJSON(w, agent.ConversationResponse{
			Dialogue: "Spreker A: " + req.Text,
			Summary:  "Transcriptie van spraakopname.",
			Labels:   []string{"Gesprek"},
		})
		return
	}

	writeJSON(w, result)
}
