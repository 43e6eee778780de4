package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/notiva/notiva-agent/internal/agent"
	"github.com/notiva/notiva-agent/internal/ratelimit"
	"github.com/notiva/notiva-agent/internal/research"
	"github.com/notiva/notiva-agent/internal/store"
)

type noteBody struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Labels  []string `json:"labels"`
}

type agentResponseBody struct {
	agent.Response
	Sources       []research.Source `json:"sources,omitempty"`
	Executed      bool              `json:"executed,omitempty"`
	UpdatedNote   *noteBody         `json:"updatedNote,omitempty"`
	CreatedNoteID string            `json:"createdNoteId,omitempty"`
}

func (s *Server) runAgent(w http.ResponseWriter, r *http.Request) {
	if !s.ensureLLMConfigured(w) {
		return
	}

	var req agent.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}

	// NoteID is required so every answer stays grounded in a real note.
	if strings.TrimSpace(req.NoteID) == "" {
		writeError(w, "Selecteer eerst een notitie om de agent te gebruiken.", http.StatusBadRequest)
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

	// Reserved before the note lookup: a request that fails later still
	// burns the research window.
	if req.Web {
		if err := s.limiter.Reserve(userID); err != nil {
			var cooldown *ratelimit.CooldownError
			if errors.As(err, &cooldown) {
				writeError(w, fmt.Sprintf("Even wachten... (%ds)", cooldown.WaitSeconds()), http.StatusTooManyRequests)
				return
			}
			writeError(w, "Server fout", http.StatusInternalServerError)
			return
		}
	}

	note, err := s.store.GetNote(r.Context(), req.NoteID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNoteNotFound) {
			writeError(w, "Note niet gevonden", http.StatusNotFound)
			return
		}
		s.log.Error("agent: note lookup failed", zap.Error(err))
		writeError(w, "Server fout", http.StatusInternalServerError)
		return
	}

	out, err := s.engine.Run(r.Context(), agent.RunInput{
		UserID:  userID,
		Note:    note,
		Request: req,
	})
	if err != nil {
		switch {
		case errors.Is(err, agent.ErrModelCall):
			s.log.Error("agent: model call failed", zap.Error(err))
			writeError(w, "AI antwoord mislukt", http.StatusInternalServerError)
		case errors.Is(err, agent.ErrPersistence):
			s.log.Error("agent: persisting changes failed", zap.Error(err))
			writeError(w, "Wijzigingen opslaan mislukt", http.StatusInternalServerError)
		default:
			s.log.Error("agent: run failed", zap.Error(err))
			writeError(w, "Server fout", http.StatusInternalServerError)
		}
		return
	}

	body := agentResponseBody{
		Response: out.Response,
		Sources:  out.Sources,
		Executed: out.Executed,
	}
	if out.UpdatedNote != nil {
		body.UpdatedNote = &noteBody{
			ID:      out.UpdatedNote.ID,
			Title:   out.UpdatedNote.Title,
			Content: out.UpdatedNote.Content,
			Labels:  out.UpdatedNote.Labels,
		}
	}
	body.CreatedNoteID = out.CreatedNoteID

	writeJSON(w, body)
}
