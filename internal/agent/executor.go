package agent

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/notiva/notiva-agent/internal/store"
)

const appendSeparator = "\n\n"

// executeActions applies a validated action list to a working copy of the
// note, in array order, then persists the net change as a single update.
// create_note inserts immediately; its failure is logged and skipped, it
// never blocks the remaining actions. A failed final update is fatal: by
// then the reply has been generated against the mutated copy.
func (e *Engine) executeActions(ctx context.Context, userID string, note *store.Note, actions []Action) (*store.Note, string, error) {
	updated := *note
	updated.Labels = append([]string(nil), note.Labels...)
	createdNoteID := ""

	for _, action := range actions {
		switch a := action.(type) {
		case AppendToNote:
			if a.Position == "start" {
				updated.Content = a.Text + appendSeparator + updated.Content
			} else {
				updated.Content = updated.Content + appendSeparator + a.Text
			}

		case ReplaceNote:
			updated.Content = a.Content

		case UpdateTitle:
			updated.Title = a.Title

		case SetLabels:
			labels := a.Labels
			if len(labels) > maxLabels {
				labels = labels[:maxLabels]
			}
			updated.Labels = append([]string(nil), labels...)

		case CreateNote:
			id := uuid.New().String()
			err := e.store.CreateNote(ctx, store.Note{
				ID:      id,
				UserID:  userID,
				Title:   a.Title,
				Content: a.Content,
				Labels:  []string{},
			})
			if err != nil {
				e.log.Error("agent: create_note failed", zap.Error(err))
				continue
			}
			createdNoteID = id
		}
	}

	update := store.NoteUpdate{}
	if updated.Content != note.Content {
		update.Content = &updated.Content
	}
	if updated.Title != note.Title {
		update.Title = &updated.Title
	}
	if !slices.Equal(updated.Labels, note.Labels) {
		update.Labels = &updated.Labels
	}

	if !update.Empty() {
		if err := e.store.UpdateNote(ctx, note.ID, userID, update); err != nil {
			return nil, createdNoteID, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}

	return &updated, createdNoteID, nil
}
