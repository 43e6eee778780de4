package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/notiva/notiva-agent/internal/store"
	"github.com/notiva/notiva-agent/internal/store/memory"
)

func runExecute(t *testing.T, provider *stubProvider, st store.Store, note *store.Note, raw string) *RunOutput {
	t.Helper()
	provider.responses = []string{raw}
	engine := newTestEngine(provider, &stubResearcher{}, st)
	out, err := engine.Run(context.Background(), RunInput{
		UserID:  note.UserID,
		Note:    note,
		Request: Request{NoteID: note.ID, Message: "doe het", Execute: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestExecute_AppendEnd(t *testing.T) {
	st := memory.New()
	note := seedNote(t, st, store.Note{ID: "n1", UserID: "u1", Content: "Bestaande inhoud."})

	out := runExecute(t, &stubProvider{}, st, note,
		`{"reply": "ok", "actions": [{"type": "append_to_note", "data": {"text": "Nieuw stuk."}}]}`)

	if !out.Executed {
		t.Fatal("Executed = false")
	}
	if out.UpdatedNote.Content != "Bestaande inhoud.\n\nNieuw stuk." {
		t.Errorf("content = %q", out.UpdatedNote.Content)
	}
	stored, _ := st.GetNote(context.Background(), "n1", "u1")
	if stored.Content != out.UpdatedNote.Content {
		t.Error("persisted content differs from returned note")
	}
}

func TestExecute_AppendStart(t *testing.T) {
	st := memory.New()
	note := seedNote(t, st, store.Note{ID: "n1", UserID: "u1", Content: "Bestaande inhoud."})

	out := runExecute(t, &stubProvider{}, st, note,
		`{"reply": "ok", "actions": [{"type": "append_to_note", "data": {"text": "Intro.", "position": "start"}}]}`)

	if out.UpdatedNote.Content != "Intro.\n\nBestaande inhoud." {
		t.Errorf("content = %q", out.UpdatedNote.Content)
	}
}

func TestExecute_ActionsApplyInOrder(t *testing.T) {
	st := memory.New()
	note := seedNote(t, st, store.Note{ID: "n1", UserID: "u1", Content: "Oud."})

	// replace first, then append: the append lands on the replaced body.
	out := runExecute(t, &stubProvider{}, st, note,
		`{"reply": "ok", "actions": [
			{"type": "replace_note", "data": {"content": "Vervangen."}},
			{"type": "append_to_note", "data": {"text": "Erbij."}}
		]}`)

	if out.UpdatedNote.Content != "Vervangen.\n\nErbij." {
		t.Errorf("content = %q", out.UpdatedNote.Content)
	}
}

func TestExecute_TitleAndLabels(t *testing.T) {
	st := memory.New()
	note := seedNote(t, st, store.Note{ID: "n1", UserID: "u1", Title: "Oud", Content: "Inhoud.", Labels: []string{"oud"}})

	out := runExecute(t, &stubProvider{}, st, note,
		`{"reply": "ok", "actions": [
			{"type": "update_title", "data": {"title": "Nieuw"}},
			{"type": "set_labels", "data": {"labels": ["werk", "idee"]}}
		]}`)

	stored, _ := st.GetNote(context.Background(), "n1", "u1")
	if stored.Title != "Nieuw" {
		t.Errorf("title = %q", stored.Title)
	}
	if len(stored.Labels) != 2 || stored.Labels[0] != "werk" {
		t.Errorf("labels = %+v, replaced not merged", stored.Labels)
	}
	if out.UpdatedNote.Title != "Nieuw" {
		t.Errorf("returned title = %q", out.UpdatedNote.Title)
	}
}

func TestExecute_CreateNoteInsertsImmediately(t *testing.T) {
	st := memory.New()
	note := seedNote(t, st, store.Note{ID: "n1", UserID: "u1", Content: "Inhoud."})

	out := runExecute(t, &stubProvider{}, st, note,
		`{"reply": "ok", "actions": [{"type": "create_note", "data": {"title": "Los", "content": "Aparte notitie."}}]}`)

	if out.CreatedNoteID == "" {
		t.Fatal("CreatedNoteID empty")
	}
	created, err := st.GetNote(context.Background(), out.CreatedNoteID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if created.Title != "Los" || created.Content != "Aparte notitie." {
		t.Errorf("created note = %+v", created)
	}
	if len(created.Labels) != 0 {
		t.Errorf("created note labels = %+v, want empty", created.Labels)
	}
	// The working note itself is unchanged; no update should have run.
	stored, _ := st.GetNote(context.Background(), "n1", "u1")
	if stored.Content != "Inhoud." {
		t.Error("create_note must not mutate the current note")
	}
}

type failingCreateStore struct {
	store.Store
}

func (f failingCreateStore) CreateNote(ctx context.Context, note store.Note) error {
	return errors.New("insert failed")
}

func TestExecute_CreateNoteFailureIsNonFatal(t *testing.T) {
	st := memory.New()
	note := seedNote(t, st, store.Note{ID: "n1", UserID: "u1", Content: "Inhoud."})

	out := runExecute(t, &stubProvider{}, failingCreateStore{Store: st}, note,
		`{"reply": "ok", "actions": [
			{"type": "create_note", "data": {"title": "Los", "content": "Aparte notitie."}},
			{"type": "update_title", "data": {"title": "Nieuw"}}
		]}`)

	if out.CreatedNoteID != "" {
		t.Errorf("CreatedNoteID = %q, want empty after failed insert", out.CreatedNoteID)
	}
	if out.UpdatedNote.Title != "Nieuw" {
		t.Error("later actions must still run after a failed create_note")
	}
}

type failingUpdateStore struct {
	store.Store
}

func (f failingUpdateStore) UpdateNote(ctx context.Context, noteID string, userID string, update store.NoteUpdate) error {
	return errors.New("update failed")
}

func TestExecute_UpdateFailureIsFatal(t *testing.T) {
	st := memory.New()
	note := seedNote(t, st, store.Note{ID: "n1", UserID: "u1", Content: "Inhoud."})
	provider := &stubProvider{responses: []string{`{"reply": "ok", "actions": [{"type": "update_title", "data": {"title": "Nieuw"}}]}`}}
	engine := newTestEngine(provider, &stubResearcher{}, failingUpdateStore{Store: st})

	_, err := engine.Run(context.Background(), RunInput{
		UserID:  "u1",
		Note:    note,
		Request: Request{NoteID: "n1", Message: "doe het", Execute: true},
	})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
}

func TestExecute_NoChangeSkipsUpdate(t *testing.T) {
	st := memory.New()
	note := seedNote(t, st, store.Note{ID: "n1", UserID: "u1", Title: "Zelfde", Content: "Inhoud."})

	// update_title to the identical title produces no diff, so even a
	// failing update store never gets called.
	out := runExecute(t, &stubProvider{}, failingUpdateStore{Store: st}, note,
		`{"reply": "ok", "actions": [{"type": "update_title", "data": {"title": "Zelfde"}}]}`)

	if !out.Executed {
		t.Error("Executed = false")
	}
	if out.UpdatedNote.Title != "Zelfde" {
		t.Errorf("title = %q", out.UpdatedNote.Title)
	}
}
