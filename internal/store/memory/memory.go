package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/notiva/notiva-agent/internal/store"
)

// MemoryStore is an in-memory Store used by tests and local runs.
type MemoryStore struct {
	mu    sync.RWMutex
	notes map[string]store.Note
}

func New() *MemoryStore {
	return &MemoryStore{notes: map[string]store.Note{}}
}

func (m *MemoryStore) GetNote(ctx context.Context, noteID string, userID string) (*store.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	note, ok := m.notes[noteID]
	if !ok || note.UserID != userID {
		return nil, store.ErrNoteNotFound
	}
	copied := note
	copied.Labels = append([]string(nil), note.Labels...)
	return &copied, nil
}

func (m *MemoryStore) CreateNote(ctx context.Context, note store.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if note.CreatedAt == "" {
		note.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if note.UpdatedAt == "" {
		note.UpdatedAt = note.CreatedAt
	}
	if note.Labels == nil {
		note.Labels = []string{}
	}
	m.notes[note.ID] = note
	return nil
}

func (m *MemoryStore) UpdateNote(ctx context.Context, noteID string, userID string, update store.NoteUpdate) error {
	if update.Empty() {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	note, ok := m.notes[noteID]
	if !ok || note.UserID != userID {
		return store.ErrNoteNotFound
	}
	if update.Title != nil {
		note.Title = *update.Title
	}
	if update.Content != nil {
		note.Content = *update.Content
	}
	if update.Labels != nil {
		note.Labels = append([]string(nil), *update.Labels...)
	}
	note.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	m.notes[noteID] = note
	return nil
}

func (m *MemoryStore) ListNotes(ctx context.Context, userID string) ([]store.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	notes := []store.Note{}
	for _, note := range m.notes {
		if note.UserID == userID {
			copied := note
			copied.Labels = append([]string(nil), note.Labels...)
			notes = append(notes, copied)
		}
	}
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].UpdatedAt > notes[j].UpdatedAt
	})
	return notes, nil
}
