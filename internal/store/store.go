package store

import (
	"context"
	"errors"
)

// ErrNoteNotFound is returned when a note does not exist or belongs to a
// different user. Handlers map it to a 404.
var ErrNoteNotFound = errors.New("note not found")

type Note struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	Labels    []string
	CreatedAt string
	UpdatedAt string
}

// NoteUpdate is a diff write: only non-nil fields are sent to the database.
type NoteUpdate struct {
	Title   *string
	Content *string
	Labels  *[]string
}

func (u NoteUpdate) Empty() bool {
	return u.Title == nil && u.Content == nil && u.Labels == nil
}

type Store interface {
	GetNote(ctx context.Context, noteID string, userID string) (*Note, error)
	CreateNote(ctx context.Context, note Note) error
	UpdateNote(ctx context.Context, noteID string, userID string, update NoteUpdate) error
	ListNotes(ctx context.Context, userID string) ([]Note, error)
}
