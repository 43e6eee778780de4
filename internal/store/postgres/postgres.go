package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/notiva/notiva-agent/internal/store"
)

type PostgresStore struct {
	db *sql.DB
}

var openDB = sql.Open

func New(conn string) (*PostgresStore, error) {
	db, err := openDB("pgx", conn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := verifySchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func verifySchema(ctx context.Context, db *sql.DB) error {
	var regclass sql.NullString
	if err := db.QueryRowContext(ctx, "SELECT to_regclass($1)", "public.notes").Scan(&regclass); err != nil {
		return err
	}
	if !regclass.Valid {
		return fmt.Errorf("database schema missing: notes table not found (run infra/migrations/001_init.sql)")
	}
	return nil
}

func (p *PostgresStore) GetNote(ctx context.Context, noteID string, userID string) (*store.Note, error) {
	const query = `
		SELECT id, user_id, title, content, labels, created_at, updated_at
		FROM notes
		WHERE id = $1 AND user_id = $2
	`
	row := p.db.QueryRowContext(ctx, query, noteID, userID)
	note, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNoteNotFound
	}
	if err != nil {
		return nil, err
	}
	return note, nil
}

func (p *PostgresStore) CreateNote(ctx context.Context, note store.Note) error {
	labelsBytes, err := json.Marshal(emptyIfNil(note.Labels))
	if err != nil {
		return err
	}
	createdAt := note.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	updatedAt := note.UpdatedAt
	if updatedAt == "" {
		updatedAt = createdAt
	}
	const query = `
		INSERT INTO notes (id, user_id, title, content, labels, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = p.db.ExecContext(
		ctx,
		query,
		note.ID,
		note.UserID,
		nullString(note.Title),
		note.Content,
		labelsBytes,
		createdAt,
		updatedAt,
	)
	return err
}

// UpdateNote writes only the fields present in the diff. The WHERE clause
// carries both the note id and the user id so a caller can never touch a
// note it does not own.
func (p *PostgresStore) UpdateNote(ctx context.Context, noteID string, userID string, update store.NoteUpdate) error {
	if update.Empty() {
		return nil
	}
	assignments := []string{}
	args := []any{}
	arg := 1
	if update.Title != nil {
		assignments = append(assignments, fmt.Sprintf("title = $%d", arg))
		args = append(args, nullString(*update.Title))
		arg++
	}
	if update.Content != nil {
		assignments = append(assignments, fmt.Sprintf("content = $%d", arg))
		args = append(args, *update.Content)
		arg++
	}
	if update.Labels != nil {
		labelsBytes, err := json.Marshal(emptyIfNil(*update.Labels))
		if err != nil {
			return err
		}
		assignments = append(assignments, fmt.Sprintf("labels = $%d", arg))
		args = append(args, labelsBytes)
		arg++
	}
	assignments = append(assignments, fmt.Sprintf("updated_at = $%d", arg))
	args = append(args, time.Now().UTC().Format(time.RFC3339Nano))
	arg++

	query := fmt.Sprintf(
		"UPDATE notes SET %s WHERE id = $%d AND user_id = $%d",
		strings.Join(assignments, ", "), arg, arg+1,
	)
	args = append(args, noteID, userID)

	result, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNoteNotFound
	}
	return nil
}

func (p *PostgresStore) ListNotes(ctx context.Context, userID string) ([]store.Note, error) {
	const query = `
		SELECT id, user_id, title, content, labels, created_at, updated_at
		FROM notes
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := p.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []store.Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notes, nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*store.Note, error) {
	var note store.Note
	var title sql.NullString
	var labelsBytes []byte
	if err := row.Scan(&note.ID, &note.UserID, &title, &note.Content, &labelsBytes, &note.CreatedAt, &note.UpdatedAt); err != nil {
		return nil, err
	}
	note.Title = title.String
	if len(labelsBytes) > 0 {
		if err := json.Unmarshal(labelsBytes, &note.Labels); err != nil {
			return nil, err
		}
	}
	return &note, nil
}

func nullString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func emptyIfNil(labels []string) []string {
	if labels == nil {
		return []string{}
	}
	return labels
}
