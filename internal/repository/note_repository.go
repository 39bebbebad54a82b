package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/notes-api/internal/model"
)

// NoteRepo persists notes in MySQL.  Every read and mutation is scoped by
// owner: a note that exists but belongs to someone else surfaces as
// ErrForbidden, a missing note as ErrNotFound.
type NoteRepo struct{ DB *sql.DB }

func NewNoteRepo(db *sql.DB) *NoteRepo { return &NoteRepo{DB: db} }

// Create inserts a note and stamps created_at/updated_at.
func (r *NoteRepo) Create(ctx context.Context, n model.Note) error {
	now := time.Now().UTC()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO notes (id, owner, title, body, tags, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
		n.ID, n.Owner, n.Title, n.Body, joinTags(n.Tags), now, now)
	return err
}

// GetByID fetches a note and enforces ownership.
func (r *NoteRepo) GetByID(ctx context.Context, id, owner string) (model.Note, error) {
	var (
		n    model.Note
		tags string
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,owner,title,body,tags,created_at,updated_at FROM notes WHERE id=? LIMIT 1",
		id).Scan(&n.ID, &n.Owner, &n.Title, &n.Body, &tags, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Note{}, ErrNotFound
	}
	if err != nil {
		return model.Note{}, err
	}
	if n.Owner != owner {
		return model.Note{}, ErrForbidden
	}
	n.Tags = splitTags(tags)
	return n, nil
}

// ListByOwner returns the owner's notes, optionally filtered by exact title.
func (r *NoteRepo) ListByOwner(ctx context.Context, owner, title string) ([]model.Note, error) {
	query := "SELECT id,owner,title,body,tags,created_at,updated_at FROM notes WHERE owner=?"
	args := []interface{}{owner}
	if title != "" {
		query += " AND title=?"
		args = append(args, title)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]model.Note, 0)
	for rows.Next() {
		var (
			n    model.Note
			tags string
		)
		if err := rows.Scan(&n.ID, &n.Owner, &n.Title, &n.Body, &tags, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		n.Tags = splitTags(tags)
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Update rewrites title, body and tags of an owned note.
func (r *NoteRepo) Update(ctx context.Context, n model.Note) error {
	if _, err := r.GetByID(ctx, n.ID, n.Owner); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE notes SET title=?, body=?, tags=?, updated_at=? WHERE id=? AND owner=?",
		n.Title, n.Body, joinTags(n.Tags), time.Now().UTC(), n.ID, n.Owner)
	return err
}

// Delete removes an owned note.
func (r *NoteRepo) Delete(ctx context.Context, id, owner string) error {
	if _, err := r.GetByID(ctx, id, owner); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx, "DELETE FROM notes WHERE id=? AND owner=?", id, owner)
	return err
}

func joinTags(tags []string) string {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			clean = append(clean, t)
		}
	}
	return strings.Join(clean, ",")
}

func splitTags(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}
