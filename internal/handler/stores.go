package handler

import (
	"context"
	"time"

	"github.com/iliyamo/notes-api/internal/model"
	"github.com/iliyamo/notes-api/internal/queue"
)

// The handlers depend on these narrow interfaces instead of the concrete
// MySQL repositories so the auth and note flows can be unit tested against
// in-memory fakes.

// UserStore is the user-credential lookup the authentication flow consults.
type UserStore interface {
	Create(ctx context.Context, id, username, password, fullname string, cost int) error
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
}

// TokenStore is the refresh-token allow-list.
type TokenStore interface {
	Add(ctx context.Context, userID, tokenHash string, exp time.Time) error
	Verify(ctx context.Context, tokenHash string) (string, error)
	Delete(ctx context.Context, tokenHash string) error
	DeleteAllForUser(ctx context.Context, userID string) error
}

// NoteStore is the notes repository contract.
type NoteStore interface {
	Create(ctx context.Context, n model.Note) error
	GetByID(ctx context.Context, id, owner string) (model.Note, error)
	ListByOwner(ctx context.Context, owner, title string) ([]model.Note, error)
	Update(ctx context.Context, n model.Note) error
	Delete(ctx context.Context, id, owner string) error
}

// ExportPublisher hands a note-export request to the message broker.
type ExportPublisher interface {
	PublishNoteExport(ctx context.Context, ev queue.NoteExportRequestedEvent) error
}
