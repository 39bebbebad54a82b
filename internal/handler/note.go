package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-api/internal/apperr"
	"github.com/iliyamo/notes-api/internal/model"
	"github.com/iliyamo/notes-api/internal/repository"
	"github.com/iliyamo/notes-api/internal/utils"
)

// NoteHandler implements the notes CRUD endpoints.  All routes sit behind
// the JWT middleware, so the owner is always the authenticated user.
type NoteHandler struct {
	Notes NoteStore
}

func NewNoteHandler(n NoteStore) *NoteHandler { return &NoteHandler{Notes: n} }

type notePayload struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
}

type noteResp struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toNoteResp(n model.Note) noteResp {
	return noteResp{
		ID:        n.ID,
		Title:     n.Title,
		Body:      n.Body,
		Tags:      n.Tags,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func owner(c echo.Context) string {
	if v, ok := c.Get("user_id").(string); ok {
		return v
	}
	return ""
}

// Create adds a note for the authenticated user.  An omitted title falls
// back to "untitled".
func (h *NoteHandler) Create(c echo.Context) error {
	var req notePayload
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.KindInvariant, "invalid request body")
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		req.Title = "untitled"
	}
	if strings.TrimSpace(req.Body) == "" {
		return apperr.New(apperr.KindInvariant, "note body is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n := model.Note{
		ID:    utils.NewID(),
		Owner: owner(c),
		Title: req.Title,
		Body:  req.Body,
		Tags:  req.Tags,
	}
	if err := h.Notes.Create(ctx, n); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to create note", err)
	}
	return respond(c, http.StatusCreated, "note created", map[string]string{"noteId": n.ID})
}

// List returns the user's notes, optionally filtered by exact title via
// the ?title= query parameter.
func (h *NoteHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	notes, err := h.Notes.ListByOwner(ctx, owner(c), strings.TrimSpace(c.QueryParam("title")))
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to list notes", err)
	}
	out := make([]noteResp, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteResp(n))
	}
	return respond(c, http.StatusOK, "notes retrieved", map[string]interface{}{"notes": out})
}

// Get returns a single note by id.
func (h *NoteHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n, err := h.Notes.GetByID(ctx, c.Param("id"), owner(c))
	if err != nil {
		return noteErr(err)
	}
	return respond(c, http.StatusOK, "note retrieved", map[string]interface{}{"note": toNoteResp(n)})
}

// Update rewrites a note's title, body and tags.
func (h *NoteHandler) Update(c echo.Context) error {
	var req notePayload
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.KindInvariant, "invalid request body")
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		req.Title = "untitled"
	}
	if strings.TrimSpace(req.Body) == "" {
		return apperr.New(apperr.KindInvariant, "note body is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n := model.Note{
		ID:    c.Param("id"),
		Owner: owner(c),
		Title: req.Title,
		Body:  req.Body,
		Tags:  req.Tags,
	}
	if err := h.Notes.Update(ctx, n); err != nil {
		return noteErr(err)
	}
	return respond(c, http.StatusOK, "note updated", nil)
}

// Delete removes a note.
func (h *NoteHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Notes.Delete(ctx, c.Param("id"), owner(c)); err != nil {
		return noteErr(err)
	}
	return respond(c, http.StatusOK, "note deleted", nil)
}

// noteErr translates repository sentinels into tagged errors.
func noteErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.New(apperr.KindNotFound, "note not found")
	case errors.Is(err, repository.ErrForbidden):
		return apperr.New(apperr.KindForbidden, "you do not own this note")
	default:
		return apperr.Wrap(apperr.KindInternal, "note operation failed", err)
	}
}
