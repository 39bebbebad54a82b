package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-api/internal/apperr"
	"github.com/iliyamo/notes-api/internal/queue"
)

// ExportHandler accepts note-export requests and queues them for the
// background consumer.  The request returns as soon as the event is on the
// broker; the export itself happens asynchronously.
type ExportHandler struct {
	Publisher ExportPublisher
}

func NewExportHandler(p ExportPublisher) *ExportHandler { return &ExportHandler{Publisher: p} }

type exportReq struct {
	TargetEmail string `json:"targetEmail"`
}

// Notes enqueues an export of all of the caller's notes.
func (h *ExportHandler) Notes(c echo.Context) error {
	var req exportReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.KindInvariant, "invalid request body")
	}
	req.TargetEmail = strings.TrimSpace(req.TargetEmail)
	if req.TargetEmail == "" || !strings.Contains(req.TargetEmail, "@") {
		return apperr.New(apperr.KindInvariant, "a valid targetEmail is required")
	}

	ev := queue.NoteExportRequestedEvent{
		UserID:      owner(c),
		TargetEmail: req.TargetEmail,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.Publisher.PublishNoteExport(c.Request().Context(), ev); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to queue export", err)
	}

	return respond(c, http.StatusCreated, "your export request is queued", nil)
}
