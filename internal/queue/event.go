// Package queue defines message payloads exchanged over the message broker.
package queue

// NoteExportRequestedEvent is published when a user asks for an export of
// their notes.  It carries enough for the consumer to build the export
// without holding request state.
type NoteExportRequestedEvent struct {
    UserID      string `json:"user_id"`
    TargetEmail string `json:"target_email"`
    RequestedAt string `json:"requested_at"`
}
