package model

import "time"

// Note mirrors the `notes` table.  Tags are stored as a comma-separated
// string in the database and split into a slice at the repository boundary.
//
// Fields:
//  ID        – ULID primary key of the note.
//  Owner     – id of the user the note belongs to.
//  Title     – note title, defaults to "untitled" when the client omits it.
//  Body      – note body text.
//  Tags      – free-form labels attached to the note.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type Note struct {
    ID        string    // notes.id
    Owner     string    // notes.owner
    Title     string    // notes.title
    Body      string    // notes.body
    Tags      []string  // notes.tags (comma separated column)
    CreatedAt time.Time // notes.created_at
    UpdatedAt time.Time // notes.updated_at
}
