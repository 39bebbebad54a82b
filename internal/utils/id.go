package utils

import "github.com/oklog/ulid/v2"

// NewID returns a fresh ULID string.  ULIDs sort by creation time, which
// keeps note listings and filenames naturally ordered.
func NewID() string {
	return ulid.Make().String()
}
