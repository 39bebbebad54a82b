package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column.  The json tags are omitted
// because these structs are used internally by the repository layer;
// handlers define separate response types with appropriate tags.
//
// Fields:
//  ID           – ULID primary key of the user.
//  Username     – unique login name.
//  PasswordHash – bcrypt hashed password.
//  Fullname     – display name shown in responses.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           string    // users.id
    Username     string    // users.username
    PasswordHash string    // users.password_hash
    Fullname     string    // users.fullname
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table, the
// allow-list of currently valid refresh tokens.  The plain token is not
// stored; only its SHA-256 hash.  Revocation is by deleting the row, so
// presence in the table is what makes a token honored.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64    // refresh_tokens.id
    UserID    string    // refresh_tokens.user_id
    TokenHash string    // refresh_tokens.token_hash
    ExpiresAt time.Time // refresh_tokens.expires_at
    CreatedAt time.Time // refresh_tokens.created_at
}
