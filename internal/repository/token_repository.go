package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/notes-api/internal/model"
)

// TokenRepo is the refresh-token allow-list (single 'token_hash' column).
// A refresh token is honored only while its hash row exists and has not
// passed expires_at; revocation is deleting the row.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Add inserts a refresh token hash row.
func (r *TokenRepo) Add(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// Verify returns the owning userID if a non-expired row exists for the hash,
// ErrNotFound otherwise.
func (r *TokenRepo) Verify(ctx context.Context, tokenHash string) (string, error) {
	var rt model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token_hash, expires_at, created_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&rt.ID, &rt.UserID, &rt.TokenHash, &rt.ExpiresAt, &rt.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	// An expired row is treated as absent; the hourly sweep removes it later.
	if time.Now().UTC().After(rt.ExpiresAt) {
		return "", ErrNotFound
	}
	return rt.UserID, nil
}

// Delete removes a token from the allow-list.
func (r *TokenRepo) Delete(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE token_hash=?", tokenHash)
	return err
}

// DeleteAllForUser revokes every token belonging to a user.
func (r *TokenRepo) DeleteAllForUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE user_id=?", userID)
	return err
}

// DeleteExpired sweeps rows past their expiry; called periodically so the
// table does not accumulate dead tokens.
func (r *TokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE expires_at < ?", time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
