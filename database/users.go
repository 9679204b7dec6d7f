package database

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
	"github.com/mbolis/quick-forms/model"
	"github.com/pkg/errors"
)

// ErrEmailTaken is returned by CreateUser for an already registered email.
var ErrEmailTaken = errors.New("email already registered")

func CreateUser(ctx context.Context, q Queryer, email string, passwordHash []byte) (model.User, error) {
	user := model.User{
		ID:        uuid.Must(uuid.NewV4()).String(),
		Email:     email,
		CreatedAt: now(),
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)`,
		user.ID, user.Email, passwordHash, user.CreatedAt,
	)
	if IsUniqueViolation(err) {
		return model.User{}, ErrEmailTaken
	}
	if err != nil {
		return model.User{}, errors.Wrap(err, "insert user")
	}
	return user, nil
}

func GetUser(ctx context.Context, q Queryer, id string) (model.User, error) {
	return scanUser(q.QueryRowContext(ctx, `
		SELECT id, email, created_at FROM users WHERE id = ?`, id))
}

func GetUserByEmail(ctx context.Context, q Queryer, email string) (model.User, error) {
	return scanUser(q.QueryRowContext(ctx, `
		SELECT id, email, created_at FROM users WHERE email = ?`, email))
}

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.CreatedAt)
	if err != nil {
		return model.User{}, notFound(err)
	}
	return u, nil
}

func PasswordHash(ctx context.Context, q Queryer, email string) ([]byte, error) {
	var hash []byte
	err := q.QueryRowContext(ctx, `
		SELECT password_hash FROM users WHERE email = ?`, email).
		Scan(&hash)
	if err != nil {
		return nil, notFound(err)
	}
	return hash, nil
}

// StoreToken records an issued refresh token so it can be redeemed once.
func StoreToken(ctx context.Context, q Queryer, email, tokenID, refreshTokenID string, expiration time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO tokens (email, token_id, refresh_token_id, expiration)
		VALUES (?, ?, ?, ?)`,
		email, tokenID, refreshTokenID, expiration.UTC(),
	)
	return errors.Wrap(err, "insert token")
}

// ConsumeToken deletes a stored refresh token and returns its expiration.
func ConsumeToken(ctx context.Context, q Queryer, email, tokenID, refreshTokenID string) (time.Time, error) {
	var expiration time.Time
	err := q.QueryRowContext(ctx, `
		SELECT expiration FROM tokens
		WHERE email = ?
			AND token_id = ?
			AND refresh_token_id = ?`,
		email, tokenID, refreshTokenID,
	).Scan(&expiration)
	if err != nil {
		return time.Time{}, notFound(err)
	}

	res, err := q.ExecContext(ctx, `
		DELETE FROM tokens
		WHERE email = ?
			AND token_id = ?
			AND refresh_token_id = ?`,
		email, tokenID, refreshTokenID,
	)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "delete token")
	}
	// lost a race with a concurrent refresh
	if n, _ := res.RowsAffected(); n == 0 {
		return time.Time{}, ErrNotFound
	}
	return expiration, nil
}

func DeleteExpiredTokens(ctx context.Context, q Queryer, before time.Time) (int64, error) {
	res, err := q.ExecContext(ctx, `DELETE FROM tokens WHERE expiration < ?`, before.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "delete expired tokens")
	}
	return res.RowsAffected()
}
