package httpx

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/oauth"
	"github.com/mbolis/quick-forms/database"
	"golang.org/x/crypto/bcrypt"
)

// refresh tokens outlive access tokens by far; expired ones are reaped
const refreshTokenTTL = 8760 * time.Hour

var errCouldNotRefresh = errors.New("could not refresh")

type credentialsVerifier struct {
	db *sql.DB
}

// CredentialsVerifier checks email/password pairs against the users table
// and keeps refresh tokens single-use through the tokens table.
func CredentialsVerifier(db *sql.DB) oauth.CredentialsVerifier {
	return &credentialsVerifier{db}
}

func (cs *credentialsVerifier) ValidateUser(username string, password string, scope string, r *http.Request) error {
	hash, err := database.PasswordHash(r.Context(), cs.db, NormalizeEmail(username))
	if err != nil {
		return err
	}

	return bcrypt.CompareHashAndPassword(hash, []byte(password))
}
func (cs *credentialsVerifier) StoreTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	return database.StoreToken(
		context.Background(), cs.db,
		credential,
		tokenID,
		refreshTokenID,
		time.Now().Add(refreshTokenTTL),
	)
}
func (cs *credentialsVerifier) ValidateTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	expiration, err := database.ConsumeToken(context.Background(), cs.db, credential, tokenID, refreshTokenID)
	if err != nil {
		return errCouldNotRefresh
	}

	if expiration.Before(time.Now()) {
		return errCouldNotRefresh
	}
	return nil
}
func (cs *credentialsVerifier) AddClaims(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	user, err := database.GetUserByEmail(r.Context(), cs.db, NormalizeEmail(credential))
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"user_id": user.ID,
		"email":   user.Email,
	}, nil
}
func (*credentialsVerifier) AddProperties(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{}, nil
}
func (*credentialsVerifier) ValidateClient(clientID string, clientSecret string, scope string, r *http.Request) error {
	return errors.New("not supported")
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
