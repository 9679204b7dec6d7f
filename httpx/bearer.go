package httpx

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/oauth"
	"github.com/mbolis/quick-forms/config"
)

func NewBearerServer(db *sql.DB, cfg config.Config) *oauth.BearerServer {
	return oauth.NewBearerServer(
		cfg.TokenSecret,
		cfg.TokenTTL,
		CredentialsVerifier(db),
		nil,
	)
}

// Token is the bearer server's answer to an accepted grant.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// IssueToken posts grant to the bearer server's token endpoint in process.
// A rejected grant yields the endpoint's status and a nil error.
func IssueToken(ctx context.Context, bs *oauth.BearerServer, grant url.Values) (Token, int, error) {
	body := grant.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/", strings.NewReader(body))
	if err != nil {
		return Token{}, 0, err
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	req.Header.Set("content-length", strconv.Itoa(len(body)))

	var rec grantRecorder
	bs.UserCredentials(&rec, req)

	status := rec.statusCode()
	if status != http.StatusOK {
		return Token{}, status, nil
	}

	var token Token
	if err := json.Unmarshal(rec.body.Bytes(), &token); err != nil {
		return Token{}, status, err
	}
	return token, status, nil
}

// grantRecorder keeps what the token endpoint writes.
type grantRecorder struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (rec *grantRecorder) Header() http.Header {
	if rec.header == nil {
		rec.header = http.Header{}
	}
	return rec.header
}

func (rec *grantRecorder) Write(b []byte) (int, error) {
	return rec.body.Write(b)
}

func (rec *grantRecorder) WriteHeader(status int) {
	rec.status = status
}

func (rec *grantRecorder) statusCode() int {
	if rec.status == 0 {
		return http.StatusOK
	}
	return rec.status
}

// BearerToken extracts the token of an "Authorization: <scheme> <token>" header.
func BearerToken(header, scheme string) (string, bool) {
	prefix, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(prefix, scheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
