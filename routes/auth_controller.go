package routes

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/render"
	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/routes/middlewares"
	"golang.org/x/crypto/bcrypt"
)

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type sessionResponse struct {
	Message      string     `json:"message"`
	User         model.User `json:"user"`
	Token        string     `json:"token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int64      `json:"expires_in"`
	Session      bool       `json:"session"`
}

func Signup(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body credentials
		if err := httpx.Decode(r.Body, &body); err != nil {
			httpx.LogInvalid(w, r, "signup.parse_body", err)
			return
		}
		email := httpx.NormalizeEmail(body.Email)

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			httpx.LogInternalError(w, r, "signup.hash_password", err)
			return
		}

		user, err := database.CreateUser(r.Context(), app.DB, email, hash)
		if errors.Is(err, database.ErrEmailTaken) {
			httpx.LogStatusMsg(w, r, http.StatusConflict, log.DebugLevel, "signup.email_taken", "Email already registered")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_user", err)
			return
		}

		token, status, err := httpx.IssueToken(r.Context(), app.BearerServer, url.Values{
			"grant_type": {"password"},
			"username":   {email},
			"password":   {body.Password},
		})
		if err != nil || status != http.StatusOK {
			httpx.LogInternalError(w, r, "signup.issue_token", tokenError(status, err))
			return
		}

		log.Infof("signup: new user %s", user.ID)
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, sessionResponse{
			Message:      "Signup successful! You are now logged in.",
			User:         user,
			Token:        token.AccessToken,
			RefreshToken: token.RefreshToken,
			ExpiresIn:    token.ExpiresIn,
			Session:      true,
		})
	}
}

func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body credentials
		if err := httpx.Decode(r.Body, &body); err != nil {
			httpx.LogInvalid(w, r, "login.parse_body", err)
			return
		}
		email := httpx.NormalizeEmail(body.Email)

		token, status, err := httpx.IssueToken(r.Context(), app.BearerServer, url.Values{
			"grant_type": {"password"},
			"username":   {email},
			"password":   {body.Password},
		})
		if err != nil {
			httpx.LogInternalError(w, r, "login.issue_token", err)
			return
		}
		if status != http.StatusOK {
			httpx.LogStatusMsg(w, r, http.StatusUnauthorized, log.DebugLevel, "login.credentials", "Invalid credentials.")
			return
		}

		user, err := database.GetUserByEmail(r.Context(), app.DB, email)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_user", err)
			return
		}

		render.JSON(w, r, sessionResponse{
			Message:      "Login successful!",
			User:         user,
			Token:        token.AccessToken,
			RefreshToken: token.RefreshToken,
			ExpiresIn:    token.ExpiresIn,
			Session:      true,
		})
	}
}

// Refresh trades a refresh token, sent as "Authorization: Refresh <token>"
// or as {"refresh_token"} in the body, for a new token pair.
func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refreshToken, ok := httpx.BearerToken(r.Header.Get("authorization"), "refresh")
		if !ok {
			var body struct {
				RefreshToken string `json:"refresh_token" validate:"required"`
			}
			if err := httpx.Decode(r.Body, &body); err != nil {
				httpx.LogStatus(w, r, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
				return
			}
			refreshToken = body.RefreshToken
		}

		token, status, err := httpx.IssueToken(r.Context(), app.BearerServer, url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {refreshToken},
		})
		if err != nil {
			httpx.LogInternalError(w, r, "refresh.issue_token", err)
			return
		}
		if status != http.StatusOK {
			httpx.LogStatus(w, r, http.StatusUnauthorized, log.DebugLevel, "refresh.rejected")
			return
		}

		render.JSON(w, r, map[string]any{
			"token":         token.AccessToken,
			"refresh_token": token.RefreshToken,
			"expires_in":    token.ExpiresIn,
		})
	}
}

func Me(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := middlewares.SessionFrom(r.Context())
		render.JSON(w, r, map[string]any{
			"user": map[string]string{
				"id":    session.UserID,
				"email": session.Email,
			},
		})
	}
}

func tokenError(status int, err error) error {
	if err != nil {
		return err
	}
	return errors.New("token endpoint answered " + http.StatusText(status))
}
