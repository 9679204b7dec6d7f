package routes

import (
	"context"
	"errors"
	"net/http"

	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/routes/middlewares"
)

// ownedForm loads a form and checks the caller created it. On failure the
// 404 or 403 response is already written.
func ownedForm(app app.App, w http.ResponseWriter, r *http.Request, formID string, code string) (model.Form, bool) {
	form, err := database.GetForm(r.Context(), app.DB, formID)
	if errors.Is(err, database.ErrNotFound) {
		httpx.LogNotFound(w, r, code, "Form", formID)
		return model.Form{}, false
	}
	if err != nil {
		httpx.LogInternalError(w, r, "db.get_form", err)
		return model.Form{}, false
	}

	session, ok := middlewares.SessionFrom(r.Context())
	if !ok || session.UserID != form.CreatedBy {
		httpx.LogStatusMsg(w, r, http.StatusForbidden, log.DebugLevel, code+".owner", "Unauthorized")
		return model.Form{}, false
	}
	return form, true
}

// removeBlobs deletes stored objects after their rows are gone. Failures
// only leave orphan files behind, so they are logged and not reported.
func removeBlobs(ctx context.Context, app app.App, code string, keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := app.Storage.Remove(ctx, keys...); err != nil {
		log.Warnf("%s: %s", code, err)
	}
}
