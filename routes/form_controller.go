package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/routes/middlewares"
)

type formBody struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	IsPublic    *bool   `json:"is_public"`
}

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body formBody
		if err := httpx.Decode(r.Body, &body); err != nil {
			httpx.LogInvalid(w, r, "create_form.parse_body", err)
			return
		}
		if body.Title == nil || strings.TrimSpace(*body.Title) == "" {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "create_form.title", "Form title is required")
			return
		}
		description := ""
		if body.Description != nil {
			description = *body.Description
		}

		session, _ := middlewares.SessionFrom(r.Context())
		form, err := database.CreateForm(r.Context(), app.DB, session.UserID, strings.TrimSpace(*body.Title), description)
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_form", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message": "Form created successfully",
			"form":    form,
		})
	}
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := middlewares.SessionFrom(r.Context())
		forms, err := database.ListForms(r.Context(), app.DB, session.UserID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_forms", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"forms": forms,
		})
	}
}

// GetFormById serves public forms to anyone and private ones to their owner.
func GetFormById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "id")

		form, err := database.GetForm(r.Context(), app.DB, formID)
		if errors.Is(err, database.ErrNotFound) {
			httpx.LogNotFound(w, r, "get_form", "Form", formID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_form", err)
			return
		}

		if !form.IsPublic {
			session, ok := middlewares.SessionFrom(r.Context())
			if !ok || session.UserID != form.CreatedBy {
				httpx.LogStatusMsg(w, r, http.StatusForbidden, log.DebugLevel, "get_form.private", "Form is not public")
				return
			}
		}

		full, err := database.LoadForm(r.Context(), app.DB, form)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_form.questions", err)
			return
		}

		branding, err := database.GetBranding(r.Context(), app.DB, form.ID)
		switch {
		case errors.Is(err, database.ErrNotFound):
			branding = model.DefaultBranding(form.ID)
		case err != nil:
			httpx.LogInternalError(w, r, "db.get_form.branding", err)
			return
		}
		full.Branding = &branding

		full.Media, err = database.ListMedia(r.Context(), app.DB, form.ID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_form.media", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"form": full,
		})
	}
}

func UpdateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := ownedForm(app, w, r, chi.URLParam(r, "id"), "update_form")
		if !ok {
			return
		}

		var body formBody
		if err := httpx.Decode(r.Body, &body); err != nil {
			httpx.LogInvalid(w, r, "update_form.parse_body", err)
			return
		}
		if body.Title != nil {
			if strings.TrimSpace(*body.Title) == "" {
				httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "update_form.title", "Form title is required")
				return
			}
			form.Title = strings.TrimSpace(*body.Title)
		}
		if body.Description != nil {
			form.Description = *body.Description
		}
		if body.IsPublic != nil {
			form.IsPublic = *body.IsPublic
		}

		form, err := database.UpdateForm(r.Context(), app.DB, form)
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_form", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"message": "Form updated successfully",
			"form":    form,
		})
	}
}

func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := ownedForm(app, w, r, chi.URLParam(r, "id"), "delete_form")
		if !ok {
			return
		}

		keys, err := database.FormStoragePaths(r.Context(), app.DB, form.ID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_form.storage_paths", err)
			return
		}

		err = database.DeleteForm(r.Context(), app.DB, form.ID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_form", err)
			return
		}
		removeBlobs(r.Context(), app, "storage.delete_form", keys)

		render.JSON(w, r, map[string]any{
			"message": "Form deleted successfully",
		})
	}
}

func ListQuestionTypes(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{
			"question_types": model.QuestionTypes(),
		})
	}
}
