package routes

import (
	"bytes"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/routes/middlewares"
	"github.com/mbolis/quick-forms/storage"
)

var documentTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"text/plain": true,
}

// mediaType classifies an upload as image, video or document, or "" when
// the type is not accepted.
func mediaType(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	switch {
	case strings.HasPrefix(base, "image/"):
		return "image"
	case strings.HasPrefix(base, "video/"):
		return "video"
	case documentTypes[base]:
		return "document"
	}
	return ""
}

var mediaPositions = map[string]bool{"top": true, "bottom": true, "left": true, "right": true}

func UploadMedia(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := ownedForm(app, w, r, chi.URLParam(r, "id"), "upload_media")
		if !ok {
			return
		}

		upload, err := httpx.ReadUpload(w, r, app.MaxUploadSize)
		if err != nil {
			httpx.LogInvalid(w, r, "upload_media.read", err)
			return
		}

		kind := mediaType(upload.MimeType)
		if kind == "" {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "upload_media.type",
				"Invalid file type. Only images, videos, and documents are allowed.")
			return
		}

		position := upload.Fields["position"]
		if position == "" {
			position = "top"
		}
		if !mediaPositions[position] {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "upload_media.position",
				"position must be one of: top, bottom, left, right")
			return
		}

		var questionID *string
		if id := upload.Fields["question_id"]; id != "" {
			q, err := database.GetQuestion(r.Context(), app.DB, id)
			if err != nil || q.FormID != form.ID {
				httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "upload_media.question",
					"question_id does not belong to this form")
				return
			}
			questionID = &id
		}

		session, _ := middlewares.SessionFrom(r.Context())
		key := storage.MediaKey(session.UserID, form.ID, filepath.Ext(upload.Name))
		err = app.Storage.Upload(r.Context(), key, bytes.NewReader(upload.Data), upload.MimeType)
		if err != nil {
			httpx.LogInternalError(w, r, "storage.upload_media", err)
			return
		}

		media, err := database.CreateMedia(r.Context(), app.DB, model.FormMedia{
			FormID:      form.ID,
			QuestionID:  questionID,
			MediaType:   kind,
			MediaURL:    app.Storage.PublicURL(key),
			StoragePath: key,
			FileName:    filepath.Base(upload.Name),
			FileSize:    upload.Size(),
			MimeType:    upload.MimeType,
			Position:    position,
		})
		if err != nil {
			removeBlobs(r.Context(), app, "storage.upload_media.rollback", []string{key})
			httpx.LogInternalError(w, r, "db.insert_media", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message": "Media uploaded successfully",
			"media":   media,
		})
	}
}

func ListMedia(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "id")
		media, err := database.ListMedia(r.Context(), app.DB, formID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_media", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"media": media,
		})
	}
}

func DeleteMedia(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mediaID := chi.URLParam(r, "id")

		media, err := database.GetMedia(r.Context(), app.DB, mediaID)
		if errors.Is(err, database.ErrNotFound) {
			httpx.LogNotFound(w, r, "delete_media", "Media", mediaID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_media", err)
			return
		}
		if _, ok := ownedForm(app, w, r, media.FormID, "delete_media"); !ok {
			return
		}

		removeBlobs(r.Context(), app, "storage.delete_media", []string{media.StoragePath})

		err = database.DeleteMedia(r.Context(), app.DB, media.ID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_media", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"message": "Media deleted successfully",
		})
	}
}
