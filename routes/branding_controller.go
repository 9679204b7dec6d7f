package routes

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
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

const logoSize = 512

type brandingBody struct {
	PrimaryColor    *string `json:"primary_color" validate:"omitempty,hexcolor"`
	SecondaryColor  *string `json:"secondary_color" validate:"omitempty,hexcolor"`
	BackgroundColor *string `json:"background_color" validate:"omitempty,hexcolor"`
	TextColor       *string `json:"text_color" validate:"omitempty,hexcolor"`
	ButtonColor     *string `json:"button_color" validate:"omitempty,hexcolor"`
	ButtonTextColor *string `json:"button_text_color" validate:"omitempty,hexcolor"`
	LogoPosition    *string `json:"logo_position" validate:"omitempty,oneof=top center"`
	FontFamily      *string `json:"font_family" validate:"omitempty,max=100"`
	HeadingFontSize *int    `json:"heading_font_size" validate:"omitempty,min=8,max=96"`
	BodyFontSize    *int    `json:"body_font_size" validate:"omitempty,min=8,max=48"`
	FormWidth       *string `json:"form_width" validate:"omitempty,oneof=small medium large full"`
	BorderRadius    *int    `json:"border_radius" validate:"omitempty,min=0,max=64"`
	CustomCSS       *string `json:"custom_css" validate:"omitempty,max=20000"`
}

func (b brandingBody) apply(br *model.FormBranding) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&br.PrimaryColor, b.PrimaryColor)
	set(&br.SecondaryColor, b.SecondaryColor)
	set(&br.BackgroundColor, b.BackgroundColor)
	set(&br.TextColor, b.TextColor)
	set(&br.ButtonColor, b.ButtonColor)
	set(&br.ButtonTextColor, b.ButtonTextColor)
	set(&br.LogoPosition, b.LogoPosition)
	set(&br.FontFamily, b.FontFamily)
	set(&br.FormWidth, b.FormWidth)
	if b.HeadingFontSize != nil {
		br.HeadingFontSize = *b.HeadingFontSize
	}
	if b.BodyFontSize != nil {
		br.BodyFontSize = *b.BodyFontSize
	}
	if b.BorderRadius != nil {
		br.BorderRadius = *b.BorderRadius
	}
	if b.CustomCSS != nil {
		css := *b.CustomCSS
		br.CustomCSS = &css
		if css == "" {
			br.CustomCSS = nil
		}
	}
}

// currentBranding returns the stored branding of a form or its defaults.
func currentBranding(app app.App, r *http.Request, formID string) (model.FormBranding, error) {
	branding, err := database.GetBranding(r.Context(), app.DB, formID)
	if errors.Is(err, database.ErrNotFound) {
		return model.DefaultBranding(formID), nil
	}
	return branding, err
}

func GetBranding(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		branding, err := currentBranding(app, r, chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_branding", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"branding": branding,
		})
	}
}

func UpdateBranding(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := ownedForm(app, w, r, chi.URLParam(r, "id"), "update_branding")
		if !ok {
			return
		}

		var body brandingBody
		if err := httpx.Decode(r.Body, &body); err != nil {
			httpx.LogInvalid(w, r, "update_branding.parse_body", err)
			return
		}

		branding, err := currentBranding(app, r, form.ID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_branding", err)
			return
		}
		body.apply(&branding)

		branding, err = database.SaveBranding(r.Context(), app.DB, branding)
		if err != nil {
			httpx.LogInternalError(w, r, "db.save_branding", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"message":  "Branding updated successfully",
			"branding": branding,
		})
	}
}

// UploadLogo stores a form logo scaled to fit 512x512 and re-encoded as PNG.
// The previous logo is removed once the new one is saved.
func UploadLogo(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := ownedForm(app, w, r, chi.URLParam(r, "id"), "upload_logo")
		if !ok {
			return
		}

		upload, err := httpx.ReadUpload(w, r, app.MaxUploadSize)
		if err != nil {
			httpx.LogInvalid(w, r, "upload_logo.read", err)
			return
		}
		if !strings.HasPrefix(upload.MimeType, "image/") {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "upload_logo.type", "Logo must be an image")
			return
		}

		img, err := imaging.Decode(bytes.NewReader(upload.Data), imaging.AutoOrientation(true))
		if err != nil {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "upload_logo.decode", "Unsupported image format")
			return
		}
		img = imaging.Fit(img, logoSize, logoSize, imaging.Lanczos)

		var png bytes.Buffer
		if err := imaging.Encode(&png, img, imaging.PNG); err != nil {
			httpx.LogInternalError(w, r, "upload_logo.encode", err)
			return
		}

		branding, err := currentBranding(app, r, form.ID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_branding", err)
			return
		}
		previous := branding.LogoStoragePath

		session, _ := middlewares.SessionFrom(r.Context())
		key := storage.LogoKey(session.UserID, form.ID, ".png")
		err = app.Storage.Upload(r.Context(), key, &png, "image/png")
		if err != nil {
			httpx.LogInternalError(w, r, "storage.upload_logo", err)
			return
		}

		logoURL := app.Storage.PublicURL(key)
		branding.LogoURL = &logoURL
		branding.LogoStoragePath = &key
		branding, err = database.SaveBranding(r.Context(), app.DB, branding)
		if err != nil {
			removeBlobs(r.Context(), app, "storage.upload_logo.rollback", []string{key})
			httpx.LogInternalError(w, r, "db.save_branding", err)
			return
		}
		if previous != nil {
			removeBlobs(r.Context(), app, "storage.upload_logo.previous", []string{*previous})
		}

		render.JSON(w, r, map[string]any{
			"message":  "Logo uploaded successfully",
			"logo_url": logoURL,
			"branding": branding,
		})
	}
}
