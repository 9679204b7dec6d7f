package database

import (
	"context"
	"database/sql"

	"github.com/gofrs/uuid"
	"github.com/mbolis/quick-forms/model"
	"github.com/pkg/errors"
)

const brandingColumns = `
	id, form_id, primary_color, secondary_color, background_color, text_color,
	button_color, button_text_color, logo_url, logo_storage_path, logo_position,
	font_family, heading_font_size, body_font_size, form_width, border_radius,
	custom_css, created_at, updated_at`

// GetBranding returns the stored branding of a form, or ErrNotFound.
func GetBranding(ctx context.Context, q Queryer, formID string) (model.FormBranding, error) {
	var (
		b                         model.FormBranding
		logoURL, logoPath, custom sql.NullString
	)
	err := q.QueryRowContext(ctx, `
		SELECT `+brandingColumns+` FROM form_branding WHERE form_id = ?`, formID).
		Scan(
			&b.ID, &b.FormID, &b.PrimaryColor, &b.SecondaryColor, &b.BackgroundColor, &b.TextColor,
			&b.ButtonColor, &b.ButtonTextColor, &logoURL, &logoPath, &b.LogoPosition,
			&b.FontFamily, &b.HeadingFontSize, &b.BodyFontSize, &b.FormWidth, &b.BorderRadius,
			&custom, &b.CreatedAt, &b.UpdatedAt,
		)
	if err != nil {
		return model.FormBranding{}, notFound(err)
	}
	b.LogoURL = stringPtr(logoURL)
	b.LogoStoragePath = stringPtr(logoPath)
	b.CustomCSS = stringPtr(custom)
	return b, nil
}

// SaveBranding inserts or replaces the branding of b.FormID.
func SaveBranding(ctx context.Context, q Queryer, b model.FormBranding) (model.FormBranding, error) {
	t := now()
	if b.ID == "" {
		b.ID = uuid.Must(uuid.NewV4()).String()
		b.CreatedAt = t
	}
	b.UpdatedAt = t

	_, err := q.ExecContext(ctx, `
		INSERT INTO form_branding (`+brandingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (form_id) DO UPDATE SET
			primary_color = excluded.primary_color,
			secondary_color = excluded.secondary_color,
			background_color = excluded.background_color,
			text_color = excluded.text_color,
			button_color = excluded.button_color,
			button_text_color = excluded.button_text_color,
			logo_url = excluded.logo_url,
			logo_storage_path = excluded.logo_storage_path,
			logo_position = excluded.logo_position,
			font_family = excluded.font_family,
			heading_font_size = excluded.heading_font_size,
			body_font_size = excluded.body_font_size,
			form_width = excluded.form_width,
			border_radius = excluded.border_radius,
			custom_css = excluded.custom_css,
			updated_at = excluded.updated_at`,
		b.ID, b.FormID, b.PrimaryColor, b.SecondaryColor, b.BackgroundColor, b.TextColor,
		b.ButtonColor, b.ButtonTextColor, nullString(b.LogoURL), nullString(b.LogoStoragePath), b.LogoPosition,
		b.FontFamily, b.HeadingFontSize, b.BodyFontSize, b.FormWidth, b.BorderRadius,
		nullString(b.CustomCSS), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return model.FormBranding{}, errors.Wrap(err, "upsert branding")
	}
	return GetBranding(ctx, q, b.FormID)
}
