package database

import (
	"context"
	"database/sql"

	"github.com/gofrs/uuid"
	"github.com/mbolis/quick-forms/model"
	"github.com/pkg/errors"
)

const mediaColumns = `
	id, form_id, question_id, media_type, media_url, storage_path,
	file_name, file_size, mime_type, position, created_at`

func CreateMedia(ctx context.Context, q Queryer, m model.FormMedia) (model.FormMedia, error) {
	m.ID = uuid.Must(uuid.NewV4()).String()
	m.CreatedAt = now()
	_, err := q.ExecContext(ctx, `
		INSERT INTO form_media (`+mediaColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.FormID, nullString(m.QuestionID), m.MediaType, m.MediaURL, m.StoragePath,
		m.FileName, m.FileSize, m.MimeType, m.Position, m.CreatedAt,
	)
	if err != nil {
		return model.FormMedia{}, errors.Wrap(err, "insert media")
	}
	return m, nil
}

// ListMedia returns the media of a form, oldest first.
func ListMedia(ctx context.Context, q Queryer, formID string) ([]model.FormMedia, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+mediaColumns+`
		FROM form_media
		WHERE form_id = ?
		ORDER BY created_at, id`,
		formID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "select media")
	}
	defer rows.Close()

	media := []model.FormMedia{}
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan media")
		}
		media = append(media, m)
	}
	return media, rows.Err()
}

func GetMedia(ctx context.Context, q Queryer, id string) (model.FormMedia, error) {
	m, err := scanMedia(q.QueryRowContext(ctx, `
		SELECT `+mediaColumns+` FROM form_media WHERE id = ?`, id))
	if err != nil {
		return model.FormMedia{}, notFound(err)
	}
	return m, nil
}

func DeleteMedia(ctx context.Context, q Queryer, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM form_media WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete media")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMedia(row rowScanner) (model.FormMedia, error) {
	var (
		m          model.FormMedia
		questionID sql.NullString
	)
	err := row.Scan(
		&m.ID, &m.FormID, &questionID, &m.MediaType, &m.MediaURL, &m.StoragePath,
		&m.FileName, &m.FileSize, &m.MimeType, &m.Position, &m.CreatedAt,
	)
	if err != nil {
		return model.FormMedia{}, err
	}
	m.QuestionID = stringPtr(questionID)
	return m, nil
}
