package database

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/mbolis/quick-forms/model"
	"github.com/pkg/errors"
)

func CreateForm(ctx context.Context, q Queryer, ownerID, title, description string) (model.Form, error) {
	t := now()
	form := model.Form{
		ID:          uuid.Must(uuid.NewV4()).String(),
		Title:       title,
		Description: description,
		CreatedBy:   ownerID,
		CreatedAt:   t,
		UpdatedAt:   t,
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO forms (id, title, description, created_by, is_public, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		form.ID, form.Title, form.Description, form.CreatedBy, form.IsPublic, form.CreatedAt, form.UpdatedAt,
	)
	if err != nil {
		return model.Form{}, errors.Wrap(err, "insert form")
	}
	return form, nil
}

func GetForm(ctx context.Context, q Queryer, id string) (model.Form, error) {
	var f model.Form
	err := q.QueryRowContext(ctx, `
		SELECT id, title, description, created_by, is_public, created_at, updated_at
		FROM forms
		WHERE id = ?`, id).
		Scan(&f.ID, &f.Title, &f.Description, &f.CreatedBy, &f.IsPublic, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return model.Form{}, notFound(err)
	}
	return f, nil
}

// ListForms returns the forms owned by ownerID, newest first.
func ListForms(ctx context.Context, q Queryer, ownerID string) ([]model.FormSummary, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT
			f.id, f.title, f.description, f.created_by, f.is_public, f.created_at, f.updated_at,
			(SELECT COUNT(*) FROM questions WHERE form_id = f.id),
			(SELECT COUNT(*) FROM responses WHERE form_id = f.id)
		FROM forms f
		WHERE f.created_by = ?
		ORDER BY f.created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "select forms")
	}
	defer rows.Close()

	forms := []model.FormSummary{}
	for rows.Next() {
		var f model.FormSummary
		err = rows.Scan(
			&f.ID, &f.Title, &f.Description, &f.CreatedBy, &f.IsPublic, &f.CreatedAt, &f.UpdatedAt,
			&f.QuestionCount, &f.ResponseCount,
		)
		if err != nil {
			return nil, errors.Wrap(err, "scan form")
		}
		forms = append(forms, f)
	}
	return forms, rows.Err()
}

// UpdateForm saves title, description and visibility, bumping updated_at.
func UpdateForm(ctx context.Context, q Queryer, form model.Form) (model.Form, error) {
	form.UpdatedAt = now()
	res, err := q.ExecContext(ctx, `
		UPDATE forms
		SET title = ?, description = ?, is_public = ?, updated_at = ?
		WHERE id = ?`,
		form.Title, form.Description, form.IsPublic, form.UpdatedAt, form.ID,
	)
	if err != nil {
		return model.Form{}, errors.Wrap(err, "update form")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Form{}, ErrNotFound
	}
	return form, nil
}

func DeleteForm(ctx context.Context, q Queryer, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM forms WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete form")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func touchForm(ctx context.Context, q Queryer, formID string) error {
	_, err := q.ExecContext(ctx, `UPDATE forms SET updated_at = ? WHERE id = ?`, now(), formID)
	return errors.Wrap(err, "touch form")
}

// LoadForm returns the form with its questions and their options in order.
func LoadForm(ctx context.Context, q Queryer, form model.Form) (model.FormWithQuestions, error) {
	questions, err := ListQuestions(ctx, q, form.ID)
	if err != nil {
		return model.FormWithQuestions{}, err
	}
	options, err := listOptions(ctx, q, `
		SELECT o.id, o.question_id, o.option_text, o.order_index
		FROM options o
		JOIN questions q ON (q.id = o.question_id)
		WHERE q.form_id = ?`,
		form.ID,
	)
	if err != nil {
		return model.FormWithQuestions{}, err
	}
	return model.Assemble(form, questions, options), nil
}

// FormStoragePaths lists every blob owned by a form: answer files, media and logo.
func FormStoragePaths(ctx context.Context, q Queryer, formID string) ([]string, error) {
	return storagePaths(ctx, q, `
		SELECT a.storage_path
		FROM answers a
		JOIN responses r ON (r.id = a.response_id)
		WHERE r.form_id = ? AND a.storage_path IS NOT NULL
		UNION ALL
		SELECT storage_path FROM form_media WHERE form_id = ?
		UNION ALL
		SELECT logo_storage_path FROM form_branding
		WHERE form_id = ? AND logo_storage_path IS NOT NULL`,
		formID, formID, formID,
	)
}

func storagePaths(ctx context.Context, q Queryer, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select storage paths")
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, errors.Wrap(err, "scan storage path")
		}
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths, rows.Err()
}
