package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/gofrs/uuid"
	"github.com/mbolis/quick-forms/model"
	"github.com/pkg/errors"
)

const answerColumns = `
	a.id, a.response_id, a.question_id, a.answer_text, a.selected_options,
	a.file_url, a.file_name, a.file_size, a.storage_path,
	q.question_text, q.question_type, q.order_index`

// NewResponse allocates the identity of a response before its files are
// uploaded, so object keys can refer to it.
func NewResponse(formID string) model.Response {
	return model.Response{
		ID:          uuid.Must(uuid.NewV4()).String(),
		FormID:      formID,
		SubmittedAt: now(),
	}
}

// InsertResponse writes a response and all of its answers atomically.
func InsertResponse(ctx context.Context, db *sql.DB, response model.Response, answers []model.Answer) error {
	return inTx(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO responses (id, form_id, submitted_at) VALUES (?, ?, ?)`,
			response.ID, response.FormID, response.SubmittedAt,
		)
		if err != nil {
			return errors.Wrap(err, "insert response")
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO answers (
				id, response_id, question_id, answer_text, selected_options,
				file_url, file_name, file_size, storage_path
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return errors.Wrap(err, "prepare insert answer")
		}
		defer stmt.Close()

		for _, a := range answers {
			if a.ID == "" {
				a.ID = uuid.Must(uuid.NewV4()).String()
			}
			selected, err := encodeList(a.SelectedOptions)
			if err != nil {
				return err
			}
			var fileSize sql.NullInt64
			if a.FileSize != nil {
				fileSize = sql.NullInt64{Int64: *a.FileSize, Valid: true}
			}
			_, err = stmt.ExecContext(ctx,
				a.ID, response.ID, a.QuestionID, nullString(a.AnswerText), selected,
				nullString(a.FileURL), nullString(a.FileName), fileSize, nullString(a.StoragePath),
			)
			if err != nil {
				return errors.Wrapf(err, "insert answer for %s", a.QuestionID)
			}
		}
		return nil
	})
}

// ListResponses returns the responses to a form, newest first, each with its
// answers in question order.
func ListResponses(ctx context.Context, q Queryer, formID string) ([]model.ResponseDetail, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, form_id, submitted_at
		FROM responses
		WHERE form_id = ?
		ORDER BY submitted_at DESC, id`,
		formID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "select responses")
	}
	defer rows.Close()

	responses := []model.ResponseDetail{}
	index := map[string]int{}
	for rows.Next() {
		r := model.ResponseDetail{Answers: []model.Answer{}}
		err = rows.Scan(&r.ID, &r.FormID, &r.SubmittedAt)
		if err != nil {
			return nil, errors.Wrap(err, "scan response")
		}
		index[r.ID] = len(responses)
		responses = append(responses, r)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	answers, err := listAnswers(ctx, q, `
		SELECT `+answerColumns+`
		FROM answers a
		JOIN questions q ON (q.id = a.question_id)
		JOIN responses r ON (r.id = a.response_id)
		WHERE r.form_id = ?
		ORDER BY q.order_index`,
		formID,
	)
	if err != nil {
		return nil, err
	}
	for _, a := range answers {
		if i, ok := index[a.ResponseID]; ok {
			responses[i].Answers = append(responses[i].Answers, a)
		}
	}
	return responses, nil
}

// GetResponse returns one response with its form title and answers.
func GetResponse(ctx context.Context, q Queryer, id string) (model.ResponseDetail, error) {
	r := model.ResponseDetail{Form: &model.ResponseForm{}}
	err := q.QueryRowContext(ctx, `
		SELECT r.id, r.form_id, r.submitted_at, f.title
		FROM responses r
		JOIN forms f ON (f.id = r.form_id)
		WHERE r.id = ?`, id).
		Scan(&r.ID, &r.FormID, &r.SubmittedAt, &r.Form.Title)
	if err != nil {
		return model.ResponseDetail{}, notFound(err)
	}

	r.Answers, err = listAnswers(ctx, q, `
		SELECT `+answerColumns+`
		FROM answers a
		JOIN questions q ON (q.id = a.question_id)
		WHERE a.response_id = ?
		ORDER BY q.order_index`,
		id,
	)
	if err != nil {
		return model.ResponseDetail{}, err
	}
	return r, nil
}

// ResponseFormID returns the form a response belongs to.
func ResponseFormID(ctx context.Context, q Queryer, id string) (string, error) {
	var formID string
	err := q.QueryRowContext(ctx, `SELECT form_id FROM responses WHERE id = ?`, id).Scan(&formID)
	if err != nil {
		return "", notFound(err)
	}
	return formID, nil
}

func DeleteResponse(ctx context.Context, q Queryer, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM responses WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete response")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ResponseStoragePaths lists the answer files stored for a response.
func ResponseStoragePaths(ctx context.Context, q Queryer, id string) ([]string, error) {
	return storagePaths(ctx, q, `
		SELECT storage_path FROM answers
		WHERE response_id = ? AND storage_path IS NOT NULL`,
		id,
	)
}

func listAnswers(ctx context.Context, q Queryer, query string, args ...any) ([]model.Answer, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select answers")
	}
	defer rows.Close()

	answers := []model.Answer{}
	for rows.Next() {
		var (
			a                                    model.Answer
			question                             model.AnswerQuestion
			text, selected, url, name, storePath sql.NullString
			size                                 sql.NullInt64
		)
		err = rows.Scan(
			&a.ID, &a.ResponseID, &a.QuestionID, &text, &selected,
			&url, &name, &size, &storePath,
			&question.QuestionText, &question.QuestionType, &question.OrderIndex,
		)
		if err != nil {
			return nil, errors.Wrap(err, "scan answer")
		}
		a.AnswerText = stringPtr(text)
		a.FileURL = stringPtr(url)
		a.FileName = stringPtr(name)
		a.FileSize = int64Ptr(size)
		a.StoragePath = stringPtr(storePath)
		if selected.Valid {
			a.SelectedOptions = []string{}
			if err := json.Unmarshal([]byte(selected.String), &a.SelectedOptions); err != nil {
				return nil, errors.Wrap(err, "decode selected options")
			}
		}
		a.Question = &question
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
