package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/gofrs/uuid"
	"github.com/mbolis/quick-forms/model"
	"github.com/pkg/errors"
)

const questionColumns = `
	id, form_id, question_text, question_type, is_required, order_index,
	rating_scale, file_types, max_file_size, created_at`

// CreateQuestion appends a question, with its options, after the last one
// of its form.
func CreateQuestion(ctx context.Context, db *sql.DB, question model.Question) (model.Question, error) {
	err := inTx(ctx, db, func(tx *sql.Tx) error {
		var next int
		err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(order_index) + 1, 0) FROM questions WHERE form_id = ?`,
			question.FormID,
		).Scan(&next)
		if err != nil {
			return errors.Wrap(err, "next order index")
		}

		question.ID = uuid.Must(uuid.NewV4()).String()
		question.OrderIndex = next
		question.CreatedAt = now()

		fileTypes, err := encodeList(question.FileTypes)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO questions (`+questionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			question.ID, question.FormID, question.QuestionText, question.QuestionType,
			question.IsRequired, question.OrderIndex, nullInt(int64(question.RatingScale)),
			fileTypes, nullInt(question.MaxFileSize), question.CreatedAt,
		)
		if err != nil {
			return errors.Wrap(err, "insert question")
		}

		question.Options, err = replaceOptions(ctx, tx, question.ID, question.Options)
		if err != nil {
			return err
		}
		return touchForm(ctx, tx, question.FormID)
	})
	if err != nil {
		return model.Question{}, err
	}
	return question, nil
}

// GetQuestion returns a question with its options.
func GetQuestion(ctx context.Context, q Queryer, id string) (model.Question, error) {
	question, err := scanQuestion(q.QueryRowContext(ctx, `
		SELECT `+questionColumns+` FROM questions WHERE id = ?`, id))
	if err != nil {
		return model.Question{}, notFound(err)
	}
	options, err := listOptions(ctx, q, `
		SELECT id, question_id, option_text, order_index
		FROM options
		WHERE question_id = ?
		ORDER BY order_index`,
		id,
	)
	if err != nil {
		return model.Question{}, err
	}
	question.Options = append([]model.Option{}, options[id]...)
	return question, nil
}

// ListQuestions returns the questions of a form without their options.
func ListQuestions(ctx context.Context, q Queryer, formID string) ([]model.Question, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE form_id = ?
		ORDER BY order_index`,
		formID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "select questions")
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan question")
		}
		questions = append(questions, question)
	}
	return questions, rows.Err()
}

// UpdateQuestion saves the editable fields of a question. Options are
// replaced wholesale when withOptions is set.
func UpdateQuestion(ctx context.Context, db *sql.DB, question model.Question, withOptions bool) (model.Question, error) {
	err := inTx(ctx, db, func(tx *sql.Tx) error {
		fileTypes, err := encodeList(question.FileTypes)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE questions
			SET question_text = ?, question_type = ?, is_required = ?,
				rating_scale = ?, file_types = ?, max_file_size = ?
			WHERE id = ?`,
			question.QuestionText, question.QuestionType, question.IsRequired,
			nullInt(int64(question.RatingScale)), fileTypes, nullInt(question.MaxFileSize),
			question.ID,
		)
		if err != nil {
			return errors.Wrap(err, "update question")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}

		if withOptions {
			question.Options, err = replaceOptions(ctx, tx, question.ID, question.Options)
			if err != nil {
				return err
			}
		}
		return touchForm(ctx, tx, question.FormID)
	})
	if err != nil {
		return model.Question{}, err
	}
	return GetQuestion(ctx, db, question.ID)
}

func DeleteQuestion(ctx context.Context, q Queryer, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete question")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// QuestionStoragePaths lists the answer files stored for a question.
func QuestionStoragePaths(ctx context.Context, q Queryer, id string) ([]string, error) {
	return storagePaths(ctx, q, `
		SELECT storage_path FROM answers
		WHERE question_id = ? AND storage_path IS NOT NULL`,
		id,
	)
}

func replaceOptions(ctx context.Context, tx *sql.Tx, questionID string, options []model.Option) ([]model.Option, error) {
	_, err := tx.ExecContext(ctx, `DELETE FROM options WHERE question_id = ?`, questionID)
	if err != nil {
		return nil, errors.Wrap(err, "delete options")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO options (id, question_id, option_text, order_index)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare insert option")
	}
	defer stmt.Close()

	saved := make([]model.Option, 0, len(options))
	for i, o := range options {
		o.ID = uuid.Must(uuid.NewV4()).String()
		o.QuestionID = questionID
		o.OrderIndex = i
		_, err := stmt.ExecContext(ctx, o.ID, o.QuestionID, o.OptionText, o.OrderIndex)
		if err != nil {
			return nil, errors.Wrap(err, "insert option")
		}
		saved = append(saved, o)
	}
	return saved, nil
}

func listOptions(ctx context.Context, q Queryer, query string, args ...any) (map[string][]model.Option, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select options")
	}
	defer rows.Close()

	options := map[string][]model.Option{}
	for rows.Next() {
		var o model.Option
		err = rows.Scan(&o.ID, &o.QuestionID, &o.OptionText, &o.OrderIndex)
		if err != nil {
			return nil, errors.Wrap(err, "scan option")
		}
		options[o.QuestionID] = append(options[o.QuestionID], o)
	}
	return options, rows.Err()
}

func scanQuestion(row rowScanner) (model.Question, error) {
	var (
		question    model.Question
		ratingScale sql.NullInt64
		fileTypes   sql.NullString
		maxFileSize sql.NullInt64
	)
	err := row.Scan(
		&question.ID, &question.FormID, &question.QuestionText, &question.QuestionType,
		&question.IsRequired, &question.OrderIndex, &ratingScale, &fileTypes, &maxFileSize,
		&question.CreatedAt,
	)
	if err != nil {
		return model.Question{}, err
	}
	question.RatingScale = int(ratingScale.Int64)
	question.MaxFileSize = maxFileSize.Int64
	question.FileTypes, err = decodeList(fileTypes)
	return question, err
}

func encodeList(list []string) (sql.NullString, error) {
	if list == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return sql.NullString{}, errors.Wrap(err, "encode list")
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeList(ns sql.NullString) ([]string, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var list []string
	err := json.Unmarshal([]byte(ns.String), &list)
	return list, errors.Wrap(err, "decode list")
}

func nullInt(n int64) sql.NullInt64 {
	return sql.NullInt64{Int64: n, Valid: n != 0}
}

func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit")
}
