package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/model"
)

// optionInput accepts either a bare label or an {"option_text"} object.
type optionInput string

func (o *optionInput) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*o = optionInput(text)
		return nil
	}
	var obj struct {
		OptionText string `json:"option_text"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*o = optionInput(obj.OptionText)
	return nil
}

type questionBody struct {
	QuestionText *string             `json:"question_text" validate:"omitempty,max=1000"`
	QuestionType *model.QuestionType `json:"question_type" validate:"omitempty,questiontype"`
	IsRequired   *bool               `json:"is_required"`
	Options      []optionInput       `json:"options" validate:"omitempty,max=100"`
	RatingScale  *int                `json:"rating_scale" validate:"omitempty,min=2,max=10"`
	FileTypes    []string            `json:"file_types" validate:"omitempty,dive,alphanum,max=10"`
	MaxFileSize  *int64              `json:"max_file_size" validate:"omitempty,min=1"`
}

// apply merges the fields present in the body into q.
func (b questionBody) apply(q *model.Question) {
	if b.QuestionText != nil {
		q.QuestionText = strings.TrimSpace(*b.QuestionText)
	}
	if b.QuestionType != nil {
		if q.QuestionType != *b.QuestionType {
			q.RatingScale = 0
		}
		q.QuestionType = *b.QuestionType
	}
	if b.IsRequired != nil {
		q.IsRequired = *b.IsRequired
	}
	if b.Options != nil {
		q.Options = make([]model.Option, 0, len(b.Options))
		for _, o := range b.Options {
			if text := strings.TrimSpace(string(o)); text != "" {
				q.Options = append(q.Options, model.Option{OptionText: text})
			}
		}
	}
	if b.RatingScale != nil {
		q.RatingScale = *b.RatingScale
	}
	if b.FileTypes != nil {
		q.FileTypes = b.FileTypes
	}
	if b.MaxFileSize != nil {
		q.MaxFileSize = *b.MaxFileSize
	}
}

// conform fills in the defaults of q's type and drops the settings the type
// does not use.
func conform(q *model.Question, maxUpload int64) error {
	info, ok := q.QuestionType.Info()
	if !ok {
		return fmt.Errorf("unknown question type %q", q.QuestionType)
	}

	if info.NeedsOptions {
		if len(q.Options) == 0 {
			return fmt.Errorf("%s questions need at least one option", q.QuestionType.Label())
		}
	} else {
		q.Options = []model.Option{}
	}

	// the scale is fixed by the type; a conflicting one is an error
	switch {
	case info.NeedsScale && q.RatingScale != 0 && q.RatingScale != info.Scale:
		return fmt.Errorf("%s questions use a scale of %d", q.QuestionType.Label(), info.Scale)
	case info.NeedsScale:
		q.RatingScale = info.Scale
	case q.RatingScale != 0:
		return fmt.Errorf("rating_scale only applies to rating questions")
	}

	if info.NeedsFileConstraints {
		if len(q.FileTypes) == 0 {
			q.FileTypes = append([]string(nil), model.DefaultFileTypes...)
		}
		for i, ext := range q.FileTypes {
			q.FileTypes[i] = strings.ToLower(strings.TrimPrefix(ext, "."))
		}
		if q.MaxFileSize == 0 {
			q.MaxFileSize = min(model.DefaultMaxFileSize, maxUpload)
		}
		if q.MaxFileSize > maxUpload {
			return fmt.Errorf("max_file_size cannot exceed %d bytes", maxUpload)
		}
	} else {
		q.FileTypes = nil
		q.MaxFileSize = 0
	}
	return nil
}

func AddQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := ownedForm(app, w, r, chi.URLParam(r, "id"), "add_question")
		if !ok {
			return
		}

		var body questionBody
		if err := httpx.Decode(r.Body, &body); err != nil {
			httpx.LogInvalid(w, r, "add_question.parse_body", err)
			return
		}
		if body.QuestionText == nil || strings.TrimSpace(*body.QuestionText) == "" || body.QuestionType == nil {
			httpx.LogInvalid(w, r, "add_question.required", errors.New("question_text and question_type are required"))
			return
		}

		question := model.Question{FormID: form.ID}
		body.apply(&question)
		if err := conform(&question, app.MaxUploadSize); err != nil {
			httpx.LogInvalid(w, r, "add_question.conform", err)
			return
		}

		question, err := database.CreateQuestion(r.Context(), app.DB, question)
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_question", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message":  "Question added successfully",
			"question": question,
		})
	}
}

func UpdateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		question, ok := ownedQuestion(app, w, r, "update_question")
		if !ok {
			return
		}

		var body questionBody
		if err := httpx.Decode(r.Body, &body); err != nil {
			httpx.LogInvalid(w, r, "update_question.parse_body", err)
			return
		}
		if body.QuestionText != nil && strings.TrimSpace(*body.QuestionText) == "" {
			httpx.LogInvalid(w, r, "update_question.text", errors.New("question_text cannot be empty"))
			return
		}

		previousType := question.QuestionType
		body.apply(&question)
		if err := conform(&question, app.MaxUploadSize); err != nil {
			httpx.LogInvalid(w, r, "update_question.conform", err)
			return
		}

		// options go when the type stops using them
		info, _ := question.QuestionType.Info()
		withOptions := body.Options != nil || (previousType != question.QuestionType && !info.NeedsOptions)

		question, err := database.UpdateQuestion(r.Context(), app.DB, question, withOptions)
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_question", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"message":  "Question updated successfully",
			"question": question,
		})
	}
}

func DeleteQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		question, ok := ownedQuestion(app, w, r, "delete_question")
		if !ok {
			return
		}

		keys, err := database.QuestionStoragePaths(r.Context(), app.DB, question.ID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_question.storage_paths", err)
			return
		}

		err = database.DeleteQuestion(r.Context(), app.DB, question.ID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_question", err)
			return
		}
		removeBlobs(r.Context(), app, "storage.delete_question", keys)

		render.JSON(w, r, map[string]any{
			"message": "Question deleted successfully",
		})
	}
}

func ownedQuestion(app app.App, w http.ResponseWriter, r *http.Request, code string) (model.Question, bool) {
	questionID := chi.URLParam(r, "id")
	question, err := database.GetQuestion(r.Context(), app.DB, questionID)
	if errors.Is(err, database.ErrNotFound) {
		httpx.LogNotFound(w, r, code, "Question", questionID)
		return model.Question{}, false
	}
	if err != nil {
		httpx.LogInternalError(w, r, "db.get_question", err)
		return model.Question{}, false
	}

	if _, ok := ownedForm(app, w, r, question.FormID, code); !ok {
		return model.Question{}, false
	}
	return question, true
}
