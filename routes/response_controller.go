package routes

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/mbolis/quick-forms/answers"
	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/storage"
)

type answerView struct {
	model.Answer
	Display answers.Render `json:"display"`
}

type responseView struct {
	model.Response
	Form    *model.ResponseForm `json:"form,omitempty"`
	Answers []answerView        `json:"answers"`
}

func viewResponse(r model.ResponseDetail, labels map[string]string) responseView {
	view := responseView{
		Response: r.Response,
		Form:     r.Form,
		Answers:  make([]answerView, 0, len(r.Answers)),
	}
	for _, a := range r.Answers {
		var qt model.QuestionType
		if a.Question != nil {
			qt = a.Question.QuestionType
		}
		view.Answers = append(view.Answers, answerView{
			Answer:  a,
			Display: answers.SelectRenderer(a, qt, labels),
		})
	}
	return view
}

type submission struct {
	Answers []answers.Input `json:"answers" validate:"required"`
}

// SubmitResponse records one respondent's answers to a public form. Files
// are uploaded first; the response and its answers are then written in one
// transaction, and the uploads are removed again if that fails.
func SubmitResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "id")

		r.Body = http.MaxBytesReader(w, r.Body, app.MaxSubmitSize)
		var body submission
		if err := httpx.Decode(r.Body, &body); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				httpx.LogStatusMsg(w, r, http.StatusRequestEntityTooLarge, log.DebugLevel, "submit_response.too_large",
					"Submission larger than %d bytes", tooLarge.Limit)
				return
			}
			httpx.LogInvalid(w, r, "submit_response.parse_body", err)
			return
		}

		form, err := database.GetForm(r.Context(), app.DB, formID)
		if errors.Is(err, database.ErrNotFound) {
			httpx.LogNotFound(w, r, "submit_response", "Form", formID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_form", err)
			return
		}
		if !form.IsPublic {
			httpx.LogStatusMsg(w, r, http.StatusForbidden, log.DebugLevel, "submit_response.private", "Form is not public")
			return
		}

		full, err := database.LoadForm(r.Context(), app.DB, form)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_form.questions", err)
			return
		}

		prepared, err := answers.Prepare(full.Questions, body.Answers)
		if err != nil {
			httpx.LogInvalid(w, r, "submit_response.validate", err)
			return
		}

		response := database.NewResponse(form.ID)
		rows := make([]model.Answer, 0, len(prepared))
		var uploaded []string
		for _, p := range prepared {
			a := model.Answer{
				QuestionID:      p.QuestionID,
				AnswerText:      p.AnswerText,
				SelectedOptions: p.SelectedOptions,
			}

			if p.File != nil {
				key := storage.AnswerKey(form.ID, response.ID, p.QuestionID, p.File.Ext())
				err := app.Storage.Upload(r.Context(), key, bytes.NewReader(p.File.Data), p.File.Type)
				if err != nil {
					removeBlobs(r.Context(), app, "storage.submit_response.rollback", uploaded)
					httpx.LogInternalError(w, r, "storage.upload_answer", err)
					return
				}
				uploaded = append(uploaded, key)

				fileURL := app.Storage.PublicURL(key)
				fileName := p.File.Name
				fileSize := int64(len(p.File.Data))
				a.AnswerText = nil
				a.FileURL, a.FileName, a.FileSize, a.StoragePath = &fileURL, &fileName, &fileSize, &key
			}
			rows = append(rows, a)
		}

		err = database.InsertResponse(r.Context(), app.DB, response, rows)
		if err != nil {
			removeBlobs(r.Context(), app, "storage.submit_response.rollback", uploaded)
			httpx.LogInternalError(w, r, "db.insert_response", err)
			return
		}

		log.WithFields(map[string]any{
			"form_id":     form.ID,
			"response_id": response.ID,
			"answers":     len(rows),
			"files":       len(uploaded),
		}).Info("response submitted")

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message":     "Response submitted successfully",
			"response_id": response.ID,
		})
	}
}

func ListResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := ownedForm(app, w, r, chi.URLParam(r, "id"), "list_responses")
		if !ok {
			return
		}

		full, err := database.LoadForm(r.Context(), app.DB, form)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_form.questions", err)
			return
		}

		responses, err := database.ListResponses(r.Context(), app.DB, form.ID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_responses", err)
			return
		}

		labels := full.OptionLabels()
		views := make([]responseView, 0, len(responses))
		for _, resp := range responses {
			views = append(views, viewResponse(resp, labels))
		}

		render.JSON(w, r, map[string]any{
			"responses": views,
			"total":     len(views),
		})
	}
}

func GetResponseById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responseID := chi.URLParam(r, "id")

		resp, err := database.GetResponse(r.Context(), app.DB, responseID)
		if errors.Is(err, database.ErrNotFound) {
			httpx.LogNotFound(w, r, "get_response", "Response", responseID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_response", err)
			return
		}

		form, ok := ownedForm(app, w, r, resp.FormID, "get_response")
		if !ok {
			return
		}

		full, err := database.LoadForm(r.Context(), app.DB, form)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_form.questions", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"response": viewResponse(resp, full.OptionLabels()),
		})
	}
}

func DeleteResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responseID := chi.URLParam(r, "id")

		formID, err := database.ResponseFormID(r.Context(), app.DB, responseID)
		if errors.Is(err, database.ErrNotFound) {
			httpx.LogNotFound(w, r, "delete_response", "Response", responseID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_response", err)
			return
		}
		if _, ok := ownedForm(app, w, r, formID, "delete_response"); !ok {
			return
		}

		keys, err := database.ResponseStoragePaths(r.Context(), app.DB, responseID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_response.storage_paths", err)
			return
		}

		err = database.DeleteResponse(r.Context(), app.DB, responseID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_response", err)
			return
		}
		removeBlobs(r.Context(), app, "storage.delete_response", keys)

		render.JSON(w, r, map[string]any{
			"message": "Response deleted successfully",
		})
	}
}

var reUnsafeFileName = regexp.MustCompile(`[^\w.-]+`)

// ExportResponses writes every response to a form as CSV, one column per
// question in form order.
func ExportResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := ownedForm(app, w, r, chi.URLParam(r, "id"), "export_responses")
		if !ok {
			return
		}

		full, err := database.LoadForm(r.Context(), app.DB, form)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_form.questions", err)
			return
		}
		responses, err := database.ListResponses(r.Context(), app.DB, form.ID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_responses", err)
			return
		}

		var buf bytes.Buffer
		if err := writeCSV(&buf, full, responses); err != nil {
			httpx.LogInternalError(w, r, "export_responses.csv", err)
			return
		}

		name := strings.Trim(reUnsafeFileName.ReplaceAllString(form.Title, "_"), "_")
		if name == "" {
			name = "form"
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-responses.csv"`, name))
		w.Write(buf.Bytes())
	}
}

func writeCSV(buf *bytes.Buffer, form model.FormWithQuestions, responses []model.ResponseDetail) error {
	cw := csv.NewWriter(buf)

	header := []string{"Response ID", "Submitted At"}
	for _, q := range form.Questions {
		header = append(header, q.QuestionText)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	labels := form.OptionLabels()
	for _, resp := range responses {
		byQuestion := make(map[string]model.Answer, len(resp.Answers))
		for _, a := range resp.Answers {
			byQuestion[a.QuestionID] = a
		}

		record := []string{resp.ID, resp.SubmittedAt.Format(time.RFC3339)}
		for _, q := range form.Questions {
			a, ok := byQuestion[q.ID]
			if !ok {
				record = append(record, "")
				continue
			}
			record = append(record, answers.SelectRenderer(a, q.QuestionType, labels).String())
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
