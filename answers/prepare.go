package answers

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/mbolis/quick-forms/model"
)

var validate = validator.New()

// MaxTextLength caps a single text answer, in characters.
const MaxTextLength = 10000

// Input is one answer as posted to the submit endpoint. Clients either send
// an encoded record or a raw Value that is encoded server side.
type Input struct {
	QuestionID      string    `json:"question_id"`
	AnswerText      *string   `json:"answer_text"`
	SelectedOptions []string  `json:"selected_options"`
	FileData        *FileData `json:"file_data"`
	Value           any       `json:"value"`
}

// File is a decoded file answer waiting to be stored.
type File struct {
	Name string
	Type string
	Data []byte
}

func (f File) Ext() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

// Prepared is a validated answer for one question.
type Prepared struct {
	Record
	Question model.Question
	File     *File
}

// Prepare normalizes and validates a submission against the form's
// questions. Every problem found is returned in one multierror; nothing is
// returned for persistence unless the whole submission is valid.
func Prepare(questions []model.Question, inputs []Input) ([]Prepared, error) {
	byID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	var errs *multierror.Error
	answered := map[string]bool{}
	seen := map[string]bool{}
	out := make([]Prepared, 0, len(inputs))

	for _, in := range inputs {
		q, ok := byID[in.QuestionID]
		if !ok {
			errs = multierror.Append(errs, fmt.Errorf("answer for unknown question %q", in.QuestionID))
			continue
		}
		if seen[q.ID] {
			errs = multierror.Append(errs, fmt.Errorf("%q answered more than once", q.QuestionText))
			continue
		}
		seen[q.ID] = true

		rec := normalize(q, in)
		if rec.Empty() {
			if rec.AnswerText != nil {
				rec.AnswerText = text("")
			}
			out = append(out, Prepared{Record: rec, Question: q})
			continue
		}
		answered[q.ID] = true

		file, err := check(q, rec)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%q: %w", q.QuestionText, err))
			continue
		}
		out = append(out, Prepared{Record: rec, Question: q, File: file})
	}

	for _, q := range questions {
		if q.IsRequired && !answered[q.ID] {
			errs = multierror.Append(errs, fmt.Errorf("%q is required", q.QuestionText))
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

// normalize keeps only the payload q's type stores.
func normalize(q model.Question, in Input) Record {
	if in.Value != nil {
		return Encode(q, in.Value)
	}

	rec := Record{QuestionID: q.ID}
	info, _ := q.QuestionType.Info()
	switch info.Payload {
	case model.OptionsPayload:
		rec.SelectedOptions = dedupe(in.SelectedOptions)
	case model.FilePayload:
		if in.FileData != nil && in.FileData.Content != "" {
			fd := *in.FileData
			mime, content := ParseDataURL(fd.Content)
			fd.Content = content
			if fd.Type == "" {
				fd.Type = mime
			}
			if fd.Name == "" && q.QuestionType == model.Signature {
				fd.Name = signatureName(q)
			}
			rec.FileData = &fd
		} else {
			rec.AnswerText = text("")
		}
	default:
		s := ""
		if in.AnswerText != nil {
			s = *in.AnswerText
		}
		rec.AnswerText = &s
	}
	return rec
}

func check(q model.Question, rec Record) (*File, error) {
	info, _ := q.QuestionType.Info()
	switch info.Payload {
	case model.OptionsPayload:
		return nil, checkOptions(q, info, rec.SelectedOptions)
	case model.FilePayload:
		return checkFile(q, rec.FileData)
	}
	return nil, checkText(q, info, strings.TrimSpace(*rec.AnswerText))
}

func checkOptions(q model.Question, info model.TypeInfo, ids []string) error {
	if info.SingleChoice && len(ids) > 1 {
		return fmt.Errorf("only one option can be selected")
	}
	valid := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		valid[o.ID] = true
	}
	for _, id := range ids {
		if !valid[id] {
			return fmt.Errorf("unknown option %q", id)
		}
	}
	return nil
}

func checkText(q model.Question, info model.TypeInfo, s string) error {
	if utf8.RuneCountInString(s) > MaxTextLength {
		return fmt.Errorf("answer is longer than %d characters", MaxTextLength)
	}

	if q.QuestionType.IsRating() {
		scale := q.RatingScale
		if scale == 0 {
			scale = info.Scale
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > scale {
			return fmt.Errorf("rating must be a whole number between 1 and %d", scale)
		}
		return nil
	}

	switch q.QuestionType {
	case model.Email:
		if validate.Var(s, "email") != nil {
			return fmt.Errorf("invalid email address")
		}
	case model.URL:
		if validate.Var(s, "http_url") != nil {
			return fmt.Errorf("invalid URL")
		}
	case model.Date:
		if _, err := time.Parse(time.DateOnly, s); err != nil {
			return fmt.Errorf("date must be formatted YYYY-MM-DD")
		}
	case model.Time:
		if _, err := time.Parse("15:04", s); err != nil {
			return fmt.Errorf("time must be formatted HH:MM")
		}
	}
	return nil
}

func checkFile(q model.Question, fd *FileData) (*File, error) {
	data, err := base64.StdEncoding.DecodeString(fd.Content)
	if err != nil {
		return nil, fmt.Errorf("file content is not valid base64")
	}

	maxSize := q.MaxFileSize
	if maxSize == 0 {
		maxSize = model.DefaultMaxFileSize
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("file is larger than %d bytes", maxSize)
	}

	// the stored content type always comes from the bytes, never the client
	detected := mimetype.Detect(data)
	f := &File{Name: filepath.Base(fd.Name), Type: detected.String(), Data: data}
	if activeContent(detected) {
		return nil, fmt.Errorf("%s files are not accepted", detected.Extension())
	}

	switch q.QuestionType {
	case model.Signature:
		if !strings.HasPrefix(detected.String(), "image/") {
			return nil, fmt.Errorf("signature must be an image")
		}
		if f.Name == "" || f.Name == "." {
			f.Name = signatureName(q)
		}
	case model.FileUpload:
		if f.Name == "" || f.Name == "." {
			f.Name = "upload" + detected.Extension()
		}
		allowed := q.FileTypes
		if len(allowed) == 0 {
			allowed = model.DefaultFileTypes
		}
		if !extensionAllowed(f.Ext(), allowed) {
			return nil, fmt.Errorf("only %s files are allowed", strings.Join(allowed, ", "))
		}
	}
	return f, nil
}

// activeContent reports whether a browser would run m when served inline.
func activeContent(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		for _, t := range activeTypes {
			if m.Is(t) {
				return true
			}
		}
	}
	return false
}

var activeTypes = []string{
	"text/html",
	"image/svg+xml",
	"application/xhtml+xml",
	"text/javascript",
	"application/javascript",
}

func extensionAllowed(ext string, allowed []string) bool {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "jpeg" {
		ext = "jpg"
	}
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimPrefix(a, "."))
		if a == "jpeg" {
			a = "jpg"
		}
		if a == ext {
			return true
		}
	}
	return false
}
