// Package answers maps respondent values onto stored answer records and
// back onto display strategies, switching on the question type registry.
package answers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mbolis/quick-forms/model"
)

// FileData is a file travelling inside a JSON submission.
type FileData struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"` // base64, no data URL prefix
}

// Record is the wire form of one answer. Exactly one of AnswerText,
// SelectedOptions and FileData is set.
type Record struct {
	QuestionID      string    `json:"question_id"`
	AnswerText      *string   `json:"answer_text,omitempty"`
	SelectedOptions []string  `json:"selected_options,omitempty"`
	FileData        *FileData `json:"file_data,omitempty"`
}

// Payloads counts the primary fields set on the record.
func (r Record) Payloads() (n int) {
	if r.AnswerText != nil {
		n++
	}
	if r.SelectedOptions != nil {
		n++
	}
	if r.FileData != nil {
		n++
	}
	return
}

// Empty reports whether the record carries no actual value.
func (r Record) Empty() bool {
	switch {
	case r.FileData != nil:
		return r.FileData.Content == ""
	case r.SelectedOptions != nil:
		return len(r.SelectedOptions) == 0
	case r.AnswerText != nil:
		return strings.TrimSpace(*r.AnswerText) == ""
	}
	return true
}

// Upload is a file picked by a respondent, not yet encoded.
type Upload struct {
	Name    string
	Type    string
	Content []byte
}

// Encode turns a raw value for q into the record to submit. It never fails:
// absent values become an empty string or an empty option set.
func Encode(q model.Question, raw any) Record {
	rec := Record{QuestionID: q.ID}
	info, _ := q.QuestionType.Info()

	switch info.Payload {
	case model.OptionsPayload:
		rec.SelectedOptions = optionIDs(raw)
	case model.FilePayload:
		if fd, ok := fileData(q, raw); ok {
			rec.FileData = &fd
		} else {
			rec.AnswerText = text("")
		}
	default:
		rec.AnswerText = text(stringify(raw))
	}
	return rec
}

func text(s string) *string {
	return &s
}

func stringify(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(raw)
}

func optionIDs(raw any) []string {
	var ids []string
	switch v := raw.(type) {
	case nil:
	case []string:
		ids = v
	case []any:
		for _, id := range v {
			ids = append(ids, stringify(id))
		}
	default:
		ids = []string{stringify(v)}
	}
	return dedupe(ids)
}

// dedupe drops blanks and repeats, keeping first-seen order. The result is
// never nil.
func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func fileData(q model.Question, raw any) (FileData, bool) {
	switch v := raw.(type) {
	case Upload:
		return encodeUpload(v), len(v.Content) > 0
	case *Upload:
		if v == nil {
			return FileData{}, false
		}
		return encodeUpload(*v), len(v.Content) > 0
	case FileData:
		return v, v.Content != ""
	case *FileData:
		if v == nil {
			return FileData{}, false
		}
		return *v, v.Content != ""
	case map[string]any:
		fd := FileData{
			Name:    stringify(v["name"]),
			Type:    stringify(v["type"]),
			Content: stringify(v["content"]),
		}
		mime, content := ParseDataURL(fd.Content)
		fd.Content = content
		if fd.Type == "" {
			fd.Type = mime
		}
		return fd, fd.Content != ""
	case string:
		// only signatures arrive as bare data URLs
		if v == "" || q.QuestionType != model.Signature {
			return FileData{}, false
		}
		mime, content := ParseDataURL(v)
		if mime == "" {
			mime = "image/png"
		}
		return FileData{
			Name:    signatureName(q),
			Type:    mime,
			Content: content,
		}, content != ""
	}
	return FileData{}, false
}

func encodeUpload(u Upload) FileData {
	return FileData{
		Name:    u.Name,
		Type:    u.Type,
		Content: base64.StdEncoding.EncodeToString(u.Content),
	}
}

func signatureName(q model.Question) string {
	return fmt.Sprintf("signature_%s.png", q.ID)
}

// ParseDataURL splits "data:<mime>;base64,<content>". Strings without the
// data: prefix are returned whole as content.
func ParseDataURL(s string) (mime, content string) {
	if !strings.HasPrefix(s, "data:") {
		return "", s
	}
	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return "", ""
	}
	header := s[len("data:"):comma]
	mime = strings.TrimSuffix(header, ";base64")
	return mime, s[comma+1:]
}
