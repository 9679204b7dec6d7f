package answers

import (
	"encoding/base64"
	"testing"

	"github.com/mbolis/quick-forms/model"
)

func TestEncodeSetsExactlyOnePayload(t *testing.T) {
	upload := Upload{Name: "cv.pdf", Type: "application/pdf", Content: []byte("%PDF-1.4")}
	values := []any{
		nil, "", "hello", 4.0, 7, true,
		[]any{"a", "b"}, []string{"a"}, upload, &upload,
		"data:image/png;base64,iVBORw0KGgo=",
		map[string]any{"name": "x.png", "type": "image/png", "content": "AAAA"},
	}

	for _, info := range model.QuestionTypes() {
		q := model.Question{ID: "q1", QuestionType: info.Type}
		for _, v := range values {
			rec := Encode(q, v)
			if rec.Payloads() != 1 {
				t.Errorf("Encode(%s, %#v) set %d payloads: %+v", info.Type, v, rec.Payloads(), rec)
			}
			if rec.QuestionID != "q1" {
				t.Errorf("Encode(%s, %#v).QuestionID = %q", info.Type, v, rec.QuestionID)
			}
		}
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		qt       model.QuestionType
		raw      any
		text     *string
		options  []string
		fileName string
		fileType string
		content  string
	}{
		{name: "short text", qt: model.ShortText, raw: "hi", text: text("hi")},
		{name: "absent long text", qt: model.LongText, raw: nil, text: text("")},
		{name: "date", qt: model.Date, raw: "2024-05-01", text: text("2024-05-01")},
		{name: "rating number", qt: model.Rating5, raw: 4.0, text: text("4")},
		{name: "rating int", qt: model.Rating10, raw: 9, text: text("9")},
		{name: "multiple choice", qt: model.MultipleChoice, raw: "opt-a", options: []string{"opt-a"}},
		{name: "absent dropdown", qt: model.Dropdown, raw: nil, options: []string{}},
		{name: "checkboxes dedupe", qt: model.Checkboxes, raw: []any{"a", "b", "a", ""}, options: []string{"a", "b"}},
		{name: "empty checkboxes", qt: model.Checkboxes, raw: []string{}, options: []string{}},
		{
			name: "file upload", qt: model.FileUpload,
			raw:      Upload{Name: "a.txt", Type: "text/plain", Content: []byte("hello")},
			fileName: "a.txt", fileType: "text/plain", content: base64.StdEncoding.EncodeToString([]byte("hello")),
		},
		{name: "absent file", qt: model.FileUpload, raw: nil, text: text("")},
		{
			name: "signature", qt: model.Signature, raw: "data:image/png;base64,iVBORw0KGgo=",
			fileName: "signature_q1.png", fileType: "image/png", content: "iVBORw0KGgo=",
		},
		{name: "absent signature", qt: model.Signature, raw: "", text: text("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Encode(model.Question{ID: "q1", QuestionType: tt.qt}, tt.raw)

			switch {
			case tt.text != nil:
				if rec.AnswerText == nil || *rec.AnswerText != *tt.text {
					t.Errorf("AnswerText = %v, want %q", rec.AnswerText, *tt.text)
				}
			case tt.options != nil:
				if rec.SelectedOptions == nil || len(rec.SelectedOptions) != len(tt.options) {
					t.Fatalf("SelectedOptions = %#v, want %#v", rec.SelectedOptions, tt.options)
				}
				for i := range tt.options {
					if rec.SelectedOptions[i] != tt.options[i] {
						t.Errorf("SelectedOptions = %v, want %v", rec.SelectedOptions, tt.options)
					}
				}
			default:
				if rec.FileData == nil {
					t.Fatalf("FileData = nil, record %+v", rec)
				}
				if rec.FileData.Name != tt.fileName || rec.FileData.Type != tt.fileType || rec.FileData.Content != tt.content {
					t.Errorf("FileData = %+v", *rec.FileData)
				}
			}
		})
	}
}

func TestParseDataURL(t *testing.T) {
	tests := []struct {
		in, mime, content string
	}{
		{"data:image/png;base64,AAAA", "image/png", "AAAA"},
		{"data:image/jpeg;base64,", "image/jpeg", ""},
		{"AAAA", "", "AAAA"},
		{"data:broken", "", ""},
	}
	for _, tt := range tests {
		mime, content := ParseDataURL(tt.in)
		if mime != tt.mime || content != tt.content {
			t.Errorf("ParseDataURL(%q) = %q, %q, want %q, %q", tt.in, mime, content, tt.mime, tt.content)
		}
	}
}
