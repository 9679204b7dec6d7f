package answers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mbolis/quick-forms/model"
)

type Kind string

const (
	KindFile   Kind = "file"
	KindImage  Kind = "image"
	KindStars  Kind = "stars"
	KindScale  Kind = "scale"
	KindLink   Kind = "link"
	KindBadges Kind = "badges"
	KindText   Kind = "text"
	KindEmpty  Kind = "empty"
)

// Render tells a client how to display a stored answer.
type Render struct {
	Kind  Kind     `json:"kind"`
	Text  string   `json:"text,omitempty"`
	Href  string   `json:"href,omitempty"`
	Items []string `json:"items,omitempty"`
	Value int      `json:"value,omitempty"`
	Max   int      `json:"max,omitempty"`
	Size  int64    `json:"size,omitempty"`
}

// SelectRenderer picks the display for a stored answer. The question type is
// consulted before the populated fields, so a URL typed into a short_text
// question stays plain text. labels maps option ids to option text and may
// be nil.
func SelectRenderer(a model.Answer, t model.QuestionType, labels map[string]string) Render {
	info, _ := t.Info()
	text := strings.TrimSpace(deref(a.AnswerText))

	if info.Payload == model.FilePayload && deref(a.FileURL) != "" {
		r := Render{Kind: KindFile, Text: deref(a.FileName), Href: *a.FileURL}
		if a.FileSize != nil {
			r.Size = *a.FileSize
		}
		if t == model.Signature {
			r.Kind = KindImage
		}
		return r
	}

	if info.NeedsScale {
		n, _ := strconv.Atoi(text)
		r := Render{Kind: KindScale, Value: n, Max: info.Scale, Text: fmt.Sprintf("%d/%d", n, info.Scale)}
		if t == model.Rating5 {
			r.Kind = KindStars
		}
		return r
	}

	if info.Linked && text != "" && (t != model.URL || isWebURL(text)) {
		return Render{Kind: KindLink, Text: text, Href: info.LinkScheme + text}
	}

	if len(a.SelectedOptions) > 0 {
		items := make([]string, len(a.SelectedOptions))
		for i, id := range a.SelectedOptions {
			items[i] = id
			if label, ok := labels[id]; ok {
				items[i] = label
			}
		}
		return Render{Kind: KindBadges, Items: items}
	}

	if text != "" {
		return Render{Kind: KindText, Text: text}
	}
	return Render{Kind: KindEmpty, Text: "No answer"}
}

// String is the plain-text rendering used in exports.
func (r Render) String() string {
	switch r.Kind {
	case KindFile, KindImage:
		return r.Href
	case KindBadges:
		return strings.Join(r.Items, ", ")
	case KindEmpty:
		return ""
	}
	return r.Text
}

func isWebURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func deref[T any](p *T) (v T) {
	if p != nil {
		v = *p
	}
	return
}
