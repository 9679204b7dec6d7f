package model

// QuestionType is the closed set of question kinds a form can hold.
type QuestionType string

const (
	ShortText      QuestionType = "short_text"
	LongText       QuestionType = "long_text"
	MultipleChoice QuestionType = "multiple_choice"
	Checkboxes     QuestionType = "checkboxes"
	Dropdown       QuestionType = "dropdown"
	Date           QuestionType = "date"
	Time           QuestionType = "time"
	Email          QuestionType = "email"
	Phone          QuestionType = "phone"
	URL            QuestionType = "url"
	Rating5        QuestionType = "rating_5"
	Rating10       QuestionType = "rating_10"
	FileUpload     QuestionType = "file_upload"
	Signature      QuestionType = "signature"
)

// Payload is the answer field a question type stores its value in.
type Payload int

const (
	TextPayload Payload = iota
	OptionsPayload
	FilePayload
)

func (p Payload) String() string {
	switch p {
	case OptionsPayload:
		return "selected_options"
	case FilePayload:
		return "file_data"
	}
	return "answer_text"
}

func (p Payload) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

type TypeInfo struct {
	Type                 QuestionType `json:"type"`
	Label                string       `json:"label"`
	Icon                 string       `json:"icon"`
	Description          string       `json:"description"`
	NeedsOptions         bool         `json:"needs_options"`
	NeedsScale           bool         `json:"needs_scale"`
	NeedsFileConstraints bool         `json:"needs_file_constraints"`
	Payload              Payload      `json:"payload"`
	// SingleChoice questions take exactly one option id.
	SingleChoice bool `json:"single_choice,omitempty"`
	// Scale is the default rating scale of rating questions.
	Scale int `json:"scale,omitempty"`
	// LinkScheme prefixes answer text when rendered as a link; "" means the
	// text is itself the target.
	LinkScheme string `json:"-"`
	Linked     bool   `json:"-"`
}

const (
	DefaultMaxFileSize = 5 << 20
)

// DefaultFileTypes are the extensions a file_upload question accepts unless
// its author narrows them.
var DefaultFileTypes = []string{"pdf", "jpg", "png", "docx"}

var questionTypes = []TypeInfo{
	{Type: ShortText, Label: "Short answer", Icon: "text-cursor-input", Description: "Single line text input"},
	{Type: LongText, Label: "Paragraph", Icon: "message-square", Description: "Multi-line text area"},
	{Type: MultipleChoice, Label: "Multiple choice", Icon: "list", Description: "Radio buttons - single selection",
		NeedsOptions: true, Payload: OptionsPayload, SingleChoice: true},
	{Type: Checkboxes, Label: "Checkboxes", Icon: "check-square", Description: "Multiple selection",
		NeedsOptions: true, Payload: OptionsPayload},
	{Type: Dropdown, Label: "Dropdown", Icon: "chevron-down", Description: "Select from dropdown menu",
		NeedsOptions: true, Payload: OptionsPayload, SingleChoice: true},
	{Type: Date, Label: "Date", Icon: "calendar", Description: "Date picker"},
	{Type: Time, Label: "Time", Icon: "clock", Description: "Time picker"},
	{Type: Email, Label: "Email", Icon: "mail", Description: "Email address with validation",
		Linked: true, LinkScheme: "mailto:"},
	{Type: Phone, Label: "Phone", Icon: "phone", Description: "Phone number input",
		Linked: true, LinkScheme: "tel:"},
	{Type: URL, Label: "URL", Icon: "link", Description: "Website link with validation",
		Linked: true},
	{Type: Rating5, Label: "Star Rating", Icon: "star", Description: "5-star rating scale",
		NeedsScale: true, Scale: 5},
	{Type: Rating10, Label: "Scale Rating", Icon: "star", Description: "1-10 number scale",
		NeedsScale: true, Scale: 10},
	{Type: FileUpload, Label: "File Upload", Icon: "upload", Description: "Allow file uploads",
		NeedsFileConstraints: true, Payload: FilePayload},
	{Type: Signature, Label: "Signature", Icon: "pen-tool", Description: "Digital signature capture",
		Payload: FilePayload},
}

var registry = func() map[QuestionType]TypeInfo {
	m := make(map[QuestionType]TypeInfo, len(questionTypes))
	for _, info := range questionTypes {
		m[info.Type] = info
	}
	return m
}()

// QuestionTypes lists every type in editor order.
func QuestionTypes() []TypeInfo {
	out := make([]TypeInfo, len(questionTypes))
	copy(out, questionTypes)
	return out
}

func (t QuestionType) Info() (TypeInfo, bool) {
	info, ok := registry[t]
	return info, ok
}

func (t QuestionType) Valid() bool {
	_, ok := registry[t]
	return ok
}

func (t QuestionType) IsRating() bool {
	return registry[t].NeedsScale
}

func (t QuestionType) Label() string {
	if info, ok := registry[t]; ok {
		return info.Label
	}
	return string(t)
}
