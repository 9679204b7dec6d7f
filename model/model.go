package model

import "time"

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Session identifies the authenticated caller of a request.
type Session struct {
	UserID string
	Email  string
}

type Form struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FormSummary is a row of the owner's dashboard.
type FormSummary struct {
	Form
	QuestionCount int `json:"question_count"`
	ResponseCount int `json:"response_count"`
}

type Question struct {
	ID           string       `json:"id"`
	FormID       string       `json:"form_id"`
	QuestionText string       `json:"question_text"`
	QuestionType QuestionType `json:"question_type"`
	IsRequired   bool         `json:"is_required"`
	OrderIndex   int          `json:"order_index"`
	RatingScale  int          `json:"rating_scale,omitempty"`
	FileTypes    []string     `json:"file_types,omitempty"`
	MaxFileSize  int64        `json:"max_file_size,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	Options      []Option     `json:"options"`
}

type Option struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	OptionText string `json:"option_text"`
	OrderIndex int    `json:"order_index"`
}

type FormWithQuestions struct {
	Form
	Questions []Question    `json:"questions"`
	Branding  *FormBranding `json:"branding,omitempty"`
	Media     []FormMedia   `json:"media,omitempty"`
}

type Response struct {
	ID          string    `json:"id"`
	FormID      string    `json:"form_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type Answer struct {
	ID              string          `json:"id"`
	ResponseID      string          `json:"response_id"`
	QuestionID      string          `json:"question_id"`
	AnswerText      *string         `json:"answer_text"`
	SelectedOptions []string        `json:"selected_options"`
	FileURL         *string         `json:"file_url"`
	FileName        *string         `json:"file_name"`
	FileSize        *int64          `json:"file_size"`
	StoragePath     *string         `json:"storage_path"`
	Question        *AnswerQuestion `json:"questions,omitempty"`
}

// AnswerQuestion is the slice of the answered question shown next to an answer.
type AnswerQuestion struct {
	QuestionText string       `json:"question_text"`
	QuestionType QuestionType `json:"question_type"`
	OrderIndex   int          `json:"-"`
}

type FormBranding struct {
	ID              string    `json:"id,omitempty"`
	FormID          string    `json:"form_id"`
	PrimaryColor    string    `json:"primary_color"`
	SecondaryColor  string    `json:"secondary_color"`
	BackgroundColor string    `json:"background_color"`
	TextColor       string    `json:"text_color"`
	ButtonColor     string    `json:"button_color"`
	ButtonTextColor string    `json:"button_text_color"`
	LogoURL         *string   `json:"logo_url"`
	LogoStoragePath *string   `json:"logo_storage_path"`
	LogoPosition    string    `json:"logo_position"`
	FontFamily      string    `json:"font_family"`
	HeadingFontSize int       `json:"heading_font_size"`
	BodyFontSize    int       `json:"body_font_size"`
	FormWidth       string    `json:"form_width"`
	BorderRadius    int       `json:"border_radius"`
	CustomCSS       *string   `json:"custom_css"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
}

// DefaultBranding is what a form looks like before its owner saves a theme.
func DefaultBranding(formID string) FormBranding {
	return FormBranding{
		FormID:          formID,
		PrimaryColor:    "#000000",
		SecondaryColor:  "#ffffff",
		BackgroundColor: "#ffffff",
		TextColor:       "#000000",
		ButtonColor:     "#000000",
		ButtonTextColor: "#ffffff",
		LogoPosition:    "top",
		FontFamily:      "Inter",
		HeadingFontSize: 24,
		BodyFontSize:    16,
		FormWidth:       "medium",
		BorderRadius:    8,
	}
}

type FormMedia struct {
	ID          string    `json:"id"`
	FormID      string    `json:"form_id"`
	QuestionID  *string   `json:"question_id"`
	MediaType   string    `json:"media_type"`
	MediaURL    string    `json:"media_url"`
	StoragePath string    `json:"storage_path"`
	FileName    string    `json:"file_name"`
	FileSize    int64     `json:"file_size"`
	MimeType    string    `json:"mime_type"`
	Position    string    `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}

// ResponseDetail is a response with its answers, as shown to the form owner.
type ResponseDetail struct {
	Response
	Form    *ResponseForm `json:"form,omitempty"`
	Answers []Answer      `json:"answers"`
}

type ResponseForm struct {
	Title string `json:"title"`
}
