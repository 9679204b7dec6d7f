package routes

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/color"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/mbolis/quick-forms/answers"
	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/config"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/storage"
)

type testServer struct {
	*httptest.Server
	app app.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Config{
		DBUrl:         filepath.Join(t.TempDir(), "test.db"),
		TokenSecret:   "test-secret",
		TokenTTL:      time.Hour,
		PublicURL:     "http://files.test",
		MaxUploadSize: 1 << 20,
		MaxSubmitSize: 2 << 20,
		CorsOrigins:   []string{"*"},
	}
	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	bucket, err := storage.NewDirBucket(t.TempDir(), cfg.PublicURL+"/files")
	if err != nil {
		t.Fatal(err)
	}

	a := app.App{
		DB:           db,
		BearerServer: httpx.NewBearerServer(db, cfg),
		Config:       cfg,
		Storage:      bucket,
	}
	srv := httptest.NewServer(Wire(a))
	t.Cleanup(srv.Close)
	return &testServer{srv, a}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.URL+path, r)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, data
}

// doJSON performs a request, checks its status and decodes the body.
func (s *testServer) doJSON(t *testing.T, method, path, token string, body any, wantStatus int) map[string]any {
	t.Helper()
	status, data := s.do(t, method, path, token, body)
	if status != wantStatus {
		t.Fatalf("%s %s = %d %s, want %d", method, path, status, data, wantStatus)
	}
	var decoded any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("%s %s: bad JSON %q: %v", method, path, data, err)
		}
	}
	// some auth errors are bare JSON strings
	out, ok := decoded.(map[string]any)
	if !ok {
		out = map[string]any{}
	}
	return out
}

// upload posts a multipart body with a "file" part and extra fields.
func (s *testServer) upload(t *testing.T, path, token, name string, data []byte, fields map[string]string) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()

	req, err := http.NewRequest("POST", s.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	out := map[string]any{}
	json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

// fetch GETs a public object URL through the test server.
func (s *testServer) fetch(t *testing.T, objectURL string) (int, []byte) {
	t.Helper()
	u, err := url.Parse(objectURL)
	if err != nil {
		t.Fatal(err)
	}
	return s.do(t, "GET", u.Path, "", nil)
}

func (s *testServer) signup(t *testing.T, email string) string {
	t.Helper()
	out := s.doJSON(t, "POST", "/api/auth/signup", "", map[string]string{
		"email":    email,
		"password": "secret-password",
	}, http.StatusCreated)
	token, _ := out["token"].(string)
	if token == "" {
		t.Fatalf("signup returned no token: %v", out)
	}
	return token
}

// createForm creates a form, adds the given questions and optionally publishes it.
func (s *testServer) createForm(t *testing.T, token, title string, public bool, questions ...map[string]any) (string, []map[string]any) {
	t.Helper()
	out := s.doJSON(t, "POST", "/api/forms", token, map[string]any{"title": title}, http.StatusCreated)
	formID := out["form"].(map[string]any)["id"].(string)

	var created []map[string]any
	for _, q := range questions {
		out := s.doJSON(t, "POST", "/api/forms/"+formID+"/questions", token, q, http.StatusCreated)
		created = append(created, out["question"].(map[string]any))
	}

	if public {
		s.doJSON(t, "PUT", "/api/forms/"+formID, token, map[string]any{"is_public": true}, http.StatusOK)
	}
	return formID, created
}

func optionID(t *testing.T, question map[string]any, text string) string {
	t.Helper()
	for _, o := range question["options"].([]any) {
		o := o.(map[string]any)
		if o["option_text"] == text {
			return o["id"].(string)
		}
	}
	t.Fatalf("no option %q in %v", text, question)
	return ""
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "Ada@Example.com")

	me := s.doJSON(t, "GET", "/api/auth/me", token, nil, http.StatusOK)
	if email := me["user"].(map[string]any)["email"]; email != "ada@example.com" {
		t.Errorf("me.email = %v", email)
	}

	s.doJSON(t, "POST", "/api/auth/signup", "", map[string]string{"email": "ada@example.com", "password": "another-one"}, http.StatusConflict)
	s.doJSON(t, "POST", "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "wrong-password"}, http.StatusUnauthorized)
	login := s.doJSON(t, "POST", "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "secret-password"}, http.StatusOK)

	refreshed := s.doJSON(t, "POST", "/api/auth/refresh", "", map[string]any{"refresh_token": login["refresh_token"]}, http.StatusOK)
	if refreshed["token"] == "" {
		t.Errorf("refresh returned %v", refreshed)
	}
	// refresh tokens are single use
	s.doJSON(t, "POST", "/api/auth/refresh", "", map[string]any{"refresh_token": login["refresh_token"]}, http.StatusUnauthorized)

	s.doJSON(t, "GET", "/api/forms", "", nil, http.StatusUnauthorized)
	s.doJSON(t, "GET", "/api/forms", "not-a-token", nil, http.StatusUnauthorized)
}

func TestSubmitAndReadBack(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "owner@example.com")

	formID, questions := s.createForm(t, token, "T", true, map[string]any{
		"question_text": "Pick one",
		"question_type": "multiple_choice",
		"options":       []string{"A", "B"},
	})
	optionA := optionID(t, questions[0], "A")

	out := s.doJSON(t, "POST", "/api/responses/"+formID+"/submit", "", map[string]any{
		"answers": []map[string]any{
			{"question_id": questions[0]["id"], "selected_options": []string{optionA}},
		},
	}, http.StatusCreated)
	responseID := out["response_id"].(string)

	detail := s.doJSON(t, "GET", "/api/responses/single/"+responseID, token, nil, http.StatusOK)
	answers := detail["response"].(map[string]any)["answers"].([]any)
	if len(answers) != 1 {
		t.Fatalf("got %d answers, want 1", len(answers))
	}
	answer := answers[0].(map[string]any)
	selected := answer["selected_options"].([]any)
	if len(selected) != 1 || selected[0] != optionA {
		t.Errorf("selected_options = %v, want [%s]", selected, optionA)
	}
	display := answer["display"].(map[string]any)
	if display["kind"] != "badges" || display["items"].([]any)[0] != "A" {
		t.Errorf("display = %v", display)
	}

	list := s.doJSON(t, "GET", "/api/responses/"+formID, token, nil, http.StatusOK)
	if list["total"] != 1.0 {
		t.Errorf("total = %v, want 1", list["total"])
	}

	forms := s.doJSON(t, "GET", "/api/forms", token, nil, http.StatusOK)["forms"].([]any)
	if len(forms) != 1 || forms[0].(map[string]any)["response_count"] != 1.0 {
		t.Errorf("forms = %v", forms)
	}
}

func TestSubmitFile(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "owner@example.com")

	formID, questions := s.createForm(t, token, "Upload", true, map[string]any{
		"question_text": "Scan",
		"question_type": "file_upload",
	})

	png := make([]byte, 1024)
	copy(png, "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	out := s.doJSON(t, "POST", "/api/responses/"+formID+"/submit", "", map[string]any{
		"answers": []map[string]any{{
			"question_id": questions[0]["id"],
			"file_data": map[string]string{
				"name":    "scan.png",
				"type":    "image/png",
				"content": base64.StdEncoding.EncodeToString(png),
			},
		}},
	}, http.StatusCreated)

	detail := s.doJSON(t, "GET", "/api/responses/single/"+out["response_id"].(string), token, nil, http.StatusOK)
	answer := detail["response"].(map[string]any)["answers"].([]any)[0].(map[string]any)
	if answer["file_size"] != 1024.0 || answer["file_name"] != "scan.png" {
		t.Errorf("answer = %v", answer)
	}
	fileURL, _ := answer["file_url"].(string)
	if fileURL == "" {
		t.Fatalf("file_url missing: %v", answer)
	}

	u, err := url.Parse(fileURL)
	if err != nil {
		t.Fatal(err)
	}
	status, data := s.do(t, "GET", u.Path, "", nil)
	if status != http.StatusOK || !bytes.Equal(data, png) {
		t.Errorf("GET %s = %d, %d bytes", u.Path, status, len(data))
	}
}

func TestSubmitValidation(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "owner@example.com")

	formID, questions := s.createForm(t, token, "Required", true,
		map[string]any{"question_text": "Name", "question_type": "short_text", "is_required": true},
		map[string]any{"question_text": "Stars", "question_type": "rating_5"},
	)

	out := s.doJSON(t, "POST", "/api/responses/"+formID+"/submit", "", map[string]any{
		"answers": []map[string]any{{"question_id": questions[1]["id"], "value": 9}},
	}, http.StatusBadRequest)
	if details := out["details"].([]any); len(details) != 2 {
		t.Errorf("details = %v, want rating and required errors", details)
	}
	s.doJSON(t, "POST", "/api/responses/"+formID+"/submit", "", map[string]any{}, http.StatusBadRequest)

	list := s.doJSON(t, "GET", "/api/responses/"+formID, token, nil, http.StatusOK)
	if list["total"] != 0.0 {
		t.Errorf("rejected submissions wrote %v responses", list["total"])
	}
}

func TestSubmitZeroAnswersToOptionalForm(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "owner@example.com")

	formID, _ := s.createForm(t, token, "Optional", true,
		map[string]any{"question_text": "Anything?", "question_type": "long_text"},
	)
	s.doJSON(t, "POST", "/api/responses/"+formID+"/submit", "", map[string]any{
		"answers": []any{},
	}, http.StatusCreated)
}

func TestSubmitToPrivateOrMissingForm(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "owner@example.com")
	formID, _ := s.createForm(t, token, "Draft", false)

	body := map[string]any{"answers": []any{}}
	s.doJSON(t, "POST", "/api/responses/"+formID+"/submit", "", body, http.StatusForbidden)
	s.doJSON(t, "POST", "/api/responses/no-such-form/submit", "", body, http.StatusNotFound)
}

func TestOwnership(t *testing.T) {
	s := newTestServer(t)
	owner := s.signup(t, "owner@example.com")
	other := s.signup(t, "other@example.com")

	formID, _ := s.createForm(t, owner, "Mine", false)

	out := s.doJSON(t, "GET", "/api/responses/"+formID, other, nil, http.StatusForbidden)
	if _, leaked := out["responses"]; leaked {
		t.Errorf("403 body carries responses: %v", out)
	}
	s.doJSON(t, "PUT", "/api/forms/"+formID, other, map[string]any{"title": "Stolen"}, http.StatusForbidden)
	s.doJSON(t, "DELETE", "/api/forms/"+formID, other, nil, http.StatusForbidden)
	s.doJSON(t, "POST", "/api/forms/"+formID+"/questions", other, map[string]any{
		"question_text": "Q", "question_type": "short_text",
	}, http.StatusForbidden)

	// private forms are only visible to their owner
	s.doJSON(t, "GET", "/api/forms/"+formID, "", nil, http.StatusForbidden)
	s.doJSON(t, "GET", "/api/forms/"+formID, other, nil, http.StatusForbidden)
	s.doJSON(t, "GET", "/api/forms/"+formID, owner, nil, http.StatusOK)
	s.doJSON(t, "GET", "/api/forms/no-such-form", owner, nil, http.StatusNotFound)
}

func TestGetFormIsIdempotent(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "owner@example.com")
	formID, _ := s.createForm(t, token, "Stable", true,
		map[string]any{"question_text": "First", "question_type": "checkboxes", "options": []string{"X", "Y"}},
		map[string]any{"question_text": "Second", "question_type": "rating_10"},
	)

	status1, first := s.do(t, "GET", "/api/forms/"+formID, "", nil)
	status2, second := s.do(t, "GET", "/api/forms/"+formID, "", nil)
	if status1 != http.StatusOK || status2 != http.StatusOK || !bytes.Equal(first, second) {
		t.Errorf("GET twice = %d %s / %d %s", status1, first, status2, second)
	}

	var out struct {
		Form struct {
			Questions []struct {
				OrderIndex  int `json:"order_index"`
				RatingScale int `json:"rating_scale"`
				Options     []struct {
					OptionText string `json:"option_text"`
				} `json:"options"`
			} `json:"questions"`
			Branding struct {
				FontFamily string `json:"font_family"`
			} `json:"branding"`
		} `json:"form"`
	}
	if err := json.Unmarshal(first, &out); err != nil {
		t.Fatal(err)
	}
	qs := out.Form.Questions
	if len(qs) != 2 || qs[0].OrderIndex != 0 || qs[1].OrderIndex != 1 {
		t.Fatalf("questions = %+v", qs)
	}
	if len(qs[0].Options) != 2 || qs[0].Options[0].OptionText != "X" || qs[1].RatingScale != 10 {
		t.Errorf("questions = %+v", qs)
	}
	if out.Form.Branding.FontFamily != "Inter" {
		t.Errorf("default branding missing: %+v", out.Form.Branding)
	}
}

func TestDeleteFormCascades(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "owner@example.com")
	formID, questions := s.createForm(t, token, "Doomed", true, map[string]any{
		"question_text": "Pick", "question_type": "dropdown", "options": []string{"A"},
	})
	out := s.doJSON(t, "POST", "/api/responses/"+formID+"/submit", "", map[string]any{
		"answers": []map[string]any{{"question_id": questions[0]["id"], "value": optionID(t, questions[0], "A")}},
	}, http.StatusCreated)

	s.doJSON(t, "DELETE", "/api/forms/"+formID, token, nil, http.StatusOK)

	s.doJSON(t, "GET", "/api/forms/"+formID, token, nil, http.StatusNotFound)
	s.doJSON(t, "GET", "/api/responses/single/"+out["response_id"].(string), token, nil, http.StatusNotFound)
	s.doJSON(t, "PUT", "/api/forms/questions/"+questions[0]["id"].(string), token, map[string]any{"question_text": "Again"}, http.StatusNotFound)

	for _, table := range []string{"questions", "options", "responses", "answers"} {
		var n int
		if err := s.app.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Fatal(err)
		}
		if n != 0 {
			t.Errorf("%d rows left in %s", n, table)
		}
	}
}

func TestQuestionEditing(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "owner@example.com")
	formID, questions := s.createForm(t, token, "Edit", false, map[string]any{
		"question_text": "Color", "question_type": "dropdown", "options": []any{"Red", map[string]string{"option_text": "Blue"}},
	})
	questionID := questions[0]["id"].(string)

	s.doJSON(t, "POST", "/api/forms/"+formID+"/questions", token, map[string]any{
		"question_text": "No options", "question_type": "checkboxes",
	}, http.StatusBadRequest)
	s.doJSON(t, "POST", "/api/forms/"+formID+"/questions", token, map[string]any{
		"question_text": "Essay", "question_type": "essay",
	}, http.StatusBadRequest)

	scales := []struct {
		qt     string
		scale  int
		status int
	}{
		{"rating_5", 7, http.StatusBadRequest},
		{"rating_10", 10, http.StatusCreated},
		{"short_text", 5, http.StatusBadRequest},
	}
	for _, tt := range scales {
		out := s.doJSON(t, "POST", "/api/forms/"+formID+"/questions", token, map[string]any{
			"question_text": "Scale", "question_type": tt.qt, "rating_scale": tt.scale,
		}, tt.status)
		if tt.status == http.StatusCreated && out["question"].(map[string]any)["rating_scale"] != float64(tt.scale) {
			t.Errorf("%s stored %v", tt.qt, out["question"])
		}
	}

	// switching to a rating type takes that type's scale
	out := s.doJSON(t, "PUT", "/api/forms/questions/"+questionID, token, map[string]any{
		"question_type": "rating_5",
	}, http.StatusOK)
	if scale := out["question"].(map[string]any)["rating_scale"]; scale != 5.0 {
		t.Errorf("rating_scale after type change = %v, want 5", scale)
	}

	out = s.doJSON(t, "PUT", "/api/forms/questions/"+questionID, token, map[string]any{
		"question_type": "short_text",
	}, http.StatusOK)
	question := out["question"].(map[string]any)
	if question["question_type"] != "short_text" || len(question["options"].([]any)) != 0 {
		t.Errorf("updated question = %v", question)
	}

	s.doJSON(t, "DELETE", "/api/forms/questions/"+questionID, token, nil, http.StatusOK)
	s.doJSON(t, "DELETE", "/api/forms/questions/"+questionID, token, nil, http.StatusNotFound)
}

func TestExportCSV(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "owner@example.com")
	formID, questions := s.createForm(t, token, "Survey, 2024", true,
		map[string]any{"question_text": "Name", "question_type": "short_text"},
		map[string]any{"question_text": "Stars", "question_type": "rating_5"},
	)
	s.doJSON(t, "POST", "/api/responses/"+formID+"/submit", "", map[string]any{
		"answers": []map[string]any{
			{"question_id": questions[0]["id"], "answer_text": "Ada, Countess"},
			{"question_id": questions[1]["id"], "value": 4},
		},
	}, http.StatusCreated)

	status, data := s.do(t, "GET", "/api/responses/"+formID+"/export", token, nil)
	if status != http.StatusOK {
		t.Fatalf("export = %d %s", status, data)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("export has %d lines: %q", len(lines), data)
	}
	if lines[0] != "Response ID,Submitted At,Name,Stars" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], `,"Ada, Countess",4/5`) {
		t.Errorf("row = %q", lines[1])
	}
}

func TestBranding(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "owner@example.com")
	formID, _ := s.createForm(t, token, "Branded", true)

	out := s.doJSON(t, "GET", "/api/branding/"+formID, "", nil, http.StatusOK)
	if out["branding"].(map[string]any)["primary_color"] != "#000000" {
		t.Errorf("default branding = %v", out)
	}

	s.doJSON(t, "PUT", "/api/branding/"+formID, token, map[string]any{"primary_color": "blue"}, http.StatusBadRequest)
	s.doJSON(t, "PUT", "/api/branding/"+formID, token, map[string]any{"form_width": "huge"}, http.StatusBadRequest)

	out = s.doJSON(t, "PUT", "/api/branding/"+formID, token, map[string]any{
		"primary_color": "#3366ff",
		"form_width":    "large",
	}, http.StatusOK)
	branding := out["branding"].(map[string]any)
	if branding["primary_color"] != "#3366ff" || branding["form_width"] != "large" || branding["font_family"] != "Inter" {
		t.Errorf("branding = %v", branding)
	}
}

func TestQuestionTypes(t *testing.T) {
	s := newTestServer(t)
	out := s.doJSON(t, "GET", "/api/question-types", "", nil, http.StatusOK)
	if types := out["question_types"].([]any); len(types) != 14 {
		t.Errorf("got %d question types, want 14", len(types))
	}
}

func TestSubmitLimits(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "owner@example.com")
	formID, questions := s.createForm(t, token, "Limits", true,
		map[string]any{"question_text": "Name", "question_type": "short_text"},
	)
	submit := func(text string) (int, []byte) {
		return s.do(t, "POST", "/api/responses/"+formID+"/submit", "", map[string]any{
			"answers": []map[string]any{{"question_id": questions[0]["id"], "answer_text": text}},
		})
	}

	if status, body := submit(strings.Repeat("a", 2<<20+256<<10)); status != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body = %d %s, want 413", status, body)
	}
	if status, body := submit(strings.Repeat("a", answers.MaxTextLength+1)); status != http.StatusBadRequest {
		t.Errorf("overlong answer = %d %s, want 400", status, body)
	}
	if status, body := submit(strings.Repeat("a", answers.MaxTextLength)); status != http.StatusCreated {
		t.Errorf("answer at the limit = %d %s, want 201", status, body)
	}
}

func TestMedia(t *testing.T) {
	s := newTestServer(t)
	owner := s.signup(t, "owner@example.com")
	other := s.signup(t, "other@example.com")
	formID, questions := s.createForm(t, owner, "Media", true,
		map[string]any{"question_text": "Look", "question_type": "short_text"},
	)
	otherFormID, otherQuestions := s.createForm(t, owner, "Elsewhere", false,
		map[string]any{"question_text": "Other", "question_type": "short_text"},
	)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	uploadPath := "/api/media/" + formID + "/upload"

	tests := []struct {
		name   string
		file   string
		data   []byte
		fields map[string]string
		status int
		kind   string
	}{
		{"image for a question", "pic.png", png, map[string]string{"position": "left", "question_id": questions[0]["id"].(string)}, http.StatusCreated, "image"},
		{"text document", "notes.txt", []byte("plain notes"), nil, http.StatusCreated, "document"},
		{"html rejected", "page.png", []byte("<html><body>hi</body></html>"), nil, http.StatusBadRequest, ""},
		{"bad position", "pic.png", png, map[string]string{"position": "middle"}, http.StatusBadRequest, ""},
		{"foreign question", "pic.png", png, map[string]string{"question_id": otherQuestions[0]["id"].(string)}, http.StatusBadRequest, ""},
		{"too large", "big.png", append(append([]byte{}, png...), make([]byte, 1<<20)...), nil, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := s.upload(t, uploadPath, owner, tt.file, tt.data, tt.fields)
			if status != tt.status {
				t.Fatalf("upload = %d %v, want %d", status, out, tt.status)
			}
			if tt.kind == "" {
				return
			}
			if kind := out["media"].(map[string]any)["media_type"]; kind != tt.kind {
				t.Errorf("media_type = %v, want %v", kind, tt.kind)
			}
		})
	}

	if status, _ := s.upload(t, uploadPath, other, "pic.png", png, nil); status != http.StatusForbidden {
		t.Errorf("upload by non-owner = %d, want 403", status)
	}
	if status, _ := s.upload(t, "/api/media/"+otherFormID+"/upload", other, "pic.png", png, nil); status != http.StatusForbidden {
		t.Errorf("upload to someone else's form = %d, want 403", status)
	}

	list := s.doJSON(t, "GET", "/api/media/"+formID, "", nil, http.StatusOK)["media"].([]any)
	if len(list) != 2 {
		t.Fatalf("listed %d media, want 2", len(list))
	}
	first := list[0].(map[string]any)
	if first["file_name"] != "pic.png" || first["position"] != "left" || first["question_id"] != questions[0]["id"] {
		t.Errorf("first media = %v", first)
	}

	mediaURL := first["media_url"].(string)
	if status, data := s.fetch(t, mediaURL); status != http.StatusOK || !bytes.Equal(data, png) {
		t.Errorf("GET %s = %d, %d bytes", mediaURL, status, len(data))
	}

	mediaID := first["id"].(string)
	s.doJSON(t, "DELETE", "/api/media/"+mediaID, other, nil, http.StatusForbidden)
	s.doJSON(t, "DELETE", "/api/media/"+mediaID, owner, nil, http.StatusOK)
	s.doJSON(t, "DELETE", "/api/media/"+mediaID, owner, nil, http.StatusNotFound)

	if status, _ := s.fetch(t, mediaURL); status != http.StatusNotFound {
		t.Errorf("deleted media still served: %d", status)
	}
	if list := s.doJSON(t, "GET", "/api/media/"+formID, "", nil, http.StatusOK)["media"].([]any); len(list) != 1 {
		t.Errorf("listed %d media after delete, want 1", len(list))
	}
}

func TestUploadLogo(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "owner@example.com")
	formID, _ := s.createForm(t, token, "Logo", true)
	logoPath := "/api/branding/" + formID + "/logo"

	var big bytes.Buffer
	if err := imaging.Encode(&big, imaging.New(1024, 600, color.NRGBA{R: 200, A: 255}), imaging.JPEG); err != nil {
		t.Fatal(err)
	}
	status, out := s.upload(t, logoPath, token, "logo.jpg", big.Bytes(), nil)
	if status != http.StatusOK {
		t.Fatalf("logo upload = %d %v", status, out)
	}
	firstURL := out["logo_url"].(string)
	if !strings.HasSuffix(firstURL, ".png") {
		t.Errorf("logo_url = %s, want a .png object", firstURL)
	}

	status, data := s.fetch(t, firstURL)
	if status != http.StatusOK {
		t.Fatalf("GET logo = %d", status)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("stored logo is not an image: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 512 || b.Dy() != 300 {
		t.Errorf("logo is %dx%d, want 512x300", b.Dx(), b.Dy())
	}

	var small bytes.Buffer
	if err := imaging.Encode(&small, imaging.New(64, 64, color.NRGBA{B: 200, A: 255}), imaging.PNG); err != nil {
		t.Fatal(err)
	}
	status, out = s.upload(t, logoPath, token, "logo.png", small.Bytes(), nil)
	if status != http.StatusOK {
		t.Fatalf("second logo upload = %d %v", status, out)
	}
	secondURL := out["logo_url"].(string)
	if secondURL == firstURL {
		t.Fatalf("second logo reused %s", firstURL)
	}
	if status, _ := s.fetch(t, firstURL); status != http.StatusNotFound {
		t.Errorf("previous logo still served: %d", status)
	}

	branding := s.doJSON(t, "GET", "/api/branding/"+formID, "", nil, http.StatusOK)["branding"].(map[string]any)
	if branding["logo_url"] != secondURL {
		t.Errorf("branding logo_url = %v, want %s", branding["logo_url"], secondURL)
	}

	if status, _ := s.upload(t, logoPath, token, "notes.txt", []byte("not an image"), nil); status != http.StatusBadRequest {
		t.Errorf("text logo = %d, want 400", status)
	}
}
