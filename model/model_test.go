package model

import (
	"fmt"
	"testing"
)

func TestQuestionTypesAreExhaustive(t *testing.T) {
	all := []QuestionType{
		ShortText, LongText, MultipleChoice, Checkboxes, Dropdown, Date, Time,
		Email, Phone, URL, Rating5, Rating10, FileUpload, Signature,
	}
	if got := len(QuestionTypes()); got != len(all) {
		t.Fatalf("len(QuestionTypes()) = %d, want %d", got, len(all))
	}
	for _, qt := range all {
		info, ok := qt.Info()
		if !ok {
			t.Errorf("%s missing from registry", qt)
			continue
		}
		if info.Label == "" || info.Icon == "" || info.Description == "" {
			t.Errorf("%s has incomplete display info: %+v", qt, info)
		}
		if info.NeedsScale && info.Scale == 0 {
			t.Errorf("%s needs a scale but has no default", qt)
		}
		if info.NeedsOptions && info.Payload != OptionsPayload {
			t.Errorf("%s needs options but stores %s", qt, info.Payload)
		}
	}
	if QuestionType("slider").Valid() {
		t.Errorf("unknown type reported valid")
	}
}

func TestQuestionTypesReturnsCopy(t *testing.T) {
	types := QuestionTypes()
	types[0].Label = "changed"
	if ShortText.Label() != "Short answer" {
		t.Errorf("registry mutated through QuestionTypes()")
	}
}

func TestAssembleOrdersBothLevels(t *testing.T) {
	const n, k = 4, 3
	var questions []Question
	options := map[string][]Option{}
	for i := n - 1; i >= 0; i-- {
		q := Question{ID: fmt.Sprintf("q%d", i), QuestionType: MultipleChoice, OrderIndex: i}
		questions = append(questions, q)
		for j := k - 1; j >= 0; j-- {
			options[q.ID] = append(options[q.ID], Option{
				ID:         fmt.Sprintf("q%d-o%d", i, j),
				QuestionID: q.ID,
				OrderIndex: j,
			})
		}
	}

	got := Assemble(Form{ID: "f", Title: "T"}, questions, options)

	if len(got.Questions) != n {
		t.Fatalf("len(Questions) = %d, want %d", len(got.Questions), n)
	}
	for i, q := range got.Questions {
		if q.OrderIndex != i {
			t.Errorf("Questions[%d].OrderIndex = %d", i, q.OrderIndex)
		}
		if len(q.Options) != k {
			t.Fatalf("%s has %d options, want %d", q.ID, len(q.Options), k)
		}
		for j, o := range q.Options {
			if o.OrderIndex != j || o.QuestionID != q.ID {
				t.Errorf("%s Options[%d] = %+v", q.ID, j, o)
			}
		}
	}

	// inputs untouched
	if questions[0].ID != "q3" || options["q0"][0].OrderIndex != 2 {
		t.Errorf("Assemble() reordered its inputs")
	}
}

func TestAssembleQuestionWithoutOptions(t *testing.T) {
	got := Assemble(Form{ID: "f"}, []Question{{ID: "q", QuestionType: ShortText}}, nil)
	if got.Questions[0].Options == nil || len(got.Questions[0].Options) != 0 {
		t.Errorf("Options = %#v, want empty non-nil slice", got.Questions[0].Options)
	}
}

func TestOptionLabels(t *testing.T) {
	f := Assemble(Form{}, []Question{{ID: "q"}}, map[string][]Option{
		"q": {{ID: "a", OptionText: "A"}, {ID: "b", OptionText: "B", OrderIndex: 1}},
	})
	labels := f.OptionLabels()
	if labels["a"] != "A" || labels["b"] != "B" {
		t.Errorf("OptionLabels() = %v", labels)
	}
	if _, ok := f.Question("q"); !ok {
		t.Errorf("Question(q) not found")
	}
}
