package model

import "sort"

// Assemble composes a form with its questions and each question's options.
// Questions and options come out ordered by order_index; the inputs are
// copied, never reordered in place.
func Assemble(form Form, questions []Question, optionsByQuestion map[string][]Option) FormWithQuestions {
	out := FormWithQuestions{
		Form:      form,
		Questions: make([]Question, len(questions)),
	}
	copy(out.Questions, questions)
	sort.SliceStable(out.Questions, func(i, j int) bool {
		return out.Questions[i].OrderIndex < out.Questions[j].OrderIndex
	})

	for i := range out.Questions {
		q := &out.Questions[i]
		q.FileTypes = append([]string(nil), q.FileTypes...)

		opts := make([]Option, len(optionsByQuestion[q.ID]))
		copy(opts, optionsByQuestion[q.ID])
		sort.SliceStable(opts, func(i, j int) bool {
			return opts[i].OrderIndex < opts[j].OrderIndex
		})
		q.Options = opts
	}
	return out
}

// OptionLabels maps option ids to their text across all questions.
func (f FormWithQuestions) OptionLabels() map[string]string {
	labels := map[string]string{}
	for _, q := range f.Questions {
		for _, o := range q.Options {
			labels[o.ID] = o.OptionText
		}
	}
	return labels
}

// Question looks a question up by id.
func (f FormWithQuestions) Question(id string) (Question, bool) {
	for _, q := range f.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}
