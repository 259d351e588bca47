package submit

import (
	"strings"
	"testing"

	"github.com/formmind/formmind/model"
)

func question(label string, ft model.FieldType, mutate ...func(*model.Question)) model.Question {
	q := model.Question{ID: 1, Label: label, FieldType: ft}
	for _, m := range mutate {
		m(&q)
	}
	return q
}

func withBounds(min, max float64) func(*model.Question) {
	return func(q *model.Question) { q.Min, q.Max = &min, &max }
}

func withOptions(values ...string) func(*model.Question) {
	return func(q *model.Question) {
		for i, v := range values {
			q.Options = append(q.Options, model.QuestionOption{Label: v, Value: v, OrderIndex: i})
		}
	}
}

func required(q *model.Question) { q.Required = true }

func TestValidateAnswers(t *testing.T) {
	tests := []struct {
		name     string
		question model.Question
		answer   any
		want     model.Value
		wantErrs []string
	}{
		{
			name:     "required missing",
			question: question("Name", model.FieldShortText, required),
			answer:   nil,
			wantErrs: []string{"Question 'Name' is required"},
		},
		{
			name:     "required blank string",
			question: question("Name", model.FieldShortText, required),
			answer:   "   ",
			wantErrs: []string{"Question 'Name' is required"},
		},
		{
			name:     "text ok",
			question: question("Name", model.FieldShortText),
			answer:   "Ada",
			want:     model.TextValue("Ada"),
		},
		{
			name:     "text too short",
			question: question("Name", model.FieldShortText, withBounds(5, 100)),
			answer:   "Ada",
			wantErrs: []string{"'Name' must be at least 5 characters"},
		},
		{
			name:     "text too long",
			question: question("Name", model.FieldShortText, withBounds(0, 3)),
			answer:   "Adaline",
			wantErrs: []string{"'Name' must be at most 3 characters"},
		},
		{
			name: "text pattern mismatch",
			question: question("Code", model.FieldShortText, func(q *model.Question) {
				q.Pattern = `^[A-Z]{3}-\d+$`
			}),
			answer:   "abc123",
			wantErrs: []string{"'Code' does not match the expected format"},
		},
		{
			name:     "integer ok",
			question: question("Age", model.FieldInteger),
			answer:   float64(30),
			want:     model.NumberValue(30),
		},
		{
			name:     "integer from string",
			question: question("Age", model.FieldInteger),
			answer:   "30",
			want:     model.NumberValue(30),
		},
		{
			name:     "integer fractional",
			question: question("Age", model.FieldInteger),
			answer:   30.5,
			wantErrs: []string{"'Age' must be a whole number"},
		},
		{
			name:     "integer below min",
			question: question("Age", model.FieldInteger, withBounds(18, 120)),
			answer:   float64(12),
			wantErrs: []string{"'Age' must be at least 18"},
		},
		{
			name:     "rating above max",
			question: question("Stars", model.FieldRating, withBounds(1, 5)),
			answer:   float64(6),
			wantErrs: []string{"'Stars' must be at most 5"},
		},
		{
			name:     "decimal ok",
			question: question("Price", model.FieldDecimal),
			answer:   19.99,
			want:     model.NumberValue(19.99),
		},
		{
			name:     "decimal not a number",
			question: question("Price", model.FieldDecimal),
			answer:   "abc",
			wantErrs: []string{"'Price' must be a valid number"},
		},
		{
			name:     "date ok",
			question: question("Birthday", model.FieldDate),
			answer:   "1990-12-31",
			want:     model.DateValue("1990-12-31"),
		},
		{
			name:     "date wrong shape",
			question: question("Birthday", model.FieldDate),
			answer:   "31/12/1990",
			wantErrs: []string{"'Birthday' must be a date (YYYY-MM-DD)"},
		},
		{
			name:     "time ok",
			question: question("Start", model.FieldTime),
			answer:   "09:30",
			want:     model.TimeValue("09:30"),
		},
		{
			name:     "time wrong shape",
			question: question("Start", model.FieldTime),
			answer:   "9:30 AM",
			wantErrs: []string{"'Start' must be a time (HH:MM)"},
		},
		{
			name:     "boolean ok",
			question: question("Agree", model.FieldBoolean),
			answer:   true,
			want:     model.BoolValue(true),
		},
		{
			name:     "boolean from string",
			question: question("Agree", model.FieldBoolean),
			answer:   "true",
			want:     model.BoolValue(true),
		},
		{
			name:     "boolean invalid",
			question: question("Agree", model.FieldBoolean),
			answer:   "maybe",
			wantErrs: []string{"'Agree' must be true or false"},
		},
		{
			name:     "single choice ok",
			question: question("Color", model.FieldSingleChoice, withOptions("red", "blue")),
			answer:   "red",
			want:     model.ChoiceValue("red"),
		},
		{
			name:     "single choice invalid",
			question: question("Color", model.FieldSingleChoice, withOptions("red", "blue")),
			answer:   "green",
			wantErrs: []string{"'Color' has an invalid selection"},
		},
		{
			name:     "dropdown invalid",
			question: question("Size", model.FieldDropdown, withOptions("s", "m", "l")),
			answer:   "xl",
			wantErrs: []string{"'Size' has an invalid selection"},
		},
		{
			name:     "multi choice ok",
			question: question("Toppings", model.FieldMultiChoice, withOptions("ham", "olive", "corn")),
			answer:   []any{"corn", "ham"},
			want:     model.ChoiceSet([]string{"corn", "ham"}),
		},
		{
			name:     "multi choice partial invalid",
			question: question("Toppings", model.FieldMultiChoice, withOptions("ham", "olive")),
			answer:   []any{"ham", "pineapple"},
			wantErrs: []string{"'Toppings' has an invalid selection: pineapple"},
		},
		{
			name:     "multi choice wrong shape",
			question: question("Toppings", model.FieldMultiChoice, withOptions("ham")),
			answer:   "ham",
			wantErrs: []string{"'Toppings' must be a list of selections"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers, errs := validateAnswers([]model.Question{tt.question}, map[int64]any{
				tt.question.ID: tt.answer,
			})

			if len(tt.wantErrs) > 0 {
				if len(errs) != len(tt.wantErrs) {
					t.Fatalf("errs = %v, want %v", errs, tt.wantErrs)
				}
				for i, want := range tt.wantErrs {
					if errs[i] != want {
						t.Errorf("errs[%d] = %q, want %q", i, errs[i], want)
					}
				}
				return
			}

			if len(errs) > 0 {
				t.Fatalf("unexpected errs: %v", errs)
			}
			if len(answers) != 1 {
				t.Fatalf("answers = %+v, want one", answers)
			}
			got := answers[0].Value
			if got.Kind != tt.want.Kind || got.Text != tt.want.Text ||
				got.Number != tt.want.Number || got.Bool != tt.want.Bool ||
				strings.Join(got.Set, ",") != strings.Join(tt.want.Set, ",") {
				t.Errorf("value = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestValidateAnswersAccumulatesAcrossQuestions(t *testing.T) {
	questions := []model.Question{
		{ID: 1, Label: "Name", FieldType: model.FieldShortText, Required: true},
		{ID: 2, Label: "Email", FieldType: model.FieldShortText, Required: true},
		{ID: 3, Label: "Age", FieldType: model.FieldInteger},
	}

	_, errs := validateAnswers(questions, map[int64]any{3: "not a number"})
	if len(errs) != 3 {
		t.Fatalf("errs = %v, want all three problems in one batch", errs)
	}
}

func TestValidateAnswersIgnoresUnknownQuestionIDs(t *testing.T) {
	questions := []model.Question{
		{ID: 1, Label: "Name", FieldType: model.FieldShortText},
	}

	answers, errs := validateAnswers(questions, map[int64]any{
		1:  "Ada",
		99: "stray",
	})
	if len(errs) > 0 {
		t.Fatalf("unexpected errs: %v", errs)
	}
	if len(answers) != 1 {
		t.Errorf("answers = %+v, stray answer should be dropped", answers)
	}
}

func TestValidateInvalidPatternIsNotRespondentsProblem(t *testing.T) {
	q := question("Code", model.FieldShortText, func(q *model.Question) {
		q.Pattern = `([`
	})

	answers, errs := validateAnswers([]model.Question{q}, map[int64]any{1: "anything"})
	if len(errs) > 0 {
		t.Fatalf("authoring mistake surfaced to respondent: %v", errs)
	}
	if len(answers) != 1 {
		t.Fatalf("answers = %+v", answers)
	}
}
