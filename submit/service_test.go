package submit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/formmind/formmind/fault"
	"github.com/formmind/formmind/model"
	"github.com/formmind/formmind/store"
	"github.com/formmind/formmind/store/memory"
)

type fixture struct {
	service *Service
	store   *memory.Store
	form    model.Form
	version model.FormVersion
	name    model.Question
	rating  model.Question
}

// newFixture builds a published public form with a required short text
// question and an optional 1..5 rating.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()

	form, version, err := st.CreateForm(ctx, model.Form{
		TenantID:    1,
		Title:       "Feedback",
		Status:      model.StatusPublished,
		AccessMode:  model.AccessPublic,
		PublicToken: "tok-feedback",
		CreatedBy:   1,
	})
	if err != nil {
		t.Fatal(err)
	}

	name, err := st.AddQuestion(ctx, model.Question{
		FormVersionID: version.ID,
		Label:         "Name",
		FieldType:     model.FieldShortText,
		Required:      true,
	})
	if err != nil {
		t.Fatal(err)
	}
	min, max := 1.0, 5.0
	rating, err := st.AddQuestion(ctx, model.Question{
		FormVersionID: version.ID,
		Label:         "Rating",
		FieldType:     model.FieldRating,
		OrderIndex:    1,
		Min:           &min,
		Max:           &max,
	})
	if err != nil {
		t.Fatal(err)
	}

	return &fixture{
		service: NewService(st),
		store:   st,
		form:    form,
		version: version,
		name:    name,
		rating:  rating,
	}
}

func (f *fixture) submit(answers map[int64]any, identity Identity) (model.Submission, error) {
	return f.service.Submit(context.Background(), Request{
		FormID:  f.form.ID,
		Answers: answers,
	}, identity)
}

func (f *fixture) updateSettings(t *testing.T, set store.Settings) {
	t.Helper()
	if err := f.store.UpdateFormSettings(context.Background(), f.form.ID, set); err != nil {
		t.Fatal(err)
	}
}

func TestSubmitRecordsTypedAnswers(t *testing.T) {
	f := newFixture(t)

	sub, err := f.submit(map[int64]any{
		f.name.ID:   "Ada",
		f.rating.ID: float64(4),
	}, Identity{GuestToken: "203.0.113.7"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sub.FormVersionID != f.version.ID {
		t.Errorf("bound to version %d, want active version %d", sub.FormVersionID, f.version.ID)
	}

	records, err := f.store.ListSubmissions(context.Background(), f.form.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("recorded %d submissions, want 1", len(records))
	}
	rec := records[0]
	if rec.Submitter != "203.0.113.7" {
		t.Errorf("submitter = %q", rec.Submitter)
	}
	if len(rec.Answers) != 2 {
		t.Fatalf("answers = %d, want 2", len(rec.Answers))
	}
	if rec.Answers[0].Value.Kind != model.KindText || rec.Answers[0].Value.Text != "Ada" {
		t.Errorf("name answer = %+v", rec.Answers[0].Value)
	}
	if rec.Answers[1].Value.Kind != model.KindNumber || rec.Answers[1].Value.Number != 4 {
		t.Errorf("rating answer = %+v", rec.Answers[1].Value)
	}
}

func TestSubmitOmitsOptionalBlankAnswers(t *testing.T) {
	f := newFixture(t)

	if _, err := f.submit(map[int64]any{
		f.name.ID:   "Ada",
		f.rating.ID: nil,
	}, Identity{GuestToken: "203.0.113.7"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	records, err := f.store.ListSubmissions(context.Background(), f.form.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(records[0].Answers) != 1 {
		t.Errorf("answers = %+v, blank optional should produce no row", records[0].Answers)
	}
}

func TestSubmitRejectsUnpublishedForms(t *testing.T) {
	for _, status := range []model.FormStatus{model.StatusDraft, model.StatusUnpublished} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			status := status
			f.updateSettings(t, store.Settings{Status: &status})

			_, err := f.submit(map[int64]any{f.name.ID: "Ada"}, Identity{GuestToken: "ip"})
			if !errors.Is(err, fault.ErrNotAcceptingSubmissions) {
				t.Errorf("err = %v, want not accepting submissions", err)
			}
		})
	}
}

func TestSubmitAuthenticatedModeRejectsGuests(t *testing.T) {
	f := newFixture(t)
	mode := model.AccessAuthenticated
	f.updateSettings(t, store.Settings{AccessMode: &mode})

	if _, err := f.submit(map[int64]any{f.name.ID: "Ada"}, Identity{GuestToken: "ip"}); !errors.Is(err, fault.ErrAccessDenied) {
		t.Errorf("guest on authenticated form: err = %v, want access denied", err)
	}
	if _, err := f.submit(map[int64]any{f.name.ID: "Ada"}, Identity{UserID: 7}); err != nil {
		t.Errorf("authenticated respondent rejected: %v", err)
	}
}

func TestSubmitHonorsSubmissionWindow(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		now     time.Time
		wantErr bool
	}{
		{"before window", start.Add(-time.Hour), true},
		{"at start", start, false},
		{"inside window", start.AddDate(0, 0, 15), false},
		{"after window", end.Add(time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.updateSettings(t, store.Settings{SubmissionStart: &start, SubmissionEnd: &end})
			f.service.now = func() time.Time { return tt.now }

			_, err := f.submit(map[int64]any{f.name.ID: "Ada"}, Identity{GuestToken: "ip"})
			if tt.wantErr && !errors.Is(err, fault.ErrSubmissionWindowClosed) {
				t.Errorf("err = %v, want window closed", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected err: %v", err)
			}
		})
	}
}

func TestSubmitSingleSubmissionDeduplicates(t *testing.T) {
	f := newFixture(t)
	single := true
	f.updateSettings(t, store.Settings{SingleSubmission: &single})

	answers := map[int64]any{f.name.ID: "Ada"}
	if _, err := f.submit(answers, Identity{GuestToken: "203.0.113.7"}); err != nil {
		t.Fatalf("first submission: %v", err)
	}
	if _, err := f.submit(answers, Identity{GuestToken: "203.0.113.7"}); !errors.Is(err, fault.ErrDuplicateSubmission) {
		t.Errorf("repeat guest: err = %v, want duplicate submission", err)
	}
	if _, err := f.submit(answers, Identity{GuestToken: "198.51.100.9"}); err != nil {
		t.Errorf("different guest rejected: %v", err)
	}

	if _, err := f.submit(answers, Identity{UserID: 7}); err != nil {
		t.Fatalf("first user submission: %v", err)
	}
	if _, err := f.submit(answers, Identity{UserID: 7}); !errors.Is(err, fault.ErrDuplicateSubmission) {
		t.Errorf("repeat user: err = %v, want duplicate submission", err)
	}
}

func TestSubmitValidationReportsEveryProblemAndWritesNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.submit(map[int64]any{
		f.rating.ID: float64(9),
	}, Identity{GuestToken: "ip"})

	ve, ok := fault.AsValidation(err)
	if !ok {
		t.Fatalf("err = %v, want validation error", err)
	}
	if len(ve.Errors) != 2 {
		t.Fatalf("problems = %v, want both reported in one batch", ve.Errors)
	}
	if ve.Errors[0] != "Question 'Name' is required" {
		t.Errorf("first problem = %q", ve.Errors[0])
	}
	if !strings.Contains(ve.Errors[1], "'Rating' must be at most 5") {
		t.Errorf("second problem = %q", ve.Errors[1])
	}

	records, err := f.store.ListSubmissions(context.Background(), f.form.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("rejected submission left %d rows behind", len(records))
	}
}

func TestResolveTokenHidesUnpublishedForms(t *testing.T) {
	f := newFixture(t)

	public, err := f.service.ResolveToken(context.Background(), "tok-feedback")
	if err != nil {
		t.Fatalf("ResolveToken: %v", err)
	}
	if public.ID != f.form.ID || len(public.Questions) != 2 {
		t.Errorf("public form = %+v", public)
	}
	if public.VersionNumber != 1 {
		t.Errorf("version number = %d, want 1", public.VersionNumber)
	}

	status := model.StatusUnpublished
	f.updateSettings(t, store.Settings{Status: &status})
	if _, err := f.service.ResolveToken(context.Background(), "tok-feedback"); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("unpublished form resolved: err = %v, want not found", err)
	}
	if _, err := f.service.ResolveToken(context.Background(), "no-such-token"); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("unknown token: err = %v, want not found", err)
	}
}
