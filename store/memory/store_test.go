package memory

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/formmind/formmind/fault"
	"github.com/formmind/formmind/model"
)

func seedForm(t *testing.T, st *Store, status model.FormStatus) (model.Form, model.FormVersion, model.Question) {
	t.Helper()
	ctx := context.Background()
	form, version, err := st.CreateForm(ctx, model.Form{
		TenantID:    1,
		Title:       "Survey",
		Status:      status,
		AccessMode:  model.AccessPublic,
		PublicToken: "tok",
		CreatedBy:   1,
	})
	if err != nil {
		t.Fatal(err)
	}
	q, err := st.AddQuestion(ctx, model.Question{
		FormVersionID: version.ID,
		Label:         "Color",
		FieldType:     model.FieldSingleChoice,
		Options: []model.QuestionOption{
			{Label: "Red", Value: "red", OrderIndex: 0},
			{Label: "Blue", Value: "blue", OrderIndex: 1},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return form, version, q
}

func TestPrepareSchemaEditWithoutSubmissionsIsInPlace(t *testing.T) {
	st := New()
	_, version, _ := seedForm(t, st, model.StatusPublished)

	target, remap, err := st.PrepareSchemaEdit(context.Background(), version.FormID)
	if err != nil {
		t.Fatal(err)
	}
	if target.ID != version.ID {
		t.Errorf("target = %d, want active version %d untouched", target.ID, version.ID)
	}
	if remap != nil {
		t.Errorf("remap = %v, want nil when no fork happens", remap)
	}
}

func TestPrepareSchemaEditForksAndCopiesSchema(t *testing.T) {
	st := New()
	ctx := context.Background()
	form, version, q := seedForm(t, st, model.StatusPublished)

	if _, err := st.CreateSubmission(ctx, model.Submission{
		FormID:        form.ID,
		FormVersionID: version.ID,
		GuestToken:    "ip",
	}, []model.Answer{{QuestionID: q.ID, Value: model.ChoiceValue("red")}}, false); err != nil {
		t.Fatal(err)
	}

	target, remap, err := st.PrepareSchemaEdit(ctx, form.ID)
	if err != nil {
		t.Fatal(err)
	}
	if target.ID == version.ID || target.VersionNumber != 2 || !target.IsActive {
		t.Fatalf("target = %+v, want fresh active version 2", target)
	}

	old, err := st.ActiveVersion(ctx, form.ID)
	if err != nil {
		t.Fatal(err)
	}
	if old.ID != target.ID {
		t.Errorf("active version = %d, want the fork %d", old.ID, target.ID)
	}

	copied, ok := remap[q.ID]
	if !ok {
		t.Fatalf("remap = %v, missing entry for question %d", remap, q.ID)
	}
	questions, err := st.VersionQuestions(ctx, target.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(questions) != 1 || questions[0].ID != copied {
		t.Fatalf("forked questions = %+v, want the remapped copy", questions)
	}
	if len(questions[0].Options) != 2 || questions[0].Options[0].Value != "red" {
		t.Errorf("options not copied: %+v", questions[0].Options)
	}
	if questions[0].Options[0].QuestionID != copied {
		t.Errorf("copied option still points at question %d", questions[0].Options[0].QuestionID)
	}
}

func TestFrozenVersionRejectsMutation(t *testing.T) {
	st := New()
	ctx := context.Background()
	form, version, q := seedForm(t, st, model.StatusPublished)

	if _, err := st.CreateSubmission(ctx, model.Submission{
		FormID: form.ID, FormVersionID: version.ID, GuestToken: "ip",
	}, nil, false); err != nil {
		t.Fatal(err)
	}
	if _, _, err := st.PrepareSchemaEdit(ctx, form.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := st.AddQuestion(ctx, model.Question{
		FormVersionID: version.ID,
		Label:         "Sneaky",
		FieldType:     model.FieldShortText,
	}); !errors.Is(err, fault.ErrConflict) {
		t.Errorf("AddQuestion on frozen version: err = %v, want conflict", err)
	}
	if err := st.UpdateQuestion(ctx, model.Question{
		ID:            q.ID,
		FormVersionID: version.ID,
		Label:         "Changed",
		FieldType:     model.FieldSingleChoice,
	}); !errors.Is(err, fault.ErrConflict) {
		t.Errorf("UpdateQuestion on frozen version: err = %v, want conflict", err)
	}
	if err := st.DeleteQuestion(ctx, version.ID, q.ID); !errors.Is(err, fault.ErrConflict) {
		t.Errorf("DeleteQuestion on frozen version: err = %v, want conflict", err)
	}
	if err := st.ReorderQuestions(ctx, version.ID, []int64{q.ID}); !errors.Is(err, fault.ErrConflict) {
		t.Errorf("ReorderQuestions on frozen version: err = %v, want conflict", err)
	}
}

func TestDraftNeverForks(t *testing.T) {
	st := New()
	ctx := context.Background()
	form, version, _ := seedForm(t, st, model.StatusDraft)

	// even with a stray submission, drafts edit in place
	if _, err := st.CreateSubmission(ctx, model.Submission{
		FormID: form.ID, FormVersionID: version.ID, GuestToken: "ip",
	}, nil, false); err != nil {
		t.Fatal(err)
	}

	target, remap, err := st.PrepareSchemaEdit(ctx, form.ID)
	if err != nil {
		t.Fatal(err)
	}
	if target.ID != version.ID || remap != nil {
		t.Errorf("draft forked: target %d remap %v", target.ID, remap)
	}
}

func TestReorderRequiresCompletePermutation(t *testing.T) {
	st := New()
	ctx := context.Background()
	_, version, q := seedForm(t, st, model.StatusDraft)
	q2, err := st.AddQuestion(ctx, model.Question{
		FormVersionID: version.ID,
		Label:         "Second",
		FieldType:     model.FieldShortText,
		OrderIndex:    1,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := st.ReorderQuestions(ctx, version.ID, []int64{q.ID}); err == nil {
		t.Error("partial reorder accepted")
	}
	if err := st.ReorderQuestions(ctx, version.ID, []int64{q.ID, 999}); err == nil {
		t.Error("reorder with foreign id accepted")
	}
	if err := st.ReorderQuestions(ctx, version.ID, []int64{q2.ID, q.ID}); err != nil {
		t.Errorf("valid reorder rejected: %v", err)
	}
}

func TestCreateSubmissionEnforcesSingleInsideStore(t *testing.T) {
	st := New()
	ctx := context.Background()
	form, version, _ := seedForm(t, st, model.StatusPublished)

	sub := model.Submission{FormID: form.ID, FormVersionID: version.ID, GuestToken: "ip"}
	if _, err := st.CreateSubmission(ctx, sub, nil, true); err != nil {
		t.Fatal(err)
	}
	if _, err := st.CreateSubmission(ctx, sub, nil, true); !errors.Is(err, fault.ErrDuplicateSubmission) {
		t.Errorf("second insert: err = %v, want duplicate submission", err)
	}
}

func TestRefreshTokensAreSingleUse(t *testing.T) {
	st := New()
	ctx := context.Background()
	expiration := time.Now().Add(time.Hour)

	if err := st.StoreRefreshToken(ctx, "user@example.com", "tok1", "ref1", expiration); err != nil {
		t.Fatal(err)
	}

	got, err := st.ConsumeRefreshToken(ctx, "user@example.com", "tok1", "ref1")
	if err != nil {
		t.Fatalf("ConsumeRefreshToken: %v", err)
	}
	if !got.Equal(expiration) {
		t.Errorf("expiration = %v, want %v", got, expiration)
	}

	if _, err := st.ConsumeRefreshToken(ctx, "user@example.com", "tok1", "ref1"); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("second consume: err = %v, want not found", err)
	}
}
