package forms

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/formmind/formmind/auth"
	"github.com/formmind/formmind/fault"
	"github.com/formmind/formmind/model"
)

func TestTemplateSnapshotSurvivesSourceEdits(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	source := createTestForm(t, s, owner)
	q := addTestQuestion(t, s, owner, source.ID, "Name")

	tpl, err := s.SaveAsTemplate(ctx, owner, source.ID, "Contact form", "sales", "")
	if err != nil {
		t.Fatalf("SaveAsTemplate: %v", err)
	}
	if tpl.Visibility != model.VisibilityPrivate {
		t.Errorf("default visibility = %s, want private", tpl.Visibility)
	}

	// mutate and then delete the source; the snapshot must not notice
	if _, err := s.UpdateQuestion(ctx, owner, source.ID, q.ID, QuestionInput{
		Label:     "Changed",
		FieldType: model.FieldShortText,
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, owner, source.ID); err != nil {
		t.Fatal(err)
	}

	form, err := s.InstantiateTemplate(ctx, owner, tpl.ID, "")
	if err != nil {
		t.Fatalf("InstantiateTemplate: %v", err)
	}
	if form.Title != "Contact form" {
		t.Errorf("title = %q, want template name", form.Title)
	}
	if form.Status != model.StatusDraft {
		t.Errorf("status = %s, want draft", form.Status)
	}
	if len(form.Questions) != 1 || form.Questions[0].Label != "Name" {
		t.Errorf("questions = %+v, want snapshot of original schema", form.Questions)
	}
}

func TestTemplateSnapshotsChoiceOptions(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	source := createTestForm(t, s, owner)
	if _, err := s.AddQuestion(ctx, owner, source.ID, QuestionInput{
		Label:     "Color",
		FieldType: model.FieldSingleChoice,
		Options: []OptionInput{
			{Label: "Red"},
			{Label: "Blue", Value: "blue"},
		},
	}); err != nil {
		t.Fatal(err)
	}

	tpl, err := s.SaveAsTemplate(ctx, owner, source.ID, "Colors", "", "")
	if err != nil {
		t.Fatal(err)
	}

	form, err := s.InstantiateTemplate(ctx, owner, tpl.ID, "Survey")
	if err != nil {
		t.Fatal(err)
	}
	opts := form.Questions[0].Options
	if len(opts) != 2 {
		t.Fatalf("options = %d, want 2", len(opts))
	}
	if opts[0].Value != "Red" {
		t.Errorf("option value = %q, want label fallback", opts[0].Value)
	}
	if opts[1].Value != "blue" {
		t.Errorf("option value = %q", opts[1].Value)
	}
}

func TestPrivateTemplateDeniedToOthers(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	source := createTestForm(t, s, editor)
	addTestQuestion(t, s, editor, source.ID, "Q")

	tpl, err := s.SaveAsTemplate(ctx, editor, source.ID, "Mine", "", model.VisibilityPrivate)
	if err != nil {
		t.Fatal(err)
	}

	other := auth.Actor{UserID: 2, TenantID: 1, Role: model.RoleAdmin}
	if _, err := s.InstantiateTemplate(ctx, other, tpl.ID, ""); !errors.Is(err, fault.ErrAccessDenied) {
		t.Errorf("instantiating someone else's private template: err = %v, want access denied", err)
	}
}

func TestTenantTemplateSharedWithinTenant(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	source := createTestForm(t, s, owner)
	addTestQuestion(t, s, owner, source.ID, "Q")

	tpl, err := s.SaveAsTemplate(ctx, owner, source.ID, "Shared", "", model.VisibilityTenant)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.InstantiateTemplate(ctx, editor, tpl.ID, ""); err != nil {
		t.Errorf("tenant template should be usable by tenant members: %v", err)
	}

	outsider := auth.Actor{UserID: 9, TenantID: 2, Role: model.RoleOwner}
	if _, err := s.InstantiateTemplate(ctx, outsider, tpl.ID, ""); !errors.Is(err, fault.ErrAccessDenied) {
		t.Errorf("tenant template used cross-tenant: err = %v, want access denied", err)
	}
}

func TestListTemplatesScopes(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	mk := func(actor auth.Actor, name string, vis model.Visibility) {
		form := createTestForm(t, s, actor)
		addTestQuestion(t, s, actor, form.ID, "Q")
		if _, err := s.SaveAsTemplate(ctx, actor, form.ID, name, "", vis); err != nil {
			t.Fatal(err)
		}
	}
	mk(owner, "owner private", model.VisibilityPrivate)
	mk(owner, "tenant wide", model.VisibilityTenant)
	mk(editor, "editor private", model.VisibilityPrivate)

	private, err := s.ListTemplates(ctx, owner, "private")
	if err != nil {
		t.Fatal(err)
	}
	if len(private) != 1 || private[0].Name != "owner private" {
		t.Errorf("private scope = %+v, want only the owner's private template", names(private))
	}

	all, err := s.ListTemplates(ctx, editor, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("editor sees %v, want own private + tenant wide", names(all))
	}
}

func names(templates []model.Template) []string {
	out := make([]string, len(templates))
	for i, tpl := range templates {
		out[i] = tpl.Name
	}
	return out
}
