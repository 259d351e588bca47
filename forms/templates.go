package forms

import (
	"context"

	"github.com/gofrs/uuid"

	"github.com/formmind/formmind/auth"
	"github.com/formmind/formmind/fault"
	"github.com/formmind/formmind/log"
	"github.com/formmind/formmind/model"
	"github.com/formmind/formmind/store"
)

// SaveAsTemplate snapshots the form's active schema into a template. The
// snapshot is independent of the source form: later edits or deletion of the
// form leave the template untouched.
func (s *Service) SaveAsTemplate(ctx context.Context, actor auth.Actor, formID int64, name, category string, visibility model.Visibility) (model.Template, error) {
	form, err := s.loadViewable(ctx, actor, formID)
	if err != nil {
		return model.Template{}, err
	}
	version, err := s.store.ActiveVersion(ctx, form.ID)
	if err != nil {
		return model.Template{}, err
	}
	questions, err := s.store.VersionQuestions(ctx, version.ID)
	if err != nil {
		return model.Template{}, err
	}

	if visibility == "" {
		visibility = model.VisibilityPrivate
	}
	tpl, err := s.store.CreateTemplate(ctx, model.Template{
		TenantID:   actor.TenantID,
		Name:       name,
		Category:   category,
		Visibility: visibility,
		Schema:     snapshotSchema(questions),
		CreatedBy:  actor.UserID,
	})
	if err != nil {
		return model.Template{}, err
	}
	log.Infof("saved form %d as template %d", formID, tpl.ID)
	return tpl, nil
}

func snapshotSchema(questions []model.Question) model.TemplateSchema {
	schema := model.TemplateSchema{Questions: make([]model.TemplateQuestion, len(questions))}
	for i, q := range questions {
		tq := model.TemplateQuestion{
			Label:       q.Label,
			Placeholder: q.Placeholder,
			HelpText:    q.HelpText,
			FieldType:   q.FieldType,
			Required:    q.Required,
			Min:         q.Min,
			Max:         q.Max,
			Pattern:     q.Pattern,
		}
		for _, opt := range q.Options {
			tq.Options = append(tq.Options, model.TemplateOption{Label: opt.Label, Value: opt.Value})
		}
		schema.Questions[i] = tq
	}
	return schema
}

// InstantiateTemplate creates a new draft form whose version 1 is built from
// the template's stored schema.
func (s *Service) InstantiateTemplate(ctx context.Context, actor auth.Actor, templateID int64, title string) (FormDetail, error) {
	tpl, err := s.store.TemplateByID(ctx, templateID)
	if err != nil {
		return FormDetail{}, err
	}
	if !templateUsable(tpl, actor) {
		return FormDetail{}, fault.ErrAccessDenied
	}
	if title == "" {
		title = tpl.Name
	}

	token, err := uuid.NewV4()
	if err != nil {
		return FormDetail{}, err
	}
	form, version, err := s.store.CreateForm(ctx, model.Form{
		TenantID:    actor.TenantID,
		Title:       title,
		Status:      model.StatusDraft,
		AccessMode:  model.AccessPublic,
		PublicToken: token.String(),
		CreatedBy:   actor.UserID,
	})
	if err != nil {
		return FormDetail{}, err
	}

	questions := make([]model.Question, 0, len(tpl.Schema.Questions))
	for i, tq := range tpl.Schema.Questions {
		q := model.Question{
			FormVersionID: version.ID,
			Label:         tq.Label,
			Placeholder:   tq.Placeholder,
			HelpText:      tq.HelpText,
			FieldType:     tq.FieldType,
			Required:      tq.Required,
			OrderIndex:    i,
			Min:           tq.Min,
			Max:           tq.Max,
			Pattern:       tq.Pattern,
		}
		for j, opt := range tq.Options {
			q.Options = append(q.Options, model.QuestionOption{
				Label:      opt.Label,
				Value:      opt.Value,
				OrderIndex: j,
			})
		}
		created, err := s.store.AddQuestion(ctx, q)
		if err != nil {
			return FormDetail{}, err
		}
		questions = append(questions, created)
	}

	log.Infof("instantiated template %d as form %d", templateID, form.ID)
	return FormDetail{Form: form, Version: version, Questions: questions}, nil
}

func templateUsable(tpl model.Template, actor auth.Actor) bool {
	switch tpl.Visibility {
	case model.VisibilityPublic:
		return true
	case model.VisibilityTenant:
		return tpl.TenantID == actor.TenantID
	case model.VisibilityPrivate:
		return tpl.CreatedBy == actor.UserID
	}
	return false
}

// ListTemplates returns templates visible to the actor, optionally narrowed
// to "private" or "tenant" scope.
func (s *Service) ListTemplates(ctx context.Context, actor auth.Actor, visibility string) ([]model.Template, error) {
	return s.store.ListTemplates(ctx, store.TemplateFilter{
		TenantID:   actor.TenantID,
		UserID:     actor.UserID,
		Visibility: visibility,
	})
}
