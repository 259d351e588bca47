// Package forms implements the form lifecycle service and the version fork
// engine: authorization-gated authoring operations that either mutate the
// active version in place or fork an immutable copy before editing.
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

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// CreateFormRequest carries the fields of a new form. The form starts as a
// draft with an empty active version 1.
type CreateFormRequest struct {
	Title            string
	Description      string
	AccessMode       model.AccessMode
	SingleSubmission bool
}

// FormDetail is a form together with its active version and questions.
// VersionSubmissions counts the submissions bound to the active version; a
// fork resets it since the fork starts with no history.
type FormDetail struct {
	model.Form
	Version            model.FormVersion `json:"version"`
	Questions          []model.Question  `json:"questions"`
	VersionSubmissions int               `json:"version_submissions"`
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, req CreateFormRequest) (FormDetail, error) {
	token, err := uuid.NewV4()
	if err != nil {
		return FormDetail{}, err
	}
	accessMode := req.AccessMode
	if accessMode == "" {
		accessMode = model.AccessPublic
	}

	form, version, err := s.store.CreateForm(ctx, model.Form{
		TenantID:         actor.TenantID,
		Title:            req.Title,
		Description:      req.Description,
		Status:           model.StatusDraft,
		AccessMode:       accessMode,
		SingleSubmission: req.SingleSubmission,
		PublicToken:      token.String(),
		CreatedBy:        actor.UserID,
	})
	if err != nil {
		return FormDetail{}, err
	}
	log.Infof("created form %d (version %d) for tenant %d", form.ID, version.ID, form.TenantID)
	return FormDetail{Form: form, Version: version}, nil
}

// loadMutable resolves a form and gates it behind the mutation policy.
// Forms of other tenants are reported as absent, not as forbidden.
func (s *Service) loadMutable(ctx context.Context, actor auth.Actor, formID int64) (model.Form, error) {
	return s.load(ctx, actor, formID, auth.CanMutate)
}

func (s *Service) loadViewable(ctx context.Context, actor auth.Actor, formID int64) (model.Form, error) {
	return s.load(ctx, actor, formID, auth.CanView)
}

func (s *Service) load(ctx context.Context, actor auth.Actor, formID int64, allowed func(model.Role, int64, int64) bool) (model.Form, error) {
	form, err := s.store.FormByID(ctx, formID)
	if err != nil {
		return model.Form{}, err
	}
	if form.TenantID != actor.TenantID {
		return model.Form{}, fault.ErrNotFound
	}
	if !allowed(actor.Role, actor.UserID, form.CreatedBy) {
		return model.Form{}, fault.ErrAccessDenied
	}
	return form, nil
}

func (s *Service) List(ctx context.Context, actor auth.Actor) ([]store.FormSummary, error) {
	createdBy := int64(0)
	if actor.Role == model.RoleEditor {
		createdBy = actor.UserID
	}
	return s.store.ListForms(ctx, actor.TenantID, createdBy)
}

func (s *Service) Get(ctx context.Context, actor auth.Actor, formID int64) (FormDetail, error) {
	form, err := s.loadViewable(ctx, actor, formID)
	if err != nil {
		return FormDetail{}, err
	}
	version, err := s.store.ActiveVersion(ctx, form.ID)
	if err != nil {
		return FormDetail{}, err
	}
	questions, err := s.store.VersionQuestions(ctx, version.ID)
	if err != nil {
		return FormDetail{}, err
	}
	count, err := s.store.SubmissionCount(ctx, version.ID)
	if err != nil {
		return FormDetail{}, err
	}
	return FormDetail{
		Form:               form,
		Version:            version,
		Questions:          questions,
		VersionSubmissions: count,
	}, nil
}

// UpdateSettings mutates non-schema fields directly on the form row. Settings
// changes never fork a version.
func (s *Service) UpdateSettings(ctx context.Context, actor auth.Actor, formID int64, set store.Settings) error {
	if _, err := s.loadMutable(ctx, actor, formID); err != nil {
		return err
	}
	return s.store.UpdateFormSettings(ctx, formID, set)
}

func (s *Service) Delete(ctx context.Context, actor auth.Actor, formID int64) error {
	if _, err := s.loadMutable(ctx, actor, formID); err != nil {
		return err
	}
	log.Infof("deleting form %d", formID)
	return s.store.DeleteForm(ctx, formID)
}

// Duplicate creates a new form copying the source's active questions into a
// fresh version 1. The duplicate starts a new lineage: draft status, new
// public token, requesting actor as creator. Requires view access on the
// source.
func (s *Service) Duplicate(ctx context.Context, actor auth.Actor, formID int64, newTitle string) (FormDetail, error) {
	source, err := s.loadViewable(ctx, actor, formID)
	if err != nil {
		return FormDetail{}, err
	}
	activeVersion, err := s.store.ActiveVersion(ctx, source.ID)
	if err != nil {
		return FormDetail{}, err
	}
	questions, err := s.store.VersionQuestions(ctx, activeVersion.ID)
	if err != nil {
		return FormDetail{}, err
	}

	if newTitle == "" {
		newTitle = "Copy of " + source.Title
	}
	token, err := uuid.NewV4()
	if err != nil {
		return FormDetail{}, err
	}
	dup, version, err := s.store.CreateForm(ctx, model.Form{
		TenantID:         actor.TenantID,
		Title:            newTitle,
		Description:      source.Description,
		Status:           model.StatusDraft,
		AccessMode:       source.AccessMode,
		SingleSubmission: source.SingleSubmission,
		PublicToken:      token.String(),
		CreatedBy:        actor.UserID,
	})
	if err != nil {
		return FormDetail{}, err
	}

	copied := make([]model.Question, 0, len(questions))
	for i, q := range questions {
		clone := q
		clone.ID = 0
		clone.FormVersionID = version.ID
		clone.OrderIndex = i
		clone.Options = make([]model.QuestionOption, len(q.Options))
		for j, opt := range q.Options {
			clone.Options[j] = model.QuestionOption{
				Label:      opt.Label,
				Value:      opt.Value,
				OrderIndex: j,
			}
		}
		created, err := s.store.AddQuestion(ctx, clone)
		if err != nil {
			return FormDetail{}, err
		}
		copied = append(copied, created)
	}

	log.Infof("duplicated form %d as %d", formID, dup.ID)
	return FormDetail{Form: dup, Version: version, Questions: copied}, nil
}

// Submissions lists a form's recorded submissions for its authors.
func (s *Service) Submissions(ctx context.Context, actor auth.Actor, formID int64) ([]store.SubmissionRecord, error) {
	if _, err := s.loadViewable(ctx, actor, formID); err != nil {
		return nil, err
	}
	return s.store.ListSubmissions(ctx, formID)
}

// Submission fetches one recorded submission of the form. Submissions of
// other forms are reported as absent.
func (s *Service) Submission(ctx context.Context, actor auth.Actor, formID, submissionID int64) (store.SubmissionRecord, error) {
	if _, err := s.loadViewable(ctx, actor, formID); err != nil {
		return store.SubmissionRecord{}, err
	}
	return s.store.SubmissionByID(ctx, formID, submissionID)
}
