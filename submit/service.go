// Package submit validates respondent answer sets against the form's active
// version and records them. The version binding is frozen at write time:
// later forks never touch a recorded submission.
package submit

import (
	"context"
	"time"

	"github.com/formmind/formmind/fault"
	"github.com/formmind/formmind/log"
	"github.com/formmind/formmind/model"
	"github.com/formmind/formmind/store"
)

type Service struct {
	store store.Store
	now   func() time.Time
}

func NewService(st store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

// Identity is the respondent: an authenticated user id, or a guest token
// (currently the client IP) for anonymous submissions.
type Identity struct {
	UserID     int64
	GuestToken string
}

// Request is one answer set for a form. Answers are keyed by question id;
// values arrive as decoded JSON (string, number, bool or list).
type Request struct {
	FormID           int64
	Answers          map[int64]any
	CompletionTimeMS int64
}

// PublicForm is the respondent-facing view of a published form.
type PublicForm struct {
	ID               int64            `json:"id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	AccessMode       model.AccessMode `json:"access_mode"`
	SingleSubmission bool             `json:"single_submission"`
	SubmissionStart  *time.Time       `json:"submission_start,omitempty"`
	SubmissionEnd    *time.Time       `json:"submission_end,omitempty"`
	VersionNumber    int              `json:"version_number"`
	Questions        []model.Question `json:"questions"`
}

// ResolveToken maps a public token to the published form it identifies,
// including the active version's questions. Unpublished forms stay hidden.
func (s *Service) ResolveToken(ctx context.Context, token string) (PublicForm, error) {
	form, err := s.store.FormByToken(ctx, token)
	if err != nil {
		return PublicForm{}, err
	}
	if form.Status != model.StatusPublished {
		return PublicForm{}, fault.ErrNotFound
	}
	version, err := s.store.ActiveVersion(ctx, form.ID)
	if err != nil {
		return PublicForm{}, err
	}
	questions, err := s.store.VersionQuestions(ctx, version.ID)
	if err != nil {
		return PublicForm{}, err
	}
	return PublicForm{
		ID:               form.ID,
		Title:            form.Title,
		Description:      form.Description,
		AccessMode:       form.AccessMode,
		SingleSubmission: form.SingleSubmission,
		SubmissionStart:  form.SubmissionStart,
		SubmissionEnd:    form.SubmissionEnd,
		VersionNumber:    version.VersionNumber,
		Questions:        questions,
	}, nil
}

// Submit runs the full eligibility and validation pipeline, then records the
// submission and its answers atomically, bound to the active version.
func (s *Service) Submit(ctx context.Context, req Request, identity Identity) (model.Submission, error) {
	form, err := s.store.FormByID(ctx, req.FormID)
	if err != nil {
		return model.Submission{}, err
	}
	if form.Status != model.StatusPublished {
		return model.Submission{}, fault.ErrNotAcceptingSubmissions
	}
	if form.AccessMode == model.AccessAuthenticated && identity.UserID == 0 {
		return model.Submission{}, fault.ErrAccessDenied
	}

	now := s.now()
	if form.SubmissionStart != nil && now.Before(*form.SubmissionStart) {
		return model.Submission{}, fault.ErrSubmissionWindowClosed
	}
	if form.SubmissionEnd != nil && now.After(*form.SubmissionEnd) {
		return model.Submission{}, fault.ErrSubmissionWindowClosed
	}

	if form.SingleSubmission {
		dup, err := s.store.HasSubmission(ctx, form.ID, identity.UserID, identity.GuestToken)
		if err != nil {
			return model.Submission{}, err
		}
		if dup {
			return model.Submission{}, fault.ErrDuplicateSubmission
		}
	}

	version, err := s.store.ActiveVersion(ctx, form.ID)
	if err != nil {
		return model.Submission{}, err
	}
	questions, err := s.store.VersionQuestions(ctx, version.ID)
	if err != nil {
		return model.Submission{}, err
	}

	answers, errs := validateAnswers(questions, req.Answers)
	if len(errs) > 0 {
		return model.Submission{}, fault.Validation(errs)
	}

	// The duplicate check above is advisory; the store repeats it inside
	// the insert transaction so racing submissions cannot both land.
	sub, err := s.store.CreateSubmission(ctx, model.Submission{
		FormID:           form.ID,
		FormVersionID:    version.ID,
		UserID:           identity.UserID,
		GuestToken:       identity.GuestToken,
		SubmittedAt:      now,
		CompletionTimeMS: req.CompletionTimeMS,
	}, answers, form.SingleSubmission)
	if err != nil {
		return model.Submission{}, err
	}
	log.Infof("recorded submission %d for form %d (version %d)", sub.ID, form.ID, version.VersionNumber)
	return sub, nil
}
