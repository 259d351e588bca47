// Package store defines the persistence contract for the form engine. Two
// implementations exist: store/sqlite (durable) and store/memory (ephemeral).
// They are selected by configuration and never mixed at runtime.
package store

import (
	"context"
	"time"

	"github.com/formmind/formmind/model"
)

// Settings is a partial update of a form's non-schema fields. Nil pointers
// leave the current value untouched. Settings changes never fork a version.
type Settings struct {
	Title            *string
	Description      *string
	Status           *model.FormStatus
	AccessMode       *model.AccessMode
	SingleSubmission *bool
	SubmissionStart  *time.Time
	SubmissionEnd    *time.Time
	ClearWindow      bool
}

// FormSummary is a form row plus its total submission count, as listed in the
// authoring UI.
type FormSummary struct {
	model.Form
	SubmissionCount int `json:"submission_count"`
}

// AnswerRecord pairs an answer with the question it responded to, resolved
// against the submission's bound version.
type AnswerRecord struct {
	QuestionID int64           `json:"question_id"`
	Label      string          `json:"label"`
	FieldType  model.FieldType `json:"field_type"`
	Value      model.Value     `json:"value"`
}

// SubmissionRecord is a submission with its answers and submitter identity.
type SubmissionRecord struct {
	model.Submission
	Submitter string         `json:"submitter"`
	Answers   []AnswerRecord `json:"answers"`
}

// TemplateFilter scopes template listing.
type TemplateFilter struct {
	TenantID   int64
	UserID     int64
	Visibility string // "private", "tenant" or "all"
}

// Store is the persistence boundary. Every mutating method executes as one
// atomic unit: either all of its writes land or none do. Methods return
// fault.ErrNotFound for absent rows and fault.ErrPersistenceUnavailable when
// the backing store cannot be reached.
type Store interface {
	// Users.
	UserByEmail(ctx context.Context, email string) (model.User, error)
	UserByID(ctx context.Context, id int64) (model.User, error)

	// Forms.
	CreateForm(ctx context.Context, form model.Form) (model.Form, model.FormVersion, error)
	FormByID(ctx context.Context, id int64) (model.Form, error)
	FormByToken(ctx context.Context, token string) (model.Form, error)
	// ListForms returns tenant forms; createdBy > 0 restricts to one creator.
	ListForms(ctx context.Context, tenantID, createdBy int64) ([]FormSummary, error)
	UpdateFormSettings(ctx context.Context, id int64, s Settings) error
	DeleteForm(ctx context.Context, id int64) error

	// Versions and questions.
	ActiveVersion(ctx context.Context, formID int64) (model.FormVersion, error)
	VersionQuestions(ctx context.Context, versionID int64) ([]model.Question, error)
	SubmissionCount(ctx context.Context, versionID int64) (int, error)
	// PrepareSchemaEdit resolves the version a schema edit must target.
	// In one atomic step it counts submissions bound to the active version,
	// forks when NeedsFork says so (copying every question and option in
	// order and deactivating the old version), and returns the target
	// version. The remap translates old question ids to their copies; it is
	// nil when no fork happened.
	PrepareSchemaEdit(ctx context.Context, formID int64) (model.FormVersion, map[int64]int64, error)
	AddQuestion(ctx context.Context, q model.Question) (model.Question, error)
	UpdateQuestion(ctx context.Context, q model.Question) error
	DeleteQuestion(ctx context.Context, versionID, questionID int64) error
	ReorderQuestions(ctx context.Context, versionID int64, orderedIDs []int64) error

	// Submissions. HasSubmission reports whether the identity (user id for
	// authenticated respondents, guest token otherwise) already submitted.
	// CreateSubmission additionally enforces the single-submission rule
	// inside the same transaction as the insert when single is true.
	HasSubmission(ctx context.Context, formID, userID int64, guestToken string) (bool, error)
	CreateSubmission(ctx context.Context, sub model.Submission, answers []model.Answer, single bool) (model.Submission, error)
	ListSubmissions(ctx context.Context, formID int64) ([]SubmissionRecord, error)
	// SubmissionByID resolves one submission of the given form; ids of other
	// forms' submissions report fault.ErrNotFound.
	SubmissionByID(ctx context.Context, formID, submissionID int64) (SubmissionRecord, error)

	// Templates.
	CreateTemplate(ctx context.Context, t model.Template) (model.Template, error)
	TemplateByID(ctx context.Context, id int64) (model.Template, error)
	ListTemplates(ctx context.Context, f TemplateFilter) ([]model.Template, error)

	// Refresh tokens. ConsumeRefreshToken removes the matching row and
	// returns its expiration, or fault.ErrNotFound when no row matches.
	StoreRefreshToken(ctx context.Context, credential, tokenID, refreshTokenID string, expiration time.Time) error
	ConsumeRefreshToken(ctx context.Context, credential, tokenID, refreshTokenID string) (time.Time, error)

	Close() error
}

// NeedsFork is the copy-on-write rule: a published form with submissions
// already bound to its active version must never have that version mutated.
// With zero submissions there is no history to protect and edits apply in
// place regardless of status.
func NeedsFork(status model.FormStatus, submissions int) bool {
	return status == model.StatusPublished && submissions > 0
}
