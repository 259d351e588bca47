package model

import "time"

// Role of a user within its tenant.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
)

// FormStatus is the lifecycle state of a form.
type FormStatus string

const (
	StatusDraft       FormStatus = "draft"
	StatusPublished   FormStatus = "published"
	StatusUnpublished FormStatus = "unpublished"
)

// AccessMode controls who may fill out a form.
type AccessMode string

const (
	AccessPublic        AccessMode = "public"
	AccessAuthenticated AccessMode = "authenticated"
)

// Visibility scopes who can see a template.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityTenant  Visibility = "tenant"
	VisibilityPublic  Visibility = "public"
)

type Tenant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID           int64     `json:"id"`
	TenantID     int64     `json:"tenant_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Form is the mutable wrapper around a lineage of versions. The public token
// identifies the form to anonymous respondents and survives forking.
type Form struct {
	ID               int64      `json:"id"`
	TenantID         int64      `json:"tenant_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Status           FormStatus `json:"status"`
	AccessMode       AccessMode `json:"access_mode"`
	SingleSubmission bool       `json:"single_submission"`
	SubmissionStart  *time.Time `json:"submission_start,omitempty"`
	SubmissionEnd    *time.Time `json:"submission_end,omitempty"`
	PublicToken      string     `json:"public_token"`
	CreatedBy        int64      `json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
}

// FormVersion is a snapshot container for a form's questions. Exactly one
// version per form is active; versions that have been superseded are frozen.
type FormVersion struct {
	ID            int64     `json:"id"`
	FormID        int64     `json:"form_id"`
	VersionNumber int       `json:"version_number"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

type Question struct {
	ID            int64            `json:"id"`
	FormVersionID int64            `json:"form_version_id"`
	Label         string           `json:"label"`
	Placeholder   string           `json:"placeholder,omitempty"`
	HelpText      string           `json:"help_text,omitempty"`
	FieldType     FieldType        `json:"field_type"`
	Required      bool             `json:"required"`
	OrderIndex    int              `json:"order_index"`
	Min           *float64         `json:"validation_min,omitempty"`
	Max           *float64         `json:"validation_max,omitempty"`
	Pattern       string           `json:"validation_pattern,omitempty"`
	Options       []QuestionOption `json:"options,omitempty"`
}

type QuestionOption struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	Label      string `json:"label"`
	Value      string `json:"value"`
	OrderIndex int    `json:"order_index"`
}

// Submission is bound to the version that was active at the moment it was
// recorded. The binding never changes, even after later forks.
type Submission struct {
	ID               int64     `json:"id"`
	FormID           int64     `json:"form_id"`
	FormVersionID    int64     `json:"form_version_id"`
	UserID           int64     `json:"user_id,omitempty"`
	GuestToken       string    `json:"guest_token,omitempty"`
	SubmittedAt      time.Time `json:"submitted_at"`
	CompletionTimeMS int64     `json:"completion_time_ms,omitempty"`
}

type Answer struct {
	ID           int64 `json:"id"`
	SubmissionID int64 `json:"submission_id"`
	QuestionID   int64 `json:"question_id"`
	Value        Value `json:"value"`
}

// Template is a named snapshot of a form's question structure, independent of
// any live form/version lineage.
type Template struct {
	ID         int64          `json:"id"`
	TenantID   int64          `json:"tenant_id"`
	Name       string         `json:"name"`
	Category   string         `json:"category"`
	Visibility Visibility     `json:"visibility"`
	Schema     TemplateSchema `json:"schema"`
	CreatedBy  int64          `json:"created_by"`
	CreatedAt  time.Time      `json:"created_at"`
}

// TemplateSchema is the stored question structure of a template. It carries
// no row ids: instantiating mints fresh questions and options.
type TemplateSchema struct {
	Questions []TemplateQuestion `json:"questions"`
}

type TemplateQuestion struct {
	Label       string           `json:"label"`
	Placeholder string           `json:"placeholder,omitempty"`
	HelpText    string           `json:"help_text,omitempty"`
	FieldType   FieldType        `json:"field_type"`
	Required    bool             `json:"required"`
	Min         *float64         `json:"validation_min,omitempty"`
	Max         *float64         `json:"validation_max,omitempty"`
	Pattern     string           `json:"validation_pattern,omitempty"`
	Options     []TemplateOption `json:"options,omitempty"`
}

type TemplateOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}
