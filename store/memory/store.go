// Package memory provides the in-memory store implementation, used for tests
// and as the explicitly configured degraded mode when no durable store is
// available. It is never mixed with the durable store at runtime.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/formmind/formmind/fault"
	"github.com/formmind/formmind/model"
	"github.com/formmind/formmind/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu  sync.RWMutex
	seq int64

	users       map[int64]model.User
	forms       map[int64]model.Form
	versions    map[int64]model.FormVersion
	questions   map[int64]model.Question
	submissions map[int64]model.Submission
	answers     map[int64][]model.Answer // keyed by submission id
	templates   map[int64]model.Template
	tokens      map[string]time.Time // keyed by credential|token|refresh
}

func New() *Store {
	return &Store{
		users:       make(map[int64]model.User),
		forms:       make(map[int64]model.Form),
		versions:    make(map[int64]model.FormVersion),
		questions:   make(map[int64]model.Question),
		submissions: make(map[int64]model.Submission),
		answers:     make(map[int64][]model.Answer),
		templates:   make(map[int64]model.Template),
		tokens:      make(map[string]time.Time),
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// SeedUser registers a user. Memory mode has no provisioning migrations, so
// the caller seeds the principals it needs.
func (s *Store) SeedUser(u model.User) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.nextID()
	} else if u.ID > s.seq {
		s.seq = u.ID
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	s.users[u.ID] = u
	return u
}

func (s *Store) UserByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, fault.ErrNotFound
}

func (s *Store) UserByID(_ context.Context, id int64) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, fault.ErrNotFound
	}
	return u, nil
}

func (s *Store) CreateForm(_ context.Context, form model.Form) (model.Form, model.FormVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	form.ID = s.nextID()
	if form.CreatedAt.IsZero() {
		form.CreatedAt = time.Now()
	}
	s.forms[form.ID] = form

	version := model.FormVersion{
		ID:            s.nextID(),
		FormID:        form.ID,
		VersionNumber: 1,
		IsActive:      true,
		CreatedAt:     form.CreatedAt,
	}
	s.versions[version.ID] = version
	return form, version, nil
}

func (s *Store) FormByID(_ context.Context, id int64) (model.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.forms[id]
	if !ok {
		return model.Form{}, fault.ErrNotFound
	}
	return f, nil
}

func (s *Store) FormByToken(_ context.Context, token string) (model.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.forms {
		if f.PublicToken == token {
			return f, nil
		}
	}
	return model.Form{}, fault.ErrNotFound
}

func (s *Store) ListForms(_ context.Context, tenantID, createdBy int64) ([]store.FormSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.FormSummary
	for _, f := range s.forms {
		if f.TenantID != tenantID {
			continue
		}
		if createdBy > 0 && f.CreatedBy != createdBy {
			continue
		}
		count := 0
		for _, sub := range s.submissions {
			if sub.FormID == f.ID {
				count++
			}
		}
		out = append(out, store.FormSummary{Form: f, SubmissionCount: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateFormSettings(_ context.Context, id int64, set store.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.forms[id]
	if !ok {
		return fault.ErrNotFound
	}
	if set.Title != nil {
		f.Title = *set.Title
	}
	if set.Description != nil {
		f.Description = *set.Description
	}
	if set.Status != nil {
		f.Status = *set.Status
	}
	if set.AccessMode != nil {
		f.AccessMode = *set.AccessMode
	}
	if set.SingleSubmission != nil {
		f.SingleSubmission = *set.SingleSubmission
	}
	if set.ClearWindow {
		f.SubmissionStart, f.SubmissionEnd = nil, nil
	}
	if set.SubmissionStart != nil {
		t := *set.SubmissionStart
		f.SubmissionStart = &t
	}
	if set.SubmissionEnd != nil {
		t := *set.SubmissionEnd
		f.SubmissionEnd = &t
	}
	s.forms[id] = f
	return nil
}

func (s *Store) DeleteForm(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.forms[id]; !ok {
		return fault.ErrNotFound
	}
	delete(s.forms, id)
	for vid, v := range s.versions {
		if v.FormID != id {
			continue
		}
		delete(s.versions, vid)
		for qid, q := range s.questions {
			if q.FormVersionID == vid {
				delete(s.questions, qid)
			}
		}
	}
	for sid, sub := range s.submissions {
		if sub.FormID == id {
			delete(s.submissions, sid)
			delete(s.answers, sid)
		}
	}
	return nil
}

func (s *Store) ActiveVersion(_ context.Context, formID int64) (model.FormVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeVersionLocked(formID)
}

func (s *Store) activeVersionLocked(formID int64) (model.FormVersion, error) {
	for _, v := range s.versions {
		if v.FormID == formID && v.IsActive {
			return v, nil
		}
	}
	return model.FormVersion{}, fault.ErrNotFound
}

func (s *Store) VersionQuestions(_ context.Context, versionID int64) ([]model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.versions[versionID]; !ok {
		return nil, fault.ErrNotFound
	}
	return s.versionQuestionsLocked(versionID), nil
}

func (s *Store) versionQuestionsLocked(versionID int64) []model.Question {
	var out []model.Question
	for _, q := range s.questions {
		if q.FormVersionID == versionID {
			out = append(out, cloneQuestion(q))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) SubmissionCount(_ context.Context, versionID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, sub := range s.submissions {
		if sub.FormVersionID == versionID {
			count++
		}
	}
	return count, nil
}

func (s *Store) PrepareSchemaEdit(_ context.Context, formID int64) (model.FormVersion, map[int64]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	form, ok := s.forms[formID]
	if !ok {
		return model.FormVersion{}, nil, fault.ErrNotFound
	}
	active, err := s.activeVersionLocked(formID)
	if err != nil {
		return model.FormVersion{}, nil, err
	}

	count := 0
	for _, sub := range s.submissions {
		if sub.FormVersionID == active.ID {
			count++
		}
	}
	if !store.NeedsFork(form.Status, count) {
		return active, nil, nil
	}

	next := 0
	for _, v := range s.versions {
		if v.FormID == formID && v.VersionNumber > next {
			next = v.VersionNumber
		}
	}
	forked := model.FormVersion{
		ID:            s.nextID(),
		FormID:        formID,
		VersionNumber: next + 1,
		IsActive:      true,
		CreatedAt:     time.Now(),
	}
	s.versions[forked.ID] = forked

	active.IsActive = false
	s.versions[active.ID] = active

	remap := make(map[int64]int64)
	for _, q := range s.versionQuestionsLocked(active.ID) {
		copied := cloneQuestion(q)
		copied.ID = s.nextID()
		copied.FormVersionID = forked.ID
		for i := range copied.Options {
			copied.Options[i].ID = s.nextID()
			copied.Options[i].QuestionID = copied.ID
		}
		s.questions[copied.ID] = copied
		remap[q.ID] = copied.ID
	}
	return forked, remap, nil
}

func (s *Store) AddQuestion(_ context.Context, q model.Question) (model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.versions[q.FormVersionID]
	if !ok {
		return model.Question{}, fault.ErrNotFound
	}
	if !v.IsActive {
		return model.Question{}, fault.ErrConflict
	}

	q = cloneQuestion(q)
	q.ID = s.nextID()
	for i := range q.Options {
		q.Options[i].ID = s.nextID()
		q.Options[i].QuestionID = q.ID
		q.Options[i].OrderIndex = i
	}
	s.questions[q.ID] = q
	return cloneQuestion(q), nil
}

func (s *Store) UpdateQuestion(_ context.Context, q model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.questions[q.ID]
	if !ok || current.FormVersionID != q.FormVersionID {
		return fault.ErrNotFound
	}
	if v, ok := s.versions[q.FormVersionID]; !ok || !v.IsActive {
		return fault.ErrConflict
	}

	q = cloneQuestion(q)
	q.OrderIndex = current.OrderIndex
	for i := range q.Options {
		q.Options[i].ID = s.nextID()
		q.Options[i].QuestionID = q.ID
		q.Options[i].OrderIndex = i
	}
	s.questions[q.ID] = q
	return nil
}

func (s *Store) DeleteQuestion(_ context.Context, versionID, questionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[questionID]
	if !ok || q.FormVersionID != versionID {
		return fault.ErrNotFound
	}
	if v, ok := s.versions[versionID]; !ok || !v.IsActive {
		return fault.ErrConflict
	}
	delete(s.questions, questionID)
	return nil
}

func (s *Store) ReorderQuestions(_ context.Context, versionID int64, orderedIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.versions[versionID]; !ok || !v.IsActive {
		return fault.ErrConflict
	}
	current := s.versionQuestionsLocked(versionID)
	if len(current) != len(orderedIDs) {
		return fault.ErrNotFound
	}
	known := make(map[int64]bool, len(current))
	for _, q := range current {
		known[q.ID] = true
	}
	for _, id := range orderedIDs {
		if !known[id] {
			return fault.ErrNotFound
		}
	}
	for i, id := range orderedIDs {
		q := s.questions[id]
		q.OrderIndex = i
		s.questions[id] = q
	}
	return nil
}

func (s *Store) HasSubmission(_ context.Context, formID, userID int64, guestToken string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, prev := range s.submissions {
		if prev.FormID != formID {
			continue
		}
		if userID != 0 && prev.UserID == userID {
			return true, nil
		}
		if userID == 0 && guestToken != "" && prev.GuestToken == guestToken {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CreateSubmission(_ context.Context, sub model.Submission, answers []model.Answer, single bool) (model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.forms[sub.FormID]; !ok {
		return model.Submission{}, fault.ErrNotFound
	}
	if single {
		for _, prev := range s.submissions {
			if prev.FormID != sub.FormID {
				continue
			}
			if sub.UserID != 0 && prev.UserID == sub.UserID {
				return model.Submission{}, fault.ErrDuplicateSubmission
			}
			if sub.UserID == 0 && sub.GuestToken != "" && prev.GuestToken == sub.GuestToken {
				return model.Submission{}, fault.ErrDuplicateSubmission
			}
		}
	}

	sub.ID = s.nextID()
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now()
	}
	s.submissions[sub.ID] = sub

	stored := make([]model.Answer, 0, len(answers))
	for _, a := range answers {
		a.ID = s.nextID()
		a.SubmissionID = sub.ID
		stored = append(stored, a)
	}
	s.answers[sub.ID] = stored
	return sub, nil
}

func (s *Store) ListSubmissions(_ context.Context, formID int64) ([]store.SubmissionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.forms[formID]; !ok {
		return nil, fault.ErrNotFound
	}

	var out []store.SubmissionRecord
	for _, sub := range s.submissions {
		if sub.FormID != formID {
			continue
		}
		out = append(out, s.recordLocked(sub))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) SubmissionByID(_ context.Context, formID, submissionID int64) (store.SubmissionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.submissions[submissionID]
	if !ok || sub.FormID != formID {
		return store.SubmissionRecord{}, fault.ErrNotFound
	}
	return s.recordLocked(sub), nil
}

func (s *Store) recordLocked(sub model.Submission) store.SubmissionRecord {
	rec := store.SubmissionRecord{Submission: sub, Submitter: "anonymous"}
	if sub.UserID != 0 {
		if u, ok := s.users[sub.UserID]; ok {
			rec.Submitter = u.Email
		}
	} else if sub.GuestToken != "" {
		rec.Submitter = sub.GuestToken
	}
	for _, a := range s.answers[sub.ID] {
		q, ok := s.questions[a.QuestionID]
		if !ok {
			continue
		}
		rec.Answers = append(rec.Answers, store.AnswerRecord{
			QuestionID: q.ID,
			Label:      q.Label,
			FieldType:  q.FieldType,
			Value:      a.Value,
		})
	}
	sort.Slice(rec.Answers, func(i, j int) bool {
		return s.questions[rec.Answers[i].QuestionID].OrderIndex <
			s.questions[rec.Answers[j].QuestionID].OrderIndex
	})
	return rec
}

func (s *Store) CreateTemplate(_ context.Context, t model.Template) (model.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextID()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	s.templates[t.ID] = t
	return t, nil
}

func (s *Store) TemplateByID(_ context.Context, id int64) (model.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return model.Template{}, fault.ErrNotFound
	}
	return t, nil
}

func (s *Store) ListTemplates(_ context.Context, f store.TemplateFilter) ([]model.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Template
	for _, t := range s.templates {
		if !templateVisible(t, f) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func templateVisible(t model.Template, f store.TemplateFilter) bool {
	switch f.Visibility {
	case "private":
		return t.CreatedBy == f.UserID && t.Visibility == model.VisibilityPrivate
	case "tenant":
		return t.TenantID == f.TenantID &&
			(t.Visibility == model.VisibilityPrivate || t.Visibility == model.VisibilityTenant)
	default:
		return t.Visibility == model.VisibilityPublic ||
			(t.TenantID == f.TenantID && t.Visibility == model.VisibilityTenant) ||
			(t.CreatedBy == f.UserID && t.Visibility == model.VisibilityPrivate)
	}
}

func (s *Store) StoreRefreshToken(_ context.Context, credential, tokenID, refreshTokenID string, expiration time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[credential+"|"+tokenID+"|"+refreshTokenID] = expiration
	return nil
}

func (s *Store) ConsumeRefreshToken(_ context.Context, credential, tokenID, refreshTokenID string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := credential + "|" + tokenID + "|" + refreshTokenID
	expiration, ok := s.tokens[key]
	if !ok {
		return time.Time{}, fault.ErrNotFound
	}
	delete(s.tokens, key)
	return expiration, nil
}

func (s *Store) Close() error { return nil }

func cloneQuestion(q model.Question) model.Question {
	out := q
	out.Options = make([]model.QuestionOption, len(q.Options))
	copy(out.Options, q.Options)
	return out
}
