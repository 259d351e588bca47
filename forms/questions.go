package forms

import (
	"context"

	"github.com/formmind/formmind/auth"
	"github.com/formmind/formmind/fault"
	"github.com/formmind/formmind/log"
	"github.com/formmind/formmind/model"
)

// QuestionInput is a question definition as authored. Order is assigned by
// the service: new questions append, existing ones keep their slot.
type QuestionInput struct {
	Label       string
	Placeholder string
	HelpText    string
	FieldType   model.FieldType
	Required    bool
	Min         *float64
	Max         *float64
	Pattern     string
	Options     []OptionInput
}

type OptionInput struct {
	Label string
	Value string
}

func (in QuestionInput) options() []model.QuestionOption {
	if !in.FieldType.IsChoice() {
		return nil
	}
	out := make([]model.QuestionOption, len(in.Options))
	for i, opt := range in.Options {
		value := opt.Value
		if value == "" {
			value = opt.Label
		}
		out[i] = model.QuestionOption{Label: opt.Label, Value: value, OrderIndex: i}
	}
	return out
}

// editableVersion runs the fork decision for a schema edit on the given form
// and returns the version the edit must target plus the question id remap
// produced by a fork (nil when the edit applies in place).
func (s *Service) editableVersion(ctx context.Context, actor auth.Actor, formID int64) (model.FormVersion, map[int64]int64, error) {
	if _, err := s.loadMutable(ctx, actor, formID); err != nil {
		return model.FormVersion{}, nil, err
	}
	version, remap, err := s.store.PrepareSchemaEdit(ctx, formID)
	if err != nil {
		return model.FormVersion{}, nil, err
	}
	if remap != nil {
		log.Infof("forked form %d to version %d before edit", formID, version.VersionNumber)
	}
	return version, remap, nil
}

// AddQuestion appends a question to the form's schema, forking first when the
// active version already has submissions on a published form.
func (s *Service) AddQuestion(ctx context.Context, actor auth.Actor, formID int64, in QuestionInput) (model.Question, error) {
	version, _, err := s.editableVersion(ctx, actor, formID)
	if err != nil {
		return model.Question{}, err
	}
	existing, err := s.store.VersionQuestions(ctx, version.ID)
	if err != nil {
		return model.Question{}, err
	}
	return s.store.AddQuestion(ctx, model.Question{
		FormVersionID: version.ID,
		Label:         in.Label,
		Placeholder:   in.Placeholder,
		HelpText:      in.HelpText,
		FieldType:     in.FieldType,
		Required:      in.Required,
		OrderIndex:    len(existing),
		Min:           in.Min,
		Max:           in.Max,
		Pattern:       in.Pattern,
		Options:       in.options(),
	})
}

// UpdateQuestion edits an existing question. After a fork the question id
// refers to the frozen copy, so it is remapped onto the forked version's row.
func (s *Service) UpdateQuestion(ctx context.Context, actor auth.Actor, formID, questionID int64, in QuestionInput) (model.Question, error) {
	version, remap, err := s.editableVersion(ctx, actor, formID)
	if err != nil {
		return model.Question{}, err
	}
	if remap != nil {
		mapped, ok := remap[questionID]
		if !ok {
			return model.Question{}, fault.ErrNotFound
		}
		questionID = mapped
	}

	// the edit keeps the question's slot; resolve it so the result reports
	// the real order
	existing, err := s.store.VersionQuestions(ctx, version.ID)
	if err != nil {
		return model.Question{}, err
	}
	orderIndex := -1
	for _, prev := range existing {
		if prev.ID == questionID {
			orderIndex = prev.OrderIndex
			break
		}
	}
	if orderIndex < 0 {
		return model.Question{}, fault.ErrNotFound
	}

	q := model.Question{
		ID:            questionID,
		FormVersionID: version.ID,
		Label:         in.Label,
		Placeholder:   in.Placeholder,
		HelpText:      in.HelpText,
		FieldType:     in.FieldType,
		Required:      in.Required,
		OrderIndex:    orderIndex,
		Min:           in.Min,
		Max:           in.Max,
		Pattern:       in.Pattern,
		Options:       in.options(),
	}
	if err := s.store.UpdateQuestion(ctx, q); err != nil {
		return model.Question{}, err
	}
	return q, nil
}

func (s *Service) DeleteQuestion(ctx context.Context, actor auth.Actor, formID, questionID int64) error {
	version, remap, err := s.editableVersion(ctx, actor, formID)
	if err != nil {
		return err
	}
	if remap != nil {
		mapped, ok := remap[questionID]
		if !ok {
			return fault.ErrNotFound
		}
		questionID = mapped
	}
	return s.store.DeleteQuestion(ctx, version.ID, questionID)
}

// ReorderQuestions rewrites the order of the form's questions. orderedIDs
// must name every question of the edited version exactly once.
func (s *Service) ReorderQuestions(ctx context.Context, actor auth.Actor, formID int64, orderedIDs []int64) error {
	version, remap, err := s.editableVersion(ctx, actor, formID)
	if err != nil {
		return err
	}
	if remap != nil {
		mapped := make([]int64, len(orderedIDs))
		for i, id := range orderedIDs {
			m, ok := remap[id]
			if !ok {
				return fault.ErrNotFound
			}
			mapped[i] = m
		}
		orderedIDs = mapped
	}
	return s.store.ReorderQuestions(ctx, version.ID, orderedIDs)
}
