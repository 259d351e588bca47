package routes

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/formmind/formmind/forms"
	"github.com/formmind/formmind/model"
	"github.com/formmind/formmind/store"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeBody parses the JSON request body into dto and checks its validation
// tags. Both failure modes are the client's fault and map to a 400.
func decodeBody(r *http.Request, dto any) error {
	if err := render.DecodeJSON(r.Body, dto); err != nil {
		return errors.WithMessage(err, "malformed request body")
	}
	if err := validate.Struct(dto); err != nil {
		return errors.WithMessage(err, "invalid request body")
	}
	return nil
}

func urlID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid %s", name)
	}
	return id, nil
}

type createFormRequest struct {
	Title            string `json:"title" validate:"required,max=200"`
	Description      string `json:"description"`
	AccessMode       string `json:"access_mode" validate:"omitempty,oneof=public authenticated"`
	SingleSubmission bool   `json:"single_submission"`
}

func (req createFormRequest) toService() forms.CreateFormRequest {
	return forms.CreateFormRequest{
		Title:            req.Title,
		Description:      req.Description,
		AccessMode:       model.AccessMode(req.AccessMode),
		SingleSubmission: req.SingleSubmission,
	}
}

// formSettingsRequest is a partial update: absent fields keep their value.
// Setting "submission_window": null clears both bounds.
type formSettingsRequest struct {
	Title            *string               `json:"title" validate:"omitempty,max=200"`
	Description      *string               `json:"description"`
	Status           *string               `json:"status" validate:"omitempty,oneof=draft published unpublished"`
	AccessMode       *string               `json:"access_mode" validate:"omitempty,oneof=public authenticated"`
	SingleSubmission *bool                 `json:"single_submission"`
	SubmissionWindow *submissionWindowBody `json:"submission_window"`

	// distinguishes "submission_window": null from an absent key
	windowSet bool
}

type submissionWindowBody struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

func (req *formSettingsRequest) UnmarshalJSON(data []byte) error {
	type plain formSettingsRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*req = formSettingsRequest(p)

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	_, req.windowSet = keys["submission_window"]
	return nil
}

func (req formSettingsRequest) toSettings() store.Settings {
	set := store.Settings{
		Title:            req.Title,
		Description:      req.Description,
		SingleSubmission: req.SingleSubmission,
	}
	if req.Status != nil {
		status := model.FormStatus(*req.Status)
		set.Status = &status
	}
	if req.AccessMode != nil {
		mode := model.AccessMode(*req.AccessMode)
		set.AccessMode = &mode
	}
	if req.windowSet {
		set.ClearWindow = true
		if req.SubmissionWindow != nil {
			set.SubmissionStart = req.SubmissionWindow.Start
			set.SubmissionEnd = req.SubmissionWindow.End
		}
	}
	return set
}

type duplicateFormRequest struct {
	Title string `json:"title" validate:"omitempty,max=200"`
}

type questionRequest struct {
	Label       string          `json:"label" validate:"required,max=500"`
	Placeholder string          `json:"placeholder"`
	HelpText    string          `json:"help_text"`
	FieldType   string          `json:"field_type" validate:"required"`
	Required    bool            `json:"required"`
	Min         *float64        `json:"min"`
	Max         *float64        `json:"max"`
	Pattern     string          `json:"pattern"`
	Options     []optionRequest `json:"options" validate:"dive"`
}

type optionRequest struct {
	Label string `json:"label" validate:"required"`
	Value string `json:"value"`
}

func (req questionRequest) toInput() (forms.QuestionInput, error) {
	fieldType := model.FieldType(req.FieldType)
	if !fieldType.Valid() {
		return forms.QuestionInput{}, errors.Errorf("unknown field type %q", req.FieldType)
	}
	if fieldType.IsChoice() && len(req.Options) == 0 {
		return forms.QuestionInput{}, errors.Errorf("%s questions need options", req.FieldType)
	}
	in := forms.QuestionInput{
		Label:       req.Label,
		Placeholder: req.Placeholder,
		HelpText:    req.HelpText,
		FieldType:   fieldType,
		Required:    req.Required,
		Min:         req.Min,
		Max:         req.Max,
		Pattern:     req.Pattern,
	}
	for _, opt := range req.Options {
		in.Options = append(in.Options, forms.OptionInput{Label: opt.Label, Value: opt.Value})
	}
	return in, nil
}

type reorderRequest struct {
	QuestionIDs []int64 `json:"question_ids" validate:"required,min=1,dive,gt=0"`
}

type submitRequest struct {
	Answers          map[string]any `json:"answers"`
	CompletionTimeMS int64          `json:"completion_time_ms" validate:"gte=0"`
}

// answersByID converts the JSON object's string keys to question ids.
func (req submitRequest) answersByID() (map[int64]any, error) {
	out := make(map[int64]any, len(req.Answers))
	for key, value := range req.Answers {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || id <= 0 {
			return nil, errors.Errorf("invalid question id %q", key)
		}
		out[id] = value
	}
	return out, nil
}

type saveTemplateRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Category   string `json:"category" validate:"omitempty,max=100"`
	Visibility string `json:"visibility" validate:"omitempty,oneof=private tenant public"`
}

type instantiateTemplateRequest struct {
	Title string `json:"title" validate:"omitempty,max=200"`
}
