package submit

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/formmind/formmind/log"
	"github.com/formmind/formmind/model"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// validateAnswers checks every question before returning: the error list is
// the complete batch of problems, never just the first one found. On success
// it returns one typed answer per non-empty response.
func validateAnswers(questions []model.Question, raw map[int64]any) ([]model.Answer, []string) {
	var merr *multierror.Error
	var answers []model.Answer

	for _, q := range questions {
		value, present := raw[q.ID]
		if isBlank(value) {
			present = false
		}
		if !present {
			if q.Required {
				merr = multierror.Append(merr, fmt.Errorf("Question '%s' is required", q.Label))
			}
			continue
		}

		typed, errs := parseValue(q, value)
		if len(errs) > 0 {
			for _, e := range errs {
				merr = multierror.Append(merr, e)
			}
			continue
		}
		answers = append(answers, model.Answer{QuestionID: q.ID, Value: typed})
	}

	if merr != nil {
		msgs := make([]string, len(merr.Errors))
		for i, e := range merr.Errors {
			msgs[i] = e.Error()
		}
		return nil, msgs
	}
	return answers, nil
}

func isBlank(v any) bool {
	switch value := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(value) == ""
	case []any:
		return len(value) == 0
	case []string:
		return len(value) == 0
	}
	return false
}

// parseValue converts one raw answer into its typed variant, applying the
// question's type-specific constraints.
func parseValue(q model.Question, raw any) (model.Value, []error) {
	switch {
	case q.FieldType.IsText():
		return parseText(q, raw)
	case q.FieldType == model.FieldInteger || q.FieldType == model.FieldRating:
		return parseInteger(q, raw)
	case q.FieldType == model.FieldDecimal:
		return parseDecimal(q, raw)
	case q.FieldType == model.FieldDate:
		return parseTemporal(q, raw, dateLayout, model.DateValue, "a date (YYYY-MM-DD)")
	case q.FieldType == model.FieldTime:
		return parseTemporal(q, raw, timeLayout, model.TimeValue, "a time (HH:MM)")
	case q.FieldType == model.FieldBoolean:
		return parseBoolean(q, raw)
	case q.FieldType == model.FieldMultiChoice:
		return parseMultiChoice(q, raw)
	case q.FieldType.IsChoice():
		return parseSingleChoice(q, raw)
	}
	return model.Value{}, []error{fmt.Errorf("'%s' has an unsupported field type", q.Label)}
}

func parseText(q model.Question, raw any) (model.Value, []error) {
	s, ok := raw.(string)
	if !ok {
		return model.Value{}, []error{fmt.Errorf("'%s' must be text", q.Label)}
	}

	var errs []error
	length := float64(len([]rune(s)))
	if q.Min != nil && length < *q.Min {
		errs = append(errs, fmt.Errorf("'%s' must be at least %v characters", q.Label, formatBound(*q.Min)))
	}
	if q.Max != nil && length > *q.Max {
		errs = append(errs, fmt.Errorf("'%s' must be at most %v characters", q.Label, formatBound(*q.Max)))
	}
	if q.Pattern != "" {
		re, err := regexp.Compile(q.Pattern)
		if err != nil {
			// authoring mistake, not the respondent's problem
			log.Warnf("question %d has invalid pattern %q: %s", q.ID, q.Pattern, err)
		} else if !re.MatchString(s) {
			errs = append(errs, fmt.Errorf("'%s' does not match the expected format", q.Label))
		}
	}
	if errs != nil {
		return model.Value{}, errs
	}
	return model.TextValue(s), nil
}

func parseInteger(q model.Question, raw any) (model.Value, []error) {
	var n float64
	switch value := raw.(type) {
	case float64:
		n = value
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return model.Value{}, []error{fmt.Errorf("'%s' must be a whole number", q.Label)}
		}
		n = parsed
	default:
		return model.Value{}, []error{fmt.Errorf("'%s' must be a whole number", q.Label)}
	}
	if n != math.Trunc(n) {
		return model.Value{}, []error{fmt.Errorf("'%s' must be a whole number", q.Label)}
	}
	if errs := checkBounds(q, n); errs != nil {
		return model.Value{}, errs
	}
	return model.NumberValue(n), nil
}

func parseDecimal(q model.Question, raw any) (model.Value, []error) {
	var n float64
	switch value := raw.(type) {
	case float64:
		n = value
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return model.Value{}, []error{fmt.Errorf("'%s' must be a valid number", q.Label)}
		}
		n = parsed
	default:
		return model.Value{}, []error{fmt.Errorf("'%s' must be a valid number", q.Label)}
	}
	if errs := checkBounds(q, n); errs != nil {
		return model.Value{}, errs
	}
	return model.NumberValue(n), nil
}

func checkBounds(q model.Question, n float64) []error {
	var errs []error
	if q.Min != nil && n < *q.Min {
		errs = append(errs, fmt.Errorf("'%s' must be at least %v", q.Label, formatBound(*q.Min)))
	}
	if q.Max != nil && n > *q.Max {
		errs = append(errs, fmt.Errorf("'%s' must be at most %v", q.Label, formatBound(*q.Max)))
	}
	return errs
}

func formatBound(b float64) string {
	return strconv.FormatFloat(b, 'f', -1, 64)
}

func parseTemporal(q model.Question, raw any, layout string, mk func(string) model.Value, shape string) (model.Value, []error) {
	s, ok := raw.(string)
	if !ok {
		return model.Value{}, []error{fmt.Errorf("'%s' must be %s", q.Label, shape)}
	}
	s = strings.TrimSpace(s)
	parsed, err := time.Parse(layout, s)
	if err != nil {
		return model.Value{}, []error{fmt.Errorf("'%s' must be %s", q.Label, shape)}
	}
	return mk(parsed.Format(layout)), nil
}

func parseBoolean(q model.Question, raw any) (model.Value, []error) {
	switch value := raw.(type) {
	case bool:
		return model.BoolValue(value), nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err == nil {
			return model.BoolValue(b), nil
		}
	}
	return model.Value{}, []error{fmt.Errorf("'%s' must be true or false", q.Label)}
}

func parseSingleChoice(q model.Question, raw any) (model.Value, []error) {
	s, ok := raw.(string)
	if !ok || !optionValue(q, s) {
		return model.Value{}, []error{fmt.Errorf("'%s' has an invalid selection", q.Label)}
	}
	return model.ChoiceValue(s), nil
}

func parseMultiChoice(q model.Question, raw any) (model.Value, []error) {
	var selected []string
	switch value := raw.(type) {
	case []string:
		selected = value
	case []any:
		for _, item := range value {
			s, ok := item.(string)
			if !ok {
				return model.Value{}, []error{fmt.Errorf("'%s' must be a list of selections", q.Label)}
			}
			selected = append(selected, s)
		}
	default:
		return model.Value{}, []error{fmt.Errorf("'%s' must be a list of selections", q.Label)}
	}

	var errs []error
	for _, s := range selected {
		if !optionValue(q, s) {
			errs = append(errs, fmt.Errorf("'%s' has an invalid selection: %s", q.Label, s))
		}
	}
	if errs != nil {
		return model.Value{}, errs
	}
	return model.ChoiceSet(selected), nil
}

func optionValue(q model.Question, s string) bool {
	for _, opt := range q.Options {
		if opt.Value == s {
			return true
		}
	}
	return false
}
