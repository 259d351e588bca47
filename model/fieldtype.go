package model

// FieldType enumerates the kinds of questions a form can carry.
type FieldType string

const (
	FieldShortText    FieldType = "short_text"
	FieldLongText     FieldType = "long_text"
	FieldSingleChoice FieldType = "single_choice"
	FieldMultiChoice  FieldType = "multi_choice"
	FieldDropdown     FieldType = "dropdown"
	FieldInteger      FieldType = "integer"
	FieldDecimal      FieldType = "decimal"
	FieldDate         FieldType = "date"
	FieldTime         FieldType = "time"
	FieldBoolean      FieldType = "boolean"
	FieldRating       FieldType = "rating"
)

var fieldTypes = map[FieldType]bool{
	FieldShortText:    true,
	FieldLongText:     true,
	FieldSingleChoice: true,
	FieldMultiChoice:  true,
	FieldDropdown:     true,
	FieldInteger:      true,
	FieldDecimal:      true,
	FieldDate:         true,
	FieldTime:         true,
	FieldBoolean:      true,
	FieldRating:       true,
}

func (ft FieldType) Valid() bool {
	return fieldTypes[ft]
}

// IsChoice reports whether answers to this type must match declared options.
func (ft FieldType) IsChoice() bool {
	switch ft {
	case FieldSingleChoice, FieldMultiChoice, FieldDropdown:
		return true
	}
	return false
}

// IsText reports whether min/max bounds apply to character length.
func (ft FieldType) IsText() bool {
	return ft == FieldShortText || ft == FieldLongText
}

// IsNumeric reports whether min/max bounds apply to the parsed value.
func (ft FieldType) IsNumeric() bool {
	switch ft {
	case FieldInteger, FieldDecimal, FieldRating:
		return true
	}
	return false
}
