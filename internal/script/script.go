package script

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SectionType is the semantic role of a narrated beat
type SectionType string

const (
	Intro      SectionType = "intro"
	Explain    SectionType = "explain"
	Chart      SectionType = "chart"
	Comparison SectionType = "comparison"
	Callout    SectionType = "callout"
	Outro      SectionType = "outro"
)

// SectionTypes lists every known section type in script order
var SectionTypes = []SectionType{Intro, Explain, Chart, Comparison, Callout, Outro}

// TransitionNone disables the transition of a section when used as an override
const TransitionNone = "none"

var ErrUnknownSectionType = errors.New("unknown section type")

// Valid reports whether t is one of the known section types
func (t SectionType) Valid() bool {
	for _, known := range SectionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Directive is an author hint such as @chart or @compare
type Directive struct {
	Type   string         `yaml:"type" json:"type"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// Overrides are explicit per-section corrections to the composer's choices
type Overrides struct {
	Transition      *string        `yaml:"transition,omitempty" json:"transition,omitempty"`
	BgAssetIDs      []string       `yaml:"bgAssetIds,omitempty" json:"bgAssetIds,omitempty"`
	ExcludeAssetIDs []string       `yaml:"excludeAssetIds,omitempty" json:"excludeAssetIds,omitempty"`
	ElementEnter    map[int]string `yaml:"elementEnter,omitempty" json:"elementEnter,omitempty"`
}

// Section is one narrated beat of a script
type Section struct {
	Type      SectionType `yaml:"type" json:"type" validate:"required,section_type"`
	Narration string      `yaml:"narration" json:"narration" validate:"required"`
	Duration  float64     `yaml:"duration" json:"duration" validate:"gt=0"`
	Directive *Directive  `yaml:"directive,omitempty" json:"directive,omitempty"`
	Overrides *Overrides  `yaml:"overrides,omitempty" json:"overrides,omitempty"`
}

// Script is an ordered list of sections with an optional title
type Script struct {
	Title    string    `yaml:"title,omitempty" json:"title,omitempty"`
	Sections []Section `yaml:"sections" json:"sections"`
}

// ValidationError describes the first invalid field of a section
type ValidationError struct {
	Index  int
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("section %d: %s: %s", e.Index+1, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("section_type", func(fl validator.FieldLevel) bool {
		return SectionType(fl.Field().String()).Valid()
	})
	return v
}

// ValidateSection checks required fields of a single section
func ValidateSection(index int, s Section) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("section %d: %w", index+1, err)
	}

	fe := fieldErrs[0]
	vErr := &ValidationError{
		Index: index,
		Field: strings.ToLower(fe.Field()),
		Err:   err,
	}
	switch fe.Tag() {
	case "section_type":
		vErr.Reason = fmt.Sprintf("%q is not a known section type", fe.Value())
		vErr.Err = ErrUnknownSectionType
	case "required":
		vErr.Reason = "is required"
	case "gt":
		vErr.Reason = "must be greater than 0"
	default:
		vErr.Reason = fe.Error()
	}
	return vErr
}

// ValidateSections checks every section and returns the first failure
func ValidateSections(sections []Section) error {
	for i, s := range sections {
		if err := ValidateSection(i, s); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks every section of the script
func (s *Script) Validate() error {
	if len(s.Sections) == 0 {
		return fmt.Errorf("script has no sections")
	}
	return ValidateSections(s.Sections)
}

// Durations returns the nominal duration of every section in seconds
func (s *Script) Durations() []float64 {
	out := make([]float64, len(s.Sections))
	for i, sec := range s.Sections {
		out[i] = sec.Duration
	}
	return out
}
