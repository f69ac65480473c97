// Package studentform holds the draft state of a student record while it is
// being created or edited. Nothing here performs I/O; callers submit the
// payload only after Validate reports true.
package studentform

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/KaiSwain/hammer-portfolio-django/internal/student"
)

var ErrUnknownField = errors.New("studentform: unknown field")

// ValidationError lists per-field messages keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, e.Fields[name])
	}
	return "invalid student: " + strings.Join(parts, " ")
}

type Controller struct {
	text   map[string]string
	flags  map[string]bool
	errors map[string]string
}

func New() *Controller {
	c := &Controller{
		text:   map[string]string{},
		flags:  map[string]bool{},
		errors: map[string]string{},
	}
	for _, f := range Fields() {
		if f.Kind == KindBool {
			c.flags[f.Name] = false
		} else {
			c.text[f.Name] = ""
		}
	}
	return c
}

// FromStudent prefills a controller for editing an existing record.
func FromStudent(s student.Student) *Controller {
	c := New()
	c.text["full_name"] = s.FullName
	c.text["email"] = s.Email
	c.text["nccer_number"] = s.NCCERNumber
	c.text["start_date"] = s.StartDate
	c.text["end_date"] = s.EndDate
	c.text["osha_completion_date"] = s.OshaCompletionDate
	if s.GenderIdentity != nil {
		c.text["gender_identity"] = strconv.FormatInt(s.GenderIdentity.ID, 10)
	}
	if s.FundingSource != nil {
		c.text["funding_source"] = strconv.FormatInt(s.FundingSource.ID, 10)
	}
	if s.OshaType != nil {
		c.text["osha_type"] = strconv.FormatInt(s.OshaType.ID, 10)
	}
	if s.DiscAssessmentType != nil {
		c.text["disc_assessment_type"] = strconv.FormatInt(s.DiscAssessmentType.ID, 10)
	}
	if s.SixteenTypesAssessment != nil {
		c.text["sixteen_types_assessment"] = strconv.FormatInt(s.SixteenTypesAssessment.ID, 10)
	}
	if s.EnneagramResult != nil {
		c.text["enneagram_result"] = strconv.FormatInt(s.EnneagramResult.ID, 10)
	}
	if s.PretestScore != nil {
		c.text["pretest_score"] = strconv.Itoa(*s.PretestScore)
	}
	if s.PosttestScore != nil {
		c.text["posttest_score"] = strconv.Itoa(*s.PosttestScore)
	}
	c.flags["complete_50_hour_training"] = s.Complete50HourTraining
	c.flags["passed_osha_10_exam"] = s.PassedOsha10Exam
	c.flags["hammer_math"] = s.HammerMath
	c.flags["employability_skills"] = s.EmployabilitySkills
	c.flags["job_interview_skills"] = s.JobInterviewSkills
	c.flags["passed_ruler_assessment"] = s.PassedRulerAssessment
	return c
}

// SetField stores a value. Flags accept bool or a checkbox string; every
// other field takes a string.
func (c *Controller) SetField(name string, value any) error {
	f, ok := fieldIndex[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if f.Kind == KindBool {
		switch v := value.(type) {
		case bool:
			c.flags[name] = v
		case string:
			c.flags[name] = parseCheckbox(v)
		default:
			return fmt.Errorf("studentform: %s expects a boolean, got %T", name, value)
		}
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("studentform: %s expects a string, got %T", name, value)
	}
	c.text[name] = s
	return nil
}

func parseCheckbox(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "on", "true", "yes", "y":
		return true
	}
	return false
}

// Text returns the raw draft value of a non-flag field.
func (c *Controller) Text(name string) string {
	return c.text[name]
}

func (c *Controller) Flag(name string) bool {
	return c.flags[name]
}

func (c *Controller) Errors() map[string]string {
	out := make(map[string]string, len(c.errors))
	for k, v := range c.errors {
		out[k] = v
	}
	return out
}

func (c *Controller) Error(name string) string {
	return c.errors[name]
}

// Err returns the last validation outcome as an error, or nil.
func (c *Controller) Err() error {
	if len(c.errors) == 0 {
		return nil
	}
	return &ValidationError{Fields: c.Errors()}
}

type draft struct {
	FullName           string `json:"full_name" validate:"required"`
	Email              string `json:"email" validate:"omitempty,email"`
	NCCERNumber        string `json:"nccer_number" validate:"omitempty,max=64"`
	StartDate          string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate            string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	PassedOsha10Exam   bool   `json:"passed_osha_10_exam"`
	OshaCompletionDate string `json:"osha_completion_date" validate:"required_if=PassedOsha10Exam true,omitempty,datetime=2006-01-02"`
	OshaType           *int64 `json:"osha_type" validate:"required_if=PassedOsha10Exam true"`
	PretestScore       *int   `json:"pretest_score" validate:"omitempty,score"`
	PosttestScore      *int   `json:"posttest_score" validate:"omitempty,score"`
}

// Validate recomputes the error map and reports whether the draft may be submitted.
func (c *Controller) Validate() bool {
	c.errors = map[string]string{}

	d := draft{
		FullName:           strings.TrimSpace(c.text["full_name"]),
		Email:              strings.TrimSpace(c.text["email"]),
		NCCERNumber:        strings.TrimSpace(c.text["nccer_number"]),
		StartDate:          strings.TrimSpace(c.text["start_date"]),
		EndDate:            strings.TrimSpace(c.text["end_date"]),
		PassedOsha10Exam:   c.flags["passed_osha_10_exam"],
		OshaCompletionDate: strings.TrimSpace(c.text["osha_completion_date"]),
	}

	for _, f := range Fields() {
		raw := strings.TrimSpace(c.text[f.Name])
		if raw == "" {
			continue
		}
		switch f.Kind {
		case KindScore:
			n, err := strconv.Atoi(raw)
			if err != nil {
				c.errors[f.Name] = f.Label + " must be a whole number between 1 and 14."
				continue
			}
			if f.Name == "pretest_score" {
				d.PretestScore = &n
			} else {
				d.PosttestScore = &n
			}
		case KindRef:
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				c.errors[f.Name] = f.Label + " must be chosen from the list."
				continue
			}
			if f.Name == "osha_type" {
				d.OshaType = &id
			}
		}
	}
	v, trans := validatorInstance()
	if err := v.Struct(d); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				if _, exists := c.errors[fe.Field()]; !exists {
					c.errors[fe.Field()] = fe.Translate(trans)
				}
			}
		}
	}

	if d.StartDate != "" && d.EndDate != "" && c.errors["start_date"] == "" && c.errors["end_date"] == "" {
		start, _ := time.Parse("2006-01-02", d.StartDate)
		end, _ := time.Parse("2006-01-02", d.EndDate)
		if end.Before(start) {
			c.errors["end_date"] = "Class end date must be on or after the class start date."
		}
	}

	return len(c.errors) == 0
}

// Payload is the JSON body for create and full-replace update calls.
type Payload map[string]any

// BuildSubmissionPayload turns the draft into backend types: blank optional
// values become null, scores and references become integers.
func (c *Controller) BuildSubmissionPayload() Payload {
	p := Payload{}
	for _, f := range Fields() {
		if f.Kind == KindBool {
			p[f.Name] = c.flags[f.Name]
			continue
		}
		raw := strings.TrimSpace(c.text[f.Name])
		switch f.Kind {
		case KindScore:
			if n, err := strconv.Atoi(raw); err == nil {
				p[f.Name] = n
			} else {
				p[f.Name] = nil
			}
		case KindRef:
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
				p[f.PayloadKey()] = id
			} else {
				p[f.PayloadKey()] = nil
			}
		default:
			if raw == "" && !f.Required {
				p[f.Name] = nil
			} else {
				p[f.Name] = raw
			}
		}
	}
	return p
}

// ScoreDelta is post minus pre when both scores parse.
func (c *Controller) ScoreDelta() (int, bool) {
	pre, err1 := strconv.Atoi(strings.TrimSpace(c.text["pretest_score"]))
	post, err2 := strconv.Atoi(strings.TrimSpace(c.text["posttest_score"]))
	if err1 != nil || err2 != nil {
		return 0, false
	}
	return student.ScoreDelta(&pre, &post)
}
