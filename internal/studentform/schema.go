package studentform

import "github.com/KaiSwain/hammer-portfolio-django/internal/student"

type FieldKind int

const (
	KindText FieldKind = iota
	KindEmail
	KindDate
	KindBool
	KindScore
	KindRef
)

type Field struct {
	Name     string
	Label    string
	Kind     FieldKind
	Required bool
	// Lookup names the reference table for KindRef fields.
	Lookup string
}

// PayloadKey is the key the backend expects; references are written as <name>_id.
func (f Field) PayloadKey() string {
	if f.Kind == KindRef {
		return f.Name + "_id"
	}
	return f.Name
}

type Step struct {
	Number int
	Title  string
	Fields []Field
}

// Steps partitions every student field into the wizard's display groups.
var Steps = []Step{
	{Number: 1, Title: "Basic Info", Fields: []Field{
		{Name: "full_name", Label: "Full name", Kind: KindText, Required: true},
		{Name: "email", Label: "Email", Kind: KindEmail},
		{Name: "nccer_number", Label: "NCCER number", Kind: KindText},
		{Name: "gender_identity", Label: "Gender identity", Kind: KindRef, Lookup: student.LookupGender},
		{Name: "funding_source", Label: "Funding source", Kind: KindRef, Lookup: student.LookupFunding},
		{Name: "start_date", Label: "Class start date", Kind: KindDate},
		{Name: "end_date", Label: "Class end date", Kind: KindDate},
	}},
	{Number: 2, Title: "Program Progress", Fields: []Field{
		{Name: "complete_50_hour_training", Label: "Completed 50-hour training", Kind: KindBool},
		{Name: "passed_osha_10_exam", Label: "Passed OSHA 10 exam", Kind: KindBool},
		{Name: "osha_completion_date", Label: "OSHA 10 completion date", Kind: KindDate},
		{Name: "osha_type", Label: "OSHA 10 type", Kind: KindRef, Lookup: student.LookupOsha},
		{Name: "hammer_math", Label: "Completed HammerMath", Kind: KindBool},
		{Name: "employability_skills", Label: "Completed employability skills", Kind: KindBool},
		{Name: "job_interview_skills", Label: "Completed job interview skills", Kind: KindBool},
		{Name: "passed_ruler_assessment", Label: "Passed reading a ruler assessment", Kind: KindBool},
	}},
	{Number: 3, Title: "Assessments", Fields: []Field{
		{Name: "disc_assessment_type", Label: "DISC assessment type", Kind: KindRef, Lookup: student.LookupDisc},
		{Name: "sixteen_types_assessment", Label: "Sixteen types assessment", Kind: KindRef, Lookup: student.LookupSixteen},
		{Name: "enneagram_result", Label: "Enneagram result", Kind: KindRef, Lookup: student.LookupEnneagram},
	}},
	{Number: 4, Title: "Test Scores", Fields: []Field{
		{Name: "pretest_score", Label: "Pre-test score", Kind: KindScore},
		{Name: "posttest_score", Label: "Post-test score", Kind: KindScore},
	}},
}

var fieldIndex = func() map[string]Field {
	m := map[string]Field{}
	for _, step := range Steps {
		for _, f := range step.Fields {
			m[f.Name] = f
		}
	}
	return m
}()

func FieldByName(name string) (Field, bool) {
	f, ok := fieldIndex[name]
	return f, ok
}

// Fields lists every field in wizard order.
func Fields() []Field {
	var out []Field
	for _, step := range Steps {
		out = append(out, step.Fields...)
	}
	return out
}

func labelFor(name string) string {
	if f, ok := fieldIndex[name]; ok {
		return f.Label
	}
	return name
}
