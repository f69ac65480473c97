package student

import (
	"fmt"
	"regexp"
	"strings"
)

type GenderIdentity struct {
	ID     int64  `json:"id"`
	Gender string `json:"gender"`
}

// AssessmentType is shared by the DISC and sixteen-types lookups.
type AssessmentType struct {
	ID       int64  `json:"id"`
	TypeName string `json:"type_name"`
}

type EnneagramResult struct {
	ID         int64  `json:"id"`
	ResultName string `json:"result_name"`
}

type OshaType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type FundingSource struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Student is the record as the backend returns it: lookups arrive nested.
type Student struct {
	ID          int64  `json:"id"`
	FullName    string `json:"full_name"`
	Email       string `json:"email,omitempty"`
	NCCERNumber string `json:"nccer_number,omitempty"`

	GenderIdentity         *GenderIdentity  `json:"gender_identity"`
	FundingSource          *FundingSource   `json:"funding_source"`
	DiscAssessmentType     *AssessmentType  `json:"disc_assessment_type"`
	SixteenTypesAssessment *AssessmentType  `json:"sixteen_types_assessment"`
	EnneagramResult        *EnneagramResult `json:"enneagram_result"`
	OshaType               *OshaType        `json:"osha_type"`

	StartDate          string `json:"start_date,omitempty"`
	EndDate            string `json:"end_date,omitempty"`
	OshaCompletionDate string `json:"osha_completion_date,omitempty"`

	Complete50HourTraining bool `json:"complete_50_hour_training"`
	PassedOsha10Exam       bool `json:"passed_osha_10_exam"`
	HammerMath             bool `json:"hammer_math"`
	EmployabilitySkills    bool `json:"employability_skills"`
	JobInterviewSkills     bool `json:"job_interview_skills"`
	PassedRulerAssessment  bool `json:"passed_ruler_assessment"`

	PretestScore  *int `json:"pretest_score"`
	PosttestScore *int `json:"posttest_score"`

	CreatedAt string `json:"created_at,omitempty"`
}

// ScoreDelta is post minus pre, only when both scores are recorded.
func ScoreDelta(pre, post *int) (int, bool) {
	if pre == nil || post == nil {
		return 0, false
	}
	return *post - *pre, true
}

func (s Student) ScoreDelta() (int, bool) {
	return ScoreDelta(s.PretestScore, s.PosttestScore)
}

var whitespace = regexp.MustCompile(`\s+`)

// FileStem turns a full name into the prefix used for downloaded documents.
func FileStem(fullName string) string {
	name := strings.TrimSpace(fullName)
	if name == "" {
		name = "Student"
	}
	return whitespace.ReplaceAllString(name, "_")
}

func (s Student) FileStem() string {
	return FileStem(s.FullName)
}

// File is one attachment on a student record.
type File struct {
	ID               int64  `json:"id"`
	OriginalFilename string `json:"original_filename"`
	ContentType      string `json:"content_type"`
	FileSize         int64  `json:"file_size"`
	UploadedAt       string `json:"uploaded_at"`
	UploadedByName   string `json:"uploaded_by_name"`
}

func (f File) SizeDisplay() string {
	return FormatMB(f.FileSize)
}

func (f File) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(f.ContentType), "image/")
}

func FormatMB(size int64) string {
	return fmt.Sprintf("%.2f MB", float64(size)/(1024*1024))
}
