package clientapp

import (
	"html/template"
	"mime"
	"strconv"
	"strings"

	"github.com/KaiSwain/hammer-portfolio-django/internal/certgen"
	"github.com/KaiSwain/hammer-portfolio-django/internal/filework"
	"github.com/KaiSwain/hammer-portfolio-django/internal/student"
	"github.com/KaiSwain/hammer-portfolio-django/internal/studentform"
	"github.com/KaiSwain/hammer-portfolio-django/internal/thumbnail"
)

type pageData struct {
	Title     string
	Error     string
	Message   string
	CSRFField template.HTML
	// CSRFToken is sent in the query string of multipart uploads.
	CSRFToken string
	Username  string

	Search       string
	Students     []studentRow
	ListEmpty    bool
	ListFailed   bool
	StudentCount int

	Student *studentView
	Files   []fileView
	Kinds   []kindOption
	MaxSize string

	Wizard *wizardView

	Confirm *confirmView
}

type studentRow struct {
	ID        int64
	FullName  string
	Email     string
	StartDate string
	EndDate   string
	OSHA      string
	Delta     string
}

type summaryItem struct {
	Label string
	Value string
}

type summaryGroup struct {
	Title string
	Items []summaryItem
}

type studentView struct {
	ID       int64
	FullName string
	Groups   []summaryGroup
}

type fileView struct {
	ID          int64
	Name        string
	ContentType string
	Size        string
	UploadedAt  string
	UploadedBy  string
	Previewable bool
}

type kindOption struct {
	Slug     string
	Label    string
	Selected bool
}

type confirmView struct {
	Heading string
	Prompt  string
	Action  string
	Cancel  string
	Button  string
}

type wizardField struct {
	Name     string
	Label    string
	Kind     string
	Required bool
	Value    string
	Checked  bool
	Error    string
	Options  []student.Option
}

type wizardView struct {
	Action    string
	Heading   string
	Step      int
	StepTitle string
	Steps     []studentform.Step
	IsFirst   bool
	IsLast    bool
	Fields    []wizardField
	// Hidden carries the values of every other step between requests.
	Hidden []wizardField
	Review []studentform.ReviewRow
	Delta  string
	Errors int
}

var templateFuncs = template.FuncMap{
	"lines": func(s string) []string { return strings.Split(s, "\n") },
}

func rowFor(st student.Student) studentRow {
	row := studentRow{
		ID:        st.ID,
		FullName:  st.FullName,
		Email:     dash(st.Email),
		StartDate: dash(student.FormatDate(st.StartDate)),
		EndDate:   dash(student.FormatDate(st.EndDate)),
		OSHA:      student.YesNo(st.PassedOsha10Exam),
		Delta:     "-",
	}
	if d, ok := st.ScoreDelta(); ok {
		row.Delta = signed(d)
	}
	return row
}

func filterStudents(list []student.Student, q string) []student.Student {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return list
	}
	var out []student.Student
	for _, st := range list {
		if strings.Contains(strings.ToLower(st.FullName), q) || strings.Contains(strings.ToLower(st.Email), q) {
			out = append(out, st)
		}
	}
	return out
}

// detailView groups the record the way the detail page shows it.
func detailView(st student.Student) *studentView {
	score := func(p *int) string {
		if p == nil {
			return "-"
		}
		return strconv.Itoa(*p)
	}
	delta := "-"
	if d, ok := st.ScoreDelta(); ok {
		delta = signed(d)
	}
	var gender, funding, osha, disc, sixteen, enneagram string
	if st.GenderIdentity != nil {
		gender = st.GenderIdentity.Gender
	}
	if st.FundingSource != nil {
		funding = st.FundingSource.Name
	}
	if st.OshaType != nil {
		osha = st.OshaType.Name
	}
	if st.DiscAssessmentType != nil {
		disc = st.DiscAssessmentType.TypeName
	}
	if st.SixteenTypesAssessment != nil {
		sixteen = st.SixteenTypesAssessment.TypeName
	}
	if st.EnneagramResult != nil {
		enneagram = st.EnneagramResult.ResultName
	}
	return &studentView{
		ID:       st.ID,
		FullName: st.FullName,
		Groups: []summaryGroup{
			{Title: "Basic Info", Items: []summaryItem{
				{"Email", dash(st.Email)},
				{"NCCER number", dash(st.NCCERNumber)},
				{"Gender identity", dash(gender)},
				{"Funding source", dash(funding)},
				{"Class start date", dash(student.FormatDate(st.StartDate))},
				{"Class end date", dash(student.FormatDate(st.EndDate))},
			}},
			{Title: "Program Progress", Items: []summaryItem{
				{"Completed 50-hour training", student.YesNo(st.Complete50HourTraining)},
				{"Passed OSHA 10 exam", student.YesNo(st.PassedOsha10Exam)},
				{"OSHA 10 completion date", dash(student.FormatDate(st.OshaCompletionDate))},
				{"OSHA 10 type", dash(osha)},
				{"Completed HammerMath", student.YesNo(st.HammerMath)},
				{"Completed employability skills", student.YesNo(st.EmployabilitySkills)},
				{"Completed job interview skills", student.YesNo(st.JobInterviewSkills)},
				{"Passed reading a ruler assessment", student.YesNo(st.PassedRulerAssessment)},
			}},
			{Title: "Assessments", Items: []summaryItem{
				{"DISC assessment type", dash(disc)},
				{"Sixteen types assessment", dash(sixteen)},
				{"Enneagram result", dash(enneagram)},
			}},
			{Title: "Test Scores", Items: []summaryItem{
				{"Pre-test score", score(st.PretestScore)},
				{"Post-test score", score(st.PosttestScore)},
				{"Change", delta},
			}},
		},
	}
}

func fileViews(files []student.File) []fileView {
	out := make([]fileView, 0, len(files))
	for _, f := range files {
		out = append(out, fileView{
			ID:          f.ID,
			Name:        f.OriginalFilename,
			ContentType: f.ContentType,
			Size:        f.SizeDisplay(),
			UploadedAt:  dash(student.FormatDateTime(f.UploadedAt)),
			UploadedBy:  dash(f.UploadedByName),
			Previewable: thumbnail.Supported(f.ContentType),
		})
	}
	return out
}

func kindOptions(sel certgen.Selection) []kindOption {
	var out []kindOption
	for _, k := range certgen.AllKinds() {
		out = append(out, kindOption{Slug: k.Slug(), Label: k.Label(), Selected: sel[k]})
	}
	return out
}

func maxSizeLabel(p filework.Policy) string {
	return strconv.FormatInt(p.MaxBytes>>20, 10) + "MB"
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func signed(n int) string {
	if n > 0 {
		return "+" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func contentDisposition(kind, name string) string {
	if v := mime.FormatMediaType(kind, map[string]string{"filename": name}); v != "" {
		return v
	}
	return kind
}
