package roster

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/KaiSwain/hammer-portfolio-django/internal/apiclient"
	"github.com/KaiSwain/hammer-portfolio-django/internal/session"
	"github.com/KaiSwain/hammer-portfolio-django/internal/student"
	"github.com/KaiSwain/hammer-portfolio-django/internal/studentform"
)

var testDetails = student.Details{
	GenderIdentities: []student.GenderIdentity{{ID: 1, Gender: "Female"}, {ID: 2, Gender: "Male"}},
	OshaTypes:        []student.OshaType{{ID: 1, Name: "OSHA 10 Construction"}},
	FundingSources:   []student.FundingSource{{ID: 3, Name: "WIOA"}},
}

func intPtr(n int) *int { return &n }

func TestExportThenParse(t *testing.T) {
	students := []student.Student{
		{
			ID:                 7,
			FullName:           "Ana Ruiz",
			Email:              "ana@example.com",
			GenderIdentity:     &student.GenderIdentity{ID: 1, Gender: "Female"},
			FundingSource:      &student.FundingSource{ID: 3, Name: "WIOA"},
			StartDate:          "2025-01-06",
			EndDate:            "2025-03-28",
			PassedOsha10Exam:   true,
			OshaCompletionDate: "2025-02-14",
			OshaType:           &student.OshaType{ID: 1, Name: "OSHA 10 Construction"},
			HammerMath:         true,
			PretestScore:       intPtr(6),
			PosttestScore:      intPtr(12),
		},
	}
	var buf bytes.Buffer
	if err := Export(&buf, students, testDetails); err != nil {
		t.Fatal(err)
	}

	rows, err := ReadRows(&buf, "roster.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0][0] != "ID" || rows[0][1] != "Full name" {
		t.Fatalf("rows = %v", rows)
	}

	parsed, err := Parse(rows, testDetails)
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed) != 1 || !parsed[0].Valid() {
		t.Fatalf("parsed = %+v", parsed)
	}
	p := parsed[0].Payload
	if p["full_name"] != "Ana Ruiz" || p["gender_identity_id"] != int64(1) || p["osha_type_id"] != int64(1) {
		t.Fatalf("payload = %v", p)
	}
	if p["pretest_score"] != 6 || p["posttest_score"] != 12 || p["hammer_math"] != true || p["employability_skills"] != false {
		t.Fatalf("payload = %v", p)
	}
	if p["start_date"] != "2025-01-06" || p["nccer_number"] != nil {
		t.Fatalf("payload = %v", p)
	}
}

func TestParseReportsBadRows(t *testing.T) {
	rows := [][]string{
		{"Name", "Pretest Score", "Gender identity", "Start date"},
		{"Sam Lee", "15", "male", "1/6/2025"},
		{"", "4", "", ""},
		{"", "", "", ""},
		{"Kim Ong", "4", "Other", ""},
		{"Lou Park", "3", "2", "45663"},
	}
	parsed, err := Parse(rows, testDetails)
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed) != 4 {
		t.Fatalf("got %d rows", len(parsed))
	}
	if parsed[0].Errors["pretest_score"] == "" || parsed[0].Line != 2 {
		t.Fatalf("row 2 = %+v", parsed[0])
	}
	if parsed[1].Errors["full_name"] == "" {
		t.Fatalf("row 3 = %+v", parsed[1])
	}
	if !strings.Contains(parsed[2].Errors["gender_identity"], "Other") || parsed[2].Line != 5 {
		t.Fatalf("row 5 = %+v", parsed[2])
	}
	if !parsed[3].Valid() || parsed[3].Payload["gender_identity_id"] != int64(2) || parsed[3].Payload["start_date"] != "2025-01-06" {
		t.Fatalf("row 6 = %+v", parsed[3])
	}
}

func TestParseNeedsNameColumn(t *testing.T) {
	_, err := Parse([][]string{{"Email"}, {"a@b.c"}}, testDetails)
	if !errors.Is(err, ErrNoNameCol) {
		t.Fatalf("err = %v", err)
	}
}

func TestReadRowsEmptySheet(t *testing.T) {
	f := excelize.NewFile()
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadRows(&buf, "empty.xlsx"); !errors.Is(err, ErrEmptySheet) {
		t.Fatalf("err = %v", err)
	}
}

type fakeCreator struct {
	calls int
	fail  map[string]error
}

func (f *fakeCreator) CreateStudent(ctx context.Context, sess *session.Session, payload any) (student.Student, error) {
	f.calls++
	p := payload.(studentform.Payload)
	name, _ := p["full_name"].(string)
	if err := f.fail[name]; err != nil {
		return student.Student{}, err
	}
	return student.Student{ID: int64(f.calls), FullName: name}, nil
}

func TestImport(t *testing.T) {
	rows, err := Parse([][]string{
		{"full_name", "posttest_score"},
		{"Ana Ruiz", "9"},
		{"Bad Score", "0"},
		{"Dup Name", "9"},
		{"Zed Moss", ""},
	}, testDetails)
	if err != nil {
		t.Fatal(err)
	}
	api := &fakeCreator{fail: map[string]error{
		"Dup Name": &apiclient.HTTPError{Status: http.StatusBadRequest, Body: []byte(`{"full_name":["already exists"]}`)},
	}}
	rep, err := Import(context.Background(), api, session.Anonymous(), rows, apiclient.IsUnauthorized)
	if err != nil {
		t.Fatal(err)
	}
	if api.calls != 3 || len(rep.Created) != 2 || len(rep.Skipped) != 2 {
		t.Fatalf("calls=%d report=%+v", api.calls, rep)
	}
	if !strings.HasPrefix(rep.Summary(), "2 student(s) imported, 2 skipped.\nrow 3 (Bad Score):") {
		t.Fatalf("summary = %q", rep.Summary())
	}
}

func TestImportStopsOnUnauthorized(t *testing.T) {
	rows, _ := Parse([][]string{{"full_name"}, {"Ana Ruiz"}, {"Zed Moss"}}, testDetails)
	api := &fakeCreator{fail: map[string]error{"Ana Ruiz": &apiclient.HTTPError{Status: http.StatusUnauthorized}}}
	_, err := Import(context.Background(), api, session.Anonymous(), rows, apiclient.IsUnauthorized)
	if !apiclient.IsUnauthorized(err) || api.calls != 1 {
		t.Fatalf("err=%v calls=%d", err, api.calls)
	}
}
