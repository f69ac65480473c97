package clientapp

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/csrf"

	"github.com/KaiSwain/hammer-portfolio-django/internal/apiclient"
	"github.com/KaiSwain/hammer-portfolio-django/internal/certgen"
	"github.com/KaiSwain/hammer-portfolio-django/internal/filework"
	"github.com/KaiSwain/hammer-portfolio-django/internal/roster"
)

func studentPath(id int64) string {
	return "/students/" + strconv.FormatInt(id, 10)
}

func (s *server) studentsPage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	list, err := s.api.ListStudents(r.Context(), sess)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			s.fail(w, r, err, "/login", "Unable to load students")
			return
		}
		s.log.Warn().Err(err).Msg("list students failed")
		s.render(w, s.studentsTmpl, pageData{
			Title:      "Students",
			Error:      apiclient.UserMessage(err, "Unable to load students"),
			CSRFField:  csrf.TemplateField(r),
			Username:   sess.Username(),
			Search:     r.URL.Query().Get("q"),
			ListFailed: true,
		})
		return
	}

	q := r.URL.Query().Get("q")
	filtered := filterStudents(list.Items, q)
	rows := make([]studentRow, 0, len(filtered))
	for _, st := range filtered {
		rows = append(rows, rowFor(st))
	}
	s.render(w, s.studentsTmpl, pageData{
		Title:        "Students",
		Error:        r.URL.Query().Get("error"),
		Message:      r.URL.Query().Get("message"),
		CSRFField:    csrf.TemplateField(r),
		Username:     sess.Username(),
		Search:       q,
		Students:     rows,
		ListEmpty:    !list.Ok(),
		StudentCount: len(list.Items),
	})
}

func (s *server) studentDetailPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "studentID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	sess := sessionFrom(r)
	st, err := s.api.GetStudent(r.Context(), sess, id)
	if err != nil {
		if apiclient.IsNotFound(err) {
			redirectWithError(w, r, "/students", "Student not found")
			return
		}
		s.fail(w, r, err, "/students", "Unable to load student")
		return
	}

	work := filework.New(s.api, id, s.uploadPolicy)
	files, err := work.Refresh(r.Context(), sess)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			s.fail(w, r, err, "/login", "")
			return
		}
		s.log.Warn().Err(err).Int64("student_id", id).Msg("list files failed")
	}

	data := pageData{
		Title:     st.FullName,
		Error:     r.URL.Query().Get("error"),
		Message:   r.URL.Query().Get("message"),
		CSRFField: csrf.TemplateField(r),
		Username:  sess.Username(),
		Student:   detailView(st),
		Files:     fileViews(files),
		Kinds:     kindOptions(certgen.DefaultSelection()),
		CSRFToken: csrf.Token(r),
		MaxSize:   maxSizeLabel(s.uploadPolicy),
	}
	if err != nil && data.Error == "" {
		data.Error = apiclient.UserMessage(err, "Unable to load files")
	}
	s.render(w, s.studentTmpl, data)
}

func (s *server) deleteStudentPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "studentID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	sess := sessionFrom(r)
	st, err := s.api.GetStudent(r.Context(), sess, id)
	if err != nil {
		s.fail(w, r, err, "/students", "Unable to load student")
		return
	}
	s.render(w, s.confirmTmpl, pageData{
		Title:     "Delete student",
		CSRFField: csrf.TemplateField(r),
		Username:  sess.Username(),
		Confirm: &confirmView{
			Heading: "Delete student",
			Prompt:  "Are you sure you want to delete " + st.FullName + "? This cannot be undone.",
			Action:  studentPath(id) + "/delete",
			Cancel:  studentPath(id),
			Button:  "Delete student",
		},
	})
}

func (s *server) deleteStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "studentID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := s.api.DeleteStudent(r.Context(), sessionFrom(r), id); err != nil {
		s.fail(w, r, err, studentPath(id), "Unable to delete student")
		return
	}
	redirectWithMessage(w, r, "/students", "Student deleted")
}

func (s *server) exportRoster(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	list, err := s.api.ListStudents(r.Context(), sess)
	if err != nil {
		s.fail(w, r, err, "/students", "Unable to load students")
		return
	}
	details, err := s.api.Details(r.Context(), sess)
	if err != nil {
		s.fail(w, r, err, "/students", "Unable to load form options")
		return
	}
	var buf bytes.Buffer
	if err := roster.Export(&buf, list.Items, details); err != nil {
		s.log.Error().Err(err).Msg("roster export failed")
		redirectWithError(w, r, "/students", "Unable to build the spreadsheet")
		return
	}
	name := "students_" + time.Now().Format("2006-01-02") + ".xlsx"
	sendAttachment(w, name, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (s *server) importRoster(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		redirectWithError(w, r, "/students", "Choose a spreadsheet to import")
		return
	}
	file, header, err := r.FormFile("roster")
	if err != nil {
		redirectWithError(w, r, "/students", "Choose a spreadsheet to import")
		return
	}
	defer file.Close()

	rows, err := roster.ReadRows(file, header.Filename)
	if err != nil {
		redirectWithError(w, r, "/students", "Unable to read spreadsheet: "+err.Error())
		return
	}
	sess := sessionFrom(r)
	details, err := s.api.Details(r.Context(), sess)
	if err != nil {
		s.fail(w, r, err, "/students", "Unable to load form options")
		return
	}
	parsed, err := roster.Parse(rows, details)
	if err != nil {
		redirectWithError(w, r, "/students", "Unable to read spreadsheet: "+err.Error())
		return
	}
	report, err := roster.Import(r.Context(), s.api, sess, parsed, apiclient.IsUnauthorized)
	if err != nil {
		s.fail(w, r, err, "/students", "Import stopped")
		return
	}
	s.log.Info().Int("created", len(report.Created)).Int("skipped", len(report.Skipped)).Msg("roster imported")
	if len(report.Skipped) > 0 {
		redirectWithError(w, r, "/students", report.Summary())
		return
	}
	redirectWithMessage(w, r, "/students", report.Summary())
}
