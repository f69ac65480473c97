package clientapp

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/csrf"

	"github.com/KaiSwain/hammer-portfolio-django/internal/apiclient"
	"github.com/KaiSwain/hammer-portfolio-django/internal/student"
	"github.com/KaiSwain/hammer-portfolio-django/internal/studentform"
)

// wizardPost is what one press of a wizard button asks for.
type wizardPost struct {
	form   *studentform.Controller
	wiz    *studentform.Wizard
	submit bool
}

func (s *server) newStudentPage(w http.ResponseWriter, r *http.Request) {
	step, _ := strconv.Atoi(r.URL.Query().Get("step"))
	s.renderWizard(w, r, studentform.New(), studentform.WizardAt(step), "/students/new", "Add student", "", false)
}

func (s *server) newStudentSubmit(w http.ResponseWriter, r *http.Request) {
	post, ok := readWizardPost(w, r)
	if !ok {
		return
	}
	if !post.submit {
		s.renderWizard(w, r, post.form, post.wiz, "/students/new", "Add student", "", false)
		return
	}
	if !post.form.Validate() {
		post.wiz.Goto(post.form.FirstErrorStep())
		s.renderWizard(w, r, post.form, post.wiz, "/students/new", "Add student", "Please fix the highlighted fields.", true)
		return
	}
	created, err := s.api.CreateStudent(r.Context(), sessionFrom(r), post.form.BuildSubmissionPayload())
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			s.fail(w, r, err, "/login", "")
			return
		}
		s.renderWizard(w, r, post.form, post.wiz, "/students/new", "Add student", apiclient.UserMessage(err, "Unable to create student"), false)
		return
	}
	s.log.Info().Int64("student_id", created.ID).Msg("student created")
	redirectWithMessage(w, r, studentPath(created.ID), "Student created")
}

func (s *server) editStudentPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "studentID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	st, err := s.api.GetStudent(r.Context(), sessionFrom(r), id)
	if err != nil {
		s.fail(w, r, err, "/students", "Unable to load student")
		return
	}
	step, _ := strconv.Atoi(r.URL.Query().Get("step"))
	s.renderWizard(w, r, studentform.FromStudent(st), studentform.WizardAt(step), studentPath(id)+"/edit", "Edit "+st.FullName, "", false)
}

func (s *server) editStudentSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "studentID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	post, ok := readWizardPost(w, r)
	if !ok {
		return
	}
	action := studentPath(id) + "/edit"
	heading := "Edit " + strings.TrimSpace(post.form.Text("full_name"))
	if !post.submit {
		s.renderWizard(w, r, post.form, post.wiz, action, heading, "", false)
		return
	}
	if !post.form.Validate() {
		post.wiz.Goto(post.form.FirstErrorStep())
		s.renderWizard(w, r, post.form, post.wiz, action, heading, "Please fix the highlighted fields.", true)
		return
	}
	if _, err := s.api.UpdateStudent(r.Context(), sessionFrom(r), id, post.form.BuildSubmissionPayload()); err != nil {
		if apiclient.IsUnauthorized(err) {
			s.fail(w, r, err, "/login", "")
			return
		}
		s.renderWizard(w, r, post.form, post.wiz, action, heading, apiclient.UserMessage(err, "Unable to save student"), false)
		return
	}
	redirectWithMessage(w, r, studentPath(id), "Student updated")
}

// readWizardPost rebuilds the draft from the posted form and applies the
// navigation button. Unchecked boxes post only their hidden "false" twin,
// so the last value wins.
func readWizardPost(w http.ResponseWriter, r *http.Request) (wizardPost, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return wizardPost{}, false
	}
	form := studentform.New()
	for _, f := range studentform.Fields() {
		values, present := r.PostForm[f.Name]
		if !present || len(values) == 0 {
			continue
		}
		_ = form.SetField(f.Name, values[len(values)-1])
	}

	step, _ := strconv.Atoi(r.PostForm.Get("step"))
	wiz := studentform.WizardAt(step)
	post := wizardPost{form: form, wiz: wiz}
	switch nav := r.PostForm.Get("nav"); {
	case nav == "next":
		wiz.Next()
	case nav == "back":
		wiz.Back()
	case strings.HasPrefix(nav, "goto-"):
		n, _ := strconv.Atoi(strings.TrimPrefix(nav, "goto-"))
		wiz.Goto(n)
	case nav == "submit":
		post.submit = true
	}
	return post, true
}

func (s *server) renderWizard(w http.ResponseWriter, r *http.Request, form *studentform.Controller, wiz *studentform.Wizard, action, heading, errMsg string, showErrors bool) {
	sess := sessionFrom(r)
	details, err := s.api.Details(r.Context(), sess)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			s.fail(w, r, err, "/login", "")
			return
		}
		s.log.Warn().Err(err).Msg("load details failed")
		if errMsg == "" {
			errMsg = apiclient.UserMessage(err, "Unable to load form options")
		}
	}

	current := wiz.Current()
	view := &wizardView{
		Action:    action,
		Heading:   heading,
		Step:      current.Number,
		StepTitle: current.Title,
		Steps:     wiz.Steps(),
		IsFirst:   wiz.IsFirst(),
		IsLast:    wiz.IsLast(),
	}
	onStep := map[string]bool{}
	for _, f := range current.Fields {
		onStep[f.Name] = true
		view.Fields = append(view.Fields, fieldView(form, f, details, showErrors))
	}
	for _, f := range studentform.Fields() {
		if !onStep[f.Name] {
			view.Hidden = append(view.Hidden, fieldView(form, f, details, false))
		}
	}
	if showErrors {
		view.Errors = len(form.Errors())
	}
	if wiz.IsLast() {
		view.Review = form.Review(details)
		if d, ok := form.ScoreDelta(); ok {
			view.Delta = signed(d)
		}
	}

	s.render(w, s.wizardTmpl, pageData{
		Title:     heading,
		Error:     errMsg,
		CSRFField: csrf.TemplateField(r),
		Username:  sess.Username(),
		Wizard:    view,
	})
}

func fieldView(form *studentform.Controller, f studentform.Field, details student.Details, showErrors bool) wizardField {
	out := wizardField{
		Name:     f.Name,
		Label:    f.Label,
		Kind:     inputKind(f.Kind),
		Required: f.Required,
		Value:    form.Text(f.Name),
	}
	if f.Kind == studentform.KindBool {
		out.Checked = form.Flag(f.Name)
		out.Value = strconv.FormatBool(out.Checked)
	}
	if f.Kind == studentform.KindRef {
		out.Options = details.Options(f.Lookup)
	}
	if showErrors {
		out.Error = form.Error(f.Name)
	}
	return out
}

func inputKind(k studentform.FieldKind) string {
	switch k {
	case studentform.KindEmail:
		return "email"
	case studentform.KindDate:
		return "date"
	case studentform.KindBool:
		return "checkbox"
	case studentform.KindScore:
		return "number"
	case studentform.KindRef:
		return "select"
	}
	return "text"
}
