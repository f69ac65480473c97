package clientapp

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/KaiSwain/hammer-portfolio-django/internal/apiclient"
	"github.com/KaiSwain/hammer-portfolio-django/internal/certgen"
	"github.com/KaiSwain/hammer-portfolio-django/internal/student"
)

// loadStudent fetches the record sent to the generator. On failure the
// response has already been written.
func (s *server) loadStudent(w http.ResponseWriter, r *http.Request) (student.Student, bool) {
	id, ok := pathInt64(r, "studentID")
	if !ok {
		http.NotFound(w, r)
		return student.Student{}, false
	}
	st, err := s.api.GetStudent(r.Context(), sessionFrom(r), id)
	if err != nil {
		s.fail(w, r, err, "/students", "Unable to load student")
		return student.Student{}, false
	}
	return st, true
}

// claim marks op as running for the student in the URL. When it is already
// running the response has been written.
func (s *server) claim(w http.ResponseWriter, r *http.Request, op string) (func(), bool) {
	id, ok := pathInt64(r, "studentID")
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}
	done, ok := s.running.begin(sessionFrom(r), id, op)
	if !ok {
		redirectWithError(w, r, studentPath(id), busyMessage(op))
		return nil, false
	}
	return done, true
}

// generateCertificates requests every ticked kind. A single document is
// streamed directly; several, or a partial failure, arrive as one bundle.
func (s *server) generateCertificates(w http.ResponseWriter, r *http.Request) {
	done, ok := s.claim(w, r, opCertificates)
	if !ok {
		return
	}
	defer done()
	st, ok := s.loadStudent(w, r)
	if !ok {
		return
	}
	back := studentPath(st.ID)
	if err := r.ParseForm(); err != nil {
		redirectWithError(w, r, back, "invalid form")
		return
	}
	sel := certgen.Selection{}
	for _, raw := range r.PostForm["kinds"] {
		kind, err := certgen.ParseKind(raw)
		if err != nil {
			redirectWithError(w, r, back, err.Error())
			return
		}
		sel[kind] = true
	}

	sink := &certgen.MemorySink{}
	results, err := certgen.NewTrigger(s.api, sink).GenerateSelected(r.Context(), sessionFrom(r), st, sel)
	if errors.Is(err, certgen.ErrNoSelection) {
		redirectWithError(w, r, back, "Please select at least one certificate type.")
		return
	}
	if err != nil {
		s.fail(w, r, err, back, "Certificate generation failed")
		return
	}
	for _, res := range results.Failed() {
		if apiclient.IsUnauthorized(res.Err) {
			s.fail(w, r, res.Err, back, "")
			return
		}
	}

	files := sink.Files()
	failed := results.Failed()
	switch {
	case len(files) == 0:
		redirectWithError(w, r, back, results.Summary())
	case len(files) == 1 && len(failed) == 0:
		sendAttachment(w, files[0].Name, files[0].ContentType, files[0].Data)
	default:
		if len(failed) > 0 {
			files = append(files, certgen.File{Name: "failures.txt", ContentType: "text/plain; charset=utf-8", Data: []byte(results.Summary() + "\n")})
		}
		var buf bytes.Buffer
		if err := certgen.WriteBundle(&buf, files); err != nil {
			s.log.Error().Err(err).Msg("certificate bundle failed")
			redirectWithError(w, r, back, "Unable to package certificates")
			return
		}
		sendAttachment(w, st.FileStem()+"_certificates.tar.xz", "application/x-xz", buf.Bytes())
	}
}

func (s *server) generateAllCertificates(w http.ResponseWriter, r *http.Request) {
	done, ok := s.claim(w, r, opAllCertificates)
	if !ok {
		return
	}
	defer done()
	st, ok := s.loadStudent(w, r)
	if !ok {
		return
	}
	file, err := certgen.NewTrigger(s.api, &certgen.MemorySink{}).GenerateAll(r.Context(), sessionFrom(r), st)
	if err != nil {
		s.fail(w, r, err, studentPath(st.ID), "Failed to generate combined certificates")
		return
	}
	sendAttachment(w, file.Name, file.ContentType, file.Data)
}

func (s *server) generateSummary(w http.ResponseWriter, r *http.Request) {
	done, ok := s.claim(w, r, opSummary)
	if !ok {
		return
	}
	defer done()
	st, ok := s.loadStudent(w, r)
	if !ok {
		return
	}
	file, err := certgen.NewTrigger(s.api, &certgen.MemorySink{}).GenerateSummary(r.Context(), sessionFrom(r), st)
	if err != nil {
		s.fail(w, r, err, studentPath(st.ID), "Failed to generate AI summary")
		return
	}
	sendAttachment(w, file.Name, file.ContentType, file.Data)
}
