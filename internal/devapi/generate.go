package devapi

import (
	"html"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/KaiSwain/hammer-portfolio-django/internal/student"
)

var certificateTitles = map[string]string{
	"osha":          "OSHA 10 Completion",
	"nccer":         "NCCER Core Curriculum",
	"hammermath":    "HammerMath",
	"employability": "Employability Skills",
	"workforce":     "Workforce Readiness (50-hour)",
	"portfolio":     "Student Portfolio",
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	st, err := certificateStudent(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Student data is required")
		return
	}

	var pages []pdfPage
	filename := st.FileStem() + "_" + kind + ".pdf"
	switch {
	case kind == "all":
		for _, slug := range []string{"osha", "nccer", "hammermath", "employability", "workforce", "portfolio"} {
			pages = append(pages, certificatePage(certificateTitles[slug], st))
		}
		filename = st.FileStem() + "_Certificates_Master.pdf"
	case certificateTitles[kind] != "":
		pages = append(pages, certificatePage(certificateTitles[kind], st))
	default:
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	s.log.Info().Str("kind", kind).Str("student", st.FullName).Msg("certificate rendered")
	writePDF(w, filename, renderPDF(pages))
}

func certificatePage(title string, st student.Student) pdfPage {
	lines := []string{"This certifies that", st.FullName, "has completed " + title + "."}
	if st.EndDate != "" {
		lines = append(lines, "Completed "+student.FormatDate(st.EndDate))
	}
	return pdfPage{Title: "Certificate of Completion", Lines: lines}
}

// personalitySummary answers with JSON text by default and with a document
// when the caller asks for PDF.
func (s *Server) personalitySummary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "studentID")
	if !ok {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	st, err := s.store.getStudent(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Student not found")
		return
	}
	paragraphs := summaryParagraphs(st)

	if wantsPDF(r) {
		page := pdfPage{Title: "AI Personality Summary", Lines: append([]string{st.FullName}, paragraphs...)}
		writePDF(w, "personality_summary_"+st.FileStem()+".pdf", renderPDF([]pdfPage{page}))
		return
	}

	var b strings.Builder
	b.WriteString("<h2>Personality Summary for " + html.EscapeString(st.FullName) + "</h2>\n")
	for _, p := range paragraphs {
		b.WriteString("<p>" + html.EscapeString(p) + "</p>\n")
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"student_name": st.FullName,
		"html_content": b.String(),
	})
}

func wantsPDF(r *http.Request) bool {
	if r.URL.Query().Get("format") == "pdf" {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/pdf") && !strings.Contains(accept, "application/json")
}

func summaryParagraphs(st student.Student) []string {
	var out []string
	if st.DiscAssessmentType != nil {
		out = append(out, "DISC profile: "+st.DiscAssessmentType.TypeName+".")
	}
	if st.SixteenTypesAssessment != nil {
		out = append(out, "Sixteen types result: "+st.SixteenTypesAssessment.TypeName+".")
	}
	if st.EnneagramResult != nil {
		out = append(out, "Enneagram: "+st.EnneagramResult.ResultName+".")
	}
	if len(out) == 0 {
		out = append(out, "No assessment results are on file yet.")
	}
	if delta, ok := st.ScoreDelta(); ok {
		switch {
		case delta > 0:
			out = append(out, "Test scores improved by "+strconv.Itoa(delta)+" point(s).")
		case delta < 0:
			out = append(out, "Test scores dropped by "+strconv.Itoa(-delta)+" point(s).")
		default:
			out = append(out, "Test scores held steady.")
		}
	}
	return out
}

func writePDF(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
