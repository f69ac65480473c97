package clientapp

import (
	"net/http"
	"strings"

	"github.com/gorilla/csrf"

	"github.com/KaiSwain/hammer-portfolio-django/internal/apiclient"
)

func (s *server) loginPage(w http.ResponseWriter, r *http.Request) {
	if s.sessionFor(w, r).Authenticated() {
		http.Redirect(w, r, "/students", http.StatusFound)
		return
	}
	s.render(w, s.loginTmpl, pageData{
		Title:     "Sign in",
		Error:     r.URL.Query().Get("error"),
		Message:   r.URL.Query().Get("message"),
		CSRFField: csrf.TemplateField(r),
	})
}

func (s *server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWithError(w, r, "/login", "Invalid form submission")
		return
	}
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		redirectWithError(w, r, "/login", "Username and password are required")
		return
	}

	sess := s.sessionFor(w, r)
	if err := s.api.Login(r.Context(), sess, username, password); err != nil {
		msg := "Invalid credentials"
		if apiclient.IsTransport(err) {
			msg = apiclient.UserMessage(err, msg)
		}
		s.log.Info().Str("username", username).Err(err).Msg("sign in refused")
		redirectWithError(w, r, "/login", msg)
		return
	}
	http.Redirect(w, r, "/students", http.StatusFound)
}

func (s *server) logout(w http.ResponseWriter, r *http.Request) {
	_ = s.api.Logout(sessionFrom(r))
	redirectWithMessage(w, r, "/login", "Signed out")
}
