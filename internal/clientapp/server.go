// Package clientapp serves the teacher-facing web UI. Every page proxies the
// backend through internal/apiclient; the backend token lives in a signed
// session cookie.
package clientapp

import (
	"bytes"
	"context"
	"crypto/sha256"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"github.com/rs/zerolog"

	"github.com/KaiSwain/hammer-portfolio-django/internal/apiclient"
	"github.com/KaiSwain/hammer-portfolio-django/internal/filework"
	"github.com/KaiSwain/hammer-portfolio-django/internal/logger"
	"github.com/KaiSwain/hammer-portfolio-django/internal/middleware"
	"github.com/KaiSwain/hammer-portfolio-django/internal/session"
)

const (
	csrfFieldName  = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"
	csrfCookieName = "hammer_csrf"
)

//go:embed templates/*.html assets/app.css assets/app.js
var templatesFS embed.FS

type Config struct {
	Addr          string
	APIBaseURL    string
	APITimeout    time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	SessionSecret string
	SessionTTL    time.Duration
	SecureCookies bool
}

type server struct {
	api    *apiclient.Client
	codec  *session.CookieCodec
	secure bool
	log    zerolog.Logger

	uploadPolicy filework.Policy
	running      *inflight

	loginTmpl    *template.Template
	studentsTmpl *template.Template
	studentTmpl  *template.Template
	wizardTmpl   *template.Template
	confirmTmpl  *template.Template
}

type ctxKey int

const sessionKey ctxKey = iota

func newServer(cfg Config) (*server, error) {
	if len(cfg.SessionSecret) < 32 {
		return nil, errors.New("session secret must be at least 32 characters")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	return &server{
		api:          apiclient.New(apiclient.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout}),
		codec:        session.NewCookieCodec(cfg.SessionSecret, cfg.SessionTTL),
		secure:       cfg.SecureCookies,
		log:          logger.WithField("component", "clientapp"),
		uploadPolicy: filework.DefaultPolicy(),
		running:      newInflight(),
		loginTmpl:    parsePage("login.html"),
		studentsTmpl: parsePage("students.html"),
		studentTmpl:  parsePage("student.html"),
		wizardTmpl:   parsePage("wizard.html"),
		confirmTmpl:  parsePage("confirm.html"),
	}, nil
}

func parsePage(name string) *template.Template {
	return template.Must(template.New("layout.html").Funcs(templateFuncs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name))
}

func (s *server) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/assets/app.css", s.appCSSFile)
	r.Get("/assets/app.js", s.appJSFile)
	r.Get("/login", s.loginPage)
	r.Post("/login", s.login)

	r.Group(func(r chi.Router) {
		r.Use(s.requireLogin)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/students", http.StatusFound)
		})
		r.Post("/logout", s.logout)

		r.Get("/students", s.studentsPage)
		r.Get("/students/export", s.exportRoster)
		r.Post("/students/import", s.importRoster)
		r.Get("/students/new", s.newStudentPage)
		r.Post("/students/new", s.newStudentSubmit)

		r.Route("/students/{studentID}", func(r chi.Router) {
			r.Get("/", s.studentDetailPage)
			r.Get("/edit", s.editStudentPage)
			r.Post("/edit", s.editStudentSubmit)
			r.Get("/delete", s.deleteStudentPage)
			r.Post("/delete", s.deleteStudent)

			r.Post("/certificates", s.generateCertificates)
			r.Post("/certificates/all", s.generateAllCertificates)
			r.Post("/summary", s.generateSummary)

			r.Post("/files", s.uploadFiles)
			r.Get("/files/{fileID}/download", s.downloadFile)
			r.Get("/files/{fileID}/preview", s.previewFile)
			r.Get("/files/{fileID}/delete", s.deleteFilePage)
			r.Post("/files/{fileID}/delete", s.deleteFile)
		})
	})
	return r
}

// handler wraps the router with CSRF protection, request ids, access logs
// and security headers.
func (s *server) handler(secret string) http.Handler {
	key := sha256.Sum256([]byte("csrf:" + secret))
	protect := csrf.Protect(key[:],
		csrf.Secure(s.secure),
		csrf.Path("/"),
		csrf.CookieName(csrfCookieName),
		csrf.FieldName(csrfFieldName),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(s.csrfFailure)),
	)
	csp := strings.Join([]string{
		"default-src 'self'",
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data:",
		"script-src 'self'",
		"form-action 'self'",
		"frame-ancestors 'none'",
	}, "; ")
	return middleware.Chain(
		s.routes(),
		middleware.RequestID,
		middleware.AccessLog(s.log),
		middleware.SecurityHeaders(middleware.SecurityHeadersConfig{ContentSecurityPolicy: csp}),
		s.plaintext,
		queryToken,
		protect,
	)
}

// plaintext marks requests as plain HTTP so gorilla/csrf skips its
// HTTPS-only referer check when cookies are not secure.
func (s *server) plaintext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.secure {
			r = csrf.PlaintextHTTPRequest(r)
		}
		next.ServeHTTP(w, r)
	})
}

// queryToken moves a token carried in the URL of a multipart upload into the
// request header. gorilla/csrf then never parses the file parts to find it,
// and the upload handler can stream them.
func queryToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.Header.Get(csrfHeaderName) == "" &&
			strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if token := r.URL.Query().Get(csrfFieldName); token != "" {
				r = r.Clone(r.Context())
				r.Header.Set(csrfHeaderName, token)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) csrfFailure(w http.ResponseWriter, r *http.Request) {
	s.log.Warn().Str("path", r.URL.Path).Err(csrf.FailureReason(r)).Msg("csrf check failed")
	http.Error(w, "Forbidden - invalid form token. Reload the page and try again.", http.StatusForbidden)
}

func Run(ctx context.Context, cfg Config) error {
	s, err := newServer(cfg)
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.handler(cfg.SessionSecret),
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", cfg.Addr).Str("api", s.api.BaseURL()).Msg("client listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// sessionFor binds a session to the request's cookie.
func (s *server) sessionFor(w http.ResponseWriter, r *http.Request) *session.Session {
	sess, err := session.New(session.CookieStore{W: w, R: r, Codec: s.codec, Secure: s.secure})
	if err != nil {
		return session.Anonymous()
	}
	return sess
}

func (s *server) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.sessionFor(w, r)
		if !sess.Authenticated() {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	if sess, ok := r.Context().Value(sessionKey).(*session.Session); ok {
		return sess
	}
	return session.Anonymous()
}

// fail routes an API error back to the user. A 401 has already cleared the
// session cookie, so every such failure lands on the login page.
func (s *server) fail(w http.ResponseWriter, r *http.Request, err error, back, fallback string) {
	if apiclient.IsUnauthorized(err) {
		redirectWithError(w, r, "/login", apiclient.UserMessage(err, fallback))
		return
	}
	s.log.Warn().Err(err).Str("request_id", middleware.RequestIDFrom(r.Context())).Str("path", r.URL.Path).Msg("backend call failed")
	redirectWithError(w, r, back, apiclient.UserMessage(err, fallback))
}

func redirectWithError(w http.ResponseWriter, r *http.Request, path, msg string) {
	http.Redirect(w, r, withQuery(path, "error", msg), http.StatusFound)
}

func redirectWithMessage(w http.ResponseWriter, r *http.Request, path, msg string) {
	http.Redirect(w, r, withQuery(path, "message", msg), http.StatusFound)
}

func withQuery(path, key, value string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + key + "=" + url.QueryEscape(value)
}

func (s *server) render(w http.ResponseWriter, tmpl *template.Template, data pageData) {
	if err := renderHTMLTemplate(w, tmpl, data); err != nil {
		s.log.Error().Err(err).Str("template", tmpl.Name()).Msg("template render failed")
		http.Error(w, "template render failed", http.StatusInternalServerError)
	}
}

func renderHTMLTemplate(w http.ResponseWriter, tmpl *template.Template, data pageData) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := w.Write(buf.Bytes())
	return err
}

func (s *server) appCSSFile(w http.ResponseWriter, r *http.Request) {
	serveAsset(w, r, "assets/app.css", "text/css; charset=utf-8")
}

func (s *server) appJSFile(w http.ResponseWriter, r *http.Request) {
	serveAsset(w, r, "assets/app.js", "text/javascript; charset=utf-8")
}

func serveAsset(w http.ResponseWriter, r *http.Request, name, contentType string) {
	data, err := templatesFS.ReadFile(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(data)
}

func sendAttachment(w http.ResponseWriter, name, contentType string, data []byte) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", contentDisposition("attachment", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

func pathInt64(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}
