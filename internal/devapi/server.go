// Package devapi is an in-memory stand-in for the program's REST backend,
// used for local development of the web client and the CLI.
package devapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/KaiSwain/hammer-portfolio-django/internal/logger"
	"github.com/KaiSwain/hammer-portfolio-django/internal/middleware"
	"github.com/KaiSwain/hammer-portfolio-django/internal/security"
)

const (
	defaultMaxUpload = 100 << 20
	downloadTTL      = time.Hour
)

type contextKey string

const userContextKey contextKey = "user"

type Config struct {
	Addr            string
	TeacherUsername string
	TeacherPassword string
	// MaxUploadBytes defaults to 100MB.
	MaxUploadBytes int64
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Server struct {
	store        *store
	username     string
	passwordHash string
	maxUpload    int64
	log          zerolog.Logger
	handler      http.Handler
}

func New(cfg Config) (*Server, error) {
	username := strings.TrimSpace(cfg.TeacherUsername)
	if username == "" || cfg.TeacherPassword == "" {
		return nil, errors.New("teacher username and password are required")
	}
	hash, err := security.HashPassword(cfg.TeacherPassword)
	if err != nil {
		return nil, fmt.Errorf("hash teacher password: %w", err)
	}
	s := &Server{
		store:        newStore(),
		username:     username,
		passwordHash: hash,
		maxUpload:    cfg.MaxUploadBytes,
		log:          logger.WithField("component", "devapi"),
	}
	if s.maxUpload <= 0 {
		s.maxUpload = defaultMaxUpload
	}
	s.handler = middleware.Chain(
		s.routes(),
		middleware.RequestID,
		middleware.AccessLog(s.log),
		middleware.SecurityHeaders(middleware.SecurityHeadersConfig{ContentSecurityPolicy: "default-src 'none'"}),
	)
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/api/health/", s.health)
	r.Post("/api/login/", s.login)
	r.Get("/api/files/{fileID}/raw/", s.rawDownload)

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/api/details/", s.details)
		r.Get("/api/students/", s.listStudents)
		r.Post("/api/students/", s.createStudent)
		r.Get("/api/students/{studentID}/", s.getStudent)
		r.Put("/api/students/{studentID}/", s.updateStudent)
		r.Delete("/api/students/{studentID}/", s.deleteStudent)
		r.Get("/api/students/{studentID}/files/", s.listFiles)
		r.Post("/api/students/{studentID}/files/", s.uploadFile)
		r.Post("/api/students/{studentID}/personality-summary/", s.personalitySummary)
		r.Delete("/api/files/{fileID}/", s.deleteFile)
		r.Get("/api/files/{fileID}/download/", s.downloadRef)
		r.Post("/api/generate/{kind}/", s.generate)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method %q not allowed.", r.Method))
	})
	return r
}

func Run(ctx context.Context, cfg Config) error {
	s, err := New(cfg)
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", cfg.Addr).Str("teacher", s.username).Msg("dev api listening")
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

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "hammer-dev-api",
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	if req.Username != s.username || !security.VerifyPassword(req.Password, s.passwordHash) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token := s.store.issueToken(req.Username)
	s.log.Info().Str("username", req.Username).Msg("teacher signed in")
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "token": token})
}

func (s *Server) details(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.details)
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
		if !ok || scheme != "Token" || strings.TrimSpace(token) == "" {
			writeError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		user, found := s.store.lookupToken(strings.TrimSpace(token))
		if !found {
			writeError(w, http.StatusUnauthorized, "Invalid token.")
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFromContext(ctx context.Context) string {
	user, _ := ctx.Value(userContextKey).(string)
	return user
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
