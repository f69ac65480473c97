package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/KaiSwain/hammer-portfolio-django/internal/session"
	"github.com/KaiSwain/hammer-portfolio-django/internal/student"
)

func newTestClient(t *testing.T, h http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/"}), srv
}

func authed(t *testing.T, token string) *session.Session {
	t.Helper()
	s := session.Anonymous()
	if err := s.SetCredentials(session.Credentials{Token: token}); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestLoginStoresToken(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/login/" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("login must not send a token")
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "teacher" || body["password"] != "hunter2hunter2" {
			t.Errorf("body = %v", body)
		}
		_, _ = w.Write([]byte(`{"token":"abc"}`))
	}))

	sess := session.Anonymous()
	if err := c.Login(context.Background(), sess, "teacher", "hunter2hunter2"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Token() != "abc" || sess.Username() != "teacher" {
		t.Fatalf("session = %q/%q", sess.Token(), sess.Username())
	}
}

func TestTokenHeaderAttachedWhenPresent(t *testing.T) {
	var got []string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	}))

	if _, err := c.ListStudents(context.Background(), session.Anonymous()); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ListStudents(context.Background(), authed(t, "tok")); err != nil {
		t.Fatal(err)
	}
	if got[0] != "" || got[1] != "Token tok" {
		t.Fatalf("headers = %q", got)
	}
}

func TestUnauthorizedClearsSession(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Invalid token."}`))
	}))
	sess := authed(t, "stale")

	_, err := c.ListFiles(context.Background(), sess, 4)
	if !IsUnauthorized(err) {
		t.Fatalf("err = %v", err)
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || string(httpErr.Body) != `{"detail":"Invalid token."}` {
		t.Fatalf("raw body not kept: %v", err)
	}
	if sess.Authenticated() {
		t.Fatal("401 must clear credentials")
	}
}

func TestNonSuccessCarriesStatusAndMessage(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"full_name":["This field may not be blank."]}`))
	}))
	sess := authed(t, "tok")

	_, err := c.CreateStudent(context.Background(), sess, map[string]any{"full_name": ""})
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusBadRequest {
		t.Fatalf("err = %v", err)
	}
	if got := UserMessage(err, "fallback"); got != "full_name: This field may not be blank." {
		t.Fatalf("message = %q", got)
	}
	if !sess.Authenticated() {
		t.Fatal("non-401 errors keep the session")
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := New(Config{BaseURL: base})
	_, err := c.GetStudent(context.Background(), authed(t, "tok"), 1)
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if got := UserMessage(err, ""); !strings.Contains(got, "try again") {
		t.Fatalf("message = %q", got)
	}
}

func TestStudentCRUDPaths(t *testing.T) {
	var seen []string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case http.MethodPost, http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			var in map[string]any
			_ = json.Unmarshal(body, &in)
			_ = json.NewEncoder(w).Encode(map[string]any{"id": 12, "full_name": in["full_name"]})
		default:
			_, _ = w.Write([]byte(`{"id": 12, "full_name": "Dana Reyes", "pretest_score": 5}`))
		}
	}))
	ctx := context.Background()
	sess := authed(t, "tok")

	created, err := c.CreateStudent(ctx, sess, map[string]any{"full_name": "Dana Reyes"})
	if err != nil || created.ID != 12 || created.FullName != "Dana Reyes" {
		t.Fatalf("create = %+v, %v", created, err)
	}
	got, err := c.GetStudent(ctx, sess, 12)
	if err != nil || got.PretestScore == nil || *got.PretestScore != 5 {
		t.Fatalf("get = %+v, %v", got, err)
	}
	if _, err := c.UpdateStudent(ctx, sess, 12, map[string]any{"full_name": "Dana R."}); err != nil {
		t.Fatal(err)
	}
	if err := c.DeleteStudent(ctx, sess, 12); err != nil {
		t.Fatalf("delete with 204: %v", err)
	}

	want := []string{"POST /api/students/", "GET /api/students/12/", "PUT /api/students/12/", "DELETE /api/students/12/"}
	if strings.Join(seen, "|") != strings.Join(want, "|") {
		t.Fatalf("calls = %v", seen)
	}
}

func TestUploadFileSendsMultipart(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/students/3/files/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "resume.pdf" || string(data) != "%PDF-1.4" {
			t.Errorf("got %s %q", header.Filename, data)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 91, "message": "File uploaded successfully"}`))
	}))

	res, err := c.UploadFile(context.Background(), authed(t, "tok"), 3, "resume.pdf", strings.NewReader("%PDF-1.4"))
	if err != nil || res.ID != 91 {
		t.Fatalf("upload = %+v, %v", res, err)
	}
}

func TestTwoStepDownload(t *testing.T) {
	var rawAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/files/8/download/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"download_url": "/raw/8/xyz", "filename": "renamed.pdf", "content_type": "application/pdf", "size_bytes": 4}`))
	})
	mux.HandleFunc("/raw/8/xyz", func(w http.ResponseWriter, r *http.Request) {
		rawAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("data"))
	})
	c, _ := newTestClient(t, mux)
	ctx := context.Background()
	sess := authed(t, "tok")

	ref, err := c.FileDownloadRef(ctx, sess, 8)
	if err != nil || ref.Filename != "renamed.pdf" {
		t.Fatalf("ref = %+v, %v", ref, err)
	}
	blob, err := c.FetchDownload(ctx, sess, ref)
	if err != nil || string(blob.Data) != "data" {
		t.Fatalf("blob = %+v, %v", blob, err)
	}
	if rawAuth != "Token tok" {
		t.Fatalf("same-host download should carry token, got %q", rawAuth)
	}
}

func TestFetchDownloadDoesNotLeakTokenOffHost(t *testing.T) {
	var auth string
	storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("bytes"))
	}))
	defer storage.Close()
	c, _ := newTestClient(t, http.NotFoundHandler())

	if _, err := c.FetchDownload(context.Background(), authed(t, "tok"), DownloadRef{DownloadURL: storage.URL + "/signed"}); err != nil {
		t.Fatal(err)
	}
	if auth != "" {
		t.Fatalf("token leaked to storage host: %q", auth)
	}
}

func TestGenerateCertificate(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Student student.Student `json:"student"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if r.URL.Path == "/api/generate/nccer/" {
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF " + body.Student.FullName))
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
	}))
	ctx := context.Background()
	sess := authed(t, "tok")

	blob, err := c.GenerateCertificate(ctx, sess, "nccer", student.Student{FullName: "Jo Park"})
	if err != nil || string(blob.Data) != "%PDF Jo Park" {
		t.Fatalf("blob = %q, %v", blob.Data, err)
	}
	if _, err := c.GenerateAll(ctx, sess, student.Student{FullName: "Jo Park"}); !errors.Is(err, ErrEmptyBody) {
		t.Fatalf("empty body err = %v", err)
	}
}
