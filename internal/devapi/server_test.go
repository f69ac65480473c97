package devapi

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"strings"
	"testing"

	"github.com/KaiSwain/hammer-portfolio-django/internal/apiclient"
	"github.com/KaiSwain/hammer-portfolio-django/internal/session"
)

const testPassword = "correct-horse-battery"

func newTestAPI(t *testing.T) (*apiclient.Client, *session.Session, *httptest.Server) {
	t.Helper()
	s, err := New(Config{TeacherUsername: "teacher", TeacherPassword: testPassword})
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	client := apiclient.New(apiclient.Config{BaseURL: srv.URL})
	sess := session.Anonymous()
	if err := client.Login(context.Background(), sess, "teacher", testPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	return client, sess, srv
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(Config{TeacherUsername: "teacher"}); err == nil {
		t.Fatal("expected error without password")
	}
	if _, err := New(Config{TeacherUsername: "teacher", TeacherPassword: "short"}); err == nil {
		t.Fatal("expected error for short password")
	}
}

func TestLoginAndTokenCheck(t *testing.T) {
	client, sess, _ := newTestAPI(t)
	ctx := context.Background()

	bad := session.Anonymous()
	err := client.Login(ctx, bad, "teacher", "wrong-password-here")
	if !apiclient.IsUnauthorized(err) || bad.Authenticated() {
		t.Fatalf("err = %v", err)
	}

	if _, err := client.ListStudents(ctx, session.Anonymous()); !apiclient.IsUnauthorized(err) {
		t.Fatalf("anonymous list err = %v", err)
	}
	if err := client.Health(ctx); err != nil {
		t.Fatalf("health: %v", err)
	}
	details, err := client.Details(ctx, sess)
	if err != nil {
		t.Fatal(err)
	}
	if len(details.OshaTypes) != 4 || details.OshaTypes[0].Name != "OSHA 10-Hour Construction" {
		t.Fatalf("osha types = %+v", details.OshaTypes)
	}
}

func TestStudentLifecycle(t *testing.T) {
	client, sess, _ := newTestAPI(t)
	ctx := context.Background()

	list, err := client.ListStudents(ctx, sess)
	if err != nil {
		t.Fatal(err)
	}
	if list.Ok() || list.Items == nil {
		t.Fatalf("expected empty list, got %+v", list)
	}

	_, err = client.CreateStudent(ctx, sess, map[string]any{
		"full_name":           "Ana Ruiz",
		"passed_osha_10_exam": true,
	})
	var httpErr *apiclient.HTTPError
	if !asHTTPError(err, &httpErr) || httpErr.Status != http.StatusBadRequest {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(string(httpErr.Body), "Required if OSHA exam passed.") {
		t.Fatalf("body = %s", httpErr.Body)
	}

	created, err := client.CreateStudent(ctx, sess, map[string]any{
		"full_name":            "Ana Ruiz",
		"passed_osha_10_exam":  true,
		"osha_completion_date": "2025-02-14",
		"osha_type_id":         1,
		"gender_identity_id":   2,
		"pretest_score":        5,
		"posttest_score":       nil,
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == 0 || created.OshaType == nil || created.GenderIdentity.Gender != "Female" || *created.PretestScore != 5 {
		t.Fatalf("created = %+v", created)
	}

	updated, err := client.UpdateStudent(ctx, sess, created.ID, map[string]any{
		"full_name":          "Ana Ruiz-Soto",
		"gender_identity_id": nil,
		"start_date":         "2025-03-01",
		"end_date":           "2025-01-01",
	})
	if err == nil {
		t.Fatalf("expected end date error, got %+v", updated)
	}
	updated, err = client.UpdateStudent(ctx, sess, created.ID, map[string]any{
		"full_name":          "Ana Ruiz-Soto",
		"gender_identity_id": nil,
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.FullName != "Ana Ruiz-Soto" || updated.GenderIdentity != nil || updated.OshaType == nil {
		t.Fatalf("updated = %+v", updated)
	}

	list, err = client.ListStudents(ctx, sess)
	if err != nil || !list.Ok() || len(list.Items) != 1 {
		t.Fatalf("list = %+v err = %v", list, err)
	}

	if err := client.DeleteStudent(ctx, sess, created.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := client.GetStudent(ctx, sess, created.ID); !apiclient.IsNotFound(err) {
		t.Fatalf("get after delete err = %v", err)
	}
}

func TestFileUploadDownloadDelete(t *testing.T) {
	client, sess, srv := newTestAPI(t)
	ctx := context.Background()
	st, err := client.CreateStudent(ctx, sess, map[string]any{"full_name": "Jo Park"})
	if err != nil {
		t.Fatal(err)
	}

	res, err := client.UploadFile(ctx, sess, st.ID, "resume.txt", strings.NewReader("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if res.ID == 0 || res.Message != "File uploaded successfully" {
		t.Fatalf("upload = %+v", res)
	}

	files, err := client.ListFiles(ctx, sess, st.ID)
	if err != nil || len(files.Items) != 1 || files.Items[0].OriginalFilename != "resume.txt" || files.Items[0].UploadedByName != "teacher" {
		t.Fatalf("files = %+v err = %v", files, err)
	}

	ref, err := client.FileDownloadRef(ctx, sess, res.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ref.Filename != "resume.txt" || ref.SizeBytes != 5 {
		t.Fatalf("ref = %+v", ref)
	}
	blob, err := client.FetchDownload(ctx, sess, ref)
	if err != nil || string(blob.Data) != "hello" {
		t.Fatalf("blob = %+v err = %v", blob, err)
	}

	resp, err := http.Get(srv.URL + "/api/files/" + itoa64(res.ID) + "/raw/?sig=forged")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("forged signature status = %d", resp.StatusCode)
	}

	if err := client.DeleteFile(ctx, sess, res.ID); err != nil {
		t.Fatal(err)
	}
	files, _ = client.ListFiles(ctx, sess, st.ID)
	if files.Ok() {
		t.Fatalf("files after delete = %+v", files)
	}
}

func TestUploadRejectsDangerousContentType(t *testing.T) {
	client, sess, srv := newTestAPI(t)
	st, err := client.CreateStudent(context.Background(), sess, map[string]any{"full_name": "Jo Park"})
	if err != nil {
		t.Fatal(err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="setup.bin"`)
	h.Set("Content-Type", "application/x-msdownload")
	part, _ := mw.CreatePart(h)
	_, _ = part.Write([]byte("MZ"))
	_ = mw.Close()

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/students/"+itoa64(st.ID)+"/files/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Token "+sess.Token())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestUploadSizeLimit(t *testing.T) {
	s, err := New(Config{TeacherUsername: "teacher", TeacherPassword: testPassword, MaxUploadBytes: 8})
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	client := apiclient.New(apiclient.Config{BaseURL: srv.URL})
	sess := session.Anonymous()
	ctx := context.Background()
	if err := client.Login(ctx, sess, "teacher", testPassword); err != nil {
		t.Fatal(err)
	}
	st, _ := client.CreateStudent(ctx, sess, map[string]any{"full_name": "Jo Park"})
	_, err = client.UploadFile(ctx, sess, st.ID, "big.txt", strings.NewReader("0123456789"))
	if apiclient.UserMessage(err, "") != "File size exceeds 8 byte limit" {
		t.Fatalf("err = %v", err)
	}
}

func TestCertificatesAndSummary(t *testing.T) {
	client, sess, _ := newTestAPI(t)
	ctx := context.Background()
	st, err := client.CreateStudent(ctx, sess, map[string]any{
		"full_name":               "Jo Park",
		"disc_assessment_type_id": 1,
		"pretest_score":           4,
		"posttest_score":          9,
	})
	if err != nil {
		t.Fatal(err)
	}

	blob, err := client.GenerateCertificate(ctx, sess, "osha", st)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(blob.Data, []byte("%PDF-1.4")) || blob.Filename != "Jo_Park_osha.pdf" {
		t.Fatalf("blob = %s %q", blob.Filename, blob.Data[:8])
	}
	if !bytes.Contains(blob.Data, []byte("(Jo Park) Tj")) {
		t.Fatal("name missing from certificate")
	}

	all, err := client.GenerateAll(ctx, sess, st)
	if err != nil || all.Filename != "Jo_Park_Certificates_Master.pdf" || !bytes.Contains(all.Data, []byte("/Count 6")) {
		t.Fatalf("all = %s err = %v", all.Filename, err)
	}

	if _, err := client.GenerateCertificate(ctx, sess, "forklift", st); !apiclient.IsNotFound(err) {
		t.Fatalf("unknown kind err = %v", err)
	}

	summary, err := client.GenerateSummary(ctx, sess, st.ID)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Kind != apiclient.SummaryText || !strings.Contains(summary.Text, "D - Dominance") || !strings.Contains(summary.Text, "improved by 5") {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestRenderPDFOffsets(t *testing.T) {
	out := renderPDF([]pdfPage{{Title: "A (test)", Lines: []string{`back\slash`}}})
	if !bytes.Contains(out, []byte(`(A \(test\)) Tj`)) || !bytes.Contains(out, []byte(`(back\\slash) Tj`)) {
		t.Fatalf("escaping failed:\n%s", out)
	}
	idx := bytes.Index(out, []byte("xref\n"))
	if !bytes.Contains(out, []byte("startxref\n"+itoa64(int64(idx))+"\n")) {
		t.Fatal("startxref does not point at xref table")
	}
	if !bytes.HasSuffix(out, []byte("%%EOF\n")) {
		t.Fatal("missing EOF marker")
	}
}

func asHTTPError(err error, target **apiclient.HTTPError) bool {
	return errors.As(err, target)
}

func itoa64(n int64) string {
	return strconv.FormatInt(n, 10)
}
