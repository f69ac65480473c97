package certgen

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/KaiSwain/hammer-portfolio-django/internal/apiclient"
	"github.com/KaiSwain/hammer-portfolio-django/internal/session"
	"github.com/KaiSwain/hammer-portfolio-django/internal/student"
)

type fakeAPI struct {
	requests []string
	failSlug map[string]error
	summary  apiclient.SummaryResult
}

func (f *fakeAPI) GenerateCertificate(ctx context.Context, sess *session.Session, slug string, st student.Student) (apiclient.Blob, error) {
	f.requests = append(f.requests, slug)
	if err := f.failSlug[slug]; err != nil {
		return apiclient.Blob{}, err
	}
	return apiclient.Blob{Data: []byte("%PDF " + slug), ContentType: "application/pdf"}, nil
}

func (f *fakeAPI) GenerateAll(ctx context.Context, sess *session.Session, st student.Student) (apiclient.Blob, error) {
	f.requests = append(f.requests, "all")
	return apiclient.Blob{Data: []byte("%PDF all")}, nil
}

func (f *fakeAPI) GenerateSummary(ctx context.Context, sess *session.Session, id int64) (apiclient.SummaryResult, error) {
	f.requests = append(f.requests, "summary")
	return f.summary, nil
}

var jo = student.Student{ID: 4, FullName: "Jo  Park"}

func TestPartialFailureIsReportedPerKind(t *testing.T) {
	api := &fakeAPI{failSlug: map[string]error{
		"osha": &apiclient.HTTPError{Status: http.StatusInternalServerError, Body: []byte(`{"error":"template missing"}`)},
	}}
	sink := &MemorySink{}
	trig := NewTrigger(api, sink)

	results, err := trig.GenerateSelected(context.Background(), session.Anonymous(), jo, SelectionOf(KindHammerMath, KindOSHA))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(api.requests, ",") != "osha,hammermath" {
		t.Fatalf("requests = %v", api.requests)
	}
	if len(results) != 2 || results[0].Kind != KindOSHA || results[0].Err == nil || results[1].Err != nil {
		t.Fatalf("results = %+v", results)
	}
	files := sink.Files()
	if len(files) != 1 || files[0].Name != "Jo_Park_hammermath.pdf" {
		t.Fatalf("delivered = %+v", files)
	}
	want := "1 of 2 certificate(s) failed:\nOSHA: template missing"
	if results.Summary() != want {
		t.Fatalf("summary = %q", results.Summary())
	}
}

func TestSinkFailureOnlyAffectsThatKind(t *testing.T) {
	api := &fakeAPI{}
	calls := 0
	sink := SinkFunc(func(f File) error {
		calls++
		if strings.Contains(f.Name, "nccer") {
			return errors.New("disk full")
		}
		return nil
	})
	results, _ := NewTrigger(api, sink).GenerateSelected(context.Background(), session.Anonymous(), jo, SelectionOf(KindNCCER, KindPortfolio))
	if calls != 2 || len(results.Failed()) != 1 || results.Failed()[0].Kind != KindNCCER {
		t.Fatalf("results = %+v", results)
	}
}

func TestEmptySelection(t *testing.T) {
	_, err := NewTrigger(&fakeAPI{}, &MemorySink{}).GenerateSelected(context.Background(), session.Anonymous(), jo, Selection{})
	if !errors.Is(err, ErrNoSelection) {
		t.Fatalf("err = %v", err)
	}
}

func TestGenerateAllName(t *testing.T) {
	sink := &MemorySink{}
	f, err := NewTrigger(&fakeAPI{}, sink).GenerateAll(context.Background(), session.Anonymous(), jo)
	if err != nil {
		t.Fatal(err)
	}
	if f.Name != "Jo_Park_Certificates_Master.pdf" || f.ContentType != "application/pdf" {
		t.Fatalf("file = %+v", f)
	}
}

func TestGenerateSummaryVariants(t *testing.T) {
	tests := []struct {
		name     string
		result   apiclient.SummaryResult
		wantName string
		wantBody string
	}{
		{
			name:     "document with server name",
			result:   apiclient.SummaryResult{Kind: apiclient.SummaryDocument, Document: apiclient.Blob{Data: []byte("%PDF"), Filename: "personality_summary_Jo_Park.pdf"}},
			wantName: "personality_summary_Jo_Park.pdf",
			wantBody: "%PDF",
		},
		{
			name:     "document without name",
			result:   apiclient.SummaryResult{Kind: apiclient.SummaryDocument, Document: apiclient.Blob{Data: []byte("%PDF")}},
			wantName: "Jo_Park_ai_summary.pdf",
			wantBody: "%PDF",
		},
		{
			name:     "plain text",
			result:   apiclient.SummaryResult{Kind: apiclient.SummaryText, Text: "Calm under pressure."},
			wantName: "Jo_Park_ai_summary.txt",
			wantBody: "Calm under pressure.",
		},
		{
			name:     "html text",
			result:   apiclient.SummaryResult{Kind: apiclient.SummaryText, Text: "<p>Calm under pressure.</p>"},
			wantName: "Jo_Park_ai_summary.html",
			wantBody: "<p>Calm under pressure.</p>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &MemorySink{}
			f, err := NewTrigger(&fakeAPI{summary: tt.result}, sink).GenerateSummary(context.Background(), session.Anonymous(), jo)
			if err != nil {
				t.Fatal(err)
			}
			if f.Name != tt.wantName || !bytes.Contains(f.Data, []byte(tt.wantBody)) {
				t.Fatalf("file = %s %q", f.Name, f.Data)
			}
			if len(sink.Files()) != 1 {
				t.Fatal("summary not delivered")
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	for raw, want := range map[string]Kind{"osha": KindOSHA, "HammerMath": KindHammerMath, " nccer ": KindNCCER, "50-hour": KindWorkforce} {
		got, err := ParseKind(raw)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v", raw, got, err)
		}
	}
	if _, err := ParseKind("forklift"); err == nil {
		t.Error("expected error")
	}
	if got := DefaultSelection().Kinds(); len(got) != 2 || got[0] != KindOSHA || got[1] != KindHammerMath {
		t.Errorf("default selection = %v", got)
	}
}

func TestBundleRoundTrip(t *testing.T) {
	files := []File{
		{Name: "Jo_Park_osha.pdf", Data: []byte("%PDF osha")},
		{Name: "Jo_Park_ai_summary.txt", Data: []byte("text")},
	}
	var buf bytes.Buffer
	if err := WriteBundle(&buf, files); err != nil {
		t.Fatal(err)
	}
	got, err := ReadBundle(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Name != "Jo_Park_osha.pdf" || string(got[1].Data) != "text" {
		t.Fatalf("bundle = %+v", got)
	}
	if got[0].ContentType != "application/pdf" {
		t.Fatalf("content type = %q", got[0].ContentType)
	}
}
