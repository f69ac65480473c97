package apiclient

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestClassifySummary(t *testing.T) {
	tests := []struct {
		name     string
		blob     Blob
		wantKind SummaryKind
		wantText string
	}{
		{name: "pdf", blob: Blob{Data: []byte("%PDF-1.7"), ContentType: "application/pdf"}, wantKind: SummaryDocument},
		{name: "json html content", blob: Blob{Data: []byte(`{"success":true,"html_content":"<p>Steady</p>"}`), ContentType: "application/json"}, wantKind: SummaryText, wantText: "<p>Steady</p>"},
		{name: "json prefers html content", blob: Blob{Data: []byte(`{"summary":"Short note.","html_content":"<p>Full report</p>","text":"plain"}`), ContentType: "application/json"}, wantKind: SummaryText, wantText: "<p>Full report</p>"},
		{name: "json summary before text", blob: Blob{Data: []byte(`{"text":"plain","summary":"Short note."}`), ContentType: "application/json"}, wantKind: SummaryText, wantText: "Short note."},
		{name: "json summary", blob: Blob{Data: []byte(`{"summary":"Works well in teams."}`), ContentType: "application/json; charset=utf-8"}, wantKind: SummaryText, wantText: "Works well in teams."},
		{name: "json mislabelled pdf", blob: Blob{Data: []byte("%PDF-1.7 binary"), ContentType: "application/json"}, wantKind: SummaryDocument},
		{name: "json without text", blob: Blob{Data: []byte(`{"success":false}`), ContentType: "application/json"}, wantKind: SummaryDocument},
		{name: "plain text", blob: Blob{Data: []byte(" Detail oriented. "), ContentType: "text/plain"}, wantKind: SummaryText, wantText: "Detail oriented."},
		{name: "missing content type", blob: Blob{Data: []byte("abc")}, wantKind: SummaryDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ClassifySummary(tt.blob)
			if err != nil {
				t.Fatal(err)
			}
			if got.Kind != tt.wantKind {
				t.Fatalf("kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.Text != tt.wantText {
				t.Fatalf("text = %q", got.Text)
			}
			if got.Kind == SummaryDocument && string(got.Document.Data) != string(tt.blob.Data) {
				t.Fatal("document must keep the raw bytes")
			}
		})
	}
}

func TestClassifySummaryEmpty(t *testing.T) {
	if _, err := ClassifySummary(Blob{ContentType: "application/pdf"}); !errors.Is(err, ErrEmptyBody) {
		t.Fatalf("err = %v", err)
	}
}

func TestGenerateSummaryUsesDispositionFilename(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/students/5/personality-summary/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="personality_summary_Lee_Kim.pdf"`)
		_, _ = w.Write([]byte("%PDF"))
	}))
	res, err := c.GenerateSummary(context.Background(), authed(t, "tok"), 5)
	if err != nil || !res.IsDocument() {
		t.Fatalf("res = %+v, %v", res, err)
	}
	if res.Document.Filename != "personality_summary_Lee_Kim.pdf" {
		t.Fatalf("filename = %q", res.Document.Filename)
	}
}
