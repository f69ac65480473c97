package session

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
)

func TestSetAndClearPersistToFile(t *testing.T) {
	store := FileStore{Path: filepath.Join(t.TempDir(), "nested", "session.json")}
	s, err := New(store)
	if err != nil {
		t.Fatal(err)
	}
	if s.Authenticated() {
		t.Fatal("fresh session should be anonymous")
	}
	if err := s.SetCredentials(Credentials{Token: " abc123 ", Username: "teacher"}); err != nil {
		t.Fatalf("set: %v", err)
	}

	reloaded, err := New(store)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Token() != "abc123" || reloaded.Username() != "teacher" {
		t.Fatalf("reloaded = %q/%q", reloaded.Token(), reloaded.Username())
	}

	if err := reloaded.ClearCredentials(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	again, _ := New(store)
	if again.Authenticated() {
		t.Fatal("credentials survived clear")
	}
}

func TestSetCredentialsRejectsBlankToken(t *testing.T) {
	s := Anonymous()
	if err := s.SetCredentials(Credentials{Token: "   "}); err != ErrNoToken {
		t.Fatalf("err = %v", err)
	}
}

func TestCookieCodecRoundTripAndExpiry(t *testing.T) {
	codec := NewCookieCodec("0123456789abcdef0123456789abcdef", time.Hour)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	codec.now = func() time.Time { return now }

	raw, err := codec.Encode(Credentials{Token: "tok", Username: "ms.rivera"})
	if err != nil {
		t.Fatal(err)
	}
	creds, err := codec.Decode(raw)
	if err != nil || creds.Token != "tok" || creds.Username != "ms.rivera" {
		t.Fatalf("decode = %+v, %v", creds, err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := codec.Decode(raw); err == nil {
		t.Fatal("expected expired cookie to fail")
	}

	other := NewCookieCodec("another-secret-another-secret-xx", time.Hour)
	if _, err := other.Decode(raw); err == nil {
		t.Fatal("expected signature mismatch")
	}
}

func TestCookieStoreSaveLoadClear(t *testing.T) {
	codec := NewCookieCodec("0123456789abcdef0123456789abcdef", time.Hour)
	rec := httptest.NewRecorder()
	s, err := New(CookieStore{W: rec, R: httptest.NewRequest(http.MethodGet, "/", nil), Codec: codec})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetCredentials(Credentials{Token: "tok-1"}); err != nil {
		t.Fatal(err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName || !cookies[0].HttpOnly {
		t.Fatalf("cookies = %+v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec2 := httptest.NewRecorder()
	s2, _ := New(CookieStore{W: rec2, R: req, Codec: codec})
	if s2.Token() != "tok-1" {
		t.Fatalf("token = %q", s2.Token())
	}
	_ = s2.ClearCredentials()
	cleared := rec2.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Fatalf("clear cookie = %+v", cleared)
	}
}

func TestCookieStoreIgnoresGarbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-jwt"})
	s, err := New(CookieStore{W: httptest.NewRecorder(), R: req, Codec: NewCookieCodec("0123456789abcdef0123456789abcdef", time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	if s.Authenticated() {
		t.Fatal("garbage cookie should be anonymous")
	}
}
