package envutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteThenLoadKeepsExistingEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	values := map[string]string{
		"HAMMER_TEST_BASE": "http://localhost:8000",
		"HAMMER_TEST_KEEP": "from-file",
	}
	if err := WriteDotEnv(path, values, false); err != nil {
		t.Fatalf("write: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v", info.Mode().Perm())
	}

	t.Setenv("HAMMER_TEST_KEEP", "from-env")
	os.Unsetenv("HAMMER_TEST_BASE")
	t.Cleanup(func() { os.Unsetenv("HAMMER_TEST_BASE") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("HAMMER_TEST_BASE"); got != "http://localhost:8000" {
		t.Fatalf("HAMMER_TEST_BASE = %q", got)
	}
	if got := os.Getenv("HAMMER_TEST_KEEP"); got != "from-env" {
		t.Fatalf("existing env overridden: %q", got)
	}
}

func TestWriteRefusesOverwriteWithoutForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := WriteDotEnv(path, map[string]string{"A": "1"}, false); err != nil {
		t.Fatal(err)
	}
	if err := WriteDotEnv(path, map[string]string{"A": "2"}, false); err == nil {
		t.Fatal("expected error on second write")
	}
	if err := WriteDotEnv(path, map[string]string{"A": "2"}, true); err != nil {
		t.Fatalf("forced write: %v", err)
	}
}

func TestLoadMissingFileIsNoop(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
