package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key")
	if err := os.WriteFile(keyFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	emptyFile := filepath.Join(dir, "empty")
	if err := os.WriteFile(emptyFile, []byte("\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TEST_SECRET_KEY", " from-env ")
	t.Setenv("TEST_SECRET_UNSET", "")

	tests := []struct {
		name    string
		src     Source
		expect  string
		wantErr string
	}{
		{name: "file wins", src: Source{File: keyFile, Value: "inline", Env: "TEST_SECRET_KEY"}, expect: "from-file"},
		{name: "inline before env", src: Source{Value: " inline ", Env: "TEST_SECRET_KEY"}, expect: "inline"},
		{name: "env fallback", src: Source{Env: "TEST_SECRET_KEY"}, expect: "from-env"},
		{name: "empty env", src: Source{Name: "api key", Env: "TEST_SECRET_UNSET"}, wantErr: "api key is not configured"},
		{name: "empty file", src: Source{File: emptyFile}, wantErr: "is empty"},
		{name: "missing file", src: Source{Name: "api key", File: filepath.Join(dir, "nope")}, wantErr: "reading api key"},
		{name: "nothing", src: Source{}, wantErr: "secret is not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
