package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromCreatesTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ponto", "config.json")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg != Default() {
		t.Errorf("first-run config = %+v, want defaults", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("template not written: %v", err)
	}

	// The template itself must parse back to the defaults.
	again, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom(template): %v", err)
	}
	if again != Default() {
		t.Errorf("template config = %+v, want defaults", again)
	}
}

func TestLoadFromPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `// comment
{
  "user_id": "",
  "timezone": "America/Sao_Paulo",
    // indented comment
  "remote": {"url": "https://backend.example/"}
}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.UserID != DefaultUserID {
		t.Errorf("UserID = %q, want %q", cfg.UserID, DefaultUserID)
	}
	if cfg.Storage.Driver != DefaultDriver {
		t.Errorf("Storage.Driver = %q, want %q", cfg.Storage.Driver, DefaultDriver)
	}
	if cfg.Remote.URL != "https://backend.example" {
		t.Errorf("Remote.URL = %q, want trailing slash trimmed", cfg.Remote.URL)
	}
	if got := cfg.TokenURL(); got != "https://backend.example/auth/v1/token" {
		t.Errorf("TokenURL = %q", got)
	}
	if !cfg.RemoteEnabled() {
		t.Error("RemoteEnabled = false")
	}
}

func TestLoadFromInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}

	cfg.Storage.Driver = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown driver")
	}

	cfg = Default()
	cfg.Timezone = "Mars/Olympus_Mons"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown timezone")
	}
}

func TestLocation(t *testing.T) {
	cfg := Default()
	loc, err := cfg.Location()
	if err != nil || loc != time.Local {
		t.Errorf("empty timezone = %v, %v; want time.Local", loc, err)
	}

	cfg.Timezone = "UTC"
	loc, err = cfg.Location()
	if err != nil || loc.String() != "UTC" {
		t.Errorf("UTC timezone = %v, %v", loc, err)
	}
}

func TestStripLineComments(t *testing.T) {
	in := []byte("// a\n{\n  // b\n  \"x\": \"http://y\"\n}")
	got := string(stripLineComments(in))
	want := "{\n  \"x\": \"http://y\"\n}\n"
	if got != want {
		t.Errorf("stripLineComments = %q, want %q", got, want)
	}
}
