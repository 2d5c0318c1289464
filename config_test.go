package templatesync

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "templatesync.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// TestLoadConfig_Valid applies defaults for the optional knobs.
func TestLoadConfig_Valid(t *testing.T) {
	path := writeConfig(t, `
company_id: acme
catalog_base_url: https://data.example.com/api
upload_url: https://uploads.example.com/files
render_url: https://render.example.com/jobs
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.CompanyID != "acme" {
		t.Errorf("CompanyID = %q", cfg.CompanyID)
	}
	if cfg.SeekLead() != DefaultSeekLead {
		t.Errorf("SeekLead = %v, want default", cfg.SeekLead())
	}
	if cfg.DebounceWindow() != DefaultDebounceWindow {
		t.Errorf("DebounceWindow = %v, want default", cfg.DebounceWindow())
	}
	if cfg.ListenAddr != ":8090" {
		t.Errorf("ListenAddr = %q, want :8090", cfg.ListenAddr)
	}
}

// TestLoadConfig_Overrides.
func TestLoadConfig_Overrides(t *testing.T) {
	path := writeConfig(t, `
company_id: acme
catalog_base_url: https://data.example.com/api
upload_url: https://uploads.example.com/files
render_url: https://render.example.com/jobs
seek_lead_seconds: 2.5
debounce_millis: 150
listen_addr: ":9999"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.SeekLead() != 2.5 {
		t.Errorf("SeekLead = %v, want 2.5", cfg.SeekLead())
	}
	if cfg.DebounceWindow() != 150*time.Millisecond {
		t.Errorf("DebounceWindow = %v, want 150ms", cfg.DebounceWindow())
	}
	if cfg.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
}

// TestLoadConfig_MissingRequiredField fails validation.
func TestLoadConfig_MissingRequiredField(t *testing.T) {
	path := writeConfig(t, `
catalog_base_url: https://data.example.com/api
upload_url: https://uploads.example.com/files
render_url: https://render.example.com/jobs
`)

	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig accepted a config without company_id")
	}
}

// TestLoadConfig_BadURL fails validation.
func TestLoadConfig_BadURL(t *testing.T) {
	path := writeConfig(t, `
company_id: acme
catalog_base_url: not a url
upload_url: https://uploads.example.com/files
render_url: https://render.example.com/jobs
`)

	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig accepted a malformed catalog_base_url")
	}
}
