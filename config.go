package templatesync

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config carries the collaborator endpoints and tuning knobs an editing
// deployment needs. All catalog, upload and render persistence lives behind
// these endpoints; the module itself only keeps local drafts.
type Config struct {
	// CompanyID scopes every catalog lookup to one tenant.
	CompanyID string `yaml:"company_id" validate:"required"`

	// CatalogBaseURL is the root of the tabular data service's search API.
	CatalogBaseURL string `yaml:"catalog_base_url" validate:"required,url"`

	// UploadURL accepts multipart file uploads and returns hosted URLs.
	UploadURL string `yaml:"upload_url" validate:"required,url"`

	// RenderURL accepts a template source graph and renders it.
	RenderURL string `yaml:"render_url" validate:"required,url"`

	// DraftDBPath is the sqlite file for local modification-set autosave.
	// Empty disables drafts.
	DraftDBPath string `yaml:"draft_db_path"`

	// SeekLeadSeconds is the lead applied by the visibility seek. Zero means
	// DefaultSeekLead.
	SeekLeadSeconds float64 `yaml:"seek_lead_seconds" validate:"gte=0"`

	// DebounceMillis is the text-channel quiet window. Zero means
	// DefaultDebounceWindow.
	DebounceMillis int `yaml:"debounce_millis" validate:"gte=0"`

	// ListenAddr is where the editor server listens, e.g. ":8090".
	ListenAddr string `yaml:"listen_addr"`
}

// SeekLead returns the configured lead, falling back to the default.
func (c *Config) SeekLead() float64 {
	if c.SeekLeadSeconds > 0 {
		return c.SeekLeadSeconds
	}
	return DefaultSeekLead
}

// DebounceWindow returns the configured window, falling back to the default.
func (c *Config) DebounceWindow() time.Duration {
	if c.DebounceMillis > 0 {
		return time.Duration(c.DebounceMillis) * time.Millisecond
	}
	return DefaultDebounceWindow
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8090"
	}
	return &cfg, nil
}
