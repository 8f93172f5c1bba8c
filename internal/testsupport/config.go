package testsupport

import (
	"path/filepath"
	"testing"

	"cdjexport/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Library.DatabasePath = filepath.Join(base, "master.db")
	cfgVal.Library.Format = config.FormatAuto

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDatabase points the test config at an existing library file.
func WithDatabase(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Library.DatabasePath = path
	}
}

// WithDevice applies fn to the device section.
func WithDevice(fn func(*config.Device)) ConfigOption {
	return func(b *configBuilder) {
		fn(&b.cfg.Device)
	}
}

// WithExport applies fn to the export section.
func WithExport(fn func(*config.Export)) ConfigOption {
	return func(b *configBuilder) {
		fn(&b.cfg.Export)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
