package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-cvpipe/internal/config"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cvpipe.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
}

func TestLoadSample(t *testing.T) {
	cfg, err := config.Load(writeFile(t, config.Sample))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
log_level = "debug"
output_format = "jpeg"
workers = 2
measure = true
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	expected := config.Default()
	expected.LogLevel = "debug"
	expected.OutputFormat = "jpeg"
	expected.Workers = 2
	expected.Measure = true

	assert.Equal(t, expected, cfg)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "workers = 2\nlog_format = \"json\"\n")

	t.Setenv("CVPIPE_WORKERS", "8")
	t.Setenv("CVPIPE_KEEP_INTERMEDIATES", "true")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.KeepIntermediates)
}

func TestLoadErrors(t *testing.T) {
	tcs := map[string]struct {
		env  map[string]string
		file string
	}{
		"missing file":     {file: "-"},
		"malformed file":   {file: "workers = "},
		"unknown key":      {file: "threads = 3\n"},
		"bad env value":    {env: map[string]string{"CVPIPE_WORKERS": "many"}},
		"zero workers":     {file: "workers = 0\n"},
		"bad log format":   {env: map[string]string{"CVPIPE_LOG_FORMAT": "xml"}},
		"bad jpeg quality": {file: "jpeg_quality = 101\n"},
		"bad output":       {file: "output_format = \"gif\"\n"},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			var path string

			switch tc.file {
			case "":
			case "-":
				path = filepath.Join(t.TempDir(), "missing.toml")
			default:
				path = writeFile(t, tc.file)
			}

			_, err := config.Load(path)
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	cfg.Workers = 0
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalid)
}
