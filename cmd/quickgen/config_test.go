package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/quickgen/pkg/scanner"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".quickgen", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadProjectConfig_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := loadProjectConfig(path, false)
	require.NoError(t, err)
	assert.Equal(t, defaultProjectConfig(), cfg)

	_, err = loadProjectConfig(path, true)
	assert.Error(t, err)
}

func TestLoadProjectConfig_Defaults(t *testing.T) {
	cfg := defaultProjectConfig()

	assert.Equal(t, "src", cfg.Docs.Dir)
	assert.True(t, cfg.Docs.Timestamp)
	assert.False(t, cfg.Docs.SkipEmptyProps)
	assert.True(t, cfg.Docs.RespectGitignore)
	assert.Equal(t, scanner.DefaultWrappers, cfg.Docs.Wrappers)
	assert.Contains(t, cfg.Docs.Exclude, "**/*.test.*")
	assert.Contains(t, cfg.Docs.Exclude, "node_modules/**")
	assert.NotContains(t, cfg.Knowledge.Exclude, "**/*.test.*")
	assert.Equal(t, ".", cfg.Knowledge.Dir)
	assert.Equal(t, ".knowledge", cfg.Knowledge.Output)
	assert.NoError(t, validateConfig(cfg))
}

func TestLoadProjectConfig_PartialOverride(t *testing.T) {
	path := writeConfig(t, `
docs:
  dir: app
  timestamp: false
  wrappers: [observer]
knowledge:
  output: kb
log:
  level: debug
metrics:
  file: /tmp/quickgen.prom
`)

	cfg, err := loadProjectConfig(path, true)
	require.NoError(t, err)

	assert.Equal(t, "app", cfg.Docs.Dir)
	assert.False(t, cfg.Docs.Timestamp)
	assert.Equal(t, []string{"observer"}, cfg.Docs.Wrappers)
	assert.Equal(t, "kb", cfg.Knowledge.Output)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/quickgen.prom", cfg.Metrics.File)

	// untouched keys keep their defaults
	def := defaultProjectConfig()
	assert.Equal(t, def.Docs.Include, cfg.Docs.Include)
	assert.Equal(t, def.Knowledge.Dir, cfg.Knowledge.Dir)
	assert.Equal(t, "text", cfg.Log.Format)

	coll := cfg.Docs.collect()
	assert.False(t, coll.Timestamp)
	assert.Equal(t, []string{"observer"}, coll.Wrappers)

	gen := cfg.Knowledge.generator()
	assert.Equal(t, "kb", gen.Output)
	assert.True(t, gen.Discovery.RespectGitignore)
}

func TestLoadProjectConfig_EmptyFile(t *testing.T) {
	cfg, err := loadProjectConfig(writeConfig(t, ""), true)
	require.NoError(t, err)
	assert.Equal(t, defaultProjectConfig(), cfg)
}

func TestLoadProjectConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "docs:\n  directory: src\n", "field directory not found"},
		{"bad yaml", "docs: [\n", "parse"},
		{"bad level", "log:\n  level: loud\n", `log.level: "loud" is not one of`},
		{"bad format", "log:\n  format: xml\n", "log.format"},
		{"bad glob", "docs:\n  exclude: [\"src/[a\"]\n", `docs.exclude[0]: invalid glob "src/[a"`},
		{"empty dir", "docs:\n  dir: \"\"\n", "docs.dir must be set"},
		{"empty include", "knowledge:\n  include: []\n", "knowledge.include must be set"},
		{"empty wrapper", "docs:\n  wrappers: [memo, \"\"]\n", "docs.wrappers[1] must be set"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadProjectConfig(writeConfig(t, tc.content), true)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".quickgen", "config.yaml")
	require.NoError(t, writeDefaultConfig(path, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "# quickgen project configuration")
	assert.Contains(t, text, "# Higher-order functions whose first argument is a component.")
	assert.Contains(t, text, "skip_empty_props: false")

	cfg, err := loadProjectConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, defaultProjectConfig(), cfg)

	err = writeDefaultConfig(path, false)
	assert.ErrorContains(t, err, "already exists")
	assert.NoError(t, writeDefaultConfig(path, true))
}
