package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/gnana997/quickgen/pkg/knowledge"
	"github.com/gnana997/quickgen/pkg/scanner"
)

// configPath is where init writes the project config, relative to the
// working directory.
const configPath = ".quickgen/config.yaml"

// ProjectConfig holds the contents of .quickgen/config.yaml. Absent keys
// keep their defaults.
type ProjectConfig struct {
	Docs      DocsConfig      `yaml:"docs"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Log       LogConfig       `yaml:"log"`
	MCP       MCPConfig       `yaml:"mcp"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type DocsConfig struct {
	Dir              string   `yaml:"dir" validate:"required"`
	Include          []string `yaml:"include" validate:"min=1,dive,glob"`
	Exclude          []string `yaml:"exclude" validate:"dive,glob"`
	Timestamp        bool     `yaml:"timestamp"`
	SkipEmptyProps   bool     `yaml:"skip_empty_props"`
	Wrappers         []string `yaml:"wrappers" validate:"dive,required"`
	RespectGitignore bool     `yaml:"respect_gitignore"`
}

type KnowledgeConfig struct {
	Dir     string   `yaml:"dir" validate:"required"`
	Output  string   `yaml:"output" validate:"required"`
	Include []string `yaml:"include" validate:"min=1,dive,glob"`
	Exclude []string `yaml:"exclude" validate:"dive,glob"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

type MCPConfig struct {
	LogFile string `yaml:"log_file"`
}

type MetricsConfig struct {
	File string `yaml:"file"`
}

func defaultProjectConfig() ProjectConfig {
	disc := scanner.DefaultDiscoveryConfig()
	return ProjectConfig{
		Docs: DocsConfig{
			Dir:              scanner.DefaultConfig().Dir,
			Include:          disc.Include,
			Exclude:          append(append([]string{}, disc.Exclude...), "**/*.test.*", "**/*.spec.*"),
			Timestamp:        true,
			Wrappers:         append([]string{}, scanner.DefaultWrappers...),
			RespectGitignore: disc.RespectGitignore,
		},
		Knowledge: KnowledgeConfig{
			Dir:     ".",
			Output:  knowledge.DefaultDir,
			Include: append([]string{}, disc.Include...),
			Exclude: append([]string{}, disc.Exclude...),
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// loadProjectConfig reads the config at path over the defaults. A missing
// file is not an error unless required is set.
func loadProjectConfig(path string, required bool) (ProjectConfig, error) {
	cfg := defaultProjectConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

var configValidator = newConfigValidator()

func newConfigValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("glob", func(fl validator.FieldLevel) bool {
		return doublestar.ValidatePattern(fl.Field().String())
	})
	return v
}

// validateConfig reports every invalid key by its yaml path.
func validateConfig(cfg ProjectConfig) error {
	err := configValidator.Struct(cfg)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace is "ProjectConfig.docs.include[0]"
		_, key, _ := strings.Cut(fe.Namespace(), ".")
		switch fe.Tag() {
		case "required", "min":
			msgs = append(msgs, fmt.Sprintf("%s must be set", key))
		case "glob":
			msgs = append(msgs, fmt.Sprintf("%s: invalid glob %q", key, fe.Value()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s: %q is not one of [%s]", key, fe.Value(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", key, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// discovery converts the docs section for the scanner.
func (c DocsConfig) discovery() scanner.DiscoveryConfig {
	return scanner.DiscoveryConfig{
		Include:          c.Include,
		Exclude:          c.Exclude,
		RespectGitignore: c.RespectGitignore,
	}
}

func (c DocsConfig) collect() scanner.CollectOptions {
	return scanner.CollectOptions{
		Wrappers:       c.Wrappers,
		Timestamp:      c.Timestamp,
		SkipEmptyProps: c.SkipEmptyProps,
	}
}

func (c KnowledgeConfig) generator() knowledge.Config {
	disc := scanner.DefaultDiscoveryConfig()
	disc.Include = c.Include
	disc.Exclude = c.Exclude
	return knowledge.Config{Dir: c.Dir, Output: c.Output, Discovery: disc}
}

// configComments annotate the file written by init, keyed by yaml path.
var configComments = map[string]string{
	"docs":                   "Documentation pass (quickgen react).",
	"docs.dir":               "Directory scanned for components.",
	"docs.timestamp":         "Add an @generated <unix-ms> line to each block.",
	"docs.skip_empty_props":  "Do not document components without inferred props.",
	"docs.wrappers":          "Higher-order functions whose first argument is a component.",
	"docs.respect_gitignore": "Skip paths matched by the root .gitignore.",
	"knowledge":              "Knowledge base (quickgen knowledge).",
	"knowledge.output":       "Output directory, relative to knowledge.dir.",
	"log.level":              "debug, info, warn or error.",
	"log.format":             "text or json.",
	"mcp.log_file":           "Append one JSON line per MCP tool call to this file.",
	"metrics.file":           "Write Prometheus metrics here after each run.",
}

// writeDefaultConfig writes the default config, with comments, to path.
// An existing file is left alone unless force is set.
func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	var doc yaml.Node
	if err := doc.Encode(defaultProjectConfig()); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	commentMapping(&doc, "")

	var buf bytes.Buffer
	buf.WriteString("# quickgen project configuration\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func commentMapping(n *yaml.Node, prefix string) {
	if n.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		path := key.Value
		if prefix != "" {
			path = prefix + "." + key.Value
		}
		if c, ok := configComments[path]; ok {
			key.HeadComment = "# " + c
		}
		commentMapping(value, path)
	}
}
