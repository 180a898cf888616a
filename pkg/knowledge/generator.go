package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gnana997/quickgen/pkg/extractor"
	"github.com/gnana997/quickgen/pkg/metrics"
	"github.com/gnana997/quickgen/pkg/parser"
	"github.com/gnana997/quickgen/pkg/scanner"
)

// Config configures a knowledge run.
type Config struct {
	// Dir is the scan root.
	Dir string
	// Output is the knowledge directory, relative to Dir unless absolute.
	Output    string
	Discovery scanner.DiscoveryConfig
}

// DefaultConfig scans the current directory into ./.knowledge.
func DefaultConfig() Config {
	return Config{
		Dir:       ".",
		Output:    DefaultDir,
		Discovery: scanner.DefaultDiscoveryConfig(),
	}
}

// OutputDir resolves the knowledge directory against root.
func (c Config) OutputDir(root string) string {
	out := c.Output
	if out == "" {
		out = DefaultDir
	}
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(root, out)
}

// Stats summarises a knowledge run. Scanned = Extracted + Skipped + Errored.
type Stats struct {
	Scanned    int   `json:"scanned"`
	Extracted  int   `json:"extracted"`
	Skipped    int   `json:"skipped"`
	Errored    int   `json:"errored"`
	Symbols    int   `json:"symbols"`
	Imports    int   `json:"imports"`
	Calls      int   `json:"calls"`
	DurationMs int64 `json:"durationMs"`
}

// Result is the outcome of Generator.Generate.
type Result struct {
	Root      string              `json:"root"`
	OutputDir string              `json:"outputDir"`
	Manifest  *Manifest           `json:"manifest"`
	Stats     Stats               `json:"stats"`
	Errors    []scanner.FileError `json:"errors,omitempty"`
	Knowledge *Knowledge          `json:"-"`
}

// Generator runs the knowledge pass: discover, extract each file in turn,
// aggregate, save.
type Generator struct {
	ext     *extractor.Extractor
	log     *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewGenerator creates a generator around ext.
func NewGenerator(ext *extractor.Extractor, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{ext: ext, log: logger, now: time.Now}
}

// WithMetrics records per-file outcomes into m.
func (g *Generator) WithMetrics(m *metrics.Metrics) *Generator {
	g.metrics = m
	return g
}

// Generate builds and saves the knowledge base for cfg.Dir. Per-file
// failures are logged and counted. Discovery and save failures are returned
// as *scanner.BatchError; a cancelled ctx stops the run between files and
// nothing is saved.
func (g *Generator) Generate(ctx context.Context, cfg Config) (*Result, error) {
	start := g.now()

	root, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, &scanner.BatchError{Root: cfg.Dir, Err: err}
	}
	outDir := cfg.OutputDir(root)

	discovery := cfg.Discovery
	if rel, ok := insideRoot(root, outDir); ok {
		discovery.Exclude = append(append([]string{}, discovery.Exclude...), rel+"/**")
	}

	files, err := scanner.DiscoverFiles(root, discovery)
	if err != nil {
		return nil, &scanner.BatchError{Root: root, Err: err}
	}
	g.log.Info("discovery complete", "root", root, "files", len(files), "ms", time.Since(start).Milliseconds())

	builder := NewBuilder()
	result := &Result{Root: root, OutputDir: outDir}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			result.Stats.DurationMs = time.Since(start).Milliseconds()
			return result, fmt.Errorf("knowledge run interrupted: %w", err)
		}

		fileStart := time.Now()
		rel := relPath(root, path)
		result.Stats.Scanned++

		if parser.DetectLanguage(path) == parser.LanguageUnknown {
			result.Stats.Skipped++
			g.metrics.FileProcessed(metrics.ModeKnowledge, "skipped", time.Since(fileStart))
			g.log.Debug("unsupported file skipped", "file", rel)
			continue
		}

		fk, ferr := g.extractFile(path, rel)
		if ferr != nil {
			result.Stats.Errored++
			result.Errors = append(result.Errors, *ferr)
			g.metrics.FileProcessed(metrics.ModeKnowledge, "errored", time.Since(fileStart))
			g.log.Warn("file skipped", "file", rel, "kind", ferr.Kind, "error", ferr.Err)
			continue
		}

		builder.Add(fk)
		result.Stats.Extracted++
		result.Stats.Symbols += len(fk.Symbols)
		result.Stats.Imports += len(fk.Imports)
		result.Stats.Calls += len(fk.Calls)
		g.metrics.FileProcessed(metrics.ModeKnowledge, "extracted", time.Since(fileStart))
		g.metrics.KnowledgeRecorded(len(fk.Symbols), len(fk.Calls))
	}

	k := builder.Build()
	manifest := &Manifest{
		RunID:       uuid.NewString(),
		GeneratedAt: g.now().UTC(),
		Root:        root,
		Files:       builder.Files(),
	}
	if err := Save(outDir, k, manifest); err != nil {
		return nil, &scanner.BatchError{Root: root, Err: err}
	}

	result.Manifest = manifest
	result.Knowledge = k
	result.Stats.DurationMs = time.Since(start).Milliseconds()
	g.log.Info("knowledge generated",
		"run_id", manifest.RunID,
		"output", outDir,
		"files", result.Stats.Extracted,
		"symbols", result.Stats.Symbols,
		"imports", result.Stats.Imports,
		"calls", result.Stats.Calls,
		"errored", result.Stats.Errored,
		"ms", result.Stats.DurationMs)

	return result, nil
}

func (g *Generator) extractFile(path, rel string) (*extractor.FileKnowledge, *scanner.FileError) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &scanner.FileError{Path: rel, Kind: scanner.FileErrorRead, Err: err}
	}

	fk, err := g.ext.ExtractFile(path, rel, src)
	if err != nil {
		kind := scanner.FileErrorExtract
		var perr *parser.ParseError
		if errors.As(err, &perr) {
			kind = scanner.FileErrorParse
		}
		return nil, &scanner.FileError{Path: rel, Kind: kind, Err: err}
	}
	return fk, nil
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// insideRoot reports whether dir lies strictly below root, returning its
// slash-separated relative path.
func insideRoot(root, dir string) (string, bool) {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
