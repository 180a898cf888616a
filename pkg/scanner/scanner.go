package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gnana997/quickgen/pkg/metrics"
	"github.com/gnana997/quickgen/pkg/parser"
	"github.com/gnana997/quickgen/pkg/rewrite"
)

// Config configures a documentation run.
type Config struct {
	// Dir is the directory to scan.
	Dir       string
	Discovery DiscoveryConfig
	Collect   CollectOptions
	// DryRun computes diffs instead of writing files.
	DryRun bool
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Dir:       "src",
		Discovery: DefaultDiscoveryConfig(),
		Collect:   CollectOptions{Timestamp: true},
	}
}

// Stats summarises a run. Scanned = Updated + Skipped + Errored.
type Stats struct {
	Scanned    int   `json:"scanned"`
	Updated    int   `json:"updated"`
	Skipped    int   `json:"skipped"`
	Errored    int   `json:"errored"`
	Components int   `json:"components"`
	DurationMs int64 `json:"durationMs"`
}

// FileResult is the outcome for one file that was processed without error.
type FileResult struct {
	Path       string             `json:"path"`
	Components []*ComponentInfo   `json:"components,omitempty"`
	Skipped    []SkippedCandidate `json:"skipped,omitempty"`
	Updated    bool               `json:"updated"`
	Diff       []byte             `json:"-"`
}

// RunResult is the outcome of Scanner.Run.
type RunResult struct {
	Root   string       `json:"root"`
	Stats  Stats        `json:"stats"`
	Files  []FileResult `json:"files"`
	Errors []FileError  `json:"errors,omitempty"`
}

// Scanner runs the documentation pass over a directory, one file at a time.
type Scanner struct {
	pm      *parser.ParserManager
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewScanner creates a scanner. The parser manager stays owned by the caller.
func NewScanner(pm *parser.ParserManager, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{pm: pm, log: logger}
}

// WithMetrics records per-file outcomes into m.
func (s *Scanner) WithMetrics(m *metrics.Metrics) *Scanner {
	s.metrics = m
	return s
}

// Run discovers files under cfg.Dir and documents each in turn. Problems with
// individual files are logged and counted; only discovery failures (and a
// cancelled ctx, checked between files) end the run early.
func (s *Scanner) Run(ctx context.Context, cfg Config) (*RunResult, error) {
	start := time.Now()

	root, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, &BatchError{Root: cfg.Dir, Err: err}
	}
	files, err := DiscoverFiles(root, cfg.Discovery)
	if err != nil {
		return nil, &BatchError{Root: root, Err: err}
	}
	s.log.Info("discovery complete", "root", root, "files", len(files), "ms", time.Since(start).Milliseconds())

	collector := NewCollector(cfg.Collect, s.log)
	result := &RunResult{Root: root}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			result.Stats.DurationMs = time.Since(start).Milliseconds()
			return result, fmt.Errorf("scan interrupted: %w", err)
		}

		fileStart := time.Now()
		rel := relativePath(root, path)
		result.Stats.Scanned++

		fr, ferr := s.processFile(collector, path, rel, cfg.DryRun)
		outcome := "skipped"
		switch {
		case ferr != nil:
			outcome = "errored"
			result.Stats.Errored++
			result.Errors = append(result.Errors, *ferr)
			s.log.Warn("file skipped", "file", rel, "kind", ferr.Kind, "error", ferr.Err)
		case fr.Updated:
			outcome = "updated"
			result.Stats.Updated++
			result.Stats.Components += len(fr.Components)
			result.Files = append(result.Files, *fr)
		default:
			result.Stats.Skipped++
			result.Files = append(result.Files, *fr)
		}

		s.metrics.FileProcessed(metrics.ModeDocs, outcome, time.Since(fileStart))
		if fr != nil {
			s.metrics.ComponentsDocumented(len(fr.Components))
		}
	}

	result.Stats.DurationMs = time.Since(start).Milliseconds()
	s.log.Info("documentation pass complete",
		"scanned", result.Stats.Scanned,
		"updated", result.Stats.Updated,
		"skipped", result.Stats.Skipped,
		"errored", result.Stats.Errored,
		"ms", result.Stats.DurationMs)

	return result, nil
}

func (s *Scanner) processFile(collector *Collector, path, rel string, dryRun bool) (*FileResult, *FileError) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileError{Path: rel, Kind: FileErrorRead, Err: err}
	}

	collected, edited, err := s.annotate(collector, src, path)
	if err != nil {
		kind := FileErrorEdit
		var perr *parser.ParseError
		if errors.As(err, &perr) {
			kind = FileErrorParse
		}
		return nil, &FileError{Path: rel, Kind: kind, Err: err}
	}

	fr := &FileResult{Path: rel, Components: collected.Components, Skipped: collected.Skipped}
	if len(collected.Insertions) == 0 {
		return fr, nil
	}
	fr.Updated = true

	if dryRun {
		d, err := rewrite.Diff(rel, src, edited)
		if err != nil {
			return nil, &FileError{Path: rel, Kind: FileErrorEdit, Err: err}
		}
		fr.Diff = d
		return fr, nil
	}

	if err := writeFilePreservingMode(path, edited); err != nil {
		return nil, &FileError{Path: rel, Kind: FileErrorWrite, Err: err}
	}
	return fr, nil
}

// Annotate documents a single in-memory file without touching disk. The
// path only selects the grammar. It returns the collected components and the
// edited source (src itself when nothing changes).
func (s *Scanner) Annotate(src []byte, path string, opts CollectOptions) (*CollectResult, []byte, error) {
	return s.annotate(NewCollector(opts, s.log), src, path)
}

func (s *Scanner) annotate(collector *Collector, src []byte, path string) (*CollectResult, []byte, error) {
	tree, err := s.pm.ParseFile(src, path)
	if tree != nil {
		defer tree.Close()
	}
	if err != nil {
		return nil, nil, err
	}

	collected, err := collector.Collect(tree.RootNode(), src)
	if err != nil {
		return nil, nil, err
	}
	edited, err := rewrite.Apply(src, collected.Insertions)
	if err != nil {
		return nil, nil, err
	}
	return collected, edited, nil
}

func writeFilePreservingMode(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(path, data, mode)
}
