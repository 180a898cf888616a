package knowledge

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gnana997/quickgen/pkg/extractor"
	"github.com/gnana997/quickgen/pkg/util"
)

// ErrSymbolNotFound is returned by Trace for a name no file declares.
var ErrSymbolNotFound = errors.New("symbol not found")

// FileView is everything recorded for one file.
type FileView struct {
	File       string             `json:"file"`
	Symbols    []extractor.Symbol `json:"symbols"`
	Imports    []extractor.Import `json:"imports"`
	Exports    []extractor.Export `json:"exports"`
	References []Reference        `json:"references"`
	Calls      []extractor.Call   `json:"calls"`
}

// Definition is a declaration of a traced symbol. Snippet holds the
// declaration's source lines when a detailed trace was requested.
type Definition struct {
	File string `json:"file"`
	extractor.Symbol
	Snippet string `json:"snippet,omitempty"`
}

// FileCalls groups the call sites of a traced symbol in one file.
type FileCalls struct {
	File  string           `json:"file"`
	Calls []extractor.Call `json:"calls"`
}

// FileImports groups the imports of one file that bind a traced symbol.
type FileImports struct {
	File    string             `json:"file"`
	Imports []extractor.Import `json:"imports"`
}

// TraceResult shows where a symbol is declared, called and imported. Calls
// and imports match by name only.
type TraceResult struct {
	Symbol      string        `json:"symbol"`
	Definitions []Definition  `json:"definitions"`
	Calls       []FileCalls   `json:"calls"`
	Imports     []FileImports `json:"imports"`
}

type traceKey struct {
	symbol   string
	detailed bool
}

// StoreConfig configures a Store.
type StoreConfig struct {
	// Root overrides the scan root recorded in the manifest.
	Root string
	// MaxCachedTraces bounds the trace result cache. Default: 256
	MaxCachedTraces int
	// MaxMappedFiles bounds the snippet file cache. Default: 128
	MaxMappedFiles int
}

// Store answers queries against a saved knowledge directory. Results of
// Trace are cached until the next Reload; returned values are shared and
// must not be modified.
//
// Safe for concurrent use.
type Store struct {
	dir    string
	config StoreConfig
	log    *slog.Logger

	mu       sync.RWMutex
	k        *Knowledge
	manifest *Manifest
	root     string
	traces   *lru.Cache[traceKey, *TraceResult]
	files    *util.FileCache
}

// Open loads the knowledge directory dir.
func Open(dir string, config StoreConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxCachedTraces <= 0 {
		config.MaxCachedTraces = 256
	}
	if config.MaxMappedFiles <= 0 {
		config.MaxMappedFiles = 128
	}

	traces, err := lru.New[traceKey, *TraceResult](config.MaxCachedTraces)
	if err != nil {
		return nil, fmt.Errorf("create trace cache: %w", err)
	}

	s := &Store{
		dir:    dir,
		config: config,
		log:    logger,
		traces: traces,
		files:  util.NewFileCache(config.MaxMappedFiles, logger),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the knowledge directory and drops every cached result.
func (s *Store) Reload() error {
	k, m, err := Load(s.dir)
	if err != nil {
		return err
	}

	root := s.config.Root
	if root == "" && m != nil {
		root = m.Root
	}
	if root == "" {
		root = filepath.Dir(filepath.Clean(s.dir))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.k = k
	s.manifest = m
	s.root = root
	s.traces.Purge()
	if err := s.files.Close(); err != nil {
		s.log.Warn("failed to release snippet cache", "error", err)
	}
	s.files = util.NewFileCache(s.config.MaxMappedFiles, s.log)

	s.log.Debug("knowledge loaded", "dir", s.dir, "files", len(k.FileSymbols))
	return nil
}

// Manifest returns the manifest of the loaded run, or nil when the
// directory has none.
func (s *Store) Manifest() *Manifest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manifest
}

// Files lists the recorded file paths, sorted.
func (s *Store) Files() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := make([]string, 0, len(s.k.FileSymbols))
	for f := range s.k.FileSymbols {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// QueryFile returns what was recorded for file, given as a path relative to
// the scan root.
func (s *Store) QueryFile(file string) (*FileView, bool) {
	file = normalizePath(file)

	s.mu.RLock()
	defer s.mu.RUnlock()

	symbols, ok := s.k.FileSymbols[file]
	if !ok {
		return nil, false
	}
	return &FileView{
		File:       file,
		Symbols:    symbols,
		Imports:    orEmpty(s.k.FileImports[file]),
		Exports:    orEmpty(s.k.FileExports[file]),
		References: orEmpty(s.k.SymbolReferences[file]),
		Calls:      orEmpty(s.k.FunctionCalls[file]),
	}, true
}

// Trace finds the declarations of symbol, the calls made by that name and
// the imports binding it. With detailed set, each definition carries its
// source text.
func (s *Store) Trace(symbol string, detailed bool) (*TraceResult, error) {
	key := traceKey{symbol: symbol, detailed: detailed}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if cached, ok := s.traces.Get(key); ok {
		return cached, nil
	}

	result := &TraceResult{
		Symbol:      symbol,
		Definitions: []Definition{},
		Calls:       []FileCalls{},
		Imports:     []FileImports{},
	}

	for _, file := range sortedKeys(s.k.FileSymbols) {
		for _, sym := range s.k.FileSymbols[file] {
			if sym.Name != symbol {
				continue
			}
			def := Definition{File: file, Symbol: sym}
			if detailed {
				snippet, err := s.files.FetchLines(filepath.Join(s.root, filepath.FromSlash(file)), sym.StartLine, sym.EndLine)
				if err != nil {
					s.log.Warn("snippet unavailable", "file", file, "symbol", symbol, "error", err)
				}
				def.Snippet = snippet
			}
			result.Definitions = append(result.Definitions, def)
		}
	}
	if len(result.Definitions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	for _, file := range sortedKeys(s.k.FunctionCalls) {
		var calls []extractor.Call
		for _, c := range s.k.FunctionCalls[file] {
			if c.Name == symbol {
				calls = append(calls, c)
			}
		}
		if len(calls) > 0 {
			result.Calls = append(result.Calls, FileCalls{File: file, Calls: calls})
		}
	}

	for _, file := range sortedKeys(s.k.FileImports) {
		var imports []extractor.Import
		for _, imp := range s.k.FileImports[file] {
			if bindsName(imp, symbol) {
				imports = append(imports, imp)
			}
		}
		if len(imports) > 0 {
			result.Imports = append(result.Imports, FileImports{File: file, Imports: imports})
		}
	}

	s.traces.Add(key, result)
	return result, nil
}

// Close releases the snippet cache.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.traces.Purge()
	return s.files.Close()
}

func bindsName(imp extractor.Import, name string) bool {
	for _, spec := range imp.Specifiers {
		if spec.Local == name || spec.Imported == name {
			return true
		}
	}
	return false
}

func normalizePath(p string) string {
	p = filepath.ToSlash(filepath.Clean(p))
	return strings.TrimPrefix(p, "./")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
