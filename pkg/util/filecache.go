package util

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"
)

// FileCache serves source snippets out of memory-mapped files. Files are
// mapped on first access and stay mapped until Close. When mmap fails the
// file is read into memory instead.
//
// Safe for concurrent use.
type FileCache struct {
	maxFiles int
	logger   *slog.Logger

	mu    sync.RWMutex
	files map[string]*mappedFile

	statsMu sync.Mutex
	stats   FileCacheStats
}

type mappedFile struct {
	data     []byte
	mapping  mmap.MMap
	file     *os.File
	fallback bool
}

// FileCacheStats reports cache effectiveness.
type FileCacheStats struct {
	Hits         int64
	Misses       int64
	MmapFailures int64
	Cached       int
}

// NewFileCache creates a cache holding at most maxFiles mapped files
// (0 means unlimited).
func NewFileCache(maxFiles int, logger *slog.Logger) *FileCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileCache{
		maxFiles: maxFiles,
		logger:   logger,
		files:    make(map[string]*mappedFile),
	}
}

func (fc *FileCache) get(path string) (*mappedFile, error) {
	fc.mu.RLock()
	mf, ok := fc.files[path]
	fc.mu.RUnlock()
	if ok {
		fc.record(func(s *FileCacheStats) { s.Hits++ })
		return mf, nil
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	if mf, ok = fc.files[path]; ok {
		fc.record(func(s *FileCacheStats) { s.Hits++ })
		return mf, nil
	}
	fc.record(func(s *FileCacheStats) { s.Misses++ })

	if fc.maxFiles > 0 && len(fc.files) >= fc.maxFiles {
		return nil, fmt.Errorf("file cache full: %d files (limit %d)", len(fc.files), fc.maxFiles)
	}

	mf, err := fc.load(path)
	if err != nil {
		return nil, err
	}
	fc.files[path] = mf
	return mf, nil
}

func (fc *FileCache) load(path string) (*mappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}

	// zero-length files cannot be mapped
	if info.Size() == 0 {
		f.Close()
		return &mappedFile{fallback: true}, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		fc.logger.Warn("mmap failed, reading file instead", "file", path, "error", err)
		fc.record(func(s *FileCacheStats) { s.MmapFailures++ })

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("read %q: %w", path, readErr)
		}
		return &mappedFile{data: data, fallback: true}, nil
	}

	return &mappedFile{data: m, mapping: m, file: f}, nil
}

// FetchCode returns the bytes in [startByte, endByte). The pair (0, 0) returns
// the whole file.
func (fc *FileCache) FetchCode(path string, startByte, endByte uint32) (string, error) {
	mf, err := fc.get(path)
	if err != nil {
		return "", err
	}
	if startByte == 0 && endByte == 0 {
		return string(mf.data), nil
	}
	if endByte <= startByte {
		return "", fmt.Errorf("invalid byte range %d..%d", startByte, endByte)
	}
	if int(endByte) > len(mf.data) {
		return "", fmt.Errorf("byte range %d..%d exceeds size %d of %q", startByte, endByte, len(mf.data), path)
	}
	return string(mf.data[startByte:endByte]), nil
}

// FetchLines returns lines startLine..endLine inclusive (1-based). An endLine
// past the end of the file is clamped.
func (fc *FileCache) FetchLines(path string, startLine, endLine int) (string, error) {
	if startLine < 1 || endLine < startLine {
		return "", fmt.Errorf("invalid line range %d..%d", startLine, endLine)
	}
	mf, err := fc.get(path)
	if err != nil {
		return "", err
	}

	data := mf.data
	line := 1
	start := -1
	for i := 0; i <= len(data); i++ {
		if line == startLine && start < 0 {
			start = i
		}
		if i == len(data) {
			break
		}
		if data[i] == '\n' {
			if line == endLine {
				return string(data[start:i]), nil
			}
			line++
		}
	}
	if start < 0 {
		return "", fmt.Errorf("line %d beyond end of %q", startLine, path)
	}
	return string(bytes.TrimSuffix(data[start:], []byte("\n"))), nil
}

// Size returns the number of cached files.
func (fc *FileCache) Size() int {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return len(fc.files)
}

// Stats returns a snapshot of cache counters.
func (fc *FileCache) Stats() FileCacheStats {
	size := fc.Size()
	fc.statsMu.Lock()
	defer fc.statsMu.Unlock()
	s := fc.stats
	s.Cached = size
	return s
}

// Invalidate unmaps a single file so the next access re-reads it.
func (fc *FileCache) Invalidate(path string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if mf, ok := fc.files[path]; ok {
		fc.release(path, mf)
		delete(fc.files, path)
	}
}

// Close unmaps every file.
func (fc *FileCache) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	var firstErr error
	for path, mf := range fc.files {
		if err := fc.release(path, mf); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	fc.files = make(map[string]*mappedFile)
	return firstErr
}

func (fc *FileCache) release(path string, mf *mappedFile) error {
	if mf.mapping != nil {
		if err := mf.mapping.Unmap(); err != nil {
			fc.logger.Warn("unmap failed", "file", path, "error", err)
			return fmt.Errorf("unmap %q: %w", path, err)
		}
	}
	if mf.file != nil {
		return mf.file.Close()
	}
	return nil
}

func (fc *FileCache) record(update func(*FileCacheStats)) {
	fc.statsMu.Lock()
	update(&fc.stats)
	fc.statsMu.Unlock()
}
