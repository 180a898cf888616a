package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// DiscoveryConfig selects which files a scan visits.
type DiscoveryConfig struct {
	// Include globs, relative to the root ("**/*.{js,jsx,ts,tsx}").
	Include []string
	// Exclude globs; a matching directory is not descended into.
	Exclude []string
	// RespectGitignore skips paths matched by the root .gitignore.
	RespectGitignore bool
}

// DefaultDiscoveryConfig returns the include/exclude set used by both modes.
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		Include: []string{"**/*.{js,jsx,ts,tsx}"},
		Exclude: []string{
			"node_modules/**",
			"**/node_modules/**",
			".git/**",
			"dist/**",
			"build/**",
			"coverage/**",
			".knowledge/**",
			".quickgen/**",
			"**/*.d.ts",
		},
		RespectGitignore: true,
	}
}

// DiscoverFiles walks rootDir and returns the sorted absolute paths of files
// matching cfg. An unreadable root is an error; unreadable entries below it
// are skipped.
func DiscoverFiles(rootDir string, cfg DiscoveryConfig) ([]string, error) {
	for _, pattern := range append(append([]string{}, cfg.Include...), cfg.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
		}
	}

	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to read root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", absRoot)
	}

	var gitignore *ignore.GitIgnore
	if cfg.RespectGitignore {
		if gi, err := ignore.CompileIgnoreFile(filepath.Join(absRoot, ".gitignore")); err == nil {
			gitignore = gi
		}
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == absRoot {
				return walkErr
			}
			return nil
		}
		if path == absRoot {
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if excluded(relPath, d.IsDir(), cfg.Exclude, gitignore) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		if len(cfg.Include) > 0 && !matchesAny(relPath, cfg.Include) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func excluded(relPath string, isDir bool, patterns []string, gitignore *ignore.GitIgnore) bool {
	if matchesAny(relPath, patterns) {
		return true
	}
	// "dist/**" should also prune the dist directory itself
	if isDir && matchesAny(relPath+"/", patterns) {
		return true
	}
	if gitignore != nil {
		if gitignore.MatchesPath(relPath) || (isDir && gitignore.MatchesPath(relPath+"/")) {
			return true
		}
	}
	return false
}

func matchesAny(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
		if m, _ := doublestar.Match(pattern, relPath); m {
			return true
		}
	}
	return false
}

// relativePath returns path relative to root with forward slashes.
func relativePath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
