package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Document names inside the knowledge directory. The first four are the
// documents other tools consume.
const (
	FileSymbolsFile      = "fileSymbols.json"
	FileImportsFile      = "fileImports.json"
	SymbolReferencesFile = "symbolReferences.json"
	FunctionCallsFile    = "functionCalls.json"
	FileExportsFile      = "fileExports.json"
	SymbolIndexFile      = "symbolIndex.json"
	ManifestFile         = "manifest.json"
)

// DefaultDir is the knowledge directory name under the scan root.
const DefaultDir = ".knowledge"

// ErrNotGenerated is returned by Load when dir holds no knowledge base.
var ErrNotGenerated = errors.New("knowledge base not generated")

// Save writes k and m into dir, creating it if needed. Each document is
// replaced wholesale.
func Save(dir string, k *Knowledge, m *Manifest) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create knowledge dir: %w", err)
	}

	docs := []struct {
		name string
		v    any
	}{
		{FileSymbolsFile, k.FileSymbols},
		{FileImportsFile, k.FileImports},
		{SymbolReferencesFile, k.SymbolReferences},
		{FunctionCallsFile, k.FunctionCalls},
		{FileExportsFile, k.FileExports},
		{SymbolIndexFile, k.SymbolIndex},
		{ManifestFile, m},
	}
	for _, doc := range docs {
		if err := writeJSON(filepath.Join(dir, doc.name), doc.v); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a knowledge directory written by Save. The manifest and the
// extra documents are optional so that directories written by other tools
// can still be queried.
func Load(dir string) (*Knowledge, *Manifest, error) {
	k := NewKnowledge()

	required := []struct {
		name string
		v    any
	}{
		{FileSymbolsFile, &k.FileSymbols},
		{FileImportsFile, &k.FileImports},
		{SymbolReferencesFile, &k.SymbolReferences},
	}
	for _, doc := range required {
		if err := readJSON(filepath.Join(dir, doc.name), doc.v); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, nil, fmt.Errorf("%w: %s missing in %s", ErrNotGenerated, doc.name, dir)
			}
			return nil, nil, err
		}
	}

	optional := []struct {
		name string
		v    any
	}{
		{FunctionCallsFile, &k.FunctionCalls},
		{FileExportsFile, &k.FileExports},
		{SymbolIndexFile, &k.SymbolIndex},
	}
	for _, doc := range optional {
		if err := readJSON(filepath.Join(dir, doc.name), doc.v); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, nil, err
		}
	}

	m := &Manifest{}
	if err := readJSON(filepath.Join(dir, ManifestFile), m); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, nil, err
		}
		m = nil
	}

	return k, m, nil
}

// writeJSON writes through a temp file so readers never see a torn document.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
