package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/quickgen/pkg/util"
)

func openGenerated(t *testing.T) (*Store, string) {
	t.Helper()
	root := sampleProject(t)
	writeFile(t, root, "src/Report.jsx", `import { format as fmt } from "./format";

export const Report = ({ total }) => <span>{fmt(total)}</span>;
`)

	result, err := newTestGenerator(t).Generate(context.Background(), testConfig(root))
	require.NoError(t, err)

	store, err := Open(result.OutputDir, StoreConfig{}, util.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, root
}

func TestStore_QueryFile(t *testing.T) {
	store, _ := openGenerated(t)

	for _, path := range []string{"src/App.jsx", "./src/App.jsx"} {
		view, ok := store.QueryFile(path)
		require.True(t, ok, path)
		assert.Equal(t, "src/App.jsx", view.File)
		require.Len(t, view.Symbols, 1)
		assert.Equal(t, "App", view.Symbols[0].Name)
		assert.Len(t, view.Imports, 2)
		assert.Len(t, view.References, 2)
		assert.Len(t, view.Calls, 2)
		require.Len(t, view.Exports, 1)
		assert.Equal(t, "App", view.Exports[0].Name)
	}

	_, ok := store.QueryFile("src/missing.js")
	assert.False(t, ok)

	assert.Equal(t, []string{"src/App.jsx", "src/Report.jsx", "src/format.js"}, store.Files())
	require.NotNil(t, store.Manifest())
}

func TestStore_Trace(t *testing.T) {
	store, _ := openGenerated(t)

	trace, err := store.Trace("format", false)
	require.NoError(t, err)

	require.Len(t, trace.Definitions, 1)
	assert.Equal(t, "src/format.js", trace.Definitions[0].File)
	assert.Equal(t, 1, trace.Definitions[0].StartLine)
	assert.Empty(t, trace.Definitions[0].Snippet)

	// Report calls the alias, so only App's call matches by name
	require.Len(t, trace.Calls, 1)
	assert.Equal(t, "src/App.jsx", trace.Calls[0].File)
	assert.Equal(t, "App", trace.Calls[0].Calls[0].Context)

	// both files bind the imported name
	var importers []string
	for _, fi := range trace.Imports {
		importers = append(importers, fi.File)
	}
	assert.Equal(t, []string{"src/App.jsx", "src/Report.jsx"}, importers)
}

func TestStore_TraceDetailed(t *testing.T) {
	store, _ := openGenerated(t)

	trace, err := store.Trace("format", true)
	require.NoError(t, err)
	require.Len(t, trace.Definitions, 1)
	assert.Equal(t, formatSource[:len(formatSource)-1], trace.Definitions[0].Snippet)
}

func TestStore_TraceNotFound(t *testing.T) {
	store, _ := openGenerated(t)

	_, err := store.Trace("nothing", false)
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestStore_TraceCachedUntilReload(t *testing.T) {
	store, root := openGenerated(t)

	first, err := store.Trace("App", false)
	require.NoError(t, err)
	again, err := store.Trace("App", false)
	require.NoError(t, err)
	assert.Same(t, first, again)

	writeFile(t, root, "src/Other.jsx", "export function App() { return null; }\n")
	_, err = newTestGenerator(t).Generate(context.Background(), testConfig(root))
	require.NoError(t, err)
	require.NoError(t, store.Reload())

	fresh, err := store.Trace("App", false)
	require.NoError(t, err)
	assert.NotSame(t, first, fresh)
	assert.Len(t, fresh.Definitions, 2)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(t.TempDir(), StoreConfig{}, util.NopLogger())
	assert.ErrorIs(t, err, ErrNotGenerated)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileSymbolsFile), []byte("{"), 0o644))
	_, err = Open(dir, StoreConfig{}, util.NopLogger())
	assert.Error(t, err)
}

func TestOpen_WithoutManifest(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, DefaultDir)
	writeFile(t, root, "a.js", "function a() {}\n")
	for name, doc := range map[string]string{
		FileSymbolsFile:      `{"a.js":[{"kind":"function","name":"a","startLine":1,"endLine":1,"exported":false}]}`,
		FileImportsFile:      `{"a.js":[]}`,
		SymbolReferencesFile: `{"a.js":[]}`,
	} {
		writeFile(t, dir, name, doc)
	}

	store, err := Open(dir, StoreConfig{}, util.NopLogger())
	require.NoError(t, err)
	defer store.Close()

	assert.Nil(t, store.Manifest())
	trace, err := store.Trace("a", true)
	require.NoError(t, err)
	assert.Equal(t, "function a() {}", trace.Definitions[0].Snippet)
	assert.Empty(t, trace.Calls)
}
