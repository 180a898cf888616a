package scanner

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func relNames(t *testing.T, root string, files []string) []string {
	t.Helper()
	names := make([]string, 0, len(files))
	for _, f := range files {
		assert.True(t, filepath.IsAbs(f), "expected absolute path, got %s", f)
		names = append(names, relativePath(root, f))
	}
	return names
}

func TestDiscoverFiles_DefaultConfig(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "App.jsx", "")
	writeFile(t, tmp, "index.js", "")
	writeFile(t, tmp, "components/Card.tsx", "")
	writeFile(t, tmp, "lib/util.ts", "")
	writeFile(t, tmp, "types/global.d.ts", "")
	writeFile(t, tmp, "styles/app.css", "")
	writeFile(t, tmp, "node_modules/react/index.js", "")
	writeFile(t, tmp, "packages/ui/node_modules/dep/index.js", "")
	writeFile(t, tmp, "dist/bundle.js", "")
	writeFile(t, tmp, ".knowledge/symbolIndex.json", "")

	files, err := DiscoverFiles(tmp, DefaultDiscoveryConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"App.jsx",
		"components/Card.tsx",
		"index.js",
		"lib/util.ts",
	}, relNames(t, tmp, files))
}

func TestDiscoverFiles_RespectsGitignore(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, ".gitignore", "generated/\n*.gen.js\n")
	writeFile(t, tmp, "App.jsx", "")
	writeFile(t, tmp, "api.gen.js", "")
	writeFile(t, tmp, "generated/Icons.jsx", "")

	files, err := DiscoverFiles(tmp, DefaultDiscoveryConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"App.jsx"}, relNames(t, tmp, files))

	cfg := DefaultDiscoveryConfig()
	cfg.RespectGitignore = false
	files, err = DiscoverFiles(tmp, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"App.jsx", "api.gen.js", "generated/Icons.jsx"}, relNames(t, tmp, files))
}

func TestDiscoverFiles_CustomPatterns(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "a/One.jsx", "")
	writeFile(t, tmp, "a/two.js", "")
	writeFile(t, tmp, "b/Three.jsx", "")
	writeFile(t, tmp, "b/Three.test.jsx", "")

	files, err := DiscoverFiles(tmp, DiscoveryConfig{
		Include: []string{"**/*.jsx"},
		Exclude: []string{"**/*.test.jsx"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a/One.jsx", "b/Three.jsx"}, relNames(t, tmp, files))
}

func TestDiscoverFiles_Errors(t *testing.T) {
	tmp := t.TempDir()

	_, err := DiscoverFiles(filepath.Join(tmp, "missing"), DefaultDiscoveryConfig())
	assert.Error(t, err)

	file := writeFile(t, tmp, "file.js", "")
	_, err = DiscoverFiles(file, DefaultDiscoveryConfig())
	assert.Error(t, err)

	_, err = DiscoverFiles(tmp, DiscoveryConfig{Include: []string{"[unclosed"}})
	assert.Error(t, err)
}

func TestDiscoverFiles_SortedOutput(t *testing.T) {
	tmp := t.TempDir()
	for _, name := range []string{"z.js", "m/b.js", "a.js", "m/a.js"} {
		writeFile(t, tmp, name, "")
	}

	files, err := DiscoverFiles(tmp, DefaultDiscoveryConfig())
	require.NoError(t, err)
	require.Len(t, files, 4)
	for i := 1; i < len(files); i++ {
		assert.LessOrEqual(t, files[i-1], files[i], "files should be sorted")
	}
}
