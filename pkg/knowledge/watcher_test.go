package knowledge

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/quickgen/pkg/util"
)

func TestWatcher_RegeneratesOnChange(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.js", "function a() {}\n")

	results := make(chan *Result, 10)
	w, err := NewWatcher(newTestGenerator(t), testConfig(root), WatchOptions{
		Debounce:   100 * time.Millisecond,
		OnGenerate: func(r *Result, err error) { results <- r },
	}, util.NopLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	writeFile(t, root, "src/b.js", "function b() {}\n")

	select {
	case r := <-results:
		require.NotNil(t, r)
		assert.Contains(t, r.Manifest.Files, "src/b.js")
	case <-time.After(5 * time.Second):
		t.Fatal("no regeneration after a source change")
	}

	// writing the knowledge directory must not retrigger a run
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, 1, w.Runs())
}

func TestWatcher_IgnoresExcludedAndForeignFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.js", "function a() {}\n")
	writeFile(t, root, "node_modules/pkg/index.js", "\n")

	w, err := NewWatcher(newTestGenerator(t), testConfig(root), WatchOptions{Debounce: 20 * time.Millisecond}, util.NopLogger())
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	writeFile(t, root, "node_modules/pkg/index.js", "function x() {}\n")
	writeFile(t, root, "src/readme.md", "notes\n")
	writeFile(t, root, ".knowledge/fileSymbols.json", "{}\n")

	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, w.Runs())
}

func TestWatcher_NewDirectoryIsWatched(t *testing.T) {
	root := t.TempDir()

	results := make(chan *Result, 10)
	w, err := NewWatcher(newTestGenerator(t), testConfig(root), WatchOptions{
		Debounce:   20 * time.Millisecond,
		OnGenerate: func(r *Result, err error) { results <- r },
	}, util.NopLogger())
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	writeFile(t, root, "pkg/deep/c.js", "function c() {}\n")

	assert.Eventually(t, func() bool {
		select {
		case r := <-results:
			return r != nil && len(r.Manifest.Files) == 1 && r.Manifest.Files[0] == "pkg/deep/c.js"
		default:
			return false
		}
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewWatcher(newTestGenerator(t), testConfig(t.TempDir()), WatchOptions{}, util.NopLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	assert.Error(t, w.Start(ctx))

	cancel()
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
	assert.Error(t, w.Start(context.Background()))
}

func TestWatcher_Ignored(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(newTestGenerator(t), testConfig(root), WatchOptions{}, util.NopLogger())
	require.NoError(t, err)
	defer w.Stop()

	assert.True(t, w.ignored(filepath.Join(root, ".knowledge"), true))
	assert.True(t, w.ignored(filepath.Join(root, ".knowledge", "x.json"), false))
	assert.True(t, w.ignored(filepath.Join(root, "node_modules"), true))
	assert.True(t, w.ignored(filepath.Join(root, "types", "x.d.ts"), false))
	assert.False(t, w.ignored(filepath.Join(root, "src"), true))
	assert.False(t, w.ignored(filepath.Join(root, "src", "a.js"), false))
}
