package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		eventType EventType
		want      string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.eventType.String())
	}
}

func TestEventTypeFromOp(t *testing.T) {
	assert.Equal(t, EventTypeCreated, eventType(fsnotify.Create))
	assert.Equal(t, EventTypeModified, eventType(fsnotify.Write))
	assert.Equal(t, EventTypeDeleted, eventType(fsnotify.Remove))
	assert.Equal(t, EventTypeRenamed, eventType(fsnotify.Rename))
	assert.Equal(t, EventTypeModified, eventType(fsnotify.Chmod))
	assert.True(t, ChangeEvent{Type: EventTypeDeleted}.Gone())
	assert.False(t, ChangeEvent{Type: EventTypeModified}.Gone())
}

func TestFilters(t *testing.T) {
	assert.True(t, ComponentFilter("src/App.vue"))
	assert.False(t, ComponentFilter("src/app.js"))

	exclude := ExcludeFilter([]string{"node_modules", "*.bak"})
	assert.True(t, exclude("src/App.vue"))
	assert.False(t, exclude("node_modules/x/App.vue"))
	assert.False(t, exclude("src/App.vue.bak"))

	assert.False(t, NoGitFilter("repo/.git/HEAD"))
	assert.True(t, NoGitFilter("repo/src/App.vue"))
}

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.start(ctx)

	d.events <- ChangeEvent{Type: EventTypeCreated, Path: "b.vue"}
	d.events <- ChangeEvent{Type: EventTypeModified, Path: "a.vue"}
	d.events <- ChangeEvent{Type: EventTypeModified, Path: "b.vue"}

	select {
	case batch := <-d.output:
		require.Len(t, batch, 2)
		assert.Equal(t, "a.vue", batch[0].Path)
		assert.Equal(t, "b.vue", batch[1].Path)
		assert.Equal(t, EventTypeModified, batch[1].Type)
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer did not flush")
	}
}

func TestValidatePath(t *testing.T) {
	root := t.TempDir()
	fw, err := NewFileWatcher(root, 10*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Stop()

	_, err = fw.validatePath("src")
	assert.NoError(t, err)
	_, err = fw.validatePath("../elsewhere")
	assert.Error(t, err)
	assert.Error(t, fw.AddPath(filepath.Dir(root)))
}

func TestAddRecursive(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"src/components", "node_modules/lib"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}

	fw, err := NewFileWatcher(root, 10*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Stop()
	fw.AddFilter(ComponentFilter)
	fw.AddFilter(ExcludeFilter([]string{"node_modules"}))

	require.NoError(t, fw.AddRecursive("."))
	assert.Equal(t, []string{
		root,
		filepath.Join(root, "src"),
		filepath.Join(root, "src", "components"),
	}, fw.WatchedPaths())
}

func TestFileWatcherDeliversBatches(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))

	fw, err := NewFileWatcher(root, 50*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Stop()
	fw.AddFilter(ComponentFilter)

	var mu sync.Mutex
	var seen []ChangeEvent
	fw.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, events...)
		return nil
	})

	require.NoError(t, fw.AddRecursive("."))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, fw.Start(ctx))

	target := filepath.Join(root, "src", "App.vue")
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(target, []byte("<template></template>"), 0o644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range seen {
			if e.Path == target {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, e := range seen {
		assert.Equal(t, ".vue", filepath.Ext(e.Path))
	}
}
