package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_FlagsMatchingChanges(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(dir)

	w, err := NewReferenceWatcher(l)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	assert.False(t, w.Changed())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.png"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("fresh"), 0644))

	assert.Eventually(t, w.Changed, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_MarkDirty(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), nil, nil)
	require.NoError(t, err)
	defer w.Stop()

	w.MarkDirty()
	assert.True(t, w.Changed())
	assert.False(t, w.Changed())
}
