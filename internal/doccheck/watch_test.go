package doccheck

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatch_RerunsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	writeDoc(t, root, "docs/SOP.md", validDoc)

	v := newTestValidator(t, root)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan bool, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, v, func(ok bool) { results <- ok })
	}()

	// Initial run fires immediately.
	select {
	case <-results:
	case <-time.After(5 * time.Second):
		t.Fatal("no initial validation run")
	}

	// A write under a watched path triggers a debounced re-run.
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "broken.md"), []byte("no frontmatter"), 0o644))
	select {
	case ok := <-results:
		assert.False(t, ok, "tree with a broken document must fail validation")
	case <-time.After(5 * time.Second):
		t.Fatal("no re-run after file change")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}
