package index

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloadsOnSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), JUCEIndexFile)
	require.NoError(t, Save(path, []ClassRecord{{ClassName: "juce::A"}}))
	s := Open[ClassRecord](path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloads atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, func() {
			if s.Reload() == nil {
				reloads.Add(1)
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, Save(path, []ClassRecord{{ClassName: "juce::A"}, {ClassName: "juce::B"}}))

	require.Eventually(t, func() bool { return s.Len() == 2 }, 5*time.Second, 20*time.Millisecond)
	assert.GreaterOrEqual(t, reloads.Load(), int32(1))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", JUCEIndexFile)
	err := Watch(context.Background(), path, 0, func() {})
	assert.Error(t, err)
}
