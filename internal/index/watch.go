package index

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits for writes to settle.
const DefaultDebounce = 250 * time.Millisecond

// Watch calls onChange each time the file at path is written, created or
// renamed into place, after writes have been quiet for debounce. The parent
// directory is watched because Save replaces the file by rename. Watch
// blocks until ctx is done.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(debounce)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			// Overflow and similar errors are not fatal; the next event
			// still triggers a reload.
			_ = err

		case <-timer.C:
			onChange()
		}
	}
}
