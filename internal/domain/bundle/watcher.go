package bundle

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher calls OnChange after the artifact file changes. Bursts of events
// (editors and copy tools write in several steps) collapse into one call.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(ctx context.Context)
	onError  func(err error)
}

// NewWatcher watches path. A non-positive debounce uses the default.
func NewWatcher(path string, debounce time.Duration, onChange func(ctx context.Context), onError func(err error)) *Watcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if onError == nil {
		onError = func(error) {}
	}
	return &Watcher{path: path, debounce: debounce, onChange: onChange, onError: onError}
}

// Run blocks until ctx is done. The parent directory is watched so atomic
// renames over the artifact are seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(w.path)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.onError(err)
		case <-timer.C:
			w.onChange(ctx)
		}
	}
}
