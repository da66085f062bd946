package doccheck

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounceWindow coalesces editor write bursts into a single re-run.
const debounceWindow = 500 * time.Millisecond

// Watch re-runs the full validation whenever a file under the configured
// paths changes, until ctx is cancelled. onResult receives the outcome of
// each run, including the initial one.
func Watch(ctx context.Context, v *Validator, onResult func(ok bool)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	for _, p := range v.Paths {
		root := filepath.Join(v.Root, p)
		if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		// fsnotify is not recursive; register every subdirectory.
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return watcher.Add(path)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	onResult(v.Run())

	var timer *time.Timer
	pending := make(chan struct{}, 1)
	schedule := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounceWindow, func() {
			select {
			case pending <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				v.log.Debug("document tree changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
				if ev.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
						_ = watcher.Add(ev.Name)
					}
				}
				schedule()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			v.log.Warn("watch error", zap.Error(err))
		case <-pending:
			onResult(v.Run())
		}
	}
}
