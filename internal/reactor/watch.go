package reactor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/wonop-io/rush/internal/pathmatcher"
)

// fileWatcher recursively watches a product directory for changes,
// dropping anything the gitignore stack excludes before it ever reaches
// the Reactor's changed-files set. Grounded on the teacher's
// pkg/watch.FSWatcher, replacing its fixed exclusion-name list with
// internal/pathmatcher's gitignore-stack matcher.
type fileWatcher struct {
	root    string
	watcher *fsnotify.Watcher
}

// newFileWatcher creates a watcher rooted at root and adds every
// non-ignored directory beneath it.
func newFileWatcher(root string, ignore *pathmatcher.PathMatcher) (*fileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("reactor: failed to create file watcher: %w", err)
	}
	fw := &fileWatcher{root: root, watcher: w}

	err = filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel != "." && ignore.Match(rel, true) {
			return filepath.SkipDir
		}
		if addErr := w.Add(path); addErr != nil {
			return fmt.Errorf("reactor: failed to watch %s: %w", path, addErr)
		}
		return nil
	})
	if err != nil {
		w.Close()
		return nil, err
	}
	return fw, nil
}

// run drains fsnotify events until ctx is cancelled, calling record for
// every changed path the ignore matcher doesn't drop. Newly created
// directories are added to the watch set as they appear.
func (fw *fileWatcher) run(ctx context.Context, ignore *pathmatcher.PathMatcher, record func(relPath string)) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			rel, err := filepath.Rel(fw.root, event.Name)
			if err != nil {
				continue
			}

			info, statErr := os.Stat(event.Name)
			isDir := statErr == nil && info.IsDir()

			if event.Op&fsnotify.Create != 0 && isDir {
				_ = fw.watcher.Add(event.Name)
			}
			if isDir {
				continue
			}
			if ignore.Match(rel, false) {
				continue
			}
			record(rel)
		case _, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (fw *fileWatcher) Close() error {
	return fw.watcher.Close()
}
