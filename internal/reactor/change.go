package reactor

import "github.com/wonop-io/rush/internal/image"

// recordChange adds a changed file's relative path into the mutex-guarded
// changed-files set, to be drained the next time the monitor loop checks
// for a significant change.
func (r *Reactor) recordChange(relPath string) {
	r.changeMu.Lock()
	defer r.changeMu.Unlock()
	r.changedFiles[relPath] = struct{}{}
}

// drainChangedFiles empties the changed-files set and returns its contents.
func (r *Reactor) drainChangedFiles() []string {
	r.changeMu.Lock()
	defer r.changeMu.Unlock()
	if len(r.changedFiles) == 0 {
		return nil
	}
	files := make([]string, 0, len(r.changedFiles))
	for f := range r.changedFiles {
		files = append(files, f)
	}
	r.changedFiles = make(map[string]struct{})
	return files
}

// checkSignificantChange drains the changed-files set and, for every
// non-ignored image, asks whether any changed path falls within that
// image's watch globs or build context. Any image that matches is marked
// should-rebuild; the return value reports whether at least one was.
func (r *Reactor) checkSignificantChange() bool {
	files := r.drainChangedFiles()
	if len(files) == 0 {
		return false
	}

	significant := false
	for _, name := range r.names {
		img := r.imagesByName[name]
		if img.DevIgnore {
			continue
		}
		if r.isAnyFileInImageContext(name, img, files) {
			img.SetShouldRebuild(true)
			significant = true
		}
	}
	return significant
}

// isAnyFileInImageContext is the per-image half of significant-change
// detection: a changed path counts if it matches the component's declared
// `watch` globs, or falls within its Dockerfile directory/build context
// (via Image.IsAnyFileInContext).
func (r *Reactor) isAnyFileInImageContext(name string, img *image.Image, files []string) bool {
	if img.IsAnyFileInContext(files) {
		return true
	}
	if pm, ok := r.watchGlobs[name]; ok {
		for _, f := range files {
			if pm.Match(f, false) {
				return true
			}
		}
	}
	return false
}
