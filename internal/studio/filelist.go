package studio

import "sync"

// File is an image payload selected by the user: its display name, declared
// media type, and the path of the underlying content.
type File struct {
	Name      string
	MediaType string
	Path      string
}

// FileList mirrors a form file input. File inputs cannot be mutated
// incrementally, so the list supports only wholesale replacement: after every
// stash mutation the full projection is reassigned atomically, which keeps the
// list's contents exactly equal to the logical item list with no stale
// accumulation.
type FileList struct {
	mu    sync.RWMutex
	files []File
}

// Replace substitutes the entire contents of the list in one assignment.
func (l *FileList) Replace(files []File) {
	l.mu.Lock()
	defer l.mu.Unlock()

	replacement := make([]File, len(files))
	copy(replacement, files)
	l.files = replacement
}

// Files returns a copy of the current contents, in order.
func (l *FileList) Files() []File {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]File, len(l.files))
	copy(out, l.files)
	return out
}

// Len reports the number of files currently bound.
func (l *FileList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.files)
}
