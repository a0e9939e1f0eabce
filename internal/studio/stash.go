package studio

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MaxStashSize bounds the reference-image stash.
const MaxStashSize = 6

// Item is one accepted reference image. The preview handle is exclusively
// owned by the item: minted at insertion, revoked exactly once at removal,
// never aliased outside the stash.
type Item struct {
	ID            string
	File          File
	PreviewHandle string
}

// PreviewMinter mints and revokes the short-lived preview handles items own.
type PreviewMinter interface {
	Mint(f File) (handle string, err error)
	Revoke(handle string)
}

// ImageStash is the bounded, ordered collection of reference images. Every
// mutation rebuilds the bound FileList from scratch and re-notifies the
// change listener, so the input projection, the gallery, and the
// submit-enabled state always reflect the logical item list.
type ImageStash struct {
	mu     sync.Mutex
	minter PreviewMinter
	files  *FileList
	items  []Item

	onChange func(items []Item, canSubmit bool)
}

// NewImageStash constructs an empty stash with its own bound FileList.
func NewImageStash(minter PreviewMinter) *ImageStash {
	return &ImageStash{
		minter: minter,
		files:  &FileList{},
	}
}

// SetChangeListener registers the render sink invoked after every mutation
// (and by Reassert). It receives the ordered items and the submit-enabled
// state.
func (s *ImageStash) SetChangeListener(fn func(items []Item, canSubmit bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// FileList returns the bound file list. Its contents are always exactly the
// projection of the current item list.
func (s *ImageStash) FileList() *FileList {
	return s.files
}

// AddFiles processes candidates in order. A candidate is accepted only if its
// declared media type is an image and the stash is below capacity; everything
// else is silently dropped. Acceptance is per-candidate — later rejections
// never roll back earlier additions. One rebuild runs after the whole batch.
func (s *ImageStash) AddFiles(candidates []File) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, candidate := range candidates {
		if !isImage(candidate.MediaType) {
			continue
		}
		if len(s.items) >= MaxStashSize {
			continue
		}

		handle, err := s.minter.Mint(candidate)
		if err != nil {
			continue
		}

		s.items = append(s.items, Item{
			ID:            uuid.New().String(),
			File:          candidate,
			PreviewHandle: handle,
		})
	}

	s.rebuildLocked()
}

// RemoveItem revokes the item's preview handle and drops it from the list,
// then rebuilds. An unknown id is a no-op, not an error.
func (s *ImageStash) RemoveItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, item := range s.items {
		if item.ID != id {
			continue
		}

		s.minter.Revoke(item.PreviewHandle)
		s.items = append(s.items[:i], s.items[i+1:]...)
		s.rebuildLocked()
		return
	}
}

// Items returns a copy of the ordered item list.
func (s *ImageStash) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Len reports the current stash size.
func (s *ImageStash) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// CanSubmit reports whether generation may be requested: at least one image.
func (s *ImageStash) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) > 0
}

// Reassert re-fires the change listener without mutating anything. Called
// after an external full refresh so cached state re-asserts itself onto the
// rebuilt surface.
func (s *ImageStash) Reassert() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuildLocked()
}

func (s *ImageStash) rebuildLocked() {
	projection := make([]File, len(s.items))
	for i, item := range s.items {
		projection[i] = item.File
	}
	s.files.Replace(projection)

	if s.onChange != nil {
		items := make([]Item, len(s.items))
		copy(items, s.items)
		s.onChange(items, len(s.items) > 0)
	}
}

func isImage(mediaType string) bool {
	return strings.HasPrefix(mediaType, "image/")
}
