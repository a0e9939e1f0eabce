package studio

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/atotto/clipboard"
)

// CopyFeedbackDuration is how long the "Copied!" label shows before reverting.
const CopyFeedbackDuration = 2 * time.Second

const (
	copyLabelIdle   = "Copy"
	copyLabelActive = "Copied!"
)

// CreativityReadout is the derived display state of the creativity slider:
// an integer percentage plus the two visual affordances driven by it.
type CreativityReadout struct {
	Percent     int
	FillWidth   string
	ThumbOffset string
}

// Creativity maps a slider value in [0,1] to its readout. Pure; recomputed on
// every input event and once at initialization.
func Creativity(value float64) CreativityReadout {
	pct := int(math.Round(value * 100))
	return CreativityReadout{
		Percent:     pct,
		FillWidth:   fmt.Sprintf("%d%%", pct),
		ThumbOffset: fmt.Sprintf("%d%%", pct),
	}
}

// FamilySelector keeps "exactly one active family" state, mirrors it into a
// hidden field value, and asks an opaque collaborator to refresh the
// checkpoint surface for the selected family.
type FamilySelector struct {
	mu      sync.Mutex
	active  string
	refresh func(familyID string)
}

// NewFamilySelector starts with defaultID active. The refresh collaborator is
// not invoked for the initial selection; the host surface already rendered it.
func NewFamilySelector(defaultID string, refresh func(familyID string)) *FamilySelector {
	return &FamilySelector{active: defaultID, refresh: refresh}
}

// Select makes familyID the single active family and triggers the partial
// refresh scoped to it.
func (f *FamilySelector) Select(familyID string) {
	f.mu.Lock()
	f.active = familyID
	refresh := f.refresh
	f.mu.Unlock()

	if refresh != nil {
		refresh(familyID)
	}
}

// Active returns the single active family id.
func (f *FamilySelector) Active() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// HiddenValue returns the value mirrored into the form's hidden family field.
// It is always identical to the active id.
func (f *FamilySelector) HiddenValue() string {
	return f.Active()
}

// ClipboardWriter abstracts the system clipboard so tests run headless.
type ClipboardWriter func(text string) error

// CopyBinder implements the copy-to-clipboard affordance. Labels are keyed by
// target, so every control sharing a target transitions together: one
// successful copy flips the shared label to "Copied!" and a single per-target
// timer reverts it after CopyFeedbackDuration.
type CopyBinder struct {
	mu      sync.Mutex
	write   ClipboardWriter
	revert  time.Duration
	labels  map[string]string
	timers  map[string]*time.Timer
	onLabel func(target, label string)
}

// NewCopyBinder uses the system clipboard by default.
func NewCopyBinder() *CopyBinder {
	return &CopyBinder{
		write:  clipboard.WriteAll,
		revert: CopyFeedbackDuration,
		labels: make(map[string]string),
		timers: make(map[string]*time.Timer),
	}
}

// SetWriter swaps the clipboard implementation.
func (c *CopyBinder) SetWriter(write ClipboardWriter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.write = write
}

// SetRevertDelay overrides the feedback duration.
func (c *CopyBinder) SetRevertDelay(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revert = d
}

// SetLabelListener registers a sink notified whenever a target's label
// changes.
func (c *CopyBinder) SetLabelListener(fn func(target, label string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onLabel = fn
}

// Copy writes text to the clipboard for the named target. On success the
// target's label shows the transient feedback; a repeat copy restarts the
// revert timer. Failures change nothing — the affordance is best-effort.
func (c *CopyBinder) Copy(target, text string) {
	c.mu.Lock()
	write := c.write
	c.mu.Unlock()

	if err := write(text); err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.setLabelLocked(target, copyLabelActive)

	if timer, ok := c.timers[target]; ok {
		timer.Stop()
	}
	c.timers[target] = time.AfterFunc(c.revert, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.setLabelLocked(target, copyLabelIdle)
		delete(c.timers, target)
	})
}

// Label returns the current label for a target.
func (c *CopyBinder) Label(target string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if label, ok := c.labels[target]; ok {
		return label
	}
	return copyLabelIdle
}

func (c *CopyBinder) setLabelLocked(target, label string) {
	c.labels[target] = label
	if c.onLabel != nil {
		c.onLabel(target, label)
	}
}
