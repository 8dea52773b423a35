package tracker

import "time"

// Rect is the measured geometry of an anchor element, with Top relative to
// the document origin.
type Rect struct {
	Top    float64
	Height float64
}

// Entry is one intersection observation for an anchor. Top is the anchor's
// current top edge relative to the viewport.
type Entry struct {
	AnchorID          string
	IntersectionRatio float64
	Top               float64
}

// Viewport abstracts element measurement, intersection observation and
// scrolling so the tracker is testable without a browser.
type Viewport interface {
	// Measure returns the anchor's document-relative geometry. ok is
	// false when the element is not in the DOM.
	Measure(anchorID string) (Rect, bool)
	// Observe registers an intersection callback for the anchor using the
	// given thresholds. ok is false when the element is missing; missing
	// anchors are skipped, never an error. The returned func unregisters.
	Observe(anchorID string, thresholds []float64, callback func(Entry)) (unobserve func(), ok bool)
	// ScrollTo smooth-scrolls the document to the given offset.
	ScrollTo(offset float64)
	// ScrollY reports the current scroll position.
	ScrollY() float64
}

// Clock abstracts deferred execution so debounce and cooldown timers can be
// driven by virtual time in tests.
type Clock interface {
	// Schedule runs fn once after d. The returned func cancels a timer
	// that has not fired yet.
	Schedule(d time.Duration, fn func()) (cancel func())
}

// RealClock schedules on actual timers.
type RealClock struct{}

func (RealClock) Schedule(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Thresholds returns the observation threshold ramp: one step per 1% of
// visibility so the closest-to-line comparison has enough resolution.
func Thresholds() []float64 {
	out := make([]float64, 101)
	for i := range out {
		out[i] = float64(i) / 100
	}
	return out
}
