// Package tracker keeps a storefront's "currently active category" pointer
// synchronized with scroll position. It drives the pill selector and sticky
// header, and distinguishes user scrolling from click-to-scroll so a
// programmatic scroll is never misread as a new natural selection.
package tracker

import (
	"math"
	"sync"
	"time"

	"github.com/nightglass/storefront/pkg/logging"
)

const (
	// Cooldown exceeds typical smooth-scroll animation duration so the
	// user's explicit pill choice is not overridden mid-animation.
	Cooldown = 700 * time.Millisecond
	// Debounce coalesces observer bursts during fast scrolling.
	Debounce = 100 * time.Millisecond

	// The active zone line sits just below the sticky bars.
	activeZonePadding = 5.0
	// SlackTolerance lets an anchor slightly below the line still count
	// as "at" the line.
	SlackTolerance = 20.0
	// Anchors with near-zero visible area are noise.
	minVisibleRatio = 0.05
	// Near the top of the page the first category wins by default even
	// before it crosses the activation line.
	nearTopMargin = 100.0
)

// Section is one observable category anchor, in display order.
type Section struct {
	ID       int
	AnchorID string
}

// Tracker owns the active-category state of one storefront page view. It is
// either Idle, where observer events drive recomputes, or in a programmatic
// scroll cooldown, where they are ignored.
type Tracker struct {
	viewport Viewport
	clock    Clock
	logger   *logging.Logger

	mu           sync.Mutex
	sections     []Section
	headerHeight float64
	pillsHeight  float64

	activeID  int
	hasActive bool
	// programmatic is true only between SelectCategory and cooldown
	// expiry; evaluate returns early while it is set.
	programmatic bool

	latest         map[string]Entry
	unobserves     []func()
	cancelCooldown func()
	cancelDebounce func()
	stopped        bool
}

// New constructs a tracker. A nil clock uses real timers.
func New(viewport Viewport, clock Clock, logger *logging.Logger) *Tracker {
	if viewport == nil {
		panic("tracker: viewport required")
	}
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Tracker{
		viewport: viewport,
		clock:    clock,
		logger:   logger.Component("tracker"),
		latest:   map[string]Entry{},
	}
}

// SetBarHeights records the sticky header and pill bar heights used to place
// the active zone line and compute scroll offsets.
func (t *Tracker) SetBarHeights(header, pills float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.headerHeight = header
	t.pillsHeight = pills
}

// Start registers observation for every section anchor. Anchors missing
// from the DOM are skipped. Calling Start again replaces the previous
// section set.
func (t *Tracker) Start(sections []Section) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.teardownLocked()
	t.stopped = false
	t.sections = append([]Section(nil), sections...)
	t.latest = map[string]Entry{}
	for _, sec := range sections {
		unobserve, ok := t.viewport.Observe(sec.AnchorID, Thresholds(), t.observerFired)
		if !ok {
			t.logger.Debug("anchor not in DOM, skipping observation", "anchor", sec.AnchorID)
			continue
		}
		t.unobserves = append(t.unobserves, unobserve)
	}
}

// Stop cancels timers and disconnects all observation. Mandatory on
// teardown so callbacks never fire against a replaced page view.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.teardownLocked()
	t.stopped = true
}

func (t *Tracker) teardownLocked() {
	if t.cancelCooldown != nil {
		t.cancelCooldown()
		t.cancelCooldown = nil
	}
	if t.cancelDebounce != nil {
		t.cancelDebounce()
		t.cancelDebounce = nil
	}
	for _, unobserve := range t.unobserves {
		unobserve()
	}
	t.unobserves = nil
	t.programmatic = false
}

// ActiveID returns the active category id; ok is false before any category
// has been observed or selected.
func (t *Tracker) ActiveID() (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activeID, t.hasActive
}

// ScrollOffset is the distance from the viewport top to the active zone
// line: sticky header plus pill bar plus fixed padding.
func (t *Tracker) ScrollOffset() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activeZoneLocked()
}

func (t *Tracker) activeZoneLocked() float64 {
	return t.headerHeight + t.pillsHeight + activeZonePadding
}

// SelectCategory handles a pill click: set the active id immediately,
// smooth-scroll the anchor under the sticky bars, and suppress observer
// recomputes for the cooldown window.
func (t *Tracker) SelectCategory(id int) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	var anchor string
	for _, sec := range t.sections {
		if sec.ID == id {
			anchor = sec.AnchorID
			break
		}
	}
	if anchor == "" {
		t.mu.Unlock()
		t.logger.Warn("select for unknown category", "category_id", id)
		return
	}

	t.activeID = id
	t.hasActive = true

	t.programmatic = true
	if t.cancelDebounce != nil {
		t.cancelDebounce()
		t.cancelDebounce = nil
	}
	if t.cancelCooldown != nil {
		t.cancelCooldown()
	}
	t.cancelCooldown = t.clock.Schedule(Cooldown, t.cooldownExpired)

	offset := t.activeZoneLocked()
	viewport := t.viewport
	t.mu.Unlock()

	// The scroll can deliver observations back into observerFired on the
	// same goroutine, so it runs outside the lock with the cooldown
	// already armed.
	if rect, ok := viewport.Measure(anchor); ok {
		viewport.ScrollTo(rect.Top - offset)
	}
}

func (t *Tracker) cooldownExpired() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.programmatic = false
	t.cancelCooldown = nil
}

// observerFired records the latest entry for an anchor and arms the
// trailing debounce. During a programmatic scroll the event is recorded but
// never evaluated, so transient intersections of the animation cannot
// override the user's choice.
func (t *Tracker) observerFired(entry Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.latest[entry.AnchorID] = entry
	if t.programmatic {
		return
	}
	if t.cancelDebounce != nil {
		t.cancelDebounce()
	}
	t.cancelDebounce = t.clock.Schedule(Debounce, t.evaluate)
}

// evaluate picks the category whose top edge is closest to the active zone
// line without being more than the slack below it. With no qualifying
// anchor near the top of the page, the first category wins.
func (t *Tracker) evaluate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelDebounce = nil
	if t.stopped || t.programmatic {
		return
	}

	zone := t.activeZoneLocked()

	bestID := 0
	bestDistance := math.Inf(1)
	found := false
	for _, sec := range t.sections {
		entry, ok := t.latest[sec.AnchorID]
		if !ok || entry.IntersectionRatio < minVisibleRatio {
			continue
		}
		if entry.Top > zone+SlackTolerance {
			continue
		}
		distance := math.Abs(zone - entry.Top)
		if distance < bestDistance {
			bestDistance = distance
			bestID = sec.ID
			found = true
		}
	}

	if !found {
		if t.viewport.ScrollY() < zone+nearTopMargin && len(t.sections) > 0 {
			t.activeID = t.sections[0].ID
			t.hasActive = true
		}
		return
	}

	t.activeID = bestID
	t.hasActive = true
}
