package headless

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nabilfaruk/portfolio/internal/ui"
)

// Viewport is a ui.Viewport whose layout is set by the caller.
type Viewport struct {
	y         float64
	boxes     map[ui.Element]ui.Box
	listeners []func()
	scrolled  []ui.Element
}

var _ ui.Viewport = (*Viewport)(nil)

func NewViewport() *Viewport {
	return &Viewport{boxes: make(map[ui.Element]ui.Box)}
}

func (v *Viewport) SetBox(el ui.Element, box ui.Box) { v.boxes[el] = box }
func (v *Viewport) ScrollY() float64                 { return v.y }
func (v *Viewport) Box(el ui.Element) ui.Box         { return v.boxes[el] }
func (v *Viewport) OnScroll(fn func())               { v.listeners = append(v.listeners, fn) }

// ScrollTo moves the viewport and fires scroll listeners.
func (v *Viewport) ScrollTo(y float64) {
	v.y = y
	for _, fn := range v.listeners {
		fn()
	}
}

// ScrollIntoView jumps to el's top; smooth scrolling has no duration here.
func (v *Viewport) ScrollIntoView(el ui.Element) {
	v.scrolled = append(v.scrolled, el)
	v.ScrollTo(v.boxes[el].Top)
}

// ScrolledTo lists the elements passed to ScrollIntoView, oldest first.
func (v *Viewport) ScrolledTo() []ui.Element {
	return slices.Clone(v.scrolled)
}

// Visibility is a ui.Visibility whose intersections are reported by the
// caller with Trigger. Unlike a browser it sends no initial callback on
// Observe.
type Visibility struct {
	observers []*observer
}

var _ ui.Visibility = (*Visibility)(nil)

type observer struct {
	opts         ui.ObserverOptions
	fn           func([]ui.Intersection)
	targets      []ui.Element
	disconnected bool
}

func NewVisibility() *Visibility { return &Visibility{} }

func (v *Visibility) NewObserver(opts ui.ObserverOptions, fn func([]ui.Intersection)) ui.Observer {
	o := &observer{opts: opts, fn: fn}
	v.observers = append(v.observers, o)
	return o
}

func (o *observer) Observe(el ui.Element) {
	if !o.disconnected && !slices.Contains(o.targets, el) {
		o.targets = append(o.targets, el)
	}
}

func (o *observer) Unobserve(el ui.Element) {
	o.targets = slices.DeleteFunc(o.targets, func(t ui.Element) bool { return t == el })
}

func (o *observer) Disconnect() {
	o.targets = nil
	o.disconnected = true
}

// Trigger reports that el is now ratio visible (0 means it left the
// viewport). Observers are notified when ratio reaches their threshold or
// drops to zero.
func (v *Visibility) Trigger(el ui.Element, ratio float64) {
	for _, o := range slices.Clone(v.observers) {
		if o.disconnected || !slices.Contains(o.targets, el) {
			continue
		}
		if ratio > 0 && ratio < o.opts.Threshold {
			continue
		}
		o.fn([]ui.Intersection{{Target: el, Intersecting: ratio > 0, Ratio: ratio}})
	}
}

// Observing reports whether any live observer watches el.
func (v *Visibility) Observing(el ui.Element) bool {
	for _, o := range v.observers {
		if !o.disconnected && slices.Contains(o.targets, el) {
			return true
		}
	}
	return false
}

// Options returns the options of every observer created so far.
func (v *Visibility) Options() []ui.ObserverOptions {
	out := make([]ui.ObserverOptions, len(v.observers))
	for i, o := range v.observers {
		out[i] = o.opts
	}
	return out
}

// Clipboard records writes. Setting Err makes writes fail.
type Clipboard struct {
	mu     sync.Mutex
	writes []string
	Err    error
}

var _ ui.Clipboard = (*Clipboard)(nil)

func (c *Clipboard) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.writes = append(c.writes, text)
	return nil
}

func (c *Clipboard) Writes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.writes)
}

// Clock is a manually advanced ui.Scheduler. Async work runs synchronously
// and its continuation waits for Flush or Advance.
type Clock struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*clockTimer
	posted []func()
}

var _ ui.Scheduler = (*Clock)(nil)

type clockTimer struct {
	clock *Clock
	at    time.Duration
	seq   int
	fn    func()
	done  bool
}

func (t *clockTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

func NewClock() *Clock { return &Clock{} }

// Now is the time elapsed since the clock was created.
func (c *Clock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) AfterFunc(d time.Duration, fn func()) ui.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &clockTimer{clock: c, at: c.now + d, seq: c.seq, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (c *Clock) Async(work func() func()) {
	if cont := work(); cont != nil {
		c.mu.Lock()
		c.posted = append(c.posted, cont)
		c.mu.Unlock()
	}
}

// Flush runs queued continuations, including ones they queue.
func (c *Clock) Flush() {
	for {
		c.mu.Lock()
		if len(c.posted) == 0 {
			c.mu.Unlock()
			return
		}
		fn := c.posted[0]
		c.posted = c.posted[1:]
		c.mu.Unlock()
		fn()
	}
}

// Advance moves time forward by d, running due timers in order.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	c.Flush()
	for {
		t := c.nextDue(target)
		if t == nil {
			break
		}
		t.fn()
		c.Flush()
	}

	c.mu.Lock()
	c.now = target
	c.mu.Unlock()
}

func (c *Clock) nextDue(target time.Duration) *clockTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timers = slices.DeleteFunc(c.timers, func(t *clockTimer) bool { return t.done })
	var next *clockTimer
	for _, t := range c.timers {
		if t.at > target {
			continue
		}
		if next == nil || t.at < next.at || (t.at == next.at && t.seq < next.seq) {
			next = t
		}
	}
	if next != nil {
		next.done = true
		c.now = next.at
	}
	return next
}

// Pending counts timers that have neither fired nor been stopped.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.done {
			n++
		}
	}
	return n
}

// Runtime bundles a document with headless capabilities.
type Runtime struct {
	Document   *Document
	Viewport   *Viewport
	Visibility *Visibility
	Clipboard  *Clipboard
	Clock      *Clock
}

func NewRuntime(doc *Document) *Runtime {
	return &Runtime{
		Document:   doc,
		Viewport:   NewViewport(),
		Visibility: NewVisibility(),
		Clipboard:  &Clipboard{},
		Clock:      NewClock(),
	}
}

// Deps wires the runtime into ui.Deps. A nil contact client disables the
// contact form; a nil logger discards logs.
func (r *Runtime) Deps(contact ui.ContactClient, logger *zap.Logger) ui.Deps {
	return ui.Deps{
		Document:   r.Document,
		Scheduler:  r.Clock,
		Viewport:   r.Viewport,
		Visibility: r.Visibility,
		Clipboard:  r.Clipboard,
		Contact:    contact,
		Logger:     logger,
	}
}
