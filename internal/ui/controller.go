package ui

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Feature names one independently bound behavior.
type Feature string

const (
	FeatureSmoothScroll  Feature = "smooth-scroll"
	FeatureActiveSection Feature = "active-section"
	FeatureMobileMenu    Feature = "mobile-menu"
	FeatureContactForm   Feature = "contact-form"
	FeatureReveal        Feature = "reveal"
	FeatureTyping        Feature = "typing"
	FeatureLazyImages    Feature = "lazy-images"
	FeatureEscape        Feature = "escape-dismiss"
	FeatureEmailCopy     Feature = "email-copy"
)

// Deps are the capabilities the controller runs against. Document and
// Scheduler are required; a feature whose capability is nil is skipped.
type Deps struct {
	Document   Document
	Scheduler  Scheduler
	Viewport   Viewport
	Visibility Visibility
	Clipboard  Clipboard
	Contact    ContactClient
	Logger     *zap.Logger
}

// Controller is the bound set of page handlers. All methods other than
// Features must be called on the scheduler's loop.
type Controller struct {
	deps Deps
	log  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool

	mu        sync.Mutex
	timers    map[*trackedTimer]struct{}
	observers []Observer
	features  []Feature
}

// Bind queries the document once and wires every behavior whose elements
// are present. Missing elements are not an error.
func Bind(ctx context.Context, deps Deps) (*Controller, error) {
	if deps.Document == nil {
		return nil, errors.New("ui: document is required")
	}
	if deps.Scheduler == nil {
		return nil, errors.New("ui: scheduler is required")
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	c := &Controller{
		deps:   deps,
		log:    log,
		timers: make(map[*trackedTimer]struct{}),
	}
	c.ctx, c.cancel = context.WithCancel(ctx)

	c.bindNavigation()
	c.bindMobileMenu()
	c.bindContactForm()
	c.bindReveal()
	c.bindTyping()
	c.bindEscape()
	c.bindEmailCopy()
	c.bindLazyImages()

	log.Info("ui controller bound", zap.Int("features", len(c.features)))
	return c, nil
}

// Features lists the behaviors that found their elements, in bind order.
func (c *Controller) Features() []Feature {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Feature, len(c.features))
	copy(out, c.features)
	return out
}

// Has reports whether f was bound.
func (c *Controller) Has(f Feature) bool {
	for _, got := range c.Features() {
		if got == f {
			return true
		}
	}
	return false
}

// Close cancels pending timers, disconnects observers and abandons
// in-flight requests. Handlers that fire afterwards do nothing.
func (c *Controller) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.cancel()

	c.mu.Lock()
	timers := c.timers
	c.timers = make(map[*trackedTimer]struct{})
	observers := c.observers
	c.observers = nil
	c.mu.Unlock()

	for t := range timers {
		t.inner.Stop()
	}
	for _, o := range observers {
		o.Disconnect()
	}
	c.log.Debug("ui controller closed", zap.Int("cancelled_timers", len(timers)))
}

func (c *Controller) enable(f Feature) {
	c.mu.Lock()
	c.features = append(c.features, f)
	c.mu.Unlock()
}

func (c *Controller) active() bool {
	return !c.closed.Load()
}

type trackedTimer struct {
	inner Timer
}

// after schedules fn on the loop and forgets the timer once it fires.
func (c *Controller) after(d time.Duration, fn func()) {
	if !c.active() {
		return
	}
	tt := &trackedTimer{}
	c.mu.Lock()
	c.timers[tt] = struct{}{}
	c.mu.Unlock()

	tt.inner = c.deps.Scheduler.AfterFunc(d, func() {
		c.mu.Lock()
		_, pending := c.timers[tt]
		delete(c.timers, tt)
		c.mu.Unlock()
		if pending && c.active() {
			fn()
		}
	})
}

// pendingTimers is the number of scheduled callbacks that have not run.
func (c *Controller) pendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// async runs work off the loop; its continuation is dropped after Close.
func (c *Controller) async(work func(ctx context.Context) func()) {
	if !c.active() {
		return
	}
	ctx := c.ctx
	c.deps.Scheduler.Async(func() func() {
		cont := work(ctx)
		if cont == nil {
			return nil
		}
		return func() {
			if c.active() {
				cont()
			}
		}
	})
}

func (c *Controller) observe(opts ObserverOptions, fn func([]Intersection)) Observer {
	obs := c.deps.Visibility.NewObserver(opts, func(entries []Intersection) {
		if c.active() {
			fn(entries)
		}
	})
	c.mu.Lock()
	c.observers = append(c.observers, obs)
	c.mu.Unlock()
	return obs
}

// on wraps an event handler so it is inert after Close.
func (c *Controller) on(target interface {
	AddEventListener(string, func(Event))
}, event string, fn func(Event)) {
	target.AddEventListener(event, func(e Event) {
		if c.active() {
			fn(e)
		}
	})
}
