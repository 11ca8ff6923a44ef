// Package ui is the page controller that runs in the browser: navigation,
// mobile menu, contact form, notifications, scroll reveal, typing effect,
// lazy images and email copy.
//
// The controller never touches browser globals. Everything it needs is
// passed to Bind as a capability: the document, the viewport, intersection
// observation, the clipboard, the contact endpoint and a scheduler. The
// WebAssembly entry point adapts the real browser; package headless adapts
// parsed HTML for tests and tooling.
package ui

import (
	"context"
	"time"
)

// Node is anything that can be searched with a CSS selector.
type Node interface {
	// Query returns the first match or nil.
	Query(selector string) Element
	QueryAll(selector string) []Element
}

// Element is a single DOM element. Implementations must return the same
// Element value for the same underlying node so elements can be compared and
// used as map keys.
type Element interface {
	Node

	ID() string
	TagName() string

	Attr(name string) (string, bool)
	SetAttr(name, value string)
	RemoveAttr(name string)

	HasClass(name string) bool
	AddClass(name string)
	RemoveClass(name string)
	// ToggleClass flips name and reports whether it is now present.
	ToggleClass(name string) bool

	Text() string
	SetText(text string)

	Style(property string) string
	SetStyle(property, value string)

	// Value and SetValue address form controls.
	Value() string
	SetValue(value string)
	// Reset restores a form to its initial state; no-op for other elements.
	Reset()

	AddEventListener(event string, fn func(Event))
}

type Document interface {
	Node

	ByID(id string) Element
	CreateElement(tag string) Element
	AppendToBody(el Element)
	// Detach removes el from its parent and reports false if it had none.
	Detach(el Element) bool
	AddEventListener(event string, fn func(Event))
}

type Event interface {
	Type() string
	PreventDefault()
	// Key is the KeyboardEvent key, empty for other events.
	Key() string
}

// Box is an element's layout position: offsetTop and clientHeight.
type Box struct {
	Top    float64
	Height float64
}

// Viewport exposes scroll state and layout.
type Viewport interface {
	ScrollY() float64
	Box(el Element) Box
	// ScrollIntoView scrolls smoothly so el's top aligns with the viewport.
	ScrollIntoView(el Element)
	OnScroll(fn func())
}

type ObserverOptions struct {
	Threshold float64
	// RootMargin uses CSS margin syntax, e.g. "0px 0px -50px 0px".
	RootMargin string
}

type Intersection struct {
	Target       Element
	Intersecting bool
	Ratio        float64
}

type Observer interface {
	Observe(el Element)
	Unobserve(el Element)
	Disconnect()
}

// Visibility creates intersection observers.
type Visibility interface {
	NewObserver(opts ObserverOptions, fn func([]Intersection)) Observer
}

type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

type Timer interface {
	// Stop cancels the timer and reports whether it was still pending.
	Stop() bool
}

// Scheduler is the controller's event loop. Every callback it runs, timer or
// continuation, runs on the loop, one at a time.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
	// Async runs work off the loop and then runs the continuation it
	// returns, if any, back on the loop.
	Async(work func() func())
}
