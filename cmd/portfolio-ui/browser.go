//go:build js && wasm

package main

import (
	"context"
	"errors"
	"syscall/js"
	"time"

	"github.com/nabilfaruk/portfolio/internal/ui"
)

// scheduler runs timers and continuations on the browser's event loop.
type scheduler struct {
	window js.Value
}

type timer struct {
	window  js.Value
	id      js.Value
	cb      js.Func
	pending bool
}

func (s scheduler) AfterFunc(d time.Duration, fn func()) ui.Timer {
	t := &timer{window: s.window, pending: true}
	t.cb = js.FuncOf(func(js.Value, []js.Value) any {
		if !t.pending {
			return nil
		}
		t.pending = false
		t.cb.Release()
		fn()
		return nil
	})
	t.id = s.window.Call("setTimeout", t.cb, d.Milliseconds())
	return t
}

func (t *timer) Stop() bool {
	if !t.pending {
		return false
	}
	t.pending = false
	t.window.Call("clearTimeout", t.id)
	t.cb.Release()
	return true
}

// Async runs work on its own goroutine: blocking inside a js.FuncOf callback
// would deadlock the page. The continuation is posted back with setTimeout.
func (s scheduler) Async(work func() func()) {
	go func() {
		if cont := work(); cont != nil {
			s.AfterFunc(0, cont)
		}
	}()
}

type viewport struct {
	window js.Value
}

func (v viewport) ScrollY() float64 { return v.window.Get("pageYOffset").Float() }

func (v viewport) Box(el ui.Element) ui.Box {
	e := el.(*element).v
	return ui.Box{Top: e.Get("offsetTop").Float(), Height: e.Get("clientHeight").Float()}
}

func (v viewport) ScrollIntoView(el ui.Element) {
	el.(*element).v.Call("scrollIntoView", map[string]any{"behavior": "smooth", "block": "start"})
}

func (v viewport) OnScroll(fn func()) {
	v.window.Call("addEventListener", "scroll", js.FuncOf(func(js.Value, []js.Value) any {
		fn()
		return nil
	}))
}

// visibility wraps IntersectionObserver.
type visibility struct {
	window js.Value
	doc    *document
}

func (v visibility) NewObserver(opts ui.ObserverOptions, fn func([]ui.Intersection)) ui.Observer {
	cb := js.FuncOf(func(_ js.Value, args []js.Value) any {
		entries := args[0]
		out := make([]ui.Intersection, 0, entries.Length())
		for i := 0; i < entries.Length(); i++ {
			e := entries.Index(i)
			out = append(out, ui.Intersection{
				Target:       v.doc.wrap(e.Get("target")),
				Intersecting: e.Get("isIntersecting").Bool(),
				Ratio:        e.Get("intersectionRatio").Float(),
			})
		}
		fn(out)
		return nil
	})
	options := map[string]any{"threshold": opts.Threshold}
	if opts.RootMargin != "" {
		options["rootMargin"] = opts.RootMargin
	}
	return &observer{v: v.window.Get("IntersectionObserver").New(cb, options), cb: cb}
}

type observer struct {
	v  js.Value
	cb js.Func
}

func (o *observer) Observe(el ui.Element)   { o.v.Call("observe", el.(*element).v) }
func (o *observer) Unobserve(el ui.Element) { o.v.Call("unobserve", el.(*element).v) }

func (o *observer) Disconnect() {
	o.v.Call("disconnect")
	o.cb.Release()
}

var errClipboardUnavailable = errors.New("clipboard API unavailable")

// clipboard awaits navigator.clipboard.writeText. It is only called off the
// loop, from Scheduler.Async work.
type clipboard struct {
	navigator js.Value
}

func (c clipboard) WriteText(ctx context.Context, text string) error {
	api := c.navigator.Get("clipboard")
	if api.IsUndefined() || api.IsNull() {
		return errClipboardUnavailable
	}

	done := make(chan error, 1)
	var resolve, reject js.Func
	resolve = js.FuncOf(func(js.Value, []js.Value) any {
		done <- nil
		return nil
	})
	reject = js.FuncOf(func(_ js.Value, args []js.Value) any {
		msg := "clipboard write rejected"
		if len(args) > 0 && args[0].Truthy() {
			msg = args[0].Call("toString").String()
		}
		done <- errors.New(msg)
		return nil
	})
	api.Call("writeText", text).Call("then", resolve, reject)

	release := func() {
		resolve.Release()
		reject.Release()
	}
	select {
	case err := <-done:
		release()
		return err
	case <-ctx.Done():
		// the promise still settles later and must find its callbacks
		go func() {
			<-done
			release()
		}()
		return ctx.Err()
	}
}
