//go:build js && wasm

// Command portfolio-ui is the page controller compiled to WebAssembly. The
// site loads it from /static/wasm/portfolio-ui.wasm and it binds to the page
// it was loaded into.
package main

import (
	"context"
	"syscall/js"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nabilfaruk/portfolio/internal/ui"
)

func newLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.DisableStacktrace = true
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log.Named("portfolio-ui")
}

func main() {
	log := newLogger()
	window := js.Global()
	doc := newDocument(window.Get("document"))

	deps := ui.Deps{
		Document:  doc,
		Scheduler: scheduler{window: window},
		Viewport:  viewport{window: window},
		Clipboard: clipboard{navigator: window.Get("navigator")},
		Contact:   ui.NewHTTPContactClient(window.Get("location").Get("origin").String() + "/contact"),
		Logger:    log,
	}
	if !window.Get("IntersectionObserver").IsUndefined() {
		deps.Visibility = visibility{window: window, doc: doc}
	}

	ctrl, err := ui.Bind(context.Background(), deps)
	if err != nil {
		log.Error("bind failed", zap.Error(err))
		return
	}

	life := newLifecycle(ctrl.Close)
	var onHide js.Func
	onHide = js.FuncOf(func(_ js.Value, args []js.Value) any {
		persisted := len(args) > 0 && args[0].Get("persisted").Truthy()
		if life.pageHide(persisted) {
			window.Call("removeEventListener", "pagehide", onHide)
		}
		return nil
	})
	window.Call("addEventListener", "pagehide", onHide)

	// the handlers live on the Go side, so main must not return
	<-life.Done()
	onHide.Release()
	_ = log.Sync()
}
