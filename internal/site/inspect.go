package site

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"

	"go.uber.org/zap"

	"github.com/nabilfaruk/portfolio/internal/ui"
	"github.com/nabilfaruk/portfolio/internal/ui/headless"
)

// PageReport is what binding the UI controller on one rendered page found.
type PageReport struct {
	Path     string       `json:"path"`
	Status   int          `json:"status"`
	Features []ui.Feature `json:"features"`
}

// handlerTransport serves client requests straight from h, in process.
type handlerTransport struct {
	h http.Handler
}

func (t handlerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.RemoteAddr = "127.0.0.1:0"
	rec := httptest.NewRecorder()
	t.h.ServeHTTP(rec, req)
	return rec.Result(), nil
}

// InProcessContactClient posts contact submissions to h without a network.
func InProcessContactClient(h http.Handler) *ui.HTTPContactClient {
	client := ui.NewHTTPContactClient("http://portfolio.local/contact")
	client.Client = &http.Client{Transport: handlerTransport{h: h}}
	return client
}

// Inspect renders each path through h, binds a UI controller on the result
// with the headless runtime and reports the features that bound. Binding,
// reporting and teardown all happen on one EventLoop.
func Inspect(ctx context.Context, h http.Handler, log *zap.Logger, paths ...string) ([]PageReport, error) {
	contact := InProcessContactClient(h)
	reports := make([]PageReport, 0, len(paths))

	loop := ui.NewEventLoop()
	defer loop.Close()

	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil).WithContext(ctx)
		// inspection is not a visit
		req.Header.Set("DNT", "1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		doc, err := headless.Parse(rec.Body)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		deps := headless.NewRuntime(doc).Deps(contact, log)
		deps.Scheduler = loop

		var (
			ctrl     *ui.Controller
			features []ui.Feature
		)
		loop.Do(func() {
			ctrl, err = ui.Bind(ctx, deps)
			if err == nil {
				features = ctrl.Features()
				ctrl.Close()
			}
		})
		if err != nil {
			return nil, fmt.Errorf("bind %s: %w", path, err)
		}
		reports = append(reports, PageReport{Path: path, Status: rec.Code, Features: features})
	}
	return reports, nil
}
