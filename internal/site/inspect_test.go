package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nabilfaruk/portfolio/internal/ui"
	"github.com/nabilfaruk/portfolio/internal/ui/headless"
)

func TestInspectRenderedPages(t *testing.T) {
	s := newTestServer(t)

	reports, err := Inspect(context.Background(), s.router, nil, "/", "/projects", "/contact", "/missing")
	require.NoError(t, err)
	require.Len(t, reports, 4)

	byPath := map[string]PageReport{}
	for _, r := range reports {
		byPath[r.Path] = r
	}

	assert.Equal(t, http.StatusOK, byPath["/"].Status)
	assert.Subset(t, byPath["/"].Features, []ui.Feature{
		ui.FeatureSmoothScroll, ui.FeatureActiveSection, ui.FeatureMobileMenu,
		ui.FeatureReveal, ui.FeatureTyping, ui.FeatureEscape, ui.FeatureEmailCopy,
	})
	assert.NotContains(t, byPath["/"].Features, ui.FeatureContactForm)

	assert.Contains(t, byPath["/projects"].Features, ui.FeatureReveal)
	assert.Contains(t, byPath["/contact"].Features, ui.FeatureContactForm)
	assert.Equal(t, http.StatusNotFound, byPath["/missing"].Status)

	stats := fetchStats(t, s)
	assert.Zero(t, stats.TotalVisitors, "inspection is not tracked")
}

func TestInspectStopsItsEventLoop(t *testing.T) {
	s := newTestServer(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	for i := 0; i < 3; i++ {
		reports, err := Inspect(context.Background(), s.router, nil, "/", "/contact")
		require.NoError(t, err)
		require.Len(t, reports, 2)
		assert.Contains(t, reports[0].Features, ui.FeatureTyping)
	}
}

// The contact page, rendered by the server, submits back to the same server
// through the real HTTP client.
func TestContactPageRoundTrip(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	rec := s.get("/contact")
	doc, err := headless.Parse(rec.Body)
	require.NoError(t, err)
	rt := headless.NewRuntime(doc)

	client := ui.NewHTTPContactClient(srv.URL + "/contact")
	client.Client = srv.Client()
	ctrl, err := ui.Bind(context.Background(), rt.Deps(client, nil))
	require.NoError(t, err)
	defer ctrl.Close()

	form := doc.ByID("contactForm")
	form.Query(`[name="name"]`).SetValue("Ada")
	form.Query(`[name="email"]`).SetValue("ada@example.com")
	form.Query(`[name="message"]`).SetValue("Hello")

	ev := doc.Submit(form)
	assert.True(t, ev.DefaultPrevented())
	rt.Clock.Flush()

	toast := doc.Query(".notification")
	require.NotNil(t, toast)
	assert.True(t, toast.HasClass("success"))
	assert.Equal(t, "Message sent successfully! I'll get back to you soon.", toast.Text())
	assert.Equal(t, "", form.Query(`[name="name"]`).Value())

	rt.Clock.Advance(ui.NotificationLifetime + ui.NotificationFade + time.Millisecond)
	assert.Nil(t, doc.Query(".notification"))
}

func TestContactPageRateLimited(t *testing.T) {
	s := newTestServer(t, withLimiter(NewIPRateLimiter(1, time.Hour)))

	// same client address the in-process transport uses
	rec := s.doFrom("127.0.0.1:1234", http.MethodGet, "/contact", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc, err := headless.Parse(rec.Body)
	require.NoError(t, err)
	rt := headless.NewRuntime(doc)

	ctrl, err := ui.Bind(context.Background(), rt.Deps(InProcessContactClient(s.router), nil))
	require.NoError(t, err)
	defer ctrl.Close()

	form := doc.ByID("contactForm")
	form.Query(`[name="name"]`).SetValue("Ada")
	doc.Submit(form)
	rt.Clock.Flush()

	toast := doc.Query(".notification")
	require.NotNil(t, toast)
	assert.True(t, toast.HasClass("error"))
	assert.Equal(t, "Network error. Please try again later.", toast.Text())
	assert.Equal(t, "Ada", form.Query(`[name="name"]`).Value())
}
