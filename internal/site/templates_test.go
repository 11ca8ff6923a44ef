package site

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplate(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func execute(t *testing.T, tmpl *Templates, name string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, tmpl.Execute(&buf, name, gin.H{"who": "world"}))
	return buf.String()
}

func TestEmbeddedTemplatesParse(t *testing.T) {
	tmpl, err := NewTemplates("", nil)
	require.NoError(t, err)

	for name := range pageTitles {
		assert.NotNil(t, tmpl.current.Load().Lookup(name), name)
	}
	assert.Error(t, tmpl.Execute(&bytes.Buffer{}, "missing.html", nil))
}

func TestTemplatesFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "index.html", `hello {{.who}}`)

	tmpl, err := NewTemplates(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello world", execute(t, tmpl, "index.html"))

	writeTemplate(t, dir, "index.html", `goodbye {{.who}}`)
	assert.Equal(t, "hello world", execute(t, tmpl, "index.html"), "no reload yet")
	require.NoError(t, tmpl.Reload())
	assert.Equal(t, "goodbye world", execute(t, tmpl, "index.html"))

	writeTemplate(t, dir, "index.html", `broken {{.who`)
	assert.Error(t, tmpl.Reload())
	assert.Equal(t, "goodbye world", execute(t, tmpl, "index.html"), "previous set stays live")
}

func TestTemplatesWithoutFilesFail(t *testing.T) {
	_, err := NewTemplates(t.TempDir(), nil)
	assert.Error(t, err)
}

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "index.html", `v1`)
	tmpl, err := NewTemplates(dir, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tmpl.Watch(ctx) }()
	defer func() {
		cancel()
		assert.NoError(t, <-done)
	}()

	// the watcher registers asynchronously, so keep rewriting until it sees one
	path := filepath.Join(dir, "index.html")
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(`v2`), 0o644)
		var buf bytes.Buffer
		return tmpl.Execute(&buf, "index.html", nil) == nil && buf.String() == "v2"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatchWithEmbeddedTemplatesReturns(t *testing.T) {
	tmpl, err := NewTemplates("", nil)
	require.NoError(t, err)
	assert.NoError(t, tmpl.Watch(context.Background()))
}

func TestRenderFailureIs500(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "index.html", `<p>{{index .list 5}}</p>`)
	tmpl, err := NewTemplates(dir, nil)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/", func(c *gin.Context) { tmpl.Render(c, http.StatusOK, "index.html", gin.H{"list": []int{1}}) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Sorry, this page could not be rendered.", rec.Body.String())
}
