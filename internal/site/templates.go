package site

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

//go:embed static
var embeddedStatic embed.FS

// StaticFS serves the embedded stylesheet, loader script and UI binary.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

var templateFuncs = template.FuncMap{
	"join":  strings.Join,
	"lower": strings.ToLower,
}

// Templates holds the parsed page set. The set is swapped atomically on
// reload, so requests in flight keep rendering with the set they started on.
type Templates struct {
	fsys    fs.FS
	dir     string
	log     *zap.Logger
	current atomic.Pointer[template.Template]
}

// NewTemplates parses the embedded templates, or the *.html files in dir when
// dir is not empty.
func NewTemplates(dir string, log *zap.Logger) (*Templates, error) {
	if log == nil {
		log = zap.NewNop()
	}
	t := &Templates{dir: dir, log: log}
	if dir == "" {
		sub, err := fs.Sub(embeddedTemplates, "templates")
		if err != nil {
			return nil, err
		}
		t.fsys = sub
	} else {
		t.fsys = os.DirFS(dir)
	}
	if err := t.Reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// Reload re-parses every template. On error the previous set stays live.
func (t *Templates) Reload() error {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(t.fsys, "*.html")
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	t.current.Store(tmpl)
	return nil
}

func (t *Templates) Execute(w io.Writer, name string, data any) error {
	tmpl := t.current.Load()
	if tmpl.Lookup(name) == nil {
		return fmt.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, name, data)
}

// Render executes name into a buffer before anything is written, so a
// failing template yields a clean 500 instead of a truncated page.
func (t *Templates) Render(c *gin.Context, status int, name string, data any) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, name, data); err != nil {
		t.log.Error("template execution failed",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("template", name),
			zap.Error(err))
		c.String(http.StatusInternalServerError, msgRenderFailed)
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// Watch re-parses the templates whenever an .html file in the templates
// directory changes. It blocks until ctx is done. With embedded templates
// there is nothing to watch and it returns immediately.
func (t *Templates) Watch(ctx context.Context) error {
	if t.dir == "" {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("template watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(t.dir); err != nil {
		return fmt.Errorf("watch %s: %w", t.dir, err)
	}
	t.log.Info("watching templates", zap.String("dir", t.dir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(ev.Name) != ".html" || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if err := t.Reload(); err != nil {
				t.log.Warn("template reload failed, keeping previous set", zap.String("file", ev.Name), zap.Error(err))
				continue
			}
			t.log.Info("templates reloaded", zap.String("file", ev.Name))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			t.log.Warn("template watcher error", zap.Error(err))
		}
	}
}
