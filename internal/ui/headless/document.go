// Package headless runs the ui controller without a browser. Documents are
// parsed with golang.org/x/net/html and queried with cascadia; layout,
// visibility, the clipboard and time are all driven by the caller.
package headless

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nabilfaruk/portfolio/internal/ui"
)

type listenerKey struct {
	target any
	event  string
}

// Document implements ui.Document over a parsed HTML tree. It is not safe
// for concurrent use; drive it from one goroutine like a browser would.
type Document struct {
	root *html.Node
	body *html.Node

	elements  map[*html.Node]*Element
	listeners map[listenerKey][]func(ui.Event)

	selMu     sync.Mutex
	selectors map[string]cascadia.Selector
}

var _ ui.Document = (*Document)(nil)

func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	d := &Document{
		root:      root,
		elements:  make(map[*html.Node]*Element),
		listeners: make(map[listenerKey][]func(ui.Event)),
		selectors: make(map[string]cascadia.Selector),
	}
	d.body = findFirst(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Body
	})
	if d.body == nil {
		return nil, fmt.Errorf("parse html: document has no body")
	}
	return d, nil
}

func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Render serializes the current tree, including class, style and attribute
// changes made through the ui.Element interface.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

func (d *Document) String() string {
	var sb strings.Builder
	if err := d.Render(&sb); err != nil {
		return ""
	}
	return sb.String()
}

func (d *Document) compile(selector string) (cascadia.Selector, bool) {
	d.selMu.Lock()
	defer d.selMu.Unlock()
	if sel, ok := d.selectors[selector]; ok {
		return sel, sel != nil
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		d.selectors[selector] = nil
		return nil, false
	}
	d.selectors[selector] = sel
	return sel, true
}

// queryAll matches descendants of n (n itself excluded) in document order.
func (d *Document) queryAll(n *html.Node, selector string, first bool) []ui.Element {
	sel, ok := d.compile(selector)
	if !ok {
		return nil
	}
	var out []ui.Element
	var walk func(*html.Node) bool
	walk = func(p *html.Node) bool {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && sel.Match(c) {
				out = append(out, d.wrap(c))
				if first {
					return true
				}
			}
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(n)
	return out
}

func (d *Document) Query(selector string) ui.Element {
	if found := d.queryAll(d.root, selector, true); len(found) > 0 {
		return found[0]
	}
	return nil
}

func (d *Document) QueryAll(selector string) []ui.Element {
	return d.queryAll(d.root, selector, false)
}

func (d *Document) ByID(id string) ui.Element {
	n := findFirst(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && attr(n, "id") == id
	})
	if n == nil {
		return nil
	}
	return d.wrap(n)
}

func (d *Document) CreateElement(tag string) ui.Element {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	return d.wrap(n)
}

func (d *Document) AppendToBody(el ui.Element) {
	e := d.unwrap(el)
	if e.node.Parent != nil {
		e.node.Parent.RemoveChild(e.node)
	}
	d.body.AppendChild(e.node)
}

func (d *Document) Detach(el ui.Element) bool {
	e := d.unwrap(el)
	if e.node.Parent == nil {
		return false
	}
	e.node.Parent.RemoveChild(e.node)
	return true
}

// Attached reports whether el is currently part of the tree.
func (d *Document) Attached(el ui.Element) bool {
	for n := d.unwrap(el).node; n != nil; n = n.Parent {
		if n == d.root {
			return true
		}
	}
	return false
}

func (d *Document) AddEventListener(event string, fn func(ui.Event)) {
	k := listenerKey{target: d, event: event}
	d.listeners[k] = append(d.listeners[k], fn)
}

func (d *Document) wrap(n *html.Node) *Element {
	if e, ok := d.elements[n]; ok {
		return e
	}
	e := &Element{doc: d, node: n}
	d.elements[n] = e
	return e
}

func (d *Document) unwrap(el ui.Element) *Element {
	e, ok := el.(*Element)
	if !ok || e.doc != d {
		panic(fmt.Sprintf("headless: element %T does not belong to this document", el))
	}
	return e
}

// Event is the headless ui.Event.
type Event struct {
	typ       string
	key       string
	prevented bool
}

func (e *Event) Type() string           { return e.typ }
func (e *Event) Key() string            { return e.key }
func (e *Event) PreventDefault()        { e.prevented = true }
func (e *Event) DefaultPrevented() bool { return e.prevented }

// Dispatch fires an event at target and bubbles it through its ancestors to
// the document.
func (d *Document) Dispatch(target ui.Element, typ string) *Event {
	ev := &Event{typ: typ}
	d.dispatch(target, ev)
	return ev
}

func (d *Document) dispatch(target ui.Element, ev *Event) {
	if target != nil {
		for n := d.unwrap(target).node; n != nil; n = n.Parent {
			e, ok := d.elements[n]
			if !ok {
				continue
			}
			for _, fn := range d.listeners[listenerKey{target: e, event: ev.typ}] {
				fn(ev)
			}
		}
	}
	for _, fn := range d.listeners[listenerKey{target: d, event: ev.typ}] {
		fn(ev)
	}
}

func (d *Document) Click(el ui.Element) *Event  { return d.Dispatch(el, "click") }
func (d *Document) Submit(el ui.Element) *Event { return d.Dispatch(el, "submit") }

// KeyDown fires a keydown at the document.
func (d *Document) KeyDown(key string) *Event {
	ev := &Event{typ: "keydown", key: key}
	d.dispatch(nil, ev)
	return ev
}

func findFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, pred); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func parseStyle(s string) map[string]string {
	out := make(map[string]string)
	for _, decl := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		if k != "" {
			out[k] = strings.TrimSpace(v)
		}
	}
	return out
}

func formatStyle(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + m[k]
	}
	return strings.Join(parts, "; ")
}
