//go:build js && wasm

package main

import (
	"strings"
	"syscall/js"

	"github.com/nabilfaruk/portfolio/internal/ui"
)

// document adapts the browser DOM. js.Value is not comparable, so every node
// is tagged with a numeric id in a WeakMap and wrapped exactly once.
type document struct {
	v        js.Value
	ids      js.Value
	next     int
	elements map[int]*element
}

func newDocument(v js.Value) *document {
	return &document{
		v:        v,
		ids:      js.Global().Get("WeakMap").New(),
		elements: make(map[int]*element),
	}
}

func (d *document) wrap(v js.Value) ui.Element {
	if v.IsNull() || v.IsUndefined() {
		return nil
	}
	if id := d.ids.Call("get", v); !id.IsUndefined() {
		return d.elements[id.Int()]
	}
	d.next++
	el := &element{v: v, doc: d, id: d.next}
	d.ids.Call("set", v, d.next)
	d.elements[d.next] = el
	return el
}

func (d *document) wrapAll(list js.Value) []ui.Element {
	n := list.Length()
	out := make([]ui.Element, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, d.wrap(list.Index(i)))
	}
	return out
}

// call invokes a DOM method and turns a thrown exception into ok=false.
// querySelector throws on a malformed selector.
func call(v js.Value, method string, args ...any) (res js.Value, ok bool) {
	defer func() {
		if recover() != nil {
			res, ok = js.Undefined(), false
		}
	}()
	return v.Call(method, args...), true
}

func (d *document) query(v js.Value, selector string) ui.Element {
	res, ok := call(v, "querySelector", selector)
	if !ok {
		return nil
	}
	return d.wrap(res)
}

func (d *document) queryAll(v js.Value, selector string) []ui.Element {
	res, ok := call(v, "querySelectorAll", selector)
	if !ok {
		return nil
	}
	return d.wrapAll(res)
}

func (d *document) Query(selector string) ui.Element      { return d.query(d.v, selector) }
func (d *document) QueryAll(selector string) []ui.Element { return d.queryAll(d.v, selector) }

func (d *document) ByID(id string) ui.Element {
	return d.wrap(d.v.Call("getElementById", id))
}

func (d *document) CreateElement(tag string) ui.Element {
	return d.wrap(d.v.Call("createElement", tag))
}

func (d *document) AppendToBody(el ui.Element) {
	d.v.Get("body").Call("appendChild", el.(*element).v)
}

func (d *document) Detach(el ui.Element) bool {
	e := el.(*element)
	parent := e.v.Get("parentNode")
	if parent.IsNull() || parent.IsUndefined() {
		return false
	}
	parent.Call("removeChild", e.v)
	d.ids.Call("delete", e.v)
	delete(d.elements, e.id)
	return true
}

func (d *document) AddEventListener(event string, fn func(ui.Event)) {
	listen(d.v, event, fn)
}

// listen registers fn for the lifetime of the page. It runs synchronously
// inside the browser's dispatch so PreventDefault still takes effect.
func listen(target js.Value, event string, fn func(ui.Event)) {
	target.Call("addEventListener", event, js.FuncOf(func(_ js.Value, args []js.Value) any {
		fn(domEvent{v: args[0]})
		return nil
	}))
}

type domEvent struct {
	v js.Value
}

func (e domEvent) Type() string    { return e.v.Get("type").String() }
func (e domEvent) PreventDefault() { e.v.Call("preventDefault") }
func (e domEvent) Key() string     { return stringProp(e.v, "key") }

func stringProp(v js.Value, name string) string {
	p := v.Get(name)
	if p.Type() != js.TypeString {
		return ""
	}
	return p.String()
}

type element struct {
	v   js.Value
	doc *document
	id  int
}

func (e *element) Query(selector string) ui.Element      { return e.doc.query(e.v, selector) }
func (e *element) QueryAll(selector string) []ui.Element { return e.doc.queryAll(e.v, selector) }

func (e *element) ID() string      { return stringProp(e.v, "id") }
func (e *element) TagName() string { return strings.ToLower(stringProp(e.v, "tagName")) }

func (e *element) Attr(name string) (string, bool) {
	if !e.v.Call("hasAttribute", name).Bool() {
		return "", false
	}
	return e.v.Call("getAttribute", name).String(), true
}

func (e *element) SetAttr(name, value string) { e.v.Call("setAttribute", name, value) }
func (e *element) RemoveAttr(name string)     { e.v.Call("removeAttribute", name) }

func (e *element) classList() js.Value { return e.v.Get("classList") }

func (e *element) HasClass(name string) bool    { return e.classList().Call("contains", name).Bool() }
func (e *element) AddClass(name string)         { e.classList().Call("add", name) }
func (e *element) RemoveClass(name string)      { e.classList().Call("remove", name) }
func (e *element) ToggleClass(name string) bool { return e.classList().Call("toggle", name).Bool() }

func (e *element) Text() string        { return stringProp(e.v, "textContent") }
func (e *element) SetText(text string) { e.v.Set("textContent", text) }

func (e *element) Style(property string) string {
	return e.v.Get("style").Call("getPropertyValue", property).String()
}

func (e *element) SetStyle(property, value string) {
	style := e.v.Get("style")
	if value == "" {
		style.Call("removeProperty", property)
		return
	}
	style.Call("setProperty", property, value)
}

func (e *element) Value() string         { return stringProp(e.v, "value") }
func (e *element) SetValue(value string) { e.v.Set("value", value) }

func (e *element) Reset() {
	if e.TagName() == "form" {
		e.v.Call("reset")
	}
}

func (e *element) AddEventListener(event string, fn func(ui.Event)) {
	listen(e.v, event, fn)
}
