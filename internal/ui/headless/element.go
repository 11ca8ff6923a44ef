package headless

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nabilfaruk/portfolio/internal/ui"
)

// Element implements ui.Element for one node of a Document.
type Element struct {
	doc  *Document
	node *html.Node

	// dirty holds a form control's current value once it has been edited.
	dirty *string
}

var _ ui.Element = (*Element)(nil)

func (e *Element) Query(selector string) ui.Element {
	if found := e.doc.queryAll(e.node, selector, true); len(found) > 0 {
		return found[0]
	}
	return nil
}

func (e *Element) QueryAll(selector string) []ui.Element {
	return e.doc.queryAll(e.node, selector, false)
}

func (e *Element) ID() string      { return attr(e.node, "id") }
func (e *Element) TagName() string { return e.node.Data }

func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (e *Element) SetAttr(name, value string) {
	for i, a := range e.node.Attr {
		if a.Key == name {
			e.node.Attr[i].Val = value
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
}

func (e *Element) RemoveAttr(name string) {
	e.node.Attr = slices.DeleteFunc(e.node.Attr, func(a html.Attribute) bool {
		return a.Key == name
	})
}

func (e *Element) classes() []string {
	v, _ := e.Attr("class")
	return strings.Fields(v)
}

func (e *Element) setClasses(cs []string) {
	if len(cs) == 0 {
		e.RemoveAttr("class")
		return
	}
	e.SetAttr("class", strings.Join(cs, " "))
}

func (e *Element) HasClass(name string) bool {
	return slices.Contains(e.classes(), name)
}

func (e *Element) AddClass(name string) {
	cs := e.classes()
	if !slices.Contains(cs, name) {
		e.setClasses(append(cs, name))
	}
}

func (e *Element) RemoveClass(name string) {
	cs := e.classes()
	if slices.Contains(cs, name) {
		e.setClasses(slices.DeleteFunc(cs, func(c string) bool { return c == name }))
	}
}

func (e *Element) ToggleClass(name string) bool {
	if e.HasClass(name) {
		e.RemoveClass(name)
		return false
	}
	e.AddClass(name)
	return true
}

// Text is the node's textContent.
func (e *Element) Text() string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.node)
	return sb.String()
}

func (e *Element) SetText(text string) {
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
	if text != "" {
		e.node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

func (e *Element) Style(property string) string {
	v, _ := e.Attr("style")
	return parseStyle(v)[property]
}

func (e *Element) SetStyle(property, value string) {
	v, _ := e.Attr("style")
	m := parseStyle(v)
	if value == "" {
		delete(m, property)
	} else {
		m[property] = value
	}
	if len(m) == 0 {
		e.RemoveAttr("style")
		return
	}
	e.SetAttr("style", formatStyle(m))
}

// defaultValue is what the markup says a control holds before any edit.
func (e *Element) defaultValue() string {
	switch e.node.DataAtom {
	case atom.Textarea:
		return e.Text()
	case atom.Select:
		var first, selected string
		var haveFirst, haveSelected bool
		for _, opt := range e.QueryAll("option") {
			o := opt.(*Element)
			v, ok := o.Attr("value")
			if !ok {
				v = o.Text()
			}
			if !haveFirst {
				first, haveFirst = v, true
			}
			if _, sel := o.Attr("selected"); sel && !haveSelected {
				selected, haveSelected = v, true
			}
		}
		if haveSelected {
			return selected
		}
		return first
	default:
		v, _ := e.Attr("value")
		return v
	}
}

func (e *Element) Value() string {
	if e.dirty != nil {
		return *e.dirty
	}
	return e.defaultValue()
}

func (e *Element) SetValue(value string) {
	e.dirty = &value
}

// Reset drops edits on every control inside a form.
func (e *Element) Reset() {
	if e.node.DataAtom != atom.Form {
		return
	}
	for _, c := range e.QueryAll("input, textarea, select") {
		c.(*Element).dirty = nil
	}
}

func (e *Element) AddEventListener(event string, fn func(ui.Event)) {
	k := listenerKey{target: e, event: event}
	e.doc.listeners[k] = append(e.doc.listeners[k], fn)
}
