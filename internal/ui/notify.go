package ui

import "time"

type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
)

const (
	NotificationEnter    = 100 * time.Millisecond
	NotificationLifetime = 5 * time.Second
	NotificationFade     = 300 * time.Millisecond
)

const (
	offscreen = "translateX(100%)"
	onscreen  = "translateX(0)"
)

var notificationStyle = [][2]string{
	{"position", "fixed"},
	{"top", "20px"},
	{"right", "20px"},
	{"padding", "1rem 2rem"},
	{"border-radius", "10px"},
	{"color", "white"},
	{"font-weight", "500"},
	{"z-index", "10000"},
	{"transform", offscreen},
	{"transition", "transform 0.3s ease"},
	{"max-width", "300px"},
	{"word-wrap", "break-word"},
}

var notificationBackground = map[NotificationKind]string{
	NotifySuccess: "linear-gradient(135deg, #00ff88 0%, #00cc77 100%)",
	NotifyError:   "linear-gradient(135deg, #ff6b35 0%, #cc5529 100%)",
}

type Notification struct {
	Message string
	Kind    NotificationKind
	Element Element
}

// Notify appends a toast to the page. It slides in after NotificationEnter,
// slides out after NotificationLifetime and is detached NotificationFade
// later. A closed controller shows nothing and returns nil.
func (c *Controller) Notify(message string, kind NotificationKind) *Notification {
	if !c.active() {
		return nil
	}
	doc := c.deps.Document
	el := doc.CreateElement("div")
	el.AddClass("notification")
	el.AddClass(string(kind))
	el.SetText(message)
	for _, kv := range notificationStyle {
		el.SetStyle(kv[0], kv[1])
	}
	if bg, ok := notificationBackground[kind]; ok {
		el.SetStyle("background", bg)
	}
	doc.AppendToBody(el)

	c.after(NotificationEnter, func() {
		el.SetStyle("transform", onscreen)
	})
	c.after(NotificationLifetime, func() {
		el.SetStyle("transform", offscreen)
		c.after(NotificationFade, func() {
			doc.Detach(el)
		})
	})
	return &Notification{Message: message, Kind: kind, Element: el}
}
