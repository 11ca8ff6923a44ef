package ui

import "strings"

// SectionLeadIn is how far above a section's top it already counts as current.
const SectionLeadIn = 100.0

type SectionBox struct {
	ID string
	Box
}

// ActiveSection returns the id of the section whose [top-SectionLeadIn,
// top-SectionLeadIn+height) range contains offset. When ranges overlap the
// last section in document order wins. A winning section without an id
// yields no match.
func ActiveSection(offset float64, sections []SectionBox) (string, bool) {
	current := ""
	for _, s := range sections {
		top := s.Top - SectionLeadIn
		if offset >= top && offset < top+s.Height {
			current = s.ID
		}
	}
	return current, current != ""
}

// fragment returns the in-page target of a link ("about" for "#about").
func fragment(link Element) (string, bool) {
	href, ok := link.Attr("href")
	if !ok || !strings.HasPrefix(href, "#") || len(href) < 2 {
		return "", false
	}
	return href[1:], true
}

func (c *Controller) bindNavigation() {
	doc, vp := c.deps.Document, c.deps.Viewport
	if vp == nil {
		return
	}
	links := doc.QueryAll(".nav-link")
	if len(links) == 0 {
		return
	}

	smooth := false
	for _, link := range links {
		if _, ok := fragment(link); !ok {
			continue
		}
		c.on(link, "click", func(e Event) {
			e.PreventDefault()
			id, _ := fragment(link)
			if target := doc.ByID(id); target != nil {
				vp.ScrollIntoView(target)
			}
		})
		smooth = true
	}
	if smooth {
		c.enable(FeatureSmoothScroll)
	}

	sections := doc.QueryAll("section")
	if len(sections) == 0 {
		return
	}
	vp.OnScroll(func() {
		if c.active() {
			c.highlight(links, sections)
		}
	})
	c.enable(FeatureActiveSection)
}

// highlight marks at most one nav link active for the current scroll offset.
func (c *Controller) highlight(links, sections []Element) {
	vp := c.deps.Viewport
	boxes := make([]SectionBox, len(sections))
	for i, s := range sections {
		boxes[i] = SectionBox{ID: s.ID(), Box: vp.Box(s)}
	}
	current, ok := ActiveSection(vp.ScrollY(), boxes)

	marked := false
	for _, link := range links {
		link.RemoveClass("active")
		if !ok || marked {
			continue
		}
		if id, isFrag := fragment(link); isFrag && id == current {
			link.AddClass("active")
			marked = true
		}
	}
}
