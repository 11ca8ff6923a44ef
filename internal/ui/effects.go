package ui

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	revealSelector   = ".project-card, .skill-category, .timeline-item, .achievement-card"
	revealAnimation  = "fadeInUp 0.6s ease forwards"
	revealThreshold  = 0.1
	revealRootMargin = "0px 0px -50px 0px"

	TypingDelay    = time.Second
	TypingInterval = 100 * time.Millisecond

	lazySourceAttr = "data-src"
)

// bindReveal hides each content block until it first scrolls into view.
func (c *Controller) bindReveal() {
	if c.deps.Visibility == nil {
		return
	}
	blocks := c.deps.Document.QueryAll(revealSelector)
	if len(blocks) == 0 {
		return
	}

	revealed := make(map[Element]bool, len(blocks))
	var obs Observer
	obs = c.observe(ObserverOptions{Threshold: revealThreshold, RootMargin: revealRootMargin}, func(entries []Intersection) {
		for _, e := range entries {
			if !e.Intersecting || revealed[e.Target] {
				continue
			}
			revealed[e.Target] = true
			e.Target.SetStyle("animation", revealAnimation)
			obs.Unobserve(e.Target)
		}
	})
	for _, el := range blocks {
		el.SetStyle("opacity", "0")
		el.SetStyle("transform", "translateY(30px)")
		obs.Observe(el)
	}
	c.enable(FeatureReveal)
}

// bindTyping retypes the hero subtitle one character at a time.
func (c *Controller) bindTyping() {
	el := c.deps.Document.Query(".hero-subtitle")
	if el == nil {
		return
	}
	text := []rune(el.Text())
	el.SetText("")

	typed := 0
	var step func()
	step = func() {
		if typed >= len(text) {
			return
		}
		typed++
		el.SetText(string(text[:typed]))
		if typed < len(text) {
			c.after(TypingInterval, step)
		}
	}
	c.after(TypingDelay, step)
	c.enable(FeatureTyping)
}

// bindLazyImages swaps data-src into src on first intersection.
func (c *Controller) bindLazyImages() {
	if c.deps.Visibility == nil {
		return
	}
	images := c.deps.Document.QueryAll("img[" + lazySourceAttr + "]")
	if len(images) == 0 {
		return
	}

	var obs Observer
	obs = c.observe(ObserverOptions{}, func(entries []Intersection) {
		for _, e := range entries {
			if !e.Intersecting {
				continue
			}
			img := e.Target
			if src, ok := img.Attr(lazySourceAttr); ok {
				img.SetAttr("src", src)
				img.RemoveAttr(lazySourceAttr)
			}
			obs.Unobserve(img)
		}
	})
	for _, img := range images {
		obs.Observe(img)
	}
	c.enable(FeatureLazyImages)
}

// bindEmailCopy makes every span showing an address copy it on click.
func (c *Controller) bindEmailCopy() {
	clip := c.deps.Clipboard
	if clip == nil {
		return
	}
	bound := false
	for _, span := range c.deps.Document.QueryAll("span") {
		if !strings.Contains(span.Text(), "@") {
			continue
		}
		span.SetStyle("cursor", "pointer")
		span.SetAttr("title", "Click to copy email")
		c.on(span, "click", func(Event) {
			text := span.Text()
			c.async(func(ctx context.Context) func() {
				err := clip.WriteText(ctx, text)
				return func() {
					if err != nil {
						c.log.Debug("clipboard write failed", zap.Error(err))
						return
					}
					c.Notify("Email copied to clipboard!", NotifySuccess)
				}
			})
		})
		bound = true
	}
	if bound {
		c.enable(FeatureEmailCopy)
	}
}
