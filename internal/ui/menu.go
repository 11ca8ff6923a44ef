package ui

func (c *Controller) bindMobileMenu() {
	doc := c.deps.Document
	hamburger := doc.Query(".hamburger")
	menu := doc.Query(".nav-menu")
	if hamburger == nil || menu == nil {
		return
	}
	c.on(hamburger, "click", func(Event) {
		hamburger.ToggleClass("active")
		menu.ToggleClass("active")
	})
	c.enable(FeatureMobileMenu)
}

func (c *Controller) bindEscape() {
	doc := c.deps.Document
	c.on(doc, "keydown", func(e Event) {
		if e.Key() != "Escape" {
			return
		}
		if modal := doc.Query(".modal.active"); modal != nil {
			modal.RemoveClass("active")
		}
	})
	c.enable(FeatureEscape)
}
