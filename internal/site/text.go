package site

const (
	msgContactThanks     = "Thank you for your message! I'll get back to you soon."
	msgContactUnreadable = "Sorry, your message could not be read. Please try again."
	msgRateLimited       = "Too many requests from this IP, please try again later."
	msgRenderFailed      = "Sorry, this page could not be rendered."
	msgStatsFailed       = "Failed to load statistics"
	msgStatsDisabled     = "Visitor statistics are disabled"
)

// Page titles, keyed by template name.
var pageTitles = map[string]string{
	"index.html":    "Home",
	"projects.html": "Projects",
	"contact.html":  "Contact",
	"404.html":      "Page Not Found",
}
