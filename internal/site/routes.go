// Package site is the page server: it renders the portfolio pages, answers
// the contact form and exposes the portfolio record as JSON.
package site

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nabilfaruk/portfolio/internal/portfolio"
)

type Options struct {
	Record    portfolio.Record
	Templates *Templates
	// Visitors is optional; nil disables tracking and /api/stats.
	Visitors *VisitorStore
	// Limiter is optional; nil disables rate limiting.
	Limiter *IPRateLimiter
	Logger  *zap.Logger
	Service string
	Version string
	// TrustedProxies may set X-Forwarded-For. With none, the client is the
	// socket peer, which is what rate limiting and visitor tracking key on.
	TrustedProxies []string
}

// ContactSubmission is what the contact form posts. Nothing is validated.
type ContactSubmission struct {
	Name    string `json:"name" form:"name"`
	Email   string `json:"email" form:"email"`
	Message string `json:"message" form:"message"`
}

type ContactAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type handlers struct {
	record    portfolio.Record
	templates *Templates
	log       *zap.Logger
}

// NewRouter builds the gin engine with every page, API and static route.
func NewRouter(opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		log.Warn("ignoring trusted proxies", zap.Strings("proxies", opts.TrustedProxies), zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware(log))
	r.Use(SecurityHeaders())
	r.Use(cors.Default())
	if opts.Limiter != nil {
		r.Use(opts.Limiter.Middleware())
	}
	if opts.Visitors != nil {
		r.Use(opts.Visitors.Middleware())
	}

	r.StaticFS("/static", StaticFS())

	h := &handlers{record: opts.Record, templates: opts.Templates, log: log}

	r.GET("/", h.page("index.html"))
	r.GET("/projects", h.page("projects.html"))
	r.GET("/contact", h.page("contact.html"))
	r.POST("/contact", h.submitContact)
	r.GET("/api/portfolio", h.portfolioJSON)

	NewHealthHandler(opts.Service, opts.Version, opts.Visitors).RegisterRoutes(r)
	if opts.Visitors != nil {
		opts.Visitors.RegisterRoutes(r)
	} else {
		r.GET("/api/stats", func(c *gin.Context) {
			c.JSON(http.StatusNotFound, gin.H{"error": msgStatsDisabled})
		})
	}

	r.NoRoute(h.notFound)
	return r
}

func (h *handlers) data(name string) gin.H {
	return gin.H{
		"data":  h.record,
		"page":  name,
		"title": pageTitles[name],
		"year":  time.Now().Year(),
	}
}

func (h *handlers) page(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.templates.Render(c, http.StatusOK, name, h.data(name))
	}
}

func (h *handlers) notFound(c *gin.Context) {
	h.templates.Render(c, http.StatusNotFound, "404.html", h.data("404.html"))
}

func (h *handlers) portfolioJSON(c *gin.Context) {
	c.JSON(http.StatusOK, h.record)
}

// submitContact logs the submission and always acknowledges it. There is no
// delivery behind this route.
func (h *handlers) submitContact(c *gin.Context) {
	var sub ContactSubmission
	if err := c.ShouldBind(&sub); err != nil && !errors.Is(err, io.EOF) {
		h.log.Warn("unreadable contact submission",
			zap.String("request_id", GetRequestID(c.Request.Context())),
			zap.Error(err))
		c.JSON(http.StatusBadRequest, ContactAck{Success: false, Message: msgContactUnreadable})
		return
	}

	h.log.Info("contact form submission",
		zap.String("request_id", GetRequestID(c.Request.Context())),
		zap.String("name", sub.Name),
		zap.String("email", sub.Email),
		zap.String("message", sub.Message))

	c.JSON(http.StatusOK, ContactAck{Success: true, Message: msgContactThanks})
}
