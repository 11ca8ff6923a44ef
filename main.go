package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nabilfaruk/portfolio/config"
	"github.com/nabilfaruk/portfolio/internal/logging"
	"github.com/nabilfaruk/portfolio/internal/portfolio"
	"github.com/nabilfaruk/portfolio/internal/site"
)

const (
	serviceName     = "portfolio"
	shutdownTimeout = 10 * time.Second
	limiterIdle     = 30 * time.Minute
)

// Pages the doctor command renders and binds the UI controller on.
var doctorPages = []string{"/", "/projects", "/contact"}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   serviceName,
		Short: "Personal portfolio site",
		Long: `Serves the portfolio pages, the contact endpoint and the page behaviour
compiled to WebAssembly. Run without a subcommand to serve.`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	config.Flags(root.PersistentFlags())

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the site until interrupted",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "dump",
			Short: "Print the portfolio record as JSON",
			Args:  cobra.NoArgs,
			RunE:  runDump,
		},
		&cobra.Command{
			Use:   "doctor",
			Short: "Render every page in process and report which page behaviours bind",
			Args:  cobra.NoArgs,
			RunE:  runDoctor,
		},
	)
	return root
}

// app is everything a running server owns.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	router    *gin.Engine
	templates *site.Templates
	visitors  *site.VisitorStore
	limiter   *site.IPRateLimiter
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	record, err := portfolio.Default()
	if err != nil {
		return nil, err
	}
	tmpl, err := site.NewTemplates(cfg.Server.TemplatesDir, log)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		log:       log,
		templates: tmpl,
		limiter:   site.NewIPRateLimiter(cfg.Security.RateLimit, cfg.Security.RateWindow),
	}
	if cfg.Visitors.Enabled {
		a.visitors, err = site.OpenVisitorStore(ctx, cfg.Visitors.DSN, log)
		if err != nil {
			return nil, err
		}
	}

	a.router = site.NewRouter(site.Options{
		Record:    record,
		Templates: tmpl,
		Visitors:  a.visitors,
		Limiter:   a.limiter,
		Logger:    log,
		Service:   serviceName,
		Version:   cfg.App.Version,

		TrustedProxies: cfg.Server.TrustedProxies,
	})
	return a, nil
}

func (a *app) close() {
	if a.visitors != nil {
		if err := a.visitors.Close(); err != nil {
			a.log.Warn("close visitor store", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

func (a *app) scheduler() (*site.Scheduler, error) {
	s := site.NewScheduler(a.log)
	if err := s.Add("@every 5m", "evict-rate-limiters", site.LimiterEvictionJob(a.limiter, limiterIdle, a.log)); err != nil {
		return nil, err
	}
	if a.visitors != nil {
		job := site.VisitorRetentionJob(a.visitors, a.cfg.Visitors.Retention)
		if err := s.Add(a.cfg.Visitors.CleanupSchedule, "visitor-retention", job); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	jobs, err := a.scheduler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort("", a.cfg.Server.Port),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("version", a.cfg.App.Version),
			zap.Bool("visitor_tracking", a.visitors != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		jobs.Start()
		<-gctx.Done()

		a.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		jobs.Stop(shutdownCtx)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	if a.cfg.Server.TemplatesDir != "" {
		g.Go(func() error { return a.templates.Watch(gctx) })
	}

	if err := g.Wait(); err != nil {
		a.log.Error("server stopped", zap.Error(err))
		return err
	}
	a.log.Info("server stopped")
	return nil
}

func runDump(cmd *cobra.Command, _ []string) error {
	record, err := portfolio.Default()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(record)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.close()

	reports, err := site.Inspect(cmd.Context(), a.router, a.log, doctorPages...)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PAGE\tSTATUS\tFEATURES")
	failed := 0
	for _, r := range reports {
		if r.Status != http.StatusOK {
			failed++
		}
		fmt.Fprintf(w, "%s\t%d\t%v\n", r.Path, r.Status, r.Features)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d pages did not render", failed, len(reports))
	}
	return nil
}
