package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/expense-console/internal"
	"github.com/frahmantamala/expense-console/internal/approval"
	"github.com/frahmantamala/expense-console/internal/auth"
	"github.com/frahmantamala/expense-console/internal/backend"
	"github.com/frahmantamala/expense-console/internal/category"
	"github.com/frahmantamala/expense-console/internal/company"
	"github.com/frahmantamala/expense-console/internal/core/events"
	"github.com/frahmantamala/expense-console/internal/dashboard"
	"github.com/frahmantamala/expense-console/internal/employee"
	"github.com/frahmantamala/expense-console/internal/expense"
	"github.com/frahmantamala/expense-console/internal/landing"
	"github.com/frahmantamala/expense-console/internal/metrics"
	"github.com/frahmantamala/expense-console/internal/modal"
	"github.com/frahmantamala/expense-console/internal/rule"
	"github.com/frahmantamala/expense-console/internal/session"
	"github.com/frahmantamala/expense-console/internal/transport"
	"github.com/frahmantamala/expense-console/internal/transport/rest"
	"github.com/frahmantamala/expense-console/internal/view"
	"github.com/frahmantamala/expense-console/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server serving the console pages and fragments`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	Store    *sessionStore
	Router   *chi.Mux
	Hub      *modal.Hub
	Pool     *modal.Pool
	Events   *events.EventBus
	Sessions *session.Manager
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Handlers rest.Handlers
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.Handlers, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	go deps.Hub.Run(bgCtx, time.Minute)
	if deps.Config.Session.Store != internal.SessionStoreRedis && deps.Config.Session.CleanupInterval > 0 {
		var rec SessionsPurgedRecorder
		if deps.Metrics != nil {
			rec = deps.Metrics
		}
		go runJanitor(bgCtx, deps.Sessions, rec, deps.Config.Session.CleanupInterval, false)
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.Events.Wait(ctx); err != nil {
			deps.Logger.Warn("Event handlers did not finish", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			stopBackground()
			os.Exit(1)
		}
	}

	stopBackground()
	deps.Pool.Shutdown()
	if err := deps.Store.Close(); err != nil {
		deps.Logger.Error("Session store close error", "error", err)
	}
	deps.Logger.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := setup()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	store, err := openSessionStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	var m *metrics.Metrics
	if cfg.Observability.Metrics.Enabled {
		m = metrics.New()
	}

	client, err := newBackendClient(cfg.Backend, m, lg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	bus := events.NewEventBus(lg)
	events.RegisterAuditLog(bus, lg)
	if m != nil {
		events.RegisterMetrics(bus, m)
	}

	cookies := session.NewCookieSigner(cfg.Security.SessionSecret, cfg.Session.TTL, cfg.Security.SecureCookies)
	sessions := session.NewManager(store.repo, client, cookies, cfg.Session, lg)
	sessions.SetPublisher(bus)

	pool := modal.NewPool(cfg.Modal.LoadWorkers, cfg.Modal.LoadQueue, lg)
	hubOpts := []modal.HubOption{}
	if m != nil {
		hubOpts = append(hubOpts, modal.WithObserver(m))
	}
	hub := modal.NewHub(pool, cfg.Modal.IdleTTL, lg, hubOpts...)

	content, err := landing.Default()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to load landing content: %w", err)
	}

	base := transport.NewBaseHandler(lg, view.MustNew())
	modals := modal.NewHandler(base, hub)

	categories := category.NewService(client, lg)

	expenseService := expense.NewService(client, categories, lg)
	expenseService.SetPublisher(bus)
	approvalService := approval.NewService(client, lg)
	approvalService.SetPublisher(bus)
	ruleService := rule.NewService(client, lg)
	ruleService.SetPublisher(bus)
	employeeService := employee.NewService(client, lg)
	employeeService.SetPublisher(bus)
	companyService := company.NewService(client, lg)
	companyService.SetPublisher(bus)

	authHandler := auth.NewHandler(base, modals, sessions)
	expenseHandler := expense.NewHandler(base, expenseService, modals, cfg.Backend.DefaultCurrency)
	approvalHandler := approval.NewHandler(base, approvalService)
	ruleHandler := rule.NewHandler(base, ruleService, modals)
	employeeHandler := employee.NewHandler(base, employeeService, modals)
	companyHandler := company.NewHandler(base, companyService, modals)

	modals.Register(authHandler.Definitions()...)
	modals.Register(expenseHandler.Definitions()...)
	modals.Register(approvalHandler.Definitions()...)
	modals.Register(ruleHandler.Definitions()...)
	modals.Register(employeeHandler.Definitions()...)
	modals.Register(companyHandler.Definitions()...)

	handlers := rest.Handlers{
		Health: rest.NewHealthHandler(map[string]rest.Pinger{
			"session_store": store.pinger,
			"backend":       rest.PingFunc(client.Ping),
		}),
		Sessions:  sessions.Middleware,
		Base:      base,
		Modals:    modals,
		Auth:      authHandler,
		Dashboard: dashboard.NewHandler(base, content, sessions, approvalHandler, companyHandler, cfg.Backend.DefaultCurrency),
		Expenses:  expenseHandler,
		Approvals: approvalHandler,
		Rules:     ruleHandler,
		Employees: employeeHandler,
		Companies: companyHandler,
	}
	if m != nil {
		handlers.Metrics = m
		handlers.MetricsPath = cfg.Observability.Metrics.Path
		handlers.MetricsView = m.Handler()
	}

	return &Dependencies{
		Config:   cfg,
		Store:    store,
		Router:   chi.NewRouter(),
		Hub:      hub,
		Pool:     pool,
		Events:   bus,
		Sessions: sessions,
		Metrics:  m,
		Logger:   lg,
		Handlers: handlers,
	}, nil
}

func newBackendClient(cfg internal.BackendConfig, m *metrics.Metrics, lg *slog.Logger) (*backend.Client, error) {
	opts := []backend.Option{backend.WithLogger(lg)}
	if m != nil {
		opts = append(opts, backend.WithTransport(m.InstrumentTransport))
	}
	if cfg.ValidateRequests {
		contract, err := backend.LoadContract(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to load backend contract: %w", err)
		}
		opts = append(opts, backend.WithContract(contract))
	}
	client, err := backend.NewClient(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	return client, nil
}
