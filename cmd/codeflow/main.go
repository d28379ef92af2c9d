package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/codeflow/internal/adapter/driven/alert"
	"github.com/ericfisherdev/codeflow/internal/adapter/driven/browser"
	githubadapter "github.com/ericfisherdev/codeflow/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/codeflow/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/codeflow/internal/adapter/driving/http"
	"github.com/ericfisherdev/codeflow/internal/adapter/driving/tui"
	webhandler "github.com/ericfisherdev/codeflow/internal/adapter/driving/web"
	"github.com/ericfisherdev/codeflow/internal/application"
	"github.com/ericfisherdev/codeflow/internal/config"
	"github.com/ericfisherdev/codeflow/internal/domain/model"
	"github.com/ericfisherdev/codeflow/internal/domain/port/driven"
	"github.com/ericfisherdev/codeflow/internal/logging"
)

const validateTimeout = 10 * time.Second

func main() {
	tuiFlag := flag.Bool("tui", false, "run the terminal sidebar (logs go to CODEFLOW_LOG_FILE only)")
	flag.Parse()

	if err := run(*tuiFlag); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(wantTUI bool) error {
	// 1. Load configuration (fail fast on invalid values).
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	enableTUI := wantTUI && isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())

	// 2. Logging. The terminal UI owns the screen, so console output is off.
	logger, logCloser, err := logging.Setup(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
		Quiet:  enableTUI,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()
	slog.SetDefault(logger)

	if wantTUI && !enableTUI {
		slog.Warn("terminal ui requested but stdin/stdout is not a terminal, running headless")
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"poll_interval", cfg.PollInterval,
		"fetch_timeout", cfg.FetchTimeout,
		"github_api_url", cfg.GitHubAPIURL,
		"tui", enableTUI,
	)

	// 3. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Open database and run migrations on the writer connection.
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}

	// 5. Wire storage adapters.
	secretKey, err := sqliteadapter.ParseSecretKey(cfg.SecretKey)
	if err != nil {
		return fmt.Errorf("parse secret key: %w", err)
	}
	credentialStore := sqliteadapter.NewCredentialRepo(db, secretKey)
	stateStore := sqliteadapter.NewNotificationStateRepo(db)

	// 6. Resolve credentials: stored credentials take priority over env vars.
	validator, err := githubadapter.NewClient("", cfg.GitHubAPIURL)
	if err != nil {
		return fmt.Errorf("create github client: %w", err)
	}
	factory := githubadapter.Factory(cfg.GitHubAPIURL)
	provider := resolveSource(ctx, cfg, credentialStore, validator, factory)

	// 7. Navigation capabilities for alert actions and surface commands.
	navigator := browser.NewNavigator()
	dashboardURL := browser.DashboardURL(cfg.ListenAddr)
	launcher := browser.NewDashboardLauncher(navigator, dashboardURL)

	// 8. Alerter: the terminal sidebar when it is on screen, the log otherwise.
	// The sidebar dispatches through a func bound once the dispatcher exists.
	var dispatcher *application.CommandDispatcher
	var sidebar *tui.Sidebar
	var alerter driven.Alerter = alert.NewLogAlerter(logger)
	if enableTUI {
		sidebar = tui.New(tui.DispatcherFunc(func(ctx context.Context, cmd model.SurfaceCommand) error {
			return dispatcher.Dispatch(ctx, cmd)
		}), cfg.AlertTTL, logger)
		alerter = sidebar
	}

	notifier := application.NewNotificationService(ctx, stateStore, alerter, navigator, launcher, logger)
	surfaces := application.NewSurfaceRegistry()
	if sidebar != nil {
		surfaces.Register(sidebar)
	}

	// 9. Poll, auth and command services.
	pollSvc := application.NewPollService(provider, notifier, surfaces, cfg.PollInterval, cfg.FetchTimeout, logger)
	authSvc := application.NewAuthService(validator, credentialStore, provider, factory, pollSvc, logger)
	dispatcher = application.NewCommandDispatcher(pollSvc, authSvc, navigator, logger)

	// 10. HTTP API, surface endpoints and web dashboard.
	apiHandler := httphandler.NewHandler(pollSvc, dispatcher, authSvc, notifier, surfaces, logger)
	webHandler := webhandler.NewHandler(pollSvc, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(apiHandler, webHandler, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Long enough for a manual refresh; the event stream clears its own deadline.
		WriteTimeout: cfg.FetchTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		pollSvc.Start(gctx)
		return nil
	})

	g.Go(func() error {
		slog.Info("http server starting", "addr", cfg.ListenAddr, "dashboard", dashboardURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// The first signal, a failing component or quitting the sidebar all end
	// the process.
	quit := make(chan struct{})
	if sidebar != nil {
		g.Go(func() error {
			defer close(quit)
			return sidebar.Run(gctx)
		})
	}

	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-quit:
		}
		slog.Info("shutting down")

		pollSvc.Dispose()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", "error", err)
		}
		return nil
	})

	slog.Info("codeflow started",
		"listen_addr", cfg.ListenAddr,
		"poll_interval", cfg.PollInterval,
		"authenticated", provider.HasSource(),
	)

	err = g.Wait()
	notifier.Wait()
	slog.Info("shutdown complete")
	return err
}

// resolveSource builds the provider from the stored token, falling back to
// CODEFLOW_GITHUB_TOKEN. A token that cannot be verified at startup is still
// installed; the first poll reports the failure to the surfaces.
func resolveSource(
	ctx context.Context,
	cfg *config.Config,
	credentials driven.CredentialStore,
	validator driven.TokenValidator,
	factory driven.DashboardSourceFactory,
) *application.DashboardSourceProvider {
	token := cfg.GitHubToken
	origin := "environment"

	stored, err := credentials.Get(ctx, application.CredentialServiceGitHub)
	switch {
	case err != nil && !errors.Is(err, driven.ErrEncryptionKeyNotSet):
		slog.Warn("failed to read stored github token", "error", err)
	case stored != "":
		token = stored
		origin = "credential store"
	}

	if token == "" {
		slog.Info("no github credentials configured, polling idle until a token is provided")
		return application.NewDashboardSourceProvider(nil, "")
	}

	validateCtx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	username, err := validator.ValidateToken(validateCtx, token)
	if err != nil {
		slog.Warn("github token could not be verified", "origin", origin, "error", err)
	} else {
		slog.Info("github client created", "username", username, "origin", origin)
	}

	return application.NewDashboardSourceProvider(factory(token), username)
}
