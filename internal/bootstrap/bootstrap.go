// Package bootstrap wires every module into a runnable application.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	analyticsinadapter "pagetrack/internal/modules/analytics/adapter/in"
	analyticsoutadapter "pagetrack/internal/modules/analytics/adapter/out"
	analyticsout "pagetrack/internal/modules/analytics/port/out"
	analyticsservice "pagetrack/internal/modules/analytics/service"
	analyticsusecase "pagetrack/internal/modules/analytics/usecase"
	libraryinadapter "pagetrack/internal/modules/library/adapter/in"
	libraryoutadapter "pagetrack/internal/modules/library/adapter/out"
	libraryout "pagetrack/internal/modules/library/port/out"
	libraryservice "pagetrack/internal/modules/library/service"
	libraryusecase "pagetrack/internal/modules/library/usecase"
	positionoutadapter "pagetrack/internal/modules/position/adapter/out"
	positionin "pagetrack/internal/modules/position/port/in"
	positionout "pagetrack/internal/modules/position/port/out"
	positionservice "pagetrack/internal/modules/position/service"
	positionusecase "pagetrack/internal/modules/position/usecase"
	readerinadapter "pagetrack/internal/modules/reader/adapter/in"
	readeroutadapter "pagetrack/internal/modules/reader/adapter/out"
	readerservice "pagetrack/internal/modules/reader/service"
	readerusecase "pagetrack/internal/modules/reader/usecase"
	sessioninadapter "pagetrack/internal/modules/session/adapter/in"
	sessionoutadapter "pagetrack/internal/modules/session/adapter/out"
	"pagetrack/internal/modules/session/domain"
	sessionin "pagetrack/internal/modules/session/port/in"
	sessionservice "pagetrack/internal/modules/session/service"
	sessionusecase "pagetrack/internal/modules/session/usecase"
	sinkinadapter "pagetrack/internal/modules/sink/adapter/in"
	sinkoutadapter "pagetrack/internal/modules/sink/adapter/out"
	sinkin "pagetrack/internal/modules/sink/port/in"
	sinkservice "pagetrack/internal/modules/sink/service"
	sinkusecase "pagetrack/internal/modules/sink/usecase"
	"pagetrack/internal/platform/clock"
	"pagetrack/internal/platform/config"
	apperrors "pagetrack/internal/platform/errors"
	"pagetrack/internal/platform/id"
	"pagetrack/internal/platform/logging"
	"pagetrack/internal/platform/sqlitedb"
	uiapp "pagetrack/internal/ui/app"
)

type Options struct {
	// LogToFile sends logs to the configured log file instead of stderr.
	LogToFile bool
}

type App struct {
	Config config.Config
	Logger *slog.Logger
	// Volatile is set when the database could not be opened and every store
	// fell back to memory.
	Volatile bool

	LibraryCLI   libraryinadapter.CLIHandler
	ReaderCLI    readerinadapter.CLIHandler
	ReaderTUI    readerinadapter.TUIHandler
	SessionCLI   sessioninadapter.CLIHandler
	SessionTUI   sessioninadapter.TUIHandler
	AnalyticsCLI analyticsinadapter.CLIHandler
	SinkCLI      sinkinadapter.CLIHandler

	session   sessionin.Usecase
	positions positionin.Usecase
	sinks     sinkin.Usecase
	db        *sql.DB
	metrics   *http.Server
	logFile   io.Closer
}

type stores struct {
	analytics analyticsout.Store
	positions positionout.Store
	catalog   libraryout.CatalogStore
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	app := &App{Config: cfg}

	logOut := io.Writer(os.Stderr)
	if opts.LogToFile {
		f, err := logging.OpenFile(cfg.LogFile)
		if err != nil {
			return nil, err
		}
		app.logFile = f
		logOut = f
	}
	logger, err := logging.New(logOut, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		app.closeLog()
		return nil, err
	}
	app.Logger = logger

	st, err := app.openStores(ctx, logger)
	if err != nil {
		app.closeLog()
		return nil, err
	}

	clk := clock.NewSystem()
	ids := id.UUID{}

	analyticsStore := st.analytics
	analyticsUC := analyticsusecase.NewInteractor(
		analyticsservice.NewAggregationService(clk, analyticsStore, logger, time.Local),
		analyticsservice.NewDashboardService(clk, analyticsStore, logger, time.Local),
	)

	positionUC := positionusecase.NewInteractor(positionservice.NewCache(clk, st.positions, logger, cfg.PositionDebounce))

	readerSvc := readerservice.NewReaderService(
		readeroutadapter.NewLocalTextReader(),
		readeroutadapter.NewLocalPDFReader(),
		cfg.LinesPerPage,
	)
	var notes libraryout.NoteWriter
	if cfg.VaultPath != "" {
		notes = libraryoutadapter.NewVaultDocumentNote(cfg.VaultPath)
	}
	libraryUC := libraryusecase.NewInteractor(libraryservice.NewCatalogService(
		clk,
		ids,
		st.catalog,
		libraryoutadapter.NewReaderPageCounter(readerusecase.NewCounter(readerSvc)),
		notes,
		logger,
	))
	readerUC := readerusecase.NewInteractor(readerSvc, readeroutadapter.NewLibraryDocumentResolver(libraryUC))

	sinkUC := sinkusecase.NewInteractor(sinkservice.NewSinkService(
		sinkoutadapter.NewFileManifestStore(cfg.PluginsPath),
		sinkoutadapter.NewGRPCHost(logOut, cfg.LogLevel),
		logger,
	))

	sinks := sessionoutadapter.MultiSink{sessionoutadapter.NewPluginSink(sinkUC)}
	if cfg.VaultPath != "" {
		sinks = append(sinks, sessionoutadapter.NewVaultJournal(cfg.VaultPath))
	}

	metrics := sessionservice.NewMetrics()
	recorder := sessionservice.NewRecorder(
		clk,
		ids,
		sessionoutadapter.NewAnalyticsAggregator(analyticsUC),
		sinks,
		logger,
		metrics,
		sessionservice.Settings{
			IdleTimeout:      cfg.IdleTimeout,
			AutosaveInterval: cfg.AutosaveInterval,
			MinSession:       cfg.MinSession,
			Thresholds: domain.Thresholds{
				PageDwell: cfg.PageDwellThreshold,
				Closing:   cfg.ClosingDwellThreshold,
			},
		},
	)
	sessionUC := sessionusecase.NewInteractor(
		recorder,
		sessionoutadapter.NewDocumentCatalog(libraryUC),
		sessionoutadapter.NewPositionCache(positionUC),
		logger,
	)

	if cfg.MetricsAddr != "" {
		srv, err := serveMetrics(cfg.MetricsAddr, metrics, logger)
		if err != nil {
			_ = app.closeStores()
			app.closeLog()
			return nil, err
		}
		app.metrics = srv
	}

	app.session = sessionUC
	app.positions = positionUC
	app.sinks = sinkUC
	app.LibraryCLI = libraryinadapter.NewCLIHandler(libraryUC)
	app.ReaderCLI = readerinadapter.NewCLIHandler(readerUC)
	app.ReaderTUI = readerinadapter.NewTUIHandler(readerUC)
	app.SessionCLI = sessioninadapter.NewCLIHandler(sessionUC)
	app.SessionTUI = sessioninadapter.NewTUIHandler(sessionUC)
	app.AnalyticsCLI = analyticsinadapter.NewCLIHandler(analyticsUC)
	app.SinkCLI = sinkinadapter.NewCLIHandler(sinkUC)
	return app, nil
}

// openStores opens the shared database. When it is unavailable the app
// keeps running on memory stores and reports itself volatile.
func (a *App) openStores(ctx context.Context, logger *slog.Logger) (stores, error) {
	db, err := sqlitedb.Open(ctx, a.Config.DBPath)
	if errors.Is(err, apperrors.ErrStoreUnavailable) {
		logger.Warn("database unavailable, reading data will not survive this run", "path", a.Config.DBPath, "err", err)
		a.Volatile = true
		return stores{
			analytics: analyticsoutadapter.NewMemoryStore(),
			positions: positionoutadapter.NewMemoryStore(),
			catalog:   libraryoutadapter.NewMemoryCatalog(),
		}, nil
	}
	if err != nil {
		return stores{}, err
	}
	a.db = db

	analyticsStore, err := analyticsoutadapter.NewSQLiteStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return stores{}, fmt.Errorf("analytics store: %w", err)
	}
	positionStore, err := positionoutadapter.NewSQLiteStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return stores{}, fmt.Errorf("position store: %w", err)
	}
	catalog, err := libraryoutadapter.NewSQLiteCatalog(ctx, db)
	if err != nil {
		_ = db.Close()
		return stores{}, fmt.Errorf("library catalog: %w", err)
	}
	return stores{analytics: analyticsStore, positions: positionStore, catalog: catalog}, nil
}

func serveMetrics(addr string, metrics *sessionservice.Metrics, logger *slog.Logger) (*http.Server, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(reg); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "addr", addr, "err", err)
		}
	}()
	return srv, nil
}

// Close finalizes the open session, then releases plugins, the metrics
// endpoint and the database in that order.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.session != nil {
		out, err := a.session.Shutdown(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("shutdown session: %w", err))
		} else if out.Outcome != "" && a.Logger != nil {
			a.Logger.Debug("session shut down", "outcome", out.Outcome, "session_id", out.SessionID)
		}
	}
	if a.positions != nil {
		if err := a.positions.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush positions: %w", err))
		}
	}
	if a.sinks != nil {
		if err := a.sinks.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sinks: %w", err))
		}
	}
	if a.metrics != nil {
		if err := a.metrics.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop metrics: %w", err))
		}
	}
	if err := a.closeStores(); err != nil {
		errs = append(errs, err)
	}
	a.closeLog()
	return errors.Join(errs...)
}

func (a *App) closeStores() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	if err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func (a *App) closeLog() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(uiapp.Ports{
		Library:   app.LibraryCLI,
		Pages:     app.ReaderTUI,
		Session:   app.SessionTUI,
		Dashboard: app.AnalyticsCLI,
		Sinks:     app.SinkCLI,
		Recent:    app.Config.RecentSessions,
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus())
	_, err := program.Run()
	return err
}
