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
	"path/filepath"
	"syscall"
	"time"

	"github.com/stuianna/CMCLogger/internal/api"
	"github.com/stuianna/CMCLogger/internal/config"
	"github.com/stuianna/CMCLogger/internal/daemon"
	"github.com/stuianna/CMCLogger/internal/database"
	"github.com/stuianna/CMCLogger/internal/metrics"
	"github.com/stuianna/CMCLogger/internal/query"
	"github.com/stuianna/CMCLogger/internal/settings"
	"github.com/stuianna/CMCLogger/internal/status"
	"github.com/stuianna/CMCLogger/internal/version"
	"github.com/stuianna/CMCLogger/internal/writer"
)

// Working directory layout.
const (
	configIniName  = "config.ini"
	dataDirName    = "data"
	statusFileName = "status.ini"
	dbFileName     = "cryptoData.db"
	lockFileName   = "cmclogger.lock"
)

func usage() {
	fmt.Fprintf(os.Stderr, `cmclogger %s

Usage: cmclogger [flags] <command>

Commands:
  daemon          run the polling daemon
  fetch           perform one fetch-and-store cycle, then exit
  price <SYMBOL>  print the latest stored price for a symbol
  status          print daemon status

Flags:
`, version.String())
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to daemon config file")
	workDir := flag.String("workdir", "", "working directory (overrides config)")
	jsonOut := flag.Bool("json", false, "render query output as JSON")
	longOut := flag.Bool("long", false, "render query output with full detail")
	apiKey := flag.String("key", "", "API key override")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *workDir != "" {
		cfg.WorkDir = *workDir
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	app, err := setup(cfg, logger)
	if err != nil {
		// Setup failures are fatal: nothing works without the working
		// directory, settings files, and database.
		logger.Error("setup failed", "error", err)
		os.Exit(1)
	}
	defer app.db.Close()

	switch flag.Arg(0) {
	case "daemon":
		runDaemon(app, cfg, logger, *apiKey)
	case "fetch":
		if !runFetch(app, cfg, logger, *apiKey) {
			os.Exit(1)
		}
	case "price":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "price requires a symbol argument")
			os.Exit(2)
		}
		runQuery(app, logger, query.Request{
			Type:   query.TypePrice,
			Tag:    flag.Arg(1),
			Format: outputFormat(*jsonOut),
			Detail: outputDetail(*longOut),
		})
	case "status":
		runQuery(app, logger, query.Request{
			Type:   query.TypeStatus,
			Format: outputFormat(*jsonOut),
			Detail: outputDetail(*longOut),
		})
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", flag.Arg(0))
		usage()
		os.Exit(2)
	}
}

// app holds the assembled persistent state shared by all commands.
type app struct {
	workDir string
	config  *settings.Store
	status  *settings.Store
	db      *database.DB
}

// setup creates the working directory layout and opens the persistent stores.
func setup(cfg *config.DaemonConfig, logger *slog.Logger) (*app, error) {
	dataDir := filepath.Join(cfg.WorkDir, dataDirName)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	configStore, err := settings.NewStore(
		filepath.Join(cfg.WorkDir, configIniName),
		settings.ConfigExpectations(),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("open configuration file: %w", err)
	}

	statusStore, err := settings.NewStore(
		filepath.Join(dataDir, statusFileName),
		settings.StatusExpectations(time.Now()),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("open status file: %w", err)
	}

	db, err := database.Open(filepath.Join(dataDir, dbFileName), logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &app{
		workDir: cfg.WorkDir,
		config:  configStore,
		status:  statusStore,
		db:      db,
	}, nil
}

// assemble builds the daemon pipeline: client, tracker, writer.
func assemble(a *app, cfg *config.DaemonConfig, logger *slog.Logger) (*daemon.Daemon, *status.Tracker) {
	apiSettings := api.SettingsFromStore(a.config, logger)

	client := api.NewClient(
		cfg.API.BaseURL,
		apiSettings,
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(logger),
	)
	tracker := status.NewTracker(a.status, logger)
	recordWriter := writer.NewRecordWriter(a.db, apiSettings.ConversionCurrency, logger)

	return daemon.New(client, tracker, recordWriter, logger), tracker
}

func runDaemon(a *app, cfg *config.DaemonConfig, logger *slog.Logger, apiKey string) {
	lock, err := daemon.AcquireLock(filepath.Join(a.workDir, dataDirName, lockFileName))
	if err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			logger.Warn("attempting to start daemon which is already running")
		} else {
			logger.Error("cannot acquire daemon lock", "error", err)
		}
		os.Exit(1)
	}
	defer lock.Release()

	logger.Info("starting daemon",
		"version", version.Version,
		"commit", version.Commit,
		"workdir", a.workDir,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if cfg.Metrics.Enabled {
		startMetricsServer(ctx, cfg.Metrics, logger)
	}

	if apiKey != "" {
		// Persist the override so queries and later sessions use it too.
		a.config.Set(settings.SectionAPI, settings.KeyPrivateKey, apiKey)
		if err := a.config.Save(); err != nil {
			logger.Error("cannot persist API key", "error", err)
			os.Exit(1)
		}
	}

	d, tracker := assemble(a, cfg, logger)
	if err := tracker.ResetSession(); err != nil {
		logger.Error("cannot reset session stats", "error", err)
		os.Exit(1)
	}

	if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("daemon exited", "error", err)
		os.Exit(1)
	}
}

func runFetch(a *app, cfg *config.DaemonConfig, logger *slog.Logger, apiKey string) bool {
	d, _ := assemble(a, cfg, logger)
	return d.RunOnce(context.Background(), apiKey)
}

func runQuery(a *app, logger *slog.Logger, req query.Request) {
	engine := query.NewEngine(a.status, a.config, a.db, logger)
	fmt.Println(engine.Process(context.Background(), req))
}

func startMetricsServer(ctx context.Context, cfg config.MetricsConfig, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, metrics.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	go func() {
		logger.Info("starting metrics server", "port", cfg.Port, "path", cfg.Path)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		server.Shutdown(shutdownCtx)
	}()
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func outputFormat(jsonOut bool) query.Format {
	if jsonOut {
		return query.FormatJSON
	}
	return query.FormatStdout
}

func outputDetail(longOut bool) query.Detail {
	if longOut {
		return query.DetailLong
	}
	return query.DetailShort
}
