package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/OCAP2/royale/internal/api"
	"github.com/OCAP2/royale/internal/config"
	"github.com/OCAP2/royale/internal/dispatcher"
	"github.com/OCAP2/royale/internal/gateway"
	"github.com/OCAP2/royale/internal/influx"
	"github.com/OCAP2/royale/internal/logging"
	"github.com/OCAP2/royale/internal/monitor"
	intOtel "github.com/OCAP2/royale/internal/otel"
	"github.com/OCAP2/royale/internal/parser"
	"github.com/OCAP2/royale/internal/worker"

	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentServerVersion string = "0.1.0"
	BuildDate            string = "unknown"

	ServerName string = "royale_server"
)

var (
	// SessionStartTime names the log file, the session row and sqlite dumps.
	SessionStartTime time.Time = time.Now()

	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	LogFilePath string
	LogFile     *os.File
)

func sessionID() string {
	return SessionStartTime.UTC().Format("20060102_150405")
}

func main() {
	configDir := flag.String("config", ".", "directory containing "+config.FileName)
	flag.Parse()

	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info", nil)
	Logger = SlogManager.Logger()

	if err := config.Load(*configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config", "dir", *configDir)
	}
	setupLogging()

	command := "serve"
	args := flag.Args()
	if len(args) > 0 {
		command = strings.ToLower(args[0])
		args = args[1:]
	}

	var err error
	switch command {
	case "serve":
		err = serve()
	case "demo":
		err = runDemo(args)
	case "migratebackups":
		err = migrateBackupsSqlite()
	case "result":
		err = printResults(args)
	default:
		err = fmt.Errorf("unknown command %q (serve, demo, migratebackups, result)", command)
	}

	if err != nil {
		Logger.Error("Command failed", "command", command, "error", err)
	}
	closeLogging()
	if err != nil {
		os.Exit(1)
	}
}

// setupLogging opens the session log file and re-targets the slog manager
// at it, with the OTel bridge when enabled.
func setupLogging() {
	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		Logger.Error("Failed to create logs dir", "error", err, "path", logsDir)
	}

	LogFilePath = logging.LogFilePath(logsDir, ServerName, SessionStartTime)
	if _, err := os.Stat(LogFilePath); err == nil {
		_ = os.Rename(LogFilePath, LogFilePath+".old")
	}

	var err error
	LogFile, err = os.OpenFile(LogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", LogFilePath)
		LogFile = nil
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		var logWriter io.Writer
		if LogFile != nil {
			logWriter = LogFile
		}
		OTelProvider, err = intOtel.New(context.Background(), intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    logWriter,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			Logger.Info("OTel provider initialized", "endpoint", otelCfg.Endpoint)
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	if LogFile != nil {
		SlogManager.Setup(LogFile, viper.GetString("logLevel"), otelLogProvider)
	} else {
		SlogManager.Setup(nil, viper.GetString("logLevel"), otelLogProvider)
	}
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", LogFilePath, "version", CurrentServerVersion, "build", BuildDate)
}

func closeLogging() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := SlogManager.Flush(ctx); err != nil {
		Logger.Warn("Failed to flush logs", "error", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			Logger.Warn("Failed to shut down OTel provider", "error", err)
		}
	}
	if LogFile != nil {
		_ = LogFile.Close()
	}
}

// componentLog is the zerolog writer for infrastructure components: the
// session log file when open, stderr otherwise.
func componentLog() io.Writer {
	if LogFile != nil {
		return LogFile
	}
	return os.Stderr
}

// newWorker builds the worker and the dispatcher routing gateway commands
// into it.
func newWorker(deps worker.Dependencies) (*worker.Manager, *dispatcher.Dispatcher, error) {
	workerManager, err := worker.NewManager(deps)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create worker: %w", err)
	}
	SlogManager.SetContextProvider(logging.ServerContext(sessionID(), workerManager.Matches().Active))

	dispatcherLogger := logging.NewDispatcherLogger(
		logging.NewZerolog(componentLog(), viper.GetString("logLevel"), "dispatcher"),
	)
	eventDispatcher, err := dispatcher.New(dispatcherLogger)
	if err != nil {
		workerManager.Close()
		return nil, nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}
	workerManager.RegisterHandlers(eventDispatcher)
	Logger.Info("Worker handlers registered with dispatcher")
	return workerManager, eventDispatcher, nil
}

// connectInflux returns nil when influx is disabled.
func connectInflux(ctx context.Context) *influx.Manager {
	cfg := config.GetInfluxConfig()
	backupPath := filepath.Join(viper.GetString("logsDir"), fmt.Sprintf("%s_influx_%s.lp.gz", ServerName, sessionID()))
	mgr := influx.NewManager(logging.NewZerolog(componentLog(), viper.GetString("logLevel"), "influx"), cfg, backupPath)

	if err := mgr.Connect(ctx); err != nil {
		if !errors.Is(err, influx.ErrDisabled) {
			Logger.Error("Failed to set up InfluxDB", "error", err)
		}
		return nil
	}
	return mgr
}

func checkServerStatus(ctx context.Context, client *api.Client) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Healthcheck(ctx); err != nil {
		Logger.Info("Rewards service is offline", "error", err)
	} else {
		Logger.Info("Rewards service is online")
	}
}

func serve() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	matchCfg, err := config.GetMatchConfig()
	if err != nil {
		return err
	}

	store, err := createStorageBackend(config.GetStorageConfig())
	if err != nil {
		return err
	}
	defer store.close()

	apiCfg := config.GetAPIConfig()
	apiClient := api.New(apiCfg.ServerURL, apiCfg.APIKey)
	checkServerStatus(ctx, apiClient)

	deps := worker.Dependencies{
		MatchConfig: matchCfg,
		Parser:      parser.NewParser(Logger, matchCfg.MaxPlayers),
		Storage:     store.backend,
		Settler:     apiClient,
		Logger:      Logger,
	}
	influxManager := connectInflux(ctx)
	if influxManager != nil {
		deps.Telemetry = influxManager
		defer influxManager.Close()
	}

	workerManager, eventDispatcher, err := newWorker(deps)
	if err != nil {
		return err
	}

	gw := gateway.New(gateway.ConfigFrom(config.GetGatewayConfig()), eventDispatcher, Logger)
	workerManager.SetBroadcaster(gw)
	if err := gw.Connect(); err != nil {
		eventDispatcher.Close()
		workerManager.Close()
		return err
	}

	monitorCfg := config.GetMonitorConfig()
	monitorDeps := monitor.Dependencies{
		Matches:    workerManager.Matches(),
		Logger:     Logger,
		Session:    sessionID(),
		StatusPath: monitorCfg.StatusFile,
		Interval:   monitorCfg.Interval,
	}
	if store.queues != nil {
		monitorDeps.Queues = store.queues
		monitorDeps.Store = store.queues
	}
	if influxManager != nil {
		monitorDeps.Influx = influxManager
	}
	monitorService := monitor.NewService(monitorDeps)
	if err := monitorService.Start(); err != nil {
		Logger.Warn("Failed to start monitor", "error", err)
	}

	Logger.Info("Server ready", "session", sessionID())
	<-ctx.Done()
	Logger.Info("Shutting down")

	monitorService.Stop()
	if err := gw.Close(); err != nil {
		Logger.Warn("Failed to close gateway connection", "error", err)
	}
	eventDispatcher.Close()
	workerManager.Close()
	return nil
}
