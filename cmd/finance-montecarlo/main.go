package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/iwvelando/finance-montecarlo/internal/config"
	"github.com/iwvelando/finance-montecarlo/internal/metrics"
	"github.com/iwvelando/finance-montecarlo/internal/server"
	"github.com/iwvelando/finance-montecarlo/pkg/cashflow"
	"github.com/iwvelando/finance-montecarlo/pkg/constants"
	"github.com/iwvelando/finance-montecarlo/pkg/montecarlo"
	"github.com/iwvelando/finance-montecarlo/pkg/output"
	"github.com/iwvelando/finance-montecarlo/pkg/validation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "json"
	}

	var config zap.Config
	switch format {
	case "console":
		config = zap.NewDevelopmentConfig()
	case "json":
		config = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	// Logs go to stderr so stdout stays clean for CSV and JSON output.
	config.OutputPaths = []string{"stderr"}
	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		if file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		} else {
			_ = file.Close()
		}

		config.OutputPaths = []string{loggingConfig.OutputFile}
		config.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return config.Build()
}

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	modeFlag := flag.String("mode", "", "run mode override: simulate, montecarlo")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	serve := flag.Bool("serve", false, "serve the HTTP API instead of running once")
	serverConfigLocation := flag.String("server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *serve {
		runServer(ctx, *serverConfigLocation, *logLevel)
		return
	}

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI overrides take precedence over config
	if *outputFormatFlag != "" {
		conf.Output.Format = *outputFormatFlag
	}
	if *modeFlag != "" {
		conf.Output.Mode = *modeFlag
	}
	if err := validation.ValidateOutputFormat(conf.Output.Format); err != nil {
		logger.Fatal(err.Error(), zap.String("op", "main"))
	}
	if err := validation.ValidateMode(conf.Output.Mode); err != nil {
		logger.Fatal(err.Error(), zap.String("op", "main"))
	}

	if err := conf.ResolveDates(); err != nil {
		logger.Fatal("failed to resolve plan dates",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	switch conf.Output.Mode {
	case constants.ModeSimulate:
		err = runSimulation(ctx, logger, conf, os.Stdout)
	case constants.ModeMonteCarlo:
		err = runMonteCarlo(ctx, logger, conf, os.Stdout)
	}
	if err != nil {
		logger.Fatal("run failed",
			zap.String("op", "main"),
			zap.String("mode", conf.Output.Mode),
			zap.Error(err),
		)
	}
}

func runSimulation(ctx context.Context, logger *zap.Logger, conf *config.Configuration, w io.Writer) error {
	result, err := cashflow.NewEngine(logger).SimulateContext(ctx, conf.Scenario)
	if err != nil {
		return fmt.Errorf("failed to simulate scenario: %w", err)
	}

	switch conf.Output.Format {
	case constants.OutputFormatPretty:
		output.PrettyFormat(w, result)
	case constants.OutputFormatCSV:
		return output.CsvFormat(w, result)
	case constants.OutputFormatJSON:
		return output.JSONFormat(w, result)
	}
	return nil
}

func runMonteCarlo(ctx context.Context, logger *zap.Logger, conf *config.Configuration, w io.Writer) error {
	ranges, err := conf.MonteCarlo.Ranges()
	if err != nil {
		return err
	}

	orchestrator := montecarlo.NewOrchestrator(logger, cashflow.NewEngine(logger),
		montecarlo.WithProgress(func(p montecarlo.Progress) {
			logger.Info("monte carlo progress",
				zap.String("op", "main"),
				zap.String("run_id", p.RunID),
				zap.Int("completed", p.Completed),
				zap.Int("failed", p.Failed),
				zap.Int("total", p.Total),
			)
		}),
	)

	analysis, err := orchestrator.Run(ctx, conf.Scenario, ranges, conf.MonteCarlo.Config)
	if err != nil {
		var batchFailure *montecarlo.BatchFailure
		if errors.As(err, &batchFailure) && batchFailure.Partial != nil && conf.Output.Format == constants.OutputFormatPretty {
			output.PrettyMonteCarlo(w, conf.Scenario.Name, batchFailure.Partial)
		}
		return fmt.Errorf("monte carlo analysis failed: %w", err)
	}

	switch conf.Output.Format {
	case constants.OutputFormatPretty:
		output.PrettyMonteCarlo(w, conf.Scenario.Name, analysis)
	case constants.OutputFormatCSV:
		median, ok := analysis.KeyScenarios["median"]
		if !ok || median.Result == nil {
			return errors.New("no completed trials to export")
		}
		return output.CsvFormat(w, median.Result)
	case constants.OutputFormatJSON:
		return output.JSONFormat(w, analysis)
	}
	return nil
}

func runServer(ctx context.Context, configPath, logLevelOverride string) {
	serverConf, err := server.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", configPath, err)
		os.Exit(1)
	}

	logger, err := initializeLogger(serverConf.Logging, logLevelOverride)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	handler := server.NewHandler(logger, server.Options{
		MaxUploadSize: serverConf.UploadSizeBytes(),
		RunTimeout:    serverConf.RunTimeoutDuration(),
		MaxIterations: serverConf.MaxIterations,
		Version:       version,
		Collector:     metrics.New(),
	})
	srv := &http.Server{
		Addr:              serverConf.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server",
			zap.String("op", "main"),
			zap.String("address", serverConf.Address),
			zap.Int64("max_upload_bytes", serverConf.UploadSizeBytes()),
			zap.Duration("run_timeout", serverConf.RunTimeoutDuration()),
			zap.Int("max_iterations", serverConf.MaxIterations),
			zap.String("version", version),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.String("op", "main"), zap.Error(err))
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", zap.String("op", "main"), zap.Error(err))
		}
		logger.Info("HTTP server stopped", zap.String("op", "main"))
	}
}
