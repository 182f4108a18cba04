package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/finance-montecarlo/internal/config"
	"github.com/iwvelando/finance-montecarlo/internal/metrics"
	"github.com/iwvelando/finance-montecarlo/pkg/cashflow"
	"github.com/iwvelando/finance-montecarlo/pkg/constants"
	"github.com/iwvelando/finance-montecarlo/pkg/montecarlo"
	"github.com/iwvelando/finance-montecarlo/pkg/output"
	"github.com/iwvelando/finance-montecarlo/pkg/returns"
	"github.com/iwvelando/finance-montecarlo/pkg/scenario"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	runTimeout    time.Duration
	maxIterations int
	version       string
	collector     *metrics.Collector
	engine        *cashflow.Engine
}

// Options configures the HTTP handler.
type Options struct {
	MaxUploadSize int64
	RunTimeout    time.Duration
	// MaxIterations caps the trials of one Monte Carlo request; 0 leaves the
	// request's own ceiling in place.
	MaxIterations int
	Version       string
	Collector     *metrics.Collector
}

// NewHandler constructs the HTTP handler that serves the simulation API and
// Prometheus metrics.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	collector := opts.Collector
	if collector == nil {
		collector = metrics.New()
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		runTimeout:    opts.RunTimeout,
		maxIterations: opts.MaxIterations,
		version:       trimmedVersion,
		collector:     collector,
		engine:        cashflow.NewEngine(logger),
	}

	mux := http.NewServeMux()

	// Deterministic ledger
	mux.HandleFunc("/api/simulate", h.instrument("/api/simulate", h.handleSimulate))

	// Monte Carlo analysis
	mux.HandleFunc("/api/montecarlo", h.instrument("/api/montecarlo", h.handleMonteCarlo))

	// Ledger as a CSV download
	mux.HandleFunc("/api/export/csv", h.instrument("/api/export/csv", h.handleExportCSV))

	// Version endpoint for UI metadata
	mux.HandleFunc("/api/version", h.instrument("/api/version", h.handleVersion))

	mux.Handle("/metrics", promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{}))

	return mux
}

type simulateResponse struct {
	Scenario string                 `json:"scenario"`
	Result   *cashflow.Result       `json:"result"`
	CSV      string                 `json:"csv"`
	Warnings []string               `json:"warnings,omitempty"`
	Duration string                 `json:"duration"`
	Config   map[string]interface{} `json:"config,omitempty"`
}

type monteCarloResponse struct {
	Scenario string                     `json:"scenario"`
	Analysis *montecarlo.AnalysisResult `json:"analysis"`
	Warnings []string                   `json:"warnings,omitempty"`
	Duration string                     `json:"duration"`
}

type errorResponse struct {
	Error   string                     `json:"error"`
	Field   string                     `json:"field,omitempty"`
	Partial *montecarlo.AnalysisResult `json:"partial,omitempty"`
}

// statusWriter captures the status code for request metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (h *handler) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r)
		h.collector.RequestHandled(endpoint, sw.status)
	}
}

func (h *handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSimulate"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	conf, raw, ok := h.readConfiguration(w, r, op)
	if !ok {
		return
	}

	result, err := h.engine.SimulateContext(r.Context(), conf.Scenario)
	h.collector.SimulationFinished(err)
	if err != nil {
		h.respondRunError(w, err, op)
		return
	}

	configMap, err := decodeYAMLToMap(raw)
	if err != nil {
		h.logger.Warn("failed to echo configuration",
			zap.String("op", op),
			zap.Error(err),
		)
	}

	h.writeJSON(w, http.StatusOK, simulateResponse{
		Scenario: conf.Scenario.Name,
		Result:   result,
		CSV:      output.CsvString(result),
		Warnings: conf.ValidateConfiguration(),
		Duration: time.Since(start).String(),
		Config:   configMap,
	})
}

func (h *handler) handleMonteCarlo(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleMonteCarlo"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	conf, _, ok := h.readConfiguration(w, r, op)
	if !ok {
		return
	}
	ranges, err := conf.MonteCarlo.Ranges()
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	ctx := r.Context()
	if h.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.runTimeout)
		defer cancel()
	}

	mcConfig := conf.MonteCarlo.Config
	if h.maxIterations > 0 && (mcConfig.MaxIterations == 0 || mcConfig.MaxIterations > h.maxIterations) {
		mcConfig.MaxIterations = h.maxIterations
	}

	orchestrator := montecarlo.NewOrchestrator(h.logger, h.engine, montecarlo.WithRecorder(h.collector))
	analysis, err := orchestrator.Run(ctx, conf.Scenario, ranges, mcConfig)
	if err != nil {
		h.respondRunError(w, err, op)
		return
	}

	h.writeJSON(w, http.StatusOK, monteCarloResponse{
		Scenario: conf.Scenario.Name,
		Analysis: analysis,
		Warnings: conf.ValidateConfiguration(),
		Duration: time.Since(start).String(),
	})
}

func (h *handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExportCSV"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	conf, _, ok := h.readConfiguration(w, r, op)
	if !ok {
		return
	}
	result, err := h.engine.SimulateContext(r.Context(), conf.Scenario)
	h.collector.SimulationFinished(err)
	if err != nil {
		h.respondRunError(w, err, op)
		return
	}

	var buf bytes.Buffer
	if err := output.CsvFormat(&buf, result); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}

	filename := "ledger.csv"
	if name := strings.TrimSpace(conf.Scenario.Name); name != "" {
		filename = strings.ReplaceAll(strings.ToLower(name), " ", "-") + ".csv"
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("failed to write CSV response", zap.String("op", op), zap.Error(err))
	}
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// readConfiguration reads a YAML run configuration from a multipart "file"
// upload or from the raw request body.
func (h *handler) readConfiguration(w http.ResponseWriter, r *http.Request, op string) (*config.Configuration, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	var body io.Reader = r.Body
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
			h.respondReadError(w, err, op)
			return nil, nil, false
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, "missing configuration file", op)
			return nil, nil, false
		}
		defer func() {
			if closeErr := file.Close(); closeErr != nil {
				h.logger.Warn("failed to close uploaded file",
					zap.String("op", op),
					zap.Error(closeErr),
				)
			}
		}()
		body = file
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		h.respondReadError(w, err, op)
		return nil, nil, false
	}
	if len(bytes.TrimSpace(buf.Bytes())) == 0 {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing configuration", op)
		return nil, nil, false
	}

	conf, err := config.LoadConfigurationFromReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return nil, nil, false
	}
	if err := conf.ResolveDates(); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return nil, nil, false
	}
	return conf, buf.Bytes(), true
}

func (h *handler) respondReadError(w http.ResponseWriter, err error, op string) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
		return
	}
	h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to read configuration: %v", err), op)
}

// respondRunError maps simulation and Monte Carlo errors onto status codes.
func (h *handler) respondRunError(w http.ResponseWriter, err error, op string) {
	var (
		validationErr *scenario.ValidationError
		configErr     *montecarlo.ConfigurationError
		modelErr      *returns.UnknownModelError
		batchFailure  *montecarlo.BatchFailure
	)
	switch {
	case errors.As(err, &validationErr):
		h.respondErrorBody(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: validationErr.Field}, op)
	case errors.As(err, &configErr):
		h.respondErrorBody(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: configErr.Field}, op)
	case errors.As(err, &modelErr):
		h.respondErrorBody(w, http.StatusBadRequest, errorResponse{Error: err.Error()}, op)
	case errors.As(err, &batchFailure):
		h.respondErrorBody(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Partial: batchFailure.Partial}, op)
	case errors.Is(err, context.DeadlineExceeded):
		h.respondErrorWithOp(w, http.StatusGatewayTimeout, err.Error(), op)
	case errors.Is(err, context.Canceled):
		h.respondErrorWithOp(w, http.StatusServiceUnavailable, err.Error(), op)
	default:
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
	}
}

func decodeYAMLToMap(data []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return make(map[string]interface{}), nil
	}

	var result map[string]interface{}
	if err := yaml.Unmarshal(trimmed, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = make(map[string]interface{})
	}
	return result, nil
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.respondErrorBody(w, status, errorResponse{Error: msg}, op)
}

func (h *handler) respondErrorBody(w http.ResponseWriter, status int, body errorResponse, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", body.Error),
	)

	h.writeJSON(w, status, body)
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
