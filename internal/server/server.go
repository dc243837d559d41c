package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/iwvelando/proforma/internal/assumptions"
	"github.com/iwvelando/proforma/internal/cache"
	"github.com/iwvelando/proforma/internal/config"
	"github.com/iwvelando/proforma/internal/engine"
	"github.com/iwvelando/proforma/internal/forecast"
	"github.com/iwvelando/proforma/internal/observability"
	"github.com/iwvelando/proforma/pkg/constants"
	"github.com/iwvelando/proforma/pkg/output"
)

// Options configures the HTTP handler. Zero values fall back to defaults;
// a nil Results caches nothing and a nil Metrics records nothing.
type Options struct {
	Logger        *zap.Logger
	MaxUploadSize int64
	Version       string
	Results       *cache.Results
	Metrics       *observability.Metrics
	RateLimit     int
	RateWindow    time.Duration
	Timeout       time.Duration
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	results       *cache.Results
	metrics       *observability.Metrics
}

// NewHandler constructs the HTTP handler that serves the projection API.
func NewHandler(opts Options) http.Handler {
	logger := opts.Logger
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

	results := opts.Results
	if results == nil {
		results = cache.NewResults(cache.Nop{}, logger)
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		results:       results,
		metrics:       opts.Metrics,
	}

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'",
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if opts.Timeout > 0 {
		r.Use(middleware.Timeout(opts.Timeout))
	}
	r.Use(secureMiddleware.Handler)
	r.Use(h.metrics.Middleware)

	r.Get("/api/version", h.handleVersion)
	r.Get("/api/defaults", h.handleDefaults)
	r.Get("/api/templates", h.handleTemplates)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	r.Group(func(gr chi.Router) {
		if opts.RateLimit > 0 {
			window := opts.RateWindow
			if window <= 0 {
				window = constants.DefaultRateLimitWindowSeconds * time.Second
			}
			gr.Use(httprate.Limit(opts.RateLimit, window,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					h.writeJSON(w, http.StatusTooManyRequests, map[string]string{
						"error": http.StatusText(http.StatusTooManyRequests),
					})
				}),
			))
		}
		gr.Post("/api/projection", h.handleProjection)
		gr.Post("/api/projection/csv", h.handleProjectionCSV)
		gr.Post("/api/assumptions/export", h.handleAssumptionsExport)
		gr.Post("/api/forecast", h.handleForecast)
	})

	return r
}

// projectionRequest selects a scenario: template first, then overrides.
type projectionRequest struct {
	Name        string                 `json:"name,omitempty"`
	Preset      string                 `json:"preset,omitempty"`
	Sector      string                 `json:"sector,omitempty"`
	Assumptions map[string]interface{} `json:"assumptions,omitempty"`
}

type projectionResponse struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	Fingerprint string                  `json:"fingerprint"`
	Cached      bool                    `json:"cached"`
	Assumptions assumptions.Assumptions `json:"assumptions"`
	Result      *engine.Result          `json:"result"`
	Analysis    engine.Analysis         `json:"analysis"`
	Duration    string                  `json:"duration"`
}

type forecastResponse struct {
	Scenarios  []string               `json:"scenarios"`
	Forecasts  []forecast.Forecast    `json:"forecasts"`
	CSV        string                 `json:"csv"`
	Warnings   []string               `json:"warnings,omitempty"`
	Duration   string                 `json:"duration"`
	Config     map[string]interface{} `json:"config,omitempty"`
	ConfigYAML string                 `json:"configYaml,omitempty"`
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleDefaults(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, assumptions.Default())
}

func (h *handler) handleTemplates(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"presets": assumptions.Presets(),
		"sectors": assumptions.Sectors(),
	})
}

func (h *handler) handleProjection(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleProjection"
	start := time.Now()

	req, a, err := h.decodeScenario(w, r)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}

	result, fingerprint, cached, err := h.compute(r.Context(), a)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), fmt.Sprintf("failed to compute projection: %v", err), op)
		return
	}

	elapsed := time.Since(start)
	response := projectionResponse{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Fingerprint: fingerprint,
		Cached:      cached,
		Assumptions: a,
		Result:      result,
		Analysis:    engine.Analyze(result, a),
		Duration:    elapsed.String(),
	}

	h.logger.Info("projection computed",
		zap.String("op", op),
		zap.String("scenario", req.Name),
		zap.String("fingerprint", fingerprint),
		zap.Bool("cached", cached),
		zap.Float64("npvEquity", result.NPVEquity),
		zap.String("irrEquityStatus", string(result.IRREquity.Status)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleProjectionCSV(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleProjectionCSV"

	req, a, err := h.decodeScenario(w, r)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}

	result, _, _, err := h.compute(r.Context(), a)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), fmt.Sprintf("failed to compute projection: %v", err), op)
		return
	}

	var buf bytes.Buffer
	if err := output.WriteProjectionCSV(&buf, req.Name, result.Rows); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render csv: %v", err), op)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", csvFilename(req.Name)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("failed to write csv response",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}

func (h *handler) handleAssumptionsExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAssumptionsExport"

	req, a, err := h.decodeScenario(w, r)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}

	scenario := []orderedItem{
		{key: "name", value: req.Name},
		{key: "active", value: true},
	}
	if req.Sector != "" {
		scenario = append(scenario, orderedItem{key: "sector", value: req.Sector})
	}
	if req.Preset != "" {
		scenario = append(scenario, orderedItem{key: "preset", value: req.Preset})
	}
	scenario = append(scenario, orderedItem{key: "assumptions", value: a})

	yamlBytes, err := marshalOrderedConfigYAML(map[string]interface{}{
		"output":    map[string]string{"format": constants.OutputFormatPretty},
		"scenarios": []interface{}{orderedConfig{items: scenario}},
	})
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

func (h *handler) handleForecast(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleForecast"
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing configuration file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return
	}

	configBytes := buf.Bytes()
	configMap, err := decodeYAMLToMap(configBytes)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("error reading config data, %v", err), op)
		return
	}

	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	warnings := cfg.ValidateConfiguration()

	results, err := forecast.GetForecast(r.Context(), h.logger, *cfg)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), fmt.Sprintf("failed to compute forecast: %v", err), op)
		return
	}
	for _, f := range results {
		h.metrics.ObserveComputation(f.Result, f.Duration)
	}

	elapsed := time.Since(start)
	response := forecastResponse{
		Scenarios:  scenarioNames(results),
		Forecasts:  results,
		CSV:        output.CsvString(results),
		Warnings:   warnings,
		Duration:   elapsed.String(),
		Config:     configMap,
		ConfigYAML: string(configBytes),
	}

	h.logger.Info("forecast computed",
		zap.String("op", op),
		zap.Int("scenarios", len(results)),
		zap.Int("warnings", len(warnings)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

// decodeScenario reads a projectionRequest and resolves it to validated
// assumptions. An empty body selects the defaults.
func (h *handler) decodeScenario(w http.ResponseWriter, r *http.Request) (projectionRequest, assumptions.Assumptions, error) {
	var req projectionRequest

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return req, assumptions.Assumptions{}, err
		}
		return req, assumptions.Assumptions{}, fmt.Errorf("%w: failed to decode request: %v", errBadRequest, err)
	}

	if strings.TrimSpace(req.Name) == "" {
		req.Name = "projection"
	}

	scenario := config.Scenario{
		Name:        req.Name,
		Active:      true,
		Preset:      req.Preset,
		Sector:      req.Sector,
		Assumptions: req.Assumptions,
	}
	a, err := scenario.Resolve()
	if err != nil {
		return req, a, err
	}
	if err := a.Validate(); err != nil {
		return req, a, err
	}
	return req, a, nil
}

// compute returns the result for a, served from the cache when a result
// with the same fingerprint is present.
func (h *handler) compute(ctx context.Context, a assumptions.Assumptions) (*engine.Result, string, bool, error) {
	fingerprint, err := engine.Fingerprint(a)
	if err != nil {
		return nil, "", false, err
	}

	result, cached, err := h.results.Fetch(ctx, fingerprint, func(context.Context) (*engine.Result, error) {
		start := time.Now()
		res, err := engine.Compute(a)
		h.metrics.ObserveComputation(res, time.Since(start))
		return res, err
	})
	if err != nil {
		return nil, fingerprint, false, err
	}
	h.metrics.ObserveCacheLookup(cached)
	return result, fingerprint, cached, nil
}

var errBadRequest = errors.New("bad request")

func statusFor(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, assumptions.ErrInvalidAssumptions), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func csvFilename(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, name)
	if cleaned == "" {
		cleaned = "projection"
	}
	return cleaned + ".csv"
}

// marshalOrderedConfigYAML writes logging and output ahead of scenarios so
// exported files read like hand-written ones.
func marshalOrderedConfigYAML(payload map[string]interface{}) ([]byte, error) {
	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})

	for _, key := range []string{"logging", "output", "scenarios"} {
		if value, ok := payload[key]; ok {
			items = append(items, orderedItem{key: key, value: value})
			seen[key] = struct{}{}
		}
	}

	remainingKeys := make([]string, 0, len(payload))
	for key := range payload {
		if _, already := seen[key]; already {
			continue
		}
		remainingKeys = append(remainingKeys, key)
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		items = append(items, orderedItem{key: key, value: payload[key]})
	}

	return yaml.Marshal(orderedConfig{items: items})
}

type orderedConfig struct {
	items []orderedItem
}

type orderedItem struct {
	key   string
	value interface{}
}

func (o orderedConfig) MarshalYAML() (interface{}, error) {
	mapNode := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}

	for _, item := range o.items {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: item.key,
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(item.value); err != nil {
			return nil, err
		}
		mapNode.Content = append(mapNode.Content, keyNode, valueNode)
	}

	return mapNode, nil
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
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func scenarioNames(results []forecast.Forecast) []string {
	names := make([]string, 0, len(results))
	for _, scenario := range results {
		names = append(names, scenario.Name)
	}
	return names
}
