// Package server exposes the panel session over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"terracurve/internal/codec"
	"terracurve/internal/curve"
	"terracurve/internal/detector"
	"terracurve/internal/device"
	"terracurve/internal/editor"
	"terracurve/internal/events"
	"terracurve/internal/models"
	"terracurve/internal/profile"
	"terracurve/internal/seasonal"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	errUnsavedChanges = profile.ErrUnsavedChanges
	errUnknownPreset  = errors.New("unknown preset")
)

// History lists archived events.
type History interface {
	RecentEvents(ctx context.Context, limit int) ([]models.Event, error)
}

// Options wires a Server. Hub, Events and History are optional.
type Options struct {
	Coordinator *profile.Coordinator
	View        *editor.View
	CanvasWidth float64
	Hub         *events.Hub
	Events      events.Publisher
	History     History
	// FromYear and ToYear default the climate range of /seasonal/generate.
	FromYear int
	ToYear   int
	Log      *zap.Logger
}

// Server represents the HTTP server
type Server struct {
	coord       *profile.Coordinator
	view        *editor.View
	canvasWidth float64
	detector    *detector.AnomalyDetector
	suggester   *detector.SmoothingSuggester
	hub         *events.Hub
	events      events.Publisher
	history     History
	fromYear    int
	toYear      int
	log         *zap.Logger
	router      *mux.Router
}

// NewServer creates a new HTTP server
func NewServer(opts Options) *Server {
	pub := opts.Events
	if pub == nil {
		pub = events.Nop{}
	}
	s := &Server{
		coord:       opts.Coordinator,
		view:        opts.View,
		canvasWidth: opts.CanvasWidth,
		detector:    detector.NewAnomalyDetector(opts.Log),
		suggester:   detector.NewSmoothingSuggester(),
		hub:         opts.Hub,
		events:      pub,
		history:     opts.History,
		fromYear:    opts.FromYear,
		toYear:      opts.ToYear,
		log:         opts.Log,
		router:      mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.logRequests)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler())
	if s.hub != nil {
		r.HandleFunc("/ws", s.hub.ServeWS)
	}

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/heatmap", s.handleHeatmap).Methods(http.MethodGet)
	api.HandleFunc("/heatmap.png", s.handleHeatmapPNG).Methods(http.MethodGet)
	api.HandleFunc("/heatmap/select", s.handleHeatmapSelect).Methods(http.MethodPost)

	api.HandleFunc("/days/{day:[0-9]+}", s.handleDayInfo).Methods(http.MethodGet)
	api.HandleFunc("/days/{day:[0-9]+}/select", s.handleSelectDay).Methods(http.MethodPost)
	api.HandleFunc("/days/navigate", s.handleNavigate).Methods(http.MethodPost)
	api.HandleFunc("/days/commit", s.handleCommitDay).Methods(http.MethodPost)
	api.HandleFunc("/days/close", s.handleCloseDay).Methods(http.MethodPost)

	api.HandleFunc("/curve", s.handleGetCurve).Methods(http.MethodGet)
	api.HandleFunc("/curve", s.handleReplaceCurve).Methods(http.MethodPut)
	api.HandleFunc("/curve/hours/{hour:[0-9]+}", s.handleSetHour).Methods(http.MethodPut)
	api.HandleFunc("/curve/pointer", s.handlePointer).Methods(http.MethodPost)
	api.HandleFunc("/curve/touch", s.handleTouch).Methods(http.MethodPost)
	api.HandleFunc("/curve/smooth", s.handleSmooth).Methods(http.MethodPost)
	api.HandleFunc("/curve/presets", s.handlePresets).Methods(http.MethodGet)
	api.HandleFunc("/curve/presets/{name}", s.handleApplyPreset).Methods(http.MethodPost)
	api.HandleFunc("/curve/weather", s.handleWeatherCurve).Methods(http.MethodPost)

	api.HandleFunc("/year/summary", s.handleYearSummary).Methods(http.MethodGet)
	api.HandleFunc("/year/apply", s.handleApplyYear).Methods(http.MethodPost)
	api.HandleFunc("/year/anomalies", s.handleAnomalies).Methods(http.MethodGet)

	api.HandleFunc("/months/{month:[0-9]+}/smooth", s.handleSmoothMonth).Methods(http.MethodPost)
	api.HandleFunc("/months/{month:[0-9]+}/cap", s.handleCapMonth).Methods(http.MethodPost)
	api.HandleFunc("/months/{month:[0-9]+}/copy", s.handleCopyDayToMonth).Methods(http.MethodPost)

	api.HandleFunc("/bounds", s.handleGetBounds).Methods(http.MethodGet)
	api.HandleFunc("/bounds", s.handleSetBounds).Methods(http.MethodPut)

	api.HandleFunc("/profiles", s.handleListProfiles).Methods(http.MethodGet)
	api.HandleFunc("/profiles/current", s.handleCurrentProfile).Methods(http.MethodGet)
	api.HandleFunc("/profiles/import", s.handleImport).Methods(http.MethodPost)
	api.HandleFunc("/profiles/{name}/load", s.handleLoadProfile).Methods(http.MethodPost)
	api.HandleFunc("/profiles/{name}/save", s.handleSaveProfile).Methods(http.MethodPost)
	api.HandleFunc("/profiles/{name}/activate", s.handleActivateProfile).Methods(http.MethodPost)
	api.HandleFunc("/profiles/{name}/rename", s.handleRenameProfile).Methods(http.MethodPost)
	api.HandleFunc("/profiles/{name}", s.handleDeleteProfile).Methods(http.MethodDelete)
	api.HandleFunc("/profiles/{name}/export.json", s.handleExport(false)).Methods(http.MethodGet)
	api.HandleFunc("/profiles/{name}/export.bin", s.handleExport(true)).Methods(http.MethodGet)

	api.HandleFunc("/seasonal/generate", s.handleGenerateSeasonal).Methods(http.MethodPost)
	api.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			// The upgrader needs the raw writer.
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)))
	})
}

// handleHealth returns the server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().UTC().String(),
		"busy":   s.coord != nil && s.coord.Busy(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error   string `json:"error"`
	Partial bool   `json:"partial,omitempty"`
}

func statusFor(err error) int {
	var partial *profile.PartialSaveError
	var network *device.NetworkError
	switch {
	case errors.Is(err, profile.ErrBusy),
		errors.Is(err, seasonal.ErrNoDaySelected),
		errors.Is(err, errUnsavedChanges):
		return http.StatusConflict
	case errors.Is(err, errUnknownPreset):
		return http.StatusNotFound
	case errors.Is(err, profile.ErrConfirmationRequired):
		return http.StatusPreconditionRequired
	case errors.Is(err, profile.ErrInvalidName),
		errors.Is(err, models.ErrInvalidBounds),
		errors.Is(err, models.ErrInvalidDeviceConfig),
		errors.Is(err, curve.ErrInvalidCurveLength),
		errors.Is(err, curve.ErrHourOutOfRange),
		errors.Is(err, curve.ErrIndexOutOfRange),
		errors.Is(err, seasonal.ErrDayIndexOutOfRange),
		errors.Is(err, models.ErrMonthOutOfRange),
		errors.Is(err, codec.ErrMalformedBuffer),
		errors.Is(err, editor.ErrPlotArea):
		return http.StatusBadRequest
	case errors.Is(err, profile.ErrNoWeatherSource):
		return http.StatusServiceUnavailable
	case errors.Is(err, errors.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.As(err, &partial), errors.As(err, &network):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	var partial *profile.PartialSaveError
	resp := errorResponse{Error: err.Error(), Partial: errors.As(err, &partial)}
	if status >= http.StatusInternalServerError {
		s.log.Warn("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, resp)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func intVar(r *http.Request, name string) int {
	// Route patterns only admit digits.
	n, _ := strconv.Atoi(mux.Vars(r)[name])
	return n
}

func queryInt(r *http.Request, name string, fallback int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

func (s *Server) publish(ctx context.Context, eventType string, day *int, message string) {
	name, _ := s.coord.Current()
	if err := s.events.Publish(ctx, events.New(eventType, name, day, message)); err != nil {
		s.log.Warn("event publish failed", zap.String("type", eventType), zap.Error(err))
	}
}
