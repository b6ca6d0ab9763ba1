package gate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/specgate/artifact"
	"github.com/c360studio/specgate/config"
	"github.com/c360studio/specgate/report"
)

// AnalyzeRequest is the payload the gate service answers on the configured
// subject. A missing request_id is assigned a UUID.
type AnalyzeRequest struct {
	// RequestID correlates request and response
	RequestID string `json:"request_id,omitempty"`

	// ArtifactDir is the directory holding the four artifacts
	ArtifactDir string `json:"artifact_dir"`

	// Threshold optionally overrides the configured coverage threshold
	Threshold *int `json:"threshold,omitempty"`
}

// Validate checks the request is well-formed.
func (r *AnalyzeRequest) Validate() error {
	if r.ArtifactDir == "" {
		return fmt.Errorf("artifact_dir is required")
	}
	if r.Threshold != nil && (*r.Threshold < 0 || *r.Threshold > 100) {
		return fmt.Errorf("threshold must be between 0 and 100")
	}
	return nil
}

// AnalyzeResponse is the gate service reply: either a report or a single
// precise reason the analysis could not begin.
type AnalyzeResponse struct {
	RequestID string         `json:"request_id"`
	Report    *report.Report `json:"report,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// serviceMetrics holds the Prometheus instruments for serve mode.
type serviceMetrics struct {
	registry *prometheus.Registry
	runs     *prometheus.CounterVec
	issues   *prometheus.CounterVec
	duration prometheus.Histogram
}

func newServiceMetrics() *serviceMetrics {
	m := &serviceMetrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "specgate_runs_total",
			Help: "Analysis runs by verdict (pass, fail, error).",
		}, []string{"verdict"}),
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "specgate_issues_total",
			Help: "Issues emitted, by severity.",
		}, []string{"severity"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "specgate_run_duration_seconds",
			Help:    "Analysis run duration.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(m.runs, m.issues, m.duration)
	return m
}

func (m *serviceMetrics) observe(rep *report.Report, elapsed time.Duration, err error) {
	m.duration.Observe(elapsed.Seconds())
	if err != nil {
		m.runs.WithLabelValues("error").Inc()
		return
	}
	if rep.Verdict == report.VerdictPass {
		m.runs.WithLabelValues("pass").Inc()
	} else {
		m.runs.WithLabelValues("fail").Inc()
	}
	for _, issue := range rep.Issues {
		m.issues.WithLabelValues(string(issue.Severity)).Inc()
	}
}

// Service answers analysis requests over NATS and exposes Prometheus
// metrics. Each request constructs a fresh analysis run.
type Service struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *serviceMetrics

	nc      *nats.Conn
	sub     *nats.Subscription
	httpSrv *http.Server
}

// NewService creates a gate service with the given configuration.
func NewService(cfg *config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:     cfg,
		logger:  logger,
		metrics: newServiceMetrics(),
	}
}

// Start connects to NATS, subscribes on the configured subject (queue
// group balanced), and starts the metrics endpoint if enabled.
func (s *Service) Start(ctx context.Context) error {
	nc, err := nats.Connect(s.cfg.NATS.URL,
		nats.Name("specgate"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return fmt.Errorf("connect to NATS at %s: %w", s.cfg.NATS.URL, err)
	}
	s.nc = nc

	sub, err := nc.QueueSubscribe(s.cfg.NATS.Subject, s.cfg.NATS.Queue, func(msg *nats.Msg) {
		s.handle(ctx, msg)
	})
	if err != nil {
		nc.Close()
		return fmt.Errorf("subscribe %s: %w", s.cfg.NATS.Subject, err)
	}
	s.sub = sub

	s.logger.Info("Gate service listening",
		slog.String("url", s.cfg.NATS.URL),
		slog.String("subject", s.cfg.NATS.Subject),
		slog.String("queue", s.cfg.NATS.Queue))

	if s.cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
		s.httpSrv = &http.Server{
			Addr:              s.cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			s.logger.Info("Metrics endpoint listening", slog.String("addr", s.cfg.Metrics.Addr))
			if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("Metrics server failed", slog.String("error", err.Error()))
			}
		}()
	}

	return nil
}

// Stop drains the subscription and shuts everything down.
func (s *Service) Stop(ctx context.Context) error {
	var firstErr error

	if s.sub != nil {
		if err := s.sub.Drain(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.nc != nil {
		s.nc.Close()
	}
	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	s.logger.Info("Gate service stopped")
	return firstErr
}

// handle answers a single analysis request.
func (s *Service) handle(ctx context.Context, msg *nats.Msg) {
	start := time.Now()

	var req AnalyzeRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respond(msg, AnalyzeResponse{
			RequestID: uuid.New().String(),
			Error:     fmt.Sprintf("invalid request: %v", err),
		})
		s.metrics.runs.WithLabelValues("error").Inc()
		return
	}
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	if err := req.Validate(); err != nil {
		s.respond(msg, AnalyzeResponse{RequestID: req.RequestID, Error: err.Error()})
		s.metrics.runs.WithLabelValues("error").Inc()
		return
	}

	cfg := *s.cfg
	if req.Threshold != nil {
		cfg.Rules.CoverageThreshold = *req.Threshold
	}

	rep, err := NewRunner(&cfg, s.logger).Run(ctx, req.ArtifactDir)
	s.metrics.observe(rep, time.Since(start), err)

	if err != nil {
		resp := AnalyzeResponse{RequestID: req.RequestID, Error: err.Error()}
		var parseErr *artifact.ParseError
		if errors.As(err, &parseErr) {
			resp.Error = parseErr.Error()
		}
		s.respond(msg, resp)
		return
	}

	s.respond(msg, AnalyzeResponse{RequestID: req.RequestID, Report: rep})
}

func (s *Service) respond(msg *nats.Msg, resp AnalyzeResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("Failed to marshal response", slog.String("error", err.Error()))
		return
	}
	if err := msg.Respond(data); err != nil {
		s.logger.Error("Failed to respond", slog.String("error", err.Error()))
	}
}
