package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kbgateway/kbgateway/api/handlers"
	"github.com/kbgateway/kbgateway/archive"
	"github.com/kbgateway/kbgateway/backend/graph"
	"github.com/kbgateway/kbgateway/backend/mcp"
	"github.com/kbgateway/kbgateway/backend/vector"
	"github.com/kbgateway/kbgateway/config"
	"github.com/kbgateway/kbgateway/confidence"
	"github.com/kbgateway/kbgateway/conversation"
	"github.com/kbgateway/kbgateway/fallback"
	"github.com/kbgateway/kbgateway/health"
	"github.com/kbgateway/kbgateway/internal/metrics"
	intserver "github.com/kbgateway/kbgateway/internal/server"
	"github.com/kbgateway/kbgateway/internal/telemetry"
	"github.com/kbgateway/kbgateway/orchestrator"
	"github.com/kbgateway/kbgateway/store"
)

// Server owns every long-lived component of a running gateway: the backend
// adapters, the fallback chains, the orchestrator/conversation pair, the
// Health & Recovery Monitor, the Confidence Metering tuner, and the two
// internal/server.Manager instances (the HTTP edge and the metrics server).
type Server struct {
	cfg        *config.Config
	configPath string
	logger     *zap.Logger

	store store.Store

	httpManager    *intserver.Manager
	metricsManager *intserver.Manager
	metricsCollector *metrics.Collector
	telemetry      *telemetry.Providers
	healthMonitor  *health.Monitor
	tuner          *confidence.Tuner
	tunerStop      chan struct{}
	tunerDone      chan struct{}

	archive     *archive.Archive
	archiveStop chan struct{}
	archiveDone chan struct{}
}

// tunerInterval is how often the Confidence Metering tuner re-evaluates
// recent feedback. The tuner's own lookback window (confidence.Window) is
// a week, so re-proposing more often than this buys nothing.
const tunerInterval = 6 * time.Hour

// archiveDrainInterval is how often QueryMetrics are copied from the KV
// store into the durable archive, well inside the KV store's 7-day TTL.
const archiveDrainInterval = 1 * time.Hour

// NewServer creates a Server from a loaded config. It does not start
// anything; call Start.
func NewServer(cfg *config.Config, configPath string, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, configPath: configPath, logger: logger}
}

// Start wires every component and begins serving.
func (s *Server) Start(ctx context.Context) error {
	st, err := s.newStore()
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	s.store = st

	embeddingChain, err := newEmbeddingChain(s.cfg.Embedding, s.logger)
	if err != nil {
		return fmt.Errorf("init embedding chain: %w", err)
	}
	synthesisChain, err := newSynthesisChain(s.cfg.Synthesis, s.logger)
	if err != nil {
		return fmt.Errorf("init synthesis chain: %w", err)
	}

	semantic, structural, services := s.newBackends()

	orch := orchestrator.New(embeddingChain, synthesisChain, semantic, structural, st, orchestrator.DefaultConfig(), s.logger)
	ctrl := conversation.New(st, orch, s.logger)
	orch.SetController(ctrl)

	s.healthMonitor = health.New(services, health.Config{
		Interval:     30 * time.Second,
		ProbeTimeout: 10 * time.Second,
	}, st, s.logger)
	s.healthMonitor.Start(ctx)

	s.tuner = confidence.NewTuner(st, s.logger)
	s.tunerStop = make(chan struct{})
	s.tunerDone = make(chan struct{})
	go s.runTunerLoop(orch)

	if s.cfg.Archive.Driver != "" {
		ar, err := archive.Open(s.cfg.Archive, s.logger)
		if err != nil {
			s.logger.Warn("metrics archive unavailable, feedback older than the KV TTL will not be retained", zap.Error(err))
		} else {
			s.archive = ar
			s.archiveStop = make(chan struct{})
			s.archiveDone = make(chan struct{})
			go s.runArchiveLoop(st)
		}
	}

	s.metricsCollector = metrics.NewCollector("kbgateway", s.logger)

	tp, err := telemetry.Init(s.cfg.Telemetry, s.logger)
	if err != nil {
		s.healthMonitor.Stop()
		return fmt.Errorf("init telemetry: %w", err)
	}
	s.telemetry = tp

	mux := s.newMux(orch, ctrl, st, embeddingChain, synthesisChain)
	chain := s.newMiddlewareChain(ctx, mux)

	s.httpManager = intserver.NewManager(chain, intserver.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}, s.logger)
	if err := s.httpManager.Start(); err != nil {
		s.healthMonitor.Stop()
		return fmt.Errorf("start http server: %w", err)
	}

	s.metricsManager = intserver.NewManager(s.newMetricsMux(), intserver.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}, s.logger)
	if err := s.metricsManager.Start(); err != nil {
		s.healthMonitor.Stop()
		return fmt.Errorf("start metrics server: %w", err)
	}

	s.logger.Info("kbgateway started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
	)
	return nil
}

func (s *Server) newStore() (store.Store, error) {
	redisStore, err := store.NewRedisStore(store.RedisConfig{
		Addr:         s.cfg.KV.Addr(),
		Password:     s.cfg.KV.Password,
		DB:           s.cfg.KV.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		PingTimeout:  5 * time.Second,
	})
	if err != nil {
		s.logger.Warn("redis unavailable, falling back to in-memory store", zap.Error(err))
		return store.NewMemoryStore(), nil
	}
	return store.NewSwitchingStore(redisStore, s.logger), nil
}

func newEmbeddingChain(cfg config.ChainConfig, logger *zap.Logger) (*fallback.EmbeddingChain, error) {
	return fallback.NewEmbeddingChain(toProviderConfigs(cfg.Providers), cfg.Dimensions, fallback.DefaultBreakerConfig(), logger)
}

func newSynthesisChain(cfg config.ChainConfig, logger *zap.Logger) (*fallback.SynthesisChain, error) {
	return fallback.NewSynthesisChain(toProviderConfigs(cfg.Providers), fallback.DefaultBreakerConfig(), logger)
}

func toProviderConfigs(entries []config.ProviderEntryConfig) []fallback.ProviderConfig {
	out := make([]fallback.ProviderConfig, 0, len(entries))
	for _, e := range entries {
		out = append(out, fallback.ProviderConfig{
			ID:      e.ID,
			Name:    e.Name,
			Kind:    fallback.Kind(e.Kind),
			BaseURL: e.BaseURL,
			Model:   e.Model,
			APIKey:  e.APIKey,
			Timeout: e.Timeout,
		})
	}
	return out
}

// newBackends picks Qdrant/Neo4j when configured, and falls back to the
// in-process MCP fixture backend (empty tables) otherwise — the
// local-dev/test swap-in named in Design Notes §9.
func (s *Server) newBackends() (orchestrator.SemanticBackend, orchestrator.StructuralBackend, []health.ServiceConfig) {
	var (
		semantic   orchestrator.SemanticBackend
		structural orchestrator.StructuralBackend
		services   []health.ServiceConfig
	)

	if s.cfg.Vector.URL != "" {
		vs := vector.New(vector.Config{
			BaseURL:    s.cfg.Vector.URL,
			Collection: s.cfg.Vector.Collection,
			APIKey:     s.cfg.Vector.APIKey,
			Timeout:    s.cfg.Vector.Timeout,
			TopK:       s.cfg.Vector.TopK,
		}, s.logger)
		semantic = vs
		services = append(services, health.ServiceConfig{
			Name:  "vector",
			Probe: func(ctx context.Context) health.ProbeResult { return probeAsHealth(vs.Probe, ctx) },
		})
	}

	if s.cfg.Graph.URI != "" {
		gs, err := graph.New(graph.Config{
			URI:      s.cfg.Graph.URI,
			Username: s.cfg.Graph.Username,
			Password: s.cfg.Graph.Password,
			Database: s.cfg.Graph.Database,
			Timeout:  s.cfg.Graph.Timeout,
			Limit:    s.cfg.Graph.Limit,
		}, s.logger)
		if err != nil {
			s.logger.Warn("graph backend unavailable, using in-process fixtures", zap.Error(err))
		} else {
			structural = gs
			services = append(services, health.ServiceConfig{
				Name:  "graph",
				Probe: func(ctx context.Context) health.ProbeResult { return probeAsHealth(gs.Probe, ctx) },
			})
		}
	}

	if semantic == nil || structural == nil {
		mcpBackend := mcp.New(nil, nil)
		if semantic == nil {
			semantic = mcpBackend.AsSemantic()
		}
		if structural == nil {
			structural = mcpBackend.AsStructural()
		}
	}

	return semantic, structural, services
}

// runTunerLoop periodically asks the Confidence Metering tuner to evaluate
// recent feedback against the orchestrator's live weights. A proposal that
// clears the tuner's own confidence bar is applied immediately; otherwise
// the tuner has already written a Recommendation for human review.
func (s *Server) runTunerLoop(orch *orchestrator.Orchestrator) {
	defer close(s.tunerDone)
	ticker := time.NewTicker(tunerInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.tunerStop:
			return
		case <-ticker.C:
			current := orch.ConfidenceConfig()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			next, applied, err := s.tuner.Propose(ctx, current)
			cancel()
			if err != nil {
				s.logger.Warn("confidence tuner proposal failed", zap.Error(err))
				continue
			}
			if applied {
				orch.SetConfidenceConfig(next)
				s.logger.Info("confidence weights updated", zap.Int("version", next.Version))
			}
		}
	}
}

// runArchiveLoop periodically copies recent QueryMetrics out of the KV
// store into the durable archive, so operators can inspect feedback history
// past the store's TTL. Failures are logged and retried on the next tick;
// they never affect request serving.
func (s *Server) runArchiveLoop(st store.Store) {
	defer close(s.archiveDone)
	ticker := time.NewTicker(archiveDrainInterval)
	defer ticker.Stop()
	since := time.Now().Add(-archiveDrainInterval)
	for {
		select {
		case <-s.archiveStop:
			return
		case tick := <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			drained, err := s.archive.Drain(ctx, st, since)
			cancel()
			if err != nil {
				s.logger.Warn("archive drain failed", zap.Error(err))
				continue
			}
			s.logger.Debug("archived query metrics", zap.Int("count", drained))
			since = tick
		}
	}
}

func probeAsHealth(probe func(ctx context.Context) error, ctx context.Context) health.ProbeResult {
	start := time.Now()
	err := probe(ctx)
	result := health.ProbeResult{Latency: time.Since(start), Status: health.StatusHealthy}
	if err != nil {
		result.Status = health.StatusUnhealthy
		result.Err = err
	}
	return result
}

func (s *Server) newMux(orch *orchestrator.Orchestrator, ctrl *conversation.Controller, st store.Store, embedding *fallback.EmbeddingChain, synthesis *fallback.SynthesisChain) *http.ServeMux {
	mux := http.NewServeMux()

	queryHandler := handlers.NewQueryHandler(orch, st, s.logger)
	convHandler := handlers.NewConversationHandler(ctrl, st, s.logger)
	feedbackHandler := handlers.NewFeedbackHandler(st, s.logger)
	projectsHandler := handlers.NewProjectsHandler(st, s.logger)
	queueHandler := handlers.NewQueueHandler(st, embedding, synthesis, s.healthMonitor, s.logger)
	backendHealthHandler := handlers.NewBackendHealthHandler(s.healthMonitor, s.logger)
	opsHealthHandler := handlers.NewHealthHandler(s.logger)
	streamHandler := handlers.NewStreamHandler(orch, s.logger)

	mux.HandleFunc("/query", queryHandler.HandleQuery)
	mux.Handle("/query/stream", streamHandler)
	mux.HandleFunc("/conversation", convHandler.HandleStart)
	mux.HandleFunc("/conversation/{id}/continue", func(w http.ResponseWriter, r *http.Request) {
		convHandler.HandleContinue(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("/conversation/{id}", func(w http.ResponseWriter, r *http.Request) {
		convHandler.HandleAbort(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("/feedback", feedbackHandler.HandleFeedback)
	mux.HandleFunc("/projects", projectsHandler.HandleList)
	mux.HandleFunc("/queue/stats", queueHandler.HandleStats)
	mux.HandleFunc("/health", backendHealthHandler.HandleHealth)
	mux.HandleFunc("/healthz", opsHealthHandler.HandleHealthz)
	mux.HandleFunc("/ready", opsHealthHandler.HandleReady)
	mux.HandleFunc("/version", opsHealthHandler.HandleVersion(version, buildTime, gitCommit))

	return mux
}

func (s *Server) newMetricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) newMiddlewareChain(ctx context.Context, mux *http.ServeMux) http.Handler {
	skipAuth := []string{"/health", "/healthz", "/ready", "/version"}
	return Chain(mux,
		Recovery(s.logger),
		RequestLogger(s.logger),
		MetricsMiddleware(s.metricsCollector),
		OTelTracing(),
		RequestID(),
		SecurityHeaders(),
		RateLimiter(ctx, s.cfg.RateLimit.RPS(), s.cfg.RateLimit.Burst(), s.logger),
		JWTAuth(s.cfg.Admin, "/queue/stats", s.logger),
		AdminAPIKeyAuth(s.cfg.APIKey, skipAuth, s.logger),
	)
}

// Shutdown gracefully stops every component, in reverse startup order.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.tunerStop != nil {
		close(s.tunerStop)
		<-s.tunerDone
	}
	if s.archiveStop != nil {
		close(s.archiveStop)
		<-s.archiveDone
	}
	if s.healthMonitor != nil {
		s.healthMonitor.Stop()
	}
	var firstErr error
	if s.archive != nil {
		if err := s.archive.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.telemetry != nil {
		if err := s.telemetry.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WaitForShutdown blocks until the HTTP manager's listener loop exits.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
}
