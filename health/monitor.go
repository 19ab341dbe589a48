package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kbgateway/kbgateway/store"
)

// Status is an aggregated or per-service health status.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// ProbeResult is what a custom probe closure reports.
type ProbeResult struct {
	Status     Status
	HTTPStatus int
	Latency    time.Duration
	Err        error
}

// ServiceConfig describes one monitored dependency. Either URL or Probe must
// be set; Probe takes precedence when both are present.
type ServiceConfig struct {
	Name                     string
	URL                      string
	Probe                    func(ctx context.Context) ProbeResult
	LatencyCriticalThreshold time.Duration
}

// ServiceRecord is the monitor's per-service health record.
type ServiceRecord struct {
	Name              string    `json:"name"`
	Status            Status    `json:"status"`
	ConsecutiveFailed int       `json:"consecutive_failed"`
	LastLatency       time.Duration `json:"last_latency"`
	LastHTTPStatus    int       `json:"last_http_status,omitempty"`
	LastError         string    `json:"last_error,omitempty"`
	LastChecked       time.Time `json:"last_checked"`
}

const (
	alertThreshold    = 3
	recoveryThreshold = 5
)

// Config controls the monitor's polling behavior.
type Config struct {
	Interval   time.Duration
	ProbeTimeout time.Duration
	OnAlert    func(services []ServiceRecord)
	OnRecovery func(services []ServiceRecord)
}

// DefaultConfig returns the monitor's default polling interval (30s).
func DefaultConfig() Config {
	return Config{Interval: 30 * time.Second, ProbeTimeout: 5 * time.Second}
}

// Monitor polls every configured service on a fixed interval and aggregates
// their status. History is written through to the Persistent State Store
// under "monitoring:health:history:<ts>" and kept for up to one hour.
type Monitor struct {
	cfg      Config
	services []ServiceConfig
	client   *http.Client
	store    store.Store
	logger   *zap.Logger

	mu      sync.RWMutex
	records map[string]*ServiceRecord

	stop chan struct{}
	wg   sync.WaitGroup
}

// New creates a Monitor over the given services.
func New(services []ServiceConfig, cfg Config, st store.Store, logger *zap.Logger) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	records := make(map[string]*ServiceRecord, len(services))
	for _, svc := range services {
		records[svc.Name] = &ServiceRecord{Name: svc.Name, Status: StatusHealthy}
	}
	return &Monitor{
		cfg:      cfg,
		services: services,
		client:   &http.Client{Timeout: cfg.ProbeTimeout},
		store:    st,
		logger:   logger,
		records:  records,
		stop:     make(chan struct{}),
	}
}

// Start launches the polling loop in a background goroutine. It returns
// immediately; call Stop to terminate the loop.
func (m *Monitor) Start(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.cfg.Interval)
		defer ticker.Stop()
		m.pollAll(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			case <-ticker.C:
				m.pollAll(ctx)
			}
		}
	}()
}

// Stop terminates the polling loop and waits for it to exit.
func (m *Monitor) Stop() {
	close(m.stop)
	m.wg.Wait()
}

func (m *Monitor) pollAll(ctx context.Context) {
	var alerted, recovered []ServiceRecord
	for _, svc := range m.services {
		result := m.probe(ctx, svc)
		rec := m.applyResult(svc, result)

		switch {
		case rec.ConsecutiveFailed == alertThreshold:
			alerted = append(alerted, *rec)
		case rec.ConsecutiveFailed == recoveryThreshold:
			// Sustained failure past the recovery threshold: escalate as a
			// forced-recovery signal so an operator or controller can reset
			// dependent circuit breakers.
			recovered = append(recovered, *rec)
		case rec.ConsecutiveFailed == 0 && result.Err == nil:
			// no-op on steady-state success; transition-to-recovered handled below
		}
	}

	if len(alerted) > 0 && m.cfg.OnAlert != nil {
		m.cfg.OnAlert(alerted)
	}
	if len(recovered) > 0 && m.cfg.OnRecovery != nil {
		m.cfg.OnRecovery(recovered)
	}

	m.writeHistory(ctx)
}

func (m *Monitor) probe(ctx context.Context, svc ServiceConfig) ProbeResult {
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
	defer cancel()

	if svc.Probe != nil {
		return svc.Probe(probeCtx)
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, svc.URL, nil)
	if err != nil {
		return ProbeResult{Status: StatusUnhealthy, Err: err, Latency: time.Since(start)}
	}
	resp, err := m.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return ProbeResult{Status: StatusUnhealthy, Err: err, Latency: latency}
	}
	defer resp.Body.Close()

	status := StatusUnhealthy
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		status = StatusHealthy
	case resp.StatusCode == http.StatusMultiStatus:
		status = StatusDegraded
	}
	return ProbeResult{Status: status, HTTPStatus: resp.StatusCode, Latency: latency}
}

func (m *Monitor) applyResult(svc ServiceConfig, result ProbeResult) *ServiceRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.records[svc.Name]
	rec.LastChecked = time.Now()
	rec.LastLatency = result.Latency
	rec.LastHTTPStatus = result.HTTPStatus

	failed := result.Err != nil || result.Status == StatusUnhealthy
	if failed {
		rec.ConsecutiveFailed++
		if result.Err != nil {
			rec.LastError = result.Err.Error()
		}
		rec.Status = StatusUnhealthy
	} else {
		rec.ConsecutiveFailed = 0
		rec.LastError = ""
		rec.Status = result.Status
	}

	if svc.LatencyCriticalThreshold > 0 && result.Latency >= svc.LatencyCriticalThreshold {
		if rec.Status == StatusHealthy {
			rec.Status = StatusDegraded
		}
	}

	return rec
}

// Aggregate returns the overall status and a snapshot of every service
// record. Overall is healthy iff all services are healthy, unhealthy if any
// is unhealthy, degraded otherwise.
func (m *Monitor) Aggregate() (Status, []ServiceRecord) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	overall := StatusHealthy
	records := make([]ServiceRecord, 0, len(m.records))
	for _, rec := range m.records {
		records = append(records, *rec)
		switch rec.Status {
		case StatusUnhealthy:
			overall = StatusUnhealthy
		case StatusDegraded:
			if overall != StatusUnhealthy {
				overall = StatusDegraded
			}
		}
	}
	return overall, records
}

// HTTPStatusFor maps an aggregated status to the HTTP status code
// GET /health should respond with.
func HTTPStatusFor(s Status) int {
	switch s {
	case StatusHealthy:
		return http.StatusOK
	case StatusDegraded:
		return http.StatusMultiStatus
	default:
		return http.StatusServiceUnavailable
	}
}

func (m *Monitor) writeHistory(ctx context.Context) {
	if m.store == nil {
		return
	}
	overall, records := m.Aggregate()
	entry := struct {
		Timestamp time.Time       `json:"timestamp"`
		Overall   Status          `json:"overall"`
		Services  []ServiceRecord `json:"services"`
	}{Timestamp: time.Now(), Overall: overall, Services: records}

	payload, err := json.Marshal(entry)
	if err != nil {
		m.logger.Warn("failed to marshal health history entry", zap.Error(err))
		return
	}
	key := store.HealthHistoryKeyPrefix + entry.Timestamp.Format(time.RFC3339Nano)
	if err := m.store.Save(ctx, key, payload, time.Hour); err != nil {
		m.logger.Warn("failed to write health history entry", zap.Error(err))
	}
}
