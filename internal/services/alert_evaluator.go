package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"alert-center/internal/models"

	"github.com/google/uuid"
)

// AlertEvaluator polls configured MetricProbes against their
// Prometheus/VictoriaMetrics DataSource and feeds any breach directly
// into AlertEngine.Process, in place of the teacher's
// threshold-evaluation-into-AlertHistory pipeline (see DESIGN.md).
type AlertEvaluator struct {
	engine      *AlertEngine
	promClients map[string]*PrometheusClient
	vmClients   map[string]*VictoriaMetricsClient
	mu          sync.RWMutex
	interval    time.Duration
}

func NewAlertEvaluator(engine *AlertEngine, checkInterval time.Duration) *AlertEvaluator {
	return &AlertEvaluator{
		engine:      engine,
		promClients: make(map[string]*PrometheusClient),
		vmClients:   make(map[string]*VictoriaMetricsClient),
		interval:    checkInterval,
	}
}

func (e *AlertEvaluator) RegisterDataSource(ds models.DataSource) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch ds.Type {
	case "prometheus":
		e.promClients[ds.ID.String()] = NewPrometheusClient(ds.Endpoint)
	case "victoria-metrics":
		e.vmClients[ds.ID.String()] = NewVictoriaMetricsClient(ds.Endpoint)
	}
}

func (e *AlertEvaluator) UnregisterDataSource(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.promClients, id.String())
	delete(e.vmClients, id.String())
}

// Start runs one evaluation pass per probe on a fixed ticker until ctx
// is cancelled, mirroring the teacher's worker ticker idiom.
func (e *AlertEvaluator) Start(ctx context.Context, probes []models.MetricProbe, dataSourceByID map[uuid.UUID]models.DataSource) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, p := range probes {
				if !p.Enabled {
					continue
				}
				ds, ok := dataSourceByID[p.DataSourceID]
				if !ok {
					continue
				}
				if err := e.evaluateProbe(ctx, p, ds); err != nil {
					log.Printf("alert_evaluator: probe %s: %v", p.Name, err)
				}
			}
		}
	}
}

func (e *AlertEvaluator) evaluateProbe(ctx context.Context, p models.MetricProbe, ds models.DataSource) error {
	e.mu.RLock()
	client := e.promClients[ds.ID.String()]
	e.mu.RUnlock()
	if client == nil {
		client = NewPrometheusClient(ds.Endpoint)
	}

	results, err := client.Query(ctx, p.Expression, "")
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	for _, result := range results {
		if result.Value.Value <= p.Threshold {
			continue
		}
		incoming := &models.Alert{
			Environment: p.Environment,
			Resource:    p.Resource,
			Event:       p.Event,
			Severity:    models.Severity(p.Severity),
			Service:     p.Service,
			Value:       fmt.Sprintf("%g", result.Value.Value),
			Origin:      "metric-probe/" + p.Name,
			Type:        "metricAlert",
			RawData:     models.GenerateFingerprint(result.Metric),
		}
		if _, err := e.engine.Process(ctx, incoming); err != nil {
			return fmt.Errorf("process: %w", err)
		}
	}
	return nil
}
