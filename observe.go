package retrieve

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// sdkMetrics holds prometheus metrics registered for the retriever.
type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatnoir",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Total retriever operations by type and status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chatnoir",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "Retriever operation duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 1800},
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or adopts an identical one already registered.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("retrieve: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("retrieve: register metric: %w", err)
	}
	return nil
}

// observer records per-operation metrics and log lines.
type observer struct {
	logger  *zap.Logger
	metrics *sdkMetrics
}

func newObserver(logger *zap.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

func (o *observer) observe(op string, start time.Time, rows int, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.operations.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}

	if o.logger == nil {
		return
	}
	if err != nil {
		o.logger.Warn("operation failed",
			zap.String("op", op),
			zap.Duration("duration", dur),
			zap.Error(err),
		)
		return
	}
	o.logger.Debug("operation completed",
		zap.String("op", op),
		zap.Int("rows", rows),
		zap.Duration("duration", dur),
	)
}
