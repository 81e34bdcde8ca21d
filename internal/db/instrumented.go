package db

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/coursedex/internal/metrics"
)

// Compile-time check: InstrumentedEngine implements Engine.
var _ Engine = (*InstrumentedEngine)(nil)

// InstrumentedEngine wraps an Engine with request metrics and debug logging.
type InstrumentedEngine struct {
	inner  Engine
	logger *zap.Logger
}

// NewInstrumentedEngine wraps an engine with observability.
func NewInstrumentedEngine(inner Engine, logger *zap.Logger) *InstrumentedEngine {
	return &InstrumentedEngine{inner: inner, logger: logger}
}

// Ping delegates without instrumentation; health checks are polled often.
func (e *InstrumentedEngine) Ping(ctx context.Context) error {
	return e.inner.Ping(ctx) //nolint:wrapcheck // transparent decorator
}

// WaitForReady delegates to the inner engine.
func (e *InstrumentedEngine) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return e.inner.WaitForReady(ctx, timeout) //nolint:wrapcheck // transparent decorator
}

// IndexExists delegates and records the request.
func (e *InstrumentedEngine) IndexExists(ctx context.Context, name string) (bool, error) {
	start := time.Now()
	ok, err := e.inner.IndexExists(ctx, name)
	e.observe(OpIndexExists, start, err, zap.String("index", name))
	return ok, err //nolint:wrapcheck // transparent decorator
}

// CreateIndex delegates and records the request.
func (e *InstrumentedEngine) CreateIndex(ctx context.Context, def *IndexDefinition) error {
	start := time.Now()
	err := e.inner.CreateIndex(ctx, def)
	e.observe(OpCreateIndex, start, err, zap.String("index", def.Name))
	return err //nolint:wrapcheck // transparent decorator
}

// Bulk delegates and records the request.
func (e *InstrumentedEngine) Bulk(ctx context.Context, index string, items []BulkItem) ([]BulkItemError, error) {
	start := time.Now()
	failed, err := e.inner.Bulk(ctx, index, items)
	e.observe(OpBulk, start, err,
		zap.String("index", index),
		zap.Int("items", len(items)),
		zap.Int("rejected", len(failed)),
	)
	return failed, err //nolint:wrapcheck // transparent decorator
}

// Search delegates and records the request.
func (e *InstrumentedEngine) Search(ctx context.Context, index string, body []byte) (*SearchResult, error) {
	start := time.Now()
	res, err := e.inner.Search(ctx, index, body)
	fields := []zap.Field{zap.String("index", index)}
	if res != nil {
		fields = append(fields, zap.Int("hits", len(res.Hits)), zap.Int("total", res.Total))
	}
	e.observe(OpSearch, start, err, fields...)
	return res, err //nolint:wrapcheck // transparent decorator
}

func (e *InstrumentedEngine) observe(op string, start time.Time, err error, fields ...zap.Field) {
	duration := time.Since(start)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.EngineRequestsTotal.WithLabelValues(op, status).Inc()
	metrics.EngineRequestDuration.WithLabelValues(op).Observe(duration.Seconds())

	fields = append(fields, zap.String("op", op), zap.Duration("duration", duration))
	if err != nil {
		e.logger.Warn("Engine request failed", append(fields, zap.Error(err))...)
		return
	}
	e.logger.Debug("Engine request completed", fields...)
}
