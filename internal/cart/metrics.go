package cart

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const metricNamespace = "github.com/Rahdeg/alt-commmerce/internal/cart"

// Operation names recorded on cart metrics.
const (
	opAdd         = "add"
	opRemove      = "remove"
	opSetQuantity = "set_quantity"
	opUpdate      = "update"
)

// Mutation outcomes.
const (
	outcomeChanged   = "changed"
	outcomeUnchanged = "unchanged"
	outcomeError     = "error"
)

type instruments struct {
	mutations metric.Int64Counter
	latency   metric.Float64Histogram
}

func newInstruments(meter metric.Meter, logger *zap.Logger) instruments {
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(metricNamespace)
	}
	var ins instruments

	mutations, err := meter.Int64Counter(
		"cart.mutations",
		metric.WithDescription("Count of cart mutations by operation and outcome"),
	)
	if err != nil {
		logger.Warn("cart: unable to register mutation metric", zap.Error(err))
	} else {
		ins.mutations = mutations
	}

	latency, err := meter.Float64Histogram(
		"cart.storage.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency in milliseconds of cart read-modify-write round trips against storage"),
	)
	if err != nil {
		logger.Warn("cart: unable to register storage latency metric", zap.Error(err))
	} else {
		ins.latency = latency
	}
	return ins
}

func (i instruments) record(ctx context.Context, op, outcome string, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	)
	if i.mutations != nil {
		i.mutations.Add(ctx, 1, attrs)
	}
	if i.latency != nil {
		i.latency.Record(ctx, float64(d)/float64(time.Millisecond), attrs)
	}
}

func outcomeOf(changed bool, err error) string {
	switch {
	case err != nil:
		return outcomeError
	case changed:
		return outcomeChanged
	default:
		return outcomeUnchanged
	}
}
