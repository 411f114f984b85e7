package handler

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metrics counts cart mutations by operation name.
type metrics struct {
	cartOps metric.Int64Counter
}

func newMetrics(mp metric.MeterProvider) (*metrics, error) {
	meter := mp.Meter("github.com/kokoro-shop/storefront/internal/handler")
	cartOps, err := meter.Int64Counter("cart.operations",
		metric.WithDescription("Cart mutations served, by operation."),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create cart.operations counter")
	}
	return &metrics{cartOps: cartOps}, nil
}

func (m *metrics) record(ctx context.Context, op string) {
	m.cartOps.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
}
