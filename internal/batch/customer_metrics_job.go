package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"customer-api/internal/domain/customer"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var customersTotal = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "customers_total",
	Help: "Number of customer records currently stored.",
})

// CustomerMetricsJob periodically refreshes the customers_total gauge from
// the store so the metric survives restarts and out-of-band writes.
type CustomerMetricsJob struct {
	service customer.CustomerService
	logger  *slog.Logger
}

func NewCustomerMetricsJob(service customer.CustomerService, logger *slog.Logger) *CustomerMetricsJob {
	if service == nil || logger == nil {
		panic("CustomerMetricsJob dependencies cannot be nil")
	}
	return &CustomerMetricsJob{
		service: service,
		logger:  logger.With("job", "CustomerMetrics"),
	}
}

func (j *CustomerMetricsJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.DebugContext(ctx, "Refreshing customer count gauge.")

	customers, err := j.service.ListCustomers(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to list customers for metrics refresh", slog.Any("error", err))
		return fmt.Errorf("cannot refresh customer metrics: %w", err)
	}

	customersTotal.Set(float64(len(customers)))
	j.logger.InfoContext(ctx, "Customer count gauge refreshed.",
		slog.Int("count", len(customers)),
		slog.Duration("duration", time.Since(startTime)))
	return nil
}
