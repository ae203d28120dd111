package updatemanager

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	outcomeAvailable    = "available"
	outcomeNotAvailable = "not_available"
	outcomeError        = "error"
	outcomeSuccess      = "success"
)

// Metrics records update cycle counters. A nil *Metrics records nothing.
type Metrics struct {
	checks        metric.Int64Counter
	downloads     metric.Int64Counter
	downloadBytes metric.Int64Counter
	installs      metric.Int64Counter
}

// NewMetrics registers the update manager instruments on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	checks, err := meter.Int64Counter("updater_checks_total",
		metric.WithDescription("Number of update checks by outcome"))
	if err != nil {
		return nil, err
	}

	downloads, err := meter.Int64Counter("updater_downloads_total",
		metric.WithDescription("Number of artifact downloads by outcome"))
	if err != nil {
		return nil, err
	}

	downloadBytes, err := meter.Int64Counter("updater_download_bytes_total",
		metric.WithUnit("By"),
		metric.WithDescription("Bytes of successfully downloaded artifacts"))
	if err != nil {
		return nil, err
	}

	installs, err := meter.Int64Counter("updater_installs_total",
		metric.WithDescription("Number of install attempts by outcome"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		checks:        checks,
		downloads:     downloads,
		downloadBytes: downloadBytes,
		installs:      installs,
	}, nil
}

func (m *Metrics) countCheck(ctx context.Context, outcome string, manual bool) {
	if m == nil {
		return
	}
	m.checks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.Bool("manual", manual),
	))
}

func (m *Metrics) countDownload(ctx context.Context, outcome string, size int) {
	if m == nil {
		return
	}
	m.downloads.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if size > 0 {
		m.downloadBytes.Add(ctx, int64(size))
	}
}

func (m *Metrics) countInstall(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.installs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
