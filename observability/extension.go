// Package observability provides a metrics extension for a fungible ledger
// that records event counts via go-utils MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/fungible/event"
	"github.com/xraph/fungible/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnTransfer             = (*MetricsExtension)(nil)
	_ plugin.OnApproval             = (*MetricsExtension)(nil)
	_ plugin.OnMint                 = (*MetricsExtension)(nil)
	_ plugin.OnBurn                 = (*MetricsExtension)(nil)
	_ plugin.OnOwnershipTransferred = (*MetricsExtension)(nil)
	_ plugin.OnEventsFlushed        = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records ledger activity metrics.
// Register it as a ledger plugin to track them automatically.
type MetricsExtension struct {
	factory MetricFactory

	// Balance metrics
	TransferRecorded Counter
	ApprovalRecorded Counter

	// Supply metrics
	MintRecorded Counter
	BurnRecorded Counter

	// Access metrics
	OwnershipTransferred Counter

	// Delivery metrics
	EventsFlushed  Counter
	FlushBatchSize Histogram
	FlushLatency   Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		TransferRecorded: factory.Counter("fungible.transfer.recorded"),
		ApprovalRecorded: factory.Counter("fungible.approval.recorded"),

		MintRecorded: factory.Counter("fungible.mint.recorded"),
		BurnRecorded: factory.Counter("fungible.burn.recorded"),

		OwnershipTransferred: factory.Counter("fungible.ownership.transferred"),

		EventsFlushed:  factory.Counter("fungible.events.flushed"),
		FlushBatchSize: factory.Histogram("fungible.flush.batch_size"),
		FlushLatency:   factory.Histogram("fungible.flush.latency_ms"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnTransfer implements plugin.OnTransfer.
func (m *MetricsExtension) OnTransfer(_ context.Context, _ *event.Event) error {
	m.TransferRecorded.Inc()
	return nil
}

// OnApproval implements plugin.OnApproval.
func (m *MetricsExtension) OnApproval(_ context.Context, _ *event.Event) error {
	m.ApprovalRecorded.Inc()
	return nil
}

// OnMint implements plugin.OnMint.
func (m *MetricsExtension) OnMint(_ context.Context, _ *event.Event) error {
	m.MintRecorded.Inc()
	return nil
}

// OnBurn implements plugin.OnBurn.
func (m *MetricsExtension) OnBurn(_ context.Context, _ *event.Event) error {
	m.BurnRecorded.Inc()
	return nil
}

// OnOwnershipTransferred implements plugin.OnOwnershipTransferred.
func (m *MetricsExtension) OnOwnershipTransferred(_ context.Context, _ *event.Event) error {
	m.OwnershipTransferred.Inc()
	return nil
}

// OnEventsFlushed implements plugin.OnEventsFlushed.
func (m *MetricsExtension) OnEventsFlushed(_ context.Context, count int, elapsed time.Duration) error {
	n := float64(count)
	m.EventsFlushed.Add(n)
	m.FlushBatchSize.Observe(n)
	m.FlushLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}
