package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/pinauth"
	"github.com/MrEthical07/pinauth/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

const (
	pinValidationsName = "pinauth_pin_validations_total"
	auditDroppedName   = "pinauth_audit_dropped_total"
)

// pinOutcomes folds the four per-outcome engine counters into a single
// instrument keyed by the outcome attribute.
var pinOutcomes = []struct {
	id      pinauth.MetricID
	outcome pinauth.PinOutcome
}{
	{pinauth.MetricPinValid, pinauth.PinValid},
	{pinauth.MetricPinInvalid, pinauth.PinInvalid},
	{pinauth.MetricPinExpired, pinauth.PinExpired},
	{pinauth.MetricPinAttemptsExceeded, pinauth.PinAttemptsExceeded},
}

type metricsSource interface {
	MetricsSnapshot() pinauth.MetricsSnapshot
	AuditDropped() uint64
}

type observedCounter struct {
	id         pinauth.MetricID
	instrument metric.Int64ObservableCounter
}

type observedHistogram struct {
	id      pinauth.MetricID
	buckets metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// Options tune the exported series.
type Options struct {
	// ServiceID is attached to every observation as service.instance.id when set.
	ServiceID string
}

// OTelExporter observes engine metrics through one registered callback.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	base         []attribute.KeyValue
	counters     []observedCounter
	histograms   []observedHistogram
	pinChecks    metric.Int64ObservableCounter
	outcomeAttrs []metric.ObserveOption
	auditDropped metric.Int64ObservableCounter
}

func NewOTelExporter(meter metric.Meter, engine *pinauth.Engine, opts Options) (*OTelExporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return newExporter(meter, engine, opts)
}

func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	return newExporter(meter, source, Options{})
}

func newExporter(meter metric.Meter, source metricsSource, opts Options) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	if opts.ServiceID != "" {
		e.base = append(e.base, attribute.String("service.instance.id", opts.ServiceID))
	}

	var observables []metric.Observable

	folded := make(map[pinauth.MetricID]bool, len(pinOutcomes))
	for _, p := range pinOutcomes {
		folded[p.id] = true
	}
	for _, def := range internaldefs.CounterDefs {
		if folded[def.ID] {
			continue
		}
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	pinChecks, err := meter.Int64ObservableCounter(pinValidationsName,
		metric.WithDescription("PIN validations by outcome."))
	if err != nil {
		return nil, fmt.Errorf("create pin validations counter: %w", err)
	}
	e.pinChecks = pinChecks
	observables = append(observables, pinChecks)
	for _, p := range pinOutcomes {
		e.outcomeAttrs = append(e.outcomeAttrs, e.with(attribute.String("outcome", string(p.outcome))))
	}

	for _, def := range internaldefs.HistogramDefs {
		buckets, err := meter.Int64ObservableGauge(def.Name+"_bucket",
			metric.WithDescription(def.Help+" Cumulative count per le bound."))
		if err != nil {
			return nil, fmt.Errorf("create histogram bucket gauge %s: %w", def.Name, err)
		}
		count, err := meter.Int64ObservableGauge(def.Name+"_count",
			metric.WithDescription(def.Help+" Total samples."))
		if err != nil {
			return nil, fmt.Errorf("create histogram count gauge %s: %w", def.Name, err)
		}
		e.histograms = append(e.histograms, observedHistogram{id: def.ID, buckets: buckets, count: count})
		observables = append(observables, buckets, count)
	}

	e.auditDropped, err = meter.Int64ObservableCounter(auditDroppedName,
		metric.WithDescription("Audit events dropped because the dispatcher buffer was full."))
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	observables = append(observables, e.auditDropped)

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *OTelExporter) with(extra ...attribute.KeyValue) metric.ObserveOption {
	attrs := make([]attribute.KeyValue, 0, len(e.base)+len(extra))
	attrs = append(attrs, e.base...)
	attrs = append(attrs, extra...)
	return metric.WithAttributes(attrs...)
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	plain := e.with()

	for _, c := range e.counters {
		o.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]), plain)
	}
	for i, p := range pinOutcomes {
		o.ObserveInt64(e.pinChecks, int64(snapshot.Counters[p.id]), e.outcomeAttrs[i])
	}
	for _, h := range e.histograms {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[h.id]))
		for i, le := range internaldefs.HistogramBounds {
			o.ObserveInt64(h.buckets, int64(cumulative[i]), e.with(attribute.String("le", le)))
		}
		o.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]), plain)
	}
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()), plain)
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
