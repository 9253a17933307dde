package observability

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/ports"
)

// LevelCritical sits above slog.LevelError for failures that lose data.
const LevelCritical = slog.LevelError + 4

type PromObs struct {
	logger   *slog.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewPromObs(reg prometheus.Registerer, logger *slog.Logger) *PromObs {
	if logger == nil {
		logger = slog.Default()
	}

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	}

	events := counter("joymix_events_total", "Joystick events handled by the controller.")
	dropped := counter("joymix_events_dropped_total", "Joystick events rejected because a configured index was out of range.")
	emitted := counter("joymix_commands_emitted_total", "Actuator commands handed to the output sink.")
	publishFailed := counter("joymix_publish_failed_total", "Actuator commands the output sink refused.")
	transitions := counter("joymix_arm_transitions_total", "Arm and disarm transitions.")
	saturated := counter("joymix_saturated_outputs_total", "Mixer outputs clamped at the upper saturation bound.")
	inputDropped := counter("joymix_input_dropped_total", "Joystick events discarded because the control loop was busy.")
	historyWritten := counter("joymix_history_written_total", "Commands persisted to the history store.")
	historyDropped := counter("joymix_history_dropped_total", "Commands lost due to history WAL/queue policies.")

	armed := gauge("joymix_armed", "1 while the vehicle is armed.")
	walGauge := gauge("joymix_wal_size_bytes", "Size of the command history WAL on disk.")
	queueGauge := gauge("joymix_history_queue_length", "Commands buffered for the history store.")

	handleLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "joymix_handle_latency_seconds",
		Help:    "Time from event receipt to command handoff.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14),
	})
	historyLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "joymix_history_sink_latency_seconds",
		Help:    "Latency of command history batch writes.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	reg.MustRegister(events, dropped, emitted, publishFailed, transitions, saturated, inputDropped,
		historyWritten, historyDropped, armed, walGauge, queueGauge, handleLatency, historyLatency)

	return &PromObs{
		logger: logger,
		counters: map[string]prometheus.Counter{
			"joymix_events_total":            events,
			"joymix_events_dropped_total":    dropped,
			"joymix_commands_emitted_total":  emitted,
			"joymix_publish_failed_total":    publishFailed,
			"joymix_arm_transitions_total":   transitions,
			"joymix_saturated_outputs_total": saturated,
			"joymix_input_dropped_total":     inputDropped,
			"joymix_history_written_total":   historyWritten,
			"joymix_history_dropped_total":   historyDropped,
		},
		gauges: map[string]prometheus.Gauge{
			"joymix_armed":                armed,
			"joymix_wal_size_bytes":       walGauge,
			"joymix_history_queue_length": queueGauge,
		},
		histos: map[string]prometheus.Observer{
			"joymix_handle_latency_seconds":       handleLatency,
			"joymix_history_sink_latency_seconds": historyLatency,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.logger.LogAttrs(context.Background(), slog.LevelInfo, msg, attrs(nil, fields)...)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	p.logger.LogAttrs(context.Background(), slog.LevelError, msg, attrs(err, fields)...)
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	p.logger.LogAttrs(context.Background(), LevelCritical, msg, attrs(err, fields)...)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) RecordDrop(ev *domain.JoystickEvent, err error) {
	p.IncCounter("joymix_events_dropped_total", 1)
	if err == nil {
		return
	}
	fields := []ports.Field{}
	if ev != nil {
		fields = append(fields,
			ports.Field{Key: "axes", Value: len(ev.Axes)},
			ports.Field{Key: "buttons", Value: len(ev.Buttons)})
	}
	p.LogError("event_dropped", err, fields...)
}

func attrs(err error, fields []ports.Field) []slog.Attr {
	out := make([]slog.Attr, 0, len(fields)+1)
	if err != nil {
		out = append(out, slog.String("error", err.Error()))
	}
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

var _ ports.Observability = (*PromObs)(nil)
