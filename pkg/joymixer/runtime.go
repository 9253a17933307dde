package joymixer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CogniPilot/joy-test-mixer-actuators/internal/adapters/history"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/adapters/kafka"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/adapters/observability"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/adapters/opcua"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/adapters/queue"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/adapters/wal"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/adapters/websocket"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/app/config"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/app/mixer"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/app/pipeline"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/ports"
)

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	source        Source
	sink          Sink
	clock         Clock
	observability Observability
	journal       Journal
	queue         CommandQueue
	historySink   BatchSink
}

// WithSource injects a custom joystick source (simulators, other transports, etc.).
func WithSource(src Source) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.source = src
	}
}

// WithSink injects a custom sink so commands can be sent to any bus or driver.
func WithSink(s Sink) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.sink = s
	}
}

// WithClock overrides the clock used to stamp commands.
func WithClock(c Clock) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.clock = c
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// WithJournal lets callers bring their own history journal.
func WithJournal(j Journal) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.journal = j
	}
}

// WithCommandQueue injects a custom history queue implementation.
func WithCommandQueue(q CommandQueue) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.queue = q
	}
}

// WithHistorySink replaces the TimescaleDB writer of the history pipeline.
func WithHistorySink(s BatchSink) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.historySink = s
	}
}

// Runtime wires source → control loop → sink, plus the optional
// recorder → WAL → queue → history store pipeline, and exposes lifecycle
// hooks for embedding the mixer inside any Go service.
type Runtime struct {
	cfg        *Config
	sessionID  string
	obs        ports.Observability
	registry   *prometheus.Registry
	source     ports.Source
	sink       ports.Sink
	output     ports.Sink
	controller *mixer.Controller

	journal     ports.Journal
	queue       ports.CommandQueue
	historySink ports.BatchSink
	backlog     *pipeline.JournalBacklog
	db          *sql.DB

	metricsSrv *http.Server
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	startOnce  sync.Once
	started    bool
}

// NewRuntime bootstraps the default adapters for the configured transports
// (websocket/Kafka/OPC UA input, Kafka/stdout output, Prometheus
// observability, TimescaleDB history). RuntimeOption values override any of
// them.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	rt := &Runtime{
		cfg:       cfg,
		sessionID: uuid.NewString(),
		registry:  prometheus.NewRegistry(),
	}
	rt.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	rt.obs = overrides.observability
	if rt.obs == nil {
		rt.obs = observability.NewPromObs(rt.registry, observability.NewLogger(cfg.Logging))
	}

	var err error
	rt.source = overrides.source
	if rt.source == nil {
		rt.source, err = newSource(cfg)
		if err != nil {
			return nil, err
		}
	}

	rt.output = overrides.sink
	if rt.output == nil {
		rt.output, err = newSink(cfg)
		if err != nil {
			return nil, err
		}
	}
	rt.sink = rt.output

	if cfg.History.Enabled {
		if err := rt.setupHistory(overrides); err != nil {
			// History is optional; the control path runs without it.
			rt.obs.LogError("history_disabled", err,
				ports.Field{Key: "wal_dir", Value: cfg.History.WAL.Dir})
			_ = rt.closeHistory()
			rt.historySink, rt.queue, rt.backlog = nil, nil, nil
		} else {
			rec := pipeline.NewRecorder(rt.sessionID, rt.journal, rt.queue, cfg.History.Policy, rt.obs)
			rt.sink = pipeline.NewTeeSink(rt.obs, rt.output, rec)
		}
	}

	emitter := mixer.NewEmitter(cfg.Mixer.FrameID, overrides.clock, rt.sink, rt.obs)
	rt.controller = mixer.NewController(&cfg.Mixer, emitter, rt.obs)

	return rt, nil
}

func newSource(cfg *Config) (ports.Source, error) {
	switch cfg.Input.Transport {
	case config.TransportWebsocket:
		return websocket.NewSource(cfg.Input.Websocket, cfg.Input.Channel)
	case config.TransportKafka:
		return kafka.NewSource(cfg.Kafka, cfg.Input.Channel)
	case config.TransportOPCUA:
		return opcua.NewSource(cfg.Input.OPCUA)
	default:
		return nil, fmt.Errorf("input transport %q is not supported", cfg.Input.Transport)
	}
}

func newSink(cfg *Config) (ports.Sink, error) {
	switch cfg.Output.Transport {
	case config.TransportKafka:
		return kafka.NewSink(cfg.Kafka, cfg.Output.Channel)
	case config.TransportStdout:
		return NewWriterSink("stdout", os.Stdout), nil
	default:
		return nil, fmt.Errorf("output transport %q is not supported", cfg.Output.Transport)
	}
}

func (r *Runtime) setupHistory(overrides runtimeOverrides) error {
	r.journal = overrides.journal
	if r.journal == nil {
		fw, err := wal.NewFileWAL(r.cfg.History.WAL.Dir)
		if err != nil {
			return err
		}
		r.journal = fw
	}

	r.queue = overrides.queue
	if r.queue == nil {
		r.queue = queue.NewMemQueue(r.cfg.History.Policy.MaxQueueLen)
	}

	r.backlog = pipeline.ReplayJournal(r.journal)
	if n := r.backlog.Len(); n > 0 {
		r.obs.LogInfo("wal_backlog_pending", ports.Field{Key: "commands", Value: n})
	}

	r.historySink = overrides.historySink
	if r.historySink == nil {
		db, err := sql.Open("postgres", r.cfg.History.ConnString)
		if err != nil {
			return err
		}
		r.db = db
		r.historySink = history.NewTimescaleSink(r.db, r.cfg.History.Table, r.sessionID)
	}
	return nil
}

// pressesDisarm marks events the input policy must not discard.
func (r *Runtime) pressesDisarm(ev *domain.JoystickEvent) bool {
	i := r.cfg.Mixer.DisarmButton
	return i < len(ev.Buttons) && ev.Pressed(i)
}

// SessionID identifies this process run in the history table.
func (r *Runtime) SessionID() string { return r.sessionID }

// Start launches the control loop, the history pipeline and the metrics
// server. It returns immediately; call Run to block on a context instead.
func (r *Runtime) Start() error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}
	var err error
	r.startOnce.Do(func() { err = r.start() })
	return err
}

func (r *Runtime) start() error {
	ctx, cancel := context.WithCancel(context.Background())

	depth := r.cfg.Input.QueueDepth
	raw := make(chan *domain.JoystickEvent, depth)
	events := make(chan *domain.JoystickEvent, depth)

	if err := r.source.Start(raw); err != nil {
		cancel()
		return err
	}
	r.cancel = cancel
	r.started = true

	r.wg.Add(2)
	go func() {
		defer r.wg.Done()
		pipeline.ForwardWithPolicy(ctx, raw, events, r.cfg.Input.OnFull, r.pressesDisarm, r.obs)
	}()
	go func() {
		defer r.wg.Done()
		pipeline.RunControlLoop(ctx, events, r.controller)
	}()

	if r.historySink != nil {
		r.wg.Add(2)
		go func() {
			defer r.wg.Done()
			pipeline.RunHistoryPipeline(ctx, r.journal, r.queue, r.historySink, r.backlog, r.cfg.History.Policy, r.obs)
		}()
		go func() {
			defer r.wg.Done()
			pipeline.RecordHistoryGauges(ctx, r.journal, r.queue, r.obs, time.Second)
		}()
	}

	r.startMetrics()
	r.obs.LogInfo("runtime_started",
		ports.Field{Key: "session_id", Value: r.sessionID},
		ports.Field{Key: "input", Value: r.cfg.Input.Transport + " " + r.cfg.Input.Channel},
		ports.Field{Key: "output", Value: r.output.Name()},
		ports.Field{Key: "actuators", Value: r.cfg.Mixer.Actuators()},
		ports.Field{Key: "history", Value: r.cfg.History.Enabled})
	return nil
}

// Run starts the runtime and blocks until the provided context is cancelled.
// Upon cancellation it attempts a graceful shutdown.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Shutdown(shutdownCtx)
}

// Shutdown stops the source, drains the loops and releases the sink, the
// journal and the database connection.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	if r.started {
		if err := r.source.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, ctx.Err())
	}

	if r.metricsSrv != nil {
		if err := r.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	if c, ok := r.output.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := r.closeHistory(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (r *Runtime) closeHistory() error {
	var errs []error
	if r.journal != nil {
		if err := r.journal.Close(); err != nil {
			errs = append(errs, err)
		}
		r.journal = nil
	}
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			errs = append(errs, err)
		}
		r.db = nil
	}
	return errors.Join(errs...)
}

func (r *Runtime) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{
		Addr:              r.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := r.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.obs.LogError("metrics_server_exited", err)
		}
	}()
}
