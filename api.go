package joymixer

import (
	"io"

	base "github.com/CogniPilot/joy-test-mixer-actuators/pkg/joymixer"
)

// Re-exported errors for convenience.
var (
	ErrInvalidConfig        = base.ErrInvalidConfig
	ErrIndexOutOfRange      = base.ErrIndexOutOfRange
	ErrChannelSinkClosed    = base.ErrChannelSinkClosed
	ErrChannelSinkFull      = base.ErrChannelSinkFull
	ErrChannelSourceStarted = base.ErrChannelSourceStarted
)

const (
	TransportWebsocket = base.TransportWebsocket
	TransportKafka     = base.TransportKafka
	TransportOPCUA     = base.TransportOPCUA
	TransportStdout    = base.TransportStdout
)

// Type aliases so consumers can import github.com/CogniPilot/joy-test-mixer-actuators directly.
type (
	Config          = base.Config
	MixerConfig     = base.MixerConfig
	InputConfig     = base.InputConfig
	OutputConfig    = base.OutputConfig
	KafkaConfig     = base.KafkaConfig
	WebsocketConfig = base.WebsocketConfig
	OPCUAConfig     = base.OPCUAConfig
	OPCUANodeConfig = base.OPCUANodeConfig
	HistoryConfig   = base.HistoryConfig
	Policy          = base.Policy
	MetricsConfig   = base.MetricsConfig
	WALConfig       = base.WALConfig
	LogConfig       = base.LogConfig
	Flow            = base.Flow
	FlowOption      = base.FlowOption
	StreamInOption  = base.StreamInOption
	StreamOutOption = base.StreamOutOption
	Runtime         = base.Runtime
	RuntimeOption   = base.RuntimeOption
	Header          = base.Header
	JoystickEvent   = base.JoystickEvent
	ActuatorCommand = base.ActuatorCommand
	CommandHandler  = base.CommandHandler
	Source          = base.Source
	Sink            = base.Sink
	BatchSink       = base.BatchSink
	Clock           = base.Clock
	Observability   = base.Observability
	Field           = base.Field
	Journal         = base.Journal
	JournalStats    = base.JournalStats
	JournalEntryID  = base.JournalEntryID
	CommandQueue    = base.CommandQueue
	QueuedCommand   = base.QueuedCommand
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func ParseConfig(raw []byte) (*Config, error) {
	return base.ParseConfig(raw)
}

func DefaultConfig() *Config {
	return base.DefaultConfig()
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...RuntimeOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

func StreamInSource(src Source) StreamInOption {
	return base.StreamInSource(src)
}

func StreamInChannel(in <-chan *JoystickEvent) StreamInOption {
	return base.StreamInChannel(in)
}

func StreamInClock(c Clock) StreamInOption {
	return base.StreamInClock(c)
}

func StreamInObservability(obs Observability) StreamInOption {
	return base.StreamInObservability(obs)
}

func StreamOutSink(s Sink) StreamOutOption {
	return base.StreamOutSink(s)
}

func StreamOutCallback(name string, fn CommandHandler) StreamOutOption {
	return base.StreamOutCallback(name, fn)
}

func StreamOutHistory(j Journal, q CommandQueue, store BatchSink) StreamOutOption {
	return base.StreamOutHistory(j, q, store)
}

func StreamOutObservability(obs Observability) StreamOutOption {
	return base.StreamOutObservability(obs)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithSource(src Source) RuntimeOption {
	return base.WithSource(src)
}

func WithSink(s Sink) RuntimeOption {
	return base.WithSink(s)
}

func WithClock(c Clock) RuntimeOption {
	return base.WithClock(c)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

func WithJournal(j Journal) RuntimeOption {
	return base.WithJournal(j)
}

func WithCommandQueue(q CommandQueue) RuntimeOption {
	return base.WithCommandQueue(q)
}

func WithHistorySink(s BatchSink) RuntimeOption {
	return base.WithHistorySink(s)
}

// Sink and source adapters.
func NewCallbackSink(name string, fn CommandHandler) Sink {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (Sink, <-chan *ActuatorCommand, func()) {
	return base.NewChannelSink(name, buffer)
}

func NewWriterSink(name string, w io.Writer) Sink {
	return base.NewWriterSink(name, w)
}

func NewChannelSource(in <-chan *JoystickEvent) Source {
	return base.NewChannelSource(in)
}
