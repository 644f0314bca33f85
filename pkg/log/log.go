// Package log provides structured logging for yieldcast.
//
// Components depend on the small Logger interface and obtain named loggers
// from a LoggerProvider. The default provider is backed by zerolog and writes
// JSON to stderr.
//
//	logger := log.GetLoggerWithName("catalog").With(log.PathKey, path)
//	logger.Info("Catalog loaded", log.SamplesKey, rows)
//
// Fields are passed as alternating key/value pairs. Use the *Key constants so
// that field names stay consistent across packages.
package log

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Field keys.
const (
	ComponentKey  = "component"
	ModelNameKey  = "model_name"
	OperationKey  = "operation"
	PhaseKey      = "phase"
	SamplesKey    = "samples"
	FeaturesKey   = "features"
	PredsKey      = "predictions"
	DurationMsKey = "duration_ms"
	RequestIDKey  = "request_id"
	FieldKey      = "field"
	ValueKey      = "value"
	PathKey       = "path"
	ErrorKey      = "error"
)

// Operation values.
const (
	OperationLoad      = "load"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationForecast  = "forecast"
	OperationEvaluate  = "evaluate"
)

// Phase values.
const (
	PhaseStartup   = "startup"
	PhaseInference = "inference"
	PhaseReload    = "reload"
)

// Logger is a leveled, structured logger.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	// With returns a child logger that always includes fields.
	With(fields ...interface{}) Logger
}

// LoggerProvider hands out loggers sharing one output and level.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
	SetLevel(level zerolog.Level)
}

// ToLogLevel parses a level name. Unknown names map to info.
func ToLogLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

var (
	mu              sync.RWMutex
	defaultProvider LoggerProvider = NewZerologProvider(zerolog.InfoLevel)
)

// SetupLogger replaces the process-wide provider with a stderr zerolog provider at level.
func SetupLogger(level string) {
	SetProvider(NewZerologProvider(ToLogLevel(level)))
}

// SetProvider replaces the process-wide provider.
func SetProvider(p LoggerProvider) {
	mu.Lock()
	defer mu.Unlock()
	defaultProvider = p
}

// Provider returns the process-wide provider.
func Provider() LoggerProvider {
	mu.RLock()
	defer mu.RUnlock()
	return defaultProvider
}

// GetLogger returns the root logger of the process-wide provider.
func GetLogger() Logger {
	return Provider().GetLogger()
}

// GetLoggerWithName returns a component logger of the process-wide provider.
func GetLoggerWithName(name string) Logger {
	return Provider().GetLoggerWithName(name)
}

// LogError logs err at error level on the root logger.
func LogError(err error, msg string, fields ...interface{}) {
	if err == nil {
		return
	}
	GetLogger().Error(msg, append([]interface{}{ErrorKey, err}, fields...)...)
}

// ZerologProvider is a LoggerProvider writing through zerolog.
type ZerologProvider struct {
	root zerolog.Logger
}

// NewZerologProvider creates a provider that writes JSON lines to stderr.
func NewZerologProvider(level zerolog.Level) *ZerologProvider {
	return NewZerologProviderWithWriter(os.Stderr, level)
}

// NewZerologProviderWithWriter creates a provider writing to w.
func NewZerologProviderWithWriter(w io.Writer, level zerolog.Level) *ZerologProvider {
	return &ZerologProvider{
		root: zerolog.New(w).Level(level).With().Timestamp().Logger(),
	}
}

// GetLogger returns the root logger.
func (p *ZerologProvider) GetLogger() Logger {
	return &zerologLogger{l: p.root}
}

// GetLoggerWithName returns a logger tagged with the component name.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	return &zerologLogger{l: p.root.With().Str(ComponentKey, name).Logger()}
}

// SetLevel changes the minimum level for loggers obtained afterwards.
func (p *ZerologProvider) SetLevel(level zerolog.Level) {
	p.root = p.root.Level(level)
}

type zerologLogger struct {
	l zerolog.Logger
}

func (z *zerologLogger) Debug(msg string, fields ...interface{}) {
	emit(z.l.Debug(), msg, fields)
}

func (z *zerologLogger) Info(msg string, fields ...interface{}) {
	emit(z.l.Info(), msg, fields)
}

func (z *zerologLogger) Warn(msg string, fields ...interface{}) {
	emit(z.l.Warn(), msg, fields)
}

func (z *zerologLogger) Error(msg string, fields ...interface{}) {
	emit(z.l.Error(), msg, fields)
}

func (z *zerologLogger) With(fields ...interface{}) Logger {
	return &zerologLogger{l: z.l.With().Fields(normalize(fields)).Logger()}
}

func emit(e *zerolog.Event, msg string, fields []interface{}) {
	if e == nil {
		return
	}
	e.Fields(normalize(fields)).Msg(msg)
}

// normalize turns errors into strings so they render as messages rather than
// empty JSON objects, and pads an odd trailing key.
func normalize(fields []interface{}) []interface{} {
	out := make([]interface{}, 0, len(fields)+1)
	for i, f := range fields {
		if err, ok := f.(error); ok && i%2 == 1 {
			out = append(out, err.Error())
			continue
		}
		out = append(out, f)
	}
	if len(out)%2 == 1 {
		out = append(out, "MISSING")
	}
	return out
}
