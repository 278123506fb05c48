package logging

import (
	"fmt"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// buildCore tees the redacted stdout stream with the OpenTelemetry log
// bridge and samples the result.
func buildCore(cfg *Config, provider log.LoggerProvider) (zapcore.Core, error) {
	var cores []zapcore.Core

	if cfg.Output.Stdout {
		enc, err := NewRedactingEncoder(newEncoder(cfg.Format), cfg.Redaction)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(os.Stdout), cfg.Level))
	}
	if cfg.Output.OTEL && provider != nil {
		cores = append(cores, otelzap.NewCore(cfg.Service, otelzap.WithLoggerProvider(provider)))
	}
	if len(cores) == 0 {
		return nil, fmt.Errorf("no log output available: stdout is off and no otel provider was given")
	}

	core := zapcore.NewTee(cores...)
	if cfg.Sampling.Enabled {
		core = sampleBelowError(core, cfg.Sampling)
	}
	return core, nil
}

func newEncoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "ts"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	if format == "console" {
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

// sampleBelowError rate-limits repeated entries under error level. Errors
// bypass the sampler entirely.
func sampleBelowError(core zapcore.Core, cfg SamplingConfig) zapcore.Core {
	return &errorBypassCore{
		Core:   zapcore.NewSamplerWithOptions(core, cfg.Tick, cfg.Initial, cfg.Thereafter),
		direct: core,
	}
}

// errorBypassCore embeds the sampled core and keeps the unsampled one for
// error and above.
type errorBypassCore struct {
	zapcore.Core
	direct zapcore.Core
}

func (c *errorBypassCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if e.Level >= zapcore.ErrorLevel {
		return c.direct.Check(e, ce)
	}
	return c.Core.Check(e, ce)
}

func (c *errorBypassCore) With(fields []zapcore.Field) zapcore.Core {
	return &errorBypassCore{
		Core:   c.Core.With(fields),
		direct: c.direct.With(fields),
	}
}
