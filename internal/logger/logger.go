package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultOutput = "stderr"

// Options controls how the process logger is built.
type Options struct {
	JSON  bool
	Debug bool
	// Output is a zap sink such as stderr or a file path. Results are written
	// to stdout, so logs default to stderr.
	Output string
	// Name is attached to every entry when set.
	Name string
}

// Build returns the process logger. Console output is used unless JSON is set.
func Build(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	encoding := "console"

	if opts.JSON {
		encoding = "json"
	}

	if opts.Debug {
		level = zapcore.DebugLevel
	}

	output := strings.TrimSpace(opts.Output)
	if output == "" {
		output = defaultOutput
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{defaultOutput},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "step",

			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.RFC3339TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,

			NameKey:        "logger",
			EncodeDuration: zapcore.StringDurationEncoder,
		},
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	if opts.Name != "" {
		logger = logger.Named(opts.Name)
	}

	return logger, nil
}
