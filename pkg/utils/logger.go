// =============================================================================
// Excise Ledger Builder - Run Logger
// =============================================================================
//
// Every command logs through one zap logger built from the main
// configuration. Entries go to stderr unless configured otherwise, so stdout
// carries only the run result.
//
// SINKS:
//   - "stderr" (default) or "stdout": coloured levels in console format
//   - anything else is a file path; the directory is created and the file
//     appended to, without colour codes
//
// Every entry carries the run id, which also names the run summary file.
//
// =============================================================================

package utils

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/ginjaninja78/excise-ledger/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RunLogger is the logger of one run and the sink it writes to.
type RunLogger struct {
	*zap.Logger

	RunID string

	// file is nil for the standard streams.
	file *os.File
}

// NewRunLogger builds the logger for a run from the main configuration.
// An unknown log level falls back to info.
func NewRunLogger(cfg *config.MainConfig, runID string) (*RunLogger, error) {
	sink, file, err := openLogSink(cfg.LogFile)
	if err != nil {
		return nil, err
	}

	encoder := logEncoder(cfg.LogFormat, file == nil)
	core := zapcore.NewCore(encoder, sink, logLevel(cfg.LogLevel))

	logger := zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("run_id", runID)))

	return &RunLogger{Logger: logger, RunID: runID, file: file}, nil
}

// Close flushes buffered entries and closes a file sink. Sync errors on the
// standard streams are ignored; terminals reject fsync.
func (l *RunLogger) Close() error {
	if l.file == nil {
		_ = l.Logger.Sync()
		return nil
	}
	return errors.Join(l.Logger.Sync(), l.file.Close())
}

func logLevel(name string) zapcore.Level {
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

func logEncoder(format string, color bool) zapcore.Encoder {
	if format == config.LogFormatJSON {
		ec := zap.NewProductionEncoderConfig()
		ec.TimeKey = "timestamp"
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(ec)
	}

	ec := zap.NewDevelopmentEncoderConfig()
	ec.TimeKey = "timestamp"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	if color {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(ec)
}

// openLogSink returns the writer for a log_file value, and the opened file
// when the value is a path.
func openLogSink(target string) (zapcore.WriteSyncer, *os.File, error) {
	switch target {
	case "", "stderr":
		return zapcore.Lock(os.Stderr), nil, nil
	case "stdout":
		return zapcore.Lock(os.Stdout), nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(target, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return zapcore.AddSync(file), file, nil
}
