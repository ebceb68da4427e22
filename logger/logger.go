// Package logger wraps zap for structured logging.
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log     *zap.Logger
	once    sync.Once
	mu      sync.Mutex
	logFile = "keydiff.log" // Default log file
	level   = zap.NewAtomicLevelAt(zap.InfoLevel)
	file    *os.File
)

// InitLogger initializes the Zap logger with structured logging. Console
// output goes to stderr so that reports written to stdout stay clean.
func InitLogger() {
	mu.Lock()
	defer mu.Unlock()

	once.Do(func() {
		cores := []zapcore.Core{
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.Lock(os.Stderr),
				level,
			),
		}

		// Configure file logging
		if logFile != "" {
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err == nil {
				file = f
				fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
				cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(f), level))
			}
		}

		// Combine outputs (console + file)
		log = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	})
}

// GetLogger provides access to the initialized logger.
func GetLogger() *zap.Logger {
	InitLogger()
	return log
}

// SetLogPath sets the log file used by the next initialization. An empty
// path disables file logging.
func SetLogPath(path string) {
	mu.Lock()
	defer mu.Unlock()
	logFile = path
}

// SetLevel changes the minimum level of the logger. Unknown names leave the
// level unchanged and return the parse error.
func SetLevel(name string) error {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return err
	}
	level.SetLevel(l)
	return nil
}

// ResetLogger flushes and discards the logger so the next call initializes
// it again.
func ResetLogger() {
	mu.Lock()
	defer mu.Unlock()

	if log != nil {
		_ = log.Sync()
	}
	if file != nil {
		_ = file.Close()
		file = nil
	}
	log = nil
	once = sync.Once{}
}

// Sync ensures buffered logs are written before the application exits.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	if log != nil {
		_ = log.Sync()
	}
}
