package logger

import (
  "go.uber.org/zap"
  "go.uber.org/zap/zapcore"
)

// Logger is a thin wrapper around a sugared zap logger so the rest of the
// codebase can log key/value pairs without importing zap everywhere.
type Logger struct {
  sugar *zap.SugaredLogger
}

// New builds a Logger for the given mode. Anything other than "production"
// gets the development config (console encoder, debug level).
func New(mode string) (*Logger, error) {
  var (
    zl  *zap.Logger
    err error
  )
  switch mode {
  case "production":
    cfg := zap.NewProductionConfig()
    cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
    zl, err = cfg.Build(zap.AddCallerSkip(1))
  default:
    zl, err = zap.NewDevelopment(zap.AddCallerSkip(1))
  }
  if err != nil {
    return nil, err
  }
  return &Logger{sugar: zl.Sugar()}, nil
}

// With returns a child logger carrying the given key/value pairs on every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
  return &Logger{sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
  l.sugar.Debugw(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
  l.sugar.Infow(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
  l.sugar.Warnw(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
  l.sugar.Errorw(msg, keysAndValues...)
}

func (l *Logger) Sync() error {
  return l.sugar.Sync()
}
