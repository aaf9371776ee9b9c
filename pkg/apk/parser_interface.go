package apk

import (
	"time"

	"go.uber.org/zap"

	"github.com/apkscope/apkscope/pkg/models"
)

// Parser turns an APK file into an inspection report. Implementations are
// ranked by priority so the chain can fall back when one rejects a file.
type Parser interface {
	Parse(path string) (*models.InspectionReport, error)
	Info() ParserInfo
	CanParse(path string) bool
}

// ParserInfo describes a parser to the chain and to diagnostics output.
type ParserInfo struct {
	Name      string
	Version   string
	Available bool
	Priority  int // lower runs first
}

// ParseResult is a chain outcome: the report plus which parser produced it
// and what the earlier parsers complained about.
type ParseResult struct {
	Report   *models.InspectionReport
	Parser   string
	Duration time.Duration
	Errors   []string
}

// Logger is the chain's logging surface. The library never logs on its
// own; callers decide where chain diagnostics go.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}

// ZapLogger adapts a zap sugared logger to the chain's Logger interface.
func ZapLogger(s *zap.SugaredLogger) Logger {
	return zapLogger{s: s}
}

type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Debugf(format string, args ...interface{}) { l.s.Debugf(format, args...) }
func (l zapLogger) Infof(format string, args ...interface{})  { l.s.Infof(format, args...) }
func (l zapLogger) Warnf(format string, args ...interface{})  { l.s.Warnf(format, args...) }
