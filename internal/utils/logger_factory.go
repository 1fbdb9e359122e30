package utils

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logLevelDebugStringConstant          = "debug"
	logLevelInfoStringConstant           = "info"
	logLevelWarnStringConstant           = "warn"
	logLevelErrorStringConstant          = "error"
	logFormatStructuredStringConstant    = "structured"
	logFormatConsoleStringConstant       = "console"
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
	consoleMessageKeyConstant            = "message"
	consoleLevelKeyConstant              = "level"
	defaultLogFileMaxSizeConstant        = 10
	defaultLogFileMaxBackupsConstant     = 3
	logFilePathRequiredMessageConstant   = "log file path required"
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Exported log level constants for reuse across packages.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Exported log format constants for reuse across packages.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

// LoggerFactory builds zap.Logger instances with consistent configuration.
type LoggerFactory struct{}

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

var logFormatEncodingMapping = map[LogFormat]struct{}{
	LogFormatStructured: {},
	LogFormatConsole:    {},
}

// NewLoggerFactory constructs a new logger factory.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// ParseLogLevel normalizes user input into a supported LogLevel.
func ParseLogLevel(rawLogLevel string) (LogLevel, error) {
	candidate := LogLevel(strings.ToLower(strings.TrimSpace(rawLogLevel)))
	if _, levelExists := logLevelMapping[candidate]; !levelExists {
		return "", fmt.Errorf(unsupportedLogLevelTemplateConstant, rawLogLevel)
	}
	return candidate, nil
}

// ParseLogFormat normalizes user input into a supported LogFormat.
func ParseLogFormat(rawLogFormat string) (LogFormat, error) {
	candidate := LogFormat(strings.ToLower(strings.TrimSpace(rawLogFormat)))
	if _, formatExists := logFormatEncodingMapping[candidate]; !formatExists {
		return "", fmt.Errorf(unsupportedLogFormatTemplateConstant, rawLogFormat)
	}
	return candidate, nil
}

// CreateLogger produces a zap.Logger writing to writer with the requested level and encoding.
// Structured output is JSON with timestamps and callers; console output keeps the same fields in columns.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat, writer io.Writer) (*zap.Logger, error) {
	zapLogLevel, levelExists := logLevelMapping[requestedLogLevel]
	if !levelExists {
		return nil, fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}
	if _, formatExists := logFormatEncodingMapping[requestedLogFormat]; !formatExists {
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}

	encoderConfiguration := zap.NewProductionEncoderConfig()
	encoderConfiguration.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfiguration)
	if requestedLogFormat == LogFormatConsole {
		encoder = zapcore.NewConsoleEncoder(encoderConfiguration)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(writer)), zapLogLevel)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// CreateConsoleLogger produces a message-only logger for human-readable command events.
func (factory *LoggerFactory) CreateConsoleLogger(requestedLogLevel LogLevel, writer io.Writer) (*zap.Logger, error) {
	zapLogLevel, levelExists := logLevelMapping[requestedLogLevel]
	if !levelExists {
		return nil, fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}

	encoderConfiguration := zapcore.EncoderConfig{
		MessageKey:  consoleMessageKeyConstant,
		LevelKey:    consoleLevelKeyConstant,
		EncodeLevel: zapcore.CapitalLevelEncoder,
		LineEnding:  zapcore.DefaultLineEnding,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfiguration), zapcore.AddSync(writer), zapLogLevel)
	return zap.New(core), nil
}

// LogFileSettings configures the rotating log file written next to the primary logger.
type LogFileSettings struct {
	Path             string
	MaxSizeMegabytes int
	MaxBackups       int
}

// AttachLogFile tees logger into a size-rotated JSON log file. The returned closer releases the file.
func (factory *LoggerFactory) AttachLogFile(logger *zap.Logger, requestedLogLevel LogLevel, settings LogFileSettings) (*zap.Logger, io.Closer, error) {
	zapLogLevel, levelExists := logLevelMapping[requestedLogLevel]
	if !levelExists {
		return nil, nil, fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}
	if len(strings.TrimSpace(settings.Path)) == 0 {
		return nil, nil, errors.New(logFilePathRequiredMessageConstant)
	}

	maxSize := settings.MaxSizeMegabytes
	if maxSize <= 0 {
		maxSize = defaultLogFileMaxSizeConstant
	}
	maxBackups := settings.MaxBackups
	if maxBackups <= 0 {
		maxBackups = defaultLogFileMaxBackupsConstant
	}
	rotatingWriter := &lumberjack.Logger{
		Filename:   settings.Path,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
	}

	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(rotatingWriter), zapLogLevel)
	teedLogger := logger.WithOptions(zap.WrapCore(func(primaryCore zapcore.Core) zapcore.Core {
		return zapcore.NewTee(primaryCore, fileCore)
	}))
	return teedLogger, rotatingWriter, nil
}
