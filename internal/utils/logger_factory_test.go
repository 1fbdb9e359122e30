package utils_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/manifold/internal/utils"
)

const testSyncMessageConstant = "repository synchronized"

func TestLoggerFactoryCreateLogger(testInstance *testing.T) {
	testCases := []struct {
		name             string
		logLevel         utils.LogLevel
		logFormat        utils.LogFormat
		expectedError    string
		expectJSON       bool
		expectDebugEntry bool
	}{
		{name: "structured_debug", logLevel: utils.LogLevelDebug, logFormat: utils.LogFormatStructured, expectJSON: true, expectDebugEntry: true},
		{name: "structured_info", logLevel: utils.LogLevelInfo, logFormat: utils.LogFormatStructured, expectJSON: true},
		{name: "console_columns", logLevel: utils.LogLevelWarn, logFormat: utils.LogFormatConsole},
		{name: "unknown_level", logLevel: utils.LogLevel("trace"), logFormat: utils.LogFormatStructured, expectedError: "unsupported log level: trace"},
		{name: "unknown_format", logLevel: utils.LogLevelInfo, logFormat: utils.LogFormat("xml"), expectedError: "unsupported log format: xml"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			var outputBuffer bytes.Buffer
			logger, creationError := utils.NewLoggerFactory().CreateLogger(testCase.logLevel, testCase.logFormat, &outputBuffer)
			if len(testCase.expectedError) > 0 {
				require.EqualError(testInstance, creationError, testCase.expectedError)
				require.Nil(testInstance, logger)
				return
			}
			require.NoError(testInstance, creationError)

			logger.Debug("resolved clone ref")
			logger.Error(testSyncMessageConstant)

			lines := strings.Split(strings.TrimSpace(outputBuffer.String()), "\n")
			if testCase.expectDebugEntry {
				require.Len(testInstance, lines, 2)
			} else {
				require.Len(testInstance, lines, 1)
			}
			lastLine := lines[len(lines)-1]
			require.Contains(testInstance, lastLine, testSyncMessageConstant)
			require.Equal(testInstance, testCase.expectJSON, json.Valid([]byte(lastLine)))
		})
	}
}

func TestLoggerFactoryCreateConsoleLoggerWritesPlainMessages(testInstance *testing.T) {
	var outputBuffer bytes.Buffer
	logger, creationError := utils.NewLoggerFactory().CreateConsoleLogger(utils.LogLevelInfo, &outputBuffer)
	require.NoError(testInstance, creationError)

	logger.Debug("hidden")
	logger.Info("Fetching tags from origin in foo")

	require.Equal(testInstance, "INFO\tFetching tags from origin in foo", strings.TrimSpace(outputBuffer.String()))

	_, invalidError := utils.NewLoggerFactory().CreateConsoleLogger(utils.LogLevel("loud"), &outputBuffer)
	require.Error(testInstance, invalidError)
}

func TestParseLogSettings(testInstance *testing.T) {
	testCases := []struct {
		input         string
		parse         func(string) (string, error)
		expectedValue string
		expectError   bool
	}{
		{input: " WARN ", parse: parseLevel, expectedValue: "warn"},
		{input: "error", parse: parseLevel, expectedValue: "error"},
		{input: "verbose", parse: parseLevel, expectError: true},
		{input: "Console", parse: parseFormat, expectedValue: "console"},
		{input: "structured", parse: parseFormat, expectedValue: "structured"},
		{input: "xml", parse: parseFormat, expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.input, func(testInstance *testing.T) {
			parsedValue, parseError := testCase.parse(testCase.input)
			if testCase.expectError {
				require.Error(testInstance, parseError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedValue, parsedValue)
		})
	}
}

func parseLevel(rawValue string) (string, error) {
	level, parseError := utils.ParseLogLevel(rawValue)
	return string(level), parseError
}

func parseFormat(rawValue string) (string, error) {
	format, parseError := utils.ParseLogFormat(rawValue)
	return string(format), parseError
}

func TestLoggerFactoryAttachLogFile(testInstance *testing.T) {
	logFilePath := filepath.Join(testInstance.TempDir(), "logs", "manifold.log")
	var primaryBuffer bytes.Buffer
	loggerFactory := utils.NewLoggerFactory()
	primaryLogger, creationError := loggerFactory.CreateConsoleLogger(utils.LogLevelInfo, &primaryBuffer)
	require.NoError(testInstance, creationError)

	teedLogger, closer, attachError := loggerFactory.AttachLogFile(primaryLogger, utils.LogLevelDebug, utils.LogFileSettings{Path: logFilePath})
	require.NoError(testInstance, attachError)

	teedLogger.Debug(testSyncMessageConstant)
	require.NoError(testInstance, closer.Close())

	fileContents, readError := os.ReadFile(logFilePath)
	require.NoError(testInstance, readError)
	trimmedContents := bytes.TrimSpace(fileContents)
	require.True(testInstance, json.Valid(trimmedContents))
	require.Contains(testInstance, string(trimmedContents), testSyncMessageConstant)
	require.Empty(testInstance, primaryBuffer.String())

	_, _, missingPathError := loggerFactory.AttachLogFile(primaryLogger, utils.LogLevelInfo, utils.LogFileSettings{})
	require.Error(testInstance, missingPathError)
}
