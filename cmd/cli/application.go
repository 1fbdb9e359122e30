package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/manifold/cmd/cli/repos"
	"github.com/temirov/manifold/internal/utils"
)

const (
	applicationNameConstant                 = "manifold"
	applicationShortDescriptionConstant     = "Manage groups of git repositories described by a manifest"
	applicationLongDescriptionConstant      = "manifold clones, synchronizes, inspects and pushes the repositories listed in a shared manifest."
	applicationVersionTemplateConstant      = "manifold version: {{.Version}}\n"
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	logFileFlagNameConstant                 = "log-file"
	logFileFlagUsageConstant                = "Also write JSON logs to this size-rotated file."
	workspaceFlagNameConstant               = "workspace"
	workspaceFlagUsageConstant              = "Workspace root; discovered from the working directory when omitted."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	commonLogFileConfigKeyConstant          = commonConfigurationKeyConstant + ".log_file"
	environmentPrefixConstant               = "MANIFOLD"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	logFileAttachErrorTemplateConstant      = "unable to open log file: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	logFileCloseErrorTemplateConstant       = "unable to close log file: %w"
	workspaceFlagErrorTemplateConstant      = "invalid --workspace value: %w"
	rootCommandDebugMessageConstant         = "manifold CLI diagnostics"
	logFieldArgumentsConstant               = "arguments"
	defaultConfigurationSearchPathConstant  = "."
	userConfigurationSearchPathConstant     = "~/.config/manifold"
	developmentVersionConstant              = "dev"
)

// Terminals and pipes reject fsync with one of these.
var unsyncableLogTargetErrors = []error{syscall.ENOTSUP, syscall.EINVAL, syscall.ENOTTY}

// Version is stamped at build time through -ldflags.
var Version = developmentVersionConstant

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common                     ApplicationCommonConfiguration `mapstructure:"common"`
	repos.CommandConfiguration `mapstructure:",squash"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	logFileCloser          io.Closer
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	logFileFlagValue       string
	workspaceFlagValue     string
	commandContextAccessor utils.CommandContextAccessor
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant, userConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())
	configurationLoader.SetStrictDecoding(true)

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			application.logger.Debug(rootCommandDebugMessageConstant, zap.Strings(logFieldArgumentsConstant, arguments))
			return command.Help()
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.SetVersionTemplate(applicationVersionTemplateConstant)
	for _, flag := range []struct {
		name   string
		usage  string
		target *string
	}{
		{name: configFileFlagNameConstant, usage: configFileFlagUsageConstant, target: &application.configurationFilePath},
		{name: logLevelFlagNameConstant, usage: logLevelFlagUsageConstant, target: &application.logLevelFlagValue},
		{name: logFormatFlagNameConstant, usage: logFormatFlagUsageConstant, target: &application.logFormatFlagValue},
		{name: logFileFlagNameConstant, usage: logFileFlagUsageConstant, target: &application.logFileFlagValue},
		{name: workspaceFlagNameConstant, usage: workspaceFlagUsageConstant, target: &application.workspaceFlagValue},
	} {
		cobraCommand.PersistentFlags().StringVar(flag.target, flag.name, "", flag.usage)
	}

	commandDependencies := repos.CommandDependencies{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		ConfigurationProvider: func() repos.CommandConfiguration {
			return application.configuration.CommandConfiguration
		},
	}

	commandBuilders := []interface {
		Build() (*cobra.Command, error)
	}{
		&repos.InitCommandBuilder{CommandDependencies: commandDependencies},
		&repos.SyncCommandBuilder{CommandDependencies: commandDependencies},
		&repos.StatusCommandBuilder{CommandDependencies: commandDependencies},
		&repos.ForeachCommandBuilder{CommandDependencies: commandDependencies},
		&repos.LogCommandBuilder{CommandDependencies: commandDependencies},
		&repos.PushGitHubCommandBuilder{CommandDependencies: commandDependencies},
		&repos.PushGitLabCommandBuilder{CommandDependencies: commandDependencies},
	}
	for _, commandBuilder := range commandBuilders {
		subcommand, buildError := commandBuilder.Build()
		if buildError == nil {
			cobraCommand.AddCommand(subcommand)
		}
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return errors.Join(executionError, fmt.Errorf(loggerSyncErrorTemplateConstant, syncError))
	}
	if application.logFileCloser != nil {
		if closeError := application.logFileCloser.Close(); closeError != nil {
			return errors.Join(executionError, fmt.Errorf(logFileCloseErrorTemplateConstant, closeError))
		}
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatConsole),
		commonLogFileConfigKeyConstant:   "",
	}
	for configurationKey, configurationValue := range repos.DefaultConfigurationValues() {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	flagOverrides := map[string]struct {
		value  string
		target *string
	}{
		logLevelFlagNameConstant:  {value: application.logLevelFlagValue, target: &application.configuration.Common.LogLevel},
		logFormatFlagNameConstant: {value: application.logFormatFlagValue, target: &application.configuration.Common.LogFormat},
		logFileFlagNameConstant:   {value: application.logFileFlagValue, target: &application.configuration.Common.LogFile},
	}
	for flagName, override := range flagOverrides {
		if application.persistentFlagChanged(command, flagName) {
			*override.target = override.value
		}
	}

	if loggerError := application.createLogger(command); loggerError != nil {
		return loggerError
	}

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	if command == nil {
		return nil
	}

	updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
		command.Context(),
		application.configurationMetadata.ConfigFileUsed,
	)
	if application.persistentFlagChanged(command, workspaceFlagNameConstant) {
		workspaceRoot, absoluteError := filepath.Abs(strings.TrimSpace(application.workspaceFlagValue))
		if absoluteError != nil {
			return fmt.Errorf(workspaceFlagErrorTemplateConstant, absoluteError)
		}
		updatedContext = application.commandContextAccessor.WithWorkspaceRoot(updatedContext, workspaceRoot)
	}
	command.SetContext(updatedContext)
	if rootCommand := command.Root(); rootCommand != nil {
		rootCommand.SetContext(updatedContext)
	}

	return nil
}

// createLogger builds a console logger writing to stderr or a structured one, then tees it into
// the configured log file.
func (application *Application) createLogger(command *cobra.Command) error {
	logLevel := utils.LogLevel(strings.TrimSpace(application.configuration.Common.LogLevel))

	var logWriter io.Writer = os.Stderr
	if command != nil {
		logWriter = command.ErrOrStderr()
	}

	var logger *zap.Logger
	var creationError error
	if application.humanReadableLoggingEnabled() {
		logger, creationError = application.loggerFactory.CreateConsoleLogger(logLevel, logWriter)
	} else {
		logger, creationError = application.loggerFactory.CreateLogger(logLevel, utils.LogFormat(strings.TrimSpace(application.configuration.Common.LogFormat)), logWriter)
	}
	if creationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, creationError)
	}

	logFilePath := strings.TrimSpace(application.configuration.Common.LogFile)
	if len(logFilePath) > 0 {
		teedLogger, closer, attachError := application.loggerFactory.AttachLogFile(logger, logLevel, utils.LogFileSettings{Path: logFilePath})
		if attachError != nil {
			return fmt.Errorf(logFileAttachErrorTemplateConstant, attachError)
		}
		logger = teedLogger
		application.logFileCloser = closer
	}

	application.logger = logger
	return nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	for _, unsyncableTarget := range unsyncableLogTargetErrors {
		if errors.Is(syncError, unsyncableTarget) {
			return nil
		}
	}
	return syncError
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	for _, flagSet := range []*pflag.FlagSet{command.PersistentFlags(), command.InheritedFlags(), command.Root().PersistentFlags()} {
		if flagSet != nil && flagSet.Changed(flagName) {
			return true
		}
	}
	return false
}
