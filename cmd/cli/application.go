package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/repofleet/internal/fleet"
	"github.com/temirov/repofleet/internal/utils"
	"github.com/temirov/repofleet/internal/utils/flags"
)

const (
	applicationNameConstant                 = "repofleet"
	applicationShortDescriptionConstant     = "Run git operations across a fleet of component repositories"
	applicationLongDescriptionConstant      = "repofleet clones the components listed in a catalog, remembers where each one lives and runs the same git operation across all of them at once."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	fleetConfigurationKeyConstant           = "fleet"
	environmentPrefixConstant               = "REPOFLEET"
	applicationDirectoryNameConstant        = "repofleet"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	commandBuildErrorTemplateConstant       = "unable to build commands: %w"
	rootCommandInfoMessageConstant          = "repofleet executed without a command"
	logFieldCommandNameConstant             = "command_name"
	availableCommandsHeaderConstant         = "Available commands:"
	availableCommandsSeparatorConstant      = ", "
	unknownCommandTemplateConstant          = "Unknown command: %s"
	errorOutputTemplateConstant             = "%v\n"
	helpCommandNameConstant                 = "help"
)

// Process exit codes.
const (
	ExitCodeSuccess         = 0
	ExitCodeFailure         = 1
	ExitCodeValidationError = 2
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Fleet  fleet.Configuration            `mapstructure:"fleet"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// UsageError reports a malformed invocation such as an unknown command, flag or argument.
type UsageError struct {
	Message string
}

// Error returns the usage problem.
func (failure UsageError) Error() string {
	return failure.Message
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	concurrencyFlagValue  int
	commandBuildError     error
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		utils.DefaultSearchPaths(applicationDirectoryNameConstant),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          rejectUnknownCommand,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command)
		},
	}
	cobraCommand.CompletionOptions.DisableDefaultCmd = true
	cobraCommand.SetFlagErrorFunc(func(_ *cobra.Command, flagError error) error {
		return UsageError{Message: flagError.Error()}
	})

	persistentFlags := cobraCommand.PersistentFlags()
	persistentFlags.StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	flags.AddChoiceFlag(persistentFlags, &application.logLevelFlagValue, logLevelFlagNameConstant, string(utils.LogLevelError), utils.LogLevels(), logLevelFlagUsageConstant)
	flags.AddChoiceFlag(persistentFlags, &application.logFormatFlagValue, logFormatFlagNameConstant, string(utils.LogFormatConsole), utils.LogFormats(), logFormatFlagUsageConstant)
	persistentFlags.IntVar(&application.concurrencyFlagValue, flags.ConcurrencyFlagName, 0, flags.ConcurrencyFlagUsage)

	fleetBuilder := fleet.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		ConfigurationProvider: func() fleet.Configuration {
			return application.configuration.Fleet
		},
	}
	fleetCommands, fleetBuildError := fleetBuilder.Build()
	if fleetBuildError != nil {
		application.commandBuildError = fmt.Errorf(commandBuildErrorTemplateConstant, fleetBuildError)
	}
	for _, fleetCommand := range fleetCommands {
		fleetCommand.Args = reportArgumentErrorsAsUsage(fleetCommand.Args)
		cobraCommand.AddCommand(fleetCommand)
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
// A failure to assemble the commands is returned before anything runs.
func (application *Application) Execute() error {
	if application.commandBuildError != nil {
		return application.commandBuildError
	}
	executionError := application.rootCommand.ExecuteContext(context.Background())
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Run executes one invocation and returns the process exit code. arguments[0] is the program name.
func Run(arguments []string, input io.Reader, output io.Writer, errorOutput io.Writer) int {
	application := NewApplication()
	if len(arguments) > 0 {
		arguments = arguments[1:]
	}
	application.rootCommand.SetArgs(arguments)
	application.rootCommand.SetIn(input)
	application.rootCommand.SetOut(output)
	application.rootCommand.SetErr(errorOutput)

	executionError := application.Execute()
	if executionError != nil {
		fmt.Fprintf(errorOutput, errorOutputTemplateConstant, executionError)
	}
	return ExitCode(executionError)
}

// ExitCode maps an execution error onto the process exit code: validation and usage problems
// exit with 2, component failures and runtime errors with 1.
func ExitCode(executionError error) int {
	if executionError == nil {
		return ExitCodeSuccess
	}
	var validationError fleet.ValidationError
	var usageError UsageError
	if errors.As(executionError, &validationError) || errors.As(executionError, &usageError) {
		return ExitCodeValidationError
	}
	return ExitCodeFailure
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelError),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatConsole),
	}
	for configurationKey, configurationValue := range fleet.DefaultConfigurationValues(fleetConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	if application.persistentFlagChanged(command, flags.ConcurrencyFlagName) {
		application.configuration.Fleet.Concurrency = application.concurrencyFlagValue
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
		command.ErrOrStderr(),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	return nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) runRootCommand(command *cobra.Command) error {
	application.logger.Info(rootCommandInfoMessageConstant, zap.String(logFieldCommandNameConstant, command.Name()))

	commandNames := make([]string, 0, len(command.Commands()))
	for _, subcommand := range command.Commands() {
		if !subcommand.IsAvailableCommand() || subcommand.Name() == helpCommandNameConstant {
			continue
		}
		commandNames = append(commandNames, subcommand.Name())
	}

	fmt.Fprintln(command.OutOrStdout(), availableCommandsHeaderConstant)
	fmt.Fprintln(command.OutOrStdout(), strings.Join(commandNames, availableCommandsSeparatorConstant))
	return nil
}

func rejectUnknownCommand(_ *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return UsageError{Message: fmt.Sprintf(unknownCommandTemplateConstant, arguments[0])}
	}
	return nil
}

func reportArgumentErrorsAsUsage(validate cobra.PositionalArgs) cobra.PositionalArgs {
	if validate == nil {
		return nil
	}
	return func(command *cobra.Command, arguments []string) error {
		if validationError := validate(command, arguments); validationError != nil {
			return UsageError{Message: validationError.Error()}
		}
		return nil
	}
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
