package fleet

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repofleet/internal/batch"
	"github.com/temirov/repofleet/internal/catalog"
	"github.com/temirov/repofleet/internal/registry"
	"github.com/temirov/repofleet/internal/repos/dependencies"
	"github.com/temirov/repofleet/internal/repos/shared"
	"github.com/temirov/repofleet/internal/utils/flags"
	pathutils "github.com/temirov/repofleet/internal/utils/path"
	"github.com/temirov/repofleet/internal/vcs"
)

const (
	addCommandUseConstant                = "add"
	addCommandShortConstant              = "Stage every change in each cloned component"
	checkoutCommandUseConstant           = "checkout [branch]"
	checkoutCommandShortConstant         = "Switch each cloned component to a branch, creating it where missing"
	checkoutCommandExampleConstant       = "repofleet checkout --branch=feature/login"
	cloneCommandUseConstant              = "clone"
	cloneCommandShortConstant            = "Clone catalog components that are not cloned yet"
	cloneCommandExampleConstant          = "repofleet clone --type=api"
	clonedCommandUseConstant             = "cloned"
	clonedCommandShortConstant           = "List the codes of cloned components"
	commitCommandUseConstant             = "commit"
	commitCommandShortConstant           = "Commit staged changes in each cloned component"
	commitCommandExampleConstant         = "repofleet commit --message=\"Bump versions\""
	pullCommandUseConstant               = "pull"
	pullCommandShortConstant             = "Pull upstream changes into each cloned component"
	pushCommandUseConstant               = "push"
	pushCommandShortConstant             = "Push the current branch of each cloned component"
	removeCommandUseConstant             = "remove"
	removeCommandShortConstant           = "Delete every cloned component and the registry"
	removeCommandLongConstant            = "remove deletes the components directory and the metadata directory. It cannot be undone."
	statusCommandUseConstant             = "status"
	statusCommandShortConstant           = "Show the working copy status of each cloned component"
	commitMessagePromptConstant          = "Commit Message: "
	componentTypeFlagUsagePrefixConstant = "Component type to clone: "
	componentTypeListSeparatorConstant   = ", "
	configurationResolvedLogConstant     = "fleet configuration resolved"
	logFieldCatalogConstant              = "catalog"
	logFieldConcurrencyConstant          = "concurrency"
)

// LoggerProvider yields a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the fleet subcommands.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  shared.GitExecutor
	FileSystem                   shared.FileSystem
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() Configuration
	HomeExpander                 *pathutils.HomeExpander
}

type serviceAction func(executionContext context.Context, service *Service, command *cobra.Command, arguments []string) error

// Build constructs every fleet subcommand in the order they are listed in help output.
func (builder *CommandBuilder) Build() ([]*cobra.Command, error) {
	addCommand := builder.newCommand(addCommandUseConstant, addCommandShortConstant, cobra.NoArgs, func(executionContext context.Context, service *Service, _ *cobra.Command, _ []string) error {
		return service.Add(executionContext)
	})

	checkoutCommand := builder.newCommand(checkoutCommandUseConstant, checkoutCommandShortConstant, cobra.MaximumNArgs(1), nil)
	checkoutCommand.Example = checkoutCommandExampleConstant
	branchFlag := flags.BindStringFlag(checkoutCommand, "", flags.StringFlagDefinition{
		Name:      flags.BranchFlagName,
		Shorthand: flags.BranchFlagShorthand,
		Usage:     flags.BranchFlagUsage,
	})
	checkoutCommand.RunE = builder.run(func(executionContext context.Context, service *Service, _ *cobra.Command, arguments []string) error {
		branchName := branchFlag.Value
		if len(arguments) > 0 && !branchFlag.Changed() {
			branchName = arguments[0]
		}
		return service.Checkout(executionContext, branchName)
	})

	cloneCommand := builder.newCommand(cloneCommandUseConstant, cloneCommandShortConstant, cobra.NoArgs, nil)
	cloneCommand.Example = cloneCommandExampleConstant
	typeFlag := flags.BindStringFlag(cloneCommand, "", flags.StringFlagDefinition{
		Name:      flags.ComponentTypeFlagName,
		Shorthand: flags.ComponentTypeFlagShorthand,
		Usage:     componentTypeFlagUsagePrefixConstant + strings.Join(catalog.ComponentTypeNames(), componentTypeListSeparatorConstant),
	})
	cloneCommand.RunE = builder.run(func(executionContext context.Context, service *Service, _ *cobra.Command, _ []string) error {
		return service.Clone(executionContext, typeFlag.Value)
	})

	clonedCommand := builder.newCommand(clonedCommandUseConstant, clonedCommandShortConstant, cobra.NoArgs, func(executionContext context.Context, service *Service, _ *cobra.Command, _ []string) error {
		return service.Cloned(executionContext)
	})

	commitCommand := builder.newCommand(commitCommandUseConstant, commitCommandShortConstant, cobra.NoArgs, nil)
	commitCommand.Example = commitCommandExampleConstant
	messageFlag := flags.BindStringFlag(commitCommand, "", flags.StringFlagDefinition{
		Name:      flags.MessageFlagName,
		Shorthand: flags.MessageFlagShorthand,
		Usage:     flags.MessageFlagUsage,
	})
	commitCommand.RunE = builder.run(func(executionContext context.Context, service *Service, command *cobra.Command, _ []string) error {
		message := messageFlag.Value
		if !messageFlag.Changed() {
			prompted, promptError := promptCommitMessage(command.InOrStdin(), command.OutOrStdout())
			if promptError != nil {
				return promptError
			}
			message = prompted
		}
		return service.Commit(executionContext, message)
	})

	pullCommand := builder.newCommand(pullCommandUseConstant, pullCommandShortConstant, cobra.NoArgs, func(executionContext context.Context, service *Service, _ *cobra.Command, _ []string) error {
		return service.Pull(executionContext)
	})

	pushCommand := builder.newCommand(pushCommandUseConstant, pushCommandShortConstant, cobra.NoArgs, func(executionContext context.Context, service *Service, _ *cobra.Command, _ []string) error {
		return service.Push(executionContext)
	})

	removeCommand := builder.newCommand(removeCommandUseConstant, removeCommandShortConstant, cobra.NoArgs, func(executionContext context.Context, service *Service, _ *cobra.Command, _ []string) error {
		return service.Remove(executionContext)
	})
	removeCommand.Long = removeCommandLongConstant

	statusCommand := builder.newCommand(statusCommandUseConstant, statusCommandShortConstant, cobra.NoArgs, func(executionContext context.Context, service *Service, _ *cobra.Command, _ []string) error {
		return service.Status(executionContext)
	})

	return []*cobra.Command{
		addCommand,
		checkoutCommand,
		cloneCommand,
		clonedCommand,
		commitCommand,
		pullCommand,
		pushCommand,
		removeCommand,
		statusCommand,
	}, nil
}

func (builder *CommandBuilder) newCommand(use string, short string, arguments cobra.PositionalArgs, action serviceAction) *cobra.Command {
	command := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  arguments,
	}
	if action != nil {
		command.RunE = builder.run(action)
	}
	return command
}

func (builder *CommandBuilder) run(action serviceAction) func(*cobra.Command, []string) error {
	return func(command *cobra.Command, arguments []string) error {
		service, release, serviceError := builder.buildService(command)
		if serviceError != nil {
			return serviceError
		}
		actionError := action(command.Context(), service, command, arguments)
		return errors.Join(actionError, release())
	}
}

// buildService wires a Service for one invocation. The returned release function closes the registry.
func (builder *CommandBuilder) buildService(command *cobra.Command) (*Service, func() error, error) {
	logger := builder.resolveLogger()
	configuration, configurationError := builder.resolveConfiguration().Resolve(builder.HomeExpander)
	if configurationError != nil {
		return nil, nil, configurationError
	}
	logger.Debug(configurationResolvedLogConstant,
		zap.String(logFieldCatalogConstant, configuration.CatalogPath),
		zap.String(logFieldComponentsRootConstant, configuration.ComponentsRoot),
		zap.String(logFieldMetadataRootConstant, configuration.MetadataRoot),
		zap.Int(logFieldConcurrencyConstant, configuration.Concurrency),
	)

	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}
	gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger, humanReadableLogging)
	if executorError != nil {
		return nil, nil, executorError
	}

	store, storeError := registry.NewStore(configuration.MetadataRoot, registry.NamespaceCloned, logger)
	if storeError != nil {
		return nil, nil, storeError
	}

	reporter := NewReporter(command.OutOrStdout(), command.ErrOrStderr())
	remoteName := configuration.RemoteName
	executor, executorBuildError := batch.NewExecutor(batch.Dependencies{
		WorkingCopyFactory: func(path string) (batch.WorkingCopy, error) {
			adapter, adapterError := vcs.NewAdapter(gitExecutor, path, remoteName)
			if adapterError != nil {
				return nil, adapterError
			}
			return adapter, nil
		},
		Registry:    store,
		FileSystem:  dependencies.ResolveFileSystem(builder.FileSystem),
		Observer:    reporter,
		Logger:      logger,
		Concurrency: configuration.Concurrency,
	})
	if executorBuildError != nil {
		return nil, nil, errors.Join(executorBuildError, store.Close())
	}

	catalogPath := configuration.CatalogPath
	service, serviceError := NewService(Dependencies{
		Executor: executor,
		Registry: store,
		Reporter: reporter,
		CatalogLoader: func() (catalog.Catalog, error) {
			return catalog.Load(catalogPath)
		},
		ComponentsRoot: configuration.ComponentsRoot,
		MetadataRoot:   configuration.MetadataRoot,
		Logger:         logger,
	})
	if serviceError != nil {
		return nil, nil, errors.Join(serviceError, store.Close())
	}
	return service, store.Close, nil
}

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return DefaultConfiguration()
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func promptCommitMessage(input io.Reader, output io.Writer) (string, error) {
	return NewIOMessagePrompter(input, output).Prompt(commitMessagePromptConstant)
}
