package fleet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/repofleet/internal/batch"
	"github.com/temirov/repofleet/internal/catalog"
	"github.com/temirov/repofleet/internal/registry"
	"github.com/temirov/repofleet/internal/vcs"
)

const (
	executorMissingMessageConstant       = "fleet service batch executor not configured"
	registryMissingMessageConstant       = "fleet service registry not configured"
	reporterMissingMessageConstant       = "fleet service reporter not configured"
	catalogLoaderMissingMessageConstant  = "fleet service catalog loader not configured"
	branchMissingMessageConstant         = "Branch missing. Provide with --branch=[branch_name]"
	invalidBranchTemplateConstant        = "Invalid branch %q. Branch names cannot start with \"-\""
	commitMessageMissingMessageConstant  = "Commit message missing. Provide with --message=[message]"
	invalidTypeTemplateConstant          = "Invalid type. Pass with --type=[ %s ]"
	componentTypeSeparatorConstant       = " | "
	registryReadFailureTemplateConstant  = "failed to read cloned components: %w"
	catalogLoadFailureTemplateConstant   = "failed to load component catalog: %w"
	teardownFailureTemplateConstant      = "failed to remove components: %w"
	logFieldOperationConstant            = "operation"
	logFieldComponentCountConstant       = "component_count"
	logFieldComponentTypeConstant        = "component_type"
	logMessageBatchCompletedConstant     = "batch completed"
	logMessageCloneDispatchedConstant    = "cloning catalog components"
	logMessageNoComponentsClonedConstant = "no cloned components to operate on"
	logMessageComponentsRemovedConstant  = "components removed"
	logFieldComponentsRootConstant       = "components_root"
	logFieldMetadataRootConstant         = "metadata_root"
)

// ErrExecutorNotConfigured indicates the service was built without a batch executor.
var ErrExecutorNotConfigured = errors.New(executorMissingMessageConstant)

// ErrRegistryNotConfigured indicates the service was built without a registry.
var ErrRegistryNotConfigured = errors.New(registryMissingMessageConstant)

// ErrReporterNotConfigured indicates the service was built without a reporter.
var ErrReporterNotConfigured = errors.New(reporterMissingMessageConstant)

// ErrCatalogLoaderNotConfigured indicates clone was requested without a catalog source.
var ErrCatalogLoaderNotConfigured = errors.New(catalogLoaderMissingMessageConstant)

// Registry lists and records cloned components.
type Registry interface {
	batch.Registry
	Keys() ([]string, error)
	Entries() ([]registry.Entry, error)
}

// Executor dispatches batch operations.
type Executor interface {
	Run(executionContext context.Context, operation batch.Operation, targets []batch.Target) []batch.Result
	Clone(executionContext context.Context, descriptors []catalog.Descriptor, componentsRoot string) []batch.Result
	Teardown(componentsRoot string, metadataRoot string) error
}

// CatalogLoader supplies the component catalog on demand.
type CatalogLoader func() (catalog.Catalog, error)

// Dependencies enumerates collaborators required by the service.
type Dependencies struct {
	Executor       Executor
	Registry       Registry
	Reporter       *Reporter
	CatalogLoader  CatalogLoader
	ComponentsRoot string
	MetadataRoot   string
	Logger         *zap.Logger
}

// Service runs fleet-wide operations against the registered components.
type Service struct {
	executor       Executor
	registry       Registry
	reporter       *Reporter
	catalogLoader  CatalogLoader
	componentsRoot string
	metadataRoot   string
	logger         *zap.Logger
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.Executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if dependencies.Registry == nil {
		return nil, ErrRegistryNotConfigured
	}
	if dependencies.Reporter == nil {
		return nil, ErrReporterNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		executor:       dependencies.Executor,
		registry:       dependencies.Registry,
		reporter:       dependencies.Reporter,
		catalogLoader:  dependencies.CatalogLoader,
		componentsRoot: dependencies.ComponentsRoot,
		metadataRoot:   dependencies.MetadataRoot,
		logger:         logger,
	}, nil
}

// Add stages every change in each cloned component.
func (service *Service) Add(executionContext context.Context) error {
	return service.runOnCloned(executionContext, batch.Operation{Kind: batch.OperationAdd}, nil)
}

// Checkout switches each cloned component to branchName, creating the branch where it does not exist.
func (service *Service) Checkout(executionContext context.Context, branchName string) error {
	trimmedBranchName := strings.TrimSpace(branchName)
	if len(trimmedBranchName) == 0 {
		return ValidationError{Message: branchMissingMessageConstant}
	}
	if vcs.ValidateBranchName(trimmedBranchName) != nil {
		return ValidationError{Message: fmt.Sprintf(invalidBranchTemplateConstant, trimmedBranchName)}
	}
	return service.runOnCloned(executionContext, batch.Operation{Kind: batch.OperationCheckout, Branch: trimmedBranchName}, nil)
}

// Commit records the staged changes of each cloned component with message.
func (service *Service) Commit(executionContext context.Context, message string) error {
	if len(strings.TrimSpace(message)) == 0 {
		return ValidationError{Message: commitMessageMissingMessageConstant}
	}
	return service.runOnCloned(executionContext, batch.Operation{Kind: batch.OperationCommit, Message: message}, nil)
}

// Pull integrates upstream changes into each cloned component.
func (service *Service) Pull(executionContext context.Context) error {
	return service.runOnCloned(executionContext, batch.Operation{Kind: batch.OperationPull}, nil)
}

// Push publishes the current branch of each cloned component.
func (service *Service) Push(executionContext context.Context) error {
	return service.runOnCloned(executionContext, batch.Operation{Kind: batch.OperationPush}, nil)
}

// Status prints a status block for each cloned component in code order.
func (service *Service) Status(executionContext context.Context) error {
	return service.runOnCloned(executionContext, batch.Operation{Kind: batch.OperationStatus}, service.reporter.StatusReports)
}

// Clone clones every catalog component of componentType, or of every type when componentType is empty.
func (service *Service) Clone(executionContext context.Context, componentType string) error {
	var filter []catalog.ComponentType
	header := clonedAllHeaderConstant
	if trimmedType := strings.TrimSpace(componentType); len(trimmedType) > 0 {
		parsedType, parseError := catalog.ParseComponentType(trimmedType)
		if parseError != nil {
			return ValidationError{Message: fmt.Sprintf(invalidTypeTemplateConstant, strings.Join(catalog.ComponentTypeNames(), componentTypeSeparatorConstant))}
		}
		filter = append(filter, parsedType)
		header = fmt.Sprintf(clonedTypeHeaderTemplateConstant, parsedType)
	}

	if service.catalogLoader == nil {
		return ErrCatalogLoaderNotConfigured
	}
	componentCatalog, loadError := service.catalogLoader()
	if loadError != nil {
		return fmt.Errorf(catalogLoadFailureTemplateConstant, loadError)
	}

	descriptors := componentCatalog.Descriptors(filter...)
	service.logger.Debug(logMessageCloneDispatchedConstant,
		zap.String(logFieldOperationConstant, string(batch.OperationClone)),
		zap.String(logFieldComponentTypeConstant, strings.TrimSpace(componentType)),
		zap.Int(logFieldComponentCountConstant, len(descriptors)),
	)

	service.reporter.Line(header)
	results := service.executor.Clone(executionContext, descriptors, service.componentsRoot)
	service.reporter.Line(clonedFooterConstant)
	return service.settle(batch.OperationClone, results)
}

// Cloned lists the codes of every registered component.
func (service *Service) Cloned(context.Context) error {
	codes, keysError := service.registry.Keys()
	if keysError != nil {
		return fmt.Errorf(registryReadFailureTemplateConstant, keysError)
	}
	service.reporter.ClonedEntries(codes)
	return nil
}

// Remove deletes every local working copy together with the registry. It cannot be undone.
func (service *Service) Remove(context.Context) error {
	service.reporter.Line(removingHeaderConstant)
	if teardownError := service.executor.Teardown(service.componentsRoot, service.metadataRoot); teardownError != nil {
		return fmt.Errorf(teardownFailureTemplateConstant, teardownError)
	}
	service.logger.Info(logMessageComponentsRemovedConstant,
		zap.String(logFieldComponentsRootConstant, service.componentsRoot),
		zap.String(logFieldMetadataRootConstant, service.metadataRoot),
	)
	service.reporter.Line(removedFooterConstant)
	return nil
}

// runOnCloned dispatches operation to every registered component. render, when set, sees the
// settled results before the summary line.
func (service *Service) runOnCloned(executionContext context.Context, operation batch.Operation, render func([]batch.Result)) error {
	targets, targetsError := service.clonedTargets()
	if targetsError != nil {
		return targetsError
	}
	if len(targets) == 0 {
		service.logger.Info(logMessageNoComponentsClonedConstant, zap.String(logFieldOperationConstant, string(operation.Kind)))
		service.reporter.Line(noComponentsClonedMessageConstant)
		return nil
	}

	results := service.executor.Run(executionContext, operation, targets)
	if render != nil {
		render(results)
	}
	return service.settle(operation.Kind, results)
}

func (service *Service) clonedTargets() ([]batch.Target, error) {
	entries, entriesError := service.registry.Entries()
	if entriesError != nil {
		return nil, fmt.Errorf(registryReadFailureTemplateConstant, entriesError)
	}
	targets := make([]batch.Target, 0, len(entries))
	for _, entry := range entries {
		targets = append(targets, batch.Target{Code: entry.Code, Name: entry.Name, Path: entry.Path})
	}
	return targets, nil
}

func (service *Service) settle(kind batch.OperationKind, results []batch.Result) error {
	summary := batch.Summarize(results)
	service.reporter.Summary(kind, summary)
	service.logger.Debug(logMessageBatchCompletedConstant,
		zap.String(logFieldOperationConstant, string(kind)),
		zap.Int(logFieldComponentCountConstant, summary.Total()),
	)
	if summary.Failed > 0 {
		return BatchFailureError{Operation: kind, Summary: summary}
	}
	return nil
}
