package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/repofleet/internal/catalog"
	"github.com/temirov/repofleet/internal/registry"
	"github.com/temirov/repofleet/internal/repos/shared"
	"github.com/temirov/repofleet/internal/vcs"
)

const (
	workingCopyFactoryMissingMessageConstant    = "batch executor working copy factory not configured"
	registryMissingMessageConstant              = "batch executor registry not configured"
	fileSystemMissingMessageConstant            = "batch executor file system not configured"
	unsupportedOperationTemplateConstant        = "unsupported operation %q"
	taskPanicTemplateConstant                   = "task panicked: %v"
	registryLookupFailureTemplateConstant       = "failed to read registry entry: %w"
	registryWriteFailureTemplateConstant        = "cloned but failed to record registry entry: %w"
	directoryPreparationFailureTemplateConstant = "failed to prepare %s: %w"
	absolutePathFailureTemplateConstant         = "failed to resolve absolute path: %w"
	registryClearFailureTemplateConstant        = "failed to clear registry: %w"
	removeDirectoryFailureTemplateConstant      = "failed to remove %s: %w"
	alreadyClonedReasonConstant                 = "already cloned"
	nothingToCommitReasonConstant               = "nothing to commit"
	branchCreatedDetailConstant                 = "created"
	detachedHeadDetailConstant                  = "detached HEAD, nothing pushed"
	concurrencyMultiplierConstant               = 2
	logFieldOperationConstant                   = "operation"
	logFieldComponentCodeConstant               = "component_code"
	logFieldComponentNameConstant               = "component_name"
	logFieldOutcomeConstant                     = "outcome"
	logFieldConcurrencyConstant                 = "concurrency"
	logFieldTaskCountConstant                   = "task_count"
	logFieldSucceededConstant                   = "succeeded"
	logFieldFailedConstant                      = "failed"
	logFieldSkippedConstant                     = "skipped"
	taskStartedLogMessageConstant               = "component task started"
	taskSettledLogMessageConstant               = "component task settled"
	batchStartedLogMessageConstant              = "batch dispatched"
	batchSettledLogMessageConstant              = "batch settled"
)

// ErrWorkingCopyFactoryNotConfigured indicates the executor was built without a working copy factory.
var ErrWorkingCopyFactoryNotConfigured = errors.New(workingCopyFactoryMissingMessageConstant)

// ErrRegistryNotConfigured indicates the executor was built without a registry.
var ErrRegistryNotConfigured = errors.New(registryMissingMessageConstant)

// ErrFileSystemNotConfigured indicates the executor was built without a file system.
var ErrFileSystemNotConfigured = errors.New(fileSystemMissingMessageConstant)

// OperationKind names a batch operation.
type OperationKind string

// Supported operations.
const (
	OperationAdd      OperationKind = "add"
	OperationCheckout OperationKind = "checkout"
	OperationClone    OperationKind = "clone"
	OperationCommit   OperationKind = "commit"
	OperationPull     OperationKind = "pull"
	OperationPush     OperationKind = "push"
	OperationStatus   OperationKind = "status"
)

// Operation is one batch request. Branch and Message apply to checkout and commit.
type Operation struct {
	Kind    OperationKind
	Branch  string
	Message string
}

// Target identifies one component working copy.
type Target struct {
	Code          string
	Name          string
	Path          string
	RepositoryURL string
}

// WorkingCopy is the version-control surface a task needs.
type WorkingCopy interface {
	Clone(executionContext context.Context, repositoryURL string) error
	StageAll(executionContext context.Context) error
	Commit(executionContext context.Context, message string) error
	CheckoutOrCreate(executionContext context.Context, branchName string) (bool, error)
	Pull(executionContext context.Context) error
	PushCurrentBranch(executionContext context.Context) (string, error)
	Status(executionContext context.Context) (vcs.StatusReport, error)
}

// WorkingCopyFactory binds a WorkingCopy to a path.
type WorkingCopyFactory func(path string) (WorkingCopy, error)

// Registry records cloned components.
type Registry interface {
	Get(code string) (registry.Entry, error)
	Set(code string, entry registry.Entry) error
	Clear() error
}

// ProgressObserver is notified as tasks start and settle. Calls arrive from worker goroutines.
type ProgressObserver interface {
	TaskStarted(operation Operation, target Target)
	TaskSettled(operation Operation, result Result)
}

// Dependencies enumerates collaborators required by the executor.
type Dependencies struct {
	WorkingCopyFactory WorkingCopyFactory
	Registry           Registry
	FileSystem         shared.FileSystem
	Observer           ProgressObserver
	Logger             *zap.Logger
	// Concurrency bounds in-flight tasks. Zero or less selects twice the CPU count.
	Concurrency int
}

// Executor runs one operation across many components with a bounded worker pool.
type Executor struct {
	workingCopyFactory WorkingCopyFactory
	registry           Registry
	fileSystem         shared.FileSystem
	observer           ProgressObserver
	logger             *zap.Logger
	concurrency        int
}

type task func(executionContext context.Context, target Target) Result

// NewExecutor constructs an Executor from the provided dependencies.
func NewExecutor(dependencies Dependencies) (*Executor, error) {
	if dependencies.WorkingCopyFactory == nil {
		return nil, ErrWorkingCopyFactoryNotConfigured
	}
	if dependencies.Registry == nil {
		return nil, ErrRegistryNotConfigured
	}
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := dependencies.Concurrency
	if concurrency <= 0 {
		concurrency = concurrencyMultiplierConstant * runtime.NumCPU()
	}

	return &Executor{
		workingCopyFactory: dependencies.WorkingCopyFactory,
		registry:           dependencies.Registry,
		fileSystem:         dependencies.FileSystem,
		observer:           dependencies.Observer,
		logger:             logger,
		concurrency:        concurrency,
	}, nil
}

// Run applies operation to every target and returns one result per target in input order.
// It returns only after every task has settled.
func (executor *Executor) Run(executionContext context.Context, operation Operation, targets []Target) []Result {
	var perform task
	switch operation.Kind {
	case OperationAdd:
		perform = executor.stageAll
	case OperationCheckout:
		perform = func(taskContext context.Context, target Target) Result {
			return executor.checkout(taskContext, target, operation.Branch)
		}
	case OperationCommit:
		perform = func(taskContext context.Context, target Target) Result {
			return executor.commit(taskContext, target, operation.Message)
		}
	case OperationPull:
		perform = executor.pull
	case OperationPush:
		perform = executor.push
	case OperationStatus:
		perform = executor.status
	default:
		unsupported := fmt.Errorf(unsupportedOperationTemplateConstant, operation.Kind)
		perform = func(context.Context, Target) Result {
			return Result{Outcome: OutcomeFailure, Message: unsupported.Error(), Err: unsupported}
		}
	}
	return executor.dispatch(executionContext, operation, targets, perform)
}

// Clone clones every descriptor under componentsRoot/<type>/<name>. Components already present
// in the registry are skipped; registry entries are written only for successful clones.
func (executor *Executor) Clone(executionContext context.Context, descriptors []catalog.Descriptor, componentsRoot string) []Result {
	targets := make([]Target, 0, len(descriptors))
	for _, descriptor := range descriptors {
		targets = append(targets, Target{
			Code:          descriptor.Code,
			Name:          descriptor.QualifiedName(),
			Path:          filepath.Join(componentsRoot, string(descriptor.Type), descriptor.Name),
			RepositoryURL: descriptor.RepositoryURL,
		})
	}
	return executor.dispatch(executionContext, Operation{Kind: OperationClone}, targets, executor.clone)
}

// Teardown clears the registry and removes the components and metadata roots. Every step is
// attempted; the failures are joined.
func (executor *Executor) Teardown(componentsRoot string, metadataRoot string) error {
	var failures []error
	if clearError := executor.registry.Clear(); clearError != nil {
		failures = append(failures, fmt.Errorf(registryClearFailureTemplateConstant, clearError))
	}
	for _, root := range []string{componentsRoot, metadataRoot} {
		if len(root) == 0 {
			continue
		}
		if removeError := executor.fileSystem.RemoveAll(root); removeError != nil {
			failures = append(failures, fmt.Errorf(removeDirectoryFailureTemplateConstant, root, removeError))
		}
	}
	return errors.Join(failures...)
}

func (executor *Executor) dispatch(executionContext context.Context, operation Operation, targets []Target, perform task) []Result {
	results := make([]Result, len(targets))
	executor.logger.Debug(batchStartedLogMessageConstant,
		zap.String(logFieldOperationConstant, string(operation.Kind)),
		zap.Int(logFieldTaskCountConstant, len(targets)),
		zap.Int(logFieldConcurrencyConstant, executor.concurrency),
	)

	// Tasks never return errors, so the group never cancels siblings.
	var group errgroup.Group
	group.SetLimit(executor.concurrency)
	for targetIndex := range targets {
		group.Go(func() error {
			results[targetIndex] = executor.runIsolated(executionContext, operation, targets[targetIndex], perform)
			return nil
		})
	}
	_ = group.Wait()

	summary := Summarize(results)
	executor.logger.Debug(batchSettledLogMessageConstant,
		zap.String(logFieldOperationConstant, string(operation.Kind)),
		zap.Int(logFieldSucceededConstant, summary.Succeeded),
		zap.Int(logFieldFailedConstant, summary.Failed),
		zap.Int(logFieldSkippedConstant, summary.Skipped),
	)
	return results
}

func (executor *Executor) runIsolated(executionContext context.Context, operation Operation, target Target, perform task) (result Result) {
	fields := []zap.Field{
		zap.String(logFieldOperationConstant, string(operation.Kind)),
		zap.String(logFieldComponentCodeConstant, target.Code),
		zap.String(logFieldComponentNameConstant, target.Name),
	}
	executor.logger.Debug(taskStartedLogMessageConstant, fields...)
	if executor.observer != nil {
		executor.observer.TaskStarted(operation, target)
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			result = failureResult(target, fmt.Errorf(taskPanicTemplateConstant, recovered))
		}
		result.Code, result.Name = target.Code, target.Name
		executor.logger.Debug(taskSettledLogMessageConstant, append(fields, zap.String(logFieldOutcomeConstant, string(result.Outcome)))...)
		if executor.observer != nil {
			executor.observer.TaskSettled(operation, result)
		}
	}()

	return perform(executionContext, target)
}

func (executor *Executor) workingCopy(target Target) (WorkingCopy, error) {
	return executor.workingCopyFactory(target.Path)
}

func (executor *Executor) stageAll(executionContext context.Context, target Target) Result {
	workingCopy, bindError := executor.workingCopy(target)
	if bindError != nil {
		return failureResult(target, bindError)
	}
	if stageError := workingCopy.StageAll(executionContext); stageError != nil {
		return failureResult(target, stageError)
	}
	return successResult(target, "")
}

func (executor *Executor) checkout(executionContext context.Context, target Target, branchName string) Result {
	workingCopy, bindError := executor.workingCopy(target)
	if bindError != nil {
		return failureResult(target, bindError)
	}
	created, checkoutError := workingCopy.CheckoutOrCreate(executionContext, branchName)
	if checkoutError != nil {
		return failureResult(target, checkoutError)
	}
	if created {
		return successResult(target, branchCreatedDetailConstant)
	}
	return successResult(target, "")
}

func (executor *Executor) commit(executionContext context.Context, target Target, message string) Result {
	workingCopy, bindError := executor.workingCopy(target)
	if bindError != nil {
		return failureResult(target, bindError)
	}
	commitError := workingCopy.Commit(executionContext, message)
	switch {
	case commitError == nil:
		return successResult(target, "")
	case errors.Is(commitError, vcs.ErrNothingToCommit):
		return skippedResult(target, nothingToCommitReasonConstant)
	default:
		return failureResult(target, commitError)
	}
}

func (executor *Executor) pull(executionContext context.Context, target Target) Result {
	workingCopy, bindError := executor.workingCopy(target)
	if bindError != nil {
		return failureResult(target, bindError)
	}
	if pullError := workingCopy.Pull(executionContext); pullError != nil {
		return failureResult(target, pullError)
	}
	return successResult(target, "")
}

func (executor *Executor) push(executionContext context.Context, target Target) Result {
	workingCopy, bindError := executor.workingCopy(target)
	if bindError != nil {
		return failureResult(target, bindError)
	}
	pushedBranch, pushError := workingCopy.PushCurrentBranch(executionContext)
	if pushError != nil {
		return failureResult(target, pushError)
	}
	if len(pushedBranch) == 0 {
		return successResult(target, detachedHeadDetailConstant)
	}
	return successResult(target, pushedBranch)
}

func (executor *Executor) status(executionContext context.Context, target Target) Result {
	workingCopy, bindError := executor.workingCopy(target)
	if bindError != nil {
		return failureResult(target, bindError)
	}
	report, statusError := workingCopy.Status(executionContext)
	if statusError != nil {
		return failureResult(target, statusError)
	}
	result := successResult(target, "")
	result.Status = &report
	return result
}

func (executor *Executor) clone(executionContext context.Context, target Target) Result {
	if _, lookupError := executor.registry.Get(target.Code); lookupError == nil {
		return skippedResult(target, alreadyClonedReasonConstant)
	} else if !errors.Is(lookupError, registry.ErrEntryNotFound) {
		return failureResult(target, fmt.Errorf(registryLookupFailureTemplateConstant, lookupError))
	}

	parentDirectory := filepath.Dir(target.Path)
	if mkdirError := executor.fileSystem.MkdirAll(parentDirectory, shared.DirectoryPermissionsConstant); mkdirError != nil {
		return failureResult(target, fmt.Errorf(directoryPreparationFailureTemplateConstant, parentDirectory, mkdirError))
	}

	workingCopy, bindError := executor.workingCopy(target)
	if bindError != nil {
		return failureResult(target, bindError)
	}
	if cloneError := workingCopy.Clone(executionContext, target.RepositoryURL); cloneError != nil {
		return failureResult(target, cloneError)
	}

	absolutePath, absoluteError := executor.fileSystem.Abs(target.Path)
	if absoluteError != nil {
		return failureResult(target, fmt.Errorf(absolutePathFailureTemplateConstant, absoluteError))
	}
	if setError := executor.registry.Set(target.Code, registry.Entry{Code: target.Code, Name: target.Name, Path: absolutePath}); setError != nil {
		return failureResult(target, fmt.Errorf(registryWriteFailureTemplateConstant, setError))
	}
	return successResult(target, "")
}
