package vcs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/temirov/repofleet/internal/execshell"
	"github.com/temirov/repofleet/internal/repos/shared"
)

const (
	workingCopyPathRequiredMessageConstant  = "working copy path must be provided"
	branchNameRequiredMessageConstant       = "branch name must be provided"
	commitMessageRequiredMessageConstant    = "commit message must be provided"
	gitExecutorMissingMessageConstant       = "git executor not configured"
	nothingToCommitMessageConstant          = "nothing staged to commit"
	branchNotFoundTemplateConstant          = "branch %q does not exist locally or on any remote"
	invalidBranchNameTemplateConstant       = "invalid branch name %q: must not start with %q"
	optionPrefixConstant                    = "-"
	gitCloneFailureTemplateConstant         = "failed to clone %s: %w"
	gitStageFailureTemplateConstant         = "failed to stage changes: %w"
	gitCommitFailureTemplateConstant        = "failed to commit: %w"
	gitSwitchFailureTemplateConstant        = "failed to switch to branch %q: %w"
	gitCreateBranchFailureTemplateConstant  = "failed to create branch %q: %w"
	gitBranchLookupFailureTemplateConstant  = "failed to look up branch %q: %w"
	gitPullFailureTemplateConstant          = "failed to pull: %w"
	gitPushFailureTemplateConstant          = "failed to push %s to %s: %w"
	gitCurrentBranchFailureTemplateConstant = "failed to resolve current branch: %w"
	gitStatusFailureTemplateConstant        = "failed to read status: %w"

	gitCloneSubcommandConstant           = "clone"
	gitEndOfOptionsConstant              = "--"
	gitAddSubcommandConstant             = "add"
	gitAddAllFlagConstant                = "--all"
	gitCommitSubcommandConstant          = "commit"
	gitMessageFlagConstant               = "-m"
	gitDiffSubcommandConstant            = "diff"
	gitCachedFlagConstant                = "--cached"
	gitQuietFlagConstant                 = "--quiet"
	gitSwitchSubcommandConstant          = "switch"
	gitCreateBranchFlagConstant          = "-c"
	gitForEachRefSubcommandConstant      = "for-each-ref"
	gitRefNameFormatFlagConstant         = "--format=%(refname)"
	gitPullSubcommandConstant            = "pull"
	gitPushSubcommandConstant            = "push"
	gitSymbolicRefSubcommandConstant     = "symbolic-ref"
	gitShortFlagConstant                 = "--short"
	gitHeadReferenceConstant             = "HEAD"
	gitStatusSubcommandConstant          = "status"
	gitPorcelainV2FlagConstant           = "--porcelain=v2"
	gitBranchFlagConstant                = "--branch"
	localBranchReferencePrefixConstant   = "refs/heads/"
	remoteBranchReferencePrefixConstant  = "refs/remotes/"
	remoteBranchReferencePatternConstant = "refs/remotes/*/"
	referenceSeparatorConstant           = "/"
	detachedHeadExitCodeConstant         = 1
	differencesFoundExitCodeConstant     = 1
)

// ErrWorkingCopyPathRequired indicates the adapter was constructed without a path.
var ErrWorkingCopyPathRequired = errors.New(workingCopyPathRequiredMessageConstant)

// ErrBranchNameRequired indicates an empty branch name.
var ErrBranchNameRequired = errors.New(branchNameRequiredMessageConstant)

// ErrCommitMessageRequired indicates an empty commit message.
var ErrCommitMessageRequired = errors.New(commitMessageRequiredMessageConstant)

// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrNothingToCommit indicates the index matches HEAD so no commit was created.
var ErrNothingToCommit = errors.New(nothingToCommitMessageConstant)

// BranchNotFoundError reports a branch that exists neither locally nor as a remote-tracking branch.
type BranchNotFoundError struct {
	BranchName string
}

// Error describes the missing branch.
func (failure BranchNotFoundError) Error() string {
	return fmt.Sprintf(branchNotFoundTemplateConstant, failure.BranchName)
}

// InvalidBranchNameError reports a branch name git would read as an option.
type InvalidBranchNameError struct {
	BranchName string
}

// Error describes the rejected name.
func (failure InvalidBranchNameError) Error() string {
	return fmt.Sprintf(invalidBranchNameTemplateConstant, failure.BranchName, optionPrefixConstant)
}

// ValidateBranchName rejects empty names and names starting with "-".
func ValidateBranchName(branchName string) error {
	if len(branchName) == 0 {
		return ErrBranchNameRequired
	}
	if strings.HasPrefix(branchName, optionPrefixConstant) {
		return InvalidBranchNameError{BranchName: branchName}
	}
	return nil
}

// Adapter performs git operations against a single working copy.
type Adapter struct {
	executor        shared.GitExecutor
	workingCopyPath string
	remoteName      string
}

// NewAdapter binds an adapter to workingCopyPath. An empty remoteName selects origin.
func NewAdapter(executor shared.GitExecutor, workingCopyPath string, remoteName string) (*Adapter, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	trimmedPath := strings.TrimSpace(workingCopyPath)
	if len(trimmedPath) == 0 {
		return nil, ErrWorkingCopyPathRequired
	}
	trimmedRemote := strings.TrimSpace(remoteName)
	if len(trimmedRemote) == 0 {
		trimmedRemote = shared.OriginRemoteNameConstant
	}
	return &Adapter{executor: executor, workingCopyPath: trimmedPath, remoteName: trimmedRemote}, nil
}

// Path returns the working copy location.
func (adapter *Adapter) Path() string {
	return adapter.workingCopyPath
}

// Clone clones repositoryURL into the adapter's path. The parent directory must already exist.
func (adapter *Adapter) Clone(executionContext context.Context, repositoryURL string) error {
	_, cloneError := adapter.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitCloneSubcommandConstant, gitEndOfOptionsConstant, repositoryURL, adapter.workingCopyPath},
		WorkingDirectory: filepath.Dir(adapter.workingCopyPath),
	})
	if cloneError != nil {
		return fmt.Errorf(gitCloneFailureTemplateConstant, repositoryURL, cloneError)
	}
	return nil
}

// StageAll stages every change in the working copy, including deletions and untracked files.
func (adapter *Adapter) StageAll(executionContext context.Context) error {
	if _, stageError := adapter.git(executionContext, gitAddSubcommandConstant, gitAddAllFlagConstant); stageError != nil {
		return fmt.Errorf(gitStageFailureTemplateConstant, stageError)
	}
	return nil
}

// Commit records the staged changes. ErrNothingToCommit is returned when nothing is staged.
func (adapter *Adapter) Commit(executionContext context.Context, message string) error {
	if len(strings.TrimSpace(message)) == 0 {
		return ErrCommitMessageRequired
	}

	hasStagedChanges, inspectError := adapter.hasStagedChanges(executionContext)
	if inspectError != nil {
		return fmt.Errorf(gitCommitFailureTemplateConstant, inspectError)
	}
	if !hasStagedChanges {
		return ErrNothingToCommit
	}

	if _, commitError := adapter.git(executionContext, gitCommitSubcommandConstant, gitMessageFlagConstant, message); commitError != nil {
		return fmt.Errorf(gitCommitFailureTemplateConstant, commitError)
	}
	return nil
}

// hasStagedChanges relies on git diff exiting with 1 when the index differs from HEAD.
func (adapter *Adapter) hasStagedChanges(executionContext context.Context) (bool, error) {
	_, diffError := adapter.git(executionContext, gitDiffSubcommandConstant, gitCachedFlagConstant, gitQuietFlagConstant)
	if diffError == nil {
		return false, nil
	}
	var commandFailure execshell.CommandFailedError
	if errors.As(diffError, &commandFailure) && commandFailure.Result.ExitCode == differencesFoundExitCodeConstant {
		return true, nil
	}
	return false, diffError
}

// CheckoutOrCreate switches to branchName, creating it from the current HEAD when no local or
// remote-tracking branch of that name exists. Any other switch failure is returned unchanged.
func (adapter *Adapter) CheckoutOrCreate(executionContext context.Context, branchName string) (bool, error) {
	trimmedBranchName := strings.TrimSpace(branchName)
	if validationError := ValidateBranchName(trimmedBranchName); validationError != nil {
		return false, validationError
	}

	switchError := adapter.switchBranch(executionContext, trimmedBranchName)
	if switchError == nil {
		return false, nil
	}

	classifiedError := adapter.classifySwitchFailure(executionContext, trimmedBranchName, switchError)
	var notFound BranchNotFoundError
	if !errors.As(classifiedError, &notFound) {
		return false, classifiedError
	}

	if _, createError := adapter.git(executionContext, gitSwitchSubcommandConstant, gitCreateBranchFlagConstant, trimmedBranchName); createError != nil {
		return false, fmt.Errorf(gitCreateBranchFailureTemplateConstant, trimmedBranchName, createError)
	}
	return true, nil
}

func (adapter *Adapter) switchBranch(executionContext context.Context, branchName string) error {
	if _, switchError := adapter.git(executionContext, gitSwitchSubcommandConstant, branchName); switchError != nil {
		return fmt.Errorf(gitSwitchFailureTemplateConstant, branchName, switchError)
	}
	return nil
}

// classifySwitchFailure returns BranchNotFoundError when no ref named branchName exists,
// otherwise the original switch failure.
func (adapter *Adapter) classifySwitchFailure(executionContext context.Context, branchName string, switchError error) error {
	var commandFailure execshell.CommandFailedError
	if !errors.As(switchError, &commandFailure) {
		return switchError
	}

	lookupResult, lookupError := adapter.git(
		executionContext,
		gitForEachRefSubcommandConstant,
		gitRefNameFormatFlagConstant,
		localBranchReferencePrefixConstant+branchName,
		remoteBranchReferencePatternConstant+branchName,
	)
	if lookupError != nil {
		return fmt.Errorf(gitBranchLookupFailureTemplateConstant, branchName, lookupError)
	}

	for _, referenceName := range strings.Split(lookupResult.StandardOutput, "\n") {
		if referenceMatchesBranch(strings.TrimSpace(referenceName), branchName) {
			return switchError
		}
	}
	return BranchNotFoundError{BranchName: branchName}
}

// referenceMatchesBranch rejects the prefix matches for-each-ref also reports, such as refs/heads/a/b for a.
func referenceMatchesBranch(referenceName string, branchName string) bool {
	if referenceName == localBranchReferencePrefixConstant+branchName {
		return true
	}
	if !strings.HasPrefix(referenceName, remoteBranchReferencePrefixConstant) {
		return false
	}
	remoteAndBranch := strings.TrimPrefix(referenceName, remoteBranchReferencePrefixConstant)
	remoteName, remoteBranch, found := strings.Cut(remoteAndBranch, referenceSeparatorConstant)
	return found && len(remoteName) > 0 && remoteBranch == branchName
}

// Pull fetches and integrates the upstream of the current branch.
func (adapter *Adapter) Pull(executionContext context.Context) error {
	if _, pullError := adapter.git(executionContext, gitPullSubcommandConstant); pullError != nil {
		return fmt.Errorf(gitPullFailureTemplateConstant, pullError)
	}
	return nil
}

// CurrentBranch returns the checked out branch, or an empty name when HEAD is detached.
func (adapter *Adapter) CurrentBranch(executionContext context.Context) (string, error) {
	result, branchError := adapter.git(executionContext, gitSymbolicRefSubcommandConstant, gitQuietFlagConstant, gitShortFlagConstant, gitHeadReferenceConstant)
	if branchError != nil {
		var commandFailure execshell.CommandFailedError
		if errors.As(branchError, &commandFailure) && commandFailure.Result.ExitCode == detachedHeadExitCodeConstant && len(strings.TrimSpace(commandFailure.Result.StandardOutput)) == 0 {
			return "", nil
		}
		return "", fmt.Errorf(gitCurrentBranchFailureTemplateConstant, branchError)
	}
	return strings.TrimSpace(result.StandardOutput), nil
}

// PushCurrentBranch pushes the current branch to the configured remote and returns its name.
// A detached HEAD is not an error: nothing is pushed and the returned name is empty.
func (adapter *Adapter) PushCurrentBranch(executionContext context.Context) (string, error) {
	branchName, branchError := adapter.CurrentBranch(executionContext)
	if branchError != nil {
		return "", branchError
	}
	if len(branchName) == 0 {
		return "", nil
	}

	if _, pushError := adapter.git(executionContext, gitPushSubcommandConstant, adapter.remoteName, branchName); pushError != nil {
		return "", fmt.Errorf(gitPushFailureTemplateConstant, branchName, adapter.remoteName, pushError)
	}
	return branchName, nil
}

// Status summarizes the working copy against its tracking branch.
func (adapter *Adapter) Status(executionContext context.Context) (StatusReport, error) {
	result, statusError := adapter.git(executionContext, gitStatusSubcommandConstant, gitPorcelainV2FlagConstant, gitBranchFlagConstant)
	if statusError != nil {
		return StatusReport{}, fmt.Errorf(gitStatusFailureTemplateConstant, statusError)
	}
	report, parseError := ParseStatus(result.StandardOutput)
	if parseError != nil {
		return StatusReport{}, fmt.Errorf(gitStatusFailureTemplateConstant, parseError)
	}
	return report, nil
}

func (adapter *Adapter) git(executionContext context.Context, arguments ...string) (execshell.ExecutionResult, error) {
	return adapter.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: adapter.workingCopyPath,
	})
}
