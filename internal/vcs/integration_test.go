package vcs_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/repofleet/internal/execshell"
	"github.com/temirov/repofleet/internal/vcs"
)

var isolatedGitEnvironment = map[string]string{
	"GIT_CONFIG_GLOBAL":   os.DevNull,
	"GIT_CONFIG_NOSYSTEM": "1",
	"GIT_AUTHOR_NAME":     "Fleet Tester",
	"GIT_AUTHOR_EMAIL":    "fleet@example.com",
	"GIT_COMMITTER_NAME":  "Fleet Tester",
	"GIT_COMMITTER_EMAIL": "fleet@example.com",
}

type isolatedGitExecutor struct {
	delegate *execshell.ShellExecutor
}

func (executor isolatedGitExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	details.EnvironmentVariables = isolatedGitEnvironment
	return executor.delegate.ExecuteGit(executionContext, details)
}

func newIsolatedGitExecutor(t *testing.T) isolatedGitExecutor {
	t.Helper()
	if _, lookupError := exec.LookPath("git"); lookupError != nil {
		t.Skip("git executable not available")
	}
	shellExecutor, executorError := execshell.NewShellExecutor(zap.NewNop(), execshell.NewOSCommandRunner())
	require.NoError(t, executorError)
	return isolatedGitExecutor{delegate: shellExecutor}
}

func TestAdapterAgainstRealRepository(t *testing.T) {
	executor := newIsolatedGitExecutor(t)
	executionContext := context.Background()

	originPath := filepath.Join(t.TempDir(), "origin.git")
	_, initError := executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{"init", "--bare", "--initial-branch=main", originPath},
		WorkingDirectory: filepath.Dir(originPath),
	})
	require.NoError(t, initError)

	componentsRoot := filepath.Join(t.TempDir(), "api")
	require.NoError(t, os.MkdirAll(componentsRoot, 0o755))
	workingCopyPath := filepath.Join(componentsRoot, "service-one")

	adapter, adapterError := vcs.NewAdapter(executor, workingCopyPath, "")
	require.NoError(t, adapterError)
	require.NoError(t, adapter.Clone(executionContext, originPath))

	_, headError := executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{"symbolic-ref", "HEAD", "refs/heads/main"},
		WorkingDirectory: workingCopyPath,
	})
	require.NoError(t, headError)

	require.NoError(t, os.WriteFile(filepath.Join(workingCopyPath, "README.md"), []byte("service one\n"), 0o644))
	report, statusError := adapter.Status(executionContext)
	require.NoError(t, statusError)
	require.Equal(t, []string{"README.md"}, report.Changes[vcs.CategoryNotAdded])

	require.NoError(t, adapter.StageAll(executionContext))
	require.NoError(t, adapter.Commit(executionContext, "Initial commit"))
	require.ErrorIs(t, adapter.Commit(executionContext, "Nothing new"), vcs.ErrNothingToCommit)

	pushedBranch, pushError := adapter.PushCurrentBranch(executionContext)
	require.NoError(t, pushError)
	require.Equal(t, "main", pushedBranch)

	created, checkoutError := adapter.CheckoutOrCreate(executionContext, "feature")
	require.NoError(t, checkoutError)
	require.True(t, created)

	created, checkoutError = adapter.CheckoutOrCreate(executionContext, "feature")
	require.NoError(t, checkoutError)
	require.False(t, created)

	currentBranch, branchError := adapter.CurrentBranch(executionContext)
	require.NoError(t, branchError)
	require.Equal(t, "feature", currentBranch)

	_, detachError := executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{"switch", "--detach", "HEAD"},
		WorkingDirectory: workingCopyPath,
	})
	require.NoError(t, detachError)

	pushedBranch, pushError = adapter.PushCurrentBranch(executionContext)
	require.NoError(t, pushError)
	require.Empty(t, pushedBranch)

	report, statusError = adapter.Status(executionContext)
	require.NoError(t, statusError)
	require.True(t, report.Clean())
	require.Empty(t, report.Branch)
}
