package shared

import (
	"context"
	"io/fs"

	"github.com/temirov/repofleet/internal/execshell"
)

const (
	// OriginRemoteNameConstant identifies the remote component branches are pushed to by default.
	OriginRemoteNameConstant = "origin"
	// DirectoryPermissionsConstant is applied to directories created for components and metadata.
	DirectoryPermissionsConstant fs.FileMode = 0o755
)

// FileSystem exposes the filesystem operations required by fleet services.
type FileSystem interface {
	Abs(path string) (string, error)
	MkdirAll(path string, permissions fs.FileMode) error
	RemoveAll(path string) error
}

// GitExecutor exposes the subset of shell execution used by component adapters.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}
