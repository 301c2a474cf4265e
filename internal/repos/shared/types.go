package shared

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/temirov/gitstat/internal/execshell"
)

const (
	// GitMetadataEntryNameConstant names the directory, or worktree file, that marks a repository root.
	GitMetadataEntryNameConstant    = ".git"
	trailingSlashCharactersConstant = "/"
)

// RepoDescriptor identifies one repository to inspect. Empty strings mean absent.
type RepoDescriptor struct {
	Path                string
	TrackedName         string
	ExpectedUpstreamURL string
	Ignored             bool
}

// DisplayName returns the tracked name when present and the base of the path otherwise.
func (descriptor RepoDescriptor) DisplayName() string {
	trimmedName := strings.TrimSpace(descriptor.TrackedName)
	if len(trimmedName) > 0 {
		return trimmedName
	}
	return filepath.Base(descriptor.Path)
}

// HasExpectedUpstreamURL reports whether the descriptor carries an expected remote URL.
func (descriptor RepoDescriptor) HasExpectedUpstreamURL() bool {
	return len(strings.TrimSpace(descriptor.ExpectedUpstreamURL)) > 0
}

// NormalizeRemoteURL trims whitespace and trailing slashes so equivalent URLs compare equal.
func NormalizeRemoteURL(remoteURL string) string {
	return strings.TrimRight(strings.TrimSpace(remoteURL), trailingSlashCharactersConstant)
}

// FileSystem exposes filesystem operations required by repository services.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	Abs(path string) (string, error)
	EvalSymlinks(path string) (string, error)
	MkdirAll(path string, permissions fs.FileMode) error
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, permissions fs.FileMode) error
	Rename(oldPath string, newPath string) error
}

// GitExecutor exposes the subset of shell execution used by repository services.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryDiscoverer locates Git repositories for bulk operations.
type RepositoryDiscoverer interface {
	DiscoverRepositories(roots []string) ([]string, error)
}

// RepositoryPathResolver canonicalizes a user supplied path into a repository root.
type RepositoryPathResolver interface {
	Resolve(rawPath string) (string, error)
}
