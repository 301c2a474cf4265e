package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/temirov/gitstat/internal/gitquery"
	"github.com/temirov/gitstat/internal/repos/filesystem"
	"github.com/temirov/gitstat/internal/repos/shared"
	pathutils "github.com/temirov/gitstat/internal/utils/path"
)

const (
	emptyPathDiagnosticConstant                  = "empty repository path"
	pathNotFoundDiagnosticTemplateConstant       = "path not found: %s"
	missingGitMetadataDiagnosticTemplateConstant = "no %s entry in %s"
	notDirectoryDiagnosticTemplateConstant       = "not a directory: %s"
	pathAccessDiagnosticTemplateConstant         = "cannot access %s: %v"
	absolutePathDiagnosticTemplateConstant       = "cannot make %s absolute: %v"
)

// RepositoryResolver canonicalizes user supplied paths into repository roots.
// It never walks upward: a path inside a repository that is not its root is rejected.
type RepositoryResolver struct {
	fileSystem   shared.FileSystem
	homeExpander *pathutils.HomeExpander
}

// NewRepositoryResolver constructs a resolver. Nil collaborators fall back to OS defaults.
func NewRepositoryResolver(fileSystem shared.FileSystem, homeExpander *pathutils.HomeExpander) *RepositoryResolver {
	if fileSystem == nil {
		fileSystem = filesystem.OSFileSystem{}
	}
	if homeExpander == nil {
		homeExpander = pathutils.NewHomeExpander()
	}
	return &RepositoryResolver{fileSystem: fileSystem, homeExpander: homeExpander}
}

// Resolve returns the absolute, symlink free repository root for rawPath.
// Failures are *gitquery.RepositoryError values of kind not_a_git_repo or permission_denied.
func (resolver *RepositoryResolver) Resolve(rawPath string) (string, error) {
	trimmedPath := strings.TrimSpace(rawPath)
	if len(trimmedPath) == 0 {
		return "", gitquery.NewRepositoryError(gitquery.ErrorKindNotAGitRepository, emptyPathDiagnosticConstant)
	}

	absolutePath, absoluteError := resolver.fileSystem.Abs(resolver.homeExpander.Expand(trimmedPath))
	if absoluteError != nil {
		return "", gitquery.NewRepositoryError(gitquery.ErrorKindUnknown, fmt.Sprintf(absolutePathDiagnosticTemplateConstant, trimmedPath, absoluteError))
	}

	resolvedPath, resolveError := resolver.fileSystem.EvalSymlinks(absolutePath)
	if resolveError != nil {
		return "", describeAccessFailure(absolutePath, resolveError)
	}

	candidateRoot := filepath.Clean(resolvedPath)
	if filepath.Base(candidateRoot) == shared.GitMetadataEntryNameConstant {
		candidateRoot = filepath.Dir(candidateRoot)
	}

	candidateInfo, candidateError := resolver.fileSystem.Stat(candidateRoot)
	if candidateError != nil {
		return "", describeAccessFailure(candidateRoot, candidateError)
	}
	if !candidateInfo.IsDir() {
		return "", gitquery.NewRepositoryError(gitquery.ErrorKindNotAGitRepository, fmt.Sprintf(notDirectoryDiagnosticTemplateConstant, candidateRoot))
	}

	metadataPath := filepath.Join(candidateRoot, shared.GitMetadataEntryNameConstant)
	if _, statError := resolver.fileSystem.Stat(metadataPath); statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return "", gitquery.NewRepositoryError(
				gitquery.ErrorKindNotAGitRepository,
				fmt.Sprintf(missingGitMetadataDiagnosticTemplateConstant, shared.GitMetadataEntryNameConstant, candidateRoot),
			)
		}
		return "", describeAccessFailure(metadataPath, statError)
	}

	return candidateRoot, nil
}

func describeAccessFailure(path string, accessError error) error {
	if errors.Is(accessError, fs.ErrNotExist) {
		return gitquery.NewRepositoryError(gitquery.ErrorKindNotAGitRepository, fmt.Sprintf(pathNotFoundDiagnosticTemplateConstant, path))
	}
	if errors.Is(accessError, fs.ErrPermission) {
		return gitquery.NewRepositoryError(gitquery.ErrorKindPermissionDenied, fmt.Sprintf(pathAccessDiagnosticTemplateConstant, path, accessError))
	}
	return gitquery.NewRepositoryError(gitquery.ErrorKindUnknown, fmt.Sprintf(pathAccessDiagnosticTemplateConstant, path, accessError))
}
