package dependencies

import (
	"go.uber.org/zap"

	"github.com/temirov/gitstat/internal/execshell"
	"github.com/temirov/gitstat/internal/repos/discovery"
	"github.com/temirov/gitstat/internal/repos/filesystem"
	"github.com/temirov/gitstat/internal/repos/shared"
)

// ResolveRepositoryDiscoverer returns the provided discoverer or a filesystem-backed default.
func ResolveRepositoryDiscoverer(existing shared.RepositoryDiscoverer) shared.RepositoryDiscoverer {
	if existing != nil {
		return existing
	}
	return discovery.NewFilesystemRepositoryDiscoverer()
}

// ResolveFileSystem returns the provided filesystem or an OS-backed default.
func ResolveFileSystem(existing shared.FileSystem) shared.FileSystem {
	if existing != nil {
		return existing
	}
	return filesystem.OSFileSystem{}
}

// ResolveRepositoryPathResolver returns the provided resolver or one backed by the filesystem.
func ResolveRepositoryPathResolver(existing shared.RepositoryPathResolver, fileSystem shared.FileSystem) shared.RepositoryPathResolver {
	if existing != nil {
		return existing
	}
	return discovery.NewRepositoryResolver(ResolveFileSystem(fileSystem), nil)
}

// ResolveGitExecutor returns the provided executor or constructs a shell-backed default
// that reports command lifecycle events to the observer.
func ResolveGitExecutor(existing shared.GitExecutor, logger *zap.Logger, observer execshell.CommandEventObserver) (shared.GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	shellExecutor, creationError := execshell.NewShellExecutorWithObserver(logger, commandRunner, observer)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}
