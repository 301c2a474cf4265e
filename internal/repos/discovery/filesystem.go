package discovery

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/temirov/gitstat/internal/repos/shared"
)

// FilesystemRepositoryDiscoverer finds the repositories to track beneath directory roots.
type FilesystemRepositoryDiscoverer struct{}

// NewFilesystemRepositoryDiscoverer constructs a discoverer backed by filepath.WalkDir.
func NewFilesystemRepositoryDiscoverer() *FilesystemRepositoryDiscoverer {
	return &FilesystemRepositoryDiscoverer{}
}

// DiscoverRepositories returns the sorted, de-duplicated working trees found beneath roots.
// A directory with a .git entry (directory or worktree file) is a repository and is not
// searched further, so submodules and checkouts nested inside it are not reported.
// A root that cannot be read fails the call; unreadable subdirectories are skipped.
func (discoverer *FilesystemRepositoryDiscoverer) DiscoverRepositories(roots []string) ([]string, error) {
	found := make(map[string]struct{})

	for _, root := range roots {
		walkRoot := root
		if resolvedRoot, resolveError := filepath.EvalSymlinks(root); resolveError == nil {
			walkRoot = resolvedRoot
		}
		if walkError := filepath.WalkDir(walkRoot, repositoryVisitor(walkRoot, found)); walkError != nil {
			return nil, walkError
		}
	}

	repositories := make([]string, 0, len(found))
	for repositoryPath := range found {
		repositories = append(repositories, repositoryPath)
	}
	sort.Strings(repositories)
	return repositories, nil
}

func repositoryVisitor(walkRoot string, found map[string]struct{}) fs.WalkDirFunc {
	return func(path string, directoryEntry fs.DirEntry, visitError error) error {
		if visitError != nil {
			if path == walkRoot {
				return visitError
			}
			return nil
		}
		if !directoryEntry.IsDir() {
			return nil
		}
		if _, metadataError := os.Lstat(filepath.Join(path, shared.GitMetadataEntryNameConstant)); metadataError != nil {
			return nil
		}
		found[path] = struct{}{}
		return fs.SkipDir
	}
}
