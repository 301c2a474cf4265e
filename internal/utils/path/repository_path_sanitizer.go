package pathutils

import (
	"path/filepath"
	"runtime"
	"strings"
)

const (
	gitDirectoryNameConstant = ".git"
	windowsOSNameConstant    = "windows"
)

// RepositoryPathSanitizer turns command-line path arguments into the list of repositories to check.
type RepositoryPathSanitizer struct {
	homeExpander *HomeExpander
}

// NewRepositoryPathSanitizer constructs a sanitizer that expands against the real home directory.
func NewRepositoryPathSanitizer() *RepositoryPathSanitizer {
	return NewRepositoryPathSanitizerWithExpander(nil)
}

// NewRepositoryPathSanitizerWithExpander constructs a sanitizer using homeExpander.
func NewRepositoryPathSanitizerWithExpander(homeExpander *HomeExpander) *RepositoryPathSanitizer {
	if homeExpander == nil {
		homeExpander = NewHomeExpander()
	}
	return &RepositoryPathSanitizer{homeExpander: homeExpander}
}

// Sanitize trims whitespace, expands "~", strips a trailing .git component and drops
// arguments naming a repository already listed, including through a symlink. Argument
// order is preserved and nil is returned when nothing remains.
func (sanitizer *RepositoryPathSanitizer) Sanitize(candidatePaths []string) []string {
	if sanitizer == nil {
		sanitizer = NewRepositoryPathSanitizer()
	}

	var sanitizedPaths []string
	seenRepositories := make(map[string]struct{}, len(candidatePaths))
	for _, candidatePath := range candidatePaths {
		trimmedPath := strings.TrimSpace(candidatePath)
		if len(trimmedPath) == 0 {
			continue
		}

		repositoryPath := stripGitDirectory(sanitizer.homeExpander.Expand(trimmedPath))
		identity := repositoryIdentity(repositoryPath)
		if _, seen := seenRepositories[identity]; seen {
			continue
		}
		seenRepositories[identity] = struct{}{}
		sanitizedPaths = append(sanitizedPaths, repositoryPath)
	}
	return sanitizedPaths
}

func stripGitDirectory(candidatePath string) string {
	cleanedPath := filepath.Clean(candidatePath)
	if filepath.Base(cleanedPath) != gitDirectoryNameConstant {
		return candidatePath
	}
	return filepath.Dir(cleanedPath)
}

// repositoryIdentity is the absolute, symlink-free form of path used to detect repeats.
// Paths that cannot be resolved still compare by their cleaned absolute form.
func repositoryIdentity(path string) string {
	identity := filepath.Clean(path)
	if absolutePath, absoluteError := filepath.Abs(identity); absoluteError == nil {
		identity = absolutePath
	}
	if resolvedPath, resolveError := filepath.EvalSymlinks(identity); resolveError == nil {
		identity = resolvedPath
	}
	if runtime.GOOS == windowsOSNameConstant {
		identity = strings.ToLower(identity)
	}
	return identity
}
