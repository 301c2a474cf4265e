package tracking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitstat/internal/gitquery"
	"github.com/temirov/gitstat/internal/repos/dependencies"
	"github.com/temirov/gitstat/internal/repos/shared"
	pathutils "github.com/temirov/gitstat/internal/utils/path"
)

const (
	trackedMessageTemplateConstant          = "tracking %s\n"
	untrackedMessageTemplateConstant        = "untracked %s\n"
	ignoredMessageTemplateConstant          = "ignoring %s\n"
	unignoredMessageTemplateConstant        = "no longer ignoring %s\n"
	isTrackedMessageTemplateConstant        = "%s: is being tracked\n"
	notTrackedMessageTemplateConstant       = "%s: not being tracked\n"
	alreadyTrackedMessageTemplateConstant   = "%s: already being tracked\n"
	alreadyIgnoredMessageTemplateConstant   = "%s: already ignored\n"
	alreadyUnignoredMessageTemplateConstant = "%s: already un-ignored\n"
	alreadyUntrackedMessageTemplateConstant = "%s: already not being tracked\n"
	notGitDirectoryMessageTemplateConstant  = "%s: not a git directory\n"
	cannotTrackMessageTemplateConstant      = "%s: %v\n"
	missingURLMessageTemplateConstant       = "%s: no remote URL recorded\n"
	cloneCommandTemplateConstant            = "git clone %s %s"
	cloneLineTemplateConstant               = "%s\n"
	storeMissingMessageConstant             = "tracking service requires a store"
	executorMissingMessageConstant          = "tracking service requires a git executor"
	storeSavedMessageConstant               = "tracking store saved"
	logFieldStorePathConstant               = "store_path"
	logFieldEntryCountConstant              = "entries"
)

// ErrStoreMissing indicates the service was created without a store.
var ErrStoreMissing = errors.New(storeMissingMessageConstant)

// ErrGitExecutorMissing indicates the service was created without a git executor.
var ErrGitExecutorMissing = errors.New(executorMissingMessageConstant)

// Dependencies supplies collaborators required by the tracking service.
type Dependencies struct {
	Store        *Store
	GitExecutor  shared.GitExecutor
	FileSystem   shared.FileSystem
	Resolver     shared.RepositoryPathResolver
	Discoverer   shared.RepositoryDiscoverer
	HomeExpander *pathutils.HomeExpander
	RemoteName   string
	Output       io.Writer
	Errors       io.Writer
	Logger       *zap.Logger
}

// Service maintains the tracked repository list and serves it to the status engine.
type Service struct {
	store        *Store
	runner       *gitquery.Runner
	fileSystem   shared.FileSystem
	resolver     shared.RepositoryPathResolver
	discoverer   shared.RepositoryDiscoverer
	homeExpander *pathutils.HomeExpander
	output       shared.Reporter
	errors       shared.Reporter
	logger       *zap.Logger
}

// NewService constructs a Service. Optional collaborators fall back to OS backed defaults.
func NewService(serviceDependencies Dependencies) (*Service, error) {
	if serviceDependencies.Store == nil {
		return nil, ErrStoreMissing
	}
	if serviceDependencies.GitExecutor == nil {
		return nil, ErrGitExecutorMissing
	}

	runner, runnerError := gitquery.NewRunner(serviceDependencies.GitExecutor, serviceDependencies.RemoteName, 0)
	if runnerError != nil {
		return nil, runnerError
	}

	fileSystem := dependencies.ResolveFileSystem(serviceDependencies.FileSystem)
	homeExpander := serviceDependencies.HomeExpander
	if homeExpander == nil {
		homeExpander = pathutils.NewHomeExpander()
	}
	logger := serviceDependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:        serviceDependencies.Store,
		runner:       runner,
		fileSystem:   fileSystem,
		resolver:     dependencies.ResolveRepositoryPathResolver(serviceDependencies.Resolver, fileSystem),
		discoverer:   dependencies.ResolveRepositoryDiscoverer(serviceDependencies.Discoverer),
		homeExpander: homeExpander,
		output:       shared.NewWriterReporter(serviceDependencies.Output),
		errors:       shared.NewWriterReporter(serviceDependencies.Errors),
		logger:       logger,
	}, nil
}

// Track records the repositories rooted at rawPaths together with their remote URL.
// With recursive set every repository beneath each path is tracked instead.
func (service *Service) Track(executionContext context.Context, rawPaths []string, recursive bool) error {
	entries, loadError := service.store.Load()
	if loadError != nil {
		return loadError
	}
	index := indexEntries(entries)

	changed := false
	for _, repositoryRoot := range service.collectRoots(rawPaths, recursive) {
		if _, tracked := index[repositoryRoot]; tracked {
			service.errors.Printf(alreadyTrackedMessageTemplateConstant, repositoryRoot)
			continue
		}

		remoteURL, urlError := service.readRemoteURL(executionContext, repositoryRoot)
		if urlError != nil {
			service.errors.Printf(cannotTrackMessageTemplateConstant, repositoryRoot, urlError)
			continue
		}

		entries = append(entries, Entry{Path: repositoryRoot, Name: filepath.Base(repositoryRoot), URL: remoteURL})
		index[repositoryRoot] = len(entries) - 1
		service.output.Printf(trackedMessageTemplateConstant, repositoryRoot)
		changed = true
	}

	return service.saveWhenChanged(entries, changed)
}

// Untrack forgets the repositories at rawPaths. The paths need not exist any more.
func (service *Service) Untrack(rawPaths []string) error {
	entries, loadError := service.store.Load()
	if loadError != nil {
		return loadError
	}

	changed := false
	for _, rawPath := range rawPaths {
		key := service.canonicalKey(rawPath)
		index := indexEntries(entries)
		position, tracked := index[key]
		if !tracked {
			service.errors.Printf(alreadyUntrackedMessageTemplateConstant, key)
			continue
		}
		entries = append(entries[:position], entries[position+1:]...)
		service.output.Printf(untrackedMessageTemplateConstant, key)
		changed = true
	}

	return service.saveWhenChanged(entries, changed)
}

// SetIgnored marks or unmarks tracked repositories as ignored.
func (service *Service) SetIgnored(rawPaths []string, ignored bool) error {
	entries, loadError := service.store.Load()
	if loadError != nil {
		return loadError
	}
	index := indexEntries(entries)

	changed := false
	for _, rawPath := range rawPaths {
		key := service.canonicalKey(rawPath)
		position, tracked := index[key]
		switch {
		case !tracked:
			service.errors.Printf(notTrackedMessageTemplateConstant, key)
		case entries[position].Ignore == ignored && ignored:
			service.errors.Printf(alreadyIgnoredMessageTemplateConstant, key)
		case entries[position].Ignore == ignored:
			service.errors.Printf(alreadyUnignoredMessageTemplateConstant, key)
		default:
			entries[position].Ignore = ignored
			if ignored {
				service.output.Printf(ignoredMessageTemplateConstant, key)
			} else {
				service.output.Printf(unignoredMessageTemplateConstant, key)
			}
			changed = true
		}
	}

	return service.saveWhenChanged(entries, changed)
}

// IsTracked reports every path's tracking state and whether all of them are tracked.
// With quietIfTracked only untracked paths are reported.
func (service *Service) IsTracked(rawPaths []string, quietIfTracked bool) (bool, error) {
	entries, loadError := service.store.Load()
	if loadError != nil {
		return false, loadError
	}
	index := indexEntries(entries)

	allTracked := true
	for _, rawPath := range rawPaths {
		key := service.canonicalKey(rawPath)
		if _, tracked := index[key]; !tracked {
			allTracked = false
			service.output.Printf(notTrackedMessageTemplateConstant, key)
			continue
		}
		if !quietIfTracked {
			service.output.Printf(isTrackedMessageTemplateConstant, key)
		}
	}
	return allTracked, nil
}

// CloneCommands returns the git clone commands that recreate tracked repositories.
// Repositories already present on disk and ignored repositories are skipped unless requested.
func (service *Service) CloneCommands(includeExisting bool, includeIgnored bool) ([]string, error) {
	entries, loadError := service.store.Load()
	if loadError != nil {
		return nil, loadError
	}

	commands := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Ignore && !includeIgnored {
			continue
		}
		if !includeExisting && service.repositoryExists(entry.Path) {
			continue
		}
		if len(strings.TrimSpace(entry.URL)) == 0 {
			service.errors.Printf(missingURLMessageTemplateConstant, entry.Path)
			continue
		}
		commands = append(commands, fmt.Sprintf(cloneCommandTemplateConstant, entry.URL, entry.Path))
	}
	return commands, nil
}

// ShowClone prints CloneCommands to the output writer.
func (service *Service) ShowClone(includeExisting bool, includeIgnored bool) error {
	commands, commandsError := service.CloneCommands(includeExisting, includeIgnored)
	if commandsError != nil {
		return commandsError
	}
	for _, command := range commands {
		service.output.Printf(cloneLineTemplateConstant, command)
	}
	return nil
}

// TrackedDescriptors returns every tracked repository, ignored ones included, ordered by path.
func (service *Service) TrackedDescriptors() ([]shared.RepoDescriptor, error) {
	entries, loadError := service.store.Load()
	if loadError != nil {
		return nil, loadError
	}
	descriptors := make([]shared.RepoDescriptor, 0, len(entries))
	for _, entry := range entries {
		descriptors = append(descriptors, entry.Descriptor())
	}
	return descriptors, nil
}

// DescribePath returns the tracked descriptor for rawPath, or a bare descriptor when it is not tracked.
func (service *Service) DescribePath(rawPath string) (shared.RepoDescriptor, error) {
	entries, loadError := service.store.Load()
	if loadError != nil {
		return shared.RepoDescriptor{}, loadError
	}
	if position, tracked := indexEntries(entries)[service.canonicalKey(rawPath)]; tracked {
		return entries[position].Descriptor(), nil
	}
	return shared.RepoDescriptor{Path: rawPath}, nil
}

func (service *Service) collectRoots(rawPaths []string, recursive bool) []string {
	roots := make([]string, 0, len(rawPaths))
	seen := make(map[string]struct{}, len(rawPaths))
	appendRoot := func(candidate string) {
		repositoryRoot, resolveError := service.resolver.Resolve(candidate)
		if resolveError != nil {
			service.reportUnresolvable(strings.TrimSpace(candidate), resolveError)
			return
		}
		if _, duplicate := seen[repositoryRoot]; duplicate {
			return
		}
		seen[repositoryRoot] = struct{}{}
		roots = append(roots, repositoryRoot)
	}

	for _, rawPath := range rawPaths {
		if !recursive {
			appendRoot(rawPath)
			continue
		}
		discovered, discoveryError := service.discoverer.DiscoverRepositories([]string{service.homeExpander.Expand(strings.TrimSpace(rawPath))})
		if discoveryError != nil {
			service.errors.Printf(cannotTrackMessageTemplateConstant, strings.TrimSpace(rawPath), discoveryError)
			continue
		}
		for _, repositoryPath := range discovered {
			appendRoot(repositoryPath)
		}
	}
	return roots
}

func (service *Service) reportUnresolvable(rawPath string, resolveError error) {
	if repositoryError, isRepositoryError := gitquery.AsRepositoryError(resolveError); isRepositoryError && repositoryError.Kind == gitquery.ErrorKindNotAGitRepository {
		service.errors.Printf(notGitDirectoryMessageTemplateConstant, rawPath)
		return
	}
	service.errors.Printf(cannotTrackMessageTemplateConstant, rawPath, resolveError)
}

func (service *Service) readRemoteURL(executionContext context.Context, repositoryRoot string) (string, error) {
	result, queryError := service.runner.Run(executionContext, repositoryRoot, gitquery.QueryRemoteURL)
	if queryError != nil {
		return "", queryError
	}
	if !result.Succeeded() {
		return "", nil
	}
	return strings.TrimSpace(result.StandardOutput), nil
}

func (service *Service) repositoryExists(repositoryPath string) bool {
	_, statError := service.fileSystem.Stat(filepath.Join(repositoryPath, shared.GitMetadataEntryNameConstant))
	return statError == nil
}

// canonicalKey normalizes rawPath the way tracked paths are stored, without requiring it to exist.
func (service *Service) canonicalKey(rawPath string) string {
	candidate := service.homeExpander.Expand(strings.TrimSpace(rawPath))
	if absolutePath, absoluteError := service.fileSystem.Abs(candidate); absoluteError == nil {
		candidate = absolutePath
	}
	if resolvedPath, resolveError := service.fileSystem.EvalSymlinks(candidate); resolveError == nil {
		candidate = resolvedPath
	}
	candidate = filepath.Clean(candidate)
	if filepath.Base(candidate) == shared.GitMetadataEntryNameConstant {
		candidate = filepath.Dir(candidate)
	}
	return candidate
}

func (service *Service) saveWhenChanged(entries []Entry, changed bool) error {
	if !changed {
		return nil
	}
	if saveError := service.store.Save(entries); saveError != nil {
		return saveError
	}
	service.logger.Debug(
		storeSavedMessageConstant,
		zap.String(logFieldStorePathConstant, service.store.Path()),
		zap.Int(logFieldEntryCountConstant, len(entries)),
	)
	return nil
}

func indexEntries(entries []Entry) map[string]int {
	index := make(map[string]int, len(entries))
	for position, entry := range entries {
		index[entry.Path] = position
	}
	return index
}
