package tracking

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/temirov/gitstat/internal/repos/filesystem"
	"github.com/temirov/gitstat/internal/repos/shared"
	pathutils "github.com/temirov/gitstat/internal/utils/path"
)

const (
	storeDirectoryNameConstant            = "gitstat"
	storeFileNameConstant                 = "repositories.yaml"
	storeFallbackConfigDirectoryConstant  = ".config"
	storeTemporarySuffixConstant          = ".tmp"
	xdgConfigHomeEnvironmentConstant      = "XDG_CONFIG_HOME"
	storeDirectoryPermissionsConstant     = fs.FileMode(0o755)
	storeFilePermissionsConstant          = fs.FileMode(0o644)
	storePathRequiredMessageConstant      = "tracking store path must be provided"
	storeReadErrorTemplateConstant        = "failed to read tracking store %s: %w"
	storeParseErrorTemplateConstant       = "failed to parse tracking store %s: %w"
	storeEncodeErrorTemplateConstant      = "failed to encode tracking store: %w"
	storeWriteErrorTemplateConstant       = "failed to write tracking store %s: %w"
	storeEntryPathMissingTemplateConstant = "tracking store %s has an entry without a path"
	homeDirectoryErrorTemplateConstant    = "unable to determine home directory: %w"
)

// ErrStorePathRequired indicates a store created without a file path.
var ErrStorePathRequired = errors.New(storePathRequiredMessageConstant)

// Entry is one tracked repository as persisted in the store file.
type Entry struct {
	Path   string `yaml:"path"`
	Name   string `yaml:"name,omitempty"`
	URL    string `yaml:"url,omitempty"`
	Ignore bool   `yaml:"ignore,omitempty"`
}

// Descriptor converts the entry into the descriptor handed to the status engine.
func (entry Entry) Descriptor() shared.RepoDescriptor {
	return shared.RepoDescriptor{
		Path:                entry.Path,
		TrackedName:         entry.Name,
		ExpectedUpstreamURL: entry.URL,
		Ignored:             entry.Ignore,
	}
}

type storeDocument struct {
	Repositories []Entry `yaml:"repositories"`
}

// Store persists tracked repositories in a YAML file.
type Store struct {
	path       string
	fileSystem shared.FileSystem
}

// NewStore constructs a Store for path. A nil file system falls back to the OS.
func NewStore(path string, fileSystem shared.FileSystem) (*Store, error) {
	trimmedPath := strings.TrimSpace(path)
	if len(trimmedPath) == 0 {
		return nil, ErrStorePathRequired
	}
	if fileSystem == nil {
		fileSystem = filesystem.OSFileSystem{}
	}
	return &Store{path: trimmedPath, fileSystem: fileSystem}, nil
}

// Path returns the store file location.
func (store *Store) Path() string {
	return store.path
}

// Load returns the stored entries sorted by path. A missing file holds no entries.
func (store *Store) Load() ([]Entry, error) {
	content, readError := store.fileSystem.ReadFile(store.path)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf(storeReadErrorTemplateConstant, store.path, readError)
	}

	var document storeDocument
	if unmarshalError := yaml.Unmarshal(content, &document); unmarshalError != nil {
		return nil, fmt.Errorf(storeParseErrorTemplateConstant, store.path, unmarshalError)
	}

	entries := make([]Entry, 0, len(document.Repositories))
	for _, entry := range document.Repositories {
		entry.Path = strings.TrimSpace(entry.Path)
		if len(entry.Path) == 0 {
			return nil, fmt.Errorf(storeEntryPathMissingTemplateConstant, store.path)
		}
		entries = append(entries, entry)
	}
	sortEntries(entries)
	return entries, nil
}

// Save replaces the store content with entries. The file is written beside its
// final location and renamed into place.
func (store *Store) Save(entries []Entry) error {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sortEntries(sorted)

	content, marshalError := yaml.Marshal(storeDocument{Repositories: sorted})
	if marshalError != nil {
		return fmt.Errorf(storeEncodeErrorTemplateConstant, marshalError)
	}

	if mkdirError := store.fileSystem.MkdirAll(filepath.Dir(store.path), storeDirectoryPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(storeWriteErrorTemplateConstant, store.path, mkdirError)
	}

	temporaryPath := store.path + storeTemporarySuffixConstant
	if writeError := store.fileSystem.WriteFile(temporaryPath, content, storeFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(storeWriteErrorTemplateConstant, store.path, writeError)
	}
	if renameError := store.fileSystem.Rename(temporaryPath, store.path); renameError != nil {
		return fmt.Errorf(storeWriteErrorTemplateConstant, store.path, renameError)
	}
	return nil
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(first int, second int) bool {
		return entries[first].Path < entries[second].Path
	})
}

// ResolveStorePath returns configuredPath with the home directory expanded, or the
// default location beneath $XDG_CONFIG_HOME or ~/.config.
func ResolveStorePath(configuredPath string, homeExpander *pathutils.HomeExpander) (string, error) {
	trimmedPath := strings.TrimSpace(configuredPath)
	if len(trimmedPath) > 0 {
		if homeExpander == nil {
			homeExpander = pathutils.NewHomeExpander()
		}
		return homeExpander.Expand(trimmedPath), nil
	}

	if configHome := strings.TrimSpace(os.Getenv(xdgConfigHomeEnvironmentConstant)); len(configHome) > 0 {
		return filepath.Join(configHome, storeDirectoryNameConstant, storeFileNameConstant), nil
	}

	homeDirectory, homeError := os.UserHomeDir()
	if homeError != nil {
		return "", fmt.Errorf(homeDirectoryErrorTemplateConstant, homeError)
	}
	return filepath.Join(homeDirectory, storeFallbackConfigDirectoryConstant, storeDirectoryNameConstant, storeFileNameConstant), nil
}
