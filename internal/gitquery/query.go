package gitquery

import (
	"fmt"
	"strconv"
	"strings"
)

// QueryKind identifies one git question asked about a repository.
type QueryKind string

// Supported query kinds.
const (
	QueryFetch        QueryKind = "fetch"
	QueryRefreshIndex QueryKind = "refresh-index"
	QueryWorkingTree  QueryKind = "working-tree"
	QueryIndex        QueryKind = "index"
	QueryUntracked    QueryKind = "untracked"
	QueryDivergence   QueryKind = "divergence"
	QueryRemoteURL    QueryKind = "remote-url"
	QueryPull         QueryKind = "pull"
)

const (
	// DefaultRemoteNameConstant names the remote fetched and compared when none is configured.
	DefaultRemoteNameConstant = "origin"

	remoteURLConfigurationKeyTemplateConstant = "remote.%s.url"
	divergenceFieldCountConstant              = 2
	divergenceParseErrorTemplateConstant      = "unexpected divergence output %q"
	nulSeparatorConstant                      = "\x00"
	newlineSeparatorConstant                  = "\n"
)

type querySpecification struct {
	buildArguments    func(remoteName string) []string
	acceptedExitCodes []int
}

var querySpecifications = map[QueryKind]querySpecification{
	QueryFetch: {
		buildArguments: func(remoteName string) []string {
			return []string{"fetch", "--quiet", remoteName}
		},
	},
	QueryRefreshIndex: {
		buildArguments: func(string) []string {
			return []string{"update-index", "-q", "--ignore-submodules", "--refresh"}
		},
		// update-index exits 1 when files need updating, which diff-files reports next.
		acceptedExitCodes: []int{1},
	},
	QueryWorkingTree: {
		buildArguments: func(string) []string {
			return []string{"diff-files", "--quiet", "--ignore-submodules"}
		},
		acceptedExitCodes: []int{1},
	},
	QueryIndex: {
		buildArguments: func(string) []string {
			return []string{"diff", "--cached", "--quiet", "--ignore-submodules"}
		},
		acceptedExitCodes: []int{1},
	},
	QueryUntracked: {
		buildArguments: func(string) []string {
			return []string{"ls-files", "--others", "--exclude-standard", "-z"}
		},
	},
	QueryDivergence: {
		buildArguments: func(string) []string {
			return []string{"rev-list", "--left-right", "--count", "HEAD...@{upstream}"}
		},
	},
	QueryRemoteURL: {
		buildArguments: func(remoteName string) []string {
			return []string{"config", "--get", fmt.Sprintf(remoteURLConfigurationKeyTemplateConstant, remoteName)}
		},
		acceptedExitCodes: []int{1},
	},
	QueryPull: {
		buildArguments: func(string) []string {
			return []string{"pull", "--ff-only", "--quiet"}
		},
	},
}

// QueryArguments returns the git arguments issued for the query kind.
func QueryArguments(kind QueryKind, remoteName string) ([]string, bool) {
	specification, known := querySpecifications[kind]
	if !known {
		return nil, false
	}
	if len(strings.TrimSpace(remoteName)) == 0 {
		remoteName = DefaultRemoteNameConstant
	}
	return specification.buildArguments(remoteName), true
}

func (specification querySpecification) accepts(exitCode int) bool {
	for _, acceptedExitCode := range specification.acceptedExitCodes {
		if acceptedExitCode == exitCode {
			return true
		}
	}
	return false
}

// QueryResult is the answer git gave to a query. ExitCode is zero or one of the
// codes the query kind accepts as an answer.
type QueryResult struct {
	Kind           QueryKind
	ExitCode       int
	StandardOutput string
	StandardError  string
}

// Succeeded reports whether git answered with a zero exit code.
func (result QueryResult) Succeeded() bool {
	return result.ExitCode == 0
}

// ParseDivergenceCounts reads the "<ahead>\t<behind>" output of rev-list --left-right --count.
func ParseDivergenceCounts(standardOutput string) (int, int, error) {
	fields := strings.Fields(standardOutput)
	if len(fields) != divergenceFieldCountConstant {
		return 0, 0, fmt.Errorf(divergenceParseErrorTemplateConstant, standardOutput)
	}
	aheadCount, aheadError := strconv.Atoi(fields[0])
	if aheadError != nil || aheadCount < 0 {
		return 0, 0, fmt.Errorf(divergenceParseErrorTemplateConstant, standardOutput)
	}
	behindCount, behindError := strconv.Atoi(fields[1])
	if behindError != nil || behindCount < 0 {
		return 0, 0, fmt.Errorf(divergenceParseErrorTemplateConstant, standardOutput)
	}
	return aheadCount, behindCount, nil
}

// ParsePathList splits NUL separated ls-files output, tolerating newline separators.
func ParsePathList(standardOutput string) []string {
	separator := nulSeparatorConstant
	if !strings.Contains(standardOutput, nulSeparatorConstant) {
		separator = newlineSeparatorConstant
	}
	paths := make([]string, 0)
	for _, candidate := range strings.Split(standardOutput, separator) {
		if len(candidate) == 0 {
			continue
		}
		paths = append(paths, candidate)
	}
	return paths
}
