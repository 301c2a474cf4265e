package gitquery

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind enumerates the per-repository failure categories.
type ErrorKind string

// Supported error kinds.
const (
	ErrorKindNotAGitRepository    ErrorKind = "not_a_git_repo"
	ErrorKindNoUpstreamConfigured ErrorKind = "no_upstream_configured"
	ErrorKindNetworkFailure       ErrorKind = "network_failure"
	ErrorKindTimeout              ErrorKind = "timeout"
	ErrorKindPermissionDenied     ErrorKind = "permission_denied"
	ErrorKindUnknown              ErrorKind = "unknown"
)

const (
	repositoryErrorTemplateConstant      = "%s: %s"
	notAGitRepositoryMarkerConstant      = "not a git repository"
	noUpstreamConfiguredMarkerConstant   = "no upstream configured"
	noUpstreamBranchMarkerConstant       = "no upstream branch"
	detachedHeadMarkerConstant           = "does not point to a branch"
	noSuchBranchMarkerConstant           = "no such branch"
	couldNotReadFromRemoteMarkerConstant = "could not read from remote"
	couldNotResolveHostMarkerConstant    = "could not resolve host"
	unableToAccessMarkerConstant         = "unable to access"
	connectionTimedOutMarkerConstant     = "connection timed out"
	connectionRefusedMarkerConstant      = "connection refused"
	networkUnreachableMarkerConstant     = "network is unreachable"
	permissionDeniedMarkerConstant       = "permission denied"
)

// RepositoryError describes why a repository could not be fully classified.
type RepositoryError struct {
	Kind       ErrorKind
	Diagnostic string
}

// NewRepositoryError constructs a RepositoryError with a trimmed diagnostic.
func NewRepositoryError(kind ErrorKind, diagnostic string) *RepositoryError {
	return &RepositoryError{Kind: kind, Diagnostic: strings.TrimSpace(diagnostic)}
}

// Error renders the kind followed by the diagnostic, if any.
func (repositoryError *RepositoryError) Error() string {
	if len(repositoryError.Diagnostic) == 0 {
		return string(repositoryError.Kind)
	}
	return fmt.Sprintf(repositoryErrorTemplateConstant, repositoryError.Kind, repositoryError.Diagnostic)
}

// Is reports whether target is a RepositoryError of the same kind.
func (repositoryError *RepositoryError) Is(target error) bool {
	var targetRepositoryError *RepositoryError
	if !errors.As(target, &targetRepositoryError) {
		return false
	}
	return targetRepositoryError.Kind == repositoryError.Kind
}

// AsRepositoryError extracts a RepositoryError from an error chain.
func AsRepositoryError(err error) (*RepositoryError, bool) {
	var repositoryError *RepositoryError
	if errors.As(err, &repositoryError) {
		return repositoryError, true
	}
	return nil, false
}

type failureMarker struct {
	substring string
	kind      ErrorKind
}

// failureMarkers is evaluated top to bottom; the first match wins.
var failureMarkers = []failureMarker{
	{substring: notAGitRepositoryMarkerConstant, kind: ErrorKindNotAGitRepository},
	{substring: noUpstreamConfiguredMarkerConstant, kind: ErrorKindNoUpstreamConfigured},
	{substring: noUpstreamBranchMarkerConstant, kind: ErrorKindNoUpstreamConfigured},
	{substring: detachedHeadMarkerConstant, kind: ErrorKindNoUpstreamConfigured},
	{substring: noSuchBranchMarkerConstant, kind: ErrorKindNoUpstreamConfigured},
	{substring: couldNotReadFromRemoteMarkerConstant, kind: ErrorKindNetworkFailure},
	{substring: couldNotResolveHostMarkerConstant, kind: ErrorKindNetworkFailure},
	{substring: unableToAccessMarkerConstant, kind: ErrorKindNetworkFailure},
	{substring: connectionTimedOutMarkerConstant, kind: ErrorKindNetworkFailure},
	{substring: connectionRefusedMarkerConstant, kind: ErrorKindNetworkFailure},
	{substring: networkUnreachableMarkerConstant, kind: ErrorKindNetworkFailure},
	{substring: permissionDeniedMarkerConstant, kind: ErrorKindPermissionDenied},
}

// ClassifyFailure maps git's standard error text to an ErrorKind.
func ClassifyFailure(standardError string) ErrorKind {
	normalizedStandardError := strings.ToLower(standardError)
	for _, marker := range failureMarkers {
		if strings.Contains(normalizedStandardError, marker.substring) {
			return marker.kind
		}
	}
	return ErrorKindUnknown
}
