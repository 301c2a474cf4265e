// Package discovery turns user supplied paths into git repository roots.
//
// RepositoryResolver canonicalizes a single path without walking upward, and
// FilesystemRepositoryDiscoverer finds every repository beneath a set of roots
// for recursive tracking.
package discovery
