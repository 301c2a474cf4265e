// Package tracking persists the list of repositories gitstat checks when no path
// is given and exposes the track, untrack, ignore, unignore, is-tracked and
// showclone commands that maintain it.
package tracking
