// Package ui renders status reports, progress and git command events for the terminal.
package ui
