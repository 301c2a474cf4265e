// Package gitquery issues the fixed set of read-mostly git queries gitstat relies on
// and classifies their failures into ErrorKind values.
//
// Each QueryKind declares its git arguments and the non-zero exit codes that are
// answers rather than failures (diff-files --quiet exits 1 when the tree is dirty).
// Any other failure is matched against an ordered table of standard error
// substrings by ClassifyFailure, which needs no process and is unit tested directly.
package gitquery
