// Package preflight validates the environment before a download run: the tx
// binary on PATH, writable output directories, and a live API token.
package preflight
