// Package textutil provides slug and filename normalization helpers shared
// across the discovery, reconciliation, and download packages.
package textutil
