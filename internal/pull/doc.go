// Package pull orchestrates the tx CLI: it registers projects through
// tx add remote and downloads resources through per-resource tx pull
// invocations distributed over a bounded worker pool.
package pull
