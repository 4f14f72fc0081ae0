// Package txconfig parses, reconciles, and emits the configuration file
// consumed by the external tx CLI. Reconciliation is the core invariant
// holder: entry keys are unique, quote characters are normalized identically
// on both sides of every comparison, and merging is idempotent.
package txconfig
