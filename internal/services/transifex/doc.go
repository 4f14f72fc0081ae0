// Package transifex implements a minimal Transifex REST API v3 client
// covering organization discovery and translation-memory exports.
package transifex
