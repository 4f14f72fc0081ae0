// Package catalog discovers projects and resources in a Transifex
// organization and produces normalized resource records for reconciliation.
package catalog
