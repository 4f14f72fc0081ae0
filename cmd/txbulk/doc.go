// Command txbulk bulk-downloads translation files from a Transifex
// organization: it discovers projects and resources through the REST API,
// reconciles a local tx configuration, and drives the official tx CLI with a
// bounded worker pool.
package main
