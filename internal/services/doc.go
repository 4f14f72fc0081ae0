// Package services defines the shared error taxonomy for external
// integrations. Subpackages implement clients for individual services.
package services
