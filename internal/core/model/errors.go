package model

import "errors"

var (
	// ErrCollaboratorUnavailable wraps failures of the embedding provider,
	// vector index or document store. Callers may retry.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	// ErrInconsistentCluster marks a union refused because both clusters were
	// anchored to different verified handles.
	ErrInconsistentCluster = errors.New("inconsistent cluster state")

	// ErrInvalidRecord is returned for inputs that violate a programming
	// contract, such as a profile without a platform.
	ErrInvalidRecord = errors.New("invalid record")
)
