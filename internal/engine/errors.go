package engine

import "fmt"

// ReferentialIntegrityError reports a mutation referencing a site that does
// not exist in the repository.
type ReferentialIntegrityError struct {
	SiteID string
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("engine: unknown site %q", e.SiteID)
}

// NotFoundError reports a mutation addressing an assessment that does not
// exist.
type NotFoundError struct {
	AssessmentID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("engine: unknown assessment %q", e.AssessmentID)
}

// RepositoryError surfaces a persistence failure unchanged. The cache is
// never invalidated on the failed path, so reads stay consistent with the
// last successfully persisted state.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("engine: repository %s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }
