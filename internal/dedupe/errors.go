// Package dedupe implements duplicate detection and record merging for
// tenant-scoped CRM records: pairwise candidate generation over the
// similarity scorer, and the all-or-nothing merge that re-points every
// dependent row from the losing record to the surviving one.
package dedupe

import "github.com/rotisserie/eris"

// Typed failures surfaced to the API layer. Callers match with
// errors.Is and map them onto transport status codes.
var (
	// ErrNotFound indicates the suggestion or one of its records does
	// not exist (or is not visible to the tenant).
	ErrNotFound = eris.New("dedupe: not found")

	// ErrInvalidState indicates an operation on a suggestion that is no
	// longer pending (double-merge, double-dismiss).
	ErrInvalidState = eris.New("dedupe: suggestion not pending")

	// ErrInvalidArgument indicates the chosen primary id is not one of
	// the suggestion's two record ids.
	ErrInvalidArgument = eris.New("dedupe: invalid argument")

	// ErrGenerationInProgress indicates a concurrent generation run for
	// the same (tenant, entity type) scope.
	ErrGenerationInProgress = eris.New("dedupe: generation already running for scope")
)
