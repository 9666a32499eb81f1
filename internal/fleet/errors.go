package fleet

import (
	"fmt"

	"github.com/temirov/repofleet/internal/batch"
)

const batchFailureTemplateConstant = "%s failed for %d of %d components"

// ValidationError reports invalid input detected before any component is touched.
type ValidationError struct {
	Message string
}

// Error returns the user-facing message.
func (failure ValidationError) Error() string {
	return failure.Message
}

// BatchFailureError reports a batch in which at least one component failed.
type BatchFailureError struct {
	Operation batch.OperationKind
	Summary   batch.Summary
}

// Error describes how many components failed.
func (failure BatchFailureError) Error() string {
	return fmt.Sprintf(batchFailureTemplateConstant, failure.Operation, failure.Summary.Failed, failure.Summary.Total())
}
