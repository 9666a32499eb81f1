package batch

import "github.com/temirov/repofleet/internal/vcs"

// Outcome classifies how a single component task settled.
type Outcome string

// Task outcomes.
const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeSkipped Outcome = "skipped"
)

// Result is the settled state of one component task.
type Result struct {
	Code    string
	Name    string
	Outcome Outcome
	// Message is the failure text, the skip reason, or an optional success detail.
	Message string
	Err     error
	Status  *vcs.StatusReport
}

// Summary counts results by outcome.
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int
}

// Total returns the number of settled tasks.
func (summary Summary) Total() int {
	return summary.Succeeded + summary.Failed + summary.Skipped
}

// Summarize counts the outcomes of results.
func Summarize(results []Result) Summary {
	summary := Summary{}
	for _, result := range results {
		switch result.Outcome {
		case OutcomeSuccess:
			summary.Succeeded++
		case OutcomeFailure:
			summary.Failed++
		case OutcomeSkipped:
			summary.Skipped++
		}
	}
	return summary
}

// Failed reports whether any result failed.
func Failed(results []Result) bool {
	return Summarize(results).Failed > 0
}

func successResult(target Target, message string) Result {
	return Result{Code: target.Code, Name: target.Name, Outcome: OutcomeSuccess, Message: message}
}

func skippedResult(target Target, reason string) Result {
	return Result{Code: target.Code, Name: target.Name, Outcome: OutcomeSkipped, Message: reason}
}

func failureResult(target Target, failure error) Result {
	return Result{Code: target.Code, Name: target.Name, Outcome: OutcomeFailure, Message: failure.Error(), Err: failure}
}
