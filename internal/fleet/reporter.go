package fleet

import (
	"fmt"
	"io"
	"strings"

	"github.com/temirov/repofleet/internal/batch"
	"github.com/temirov/repofleet/internal/repos/shared"
	"github.com/temirov/repofleet/internal/utils"
	"github.com/temirov/repofleet/internal/vcs"
)

const (
	skippingTemplateConstant              = "Skipping %s"
	detailSuffixTemplateConstant          = " (%s)"
	failureSuffixTemplateConstant         = ": %s"
	summaryTemplateConstant               = "%s: %d succeeded, %d failed, %d skipped\n"
	statusHeaderTemplateConstant          = "%s (%s)\n"
	statusUntrackedHeaderTemplateConstant = "%s (no tracking branch)\n"
	statusAheadTemplateConstant           = "* Ahead by %d commit(s)\n"
	statusBehindTemplateConstant          = "* Behind by %d commit(s)\n"
	statusFileTemplateConstant            = "  - %s\n"
	statusNoChangesLineConstant           = "No changes\n"
	statusBlockTemplateConstant           = "\n%s"
	statusFailureTemplateConstant         = "Cannot read status of %s: %s\n"
	clonedEntryTemplateConstant           = "- %s\n"
	lineTemplateConstant                  = "%s\n"
	clonedAllHeaderConstant               = "Cloning all components..."
	clonedTypeHeaderTemplateConstant      = "Cloning %s components..."
	clonedFooterConstant                  = "Components cloned"
	removingHeaderConstant                = "Removing components..."
	removedFooterConstant                 = "Components removed"
	noComponentsClonedMessageConstant     = "No components cloned"
)

type progressTemplates struct {
	started string
	success string
	failure string
}

var operationTemplates = map[batch.OperationKind]progressTemplates{
	batch.OperationAdd:      {started: "Adding files in %s...", success: "Added files in %s", failure: "Cannot add files in %s"},
	batch.OperationCheckout: {started: "Switching %s to %s...", success: "Switched %s to %s", failure: "Cannot switch %s to %s"},
	batch.OperationClone:    {started: "Cloning %s...", success: "Cloned %s", failure: "Cannot clone %s"},
	batch.OperationCommit:   {started: "Committing files in %s...", success: "Committed files in %s", failure: "Cannot commit files in %s"},
	batch.OperationPull:     {started: "Pulling %s...", success: "Pulled %s", failure: "Cannot pull %s"},
	batch.OperationPush:     {started: "Pushing %s...", success: "Pushed %s", failure: "Cannot push %s"},
}

var statusCategoryLabels = map[vcs.ChangeCategory]string{
	vcs.CategoryNotAdded:   "Not Added:",
	vcs.CategoryConflicted: "Conflicted:",
	vcs.CategoryCreated:    "Created:",
	vcs.CategoryDeleted:    "Deleted:",
	vcs.CategoryModified:   "Modified:",
	vcs.CategoryRenamed:    "Renamed:",
	vcs.CategoryStaged:     "Staged:",
}

// Reporter renders batch progress and results as plain text. Progress lines arrive from worker
// goroutines; each line is written whole.
type Reporter struct {
	output shared.Reporter
	errors shared.Reporter
}

// NewReporter writes progress and results to output and failures to errorOutput.
// Both share the per-destination lock the logger uses, so lines never interleave.
func NewReporter(output io.Writer, errorOutput io.Writer) *Reporter {
	return &Reporter{
		output: shared.NewWriterReporter(utils.NewFlushingWriter(output)),
		errors: shared.NewWriterReporter(utils.NewFlushingWriter(errorOutput)),
	}
}

// TaskStarted prints the in-progress line for operations that have one.
func (reporter *Reporter) TaskStarted(operation batch.Operation, target batch.Target) {
	templates, found := operationTemplates[operation.Kind]
	if !found {
		return
	}
	reporter.output.Printf(lineTemplateConstant, describe(operation, templates.started, target.Name))
}

// TaskSettled prints the success, skip or failure line for one component.
func (reporter *Reporter) TaskSettled(operation batch.Operation, result batch.Result) {
	templates, found := operationTemplates[operation.Kind]
	if !found {
		return
	}
	switch result.Outcome {
	case batch.OutcomeSuccess:
		reporter.output.Printf(lineTemplateConstant, describe(operation, templates.success, result.Name)+detailSuffix(result.Message))
	case batch.OutcomeSkipped:
		reporter.output.Printf(lineTemplateConstant, fmt.Sprintf(skippingTemplateConstant, result.Name)+detailSuffix(result.Message))
	default:
		reporter.errors.Printf(lineTemplateConstant, describe(operation, templates.failure, result.Name)+fmt.Sprintf(failureSuffixTemplateConstant, result.Message))
	}
}

func describe(operation batch.Operation, template string, componentName string) string {
	if operation.Kind == batch.OperationCheckout {
		return fmt.Sprintf(template, componentName, operation.Branch)
	}
	return fmt.Sprintf(template, componentName)
}

func detailSuffix(detail string) string {
	if len(detail) == 0 {
		return ""
	}
	return fmt.Sprintf(detailSuffixTemplateConstant, detail)
}

// Line prints a free-form line.
func (reporter *Reporter) Line(message string) {
	reporter.output.Printf(lineTemplateConstant, message)
}

// Summary prints the outcome counts for one batch.
func (reporter *Reporter) Summary(kind batch.OperationKind, summary batch.Summary) {
	reporter.output.Printf(summaryTemplateConstant, kind, summary.Succeeded, summary.Failed, summary.Skipped)
}

// ClonedEntries lists registered component codes.
func (reporter *Reporter) ClonedEntries(codes []string) {
	if len(codes) == 0 {
		reporter.Line(noComponentsClonedMessageConstant)
		return
	}
	for _, code := range codes {
		reporter.output.Printf(clonedEntryTemplateConstant, code)
	}
}

// StatusReports renders one block per result in the order given.
func (reporter *Reporter) StatusReports(results []batch.Result) {
	for _, result := range results {
		if result.Outcome != batch.OutcomeSuccess || result.Status == nil {
			reporter.errors.Printf(statusFailureTemplateConstant, result.Name, result.Message)
			continue
		}
		reporter.output.Printf(statusBlockTemplateConstant, renderStatus(result.Name, *result.Status))
	}
}

func renderStatus(componentName string, report vcs.StatusReport) string {
	var builder strings.Builder
	if len(report.TrackingBranch) > 0 {
		fmt.Fprintf(&builder, statusHeaderTemplateConstant, componentName, report.TrackingBranch)
	} else {
		fmt.Fprintf(&builder, statusUntrackedHeaderTemplateConstant, componentName)
	}
	if report.Ahead > 0 {
		fmt.Fprintf(&builder, statusAheadTemplateConstant, report.Ahead)
	}
	if report.Behind > 0 {
		fmt.Fprintf(&builder, statusBehindTemplateConstant, report.Behind)
	}

	for _, category := range vcs.ChangeCategories() {
		paths := report.Changes[category]
		if len(paths) == 0 {
			continue
		}
		fmt.Fprintf(&builder, lineTemplateConstant, statusCategoryLabels[category])
		for _, path := range paths {
			fmt.Fprintf(&builder, statusFileTemplateConstant, path)
		}
	}
	if report.Clean() {
		builder.WriteString(statusNoChangesLineConstant)
	}
	return builder.String()
}
