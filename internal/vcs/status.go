package vcs

import (
	"fmt"
	"strconv"
	"strings"
)

// ChangeCategory groups changed paths the way the status report presents them.
type ChangeCategory string

// Change categories in presentation order.
const (
	CategoryNotAdded   ChangeCategory = "not_added"
	CategoryConflicted ChangeCategory = "conflicted"
	CategoryCreated    ChangeCategory = "created"
	CategoryDeleted    ChangeCategory = "deleted"
	CategoryModified   ChangeCategory = "modified"
	CategoryRenamed    ChangeCategory = "renamed"
	CategoryStaged     ChangeCategory = "staged"
)

const (
	headerPrefixConstant                = "# "
	headerBranchHeadConstant            = "branch.head"
	headerBranchUpstreamConstant        = "branch.upstream"
	headerBranchAheadBehindConstant     = "branch.ab"
	detachedHeadMarkerConstant          = "(detached)"
	ordinaryEntryPrefixConstant         = "1 "
	renamedEntryPrefixConstant          = "2 "
	unmergedEntryPrefixConstant         = "u "
	untrackedEntryPrefixConstant        = "? "
	ignoredEntryPrefixConstant          = "! "
	ordinaryEntryFieldCountConstant     = 9
	renamedEntryFieldCountConstant      = 10
	unmergedEntryFieldCountConstant     = 11
	renamedPathSeparatorConstant        = "\t"
	renamedDisplaySeparatorConstant     = " -> "
	quotedPathPrefixConstant            = "\""
	aheadPrefixConstant                 = "+"
	behindPrefixConstant                = "-"
	malformedStatusLineTemplateConstant = "malformed status line %q"
	malformedCountTemplateConstant      = "malformed ahead/behind counts %q: %w"
)

var changeCategoryOrder = []ChangeCategory{
	CategoryNotAdded,
	CategoryConflicted,
	CategoryCreated,
	CategoryDeleted,
	CategoryModified,
	CategoryRenamed,
	CategoryStaged,
}

// ChangeCategories returns every category in presentation order.
func ChangeCategories() []ChangeCategory {
	return append([]ChangeCategory(nil), changeCategoryOrder...)
}

// StatusReport describes a working copy relative to its tracking branch.
// Changes always holds every category, possibly with no paths.
type StatusReport struct {
	Branch         string
	TrackingBranch string
	Ahead          int
	Behind         int
	Changes        map[ChangeCategory][]string
}

// NewStatusReport returns a report with every category present and empty.
func NewStatusReport() StatusReport {
	changes := make(map[ChangeCategory][]string, len(changeCategoryOrder))
	for _, category := range changeCategoryOrder {
		changes[category] = []string{}
	}
	return StatusReport{Changes: changes}
}

// Clean reports whether no category lists any path.
func (report StatusReport) Clean() bool {
	for _, paths := range report.Changes {
		if len(paths) > 0 {
			return false
		}
	}
	return true
}

// ParseStatus reads the output of git status --porcelain=v2 --branch.
func ParseStatus(output string) (StatusReport, error) {
	report := NewStatusReport()
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if len(line) == 0 {
			continue
		}
		var lineError error
		switch {
		case strings.HasPrefix(line, headerPrefixConstant):
			lineError = report.applyHeader(strings.TrimPrefix(line, headerPrefixConstant))
		case strings.HasPrefix(line, ordinaryEntryPrefixConstant):
			lineError = report.applyOrdinaryEntry(line)
		case strings.HasPrefix(line, renamedEntryPrefixConstant):
			lineError = report.applyRenamedEntry(line)
		case strings.HasPrefix(line, unmergedEntryPrefixConstant):
			lineError = report.applyUnmergedEntry(line)
		case strings.HasPrefix(line, untrackedEntryPrefixConstant):
			report.add(CategoryNotAdded, unquotePath(strings.TrimPrefix(line, untrackedEntryPrefixConstant)))
		case strings.HasPrefix(line, ignoredEntryPrefixConstant):
		default:
			lineError = fmt.Errorf(malformedStatusLineTemplateConstant, line)
		}
		if lineError != nil {
			return StatusReport{}, lineError
		}
	}
	return report, nil
}

func (report *StatusReport) applyHeader(header string) error {
	name, value, _ := strings.Cut(header, " ")
	switch name {
	case headerBranchHeadConstant:
		if value != detachedHeadMarkerConstant {
			report.Branch = value
		}
	case headerBranchUpstreamConstant:
		report.TrackingBranch = value
	case headerBranchAheadBehindConstant:
		aheadField, behindField, found := strings.Cut(value, " ")
		if !found {
			return fmt.Errorf(malformedStatusLineTemplateConstant, header)
		}
		ahead, aheadError := strconv.Atoi(strings.TrimPrefix(aheadField, aheadPrefixConstant))
		if aheadError != nil {
			return fmt.Errorf(malformedCountTemplateConstant, value, aheadError)
		}
		behind, behindError := strconv.Atoi(strings.TrimPrefix(behindField, behindPrefixConstant))
		if behindError != nil {
			return fmt.Errorf(malformedCountTemplateConstant, value, behindError)
		}
		report.Ahead, report.Behind = ahead, behind
	}
	return nil
}

func (report *StatusReport) applyOrdinaryEntry(line string) error {
	fields := strings.SplitN(line, " ", ordinaryEntryFieldCountConstant)
	if len(fields) != ordinaryEntryFieldCountConstant || len(fields[1]) != 2 {
		return fmt.Errorf(malformedStatusLineTemplateConstant, line)
	}
	report.applyStateCodes(fields[1], unquotePath(fields[ordinaryEntryFieldCountConstant-1]))
	return nil
}

func (report *StatusReport) applyRenamedEntry(line string) error {
	fields := strings.SplitN(line, " ", renamedEntryFieldCountConstant)
	if len(fields) != renamedEntryFieldCountConstant || len(fields[1]) != 2 {
		return fmt.Errorf(malformedStatusLineTemplateConstant, line)
	}
	currentPath, originalPath, found := strings.Cut(fields[renamedEntryFieldCountConstant-1], renamedPathSeparatorConstant)
	if !found {
		return fmt.Errorf(malformedStatusLineTemplateConstant, line)
	}
	currentPath, originalPath = unquotePath(currentPath), unquotePath(originalPath)

	report.add(CategoryRenamed, originalPath+renamedDisplaySeparatorConstant+currentPath)
	report.applyStateCodes(fields[1], currentPath)
	return nil
}

func (report *StatusReport) applyUnmergedEntry(line string) error {
	fields := strings.SplitN(line, " ", unmergedEntryFieldCountConstant)
	if len(fields) != unmergedEntryFieldCountConstant {
		return fmt.Errorf(malformedStatusLineTemplateConstant, line)
	}
	report.add(CategoryConflicted, unquotePath(fields[unmergedEntryFieldCountConstant-1]))
	return nil
}

// applyStateCodes maps the index (X) and worktree (Y) codes of one entry onto categories.
// Renames and copies are recorded by the caller; here they only count as staged.
func (report *StatusReport) applyStateCodes(stateCodes string, path string) {
	indexCode, worktreeCode := stateCodes[0], stateCodes[1]
	if indexCode == 'A' {
		report.add(CategoryCreated, path)
	}
	if indexCode == 'D' || worktreeCode == 'D' {
		report.add(CategoryDeleted, path)
	}
	if indexCode == 'M' || worktreeCode == 'M' {
		report.add(CategoryModified, path)
	}
	switch indexCode {
	case 'M', 'A', 'D', 'R', 'C', 'T':
		report.add(CategoryStaged, path)
	}
}

func (report *StatusReport) add(category ChangeCategory, path string) {
	report.Changes[category] = append(report.Changes[category], path)
}

func unquotePath(path string) string {
	if !strings.HasPrefix(path, quotedPathPrefixConstant) {
		return path
	}
	if unquoted, unquoteError := strconv.Unquote(path); unquoteError == nil {
		return unquoted
	}
	return path
}
