package vcs_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/repofleet/internal/vcs"
)

func TestParseStatusCountsModifiedAndUntracked(t *testing.T) {
	const (
		modifiedCount  = 3
		untrackedCount = 2
	)

	var output strings.Builder
	output.WriteString("# branch.oid 1234567\n# branch.head main\n")
	for index := 0; index < modifiedCount; index++ {
		fmt.Fprintf(&output, "1 .M N... 100644 100644 100644 aaa bbb src/file%d.go\n", index)
	}
	for index := 0; index < untrackedCount; index++ {
		fmt.Fprintf(&output, "? scratch%d.txt\n", index)
	}

	report, parseError := vcs.ParseStatus(output.String())
	require.NoError(t, parseError)
	require.Len(t, report.Changes, len(vcs.ChangeCategories()))
	for _, category := range vcs.ChangeCategories() {
		switch category {
		case vcs.CategoryModified:
			require.Len(t, report.Changes[category], modifiedCount)
		case vcs.CategoryNotAdded:
			require.Len(t, report.Changes[category], untrackedCount)
		default:
			require.Empty(t, report.Changes[category], string(category))
		}
	}
	require.False(t, report.Clean())
}

func TestParseStatus(t *testing.T) {
	testCases := []struct {
		name             string
		output           string
		expectedBranch   string
		expectedTracking string
		expectedAhead    int
		expectedBehind   int
		expectedChanges  map[vcs.ChangeCategory][]string
	}{
		{
			name:             "clean_tracking_branch",
			output:           "# branch.oid abc\n# branch.head main\n# branch.upstream origin/main\n# branch.ab +0 -0\n",
			expectedBranch:   "main",
			expectedTracking: "origin/main",
		},
		{
			name:             "ahead_and_behind",
			output:           "# branch.head feature\n# branch.upstream origin/feature\n# branch.ab +4 -7\n",
			expectedBranch:   "feature",
			expectedTracking: "origin/feature",
			expectedAhead:    4,
			expectedBehind:   7,
		},
		{
			name:   "detached_head",
			output: "# branch.oid abc\n# branch.head (detached)\n",
		},
		{
			name:           "staged_addition_and_deletion",
			output:         "# branch.head main\n1 A. N... 000000 100644 100644 000 aaa added.go\n1 D. N... 100644 000000 000000 aaa 000 removed.go\n1 .D N... 100644 100644 000000 aaa aaa missing.go\n",
			expectedBranch: "main",
			expectedChanges: map[vcs.ChangeCategory][]string{
				vcs.CategoryCreated: {"added.go"},
				vcs.CategoryDeleted: {"removed.go", "missing.go"},
				vcs.CategoryStaged:  {"added.go", "removed.go"},
			},
		},
		{
			name:           "staged_and_unstaged_modification",
			output:         "# branch.head main\n1 MM N... 100644 100644 100644 aaa bbb both.go\n",
			expectedBranch: "main",
			expectedChanges: map[vcs.ChangeCategory][]string{
				vcs.CategoryModified: {"both.go"},
				vcs.CategoryStaged:   {"both.go"},
			},
		},
		{
			name:           "rename",
			output:         "# branch.head main\n2 R. N... 100644 100644 100644 aaa aaa R100 new name.go\told.go\n",
			expectedBranch: "main",
			expectedChanges: map[vcs.ChangeCategory][]string{
				vcs.CategoryRenamed: {"old.go -> new name.go"},
				vcs.CategoryStaged:  {"new name.go"},
			},
		},
		{
			name:           "conflict",
			output:         "# branch.head main\nu UU N... 100644 100644 100644 100644 aaa bbb ccc merge.go\n",
			expectedBranch: "main",
			expectedChanges: map[vcs.ChangeCategory][]string{
				vcs.CategoryConflicted: {"merge.go"},
			},
		},
		{
			name:           "quoted_and_ignored_paths",
			output:         "# branch.head main\n? \"caf\\303\\251.txt\"\n! build/\n",
			expectedBranch: "main",
			expectedChanges: map[vcs.ChangeCategory][]string{
				vcs.CategoryNotAdded: {"café.txt"},
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			report, parseError := vcs.ParseStatus(testCase.output)
			require.NoError(t, parseError)
			require.Equal(t, testCase.expectedBranch, report.Branch)
			require.Equal(t, testCase.expectedTracking, report.TrackingBranch)
			require.Equal(t, testCase.expectedAhead, report.Ahead)
			require.Equal(t, testCase.expectedBehind, report.Behind)

			for _, category := range vcs.ChangeCategories() {
				expectedPaths := testCase.expectedChanges[category]
				if len(expectedPaths) == 0 {
					require.Empty(t, report.Changes[category], string(category))
					continue
				}
				require.Equal(t, expectedPaths, report.Changes[category], string(category))
			}
			require.Equal(t, len(testCase.expectedChanges) == 0, report.Clean())
		})
	}
}

func TestParseStatusRejectsMalformedInput(t *testing.T) {
	for _, output := range []string{
		"garbage line\n",
		"1 .M too few fields\n",
		"# branch.ab +x -1\n",
		"2 R. N... 100644 100644 100644 aaa aaa R100 missing-separator.go\n",
	} {
		_, parseError := vcs.ParseStatus(output)
		require.Error(t, parseError, output)
	}
}
