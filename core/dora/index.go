package dora

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/huangsam/dorametrics/schema"
)

// prRefRegex matches the pull request reference forms seen in branch names,
// CI tags and merge commit subjects: "PR-12", "pr_12", "refs/pull/12/head",
// "Merge pull request #12", "#12".
var prRefRegex = regexp.MustCompile(`(?i)(?:\bpr[-_/#\s]*|\bpulls?/|pull request\s*#|#)(\d+)\b`)

// ParsePRReference extracts a pull request number from a branch-or-PR tag.
func ParsePRReference(tag string) (int, bool) {
	m := prRefRegex.FindStringSubmatch(tag)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// recordIndex turns the commit/PR/build correlation into map lookups.
// It is built once per analysis call and never mutated afterwards.
type recordIndex struct {
	commits     map[string]schema.CommitRecord // hash -> commit
	firstCommit map[int]time.Time              // PR number -> earliest commit timestamp
	prs         map[int]schema.PullRequestRecord
	warnings    []schema.Warning
}

// newRecordIndex builds the lookup maps. Commits without a usable timestamp
// are indexed by hash but never contribute a first-commit time.
func newRecordIndex(commits []schema.CommitRecord, prs []schema.PullRequestRecord) *recordIndex {
	idx := &recordIndex{
		commits:     make(map[string]schema.CommitRecord, len(commits)),
		firstCommit: make(map[int]time.Time),
		prs:         make(map[int]schema.PullRequestRecord, len(prs)),
	}

	for _, pr := range prs {
		idx.prs[pr.Number] = pr
	}

	for _, c := range commits {
		if c.Hash == "" {
			idx.warnings = append(idx.warnings, schema.Warning{
				Kind:    schema.WarnMalformedRecord,
				Subject: "commit",
				Detail:  "commit without hash",
			})
			continue
		}
		idx.commits[c.Hash] = c
		if c.Timestamp.IsZero() {
			idx.warnings = append(idx.warnings, schema.Warning{
				Kind:    schema.WarnMalformedRecord,
				Subject: "commit " + c.Hash,
				Detail:  "missing or unparseable timestamp",
			})
			continue
		}
		n, ok := ParsePRReference(c.Tag)
		if !ok {
			continue
		}
		if cur, seen := idx.firstCommit[n]; !seen || c.Timestamp.Before(cur) {
			idx.firstCommit[n] = c.Timestamp
		}
	}

	return idx
}

// resolve traces a deployed build to its pull request and first commit time.
func (idx *recordIndex) resolve(b schema.BuildRecord) (pr int, first time.Time, warn *schema.Warning) {
	subject := fmt.Sprintf("build %s#%d", b.JobName, b.BuildNumber)

	c, ok := idx.commits[b.CommitID]
	if !ok {
		return 0, time.Time{}, &schema.Warning{
			Kind:    schema.WarnUnresolvedReference,
			Subject: subject,
			Detail:  fmt.Sprintf("commit %q not found", b.CommitID),
		}
	}

	pr, ok = ParsePRReference(c.Tag)
	if !ok {
		return 0, time.Time{}, &schema.Warning{
			Kind:    schema.WarnUnresolvedReference,
			Subject: subject,
			Detail:  fmt.Sprintf("commit %s has no pull request reference in tag %q", c.Hash, c.Tag),
		}
	}

	// Only require a matching PR record when the caller supplied any.
	if len(idx.prs) > 0 {
		if _, ok := idx.prs[pr]; !ok {
			return 0, time.Time{}, &schema.Warning{
				Kind:    schema.WarnUnresolvedReference,
				Subject: subject,
				Detail:  fmt.Sprintf("pull request #%d not found", pr),
			}
		}
	}

	first, ok = idx.firstCommit[pr]
	if !ok {
		return 0, time.Time{}, &schema.Warning{
			Kind:    schema.WarnUnresolvedReference,
			Subject: subject,
			Detail:  fmt.Sprintf("pull request #%d has no commit with a usable timestamp", pr),
		}
	}

	return pr, first, nil
}
