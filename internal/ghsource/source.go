// Package ghsource builds delivery records from GitHub deployments and pull requests.
package ghsource

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v39/github"
	"github.com/huangsam/dorametrics/internal/contract"
	"github.com/huangsam/dorametrics/schema"
	"golang.org/x/oauth2"
)

const perPage = 100

// prSlack extends the pull request scan before the window start so that
// changes merged shortly before the window can still resolve a lead time.
const prSlack = 30 * 24 * time.Hour

// deploySlack is how long before the window a deployment may have been
// created and still have its latest status land inside the window.
const deploySlack = 24 * time.Hour

// API is the subset of the GitHub REST API used by Source.
type API interface {
	ListDeployments(ctx context.Context, owner, repo string, opts *github.DeploymentsListOptions) ([]*github.Deployment, *github.Response, error)
	ListDeploymentStatuses(ctx context.Context, owner, repo string, id int64, opts *github.ListOptions) ([]*github.DeploymentStatus, *github.Response, error)
	ListPullRequests(ctx context.Context, owner, repo string, opts *github.PullRequestListOptions) ([]*github.PullRequest, *github.Response, error)
	ListPullRequestCommits(ctx context.Context, owner, repo string, number int, opts *github.ListOptions) ([]*github.RepositoryCommit, *github.Response, error)
}

// restAPI adapts *github.Client to API.
type restAPI struct {
	client *github.Client
}

func (a restAPI) ListDeployments(ctx context.Context, owner, repo string, opts *github.DeploymentsListOptions) ([]*github.Deployment, *github.Response, error) {
	return a.client.Repositories.ListDeployments(ctx, owner, repo, opts)
}

func (a restAPI) ListDeploymentStatuses(ctx context.Context, owner, repo string, id int64, opts *github.ListOptions) ([]*github.DeploymentStatus, *github.Response, error) {
	return a.client.Repositories.ListDeploymentStatuses(ctx, owner, repo, id, opts)
}

func (a restAPI) ListPullRequests(ctx context.Context, owner, repo string, opts *github.PullRequestListOptions) ([]*github.PullRequest, *github.Response, error) {
	return a.client.PullRequests.List(ctx, owner, repo, opts)
}

func (a restAPI) ListPullRequestCommits(ctx context.Context, owner, repo string, number int, opts *github.ListOptions) ([]*github.RepositoryCommit, *github.Response, error) {
	return a.client.PullRequests.ListCommits(ctx, owner, repo, number, opts)
}

// NewAPI creates a REST client authenticated with a static token.
// An empty token yields an anonymous client with a low rate limit.
func NewAPI(ctx context.Context, token string) API {
	if token == "" {
		return restAPI{client: github.NewClient(nil)}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return restAPI{client: github.NewClient(oauth2.NewClient(ctx, ts))}
}

// Source reads deployments as builds and pull requests with their commits.
type Source struct {
	api         API
	owner       string
	repo        string
	environment string
}

var _ contract.RecordSource = &Source{}

// NewSource creates a record source for one repository. An empty environment
// includes deployments to every environment.
func NewSource(api API, owner, repo, environment string) (*Source, error) {
	if owner == "" || repo == "" {
		return nil, errors.New("github owner and repo are required")
	}
	return &Source{api: api, owner: owner, repo: repo, environment: environment}, nil
}

// Key identifies the repository and environment this source reads.
func (s *Source) Key() string {
	key := s.owner + "/" + s.repo
	if s.environment != "" {
		key += "@" + s.environment
	}
	return key
}

// FetchRecords lists deployments inside the window and the pull requests that
// could have produced them.
func (s *Source) FetchRecords(ctx context.Context, window schema.Window) (schema.RecordSet, error) {
	var records schema.RecordSet

	builds, err := s.fetchBuilds(ctx, window)
	if err != nil {
		return records, err
	}
	records.Builds = builds

	prs, err := s.fetchPullRequests(ctx, window)
	if err != nil {
		return records, err
	}
	for _, pr := range prs {
		records.PullRequests = append(records.PullRequests, toPullRequestRecord(pr))
		if pr.GetMergedAt().IsZero() {
			continue
		}
		commits, err := s.fetchPullRequestCommits(ctx, pr.GetNumber())
		if err != nil {
			return records, err
		}
		records.Commits = append(records.Commits, commits...)

		// Deployments reference the merge commit, so tag it with the PR too
		if sha := pr.GetMergeCommitSHA(); sha != "" {
			records.Commits = append(records.Commits, schema.CommitRecord{
				Hash:      sha,
				Author:    pr.GetMergedBy().GetLogin(),
				Timestamp: pr.GetMergedAt().UTC(),
				Message:   pr.GetTitle(),
				Tag:       prTag(pr.GetNumber()),
			})
		}
	}

	contract.Logger().Debug().
		Str("repo", s.Key()).
		Int("builds", len(records.Builds)).
		Int("commits", len(records.Commits)).
		Int("pull_requests", len(records.PullRequests)).
		Msg("Loaded delivery records from GitHub")
	return records, nil
}

func (s *Source) fetchBuilds(ctx context.Context, window schema.Window) ([]schema.BuildRecord, error) {
	var builds []schema.BuildRecord
	opts := &github.DeploymentsListOptions{
		Environment: s.environment,
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	for {
		deployments, resp, err := s.api.ListDeployments(ctx, s.owner, s.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list deployments: %w", err)
		}

		olderThanWindow := false
		for _, d := range deployments {
			created := d.GetCreatedAt().UTC()
			if !window.IsZero() && created.Before(window.Start.Add(-deploySlack)) {
				olderThanWindow = true
				continue
			}
			// Statuses never predate their deployment
			if !window.IsZero() && created.After(window.End) {
				continue
			}
			build, err := s.toBuildRecord(ctx, d)
			if err != nil {
				return nil, err
			}
			if !window.Contains(build.Timestamp) {
				continue
			}
			builds = append(builds, build)
		}

		// Deployments are listed newest first
		if resp == nil || resp.NextPage == 0 || olderThanWindow {
			break
		}
		opts.Page = resp.NextPage
	}
	return builds, nil
}

// toBuildRecord uses the most recent deployment status as the build result.
func (s *Source) toBuildRecord(ctx context.Context, d *github.Deployment) (schema.BuildRecord, error) {
	build := schema.BuildRecord{
		JobName:       jobName(d),
		BuildNumber:   int(d.GetID()),
		Result:        schema.BuildUnstable,
		Timestamp:     d.GetCreatedAt().UTC(),
		TriggeredBy:   d.GetCreator().GetLogin(),
		CommitID:      d.GetSHA(),
		CommitMessage: d.GetDescription(),
		Branch:        d.GetRef(),
	}

	statuses, _, err := s.api.ListDeploymentStatuses(ctx, s.owner, s.repo, d.GetID(), &github.ListOptions{PerPage: 1})
	if err != nil {
		return build, fmt.Errorf("failed to list statuses for deployment %d: %w", d.GetID(), err)
	}
	if len(statuses) > 0 {
		latest := statuses[0]
		build.Result = mapDeploymentState(latest.GetState())
		if ts := latest.GetCreatedAt().UTC(); !ts.IsZero() {
			build.Duration = ts.Sub(build.Timestamp)
			build.Timestamp = ts
		}
	}
	return build, nil
}

func (s *Source) fetchPullRequests(ctx context.Context, window schema.Window) ([]*github.PullRequest, error) {
	var prs []*github.PullRequest
	opts := &github.PullRequestListOptions{
		State:       "all",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	var cutoff time.Time
	if !window.IsZero() {
		cutoff = window.Start.Add(-prSlack)
	}

	for {
		page, resp, err := s.api.ListPullRequests(ctx, s.owner, s.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch pull requests: %w", err)
		}

		done := false
		for _, pr := range page {
			if !cutoff.IsZero() && pr.GetUpdatedAt().Before(cutoff) {
				done = true
				continue
			}
			prs = append(prs, pr)
		}

		if resp == nil || resp.NextPage == 0 || done {
			break
		}
		opts.Page = resp.NextPage
	}
	return prs, nil
}

func (s *Source) fetchPullRequestCommits(ctx context.Context, number int) ([]schema.CommitRecord, error) {
	var commits []schema.CommitRecord
	opts := &github.ListOptions{PerPage: perPage}

	for {
		page, resp, err := s.api.ListPullRequestCommits(ctx, s.owner, s.repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch commits for PR #%d: %w", number, err)
		}
		for _, c := range page {
			commits = append(commits, schema.CommitRecord{
				Hash:      c.GetSHA(),
				Author:    commitAuthor(c),
				Timestamp: c.GetCommit().GetAuthor().GetDate().UTC(),
				Message:   firstLine(c.GetCommit().GetMessage()),
				Tag:       prTag(number),
			})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return commits, nil
}

func toPullRequestRecord(pr *github.PullRequest) schema.PullRequestRecord {
	record := schema.PullRequestRecord{
		Number:       pr.GetNumber(),
		Title:        pr.GetTitle(),
		State:        schema.PROpen,
		CreatedAt:    pr.GetCreatedAt().UTC(),
		Author:       pr.GetUser().GetLogin(),
		SourceBranch: pr.GetHead().GetRef(),
	}
	if merged := pr.GetMergedAt(); !merged.IsZero() {
		t := merged.UTC()
		record.MergedAt = &t
		record.State = schema.PRMerged
	}
	if closed := pr.GetClosedAt(); !closed.IsZero() {
		t := closed.UTC()
		record.ClosedAt = &t
		if record.State == schema.PROpen {
			record.State = schema.PRClosed
		}
	}
	return record
}

// mapDeploymentState folds GitHub deployment states into build results.
func mapDeploymentState(state string) schema.BuildResult {
	switch strings.ToLower(state) {
	case "success":
		return schema.BuildSuccess
	case "failure", "error":
		return schema.BuildFailure
	case "inactive":
		return schema.BuildAborted
	default:
		return schema.BuildUnstable
	}
}

func jobName(d *github.Deployment) string {
	if env := d.GetEnvironment(); env != "" {
		return "deploy-" + env
	}
	if task := d.GetTask(); task != "" {
		return task
	}
	return "deploy"
}

func commitAuthor(c *github.RepositoryCommit) string {
	if login := c.GetAuthor().GetLogin(); login != "" {
		return login
	}
	return c.GetCommit().GetAuthor().GetName()
}

func prTag(number int) string {
	return "PR-" + strconv.Itoa(number)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
