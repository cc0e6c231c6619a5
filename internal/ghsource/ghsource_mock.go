package ghsource

import (
	"context"

	"github.com/google/go-github/v39/github"
	"github.com/stretchr/testify/mock"
)

// MockAPI is a mock implementation of API for testing.
type MockAPI struct {
	mock.Mock
}

var _ API = &MockAPI{} // Compile-time check

// ListDeployments implements the API interface.
func (m *MockAPI) ListDeployments(ctx context.Context, owner, repo string, opts *github.DeploymentsListOptions) ([]*github.Deployment, *github.Response, error) {
	args := m.Called(ctx, owner, repo, opts)
	out, _ := args.Get(0).([]*github.Deployment)
	resp, _ := args.Get(1).(*github.Response)
	return out, resp, args.Error(2)
}

// ListDeploymentStatuses implements the API interface.
func (m *MockAPI) ListDeploymentStatuses(ctx context.Context, owner, repo string, id int64, opts *github.ListOptions) ([]*github.DeploymentStatus, *github.Response, error) {
	args := m.Called(ctx, owner, repo, id, opts)
	out, _ := args.Get(0).([]*github.DeploymentStatus)
	resp, _ := args.Get(1).(*github.Response)
	return out, resp, args.Error(2)
}

// ListPullRequests implements the API interface.
func (m *MockAPI) ListPullRequests(ctx context.Context, owner, repo string, opts *github.PullRequestListOptions) ([]*github.PullRequest, *github.Response, error) {
	args := m.Called(ctx, owner, repo, opts)
	out, _ := args.Get(0).([]*github.PullRequest)
	resp, _ := args.Get(1).(*github.Response)
	return out, resp, args.Error(2)
}

// ListPullRequestCommits implements the API interface.
func (m *MockAPI) ListPullRequestCommits(ctx context.Context, owner, repo string, number int, opts *github.ListOptions) ([]*github.RepositoryCommit, *github.Response, error) {
	args := m.Called(ctx, owner, repo, number, opts)
	out, _ := args.Get(0).([]*github.RepositoryCommit)
	resp, _ := args.Get(1).(*github.Response)
	return out, resp, args.Error(2)
}
