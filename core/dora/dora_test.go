package dora

import (
	"testing"
	"time"

	"github.com/huangsam/dorametrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

func build(n int, result schema.BuildResult, at string, commit string) schema.BuildRecord {
	b := schema.BuildRecord{
		JobName:     "deploy-prod",
		BuildNumber: n,
		Result:      result,
		CommitID:    commit,
	}
	if at != "" {
		b.Timestamp = ts(at)
	}
	return b
}

// scenarioBuilds has three successful deployments and one failure over four days.
func scenarioBuilds() []schema.BuildRecord {
	return []schema.BuildRecord{
		build(1, schema.BuildSuccess, "2025-04-09 01:35:51", "a1"),
		build(2, schema.BuildFailure, "2025-04-10 09:12:00", "b2"),
		build(3, schema.BuildSuccess, "2025-04-12 18:41:18", "c3"),
		build(4, schema.BuildSuccess, "2025-04-12 21:22:32", "d4"),
	}
}

func TestDeploymentFrequency_InferredWindow(t *testing.T) {
	res, warnings, err := DeploymentFrequency(scenarioBuilds(), schema.Window{})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 4, res.Days)
	assert.Equal(t, 3, res.Deployments)
	assert.InDelta(t, 0.75, res.PerDay, 1e-9)
	assert.Equal(t, schema.TierHigh, res.Tier)
	assert.Equal(t, ts("2025-04-09 01:35:51"), res.Window.Start)
	assert.Equal(t, ts("2025-04-12 21:22:32"), res.Window.End)
}

func TestDeploymentFrequency_ExplicitWindow(t *testing.T) {
	window := schema.Window{Start: ts("2025-04-12 00:00:00"), End: ts("2025-04-12 23:59:59")}
	res, _, err := DeploymentFrequency(scenarioBuilds(), window)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Days)
	assert.Equal(t, 2, res.Deployments)
	assert.InDelta(t, 2.0, res.PerDay, 1e-9)
	assert.Equal(t, schema.TierElite, res.Tier)
}

func TestDeploymentFrequency_NoDeployments(t *testing.T) {
	builds := []schema.BuildRecord{build(1, schema.BuildFailure, "2025-04-09 01:00:00", "x")}
	res, _, err := DeploymentFrequency(builds, schema.Window{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Deployments)
	assert.Equal(t, 1, res.Days)
	assert.Zero(t, res.PerDay)
	assert.Equal(t, schema.TierLow, res.Tier)

	res, _, err = DeploymentFrequency(nil, schema.Window{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Days)
	assert.Equal(t, schema.TierLow, res.Tier)
}

func TestDeploymentFrequency_InvalidWindow(t *testing.T) {
	window := schema.Window{Start: ts("2025-04-12 00:00:00"), End: ts("2025-04-09 00:00:00")}
	_, _, err := DeploymentFrequency(scenarioBuilds(), window)
	assert.ErrorIs(t, err, schema.ErrInvalidWindow)

	_, _, err = DeploymentFrequency(scenarioBuilds(), schema.Window{Start: ts("2025-04-12 00:00:00")})
	assert.ErrorIs(t, err, schema.ErrInvalidWindow)
}

func TestDeploymentFrequency_MalformedBuilds(t *testing.T) {
	builds := append(scenarioBuilds(),
		build(5, schema.BuildSuccess, "", "e5"),
		build(6, "PASSED", "2025-04-11 00:00:00", "f6"),
	)
	res, warnings, err := DeploymentFrequency(builds, schema.Window{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Deployments)
	require.Len(t, warnings, 2)
	for _, w := range warnings {
		assert.Equal(t, schema.WarnMalformedRecord, w.Kind)
	}
	assert.Equal(t, "build deploy-prod#5", warnings[0].Subject)
	assert.Contains(t, warnings[1].Detail, "PASSED")
}

func TestClassifyFrequency(t *testing.T) {
	tests := []struct {
		name     string
		perDay   float64
		expected schema.Tier
	}{
		{"multiple per day", 2.5, schema.TierElite},
		{"exactly one per day", 1.0, schema.TierHigh},
		{"just above one", 1.0001, schema.TierElite},
		{"weekly", 1.0 / 7.0, schema.TierHigh},
		{"just below weekly", 1.0/7.0 - 1e-9, schema.TierMedium},
		{"monthly", 1.0 / 30.0, schema.TierMedium},
		{"below monthly", 0.01, schema.TierLow},
		{"zero", 0, schema.TierLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyFrequency(tt.perDay))
		})
	}
}

func TestClassifyLeadTime(t *testing.T) {
	tests := []struct {
		minutes  float64
		expected schema.Tier
	}{
		{0, schema.TierElite},
		{59.99, schema.TierElite},
		{60, schema.TierEliteAboveThreshold},
		{111, schema.TierEliteAboveThreshold},
		{1440, schema.TierHigh},
		{10079, schema.TierHigh},
		{10080, schema.TierMedium},
		{43199, schema.TierMedium},
		{43200, schema.TierLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ClassifyLeadTime(tt.minutes), "minutes=%v", tt.minutes)
	}
}

func TestClassifyFailureRate(t *testing.T) {
	tests := []struct {
		pct      float64
		expected schema.Tier
	}{
		{0, schema.TierElite},
		{15, schema.TierElite},
		{15.01, schema.TierHigh},
		{30, schema.TierHigh},
		{30.5, schema.TierMedium},
		{45, schema.TierMedium},
		{45.01, schema.TierLow},
		{100, schema.TierLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ClassifyFailureRate(tt.pct), "pct=%v", tt.pct)
	}
}

func TestChangeFailureRate(t *testing.T) {
	res, warnings := ChangeFailureRate(scenarioBuilds())
	assert.Empty(t, warnings)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 1, res.Failed)
	assert.InDelta(t, 25.0, res.Percentage, 1e-9)
	assert.Equal(t, schema.TierHigh, res.Tier)
}

func TestChangeFailureRate_AbortedAndUnstableAreNotFailures(t *testing.T) {
	builds := []schema.BuildRecord{
		build(1, schema.BuildAborted, "2025-04-09 01:00:00", "a"),
		build(2, schema.BuildUnstable, "2025-04-09 02:00:00", "b"),
		build(3, schema.BuildFailure, "2025-04-09 03:00:00", "c"),
		build(4, schema.BuildSuccess, "2025-04-09 04:00:00", "d"),
	}
	res, _ := ChangeFailureRate(builds)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 1, res.Failed)
	assert.InDelta(t, 25.0, res.Percentage, 1e-9)
}

func TestChangeFailureRate_Empty(t *testing.T) {
	res, _ := ChangeFailureRate(nil)
	assert.Zero(t, res.Total)
	assert.Zero(t, res.Percentage)
	assert.Equal(t, schema.TierNoData, res.Tier)

	res, warnings := ChangeFailureRate([]schema.BuildRecord{build(1, schema.BuildSuccess, "", "a")})
	assert.Zero(t, res.Total)
	assert.Equal(t, schema.TierNoData, res.Tier, "malformed builds do not count")
	assert.Len(t, warnings, 1)
}

func TestChangeFailureRate_RangeProperty(t *testing.T) {
	results := []schema.BuildResult{schema.BuildSuccess, schema.BuildFailure, schema.BuildAborted, schema.BuildUnstable}
	var builds []schema.BuildRecord
	for i := range 37 {
		builds = append(builds, schema.BuildRecord{
			BuildNumber: i,
			Result:      results[(i*7)%len(results)],
			Timestamp:   ts("2025-01-01 00:00:00").Add(time.Duration(i) * time.Hour),
		})
		res, _ := ChangeFailureRate(builds)
		assert.GreaterOrEqual(t, res.Percentage, 0.0)
		assert.LessOrEqual(t, res.Percentage, 100.0)
		assert.Equal(t, 100*float64(res.Failed)/float64(res.Total), res.Percentage)
	}
}

// leadTimeFixture yields two traceable deployments of 138 and 84 minutes.
func leadTimeFixture() ([]schema.BuildRecord, []schema.CommitRecord, []schema.PullRequestRecord) {
	builds := []schema.BuildRecord{
		build(10, schema.BuildSuccess, "2025-04-09 12:18:00", "c-102"),
		build(11, schema.BuildFailure, "2025-04-09 13:00:00", "c-201"),
		build(12, schema.BuildSuccess, "2025-04-09 15:24:00", "c-202"),
	}
	commits := []schema.CommitRecord{
		{Hash: "c-101", Timestamp: ts("2025-04-09 10:00:00"), Tag: "PR-1"},
		{Hash: "c-102", Timestamp: ts("2025-04-09 11:30:00"), Tag: "PR-1"},
		{Hash: "c-201", Timestamp: ts("2025-04-09 14:00:00"), Tag: "feature/login PR-2"},
		{Hash: "c-202", Timestamp: ts("2025-04-09 14:45:00"), Tag: "PR-2"},
	}
	prs := []schema.PullRequestRecord{
		{Number: 1, State: schema.PRMerged, CreatedAt: ts("2025-04-09 10:05:00")},
		{Number: 2, State: schema.PRMerged, CreatedAt: ts("2025-04-09 14:10:00")},
	}
	return builds, commits, prs
}

func TestLeadTime_AveragesTracedBuilds(t *testing.T) {
	builds, commits, prs := leadTimeFixture()
	res, warnings := LeadTime(builds, commits, prs)

	assert.Empty(t, warnings)
	require.Len(t, res.Samples, 2)
	assert.InDelta(t, 138.0, res.Samples[0].Minutes(), 1e-9)
	assert.InDelta(t, 84.0, res.Samples[1].Minutes(), 1e-9)
	assert.Equal(t, 1, res.Samples[0].PRNumber)
	assert.Equal(t, ts("2025-04-09 10:00:00"), res.Samples[0].FirstCommitTime)
	assert.InDelta(t, 111.0, res.AverageMinutes, 1e-9)
	assert.Equal(t, schema.TierEliteAboveThreshold, res.Tier)
	assert.Zero(t, res.Excluded)
}

func TestLeadTime_UnresolvedReferences(t *testing.T) {
	builds, commits, prs := leadTimeFixture()
	builds = append(builds,
		build(20, schema.BuildSuccess, "2025-04-09 16:00:00", "missing"),
		build(21, schema.BuildSuccess, "2025-04-09 16:30:00", "c-301"),
		build(22, schema.BuildSuccess, "2025-04-09 17:00:00", "c-401"),
	)
	commits = append(commits,
		schema.CommitRecord{Hash: "c-301", Timestamp: ts("2025-04-09 15:00:00"), Tag: "main"},
		schema.CommitRecord{Hash: "c-401", Timestamp: ts("2025-04-09 15:00:00"), Tag: "PR-99"},
	)

	res, warnings := LeadTime(builds, commits, prs)
	assert.Len(t, res.Samples, 2)
	assert.Equal(t, 3, res.Excluded)
	assert.InDelta(t, 111.0, res.AverageMinutes, 1e-9, "excluded builds are not averaged as zero")

	require.Len(t, warnings, 3)
	for _, w := range warnings {
		assert.Equal(t, schema.WarnUnresolvedReference, w.Kind)
	}
	assert.Contains(t, warnings[0].Detail, `"missing"`)
	assert.Contains(t, warnings[1].Detail, "no pull request reference")
	assert.Contains(t, warnings[2].Detail, "#99 not found")
}

func TestLeadTime_WithoutPullRequestRecords(t *testing.T) {
	builds, commits, _ := leadTimeFixture()
	res, warnings := LeadTime(builds, commits, nil)
	assert.Empty(t, warnings)
	assert.Len(t, res.Samples, 2)
}

func TestLeadTime_NegativeIsAnomaly(t *testing.T) {
	builds := []schema.BuildRecord{
		build(1, schema.BuildSuccess, "2025-04-09 09:00:00", "c1"),
		build(2, schema.BuildSuccess, "2025-04-09 12:00:00", "c2"),
	}
	commits := []schema.CommitRecord{
		{Hash: "c1", Timestamp: ts("2025-04-09 10:00:00"), Tag: "PR-1"},
		{Hash: "c2", Timestamp: ts("2025-04-09 11:00:00"), Tag: "PR-2"},
	}
	res, warnings := LeadTime(builds, commits, nil)

	require.Len(t, res.Anomalies, 1)
	assert.InDelta(t, -60.0, res.Anomalies[0].Minutes(), 1e-9)
	require.Len(t, res.Samples, 1)
	assert.InDelta(t, 60.0, res.AverageMinutes, 1e-9)
	require.Len(t, warnings, 1)
	assert.Equal(t, schema.WarnNegativeLeadTime, warnings[0].Kind)
}

func TestLeadTime_MalformedCommitTimestamp(t *testing.T) {
	builds := []schema.BuildRecord{build(1, schema.BuildSuccess, "2025-04-09 12:00:00", "c2")}
	commits := []schema.CommitRecord{
		{Hash: "c1", Tag: "PR-1"},
		{Hash: "c2", Timestamp: ts("2025-04-09 11:00:00"), Tag: "PR-1"},
	}
	res, warnings := LeadTime(builds, commits, nil)
	require.Len(t, res.Samples, 1)
	assert.InDelta(t, 60.0, res.AverageMinutes, 1e-9)
	require.Len(t, warnings, 1)
	assert.Equal(t, schema.WarnMalformedRecord, warnings[0].Kind)
	assert.Equal(t, "commit c1", warnings[0].Subject)
}

func TestLeadTime_NoSamples(t *testing.T) {
	res, warnings := LeadTime(nil, nil, nil)
	assert.Empty(t, warnings)
	assert.Zero(t, res.AverageMinutes)
	assert.Equal(t, schema.TierNoData, res.Tier)
}

func TestAnalyze_Scenario(t *testing.T) {
	builds, commits, prs := leadTimeFixture()
	records := schema.RecordSet{Builds: scenarioBuilds(), Commits: commits, PullRequests: prs}
	records.Builds = append(records.Builds, builds...)

	window := schema.Window{Start: ts("2025-04-09 00:00:00"), End: ts("2025-04-12 23:59:59")}
	res, err := Analyze(records, window)
	require.NoError(t, err)

	assert.False(t, res.NoData)
	assert.Equal(t, 4, res.Frequency.Days)
	assert.Equal(t, 5, res.Frequency.Deployments)
	assert.InDelta(t, 1.25, res.Frequency.PerDay, 1e-9)
	assert.Equal(t, schema.TierElite, res.Frequency.Tier)
	assert.Equal(t, 7, res.FailureRate.Total)
	assert.Equal(t, 2, res.FailureRate.Failed)
	assert.Equal(t, 2, len(res.LeadTime.Samples))
	// the three scenario builds reference unknown commits
	assert.Equal(t, 3, res.LeadTime.Excluded)
	assert.Equal(t, 3, schema.CountWarnings(res.Warnings).UnresolvedReferences)
}

func TestAnalyze_WindowFiltersEveryMetric(t *testing.T) {
	window := schema.Window{Start: ts("2025-04-09 00:00:00"), End: ts("2025-04-10 23:59:59")}
	res, err := Analyze(schema.RecordSet{Builds: scenarioBuilds()}, window)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Frequency.Days)
	assert.Equal(t, 1, res.Frequency.Deployments)
	assert.Equal(t, 2, res.FailureRate.Total)
	assert.InDelta(t, 50.0, res.FailureRate.Percentage, 1e-9)
}

func TestAnalyze_EmptyInput(t *testing.T) {
	res, err := Analyze(schema.RecordSet{}, schema.Window{})
	require.NoError(t, err)
	assert.True(t, res.NoData)
	assert.Zero(t, res.Frequency.PerDay)
	assert.Equal(t, schema.TierLow, res.Frequency.Tier)
	assert.Equal(t, schema.TierNoData, res.LeadTime.Tier)
	assert.Zero(t, res.FailureRate.Percentage)
	assert.Equal(t, schema.TierNoData, res.FailureRate.Tier)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, schema.WarnEmptyInput, res.Warnings[0].Kind)
}

func TestAnalyze_MalformedCountedOnce(t *testing.T) {
	records := schema.RecordSet{Builds: append(scenarioBuilds(), build(9, schema.BuildSuccess, "", "z"))}
	res, err := Analyze(records, schema.Window{})
	require.NoError(t, err)
	assert.Equal(t, 1, schema.CountWarnings(res.Warnings).MalformedRecords)
	assert.Equal(t, 4, res.FailureRate.Total)
}

func TestAnalyze_InvalidWindow(t *testing.T) {
	_, err := Analyze(schema.RecordSet{}, schema.Window{Start: ts("2025-04-12 00:00:00"), End: ts("2025-04-01 00:00:00")})
	assert.ErrorIs(t, err, schema.ErrInvalidWindow)
}

func TestAnalyze_Idempotent(t *testing.T) {
	builds, commits, prs := leadTimeFixture()
	records := schema.RecordSet{Builds: append(scenarioBuilds(), builds...), Commits: commits, PullRequests: prs}

	first, err := Analyze(records, schema.Window{})
	require.NoError(t, err)
	second, err := Analyze(records, schema.Window{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, schema.NewDeliveryReport("r", first), schema.NewDeliveryReport("r", second))
}
