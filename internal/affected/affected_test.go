package affected

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devac/devac/internal/model"
)

// fakeFetcher implements DependentsFetcher over an in-memory reverse-edge
// map keyed by target entity_id, so affected can be tested without a
// running federation hub.
type fakeFetcher struct {
	edges map[string][]model.CrossRepoEdge
}

func (f *fakeFetcher) GetCrossRepoDependents(targetIDs []string) ([]model.CrossRepoEdge, error) {
	var out []model.CrossRepoEdge
	for _, id := range targetIDs {
		out = append(out, f.edges[id]...)
	}
	return out, nil
}

func TestAnalyzeNoChangedEntities(t *testing.T) {
	f := &fakeFetcher{edges: map[string][]model.CrossRepoEdge{}}
	res, err := Analyze(context.Background(), f, nil, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 0, res.TotalAffected)
}

func TestAnalyzeDirectAndTransitive(t *testing.T) {
	f := &fakeFetcher{edges: map[string][]model.CrossRepoEdge{
		"root#1": {
			{SourceRepo: "repoB", SourceEntityID: "b#1", TargetRepo: "repoA", TargetEntityID: "root#1", EdgeType: model.EdgeCalls},
		},
		"b#1": {
			{SourceRepo: "repoC", SourceEntityID: "c#1", TargetRepo: "repoB", TargetEntityID: "b#1", EdgeType: model.EdgeImports},
		},
	}}

	res, err := Analyze(context.Background(), f, []string{"root#1"}, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 2, res.TotalAffected)

	byRepo := map[string]RepoImpact{}
	for _, r := range res.AffectedRepos {
		byRepo[r.RepoID] = r
	}
	require.Equal(t, ImpactDirect, byRepo["repoB"].ImpactLevel)
	require.Equal(t, ImpactTransitive, byRepo["repoC"].ImpactLevel)
}

func TestAnalyzeMaxDepthZeroYieldsNoDependents(t *testing.T) {
	f := &fakeFetcher{edges: map[string][]model.CrossRepoEdge{
		"root#1": {
			{SourceRepo: "repoB", SourceEntityID: "b#1", TargetRepo: "repoA", TargetEntityID: "root#1", EdgeType: model.EdgeCalls},
		},
	}}

	res, err := Analyze(context.Background(), f, []string{"root#1"}, Options{MaxDepth: 0})
	require.NoError(t, err)
	require.Equal(t, 0, res.TotalAffected)
}

func TestAnalyzeCycleSafe(t *testing.T) {
	f := &fakeFetcher{edges: map[string][]model.CrossRepoEdge{
		"a#1": {{SourceRepo: "repo", SourceEntityID: "b#1", TargetRepo: "repo", TargetEntityID: "a#1", EdgeType: model.EdgeCalls}},
		"b#1": {{SourceRepo: "repo", SourceEntityID: "a#1", TargetRepo: "repo", TargetEntityID: "b#1", EdgeType: model.EdgeCalls}},
	}}

	res, err := Analyze(context.Background(), f, []string{"a#1"}, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 1, res.TotalAffected)
	require.False(t, res.Truncated)
}

func TestAnalyzeIncludeExcludeFilters(t *testing.T) {
	f := &fakeFetcher{edges: map[string][]model.CrossRepoEdge{
		"root#1": {
			{SourceRepo: "repoB", SourceEntityID: "b#1", TargetRepo: "repoA", TargetEntityID: "root#1", EdgeType: model.EdgeCalls},
			{SourceRepo: "repoD", SourceEntityID: "d#1", TargetRepo: "repoA", TargetEntityID: "root#1", EdgeType: model.EdgeCalls},
		},
	}}

	res, err := Analyze(context.Background(), f, []string{"root#1"}, Options{MaxDepth: 1, ExcludeRepos: []string{"repoD"}})
	require.NoError(t, err)
	require.Len(t, res.AffectedRepos, 1)
	require.Equal(t, "repoB", res.AffectedRepos[0].RepoID)
}

func TestAnalyzeMaxVisitedTruncates(t *testing.T) {
	f := &fakeFetcher{edges: map[string][]model.CrossRepoEdge{
		"root#1": {
			{SourceRepo: "repoB", SourceEntityID: "b#1", TargetRepo: "repoA", TargetEntityID: "root#1", EdgeType: model.EdgeCalls},
			{SourceRepo: "repoC", SourceEntityID: "c#1", TargetRepo: "repoA", TargetEntityID: "root#1", EdgeType: model.EdgeCalls},
		},
	}}

	res, err := Analyze(context.Background(), f, []string{"root#1"}, Options{MaxDepth: 1, MaxVisited: 1})
	require.NoError(t, err)
	require.True(t, res.Truncated)
}
