package federation

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devac/devac/internal/model"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "central.duckdb")
	h, err := Init(dbPath, false, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestInitCloseIdempotent(t *testing.T) {
	h := newTestHub(t)
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	_, err := h.ListRepos()
	require.Error(t, err)
}

func TestAddRepoAndRemoveCascade(t *testing.T) {
	h := newTestHub(t)

	require.NoError(t, h.AddRepo(model.RepoRegistration{
		RepoID: "repo-a", LocalPath: "/tmp/a", ManifestHash: "h1", Status: model.RepoActive,
	}))

	require.NoError(t, h.AddCrossRepoEdges([]model.CrossRepoEdge{
		{SourceRepo: "repo-a", SourceEntityID: "a#1", TargetRepo: "repo-a", TargetEntityID: "a#2", EdgeType: model.EdgeCalls},
	}))

	edges, err := h.GetCrossRepoDependents([]string{"a#2"})
	require.NoError(t, err)
	require.Len(t, edges, 1)

	require.NoError(t, h.RemoveRepo("repo-a"))

	edges, err = h.GetCrossRepoDependents([]string{"a#2"})
	require.NoError(t, err)
	require.Empty(t, edges)
}

func TestRemoveRepoNotFound(t *testing.T) {
	h := newTestHub(t)
	err := h.RemoveRepo("missing")
	require.Error(t, err)
}

func TestAddCrossRepoEdgesIdempotent(t *testing.T) {
	h := newTestHub(t)
	require.NoError(t, h.AddRepo(model.RepoRegistration{RepoID: "r1", LocalPath: "/tmp/r1", ManifestHash: "h"}))
	require.NoError(t, h.AddRepo(model.RepoRegistration{RepoID: "r2", LocalPath: "/tmp/r2", ManifestHash: "h"}))

	edge := model.CrossRepoEdge{SourceRepo: "r2", SourceEntityID: "r2#fn", TargetRepo: "r1", TargetEntityID: "r1#fn", EdgeType: model.EdgeImports}

	require.NoError(t, h.AddCrossRepoEdges([]model.CrossRepoEdge{edge}))
	require.NoError(t, h.AddCrossRepoEdges([]model.CrossRepoEdge{edge}))

	got, err := h.GetCrossRepoDependents([]string{"r1#fn"})
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestCacheQueryZeroTTLNeverCaches(t *testing.T) {
	h := newTestHub(t)
	require.NoError(t, h.CacheQuery("hash1", "result1", 0))

	_, ok, err := h.GetCachedQuery("hash1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheQueryRoundTrip(t *testing.T) {
	h := newTestHub(t)
	require.NoError(t, h.CacheQuery("hash2", "result2", 300))

	result, ok, err := h.GetCachedQuery("hash2")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "result2", result)
}

func TestSweepExpiredRemovesPastTTL(t *testing.T) {
	h := newTestHub(t)
	_, err := h.db.Exec(`INSERT INTO query_cache (hash, result, ttl, created_at) VALUES (?, ?, ?, ?)`,
		"stale", "r", 1, time.Now().Unix()-10)
	require.NoError(t, err)

	n, err := h.SweepExpired(context.Background(), nil, 10)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestQueryDiagnosticsSeverityOrder(t *testing.T) {
	h := newTestHub(t)
	require.NoError(t, h.AddRepo(model.RepoRegistration{RepoID: "r1", LocalPath: "/tmp/r1", ManifestHash: "h"}))

	require.NoError(t, h.UpsertDiagnostics([]model.UnifiedDiagnostic{
		{RepoID: "r1", Source: model.SourceTSC, Title: "warn", Severity: model.SeverityWarning},
		{RepoID: "r1", Source: model.SourceTSC, Title: "crit", Severity: model.SeverityCritical},
		{RepoID: "r1", Source: model.SourceTSC, Title: "info", Severity: model.SeverityNote},
	}))

	got, err := h.QueryDiagnostics(DiagnosticFilter{RepoID: "r1"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "crit", got[0].Title)
}

func TestResolveRetainsRecord(t *testing.T) {
	h := newTestHub(t)
	require.NoError(t, h.AddRepo(model.RepoRegistration{RepoID: "r1", LocalPath: "/tmp/r1", ManifestHash: "h"}))
	require.NoError(t, h.UpsertDiagnostics([]model.UnifiedDiagnostic{
		{DiagnosticID: "d1", RepoID: "r1", Source: model.SourceTSC, Title: "t", Severity: model.SeverityWarning},
	}))

	require.NoError(t, h.Resolve([]string{"d1"}))

	got, err := h.QueryDiagnostics(DiagnosticFilter{RepoID: "r1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.True(t, got[0].Resolved)
	require.Equal(t, "t", got[0].Title)
}

func TestReadOnlyHubRejectsWrites(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "central.duckdb")
	h, err := Init(dbPath, false, nil)
	require.NoError(t, err)
	require.NoError(t, h.AddRepo(model.RepoRegistration{RepoID: "r1", LocalPath: "/tmp/r1", ManifestHash: "h"}))
	require.NoError(t, h.Close())

	ro, err := Init(dbPath, true, nil)
	require.NoError(t, err)
	defer ro.Close()

	err = ro.AddRepo(model.RepoRegistration{RepoID: "r2", LocalPath: "/tmp/r2", ManifestHash: "h"})
	require.Error(t, err)

	repos, err := ro.ListRepos()
	require.NoError(t, err)
	require.Len(t, repos, 1)
}
