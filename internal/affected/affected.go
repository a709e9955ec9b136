// Package affected implements the Affected Analyzer (§4.8): given a set of
// changed entity_ids, it computes the transitive upstream (dependent) set of
// affected entities and repos by walking the hub's cross-repo edges
// backwards. The traversal is an iterative frontier with an explicit
// visited set (never recursion — no stack risk even for multi-thousand-node
// walks). Bulk frontier fetches are paced with a bounded worker fan-out per
// §5's scheduling model.
package affected

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/devac/devac/internal/model"
	"github.com/devac/devac/internal/seed"
)

// DependentsFetcher is the capability affected needs from the hub: a bulk
// reverse-edge lookup. federation.Hub.GetCrossRepoDependents implements
// this; tests can fake it without standing up a real database.
type DependentsFetcher interface {
	GetCrossRepoDependents(targetIDs []string) ([]model.CrossRepoEdge, error)
}

// Options parameterizes one analyze() call (§4.8).
type Options struct {
	MaxDepth      int      // 0 means only changedEntities, no dependents (§8 boundary)
	MaxVisited    int      // cap on total visited entities before truncating; 0 means unbounded
	IncludeRepos  []string // post-walk filter, doesn't prune traversal (§4.8)
	ExcludeRepos  []string
	FanOutWorkers int // bounded concurrency for per-depth dependent fetches; 0 means sequential
}

const defaultMaxDepth = 10

// ImpactLevel classifies how far a dependent sits from the changed set.
type ImpactLevel string

const (
	ImpactDirect     ImpactLevel = "direct"     // depth 1
	ImpactTransitive ImpactLevel = "transitive" // depth >= 2
)

// RepoImpact is one repo's contribution to the affected result.
type RepoImpact struct {
	RepoID           string
	AffectedEntities []string
	ImpactLevel      ImpactLevel
}

// Result is analyze()'s return shape (§4.8, §8).
type Result struct {
	AffectedRepos  []RepoImpact
	TotalAffected  int
	Truncated      bool
	AnalysisTimeMs int64
}

// Analyze computes the transitive upstream set of entities/repos affected
// by changedEntityIDs via a cycle-safe bounded BFS over fetcher's reverse
// edges (§4.8's algorithm, §8 scenarios 1-3).
func Analyze(ctx context.Context, fetcher DependentsFetcher, changedEntityIDs []string, opts Options) (*Result, error) {
	start := time.Now()

	// maxDepth=0 is a legitimate boundary value (§8: "maxDepth=0 -> only
	// changedEntities, no dependents"), so it is taken as-is; callers that
	// want the default pass DefaultOptions() rather than a zero Options{}.
	maxDepth := opts.MaxDepth

	if len(changedEntityIDs) == 0 {
		return &Result{AnalysisTimeMs: elapsedMs(start)}, nil
	}

	visited := make(map[string]bool, len(changedEntityIDs))
	// depthOf records the first depth an entity was discovered at, so a
	// repo reached both directly and transitively reports "direct"
	// (§4.8: "When a repo appears via both paths, direct wins").
	depthOf := make(map[string]int)
	repoOf := make(map[string]string)

	for _, id := range changedEntityIDs {
		visited[id] = true
	}

	frontier := append([]string(nil), changedEntityIDs...)
	truncated := false

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		edges, err := fetchDependents(ctx, fetcher, frontier, opts.FanOutWorkers)
		if err != nil {
			return nil, err
		}

		var next []string
		for _, e := range edges {
			src := e.SourceEntityID
			if visited[src] {
				continue
			}
			if opts.MaxVisited > 0 && len(visited) >= opts.MaxVisited {
				truncated = true
				continue
			}
			visited[src] = true
			depthOf[src] = depth
			repoOf[src] = e.SourceRepo
			next = append(next, src)
		}
		frontier = next
	}

	byRepo := make(map[string][]string)
	repoLevel := make(map[string]ImpactLevel)
	for entity, depth := range depthOf {
		repo := repoOf[entity]
		byRepo[repo] = append(byRepo[repo], entity)
		level := ImpactTransitive
		if depth == 1 {
			level = ImpactDirect
		}
		if existing, ok := repoLevel[repo]; !ok || (existing == ImpactTransitive && level == ImpactDirect) {
			repoLevel[repo] = level
		}
	}

	included := includeFilter(opts)
	excluded := excludeFilter(opts)

	var repos []RepoImpact
	total := 0
	for repo, entities := range byRepo {
		if included != nil && !included[repo] {
			continue
		}
		if excluded[repo] {
			continue
		}
		dedup := dedupStrings(entities)
		repos = append(repos, RepoImpact{RepoID: repo, AffectedEntities: dedup, ImpactLevel: repoLevel[repo]})
		total += len(dedup)
	}

	return &Result{
		AffectedRepos:  repos,
		TotalAffected:  total,
		Truncated:      truncated,
		AnalysisTimeMs: elapsedMs(start),
	}, nil
}

// DefaultOptions returns Options with maxDepth defaulted to 10 (§4.8).
func DefaultOptions() Options {
	return Options{MaxDepth: defaultMaxDepth}
}

// AnalyzeFile is the analyze_file(file_path, repo_local_path) entry point
// (§4.8): it resolves filePath to the entity_ids defined in that file via
// the package's own seed, then hands those off to Analyze. packageDir/
// branch select which seed partition to read, matching seed.NewReader's
// usual (packageDir, branch) addressing.
func AnalyzeFile(ctx context.Context, fetcher DependentsFetcher, packageDir, branch, filePath string, opts Options) (*Result, error) {
	reader := seed.NewReader(packageDir, branch)
	nodes, err := reader.Nodes()
	if err != nil {
		return nil, err
	}

	var entityIDs []string
	for _, n := range nodes {
		if n.Location.FilePath == filePath {
			entityIDs = append(entityIDs, n.EntityID)
		}
	}

	return Analyze(ctx, fetcher, entityIDs, opts)
}

func elapsedMs(start time.Time) int64 {
	ms := time.Since(start).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}

// fetchDependents pulls one depth level's reverse edges. When
// FanOutWorkers > 1 the frontier is chunked and fetched concurrently via
// errgroup, matching §5's "bounded by CPU count" fan-out policy; a single
// worker (or zero) just calls the fetcher once.
func fetchDependents(ctx context.Context, fetcher DependentsFetcher, frontier []string, workers int) ([]model.CrossRepoEdge, error) {
	if workers <= 1 || len(frontier) <= workers {
		return fetcher.GetCrossRepoDependents(frontier)
	}

	chunks := chunk(frontier, workers)
	results := make([][]model.CrossRepoEdge, len(chunks))

	g, _ := errgroup.WithContext(ctx)
	for i, c := range chunks {
		i, c := i, c
		g.Go(func() error {
			edges, err := fetcher.GetCrossRepoDependents(c)
			if err != nil {
				return err
			}
			results[i] = edges
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []model.CrossRepoEdge
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func chunk(items []string, n int) [][]string {
	if n < 1 {
		n = 1
	}
	size := (len(items) + n - 1) / n
	if size < 1 {
		size = 1
	}
	var out [][]string
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[i:end])
	}
	return out
}

func dedupStrings(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := items[:0:0]
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	return out
}

func includeFilter(opts Options) map[string]bool {
	if len(opts.IncludeRepos) == 0 {
		return nil
	}
	m := make(map[string]bool, len(opts.IncludeRepos))
	for _, r := range opts.IncludeRepos {
		m[r] = true
	}
	return m
}

func excludeFilter(opts Options) map[string]bool {
	m := make(map[string]bool, len(opts.ExcludeRepos))
	for _, r := range opts.ExcludeRepos {
		m[r] = true
	}
	return m
}
