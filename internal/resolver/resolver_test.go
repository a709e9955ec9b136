package resolver_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devac/devac/internal/model"
	"github.com/devac/devac/internal/parser"
	"github.com/devac/devac/internal/resolver"
	"github.com/devac/devac/internal/resolver/typescript"
	"github.com/devac/devac/internal/seed"
)

func tsBase() *resolver.Base {
	return typescript.New().Base
}

func seedReaderWith(t *testing.T, pr *parser.ParseResult) *seed.Reader {
	t.Helper()
	dir := t.TempDir()
	w := seed.NewWriter(seed.WriterConfig{PackageDir: dir, WriterID: "test"})
	require.NoError(t, w.AddParseResult(pr))
	require.NoError(t, w.Flush())
	return seed.NewReader(dir, "")
}

func TestBuildExportIndexOnlyExported(t *testing.T) {
	reader := seedReaderWith(t, &parser.ParseResult{
		FilePath: "a.ts",
		Nodes: []model.Node{
			{EntityID: "a#1", Name: "Foo", Kind: model.KindFunction, Location: model.Location{FilePath: "a.ts"}, Exported: true},
			{EntityID: "a#2", Name: "helper", Kind: model.KindFunction, Location: model.Location{FilePath: "a.ts"}, Exported: false},
		},
	})

	b := tsBase()
	idx, err := b.BuildExportIndex("pkg", reader)
	require.NoError(t, err)
	require.Len(t, idx["a.ts"], 1)
	require.Equal(t, "Foo", idx["a.ts"][0].ExportedName)
}

func TestBuildExportIndexIsCached(t *testing.T) {
	reader := seedReaderWith(t, &parser.ParseResult{
		FilePath: "a.ts",
		Nodes:    []model.Node{{EntityID: "a#1", Name: "Foo", Location: model.Location{FilePath: "a.ts"}, Exported: true}},
	})

	b := tsBase()
	idx1, err := b.BuildExportIndex("pkg", reader)
	require.NoError(t, err)
	idx2, err := b.BuildExportIndex("pkg", reader)
	require.NoError(t, err)
	require.Equal(t, idx1, idx2)

	b.ClearCache("pkg")
	idx3, err := b.BuildExportIndex("pkg", reader)
	require.NoError(t, err)
	require.Equal(t, idx1, idx3)
}

func TestResolveRefExternalSpecifierYieldsNil(t *testing.T) {
	b := tsBase()
	ref := model.ExternalRef{ModuleSpecifier: "lodash", ImportedSymbol: "debounce"}
	require.Nil(t, b.ResolveRef(ref, resolver.ExportIndex{}, "pkg"))
}

func TestResolveRefNamedImport(t *testing.T) {
	b := tsBase()
	index := resolver.ExportIndex{
		"utils.ts": {{ExportedName: "formatDate", EntityID: "u#1"}},
	}
	ref := model.ExternalRef{
		SourceEntityID: "main.ts", ModuleSpecifier: "./utils", ImportedSymbol: "formatDate",
		Location: model.Location{FilePath: "main.ts"},
	}
	res := b.ResolveRef(ref, index, "pkg")
	require.NotNil(t, res)
	require.Equal(t, "u#1", res.TargetEntityID)
	require.Equal(t, resolver.ConfidenceImported, res.Confidence)
	require.Equal(t, resolver.MethodImported, res.Method)
}

func TestResolveRefDefaultImport(t *testing.T) {
	b := tsBase()
	index := resolver.ExportIndex{
		"widget.ts": {{ExportedName: "default", EntityID: "w#1", IsDefault: true}},
	}
	ref := model.ExternalRef{
		SourceEntityID: "main.ts", ModuleSpecifier: "./widget", IsDefault: true,
		Location: model.Location{FilePath: "main.ts"},
	}
	res := b.ResolveRef(ref, index, "pkg")
	require.NotNil(t, res)
	require.Equal(t, "w#1", res.TargetEntityID)
}

func TestResolveCallsPrefersLocalBinding(t *testing.T) {
	b := tsBase()
	edges := []model.Edge{
		{SourceEntityID: "a#1", TargetEntityID: model.UnresolvedPrefix + "helper", EdgeType: model.EdgeCalls,
			Location: model.Location{FilePath: "a.ts"}},
	}
	nodesByFile := map[string][]model.Node{
		"a.ts": {{EntityID: "a#2", Name: "helper"}},
	}
	results := b.ResolveCalls(edges, nodesByFile)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Result)
	require.Equal(t, "a#2", results[0].Result.TargetEntityID)
	require.Equal(t, resolver.MethodLocal, results[0].Result.Method)
}

func TestResolveCallsSkipsBuiltins(t *testing.T) {
	b := tsBase()
	edges := []model.Edge{
		{SourceEntityID: "a#1", TargetEntityID: model.UnresolvedPrefix + "console", EdgeType: model.EdgeCalls,
			Location: model.Location{FilePath: "a.ts"}},
	}
	results := b.ResolveCalls(edges, map[string][]model.Node{})
	require.Len(t, results, 1)
	require.Nil(t, results[0].Result)
}

func TestResolveCallsLeavesUnknownUnresolved(t *testing.T) {
	b := tsBase()
	edges := []model.Edge{
		{SourceEntityID: "a#1", TargetEntityID: model.UnresolvedPrefix + "mystery", EdgeType: model.EdgeCalls,
			Location: model.Location{FilePath: "a.ts"}},
	}
	results := b.ResolveCalls(edges, map[string][]model.Node{})
	require.Nil(t, results[0].Result)
}

func TestResolvePackageCountsResolvedAndUnresolved(t *testing.T) {
	reader := seedReaderWith(t, &parser.ParseResult{
		FilePath: "utils.ts",
		Nodes:    []model.Node{{EntityID: "u#1", Name: "formatDate", Location: model.Location{FilePath: "utils.ts"}, Exported: true}},
		ExternalRefs: []model.ExternalRef{
			{SourceEntityID: "main.ts", ModuleSpecifier: "./utils", ImportedSymbol: "formatDate", Location: model.Location{FilePath: "main.ts"}},
			{SourceEntityID: "main.ts", ModuleSpecifier: "lodash", ImportedSymbol: "debounce", Location: model.Location{FilePath: "main.ts"}},
		},
	})

	b := tsBase()
	result, err := b.ResolvePackage("pkg", "", reader)
	require.NoError(t, err)
	require.Equal(t, 2, result.Total)
	require.Equal(t, 1, result.Resolved)
	require.Equal(t, 1, result.Unresolved)
}
