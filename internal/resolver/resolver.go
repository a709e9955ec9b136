// Package resolver implements the Semantic Resolver (§4.5): rebinding
// ExternalRef entries and unresolved:<symbol> edge targets to concrete
// entity_ids using a per-language Export Index and whole-file symbol
// lookups, with a deterministic compiler/local/imported/heuristic
// confidence model.
package resolver

import (
	"path"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/devac/devac/internal/model"
	"github.com/devac/devac/internal/seed"
)

// Resolution methods, per §4.5's confidence model.
const (
	MethodCompiler = "compiler"
	MethodLocal    = "local"
	MethodImported = "imported"
	MethodHeuristic = "heuristic"
)

// Confidence values fixed by method (§4.5: "compiler = 1.0, local = 1.0,
// imported cross-file = 0.9, heuristic = <0.9").
const (
	ConfidenceCompiler = 1.0
	ConfidenceLocal    = 1.0
	ConfidenceImported = 0.9
	ConfidenceHeuristicMax = 0.6
)

// ExportEntry is one exported symbol in a file, as recorded in the Export
// Index (§4.5).
type ExportEntry struct {
	ExportedName string
	Kind         model.Kind
	IsDefault    bool
	IsTypeOnly   bool
	EntityID     string
}

// ExportIndex maps file_path to the symbols that file exports.
type ExportIndex map[string][]ExportEntry

// ResolveResult is the outcome of resolving one ref or edge target.
type ResolveResult struct {
	TargetEntityID string
	Confidence     float64
	Method         string
}

// CallResolution pairs an original unresolved edge with its resolution, if
// any (nil Result means it stays unresolved).
type CallResolution struct {
	Edge   model.Edge
	Result *ResolveResult
}

// RefResolution pairs an ExternalRef with its resolution.
type RefResolution struct {
	Ref    model.ExternalRef
	Result *ResolveResult
}

// PackageResolution is resolve_package's summary (§4.5).
type PackageResolution struct {
	Total        int
	Resolved     int
	Unresolved   int
	ResolvedRefs []RefResolution
	Errors       []string
	TimeMs       int64
}

// LanguageResolver is the per-language capability set §4.5 enumerates.
type LanguageResolver interface {
	Name() string
	Available() bool
	BuildExportIndex(pkgPath string, reader *seed.Reader) (ExportIndex, error)
	ResolveRef(ref model.ExternalRef, index ExportIndex, pkgRoot string) *ResolveResult
	ResolveCalls(edges []model.Edge, nodesByFile map[string][]model.Node) []CallResolution
	ResolveExtends(edges []model.Edge, nodesByFile map[string][]model.Node) []CallResolution
	ResolvePackage(pkgPath, branch string, reader *seed.Reader) (*PackageResolution, error)
	ClearCache(pkgPath string)
	ClearAllCaches()
}

// Config parameterizes the generic resolution engine per language: module
// resolution extensions/index files, and the set of built-in globals call
// resolution must skip (§4.5: "Built-in globals... are explicitly skipped").
type Config struct {
	Language   string
	Extensions []string
	IndexFiles []string
	Builtins   map[string]bool
}

// Base implements LanguageResolver's shared mechanics (export index cache,
// relative-specifier resolution, local/imported/heuristic precedence) so
// each language package only supplies a Config and a thin wrapper type.
type Base struct {
	cfg Config

	mu    sync.Mutex
	cache map[string]ExportIndex
	group singleflight.Group
}

// NewBase constructs the shared resolver engine for one language.
func NewBase(cfg Config) *Base {
	return &Base{cfg: cfg, cache: make(map[string]ExportIndex)}
}

func (b *Base) Name() string { return b.cfg.Language }

// Available reports whether this resolver can run. Every variant here
// operates purely over seed records (no external compiler process is
// shelled out to — see DESIGN.md), so it is always available.
func (b *Base) Available() bool { return true }

// BuildExportIndex derives the Export Index directly from the package's own
// seed nodes: every exported entity becomes one ExportEntry keyed by its
// file. This stands in for "invoking the language's type service" (§4.5)
// since no retrieved example wires a real tsc/mypy/Roslyn process — see
// DESIGN.md's Open Question entry.
func (b *Base) BuildExportIndex(pkgPath string, reader *seed.Reader) (ExportIndex, error) {
	b.mu.Lock()
	if idx, ok := b.cache[pkgPath]; ok {
		b.mu.Unlock()
		return idx, nil
	}
	b.mu.Unlock()

	v, err, _ := b.group.Do(pkgPath, func() (any, error) {
		nodes, err := reader.Nodes()
		if err != nil {
			return nil, err
		}
		idx := make(ExportIndex)
		for _, n := range nodes {
			if !n.Exported {
				continue
			}
			idx[n.Location.FilePath] = append(idx[n.Location.FilePath], ExportEntry{
				ExportedName: n.Name, Kind: n.Kind, IsDefault: n.DefaultExport,
				IsTypeOnly: n.Kind == model.KindTypeAlias || n.Kind == model.KindInterface,
				EntityID:   n.EntityID,
			})
		}

		b.mu.Lock()
		b.cache[pkgPath] = idx
		b.mu.Unlock()
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(ExportIndex), nil
}

// ClearCache invalidates the cached export index for one package.
func (b *Base) ClearCache(pkgPath string) {
	b.mu.Lock()
	delete(b.cache, pkgPath)
	b.mu.Unlock()
}

// ClearAllCaches drops every cached export index for this resolver instance.
func (b *Base) ClearAllCaches() {
	b.mu.Lock()
	b.cache = make(map[string]ExportIndex)
	b.mu.Unlock()
}

// resolveRelative resolves a relative module_specifier from fromFile to a
// file path in the export index, trying each configured extension and
// index-file name in turn (§4.5's per-language module resolution rule).
func (b *Base) resolveRelative(specifier, fromFile string, index ExportIndex) (string, bool) {
	base := path.Join(path.Dir(fromFile), specifier)

	if _, ok := index[base]; ok {
		return base, true
	}
	for _, ext := range b.cfg.Extensions {
		if candidate := base + ext; indexHas(index, candidate) {
			return candidate, true
		}
	}
	for _, idxFile := range b.cfg.IndexFiles {
		candidate := path.Join(base, idxFile)
		if indexHas(index, candidate) {
			return candidate, true
		}
	}
	return "", false
}

func indexHas(index ExportIndex, file string) bool {
	_, ok := index[file]
	return ok
}

// isRelative reports whether a module specifier is a relative path (§4.5:
// "Module specifiers beginning with `.` or `..` are relative").
func isRelative(specifier string) bool {
	return strings.HasPrefix(specifier, ".")
}

// ResolveRef implements resolve_ref for all three languages: bare
// specifiers are external (nil, not an error); relative specifiers resolve
// to a file, then to a default/named/namespace export within it.
func (b *Base) ResolveRef(ref model.ExternalRef, index ExportIndex, pkgRoot string) *ResolveResult {
	if !isRelative(ref.ModuleSpecifier) {
		return nil // external package; §4.5 "yield null (not an error)"
	}

	file, ok := b.resolveRelative(ref.ModuleSpecifier, ref.SourceEntityID, index)
	if !ok {
		// The ref's SourceEntityID isn't a file path; fall back to using the
		// ref's own location, which always is.
		file, ok = b.resolveRelative(ref.ModuleSpecifier, ref.Location.FilePath, index)
	}
	if !ok {
		return nil
	}

	entries := index[file]
	if ref.IsNamespace {
		if len(entries) == 0 {
			return nil
		}
		return &ResolveResult{TargetEntityID: entries[0].EntityID, Confidence: ConfidenceImported, Method: MethodImported}
	}
	if ref.IsDefault {
		for _, e := range entries {
			if e.IsDefault {
				return &ResolveResult{TargetEntityID: e.EntityID, Confidence: ConfidenceImported, Method: MethodImported}
			}
		}
		return nil
	}
	for _, e := range entries {
		if e.ExportedName == ref.ImportedSymbol {
			return &ResolveResult{TargetEntityID: e.EntityID, Confidence: ConfidenceImported, Method: MethodImported}
		}
	}
	return nil
}

// ResolveCalls implements resolve_calls: a callee with a binding in the same
// file resolves locally; imported bindings are not looked up, so an edge
// that would bind through an import stays unresolved. Built-in globals are
// skipped entirely.
func (b *Base) ResolveCalls(edges []model.Edge, nodesByFile map[string][]model.Node) []CallResolution {
	return b.resolveUnresolvedEdges(edges, nodesByFile)
}

// ResolveExtends implements resolve_extends with the same same-file-only
// lookup as ResolveCalls; multiple interface parents are resolved
// independently of one another (§4.5).
func (b *Base) ResolveExtends(edges []model.Edge, nodesByFile map[string][]model.Node) []CallResolution {
	return b.resolveUnresolvedEdges(edges, nodesByFile)
}

func (b *Base) resolveUnresolvedEdges(edges []model.Edge, nodesByFile map[string][]model.Node) []CallResolution {
	out := make([]CallResolution, 0, len(edges))
	for _, e := range edges {
		if !e.IsUnresolved() {
			out = append(out, CallResolution{Edge: e, Result: nil})
			continue
		}
		symbol := e.UnresolvedSymbol()
		if b.cfg.Builtins[symbol] {
			out = append(out, CallResolution{Edge: e, Result: nil})
			continue
		}

		if target, ok := findLocalBinding(symbol, e.Location.FilePath, nodesByFile); ok {
			out = append(out, CallResolution{Edge: e, Result: &ResolveResult{
				TargetEntityID: target, Confidence: ConfidenceLocal, Method: MethodLocal,
			}})
			continue
		}

		out = append(out, CallResolution{Edge: e, Result: nil})
	}
	return out
}

// findLocalBinding looks for symbol among the entities defined in the same
// file as the edge's textual location (§4.5: "first prefer a local
// (same-file) binding").
func findLocalBinding(symbol, filePath string, nodesByFile map[string][]model.Node) (string, bool) {
	for _, n := range nodesByFile[filePath] {
		if n.Name == symbol {
			return n.EntityID, true
		}
	}
	return "", false
}

// ResolvePackage implements resolve_package: it builds the export index,
// resolves every unresolved ExternalRef, and folds per-ref failures into
// Errors rather than aborting (§4.5's failure semantics).
func (b *Base) ResolvePackage(pkgPath, branch string, reader *seed.Reader) (*PackageResolution, error) {
	start := time.Now()

	index, err := b.BuildExportIndex(pkgPath, reader)
	if err != nil {
		return nil, err
	}
	refs, err := reader.ExternalRefs()
	if err != nil {
		return nil, err
	}

	result := &PackageResolution{Total: len(refs)}
	for _, ref := range refs {
		if ref.IsResolved {
			continue
		}
		res := b.ResolveRef(ref, index, pkgPath)
		if res == nil {
			result.Unresolved++
			continue
		}
		result.Resolved++
		result.ResolvedRefs = append(result.ResolvedRefs, RefResolution{Ref: ref, Result: res})
	}

	result.TimeMs = time.Since(start).Milliseconds()
	return result, nil
}
