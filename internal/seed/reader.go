package seed

import (
	"os"
	"path/filepath"

	"github.com/devac/devac/internal/model"
	seedparquet "github.com/devac/devac/internal/seed/parquet"
)

// Reader materializes the branch/base overlay view in memory for callers
// (resolver, affected analyzer) that want typed records rather than SQL
// rows; the Query Engine (§4.4) stages these already-overlaid rows into its
// SQL tables rather than applying the overlay rule in SQL.
type Reader struct {
	packageDir string
	branch     string
}

// NewReader returns a Reader over packageDir's base and (if set) branch
// seed directories.
func NewReader(packageDir, branch string) *Reader {
	return &Reader{packageDir: packageDir, branch: branch}
}

func (r *Reader) baseDir() string {
	return filepath.Join(r.packageDir, ".devac", "seed", "base")
}

func (r *Reader) branchDir() string {
	if r.branch == "" || r.branch == "base" {
		return ""
	}
	return filepath.Join(r.packageDir, ".devac", "seed", r.branch)
}

// HasSeed reports whether any seed data exists for this package at all,
// used by queryengine.Readiness.
func (r *Reader) HasSeed() bool {
	if _, err := os.Stat(filepath.Join(r.baseDir(), tableNodes)); err == nil {
		return true
	}
	if bd := r.branchDir(); bd != "" {
		if _, err := os.Stat(filepath.Join(bd, tableNodes)); err == nil {
			return true
		}
	}
	return false
}

// Nodes returns the unified (§4.3 overlay-rule) node set.
func (r *Reader) Nodes() ([]model.Node, error) {
	base, err := readNodeRows(filepath.Join(r.baseDir(), tableNodes))
	if err != nil {
		return nil, err
	}
	if bd := r.branchDir(); bd != "" {
		delta, err := readNodeRows(filepath.Join(bd, tableNodes))
		if err != nil {
			return nil, err
		}
		return overlay(base, delta, func(n model.Node) string { return n.PrimaryKey() }), nil
	}
	return dropDeleted(base, func(n model.Node) bool { return n.IsDeleted }), nil
}

// Edges returns the unified edge set.
func (r *Reader) Edges() ([]model.Edge, error) {
	base, err := readEdgeRows(filepath.Join(r.baseDir(), tableEdges))
	if err != nil {
		return nil, err
	}
	key := func(e model.Edge) string {
		pk := e.PrimaryKey()
		return pk[0] + "\x00" + pk[1] + "\x00" + pk[2]
	}
	if bd := r.branchDir(); bd != "" {
		delta, err := readEdgeRows(filepath.Join(bd, tableEdges))
		if err != nil {
			return nil, err
		}
		return overlay(base, delta, key), nil
	}
	return dropDeleted(base, func(e model.Edge) bool { return e.IsDeleted }), nil
}

// ExternalRefs returns the unified external_refs set.
func (r *Reader) ExternalRefs() ([]model.ExternalRef, error) {
	base, err := readExternalRefRows(filepath.Join(r.baseDir(), tableExternalRefs))
	if err != nil {
		return nil, err
	}
	key := func(ref model.ExternalRef) string {
		pk := ref.PrimaryKey()
		return pk[0] + "\x00" + pk[1] + "\x00" + pk[2]
	}
	if bd := r.branchDir(); bd != "" {
		delta, err := readExternalRefRows(filepath.Join(bd, tableExternalRefs))
		if err != nil {
			return nil, err
		}
		return overlay(base, delta, key), nil
	}
	return dropDeleted(base, func(r model.ExternalRef) bool { return r.IsDeleted }), nil
}

// Effects returns the unified effects set.
func (r *Reader) Effects() ([]model.Effect, error) {
	base, err := readEffectRows(filepath.Join(r.baseDir(), tableEffects))
	if err != nil {
		return nil, err
	}
	if bd := r.branchDir(); bd != "" {
		delta, err := readEffectRows(filepath.Join(bd, tableEffects))
		if err != nil {
			return nil, err
		}
		return overlay(base, delta, func(e model.Effect) string { return e.EffectID }), nil
	}
	return dropDeleted(base, func(e model.Effect) bool { return e.IsDeleted }), nil
}

// overlay implements §4.3's read_unified rule: delta rows win by key, base
// rows fill in the rest, and is_deleted rows (from either side) are dropped.
func overlay[T any](base, delta []T, key func(T) string) []T {
	deltaKeys := make(map[string]T, len(delta))
	for _, d := range delta {
		deltaKeys[key(d)] = d
	}

	out := make([]T, 0, len(base)+len(delta))
	for _, d := range delta {
		if !isDeletedValue(d) {
			out = append(out, d)
		}
	}
	for _, b := range base {
		if _, overridden := deltaKeys[key(b)]; overridden {
			continue
		}
		if !isDeletedValue(b) {
			out = append(out, b)
		}
	}
	return out
}

func isDeletedValue(v any) bool {
	switch t := v.(type) {
	case model.Node:
		return t.IsDeleted
	case model.Edge:
		return t.IsDeleted
	case model.ExternalRef:
		return t.IsDeleted
	case model.Effect:
		return t.IsDeleted
	default:
		return false
	}
}

func dropDeleted[T any](rows []T, isDeleted func(T) bool) []T {
	out := rows[:0:0]
	for _, r := range rows {
		if !isDeleted(r) {
			out = append(out, r)
		}
	}
	return out
}

func readNodeRows(path string) ([]model.Node, error) {
	rows, err := loadExistingRows[seedparquet.NodeRow](path)
	if err != nil || rows == nil {
		return nil, err
	}
	out := make([]model.Node, len(rows))
	for i, r := range rows {
		out[i] = model.Node{
			EntityID: r.EntityID, Name: r.Name, QualName: r.QualifiedName,
			Kind: model.Kind(r.Kind),
			Location: model.Location{FilePath: r.FilePath, StartLine: int(r.StartLine), EndLine: int(r.EndLine)},
			Exported: r.Exported, DefaultExport: r.DefaultExport, Visibility: model.Visibility(r.Visibility),
			Async: r.Async, Static: r.Static, Abstract: r.Abstract,
			TypeSignature: r.TypeSignature, Doc: r.Doc,
			SourceFileHash: r.SourceFileHash, Branch: r.Branch, IsDeleted: r.IsDeleted,
		}
	}
	return out, nil
}

func readEdgeRows(path string) ([]model.Edge, error) {
	rows, err := loadExistingRows[seedparquet.EdgeRow](path)
	if err != nil || rows == nil {
		return nil, err
	}
	out := make([]model.Edge, len(rows))
	for i, r := range rows {
		out[i] = model.Edge{
			SourceEntityID: r.SourceEntityID, TargetEntityID: r.TargetEntityID,
			EdgeType: model.EdgeType(r.EdgeType),
			Location: model.Location{FilePath: r.FilePath, StartLine: int(r.StartLine)},
			Branch:   r.Branch, IsDeleted: r.IsDeleted,
		}
	}
	return out, nil
}

func readExternalRefRows(path string) ([]model.ExternalRef, error) {
	rows, err := loadExistingRows[seedparquet.ExternalRefRow](path)
	if err != nil || rows == nil {
		return nil, err
	}
	out := make([]model.ExternalRef, len(rows))
	for i, r := range rows {
		var target *string
		if r.TargetEntityID != "" {
			t := r.TargetEntityID
			target = &t
		}
		out[i] = model.ExternalRef{
			SourceEntityID: r.SourceEntityID, ModuleSpecifier: r.ModuleSpecifier,
			ImportedSymbol: r.ImportedSymbol, IsTypeOnly: r.IsTypeOnly,
			IsDefault: r.IsDefault, IsNamespace: r.IsNamespace, IsResolved: r.IsResolved,
			TargetEntityID: target, Branch: r.Branch, IsDeleted: r.IsDeleted,
		}
	}
	return out, nil
}

func readEffectRows(path string) ([]model.Effect, error) {
	rows, err := loadExistingRows[seedparquet.EffectRow](path)
	if err != nil || rows == nil {
		return nil, err
	}
	out := make([]model.Effect, len(rows))
	for i, r := range rows {
		out[i] = model.Effect{
			EffectID: r.EffectID, SourceEntityID: r.SourceEntityID,
			EffectType: model.EffectType(r.EffectType),
			Location:   model.Location{FilePath: r.FilePath, StartLine: int(r.StartLine)},
			CalleeName: r.CalleeName, IsExternal: r.IsExternal, IsAsync: r.IsAsync,
			ExternalModule: r.ExternalModule, TargetResource: r.TargetResource,
			Operation: r.Operation, Target: r.Target, IsThirdParty: r.IsThirdParty,
			Branch: r.Branch, IsDeleted: r.IsDeleted,
		}
	}
	return out, nil
}
