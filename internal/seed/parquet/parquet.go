// Package parquet implements the columnar table I/O seed storage uses for
// nodes.parquet/edges.parquet/external_refs.parquet/effects.parquet (§4.3),
// built directly on xitongsys/parquet-go's writer/reader API.
package parquet

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/devac/devac/internal/model"
)

// NodeRow is the parquet-tagged projection of model.Node.
type NodeRow struct {
	EntityID       string `parquet:"name=entity_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Name           string `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	QualifiedName  string `parquet:"name=qualified_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Kind           string `parquet:"name=kind, type=BYTE_ARRAY, convertedtype=UTF8"`
	FilePath       string `parquet:"name=file_path, type=BYTE_ARRAY, convertedtype=UTF8"`
	StartLine      int32  `parquet:"name=start_line, type=INT32"`
	EndLine        int32  `parquet:"name=end_line, type=INT32"`
	Exported       bool   `parquet:"name=exported, type=BOOLEAN"`
	DefaultExport  bool   `parquet:"name=default_export, type=BOOLEAN"`
	Visibility     string `parquet:"name=visibility, type=BYTE_ARRAY, convertedtype=UTF8"`
	Async          bool   `parquet:"name=async, type=BOOLEAN"`
	Static         bool   `parquet:"name=static, type=BOOLEAN"`
	Abstract       bool   `parquet:"name=abstract, type=BOOLEAN"`
	TypeSignature  string `parquet:"name=type_signature, type=BYTE_ARRAY, convertedtype=UTF8"`
	Doc            string `parquet:"name=doc, type=BYTE_ARRAY, convertedtype=UTF8"`
	SourceFileHash string `parquet:"name=source_file_hash, type=BYTE_ARRAY, convertedtype=UTF8"`
	Branch         string `parquet:"name=branch, type=BYTE_ARRAY, convertedtype=UTF8"`
	IsDeleted      bool   `parquet:"name=is_deleted, type=BOOLEAN"`
	UpdatedAtUnix  int64  `parquet:"name=updated_at, type=INT64"`
}

// EdgeRow is the parquet-tagged projection of model.Edge.
type EdgeRow struct {
	SourceEntityID string `parquet:"name=source_entity_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	TargetEntityID string `parquet:"name=target_entity_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	EdgeType       string `parquet:"name=edge_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	FilePath       string `parquet:"name=file_path, type=BYTE_ARRAY, convertedtype=UTF8"`
	StartLine      int32  `parquet:"name=start_line, type=INT32"`
	PropertiesJSON string `parquet:"name=properties_json, type=BYTE_ARRAY, convertedtype=UTF8"`
	Branch         string `parquet:"name=branch, type=BYTE_ARRAY, convertedtype=UTF8"`
	IsDeleted      bool   `parquet:"name=is_deleted, type=BOOLEAN"`
	UpdatedAtUnix  int64  `parquet:"name=updated_at, type=INT64"`
}

// ExternalRefRow is the parquet-tagged projection of model.ExternalRef.
type ExternalRefRow struct {
	SourceEntityID  string `parquet:"name=source_entity_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	ModuleSpecifier string `parquet:"name=module_specifier, type=BYTE_ARRAY, convertedtype=UTF8"`
	ImportedSymbol  string `parquet:"name=imported_symbol, type=BYTE_ARRAY, convertedtype=UTF8"`
	IsTypeOnly      bool   `parquet:"name=is_type_only, type=BOOLEAN"`
	IsDefault       bool   `parquet:"name=is_default, type=BOOLEAN"`
	IsNamespace     bool   `parquet:"name=is_namespace, type=BOOLEAN"`
	IsResolved      bool   `parquet:"name=is_resolved, type=BOOLEAN"`
	TargetEntityID  string `parquet:"name=target_entity_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Branch          string `parquet:"name=branch, type=BYTE_ARRAY, convertedtype=UTF8"`
	IsDeleted       bool   `parquet:"name=is_deleted, type=BOOLEAN"`
	UpdatedAtUnix   int64  `parquet:"name=updated_at, type=INT64"`
}

// EffectRow is the parquet-tagged projection of model.Effect.
type EffectRow struct {
	EffectID       string `parquet:"name=effect_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	SourceEntityID string `parquet:"name=source_entity_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	EffectType     string `parquet:"name=effect_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	FilePath       string `parquet:"name=file_path, type=BYTE_ARRAY, convertedtype=UTF8"`
	StartLine      int32  `parquet:"name=start_line, type=INT32"`
	CalleeName     string `parquet:"name=callee_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	IsExternal     bool   `parquet:"name=is_external, type=BOOLEAN"`
	IsAsync        bool   `parquet:"name=is_async, type=BOOLEAN"`
	ExternalModule string `parquet:"name=external_module, type=BYTE_ARRAY, convertedtype=UTF8"`
	TargetResource string `parquet:"name=target_resource, type=BYTE_ARRAY, convertedtype=UTF8"`
	Operation      string `parquet:"name=operation, type=BYTE_ARRAY, convertedtype=UTF8"`
	Target         string `parquet:"name=target, type=BYTE_ARRAY, convertedtype=UTF8"`
	IsThirdParty   bool   `parquet:"name=is_third_party, type=BOOLEAN"`
	Branch         string `parquet:"name=branch, type=BYTE_ARRAY, convertedtype=UTF8"`
	IsDeleted      bool   `parquet:"name=is_deleted, type=BOOLEAN"`
	UpdatedAtUnix  int64  `parquet:"name=updated_at, type=INT64"`
}

// parallelism controls the parquet-go writer/reader goroutine fan-out; one
// is plenty for package-sized tables and keeps write order deterministic.
const parallelism = 1

// WriteRows serializes rows (one of the *Row slice types above) to path
// using parquet-go's local file source, overwriting any existing file. The
// caller is responsible for the tmp-file-then-rename atomicity (§4.3 step
// 2-3); this function only owns the columnar encode.
func WriteRows[T any](path string, rows []T) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("parquet: open %s for write: %w", path, err)
	}
	defer fw.Close()

	var zero T
	pw, err := writer.NewParquetWriter(fw, &zero, parallelism)
	if err != nil {
		return fmt.Errorf("parquet: new writer %s: %w", path, err)
	}

	for i := range rows {
		if err := pw.Write(rows[i]); err != nil {
			return fmt.Errorf("parquet: write row %d to %s: %w", i, path, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("parquet: finalize %s: %w", path, err)
	}
	return nil
}

// ReadRows deserializes every row from path into the given row type.
func ReadRows[T any](path string) ([]T, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("parquet: open %s for read: %w", path, err)
	}
	defer fr.Close()

	var zero T
	pr, err := reader.NewParquetReader(fr, &zero, parallelism)
	if err != nil {
		return nil, fmt.Errorf("parquet: new reader %s: %w", path, err)
	}
	defer pr.ReadStop()

	n := int(pr.GetNumRows())
	rows := make([]T, n)
	if n > 0 {
		if err := pr.Read(&rows); err != nil {
			return nil, fmt.Errorf("parquet: read %s: %w", path, err)
		}
	}
	return rows, nil
}

// NodeRowFromModel projects a model.Node onto its parquet row shape.
func NodeRowFromModel(n model.Node) NodeRow {
	return NodeRow{
		EntityID: n.EntityID, Name: n.Name, QualifiedName: n.QualName,
		Kind: string(n.Kind), FilePath: n.Location.FilePath,
		StartLine: int32(n.Location.StartLine), EndLine: int32(n.Location.EndLine),
		Exported: n.Exported, DefaultExport: n.DefaultExport, Visibility: string(n.Visibility),
		Async: n.Async, Static: n.Static, Abstract: n.Abstract,
		TypeSignature: n.TypeSignature, Doc: n.Doc,
		SourceFileHash: n.SourceFileHash, Branch: n.Branch, IsDeleted: n.IsDeleted,
		UpdatedAtUnix: n.UpdatedAt.Unix(),
	}
}

// EdgeRowFromModel projects a model.Edge onto its parquet row shape.
// Properties are dropped to a JSON string since parquet-go has no native map
// type in the subset this package uses.
func EdgeRowFromModel(e model.Edge, propertiesJSON string) EdgeRow {
	return EdgeRow{
		SourceEntityID: e.SourceEntityID, TargetEntityID: e.TargetEntityID,
		EdgeType: string(e.EdgeType), FilePath: e.Location.FilePath,
		StartLine: int32(e.Location.StartLine), PropertiesJSON: propertiesJSON,
		Branch: e.Branch, IsDeleted: e.IsDeleted, UpdatedAtUnix: e.UpdatedAt.Unix(),
	}
}

// ExternalRefRowFromModel projects a model.ExternalRef onto its row shape.
func ExternalRefRowFromModel(r model.ExternalRef) ExternalRefRow {
	target := ""
	if r.TargetEntityID != nil {
		target = *r.TargetEntityID
	}
	return ExternalRefRow{
		SourceEntityID: r.SourceEntityID, ModuleSpecifier: r.ModuleSpecifier,
		ImportedSymbol: r.ImportedSymbol, IsTypeOnly: r.IsTypeOnly,
		IsDefault: r.IsDefault, IsNamespace: r.IsNamespace, IsResolved: r.IsResolved,
		TargetEntityID: target, Branch: r.Branch, IsDeleted: r.IsDeleted,
		UpdatedAtUnix: r.UpdatedAt.Unix(),
	}
}

// EffectRowFromModel projects a model.Effect onto its row shape.
func EffectRowFromModel(e model.Effect) EffectRow {
	return EffectRow{
		EffectID: e.EffectID, SourceEntityID: e.SourceEntityID,
		EffectType: string(e.EffectType), FilePath: e.Location.FilePath,
		StartLine: int32(e.Location.StartLine), CalleeName: e.CalleeName,
		IsExternal: e.IsExternal, IsAsync: e.IsAsync, ExternalModule: e.ExternalModule,
		TargetResource: e.TargetResource, Operation: e.Operation,
		Target: e.Target, IsThirdParty: e.IsThirdParty,
		Branch: e.Branch, IsDeleted: e.IsDeleted, UpdatedAtUnix: e.UpdatedAt.Unix(),
	}
}
