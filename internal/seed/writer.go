// Package seed implements per-package seed storage: the Writer applies the
// atomic write protocol and upsert-by-primary-key discipline from §4.3;
// Reader implements the branch/base overlay read path. The
// directory layout and meta.json contract follow §6's on-disk layout
// exactly.
package seed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	devacerrors "github.com/devac/devac/internal/errors"
	"github.com/devac/devac/internal/ident"
	"github.com/devac/devac/internal/model"
	"github.com/devac/devac/internal/parser"
	"github.com/devac/devac/internal/seed/lock"
	seedparquet "github.com/devac/devac/internal/seed/parquet"
)

const (
	tableNodes        = "nodes.parquet"
	tableEdges        = "edges.parquet"
	tableExternalRefs = "external_refs.parquet"
	tableEffects      = "effects.parquet"
	lockFileName      = "seed.lock"
)

// WriterConfig controls where a Writer buffers and flushes to, and the
// batching threshold for automatic flush.
type WriterConfig struct {
	PackageDir       string // the package root containing .devac/
	Branch           string // "" or "base" both mean the base side
	WriterID         string // recorded in meta.json's "writer" field
	FlushThreshold   int    // flush once buffered record count reaches this; 0 disables auto-flush
	LockTimeout      time.Duration
	StaleLockMaxAge  time.Duration
}

// Writer buffers parser output for one package/branch and flushes it to
// disk using the atomic write protocol (§4.3 steps 1-5).
type Writer struct {
	cfg WriterConfig

	nodes        []model.Node
	edges        []model.Edge
	externalRefs []model.ExternalRef
	effects      []model.Effect
	fileHashes   map[string]string
}

// NewWriter returns a Writer for the given configuration.
func NewWriter(cfg WriterConfig) *Writer {
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = 30 * time.Second
	}
	return &Writer{cfg: cfg, fileHashes: make(map[string]string)}
}

func (w *Writer) seedDir() string {
	branch := w.cfg.Branch
	if branch == "" {
		branch = "base"
	}
	return filepath.Join(w.cfg.PackageDir, ".devac", "seed", branch)
}

// AddParseResult buffers one file's parser output. Flush is triggered
// automatically once the buffered record count reaches FlushThreshold.
func (w *Writer) AddParseResult(pr *parser.ParseResult) error {
	if pr.Err != nil {
		return nil // IO failures are the orchestrator's concern, not the writer's
	}
	w.nodes = append(w.nodes, pr.Nodes...)
	w.edges = append(w.edges, pr.Edges...)
	w.externalRefs = append(w.externalRefs, pr.ExternalRefs...)
	w.effects = append(w.effects, pr.Effects...)
	if pr.SourceFileHash != "" {
		w.fileHashes[pr.FilePath] = pr.SourceFileHash
	}

	if w.cfg.FlushThreshold > 0 && w.bufferedCount() >= w.cfg.FlushThreshold {
		return w.Flush()
	}
	return nil
}

func (w *Writer) bufferedCount() int {
	return len(w.nodes) + len(w.edges) + len(w.externalRefs) + len(w.effects)
}

// Flush applies the buffered records to disk under the seed lock, upserting
// by each table's primary key and clearing the in-memory buffers on
// success. An empty buffer is a no-op.
func (w *Writer) Flush() error {
	if w.bufferedCount() == 0 {
		return nil
	}

	dir := w.seedDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("seed: create %s: %w", dir, err)
	}

	l := lock.New(filepath.Join(dir, lockFileName), w.cfg.StaleLockMaxAge)
	if err := l.Acquire(w.cfg.LockTimeout); err != nil {
		return err
	}
	defer l.Release()

	if err := w.flushNodes(dir); err != nil {
		return err
	}
	if err := w.flushEdges(dir); err != nil {
		return err
	}
	if err := w.flushExternalRefs(dir); err != nil {
		return err
	}
	if err := w.flushEffects(dir); err != nil {
		return err
	}

	meta, err := readMeta(dir, w.cfg.WriterID)
	if err != nil {
		return err
	}
	for path, hash := range w.fileHashes {
		meta.FileHashes[path] = hash
	}
	if err := writeMeta(dir, meta); err != nil {
		return err
	}

	w.nodes, w.edges, w.externalRefs, w.effects = nil, nil, nil, nil
	w.fileHashes = make(map[string]string)
	return nil
}

func atomicWriteTable[T any](dir, table string, rows []T) error {
	final := filepath.Join(dir, table)
	tmp := final + fmt.Sprintf(".tmp.%d", time.Now().UnixNano())
	if err := seedparquet.WriteRows(tmp, rows); err != nil {
		_ = os.Remove(tmp)
		return devacerrors.Wrapf(err, devacerrors.CorruptSeed, "write %s", table)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("seed: rename %s: %w", table, err)
	}
	return nil
}

func (w *Writer) flushNodes(dir string) error {
	existing, _ := loadExistingRows[seedparquet.NodeRow](filepath.Join(dir, tableNodes))
	byKey := make(map[string]seedparquet.NodeRow, len(existing))
	for _, r := range existing {
		byKey[r.EntityID] = r
	}
	for _, n := range w.nodes {
		byKey[n.PrimaryKey()] = seedparquet.NodeRowFromModel(n)
	}
	return atomicWriteTable(dir, tableNodes, flatten(byKey))
}

func (w *Writer) flushEdges(dir string) error {
	existing, _ := loadExistingRows[seedparquet.EdgeRow](filepath.Join(dir, tableEdges))
	byKey := make(map[string]seedparquet.EdgeRow, len(existing))
	for _, r := range existing {
		byKey[r.SourceEntityID+"\x00"+r.TargetEntityID+"\x00"+r.EdgeType] = r
	}
	for _, e := range w.edges {
		pk := e.PrimaryKey()
		var propsJSON string
		if len(e.Properties) > 0 {
			if b, err := json.Marshal(e.Properties); err == nil {
				propsJSON = string(b)
			}
		}
		byKey[pk[0]+"\x00"+pk[1]+"\x00"+pk[2]] = seedparquet.EdgeRowFromModel(e, propsJSON)
	}
	return atomicWriteTable(dir, tableEdges, flatten(byKey))
}

func (w *Writer) flushExternalRefs(dir string) error {
	existing, _ := loadExistingRows[seedparquet.ExternalRefRow](filepath.Join(dir, tableExternalRefs))
	byKey := make(map[string]seedparquet.ExternalRefRow, len(existing))
	for _, r := range existing {
		byKey[r.SourceEntityID+"\x00"+r.ModuleSpecifier+"\x00"+r.ImportedSymbol] = r
	}
	for _, r := range w.externalRefs {
		pk := r.PrimaryKey()
		byKey[pk[0]+"\x00"+pk[1]+"\x00"+pk[2]] = seedparquet.ExternalRefRowFromModel(r)
	}
	return atomicWriteTable(dir, tableExternalRefs, flatten(byKey))
}

func (w *Writer) flushEffects(dir string) error {
	existing, _ := loadExistingRows[seedparquet.EffectRow](filepath.Join(dir, tableEffects))
	byKey := make(map[string]seedparquet.EffectRow, len(existing))
	for _, r := range existing {
		byKey[r.EffectID] = r
	}
	for _, e := range w.effects {
		byKey[e.EffectID] = seedparquet.EffectRowFromModel(e)
	}
	return atomicWriteTable(dir, tableEffects, flatten(byKey))
}

func loadExistingRows[T any](path string) ([]T, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	rows, err := seedparquet.ReadRows[T](path)
	if err != nil {
		quarantine(path)
		return nil, nil
	}
	return rows, nil
}

// quarantine renames a corrupt parquet file aside per §4.3's failure
// semantics so readers fall back to the other side of the overlay.
func quarantine(path string) {
	dest := fmt.Sprintf("%s.corrupt.%d", path, time.Now().Unix())
	_ = os.Rename(path, dest)
}

func flatten[T any](byKey map[string]T) []T {
	out := make([]T, 0, len(byKey))
	for _, v := range byKey {
		out = append(out, v)
	}
	return out
}

// PackagePath derives a package-relative path using the same normalization
// entity ids rely on, so callers building a WriterConfig don't need to
// reimplement it.
func PackagePath(absPath, repoRoot string) string {
	return ident.NormalizePath(absPath, repoRoot)
}
