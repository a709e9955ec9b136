// Package queryengine implements the Query Engine (§4.4): it materializes
// nodes/edges/external_refs/effects views over a set of package seed
// directories and executes caller-supplied SQL against them, with a
// teardown-rebuild-retry recovery policy for fatal connection errors.
package queryengine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	devacerrors "github.com/devac/devac/internal/errors"
	"github.com/devac/devac/internal/seed"
	seedparquet "github.com/devac/devac/internal/seed/parquet"
)

// ViewNames are the four placeholder targets SQL strings may reference.
var ViewNames = []string{"nodes", "edges", "external_refs", "effects"}

// placeholders maps the {name}-style SQL placeholder to its view name, for
// the legacy substitution path (§9, Open Question 4).
var placeholders = map[string]string{
	"{nodes}":         "nodes",
	"{edges}":         "edges",
	"{external_refs}": "external_refs",
	"{effects}":       "effects",
}

// Readiness is the result of a readiness(packages, branch) check.
type Readiness struct {
	Ready          bool
	Reason         string
	Suggestion     string
	AvailableCount int
	MissingCount   int
}

// Config controls pool sizing. MemoryLimitMB is carried in the config but
// not applied by the engine.
type Config struct {
	MaxOpenConns int
	MemoryLimitMB int
}

// DefaultConfig returns sane defaults for a single-host package query.
func DefaultConfig() Config {
	return Config{MaxOpenConns: 4, MemoryLimitMB: 512}
}

// Engine owns one in-memory SQLite connection and the last setup_views
// arguments, so execute_with_recovery can rebuild an equivalent connection
// after a fatal error.
type Engine struct {
	cfg    Config
	logger *logrus.Logger

	mu         sync.Mutex
	db         *sqlx.DB
	packages   []string
	branch     string
	viewsReady bool
}

// New opens a fresh in-memory query engine.
func New(cfg Config, logger *logrus.Logger) (*Engine, error) {
	if logger == nil {
		logger = logrus.New()
	}
	e := &Engine{cfg: cfg, logger: logger}
	if err := e.reconnect(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) reconnect() error {
	db, err := sqlx.Connect("sqlite3", ":memory:")
	if err != nil {
		return fmt.Errorf("queryengine: connect: %w", err)
	}
	db.SetMaxOpenConns(e.cfg.MaxOpenConns)
	e.db = db
	e.viewsReady = false
	return nil
}

// Close releases the underlying connection.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.db.Close()
}

// CheckReadiness reports whether at least one of packages has seed data for
// branch, per §4.4's readiness contract.
func CheckReadiness(packages []string, branch string) Readiness {
	available, missing := 0, 0
	for _, pkg := range packages {
		if seed.NewReader(pkg, branch).HasSeed() {
			available++
		} else {
			missing++
		}
	}

	switch {
	case len(packages) == 0:
		return Readiness{Ready: false, Reason: "no packages specified", Suggestion: "pass at least one package path to query"}
	case available == 0:
		return Readiness{
			Ready: false, Reason: "no package in the selection has seed data",
			Suggestion:     fmt.Sprintf("run devac-ingest against %s to produce seed data before querying", packages[0]),
			AvailableCount: available, MissingCount: missing,
		}
	case missing > 0:
		return Readiness{
			Ready: true, Reason: "partial seed coverage",
			Suggestion:     fmt.Sprintf("%d of %d packages are missing seed data and will be skipped", missing, len(packages)),
			AvailableCount: available, MissingCount: missing,
		}
	default:
		return Readiness{Ready: true, AvailableCount: available, MissingCount: missing}
	}
}

// SetupViews materializes one per-package staging table per Parquet table,
// then creates a union view per §4.4's "create a view that unions them"
// instruction. The base/branch overlay itself is resolved first, in Go, by
// seed.Reader — each package contributes exactly one already-overlaid row
// set, and SetupViews' union is across *packages*, not across base/branch.
func (e *Engine) SetupViews(packages []string, branch string) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.dropExistingViews(); err != nil {
		return nil, err
	}

	available := 0
	var stageTables = map[string][]string{
		"nodes": nil, "edges": nil, "external_refs": nil, "effects": nil,
	}

	for i, pkg := range packages {
		reader := seed.NewReader(pkg, branch)
		if !reader.HasSeed() {
			e.logger.WithField("package", pkg).Warn("queryengine: package has no seed data, skipping")
			continue
		}
		available++

		suffix := fmt.Sprintf("_%d", i)
		if err := e.stageNodes(reader, "nodes"+suffix); err != nil {
			return nil, err
		}
		stageTables["nodes"] = append(stageTables["nodes"], "nodes"+suffix)

		if err := e.stageEdges(reader, "edges"+suffix); err != nil {
			return nil, err
		}
		stageTables["edges"] = append(stageTables["edges"], "edges"+suffix)

		if err := e.stageExternalRefs(reader, "external_refs"+suffix); err != nil {
			return nil, err
		}
		stageTables["external_refs"] = append(stageTables["external_refs"], "external_refs"+suffix)

		if err := e.stageEffects(reader, "effects"+suffix); err != nil {
			return nil, err
		}
		stageTables["effects"] = append(stageTables["effects"], "effects"+suffix)
	}

	if available == 0 {
		return nil, devacerrors.New(devacerrors.NotFound, "no package in the selection has seed data")
	}

	var created []string
	for _, view := range ViewNames {
		if err := e.createUnionView(view, stageTables[view]); err != nil {
			return nil, err
		}
		created = append(created, view)
	}

	e.packages, e.branch, e.viewsReady = packages, branch, true
	return created, nil
}

func (e *Engine) dropExistingViews() error {
	for _, v := range ViewNames {
		if _, err := e.db.Exec("DROP VIEW IF EXISTS " + v); err != nil {
			return fmt.Errorf("queryengine: drop view %s: %w", v, err)
		}
	}
	return nil
}

func (e *Engine) createUnionView(name string, tables []string) error {
	if len(tables) == 0 {
		// No package contributed rows; define an empty view with the right
		// shape isn't possible without a schema, so fall back to a table
		// that selects nothing from a throwaway empty staging table.
		empty := name + "_empty"
		if _, err := e.db.Exec(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (dummy INTEGER)", empty)); err != nil {
			return err
		}
		_, err := e.db.Exec(fmt.Sprintf("CREATE VIEW %s AS SELECT * FROM %s WHERE 0", name, empty))
		return err
	}

	selects := make([]string, len(tables))
	for i, t := range tables {
		selects[i] = "SELECT * FROM " + t
	}
	stmt := fmt.Sprintf("CREATE VIEW %s AS %s", name, strings.Join(selects, " UNION ALL "))
	_, err := e.db.Exec(stmt)
	if err != nil {
		return fmt.Errorf("queryengine: create view %s: %w", name, err)
	}
	return nil
}

func (e *Engine) stageNodes(r *seed.Reader, table string) error {
	rows, err := r.Nodes()
	if err != nil {
		return wrapFatal(err, "read nodes")
	}
	if _, err := e.db.Exec(fmt.Sprintf(`CREATE TABLE %s (
		entity_id TEXT, name TEXT, qualified_name TEXT, kind TEXT, file_path TEXT,
		start_line INTEGER, end_line INTEGER, exported INTEGER, default_export INTEGER,
		visibility TEXT, async INTEGER, static INTEGER, abstract INTEGER,
		type_signature TEXT, doc TEXT, branch TEXT, is_deleted INTEGER)`, table)); err != nil {
		return err
	}
	stmt, err := e.db.Preparex(fmt.Sprintf(`INSERT INTO %s VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`, table))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, n := range rows {
		row := seedparquet.NodeRowFromModel(n)
		if _, err := stmt.Exec(row.EntityID, row.Name, row.QualifiedName, row.Kind, row.FilePath,
			row.StartLine, row.EndLine, row.Exported, row.DefaultExport, row.Visibility,
			row.Async, row.Static, row.Abstract, row.TypeSignature, row.Doc, row.Branch, row.IsDeleted); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) stageEdges(r *seed.Reader, table string) error {
	rows, err := r.Edges()
	if err != nil {
		return wrapFatal(err, "read edges")
	}
	if _, err := e.db.Exec(fmt.Sprintf(`CREATE TABLE %s (
		source_entity_id TEXT, target_entity_id TEXT, edge_type TEXT, file_path TEXT,
		start_line INTEGER, branch TEXT, is_deleted INTEGER)`, table)); err != nil {
		return err
	}
	stmt, err := e.db.Preparex(fmt.Sprintf(`INSERT INTO %s VALUES (?,?,?,?,?,?,?)`, table))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, edge := range rows {
		if _, err := stmt.Exec(edge.SourceEntityID, edge.TargetEntityID, string(edge.EdgeType),
			edge.Location.FilePath, edge.Location.StartLine, edge.Branch, edge.IsDeleted); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) stageExternalRefs(r *seed.Reader, table string) error {
	rows, err := r.ExternalRefs()
	if err != nil {
		return wrapFatal(err, "read external_refs")
	}
	if _, err := e.db.Exec(fmt.Sprintf(`CREATE TABLE %s (
		source_entity_id TEXT, module_specifier TEXT, imported_symbol TEXT,
		is_type_only INTEGER, is_default INTEGER, is_namespace INTEGER,
		is_resolved INTEGER, target_entity_id TEXT, branch TEXT, is_deleted INTEGER)`, table)); err != nil {
		return err
	}
	stmt, err := e.db.Preparex(fmt.Sprintf(`INSERT INTO %s VALUES (?,?,?,?,?,?,?,?,?,?)`, table))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, ref := range rows {
		target := ""
		if ref.TargetEntityID != nil {
			target = *ref.TargetEntityID
		}
		if _, err := stmt.Exec(ref.SourceEntityID, ref.ModuleSpecifier, ref.ImportedSymbol,
			ref.IsTypeOnly, ref.IsDefault, ref.IsNamespace, ref.IsResolved, target, ref.Branch, ref.IsDeleted); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) stageEffects(r *seed.Reader, table string) error {
	rows, err := r.Effects()
	if err != nil {
		return wrapFatal(err, "read effects")
	}
	if _, err := e.db.Exec(fmt.Sprintf(`CREATE TABLE %s (
		effect_id TEXT, source_entity_id TEXT, effect_type TEXT, file_path TEXT,
		start_line INTEGER, callee_name TEXT, is_external INTEGER, is_async INTEGER,
		external_module TEXT, target_resource TEXT, operation TEXT, target TEXT,
		is_third_party INTEGER, branch TEXT, is_deleted INTEGER)`, table)); err != nil {
		return err
	}
	stmt, err := e.db.Preparex(fmt.Sprintf(`INSERT INTO %s VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`, table))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, eff := range rows {
		if _, err := stmt.Exec(eff.EffectID, eff.SourceEntityID, string(eff.EffectType), eff.Location.FilePath,
			eff.Location.StartLine, eff.CalleeName, eff.IsExternal, eff.IsAsync, eff.ExternalModule,
			eff.TargetResource, eff.Operation, eff.Target, eff.IsThirdParty, eff.Branch, eff.IsDeleted); err != nil {
			return err
		}
	}
	return nil
}

func wrapFatal(err error, action string) error {
	return devacerrors.Wrapf(err, devacerrors.FatalEngine, action)
}

// ExpandPlaceholders substitutes the legacy {nodes}/{edges}/{external_refs}/
// {effects} markers with the engine's view names (§4.4, Open Question 4's
// dual-path migration support).
func ExpandPlaceholders(sqlText string) string {
	for placeholder, view := range placeholders {
		sqlText = strings.ReplaceAll(sqlText, placeholder, view)
	}
	return sqlText
}

// Execute runs sqlText (after placeholder expansion) inside
// execute_with_recovery: a fatal error triggers connection teardown, rebuild
// against the last SetupViews arguments, and a single retry. Non-fatal SQL
// errors propagate directly.
func (e *Engine) Execute(ctx context.Context, sqlText string) (*sqlx.Rows, error) {
	expanded := ExpandPlaceholders(sqlText)

	e.mu.Lock()
	rows, err := e.db.QueryxContext(ctx, expanded)
	e.mu.Unlock()
	if err == nil {
		return rows, nil
	}
	if !isFatal(err) {
		return nil, err
	}

	if rerr := e.rebuild(); rerr != nil {
		return nil, fmt.Errorf("queryengine: recovery rebuild failed: %w (original: %v)", rerr, err)
	}

	e.mu.Lock()
	rows, err = e.db.QueryxContext(ctx, expanded)
	e.mu.Unlock()
	return rows, err
}

// ExecuteCount is a convenience wrapper returning the first column of the
// first row as an int64, per §4.4's execute_count.
func (e *Engine) ExecuteCount(ctx context.Context, sqlText string) (int64, error) {
	rows, err := e.Execute(ctx, sqlText)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	if !rows.Next() {
		return 0, nil
	}
	var n int64
	if err := rows.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// rebuild tears down and reconnects the engine, replaying the last
// SetupViews call so the view surface is restored before the retry.
func (e *Engine) rebuild() error {
	e.mu.Lock()
	packages, branch := e.packages, e.branch
	hadViews := e.viewsReady
	_ = e.db.Close()
	if err := e.reconnect(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.mu.Unlock()

	if hadViews {
		_, err := e.SetupViews(packages, branch)
		return err
	}
	return nil
}

// isFatal classifies an execution error as one execute_with_recovery should
// repair rather than propagate: a closed/broken connection, corrupt data
// detected mid-scan, or an sqlite OOM/memory-limit error.
func isFatal(err error) bool {
	if err == nil {
		return false
	}
	if err == sql.ErrConnDone || err == sql.ErrTxDone {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"database disk image is malformed", "out of memory", "database is closed", "bad connection"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
