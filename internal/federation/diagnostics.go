package federation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devac/devac/internal/model"
)

// UpsertDiagnostics inserts or updates diagnostics by diagnostic_id,
// generating one via uuid when the caller leaves it blank (§4.7). Resolution
// "flips the flag but retains the record" (§3's diagnostic lifecycle) is the
// caller's concern via Resolve; UpsertDiagnostics always writes the full row.
func (h *Hub) UpsertDiagnostics(items []model.UnifiedDiagnostic) error {
	if err := h.checkWritable(); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	tx, err := h.db.Beginx()
	if err != nil {
		return fatalf(err, "federation: upsert_diagnostics begin")
	}
	stmt, err := tx.Preparex(`
		INSERT INTO diagnostics
			(diagnostic_id, repo_id, source, file, line, col, severity, category, title,
			 description, code, suggestion, resolved, actionable, created_at, updated_at, source_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(diagnostic_id) DO UPDATE SET
			repo_id = excluded.repo_id, source = excluded.source, file = excluded.file,
			line = excluded.line, col = excluded.col, severity = excluded.severity,
			category = excluded.category, title = excluded.title, description = excluded.description,
			code = excluded.code, suggestion = excluded.suggestion, resolved = excluded.resolved,
			actionable = excluded.actionable, updated_at = excluded.updated_at, source_ref = excluded.source_ref`)
	if err != nil {
		tx.Rollback()
		return fatalf(err, "federation: upsert_diagnostics prepare")
	}
	defer stmt.Close()

	now := time.Now()
	for _, d := range items {
		if d.DiagnosticID == "" {
			d.DiagnosticID = uuid.NewString()
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt = now
		}
		d.UpdatedAt = now

		if _, err := stmt.Exec(d.DiagnosticID, d.RepoID, string(d.Source), d.File, d.Line, d.Column,
			string(d.Severity), d.Category, d.Title, d.Description, d.Code, d.Suggestion,
			d.Resolved, d.Actionable, d.CreatedAt.UTC().Format(time.RFC3339Nano), d.UpdatedAt.UTC().Format(time.RFC3339Nano), d.SourceRef); err != nil {
			tx.Rollback()
			return fatalf(err, "federation: upsert_diagnostics exec")
		}
	}
	if err := tx.Commit(); err != nil {
		return fatalf(err, "federation: upsert_diagnostics commit")
	}
	return nil
}

// ClearDiagnostics removes diagnostics, optionally narrowed by repo and/or
// source; both empty clears every diagnostic in the hub.
func (h *Hub) ClearDiagnostics(repoID string, source model.DiagnosticSource) error {
	if err := h.checkWritable(); err != nil {
		return err
	}
	query := "DELETE FROM diagnostics WHERE 1=1"
	var args []any
	if repoID != "" {
		query += " AND repo_id = ?"
		args = append(args, repoID)
	}
	if source != "" {
		query += " AND source = ?"
		args = append(args, string(source))
	}
	if _, err := h.db.Exec(query, args...); err != nil {
		return fatalf(err, "federation: clear_diagnostics")
	}
	return nil
}

// DiagnosticFilter narrows query_diagnostics's result set; zero-valued
// fields are unconstrained.
type DiagnosticFilter struct {
	RepoID     string
	Source     model.DiagnosticSource
	Severity   model.Severity
	Resolved   *bool
	Actionable *bool
}

// QueryDiagnostics returns diagnostics matching filter, ordered by severity
// (critical first) then updated_at descending (§4.7).
func (h *Hub) QueryDiagnostics(filter DiagnosticFilter) ([]model.UnifiedDiagnostic, error) {
	if err := h.checkOpen(); err != nil {
		return nil, err
	}
	query := "SELECT * FROM diagnostics WHERE 1=1"
	var args []any
	if filter.RepoID != "" {
		query += " AND repo_id = ?"
		args = append(args, filter.RepoID)
	}
	if filter.Source != "" {
		query += " AND source = ?"
		args = append(args, string(filter.Source))
	}
	if filter.Severity != "" {
		query += " AND severity = ?"
		args = append(args, string(filter.Severity))
	}
	if filter.Resolved != nil {
		query += " AND resolved = ?"
		args = append(args, *filter.Resolved)
	}
	if filter.Actionable != nil {
		query += " AND actionable = ?"
		args = append(args, *filter.Actionable)
	}

	var rows []diagnosticRow
	if err := h.db.Select(&rows, query, args...); err != nil {
		return nil, fatalf(err, "federation: query_diagnostics")
	}

	out := make([]model.UnifiedDiagnostic, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	sortDiagnostics(out)
	return out, nil
}

// sortDiagnostics orders severity-critical-first then updated_at descending,
// a stable in-Go sort over the already-fetched rows since SQLite's text
// ordering doesn't know the severity rank (§4.7, model.SeverityRank).
func sortDiagnostics(diags []model.UnifiedDiagnostic) {
	for i := 1; i < len(diags); i++ {
		for j := i; j > 0; j-- {
			a, b := diags[j-1], diags[j]
			if less(b, a) {
				diags[j-1], diags[j] = diags[j], diags[j-1]
				continue
			}
			break
		}
	}
}

func less(a, b model.UnifiedDiagnostic) bool {
	ra, rb := model.SeverityRank(a.Severity), model.SeverityRank(b.Severity)
	if ra != rb {
		return ra < rb
	}
	return a.UpdatedAt.After(b.UpdatedAt)
}

// Summary groups diagnostic counts by the requested dimension.
func (h *Hub) Summary(groupBy string) (map[string]int, error) {
	if err := h.checkOpen(); err != nil {
		return nil, err
	}
	col, ok := map[string]string{
		"source": "source", "severity": "severity", "category": "category", "repo": "repo_id",
	}[groupBy]
	if !ok {
		return nil, fmt.Errorf("federation: unknown group_by %q", groupBy)
	}

	rows, err := h.db.Query(fmt.Sprintf("SELECT %s, COUNT(*) FROM diagnostics GROUP BY %s", col, col))
	if err != nil {
		return nil, fatalf(err, "federation: summary")
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, nil
}

// Counts returns the overall {total, resolved, unresolved, actionable} tally.
func (h *Hub) Counts() (map[string]int, error) {
	if err := h.checkOpen(); err != nil {
		return nil, err
	}
	var total, resolved, actionable int
	if err := h.db.Get(&total, `SELECT COUNT(*) FROM diagnostics`); err != nil {
		return nil, fatalf(err, "federation: counts total")
	}
	if err := h.db.Get(&resolved, `SELECT COUNT(*) FROM diagnostics WHERE resolved = 1`); err != nil {
		return nil, fatalf(err, "federation: counts resolved")
	}
	if err := h.db.Get(&actionable, `SELECT COUNT(*) FROM diagnostics WHERE actionable = 1`); err != nil {
		return nil, fatalf(err, "federation: counts actionable")
	}
	return map[string]int{
		"total": total, "resolved": resolved, "unresolved": total - resolved, "actionable": actionable,
	}, nil
}

// Resolve flips resolved=true for the given diagnostic ids, retaining every
// other field (§3: "resolution flips the flag but retains the record").
func (h *Hub) Resolve(ids []string) error {
	if err := h.checkWritable(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	if _, err := h.db.Exec(`UPDATE diagnostics SET resolved = 1, updated_at = ? WHERE diagnostic_id IN (`+placeholders+`)`,
		append([]any{time.Now().UTC().Format(time.RFC3339Nano)}, args...)...); err != nil {
		return fatalf(err, "federation: resolve")
	}
	return nil
}

type diagnosticRow struct {
	DiagnosticID string `db:"diagnostic_id"`
	RepoID       string `db:"repo_id"`
	Source       string `db:"source"`
	File         string `db:"file"`
	Line         int    `db:"line"`
	Col          int    `db:"col"`
	Severity     string `db:"severity"`
	Category     string `db:"category"`
	Title        string `db:"title"`
	Description  string `db:"description"`
	Code         string `db:"code"`
	Suggestion   string `db:"suggestion"`
	Resolved     bool   `db:"resolved"`
	Actionable   bool   `db:"actionable"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
	SourceRef    string `db:"source_ref"`
}

func (r diagnosticRow) toModel() model.UnifiedDiagnostic {
	created, _ := time.Parse(time.RFC3339Nano, r.CreatedAt)
	updated, _ := time.Parse(time.RFC3339Nano, r.UpdatedAt)
	return model.UnifiedDiagnostic{
		DiagnosticID: r.DiagnosticID, RepoID: r.RepoID, Source: model.DiagnosticSource(r.Source),
		File: r.File, Line: r.Line, Column: r.Col, Severity: model.Severity(r.Severity),
		Category: r.Category, Title: r.Title, Description: r.Description, Code: r.Code,
		Suggestion: r.Suggestion, Resolved: r.Resolved, Actionable: r.Actionable,
		CreatedAt: created, UpdatedAt: updated, SourceRef: r.SourceRef,
	}
}
