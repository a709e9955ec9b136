package federation

import (
	"encoding/json"
	"strings"

	"github.com/devac/devac/internal/model"
)

// AddCrossRepoEdges upserts edges on their (source_entity_id,
// target_entity_id, edge_type) primary key, so repeated calls with the same
// set are a no-op beyond the last write (§4.7, §8's PK-idempotence law).
func (h *Hub) AddCrossRepoEdges(edges []model.CrossRepoEdge) error {
	if err := h.checkWritable(); err != nil {
		return err
	}
	if len(edges) == 0 {
		return nil
	}

	tx, err := h.db.Beginx()
	if err != nil {
		return fatalf(err, "federation: add_cross_repo_edges begin")
	}
	stmt, err := tx.Preparex(`
		INSERT INTO cross_repo_edges
			(source_repo, source_entity_id, target_repo, target_entity_id, edge_type, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_entity_id, target_entity_id, edge_type) DO UPDATE SET
			source_repo = excluded.source_repo,
			target_repo = excluded.target_repo,
			metadata = excluded.metadata`)
	if err != nil {
		tx.Rollback()
		return fatalf(err, "federation: add_cross_repo_edges prepare")
	}
	defer stmt.Close()

	for _, e := range edges {
		var metaJSON string
		if len(e.Metadata) > 0 {
			if b, err := json.Marshal(e.Metadata); err == nil {
				metaJSON = string(b)
			}
		}
		if _, err := stmt.Exec(e.SourceRepo, e.SourceEntityID, e.TargetRepo, e.TargetEntityID, string(e.EdgeType), metaJSON); err != nil {
			tx.Rollback()
			return fatalf(err, "federation: add_cross_repo_edges exec")
		}
	}
	if err := tx.Commit(); err != nil {
		return fatalf(err, "federation: add_cross_repo_edges commit")
	}
	return nil
}

// GetCrossRepoDependents returns every edge whose target is in targetIDs,
// used by the affected analyzer's upward (reverse) walk (§4.7, §4.8).
func (h *Hub) GetCrossRepoDependents(targetIDs []string) ([]model.CrossRepoEdge, error) {
	if err := h.checkOpen(); err != nil {
		return nil, err
	}
	if len(targetIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(targetIDs)), ",")
	query := `SELECT source_repo, source_entity_id, target_repo, target_entity_id, edge_type, metadata
		FROM cross_repo_edges WHERE target_entity_id IN (` + placeholders + `)`

	args := make([]any, len(targetIDs))
	for i, id := range targetIDs {
		args[i] = id
	}

	var rows []edgeRow
	if err := h.db.Select(&rows, query, args...); err != nil {
		return nil, fatalf(err, "federation: get_cross_repo_dependents")
	}
	return toModelEdges(rows), nil
}

// GetEdgesTargetingRepo returns every edge whose target repo is repoID,
// optionally narrowed to targets whose entity_id contains filePattern
// (a plain substring match, consistent with rules.Pattern's default).
func (h *Hub) GetEdgesTargetingRepo(repoID, filePattern string) ([]model.CrossRepoEdge, error) {
	if err := h.checkOpen(); err != nil {
		return nil, err
	}
	query := `SELECT source_repo, source_entity_id, target_repo, target_entity_id, edge_type, metadata
		FROM cross_repo_edges WHERE target_repo = ?`
	args := []any{repoID}
	if filePattern != "" {
		query += ` AND target_entity_id LIKE ?`
		args = append(args, "%"+filePattern+"%")
	}

	var rows []edgeRow
	if err := h.db.Select(&rows, query, args...); err != nil {
		return nil, fatalf(err, "federation: get_edges_targeting_repo %s", repoID)
	}
	return toModelEdges(rows), nil
}

type edgeRow struct {
	SourceRepo     string `db:"source_repo"`
	SourceEntityID string `db:"source_entity_id"`
	TargetRepo     string `db:"target_repo"`
	TargetEntityID string `db:"target_entity_id"`
	EdgeType       string `db:"edge_type"`
	Metadata       string `db:"metadata"`
}

func toModelEdges(rows []edgeRow) []model.CrossRepoEdge {
	out := make([]model.CrossRepoEdge, len(rows))
	for i, r := range rows {
		var meta map[string]any
		if r.Metadata != "" {
			_ = json.Unmarshal([]byte(r.Metadata), &meta)
		}
		out[i] = model.CrossRepoEdge{
			SourceRepo: r.SourceRepo, SourceEntityID: r.SourceEntityID,
			TargetRepo: r.TargetRepo, TargetEntityID: r.TargetEntityID,
			EdgeType: model.EdgeType(r.EdgeType), Metadata: meta,
		}
	}
	return out
}
