package federation

import (
	"time"

	"github.com/devac/devac/internal/model"
)

// AddRepo upserts a repo registration (§4.7: "add_repo(reg) — upsert... with
// cascade through cross-repo edges" on removal).
func (h *Hub) AddRepo(reg model.RepoRegistration) error {
	if err := h.checkWritable(); err != nil {
		return err
	}
	if reg.LastSynced.IsZero() {
		reg.LastSynced = time.Now()
	}
	_, err := h.db.Exec(`
		INSERT INTO repos (repo_id, local_path, manifest_hash, last_synced, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(repo_id) DO UPDATE SET
			local_path = excluded.local_path,
			manifest_hash = excluded.manifest_hash,
			last_synced = excluded.last_synced,
			status = excluded.status`,
		reg.RepoID, reg.LocalPath, reg.ManifestHash, reg.LastSynced.UTC().Format(time.RFC3339Nano), string(reg.Status))
	if err != nil {
		return fatalf(err, "federation: add_repo %s", reg.RepoID)
	}
	return nil
}

// RemoveRepo deletes a repo registration. The cross_repo_edges foreign keys
// are declared ON DELETE CASCADE, so every edge touching repoID (as source
// or target) is removed atomically with it (§3's derived-edges invariant).
func (h *Hub) RemoveRepo(repoID string) error {
	if err := h.checkWritable(); err != nil {
		return err
	}
	if _, err := h.db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return fatalf(err, "federation: enable foreign_keys")
	}
	res, err := h.db.Exec(`DELETE FROM repos WHERE repo_id = ?`, repoID)
	if err != nil {
		return fatalf(err, "federation: remove_repo %s", repoID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return devacErrNotFound(repoID)
	}
	return nil
}

// ListRepos returns every registered repo.
func (h *Hub) ListRepos() ([]model.RepoRegistration, error) {
	if err := h.checkOpen(); err != nil {
		return nil, err
	}
	var rows []repoRow
	if err := h.db.Select(&rows, `SELECT repo_id, local_path, manifest_hash, last_synced, status FROM repos ORDER BY repo_id`); err != nil {
		return nil, fatalf(err, "federation: list_repos")
	}
	out := make([]model.RepoRegistration, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

// GetRepo returns one repo's registration, or (zero, false) if unregistered.
func (h *Hub) GetRepo(repoID string) (model.RepoRegistration, bool, error) {
	if err := h.checkOpen(); err != nil {
		return model.RepoRegistration{}, false, err
	}
	var r repoRow
	err := h.db.Get(&r, `SELECT repo_id, local_path, manifest_hash, last_synced, status FROM repos WHERE repo_id = ?`, repoID)
	if err != nil {
		return model.RepoRegistration{}, false, nil
	}
	return r.toModel(), true, nil
}

// UpdateRepoSync stamps last_synced and manifest_hash for a sync pass,
// leaving local_path and status untouched.
func (h *Hub) UpdateRepoSync(repoID, manifestHash string) error {
	if err := h.checkWritable(); err != nil {
		return err
	}
	res, err := h.db.Exec(`UPDATE repos SET manifest_hash = ?, last_synced = ? WHERE repo_id = ?`,
		manifestHash, time.Now().UTC().Format(time.RFC3339Nano), repoID)
	if err != nil {
		return fatalf(err, "federation: update_repo_sync %s", repoID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return devacErrNotFound(repoID)
	}
	return nil
}

type repoRow struct {
	RepoID       string `db:"repo_id"`
	LocalPath    string `db:"local_path"`
	ManifestHash string `db:"manifest_hash"`
	LastSynced   string `db:"last_synced"`
	Status       string `db:"status"`
}

func (r repoRow) toModel() model.RepoRegistration {
	t, _ := time.Parse(time.RFC3339Nano, r.LastSynced)
	return model.RepoRegistration{
		RepoID: r.RepoID, LocalPath: r.LocalPath, ManifestHash: r.ManifestHash,
		LastSynced: t, Status: model.RepoStatus(r.Status),
	}
}
