// Package federation implements the Federation Hub (§4.7): a single-host
// central store shared by every repository in a workspace, backed by an
// embedded columnar database file at <workspace>/.devac/central.duckdb
// (the filename stays "central.duckdb" for continuity even though the
// driver underneath is a real SQLite binding rather than DuckDB).
package federation

import (
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
	"github.com/sirupsen/logrus"

	devacerrors "github.com/devac/devac/internal/errors"
)

// schema creates every table the hub needs. Cross-repo edges cascade-delete
// on repo removal (§3: "removing a repo must remove every edge touching
// that repo") via ON DELETE CASCADE foreign keys against repos.repo_id.
const schema = `
CREATE TABLE IF NOT EXISTS repos (
	repo_id       TEXT PRIMARY KEY,
	local_path    TEXT NOT NULL,
	manifest_hash TEXT NOT NULL,
	last_synced   TEXT NOT NULL,
	status        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cross_repo_edges (
	source_repo      TEXT NOT NULL,
	source_entity_id TEXT NOT NULL,
	target_repo      TEXT NOT NULL,
	target_entity_id TEXT NOT NULL,
	edge_type        TEXT NOT NULL,
	metadata         TEXT,
	PRIMARY KEY (source_entity_id, target_entity_id, edge_type),
	FOREIGN KEY (source_repo) REFERENCES repos(repo_id) ON DELETE CASCADE,
	FOREIGN KEY (target_repo) REFERENCES repos(repo_id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_cross_repo_edges_target ON cross_repo_edges(target_entity_id);
CREATE INDEX IF NOT EXISTS idx_cross_repo_edges_target_repo ON cross_repo_edges(target_repo);

CREATE TABLE IF NOT EXISTS query_cache (
	hash       TEXT PRIMARY KEY,
	result     TEXT NOT NULL,
	ttl        INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS diagnostics (
	diagnostic_id TEXT PRIMARY KEY,
	repo_id       TEXT NOT NULL,
	source        TEXT NOT NULL,
	file          TEXT,
	line          INTEGER,
	col           INTEGER,
	severity      TEXT NOT NULL,
	category      TEXT,
	title         TEXT NOT NULL,
	description   TEXT,
	code          TEXT,
	suggestion    TEXT,
	resolved      INTEGER NOT NULL DEFAULT 0,
	actionable    INTEGER NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL,
	source_ref    TEXT
);
CREATE INDEX IF NOT EXISTS idx_diagnostics_repo ON diagnostics(repo_id);
CREATE INDEX IF NOT EXISTS idx_diagnostics_source ON diagnostics(source);
`

// Hub owns the central database connection. Reads and writes on the same
// repo record are serialized by SQLite's own locking (§5); devac adds a
// coarse mutex only around the not-yet-closed check, matching
// queryengine.Engine's pattern of a thin mutex plus connection-level
// serialization.
type Hub struct {
	db       *sqlx.DB
	logger   *logrus.Logger
	readOnly bool

	mu     sync.RWMutex
	closed bool
}

// Init opens or creates dbPath. In read-only mode (§4.7: "Read-only mode
// never writes") no tables are created, so the caller must point at a file
// an earlier write-mode Init already initialized.
func Init(dbPath string, readOnly bool, logger *logrus.Logger) (*Hub, error) {
	if logger == nil {
		logger = logrus.New()
	}

	driver := "sqlite3"
	dsn := dbPath
	if readOnly {
		// Open Question #1: the pure-Go modernc.org/sqlite driver backs
		// read-only federated query mirrors where cgo is undesirable.
		driver = "sqlite"
		dsn = dbPath + "?mode=ro"
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, devacerrors.Wrapf(err, devacerrors.FatalEngine, "federation: connect %s", dbPath)
	}

	h := &Hub{db: db, logger: logger, readOnly: readOnly}
	if !readOnly {
		if _, err := db.Exec(schema); err != nil {
			db.Close()
			return nil, devacerrors.Wrapf(err, devacerrors.FatalEngine, "federation: create schema")
		}
	}
	return h, nil
}

// Close releases the underlying connection. Idempotent: a second call is a
// no-op, and every operation issued after Close rejects with NotInitialized
// (§4.7's close semantics).
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	return h.db.Close()
}

// checkOpen returns NotInitialized if the hub has been closed, the shared
// guard every public operation calls first.
func (h *Hub) checkOpen() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return devacerrors.New(devacerrors.Input, "federation: hub is closed").WithContext("reason", "NotInitialized")
	}
	return nil
}

func (h *Hub) checkWritable() error {
	if err := h.checkOpen(); err != nil {
		return err
	}
	if h.readOnly {
		return devacerrors.New(devacerrors.Input, "federation: hub opened read-only")
	}
	return nil
}

func fatalf(err error, format string, args ...any) error {
	return devacerrors.Wrapf(err, devacerrors.FatalEngine, fmt.Sprintf(format, args...))
}

// devacErrNotFound wraps a NotFound error for a missing repo_id, letting
// callers distinguish "no such repo" from a storage-level failure.
func devacErrNotFound(repoID string) error {
	return devacerrors.Newf(devacerrors.NotFound, "federation: repo %s not registered", repoID)
}
