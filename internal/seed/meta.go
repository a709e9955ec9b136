package seed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SchemaVersion is the current on-disk seed schema generation, written to
// meta.json. Neither readMeta nor Reader compares a stored version against
// it, so a seed with a higher version is read like any other.
const SchemaVersion = 1

// Meta is the bit-exact meta.json contract from §6.
type Meta struct {
	SchemaVersion int               `json:"schemaVersion"`
	Writer        string            `json:"writer"`
	CreatedAt     time.Time         `json:"createdAt"`
	LastWrittenAt time.Time         `json:"lastWrittenAt"`
	FileHashes    map[string]string `json:"fileHashes"`
}

func metaPath(dir string) string {
	return filepath.Join(dir, "meta.json")
}

// readMeta loads meta.json from dir, or returns a fresh zero-value Meta if
// the file doesn't exist yet (first write to a package/branch).
func readMeta(dir, writer string) (*Meta, error) {
	data, err := os.ReadFile(metaPath(dir))
	if os.IsNotExist(err) {
		return &Meta{
			SchemaVersion: SchemaVersion,
			Writer:        writer,
			CreatedAt:     time.Now(),
			LastWrittenAt: time.Now(),
			FileHashes:    map[string]string{},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("seed: read meta %s: %w", dir, err)
	}

	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("seed: parse meta %s: %w", dir, err)
	}
	if m.FileHashes == nil {
		m.FileHashes = map[string]string{}
	}
	return &m, nil
}

// writeMeta persists meta atomically using the same tmp-file-then-rename
// protocol as the table files (§4.3 step 4).
func writeMeta(dir string, m *Meta) error {
	m.LastWrittenAt = time.Now()
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("seed: marshal meta: %w", err)
	}

	tmp := metaPath(dir) + fmt.Sprintf(".tmp.%d", time.Now().UnixNano())
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("seed: write meta temp: %w", err)
	}
	if err := os.Rename(tmp, metaPath(dir)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("seed: rename meta: %w", err)
	}
	return nil
}
