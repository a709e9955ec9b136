package federation

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// CacheQuery stores result under hash with a TTL, per §4.7's cache_query
// contract. ttlSeconds=0 means never cache (§8: "after cache_query(h, r, 0),
// get_cached_query(h) returns null"), so no row is written and any earlier
// row under hash is removed.
func (h *Hub) CacheQuery(hash, result string, ttlSeconds int) error {
	if err := h.checkWritable(); err != nil {
		return err
	}
	if ttlSeconds <= 0 {
		if _, err := h.db.Exec(`DELETE FROM query_cache WHERE hash = ?`, hash); err != nil {
			return fatalf(err, "federation: cache_query %s", hash)
		}
		return nil
	}
	_, err := h.db.Exec(`
		INSERT INTO query_cache (hash, result, ttl, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET result = excluded.result, ttl = excluded.ttl, created_at = excluded.created_at`,
		hash, result, ttlSeconds, time.Now().Unix())
	if err != nil {
		return fatalf(err, "federation: cache_query %s", hash)
	}
	return nil
}

// GetCachedQuery returns the cached result for hash, or ("", false) if
// absent or expired. An entry is valid iff ttl > 0 AND (now - created_at) <
// ttl (§4.7); an expired row found on read is lazily deleted, per the same
// section's "expired rows are lazily deleted on read".
func (h *Hub) GetCachedQuery(hash string) (string, bool, error) {
	if err := h.checkOpen(); err != nil {
		return "", false, err
	}
	var row struct {
		Result    string `db:"result"`
		TTL       int    `db:"ttl"`
		CreatedAt int64  `db:"created_at"`
	}
	if err := h.db.Get(&row, `SELECT result, ttl, created_at FROM query_cache WHERE hash = ?`, hash); err != nil {
		return "", false, nil
	}
	if row.TTL <= 0 || time.Now().Unix()-row.CreatedAt >= int64(row.TTL) {
		_, _ = h.db.Exec(`DELETE FROM query_cache WHERE hash = ?`, hash)
		return "", false, nil
	}
	return row.Result, true, nil
}

// SweepExpired removes every query_cache row past its TTL in bulk. It is a
// maintenance-path helper (invoked by the hub's caller on its own schedule,
// not a goroutine-per-process timer — §9: "must never be created as hidden
// singletons that survive across tests") rather than lazy per-read deletion
// alone. batchSize rows are deleted per tick, paced by limiter so a sweep
// over a very large cache doesn't hold the write lock in one long
// transaction.
func (h *Hub) SweepExpired(ctx context.Context, limiter *rate.Limiter, batchSize int) (int, error) {
	if err := h.checkWritable(); err != nil {
		return 0, err
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	now := time.Now().Unix()

	total := 0
	for {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return total, err
			}
		}
		res, err := h.db.Exec(`DELETE FROM query_cache WHERE rowid IN (
			SELECT rowid FROM query_cache WHERE ttl <= 0 OR (? - created_at) >= ttl LIMIT ?)`, now, batchSize)
		if err != nil {
			return total, fatalf(err, "federation: sweep_expired")
		}
		n, _ := res.RowsAffected()
		total += int(n)
		if n < int64(batchSize) {
			return total, nil
		}
	}
}
