// Package ident generates the portable, content-addressed identifiers used
// across the parser, seed storage, and resolver layers (§4.1). IDs are
// deterministic hashes over a symbol's repo-relative coordinates so that two
// parses of the same unchanged file produce byte-identical entity_ids,
// letting seed writes upsert instead of duplicate. Paths are always stored
// relative to the repo root, never absolute, and always forward-slashed so
// IDs are stable across machines and operating systems.
package ident

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// NormalizePath converts an OS file path to a portable, repo-relative,
// forward-slashed form. If absPath is already relative it is only
// slash-normalized; if it falls outside repoRoot the cleaned absolute form
// is returned since no relative path can represent it.
func NormalizePath(absPath, repoRoot string) string {
	if !filepath.IsAbs(absPath) {
		return toSlash(filepath.Clean(absPath))
	}

	cleanAbs := filepath.Clean(absPath)
	cleanRoot := filepath.Clean(repoRoot)

	rel, err := filepath.Rel(cleanRoot, cleanAbs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return toSlash(cleanAbs)
	}
	return toSlash(rel)
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, string(filepath.Separator), "/")
}

// shortHash returns the first n hex characters of the sha256 digest of the
// pipe-joined parts.
func shortHash(n int, parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte("|"))
		}
		h.Write([]byte(p))
	}
	sum := hex.EncodeToString(h.Sum(nil))
	if n > len(sum) {
		n = len(sum)
	}
	return sum[:n]
}

// EntityID builds the entity_id contract: {repo}:{package_path}:{file_path}:{kind}:{short_hash}.
// repo and packagePath are caller-normalized identifiers (no path separators
// beyond "/"); filePath must already be repo-relative and forward-slashed
// (see NormalizePath). disambiguator distinguishes overloaded or nested
// symbols sharing a qualifiedName within the same file (e.g. a line range or
// enclosing class); pass "" when the qualified name alone is unique.
func EntityID(repo, packagePath, filePath, kind, qualifiedName, disambiguator string) string {
	hash := shortHash(8, qualifiedName, disambiguator, kind)
	return fmt.Sprintf("%s:%s:%s:%s:%s", repo, packagePath, filePath, kind, hash)
}

// EffectID derives a deterministic id for a side-effect observation, scoped
// to the entity that produced it and its location so repeated effects within
// one function (e.g. two calls to the same callee) still get distinct ids.
func EffectID(sourceEntityID, effectType string, startLine, startCol int) string {
	hash := shortHash(8, sourceEntityID, effectType, fmt.Sprintf("%d:%d", startLine, startCol))
	return "eff:" + hash
}

// FileHash computes the hex-encoded SHA-256 digest of a file's contents,
// streaming so large files don't need to be read fully into memory.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("ident: open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("ident: hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ManifestHash combines a set of per-file hashes (path -> content hash) into
// a single stable digest representing a repo's parsed state, used by
// federation to detect whether a registered repo needs re-syncing. Order
// independent: callers may pass the map in any iteration order.
func ManifestHash(fileHashes map[string]string) string {
	keys := make([]string, 0, len(fileHashes))
	for k := range fileHashes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte("="))
		h.Write([]byte(fileHashes[k]))
		h.Write([]byte(";"))
	}
	return hex.EncodeToString(h.Sum(nil))
}
