package resolver

import (
	"time"

	"github.com/devac/devac/internal/model"
	"github.com/devac/devac/internal/parser"
	"github.com/devac/devac/internal/seed"
)

// ApplyRefResolutions rewrites resolved ExternalRef rows back to seed
// storage with is_resolved=true and the matched target_entity_id, per
// §4.5/§3's "mutated only by Semantic Resolver" lifecycle. Rows are upserted
// by their existing primary key, so this overwrites the prior (unresolved)
// row rather than appending a duplicate.
func ApplyRefResolutions(w *seed.Writer, resolutions []RefResolution) error {
	pr := &parser.ParseResult{}
	for _, rr := range resolutions {
		if rr.Result == nil {
			continue
		}
		ref := rr.Ref
		target := rr.Result.TargetEntityID
		ref.IsResolved = true
		ref.TargetEntityID = &target
		ref.UpdatedAt = time.Now()
		pr.ExternalRefs = append(pr.ExternalRefs, ref)
	}
	if len(pr.ExternalRefs) == 0 {
		return nil
	}
	if err := w.AddParseResult(pr); err != nil {
		return err
	}
	return w.Flush()
}

// ApplyEdgeResolutions rewrites resolved CALLS/EXTENDS edges back to seed
// storage. Because an edge's primary key includes target_entity_id
// (§4.3), resolving an edge changes its key: the original
// unresolved:<symbol> row is tombstoned and a new row with the resolved
// target is inserted, rather than being upserted in place.
func ApplyEdgeResolutions(w *seed.Writer, resolutions []CallResolution) error {
	pr := &parser.ParseResult{}
	for _, cr := range resolutions {
		if cr.Result == nil {
			continue
		}
		tombstone := cr.Edge
		tombstone.IsDeleted = true
		tombstone.UpdatedAt = time.Now()
		pr.Edges = append(pr.Edges, tombstone)

		resolved := cr.Edge
		resolved.TargetEntityID = cr.Result.TargetEntityID
		resolved.IsDeleted = false
		resolved.UpdatedAt = time.Now()
		if resolved.Properties == nil {
			resolved.Properties = map[string]any{}
		}
		resolved.Properties["resolution_method"] = cr.Result.Method
		resolved.Properties["resolution_confidence"] = cr.Result.Confidence
		pr.Edges = append(pr.Edges, resolved)
	}
	if len(pr.Edges) == 0 {
		return nil
	}
	if err := w.AddParseResult(pr); err != nil {
		return err
	}
	return w.Flush()
}

// NodesByFile buckets a package's nodes by file path, the shape
// resolve_calls/resolve_extends need for same-file lookups.
func NodesByFile(nodes []model.Node) map[string][]model.Node {
	out := make(map[string][]model.Node)
	for _, n := range nodes {
		out[n.Location.FilePath] = append(out[n.Location.FilePath], n)
	}
	return out
}
