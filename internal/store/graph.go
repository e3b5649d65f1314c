package store

import (
	"context"
	"fmt"

	"github.com/roach88/h2prov/internal/domain"
	"github.com/roach88/h2prov/internal/provgraph"
	"github.com/roach88/h2prov/internal/source"
)

// Recursive walks over batch_links. The anchor is the root's batch; each
// step follows one link and keeps only batches that exist. Depth bounds
// the walk, so cycles terminate.
const (
	walkUpstream = `
		WITH RECURSIVE walk(batch_id, depth) AS (
			SELECT b.id, 0 FROM batches b WHERE b.process_step_id = ?
			UNION
			SELECT l.predecessor_id, w.depth + 1
			FROM walk w
			JOIN batch_links l ON l.successor_id = w.batch_id
			JOIN batches p ON p.id = l.predecessor_id
			WHERE w.depth < ?
		)
		SELECT batch_id, MIN(depth) AS d FROM walk
		GROUP BY batch_id
		ORDER BY d ASC, batch_id COLLATE BINARY ASC
		LIMIT ?`

	walkDownstream = `
		WITH RECURSIVE walk(batch_id, depth) AS (
			SELECT b.id, 0 FROM batches b WHERE b.process_step_id = ?
			UNION
			SELECT l.successor_id, w.depth + 1
			FROM walk w
			JOIN batch_links l ON l.predecessor_id = w.batch_id
			JOIN batches n ON n.id = l.successor_id
			WHERE w.depth < ?
		)
		SELECT batch_id, MIN(depth) AS d FROM walk
		GROUP BY batch_id
		ORDER BY d ASC, batch_id COLLATE BINARY ASC
		LIMIT ?`
)

// BuildProvenanceGraph returns the steps within maxDepth links of rootID in
// dir, at most maxNodes of them (nearest first), and the edges between
// them. Non-positive bounds take the find-all defaults.
func (s *Store) BuildProvenanceGraph(ctx context.Context, rootID string, dir source.Direction, maxDepth, maxNodes int) (source.GraphSlice, error) {
	if maxDepth <= 0 {
		maxDepth = provgraph.DefaultFindAllOptions.MaxDepth
	}
	if maxNodes <= 0 {
		maxNodes = provgraph.DefaultFindAllOptions.MaxNodes
	}

	var walks []string
	switch dir {
	case source.DirectionUpstream:
		walks = []string{walkUpstream}
	case source.DirectionDownstream:
		walks = []string{walkDownstream}
	case source.DirectionBoth:
		walks = []string{walkUpstream, walkDownstream}
	default:
		return source.GraphSlice{}, domain.NewValidationError(fmt.Sprintf("unknown direction %q", dir))
	}

	var batchIDs []string
	seen := map[string]bool{}
	for _, walk := range walks {
		ids, err := s.walk(ctx, walk, rootID, maxDepth, maxNodes)
		if err != nil {
			return source.GraphSlice{}, err
		}
		for _, id := range ids {
			if !seen[id] && len(batchIDs) < maxNodes {
				seen[id] = true
				batchIDs = append(batchIDs, id)
			}
		}
	}
	if len(batchIDs) == 0 {
		return source.GraphSlice{}, domain.NewNotFoundError("process step", rootID)
	}

	steps, err := s.stepsByBatchIDs(ctx, s.db, batchIDs)
	if err != nil {
		return source.GraphSlice{}, fmt.Errorf("build provenance graph: %w", err)
	}
	return source.GraphSlice{Nodes: steps, Edges: sliceEdges(steps)}, nil
}

func (s *Store) walk(ctx context.Context, query, rootID string, maxDepth, maxNodes int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, rootID, maxDepth, maxNodes)
	if err != nil {
		return nil, fmt.Errorf("walk provenance: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		var depth int
		if err := rows.Scan(&id, &depth); err != nil {
			return nil, fmt.Errorf("scan provenance walk: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate provenance walk: %w", err)
	}
	return ids, nil
}

// sliceEdges derives the edges whose endpoints are both in steps.
func sliceEdges(steps []domain.ProcessStep) []provgraph.Edge {
	owner := make(map[string]domain.ProcessStep, len(steps))
	for _, st := range steps {
		owner[st.Batch.ID] = st
	}

	edges := []provgraph.Edge{}
	for _, st := range steps {
		for _, ref := range st.Batch.Predecessors {
			pred, ok := owner[ref.ID]
			if !ok {
				continue
			}
			edges = append(edges, provgraph.Edge{
				From:            pred.ID,
				To:              st.ID,
				AllocationRatio: provgraph.AllocationRatio(ref.Amount, pred.Batch.Amount),
			})
		}
	}
	return edges
}
