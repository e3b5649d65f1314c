package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/h2prov/internal/allocation"
	"github.com/roach88/h2prov/internal/domain"
)

// ImportStats counts the records an import actually inserted.
type ImportStats struct {
	Steps int `json:"steps"`
	Units int `json:"units"`
	Links int `json:"links"`
}

// Import stores units and steps in one transaction. Every step is
// validated first. Records whose id already exists are left unchanged, so
// importing the same data twice is a no-op.
func (s *Store) Import(ctx context.Context, steps []domain.ProcessStep, units []domain.ProductionUnit) (ImportStats, error) {
	for _, st := range steps {
		if err := st.Validate(); err != nil {
			return ImportStats{}, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportStats{}, fmt.Errorf("import: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var stats ImportStats
	for _, u := range units {
		n, err := insertUnit(ctx, tx, u)
		if err != nil {
			return ImportStats{}, fmt.Errorf("import unit %s: %w", u.ID, err)
		}
		stats.Units += n
	}
	for _, st := range steps {
		n, err := insertStep(ctx, tx, st)
		if err != nil {
			return ImportStats{}, fmt.Errorf("import step %s: %w", st.ID, err)
		}
		stats.Steps += n
	}
	for _, st := range steps {
		n, err := insertLinks(ctx, tx, st.Batch)
		if err != nil {
			return ImportStats{}, fmt.Errorf("import links of %s: %w", st.ID, err)
		}
		stats.Links += n
	}

	if err := tx.Commit(); err != nil {
		return ImportStats{}, fmt.Errorf("import: commit: %w", err)
	}
	return stats, nil
}

// CommitAllocation records a bottling allocation atomically:
//   - bottled batches and split originals become inactive
//   - derived consumed and remainder steps are inserted with their links
//   - bottle, when not nil, is inserted with its links
//
// A batch that is no longer active fails the commit with an invariant
// error and nothing is written.
func (s *Store) CommitAllocation(ctx context.Context, alloc *allocation.BottlingAllocation, bottle *domain.ProcessStep) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit allocation: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, b := range alloc.BatchesForBottle {
		if err := deactivate(ctx, tx, b.ID); err != nil {
			return err
		}
	}
	for _, st := range alloc.StepsToSplit {
		if err := deactivate(ctx, tx, st.Batch.ID); err != nil {
			return err
		}
	}

	derived := append(append([]domain.ProcessStep{}, alloc.ConsumedSplitSteps...), alloc.StepsForRemainder...)
	if bottle != nil {
		derived = append(derived, *bottle)
	}
	for _, st := range derived {
		if err := st.Validate(); err != nil {
			return err
		}
		n, err := insertStep(ctx, tx, st)
		if err != nil {
			return fmt.Errorf("commit allocation: insert %s: %w", st.ID, err)
		}
		if n == 0 {
			return domain.NewInvariantError(st.ID, "new process step", "existing process step")
		}
		if _, err := insertLinks(ctx, tx, st.Batch); err != nil {
			return fmt.Errorf("commit allocation: links of %s: %w", st.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit allocation: commit: %w", err)
	}
	return nil
}

func deactivate(ctx context.Context, tx *sql.Tx, batchID string) error {
	res, err := tx.ExecContext(ctx, `UPDATE batches SET active = 0 WHERE id = ? AND active = 1`, batchID)
	if err != nil {
		return fmt.Errorf("deactivate batch %s: %w", batchID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate batch %s: rows affected: %w", batchID, err)
	}
	if n == 0 {
		return domain.NewInvariantError(batchID, "active batch", "inactive or unknown batch")
	}
	return nil
}

func insertUnit(ctx context.Context, q querier, u domain.ProductionUnit) (int, error) {
	var support any
	if u.FinancialSupportReceived != nil {
		support = *u.FinancialSupportReceived
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO production_units
		(id, kind, name, owner, bidding_zone, commissioned_on, financial_support_received, energy_source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		u.ID,
		string(u.Kind),
		u.Name,
		u.Owner,
		u.BiddingZone,
		formatTime(u.CommissionedOn),
		support,
		string(u.EnergySource),
	)
	return affected(res, err)
}

// insertStep inserts a step and its batch. Returns 0 if the step exists.
func insertStep(ctx context.Context, q querier, st domain.ProcessStep) (int, error) {
	var mode, fuel, distance any
	if d := st.TransportationDetails; d != nil {
		mode, fuel, distance = string(d.Mode), string(d.FuelType), d.DistanceKm
	}

	ended := st.EndedAt
	if ended.IsZero() {
		ended = st.StartedAt
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO process_steps
		(id, seq, type, started_at, ended_at, executed_by, transport_mode, distance_km, fuel_type)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM process_steps), ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		st.ID,
		string(st.Type),
		formatTime(st.StartedAt),
		formatTime(ended),
		st.ExecutedBy,
		mode,
		distance,
		fuel,
	)
	n, err := affected(res, err)
	if err != nil || n == 0 {
		return n, err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO batches
		(id, process_step_id, amount, type, active, color, rfnbo, owner)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		st.Batch.ID,
		st.ID,
		st.Batch.Amount,
		string(st.Batch.Type),
		st.Batch.Active,
		string(st.Batch.Quality.Color),
		string(st.Batch.RFNBO),
		st.Batch.Owner,
	)
	if err != nil {
		return 0, fmt.Errorf("insert batch %s: %w", st.Batch.ID, err)
	}
	return 1, nil
}

// insertLinks stores both directions of a batch's references as
// (predecessor, successor) rows. Existing rows keep their amount.
func insertLinks(ctx context.Context, q querier, b domain.Batch) (int, error) {
	total := 0
	insert := func(pred, succ string, amount *float64) error {
		var a any
		if amount != nil {
			a = *amount
		}
		res, err := q.ExecContext(ctx, `
			INSERT INTO batch_links (predecessor_id, successor_id, amount)
			VALUES (?, ?, ?)
			ON CONFLICT(predecessor_id, successor_id) DO UPDATE
			SET amount = COALESCE(batch_links.amount, excluded.amount)
			WHERE batch_links.amount IS NULL AND excluded.amount IS NOT NULL
		`, pred, succ, a)
		n, err := affected(res, err)
		total += n
		return err
	}

	for _, ref := range b.Predecessors {
		if err := insert(ref.ID, b.ID, ref.Amount); err != nil {
			return total, err
		}
	}
	for _, ref := range b.Successors {
		if err := insert(b.ID, ref.ID, ref.Amount); err != nil {
			return total, err
		}
	}
	return total, nil
}

func affected(res sql.Result, err error) (int, error) {
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}
