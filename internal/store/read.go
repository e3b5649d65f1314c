package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/h2prov/internal/domain"
)

const stepColumns = `
	s.id, s.type, s.started_at, s.ended_at, s.executed_by,
	s.transport_mode, s.distance_km, s.fuel_type,
	b.id, b.amount, b.type, b.active, b.color, b.rfnbo, b.owner
`

// FetchProcessStep returns one step with its batch links.
// Returns a not-found error if the step does not exist.
func (s *Store) FetchProcessStep(ctx context.Context, id string) (domain.ProcessStep, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+stepColumns+`
		FROM process_steps s
		JOIN batches b ON b.process_step_id = s.id
		WHERE s.id = ?
	`, id)

	step, err := scanStep(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ProcessStep{}, domain.NewNotFoundError("process step", id)
	}
	if err != nil {
		return domain.ProcessStep{}, fmt.Errorf("fetch process step: %w", err)
	}

	steps := []domain.ProcessStep{step}
	if err := attachLinks(ctx, s.db, steps); err != nil {
		return domain.ProcessStep{}, err
	}
	return steps[0], nil
}

// FetchProcessStepsForBatches returns the steps owning the referenced
// batches, oldest first. Unknown batch ids are skipped.
func (s *Store) FetchProcessStepsForBatches(ctx context.Context, refs []domain.BatchRef) ([]domain.ProcessStep, error) {
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	return s.stepsByBatchIDs(ctx, s.db, ids)
}

func (s *Store) stepsByBatchIDs(ctx context.Context, q querier, batchIDs []string) ([]domain.ProcessStep, error) {
	steps := []domain.ProcessStep{}
	for _, chunk := range chunks(dedupe(batchIDs)) {
		found, err := querySteps(ctx, q, `
			SELECT `+stepColumns+`
			FROM process_steps s
			JOIN batches b ON b.process_step_id = s.id
			WHERE b.id IN (`+placeholders(len(chunk))+`)
			ORDER BY s.started_at ASC, s.id COLLATE BINARY ASC
		`, stringArgs(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("fetch steps for batches: %w", err)
		}
		steps = append(steps, found...)
	}
	sortByStart(steps)
	if err := attachLinks(ctx, q, steps); err != nil {
		return nil, err
	}
	return steps, nil
}

// ActiveInventory returns the active hydrogen held by a storage unit,
// oldest first.
func (s *Store) ActiveInventory(ctx context.Context, storageUnitID string) ([]domain.ProcessStep, error) {
	steps, err := querySteps(ctx, s.db, `
		SELECT `+stepColumns+`
		FROM process_steps s
		JOIN batches b ON b.process_step_id = s.id
		WHERE s.executed_by = ?
		  AND s.type = ?
		  AND b.type = ?
		  AND b.active = 1
		ORDER BY s.started_at ASC, s.seq ASC
	`, storageUnitID, string(domain.HydrogenStorage), string(domain.BatchTypeHydrogen))
	if err != nil {
		return nil, fmt.Errorf("active inventory: %w", err)
	}
	if err := attachLinks(ctx, s.db, steps); err != nil {
		return nil, err
	}
	return steps, nil
}

// FetchHydrogenComposition returns the hydrogen classes a step holds.
// A step with hydrogen predecessors is composed of what flowed in along
// its links; otherwise it is composed of its own batch.
func (s *Store) FetchHydrogenComposition(ctx context.Context, processStepID string) ([]domain.HydrogenComponent, error) {
	step, err := s.FetchProcessStep(ctx, processStepID)
	if err != nil {
		return nil, err
	}
	if step.Batch.Type != domain.BatchTypeHydrogen {
		return nil, domain.NewValidationError(
			fmt.Sprintf("%s step has no hydrogen composition", step.Type), processStepID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.rfnbo, SUM(COALESCE(l.amount, p.amount))
		FROM batch_links l
		JOIN batches p ON p.id = l.predecessor_id
		WHERE l.successor_id = ? AND p.type = ?
		GROUP BY p.rfnbo
		ORDER BY p.rfnbo ASC
	`, step.Batch.ID, string(domain.BatchTypeHydrogen))
	if err != nil {
		return nil, fmt.Errorf("query composition: %w", err)
	}
	defer rows.Close()

	components := []domain.HydrogenComponent{}
	for rows.Next() {
		var c domain.HydrogenComponent
		var rfnbo string
		if err := rows.Scan(&rfnbo, &c.Amount); err != nil {
			return nil, fmt.Errorf("scan composition: %w", err)
		}
		c.RFNBO = domain.RFNBO(rfnbo)
		components = append(components, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate composition: %w", err)
	}

	if len(components) == 0 {
		components = append(components, domain.HydrogenComponent{RFNBO: step.Batch.RFNBO, Amount: step.Batch.Amount})
	}
	return components, nil
}

// FetchProductionUnitsByIDs returns the units of kind among ids, ordered by id.
func (s *Store) FetchProductionUnitsByIDs(ctx context.Context, ids []string, kind domain.UnitKind) ([]domain.ProductionUnit, error) {
	units := []domain.ProductionUnit{}
	for _, chunk := range chunks(dedupe(ids)) {
		args := append([]any{string(kind)}, stringArgs(chunk)...)
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, kind, name, owner, bidding_zone, commissioned_on,
			       financial_support_received, energy_source
			FROM production_units
			WHERE kind = ? AND id IN (`+placeholders(len(chunk))+`)
			ORDER BY id COLLATE BINARY ASC
		`, args...)
		if err != nil {
			return nil, fmt.Errorf("query production units: %w", err)
		}
		found, err := scanUnits(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, found...)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })
	return units, nil
}

func scanUnits(rows *sql.Rows) ([]domain.ProductionUnit, error) {
	defer rows.Close()

	var units []domain.ProductionUnit
	for rows.Next() {
		var u domain.ProductionUnit
		var kind, commissioned, source string
		var support sql.NullBool
		if err := rows.Scan(&u.ID, &kind, &u.Name, &u.Owner, &u.BiddingZone,
			&commissioned, &support, &source); err != nil {
			return nil, fmt.Errorf("scan production unit: %w", err)
		}
		t, err := parseTime(commissioned)
		if err != nil {
			return nil, err
		}
		u.Kind = domain.UnitKind(kind)
		u.CommissionedOn = t
		u.EnergySource = domain.EnergySource(source)
		if support.Valid {
			v := support.Bool
			u.FinancialSupportReceived = &v
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate production units: %w", err)
	}
	return units, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanStep(row scanner) (domain.ProcessStep, error) {
	var step domain.ProcessStep
	var stepType, started, ended, batchType, color, rfnbo string
	var mode, fuel sql.NullString
	var distance sql.NullFloat64

	if err := row.Scan(
		&step.ID, &stepType, &started, &ended, &step.ExecutedBy,
		&mode, &distance, &fuel,
		&step.Batch.ID, &step.Batch.Amount, &batchType, &step.Batch.Active,
		&color, &rfnbo, &step.Batch.Owner,
	); err != nil {
		return domain.ProcessStep{}, err
	}

	var err error
	if step.StartedAt, err = parseTime(started); err != nil {
		return domain.ProcessStep{}, err
	}
	if step.EndedAt, err = parseTime(ended); err != nil {
		return domain.ProcessStep{}, err
	}
	step.Type = domain.ProcessStepType(stepType)
	step.Batch.Type = domain.BatchType(batchType)
	step.Batch.Quality.Color = domain.HydrogenColor(color)
	step.Batch.RFNBO = domain.RFNBO(rfnbo)
	step.Batch.Predecessors = []domain.BatchRef{}
	step.Batch.Successors = []domain.BatchRef{}
	if mode.Valid {
		step.TransportationDetails = &domain.TransportationDetails{
			Mode:       domain.TransportMode(mode.String),
			DistanceKm: distance.Float64,
			FuelType:   domain.FuelType(fuel.String),
		}
	}
	return step, nil
}

func querySteps(ctx context.Context, q querier, query string, args ...any) ([]domain.ProcessStep, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query process steps: %w", err)
	}
	defer rows.Close()

	steps := []domain.ProcessStep{}
	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("scan process step: %w", err)
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate process steps: %w", err)
	}
	return steps, nil
}

// attachLinks fills the predecessor and successor refs of each step's batch.
func attachLinks(ctx context.Context, q querier, steps []domain.ProcessStep) error {
	if len(steps) == 0 {
		return nil
	}
	index := make(map[string]int, len(steps))
	ids := make([]string, 0, len(steps))
	for i, st := range steps {
		index[st.Batch.ID] = i
		ids = append(ids, st.Batch.ID)
	}

	for _, chunk := range chunks(ids) {
		args := stringArgs(chunk)
		in := placeholders(len(chunk))

		err := forEachLink(ctx, q, `
			SELECT successor_id, predecessor_id, amount FROM batch_links
			WHERE successor_id IN (`+in+`)
			ORDER BY successor_id COLLATE BINARY ASC, predecessor_id COLLATE BINARY ASC
		`, args, func(owner string, ref domain.BatchRef) {
			b := &steps[index[owner]].Batch
			b.Predecessors = append(b.Predecessors, ref)
		})
		if err != nil {
			return fmt.Errorf("load predecessors: %w", err)
		}

		err = forEachLink(ctx, q, `
			SELECT predecessor_id, successor_id, amount FROM batch_links
			WHERE predecessor_id IN (`+in+`)
			ORDER BY predecessor_id COLLATE BINARY ASC, successor_id COLLATE BINARY ASC
		`, args, func(owner string, ref domain.BatchRef) {
			b := &steps[index[owner]].Batch
			b.Successors = append(b.Successors, ref)
		})
		if err != nil {
			return fmt.Errorf("load successors: %w", err)
		}
	}
	return nil
}

func forEachLink(ctx context.Context, q querier, query string, args []any, fn func(owner string, ref domain.BatchRef)) error {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var owner, other string
		var amount sql.NullFloat64
		if err := rows.Scan(&owner, &other, &amount); err != nil {
			return err
		}
		ref := domain.BatchRef{ID: other}
		if amount.Valid {
			v := amount.Float64
			ref.Amount = &v
		}
		fn(owner, ref)
	}
	return rows.Err()
}

// sortByStart orders steps merged from several chunks like a single query would.
func sortByStart(steps []domain.ProcessStep) {
	sort.SliceStable(steps, func(i, j int) bool {
		if !steps[i].StartedAt.Equal(steps[j].StartedAt) {
			return steps[i].StartedAt.Before(steps[j].StartedAt)
		}
		return steps[i].ID < steps[j].ID
	})
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
