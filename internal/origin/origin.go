// Package origin builds the proof-of-origin document of a process step:
// every batch in its provenance, grouped by step type and classification.
package origin

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/roach88/h2prov/internal/domain"
	"github.com/roach88/h2prov/internal/provgraph"
	"github.com/roach88/h2prov/internal/source"
)

// ClassWater is the single classification of water batches.
const ClassWater = "WATER"

// ClassUnspecified labels hydrogen batches without an RFNBO class.
const ClassUnspecified = "UNSPECIFIED"

// BatchEntry is one batch in the document.
type BatchEntry struct {
	BatchID       string               `json:"batch_id"`
	ProcessStepID string               `json:"process_step_id"`
	Amount        float64              `json:"amount"`
	StartedAt     time.Time            `json:"started_at"`
	ExecutedBy    string               `json:"executed_by"`
	Owner         string               `json:"owner"`
	Color         domain.HydrogenColor `json:"color,omitempty"`
}

// Classification groups batches of one class within a section.
type Classification struct {
	Name    string       `json:"name"`
	Amount  float64      `json:"amount"`
	Unit    string       `json:"unit"`
	Batches []BatchEntry `json:"batches"`
}

// Section groups the batches of one step type.
type Section struct {
	ProcessStepType domain.ProcessStepType `json:"process_step_type"`
	Amount          float64                `json:"amount"`
	Unit            string                 `json:"unit"`
	Classifications []Classification       `json:"classifications"`
}

// Document is the proof of origin of a root step.
type Document struct {
	RootProcessStepID string    `json:"root_process_step_id"`
	Sections          []Section `json:"sections"`
}

// Builder assembles documents, reading power units to classify power batches.
type Builder struct {
	units   source.UnitFetcher
	limits  source.Limits
	findAll provgraph.Options
}

// NewBuilder returns a Builder.
func NewBuilder(units source.UnitFetcher, limits source.Limits, findAll provgraph.Options) *Builder {
	return &Builder{units: units, limits: limits, findAll: findAll}
}

// Build returns the document for rootID, covering the root and every step
// upstream of it.
func (b *Builder) Build(ctx context.Context, g *provgraph.Graph, rootID string) (*Document, error) {
	root, ok := g.Node(rootID)
	if !ok {
		return nil, domain.NewNotFoundError("process step", rootID)
	}
	nodes := g.Slice(root, provgraph.Upstream, b.findAll)

	var powerUnitIDs []string
	for _, n := range nodes {
		if n.Type() == domain.PowerProduction {
			powerUnitIDs = append(powerUnitIDs, n.Step.ExecutedBy)
		}
	}
	units := map[string]domain.ProductionUnit{}
	if len(powerUnitIDs) > 0 {
		var err error
		units, err = source.FetchUnits(ctx, b.units, powerUnitIDs, domain.UnitKindPower, b.limits)
		if err != nil {
			return nil, fmt.Errorf("proof of origin for %s: %w", rootID, err)
		}
	}

	// A split step is represented by the portions taken from it.
	splitOff := map[*provgraph.Node]bool{}
	for _, n := range nodes {
		if parent, ok := n.SplitParent(); ok {
			splitOff[parent] = true
		}
	}

	grouped := map[domain.ProcessStepType]map[string][]BatchEntry{}
	for _, n := range nodes {
		if splitOff[n] {
			continue
		}
		class, err := classify(n.Step, units)
		if err != nil {
			return nil, fmt.Errorf("proof of origin for %s: %w", rootID, err)
		}
		if grouped[n.Type()] == nil {
			grouped[n.Type()] = map[string][]BatchEntry{}
		}
		grouped[n.Type()][class] = append(grouped[n.Type()][class], entry(n.Step))
	}

	doc := &Document{RootProcessStepID: rootID, Sections: []Section{}}
	for _, t := range domain.ProcessStepTypes {
		classes, ok := grouped[t]
		if !ok {
			continue
		}
		doc.Sections = append(doc.Sections, section(t, classes))
	}
	return doc, nil
}

func classify(step domain.ProcessStep, units map[string]domain.ProductionUnit) (string, error) {
	switch step.Batch.Kind().(type) {
	case domain.PowerBatch:
		u, ok := units[step.ExecutedBy]
		if !ok {
			return "", domain.NewNotFoundError("power production unit", step.ExecutedBy)
		}
		return string(u.EnergySource), nil
	case domain.WaterBatch:
		return ClassWater, nil
	case domain.HydrogenBatch:
		if step.Batch.RFNBO == "" {
			return ClassUnspecified, nil
		}
		return string(step.Batch.RFNBO), nil
	default:
		return "", domain.NewValidationError(
			fmt.Sprintf("unknown batch type %q", step.Batch.Type), step.ID)
	}
}

func entry(step domain.ProcessStep) BatchEntry {
	return BatchEntry{
		BatchID:       step.Batch.ID,
		ProcessStepID: step.ID,
		Amount:        step.Batch.Amount,
		StartedAt:     step.StartedAt,
		ExecutedBy:    step.ExecutedBy,
		Owner:         step.Batch.Owner,
		Color:         step.Batch.Quality.Color,
	}
}

func section(t domain.ProcessStepType, classes map[string][]BatchEntry) Section {
	unit := domain.UnitOf(t.BatchType())
	names := make([]string, 0, len(classes))
	for name := range classes {
		names = append(names, name)
	}
	sort.Strings(names)

	s := Section{ProcessStepType: t, Unit: unit, Classifications: make([]Classification, 0, len(names))}
	for _, name := range names {
		batches := classes[name]
		sort.SliceStable(batches, func(i, j int) bool {
			if !batches[i].StartedAt.Equal(batches[j].StartedAt) {
				return batches[i].StartedAt.Before(batches[j].StartedAt)
			}
			return batches[i].BatchID < batches[j].BatchID
		})
		c := Classification{Name: name, Unit: unit, Batches: batches}
		for _, b := range batches {
			c.Amount += b.Amount
		}
		s.Amount += c.Amount
		s.Classifications = append(s.Classifications, c)
	}
	return s
}
