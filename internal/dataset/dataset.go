// Package dataset loads provenance records from YAML (or JSON) files.
//
// A dataset lists production units, process steps and, optionally, batch
// links stated once instead of on both batches:
//
//	units:
//	  - id: pu-power
//	    kind: POWER
//	    bidding_zone: DE-LU
//	    commissioned_on: 2023-01-01T00:00:00Z
//	steps:
//	  - id: ps-power
//	    type: POWER_PRODUCTION
//	    ...
//	links:
//	  - from: b-ps-power
//	    to: b-ps-h2
//	    amount: 100
package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/h2prov/internal/domain"
)

// Dataset is a self-contained set of provenance records.
type Dataset struct {
	Units []domain.ProductionUnit `yaml:"units"`
	Steps []domain.ProcessStep    `yaml:"steps"`
	Links []Link                  `yaml:"links,omitempty"`
}

// Link records that the batch To consumed Amount of the batch From.
// A missing amount leaves the contribution unknown.
type Link struct {
	From   string   `yaml:"from"`
	To     string   `yaml:"to"`
	Amount *float64 `yaml:"amount,omitempty"`
}

// Load reads and parses a dataset file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields, or fails validation.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}
	ds, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Parse decodes and validates a dataset. Links are folded into the
// batches they connect.
func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&ds); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	ds.normalize()
	if err := ds.validate(); err != nil {
		return nil, err
	}
	ds.applyLinks()
	return &ds, nil
}

func (ds *Dataset) normalize() {
	if ds.Units == nil {
		ds.Units = []domain.ProductionUnit{}
	}
	if ds.Steps == nil {
		ds.Steps = []domain.ProcessStep{}
	}
	for i := range ds.Units {
		u := &ds.Units[i]
		u.ID = domain.NormalizeID(u.ID)
		u.BiddingZone = domain.NormalizeZone(u.BiddingZone)
	}
	for i := range ds.Steps {
		st := &ds.Steps[i]
		st.ID = domain.NormalizeID(st.ID)
		st.ExecutedBy = domain.NormalizeID(st.ExecutedBy)
		st.Batch.ID = domain.NormalizeID(st.Batch.ID)
		if st.Batch.Type == "" {
			st.Batch.Type = st.Type.BatchType()
		}
		st.Batch.Predecessors = normalizeRefs(st.Batch.Predecessors)
		st.Batch.Successors = normalizeRefs(st.Batch.Successors)
	}
	for i := range ds.Links {
		ds.Links[i].From = domain.NormalizeID(ds.Links[i].From)
		ds.Links[i].To = domain.NormalizeID(ds.Links[i].To)
	}
}

func normalizeRefs(refs []domain.BatchRef) []domain.BatchRef {
	out := make([]domain.BatchRef, 0, len(refs))
	for _, r := range refs {
		r.ID = domain.NormalizeID(r.ID)
		out = append(out, r)
	}
	return out
}

func (ds *Dataset) validate() error {
	units := make(map[string]bool, len(ds.Units))
	for _, u := range ds.Units {
		if u.ID == "" {
			return domain.NewValidationError("production unit id is required")
		}
		if units[u.ID] {
			return domain.NewValidationError("duplicate production unit", u.ID)
		}
		units[u.ID] = true
		switch u.Kind {
		case domain.UnitKindPower, domain.UnitKindHydrogen, domain.UnitKindStorage:
		default:
			return domain.NewValidationError(fmt.Sprintf("unknown production unit kind %q", u.Kind), u.ID)
		}
	}

	steps := make(map[string]bool, len(ds.Steps))
	batches := make(map[string]bool, len(ds.Steps))
	for _, st := range ds.Steps {
		if err := st.Validate(); err != nil {
			return err
		}
		if steps[st.ID] {
			return domain.NewValidationError("duplicate process step", st.ID)
		}
		steps[st.ID] = true
		if st.Batch.ID == "" {
			return domain.NewValidationError("batch id is required", st.ID)
		}
		if batches[st.Batch.ID] {
			return domain.NewValidationError("duplicate batch", st.Batch.ID)
		}
		batches[st.Batch.ID] = true
	}

	for _, l := range ds.Links {
		for _, id := range []string{l.From, l.To} {
			if !batches[id] {
				return domain.NewValidationError("link references unknown batch", id)
			}
		}
		if l.From == l.To {
			return domain.NewValidationError("batch linked to itself", l.From)
		}
		if l.Amount != nil && *l.Amount < 0 {
			return domain.NewValidationError(
				fmt.Sprintf("link amount must be non-negative, got %g", *l.Amount), l.From, l.To)
		}
	}
	return nil
}

// applyLinks adds each link to both batches unless the batch already
// states it.
func (ds *Dataset) applyLinks() {
	index := make(map[string]int, len(ds.Steps))
	for i, st := range ds.Steps {
		index[st.Batch.ID] = i
	}
	for _, l := range ds.Links {
		pred := &ds.Steps[index[l.From]].Batch
		succ := &ds.Steps[index[l.To]].Batch
		pred.Successors = addRef(pred.Successors, l.To, l.Amount)
		succ.Predecessors = addRef(succ.Predecessors, l.From, l.Amount)
	}
}

func addRef(refs []domain.BatchRef, id string, amount *float64) []domain.BatchRef {
	for i, r := range refs {
		if r.ID == id {
			if r.Amount == nil {
				refs[i].Amount = amount
			}
			return refs
		}
	}
	return append(refs, domain.BatchRef{ID: id, Amount: amount})
}

// UnitIDs returns the ids of the dataset's units of kind.
func (ds *Dataset) UnitIDs(kind domain.UnitKind) []string {
	ids := []string{}
	for _, u := range ds.Units {
		if u.Kind == kind {
			ids = append(ids, u.ID)
		}
	}
	return ids
}
