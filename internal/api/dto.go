package api

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/starford/specgraph/internal/simulate"
	"github.com/starford/specgraph/internal/specservice"
)

// SimulateRequest is the request body for POST /api/simulate. Exactly one of
// Deltas or Proposal must be set.
type SimulateRequest struct {
	Target   string               `json:"target" example:"base" validate:"required"`
	Deltas   []simulate.DeltaItem `json:"deltas,omitempty"`
	Proposal string               `json:"proposal,omitempty" example:"## REMOVED\n- legacy"`
}

// Validate checks the request shape; the deltas themselves are validated by
// the simulator.
func (r SimulateRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Target, validation.Required),
	)
	if err != nil {
		return err
	}
	switch {
	case len(r.Deltas) == 0 && r.Proposal == "":
		return errors.New("one of deltas or proposal is required")
	case len(r.Deltas) > 0 && r.Proposal != "":
		return errors.New("deltas and proposal are mutually exclusive")
	}
	return nil
}

// GraphResponse is the full dependency graph (aliased from the service layer).
type GraphResponse = specservice.GraphView

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []specservice.SearchHit `json:"results" validate:"required"`
}
