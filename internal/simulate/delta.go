package simulate

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/specgraph/internal/apperr"
	"github.com/starford/specgraph/internal/parser"
)

// ChangeType is the wire name of a delta kind.
type ChangeType string

const (
	ChangeAdded    ChangeType = "ADDED"
	ChangeModified ChangeType = "MODIFIED"
	ChangeRemoved  ChangeType = "REMOVED"
)

// Delta is one hypothetical change. The concrete types are Added, Modified
// and Removed.
type Delta interface {
	SpecID() string
	Kind() ChangeType
	isDelta()
}

// Added introduces a new spec depending on Dependencies.
type Added struct {
	ID           string
	Description  string
	Dependencies []string
}

// Modified adds dependencies to an existing spec. RemoveDependencies is
// carried for reporting only; dependency removal is not simulated.
type Modified struct {
	ID                 string
	Description        string
	AddDependencies    []string
	RemoveDependencies []string
}

// Removed deletes a spec and every edge touching it.
type Removed struct {
	ID          string
	Description string
}

func (d Added) SpecID() string    { return d.ID }
func (d Modified) SpecID() string { return d.ID }
func (d Removed) SpecID() string  { return d.ID }

func (Added) Kind() ChangeType    { return ChangeAdded }
func (Modified) Kind() ChangeType { return ChangeModified }
func (Removed) Kind() ChangeType  { return ChangeRemoved }

func (Added) isDelta()    {}
func (Modified) isDelta() {}
func (Removed) isDelta()  {}

// DeltaItem is the wire form of a Delta as accepted by the HTTP API, the MCP
// tools and the proposal parser.
type DeltaItem struct {
	Type                ChangeType `json:"type"`
	SpecID              string     `json:"spec_id"`
	Description         string     `json:"description,omitempty"`
	NewDependencies     []string   `json:"new_dependencies,omitempty"`
	RemovedDependencies []string   `json:"removed_dependencies,omitempty"`
}

// Validate validates the item. Type is matched case-sensitively; use ToDelta
// to accept any case.
func (d *DeltaItem) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Type, validation.Required, validation.In(ChangeAdded, ChangeModified, ChangeRemoved)),
		validation.Field(&d.SpecID, validation.Required),
	)
}

// ToDelta validates the item and converts it to its Delta variant.
func (d DeltaItem) ToDelta() (Delta, error) {
	d.Type = ChangeType(strings.ToUpper(strings.TrimSpace(string(d.Type))))
	d.SpecID = parser.NormalizeID(d.SpecID)
	if err := d.Validate(); err != nil {
		return nil, apperr.Invalid(fmt.Errorf("delta %q: %w", d.SpecID, err))
	}
	adds := normalizeIDs(d.NewDependencies)
	removes := normalizeIDs(d.RemovedDependencies)
	switch d.Type {
	case ChangeAdded:
		return Added{ID: d.SpecID, Description: d.Description, Dependencies: adds}, nil
	case ChangeModified:
		return Modified{ID: d.SpecID, Description: d.Description, AddDependencies: adds, RemoveDependencies: removes}, nil
	default:
		return Removed{ID: d.SpecID, Description: d.Description}, nil
	}
}

// ToDeltas converts a batch, failing on the first invalid item.
func ToDeltas(items []DeltaItem) ([]Delta, error) {
	out := make([]Delta, 0, len(items))
	for i, it := range items {
		d, err := it.ToDelta()
		if err != nil {
			return nil, fmt.Errorf("deltas[%d]: %w", i, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func normalizeIDs(ids []string) []string {
	var out []string
	for _, id := range ids {
		if id = parser.NormalizeID(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
