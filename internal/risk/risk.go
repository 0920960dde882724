// Package risk turns a set of affected specs into a bounded risk score.
package risk

import (
	"math"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/specgraph/internal/graph"
	"github.com/starford/specgraph/internal/models"
)

const (
	MinScore = 1
	MaxScore = 10
)

// Policy is the tunable weight table behind Score. LowMax and MediumMax are
// the inclusive upper bounds of the low and medium bands.
type Policy struct {
	DirectHigh   float64 `yaml:"direct_high" toml:"direct_high"`
	DirectMedium float64 `yaml:"direct_medium" toml:"direct_medium"`
	DirectLow    float64 `yaml:"direct_low" toml:"direct_low"`
	Transitive   float64 `yaml:"transitive" toml:"transitive"`
	APIBonus     float64 `yaml:"api_bonus" toml:"api_bonus"`
	DataBonus    float64 `yaml:"data_bonus" toml:"data_bonus"`
	LowMax       int     `yaml:"low_max" toml:"low_max"`
	MediumMax    int     `yaml:"medium_max" toml:"medium_max"`
}

// DefaultPolicy returns weights under which a single high-impact direct
// dependent lands in the medium band on its own.
func DefaultPolicy() Policy {
	return Policy{
		DirectHigh:   4,
		DirectMedium: 2,
		DirectLow:    0.5,
		Transitive:   0.3,
		APIBonus:     2,
		DataBonus:    1,
		LowMax:       3,
		MediumMax:    6,
	}
}

// Validate validates the policy.
func (p *Policy) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.DirectHigh, validation.Min(0.0)),
		validation.Field(&p.DirectMedium, validation.Min(0.0), validation.Max(p.DirectHigh)),
		validation.Field(&p.DirectLow, validation.Min(0.0), validation.Max(p.DirectMedium)),
		validation.Field(&p.Transitive, validation.Min(0.0)),
		validation.Field(&p.APIBonus, validation.Min(0.0)),
		validation.Field(&p.DataBonus, validation.Min(0.0)),
		validation.Field(&p.LowMax, validation.Min(0), validation.Max(MaxScore)),
		validation.Field(&p.MediumMax, validation.Min(p.LowMax), validation.Max(MaxScore)),
	)
}

// Level maps a score to its band.
func (p Policy) Level(score int) models.Level {
	switch {
	case score <= p.LowMax:
		return models.LevelLow
	case score <= p.MediumMax:
		return models.LevelMedium
	default:
		return models.LevelHigh
	}
}

// Factor is one named contribution to a score.
type Factor struct {
	Name   string  `json:"name"`
	Count  int     `json:"count"`
	Weight float64 `json:"weight"`
	Value  float64 `json:"value"`
}

// Assessment is the result of scoring an affected set.
type Assessment struct {
	Score   int          `json:"score"`
	Level   models.Level `json:"level"`
	Factors []Factor     `json:"factors,omitempty"`
}

// Scorer applies a Policy.
type Scorer struct {
	policy Policy
}

// NewScorer creates a scorer for the given policy.
func NewScorer(p Policy) *Scorer {
	return &Scorer{policy: p}
}

// Policy returns the scorer's weight table.
func (s *Scorer) Policy() Policy { return s.policy }

// Score weighs direct dependents by level and transitive ones by count, adds
// flat bonuses for api and data edges, and clamps to [MinScore, MaxScore].
// An empty affected set scores 0.
func (s *Scorer) Score(direct, transitive []models.AffectedSpec) Assessment {
	if len(direct) == 0 && len(transitive) == 0 {
		return Assessment{Score: 0, Level: models.LevelLow}
	}
	p := s.policy

	var high, medium, low int
	for _, a := range direct {
		switch a.Level {
		case models.LevelHigh:
			high++
		case models.LevelMedium:
			medium++
		default:
			low++
		}
	}
	directKinds, transitiveKinds := edgeKinds(direct), edgeKinds(transitive)
	api := directKinds[graph.API] || transitiveKinds[graph.API]
	data := directKinds[graph.Data] || transitiveKinds[graph.Data]

	factors := []Factor{
		{Name: "direct_high", Count: high, Weight: p.DirectHigh, Value: float64(high) * p.DirectHigh},
		{Name: "direct_medium", Count: medium, Weight: p.DirectMedium, Value: float64(medium) * p.DirectMedium},
		{Name: "direct_low", Count: low, Weight: p.DirectLow, Value: float64(low) * p.DirectLow},
		{Name: "transitive", Count: len(transitive), Weight: p.Transitive, Value: float64(len(transitive)) * p.Transitive},
	}
	if api {
		factors = append(factors, Factor{Name: "api_bonus", Count: 1, Weight: p.APIBonus, Value: p.APIBonus})
	}
	if data {
		factors = append(factors, Factor{Name: "data_bonus", Count: 1, Weight: p.DataBonus, Value: p.DataBonus})
	}

	var total float64
	kept := factors[:0]
	for _, f := range factors {
		total += f.Value
		if f.Count > 0 {
			kept = append(kept, f)
		}
	}

	score := clamp(int(math.Round(total)), MinScore, MaxScore)
	return Assessment{Score: score, Level: p.Level(score), Factors: kept}
}

func edgeKinds(specs []models.AffectedSpec) map[graph.EdgeType]bool {
	out := make(map[graph.EdgeType]bool, 4)
	for _, a := range specs {
		out[a.Type] = true
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
