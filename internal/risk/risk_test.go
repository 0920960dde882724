package risk

import (
	"testing"

	"github.com/starford/specgraph/internal/graph"
	"github.com/starford/specgraph/internal/models"
)

func spec(id string, level models.Level, typ graph.EdgeType) models.AffectedSpec {
	return models.AffectedSpec{ID: id, Level: level, Type: typ}
}

func TestScore_EmptyIsZero(t *testing.T) {
	a := NewScorer(DefaultPolicy()).Score(nil, nil)
	if a.Score != 0 || a.Level != models.LevelLow {
		t.Errorf("empty assessment = %+v, want 0/low", a)
	}
}

func TestScore_SingleHighDependentIsMedium(t *testing.T) {
	a := NewScorer(DefaultPolicy()).Score([]models.AffectedSpec{spec("x", models.LevelHigh, graph.Explicit)}, nil)
	if a.Level != models.LevelMedium {
		t.Errorf("level = %s (score %d), want medium", a.Level, a.Score)
	}
}

func TestScore_ClampedToTen(t *testing.T) {
	var direct []models.AffectedSpec
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		direct = append(direct, spec(id, models.LevelHigh, graph.Explicit))
	}
	a := NewScorer(DefaultPolicy()).Score(direct, nil)
	if a.Score != MaxScore || a.Level != models.LevelHigh {
		t.Errorf("assessment = %+v, want 10/high", a)
	}
}

func TestScore_LowestNonEmptyIsOne(t *testing.T) {
	a := NewScorer(DefaultPolicy()).Score(nil, []models.AffectedSpec{spec("t", models.LevelMedium, graph.Reference)})
	if a.Score != MinScore {
		t.Errorf("score = %d, want %d", a.Score, MinScore)
	}
}

func TestScore_Bonuses(t *testing.T) {
	s := NewScorer(DefaultPolicy())
	plain := s.Score([]models.AffectedSpec{spec("a", models.LevelLow, graph.Reference)}, nil)
	withAPI := s.Score([]models.AffectedSpec{spec("a", models.LevelHigh, graph.API)}, nil)
	withData := s.Score([]models.AffectedSpec{spec("a", models.LevelMedium, graph.Data)}, nil)

	if plain.Score != 1 {
		t.Errorf("plain = %d, want 1", plain.Score)
	}
	if withAPI.Score != 6 {
		t.Errorf("api = %d, want 6", withAPI.Score)
	}
	if withData.Score != 3 {
		t.Errorf("data = %d, want 3", withData.Score)
	}

	var names []string
	for _, f := range withAPI.Factors {
		names = append(names, f.Name)
	}
	if len(names) != 2 || names[0] != "direct_high" || names[1] != "api_bonus" {
		t.Errorf("factors = %v", names)
	}
}

func TestScore_Monotonic(t *testing.T) {
	s := NewScorer(DefaultPolicy())
	var direct []models.AffectedSpec
	transitive := []models.AffectedSpec{spec("t1", models.LevelMedium, graph.Explicit), spec("t2", models.LevelLow, graph.Data)}
	prev := s.Score(direct, transitive).Score
	for i := 0; i < 6; i++ {
		direct = append(direct, spec(string(rune('a'+i)), models.LevelHigh, graph.Explicit))
		got := s.Score(direct, transitive).Score
		if got < prev {
			t.Fatalf("adding high dependent %d decreased score %d -> %d", i, prev, got)
		}
		prev = got
	}
}

func TestPolicy_LevelBands(t *testing.T) {
	p := DefaultPolicy()
	want := map[int]models.Level{0: models.LevelLow, 3: models.LevelLow, 4: models.LevelMedium, 6: models.LevelMedium, 7: models.LevelHigh, 10: models.LevelHigh}
	for score, level := range want {
		if got := p.Level(score); got != level {
			t.Errorf("Level(%d) = %s, want %s", score, got, level)
		}
	}
}

func TestPolicy_Validate(t *testing.T) {
	p := DefaultPolicy()
	if err := p.Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}

	bad := DefaultPolicy()
	bad.MediumMax = 2
	if err := bad.Validate(); err == nil {
		t.Error("medium_max below low_max should fail")
	}

	bad = DefaultPolicy()
	bad.Transitive = -1
	if err := bad.Validate(); err == nil {
		t.Error("negative weight should fail")
	}
}
