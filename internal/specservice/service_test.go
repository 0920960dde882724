package specservice

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/starford/specgraph/internal/apperr"
	"github.com/starford/specgraph/internal/simulate"
	"github.com/starford/specgraph/internal/testutil"
)

func newService(t *testing.T, withIndex bool) (string, *Service) {
	t.Helper()
	specs := map[string]string{"base": testutil.Depends("Base")}
	for _, f := range []string{"feature1", "feature2", "feature3", "feature4", "feature5"} {
		specs[f] = testutil.Depends("Feature "+f, "base")
	}
	root, store := testutil.SpecTree(t, specs)
	if !withIndex {
		return root, New(store, nil, Options{})
	}
	return root, New(store, testutil.TestDB(t), Options{})
}

func TestService_Impact(t *testing.T) {
	_, svc := newService(t, false)
	res, err := svc.Impact(context.Background(), "base")
	if err != nil {
		t.Fatalf("Impact: %v", err)
	}
	if len(res.AffectedBy) != 5 || res.RiskScore < 7 {
		t.Errorf("affectedBy=%d score=%d", len(res.AffectedBy), res.RiskScore)
	}

	_, err = svc.Impact(context.Background(), "nope")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	_, err = svc.Impact(context.Background(), " ")
	if !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}

func TestService_GraphBuiltFreshPerCall(t *testing.T) {
	root, svc := newService(t, false)
	view, err := svc.Graph(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Nodes) != 6 || len(view.Edges) != 5 {
		t.Fatalf("nodes=%d edges=%d", len(view.Nodes), len(view.Edges))
	}

	testutil.WriteSpec(t, root, "feature6", testutil.Depends("Feature 6", "base"))
	view, err = svc.Graph(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Nodes) != 7 {
		t.Errorf("nodes = %d after adding a spec, want 7", len(view.Nodes))
	}
}

func TestService_SimulateProposal(t *testing.T) {
	_, svc := newService(t, false)
	res, err := svc.SimulateProposal(context.Background(), "base", "## REMOVED\n- feature1\n")
	if err != nil {
		t.Fatalf("SimulateProposal: %v", err)
	}
	if res.Projected.TotalSpecs != 5 || !slices.Equal(res.Changes.Removed, []string{"feature1"}) {
		t.Errorf("result = %+v", res)
	}

	_, err = svc.Simulate(context.Background(), "base", []simulate.DeltaItem{{Type: "BOGUS", SpecID: "x"}})
	if !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}

func TestService_ReportAndCycles(t *testing.T) {
	_, svc := newService(t, false)
	rep, err := svc.Report(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.TotalNodes != 6 || rep.MostConnected[0].ID != "base" {
		t.Errorf("report = %+v", rep)
	}
	cycles, err := svc.Cycles(context.Background())
	if err != nil || len(cycles) != 0 {
		t.Errorf("cycles = %v, %v", cycles, err)
	}
}

func TestService_Search(t *testing.T) {
	_, svc := newService(t, true)
	hits, err := svc.Search(context.Background(), "Base", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	var base *SearchHit
	for i := range hits {
		if hits[i].ID == "base" {
			base = &hits[i]
		}
	}
	if base == nil {
		t.Fatalf("hits = %+v, want base", hits)
	}
	if len(base.Referrers) != 5 {
		t.Errorf("referrers = %v, want 5", base.Referrers)
	}
}

func TestService_SearchDisabled(t *testing.T) {
	_, svc := newService(t, false)
	if _, err := svc.Search(context.Background(), "x", 10); !errors.Is(err, ErrSearchDisabled) {
		t.Errorf("err = %v, want ErrSearchDisabled", err)
	}
}
