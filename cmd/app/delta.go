package main

import (
	"fmt"
	"strings"

	"github.com/starford/specgraph/internal/apperr"
	"github.com/starford/specgraph/internal/simulate"
)

// parseDeltaFlags turns --delta values of the form TYPE:id[:dep,dep] into
// wire-form deltas. For MODIFIED the dependency list is added.
func parseDeltaFlags(values []string) ([]simulate.DeltaItem, error) {
	items := make([]simulate.DeltaItem, 0, len(values))
	for _, v := range values {
		parts := strings.SplitN(v, ":", 3)
		if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
			return nil, apperr.Invalid(fmt.Errorf("delta %q: want TYPE:id[:dep,dep]", v))
		}
		item := simulate.DeltaItem{
			Type:   simulate.ChangeType(strings.ToUpper(strings.TrimSpace(parts[0]))),
			SpecID: strings.TrimSpace(parts[1]),
		}
		if len(parts) == 3 {
			for _, dep := range strings.Split(parts[2], ",") {
				if dep = strings.TrimSpace(dep); dep != "" {
					item.NewDependencies = append(item.NewDependencies, dep)
				}
			}
		}
		items = append(items, item)
	}
	return items, nil
}
