package optimizer

import (
	"github.com/samber/lo"

	"github.com/schoolgrid/timetable/internal/constraint"
	"github.com/schoolgrid/timetable/pkg/model"
)

// dependencyGraph links violations that share a teacher or a class. It is
// advisory: repairs consult it to explain likely side-effects, correctness
// never depends on it.
type dependencyGraph struct {
	adjacency [][]int
}

func buildDependencyGraph(violations []constraint.Violation) *dependencyGraph {
	graph := &dependencyGraph{adjacency: make([][]int, len(violations))}
	for i := 0; i < len(violations); i++ {
		for j := i + 1; j < len(violations); j++ {
			if related(violations[i], violations[j]) {
				graph.adjacency[i] = append(graph.adjacency[i], j)
				graph.adjacency[j] = append(graph.adjacency[j], i)
			}
		}
	}
	return graph
}

// degree counts the violations whose repair may interact with this one.
func (g *dependencyGraph) degree(index int) int {
	return len(g.adjacency[index])
}

func related(a, b constraint.Violation) bool {
	if a.Teacher != "" && a.Teacher == b.Teacher {
		return true
	}
	return lo.SomeBy(a.Classes, func(class model.ClassRef) bool {
		return lo.Contains(b.Classes, class)
	})
}
