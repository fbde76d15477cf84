package analyzer

import (
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/dc4ds/internal/constraint"
	dcerrors "github.com/vitebski/dc4ds/internal/errors"
	"github.com/yourbasic/graph"
)

// Schema is the part of a dataset the analyzer needs: column resolution and names
type Schema interface {
	constraint.Table
	ColumnNames() []string
}

// DependencyAnalyzer builds the directed column graph implied by the functional
// dependencies attached to a dataset: an edge determinant -> dependent per CFD column pair
type DependencyAnalyzer struct {
	Columns         []string
	DependencyGraph *graph.Mutable
	Dependencies    map[string][]string
	Logger          *logrus.Logger
}

// NewDependencyAnalyzer creates a new analyzer over the columns of schema
func NewDependencyAnalyzer(schema Schema, logger *logrus.Logger) *DependencyAnalyzer {
	columns := schema.ColumnNames()
	return &DependencyAnalyzer{
		Columns:         columns,
		DependencyGraph: graph.New(len(columns)),
		Dependencies:    make(map[string][]string),
		Logger:          logger,
	}
}

// Analyze adds the edges of every CFD among constraints. Other constraint kinds are skipped.
func (da *DependencyAnalyzer) Analyze(schema Schema, constraints []constraint.Constraint) error {
	for _, c := range constraints {
		cfd, ok := c.(*constraint.ConditionalFunctionalDependency)
		if !ok {
			continue
		}

		for _, det := range cfd.Determinant() {
			src, ok := schema.ColumnIndex(det)
			if !ok {
				return dcerrors.UnknownColumn(det)
			}
			for _, dep := range cfd.Dependent() {
				dst, ok := schema.ColumnIndex(dep)
				if !ok {
					return dcerrors.UnknownColumn(dep)
				}
				if !da.DependencyGraph.Edge(src, dst) {
					da.DependencyGraph.Add(src, dst)
					da.Dependencies[da.Columns[src]] = append(da.Dependencies[da.Columns[src]], da.Columns[dst])
				}
			}
		}
		da.Logger.Debugf("Analyzed dependency %s", cfd.Name())
	}
	return nil
}

// Acyclic reports whether no column transitively determines itself
func (da *DependencyAnalyzer) Acyclic() bool {
	return graph.Acyclic(da.DependencyGraph)
}

// Cycles returns the groups of columns that determine each other, each sorted by column
// position. A cycle among CFDs is legal but usually means a rule was written backwards.
func (da *DependencyAnalyzer) Cycles() [][]string {
	var components [][]int
	for _, component := range graph.StrongComponents(da.DependencyGraph) {
		if len(component) < 2 {
			continue
		}
		sort.Ints(component)
		components = append(components, component)
	}
	sort.Slice(components, func(i, j int) bool {
		return components[i][0] < components[j][0]
	})

	var cycles [][]string
	for _, component := range components {
		names := make([]string, len(component))
		for i, v := range component {
			names[i] = da.Columns[v]
		}
		cycles = append(cycles, names)
	}
	if len(cycles) > 0 {
		da.Logger.Warningf("Found %d cyclic dependency group(s) among constraints", len(cycles))
	}
	return cycles
}

// DerivationOrder returns the columns that take part in a dependency, determinants before
// the columns they determine. ok is false when the dependencies are cyclic.
func (da *DependencyAnalyzer) DerivationOrder() ([]string, bool) {
	order, ok := graph.TopSort(da.DependencyGraph)
	if !ok {
		return nil, false
	}

	involved := make(map[int]bool)
	for v := 0; v < da.DependencyGraph.Order(); v++ {
		da.DependencyGraph.Visit(v, func(w int, _ int64) bool {
			involved[v] = true
			involved[w] = true
			return false
		})
	}

	var names []string
	for _, v := range order {
		if involved[v] {
			names = append(names, da.Columns[v])
		}
	}
	return names, true
}
