// Package depsort orders tables by foreign-key dependency using Kahn's
// algorithm, so CREATE TABLE statements never reference a table that has
// not yet been created, and DROP TABLE statements run in the reverse order.
package depsort

import (
	"sort"

	"github.com/sqlxlate/sqlxlate/internal/diagnostics"
	"github.com/sqlxlate/sqlxlate/internal/schema/model"
)

// Warning records a non-fatal condition found while sorting (an unknown
// table reference, or a self-referencing foreign key).
type Warning struct {
	Table   string
	Message string
}

// Result is the outcome of sorting a schema's tables by dependency.
type Result struct {
	// Order lists table names in create order: a table never precedes one
	// it depends on.
	Order []string
	// Levels maps table name to its dependency depth (0 = no dependencies),
	// the longest path from any root in the FK DAG. Used for grouped
	// rendering.
	Levels map[string]int
}

// Sort computes a topological order for create statements. Ties (tables
// with no remaining dependency relationship to each other) are broken by
// original parse order, making output deterministic and stable across runs
// for the same input.
func Sort(schema *model.Schema) (Result, []Warning, error) {
	indegree := make(map[string]int, len(schema.TableOrder))
	// adjacency[t] lists tables that depend on t (edges t -> dependant).
	adjacency := make(map[string][]string, len(schema.TableOrder))
	position := make(map[string]int, len(schema.TableOrder))
	var warnings []Warning

	for i, name := range schema.TableOrder {
		indegree[name] = 0
		position[name] = i
	}

	for _, name := range schema.TableOrder {
		table := schema.Tables[name]
		seen := map[string]bool{}
		for _, fk := range table.ForeignKeys() {
			if fk.ReferencedTable == "" {
				continue
			}
			if fk.ReferencedTable == name {
				warnings = append(warnings, Warning{Table: name, Message: "self-referencing foreign key ignored for ordering"})
				continue
			}
			if _, ok := schema.Tables[fk.ReferencedTable]; !ok {
				warnings = append(warnings, Warning{Table: name, Message: "foreign key references unknown table " + fk.ReferencedTable})
				continue
			}
			if seen[fk.ReferencedTable] {
				continue
			}
			seen[fk.ReferencedTable] = true
			adjacency[fk.ReferencedTable] = append(adjacency[fk.ReferencedTable], name)
			indegree[name]++
		}
	}

	// Kahn's algorithm with a position-ordered ready queue for determinism.
	ready := make([]string, 0, len(schema.TableOrder))
	for _, name := range schema.TableOrder {
		if indegree[name] == 0 {
			ready = append(ready, name)
		}
	}
	sort.SliceStable(ready, func(i, j int) bool { return position[ready[i]] < position[ready[j]] })

	order := make([]string, 0, len(schema.TableOrder))
	levels := make(map[string]int, len(schema.TableOrder))

	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		var newlyReady []string
		for _, dependant := range adjacency[name] {
			if lvl := levels[name] + 1; lvl > levels[dependant] {
				levels[dependant] = lvl
			}
			indegree[dependant]--
			if indegree[dependant] == 0 {
				newlyReady = append(newlyReady, dependant)
			}
		}
		sort.SliceStable(newlyReady, func(i, j int) bool { return position[newlyReady[i]] < position[newlyReady[j]] })
		ready = append(ready, newlyReady...)
		sort.SliceStable(ready, func(i, j int) bool { return position[ready[i]] < position[ready[j]] })
	}

	if len(order) != len(schema.TableOrder) {
		var cyclic []string
		for name, deg := range indegree {
			if deg > 0 {
				cyclic = append(cyclic, name)
			}
		}
		sort.Strings(cyclic)
		return Result{}, warnings, &diagnostics.CycleDetected{Tables: cyclic}
	}

	return Result{Order: order, Levels: levels}, warnings, nil
}

// SortForDrop returns tables in the reverse of create order, the
// dependency-safe order for DROP TABLE statements.
func SortForDrop(order []string) []string {
	out := make([]string, len(order))
	for i, name := range order {
		out[len(order)-1-i] = name
	}
	return out
}

// GroupByLevel buckets table names by their dependency level, in level
// order; within a level, names keep their order in result.Order. It serves
// renderers that emit tables in dependency "waves".
func GroupByLevel(result Result, schema *model.Schema) [][]string {
	maxLevel := 0
	for _, lvl := range result.Levels {
		if lvl > maxLevel {
			maxLevel = lvl
		}
	}
	groups := make([][]string, maxLevel+1)
	for _, name := range result.Order {
		lvl := result.Levels[name]
		groups[lvl] = append(groups[lvl], name)
	}
	return groups
}
