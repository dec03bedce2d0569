// Package dag implements pure, in-memory graph operations over a task
// dependency map. It knows nothing about the store or the task service;
// callers hand it map[task_id][]prerequisite_id and get back decisions.
package dag

// DependencyMap maps a task id to the ids of its prerequisites.
type DependencyMap map[string][]string

// CycleResult is the outcome of ValidateNoCycles.
type CycleResult struct {
	Valid bool
	Cycle []string
}

type color int

const (
	white color = iota
	gray
	black
)

// ValidateNoCycles runs depth-first coloring over deps and reports
// whether the edge set is acyclic. On a cycle it reconstructs the path
// via parent links, including self-loops (A -> A).
func ValidateNoCycles(deps DependencyMap) CycleResult {
	colors := make(map[string]color, len(deps))
	parent := make(map[string]string, len(deps))

	nodes := allNodes(deps)

	var cycleStart, cycleEnd string
	found := false

	var visit func(node string) bool
	visit = func(node string) bool {
		colors[node] = gray
		for _, next := range deps[node] {
			switch colors[next] {
			case white:
				parent[next] = node
				if visit(next) {
					return true
				}
			case gray:
				cycleStart = next
				cycleEnd = node
				found = true
				return true
			case black:
				// already fully explored, safe
			}
		}
		colors[node] = black
		return false
	}

	for _, n := range nodes {
		if colors[n] == white {
			if visit(n) {
				break
			}
		}
	}

	if !found {
		return CycleResult{Valid: true}
	}

	// Walk parent links from cycleEnd back to cycleStart to recover the
	// cycle in traversal order, then close the loop.
	var path []string
	for cur := cycleEnd; cur != cycleStart; cur = parent[cur] {
		path = append(path, cur)
	}
	path = append(path, cycleStart)
	// path is currently [cycleStart, ..., cycleEnd] in reverse; flip it.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	path = append(path, cycleStart)

	return CycleResult{Valid: false, Cycle: path}
}

// TopologicalSort orders tasks so every prerequisite precedes its
// dependents, using Kahn's in-degree reduction. Tie-breaking among
// zero-in-degree nodes is unspecified. Panics-free: returns an error on
// a cyclic graph instead of an infinite loop.
func TopologicalSort(deps DependencyMap) ([]string, error) {
	nodes := allNodes(deps)

	inDegree := make(map[string]int, len(nodes))
	dependents := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		inDegree[n] = 0
	}
	for task, prereqs := range deps {
		for _, p := range prereqs {
			inDegree[task]++
			dependents[p] = append(dependents[p], task)
		}
	}

	queue := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	order := make([]string, 0, len(nodes))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)

		for _, dependent := range dependents[n] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(order) != len(nodes) {
		return nil, errCyclic
	}
	return order, nil
}

// CanStart reports whether every prerequisite of task is present in
// completed. A task with no prerequisites can always start.
func CanStart(task string, deps DependencyMap, completed map[string]bool) bool {
	for _, prereq := range deps[task] {
		if !completed[prereq] {
			return false
		}
	}
	return true
}

// UnlockedBy returns the ids of tasks that newly satisfy CanStart once
// completedTask joins the completed set. Only direct dependents of
// completedTask are candidates.
func UnlockedBy(completedTask string, deps DependencyMap, completed map[string]bool) []string {
	augmented := make(map[string]bool, len(completed)+1)
	for k, v := range completed {
		augmented[k] = v
	}
	augmented[completedTask] = true

	var unlocked []string
	for task, prereqs := range deps {
		dependsOnCompleted := false
		for _, p := range prereqs {
			if p == completedTask {
				dependsOnCompleted = true
				break
			}
		}
		if !dependsOnCompleted {
			continue
		}
		if CanStart(task, deps, augmented) {
			unlocked = append(unlocked, task)
		}
	}
	return unlocked
}

func allNodes(deps DependencyMap) []string {
	seen := make(map[string]bool)
	var nodes []string
	for task, prereqs := range deps {
		if !seen[task] {
			seen[task] = true
			nodes = append(nodes, task)
		}
		for _, p := range prereqs {
			if !seen[p] {
				seen[p] = true
				nodes = append(nodes, p)
			}
		}
	}
	return nodes
}

type cyclicError struct{}

func (cyclicError) Error() string { return "dag: graph is cyclic" }

var errCyclic = cyclicError{}
