package tree

import (
	"sort"

	"github.com/alfredjeanlab/taskgrid/internal/model"
)

// WouldCycle reports whether making newParentID the parent of id would put id
// among its own ancestors. Moving a task under itself counts. A parent chain
// that already loops without passing through id also reports true, since the
// moved task would hang off a cycle.
func WouldCycle(tasks []*model.Task, id, newParentID string) bool {
	if newParentID == "" {
		return false
	}
	parentOf := make(map[string]string, len(tasks))
	for _, t := range tasks {
		if t.ParentID != nil {
			parentOf[t.ID] = *t.ParentID
		}
	}

	seen := make(map[string]bool)
	for cur := newParentID; cur != ""; cur = parentOf[cur] {
		if cur == id || seen[cur] {
			return true
		}
		seen[cur] = true
	}
	return false
}

// Depth returns the number of ancestors of id within tasks, following
// ParentID links that resolve. It is the value a fresh Build would assign and
// is used to refresh the stored HierarchyLevel hint. Loops stop the count.
func Depth(tasks []*model.Task, id string) int {
	byID := make(map[string]*model.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	depth := 0
	seen := map[string]bool{id: true}
	cur, ok := byID[id]
	for ok && cur.ParentID != nil {
		pid := *cur.ParentID
		if seen[pid] {
			break
		}
		if cur, ok = byID[pid]; ok {
			seen[pid] = true
			depth++
		}
	}
	return depth
}

// Reposition places moved at index among siblings and renumbers Position to
// 0..n-1 in the resulting order. siblings may or may not already contain
// moved; it is matched by ID. index is clamped to the valid range. Tasks are
// updated in place and the ones whose Position changed are returned, moved
// included when its position changed.
func Reposition(siblings []*model.Task, moved *model.Task, index int) []*model.Task {
	others := make([]*model.Task, 0, len(siblings))
	for _, t := range siblings {
		if t.ID != moved.ID {
			others = append(others, t)
		}
	}
	sort.SliceStable(others, func(i, j int) bool {
		return others[i].Position < others[j].Position
	})

	if index < 0 {
		index = 0
	}
	if index > len(others) {
		index = len(others)
	}

	ordered := make([]*model.Task, 0, len(others)+1)
	ordered = append(ordered, others[:index]...)
	ordered = append(ordered, moved)
	ordered = append(ordered, others[index:]...)

	var changed []*model.Task
	for i, t := range ordered {
		if t.Position != i {
			t.Position = i
			changed = append(changed, t)
		}
	}
	return changed
}
