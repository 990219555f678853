package tree

import "github.com/alfredjeanlab/taskgrid/internal/model"

// ExpandedSet holds the IDs of nodes whose children should be shown.
// IDs that are not in the forest have no effect.
type ExpandedSet map[string]struct{}

// NewExpandedSet returns a set containing ids. Empty IDs are skipped.
func NewExpandedSet(ids ...string) ExpandedSet {
	s := make(ExpandedSet, len(ids))
	for _, id := range ids {
		if id != "" {
			s[id] = struct{}{}
		}
	}
	return s
}

// Has reports whether id is expanded. A nil set expands nothing.
func (s ExpandedSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the set members in unspecified order.
func (s ExpandedSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}

// Row is one line of the flattened grid.
type Row struct {
	Task        *model.Task `json:"task"`
	Depth       int         `json:"depth"`
	HasChildren bool        `json:"has_children"`
	Visible     bool        `json:"visible"`
}

// Flatten emits every node of the forest in pre-order.
//
// Roots are always visible. Any other row is visible iff its parent row is
// visible and the parent's ID is in expanded. Hidden rows are still emitted so
// callers can operate on the full list; renderers skip them.
func Flatten(roots []*Node, expanded ExpandedSet) ([]Row, error) {
	type frame struct {
		node    *Node
		depth   int
		visible bool
	}

	rows := make([]Row, 0, len(roots))
	visited := make(map[*Node]bool)
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: roots[i], visible: true})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[f.node] {
			return nil, &CycleError{IDs: []string{f.node.ID()}}
		}
		visited[f.node] = true

		rows = append(rows, Row{
			Task:        f.node.Task,
			Depth:       f.depth,
			HasChildren: len(f.node.Children) > 0,
			Visible:     f.visible,
		})

		childVisible := f.visible && expanded.Has(f.node.ID())
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{
				node:    f.node.Children[i],
				depth:   f.depth + 1,
				visible: childVisible,
			})
		}
	}
	return rows, nil
}

// VisibleRows returns only the rows a renderer should draw.
func VisibleRows(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Visible {
			out = append(out, r)
		}
	}
	return out
}

// ExpandAll returns a set containing every node that has children, which
// makes every row visible when passed to Flatten.
func ExpandAll(roots []*Node) (ExpandedSet, error) {
	s := make(ExpandedSet)
	err := Walk(roots, func(n *Node, _ int) {
		if len(n.Children) > 0 {
			s[n.ID()] = struct{}{}
		}
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
