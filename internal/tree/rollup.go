package tree

import "github.com/alfredjeanlab/taskgrid/internal/model"

// Progress summarizes the leaf tasks under a node.
type Progress struct {
	Done    int `json:"done"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

// Rollup computes Progress for every node in the forest, keyed by task ID.
// A leaf counts itself; a parent counts the leaves of its whole subtree.
func Rollup(roots []*Node) (map[string]Progress, error) {
	var order []*Node
	if err := Walk(roots, func(n *Node, _ int) { order = append(order, n) }); err != nil {
		return nil, err
	}

	out := make(map[string]Progress, len(order))
	// Reverse pre-order visits every child before its parent.
	for i := len(order) - 1; i >= 0; i-- {
		n := order[i]
		var p Progress
		if len(n.Children) == 0 {
			p.Total = 1
			if n.Task.Status == model.StatusDone {
				p.Done = 1
			}
		} else {
			for _, c := range n.Children {
				cp := out[c.ID()]
				p.Done += cp.Done
				p.Total += cp.Total
			}
		}
		if p.Total > 0 {
			p.Percent = p.Done * 100 / p.Total
		}
		out[n.ID()] = p
	}
	return out, nil
}
