// Package tree builds the parent/child forest behind the task grid and
// flattens it into display rows.
//
// Both operations are pure: they read the task records they are given, never
// mutate them, and keep no state between calls.
package tree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alfredjeanlab/taskgrid/internal/model"
)

var (
	// ErrCycle is matched by errors reporting a parent chain that loops back
	// on itself.
	ErrCycle = errors.New("parent cycle detected")

	// ErrDuplicateID is matched by errors reporting two input records that
	// share an ID.
	ErrDuplicateID = errors.New("duplicate task id")
)

// CycleError names the task IDs that form a parent cycle, in parent order.
type CycleError struct {
	IDs []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCycle, strings.Join(e.IDs, " -> "))
}

// Is makes errors.Is(err, ErrCycle) true for any *CycleError.
func (e *CycleError) Is(target error) bool { return target == ErrCycle }

// DuplicateIDError reports an ID that appears more than once in Build input.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("%v: %s", ErrDuplicateID, e.ID)
}

// Is makes errors.Is(err, ErrDuplicateID) true for any *DuplicateIDError.
func (e *DuplicateIDError) Is(target error) bool { return target == ErrDuplicateID }

// Node wraps one task record with its children in input order.
type Node struct {
	Task     *model.Task
	Children []*Node
}

// ID returns the wrapped task's ID.
func (n *Node) ID() string { return n.Task.ID }

// Build converts a flat task list into a forest of root nodes.
//
// A task whose ParentID does not resolve to a task in the list is treated as
// a root. Sibling order follows input order. HierarchyLevel is ignored.
// Build returns a *DuplicateIDError if two tasks share an ID and a *CycleError
// if some tasks can only reach each other through their parent links.
func Build(tasks []*model.Task) ([]*Node, error) {
	nodes := make(map[string]*Node, len(tasks))
	ordered := make([]*Node, 0, len(tasks))
	for _, t := range tasks {
		if _, dup := nodes[t.ID]; dup {
			return nil, &DuplicateIDError{ID: t.ID}
		}
		n := &Node{Task: t}
		nodes[t.ID] = n
		ordered = append(ordered, n)
	}

	var roots []*Node
	for _, n := range ordered {
		parent := parentNode(nodes, n)
		if parent == nil {
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	if reachable := reachableFrom(roots); len(reachable) != len(ordered) {
		return nil, findCycle(ordered, nodes, reachable)
	}
	return roots, nil
}

// parentNode returns the node for n's parent, or nil when n has no parent or
// its parent is not in the input.
func parentNode(nodes map[string]*Node, n *Node) *Node {
	if n.Task.ParentID == nil {
		return nil
	}
	return nodes[*n.Task.ParentID]
}

// reachableFrom returns the set of nodes reachable from roots.
func reachableFrom(roots []*Node) map[*Node]bool {
	reachable := make(map[*Node]bool)
	stack := append([]*Node(nil), roots...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		reachable[n] = true
		stack = append(stack, n.Children...)
	}
	return reachable
}

// findCycle returns the cycle behind the first unreachable node. Every
// unreachable node has a present, unreachable parent, so following parent
// links from one must eventually revisit a node.
func findCycle(ordered []*Node, nodes map[string]*Node, reachable map[*Node]bool) error {
	for _, start := range ordered {
		if reachable[start] {
			continue
		}
		seen := make(map[*Node]int)
		var path []*Node
		for n := start; n != nil; n = parentNode(nodes, n) {
			if i, ok := seen[n]; ok {
				ids := make([]string, 0, len(path)-i)
				for _, c := range path[i:] {
					ids = append(ids, c.ID())
				}
				return &CycleError{IDs: ids}
			}
			seen[n] = len(path)
			path = append(path, n)
		}
	}
	return ErrCycle
}

// Walk visits every node in pre-order with its depth. It stops early and
// returns ErrCycle if a node is reached twice, which can only happen for
// forests assembled by hand.
func Walk(roots []*Node, fn func(n *Node, depth int)) error {
	type frame struct {
		node  *Node
		depth int
	}
	visited := make(map[*Node]bool)
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: roots[i]})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[f.node] {
			return &CycleError{IDs: []string{f.node.ID()}}
		}
		visited[f.node] = true
		fn(f.node, f.depth)
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.Children[i], depth: f.depth + 1})
		}
	}
	return nil
}
