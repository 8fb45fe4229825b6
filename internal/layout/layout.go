// Package layout models a window's split tree: leaves are panes,
// internal nodes are directional splits with weighted children. The
// tree owns no pane state; leaves carry pane ids resolved against the
// window's pane arena.
package layout

import "fmt"

// Direction of a split.
type Direction uint8

const (
	// Vertical splits divide width: panes sit side by side separated by
	// a one-column border.
	Vertical Direction = iota
	// Horizontal splits divide height: panes stack separated by a
	// one-row border.
	Horizontal
)

func (d Direction) String() string {
	if d == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// Rect is a rectangle in screen cells.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the point (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Separator is a one-cell-thick border line between two split children.
type Separator struct {
	Rect Rect
	Dir  Direction
}

// node is either a leaf carrying a pane id or a split with children.
type node struct {
	pane     int
	children []*child
	dir      Direction
}

type child struct {
	weight float64
	node   *node
}

func (n *node) leaf() bool { return len(n.children) == 0 }

// Tree is a window's layout. The zero value is empty; use New.
type Tree struct {
	root *node
}

// New creates a tree holding a single pane.
func New(paneID int) *Tree {
	return &Tree{root: &node{pane: paneID}}
}

// Empty reports whether no panes remain.
func (t *Tree) Empty() bool {
	return t.root == nil
}

// Leaves returns pane ids in tree order.
func (t *Tree) Leaves() []int {
	var out []int
	var walk func(n *node)
	walk = func(n *node) {
		if n == nil {
			return
		}
		if n.leaf() {
			out = append(out, n.pane)
			return
		}
		for _, c := range n.children {
			walk(c.node)
		}
	}
	walk(t.root)
	return out
}

// find returns the leaf for a pane id and its ancestor chain,
// innermost last.
func (t *Tree) find(paneID int) (*node, []*node) {
	var path []*node
	var walk func(n *node) *node
	walk = func(n *node) *node {
		if n.leaf() {
			if n.pane == paneID {
				return n
			}
			return nil
		}
		path = append(path, n)
		for _, c := range n.children {
			if found := walk(c.node); found != nil {
				return found
			}
		}
		path = path[:len(path)-1]
		return nil
	}
	if t.root == nil {
		return nil, nil
	}
	leaf := walk(t.root)
	if leaf == nil {
		return nil, nil
	}
	return leaf, path
}

// SplitLeaf replaces the leaf for paneID with a split whose first child
// is the existing pane (weight ratio) and second is newPaneID (weight
// 1-ratio). The ratio is clamped to [0.1, 0.9] so neither side starts
// unusably thin.
func (t *Tree) SplitLeaf(paneID int, dir Direction, ratio float64, newPaneID int) error {
	leaf, _ := t.find(paneID)
	if leaf == nil {
		return fmt.Errorf("layout: pane %d not in tree", paneID)
	}
	if ratio < 0.1 {
		ratio = 0.1
	}
	if ratio > 0.9 {
		ratio = 0.9
	}
	existing := &node{pane: leaf.pane}
	leaf.pane = 0
	leaf.dir = dir
	leaf.children = []*child{
		{weight: ratio, node: existing},
		{weight: 1 - ratio, node: &node{pane: newPaneID}},
	}
	return nil
}

// RemoveLeaf deletes the leaf for paneID, collapsing single-child
// splits. It returns the pane id that should take focus (the removed
// leaf's nearest sibling in tree order) and whether the tree is now
// empty.
func (t *Tree) RemoveLeaf(paneID int) (neighbor int, empty bool, err error) {
	if t.root == nil {
		return 0, true, fmt.Errorf("layout: pane %d not in tree", paneID)
	}
	if t.root.leaf() {
		if t.root.pane != paneID {
			return 0, false, fmt.Errorf("layout: pane %d not in tree", paneID)
		}
		t.root = nil
		return 0, true, nil
	}
	leaf, path := t.find(paneID)
	if leaf == nil {
		return 0, false, fmt.Errorf("layout: pane %d not in tree", paneID)
	}
	parent := path[len(path)-1]
	idx := -1
	for i, c := range parent.children {
		if c.node == leaf {
			idx = i
			break
		}
	}
	parent.children = append(parent.children[:idx], parent.children[idx+1:]...)

	// Pick the sibling that inherits focus: the child now occupying the
	// removed slot, else the previous one.
	var focus *node
	if idx < len(parent.children) {
		focus = parent.children[idx].node
	} else {
		focus = parent.children[len(parent.children)-1].node
	}

	// Collapse a split left with a single child into that child.
	if len(parent.children) == 1 {
		only := parent.children[0].node
		parent.pane = only.pane
		parent.dir = only.dir
		parent.children = only.children
	}

	return firstLeaf(focus), false, nil
}

func firstLeaf(n *node) int {
	for !n.leaf() {
		n = n.children[0].node
	}
	return n.pane
}

// Result is the solved geometry for one window size.
type Result struct {
	Panes      map[int]Rect
	Separators []Separator
}

// Resolve computes every pane's rectangle within total. Each split
// reserves one row/column per inner border, then distributes the
// remaining extent by child weight, handing leftover cells one at a
// time to the smallest child so rounding never starves anyone.
func (t *Tree) Resolve(total Rect) *Result {
	res := &Result{Panes: make(map[int]Rect)}
	if t.root != nil {
		resolveNode(t.root, total, res)
	}
	return res
}

func resolveNode(n *node, r Rect, res *Result) {
	if n.leaf() {
		res.Panes[n.pane] = r
		return
	}
	extent := r.W
	if n.dir == Horizontal {
		extent = r.H
	}
	seps := len(n.children) - 1
	extent -= seps
	if extent < 0 {
		extent = 0
	}

	var totalWeight float64
	for _, c := range n.children {
		totalWeight += c.weight
	}

	sizes := make([]int, len(n.children))
	assigned := 0
	for i, c := range n.children {
		sizes[i] = int(float64(extent) * (c.weight / totalWeight))
		assigned += sizes[i]
	}
	for left := extent - assigned; left > 0; left-- {
		smallest := 0
		for i := 1; i < len(sizes); i++ {
			if sizes[i] < sizes[smallest] {
				smallest = i
			}
		}
		sizes[smallest]++
	}

	offset := 0
	for i, c := range n.children {
		var cr Rect
		if n.dir == Vertical {
			cr = Rect{X: r.X + offset, Y: r.Y, W: sizes[i], H: r.H}
		} else {
			cr = Rect{X: r.X, Y: r.Y + offset, W: r.W, H: sizes[i]}
		}
		resolveNode(c.node, cr, res)
		offset += sizes[i]
		if i < len(n.children)-1 {
			var sep Rect
			if n.dir == Vertical {
				sep = Rect{X: r.X + offset, Y: r.Y, W: 1, H: r.H}
			} else {
				sep = Rect{X: r.X, Y: r.Y + offset, W: r.W, H: 1}
			}
			res.Separators = append(res.Separators, Separator{Rect: sep, Dir: n.dir})
			offset++
		}
	}
}
