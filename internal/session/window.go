package session

import (
	"github.com/Gbr22/citymux/internal/layout"
)

// Window is one named arrangement of panes: a split tree whose leaves
// are pane ids, plus the id of the active pane. All methods assume the
// owning session's lock is held.
type Window struct {
	ID     int
	tree   *layout.Tree
	active int
}

func newWindow(id, paneID int) *Window {
	return &Window{ID: id, tree: layout.New(paneID), active: paneID}
}

// ActivePane returns the id of the focused pane.
func (w *Window) ActivePane() int { return w.active }

// PaneIDs returns the window's pane ids in tree order.
func (w *Window) PaneIDs() []int { return w.tree.Leaves() }

func (w *Window) contains(paneID int) bool {
	for _, id := range w.tree.Leaves() {
		if id == paneID {
			return true
		}
	}
	return false
}

func (w *Window) split(dir layout.Direction, ratio float64, newPaneID int) error {
	if err := w.tree.SplitLeaf(w.active, dir, ratio, newPaneID); err != nil {
		return err
	}
	w.active = newPaneID
	return nil
}

// removePane deletes a leaf. If the removed pane was active, focus
// moves to the deterministic neighbor chosen by the tree. Reports
// whether the window is now empty.
func (w *Window) removePane(paneID int) (empty bool) {
	neighbor, empty, err := w.tree.RemoveLeaf(paneID)
	if err != nil {
		return false
	}
	if empty {
		return true
	}
	if w.active == paneID {
		w.active = neighbor
	}
	return false
}

// focusNext cycles focus to the next leaf in tree order.
func (w *Window) focusNext() {
	leaves := w.tree.Leaves()
	for i, id := range leaves {
		if id == w.active {
			w.active = leaves[(i+1)%len(leaves)]
			return
		}
	}
	if len(leaves) > 0 {
		w.active = leaves[0]
	}
}

// focusPrev cycles focus to the previous leaf in tree order.
func (w *Window) focusPrev() {
	leaves := w.tree.Leaves()
	for i, id := range leaves {
		if id == w.active {
			w.active = leaves[(i-1+len(leaves))%len(leaves)]
			return
		}
	}
	if len(leaves) > 0 {
		w.active = leaves[0]
	}
}

// focusDirection moves focus to the pane adjacent to the active one
// in the given direction. The probe point sits one cell past the
// active pane's edge, at its midline, so the separator column is
// stepped over.
func (w *Window) focusDirection(dx, dy int, total layout.Rect) {
	res := w.tree.Resolve(total)
	cur, ok := res.Panes[w.active]
	if !ok {
		return
	}
	var px, py int
	switch {
	case dx < 0:
		px, py = cur.X-2, cur.Y+cur.H/2
	case dx > 0:
		px, py = cur.X+cur.W+1, cur.Y+cur.H/2
	case dy < 0:
		px, py = cur.X+cur.W/2, cur.Y-2
	case dy > 0:
		px, py = cur.X+cur.W/2, cur.Y+cur.H+1
	default:
		return
	}
	for id, r := range res.Panes {
		if r.Contains(px, py) {
			w.active = id
			return
		}
	}
}
