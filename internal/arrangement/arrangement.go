// Package arrangement implements the window/split/pane topology: the
// composable tree of panes within a window, and the process-wide set of
// windows plus per-client focus bookkeeping.
package arrangement

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
)

// Orientation is the axis a Split stacks its children along.
type Orientation int

const (
	Horizontal Orientation = iota // stacks children top-to-bottom
	Vertical                      // stacks children left-to-right
)

const firstID = 1001

// Pane is one leaf of a window's split tree: a unique id plus the UI
// state layered on top of its process. The process itself is owned by
// the server core and referenced here only by id, so this package has no
// dependency on process/screen.
type Pane struct {
	ID                 int
	Name               string
	ClockMode          bool
	DisplayScrollBuffer bool
	ZoomedFrom         *Split // never assigned; zoom state is Window.Zoom
}

// Split is an internal node of the layout tree: an ordered list of
// children (each a *Pane or *Split), each with an integer weight >= 1.
type Split struct {
	Orientation Orientation
	Children    []Node
	Weights     []int
	parent      *Split
}

// Node is the sum type held by a Split's Children: either *Pane or *Split.
type Node interface{ isNode() }

func (*Pane) isNode()  {}
func (*Split) isNode() {}

// Window owns one split tree and an active pane within it.
type Window struct {
	ID               int
	Index            int
	Name             string
	Root             *Split
	Active           *Pane
	PreviousActive   *Pane
	Zoom             bool
	SynchronizePanes bool
	LastLayout       string
}

// Arrangement is the ordered set of windows plus per-client focus maps.
type Arrangement struct {
	BaseIndex int
	Windows   []*Window

	nextID int

	clientActive   map[string]*Window
	clientPrevious map[string]*Window
	lastActive     *Window
}

// New returns an empty Arrangement with the given base window index.
func New(baseIndex int) *Arrangement {
	return &Arrangement{
		BaseIndex:      baseIndex,
		nextID:         firstID,
		clientActive:   make(map[string]*Window),
		clientPrevious: make(map[string]*Window),
	}
}

func (a *Arrangement) allocID() int {
	id := a.nextID
	a.nextID++
	return id
}

// NewWindow creates and inserts a window at the first free index >= base,
// containing a single pane. The window becomes the process-wide last
// active window.
func (a *Arrangement) NewWindow(name string) (*Window, *Pane) {
	pane := &Pane{ID: a.allocID()}
	w := &Window{
		ID:    a.allocID(),
		Index: a.freeIndex(),
		Name:  name,
		Root:  &Split{Orientation: Horizontal, Children: []Node{pane}, Weights: []int{1}},
		Active: pane,
	}
	a.insertWindow(w)
	a.lastActive = w
	return w, pane
}

func (a *Arrangement) freeIndex() int {
	used := make(map[int]bool, len(a.Windows))
	for _, w := range a.Windows {
		used[w.Index] = true
	}
	for i := a.BaseIndex; ; i++ {
		if !used[i] {
			return i
		}
	}
}

func (a *Arrangement) insertWindow(w *Window) {
	a.Windows = append(a.Windows, w)
	sort.Slice(a.Windows, func(i, j int) bool { return a.Windows[i].Index < a.Windows[j].Index })
}

// RemoveWindow deletes w from the arrangement, clearing any per-client
// focus entries that pointed at it.
func (a *Arrangement) RemoveWindow(w *Window) {
	for i, cand := range a.Windows {
		if cand == w {
			a.Windows = append(a.Windows[:i], a.Windows[i+1:]...)
			break
		}
	}
	for c, active := range a.clientActive {
		if active == w {
			delete(a.clientActive, c)
		}
	}
	for c, prev := range a.clientPrevious {
		if prev == w {
			delete(a.clientPrevious, c)
		}
	}
	if a.lastActive == w {
		a.lastActive = nil
		if len(a.Windows) > 0 {
			a.lastActive = a.Windows[0]
		}
	}
}

// MoveWindow reassigns w's index, failing if the target is occupied by a
// different window.
func (a *Arrangement) MoveWindow(w *Window, newIndex int) error {
	for _, cand := range a.Windows {
		if cand != w && cand.Index == newIndex {
			return fmt.Errorf("index %d is already in use", newIndex)
		}
	}
	w.Index = newIndex
	sort.Slice(a.Windows, func(i, j int) bool { return a.Windows[i].Index < a.Windows[j].Index })
	return nil
}

// WindowByIndex finds a window by its user-visible index.
func (a *Arrangement) WindowByIndex(index int) *Window {
	for _, w := range a.Windows {
		if w.Index == index {
			return w
		}
	}
	return nil
}

// ActiveWindow returns the window focused by the given client, defaulting
// to the process-wide last active window, or the lowest-index window.
func (a *Arrangement) ActiveWindow(clientID string) *Window {
	if w, ok := a.clientActive[clientID]; ok {
		return w
	}
	if a.lastActive != nil {
		return a.lastActive
	}
	if len(a.Windows) > 0 {
		return a.Windows[0]
	}
	return nil
}

// SetActiveWindow focuses w for clientID, recording the previous focus.
func (a *Arrangement) SetActiveWindow(clientID string, w *Window) {
	if prev, ok := a.clientActive[clientID]; ok && prev != w {
		a.clientPrevious[clientID] = prev
	}
	a.clientActive[clientID] = w
	a.lastActive = w
}

// PreviousWindow returns the window clientID was focused on before its
// current one.
func (a *Arrangement) PreviousWindow(clientID string) *Window {
	return a.clientPrevious[clientID]
}

// ForgetClient removes a disconnected client's focus-map entries.
func (a *Arrangement) ForgetClient(clientID string) {
	delete(a.clientActive, clientID)
	delete(a.clientPrevious, clientID)
}

// NewPaneID allocates the next unique pane id.
func (a *Arrangement) NewPaneID() int { return a.allocID() }

// Panes returns every pane in w in DFS tree order.
func Panes(w *Window) []*Pane {
	var out []*Pane
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case *Pane:
			out = append(out, v)
		case *Split:
			for _, c := range v.Children {
				walk(c)
			}
		}
	}
	walk(w.Root)
	return out
}

// findParent returns the split directly containing target, and target's
// index within it.
func findParent(root *Split, target Node) (*Split, int) {
	for i, c := range root.Children {
		if c == target {
			return root, i
		}
		if s, ok := c.(*Split); ok {
			if p, idx := findParent(s, target); p != nil {
				return p, idx
			}
		}
	}
	return nil, -1
}

// AddPane implements spec.md §4.4's add-pane algorithm: if there is no
// active pane, append the new pane to root; otherwise split the active
// pane's slot along the requested orientation (or simply insert a sibling
// if the parent already has that orientation). The new pane becomes
// active and any window-level zoom is cleared.
func (w *Window) AddPane(pane *Pane, vsplit bool) {
	orientation := Horizontal
	if vsplit {
		orientation = Vertical
	}
	w.Zoom = false

	if w.Active == nil {
		w.Root.Children = append(w.Root.Children, pane)
		w.Root.Weights = append(w.Root.Weights, 1)
		w.Active = pane
		return
	}

	parent, idx := findParent(w.Root, w.Active)
	if parent == nil {
		w.Root.Children = append(w.Root.Children, pane)
		w.Root.Weights = append(w.Root.Weights, 1)
		w.Active = pane
		return
	}

	if parent.Orientation == orientation {
		insertAt(parent, idx+1, pane, 1)
		w.Active = pane
		return
	}

	activeWeight := parent.Weights[idx]
	newSplit := &Split{
		Orientation: orientation,
		Children:    []Node{w.Active, pane},
		Weights:     []int{1, 1},
		parent:      parent,
	}
	parent.Children[idx] = newSplit
	parent.Weights[idx] = activeWeight
	w.Active = pane
}

func insertAt(s *Split, idx int, n Node, weight int) {
	s.Children = append(s.Children, nil)
	s.Weights = append(s.Weights, 0)
	copy(s.Children[idx+1:], s.Children[idx:])
	copy(s.Weights[idx+1:], s.Weights[idx:])
	s.Children[idx] = n
	s.Weights[idx] = weight
}

// RemovePane implements spec.md §4.4's remove-pane algorithm: detach the
// pane from its parent split, refocus the window's previous active pane
// (or the next pane cyclically), then collapse any now-empty or
// single-child splits up the tree.
func (w *Window) RemovePane(pane *Pane) {
	parent, idx := findParent(w.Root, pane)
	if parent == nil {
		return
	}

	var fallback *Pane
	if w.Active == pane {
		fallback = nextPaneAfter(w, pane)
	}

	parent.Children = append(parent.Children[:idx], parent.Children[idx+1:]...)
	parent.Weights = append(parent.Weights[:idx], parent.Weights[idx+1:]...)

	if w.Active == pane {
		if w.PreviousActive != nil && w.PreviousActive != pane && paneExists(w.Root, w.PreviousActive) {
			w.Active = w.PreviousActive
		} else {
			w.Active = fallback
		}
		w.PreviousActive = nil
	}
	if w.PreviousActive == pane {
		w.PreviousActive = nil
	}

	collapse(parent, w)
}

func paneExists(root *Split, target *Pane) bool {
	for _, p := range Panes(&Window{Root: root}) {
		if p == target {
			return true
		}
	}
	return false
}

// nextPaneAfter returns the pane that follows removed in DFS order,
// wrapping to the first pane when removed is last, and nil when removed
// is the only pane.
func nextPaneAfter(w *Window, removed *Pane) *Pane {
	panes := Panes(w)
	if len(panes) <= 1 {
		return nil
	}
	for i, p := range panes {
		if p == removed {
			return panes[(i+1)%len(panes)]
		}
	}
	return panes[0]
}

func collapse(parent *Split, w *Window) {
	for parent != nil && parent.parent != nil {
		gp := parent.parent
		switch len(parent.Children) {
		case 0:
			_, idx := findParent(gp, parent)
			removeChildAt(gp, idx)
			parent = gp
		case 1:
			_, idx := findParent(gp, parent)
			weight := gp.Weights[idx]
			gp.Children[idx] = parent.Children[0]
			gp.Weights[idx] = weight
			if s, ok := parent.Children[0].(*Split); ok {
				s.parent = gp
			}
			parent = gp
		default:
			return
		}
	}
}

func removeChildAt(s *Split, idx int) {
	if idx < 0 {
		return
	}
	s.Children = append(s.Children[:idx], s.Children[idx+1:]...)
	s.Weights = append(s.Weights[:idx], s.Weights[idx+1:]...)
}

// FocusNext moves w's active pane to the next one in DFS order, cyclically.
func (w *Window) FocusNext() {
	panes := Panes(w)
	w.focusOffset(panes, 1)
}

// FocusPrevious moves w's active pane to the previous one in DFS order.
func (w *Window) FocusPrevious() {
	panes := Panes(w)
	w.focusOffset(panes, -1)
}

func (w *Window) focusOffset(panes []*Pane, delta int) {
	if len(panes) == 0 {
		return
	}
	cur := -1
	for i, p := range panes {
		if p == w.Active {
			cur = i
			break
		}
	}
	if cur == -1 {
		w.Active = panes[0]
		return
	}
	w.PreviousActive = w.Active
	next := ((cur+delta)%len(panes) + len(panes)) % len(panes)
	w.Active = panes[next]
}

type slot struct {
	split  *Split
	index  int
	pane   *Pane
	weight int
}

func dfsSlots(root *Split) []slot {
	var out []slot
	var walk func(*Split)
	walk = func(s *Split) {
		for i, c := range s.Children {
			if p, ok := c.(*Pane); ok {
				out = append(out, slot{split: s, index: i, pane: p, weight: s.Weights[i]})
			} else if sub, ok := c.(*Split); ok {
				walk(sub)
			}
		}
	}
	walk(root)
	return out
}

// Rotate rotates pane slots by count in DFS order, preserving each slot's
// original weight. If restrictToNeighbors is true, only the pair adjacent
// to the active pane is rotated (the -U/-D variants).
func (w *Window) Rotate(count int, restrictToNeighbors bool) {
	slots := dfsSlots(w.Root)
	n := len(slots)
	if n < 2 {
		return
	}
	if restrictToNeighbors {
		cur := -1
		for i, s := range slots {
			if s.pane == w.Active {
				cur = i
				break
			}
		}
		if cur == -1 {
			return
		}
		other := ((cur+count)%n + n) % n
		slots[cur].split.Children[slots[cur].index] = slots[other].pane
		slots[other].split.Children[slots[other].index] = slots[cur].pane
		return
	}
	panes := make([]*Pane, n)
	for i, s := range slots {
		panes[i] = s.pane
	}
	rotated := make([]*Pane, n)
	for i := range panes {
		src := ((i-count)%n + n) % n
		rotated[i] = panes[src]
	}
	for i, s := range slots {
		s.split.Children[s.index] = rotated[i]
	}
}

// SwapPane swaps the active pane's slot with its previous or next DFS
// neighbor.
func (w *Window) SwapPane(next bool) {
	slots := dfsSlots(w.Root)
	n := len(slots)
	if n < 2 {
		return
	}
	cur := -1
	for i, s := range slots {
		if s.pane == w.Active {
			cur = i
			break
		}
	}
	if cur == -1 {
		return
	}
	delta := -1
	if next {
		delta = 1
	}
	other := ((cur+delta)%n + n) % n
	slots[cur].split.Children[slots[cur].index] = slots[other].pane
	slots[other].split.Children[slots[other].index] = slots[cur].pane
}

// Direction identifies one of the four sides a pane can be resized or
// moved-focus toward.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
)

// ChangeSizeForPane implements spec.md §4.4's weight-transfer resize: for
// each requested direction, find the nearest ancestor split of the
// matching orientation where the pane has a neighbor on that side, and
// shift up to `amount` of weight from the neighbor into the pane's slot.
// The shift is limited so that no weight in that split drops below 1 and
// the split's total weight is unchanged. If no such ancestor exists, the
// opposite side is tried with a negated amount.
func (w *Window) ChangeSizeForPane(pane *Pane, dir Direction, amount int) {
	orientation := Horizontal
	forward := true
	switch dir {
	case Left:
		orientation, forward = Vertical, false
	case Right:
		orientation, forward = Vertical, true
	case Up:
		orientation, forward = Horizontal, false
	case Down:
		orientation, forward = Horizontal, true
	}
	if w.resizeAlong(pane, orientation, forward, amount) {
		return
	}
	w.resizeAlong(pane, orientation, !forward, -amount)
}

func (w *Window) resizeAlong(pane *Pane, orientation Orientation, forward bool, amount int) bool {
	var node Node = pane
	for {
		parent, idx := findParent(w.Root, node)
		if parent == nil {
			return false
		}
		if parent.Orientation == orientation {
			neighbor := idx + 1
			if !forward {
				neighbor = idx - 1
			}
			if neighbor >= 0 && neighbor < len(parent.Children) {
				if limit := parent.Weights[neighbor] - 1; amount > limit {
					amount = limit
				}
				if limit := 1 - parent.Weights[idx]; amount < limit {
					amount = limit
				}
				parent.Weights[idx] += amount
				parent.Weights[neighbor] -= amount
				clampWeights(parent)
				return true
			}
		}
		node = parent
	}
}

func clampWeights(s *Split) {
	for i, w := range s.Weights {
		if w < 1 {
			s.Weights[i] = 1
		}
	}
}

// Layout names accepted by SelectLayout.
const (
	LayoutEvenHorizontal = "even-horizontal"
	LayoutEvenVertical   = "even-vertical"
	LayoutMainHorizontal = "main-horizontal"
	LayoutMainVertical   = "main-vertical"
	LayoutTiled          = "tiled"
)

// SelectLayout rebuilds w's root split from one of the five fixed
// templates, preserving pane identities.
func (w *Window) SelectLayout(kind string) error {
	panes := Panes(w)
	if len(panes) <= 1 {
		kind = LayoutEvenHorizontal
	}
	var root *Split
	switch kind {
	case LayoutEvenHorizontal:
		root = flatten(panes, Horizontal)
	case LayoutEvenVertical:
		root = flatten(panes, Vertical)
	case LayoutMainHorizontal:
		root = mainSplit(panes, w.Active, Horizontal)
	case LayoutMainVertical:
		root = mainSplit(panes, w.Active, Vertical)
	case LayoutTiled:
		root = tiled(panes)
	default:
		return fmt.Errorf("unknown layout %q", kind)
	}
	w.Root = root
	w.LastLayout = kind
	return nil
}

func flatten(panes []*Pane, orientation Orientation) *Split {
	s := &Split{Orientation: orientation}
	for _, p := range panes {
		s.Children = append(s.Children, p)
		s.Weights = append(s.Weights, 1)
	}
	return s
}

func mainSplit(panes []*Pane, active *Pane, orientation Orientation) *Split {
	if active == nil {
		active = panes[0]
	}
	var rest []*Pane
	for _, p := range panes {
		if p != active {
			rest = append(rest, p)
		}
	}
	secondary := Vertical
	if orientation == Vertical {
		secondary = Horizontal
	}
	root := &Split{Orientation: orientation}
	root.Children = append(root.Children, active)
	root.Weights = append(root.Weights, 1)
	if len(rest) > 0 {
		sub := flatten(rest, secondary)
		sub.parent = root
		root.Children = append(root.Children, sub)
		root.Weights = append(root.Weights, 1)
	}
	return root
}

func tiled(panes []*Pane) *Split {
	n := len(panes)
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	if cols < 1 {
		cols = 1
	}
	rows := &Split{Orientation: Horizontal}
	for i := 0; i < n; i += cols {
		end := i + cols
		if end > n {
			end = n
		}
		row := flatten(panes[i:end], Vertical)
		row.parent = rows
		rows.Children = append(rows.Children, row)
		rows.Weights = append(rows.Weights, 1)
	}
	return rows
}

// InvalidationHash returns a deterministic hash of w's structure (id,
// zoom, DFS shape) used by an external renderer to detect when its
// cached layout needs rebuilding.
func (w *Window) InvalidationHash() string {
	h := sha256.New()
	fmt.Fprintf(h, "%d:%v:", w.ID, w.Zoom)
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case *Pane:
			fmt.Fprintf(h, "p%d;", v.ID)
		case *Split:
			fmt.Fprintf(h, "s%d[", v.Orientation)
			for i, c := range v.Children {
				fmt.Fprintf(h, "%d:", v.Weights[i])
				walk(c)
			}
			fmt.Fprint(h, "]")
		}
	}
	walk(w.Root)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// BreakPane removes the active pane from w and returns it, ready for the
// caller to wrap in a new window at the first free index.
func (w *Window) BreakPane() *Pane {
	pane := w.Active
	if pane == nil {
		return nil
	}
	w.RemovePane(pane)
	return pane
}
