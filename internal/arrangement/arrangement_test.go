package arrangement

import "testing"

func countSplits(root *Split) (zero, one int) {
	for _, c := range root.Children {
		if s, ok := c.(*Split); ok {
			if len(s.Children) == 0 {
				zero++
			}
			if len(s.Children) == 1 {
				one++
			}
			z, o := countSplits(s)
			zero += z
			one += o
		}
	}
	return
}

func TestAddPaneSplitsAndFocuses(t *testing.T) {
	a := New(0)
	w, p1 := a.NewWindow("win")
	p2 := &Pane{ID: a.NewPaneID()}
	w.AddPane(p2, true)

	if w.Active != p2 {
		t.Fatalf("active pane should be the newly added pane")
	}
	panes := Panes(w)
	if len(panes) != 2 {
		t.Fatalf("expected 2 panes, got %d", len(panes))
	}
	if panes[0] != p1 {
		t.Fatalf("expected original pane first in DFS order")
	}
}

func TestRemovePaneCollapsesSplits(t *testing.T) {
	a := New(0)
	w, p1 := a.NewWindow("win")
	p2 := &Pane{ID: a.NewPaneID()}
	w.AddPane(p2, true)
	p3 := &Pane{ID: a.NewPaneID()}
	w.AddPane(p3, false)

	w.RemovePane(p3)
	w.RemovePane(p2)

	zero, one := countSplits(w.Root)
	if zero != 0 || one != 0 {
		t.Fatalf("invariant violated: zero-length splits=%d, one-length non-root splits=%d", zero, one)
	}
	if len(Panes(w)) != 1 || Panes(w)[0] != p1 {
		t.Fatalf("expected only p1 remaining")
	}
}

func TestRemovePaneNoEmptyOrSingleNonRootSplits(t *testing.T) {
	a := New(0)
	w, _ := a.NewWindow("win")
	var panes []*Pane
	for i := 0; i < 5; i++ {
		p := &Pane{ID: a.NewPaneID()}
		w.AddPane(p, i%2 == 0)
		panes = append(panes, p)
	}
	for _, p := range panes {
		if w.Active == nil {
			break
		}
		active := w.Active
		w.RemovePane(active)
		zero, one := countSplits(w.Root)
		if zero != 0 || one != 0 {
			t.Fatalf("invariant violated after removing a pane: zero=%d one=%d", zero, one)
		}
		_ = p
	}
}

func TestChangeSizeForPanePreservesTotalWeight(t *testing.T) {
	a := New(0)
	w, p1 := a.NewWindow("win")
	p2 := &Pane{ID: a.NewPaneID()}
	w.AddPane(p2, true)

	parent, _ := findParent(w.Root, p1)
	before := parent.Weights[0] + parent.Weights[1]

	w.ChangeSizeForPane(p1, Right, 2)

	after := parent.Weights[0] + parent.Weights[1]
	if before != after {
		t.Fatalf("total weight changed: before=%d after=%d", before, after)
	}
	for _, wt := range parent.Weights {
		if wt < 1 {
			t.Fatalf("weight dropped below 1: %v", parent.Weights)
		}
	}
}

func TestSelectLayoutTiled(t *testing.T) {
	a := New(0)
	w, _ := a.NewWindow("win")
	for i := 0; i < 3; i++ {
		w.AddPane(&Pane{ID: a.NewPaneID()}, true)
	}
	if err := w.SelectLayout(LayoutTiled); err != nil {
		t.Fatalf("select layout: %v", err)
	}
	if len(Panes(w)) != 4 {
		t.Fatalf("expected 4 panes preserved after layout change, got %d", len(Panes(w)))
	}
}

func TestSinglePaneWindowNormalizesToEvenHorizontal(t *testing.T) {
	a := New(0)
	w, _ := a.NewWindow("win")
	if err := w.SelectLayout(LayoutTiled); err != nil {
		t.Fatalf("select layout: %v", err)
	}
	if w.LastLayout != LayoutEvenHorizontal {
		t.Fatalf("single-pane window layout = %q, want %q", w.LastLayout, LayoutEvenHorizontal)
	}
}

func TestInvalidationHashChangesOnStructuralEdit(t *testing.T) {
	a := New(0)
	w, p1 := a.NewWindow("win")
	h1 := w.InvalidationHash()
	w.AddPane(&Pane{ID: a.NewPaneID()}, true)
	h2 := w.InvalidationHash()
	if h1 == h2 {
		t.Fatalf("invalidation hash did not change after structural edit")
	}
	_ = p1
}

func TestFocusNextCyclic(t *testing.T) {
	a := New(0)
	w, p1 := a.NewWindow("win")
	p2 := &Pane{ID: a.NewPaneID()}
	w.AddPane(p2, true)

	w.Active = p1
	w.FocusNext()
	if w.Active != p2 {
		t.Fatalf("expected focus on p2")
	}
	w.FocusNext()
	if w.Active != p1 {
		t.Fatalf("expected cyclic wraparound to p1")
	}
}
