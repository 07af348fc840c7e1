package server

import "wmux/internal/arrangement"

// Rect is a pane's rectangle within a window's terminal area, in
// 0-indexed cells. Adjacent panes are separated by a single-cell
// border; the borders are taken off a split's extent before the rest is
// divided by weight, and the last child takes any rounding remainder.
type Rect struct {
	X, Y, W, H int
}

// Layout computes each pane's rectangle for a window's current split
// tree, given the total area available to it (the client's terminal
// size minus the status bar line). Zoom collapses the layout to a
// single full-area rectangle for the active pane.
func Layout(w *arrangement.Window, width, height int) map[*arrangement.Pane]Rect {
	out := make(map[*arrangement.Pane]Rect)
	if width <= 0 || height <= 0 {
		return out
	}
	if w.Zoom && w.Active != nil {
		out[w.Active] = Rect{X: 0, Y: 0, W: width, H: height}
		return out
	}
	layoutSplit(w.Root, 0, 0, width, height, out)
	return out
}

func layoutSplit(s *arrangement.Split, x, y, w, h int, out map[*arrangement.Pane]Rect) {
	n := len(s.Children)
	if n == 0 {
		return
	}
	borders := n - 1
	total := 0
	for _, wt := range s.Weights {
		total += wt
	}
	if total <= 0 {
		total = n
	}

	switch s.Orientation {
	case arrangement.Vertical: // side by side, split width
		avail := w - borders
		if avail < n {
			avail = n
		}
		offset := x
		for i, child := range s.Children {
			cw := avail * s.Weights[i] / total
			if cw < 1 {
				cw = 1
			}
			if i == n-1 {
				cw = x + w - offset
			}
			placeChild(child, offset, y, cw, h, out)
			offset += cw + 1
		}
	default: // Horizontal: stacked top to bottom, split height
		avail := h - borders
		if avail < n {
			avail = n
		}
		offset := y
		for i, child := range s.Children {
			ch := avail * s.Weights[i] / total
			if ch < 1 {
				ch = 1
			}
			if i == n-1 {
				ch = y + h - offset
			}
			placeChild(child, x, offset, w, ch, out)
			offset += ch + 1
		}
	}
}

func placeChild(n arrangement.Node, x, y, w, h int, out map[*arrangement.Pane]Rect) {
	switch v := n.(type) {
	case *arrangement.Pane:
		out[v] = Rect{X: x, Y: y, W: w, H: h}
	case *arrangement.Split:
		layoutSplit(v, x, y, w, h, out)
	}
}

// NeighborInDirection returns the pane geometrically adjacent to from
// in dir, chosen as the pane whose rectangle starts closest beyond
// from's edge on that axis, breaking ties by cross-axis center
// distance. Returns nil if from has no neighbor in that direction.
func NeighborInDirection(rects map[*arrangement.Pane]Rect, from *arrangement.Pane, dir arrangement.Direction) *arrangement.Pane {
	src, ok := rects[from]
	if !ok {
		return nil
	}
	var best *arrangement.Pane
	bestPrimary := 1 << 30
	bestCross := 1 << 30
	srcCrossCenter := src.Y + src.H/2
	srcHorizCenter := src.X + src.W/2

	for p, r := range rects {
		if p == from {
			continue
		}
		var primary int
		var cross int
		var inDir bool
		switch dir {
		case arrangement.Left:
			inDir = r.X+r.W <= src.X
			primary = src.X - (r.X + r.W)
			cross = abs((r.Y + r.H/2) - srcCrossCenter)
		case arrangement.Right:
			inDir = r.X >= src.X+src.W
			primary = r.X - (src.X + src.W)
			cross = abs((r.Y + r.H/2) - srcCrossCenter)
		case arrangement.Up:
			inDir = r.Y+r.H <= src.Y
			primary = src.Y - (r.Y + r.H)
			cross = abs((r.X + r.W/2) - srcHorizCenter)
		case arrangement.Down:
			inDir = r.Y >= src.Y+src.H
			primary = r.Y - (src.Y + src.H)
			cross = abs((r.X + r.W/2) - srcHorizCenter)
		}
		if !inDir {
			continue
		}
		if primary < bestPrimary || (primary == bestPrimary && cross < bestCross) {
			best, bestPrimary, bestCross = p, primary, cross
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
