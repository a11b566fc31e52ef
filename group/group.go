// Package group provides the bounds/membership logic shared by the group_*
// commands and the alignment engine: recomputing a group's box from its
// children, cascading a group move to its children, and picking the nearest
// group to auto-parent a loose node into during a combined alignment.
package group

import (
	"sync"
	"time"

	"github.com/rotoshake/imagecanvas-sub005/scene"
)

// protectionWindow is how long UpdateBounds refuses to run for a group right
// after an alignment interaction finishes, so the animator's own writes
// (which already account for group bounds) aren't immediately overwritten by
// a bounds recompute racing the same frame.
const protectionWindow = time.Second

// Manager owns bounds recomputation and child cascading for group nodes. It
// holds no membership state of its own — scene.Node.ChildNodes is the single
// source of truth — but tracks the short post-alignment protection window.
type Manager struct {
	mu             sync.Mutex
	graph          *scene.Graph
	padding        float64
	titleBarHeight float64
	protectedUntil map[string]time.Time
}

// New creates a Manager. padding and titleBarHeight are normally sourced
// from config.AlignmentConfig (GroupPadding, TitleBarHeight).
func New(graph *scene.Graph, padding, titleBarHeight float64) *Manager {
	return &Manager{
		graph:          graph,
		padding:        padding,
		titleBarHeight: titleBarHeight,
		protectedUntil: make(map[string]time.Time),
	}
}

// UpdateBounds recomputes g's position/size to contain all of its children
// plus padding and a title bar allowance, unless g is within its post-
// alignment protection window. When expandOnly is true the box only grows
// (useful mid-drag, before the interaction commits, to avoid jitter as
// children cross in and out of their target positions).
func (m *Manager) UpdateBounds(g *scene.Node, expandOnly bool) {
	if m.IsProtected(g.ID) {
		return
	}
	if g == nil || g.ChildNodes == nil {
		return
	}

	first := true
	var minX, minY, maxX, maxY float64
	for childID := range g.ChildNodes {
		child, err := m.graph.GetNodeByID(childID)
		if err != nil {
			continue
		}
		x0, y0 := child.X, child.Y
		x1, y1 := child.X+child.Width, child.Y+child.Height
		if first {
			minX, minY, maxX, maxY = x0, y0, x1, y1
			first = false
			continue
		}
		if x0 < minX {
			minX = x0
		}
		if y0 < minY {
			minY = y0
		}
		if x1 > maxX {
			maxX = x1
		}
		if y1 > maxY {
			maxY = y1
		}
	}
	if first {
		return
	}

	newX := minX - m.padding
	newY := minY - m.padding - m.titleBarHeight
	newW := (maxX - minX) + m.padding*2
	newH := (maxY - minY) + m.padding*2 + m.titleBarHeight

	if expandOnly {
		curX1, curY1 := g.X+g.Width, g.Y+g.Height
		newX1, newY1 := newX+newW, newY+newH
		if newX > g.X {
			newX = g.X
		}
		if newY > g.Y {
			newY = g.Y
		}
		if newX1 < curX1 {
			newW = curX1 - newX
		}
		if newY1 < curY1 {
			newH = curY1 - newY
		}
	}

	g.X, g.Y, g.Width, g.Height = newX, newY, newW, newH
	m.graph.Notify(g)
}

// MoveChildren cascades a (dx, dy) delta to every child of g, notifying the
// graph for each. Used by group_move's Execute/Undo.
func (m *Manager) MoveChildren(g *scene.Node, dx, dy float64) {
	if g == nil {
		return
	}
	for childID := range g.ChildNodes {
		child, err := m.graph.GetNodeByID(childID)
		if err != nil {
			continue
		}
		child.X += dx
		child.Y += dy
		m.graph.Notify(child)
	}
}

// NearestGroup finds the group (from candidates) whose box is closest to
// node's center, for auto-parenting a loose node into a combined alignment
// selection. Returns nil if candidates is empty.
func NearestGroup(node *scene.Node, candidates []*scene.Node) *scene.Node {
	if node == nil || len(candidates) == 0 {
		return nil
	}
	cx := node.X + node.Width/2
	cy := node.Y + node.Height/2

	var best *scene.Node
	bestDist := -1.0
	for _, g := range candidates {
		if g == nil || g.Type != scene.NodeGroup {
			continue
		}
		gcx := g.X + g.Width/2
		gcy := g.Y + g.Height/2
		dx := gcx - cx
		dy := gcy - cy
		dist := dx*dx + dy*dy
		if bestDist < 0 || dist < bestDist {
			best = g
			bestDist = dist
		}
	}
	return best
}

// MarkAlignmentCompleted starts the protection window for groupID: the next
// second of UpdateBounds calls against it are skipped, letting the
// alignment engine's own size targets stand without a competing recompute.
func (m *Manager) MarkAlignmentCompleted(groupID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.protectedUntil[groupID] = time.Now().Add(protectionWindow)
}

// IsProtected reports whether groupID is still within its post-alignment
// protection window.
func (m *Manager) IsProtected(groupID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.protectedUntil[groupID]
	if !ok {
		return false
	}
	if time.Now().After(until) {
		delete(m.protectedUntil, groupID)
		return false
	}
	return true
}
