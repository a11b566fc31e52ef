// Package align implements the spring-physics gesture engine that turns a
// drag or grid-drop gesture into committed node positions: linear
// horizontal/vertical auto-align with reorder mode, and grid align. Physics
// runs on a fixed timestep accumulator; the engine never touches the
// network itself, only the scene graph's transient animation fields until
// the interaction commits through the undo/pipeline path.
package align

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rotoshake/imagecanvas-sub005/command"
	"github.com/rotoshake/imagecanvas-sub005/config"
	"github.com/rotoshake/imagecanvas-sub005/errors"
	"github.com/rotoshake/imagecanvas-sub005/group"
	"github.com/rotoshake/imagecanvas-sub005/scene"
	"github.com/rotoshake/imagecanvas-sub005/undo"
)

// Phase is the linear auto-align state machine's current state.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseArmed     Phase = "armed"
	PhaseCommitted Phase = "committed"
	PhaseReorder   Phase = "reorder"
	PhaseFinished  Phase = "finished"
)

const (
	AxisHorizontal = "horizontal"
	AxisVertical   = "vertical"
	AxisGrid       = "grid"
)

const fixedTimestep = 1.0 / 60.0
const maxSubsteps = 4

// Dispatcher is the subset of pipeline.Pipeline the engine needs: sending
// the finishing node_align/group_resize commands.
type Dispatcher interface {
	Dispatch(typeName string, params map[string]interface{}) (interface{}, error)
	ApplyInteractionResult(cmd command.Command, params map[string]interface{}) error
}

// body is one node's spring-physics state. Position/velocity cover x and y;
// width/height springing is only active for group bodies.
type body struct {
	node *scene.Node

	targetX, targetY float64
	posX, posY       float64
	velX, velY       float64
	prevX, prevY     float64

	isGroup                  bool
	targetW, targetH         float64
	posW, posH               float64
	velW, velH               float64
}

// Engine drives one alignment interaction at a time.
type Engine struct {
	mu sync.Mutex

	graph      *scene.Graph
	groups     *group.Manager
	undoMgr    *undo.Manager
	dispatcher Dispatcher
	cfg        config.AlignmentConfig

	phase       Phase
	axis        string
	reorderMode bool
	reversed    bool
	masterOrder []string
	selection   map[string]bool

	bodies       map[string]*body
	batchCursor  int
	settled      bool

	gridActive  bool
	gridColumns int
	gridOriginX float64
	gridOriginY float64
	cellWidth   float64
	cellHeight  float64
}

// New creates an Engine bound to one graph/group-manager/undo-manager/
// dispatcher quadruple and a snapshot of alignment constants.
func New(graph *scene.Graph, groups *group.Manager, undoMgr *undo.Manager, dispatcher Dispatcher, cfg config.AlignmentConfig) *Engine {
	return &Engine{
		graph:      graph,
		groups:     groups,
		undoMgr:    undoMgr,
		dispatcher: dispatcher,
		cfg:        cfg,
		phase:      PhaseIdle,
	}
}

// Phase returns the engine's current state.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Arm begins a linear alignment interaction: at least two nodes must be
// selected. Opens the undo interaction snapshot.
func (e *Engine) Arm(nodeIDs []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseIdle {
		return errors.Mark(errors.New("align: interaction already in progress"), errors.ErrValidation)
	}
	if len(nodeIDs) < 2 {
		return errors.Mark(errors.New("align: requires at least two selected nodes"), errors.ErrValidation)
	}

	nodes, err := e.resolveNodes(nodeIDs)
	if err != nil {
		return err
	}

	e.bodies = make(map[string]*body, len(nodes))
	e.selection = make(map[string]bool, len(nodes))
	for _, n := range nodes {
		b := &body{node: n, posX: n.X, posY: n.Y, targetX: n.X, targetY: n.Y, prevX: n.X, prevY: n.Y}
		if n.Type == scene.NodeGroup {
			b.isGroup = true
			b.posW, b.posH = n.Width, n.Height
			b.targetW, b.targetH = n.Width, n.Height
		}
		e.bodies[n.ID] = b
		e.selection[n.ID] = true
	}

	e.undoMgr.BeginInteraction(nodes)
	e.phase = PhaseArmed
	e.masterOrder = nil
	e.axis = ""
	e.reorderMode = false
	e.reversed = false
	e.gridActive = false
	e.settled = false
	return nil
}

// TriggerAutoAlign commits the interaction to axis (horizontal or
// vertical), freezing the master order on the first call. If the nodes
// are already aligned on that axis within tolerance, reorder mode is
// entered instead of a fresh line commit.
func (e *Engine) TriggerAutoAlign(axis string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if axis != AxisHorizontal && axis != AxisVertical {
		return errors.Mark(errors.Newf("align: unsupported axis %q", axis), errors.ErrValidation)
	}
	if e.phase != PhaseArmed && e.phase != PhaseCommitted && e.phase != PhaseReorder {
		return errors.Mark(errors.New("align: trigger requires an armed interaction"), errors.ErrValidation)
	}

	if e.masterOrder == nil {
		e.masterOrder = e.freezeMasterOrder()
	}

	e.axis = axis
	e.reorderMode = e.alreadyAligned(axis)
	e.computeLinearTargets()

	if e.reorderMode {
		e.phase = PhaseReorder
	} else {
		e.phase = PhaseCommitted
	}
	return nil
}

// SetReorderReversed flips the master order used for target computation
// while in reorder mode — the engine-side commit of a continuous pointer
// drag direction, which this headless engine does not itself track.
func (e *Engine) SetReorderReversed(reversed bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseReorder {
		return errors.Mark(errors.New("align: not in reorder mode"), errors.ErrValidation)
	}
	if e.reversed == reversed {
		return nil
	}
	e.reversed = reversed
	e.computeLinearTargets()
	return nil
}

// freezeMasterOrder sorts the selection's node ids by the dominant axis of
// the selection's bounding box (the wider dimension sorts by x, else by y).
func (e *Engine) freezeMasterOrder() []string {
	var minX, minY, maxX, maxY float64
	first := true
	for _, b := range e.bodies {
		x0, y0 := b.posX, b.posY
		x1, y1 := b.posX+b.node.Width, b.posY+b.node.Height
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
	byX := (maxX - minX) >= (maxY - minY)

	ids := make([]string, 0, len(e.bodies))
	for id := range e.bodies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		bi, bj := e.bodies[ids[i]], e.bodies[ids[j]]
		if byX {
			return bi.posX < bj.posX
		}
		return bi.posY < bj.posY
	})
	return ids
}

// alreadyAligned reports whether the selection's nodes already share a line
// perpendicular to axis within tolerance (horizontal align means they
// already sit on one row — their y coordinates agree).
func (e *Engine) alreadyAligned(axis string) bool {
	var ref float64
	first := true
	for _, id := range e.masterOrder {
		b := e.bodies[id]
		v := b.posY
		if axis == AxisVertical {
			v = b.posX
		}
		if first {
			ref = v
			first = false
			continue
		}
		if math.Abs(v-ref) > e.cfg.Tolerance {
			return false
		}
	}
	return true
}

// computeLinearTargets lays out the frozen master order (or its reverse, in
// reorder mode) end to end along axis with a fixed margin gap, preserving
// the line coordinate of the first node of the frozen master order (also
// when the walk is reversed).
func (e *Engine) computeLinearTargets() {
	order := e.masterOrder
	if e.reversed {
		order = make([]string, len(e.masterOrder))
		for i, id := range e.masterOrder {
			order[len(order)-1-i] = id
		}
	}
	if len(order) == 0 {
		return
	}

	margin := e.cfg.DefaultMargin
	// Origin and line are anchored to the frozen master order's first (i.e.
	// leftmost/topmost) node regardless of reversal, so reorder mode
	// preserves the selection's leftmost x / line y per the spec's reorder
	// scenario while still walking the reversed order for slot assignment.
	origin := e.bodies[e.masterOrder[0]]
	cursor := origin.posX
	line := origin.posY
	if e.axis == AxisVertical {
		cursor = origin.posY
		line = origin.posX
	}

	for _, id := range order {
		b := e.bodies[id]
		if e.axis == AxisHorizontal {
			b.targetX = cursor
			b.targetY = line
			cursor += b.node.Width + margin
		} else {
			b.targetX = line
			b.targetY = cursor
			cursor += b.node.Height + margin
		}
	}
}

// StartGridAlign arms a grid-align interaction and computes initial cell
// assignment for dragWidth.
func (e *Engine) StartGridAlign(nodeIDs []string, dragWidth float64) error {
	if err := e.Arm(nodeIDs); err != nil {
		return err
	}
	e.mu.Lock()
	e.gridActive = true
	e.phase = PhaseCommitted
	e.axis = AxisGrid
	e.mu.Unlock()
	return e.UpdateGridDrag(dragWidth)
}

// UpdateGridDrag recomputes column count and per-node target cell as the
// drag width changes; callable repeatedly (the "dragging -> dragging"
// transition).
func (e *Engine) UpdateGridDrag(dragWidth float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.gridActive || e.phase != PhaseCommitted {
		return errors.Mark(errors.New("align: grid drag requires an active grid interaction"), errors.ErrValidation)
	}

	margin := e.cfg.DefaultMargin
	var maxW, maxH, minX, minY float64
	first := true
	for _, b := range e.bodies {
		if b.node.Width > maxW {
			maxW = b.node.Width
		}
		if b.node.Height > maxH {
			maxH = b.node.Height
		}
		if first || b.posX < minX {
			minX = b.posX
		}
		if first || b.posY < minY {
			minY = b.posY
		}
		first = false
	}
	cellW := maxW + margin
	cellH := maxH + margin
	if cellW <= 0 {
		cellW = margin
	}

	cols := int(math.Round(dragWidth / cellW))
	if cols < 1 {
		cols = 1
	}

	e.cellWidth, e.cellHeight = cellW, cellH
	e.gridColumns = cols
	e.gridOriginX, e.gridOriginY = minX, minY

	e.assignGridCellsLocked()
	return nil
}

// assignGridCellsLocked assigns each body to the nearest free cell in
// row-major order, avoiding trajectory crossings by greedy nearest-
// neighbour rather than a fixed id-to-index mapping.
func (e *Engine) assignGridCellsLocked() {
	ids := make([]string, 0, len(e.bodies))
	for id := range e.bodies {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := (len(ids) + e.gridColumns - 1) / e.gridColumns
	type cell struct{ x, y float64 }
	cells := make([]cell, 0, rows*e.gridColumns)
	for r := 0; r < rows; r++ {
		for c := 0; c < e.gridColumns; c++ {
			cells = append(cells, cell{
				x: e.gridOriginX + float64(c)*e.cellWidth,
				y: e.gridOriginY + float64(r)*e.cellHeight,
			})
		}
	}

	used := make([]bool, len(cells))
	for _, id := range ids {
		b := e.bodies[id]
		best := -1
		bestDist := math.MaxFloat64
		for i, c := range cells {
			if used[i] {
				continue
			}
			dx := c.x - b.posX
			dy := c.y - b.posY
			dist := dx*dx + dy*dy
			if dist < bestDist {
				bestDist = dist
				best = i
			}
		}
		if best < 0 {
			continue
		}
		used[best] = true
		b.targetX = cells[best].x
		b.targetY = cells[best].y
	}
}

// Tick advances the spring-physics simulation by dt (real elapsed seconds),
// consuming it in fixed substeps capped at maxSubsteps, and writes
// interpolated values into the graph's transient animation fields. Returns
// true once every body has converged on its target.
func (e *Engine) Tick(dt float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseCommitted && e.phase != PhaseReorder {
		return true
	}

	k, d, threshold := e.cfg.SpringK, e.cfg.SpringD, e.cfg.AnimationThreshold
	largeScale := len(e.bodies) >= e.cfg.LargeScaleThreshold
	if largeScale {
		k, d, threshold = e.cfg.LargeScaleSpringK, e.cfg.LargeScaleSpringD, e.cfg.LargeScaleThresholdX
	}

	dtFixed := fixedTimestep * e.cfg.TimeScale
	if dtFixed <= 0 {
		dtFixed = fixedTimestep
	}

	scaled := dt * e.cfg.TimeScale
	substeps := int(scaled / dtFixed)
	if substeps > maxSubsteps {
		substeps = maxSubsteps
	}
	residual := scaled - float64(substeps)*dtFixed

	ids := e.orderedBodyIDsLocked()
	deadline := time.Now().Add(time.Duration(e.cfg.FrameBudgetMS * float64(time.Millisecond)))

	processed := 0
	start := e.batchCursor
	allSettled := true
	for i := 0; i < len(ids); i++ {
		idx := (start + i) % len(ids)
		b := e.bodies[ids[idx]]

		b.prevX, b.prevY = b.posX, b.posY
		for s := 0; s < substeps; s++ {
			b.velX += (k*(b.targetX-b.posX) - d*b.velX) * dtFixed
			b.posX += b.velX * dtFixed
			b.velY += (k*(b.targetY-b.posY) - d*b.velY) * dtFixed
			b.posY += b.velY * dtFixed
			if b.isGroup {
				b.velW += (k*(b.targetW-b.posW) - d*b.velW) * dtFixed
				b.posW += b.velW * dtFixed
				b.velH += (k*(b.targetH-b.posH) - d*b.velH) * dtFixed
				b.posH += b.velH * dtFixed
			}
		}

		alpha := 0.0
		if dtFixed > 0 {
			alpha = residual / dtFixed
		}
		if alpha < 0 {
			alpha = 0
		}
		if alpha > 1 {
			alpha = 1
		}
		animX := b.prevX + (b.posX-b.prevX)*alpha
		animY := b.prevY + (b.posY-b.prevY)*alpha

		if e.gridActive {
			b.node.GridAnimX, b.node.GridAnimY = animX, animY
			b.node.HasGridAnimPos = true
		} else {
			b.node.AnimX, b.node.AnimY = animX, animY
			b.node.HasAnimPos = true
		}
		if b.isGroup {
			b.node.Width, b.node.Height = b.posW, b.posH
		}
		e.graph.Notify(b.node)

		if math.Abs(b.targetX-b.posX) > threshold || math.Abs(b.targetY-b.posY) > threshold ||
			math.Abs(b.velX) > threshold || math.Abs(b.velY) > threshold {
			allSettled = false
		}

		processed++
		if largeScale && processed >= e.cfg.MaxAnimationBatchSize {
			e.batchCursor = (idx + 1) % len(ids)
			allSettled = false
			break
		}
		if largeScale && time.Now().After(deadline) {
			e.batchCursor = (idx + 1) % len(ids)
			allSettled = false
			break
		}
	}
	if processed >= len(ids) {
		e.batchCursor = 0
	}

	e.settled = allSettled
	return allSettled
}

func (e *Engine) orderedBodyIDsLocked() []string {
	ids := make([]string, 0, len(e.bodies))
	for id := range e.bodies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Cancel discards the in-progress interaction without committing anything,
// clearing both the undo snapshot and every body's transient animation
// fields.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, b := range e.bodies {
		b.node.HasAnimPos = false
		b.node.HasGridAnimPos = false
	}
	e.undoMgr.CancelInteraction()
	e.resetLocked()
}

func (e *Engine) resetLocked() {
	e.phase = PhaseIdle
	e.bodies = nil
	e.selection = nil
	e.masterOrder = nil
	e.axis = ""
	e.reorderMode = false
	e.reversed = false
	e.gridActive = false
	e.batchCursor = 0
	e.settled = false
}

// Finish commits the interaction: target positions if the animation is
// still running, actual positions if it already converged. Pushes a single
// node_align command through the undo/pipeline path and resizes any parent
// group not itself in the selection whose children moved.
func (e *Engine) Finish() (map[string]interface{}, error) {
	e.mu.Lock()
	if e.phase == PhaseIdle {
		e.mu.Unlock()
		return nil, nil
	}

	ids := e.orderedBodyIDsLocked()
	positions := make([]interface{}, 0, len(ids))
	var sizes []interface{}
	hasGroupResize := false
	for _, id := range ids {
		b := e.bodies[id]
		x, y := b.targetX, b.targetY
		if e.settled {
			x, y = b.posX, b.posY
		}
		positions = append(positions, []interface{}{x, y})
		if b.isGroup {
			hasGroupResize = true
		}
	}
	if hasGroupResize {
		sizes = make([]interface{}, 0, len(ids))
		for _, id := range ids {
			b := e.bodies[id]
			w, h := b.targetW, b.targetH
			if e.settled {
				w, h = b.posW, b.posH
			}
			sizes = append(sizes, []interface{}{w, h})
		}
	}

	axis := e.axis
	idList := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		idList = append(idList, id)
	}

	params := map[string]interface{}{
		"nodeIds":   idList,
		"positions": positions,
		"axis":      axis,
	}
	if sizes != nil {
		params["sizes"] = sizes
	}

	selection := e.selection
	e.resetLocked()
	e.mu.Unlock()

	cmd, err := e.undoMgr.EndInteraction("node_align", params)
	if err != nil {
		return nil, err
	}
	if cmd == nil {
		return nil, nil
	}

	ctx := &command.Context{Graph: e.graph, Origin: command.OriginLocal}
	if _, err := cmd.Execute(ctx); err != nil {
		return nil, err
	}
	if err := e.dispatcher.ApplyInteractionResult(cmd, params); err != nil {
		return nil, err
	}

	e.resizeOrphanedParentGroups(selection)
	return params, nil
}

// resizeOrphanedParentGroups finds groups not in the moved selection whose
// children were moved by this interaction, recomputes their bounds, and
// dispatches a group_resize for each so peers converge on the new box.
func (e *Engine) resizeOrphanedParentGroups(selection map[string]bool) {
	for _, n := range e.graph.Nodes() {
		if n.Type != scene.NodeGroup || selection[n.ID] || n.ChildNodes == nil {
			continue
		}
		touched := false
		for childID := range n.ChildNodes {
			if selection[childID] {
				touched = true
				break
			}
		}
		if !touched {
			continue
		}
		e.groups.UpdateBounds(n, false)
		_, _ = e.dispatcher.Dispatch("group_resize", map[string]interface{}{
			"groupId":  n.ID,
			"position": []interface{}{n.X, n.Y},
			"size":     []interface{}{n.Width, n.Height},
		})
		e.groups.MarkAlignmentCompleted(n.ID)
	}
}

func (e *Engine) resolveNodes(ids []string) ([]*scene.Node, error) {
	nodes := make([]*scene.Node, 0, len(ids))
	for _, id := range ids {
		n, err := e.graph.GetNodeByID(id)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}
