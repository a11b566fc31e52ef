package command

import (
	"github.com/rotoshake/imagecanvas-sub005/errors"
)

func init() {
	Register("node_move", newNodeMove)
}

// nodeMoveCmd moves one or more nodes to absolute positions. Consecutive
// node_move commands for the same node set from the same origin are
// mergeable: merging keeps this command's initial (pre-drag) positions and
// replaces only the final positions with the latest command's.
type nodeMoveCmd struct {
	p      params
	ids    []string
	origin Origin

	initialPositions map[string][2]float64 // for undo
	finalPositions   map[string][2]float64 // what Execute applies
}

func newNodeMove(p map[string]interface{}) (Command, error) {
	return &nodeMoveCmd{p: params(p)}, nil
}

func (c *nodeMoveCmd) Type() string { return "node_move" }

func (c *nodeMoveCmd) nodeIDs() []string {
	if ids := c.p.strSlice("nodeIds"); len(ids) > 0 {
		return ids
	}
	if id := c.p.str("nodeId"); id != "" {
		return []string{id}
	}
	return nil
}

func (c *nodeMoveCmd) targetPositions() [][2]float64 {
	if positions := c.p.posSlice("positions"); len(positions) > 0 {
		return positions
	}
	if pos, ok := c.p.pos("position"); ok {
		return [][2]float64{pos}
	}
	return nil
}

func (c *nodeMoveCmd) Validate(ctx *Context) ValidationResult {
	ids := c.nodeIDs()
	positions := c.targetPositions()
	if len(ids) == 0 {
		return Invalid("node_move: missing nodeId(s)")
	}
	if len(positions) != len(ids) {
		return Invalid("node_move: positions count %d does not match nodeIds count %d", len(positions), len(ids))
	}
	return Valid()
}

func (c *nodeMoveCmd) PrepareUndoData(ctx *Context) error {
	c.ids = c.nodeIDs()
	c.origin = ctx.Origin
	c.initialPositions = make(map[string][2]float64, len(c.ids))
	c.finalPositions = make(map[string][2]float64, len(c.ids))

	positions := c.targetPositions()
	for i, id := range c.ids {
		c.finalPositions[id] = positions[i]

		if ctx.InitialState != nil {
			if p, ok := ctx.InitialState.Positions[id]; ok {
				c.initialPositions[id] = p
				continue
			}
		}
		if n, err := ctx.Graph.GetNodeByID(id); err == nil {
			c.initialPositions[id] = [2]float64{n.X, n.Y}
		}
	}
	return nil
}

func (c *nodeMoveCmd) Execute(ctx *Context) (interface{}, error) {
	if c.ids == nil {
		c.ids = c.nodeIDs()
	}
	positions := c.finalPositions
	if positions == nil {
		positions = make(map[string][2]float64, len(c.ids))
		tp := c.targetPositions()
		for i, id := range c.ids {
			if i < len(tp) {
				positions[id] = tp[i]
			}
		}
	}

	moved := make([]string, 0, len(c.ids))
	var firstErr error
	for _, id := range c.ids {
		n, err := ctx.Graph.GetNodeByID(id)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		pos := positions[id]
		n.X, n.Y = pos[0], pos[1]
		ctx.Graph.Notify(n)
		moved = append(moved, id)
	}
	if len(moved) == 0 && len(c.ids) == 1 && firstErr != nil {
		return nil, errors.Mark(firstErr, errors.ErrNodeNotFound)
	}
	return moved, nil
}

func (c *nodeMoveCmd) Undo(ctx *Context) error {
	for _, id := range c.ids {
		n, err := ctx.Graph.GetNodeByID(id)
		if err != nil {
			continue // best-effort
		}
		if pos, ok := c.initialPositions[id]; ok {
			n.X, n.Y = pos[0], pos[1]
			ctx.Graph.Notify(n)
		}
	}
	return nil
}

// CanMergeWith merges with another node_move for the identical node set and
// the same origin, as long as nothing else has intervened.
func (c *nodeMoveCmd) CanMergeWith(other Command) bool {
	o, ok := other.(*nodeMoveCmd)
	if !ok {
		return false
	}
	if o.origin != c.origin {
		return false
	}
	return sameIDSet(c.ids, o.ids)
}

// MergeWith keeps this command's initial positions (the drag's starting
// point) and adopts the other command's final positions (the latest
// intermediate target), so the merged command undoes back to the true
// pre-interaction state while executing the most recent position.
func (c *nodeMoveCmd) MergeWith(other Command) Command {
	o := other.(*nodeMoveCmd)
	merged := &nodeMoveCmd{
		p:                c.p,
		ids:              c.ids,
		origin:           c.origin,
		initialPositions: c.initialPositions,
		finalPositions:   o.finalPositions,
	}
	return merged
}

func sameIDSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

// RemapID rewrites a temp id to its server-assigned real id across this
// command's stored ids and position maps, so an undo entry still sitting on
// the stack after ACK remains able to invert the operation.
func (c *nodeMoveCmd) RemapID(oldID, newID string) {
	for i, id := range c.ids {
		if id == oldID {
			c.ids[i] = newID
		}
	}
	if pos, ok := c.initialPositions[oldID]; ok {
		delete(c.initialPositions, oldID)
		c.initialPositions[newID] = pos
	}
	if pos, ok := c.finalPositions[oldID]; ok {
		delete(c.finalPositions, oldID)
		c.finalPositions[newID] = pos
	}
}

var _ Command = (*nodeMoveCmd)(nil)
