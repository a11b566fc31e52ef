package command

func init() {
	Register("node_resize", newNodeResize)
}

// nodeResizeCmd resizes one or more nodes. For a rotated node resized about
// its local origin without an explicit target position, the position is
// recomputed to preserve the node's center. aspectRatio tracks w/h after
// every resize; if the node's lockedAspectRatio flag is set, lockedAspectRatio
// is updated too. Remote origin skips the renderer's onResize hook (not
// modeled here) to avoid clobbering non-uniform scale applied by the
// authoritative side.
type nodeResizeCmd struct {
	p   params
	ids []string

	priorSizes     map[string][2]float64
	priorPositions map[string][2]float64
	newSizes       map[string][2]float64
	newPositions   map[string][2]float64
}

func newNodeResize(p map[string]interface{}) (Command, error) {
	return &nodeResizeCmd{p: params(p)}, nil
}

func (c *nodeResizeCmd) Type() string { return "node_resize" }

func (c *nodeResizeCmd) Validate(ctx *Context) ValidationResult {
	ids, err := requireNodeIDs(c.p)
	if err != nil {
		return Invalid("node_resize: %v", err)
	}
	sizes := c.p.posSlice("sizes")
	if len(sizes) != len(ids) {
		return Invalid("node_resize: sizes count %d does not match nodeIds count %d", len(sizes), len(ids))
	}
	return Valid()
}

func (c *nodeResizeCmd) PrepareUndoData(ctx *Context) error {
	ids, _ := requireNodeIDs(c.p)
	c.ids = ids
	c.priorSizes = make(map[string][2]float64, len(ids))
	c.priorPositions = make(map[string][2]float64, len(ids))
	c.newSizes = make(map[string][2]float64, len(ids))
	c.newPositions = make(map[string][2]float64, len(ids))

	sizes := c.p.posSlice("sizes")
	positions := c.p.posSlice("positions")

	for i, id := range ids {
		c.newSizes[id] = sizes[i]
		if i < len(positions) {
			c.newPositions[id] = positions[i]
		}

		n, err := ctx.Graph.GetNodeByID(id)
		if err != nil {
			continue
		}
		c.priorSizes[id] = [2]float64{n.Width, n.Height}
		c.priorPositions[id] = [2]float64{n.X, n.Y}

		if i >= len(positions) && n.Rotation != 0 {
			// Preserve center when no explicit position is given for a
			// rotated node: recompute top-left from the old center and new size.
			cx := n.X + n.Width/2
			cy := n.Y + n.Height/2
			w, h := sizes[i][0], sizes[i][1]
			c.newPositions[id] = [2]float64{cx - w/2, cy - h/2}
		}
	}
	return nil
}

func (c *nodeResizeCmd) Execute(ctx *Context) (interface{}, error) {
	resized := make([]string, 0, len(c.ids))
	for _, id := range c.ids {
		n, err := ctx.Graph.GetNodeByID(id)
		if err != nil {
			continue
		}
		size := c.newSizes[id]
		n.Width, n.Height = size[0], size[1]
		if pos, ok := c.newPositions[id]; ok {
			n.X, n.Y = pos[0], pos[1]
		}
		if n.Height != 0 {
			n.AspectRatio = n.Width / n.Height
			if n.Flags["lockedAspectRatio"] {
				n.LockedAspectRatio = n.AspectRatio
			}
		}
		ctx.Graph.Notify(n)
		resized = append(resized, id)
	}
	return resized, nil
}

func (c *nodeResizeCmd) Undo(ctx *Context) error {
	for _, id := range c.ids {
		n, err := ctx.Graph.GetNodeByID(id)
		if err != nil {
			continue
		}
		if size, ok := c.priorSizes[id]; ok {
			n.Width, n.Height = size[0], size[1]
		}
		if pos, ok := c.priorPositions[id]; ok {
			n.X, n.Y = pos[0], pos[1]
		}
		ctx.Graph.Notify(n)
	}
	return nil
}

func (c *nodeResizeCmd) CanMergeWith(other Command) bool { return false }
func (c *nodeResizeCmd) MergeWith(other Command) Command { return c }

var _ Command = (*nodeResizeCmd)(nil)
