package command

func init() {
	Register("node_align", newNodeAlign)
}

// nodeAlignCmd writes target positions (and optionally sizes, for groups
// whose bounds change) computed externally by the alignment engine. The
// command itself performs no physics — it is the commit step of an
// alignment interaction. Neither this command nor the pipeline checks for a
// running local alignment animation: a node_align applied while one is in
// progress writes its targets and clears the animation fields like any
// other.
type nodeAlignCmd struct {
	p    params
	ids  []string
	axis string

	priorPositions map[string][2]float64
	priorSizes     map[string][2]float64
	newPositions   map[string][2]float64
	newSizes       map[string][2]float64
}

func newNodeAlign(p map[string]interface{}) (Command, error) {
	return &nodeAlignCmd{p: params(p)}, nil
}

func (c *nodeAlignCmd) Type() string { return "node_align" }

func (c *nodeAlignCmd) Validate(ctx *Context) ValidationResult {
	ids, err := requireNodeIDs(c.p)
	if err != nil {
		return Invalid("node_align: %v", err)
	}
	positions := c.p.posSlice("positions")
	if len(positions) != len(ids) {
		return Invalid("node_align: positions count %d does not match nodeIds count %d", len(positions), len(ids))
	}
	axis := c.p.str("axis")
	if axis != "horizontal" && axis != "vertical" && axis != "grid" {
		return Invalid("node_align: unsupported axis %q", axis)
	}
	return Valid()
}

func (c *nodeAlignCmd) PrepareUndoData(ctx *Context) error {
	ids, _ := requireNodeIDs(c.p)
	c.ids = ids
	c.axis = c.p.str("axis")

	positions := c.p.posSlice("positions")
	sizes := c.p.posSlice("sizes")

	c.priorPositions = make(map[string][2]float64, len(ids))
	c.priorSizes = make(map[string][2]float64, len(ids))
	c.newPositions = make(map[string][2]float64, len(ids))
	c.newSizes = make(map[string][2]float64, len(ids))

	for i, id := range ids {
		c.newPositions[id] = positions[i]
		if i < len(sizes) {
			c.newSizes[id] = sizes[i]
		}
		if n, err := ctx.Graph.GetNodeByID(id); err == nil {
			c.priorPositions[id] = [2]float64{n.X, n.Y}
			c.priorSizes[id] = [2]float64{n.Width, n.Height}
		}
	}
	return nil
}

func (c *nodeAlignCmd) Execute(ctx *Context) (interface{}, error) {
	aligned := make([]string, 0, len(c.ids))
	for _, id := range c.ids {
		n, err := ctx.Graph.GetNodeByID(id)
		if err != nil {
			continue
		}
		pos := c.newPositions[id]
		n.X, n.Y = pos[0], pos[1]
		if size, ok := c.newSizes[id]; ok {
			n.Width, n.Height = size[0], size[1]
		}
		// Clear transient animation scratch fields on commit; the renderer
		// must never read a stale animated position after this point.
		n.HasAnimPos = false
		n.HasGridAnimPos = false
		ctx.Graph.Notify(n)
		aligned = append(aligned, id)
	}
	return aligned, nil
}

func (c *nodeAlignCmd) Undo(ctx *Context) error {
	for _, id := range c.ids {
		n, err := ctx.Graph.GetNodeByID(id)
		if err != nil {
			continue
		}
		if pos, ok := c.priorPositions[id]; ok {
			n.X, n.Y = pos[0], pos[1]
		}
		if size, ok := c.priorSizes[id]; ok {
			n.Width, n.Height = size[0], size[1]
		}
		ctx.Graph.Notify(n)
	}
	return nil
}

func (c *nodeAlignCmd) CanMergeWith(other Command) bool { return false }
func (c *nodeAlignCmd) MergeWith(other Command) Command { return c }

var _ Command = (*nodeAlignCmd)(nil)
