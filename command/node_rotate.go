package command

func init() {
	Register("node_rotate", newNodeRotate)
}

// nodeRotateCmd rotates one or more nodes, in radians. positions is
// optional and supplied when the rotation pivots about a shared center
// (multi-select rotate).
type nodeRotateCmd struct {
	p   params
	ids []string

	priorRotations map[string]float64
	priorPositions map[string][2]float64
	newRotations   map[string]float64
	newPositions   map[string][2]float64
}

func newNodeRotate(p map[string]interface{}) (Command, error) {
	return &nodeRotateCmd{p: params(p)}, nil
}

func (c *nodeRotateCmd) Type() string { return "node_rotate" }

func (c *nodeRotateCmd) rotations() []float64 {
	if v, ok := c.p["rotations"].([]interface{}); ok {
		out := make([]float64, 0, len(v))
		for _, item := range v {
			f, _ := toFloat(item)
			out = append(out, f)
		}
		return out
	}
	if r, ok := c.p.f64("rotation"); ok {
		return []float64{r}
	}
	return nil
}

func (c *nodeRotateCmd) Validate(ctx *Context) ValidationResult {
	ids, err := requireNodeIDs(c.p)
	if err != nil {
		return Invalid("node_rotate: %v", err)
	}
	rotations := c.rotations()
	if len(rotations) != len(ids) {
		return Invalid("node_rotate: rotations count %d does not match nodeIds count %d", len(rotations), len(ids))
	}
	return Valid()
}

func (c *nodeRotateCmd) PrepareUndoData(ctx *Context) error {
	ids, _ := requireNodeIDs(c.p)
	c.ids = ids
	rotations := c.rotations()
	positions := c.p.posSlice("positions")

	c.priorRotations = make(map[string]float64, len(ids))
	c.priorPositions = make(map[string][2]float64, len(ids))
	c.newRotations = make(map[string]float64, len(ids))
	c.newPositions = make(map[string][2]float64, len(ids))

	for i, id := range ids {
		c.newRotations[id] = rotations[i]
		if i < len(positions) {
			c.newPositions[id] = positions[i]
		}
		if n, err := ctx.Graph.GetNodeByID(id); err == nil {
			c.priorRotations[id] = n.Rotation
			c.priorPositions[id] = [2]float64{n.X, n.Y}
		}
	}
	return nil
}

func (c *nodeRotateCmd) Execute(ctx *Context) (interface{}, error) {
	rotated := make([]string, 0, len(c.ids))
	for _, id := range c.ids {
		n, err := ctx.Graph.GetNodeByID(id)
		if err != nil {
			continue
		}
		n.Rotation = c.newRotations[id]
		if pos, ok := c.newPositions[id]; ok {
			n.X, n.Y = pos[0], pos[1]
		}
		ctx.Graph.Notify(n)
		rotated = append(rotated, id)
	}
	return rotated, nil
}

func (c *nodeRotateCmd) Undo(ctx *Context) error {
	for _, id := range c.ids {
		n, err := ctx.Graph.GetNodeByID(id)
		if err != nil {
			continue
		}
		n.Rotation = c.priorRotations[id]
		if pos, ok := c.priorPositions[id]; ok {
			n.X, n.Y = pos[0], pos[1]
		}
		ctx.Graph.Notify(n)
	}
	return nil
}

func (c *nodeRotateCmd) CanMergeWith(other Command) bool { return false }
func (c *nodeRotateCmd) MergeWith(other Command) Command { return c }

var _ Command = (*nodeRotateCmd)(nil)
