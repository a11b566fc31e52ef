package command

func init() {
	Register("node_reset", newNodeReset)
}

// nodeResetCmd resets rotation to 0 and/or aspect ratio to the node's
// OriginalAspect for a set of nodes. Accepts either the explicit
// resetRotation/resetAspectRatio flags or the legacy resetType string
// ("rotation", "aspectRatio", "both").
type nodeResetCmd struct {
	p   params
	ids []string

	priorRotations    map[string]float64
	priorAspectRatios map[string]float64
	resetRotation     bool
	resetAspectRatio  bool
}

func newNodeReset(p map[string]interface{}) (Command, error) {
	return &nodeResetCmd{p: params(p)}, nil
}

func (c *nodeResetCmd) Type() string { return "node_reset" }

func (c *nodeResetCmd) resolveFlags() (bool, bool) {
	resetRotation, hasR := c.p.boolVal("resetRotation")
	resetAspect, hasA := c.p.boolVal("resetAspectRatio")
	if hasR || hasA {
		return resetRotation, resetAspect
	}
	switch c.p.str("resetType") {
	case "rotation":
		return true, false
	case "aspectRatio":
		return false, true
	case "both":
		return true, true
	default:
		return true, true
	}
}

func (c *nodeResetCmd) Validate(ctx *Context) ValidationResult {
	if _, err := requireNodeIDs(c.p); err != nil {
		return Invalid("node_reset: %v", err)
	}
	return Valid()
}

func (c *nodeResetCmd) PrepareUndoData(ctx *Context) error {
	ids, _ := requireNodeIDs(c.p)
	c.ids = ids
	c.resetRotation, c.resetAspectRatio = c.resolveFlags()
	c.priorRotations = make(map[string]float64, len(ids))
	c.priorAspectRatios = make(map[string]float64, len(ids))

	for _, id := range ids {
		if n, err := ctx.Graph.GetNodeByID(id); err == nil {
			c.priorRotations[id] = n.Rotation
			c.priorAspectRatios[id] = n.AspectRatio
		}
	}
	return nil
}

func (c *nodeResetCmd) Execute(ctx *Context) (interface{}, error) {
	affected := make([]string, 0, len(c.ids))
	for _, id := range c.ids {
		n, err := ctx.Graph.GetNodeByID(id)
		if err != nil {
			continue
		}
		if c.resetRotation {
			n.Rotation = 0
		}
		if c.resetAspectRatio {
			n.AspectRatio = n.OriginalAspect
		}
		ctx.Graph.Notify(n)
		affected = append(affected, id)
	}
	return affected, nil
}

func (c *nodeResetCmd) Undo(ctx *Context) error {
	for _, id := range c.ids {
		n, err := ctx.Graph.GetNodeByID(id)
		if err != nil {
			continue
		}
		if c.resetRotation {
			n.Rotation = c.priorRotations[id]
		}
		if c.resetAspectRatio {
			n.AspectRatio = c.priorAspectRatios[id]
		}
		ctx.Graph.Notify(n)
	}
	return nil
}

func (c *nodeResetCmd) CanMergeWith(other Command) bool { return false }
func (c *nodeResetCmd) MergeWith(other Command) Command { return c }

var _ Command = (*nodeResetCmd)(nil)
