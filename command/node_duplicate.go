package command

import (
	"github.com/rotoshake/imagecanvas-sub005/scene"
)

func init() {
	Register("node_duplicate", newNodeDuplicate)
	Register("node_paste", newNodePaste)
}

// nodeDuplicateCmd creates copies of existing nodes (nodeIds form, e.g.
// Ctrl+D) or installs already-built copies (nodeData form, e.g. an alt-drag
// that built the visual duplicate before the command ever runs). Every
// duplicate is tagged with OperationID so the reconciliation layer can
// recognize the remote echo of this same operation and avoid re-adding it
// (see StateSyncManager's duplicate-reconciliation rule).
type nodeDuplicateCmd struct {
	p           params
	createdIDs  []string
	operationID string
}

func newNodeDuplicate(p map[string]interface{}) (Command, error) {
	return &nodeDuplicateCmd{p: params(p)}, nil
}

func (c *nodeDuplicateCmd) Type() string { return "node_duplicate" }

func (c *nodeDuplicateCmd) hasExplicitData() bool {
	_, ok := c.p["nodeData"].([]interface{})
	return ok
}

func (c *nodeDuplicateCmd) Validate(ctx *Context) ValidationResult {
	if c.hasExplicitData() {
		return Valid()
	}
	if _, err := requireNodeIDs(c.p); err != nil {
		return Invalid("node_duplicate: %v", err)
	}
	return Valid()
}

func (c *nodeDuplicateCmd) PrepareUndoData(ctx *Context) error {
	c.operationID = c.p.str("operationId")
	return nil
}

func (c *nodeDuplicateCmd) offset() (float64, float64) {
	off, ok := c.p.pos("offset")
	if !ok {
		return 20, 20
	}
	return off[0], off[1]
}

func (c *nodeDuplicateCmd) Execute(ctx *Context) (interface{}, error) {
	dx, dy := c.offset()
	c.createdIDs = nil

	if c.hasExplicitData() {
		// Alt-drag: the duplicates are fully specified (already carry their
		// own position); the command installs them verbatim rather than
		// deriving a position from an original.
		raw, _ := c.p["nodeData"].([]interface{})
		for _, item := range raw {
			data, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			n := nodeFromData(data)
			if ctx.Origin == OriginLocal {
				n.OperationID = c.operationID
				if n.ID == "" {
					n.IsTemporary = true
				}
			}
			id := ctx.Graph.Add(n)
			c.createdIDs = append(c.createdIDs, id)
		}
		return c.createdIDs, nil
	}

	ids, _ := requireNodeIDs(c.p)
	for _, id := range ids {
		src, err := ctx.Graph.GetNodeByID(id)
		if err != nil {
			continue
		}
		dup := src.Clone()
		dup.ID = ""
		dup.X += dx
		dup.Y += dy
		if ctx.Origin == OriginLocal {
			dup.OperationID = c.operationID
			dup.IsTemporary = true
		}
		newID := ctx.Graph.Add(dup)
		c.createdIDs = append(c.createdIDs, newID)
	}
	return c.createdIDs, nil
}

func (c *nodeDuplicateCmd) Undo(ctx *Context) error {
	for _, id := range c.createdIDs {
		ctx.Graph.Remove(id)
	}
	return nil
}

func (c *nodeDuplicateCmd) CanMergeWith(other Command) bool { return false }
func (c *nodeDuplicateCmd) MergeWith(other Command) Command { return c }

var _ Command = (*nodeDuplicateCmd)(nil)

func nodeFromData(data map[string]interface{}) *scene.Node {
	p := params(data)
	n := scene.NewNode(scene.NodeType(p.str("type")))
	if id := p.str("id"); id != "" {
		n.ID = id
	}
	if pos, ok := p.pos("pos"); ok {
		n.X, n.Y = pos[0], pos[1]
	}
	if size, ok := p.pos("size"); ok {
		n.Width, n.Height = size[0], size[1]
	}
	if rot, ok := p.f64("rotation"); ok {
		n.Rotation = rot
	}
	n.Title = p.str("title")
	n.MergeFlags(p.boolMap("flags"))
	for k, v := range p.anyMap("properties") {
		n.Properties[k] = v
	}
	return n
}

// nodePasteCmd pastes clipboard nodes at a target position, preserving the
// clipboard's centroid so a multi-node paste keeps relative layout.
type nodePasteCmd struct {
	p          params
	createdIDs []string
}

func newNodePaste(p map[string]interface{}) (Command, error) {
	return &nodePasteCmd{p: params(p)}, nil
}

func (c *nodePasteCmd) Type() string { return "node_paste" }

func (c *nodePasteCmd) Validate(ctx *Context) ValidationResult {
	raw, ok := c.p["nodeData"].([]interface{})
	if !ok || len(raw) == 0 {
		return Invalid("node_paste: nodeData is empty")
	}
	if _, ok := c.p.pos("targetPosition"); !ok {
		return Invalid("node_paste: missing targetPosition")
	}
	return Valid()
}

func (c *nodePasteCmd) PrepareUndoData(ctx *Context) error { return nil }

func (c *nodePasteCmd) Execute(ctx *Context) (interface{}, error) {
	raw, _ := c.p["nodeData"].([]interface{})
	target, _ := c.p.pos("targetPosition")

	centroidX, centroidY := clipboardCentroid(raw)
	dx, dy := target[0]-centroidX, target[1]-centroidY

	c.createdIDs = nil
	for _, item := range raw {
		data, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		n := nodeFromData(data)
		n.ID = ""
		n.X += dx
		n.Y += dy
		if ctx.Origin == OriginLocal {
			n.IsTemporary = true
		}
		id := ctx.Graph.Add(n)
		c.createdIDs = append(c.createdIDs, id)
	}
	return c.createdIDs, nil
}

func (c *nodePasteCmd) Undo(ctx *Context) error {
	for _, id := range c.createdIDs {
		ctx.Graph.Remove(id)
	}
	return nil
}

func (c *nodePasteCmd) CanMergeWith(other Command) bool { return false }
func (c *nodePasteCmd) MergeWith(other Command) Command { return c }

var _ Command = (*nodePasteCmd)(nil)

func clipboardCentroid(raw []interface{}) (float64, float64) {
	var sumX, sumY float64
	n := 0
	for _, item := range raw {
		data, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		p := params(data)
		if pos, ok := p.pos("pos"); ok {
			sumX += pos[0]
			sumY += pos[1]
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return sumX / float64(n), sumY / float64(n)
}
