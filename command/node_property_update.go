package command

// directProperties lists the keys treated as direct properties — title and
// the color-correction set. Only title maps to a Node field (Node.Title); the
// color-correction keys are stored in the properties map like any nested
// property.
var directProperties = map[string]bool{
	"title":      true,
	"brightness": true,
	"contrast":   true,
	"saturation": true,
	"hue":        true,
}

func init() {
	Register("node_property_update", newNodePropertyUpdate)
	Register("node_batch_property_update", newNodeBatchPropertyUpdate)
}

// nodePropertyUpdateCmd sets a single property (direct or nested) across one
// or more nodes, invoking an optional per-node updateProperty hook after the
// raw value is applied.
type nodePropertyUpdateCmd struct {
	p          params
	ids        []string
	property   string
	value      interface{}
	hook       func(n interface{}, property string, value interface{})
	priorValue map[string]interface{}
	priorSet   map[string]bool
}

func newNodePropertyUpdate(p map[string]interface{}) (Command, error) {
	return &nodePropertyUpdateCmd{p: params(p)}, nil
}

func (c *nodePropertyUpdateCmd) Type() string { return "node_property_update" }

// SetUpdateHook installs an optional hook invoked after a property is
// applied to a node, mirroring commands that need variant-specific
// side-effects (e.g. an image node re-deriving a thumbnail).
func (c *nodePropertyUpdateCmd) SetUpdateHook(hook func(n interface{}, property string, value interface{})) {
	c.hook = hook
}

func (c *nodePropertyUpdateCmd) Validate(ctx *Context) ValidationResult {
	if _, err := requireNodeIDs(c.p); err != nil {
		return Invalid("node_property_update: %v", err)
	}
	if c.p.str("property") == "" {
		return Invalid("node_property_update: missing property")
	}
	return Valid()
}

func (c *nodePropertyUpdateCmd) PrepareUndoData(ctx *Context) error {
	ids, _ := requireNodeIDs(c.p)
	c.ids = ids
	c.property = c.p.str("property")
	c.value = c.p["value"]
	c.priorValue = make(map[string]interface{}, len(ids))
	c.priorSet = make(map[string]bool, len(ids))

	for _, id := range ids {
		n, err := ctx.Graph.GetNodeByID(id)
		if err != nil {
			continue
		}
		if directProperties[c.property] {
			if c.property == "title" {
				c.priorValue[id] = n.Title
			} else {
				v, ok := n.Properties[c.property]
				c.priorValue[id] = v
				c.priorSet[id] = ok
			}
		} else {
			v, ok := n.Properties[c.property]
			c.priorValue[id] = v
			c.priorSet[id] = ok
		}
	}
	return nil
}

func (c *nodePropertyUpdateCmd) apply(ctx *Context, id, property string, value interface{}) {
	n, err := ctx.Graph.GetNodeByID(id)
	if err != nil {
		return
	}
	if property == "title" {
		n.Title, _ = value.(string)
	} else {
		if n.Properties == nil {
			n.Properties = make(map[string]interface{})
		}
		n.Properties[property] = value
	}
	if c.hook != nil {
		c.hook(n, property, value)
	}
	ctx.Graph.Notify(n)
}

func (c *nodePropertyUpdateCmd) Execute(ctx *Context) (interface{}, error) {
	for _, id := range c.ids {
		c.apply(ctx, id, c.property, c.value)
	}
	return c.ids, nil
}

func (c *nodePropertyUpdateCmd) Undo(ctx *Context) error {
	for _, id := range c.ids {
		if !c.priorSet[id] && c.property != "title" {
			if n, err := ctx.Graph.GetNodeByID(id); err == nil {
				delete(n.Properties, c.property)
				ctx.Graph.Notify(n)
			}
			continue
		}
		c.apply(ctx, id, c.property, c.priorValue[id])
	}
	return nil
}

func (c *nodePropertyUpdateCmd) CanMergeWith(other Command) bool { return false }
func (c *nodePropertyUpdateCmd) MergeWith(other Command) Command { return c }

var _ Command = (*nodePropertyUpdateCmd)(nil)

// nodeBatchPropertyUpdateCmd applies a list of {nodeId, property, value}
// updates atomically: either all are recorded for undo and applied, or (on
// validation failure) none are.
type nodeBatchPropertyUpdateCmd struct {
	p     params
	items []*nodePropertyUpdateCmd
}

func newNodeBatchPropertyUpdate(p map[string]interface{}) (Command, error) {
	return &nodeBatchPropertyUpdateCmd{p: params(p)}, nil
}

func (c *nodeBatchPropertyUpdateCmd) Type() string { return "node_batch_property_update" }

func (c *nodeBatchPropertyUpdateCmd) updates() []map[string]interface{} {
	raw, ok := c.p["updates"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

func (c *nodeBatchPropertyUpdateCmd) Validate(ctx *Context) ValidationResult {
	updates := c.updates()
	if len(updates) == 0 {
		return Invalid("node_batch_property_update: updates is empty")
	}
	for _, u := range updates {
		p := params(u)
		if _, err := requireNodeIDs(p); err != nil {
			return Invalid("node_batch_property_update: %v", err)
		}
		if p.str("property") == "" {
			return Invalid("node_batch_property_update: missing property in one update")
		}
	}
	return Valid()
}

func (c *nodeBatchPropertyUpdateCmd) PrepareUndoData(ctx *Context) error {
	for _, u := range c.updates() {
		item := &nodePropertyUpdateCmd{p: params(u)}
		if err := item.PrepareUndoData(ctx); err != nil {
			return err
		}
		c.items = append(c.items, item)
	}
	return nil
}

func (c *nodeBatchPropertyUpdateCmd) Execute(ctx *Context) (interface{}, error) {
	affected := make([]string, 0, len(c.items))
	for _, item := range c.items {
		if _, err := item.Execute(ctx); err != nil {
			continue
		}
		affected = append(affected, item.ids...)
	}
	return affected, nil
}

func (c *nodeBatchPropertyUpdateCmd) Undo(ctx *Context) error {
	for i := len(c.items) - 1; i >= 0; i-- {
		_ = c.items[i].Undo(ctx)
	}
	return nil
}

func (c *nodeBatchPropertyUpdateCmd) CanMergeWith(other Command) bool { return false }
func (c *nodeBatchPropertyUpdateCmd) MergeWith(other Command) Command { return c }

var _ Command = (*nodeBatchPropertyUpdateCmd)(nil)
