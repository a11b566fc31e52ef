package command

import (
	"github.com/rotoshake/imagecanvas-sub005/group"
	"github.com/rotoshake/imagecanvas-sub005/scene"
)

func init() {
	Register("group_create", newGroupCreate)
	Register("group_add_node", newGroupAddNode)
	Register("group_remove_node", newGroupRemoveNode)
	Register("group_move", newGroupMove)
	Register("group_resize", newGroupResize)
	Register("group_toggle_collapsed", newGroupToggleCollapsed)
	Register("group_update_style", newGroupUpdateStyle)
}

// groupCreateCmd creates a group node containing the given child ids. It is
// registered as an ordinary command like any other — it is the pipeline's
// optimistic-enabled table (see statesync) that treats group_create as
// authority-path-only, so no phantom group is ever shown locally before the
// server assigns the real group id.
type groupCreateCmd struct {
	p         params
	createdID string
}

func newGroupCreate(p map[string]interface{}) (Command, error) {
	return &groupCreateCmd{p: params(p)}, nil
}

func (c *groupCreateCmd) Type() string { return "group_create" }

func (c *groupCreateCmd) Validate(ctx *Context) ValidationResult {
	ids := c.p.strSlice("nodeIds")
	if len(ids) < 1 {
		return Invalid("group_create: requires at least one nodeId")
	}
	return Valid()
}

func (c *groupCreateCmd) PrepareUndoData(ctx *Context) error { return nil }

func (c *groupCreateCmd) Execute(ctx *Context) (interface{}, error) {
	g := scene.NewNode(scene.NodeGroup)
	if id := c.p.str("id"); id != "" {
		g.ID = id
	}
	for _, childID := range c.p.strSlice("nodeIds") {
		reparent(ctx.Graph, childID, g)
	}
	updateGroupBounds(ctx.Graph, g, 0)
	id := ctx.Graph.Add(g)
	c.createdID = id
	return id, nil
}

func (c *groupCreateCmd) Undo(ctx *Context) error {
	if c.createdID == "" {
		return nil
	}
	if g, err := ctx.Graph.GetNodeByID(c.createdID); err == nil {
		for childID := range g.ChildNodes {
			delete(g.ChildNodes, childID)
		}
	}
	ctx.Graph.Remove(c.createdID)
	return nil
}

func (c *groupCreateCmd) CanMergeWith(other Command) bool { return false }
func (c *groupCreateCmd) MergeWith(other Command) Command { return c }

var _ Command = (*groupCreateCmd)(nil)

// reparent moves a node into group g's ChildNodes set, removing it from any
// group it previously belonged to — a node belongs to at most one group.
func reparent(graph *scene.Graph, childID string, g *scene.Node) {
	for _, candidate := range graph.Nodes() {
		if candidate.Type == scene.NodeGroup && candidate.ChildNodes != nil {
			delete(candidate.ChildNodes, childID)
		}
	}
	if g.ChildNodes == nil {
		g.ChildNodes = make(map[string]struct{})
	}
	g.ChildNodes[childID] = struct{}{}
}

// defaultGroupPadding matches config.AlignmentConfig's default group_padding
// so group commands stay visually consistent with alignment-driven resizes
// even when no Config is threaded through the command catalog's factories.
const defaultGroupPadding = 12.0

// updateGroupBounds recomputes g's position/size to contain all of its
// children plus padding and, when present, a title bar allowance. Delegates
// to group.Manager, the same bounds logic the alignment engine uses for
// groups included in a selection.
func updateGroupBounds(graph *scene.Graph, g *scene.Node, titleBarHeight float64) {
	group.New(graph, defaultGroupPadding, titleBarHeight).UpdateBounds(g, false)
}

// groupAddNodeCmd adds a node to an existing group.
type groupAddNodeCmd struct {
	p             params
	groupID       string
	childID       string
	priorGroupID  string
	hadPriorGroup bool
}

func newGroupAddNode(p map[string]interface{}) (Command, error) {
	return &groupAddNodeCmd{p: params(p)}, nil
}

func (c *groupAddNodeCmd) Type() string { return "group_add_node" }

func (c *groupAddNodeCmd) Validate(ctx *Context) ValidationResult {
	if c.p.str("groupId") == "" || c.p.str("nodeId") == "" {
		return Invalid("group_add_node: requires groupId and nodeId")
	}
	return Valid()
}

func (c *groupAddNodeCmd) PrepareUndoData(ctx *Context) error {
	c.groupID = c.p.str("groupId")
	c.childID = c.p.str("nodeId")
	for _, candidate := range ctx.Graph.Nodes() {
		if candidate.Type == scene.NodeGroup && candidate.ChildNodes != nil {
			if _, ok := candidate.ChildNodes[c.childID]; ok {
				c.priorGroupID = candidate.ID
				c.hadPriorGroup = true
				break
			}
		}
	}
	return nil
}

func (c *groupAddNodeCmd) Execute(ctx *Context) (interface{}, error) {
	g, err := ctx.Graph.GetNodeByID(c.groupID)
	if err != nil {
		return nil, err
	}
	reparent(ctx.Graph, c.childID, g)
	updateGroupBounds(ctx.Graph, g, 0)
	ctx.Graph.Notify(g)
	return c.childID, nil
}

func (c *groupAddNodeCmd) Undo(ctx *Context) error {
	if g, err := ctx.Graph.GetNodeByID(c.groupID); err == nil && g.ChildNodes != nil {
		delete(g.ChildNodes, c.childID)
		updateGroupBounds(ctx.Graph, g, 0)
		ctx.Graph.Notify(g)
	}
	if c.hadPriorGroup {
		if prior, err := ctx.Graph.GetNodeByID(c.priorGroupID); err == nil {
			reparent(ctx.Graph, c.childID, prior)
			updateGroupBounds(ctx.Graph, prior, 0)
			ctx.Graph.Notify(prior)
		}
	}
	return nil
}

func (c *groupAddNodeCmd) CanMergeWith(other Command) bool { return false }
func (c *groupAddNodeCmd) MergeWith(other Command) Command { return c }

var _ Command = (*groupAddNodeCmd)(nil)

// groupRemoveNodeCmd removes a node from its group without deleting it.
type groupRemoveNodeCmd struct {
	p       params
	groupID string
	childID string
}

func newGroupRemoveNode(p map[string]interface{}) (Command, error) {
	return &groupRemoveNodeCmd{p: params(p)}, nil
}

func (c *groupRemoveNodeCmd) Type() string { return "group_remove_node" }

func (c *groupRemoveNodeCmd) Validate(ctx *Context) ValidationResult {
	if c.p.str("groupId") == "" || c.p.str("nodeId") == "" {
		return Invalid("group_remove_node: requires groupId and nodeId")
	}
	return Valid()
}

func (c *groupRemoveNodeCmd) PrepareUndoData(ctx *Context) error {
	c.groupID = c.p.str("groupId")
	c.childID = c.p.str("nodeId")
	return nil
}

func (c *groupRemoveNodeCmd) Execute(ctx *Context) (interface{}, error) {
	g, err := ctx.Graph.GetNodeByID(c.groupID)
	if err != nil {
		return nil, err
	}
	if g.ChildNodes != nil {
		delete(g.ChildNodes, c.childID)
	}
	updateGroupBounds(ctx.Graph, g, 0)
	ctx.Graph.Notify(g)
	return c.childID, nil
}

func (c *groupRemoveNodeCmd) Undo(ctx *Context) error {
	if g, err := ctx.Graph.GetNodeByID(c.groupID); err == nil {
		reparent(ctx.Graph, c.childID, g)
		updateGroupBounds(ctx.Graph, g, 0)
		ctx.Graph.Notify(g)
	}
	return nil
}

func (c *groupRemoveNodeCmd) CanMergeWith(other Command) bool { return false }
func (c *groupRemoveNodeCmd) MergeWith(other Command) Command { return c }

var _ Command = (*groupRemoveNodeCmd)(nil)

// groupMoveCmd moves a group and cascades the delta to every child.
type groupMoveCmd struct {
	p            params
	groupID      string
	priorPos     [2]float64
	priorChildren map[string][2]float64
	newPos       [2]float64
}

func newGroupMove(p map[string]interface{}) (Command, error) {
	return &groupMoveCmd{p: params(p)}, nil
}

func (c *groupMoveCmd) Type() string { return "group_move" }

func (c *groupMoveCmd) Validate(ctx *Context) ValidationResult {
	if c.p.str("groupId") == "" {
		return Invalid("group_move: missing groupId")
	}
	if _, ok := c.p.pos("position"); !ok {
		return Invalid("group_move: missing position")
	}
	return Valid()
}

func (c *groupMoveCmd) PrepareUndoData(ctx *Context) error {
	c.groupID = c.p.str("groupId")
	c.newPos, _ = c.p.pos("position")
	c.priorChildren = make(map[string][2]float64)

	g, err := ctx.Graph.GetNodeByID(c.groupID)
	if err != nil {
		return nil
	}
	c.priorPos = [2]float64{g.X, g.Y}
	for childID := range g.ChildNodes {
		if child, err := ctx.Graph.GetNodeByID(childID); err == nil {
			c.priorChildren[childID] = [2]float64{child.X, child.Y}
		}
	}
	return nil
}

func (c *groupMoveCmd) Execute(ctx *Context) (interface{}, error) {
	g, err := ctx.Graph.GetNodeByID(c.groupID)
	if err != nil {
		return nil, err
	}
	dx := c.newPos[0] - g.X
	dy := c.newPos[1] - g.Y
	g.X, g.Y = c.newPos[0], c.newPos[1]
	ctx.Graph.Notify(g)

	group.New(ctx.Graph, defaultGroupPadding, 0).MoveChildren(g, dx, dy)
	return c.groupID, nil
}

func (c *groupMoveCmd) Undo(ctx *Context) error {
	if g, err := ctx.Graph.GetNodeByID(c.groupID); err == nil {
		g.X, g.Y = c.priorPos[0], c.priorPos[1]
		ctx.Graph.Notify(g)
	}
	for childID, pos := range c.priorChildren {
		if child, err := ctx.Graph.GetNodeByID(childID); err == nil {
			child.X, child.Y = pos[0], pos[1]
			ctx.Graph.Notify(child)
		}
	}
	return nil
}

func (c *groupMoveCmd) CanMergeWith(other Command) bool {
	o, ok := other.(*groupMoveCmd)
	return ok && o.groupID == c.groupID
}

func (c *groupMoveCmd) MergeWith(other Command) Command {
	o := other.(*groupMoveCmd)
	return &groupMoveCmd{
		p:             c.p,
		groupID:       c.groupID,
		priorPos:      c.priorPos,
		priorChildren: c.priorChildren,
		newPos:        o.newPos,
	}
}

// RemapID rewrites a temp id to its server-assigned real id across this
// command's stored group/child ids.
func (c *groupMoveCmd) RemapID(oldID, newID string) {
	if c.groupID == oldID {
		c.groupID = newID
	}
	if pos, ok := c.priorChildren[oldID]; ok {
		delete(c.priorChildren, oldID)
		c.priorChildren[newID] = pos
	}
}

var _ Command = (*groupMoveCmd)(nil)

// groupResizeCmd resizes a group explicitly (used after an alignment
// interaction resizes a parent group not itself in the selection).
type groupResizeCmd struct {
	p        params
	groupID  string
	priorPos  [2]float64
	priorSize [2]float64
	newPos    [2]float64
	newSize   [2]float64
}

func newGroupResize(p map[string]interface{}) (Command, error) {
	return &groupResizeCmd{p: params(p)}, nil
}

func (c *groupResizeCmd) Type() string { return "group_resize" }

func (c *groupResizeCmd) Validate(ctx *Context) ValidationResult {
	if c.p.str("groupId") == "" {
		return Invalid("group_resize: missing groupId")
	}
	return Valid()
}

func (c *groupResizeCmd) PrepareUndoData(ctx *Context) error {
	c.groupID = c.p.str("groupId")
	c.newPos, _ = c.p.pos("position")
	c.newSize, _ = c.p.pos("size")
	if g, err := ctx.Graph.GetNodeByID(c.groupID); err == nil {
		c.priorPos = [2]float64{g.X, g.Y}
		c.priorSize = [2]float64{g.Width, g.Height}
	}
	return nil
}

func (c *groupResizeCmd) Execute(ctx *Context) (interface{}, error) {
	g, err := ctx.Graph.GetNodeByID(c.groupID)
	if err != nil {
		return nil, err
	}
	g.X, g.Y = c.newPos[0], c.newPos[1]
	g.Width, g.Height = c.newSize[0], c.newSize[1]
	ctx.Graph.Notify(g)
	return c.groupID, nil
}

func (c *groupResizeCmd) Undo(ctx *Context) error {
	if g, err := ctx.Graph.GetNodeByID(c.groupID); err == nil {
		g.X, g.Y = c.priorPos[0], c.priorPos[1]
		g.Width, g.Height = c.priorSize[0], c.priorSize[1]
		ctx.Graph.Notify(g)
	}
	return nil
}

func (c *groupResizeCmd) CanMergeWith(other Command) bool { return false }
func (c *groupResizeCmd) MergeWith(other Command) Command { return c }

var _ Command = (*groupResizeCmd)(nil)

// groupToggleCollapsedCmd toggles a group's collapsed display state.
type groupToggleCollapsedCmd struct {
	p          params
	groupID    string
	priorState bool
}

func newGroupToggleCollapsed(p map[string]interface{}) (Command, error) {
	return &groupToggleCollapsedCmd{p: params(p)}, nil
}

func (c *groupToggleCollapsedCmd) Type() string { return "group_toggle_collapsed" }

func (c *groupToggleCollapsedCmd) Validate(ctx *Context) ValidationResult {
	if c.p.str("groupId") == "" {
		return Invalid("group_toggle_collapsed: missing groupId")
	}
	return Valid()
}

func (c *groupToggleCollapsedCmd) PrepareUndoData(ctx *Context) error {
	c.groupID = c.p.str("groupId")
	if g, err := ctx.Graph.GetNodeByID(c.groupID); err == nil {
		c.priorState = g.IsCollapsed
	}
	return nil
}

func (c *groupToggleCollapsedCmd) Execute(ctx *Context) (interface{}, error) {
	g, err := ctx.Graph.GetNodeByID(c.groupID)
	if err != nil {
		return nil, err
	}
	if collapsed, ok := c.p.boolVal("collapsed"); ok {
		g.IsCollapsed = collapsed
	} else {
		g.IsCollapsed = !g.IsCollapsed
	}
	ctx.Graph.Notify(g)
	return c.groupID, nil
}

func (c *groupToggleCollapsedCmd) Undo(ctx *Context) error {
	if g, err := ctx.Graph.GetNodeByID(c.groupID); err == nil {
		g.IsCollapsed = c.priorState
		ctx.Graph.Notify(g)
	}
	return nil
}

func (c *groupToggleCollapsedCmd) CanMergeWith(other Command) bool { return false }
func (c *groupToggleCollapsedCmd) MergeWith(other Command) Command { return c }

var _ Command = (*groupToggleCollapsedCmd)(nil)

// groupUpdateStyleCmd merges style fields onto a group.
type groupUpdateStyleCmd struct {
	p          params
	groupID    string
	priorStyle map[string]interface{}
}

func newGroupUpdateStyle(p map[string]interface{}) (Command, error) {
	return &groupUpdateStyleCmd{p: params(p)}, nil
}

func (c *groupUpdateStyleCmd) Type() string { return "group_update_style" }

func (c *groupUpdateStyleCmd) Validate(ctx *Context) ValidationResult {
	if c.p.str("groupId") == "" {
		return Invalid("group_update_style: missing groupId")
	}
	return Valid()
}

func (c *groupUpdateStyleCmd) PrepareUndoData(ctx *Context) error {
	c.groupID = c.p.str("groupId")
	if g, err := ctx.Graph.GetNodeByID(c.groupID); err == nil {
		c.priorStyle = make(map[string]interface{}, len(g.Style))
		for k, v := range g.Style {
			c.priorStyle[k] = v
		}
	}
	return nil
}

func (c *groupUpdateStyleCmd) Execute(ctx *Context) (interface{}, error) {
	g, err := ctx.Graph.GetNodeByID(c.groupID)
	if err != nil {
		return nil, err
	}
	if g.Style == nil {
		g.Style = make(map[string]interface{})
	}
	for k, v := range c.p.anyMap("style") {
		g.Style[k] = v
	}
	ctx.Graph.Notify(g)
	return c.groupID, nil
}

func (c *groupUpdateStyleCmd) Undo(ctx *Context) error {
	if g, err := ctx.Graph.GetNodeByID(c.groupID); err == nil {
		g.Style = c.priorStyle
		ctx.Graph.Notify(g)
	}
	return nil
}

func (c *groupUpdateStyleCmd) CanMergeWith(other Command) bool { return false }
func (c *groupUpdateStyleCmd) MergeWith(other Command) Command { return c }

var _ Command = (*groupUpdateStyleCmd)(nil)
