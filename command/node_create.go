package command

import (
	"github.com/rotoshake/imagecanvas-sub005/scene"
)

func init() {
	Register("node_create", newNodeCreate)
}

// nodeCreateCmd creates a node of a given type. If id is omitted, the graph
// assigns a monotonic id on Execute, and for a local-origin create Execute
// itself marks the node IsTemporary so reconciliation treats that id as a
// temp id until the server's ACK remaps it. Image/video upload is never launched here — the
// UploadCoordinator owns that independently of command execution.
type nodeCreateCmd struct {
	p        params
	createdID string
}

func newNodeCreate(p map[string]interface{}) (Command, error) {
	return &nodeCreateCmd{p: params(p)}, nil
}

func (c *nodeCreateCmd) Type() string { return "node_create" }

func (c *nodeCreateCmd) Validate(ctx *Context) ValidationResult {
	t := c.p.str("type")
	switch scene.NodeType(t) {
	case scene.NodeImage, scene.NodeVideo, scene.NodeText, scene.NodeShape, scene.NodeGroup:
		return Valid()
	default:
		return Invalid("node_create: unsupported node type %q", t)
	}
}

func (c *nodeCreateCmd) PrepareUndoData(ctx *Context) error { return nil }

func (c *nodeCreateCmd) Execute(ctx *Context) (interface{}, error) {
	n := scene.NewNode(scene.NodeType(c.p.str("type")))
	if id := c.p.str("id"); id != "" {
		n.ID = id
	}
	if pos, ok := c.p.pos("pos"); ok {
		n.X, n.Y = pos[0], pos[1]
	}
	if size, ok := c.p.pos("size"); ok {
		n.Width, n.Height = size[0], size[1]
	}
	if rot, ok := c.p.f64("rotation"); ok {
		n.Rotation = rot
	}
	if ar, ok := c.p.f64("aspectRatio"); ok {
		n.AspectRatio = ar
		n.OriginalAspect = ar
	}
	n.Title = c.p.str("title")
	n.MergeFlags(c.p.boolMap("flags"))
	for k, v := range c.p.anyMap("properties") {
		n.Properties[k] = v
	}

	if ctx.Origin == OriginLocal && n.ID == "" {
		n.IsTemporary = true
	}
	if n.Type == scene.NodeImage || n.Type == scene.NodeVideo {
		n.LoadingState = scene.LoadingIdle
	}

	id := ctx.Graph.Add(n)
	c.createdID = id
	return id, nil
}

func (c *nodeCreateCmd) Undo(ctx *Context) error {
	if c.createdID == "" {
		return nil
	}
	ctx.Graph.Remove(c.createdID)
	return nil
}

func (c *nodeCreateCmd) CanMergeWith(other Command) bool { return false }
func (c *nodeCreateCmd) MergeWith(other Command) Command { return c }

var _ Command = (*nodeCreateCmd)(nil)
