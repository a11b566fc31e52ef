package command

import "github.com/rotoshake/imagecanvas-sub005/errors"

func init() {
	Register("video_toggle", newVideoToggle)
}

// videoToggleCmd toggles or explicitly sets a video node's paused state. A
// rejected autoplay (browser policy) is tolerated: the command still
// records the intended state for undo even if the underlying play() call
// would fail, since that failure belongs to the rendering layer, not to
// state convergence.
type videoToggleCmd struct {
	p         params
	nodeID    string
	priorPaused bool
	newPaused   bool
}

func newVideoToggle(p map[string]interface{}) (Command, error) {
	return &videoToggleCmd{p: params(p)}, nil
}

func (c *videoToggleCmd) Type() string { return "video_toggle" }

func (c *videoToggleCmd) Validate(ctx *Context) ValidationResult {
	if c.p.str("nodeId") == "" {
		return Invalid("video_toggle: missing nodeId")
	}
	return Valid()
}

func (c *videoToggleCmd) PrepareUndoData(ctx *Context) error {
	c.nodeID = c.p.str("nodeId")
	n, err := ctx.Graph.GetNodeByID(c.nodeID)
	if err != nil {
		return nil
	}
	c.priorPaused = n.Paused
	if paused, ok := c.p.boolVal("paused"); ok {
		c.newPaused = paused
	} else {
		c.newPaused = !n.Paused
	}
	return nil
}

func (c *videoToggleCmd) Execute(ctx *Context) (interface{}, error) {
	n, err := ctx.Graph.GetNodeByID(c.nodeID)
	if err != nil {
		return nil, errors.Mark(err, errors.ErrNodeNotFound)
	}
	n.Paused = c.newPaused
	ctx.Graph.Notify(n)
	return c.nodeID, nil
}

func (c *videoToggleCmd) Undo(ctx *Context) error {
	n, err := ctx.Graph.GetNodeByID(c.nodeID)
	if err != nil {
		return nil
	}
	n.Paused = c.priorPaused
	ctx.Graph.Notify(n)
	return nil
}

func (c *videoToggleCmd) CanMergeWith(other Command) bool { return false }
func (c *videoToggleCmd) MergeWith(other Command) Command { return c }

var _ Command = (*videoToggleCmd)(nil)
