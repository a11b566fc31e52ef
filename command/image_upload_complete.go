package command

import "github.com/rotoshake/imagecanvas-sub005/scene"

func init() {
	Register("image_upload_complete", newImageUploadComplete)
}

// imageUploadCompleteCmd is the side-effecting op the UploadCoordinator
// broadcasts once an upload finishes: every node sharing the hash gains the
// server URL. It commutes with position/size edits and is idempotent —
// applying it twice for the same hash/url is harmless.
type imageUploadCompleteCmd struct {
	p            params
	hash         string
	serverURL    string
	serverFile   string
	priorURLs    map[string]string
	priorHadURL  map[string]bool
	affectedIDs  []string
}

func newImageUploadComplete(p map[string]interface{}) (Command, error) {
	return &imageUploadCompleteCmd{p: params(p)}, nil
}

func (c *imageUploadCompleteCmd) Type() string { return "image_upload_complete" }

func (c *imageUploadCompleteCmd) serverFilename() string {
	if v := c.p.str("serverFilename"); v != "" {
		return v
	}
	// The server is inconsistent about this field's name; accept either.
	return c.p.str("filename")
}

func (c *imageUploadCompleteCmd) Validate(ctx *Context) ValidationResult {
	if c.p.str("hash") == "" {
		return Invalid("image_upload_complete: missing hash")
	}
	if c.p.str("serverUrl") == "" {
		return Invalid("image_upload_complete: missing serverUrl")
	}
	return Valid()
}

func (c *imageUploadCompleteCmd) PrepareUndoData(ctx *Context) error {
	c.hash = c.p.str("hash")
	c.serverURL = c.p.str("serverUrl")
	c.serverFile = c.serverFilename()
	c.priorURLs = make(map[string]string)
	c.priorHadURL = make(map[string]bool)

	for _, n := range ctx.Graph.Nodes() {
		if n.Type != scene.NodeImage || n.Hash() != c.hash {
			continue
		}
		if url := n.ServerURL(); url != "" {
			c.priorURLs[n.ID] = url
			c.priorHadURL[n.ID] = true
		}
	}
	return nil
}

func (c *imageUploadCompleteCmd) Execute(ctx *Context) (interface{}, error) {
	c.affectedIDs = nil
	for _, n := range ctx.Graph.Nodes() {
		if n.Type != scene.NodeImage || n.Hash() != c.hash {
			continue
		}
		n.SetServerURL(c.serverURL, c.serverFile)
		n.LoadingState = scene.LoadingLoaded
		ctx.Graph.Notify(n)
		c.affectedIDs = append(c.affectedIDs, n.ID)
	}
	return c.affectedIDs, nil
}

func (c *imageUploadCompleteCmd) Undo(ctx *Context) error {
	for _, id := range c.affectedIDs {
		n, err := ctx.Graph.GetNodeByID(id)
		if err != nil {
			continue
		}
		if c.priorHadURL[id] {
			n.Properties["serverUrl"] = c.priorURLs[id]
		} else {
			delete(n.Properties, "serverUrl")
			delete(n.Properties, "serverFilename")
		}
		ctx.Graph.Notify(n)
	}
	return nil
}

func (c *imageUploadCompleteCmd) CanMergeWith(other Command) bool { return false }
func (c *imageUploadCompleteCmd) MergeWith(other Command) Command { return c }

var _ Command = (*imageUploadCompleteCmd)(nil)
