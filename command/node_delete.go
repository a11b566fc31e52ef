package command

import (
	"github.com/rotoshake/imagecanvas-sub005/errors"
	"github.com/rotoshake/imagecanvas-sub005/scene"
)

func init() {
	Register("node_delete", newNodeDelete)
}

// largePayloadThresholdBytes bounds the stored undo snapshot for deleted
// media nodes. Configurable in production via config.UndoConfig; a package
// default covers callers (and tests) that construct commands directly.
var largePayloadThresholdBytes = 100 * 1024

// SetLargePayloadThreshold overrides the byte threshold above which a
// deleted node's data: URL is stripped from its undo snapshot.
func SetLargePayloadThreshold(n int) { largePayloadThresholdBytes = n }

// deletedSnapshot is the sum-type undo payload for one deleted node:
// exactly one of the three optimization tiers is populated, bounding memory
// for large inline media without losing restorability when a server URL or
// cache entry already exists.
type deletedSnapshot struct {
	Full *scene.Node // kept verbatim when small, or when no data: URL exists

	OptimizedServerURL string // serverUrl was present; data: URL dropped
	OptimizedHash      string // cache entry exists for this hash instead
	optimized          bool

	Stripped         bool // payload exceeded threshold and had to be cut
	StrippedHash     string
	StrippedFilename string
	hadDataURL       bool
}

type nodeDeleteCmd struct {
	p         params
	snapshots map[string]*deletedSnapshot // nodeID -> snapshot, in deletion order
	order     []string
}

func newNodeDelete(p map[string]interface{}) (Command, error) {
	return &nodeDeleteCmd{p: params(p), snapshots: make(map[string]*deletedSnapshot)}, nil
}

func (c *nodeDeleteCmd) Type() string { return "node_delete" }

func (c *nodeDeleteCmd) Validate(ctx *Context) ValidationResult {
	ids, err := requireNodeIDs(c.p)
	if err != nil {
		return Invalid("node_delete: %v", err)
	}
	if len(ids) == 0 {
		return Invalid("node_delete: nodeIds is empty")
	}
	return Valid()
}

func (c *nodeDeleteCmd) PrepareUndoData(ctx *Context) error {
	ids, _ := requireNodeIDs(c.p)
	for _, id := range ids {
		n, err := ctx.Graph.GetNodeByID(id)
		if err != nil {
			// Multi-node ops proceed with partial success; missing nodes
			// are simply skipped rather than aborting the whole delete.
			continue
		}
		c.snapshots[id] = snapshotForUndo(n)
		c.order = append(c.order, id)
	}
	return nil
}

func snapshotForUndo(n *scene.Node) *deletedSnapshot {
	hasDataURL := n.Type == scene.NodeImage && hasInlineDataURL(n)
	if !hasDataURL {
		return &deletedSnapshot{Full: n.Clone()}
	}

	if url := n.ServerURL(); url != "" {
		return &deletedSnapshot{optimized: true, OptimizedServerURL: url, hadDataURL: true}
	}
	if hash := n.Hash(); hash != "" {
		return &deletedSnapshot{optimized: true, OptimizedHash: hash, hadDataURL: true}
	}

	if estimateSize(n) > largePayloadThresholdBytes {
		filename, _ := n.Properties["filename"].(string)
		return &deletedSnapshot{Stripped: true, StrippedHash: n.Hash(), StrippedFilename: filename, hadDataURL: true}
	}
	return &deletedSnapshot{Full: n.Clone()}
}

func hasInlineDataURL(n *scene.Node) bool {
	src, _ := n.Properties["src"].(string)
	return len(src) > 5 && src[:5] == "data:"
}

func estimateSize(n *scene.Node) int {
	if src, ok := n.Properties["src"].(string); ok {
		return len(src)
	}
	return 0
}

func (c *nodeDeleteCmd) Execute(ctx *Context) (interface{}, error) {
	ids, _ := requireNodeIDs(c.p)
	removed := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := ctx.Graph.GetNodeByID(id); err != nil {
			continue
		}
		ctx.Graph.Remove(id)
		removed = append(removed, id)
	}
	if len(removed) == 0 && len(ids) == 1 {
		return nil, errors.Mark(errors.Newf("node_delete: node %s not found", ids[0]), errors.ErrNodeNotFound)
	}
	return removed, nil
}

// Undo is best-effort: restoring a Stripped snapshot yields a placeholder
// node carrying only hash/filename, never a panic for a missing original.
func (c *nodeDeleteCmd) Undo(ctx *Context) error {
	for _, id := range c.order {
		snap := c.snapshots[id]
		restored := restoreFromSnapshot(id, snap)
		ctx.Graph.Add(restored)
	}
	return nil
}

func restoreFromSnapshot(id string, snap *deletedSnapshot) *scene.Node {
	if snap.Full != nil {
		n := snap.Full.Clone()
		n.ID = id
		return n
	}
	n := scene.NewNode(scene.NodeImage)
	n.ID = id
	if snap.optimized {
		if snap.OptimizedServerURL != "" {
			n.SetServerURL(snap.OptimizedServerURL, "")
		}
		if snap.OptimizedHash != "" {
			n.Properties["hash"] = snap.OptimizedHash
		}
		return n
	}
	// Stripped tier: best-effort placeholder.
	n.Properties["hash"] = snap.StrippedHash
	n.Properties["filename"] = snap.StrippedFilename
	n.Properties["_stripped"] = true
	return n
}

func (c *nodeDeleteCmd) CanMergeWith(other Command) bool { return false }
func (c *nodeDeleteCmd) MergeWith(other Command) Command { return c }

var _ Command = (*nodeDeleteCmd)(nil)
