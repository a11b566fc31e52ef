// Package app wires the engine's packages — scene graph, undo stack,
// state-sync reconciler, command pipeline, group manager, alignment engine,
// and media upload coordinator — into one runnable instance. It plays the
// role the QNTX server package plays for that codebase: the place a cmd/
// binary turns configuration into a live, connected engine.
package app

import (
	"net/http"

	"github.com/rotoshake/imagecanvas-sub005/align"
	"github.com/rotoshake/imagecanvas-sub005/command"
	"github.com/rotoshake/imagecanvas-sub005/config"
	"github.com/rotoshake/imagecanvas-sub005/group"
	"github.com/rotoshake/imagecanvas-sub005/logger"
	"github.com/rotoshake/imagecanvas-sub005/media"
	"github.com/rotoshake/imagecanvas-sub005/pipeline"
	"github.com/rotoshake/imagecanvas-sub005/scene"
	"github.com/rotoshake/imagecanvas-sub005/statesync"
	"github.com/rotoshake/imagecanvas-sub005/transport"
	"github.com/rotoshake/imagecanvas-sub005/undo"
)

// memSelection is the minimal statesync.Selection a headless engine needs:
// a CLI or test driver has no UI selection model to keep in sync, so
// Replace is a no-op.
type memSelection struct{}

func (memSelection) Replace(oldID, newID string) {}

// Engine bundles one user's live canvas session: the scene graph plus every
// manager that mutates or reconciles it.
type Engine struct {
	Graph    *scene.Graph
	Undo     *undo.Manager
	Sync     *statesync.Manager
	Pipeline *pipeline.Pipeline
	Groups   *group.Manager
	Align    *align.Engine
	Media    *media.Coordinator
	Cache    *media.Cache

	cfg *config.Config
}

// New builds a fully wired Engine against cfg. send is the outbound
// transport sender; pass nil for a local-only (offline) engine, matching
// pipeline.New's own local-only allowance.
func New(cfg *config.Config, send pipeline.Sender) *Engine {
	if cfg.Undo.LargePayloadThreshold > 0 {
		command.SetLargePayloadThreshold(cfg.Undo.LargePayloadThreshold)
	}
	g := scene.NewGraph()
	undoMgr := undo.New(g, cfg.Undo.StackLimit)
	syncMgr := statesync.New(g, undoMgr, memSelection{})
	syncMgr.SetFullSyncCooldown(cfg.Sync.FullSyncCooldown)

	p := pipeline.New(g, undoMgr, syncMgr, send)

	groups := group.New(g, cfg.Alignment.GroupPadding, cfg.Alignment.TitleBarHeight)
	alignEngine := align.New(g, groups, undoMgr, p, cfg.Alignment)

	cache := media.NewCache()
	uploader := &media.HTTPUploader{Client: http.DefaultClient, APIBase: cfg.Upload.APIBase}
	coordinator := media.New(cache, uploader, p, cfg.Upload.RetryBackoff, cfg.Upload.MaxRetries,
		cfg.Upload.StalePendingThreshold, cfg.Upload.PostUploadSyncDelay)

	return &Engine{
		Graph:    g,
		Undo:     undoMgr,
		Sync:     syncMgr,
		Pipeline: p,
		Groups:   groups,
		Align:    alignEngine,
		Media:    coordinator,
		Cache:    cache,
		cfg:      cfg,
	}
}

// Dial connects to a collaboration server over WebSocket and returns an
// Engine whose Pipeline sends local mutations over that connection. The
// caller owns reading the connection and feeding incoming envelopes to
// Pipeline.ApplyRemote/HandleAck/HandleReject.
func Dial(cfg *config.Config, url string) (*Engine, transport.Conn, error) {
	conn, err := transport.Dial(url, cfg.Transport.WriteTimeout)
	if err != nil {
		return nil, nil, err
	}
	eng := New(cfg, pipeline.NewConnSender(conn))
	logger.SyncInfow("connected", "url", url)
	return eng, conn, nil
}
