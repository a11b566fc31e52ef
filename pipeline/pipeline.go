// Package pipeline is the single entry point for every mutation: resolve a
// command, validate, optimistically apply and send for local origin,
// reconcile on ACK/reject/broadcast. It serialises per-node critical
// sections so a local op and a remote op on the same node never interleave
// out of order.
package pipeline

import (
	gosync "sync"

	"github.com/google/uuid"

	"github.com/rotoshake/imagecanvas-sub005/command"
	"github.com/rotoshake/imagecanvas-sub005/errors"
	"github.com/rotoshake/imagecanvas-sub005/logger"
	"github.com/rotoshake/imagecanvas-sub005/scene"
	"github.com/rotoshake/imagecanvas-sub005/statesync"
	"github.com/rotoshake/imagecanvas-sub005/transport"
	"github.com/rotoshake/imagecanvas-sub005/undo"
)

// Sender delivers an envelope to the server. The production implementation
// wraps a transport.Conn; tests can substitute a recording stub.
type Sender interface {
	Send(env transport.Envelope) error
}

// connSender adapts a transport.Conn to Sender.
type connSender struct{ conn transport.Conn }

func (s connSender) Send(env transport.Envelope) error { return s.conn.WriteJSON(env) }

// NewConnSender wraps a transport.Conn as a Sender.
func NewConnSender(conn transport.Conn) Sender { return connSender{conn: conn} }

// Pipeline wires the command catalog to the scene graph, the undo stack,
// the state-sync reconciler, and the outbound transport.
type Pipeline struct {
	graph *scene.Graph
	undo  *undo.Manager
	sync  *statesync.Manager
	send  Sender

	locksMu   gosync.Mutex
	nodeLocks map[string]*gosync.Mutex
}

// New creates a Pipeline. send may be nil for a local-only (offline) engine.
func New(graph *scene.Graph, undoMgr *undo.Manager, syncMgr *statesync.Manager, send Sender) *Pipeline {
	return &Pipeline{
		graph:     graph,
		undo:      undoMgr,
		sync:      syncMgr,
		send:      send,
		nodeLocks: make(map[string]*gosync.Mutex),
	}
}

// Dispatch handles a single-shot (non-interaction) mutation: construct,
// validate, prepare undo data, optimistically apply (unless optimistic
// updates are disabled for this type), push onto the undo stack, and send
// to the server. Interaction-based mutations (drags) instead call
// undo.Manager.BeginInteraction/EndInteraction and pass the resulting
// command to ApplyInteractionResult.
func (p *Pipeline) Dispatch(typeName string, params map[string]interface{}) (interface{}, error) {
	cmd, err := command.New(typeName, params)
	if err != nil {
		return nil, err
	}

	ctx := &command.Context{Graph: p.graph, Origin: command.OriginLocal}
	if res := cmd.Validate(ctx); !res.Valid {
		return nil, res.Err
	}

	unlock := p.lockNodes(affectedNodeIDs(params))
	defer unlock()

	if err := cmd.PrepareUndoData(ctx); err != nil {
		return nil, err
	}

	opID := uuid.New().String()
	var result interface{}
	optimistic := p.sync == nil || p.sync.IsOptimistic(typeName)
	if optimistic {
		result, err = cmd.Execute(ctx)
		if err != nil {
			return nil, err
		}
		if p.undo != nil {
			p.undo.Push(cmd)
		}
	}

	if p.sync != nil {
		p.sync.TrackPending(&statesync.PendingOp{
			OpID:        opID,
			Cmd:         cmd,
			NodeIDs:     affectedNodeIDs(params),
			OperationID: operationIDOf(params),
		})
	}

	if p.send != nil {
		raw, encErr := transport.EncodeParams(params)
		if encErr != nil {
			return result, errors.Wrap(encErr, "failed to encode command params")
		}
		env := transport.Envelope{Type: typeName, Params: raw, OpID: opID, Origin: string(command.OriginLocal)}
		if err := p.send.Send(env); err != nil {
			// Network failure leaves the optimistic apply (if any) and the
			// pending entry in place; the caller retries on reconnect.
			logger.SyncWarnw("failed to send operation, leaving optimistic state pending", logger.FieldOpID, opID, logger.FieldError, err)
		}
	}

	return result, nil
}

// ApplyInteractionResult sends and tracks an already-executed interaction
// command built by undo.Manager.EndInteraction. The command has already
// been applied to the graph by the caller's intermediate Dispatch calls;
// this only sends it and tracks the pending entry.
func (p *Pipeline) ApplyInteractionResult(cmd command.Command, params map[string]interface{}) error {
	if cmd == nil {
		return nil
	}
	opID := uuid.New().String()
	if p.sync != nil {
		p.sync.TrackPending(&statesync.PendingOp{
			OpID:        opID,
			Cmd:         cmd,
			NodeIDs:     affectedNodeIDs(params),
			OperationID: operationIDOf(params),
		})
	}
	if p.send == nil {
		return nil
	}
	raw, err := transport.EncodeParams(params)
	if err != nil {
		return errors.Wrap(err, "failed to encode interaction params")
	}
	env := transport.Envelope{Type: cmd.Type(), Params: raw, OpID: opID, Origin: string(command.OriginLocal)}
	return p.send.Send(env)
}

// ApplyRemote applies a broadcast state_delta unconditionally (origin=remote),
// after checking the server sequence and duplicate-echo reconciliation.
func (p *Pipeline) ApplyRemote(delta transport.StateDelta) (interface{}, error) {
	if p.sync != nil {
		if delta.Seq != 0 && !p.sync.AcceptServerSeq(delta.Seq) {
			return nil, nil // stale, drop
		}
		if opID, _ := delta.Params["operationId"].(string); opID != "" && p.sync.IsDuplicateEcho(opID) {
			return nil, nil // our own optimistic duplicate echoed back; no-op
		}
	}

	cmd, err := command.New(delta.Type, delta.Params)
	if err != nil {
		return nil, err
	}
	ctx := &command.Context{Graph: p.graph, Origin: command.OriginRemote}

	unlock := p.lockNodes(affectedNodeIDs(delta.Params))
	defer unlock()

	if res := cmd.Validate(ctx); !res.Valid {
		return nil, res.Err
	}
	// Most command types only populate the fields Execute reads (ids,
	// target positions/sizes, ...) inside PrepareUndoData; a remote delta
	// never goes through Dispatch's PrepareUndoData call, so it must be
	// made here too or Execute silently operates on zero values.
	if err := cmd.PrepareUndoData(ctx); err != nil {
		return nil, err
	}
	return cmd.Execute(ctx)
}

// HandleAck resolves a server ACK against the pending set, remapping any
// temp ids to the server's real ids.
func (p *Pipeline) HandleAck(ack transport.Ack) error {
	if p.sync == nil {
		return nil
	}
	return p.sync.ResolveACK(ack.OpID, ack.IDs)
}

// HandleReject rolls back a rejected local operation by invoking its stored
// command's Undo, using the same graph the command was optimistically
// applied against.
func (p *Pipeline) HandleReject(reject transport.Reject) error {
	if p.sync == nil {
		return nil
	}
	op, err := p.sync.Reject(reject.OpID, reject.Reason)
	if err != nil {
		return err
	}
	if op.Cmd == nil {
		return nil
	}
	ctx := &command.Context{Graph: p.graph, Origin: command.OriginLocal}
	return op.Cmd.Undo(ctx)
}

// lockNodes acquires (creating if needed) a mutex per node id, always in
// sorted order to avoid deadlock between overlapping node sets, and returns
// an unlock function.
func (p *Pipeline) lockNodes(ids []string) func() {
	if len(ids) == 0 {
		return func() {}
	}
	sorted := append([]string(nil), ids...)
	sortStrings(sorted)

	locks := make([]*gosync.Mutex, 0, len(sorted))
	p.locksMu.Lock()
	for _, id := range sorted {
		l, ok := p.nodeLocks[id]
		if !ok {
			l = &gosync.Mutex{}
			p.nodeLocks[id] = l
		}
		locks = append(locks, l)
	}
	p.locksMu.Unlock()

	for _, l := range locks {
		l.Lock()
	}
	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// affectedNodeIDs extracts every node id a command's params touch, across
// the several shapes the catalog uses (nodeId, nodeIds, groupId, nodeData).
func affectedNodeIDs(params map[string]interface{}) []string {
	var ids []string
	if id, ok := params["nodeId"].(string); ok && id != "" {
		ids = append(ids, id)
	}
	if id, ok := params["groupId"].(string); ok && id != "" {
		ids = append(ids, id)
	}
	if raw, ok := params["nodeIds"].([]interface{}); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				ids = append(ids, s)
			}
		}
	}
	if raw, ok := params["nodeData"].([]interface{}); ok {
		for _, v := range raw {
			if m, ok := v.(map[string]interface{}); ok {
				if id, ok := m["id"].(string); ok && id != "" {
					ids = append(ids, id)
				}
			}
		}
	}
	return ids
}

func operationIDOf(params map[string]interface{}) string {
	if id, ok := params["operationId"].(string); ok {
		return id
	}
	return ""
}
