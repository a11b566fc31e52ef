// Package statesync owns the reconciliation between optimistic local edits
// and the server's authoritative state: pending operations awaiting ACK,
// the temp-id remap that follows a server-assigned real id, and the
// full-sync escape hatch used when reconciliation cannot otherwise proceed.
package statesync

import (
	gosync "sync"
	"time"

	"github.com/rotoshake/imagecanvas-sub005/command"
	"github.com/rotoshake/imagecanvas-sub005/errors"
	"github.com/rotoshake/imagecanvas-sub005/logger"
	"github.com/rotoshake/imagecanvas-sub005/scene"
)

// PendingOp is one operation awaiting server ACK/reject.
type PendingOp struct {
	OpID        string
	Cmd         command.Command
	NodeIDs     []string // temp or real ids this op touched, for remap bookkeeping
	OperationID string   // _operationId tag, for duplicate reconciliation
	SentAt      time.Time
}

// Selection is the minimal interface StateSyncManager needs to keep a
// user's current selection consistent across a temp-id remap. The concrete
// selection type belongs to the (out of scope) UI layer.
type Selection interface {
	Replace(oldID, newID string)
}

// UndoStack is the minimal interface StateSyncManager needs to remap ids
// appearing in stored undo/redo commands.
type UndoStack interface {
	RemapID(oldID, newID string)
}

// Manager tracks pendingOperations (by op id), optimisticNodes (by temp id),
// per-type optimistic-enabled flags, and drives full-sync requests with a
// cooldown to avoid storms.
type Manager struct {
	mu gosync.Mutex

	graph     *scene.Graph
	undo      UndoStack
	selection Selection

	pendingOperations map[string]*PendingOp
	optimisticNodes   map[string]*scene.Node // temp id -> node, cleared on remap
	optimisticEnabled map[string]bool        // command type -> optimistic default

	lastServerSeq    uint64
	fullSyncCooldown time.Duration
	lastFullSync     time.Time

	// RequestFullSync is invoked to actually ask the server to resend
	// authoritative state; callers (the pipeline/transport layer) set this.
	RequestFullSync func(reason string)
}

// defaultOptimisticEnabled matches the catalog: every command is optimistic
// except group_create, which is authority-path-only so no phantom group
// ever appears locally before the server assigns the real id.
func defaultOptimisticEnabled() map[string]bool {
	return map[string]bool{
		"group_create": false,
	}
}

// New creates a Manager bound to a scene graph, with a 3s full-sync
// cooldown unless overridden by SetFullSyncCooldown.
func New(graph *scene.Graph, undo UndoStack, selection Selection) *Manager {
	return &Manager{
		graph:             graph,
		undo:              undo,
		selection:         selection,
		pendingOperations: make(map[string]*PendingOp),
		optimisticNodes:   make(map[string]*scene.Node),
		optimisticEnabled: defaultOptimisticEnabled(),
		fullSyncCooldown:  3 * time.Second,
	}
}

// SetFullSyncCooldown overrides the default 3s cooldown (config-driven).
func (m *Manager) SetFullSyncCooldown(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fullSyncCooldown = d
}

// IsOptimistic reports whether commandType applies locally before ACK.
// Unknown types default to optimistic (the common case).
func (m *Manager) IsOptimistic(commandType string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.optimisticEnabled[commandType]; ok {
		return v
	}
	return true
}

// SetOptimistic overrides the optimistic-enabled flag for a command type.
func (m *Manager) SetOptimistic(commandType string, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.optimisticEnabled[commandType] = enabled
}

// TrackPending registers a local operation awaiting ACK.
func (m *Manager) TrackPending(op *PendingOp) {
	m.mu.Lock()
	defer m.mu.Unlock()
	op.SentAt = time.Now()
	m.pendingOperations[op.OpID] = op
	for _, id := range op.NodeIDs {
		if n, err := m.graph.GetNodeByID(id); err == nil && n.IsTemporary {
			m.optimisticNodes[id] = n
		}
	}
}

// Pending returns the tracked operation for opID, or nil if unknown.
func (m *Manager) Pending(opID string) *PendingOp {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingOperations[opID]
}

// ResolveACK removes the pending entry for opID and, if the server assigned
// different (real) ids, remaps every temp id to its real counterpart across
// the graph, the pending set, the undo stack, and the selection — all
// without recreating nodes, so pointer identity and animation/rendering
// caches survive.
//
// Returns ReconciliationError if opID is unknown (an orphaned ACK): the
// caller should request a full sync.
func (m *Manager) ResolveACK(opID string, realIDs []string) error {
	m.mu.Lock()
	op, ok := m.pendingOperations[opID]
	if !ok {
		m.mu.Unlock()
		m.TriggerFullSync("orphaned ack for unknown op " + opID)
		return errors.Mark(errors.Newf("ack for unknown operation %s", opID), errors.ErrReconciliation)
	}
	delete(m.pendingOperations, opID)
	tempIDs := op.NodeIDs
	m.mu.Unlock()

	if len(realIDs) == 0 {
		return nil
	}
	for i, tempID := range tempIDs {
		if i >= len(realIDs) {
			break
		}
		realID := realIDs[i]
		if tempID == realID {
			continue
		}
		if err := m.remapID(tempID, realID); err != nil {
			logger.SyncWarnw("failed to remap id after ack", logger.FieldOpID, opID, "temp_id", tempID, logger.FieldError, err)
		}
	}
	return nil
}

// remapID rewrites a temp id to its server-assigned real id everywhere it
// is tracked: the graph (preserving pointer identity), any still-pending
// operations referencing it, the undo stack, and the current selection.
func (m *Manager) remapID(tempID, realID string) error {
	if err := m.graph.RebindID(tempID, realID); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.optimisticNodes, tempID)
	for _, pending := range m.pendingOperations {
		for i, id := range pending.NodeIDs {
			if id == tempID {
				pending.NodeIDs[i] = realID
			}
		}
	}
	m.mu.Unlock()

	if m.undo != nil {
		m.undo.RemapID(tempID, realID)
	}
	if m.selection != nil {
		m.selection.Replace(tempID, realID)
	}
	return nil
}

// Reject rolls back a rejected local operation: the caller is expected to
// invoke op.Cmd.Undo() using the same graph context, and then discard the
// pending entry. Reject returns the pending op so the caller has access to
// the command to undo.
func (m *Manager) Reject(opID, reason string) (*PendingOp, error) {
	m.mu.Lock()
	op, ok := m.pendingOperations[opID]
	if ok {
		delete(m.pendingOperations, opID)
	}
	m.mu.Unlock()
	if !ok {
		return nil, errors.Mark(errors.Newf("reject for unknown operation %s", opID), errors.ErrReconciliation)
	}
	logger.SyncWarnw("operation rejected by server", logger.FieldOpID, opID, "reason", reason)
	return op, nil
}

// IsDuplicateEcho reports whether a remote state_delta carrying operationID
// is the server's echo of a local optimistic duplicate this client already
// applied (alt-drag case: detection uses the _operationId tag written on
// every optimistically duplicated node). Remote ops matching a pending
// local operationID become no-ops for local origin and must not re-add
// nodes; this only ever matters for node_duplicate remote echoes.
func (m *Manager) IsDuplicateEcho(operationID string) bool {
	if operationID == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range m.pendingOperations {
		if op.OperationID == operationID {
			return true
		}
	}
	return false
}

// TriggerFullSync asks the server to resend authoritative state, respecting
// a cooldown to avoid storms from repeated reconciliation failures. Exported
// for callers outside the package (e.g. a ReconciliationError handler) that
// need to request a full sync without reaching into the lock themselves.
func (m *Manager) TriggerFullSync(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestFullSyncLocked(reason)
}

func (m *Manager) requestFullSyncLocked(reason string) {
	now := time.Now()
	if now.Sub(m.lastFullSync) < m.fullSyncCooldown {
		logger.SyncWarnw("full sync requested but suppressed by cooldown", "reason", reason)
		return
	}
	m.lastFullSync = now
	logger.SyncWarnw("requesting full sync", "reason", reason)
	if m.RequestFullSync != nil {
		m.RequestFullSync(reason)
	}
}

// AcceptServerSeq validates and records a server-assigned sequence number
// for an incoming remote operation. Returns false if seq is not newer than
// the last-applied sequence, in which case the caller must drop the op.
func (m *Manager) AcceptServerSeq(seq uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seq <= m.lastServerSeq && seq != 0 {
		return false
	}
	if seq > m.lastServerSeq {
		m.lastServerSeq = seq
	}
	return true
}

// PendingCount returns the number of operations currently awaiting ACK.
func (m *Manager) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pendingOperations)
}

// ClearPending discards every pending operation without rolling back — used
// on FatalError recovery before a full sync request.
func (m *Manager) ClearPending() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingOperations = make(map[string]*PendingOp)
	m.optimisticNodes = make(map[string]*scene.Node)
}
