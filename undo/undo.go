// Package undo records user interactions rather than individual commands:
// a drag that emits dozens of intermediate node_move calls collapses into
// one undo entry that restores the pre-drag state.
package undo

import (
	"math"
	"sync"

	"github.com/rotoshake/imagecanvas-sub005/command"
	"github.com/rotoshake/imagecanvas-sub005/errors"
	"github.com/rotoshake/imagecanvas-sub005/logger"
	"github.com/rotoshake/imagecanvas-sub005/scene"
)

const noOpTolerance = 0.01

const defaultStackLimit = 100

// Manager owns the undo/redo stacks and the in-progress interaction
// snapshot. It does not execute commands against the graph directly for
// interaction entries — EndInteraction hands the constructed command back
// to the caller, which executes it and then passes it to the pipeline
// (Pipeline.ApplyInteractionResult) to be sent to the server.
type Manager struct {
	mu sync.Mutex

	graph      *scene.Graph
	stackLimit int

	undoStack []command.Command
	redoStack []command.Command

	snapshot      *command.InitialState
	snapshotNodes []string
}

// New creates a Manager with the given undo stack size limit (0 uses the
// package default of 100).
func New(graph *scene.Graph, stackLimit int) *Manager {
	if stackLimit <= 0 {
		stackLimit = defaultStackLimit
	}
	return &Manager{graph: graph, stackLimit: stackLimit}
}

// BeginInteraction snapshots positions, sizes, rotations, and a small set of
// direct properties for every given node. The snapshot becomes the
// InitialState consulted by each intermediate command's PrepareUndoData, so
// the first command in the interaction sees pre-interaction values rather
// than whatever the graph holds by the time EndInteraction runs.
func (m *Manager) BeginInteraction(nodes []*scene.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := &command.InitialState{
		Positions: make(map[string][2]float64, len(nodes)),
		Sizes:     make(map[string][2]float64, len(nodes)),
		Rotations: make(map[string]float64, len(nodes)),
		Extra:     make(map[string]map[string]interface{}, len(nodes)),
	}
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		ids = append(ids, n.ID)
		snap.Positions[n.ID] = [2]float64{n.X, n.Y}
		snap.Sizes[n.ID] = [2]float64{n.Width, n.Height}
		snap.Rotations[n.ID] = n.Rotation
		extra := map[string]interface{}{"title": n.Title}
		for k, v := range n.Properties {
			extra[k] = v
		}
		snap.Extra[n.ID] = extra
	}
	m.snapshot = snap
	m.snapshotNodes = ids
	logger.UndoDebugw("interaction begun", logger.FieldCount, len(ids))
}

// CancelInteraction discards the in-progress snapshot without pushing
// anything onto the undo stack.
func (m *Manager) CancelInteraction() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = nil
	m.snapshotNodes = nil
}

// InteractionInitialState returns the snapshot captured by BeginInteraction,
// or nil if no interaction is in progress. Callers build the command.Context
// passed to intermediate command executions with this.
func (m *Manager) InteractionInitialState() *command.InitialState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

// EndInteraction constructs a single composite command of cmdType with the
// interaction's captured InitialState, validates it, prepares its undo
// data, and pushes it onto the undo stack. If the resulting command would
// be a no-op (positions unchanged within tolerance), the interaction is
// cancelled and EndInteraction returns (nil, nil).
//
// The returned command has not been executed — the caller executes it
// against the graph and passes it to Pipeline.ApplyInteractionResult, which
// sends it to the server.
func (m *Manager) EndInteraction(cmdType string, params map[string]interface{}) (command.Command, error) {
	m.mu.Lock()
	snap := m.snapshot
	m.snapshot = nil
	m.snapshotNodes = nil
	m.mu.Unlock()

	if snap == nil {
		return nil, errors.Mark(errors.New("endInteraction called with no active interaction"), errors.ErrValidation)
	}

	if isNoOpMove(cmdType, snap, params) {
		logger.UndoDebugw("interaction produced no change, discarding", logger.FieldOperation, cmdType)
		return nil, nil
	}

	cmd, err := command.New(cmdType, params)
	if err != nil {
		return nil, err
	}
	ctx := &command.Context{Graph: m.graph, Origin: command.OriginLocal, InitialState: snap}
	if res := cmd.Validate(ctx); !res.Valid {
		return nil, res.Err
	}
	if err := cmd.PrepareUndoData(ctx); err != nil {
		return nil, err
	}

	m.push(cmd)
	return cmd, nil
}

// isNoOpMove reports whether a node_move/node_align interaction changed
// nothing beyond floating point noise, comparing the snapshot's initial
// positions against the command's target positions.
func isNoOpMove(cmdType string, snap *command.InitialState, params map[string]interface{}) bool {
	if cmdType != "node_move" && cmdType != "node_align" {
		return false
	}
	ids, _ := params["nodeIds"].([]interface{})
	positions, _ := params["positions"].([]interface{})
	if len(ids) == 0 || len(ids) != len(positions) {
		return false
	}
	for i, rawID := range ids {
		id, ok := rawID.(string)
		if !ok {
			return false
		}
		pos, ok := positions[i].([]interface{})
		if !ok || len(pos) != 2 {
			return false
		}
		x, xok := toFloat(pos[0])
		y, yok := toFloat(pos[1])
		if !xok || !yok {
			return false
		}
		initial, ok := snap.Positions[id]
		if !ok {
			return false
		}
		if math.Abs(initial[0]-x) > noOpTolerance || math.Abs(initial[1]-y) > noOpTolerance {
			return false
		}
	}
	return true
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

// push appends cmd to the undo stack, merging with the top entry when
// possible (the move-merge rule: consecutive node_move commands for the
// same node set from the same origin, or group_move commands for the same
// group, collapse into one entry that still undoes to the true
// pre-interaction position). Redo is cleared on
// every push. Overflow drops the oldest entry.
func (m *Manager) push(cmd command.Command) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.redoStack = nil

	if n := len(m.undoStack); n > 0 {
		top := m.undoStack[n-1]
		if top.CanMergeWith(cmd) {
			m.undoStack[n-1] = top.MergeWith(cmd)
			return
		}
	}

	m.undoStack = append(m.undoStack, cmd)
	if len(m.undoStack) > m.stackLimit {
		m.undoStack = m.undoStack[len(m.undoStack)-m.stackLimit:]
	}
}

// Push records an already-prepared command directly, bypassing the
// interaction snapshot flow — for single-shot commands (delete, property
// update) that never go through BeginInteraction/EndInteraction.
func (m *Manager) Push(cmd command.Command) {
	m.push(cmd)
}

// Undo pops the most recent entry, inverts it against the graph, and moves
// it to the redo stack. Returns the undone command, or nil if the stack is
// empty.
func (m *Manager) Undo(origin command.Origin) (command.Command, error) {
	m.mu.Lock()
	n := len(m.undoStack)
	if n == 0 {
		m.mu.Unlock()
		return nil, nil
	}
	cmd := m.undoStack[n-1]
	m.undoStack = m.undoStack[:n-1]
	m.mu.Unlock()

	ctx := &command.Context{Graph: m.graph, Origin: origin}
	if err := cmd.Undo(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.redoStack = append(m.redoStack, cmd)
	m.mu.Unlock()
	return cmd, nil
}

// Redo pops the most recently undone entry, re-executes it, and moves it
// back onto the undo stack. Returns the redone command, or nil if the redo
// stack is empty.
func (m *Manager) Redo(origin command.Origin) (command.Command, error) {
	m.mu.Lock()
	n := len(m.redoStack)
	if n == 0 {
		m.mu.Unlock()
		return nil, nil
	}
	cmd := m.redoStack[n-1]
	m.redoStack = m.redoStack[:n-1]
	m.mu.Unlock()

	ctx := &command.Context{Graph: m.graph, Origin: origin}
	if _, err := cmd.Execute(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.undoStack = append(m.undoStack, cmd)
	m.mu.Unlock()
	return cmd, nil
}

// CanUndo reports whether the undo stack has at least one entry.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undoStack) > 0
}

// CanRedo reports whether the redo stack has at least one entry.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redoStack) > 0
}

// Depth returns the current undo stack size, mostly useful for tests.
func (m *Manager) Depth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undoStack)
}

// RemapID rewrites a temp id to its server-assigned real id wherever it
// appears in stored undo/redo commands that support remapping. Commands
// that don't carry node ids in a remappable form are left untouched; this
// satisfies statesync.UndoStack.
func (m *Manager) RemapID(oldID, newID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cmd := range m.undoStack {
		if r, ok := cmd.(interface{ RemapID(fromID, toID string) }); ok {
			r.RemapID(oldID, newID)
		}
	}
	for _, cmd := range m.redoStack {
		if r, ok := cmd.(interface{ RemapID(fromID, toID string) }); ok {
			r.RemapID(oldID, newID)
		}
	}
}
