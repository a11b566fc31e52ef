package undo

import (
	"testing"

	"github.com/rotoshake/imagecanvas-sub005/command"
	"github.com/rotoshake/imagecanvas-sub005/scene"
)

func execCmd(t *testing.T, g *scene.Graph, cmd command.Command, state *command.InitialState) {
	t.Helper()
	ctx := &command.Context{Graph: g, Origin: command.OriginLocal, InitialState: state}
	if res := cmd.Validate(ctx); !res.Valid {
		t.Fatalf("validate: %v", res.Err)
	}
	if _, err := cmd.Execute(ctx); err != nil {
		t.Fatalf("execute: %v", err)
	}
}

// TestMoveMerge_Scenario1 reproduces the literal drag scenario at the
// UndoManager level: three intermediate node_move commands during one
// interaction produce exactly one undo stack entry that restores the true
// pre-drag position.
func TestMoveMerge_Scenario1(t *testing.T) {
	g := scene.NewGraph()
	n := scene.NewNode(scene.NodeShape)
	n.ID = "A"
	n.X, n.Y = 0, 0
	g.Add(n)

	mgr := New(g, 0)
	mgr.BeginInteraction([]*scene.Node{n})
	state := mgr.InteractionInitialState()

	for _, target := range [][2]float64{{10, 0}, {20, 0}, {30, 0}} {
		cmd, err := command.New("node_move", map[string]interface{}{
			"nodeIds":   []interface{}{"A"},
			"positions": []interface{}{[]interface{}{target[0], target[1]}},
		})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		execCmd(t, g, cmd, state)
	}

	final, err := mgr.EndInteraction("node_move", map[string]interface{}{
		"nodeIds":   []interface{}{"A"},
		"positions": []interface{}{[]interface{}{30.0, 0.0}},
	})
	if err != nil {
		t.Fatalf("EndInteraction: %v", err)
	}
	if final == nil {
		t.Fatal("expected a composite command to be produced")
	}

	if mgr.Depth() != 1 {
		t.Fatalf("expected exactly 1 undo entry, got %d", mgr.Depth())
	}

	if _, err := mgr.Undo(command.OriginLocal); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if n.X != 0 || n.Y != 0 {
		t.Fatalf("expected undo to restore [0,0], got [%v,%v]", n.X, n.Y)
	}
}

func TestEndInteraction_NoOpDiscardsInteraction(t *testing.T) {
	g := scene.NewGraph()
	n := scene.NewNode(scene.NodeShape)
	n.ID = "A"
	n.X, n.Y = 5, 5
	g.Add(n)

	mgr := New(g, 0)
	mgr.BeginInteraction([]*scene.Node{n})

	cmd, err := mgr.EndInteraction("node_move", map[string]interface{}{
		"nodeIds":   []interface{}{"A"},
		"positions": []interface{}{[]interface{}{5.0, 5.0}},
	})
	if err != nil {
		t.Fatalf("EndInteraction: %v", err)
	}
	if cmd != nil {
		t.Fatal("expected no-op interaction to produce no command")
	}
	if mgr.Depth() != 0 {
		t.Fatalf("expected undo stack untouched, got depth %d", mgr.Depth())
	}
}

func TestCancelInteraction_DiscardsSnapshot(t *testing.T) {
	g := scene.NewGraph()
	n := scene.NewNode(scene.NodeShape)
	n.ID = "A"
	g.Add(n)

	mgr := New(g, 0)
	mgr.BeginInteraction([]*scene.Node{n})
	mgr.CancelInteraction()

	if mgr.InteractionInitialState() != nil {
		t.Fatal("expected snapshot cleared after cancel")
	}
	if _, err := mgr.EndInteraction("node_move", map[string]interface{}{}); err == nil {
		t.Fatal("expected EndInteraction without an active interaction to error")
	}
}

func TestPush_ClearsRedoStack(t *testing.T) {
	g := scene.NewGraph()
	n := scene.NewNode(scene.NodeShape)
	n.ID = "A"
	n.X, n.Y = 0, 0
	g.Add(n)

	mgr := New(g, 0)
	first, _ := command.New("node_move", map[string]interface{}{
		"nodeIds": []interface{}{"A"}, "positions": []interface{}{[]interface{}{1.0, 1.0}},
	})
	execCmd(t, g, first, nil)
	mgr.Push(first)

	if _, err := mgr.Undo(command.OriginLocal); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if !mgr.CanRedo() {
		t.Fatal("expected redo available after undo")
	}

	second, _ := command.New("node_delete", map[string]interface{}{"nodeIds": []interface{}{"A"}})
	execCmd(t, g, second, nil)
	mgr.Push(second)

	if mgr.CanRedo() {
		t.Fatal("expected redo stack cleared after a new push")
	}
}

func TestStackLimit_DropsOldestEntry(t *testing.T) {
	g := scene.NewGraph()
	mgr := New(g, 2)

	for i := 0; i < 3; i++ {
		n := scene.NewNode(scene.NodeShape)
		g.Add(n)
		cmd, _ := command.New("node_create", map[string]interface{}{"type": "shape"})
		mgr.Push(cmd)
	}

	if mgr.Depth() != 2 {
		t.Fatalf("expected stack capped at 2, got %d", mgr.Depth())
	}
}

func TestRemapID_UpdatesStoredMoveCommand(t *testing.T) {
	g := scene.NewGraph()
	n := scene.NewNode(scene.NodeShape)
	n.IsTemporary = true
	tempID := g.Add(n)

	mgr := New(g, 0)
	cmd, _ := command.New("node_move", map[string]interface{}{
		"nodeIds":   []interface{}{tempID},
		"positions": []interface{}{[]interface{}{1.0, 1.0}},
	})
	execCmd(t, g, cmd, nil)
	mgr.Push(cmd)

	// The graph-level rebind and the undo-stack remap are both the state
	// sync reconciler's responsibility on ACK; exercise them together here.
	if err := g.RebindID(tempID, "real-1"); err != nil {
		t.Fatalf("RebindID: %v", err)
	}
	mgr.RemapID(tempID, "real-1")

	if _, err := mgr.Undo(command.OriginLocal); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	got, err := g.GetNodeByID("real-1")
	if err != nil {
		t.Fatalf("expected node reachable at real id after remap+undo: %v", err)
	}
	if got != n {
		t.Fatal("expected pointer identity preserved across remap")
	}
}
