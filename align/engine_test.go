package align

import (
	"testing"

	"github.com/rotoshake/imagecanvas-sub005/command"
	"github.com/rotoshake/imagecanvas-sub005/config"
	"github.com/rotoshake/imagecanvas-sub005/group"
	"github.com/rotoshake/imagecanvas-sub005/scene"
	"github.com/rotoshake/imagecanvas-sub005/undo"
)

type fakeDispatcher struct {
	applied     []map[string]interface{}
	dispatched  []string
	dispatchErr error
}

func (f *fakeDispatcher) Dispatch(typeName string, params map[string]interface{}) (interface{}, error) {
	f.dispatched = append(f.dispatched, typeName)
	return nil, f.dispatchErr
}

func (f *fakeDispatcher) ApplyInteractionResult(cmd command.Command, params map[string]interface{}) error {
	f.applied = append(f.applied, params)
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *scene.Graph, *undo.Manager, *fakeDispatcher) {
	t.Helper()
	g := scene.NewGraph()
	undoMgr := undo.New(g, 0)
	grp := group.New(g, 12, 28)
	disp := &fakeDispatcher{}
	cfg := config.Default().Alignment
	eng := New(g, grp, undoMgr, disp, cfg)
	return eng, g, undoMgr, disp
}

func addNode(g *scene.Graph, x, y, w, h float64) *scene.Node {
	n := scene.NewNode(scene.NodeImage)
	n.X, n.Y, n.Width, n.Height = x, y, w, h
	g.Add(n)
	return n
}

func TestArm_RequiresAtLeastTwoNodes(t *testing.T) {
	eng, g, _, _ := newTestEngine(t)
	n := addNode(g, 0, 0, 10, 10)
	if err := eng.Arm([]string{n.ID}); err == nil {
		t.Fatal("expected error arming with a single node")
	}
}

func TestTriggerAutoAlign_HorizontalLaysOutLeftToRight(t *testing.T) {
	eng, g, _, _ := newTestEngine(t)
	n1 := addNode(g, 0, 0, 50, 50)
	n2 := addNode(g, 300, 80, 50, 50)
	n3 := addNode(g, 150, 40, 50, 50)

	if err := eng.Arm([]string{n1.ID, n2.ID, n3.ID}); err != nil {
		t.Fatalf("Arm failed: %v", err)
	}
	if err := eng.TriggerAutoAlign(AxisHorizontal); err != nil {
		t.Fatalf("TriggerAutoAlign failed: %v", err)
	}

	if eng.Phase() != PhaseCommitted {
		t.Fatalf("expected committed phase, got %v", eng.Phase())
	}

	// Master order sorted by x: n1 (x=0), n3 (x=150), n2 (x=300).
	bn1 := eng.bodies[n1.ID]
	bn3 := eng.bodies[n3.ID]
	bn2 := eng.bodies[n2.ID]
	if !(bn1.targetX < bn3.targetX && bn3.targetX < bn2.targetX) {
		t.Fatalf("expected targets ordered left to right, got %v, %v, %v", bn1.targetX, bn3.targetX, bn2.targetX)
	}
	if bn1.targetY != bn3.targetY || bn3.targetY != bn2.targetY {
		t.Fatalf("expected all targets share one line, got %v %v %v", bn1.targetY, bn3.targetY, bn2.targetY)
	}
}

// TestReorderMode_Scenario5 reproduces the reorder-mode scenario: three
// nodes already aligned horizontally at (0,0),(100,0),(200,0); triggering
// horizontal align enters reorder mode, and reversing preserves the
// leftmost x and line y while swapping order.
func TestReorderMode_Scenario5(t *testing.T) {
	eng, g, _, _ := newTestEngine(t)
	n1 := addNode(g, 0, 0, 50, 50)
	n2 := addNode(g, 100, 0, 50, 50)
	n3 := addNode(g, 200, 0, 50, 50)

	if err := eng.Arm([]string{n1.ID, n2.ID, n3.ID}); err != nil {
		t.Fatalf("Arm failed: %v", err)
	}
	if err := eng.TriggerAutoAlign(AxisHorizontal); err != nil {
		t.Fatalf("TriggerAutoAlign failed: %v", err)
	}
	if eng.Phase() != PhaseReorder {
		t.Fatalf("expected reorder mode, got %v", eng.Phase())
	}

	leftmostX := eng.bodies[n1.ID].targetX
	lineY := eng.bodies[n1.ID].targetY

	if err := eng.SetReorderReversed(true); err != nil {
		t.Fatalf("SetReorderReversed failed: %v", err)
	}

	if eng.bodies[n1.ID].targetY != lineY {
		t.Fatalf("expected line y preserved after reversal")
	}
	// After reversal the master order (n1,n2,n3) is walked in reverse
	// (n3,n2,n1), so n3 now claims the leftmost slot.
	if eng.bodies[n3.ID].targetX != leftmostX {
		t.Fatalf("expected n3 to take the leftmost slot after reversal, got %v want %v", eng.bodies[n3.ID].targetX, leftmostX)
	}
	if !(eng.bodies[n3.ID].targetX < eng.bodies[n2.ID].targetX && eng.bodies[n2.ID].targetX < eng.bodies[n1.ID].targetX) {
		t.Fatal("expected order reversed: n3, n2, n1 left to right")
	}
}

func TestTick_ConvergesAndSettles(t *testing.T) {
	eng, g, _, _ := newTestEngine(t)
	n1 := addNode(g, 0, 0, 50, 50)
	n2 := addNode(g, 300, 0, 50, 50)

	if err := eng.Arm([]string{n1.ID, n2.ID}); err != nil {
		t.Fatalf("Arm failed: %v", err)
	}
	if err := eng.TriggerAutoAlign(AxisHorizontal); err != nil {
		t.Fatalf("TriggerAutoAlign failed: %v", err)
	}

	settled := false
	for i := 0; i < 600; i++ {
		if eng.Tick(1.0 / 60.0) {
			settled = true
			break
		}
	}
	if !settled {
		t.Fatal("expected physics to settle within 10 simulated seconds")
	}
	if !n1.HasAnimPos || !n2.HasAnimPos {
		t.Fatal("expected transient anim position fields set during animation")
	}
}

func TestFinish_DispatchesNodeAlignAndPushesUndo(t *testing.T) {
	eng, g, undoMgr, disp := newTestEngine(t)
	n1 := addNode(g, 0, 0, 50, 50)
	n2 := addNode(g, 300, 0, 50, 50)

	if err := eng.Arm([]string{n1.ID, n2.ID}); err != nil {
		t.Fatalf("Arm failed: %v", err)
	}
	if err := eng.TriggerAutoAlign(AxisHorizontal); err != nil {
		t.Fatalf("TriggerAutoAlign failed: %v", err)
	}

	params, err := eng.Finish()
	if err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if params == nil {
		t.Fatal("expected non-nil params from a real move")
	}
	if len(disp.applied) != 1 {
		t.Fatalf("expected exactly one ApplyInteractionResult call, got %d", len(disp.applied))
	}
	if undoMgr.Depth() != 1 {
		t.Fatalf("expected one undo entry, got %d", undoMgr.Depth())
	}
	if eng.Phase() != PhaseIdle {
		t.Fatalf("expected engine reset to idle after finish, got %v", eng.Phase())
	}
	if n1.HasAnimPos {
		t.Fatal("expected anim position cleared on commit")
	}
}

func TestCancel_DiscardsInteractionWithoutUndoEntry(t *testing.T) {
	eng, g, undoMgr, _ := newTestEngine(t)
	n1 := addNode(g, 0, 0, 50, 50)
	n2 := addNode(g, 300, 0, 50, 50)

	if err := eng.Arm([]string{n1.ID, n2.ID}); err != nil {
		t.Fatalf("Arm failed: %v", err)
	}
	if err := eng.TriggerAutoAlign(AxisHorizontal); err != nil {
		t.Fatalf("TriggerAutoAlign failed: %v", err)
	}
	eng.Cancel()

	if eng.Phase() != PhaseIdle {
		t.Fatalf("expected idle after cancel, got %v", eng.Phase())
	}
	if undoMgr.Depth() != 0 {
		t.Fatalf("expected no undo entry after cancel, got depth %d", undoMgr.Depth())
	}
}

func TestFinish_ResizesOrphanedParentGroup(t *testing.T) {
	eng, g, _, disp := newTestEngine(t)
	child := addNode(g, 0, 0, 50, 50)
	outsider := addNode(g, 500, 500, 50, 50)

	grp := scene.NewNode(scene.NodeGroup)
	grp.ChildNodes = map[string]struct{}{child.ID: {}}
	grp.X, grp.Y, grp.Width, grp.Height = -12, -40, 74, 102
	g.Add(grp)

	if err := eng.Arm([]string{child.ID, outsider.ID}); err != nil {
		t.Fatalf("Arm failed: %v", err)
	}
	if err := eng.TriggerAutoAlign(AxisHorizontal); err != nil {
		t.Fatalf("TriggerAutoAlign failed: %v", err)
	}
	if _, err := eng.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	found := false
	for _, typeName := range disp.dispatched {
		if typeName == "group_resize" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected group_resize dispatched for parent group not in the selection")
	}
}

func TestStartGridAlign_AssignsDistinctCells(t *testing.T) {
	eng, g, _, _ := newTestEngine(t)
	n1 := addNode(g, 0, 0, 40, 40)
	n2 := addNode(g, 200, 0, 40, 40)
	n3 := addNode(g, 0, 200, 40, 40)
	n4 := addNode(g, 200, 200, 40, 40)

	if err := eng.StartGridAlign([]string{n1.ID, n2.ID, n3.ID, n4.ID}, 120); err != nil {
		t.Fatalf("StartGridAlign failed: %v", err)
	}

	seen := make(map[[2]float64]bool)
	for _, id := range []string{n1.ID, n2.ID, n3.ID, n4.ID} {
		b := eng.bodies[id]
		key := [2]float64{b.targetX, b.targetY}
		if seen[key] {
			t.Fatalf("expected distinct target cells, got duplicate %v", key)
		}
		seen[key] = true
	}
}
