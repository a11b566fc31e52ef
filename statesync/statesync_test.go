package statesync

import (
	"testing"

	"github.com/rotoshake/imagecanvas-sub005/command"
	"github.com/rotoshake/imagecanvas-sub005/scene"
)

type fakeUndo struct {
	remapped map[string]string
}

func (f *fakeUndo) RemapID(oldID, newID string) {
	if f.remapped == nil {
		f.remapped = make(map[string]string)
	}
	f.remapped[oldID] = newID
}

type fakeSelection struct {
	replaced map[string]string
}

func (f *fakeSelection) Replace(oldID, newID string) {
	if f.replaced == nil {
		f.replaced = make(map[string]string)
	}
	f.replaced[oldID] = newID
}

func TestResolveACK_RemapsTempIDEverywhere(t *testing.T) {
	g := scene.NewGraph()
	n := scene.NewNode(scene.NodeText)
	n.IsTemporary = true
	tempID := g.Add(n)

	undo := &fakeUndo{}
	sel := &fakeSelection{}
	m := New(g, undo, sel)

	m.TrackPending(&PendingOp{OpID: "op-1", NodeIDs: []string{tempID}})
	if m.PendingCount() != 1 {
		t.Fatalf("expected 1 pending op, got %d", m.PendingCount())
	}

	if err := m.ResolveACK("op-1", []string{"server-42"}); err != nil {
		t.Fatalf("ResolveACK: %v", err)
	}

	if m.PendingCount() != 0 {
		t.Fatalf("expected pending op cleared, got %d", m.PendingCount())
	}
	if _, err := g.GetNodeByID(tempID); err == nil {
		t.Fatal("expected temp id to no longer resolve in graph")
	}
	got, err := g.GetNodeByID("server-42")
	if err != nil {
		t.Fatalf("expected node reachable at real id: %v", err)
	}
	if got != n {
		t.Fatal("expected pointer identity to survive remap")
	}
	if undo.remapped[tempID] != "server-42" {
		t.Fatalf("expected undo stack remap, got %+v", undo.remapped)
	}
	if sel.replaced[tempID] != "server-42" {
		t.Fatalf("expected selection remap, got %+v", sel.replaced)
	}
}

func TestResolveACK_OrphanedAckRequestsFullSync(t *testing.T) {
	g := scene.NewGraph()
	m := New(g, nil, nil)

	var reasons []string
	m.RequestFullSync = func(reason string) { reasons = append(reasons, reason) }

	if err := m.ResolveACK("unknown-op", nil); err == nil {
		t.Fatal("expected error for unknown op")
	}
	if len(reasons) != 1 {
		t.Fatalf("expected full sync requested once, got %d", len(reasons))
	}
}

func TestRequestFullSync_CooldownSuppressesRepeats(t *testing.T) {
	g := scene.NewGraph()
	m := New(g, nil, nil)
	count := 0
	m.RequestFullSync = func(reason string) { count++ }

	m.TriggerFullSync("first")
	m.TriggerFullSync("second")

	if count != 1 {
		t.Fatalf("expected cooldown to suppress second call, got %d invocations", count)
	}
}

func TestIsOptimistic_GroupCreateDisabledByDefault(t *testing.T) {
	g := scene.NewGraph()
	m := New(g, nil, nil)

	if m.IsOptimistic("group_create") {
		t.Fatal("expected group_create to be authority-path-only")
	}
	if !m.IsOptimistic("node_move") {
		t.Fatal("expected node_move to default to optimistic")
	}
}

func TestIsDuplicateEcho_MatchesTrackedOperationID(t *testing.T) {
	g := scene.NewGraph()
	m := New(g, nil, nil)

	m.TrackPending(&PendingOp{OpID: "op-dup", OperationID: "dup-xyz"})

	if !m.IsDuplicateEcho("dup-xyz") {
		t.Fatal("expected matching operationId to be recognized as a duplicate echo")
	}
	if m.IsDuplicateEcho("other") {
		t.Fatal("expected unrelated operationId to not match")
	}
}

func TestReject_ReturnsPendingOpForUndo(t *testing.T) {
	g := scene.NewGraph()
	m := New(g, nil, nil)

	cmd, _ := command.New("node_move", map[string]interface{}{
		"nodeIds":   []interface{}{"n1"},
		"positions": []interface{}{[]interface{}{1.0, 2.0}},
	})
	m.TrackPending(&PendingOp{OpID: "op-2", Cmd: cmd, NodeIDs: []string{"n1"}})

	op, err := m.Reject("op-2", "validation failed on server")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if op.Cmd != cmd {
		t.Fatal("expected returned pending op to carry the original command")
	}
	if m.PendingCount() != 0 {
		t.Fatal("expected rejected op removed from pending set")
	}
}

func TestAcceptServerSeq_RejectsStaleSequence(t *testing.T) {
	g := scene.NewGraph()
	m := New(g, nil, nil)

	if !m.AcceptServerSeq(5) {
		t.Fatal("expected first sequence to be accepted")
	}
	if m.AcceptServerSeq(3) {
		t.Fatal("expected stale sequence to be rejected")
	}
	if !m.AcceptServerSeq(6) {
		t.Fatal("expected newer sequence to be accepted")
	}
}
