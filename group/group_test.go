package group

import (
	"testing"

	"github.com/rotoshake/imagecanvas-sub005/scene"
)

func newChild(g *scene.Graph, x, y, w, h float64) *scene.Node {
	n := scene.NewNode(scene.NodeImage)
	n.X, n.Y, n.Width, n.Height = x, y, w, h
	g.Add(n)
	return n
}

func TestUpdateBounds_ContainsAllChildrenWithPadding(t *testing.T) {
	gph := scene.NewGraph()
	mgr := New(gph, 12, 28)

	c1 := newChild(gph, 0, 0, 50, 50)
	c2 := newChild(gph, 100, 100, 50, 50)

	grp := scene.NewNode(scene.NodeGroup)
	grp.ChildNodes = map[string]struct{}{c1.ID: {}, c2.ID: {}}
	gph.Add(grp)

	mgr.UpdateBounds(grp, false)

	if grp.X != -12 || grp.Y != -12-28 {
		t.Fatalf("expected origin (-12,-40), got (%v,%v)", grp.X, grp.Y)
	}
	wantW := 150.0 + 24
	wantH := 150.0 + 24 + 28
	if grp.Width != wantW || grp.Height != wantH {
		t.Fatalf("expected size (%v,%v), got (%v,%v)", wantW, wantH, grp.Width, grp.Height)
	}
}

func TestUpdateBounds_SkippedDuringProtectionWindow(t *testing.T) {
	gph := scene.NewGraph()
	mgr := New(gph, 12, 28)

	c1 := newChild(gph, 0, 0, 50, 50)
	grp := scene.NewNode(scene.NodeGroup)
	grp.ChildNodes = map[string]struct{}{c1.ID: {}}
	gph.Add(grp)

	mgr.MarkAlignmentCompleted(grp.ID)
	grp.X, grp.Y, grp.Width, grp.Height = 999, 999, 1, 1

	mgr.UpdateBounds(grp, false)

	if grp.X != 999 || grp.Y != 999 {
		t.Fatalf("expected bounds untouched during protection window, got (%v,%v)", grp.X, grp.Y)
	}
}

func TestMoveChildren_CascadesDelta(t *testing.T) {
	gph := scene.NewGraph()
	mgr := New(gph, 12, 28)

	c1 := newChild(gph, 10, 10, 20, 20)
	c2 := newChild(gph, 50, 50, 20, 20)
	grp := scene.NewNode(scene.NodeGroup)
	grp.ChildNodes = map[string]struct{}{c1.ID: {}, c2.ID: {}}
	gph.Add(grp)

	mgr.MoveChildren(grp, 5, -5)

	if c1.X != 15 || c1.Y != 5 {
		t.Fatalf("c1 not moved correctly: (%v,%v)", c1.X, c1.Y)
	}
	if c2.X != 55 || c2.Y != 45 {
		t.Fatalf("c2 not moved correctly: (%v,%v)", c2.X, c2.Y)
	}
}

func TestNearestGroup_PicksClosestByCenter(t *testing.T) {
	gph := scene.NewGraph()

	near := scene.NewNode(scene.NodeGroup)
	near.X, near.Y, near.Width, near.Height = 0, 0, 10, 10
	gph.Add(near)

	far := scene.NewNode(scene.NodeGroup)
	far.X, far.Y, far.Width, far.Height = 1000, 1000, 10, 10
	gph.Add(far)

	loose := scene.NewNode(scene.NodeImage)
	loose.X, loose.Y, loose.Width, loose.Height = 1, 1, 10, 10

	got := NearestGroup(loose, []*scene.Node{near, far})
	if got != near {
		t.Fatalf("expected nearest group to be %q, got %q", near.ID, got.ID)
	}
}

func TestIsProtected_FalseForUnmarkedGroup(t *testing.T) {
	gph := scene.NewGraph()
	mgr := New(gph, 12, 28)
	if mgr.IsProtected("missing-group") {
		t.Fatal("expected unmarked group to never be protected")
	}
}
