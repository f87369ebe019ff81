package execution

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestOpenLinksChildrenAndRoots(t *testing.T) {
	tree := NewTree()

	outer := tree.Open("outer", 0, NoParent, t0, 100*time.Millisecond)
	inner1 := tree.Open("inner1", 1, outer, t0, 100*time.Millisecond)
	inner2 := tree.Open("inner2", 1, outer, t0, 100*time.Millisecond)
	other := tree.Open("other", 0, NoParent, t0, 100*time.Millisecond)

	assert.Equal(t, []ID{outer, other}, tree.Roots())

	rec, ok := tree.Get(outer)
	require.True(t, ok)
	assert.Equal(t, []ID{inner1, inner2}, rec.Children)
	assert.True(t, rec.IsRoot())

	child, _ := tree.Get(inner2)
	assert.Equal(t, outer, child.Parent)
	assert.Equal(t, 4, tree.Len())
	assert.Equal(t, 4, tree.OpenCount())
}

func TestOpenUnknownParentBecomesRoot(t *testing.T) {
	tree := NewTree()
	id := tree.Open("orphan", 0, ID(42), t0, time.Millisecond)

	rec, _ := tree.Get(id)
	assert.Equal(t, NoParent, rec.Parent)
	assert.Equal(t, []ID{id}, tree.Roots())
}

func TestCloseOnce(t *testing.T) {
	tree := NewTree()
	id := tree.Open("call", 0, NoParent, t0, 100*time.Millisecond)

	delta := int64(-2048)
	boom := errors.New("boom")
	rec, ok := tree.Close(id, CloseInfo{EndTime: t0.Add(150 * time.Millisecond), MemoryDelta: &delta, Err: boom})
	require.True(t, ok)
	assert.Equal(t, 150*time.Millisecond, rec.Duration)
	assert.Equal(t, 150.0, rec.DurationMs())
	assert.True(t, rec.IsSlow)
	assert.True(t, rec.Closed)
	assert.Same(t, boom, rec.Err)
	require.NotNil(t, rec.MemoryDelta)
	assert.Equal(t, int64(-2048), *rec.MemoryDelta)

	_, ok = tree.Close(id, CloseInfo{EndTime: t0.Add(time.Hour)})
	assert.False(t, ok, "second close must be ignored")

	again, _ := tree.Get(id)
	assert.Equal(t, 150*time.Millisecond, again.Duration)
	assert.Equal(t, 0, tree.OpenCount())
}

func TestCloseNeverNegative(t *testing.T) {
	tree := NewTree()
	id := tree.Open("call", 0, NoParent, t0, time.Millisecond)
	rec, _ := tree.Close(id, CloseInfo{EndTime: t0.Add(-time.Second)})
	assert.Equal(t, time.Duration(0), rec.Duration)
	assert.False(t, rec.IsSlow)
}

func TestThresholdIsStrict(t *testing.T) {
	tree := NewTree()
	id := tree.Open("edge", 0, NoParent, t0, 100*time.Millisecond)
	rec, _ := tree.Close(id, CloseInfo{EndTime: t0.Add(100 * time.Millisecond)})
	assert.False(t, rec.IsSlow, "duration equal to threshold is not slow")
}

func TestAddClosed(t *testing.T) {
	tree := NewTree()
	parent := tree.Open("open", 0, NoParent, t0, time.Second)
	rec := tree.AddClosed("timer", t0, 10*time.Millisecond, CloseInfo{EndTime: t0.Add(20 * time.Millisecond)})

	assert.True(t, rec.IsRoot())
	assert.True(t, rec.IsSlow)
	assert.Equal(t, []ID{parent, rec.ID}, tree.Roots())
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	tree := NewTree()
	root := tree.Open("root", 0, NoParent, t0, time.Second)
	tree.Open("child", 1, root, t0, time.Second)

	snap := tree.Snapshot()
	tree.Open("late", 1, root, t0, time.Second)
	tree.Reset()

	require.Len(t, snap.Records, 2)
	rec, ok := snap.Get(root)
	require.True(t, ok)
	assert.Len(t, rec.Children, 1)
	assert.Equal(t, 0, tree.Len())
	assert.Empty(t, tree.Roots())
}

func TestSnapshotWalkOrder(t *testing.T) {
	tree := NewTree()
	a := tree.Open("a", 0, NoParent, t0, time.Second)
	b := tree.Open("b", 1, a, t0, time.Second)
	tree.Open("c", 2, b, t0, time.Second)
	tree.Open("d", 1, a, t0, time.Second)
	tree.Open("e", 0, NoParent, t0, time.Second)

	snap := tree.Snapshot()

	var names []string
	var depths []int
	snap.Walk(func(rec *Record, depth int) bool {
		names = append(names, rec.Name)
		depths = append(depths, depth)
		return true
	})

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, names)
	assert.Equal(t, []int{0, 1, 2, 1, 0}, depths)

	found, ok := snap.Find("d")
	require.True(t, ok)
	assert.Equal(t, a, found.Parent)

	_, ok = snap.Find("missing")
	assert.False(t, ok)

	children := snap.Children(a)
	require.Len(t, children, 2)
	assert.Equal(t, "b", children[0].Name)
	assert.Len(t, snap.RootRecords(), 2)
}

func TestNearestOpen(t *testing.T) {
	tree := NewTree()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	a := tree.Open("a", 0, NoParent, t0, time.Second)
	b := tree.Open("b", 1, a, t0, time.Second)
	c := tree.Open("c", 2, b, t0, time.Second)

	assert.True(t, tree.IsOpen(c))
	assert.Equal(t, c, tree.NearestOpen(c))

	tree.Close(c, CloseInfo{EndTime: t0})
	tree.Close(b, CloseInfo{EndTime: t0})
	assert.False(t, tree.IsOpen(c))
	assert.Equal(t, a, tree.NearestOpen(c))

	tree.Close(a, CloseInfo{EndTime: t0})
	assert.Equal(t, NoParent, tree.NearestOpen(c))
	assert.Equal(t, NoParent, tree.NearestOpen(NoParent))
	assert.False(t, tree.IsOpen(ID(99)))
}
