package scene

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/nodetree/internal/core/codec"
	"github.com/zeusync/nodetree/internal/core/events/bus"
	"github.com/zeusync/nodetree/internal/core/nodes"
	"github.com/zeusync/nodetree/internal/core/props"
	"github.com/zeusync/nodetree/internal/core/resource"
	"github.com/zeusync/nodetree/internal/core/tree"
)

const triangle = `
vertices: [[0, 0, 0], [1, 0, 0], [0, 1, 0]]
indices: [0, 1, 2]
`

type fixture struct {
	tree      *tree.Tree
	catalog   *props.Catalog
	resources *resource.Manager
	handler   *Handler
	events    []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog, err := nodes.NewCatalog()
	require.NoError(t, err)

	resources := resource.NewManager(fstest.MapFS{
		"meshes/tri.yaml": {Data: []byte(triangle)},
	}, nil)
	require.NoError(t, nodes.RegisterLoaders(resources))

	f := &fixture{catalog: catalog, resources: resources}
	f.reset(t)
	return f
}

// reset closes the current tree and opens a fresh one.
func (f *fixture) reset(t *testing.T) {
	t.Helper()
	if f.tree != nil {
		require.NoError(t, f.tree.Close())
	}

	eb := bus.New()
	f.events = nil
	_, err := eb.SubscribeAll(func(ev bus.Event) error {
		if ev.Type == EventSaved || ev.Type == EventLoaded {
			f.events = append(f.events, ev.Type)
		}
		return nil
	})
	require.NoError(t, err)

	tr, err := tree.Init(tree.WithEventBus(eb))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })

	f.tree = tr
	f.handler = NewHandler(tr, f.catalog, f.resources, nil)
}

func (f *fixture) add(t *testing.T, b tree.Behavior, parent *tree.Entity, name string) *tree.Entity {
	t.Helper()
	e, err := f.tree.New(b, parent, name)
	require.NoError(t, err)
	return e
}

// describe renders every registered, persisted entity with its parent and
// writable properties so two trees can be compared.
func (f *fixture) describe(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, e := range f.tree.Nodes() {
		table, ok := f.catalog.Table(e.Kind())
		if !ok || !f.tree.CanBeArchived(e) {
			continue
		}
		parent := "-"
		if p := f.tree.Parent(e); p != nil {
			parent = p.Name
		}
		line := fmt.Sprintf("%s %s<%s", e.Kind(), e.Name, parent)
		for _, d := range table.Props {
			if d.ReadOnly() {
				continue
			}
			v, err := d.Get(e)
			require.NoError(t, err)
			line += " " + d.Name + "=" + f.render(t, v)
		}
		out = append(out, line)
	}
	slices.Sort(out)
	return out
}

func (f *fixture) render(t *testing.T, v any) string {
	if h, ok := v.(tree.Handle); ok {
		if target, found := f.tree.Resolve(h); found {
			return "->" + target.Name
		}
		return "->none"
	}
	if path, ok := resource.IsResource(v); ok {
		return "@" + path
	}
	text, err := codec.Encode(v)
	require.NoError(t, err)
	return text
}

func (f *fixture) buildWorld(t *testing.T) {
	t.Helper()
	world := nodes.NewNode3D()
	world.SetPosition(nodes.V(1, 2, 3))
	we := f.add(t, world, nil, "world")
	we.AddTag("level")

	cam := nodes.NewCamera()
	cam.SetFov(45)
	cam.SetRotation(nodes.V(0, 0.25, 0))
	f.add(t, cam, we, "eye")

	mesh, err := f.resources.Load("meshes/tri.yaml", resource.MeshType)
	require.NoError(t, err)
	mc := nodes.NewMeshContainer()
	mc.Mesh = mesh.(*resource.Mesh)
	mc.SetTexture0("textures/grass.png")
	f.add(t, mc, we, "ground")

	body := nodes.NewRigidBody()
	body.Mass = 2.5
	be := f.add(t, body, we, "crate")
	col := nodes.NewCollider()
	col.SetShape(nodes.NewBox(nodes.V(1, 2, 1)))
	ce := f.add(t, col, be, "crate-shape")
	body.Collider = ce.Handle()

	target := nodes.NewMover()
	target.To = nodes.V(4, 0, 0)
	target.Speed = 2
	me := f.add(t, target, nil, "walker")

	trig := nodes.NewTrigger()
	trig.Target = me.Handle()
	trig.Radius = 3
	f.add(t, trig, we, "gate")

	f.add(t, nodes.NewNode(), nil, "empty")
	f.add(t, nodes.NewCameraRig(), nil, "rig")
}

func TestRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.buildWorld(t)
	want := f.describe(t)
	require.Len(t, want, 8)

	data, err := f.handler.Encode()
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "\tmesh r Mesh=meshes/tri.yaml\n")
	assert.Contains(t, text, "\tnode n Collider=")
	assert.Contains(t, text, "\tshape.box Shape=")
	assert.NotContains(t, text, "Acceleration")
	assert.NotContains(t, text, "RigCamera")

	f.reset(t)
	loaded, err := f.handler.Decode(data)
	require.NoError(t, err)
	assert.Len(t, loaded, 8)
	assert.Equal(t, want, f.describe(t))

	again, err := f.handler.Encode()
	require.NoError(t, err)
	assert.Equal(t, text, string(again))
}

func TestRoundTripThroughFile(t *testing.T) {
	f := newFixture(t)
	f.buildWorld(t)
	want := f.describe(t)

	path := filepath.Join(t.TempDir(), "level.scene")
	require.NoError(t, f.handler.Save(path))
	assert.Equal(t, []string{EventSaved}, f.events)

	matches, err := filepath.Glob(path + ".tmp-*")
	require.NoError(t, err)
	assert.Empty(t, matches)

	f.reset(t)
	_, err = f.handler.Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, f.describe(t))
	assert.Equal(t, []string{EventLoaded}, f.events)
}

func TestSaveIntoMissingDirectoryLeavesNothing(t *testing.T) {
	f := newFixture(t)
	f.add(t, nodes.NewNode(), nil, "root")

	path := filepath.Join(t.TempDir(), "missing", "level.scene")
	require.Error(t, f.handler.Save(path))
	_, err := os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, f.events)
}

func TestEncodeLayout(t *testing.T) {
	f := newFixture(t)
	root := f.add(t, nodes.NewNode(), nil, "root")
	f.add(t, nodes.NewNode(), root, "child")

	data, err := f.handler.Encode()
	require.NoError(t, err)

	body := "# nodetree scene format=1\n" +
		"[engine.node local-id='1' parent='0']\n" +
		"\tstring Name=\"root\"\n" +
		"\t[]string Tags=[]\n" +
		"[engine.node local-id='2' parent='1']\n" +
		"\tstring Name=\"child\"\n" +
		"\t[]string Tags=[]\n"
	require.True(t, strings.HasPrefix(string(data), body), string(data))
	assert.Equal(t, formatChecksum([]byte(body)), string(data[len(body):]))
}

func TestParentsPrecedeChildren(t *testing.T) {
	f := newFixture(t)
	leaf := f.add(t, nodes.NewNode(), nil, "leaf")
	mid := f.add(t, nodes.NewNode(), nil, "mid")
	root := f.add(t, nodes.NewNode(), nil, "root")
	require.NoError(t, f.tree.SetParent(mid, root))
	require.NoError(t, f.tree.SetParent(leaf, mid))

	data, err := f.handler.Encode()
	require.NoError(t, err)
	records, err := parse(data)
	require.NoError(t, err)
	require.Len(t, records, 3)

	seen := map[uint32]bool{0: true}
	for _, rec := range records {
		assert.True(t, seen[rec.ParentID], "record %d before its parent %d", rec.LocalID, rec.ParentID)
		seen[rec.LocalID] = true
	}
}

func TestArchiveScenario(t *testing.T) {
	f := newFixture(t)
	r := f.add(t, nodes.NewNode3D(), nil, "R")
	c1 := f.add(t, nodes.NewNode3D(), r, "C1")
	c1.Archive = false
	c2 := f.add(t, nodes.NewNode3D(), c1, "C2")
	require.True(t, c2.Archive)

	data, err := f.handler.Encode()
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "local-id="))
	assert.Contains(t, string(data), `Name="R"`)
	assert.NotContains(t, string(data), "C1")
	assert.NotContains(t, string(data), "C2")

	f.reset(t)
	loaded, err := f.handler.Decode(data)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 1, f.tree.Len())
	assert.Equal(t, "R", loaded[0].Name)
}

func TestForwardReference(t *testing.T) {
	f := newFixture(t)
	data := `
[engine.rigid-body local-id='1' parent='0']
	string Name="body"
	node n Collider=2
[engine.collider local-id='2' parent='1']
	string Name="shape"
`
	loaded, err := f.handler.Decode([]byte(data))
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	body, ok := tree.As[*nodes.RigidBody](loaded[0])
	require.True(t, ok)
	target, ok := f.tree.Resolve(body.Collider)
	require.True(t, ok)
	assert.Same(t, loaded[1], target)
	assert.Same(t, loaded[0], f.tree.Parent(loaded[1]))
}

func TestChildBeforeParentFails(t *testing.T) {
	f := newFixture(t)
	data := `
[engine.node local-id='1' parent='2']
	string Name="child"
[engine.node local-id='2' parent='0']
	string Name="parent"
`
	_, err := f.handler.Decode([]byte(data))
	require.ErrorIs(t, err, ErrUnknownParent)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, uint32(1), loadErr.LocalID)
	assert.Equal(t, 2, loadErr.Line)
	assert.Zero(t, f.tree.Len())
	assert.Empty(t, f.events)
}

func TestUnresolvedReferences(t *testing.T) {
	f := newFixture(t)
	hidden := f.add(t, nodes.NewNode3D(), nil, "hidden")
	hidden.Archive = false
	trig := nodes.NewTrigger()
	trig.Target = hidden.Handle()
	f.add(t, trig, nil, "gate")

	body := nodes.NewRigidBody()
	f.add(t, body, nil, "loose")

	data, err := f.handler.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), "\tnode n Target=unresolved\n")
	assert.Contains(t, string(data), "\tnode n Collider=0\n")

	f.reset(t)
	loaded, err := f.handler.Decode(data)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	got, ok := tree.As[*nodes.Trigger](loaded[0])
	require.True(t, ok)
	assert.True(t, got.Target.IsZero())
}

func TestMissingReferenceTargetIsSoft(t *testing.T) {
	f := newFixture(t)
	data := `
[misc.trigger local-id='1' parent='0']
	node n Target=7
	float32 Radius=2
`
	loaded, err := f.handler.Decode([]byte(data))
	require.NoError(t, err)
	trig, _ := tree.As[*nodes.Trigger](loaded[0])
	assert.True(t, trig.Target.IsZero())
	assert.Equal(t, float32(2), trig.Radius)
}

func TestDroppedParentSavesAsRoot(t *testing.T) {
	f := newFixture(t)
	rig := f.add(t, nodes.NewCameraRig(), nil, "rig")
	f.add(t, nodes.NewNode3D(), rig, "held")

	data, err := f.handler.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), "[engine.node3d local-id='1' parent='0']")
}

func TestCommentsAndBlankLines(t *testing.T) {
	f := newFixture(t)
	data := "# hand written\r\n\r\n[engine.node local-id='1' parent='0']\r\n  # inside a record\r\n\tstring Name=\"a\"\r\n\n"
	loaded, err := f.handler.Decode([]byte(data))
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "a", loaded[0].Name)
}

func TestSyntaxErrors(t *testing.T) {
	cases := map[string]struct {
		data string
		line int
	}{
		"garbage":            {"[engine.node local-id='1' parent='0']\nwhat is this\n", 2},
		"property first":     {"\tstring Name=\"a\"\n", 1},
		"malformed id":       {"[engine.node local-id='x' parent='0']\n", 1},
		"id overflow":        {"[engine.node local-id='99999999999' parent='0']\n", 1},
		"unknown flag":       {"[engine.node local-id='1' parent='0']\n\tstring q Name=\"a\"\n", 2},
		"repeated flag":      {"[engine.node local-id='1' parent='0']\n\tnode nn Name=1\n", 2},
		"unknown value type": {"[engine.node local-id='1' parent='0']\n\tcolor Name=\"a\"\n", 2},
		"bad reference":      {"[misc.trigger local-id='1' parent='0']\n\tnode n Target=first\n", 2},
		"after checksum":     {"# checksum xxh64=ef46db3751d8e999\n[engine.node local-id='1' parent='0']\n", 2},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.handler.Decode([]byte(tc.data))
			require.ErrorIs(t, err, ErrMalformed)

			var syntaxErr *SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.Equal(t, tc.line, syntaxErr.Line)
			assert.Zero(t, f.tree.Len())
		})
	}
}

func TestStructuralErrors(t *testing.T) {
	cases := map[string]struct {
		data string
		want error
	}{
		"unknown type":      {"[engine.teapot local-id='1' parent='0']\n", ErrUnknownType},
		"zero id":           {"[engine.node local-id='0' parent='0']\n", ErrDuplicateID},
		"duplicate id":      {"[engine.node local-id='1' parent='0']\n[engine.node local-id='1' parent='0']\n", ErrDuplicateID},
		"unknown property":  {"[engine.node local-id='1' parent='0']\n\tstring Colour=\"red\"\n", ErrUnknownProperty},
		"read-only":         {"[engine.rigid-body local-id='1' parent='0']\n\tvec3 Acceleration={\"X\":0,\"Y\":0,\"Z\":0}\n", ErrReadOnlyProperty},
		"missing resource":  {"[engine.mesh-container local-id='1' parent='0']\n\tmesh r Mesh=meshes/none.yaml\n", os.ErrNotExist},
		"newer format":      {"# nodetree scene format=2\n", ErrUnsupportedFormat},
		"checksum mismatch": {"[engine.node local-id='1' parent='0']\n# checksum xxh64=0000000000000000\n", ErrChecksumMismatch},
		"type mismatch":     {"[engine.node local-id='1' parent='0']\n\tint Name=3\n", props.ErrTypeMismatch},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.handler.Decode([]byte(tc.data))
			assert.ErrorIs(t, err, tc.want)
			assert.Zero(t, f.tree.Len())
		})
	}
}

func TestTamperedFileFailsChecksum(t *testing.T) {
	f := newFixture(t)
	f.add(t, nodes.NewNode(), nil, "original")
	data, err := f.handler.Encode()
	require.NoError(t, err)

	tampered := strings.Replace(string(data), "original", "modified", 1)
	f.reset(t)
	_, err = f.handler.Decode([]byte(tampered))
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestFailedLoadReleasesEntities(t *testing.T) {
	f := newFixture(t)
	data := `
[engine.node local-id='1' parent='0']
[engine.node local-id='2' parent='1']
[engine.node local-id='3' parent='2']
	string Missing="x"
`
	_, err := f.handler.Decode([]byte(data))
	require.True(t, errors.Is(err, ErrUnknownProperty))
	assert.Empty(t, f.tree.Nodes())

	loaded, err := f.handler.Decode([]byte("[engine.node local-id='1' parent='0']\n"))
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, tree.Handle{Index: 0, Generation: 2}, loaded[0].Handle())
}

func TestFlagsTogetherPreferReference(t *testing.T) {
	f := newFixture(t)
	data := `
[engine.rigid-body local-id='1' parent='0']
	node rn Collider=2
[engine.collider local-id='2' parent='0']
`
	loaded, err := f.handler.Decode([]byte(data))
	require.NoError(t, err)
	body, _ := tree.As[*nodes.RigidBody](loaded[0])
	assert.Equal(t, loaded[1].Handle(), body.Collider)
}

func TestNamedFloatsRoundTrip(t *testing.T) {
	f := newFixture(t)
	data := `
[engine.rigid-body local-id='1' parent='0']
	float32 Gravity="Infinity"
`
	loaded, err := f.handler.Decode([]byte(data))
	require.NoError(t, err)
	body, _ := tree.As[*nodes.RigidBody](loaded[0])
	assert.Greater(t, body.Gravity, float32(1e38))

	out, err := f.handler.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(out), "\tfloat32 Gravity=\"Infinity\"\n")
}

func TestNonFiniteVectorsRoundTrip(t *testing.T) {
	f := newFixture(t)
	inf := float32(math.Inf(1))

	spatial := nodes.NewNode3D()
	f.add(t, spatial, nil, "drifter")
	spatial.SetPosition(nodes.V(float32(math.NaN()), inf, 0))
	mover := nodes.NewMover()
	f.add(t, mover, nil, "mover")
	mover.To = nodes.V(-inf, 1, 2)

	data, err := f.handler.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), "\tvec3 Position={\"X\":\"NaN\",\"Y\":\"Infinity\",\"Z\":0}\n")
	assert.Contains(t, string(data), "\tvec3 To={\"X\":\"-Infinity\",\"Y\":1,\"Z\":2}\n")

	f.reset(t)
	loaded, err := f.handler.Decode(data)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	n3d, ok := tree.As[*nodes.Node3D](loaded[0])
	require.True(t, ok)
	pos := n3d.Position()
	assert.True(t, math.IsNaN(float64(pos.X)))
	assert.True(t, math.IsInf(float64(pos.Y), 1))

	m, ok := tree.As[*nodes.Mover](loaded[1])
	require.True(t, ok)
	assert.True(t, math.IsInf(float64(m.To.X), -1))
	assert.Equal(t, float32(2), m.To.Z)
}

func TestChecksumSurvivesCRLF(t *testing.T) {
	f := newFixture(t)
	root := f.add(t, nodes.NewNode3D(), nil, "root")
	f.add(t, nodes.NewNode(), root, "child")

	data, err := f.handler.Encode()
	require.NoError(t, err)
	crlf := strings.ReplaceAll(string(data), "\n", "\r\n")

	f.reset(t)
	loaded, err := f.handler.Decode([]byte(crlf))
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "child", loaded[1].Name)

	f.reset(t)
	tampered := strings.Replace(crlf, "child", "other", 1)
	_, err = f.handler.Decode([]byte(tampered))
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestPropertyErrorsReportPropertyLine(t *testing.T) {
	f := newFixture(t)
	data := `[engine.node3d local-id='1' parent='0']
	string Name="a"
	[]string Tags=[]
	vec3 Scale={"X":1,"Y":1,"Z":1}
	vec3 Position={"X":oops}
`
	_, err := f.handler.Decode([]byte(data))

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, 5, loadErr.Line)
	assert.Equal(t, "Position", loadErr.Property)
	assert.Equal(t, uint32(1), loadErr.LocalID)
}
