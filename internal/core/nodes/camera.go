package nodes

import (
	"github.com/zeusync/nodetree/internal/core/observability/log"
	"github.com/zeusync/nodetree/internal/core/tree"
)

const DefaultFov = 90

// Camera is a spatial viewpoint with a field of view in degrees.
type Camera struct {
	Node3D
	AspectRatio float32

	fov float32
}

func NewCamera() *Camera {
	c := &Camera{fov: DefaultFov, AspectRatio: 1}
	c.init()
	return c
}

func (*Camera) Kind() string {
	return TagCamera
}

func (c *Camera) Fov() float32 {
	return c.fov
}

// SetFov clamps to [1, 90].
func (c *Camera) SetFov(v float32) {
	c.fov = min(max(v, 1), 90)
}

// CameraRig is a runtime-only controller that spawns its own camera when it
// wakes. It is never persisted.
type CameraRig struct {
	Speed       float32
	Sensitivity float32

	camera tree.Handle
}

func NewCameraRig() *CameraRig {
	return &CameraRig{Speed: 1.5, Sensitivity: 0.005}
}

func (*CameraRig) Kind() string {
	return KindCameraRig
}

func (r *CameraRig) Awake(e *tree.Entity) {
	cam, err := e.Tree().New(NewCamera(), e, "RigCamera")
	if err != nil {
		e.Tree().Logger().Error("spawn rig camera failed", log.String("rig", e.Name), log.Error(err))
		return
	}
	cam.Archive = false
	r.camera = cam.Handle()
}

// Camera returns the spawned camera while it is alive.
func (r *CameraRig) Camera(t *tree.Tree) (*Camera, bool) {
	e, ok := t.Resolve(r.camera)
	if !ok {
		return nil, false
	}
	return tree.As[*Camera](e)
}

// Move translates the camera along its own axes. dir is (right, up, front).
func (r *CameraRig) Move(t *tree.Tree, dir Vec3, delta float64) {
	cam, ok := r.Camera(t)
	if !ok {
		return
	}
	step := r.Speed * float32(delta)
	offset := cam.Right().Scale(dir.X).
		Add(cam.Up().Scale(dir.Y)).
		Add(cam.Front().Scale(dir.Z))
	cam.SetPosition(cam.Position().Add(offset.Scale(step)))
}

// Look turns the camera by a pointer offset.
func (r *CameraRig) Look(t *tree.Tree, dx, dy float32) {
	cam, ok := r.Camera(t)
	if !ok {
		return
	}
	cam.SetYaw(cam.Yaw() + dx*r.Sensitivity)
	cam.SetPitch(cam.Pitch() - dy*r.Sensitivity)
}
