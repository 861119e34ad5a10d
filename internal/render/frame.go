package render

import (
	"math"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
)

// Camera is the viewpoint a frame was produced for.
type Camera struct {
	Position Vec3 `json:"position"`
	Target   Vec3 `json:"target"`
}

// Primitive is a flattened mesh in world space.
type Primitive struct {
	Position Vec3         `json:"position"`
	Size     Vec3         `json:"size"`
	Rotation Vec3         `json:"rotation"`
	Color    domain.Color `json:"color"`
}

// Frame is a flattened snapshot of the graph handed to sinks.
// Sinks that keep a frame beyond the call must copy it; the driver reuses it.
type Frame struct {
	Seq        uint64       `json:"seq"`
	Elapsed    float64      `json:"elapsed"`
	Background domain.Color `json:"background"`
	Camera     Camera       `json:"camera"`
	Primitives []Primitive  `json:"primitives"`
}

// CopyInto copies f into dst, reusing dst's storage.
func (f *Frame) CopyInto(dst *Frame) {
	prims := append(dst.Primitives[:0], f.Primitives...)
	*dst = *f
	dst.Primitives = prims
}

type transform struct {
	pos   Vec3
	rot   Vec3
	scale Vec3
}

var identity = transform{scale: Vec3{1, 1, 1}}

// Snapshot flattens every mesh into dst.Primitives, reusing its capacity.
// Size is the geometry extent multiplied by the accumulated scale.
func (g *Graph) Snapshot(dst *Frame) {
	g.mu.Lock()
	defer g.mu.Unlock()

	dst.Background = g.background
	dst.Primitives = dst.Primitives[:0]
	for _, c := range g.root.children {
		dst.Primitives = appendNode(dst.Primitives, c, identity)
	}
}

func appendNode(out []Primitive, n *Node, parent transform) []Primitive {
	local := Vec3{
		X: n.Position.X * parent.scale.X,
		Y: n.Position.Y * parent.scale.Y,
		Z: n.Position.Z * parent.scale.Z,
	}
	rotated := rotateXYZ(local, parent.rot)
	world := transform{
		pos: Vec3{parent.pos.X + rotated.X, parent.pos.Y + rotated.Y, parent.pos.Z + rotated.Z},
		rot: Vec3{parent.rot.X + n.Rotation.X, parent.rot.Y + n.Rotation.Y, parent.rot.Z + n.Rotation.Z},
		scale: Vec3{
			parent.scale.X * n.Scale.X,
			parent.scale.Y * n.Scale.Y,
			parent.scale.Z * n.Scale.Z,
		},
	}

	if n.Geometry != nil {
		off := n.Geometry.Offset
		shift := rotateXYZ(Vec3{off.X * world.scale.X, off.Y * world.scale.Y, off.Z * world.scale.Z}, world.rot)
		p := Primitive{
			Position: Vec3{world.pos.X + shift.X, world.pos.Y + shift.Y, world.pos.Z + shift.Z},
			Rotation: world.rot,
			Size: Vec3{
				X: n.Geometry.Width * world.scale.X,
				Y: n.Geometry.Height * world.scale.Y,
				Z: n.Geometry.Depth * world.scale.Z,
			},
		}
		if n.Material != nil {
			p.Color = n.Material.Color
		}
		out = append(out, p)
	}

	for _, c := range n.children {
		out = appendNode(out, c, world)
	}
	return out
}

// rotateXYZ applies Euler rotation in X, Y, Z order (v' = Rx * Ry * Rz * v).
func rotateXYZ(v Vec3, r Vec3) Vec3 {
	if r.Z != 0 {
		s, c := math.Sincos(r.Z)
		v = Vec3{v.X*c - v.Y*s, v.X*s + v.Y*c, v.Z}
	}
	if r.Y != 0 {
		s, c := math.Sincos(r.Y)
		v = Vec3{v.X*c + v.Z*s, v.Y, -v.X*s + v.Z*c}
	}
	if r.X != 0 {
		s, c := math.Sincos(r.X)
		v = Vec3{v.X, v.Y*c - v.Z*s, v.Y*s + v.Z*c}
	}
	return v
}
