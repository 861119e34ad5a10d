// Package render holds the in-memory scene graph that scenes mutate each frame.
// It stands in for a drawing surface: nodes carry transforms, geometry and
// material, and sinks read flattened snapshots of it.
package render

import (
	"sync"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
)

// Vec3 is a three-component vector.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Geometry is a box with the given extent. It is a graphics resource and must be disposed.
// Offset moves the box away from its node's origin, in the node's local space.
type Geometry struct {
	Width, Height, Depth float64
	Offset               Vec3
	disposed             bool
}

// NewBox creates box geometry.
func NewBox(width, height, depth float64) *Geometry {
	return &Geometry{Width: width, Height: height, Depth: depth}
}

// Translate shifts the box relative to its node. Scaling the node scales the shift.
func (g *Geometry) Translate(x, y, z float64) *Geometry {
	g.Offset = Vec3{g.Offset.X + x, g.Offset.Y + y, g.Offset.Z + z}
	return g
}

// Disposed reports whether the geometry was released.
func (g *Geometry) Disposed() bool { return g.disposed }

// Material holds the render color of a mesh. Each mesh owns its own material.
type Material struct {
	Color    domain.Color
	disposed bool
}

// NewMaterial creates a material.
func NewMaterial(color domain.Color) *Material {
	return &Material{Color: color}
}

// Disposed reports whether the material was released.
func (m *Material) Disposed() bool { return m.disposed }

// Node is a group (no geometry) or a mesh in the graph.
type Node struct {
	Name     string
	Position Vec3
	Rotation Vec3
	Scale    Vec3
	Geometry *Geometry
	Material *Material

	parent   *Node
	children []*Node
}

// NewGroup creates an empty group with unit scale.
func NewGroup(name string) *Node {
	return &Node{Name: name, Scale: Vec3{1, 1, 1}}
}

// NewMesh creates a mesh with unit scale.
func NewMesh(name string, geometry *Geometry, material *Material) *Node {
	return &Node{Name: name, Scale: Vec3{1, 1, 1}, Geometry: geometry, Material: material}
}

// IsMesh reports whether the node carries drawable resources.
func (n *Node) IsMesh() bool { return n.Geometry != nil || n.Material != nil }

// Add attaches child to n, detaching it from any previous parent.
func (n *Node) Add(child *Node) {
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// Remove detaches child from n. It is a no-op if child is not a direct child.
func (n *Node) Remove(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// Parent returns the parent node, or nil when detached.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the direct children. The slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int { return len(n.children) }

// Walk visits n and its descendants depth-first.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// DisposeHook observes each mesh whose resources are released.
type DisposeHook func(n *Node)

// Graph is the root of the drawable world.
// The mutex guards structure changes against concurrent snapshots.
type Graph struct {
	root       *Node
	background domain.Color
	hook       DisposeHook
	mu         sync.Mutex
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{root: NewGroup("root")}
}

// SetDisposeHook installs a hook called once per released mesh.
func (g *Graph) SetDisposeHook(hook DisposeHook) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hook = hook
}

// Attach adds a subtree to the root.
func (g *Graph) Attach(n *Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.root.Add(n)
}

// Root returns the root group.
func (g *Graph) Root() *Node { return g.root }

// SetBackground sets the clear color.
func (g *Graph) SetBackground(c domain.Color) {
	g.mu.Lock()
	g.background = c
	g.mu.Unlock()
}

// Background returns the clear color.
func (g *Graph) Background() domain.Color {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.background
}

// Dispose releases every geometry and material below n (children first) and
// detaches n from its parent. Resources already released are skipped, so the
// hook fires at most once per mesh.
func (g *Graph) Dispose(n *Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dispose(n)
}

func (g *Graph) dispose(n *Node) {
	for i := len(n.children) - 1; i >= 0; i-- {
		g.dispose(n.children[i])
	}

	released := false
	if n.Geometry != nil && !n.Geometry.disposed {
		n.Geometry.disposed = true
		released = true
	}
	if n.Material != nil && !n.Material.disposed {
		n.Material.disposed = true
		released = true
	}
	if released && g.hook != nil {
		g.hook(n)
	}

	if n.parent != nil {
		n.parent.Remove(n)
	}
}

// MeshCount returns the number of meshes reachable from the root.
func (g *Graph) MeshCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	count := 0
	g.root.Walk(func(n *Node) {
		if n.IsMesh() {
			count++
		}
	})
	return count
}
