// Package scene is the scene graph the systems manipulate: named nodes with
// a local transform, visibility and a small amount of per-node metadata.
// Drawing is somebody else's job; a renderer walks the graph.
package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Kind labels what a node stands for so renderers can pick a drawable.
type Kind uint8

const (
	KindGroup Kind = iota
	KindMesh
	KindLine
	KindMarker
	KindAnchor
	KindPlane
	KindController
)

// Material is the subset of surface state systems touch.
type Material struct {
	Color       uint32
	Opacity     float64
	Transparent bool
	DoubleSided bool
}

// Node is one element of the scene graph. Not safe for concurrent use; all
// mutation happens on the frame loop.
type Node struct {
	Name     string
	Kind     Kind
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3
	Visible  bool

	// XROnly nodes are shown only while an immersive session presents.
	XROnly bool
	// ARScale is the uniform scale a prototype gets when placed in the room.
	ARScale float64
	// Source names the asset a prototype was loaded from.
	Source   string
	Material *Material

	parent   *Node
	children []*Node
}

func NewNode(name string, kind Kind) *Node {
	return &Node{
		Name:     name,
		Kind:     kind,
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
		Visible:  true,
	}
}

func NewGroup(name string) *Node { return NewNode(name, KindGroup) }

func (n *Node) Parent() *Node { return n.parent }

// Children returns the live child slice; callers must not modify it.
func (n *Node) Children() []*Node { return n.children }

// Add attaches child to n, detaching it from any previous parent first.
func (n *Node) Add(child *Node) {
	if child == nil || child == n {
		return
	}
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// Remove detaches child if it is a direct child of n.
func (n *Node) Remove(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// Clone deep-copies n and its subtree. The copy has no parent.
func (n *Node) Clone() *Node {
	c := *n
	c.parent = nil
	c.children = nil
	if n.Material != nil {
		m := *n.Material
		c.Material = &m
	}
	for _, child := range n.children {
		c.Add(child.Clone())
	}
	return &c
}

// Traverse visits n and all descendants depth-first, parents first.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

// FindByName returns the first node in the subtree with the given name.
func (n *Node) FindByName(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.children {
		if found := c.FindByName(name); found != nil {
			return found
		}
	}
	return nil
}

// SetScalar sets a uniform scale.
func (n *Node) SetScalar(s float64) {
	n.Scale = mgl64.Vec3{s, s, s}
}

// RotateY rotates the node about its local vertical axis.
func (n *Node) RotateY(angle float64) {
	n.Rotation = n.Rotation.Mul(mgl64.QuatRotate(angle, mgl64.Vec3{0, 1, 0})).Normalize()
}

// LocalMatrix composes translation, rotation and scale.
func (n *Node) LocalMatrix() mgl64.Mat4 {
	t := mgl64.Translate3D(n.Position.X(), n.Position.Y(), n.Position.Z())
	r := n.Rotation.Mat4()
	s := mgl64.Scale3D(n.Scale.X(), n.Scale.Y(), n.Scale.Z())
	return t.Mul4(r).Mul4(s)
}

// WorldMatrix composes local matrices from the root down.
func (n *Node) WorldMatrix() mgl64.Mat4 {
	m := n.LocalMatrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.LocalMatrix().Mul4(m)
	}
	return m
}

func (n *Node) WorldPosition() mgl64.Vec3 {
	return n.WorldMatrix().Col(3).Vec3()
}

// WorldRotation ignores scale; non-uniform parent scale is not supported.
func (n *Node) WorldRotation() mgl64.Quat {
	q := n.Rotation
	for p := n.parent; p != nil; p = p.parent {
		q = p.Rotation.Mul(q)
	}
	return q.Normalize()
}

// Root returns the topmost ancestor.
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}
