// Package volumetric holds the 3D volume primitives handed to downstream
// volumetric reconstruction.
package volumetric

import "github.com/golang/geo/r3"

// Cuboid3D is an axis-aligned box in world coordinates. Position is the
// minimum corner; Sides are the edge lengths along each axis.
type Cuboid3D struct {
	Position r3.Vector `json:"position"`
	Sides    r3.Vector `json:"sides"`
}

// NewCuboid3D returns a cuboid with the given minimum corner and side
// lengths.
func NewCuboid3D(position, sides r3.Vector) Cuboid3D {
	return Cuboid3D{Position: position, Sides: sides}
}

// Center returns the midpoint of the cuboid.
func (c Cuboid3D) Center() r3.Vector {
	return c.Position.Add(c.Sides.Mul(0.5))
}

// Vertices returns the eight corners, minimum corner first.
func (c Cuboid3D) Vertices() [8]r3.Vector {
	var out [8]r3.Vector
	for i := 0; i < 8; i++ {
		v := c.Position
		if i&1 != 0 {
			v.X += c.Sides.X
		}
		if i&2 != 0 {
			v.Y += c.Sides.Y
		}
		if i&4 != 0 {
			v.Z += c.Sides.Z
		}
		out[i] = v
	}
	return out
}

// Contains reports whether the point lies inside the cuboid (inclusive).
func (c Cuboid3D) Contains(p r3.Vector) bool {
	max := c.Position.Add(c.Sides)
	return p.X >= c.Position.X && p.X <= max.X &&
		p.Y >= c.Position.Y && p.Y <= max.Y &&
		p.Z >= c.Position.Z && p.Z <= max.Z
}
