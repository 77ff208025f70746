package volumetric

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestCuboidCenter(t *testing.T) {
	c := NewCuboid3D(r3.Vector{X: -1000, Y: -1000, Z: -1000}, r3.Vector{X: 2000, Y: 2000, Z: 2000})
	test.That(t, c.Center(), test.ShouldResemble, r3.Vector{})
}

func TestCuboidVertices(t *testing.T) {
	c := NewCuboid3D(r3.Vector{}, r3.Vector{X: 1, Y: 2, Z: 3})
	vs := c.Vertices()
	test.That(t, vs[0], test.ShouldResemble, r3.Vector{})
	test.That(t, vs[7], test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
	seen := map[r3.Vector]bool{}
	for _, v := range vs {
		seen[v] = true
	}
	test.That(t, len(seen), test.ShouldEqual, 8)
}

func TestCuboidContains(t *testing.T) {
	c := NewCuboid3D(r3.Vector{}, r3.Vector{X: 10, Y: 10, Z: 10})
	test.That(t, c.Contains(r3.Vector{X: 5, Y: 5, Z: 5}), test.ShouldBeTrue)
	test.That(t, c.Contains(r3.Vector{X: 10, Y: 10, Z: 10}), test.ShouldBeTrue)
	test.That(t, c.Contains(r3.Vector{X: 11, Y: 5, Z: 5}), test.ShouldBeFalse)
}
