// Package camera models a calibrated perspective camera with full
// extrinsics, built from the raw per-(subject, camera) parameters stored in
// a label archive.
package camera

import (
	"image"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/poselab/mvpose/imgutil"
)

// ErrBadResizeShape is returned when an intrinsics update is requested for a
// degenerate image shape.
var ErrBadResizeShape = errors.New("image shape must have positive width and height")

// Camera is a pinhole camera with extrinsics. The intrinsic matrix is
// mutated in place by UpdateAfterCrop/UpdateAfterResize so that it keeps
// describing the image as it moves through the crop/resize pipeline.
type Camera struct {
	name string
	r    *mat.Dense    // 3x3 rotation, world to camera
	t    *mat.VecDense // 3x1 translation
	k    *mat.Dense    // 3x3 intrinsics
	dist []float64     // distortion coefficients, unused by projection
}

// New builds a Camera from raw extrinsics, intrinsics, and distortion
// coefficients.
func New(r [3][3]float64, t [3]float64, k [3][3]float64, dist []float64, name string) *Camera {
	rm := mat.NewDense(3, 3, nil)
	km := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rm.Set(i, j, r[i][j])
			km.Set(i, j, k[i][j])
		}
	}
	return &Camera{
		name: name,
		r:    rm,
		t:    mat.NewVecDense(3, []float64{t[0], t[1], t[2]}),
		k:    km,
		dist: append([]float64(nil), dist...),
	}
}

// Name returns the camera's name from the label archive.
func (c *Camera) Name() string { return c.name }

// Fx returns the horizontal focal length in pixels.
func (c *Camera) Fx() float64 { return c.k.At(0, 0) }

// Fy returns the vertical focal length in pixels.
func (c *Camera) Fy() float64 { return c.k.At(1, 1) }

// Ppx returns the horizontal coordinate of the principal point.
func (c *Camera) Ppx() float64 { return c.k.At(0, 2) }

// Ppy returns the vertical coordinate of the principal point.
func (c *Camera) Ppy() float64 { return c.k.At(1, 2) }

// Distortion returns a copy of the distortion coefficients.
func (c *Camera) Distortion() []float64 {
	return append([]float64(nil), c.dist...)
}

// UpdateAfterCrop shifts the principal point so the intrinsics describe the
// image cropped to the given box.
func (c *Camera) UpdateAfterCrop(b imgutil.BBox) {
	c.k.Set(0, 2, c.k.At(0, 2)-float64(b.Left))
	c.k.Set(1, 2, c.k.At(1, 2)-float64(b.Top))
}

// UpdateAfterResize rescales the focal lengths and principal point so the
// intrinsics describe the image resized from oldShape to newShape. Shapes
// are (width, height) points.
func (c *Camera) UpdateAfterResize(oldShape, newShape image.Point) error {
	if oldShape.X <= 0 || oldShape.Y <= 0 || newShape.X <= 0 || newShape.Y <= 0 {
		return errors.Wrapf(ErrBadResizeShape, "resize %v -> %v", oldShape, newShape)
	}
	sx := float64(newShape.X) / float64(oldShape.X)
	sy := float64(newShape.Y) / float64(oldShape.Y)
	c.k.Set(0, 0, c.k.At(0, 0)*sx)
	c.k.Set(1, 1, c.k.At(1, 1)*sy)
	c.k.Set(0, 2, c.k.At(0, 2)*sx)
	c.k.Set(1, 2, c.k.At(1, 2)*sy)
	return nil
}

// Intrinsics returns a copy of the current 3x3 intrinsic matrix.
func (c *Camera) Intrinsics() *mat.Dense {
	return mat.DenseCopyOf(c.k)
}

// Extrinsics returns the 3x4 [R|t] matrix.
func (c *Camera) Extrinsics() *mat.Dense {
	ext := mat.NewDense(3, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			ext.Set(i, j, c.r.At(i, j))
		}
		ext.Set(i, 3, c.t.AtVec(i))
	}
	return ext
}

// Projection returns the current 3x4 projection matrix K·[R|t].
func (c *Camera) Projection() *mat.Dense {
	proj := mat.NewDense(3, 4, nil)
	proj.Mul(c.k, c.Extrinsics())
	return proj
}
