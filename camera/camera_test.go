package camera

import (
	"image"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"github.com/poselab/mvpose/imgutil"
)

var (
	identityR = [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	zeroT     = [3]float64{}
)

func newTestCamera() *Camera {
	k := [3][3]float64{
		{100, 0, 50},
		{0, 100, 50},
		{0, 0, 1},
	}
	return New(identityR, zeroT, k, []float64{0, 0, 0, 0, 0}, "54138969")
}

func TestUpdateAfterCrop(t *testing.T) {
	cam := newTestCamera()
	cam.UpdateAfterCrop(imgutil.BBox{Left: 10, Top: 10, Right: 110, Bottom: 110})
	test.That(t, cam.Ppx(), test.ShouldAlmostEqual, 40, 1e-9)
	test.That(t, cam.Ppy(), test.ShouldAlmostEqual, 40, 1e-9)
	test.That(t, cam.Fx(), test.ShouldAlmostEqual, 100, 1e-9)
	test.That(t, cam.Fy(), test.ShouldAlmostEqual, 100, 1e-9)
}

func TestUpdateAfterResize(t *testing.T) {
	cam := newTestCamera()
	err := cam.UpdateAfterResize(image.Pt(100, 100), image.Pt(256, 256))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cam.Fx(), test.ShouldAlmostEqual, 256, 1e-9)
	test.That(t, cam.Fy(), test.ShouldAlmostEqual, 256, 1e-9)
	test.That(t, cam.Ppx(), test.ShouldAlmostEqual, 128, 1e-9)
	test.That(t, cam.Ppy(), test.ShouldAlmostEqual, 128, 1e-9)
}

func TestUpdateAfterResizeBadShape(t *testing.T) {
	cam := newTestCamera()
	err := cam.UpdateAfterResize(image.Pt(0, 100), image.Pt(256, 256))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrBadResizeShape), test.ShouldBeTrue)
}

// Cropping to (10,10)-(110,110) and resizing the 100x100 crop to 256x256
// must be equivalent to constructing the camera directly for the final
// image: the principal point shifts by -10 before scaling, and everything
// scales by 2.56.
func TestCropThenResizeMatchesDirectConstruction(t *testing.T) {
	cam := newTestCamera()
	box := imgutil.BBox{Left: 10, Top: 10, Right: 110, Bottom: 110}
	cam.UpdateAfterCrop(box)
	err := cam.UpdateAfterResize(image.Pt(box.Width(), box.Height()), image.Pt(256, 256))
	test.That(t, err, test.ShouldBeNil)

	direct := New(identityR, zeroT, [3][3]float64{
		{100 * 2.56, 0, (50 - 10) * 2.56},
		{0, 100 * 2.56, (50 - 10) * 2.56},
		{0, 0, 1},
	}, nil, "54138969")

	test.That(t, mat.EqualApprox(cam.Projection(), direct.Projection(), 1e-9), test.ShouldBeTrue)
}

func TestProjection(t *testing.T) {
	k := [3][3]float64{
		{2, 0, 1},
		{0, 3, 2},
		{0, 0, 1},
	}
	cam := New(identityR, [3]float64{4, 5, 6}, k, nil, "cam0")

	ext := cam.Extrinsics()
	test.That(t, ext.At(0, 3), test.ShouldAlmostEqual, 4, 1e-9)
	test.That(t, ext.At(2, 3), test.ShouldAlmostEqual, 6, 1e-9)

	proj := cam.Projection()
	r, c := proj.Dims()
	test.That(t, r, test.ShouldEqual, 3)
	test.That(t, c, test.ShouldEqual, 4)
	// K·[I|t]: row 0 = [2 0 1 | 2*4+1*6]
	test.That(t, proj.At(0, 0), test.ShouldAlmostEqual, 2, 1e-9)
	test.That(t, proj.At(0, 2), test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, proj.At(0, 3), test.ShouldAlmostEqual, 14, 1e-9)
	test.That(t, proj.At(1, 3), test.ShouldAlmostEqual, 3*5+2*6, 1e-9)
	test.That(t, proj.At(2, 3), test.ShouldAlmostEqual, 6, 1e-9)
}

func TestIntrinsicsIsACopy(t *testing.T) {
	cam := newTestCamera()
	k := cam.Intrinsics()
	k.Set(0, 2, 9999)
	test.That(t, cam.Ppx(), test.ShouldAlmostEqual, 50, 1e-9)
}
