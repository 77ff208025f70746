package imgutil

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"go.viam.com/test"
)

func TestFromTLBR(t *testing.T) {
	b := FromTLBR([4]int{10, 20, 110, 220})
	test.That(t, b, test.ShouldResemble, BBox{Left: 20, Top: 10, Right: 220, Bottom: 110})
	test.That(t, b.Width(), test.ShouldEqual, 200)
	test.That(t, b.Height(), test.ShouldEqual, 100)
	test.That(t, b.TLBR(), test.ShouldResemble, [4]int{10, 20, 110, 220})
}

func TestBBoxEmpty(t *testing.T) {
	test.That(t, BBox{Left: 0, Top: 5, Right: 10, Bottom: 5}.Empty(), test.ShouldBeTrue)
	test.That(t, BBox{Left: 0, Top: 5, Right: 10, Bottom: 6}.Empty(), test.ShouldBeFalse)
}

func TestScaleBBox(t *testing.T) {
	b := BBox{Left: 0, Top: 0, Right: 100, Bottom: 50}
	scaled := ScaleBBox(b, 1.5)
	test.That(t, scaled.Width(), test.ShouldEqual, 150)
	test.That(t, scaled.Height(), test.ShouldEqual, 75)
	// center is preserved up to integer truncation
	test.That(t, (scaled.Left+scaled.Right)/2, test.ShouldEqual, 50)
	test.That(t, (scaled.Top+scaled.Bottom)/2, test.ShouldEqual, 25)

	// identity scale leaves the box unchanged
	test.That(t, ScaleBBox(b, 1.0), test.ShouldResemble, b)
}

func TestCropImageInside(t *testing.T) {
	img := imaging.New(100, 100, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	cropped := CropImage(img, BBox{Left: 10, Top: 20, Right: 40, Bottom: 60})
	test.That(t, cropped.Bounds().Dx(), test.ShouldEqual, 30)
	test.That(t, cropped.Bounds().Dy(), test.ShouldEqual, 40)
	r, g, b, _ := cropped.At(0, 0).RGBA()
	test.That(t, r>>8, test.ShouldEqual, 200)
	test.That(t, g>>8, test.ShouldEqual, 100)
	test.That(t, b>>8, test.ShouldEqual, 50)
}

func TestCropImagePadsOutside(t *testing.T) {
	img := imaging.New(20, 20, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	// box extends 10px past every edge
	cropped := CropImage(img, BBox{Left: -10, Top: -10, Right: 30, Bottom: 30})
	test.That(t, cropped.Bounds().Dx(), test.ShouldEqual, 40)
	test.That(t, cropped.Bounds().Dy(), test.ShouldEqual, 40)

	// the padded corner is black, the shifted original is white
	r, _, _, _ := cropped.At(0, 0).RGBA()
	test.That(t, r, test.ShouldEqual, 0)
	r, _, _, _ = cropped.At(15, 15).RGBA()
	test.That(t, r>>8, test.ShouldEqual, 255)
}

func TestCropImageDisjoint(t *testing.T) {
	img := imaging.New(10, 10, color.NRGBA{R: 255, A: 255})
	cropped := CropImage(img, BBox{Left: 100, Top: 100, Right: 120, Bottom: 120})
	test.That(t, cropped.Bounds(), test.ShouldResemble, image.Rect(0, 0, 20, 20))
	r, _, _, _ := cropped.At(5, 5).RGBA()
	test.That(t, r, test.ShouldEqual, 0)
}

func TestResizeImage(t *testing.T) {
	img := imaging.New(100, 50, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	resized := ResizeImage(img, 256, 256)
	test.That(t, resized.Bounds().Dx(), test.ShouldEqual, 256)
	test.That(t, resized.Bounds().Dy(), test.ShouldEqual, 256)
}

func TestNormalizeImage(t *testing.T) {
	img := imaging.New(4, 2, color.NRGBA{R: 255, G: 0, B: 127, A: 255})
	px := NormalizeImage(img)
	test.That(t, px, test.ShouldHaveLength, 4*2*3)
	test.That(t, px[0], test.ShouldAlmostEqual, 1.0, 1e-6)
	test.That(t, px[1], test.ShouldAlmostEqual, 0.0, 1e-6)
	test.That(t, px[2], test.ShouldAlmostEqual, 127.0/255.0, 1e-6)
	for _, v := range px {
		test.That(t, v >= 0 && v <= 1, test.ShouldBeTrue)
	}
}
