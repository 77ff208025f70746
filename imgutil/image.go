package imgutil

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

// CropImage cuts the box out of the image. Regions of the box that fall
// outside the image bounds are filled with black, so the output is always
// exactly Width()×Height() pixels and the box's top-left corner maps to the
// output origin. That keeps the principal-point shift applied by
// Camera.UpdateAfterCrop valid even for boxes that exceed the frame.
func CropImage(img image.Image, b BBox) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, b.Width(), b.Height()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	src := img.Bounds()
	isect := image.Rect(b.Left, b.Top, b.Right, b.Bottom).Intersect(src)
	if isect.Empty() {
		return dst
	}
	dstRect := isect.Sub(image.Pt(b.Left, b.Top))
	draw.Draw(dst, dstRect, img, isect.Min, draw.Src)
	return dst
}

// ResizeImage scales the image to the given width and height with bilinear
// interpolation.
func ResizeImage(img image.Image, width, height int) image.Image {
	return imaging.Resize(img, width, height, imaging.Linear)
}

// NormalizeImage converts the image to a flat float32 tensor in HWC order,
// RGB channels, with values scaled to [0, 1].
func NormalizeImage(img image.Image) []float32 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := make([]float32, 0, height*width*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			out = append(out,
				float32(r>>8)/255.0,
				float32(g>>8)/255.0,
				float32(b>>8)/255.0,
			)
		}
	}
	return out
}
