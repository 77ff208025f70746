// Package imgutil contains bounding-box and image helpers shared by the
// dataset materializer and the offline bbox collector.
package imgutil

import "fmt"

// BBox is an axis-aligned bounding box in pixel coordinates, stored in
// left-top-right-bottom order. Right and Bottom are exclusive.
type BBox struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// FromTLBR converts a box stored in top-left-bottom-right order (the label
// table layout) into a BBox.
func FromTLBR(b [4]int) BBox {
	return BBox{Left: b[1], Top: b[0], Right: b[3], Bottom: b[2]}
}

// TLBR returns the box in top-left-bottom-right order.
func (b BBox) TLBR() [4]int {
	return [4]int{b.Top, b.Left, b.Bottom, b.Right}
}

// Width returns the horizontal extent of the box.
func (b BBox) Width() int {
	return b.Right - b.Left
}

// Height returns the vertical extent of the box.
func (b BBox) Height() int {
	return b.Bottom - b.Top
}

// Empty reports whether the box has zero height. A zero-height box is the
// label-table convention for a missing view.
func (b BBox) Empty() bool {
	return b.Height() == 0
}

func (b BBox) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", b.Left, b.Top, b.Right, b.Bottom)
}

// ScaleBBox grows (or shrinks) the box by the given factor around its center.
// Extents use truncating integer arithmetic so repeated scaling stays stable
// across platforms.
func ScaleBBox(b BBox, scale float64) BBox {
	width, height := b.Width(), b.Height()
	xCenter := (b.Right + b.Left) / 2
	yCenter := (b.Bottom + b.Top) / 2

	newWidth := int(scale * float64(width))
	newHeight := int(scale * float64(height))

	newLeft := xCenter - newWidth/2
	newTop := yCenter - newHeight/2
	return BBox{
		Left:   newLeft,
		Top:    newTop,
		Right:  newLeft + newWidth,
		Bottom: newTop + newHeight,
	}
}
