package dataset

import (
	"image"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/poselab/mvpose/camera"
	"github.com/poselab/mvpose/imgutil"
	"github.com/poselab/mvpose/volumetric"
)

// Keypoint is one joint of a pose with its confidence.
type Keypoint struct {
	Position   r3.Vector
	Confidence float64
}

// Sample is one materialized shot. The per-camera slices (Images,
// Detections, Cameras, Projections) are parallel and hold one entry per
// surviving camera, in camera-table order: ignored cameras and cameras with
// a missing view for this shot have already been dropped, so consumers must
// not assume a fixed view count.
type Sample struct {
	Images      []image.Image
	Detections  []imgutil.BBox
	Cameras     []*camera.Camera
	Projections []*mat.Dense

	// Normalized holds one [0,1] float tensor per view when normalization
	// is enabled, parallel to Images.
	Normalized [][]float32
	// ShapesBeforeResize records each view's (width, height) before the
	// resize step, parallel to Images, when resizing is enabled.
	ShapesBeforeResize []image.Point

	// Keypoints3D is the ground-truth pose, each joint padded with a
	// constant confidence of 1.
	Keypoints3D []Keypoint

	// Cuboid is the reconstruction volume centered at the root joint. Only
	// set for the Human3.6M convention.
	Cuboid *volumetric.Cuboid3D

	// Index is the dataset position this sample was materialized from.
	Index    int
	Subject  string
	Action   string
	FrameIdx int

	// PredictedKeypoints3D is the precomputed prediction aligned with this
	// sample, when a predictions archive was configured.
	PredictedKeypoints3D []r3.Vector
}

// Views returns the number of surviving cameras in the sample.
func (s *Sample) Views() int { return len(s.Images) }
