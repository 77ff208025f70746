package dataset

import "github.com/pkg/errors"

// Defaults applied by New for zero-valued config fields.
const (
	// DefaultTrainStride is the frame decimation applied to the training
	// split. The large default mirrors the debug downsampling the labels
	// were historically consumed with; production configs should set
	// RetainEveryNFramesInTrain explicitly.
	DefaultTrainStride = 4000
	// DefaultBBoxScale is the margin factor applied around detected boxes.
	DefaultBBoxScale = 1.5
	// DefaultCuboidSide is the side length, in millimeters, of the
	// reconstruction cuboid centered at the root joint.
	DefaultCuboidSide = 2000.0
)

// Config configures a Dataset. The zero value is not usable: at least one
// of Train/Test must be set and Kind and paths must be filled in.
type Config struct {
	// DataRoot is the directory holding the per-subject image tree.
	DataRoot string `json:"data_root"`
	// LabelsPath points at the label archive (see the labels package).
	LabelsPath string `json:"labels_path"`
	// PredictionsPath optionally points at an .npz archive of precomputed
	// 3D predictions ("keypoints_3d" + "indexes" members).
	PredictionsPath string `json:"predictions_path,omitempty"`

	// ImageWidth/ImageHeight select the target image shape. Both zero
	// disables resizing.
	ImageWidth  int `json:"image_width,omitempty"`
	ImageHeight int `json:"image_height,omitempty"`

	Train bool `json:"train"`
	Test  bool `json:"test"`

	// RetainEveryNFramesInTest keeps every n-th test frame. Zero means 1.
	RetainEveryNFramesInTest int `json:"retain_every_n_frames_in_test,omitempty"`
	// RetainEveryNFramesInTrain keeps every n-th train frame. Zero means
	// DefaultTrainStride.
	RetainEveryNFramesInTrain int `json:"retain_every_n_frames_in_train,omitempty"`

	// WithDamagedActions includes the known-corrupted S9 sequences in the
	// test split.
	WithDamagedActions bool `json:"with_damaged_actions,omitempty"`

	CuboidSide float64 `json:"cuboid_side,omitempty"`
	BBoxScale  float64 `json:"bbox_scale,omitempty"`

	NormalizeImages   bool  `json:"normalize_images,omitempty"`
	Kind              Kind  `json:"kind"`
	UndistortedImages bool  `json:"undistorted_images,omitempty"`
	IgnoreCameras     []int `json:"ignore_cameras,omitempty"`
	Crop              bool  `json:"crop"`
}

// Validate checks the parts of the config that can be checked without the
// label archive. New calls it; it is exported for config-file tooling.
func (c *Config) Validate() error {
	if !c.Train && !c.Test {
		return errors.New("dataset config needs at least one of train/test")
	}
	if _, err := kindInfoFor(c.Kind); err != nil {
		return err
	}
	if c.LabelsPath == "" {
		return errors.New("dataset config needs a labels path")
	}
	if (c.ImageWidth == 0) != (c.ImageHeight == 0) {
		return errors.New("image width and height must be set together")
	}
	if c.ImageWidth < 0 || c.ImageHeight < 0 {
		return errors.New("image shape must be non-negative")
	}
	if c.RetainEveryNFramesInTest < 0 || c.RetainEveryNFramesInTrain < 0 {
		return errors.New("frame retention strides must be non-negative")
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.RetainEveryNFramesInTest == 0 {
		c.RetainEveryNFramesInTest = 1
	}
	if c.RetainEveryNFramesInTrain == 0 {
		c.RetainEveryNFramesInTrain = DefaultTrainStride
	}
	if c.BBoxScale == 0 {
		c.BBoxScale = DefaultBBoxScale
	}
	if c.CuboidSide == 0 {
		c.CuboidSide = DefaultCuboidSide
	}
	return c
}

func (c *Config) resizeEnabled() bool {
	return c.ImageWidth > 0 && c.ImageHeight > 0
}
