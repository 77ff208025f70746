// Package dataset indexes a multi-view human-pose dataset and materializes
// per-shot samples: images per camera, calibrated cameras adjusted for
// crop/resize, ground-truth keypoints, and evaluation helpers.
package dataset

import (
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/poselab/mvpose/camera"
	"github.com/poselab/mvpose/imgutil"
	"github.com/poselab/mvpose/labels"
	"github.com/poselab/mvpose/volumetric"
)

const damagedSubject = "S9"

// damagedActions are the known-corrupted Human3.6M sequences, excluded from
// the test split unless Config.WithDamagedActions is set.
var damagedActions = []string{"Greeting-2", "SittingDown-2", "Waiting-1"}

// Dataset is a filtered view of a label archive. It is immutable after New;
// concurrent At calls on different indices are safe.
type Dataset struct {
	cfg    Config
	info   kindInfo
	labels *labels.Labels

	// index maps dataset positions to label-table row positions, train rows
	// first, then test rows.
	index   []int
	ignored map[int]bool

	preds [][]r3.Vector

	logger golog.Logger
}

// New loads the label archive and builds the filtered index. All
// configuration errors are fatal here; there is no partial construction.
func New(cfg Config, logger golog.Logger) (*Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	info, err := kindInfoFor(cfg.Kind)
	if err != nil {
		return nil, err
	}

	lbl, err := labels.Load(cfg.LabelsPath)
	if err != nil {
		return nil, err
	}

	ignored := make(map[int]bool, len(cfg.IgnoreCameras))
	for _, c := range cfg.IgnoreCameras {
		if c < 0 || c >= lbl.Cameras.Len() {
			return nil, errors.Errorf("ignored camera index %d out of range [0,%d)", c, lbl.Cameras.Len())
		}
		ignored[c] = true
	}

	d := &Dataset{
		cfg:     cfg,
		info:    info,
		labels:  lbl,
		ignored: ignored,
		logger:  logger,
	}
	if err := d.buildIndex(); err != nil {
		return nil, err
	}

	if cfg.PredictionsPath != "" {
		preds, err := loadPredictions(cfg.PredictionsPath, cfg.RetainEveryNFramesInTest)
		if err != nil {
			return nil, err
		}
		if len(preds) != d.Len() {
			return nil, errors.Errorf("precomputed predictions: %d entries after alignment, dataset has %d",
				len(preds), d.Len())
		}
		d.preds = preds
	}

	logger.Debugw("dataset ready",
		"kind", cfg.Kind,
		"rows", lbl.Table.Len(),
		"filtered", d.Len(),
		"cameras", lbl.Cameras.Len(),
	)
	return d, nil
}

// buildIndex selects the train and test rows, in that order. The label
// table itself stays complete; only row positions are recorded.
func (d *Dataset) buildIndex() error {
	t := d.labels.Table

	if d.info.actionPartitioned {
		// no subject split: every row is in scope
		d.index = make([]int, t.Len())
		for i := range d.index {
			d.index[i] = i
		}
		return nil
	}

	trainSet, err := d.subjectSet(d.info.trainSubjects)
	if err != nil {
		return err
	}
	testSet, err := d.subjectSet(d.info.testSubjects)
	if err != nil {
		return err
	}

	var index []int
	if d.cfg.Train {
		index = appendStrided(index, t, trainSet, nil, d.cfg.RetainEveryNFramesInTrain)
	}
	if d.cfg.Test {
		var excluded map[int64]bool
		if !d.cfg.WithDamagedActions && d.cfg.Kind == KindHuman36M {
			excluded = d.damagedRows()
		}
		index = appendStrided(index, t, testSet, excluded, d.cfg.RetainEveryNFramesInTest)
	}
	d.index = index
	return nil
}

func (d *Dataset) subjectSet(names []string) (map[int32]bool, error) {
	set := make(map[int32]bool, len(names))
	for _, name := range names {
		i, ok := d.labels.Subjects.Index(name)
		if !ok {
			return nil, errors.Errorf("subject %q not present in label archive", name)
		}
		set[int32(i)] = true
	}
	return set, nil
}

// damagedRows keys the excluded (subject, action) pairs. Damaged action
// names absent from this archive are simply not excluded.
func (d *Dataset) damagedRows() map[int64]bool {
	subj, ok := d.labels.Subjects.Index(damagedSubject)
	if !ok {
		return nil
	}
	excluded := make(map[int64]bool, len(damagedActions))
	for _, name := range damagedActions {
		if act, ok := d.labels.Actions.Index(name); ok {
			excluded[pairKey(int32(subj), int32(act))] = true
		}
	}
	return excluded
}

func pairKey(subject, action int32) int64 {
	return int64(subject)<<32 | int64(action)
}

// appendStrided appends every stride-th row whose subject is in the set and
// whose (subject, action) pair is not excluded.
func appendStrided(index []int, t *labels.Table, subjects map[int32]bool, excluded map[int64]bool, stride int) []int {
	kept := 0
	for i := 0; i < t.Len(); i++ {
		if !subjects[t.SubjectIdx[i]] {
			continue
		}
		if excluded != nil && excluded[pairKey(t.SubjectIdx[i], t.ActionIdx[i])] {
			continue
		}
		if kept%stride == 0 {
			index = append(index, i)
		}
		kept++
	}
	return index
}

// Len returns the number of rows in the filtered index.
func (d *Dataset) Len() int { return len(d.index) }

// Kind returns the dataset's convention.
func (d *Dataset) Kind() Kind { return d.cfg.Kind }

// NumKeypoints returns the per-sample joint count fixed by the kind.
func (d *Dataset) NumKeypoints() int { return d.info.numKeypoints }

// Labels exposes the loaded label archive (read-only by convention).
func (d *Dataset) Labels() *labels.Labels { return d.labels }

// RowAt returns the label-table row position behind dataset position i.
func (d *Dataset) RowAt(i int) int { return d.index[i] }

// At materializes the sample at dataset position i. A missing image file is
// an error; a zero-height bounding box means the view is absent and is
// silently skipped.
func (d *Dataset) At(i int) (*Sample, error) {
	if i < 0 || i >= len(d.index) {
		return nil, errors.Errorf("sample index %d out of range [0,%d)", i, len(d.index))
	}
	t := d.labels.Table
	row := d.index[i]

	var subject string
	if !d.info.actionPartitioned {
		subject = d.labels.Subjects.Name(int(t.SubjectIdx[row]))
	}
	action := d.labels.Actions.Name(int(t.ActionIdx[row]))
	frame := int(t.FrameIdx[row])

	sample := &Sample{
		Index:    i,
		Subject:  subject,
		Action:   action,
		FrameIdx: frame,
	}

	for camIdx := 0; camIdx < d.labels.Cameras.Len(); camIdx++ {
		if d.ignored[camIdx] {
			continue
		}
		camName := d.labels.Cameras.Name(camIdx)
		if d.info.skipCamera != nil && d.info.skipCamera(action, camName) {
			continue
		}
		if err := d.materializeView(sample, t, row, subject, action, frame, camIdx, camName); err != nil {
			return nil, err
		}
	}

	kps := t.KeypointsAt(row)
	if len(kps) < d.info.numKeypoints {
		return nil, errors.Errorf("label table stores %d joints, kind %q needs %d",
			len(kps), d.cfg.Kind, d.info.numKeypoints)
	}
	sample.Keypoints3D = make([]Keypoint, d.info.numKeypoints)
	for j := 0; j < d.info.numKeypoints; j++ {
		sample.Keypoints3D[j] = Keypoint{Position: kps[j], Confidence: 1.0}
	}

	if d.info.buildCuboid {
		base := sample.Keypoints3D[d.info.rootJoint].Position
		sides := r3.Vector{X: d.cfg.CuboidSide, Y: d.cfg.CuboidSide, Z: d.cfg.CuboidSide}
		cuboid := volumetric.NewCuboid3D(base.Sub(sides.Mul(0.5)), sides)
		sample.Cuboid = &cuboid
	}

	if d.preds != nil {
		sample.PredictedKeypoints3D = d.preds[i]
	}
	return sample, nil
}

// materializeView loads, crops, resizes, and normalizes one camera's image
// and appends the view to the sample's parallel slices.
func (d *Dataset) materializeView(
	sample *Sample,
	t *labels.Table,
	row int,
	subject, action string,
	frame, camIdx int,
	camName string,
) error {
	bbox := imgutil.FromTLBR(t.BBoxAt(row, camIdx))
	if bbox.Empty() {
		// zero-height box: this view is missing for the shot
		return nil
	}
	bbox = imgutil.ScaleBBox(bbox, d.cfg.BBoxScale)

	path := d.info.imagePath(d.cfg.DataRoot, subject, action, camName, frame, d.cfg.UndistortedImages)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return errors.Errorf("image %s does not exist", path)
		}
		return errors.Wrapf(err, "stat image %s", path)
	}
	img, err := imaging.Open(path)
	if err != nil {
		return errors.Wrapf(err, "decode image %s", path)
	}

	group := int(t.SubjectIdx[row])
	if d.info.actionPartitioned {
		group = int(t.ActionIdx[row])
	}
	params, err := d.labels.CameraSet.At(group, camIdx)
	if err != nil {
		return err
	}
	cam := camera.New(params.R, params.T, params.K, params.Dist[:], camName)

	var view image.Image = img
	if d.cfg.Crop {
		view = imgutil.CropImage(view, bbox)
		cam.UpdateAfterCrop(bbox)
	}
	if d.cfg.resizeEnabled() {
		before := image.Pt(view.Bounds().Dx(), view.Bounds().Dy())
		target := image.Pt(d.cfg.ImageWidth, d.cfg.ImageHeight)
		view = imgutil.ResizeImage(view, target.X, target.Y)
		if err := cam.UpdateAfterResize(before, target); err != nil {
			return err
		}
		sample.ShapesBeforeResize = append(sample.ShapesBeforeResize, before)
	}
	if d.cfg.NormalizeImages {
		sample.Normalized = append(sample.Normalized, imgutil.NormalizeImage(view))
	}

	sample.Images = append(sample.Images, view)
	sample.Detections = append(sample.Detections, bbox)
	sample.Cameras = append(sample.Cameras, cam)
	sample.Projections = append(sample.Projections, cam.Projection())
	return nil
}
