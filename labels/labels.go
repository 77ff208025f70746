// Package labels loads the multi-view label archive: name tables, the
// per-shot label table, and per-(group, camera) calibration parameters.
//
// The archive is a zip file of .npy members plus a names.json manifest:
//
//	names.json
//	table/subject_idx.npy        <i4 [N]
//	table/action_idx.npy         <i4 [N]
//	table/frame_idx.npy          <i4 [N]
//	table/keypoints.npy          float [N, J, 3]
//	table/bbox_by_camera_tlbr.npy <i4 [N, C, 4]
//	cameras/R.npy                float [G, C, 3, 3]
//	cameras/t.npy                float [G, C, 3]
//	cameras/K.npy                float [G, C, 3, 3]
//	cameras/dist.npy             float [G, C, 5]
package labels

import (
	"archive/zip"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

const (
	memberNames     = "names.json"
	memberSubjects  = "table/subject_idx.npy"
	memberActions   = "table/action_idx.npy"
	memberFrames    = "table/frame_idx.npy"
	memberKeypoints = "table/keypoints.npy"
	memberBBoxes    = "table/bbox_by_camera_tlbr.npy"
	memberCamR      = "cameras/R.npy"
	memberCamT      = "cameras/t.npy"
	memberCamK      = "cameras/K.npy"
	memberCamDist   = "cameras/dist.npy"
)

// Labels is a fully loaded label archive. All fields are immutable after
// Load.
type Labels struct {
	Cameras  *Names
	Subjects *Names
	Actions  *Names

	Table     *Table
	CameraSet *CameraSet
}

type namesManifest struct {
	CameraNames  []string `json:"camera_names"`
	SubjectNames []string `json:"subject_names"`
	ActionNames  []string `json:"action_names"`
}

// Load reads and validates a label archive. Any missing or malformed member
// is fatal; there is no partial load.
func Load(path string) (_ *Labels, err error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open label archive %s", path)
	}
	defer utils.UncheckedErrorFunc(zr.Close)

	members := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		members[f.Name] = f
	}

	var manifest namesManifest
	if err := readMember(members, memberNames, func(r io.Reader) error {
		return json.NewDecoder(r).Decode(&manifest)
	}); err != nil {
		return nil, err
	}
	if len(manifest.CameraNames) == 0 {
		return nil, errors.Errorf("label archive %s names no cameras", path)
	}

	l := &Labels{
		Cameras:  NewNames(manifest.CameraNames),
		Subjects: NewNames(manifest.SubjectNames),
		Actions:  NewNames(manifest.ActionNames),
	}

	if l.Table, err = loadTable(members, len(manifest.CameraNames)); err != nil {
		return nil, errors.Wrapf(err, "label archive %s", path)
	}
	if l.CameraSet, err = loadCameraSet(members, len(manifest.CameraNames)); err != nil {
		return nil, errors.Wrapf(err, "label archive %s", path)
	}
	return l, nil
}

func readMember(members map[string]*zip.File, name string, read func(io.Reader) error) (err error) {
	f, ok := members[name]
	if !ok {
		return errors.Errorf("missing archive member %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return errors.Wrapf(err, "open archive member %s", name)
	}
	defer func() {
		err = multierr.Combine(err, rc.Close())
	}()
	if err := read(rc); err != nil {
		return errors.Wrapf(err, "archive member %s", name)
	}
	return nil
}

func readIntColumn(members map[string]*zip.File, name string) ([]int32, []int, error) {
	var data []int32
	var shape []int
	err := readMember(members, name, func(r io.Reader) error {
		var err error
		data, shape, err = ReadInts(r)
		return err
	})
	return data, shape, err
}

func readFloatColumn(members map[string]*zip.File, name string) ([]float64, []int, error) {
	var data []float64
	var shape []int
	err := readMember(members, name, func(r io.Reader) error {
		var err error
		data, shape, err = ReadFloats(r)
		return err
	})
	return data, shape, err
}

func loadTable(members map[string]*zip.File, numCameras int) (*Table, error) {
	subjects, shape, err := readIntColumn(members, memberSubjects)
	if err != nil {
		return nil, err
	}
	if len(shape) != 1 {
		return nil, errors.Errorf("%s: want 1-D column, got shape %v", memberSubjects, shape)
	}
	actions, shape, err := readIntColumn(members, memberActions)
	if err != nil {
		return nil, err
	}
	if len(shape) != 1 {
		return nil, errors.Errorf("%s: want 1-D column, got shape %v", memberActions, shape)
	}
	frames, shape, err := readIntColumn(members, memberFrames)
	if err != nil {
		return nil, err
	}
	if len(shape) != 1 {
		return nil, errors.Errorf("%s: want 1-D column, got shape %v", memberFrames, shape)
	}

	keypoints, kpShape, err := readFloatColumn(members, memberKeypoints)
	if err != nil {
		return nil, err
	}
	if len(kpShape) != 3 || kpShape[2] != 3 {
		return nil, errors.Errorf("%s: want shape [N, J, 3], got %v", memberKeypoints, kpShape)
	}

	bboxes, bbShape, err := readIntColumn(members, memberBBoxes)
	if err != nil {
		return nil, err
	}
	if len(bbShape) != 3 || bbShape[2] != 4 {
		return nil, errors.Errorf("%s: want shape [N, C, 4], got %v", memberBBoxes, bbShape)
	}
	if bbShape[1] != numCameras {
		return nil, errors.Errorf("%s: %d cameras per row, manifest names %d", memberBBoxes, bbShape[1], numCameras)
	}

	t := &Table{
		SubjectIdx: subjects,
		ActionIdx:  actions,
		FrameIdx:   frames,
		Keypoints:  keypoints,
		NumJoints:  kpShape[1],
		BBoxes:     bboxes,
		NumCameras: numCameras,
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func loadCameraSet(members map[string]*zip.File, numCameras int) (*CameraSet, error) {
	rData, rShape, err := readFloatColumn(members, memberCamR)
	if err != nil {
		return nil, err
	}
	if len(rShape) != 4 || rShape[2] != 3 || rShape[3] != 3 {
		return nil, errors.Errorf("%s: want shape [G, C, 3, 3], got %v", memberCamR, rShape)
	}
	groups, cams := rShape[0], rShape[1]
	if cams != numCameras {
		return nil, errors.Errorf("%s: %d cameras, manifest names %d", memberCamR, cams, numCameras)
	}

	tData, tShape, err := readFloatColumn(members, memberCamT)
	if err != nil {
		return nil, err
	}
	if len(tShape) < 3 || tShape[0] != groups || tShape[1] != cams || shapeLen(tShape) != groups*cams*3 {
		return nil, errors.Errorf("%s: want shape [G, C, 3], got %v", memberCamT, tShape)
	}

	kData, kShape, err := readFloatColumn(members, memberCamK)
	if err != nil {
		return nil, err
	}
	if len(kShape) != 4 || kShape[0] != groups || kShape[1] != cams || kShape[2] != 3 || kShape[3] != 3 {
		return nil, errors.Errorf("%s: want shape [G, C, 3, 3], got %v", memberCamK, kShape)
	}

	dData, dShape, err := readFloatColumn(members, memberCamDist)
	if err != nil {
		return nil, err
	}
	if len(dShape) != 3 || dShape[0] != groups || dShape[1] != cams || dShape[2] != 5 {
		return nil, errors.Errorf("%s: want shape [G, C, 5], got %v", memberCamDist, dShape)
	}

	set := &CameraSet{
		Params:     make([]CameraParams, groups*cams),
		NumCameras: cams,
	}
	for g := 0; g < groups; g++ {
		for c := 0; c < cams; c++ {
			idx := g*cams + c
			p := &set.Params[idx]
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					p.R[i][j] = rData[idx*9+i*3+j]
					p.K[i][j] = kData[idx*9+i*3+j]
				}
				p.T[i] = tData[idx*3+i]
			}
			for i := 0; i < 5; i++ {
				p.Dist[i] = dData[idx*5+i]
			}
		}
	}
	if err := set.validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// Save writes the archive to path. It exists for the offline preprocessing
// tools and for tests; Load is the hot path.
func (l *Labels) Save(path string) (err error) {
	if err := l.Table.validate(); err != nil {
		return err
	}
	if err := l.CameraSet.validate(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create label archive %s", path)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	zw := zip.NewWriter(f)

	write := func(name string, fn func(io.Writer) error) error {
		w, err := zw.Create(name)
		if err != nil {
			return errors.Wrapf(err, "create archive member %s", name)
		}
		if err := fn(w); err != nil {
			return errors.Wrapf(err, "write archive member %s", name)
		}
		return nil
	}

	manifest := namesManifest{
		CameraNames:  l.Cameras.All(),
		SubjectNames: l.Subjects.All(),
		ActionNames:  l.Actions.All(),
	}
	if err := write(memberNames, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(&manifest)
	}); err != nil {
		return err
	}

	n := l.Table.Len()
	steps := []struct {
		name string
		fn   func(io.Writer) error
	}{
		{memberSubjects, func(w io.Writer) error { return WriteInts(w, l.Table.SubjectIdx, []int{n}) }},
		{memberActions, func(w io.Writer) error { return WriteInts(w, l.Table.ActionIdx, []int{n}) }},
		{memberFrames, func(w io.Writer) error { return WriteInts(w, l.Table.FrameIdx, []int{n}) }},
		{memberKeypoints, func(w io.Writer) error {
			return WriteFloats(w, l.Table.Keypoints, []int{n, l.Table.NumJoints, 3})
		}},
		{memberBBoxes, func(w io.Writer) error {
			return WriteInts(w, l.Table.BBoxes, []int{n, l.Table.NumCameras, 4})
		}},
	}
	for _, s := range steps {
		if err := write(s.name, s.fn); err != nil {
			return err
		}
	}
	if err := writeCameraSet(write, l.CameraSet); err != nil {
		return err
	}
	return zw.Close()
}

func writeCameraSet(write func(string, func(io.Writer) error) error, set *CameraSet) error {
	groups, cams := set.Groups(), set.NumCameras
	rData := make([]float64, 0, groups*cams*9)
	kData := make([]float64, 0, groups*cams*9)
	tData := make([]float64, 0, groups*cams*3)
	dData := make([]float64, 0, groups*cams*5)
	for _, p := range set.Params {
		for i := 0; i < 3; i++ {
			rData = append(rData, p.R[i][:]...)
			kData = append(kData, p.K[i][:]...)
		}
		tData = append(tData, p.T[:]...)
		dData = append(dData, p.Dist[:]...)
	}
	steps := []struct {
		name  string
		data  []float64
		shape []int
	}{
		{memberCamR, rData, []int{groups, cams, 3, 3}},
		{memberCamT, tData, []int{groups, cams, 3}},
		{memberCamK, kData, []int{groups, cams, 3, 3}},
		{memberCamDist, dData, []int{groups, cams, 5}},
	}
	for _, s := range steps {
		s := s
		if err := write(s.name, func(w io.Writer) error {
			return WriteFloats(w, s.data, s.shape)
		}); err != nil {
			return err
		}
	}
	return nil
}
