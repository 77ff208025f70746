package dataset

import (
	"archive/zip"
	"io"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"github.com/poselab/mvpose/labels"
)

// Precomputed-prediction archives are .npz files with two members: a dense
// "keypoints_3d" array of shape [N, J, 3] and an "indexes" permutation that
// records the order the predictions were written in. The poses are sorted
// by the permutation before the test-split decimation is applied.

func loadPredictions(path string, stride int) (_ [][]r3.Vector, err error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open predictions archive %s", path)
	}
	defer utils.UncheckedErrorFunc(zr.Close)

	var kps []float64
	var kpsShape []int
	var indexes []int32
	for _, f := range zr.File {
		switch f.Name {
		case "keypoints_3d.npy":
			err = readNpzMember(f, func(r io.Reader) error {
				var err error
				kps, kpsShape, err = labels.ReadFloats(r)
				return err
			})
		case "indexes.npy":
			err = readNpzMember(f, func(r io.Reader) error {
				var err error
				indexes, _, err = labels.ReadInts(r)
				return err
			})
		}
		if err != nil {
			return nil, errors.Wrapf(err, "predictions archive %s: member %s", path, f.Name)
		}
	}
	if kps == nil || indexes == nil {
		return nil, errors.Errorf("predictions archive %s needs keypoints_3d and indexes members", path)
	}
	if len(kpsShape) != 3 || kpsShape[2] != 3 {
		return nil, errors.Errorf("predictions archive %s: keypoints_3d has shape %v, want [N, J, 3]", path, kpsShape)
	}
	n, joints := kpsShape[0], kpsShape[1]
	if len(indexes) != n {
		return nil, errors.Errorf("predictions archive %s: %d indexes for %d poses", path, len(indexes), n)
	}

	poses := make([][]r3.Vector, n)
	for i := 0; i < n; i++ {
		pose := make([]r3.Vector, joints)
		for j := 0; j < joints; j++ {
			base := (i*joints + j) * 3
			pose[j] = r3.Vector{X: kps[base], Y: kps[base+1], Z: kps[base+2]}
		}
		poses[i] = pose
	}

	// sort poses by the recorded index order (argsort), then decimate at
	// the test stride
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return indexes[order[a]] < indexes[order[b]] })

	var out [][]r3.Vector
	for k := 0; k < n; k += stride {
		out = append(out, poses[order[k]])
	}
	return out, nil
}

func readNpzMember(f *zip.File, read func(io.Reader) error) (err error) {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, rc.Close())
	}()
	return read(rc)
}
