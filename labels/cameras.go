package labels

import "github.com/pkg/errors"

// CameraParams are the raw calibration values for one (group, camera) pair,
// where a group is a subject for subject-partitioned datasets and an action
// otherwise.
type CameraParams struct {
	R    [3][3]float64
	T    [3]float64
	K    [3][3]float64
	Dist [5]float64
}

// CameraSet is the calibration table, laid out group-major.
type CameraSet struct {
	Params     []CameraParams
	NumCameras int
}

// Groups returns the number of parameter groups (subjects or actions).
func (s *CameraSet) Groups() int {
	if s.NumCameras == 0 {
		return 0
	}
	return len(s.Params) / s.NumCameras
}

// At returns the parameters for the given group and camera.
func (s *CameraSet) At(group, camera int) (CameraParams, error) {
	if group < 0 || group >= s.Groups() {
		return CameraParams{}, errors.Errorf("camera parameter group %d out of range [0,%d)", group, s.Groups())
	}
	if camera < 0 || camera >= s.NumCameras {
		return CameraParams{}, errors.Errorf("camera index %d out of range [0,%d)", camera, s.NumCameras)
	}
	return s.Params[group*s.NumCameras+camera], nil
}

func (s *CameraSet) validate() error {
	if s.NumCameras <= 0 {
		return errors.New("camera set has no cameras")
	}
	if len(s.Params)%s.NumCameras != 0 {
		return errors.Errorf("camera set has %d entries, not divisible by %d cameras",
			len(s.Params), s.NumCameras)
	}
	return nil
}
