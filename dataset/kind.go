package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Kind selects the skeleton/dataset convention. It fixes the keypoint
// count, the train/test subject split, the on-disk image layout, and the
// evaluation joint tables.
type Kind string

// The supported conventions.
const (
	KindMPII         Kind = "mpii"
	KindHuman36M     Kind = "human36m"
	KindHumanEva     Kind = "humaneva"
	KindAMA          Kind = "ama"
	KindTotalCapture Kind = "totalcap"
	KindMPIINF3DHP   Kind = "mpi3d"
)

// kindInfo is the static per-kind configuration record, resolved once at
// dataset construction.
type kindInfo struct {
	numKeypoints int

	trainSubjects []string
	testSubjects  []string

	// actionPartitioned datasets have no subject split, and index camera
	// parameters by action instead of subject.
	actionPartitioned bool

	rootJoint   int
	buildCuboid bool

	imagePath  func(root, subject, action, cameraName string, frameIdx int, undistorted bool) string
	skipCamera func(action, cameraName string) bool

	// evalJoints, when set, restricts evaluation to a fixed correspondence:
	// gt joints come from the first list, predicted joints from the second.
	evalJoints *jointCorrespondence
}

// jointCorrespondence maps between two skeleton conventions via parallel
// joint-index lists.
type jointCorrespondence struct {
	gt   []int
	pred []int
}

func human36mImagePath(root, subject, action, cameraName string, frameIdx int, undistorted bool) string {
	seq := "imageSequence"
	if undistorted {
		seq += "-undistorted"
	}
	return filepath.Join(root, subject, action, seq, cameraName,
		fmt.Sprintf("img_%06d.jpg", frameIdx+1))
}

func humanEvaImagePath(root, subject, action, cameraName string, frameIdx int, _ bool) string {
	return filepath.Join(root, subject, "imageSequence", action, cameraName,
		fmt.Sprintf("img_%06d.jpg", frameIdx))
}

func amaImagePath(root, _, action, cameraName string, frameIdx int, _ bool) string {
	switch action {
	case "D_march", "D_squat", "I_march", "I_squat":
		return filepath.Join(root, action, "images",
			fmt.Sprintf("Camera%s_%04d.jpg", cameraName, frameIdx))
	default:
		return filepath.Join(root, action, "images",
			fmt.Sprintf("Image%s_%04d.png", cameraName, frameIdx))
	}
}

func totalCaptureImagePath(root, subject, action, cameraName string, frameIdx int, _ bool) string {
	return filepath.Join(root, subject, "Images", action, "cam"+cameraName,
		fmt.Sprintf("frm%04d_cam%s.jpg", frameIdx, cameraName))
}

func mpiInfImagePath(root, subject, action, cameraName string, frameIdx int, _ bool) string {
	return filepath.Join(root, subject, action, "Images", "cam"+cameraName,
		fmt.Sprintf("frm%06d_cam%s.jpg", frameIdx, cameraName))
}

// amaSkipCamera drops the view that is unusable for the given ama sequence:
// camera 7 for march/squat captures, camera 5 otherwise.
func amaSkipCamera(action, cameraName string) bool {
	if strings.Contains(action, "march") || strings.Contains(action, "squat") {
		return cameraName == "7"
	}
	return cameraName == "5"
}

// humanEvaEval is the fixed 8-joint correspondence used when scoring
// Human3.6M-convention predictions against HumanEva ground truth:
// L/R knee, L/R shoulder, L/R ankle, pelvis, neck.
var humanEvaEval = &jointCorrespondence{
	gt:   []int{11, 15, 2, 6, 13, 17, 1, 0},
	pred: []int{4, 1, 13, 12, 5, 0, 6, 8},
}

var kinds = map[Kind]kindInfo{
	KindMPII: {
		numKeypoints:  16,
		trainSubjects: []string{"S1", "S5", "S6", "S7", "S8"},
		testSubjects:  []string{"S9", "S11"},
		rootJoint:     6,
		imagePath:     human36mImagePath,
	},
	KindHuman36M: {
		numKeypoints:  17,
		trainSubjects: []string{"S1", "S5", "S6", "S7", "S8"},
		testSubjects:  []string{"S9", "S11"},
		rootJoint:     6,
		buildCuboid:   true,
		imagePath:     human36mImagePath,
	},
	KindHumanEva: {
		numKeypoints: 20,
		testSubjects: []string{"S1"},
		rootJoint:    6,
		imagePath:    humanEvaImagePath,
		evalJoints:   humanEvaEval,
	},
	KindAMA: {
		numKeypoints:      17,
		actionPartitioned: true,
		rootJoint:         6,
		imagePath:         amaImagePath,
		skipCamera:        amaSkipCamera,
	},
	KindTotalCapture: {
		numKeypoints: 21,
		testSubjects: []string{"s1"},
		rootJoint:    6,
		imagePath:    totalCaptureImagePath,
	},
	KindMPIINF3DHP: {
		numKeypoints: 28,
		testSubjects: []string{"S1", "S2"},
		rootJoint:    6,
		imagePath:    mpiInfImagePath,
	},
}

func kindInfoFor(k Kind) (kindInfo, error) {
	info, ok := kinds[k]
	if !ok {
		return kindInfo{}, errors.Errorf("unrecognized dataset kind %q", k)
	}
	return info, nil
}
