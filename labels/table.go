package labels

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Table is the label table: one row per (subject, action, frame) shot,
// stored column-wise. It is immutable after load; readers from multiple
// goroutines are safe.
type Table struct {
	SubjectIdx []int32
	ActionIdx  []int32
	FrameIdx   []int32

	// Keypoints is a flat [N × NumJoints × 3] array of world-space joint
	// coordinates in millimeters.
	Keypoints []float64
	NumJoints int

	// BBoxes is a flat [N × NumCameras × 4] array of per-camera boxes in
	// top-left-bottom-right order.
	BBoxes     []int32
	NumCameras int
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.SubjectIdx) }

// KeypointsAt returns a copy of the joint coordinates for row i.
func (t *Table) KeypointsAt(i int) []r3.Vector {
	out := make([]r3.Vector, t.NumJoints)
	base := i * t.NumJoints * 3
	for j := 0; j < t.NumJoints; j++ {
		out[j] = r3.Vector{
			X: t.Keypoints[base+j*3],
			Y: t.Keypoints[base+j*3+1],
			Z: t.Keypoints[base+j*3+2],
		}
	}
	return out
}

// BBoxAt returns the TLBR box for row i as seen by the given camera.
func (t *Table) BBoxAt(i, camera int) [4]int {
	base := (i*t.NumCameras + camera) * 4
	return [4]int{
		int(t.BBoxes[base]),
		int(t.BBoxes[base+1]),
		int(t.BBoxes[base+2]),
		int(t.BBoxes[base+3]),
	}
}

func (t *Table) validate() error {
	n := t.Len()
	if len(t.ActionIdx) != n || len(t.FrameIdx) != n {
		return errors.Errorf("table columns disagree on row count: subject=%d action=%d frame=%d",
			n, len(t.ActionIdx), len(t.FrameIdx))
	}
	if t.NumJoints <= 0 || len(t.Keypoints) != n*t.NumJoints*3 {
		return errors.Errorf("keypoints column has %d values, want %d rows x %d joints x 3",
			len(t.Keypoints), n, t.NumJoints)
	}
	if t.NumCameras <= 0 || len(t.BBoxes) != n*t.NumCameras*4 {
		return errors.Errorf("bbox column has %d values, want %d rows x %d cameras x 4",
			len(t.BBoxes), n, t.NumCameras)
	}
	return nil
}
