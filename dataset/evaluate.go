package dataset

import (
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Transfer correspondence between the CMU and Human3.6M skeletons:
// parallel joint lists, ground truth first.
var (
	transferH36MJoints = []int{10, 11, 15, 14, 1, 4}
	transferCMUJoints  = []int{10, 8, 9, 7, 14, 13}
)

// EvalOptions tunes Evaluate. The zero value scores same-convention
// predictions with the kind's default root joint.
type EvalOptions struct {
	// RootJoint overrides the kind's root joint for relative error.
	RootJoint *int
	// TransferCMUToHuman36M scores CMU-convention predictions against
	// Human3.6M ground truth over the fixed 6-joint correspondence.
	TransferCMUToHuman36M bool
	// TransferHuman36MToHuman36M scores over the same 6-joint subset with
	// identity correspondence, for comparability with transferred runs.
	TransferHuman36MToHuman36M bool
}

// ActionScores is the per-action breakdown for one subject group. Trial
// pairs ("X-1"/"X-2") have been merged into their base name.
type ActionScores struct {
	Average float64            `json:"average"`
	Actions map[string]float64 `json:"actions"`
}

// SubjectScores nests ActionScores per subject; Average covers all rows.
type SubjectScores struct {
	Average  ActionScores            `json:"average"`
	Subjects map[string]ActionScores `json:"subjects"`
}

// Result is the full evaluation breakdown, absolute and root-relative.
type Result struct {
	PerPose         SubjectScores `json:"per_pose_error"`
	PerPoseRelative SubjectScores `json:"per_pose_error_relative"`
}

// EvaluatePredictions scores the precomputed predictions loaded through
// Config.PredictionsPath against the filtered index.
func (d *Dataset) EvaluatePredictions(opts EvalOptions) (float64, *Result, error) {
	if d.preds == nil {
		return 0, nil, errors.New("no precomputed predictions loaded")
	}
	return d.Evaluate(d.preds, d.index, opts)
}

// Evaluate scores predicted poses against ground truth pulled from the full
// label table at the given row positions; indexes may be any subset in any
// order, not necessarily the filtered index. It returns the overall
// root-relative error (millimeters) as the scalar score plus the nested
// breakdown.
func (d *Dataset) Evaluate(predicted [][]r3.Vector, indexes []int, opts EvalOptions) (float64, *Result, error) {
	if len(predicted) != len(indexes) {
		return 0, nil, errors.Errorf("got %d predicted poses for %d row positions", len(predicted), len(indexes))
	}
	t := d.labels.Table

	transfer := opts.TransferCMUToHuman36M || opts.TransferHuman36MToHuman36M
	var corr *jointCorrespondence
	switch {
	case transfer:
		pred := transferCMUJoints
		if opts.TransferHuman36MToHuman36M {
			pred = transferH36MJoints
		}
		corr = &jointCorrespondence{gt: transferH36MJoints, pred: pred}
	default:
		corr = d.info.evalJoints
	}

	root := d.info.rootJoint
	if opts.RootJoint != nil {
		root = *opts.RootJoint
	}
	if root < 0 || root >= d.info.numKeypoints {
		return 0, nil, errors.Errorf("root joint %d out of range [0,%d)", root, d.info.numKeypoints)
	}

	n := len(indexes)
	absErr := make([]float64, n)
	relErr := make([]float64, n)
	for i, row := range indexes {
		if row < 0 || row >= t.Len() {
			return 0, nil, errors.Errorf("row position %d out of range [0,%d)", row, t.Len())
		}
		gt := t.KeypointsAt(row)
		if len(gt) < d.info.numKeypoints {
			return 0, nil, errors.Errorf("label table stores %d joints, kind %q needs %d",
				len(gt), d.cfg.Kind, d.info.numKeypoints)
		}
		gt = gt[:d.info.numKeypoints]
		pred := predicted[i]
		if err := checkPose(pred, i, corr, d.info.numKeypoints); err != nil {
			return 0, nil, err
		}
		if corr != nil {
			if err := checkJointList(corr.gt, len(gt)); err != nil {
				return 0, nil, errors.Wrapf(err, "ground-truth correspondence")
			}
		}

		switch {
		case transfer:
			// remap first, then measure relative to the first mapped joint
			g, p := selectJoints(gt, corr.gt), selectJoints(pred, corr.pred)
			absErr[i] = meanJointDistance(g, p)
			relErr[i] = meanJointDistance(subtractRoot(g, 0), subtractRoot(p, 0))
		case corr != nil:
			// fixed cross-convention correspondence (HumanEva): root
			// subtraction happens in each skeleton's own convention
			if root >= len(pred) {
				return 0, nil, errors.Errorf("root joint %d out of range for predicted pose %d with %d joints",
					root, i, len(pred))
			}
			absErr[i] = meanJointDistance(selectJoints(gt, corr.gt), selectJoints(pred, corr.pred))
			relErr[i] = meanJointDistance(
				selectJoints(subtractRoot(gt, root), corr.gt),
				selectJoints(subtractRoot(pred, root), corr.pred),
			)
		default:
			absErr[i] = meanJointDistance(gt, pred)
			relErr[i] = meanJointDistance(subtractRoot(gt, root), subtractRoot(pred, root))
		}
	}

	result := &Result{
		PerPose:         d.aggregate(absErr, indexes),
		PerPoseRelative: d.aggregate(relErr, indexes),
	}
	return result.PerPoseRelative.Average.Average, result, nil
}

func checkPose(pose []r3.Vector, i int, corr *jointCorrespondence, numKeypoints int) error {
	if corr != nil {
		if err := checkJointList(corr.pred, len(pose)); err != nil {
			return errors.Wrapf(err, "predicted pose %d", i)
		}
		return nil
	}
	if len(pose) != numKeypoints {
		return errors.Errorf("predicted pose %d has %d joints, want %d", i, len(pose), numKeypoints)
	}
	return nil
}

func checkJointList(joints []int, numJoints int) error {
	for _, j := range joints {
		if j < 0 || j >= numJoints {
			return errors.Errorf("joint %d out of range [0,%d)", j, numJoints)
		}
	}
	return nil
}

func selectJoints(pose []r3.Vector, joints []int) []r3.Vector {
	out := make([]r3.Vector, len(joints))
	for i, j := range joints {
		out[i] = pose[j]
	}
	return out
}

func subtractRoot(pose []r3.Vector, root int) []r3.Vector {
	base := pose[root]
	out := make([]r3.Vector, len(pose))
	for i, p := range pose {
		out[i] = p.Sub(base)
	}
	return out
}

// meanJointDistance is the mean over joints of the Euclidean distance
// between corresponding joints.
func meanJointDistance(a, b []r3.Vector) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i].Sub(b[i]).Norm()
	}
	return sum / float64(len(a))
}

type scoreAcc struct {
	total float64
	count int
}

func (s *scoreAcc) add(v float64) {
	s.total += v
	s.count++
}

func (s *scoreAcc) mean() float64 {
	return s.total / float64(s.count)
}

type groupAcc struct {
	all     scoreAcc
	actions map[string]*scoreAcc
}

func newGroupAcc() *groupAcc {
	return &groupAcc{actions: map[string]*scoreAcc{}}
}

func (g *groupAcc) add(action string, v float64) {
	g.all.add(v)
	acc, ok := g.actions[action]
	if !ok {
		acc = &scoreAcc{}
		g.actions[action] = acc
	}
	acc.add(v)
}

// finalize merges numbered trials and converts sums to weighted means.
// Merging sums totals and counts, so the combined entry is the weighted
// mean over all trial frames, never a mean of means.
func (g *groupAcc) finalize() ActionScores {
	merged := map[string]*scoreAcc{}
	for name, acc := range g.actions {
		base := name
		if strings.HasSuffix(name, "-1") || strings.HasSuffix(name, "-2") {
			base = name[:len(name)-2]
		}
		macc, ok := merged[base]
		if !ok {
			macc = &scoreAcc{}
			merged[base] = macc
		}
		macc.total += acc.total
		macc.count += acc.count
	}
	out := ActionScores{
		Average: g.all.mean(),
		Actions: make(map[string]float64, len(merged)),
	}
	for name, acc := range merged {
		out.Actions[name] = acc.mean()
	}
	return out
}

// aggregate builds the nested subject → action breakdown. Groups with no
// matching rows are omitted rather than reported as 0/0.
func (d *Dataset) aggregate(perPose []float64, indexes []int) SubjectScores {
	t := d.labels.Table
	overall := newGroupAcc()
	bySubject := map[string]*groupAcc{}

	for i, e := range perPose {
		row := indexes[i]
		action := d.labels.Actions.Name(int(t.ActionIdx[row]))
		overall.add(action, e)

		if d.info.actionPartitioned {
			continue
		}
		subject := d.labels.Subjects.Name(int(t.SubjectIdx[row]))
		acc, ok := bySubject[subject]
		if !ok {
			acc = newGroupAcc()
			bySubject[subject] = acc
		}
		acc.add(action, e)
	}

	out := SubjectScores{
		Average:  overall.finalize(),
		Subjects: make(map[string]ActionScores, len(bySubject)),
	}
	for subject, acc := range bySubject {
		out.Subjects[subject] = acc.finalize()
	}
	return out
}
